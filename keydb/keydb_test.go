// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package keydb

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tacerus/luksrku/cryptoutil"
	"github.com/tacerus/luksrku/lukserr"
)

func newTestDB(t *testing.T) *KeyDB {
	db := New()
	h, err := db.AddHost("web1")
	if err != nil {
		t.Fatalf("AddHost: %v", err)
	}
	vol := cryptoutil.NewUUID()
	if _, err := db.AddVolume(h.Name(), "root", vol); err != nil {
		t.Fatalf("AddVolume: %v", err)
	}
	return db
}

func TestRoundTrip(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "db")
	passphrase := []byte("correct horse battery staple")
	if err := Write(db, path, passphrase); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(path, passphrase)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !reflect.DeepEqual(marshalV3(db), marshalV3(got)) {
		t.Fatal("round-tripped payload does not match original")
	}
}

func TestAuthCorruptedByte(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "db")
	passphrase := []byte("hunter2")
	if err := Write(db, path, passphrase); err != nil {
		t.Fatalf("Write: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	raw[len(raw)-1] ^= 0xff
	if err := os.WriteFile(path, raw, 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := Read(path, passphrase); !lukserr.Is(err, lukserr.KindAuth) {
		t.Fatalf("expected KindAuth, got %v", err)
	}
}

func TestWrongPassphrase(t *testing.T) {
	db := newTestDB(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "db")
	if err := Write(db, path, []byte("correct")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := Read(path, []byte("incorrect")); !lukserr.Is(err, lukserr.KindAuth) {
		t.Fatalf("expected KindAuth, got %v", err)
	}
}

func TestExportPurity(t *testing.T) {
	db := newTestDB(t)
	exported, err := db.ExportPublic("web1")
	if err != nil {
		t.Fatalf("ExportPublic: %v", err)
	}
	if exported.ServerDatabase {
		t.Fatal("exported database must not be a server database")
	}
	for _, h := range exported.Hosts {
		for i := uint32(0); i < h.VolumeCount; i++ {
			var zero [32]byte
			if h.Volumes[i].RawPassword != zero {
				t.Fatal("exported volume still carries a raw passphrase")
			}
		}
	}
}

func TestMigrationV1(t *testing.T) {
	var host HostEntry
	host.HostUUID = cryptoutil.NewUUID()
	if err := putName(host.HostName[:], "legacy"); err != nil {
		t.Fatalf("putName: %v", err)
	}
	cryptoutil.RandomBytes(host.PSK[:])
	host.VolumeCount = 1
	host.Volumes[0].VolumeUUID = cryptoutil.NewUUID()
	if err := putName(host.Volumes[0].DMName[:], "root"); err != nil {
		t.Fatalf("putName: %v", err)
	}
	cryptoutil.RandomBytes(host.Volumes[0].RawPassword[:])

	payload := make([]byte, 0, hostEntrySizeV1+5)
	payload = append(payload, 1)
	payload = binary.LittleEndian.AppendUint32(payload, 1)
	payload = append(payload, host.HostUUID[:]...)
	payload = append(payload, host.HostName[:]...)
	payload = append(payload, host.PSK[:]...)
	payload = binary.LittleEndian.AppendUint32(payload, host.VolumeCount)
	for i := 0; i < maxVolumesPerHostV1; i++ {
		payload = append(payload, host.Volumes[i].VolumeUUID[:]...)
		payload = append(payload, host.Volumes[i].DMName[:]...)
		payload = append(payload, host.Volumes[i].RawPassword[:]...)
	}

	migrated, err := unmarshalV1(payload)
	if err != nil {
		t.Fatalf("unmarshalV1: %v", err)
	}
	if len(migrated.Hosts) != 1 {
		t.Fatalf("expected 1 host, got %d", len(migrated.Hosts))
	}
	got := migrated.Hosts[0]
	if got.HostUUID != host.HostUUID || got.PSK != host.PSK || got.Name() != "legacy" {
		t.Fatal("migrated host fields do not match legacy source")
	}
	if got.DefaultTimeout != 0 {
		t.Fatal("migrated v1 host must default to infinite timeout")
	}
	if got.Volumes[0].Flags != 0 {
		t.Fatal("migrated v1 volume must default to no flags")
	}
	if got.Volumes[0].RawPassword != host.Volumes[0].RawPassword {
		t.Fatal("migrated volume passphrase does not match")
	}
}

func TestAddVolumeRejectsDuplicateUUID(t *testing.T) {
	db := newTestDB(t)
	h := db.GetHostByName("web1")
	existing := h.Volumes[0].VolumeUUID
	if _, err := db.AddVolume("web1", "data", existing); err == nil {
		t.Fatal("expected duplicate volume uuid to be rejected")
	}
}

func TestAddVolumeRejectsOverLimit(t *testing.T) {
	db := New()
	h, _ := db.AddHost("full")
	for i := 0; i < MaxVolumesPerHost; i++ {
		if _, err := db.AddVolume(h.Name(), "vol", cryptoutil.NewUUID()); err != nil {
			t.Fatalf("AddVolume %d: %v", i, err)
		}
	}
	if _, err := db.AddVolume(h.Name(), "one-too-many", cryptoutil.NewUUID()); err == nil {
		t.Fatal("expected volume limit to be enforced")
	}
}

func TestRekeyChangesSecrets(t *testing.T) {
	db := newTestDB(t)
	h := db.GetHostByName("web1")
	oldPSK := h.PSK
	if err := db.RekeyHost("web1"); err != nil {
		t.Fatalf("RekeyHost: %v", err)
	}
	if bytes.Equal(oldPSK[:], h.PSK[:]) {
		t.Fatal("RekeyHost did not change the PSK")
	}
	oldPass := h.Volumes[0].RawPassword
	if err := db.RekeyVolume("web1", "root"); err != nil {
		t.Fatalf("RekeyVolume: %v", err)
	}
	if bytes.Equal(oldPass[:], h.Volumes[0].RawPassword[:]) {
		t.Fatal("RekeyVolume did not change the passphrase")
	}
}
