// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package vault

import (
	"bytes"
	"testing"

	"github.com/tacerus/luksrku/cryptoutil"
	"github.com/tacerus/luksrku/keydb"
)

func TestOpenCloseRoundTrip(t *testing.T) {
	plaintext := []byte("thirty-two byte secret value!!!")
	v := New(plaintext)
	got := append([]byte(nil), v.Open()...)
	v.Close()
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("round-tripped plaintext mismatch: got %q want %q", got, plaintext)
	}
}

func TestCloseRotatesMask(t *testing.T) {
	plaintext := []byte("another secret that stays the same logically")
	v := New(plaintext)
	firstCiphertext := append([]byte(nil), v.data...)

	v.Open()
	v.Close()
	secondCiphertext := append([]byte(nil), v.data...)

	if bytes.Equal(firstCiphertext, secondCiphertext) {
		t.Fatal("ciphertext at rest did not change across an open/close cycle")
	}
	got := append([]byte(nil), v.Open()...)
	v.Close()
	if !bytes.Equal(got, plaintext) {
		t.Fatal("plaintext changed after mask rotation")
	}
}

func TestVaultedKeyDBPSKAndPassphrases(t *testing.T) {
	db := keydb.New()
	h, err := db.AddHost("db1")
	if err != nil {
		t.Fatalf("AddHost: %v", err)
	}
	wantPSK := h.PSK
	volUUID := cryptoutil.NewUUID()
	vol, err := db.AddVolume(h.Name(), "root", volUUID)
	if err != nil {
		t.Fatalf("AddVolume: %v", err)
	}
	wantPass := vol.RawPassword
	hostUUID := h.HostUUID

	vkdb := Build(db)

	var zero [32]byte
	if h.PSK != zero || vol.RawPassword != zero {
		t.Fatal("source KeyDB was not wiped after vault construction")
	}

	psk, ok := vkdb.PSK(hostUUID)
	if !ok {
		t.Fatal("PSK lookup failed for known host")
	}
	if psk != wantPSK {
		t.Fatal("vaulted PSK does not match original")
	}

	passes, ok := vkdb.Passphrases(hostUUID)
	if !ok || len(passes) != 1 {
		t.Fatalf("Passphrases lookup failed: ok=%v len=%d", ok, len(passes))
	}
	if passes[0] != wantPass {
		t.Fatal("vaulted passphrase does not match original")
	}

	if vkdb.HasHost([16]byte{}) {
		t.Fatal("unknown host must not resolve")
	}
}
