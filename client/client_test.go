// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package client

import (
	"net"
	"testing"
	"time"

	"github.com/tacerus/luksrku/keydb"
	"github.com/tacerus/luksrku/luksctl"
	"github.com/tacerus/luksrku/transport"
	"github.com/tacerus/luksrku/unlock"
	"github.com/tacerus/luksrku/vault"
)

// serveOneConn accepts a single inbound connection, authenticates it, and
// sends the volumes/passphrases belonging to whichever host authenticated.
func serveOneConn(t *testing.T, ln net.Listener, vkdb *vault.VaultedKeyDB) {
	raw, err := ln.Accept()
	if err != nil {
		t.Logf("serveOneConn: accept failed - %v", err)
		return
	}
	accepted, err := transport.Accept(raw, vkdb)
	if err != nil {
		t.Logf("serveOneConn: handshake failed - %v", err)
		raw.Close()
		return
	}
	defer accepted.Conn.Close()
	uuids, _ := vkdb.VolumeUUIDs(accepted.HostUUID)
	passphrases, _ := vkdb.Passphrases(accepted.HostUUID)
	if err := unlock.SendAll(accepted.Conn, uuids, passphrases); err != nil {
		t.Logf("serveOneConn: SendAll failed - %v", err)
	}
}

func TestRunDirectHappyPath(t *testing.T) {
	db := keydb.New()
	db.ServerDatabase = true
	if _, err := db.AddHost("web1"); err != nil {
		t.Fatal(err)
	}
	volUUID := [16]byte{1, 2, 3, 4}
	if _, err := db.AddVolume("web1", "root", volUUID); err != nil {
		t.Fatal(err)
	}

	exported, err := db.ExportPublic("web1")
	if err != nil {
		t.Fatal(err)
	}
	wantPassText := db.GetVolumeLUKSPassphrase(&db.Hosts[0].Volumes[0])

	vkdb := vault.Build(db)
	defer vkdb.Close()

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go serveOneConn(t, ln, vkdb)

	addr := ln.Addr().(*net.TCPAddr)

	state, err := NewState(exported, luksctl.NewNoOp())
	if err != nil {
		t.Fatal(err)
	}
	if state.AllUnlocked() {
		t.Fatal("fresh state should not start fully unlocked")
	}

	if err := state.RunDirect(addr.IP.String(), addr.Port, 5*time.Second); err != nil {
		t.Fatalf("RunDirect failed: %v", err)
	}
	if !state.AllUnlocked() {
		t.Fatalf("expected all volumes unlocked, got %d still locked", state.LockedCount())
	}

	got := state.Collaborator.(*luksctl.NoOp)
	if len(got.Opens) != 1 || got.Opens[0].PassphraseText != wantPassText {
		t.Fatalf("unexpected opens: %+v", got.Opens)
	}
}
