// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package server

import (
	"net"
	"testing"
	"time"

	"github.com/tacerus/luksrku/cryptoutil"
	"github.com/tacerus/luksrku/discovery"
	"github.com/tacerus/luksrku/keydb"
	"github.com/tacerus/luksrku/transport"
	"github.com/tacerus/luksrku/unlock"
	"github.com/tacerus/luksrku/vault"
)

func buildTestVault(t *testing.T) (*vault.VaultedKeyDB, [16]byte) {
	db := keydb.New()
	db.ServerDatabase = true
	if _, err := db.AddHost("web1"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.AddVolume("web1", "root", [16]byte{9, 9, 9}); err != nil {
		t.Fatal(err)
	}
	hostUUID := db.Hosts[0].HostUUID
	return vault.Build(db), hostUUID
}

func TestServeDiscoveryRespondsOnlyToKnownHosts(t *testing.T) {
	vkdb, hostUUID := buildTestVault(t)
	defer vkdb.Close()

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: 0})
	if err != nil {
		t.Fatal(err)
	}
	port := conn.LocalAddr().(*net.UDPAddr).Port
	conn.Close()

	go serveDiscovery(port, vkdb)
	time.Sleep(50 * time.Millisecond)

	client, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port})
	if err != nil {
		t.Fatal(err)
	}
	defer client.Close()
	client.SetReadDeadline(time.Now().Add(time.Second))

	if _, err := client.Write(discovery.Query{HostUUID: hostUUID}.Marshal()); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, discovery.ResponseSize+1)
	n, err := client.Read(buf)
	if err != nil {
		t.Fatalf("expected a response for a known host, got error: %v", err)
	}
	if _, err := discovery.ParseResponse(buf[:n]); err != nil {
		t.Fatalf("malformed response: %v", err)
	}

	unknown := [16]byte{255, 255, 255}
	if _, err := client.Write(discovery.Query{HostUUID: unknown}.Marshal()); err != nil {
		t.Fatal(err)
	}
	client.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, err := client.Read(buf); err == nil {
		t.Fatal("expected no response for an unknown host uuid")
	}
}

func TestHandleConnIndependentFailure(t *testing.T) {
	vkdb, hostUUID := buildTestVault(t)
	defer vkdb.Close()

	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	go func() {
		for i := 0; i < 2; i++ {
			raw, err := ln.Accept()
			if err != nil {
				return
			}
			go handleConn(raw, vkdb)
		}
	}()

	addr := ln.Addr().String()

	bad, err := net.Dial("tcp4", addr)
	if err != nil {
		t.Fatal(err)
	}
	bad.Write([]byte("not a tls client hello"))
	bad.Close()

	psk, ok := vkdb.PSK(hostUUID)
	if !ok {
		t.Fatal("expected known host")
	}
	identity := cryptoutil.SprintfUUID(hostUUID)
	conn, err := transport.Dial(addr, 3*time.Second, identity, psk)
	if err != nil {
		t.Fatalf("good connection should succeed despite the earlier bad one: %v", err)
	}
	defer conn.Close()

	err = unlock.ReadLoop(conn, func(msg unlock.Msg) error { return nil })
	if err != nil {
		t.Fatalf("ReadLoop failed: %v", err)
	}
}
