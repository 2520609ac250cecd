// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package server

import (
	"fmt"
	"log"
	"net"

	"github.com/tacerus/luksrku/cryptoutil"
	"github.com/tacerus/luksrku/lukserr"
	"github.com/tacerus/luksrku/sys"
	"github.com/tacerus/luksrku/transport"
	"github.com/tacerus/luksrku/unlock"
	"github.com/tacerus/luksrku/vault"
)

// serveUnlock accepts TCP connections, authenticates each with TLS-PSK, and
// streams the authenticated host's volumes and passphrases per section 4.6.
// Each connection is handled on its own goroutine, per section 5: one
// client's failure never affects another's.
func serveUnlock(port int, vkdb *vault.VaultedKeyDB) error {
	ln, err := net.Listen("tcp4", fmt.Sprintf(":%d", port))
	if err != nil {
		return lukserr.New(lukserr.KindIO, "serveUnlock", err)
	}
	defer ln.Close()

	for {
		raw, err := ln.Accept()
		if err != nil {
			return lukserr.New(lukserr.KindIO, "serveUnlock", err)
		}
		go handleConn(raw, vkdb)
	}
}

func handleConn(raw net.Conn, vkdb *vault.VaultedKeyDB) {
	sys.Debugf("handleConn: accepted TCP connection from %s", raw.RemoteAddr())
	accepted, err := transport.Accept(raw, vkdb)
	if err != nil {
		log.Printf("handleConn: handshake with %s failed - %v", raw.RemoteAddr(), err)
		raw.Close()
		return
	}
	defer accepted.Conn.Close()

	hostUUID := accepted.HostUUID
	name, _ := vkdb.HostName(hostUUID)
	volumeUUIDs, _ := vkdb.VolumeUUIDs(hostUUID)
	passphrases, ok := vkdb.Passphrases(hostUUID)
	if !ok {
		log.Printf("handleConn: host %s vanished between handshake and passphrase lookup", cryptoutil.SprintfUUID(hostUUID))
		return
	}
	defer wipePassphrases(passphrases)

	if err := unlock.SendAll(accepted.Conn, volumeUUIDs, passphrases); err != nil {
		log.Printf("handleConn: sending unlock stream to %s (%s) failed - %v", name, raw.RemoteAddr(), err)
		return
	}
	log.Printf("handleConn: sent %d volume(s) to %s (%s)", len(volumeUUIDs), name, raw.RemoteAddr())
}

func wipePassphrases(passphrases [][32]byte) {
	for i := range passphrases {
		cryptoutil.Wipe(passphrases[i][:])
	}
}
