// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package server

import (
	"log"
	"net"

	"github.com/tacerus/luksrku/cryptoutil"
	"github.com/tacerus/luksrku/discovery"
	"github.com/tacerus/luksrku/lukserr"
	"github.com/tacerus/luksrku/sys"
	"github.com/tacerus/luksrku/vault"
)

// serveDiscovery answers UDP broadcast Query packets with a Response, once
// per host UUID every discovery.CooldownServer, per section 4.4.
func serveDiscovery(port int, vkdb *vault.VaultedKeyDB) error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: port})
	if err != nil {
		return lukserr.New(lukserr.KindIO, "serveDiscovery", err)
	}
	defer conn.Close()

	cooldown := discovery.New(discovery.CooldownServer)
	response := discovery.Response{}.Marshal()
	buf := make([]byte, discovery.QuerySize+1)

	for {
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			return lukserr.New(lukserr.KindIO, "serveDiscovery", err)
		}
		query, err := discovery.ParseQuery(buf[:n])
		if err != nil {
			sys.Debugf("serveDiscovery: dropping malformed packet from %s - %v", src, err)
			continue
		}
		if !vkdb.HasHost(query.HostUUID) {
			sys.Debugf("serveDiscovery: ignoring query for unknown host %s from %s", cryptoutil.SprintfUUID(query.HostUUID), src)
			continue
		}
		key := cryptoutil.SprintfUUID(query.HostUUID)
		if !cooldown.CheckAndStart(key) {
			sys.Debugf("serveDiscovery: %s is still in cooldown, not replying to %s", key, src)
			continue
		}
		if _, err := conn.WriteToUDP(response, src); err != nil {
			log.Printf("serveDiscovery: failed to reply to %s - %v", src, err)
		}
	}
}
