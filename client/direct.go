// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package client

import (
	"fmt"
	"log"
	"net"
	"time"

	"github.com/tacerus/luksrku/cryptoutil"
	"github.com/tacerus/luksrku/transport"
)

// connectAndUnlock dials addr (host:port), authenticates with identity/psk,
// and processes whatever UnlockMsg stream the server sends back.
func (s *State) connectAndUnlock(addr string, dialTimeout time.Duration, identity string, psk [32]byte) error {
	conn, err := transport.Dial(addr, dialTimeout, identity, psk)
	if err != nil {
		return err
	}
	return s.handleStream(conn)
}

// RunDirect implements section 4.7's direct mode: resolve hostname to an
// IPv4 address, TCP-connect, run the unlock protocol once.
func (s *State) RunDirect(hostname string, port int, dialTimeout time.Duration) error {
	ip, err := net.ResolveIPAddr("ip4", hostname)
	if err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%d", ip.String(), port)
	identity := cryptoutil.SprintfUUID(s.Host.HostUUID)
	psk := s.Host.PSK
	log.Printf("RunDirect: connecting to %s", addr)
	return s.connectAndUnlock(addr, dialTimeout, identity, psk)
}
