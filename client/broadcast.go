// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package client

import (
	"fmt"
	"log"
	"net"
	"time"

	"github.com/tacerus/luksrku/cryptoutil"
	"github.com/tacerus/luksrku/discovery"
	"github.com/tacerus/luksrku/sys"
)

const broadcastInterval = time.Second
const recvTimeout = 300 * time.Millisecond

// RunBroadcast implements section 4.7's broadcast mode: repeatedly send a
// discovery Query to the subnet broadcast address, and for every unique
// responding source address attempt an unlock, until every volume is
// unlocked or the overall timeout elapses (0 = infinite).
func (s *State) RunBroadcast(port int, overallTimeout time.Duration) error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: 0})
	if err != nil {
		return err
	}
	defer conn.Close()

	broadcastAddr := &net.UDPAddr{IP: net.IPv4bcast, Port: port}
	identity := cryptoutil.SprintfUUID(s.Host.HostUUID)
	psk := s.Host.PSK
	seen := discovery.New(discovery.CooldownClient)

	deadline := time.Time{}
	if overallTimeout > 0 {
		deadline = time.Now().Add(overallTimeout)
	}

	query := discovery.Query{HostUUID: s.Host.HostUUID}.Marshal()
	lastSend := time.Time{}

	buf := make([]byte, discovery.ResponseSize+1)
	for {
		if s.AllUnlocked() {
			return nil
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			return nil
		}
		if time.Since(lastSend) >= broadcastInterval {
			sys.Debugf("RunBroadcast: sending discovery query to %s", broadcastAddr)
			if _, err := conn.WriteToUDP(query, broadcastAddr); err != nil {
				log.Printf("RunBroadcast: failed to send discovery query - %v", err)
			}
			lastSend = time.Now()
		}
		conn.SetReadDeadline(time.Now().Add(recvTimeout))
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			continue // timeout or transient error, loop back to re-check deadline
		}
		if _, err := discovery.ParseResponse(buf[:n]); err != nil {
			sys.Debugf("RunBroadcast: dropping malformed response from %s - %v", src, err)
			continue
		}
		sourceKey := src.IP.String()
		if !seen.CheckAndStart(sourceKey) {
			sys.Debugf("RunBroadcast: %s is still in cooldown, ignoring repeat response", sourceKey)
			continue
		}
		addr := fmt.Sprintf("%s:%d", src.IP.String(), port)
		log.Printf("RunBroadcast: got a response from %s, attempting unlock", addr)
		if err := s.connectAndUnlock(addr, 5*time.Second, identity, psk); err != nil {
			log.Printf("RunBroadcast: unlock attempt against %s failed - %v", addr, err)
		}
	}
}
