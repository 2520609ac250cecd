// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package transport

import (
	"net"
	"time"

	"github.com/bifurcation/mint"

	"github.com/tacerus/luksrku/lukserr"
)

// Dial opens a TCP connection to addr and runs a fresh TLS 1.3 external-PSK
// handshake as the client, authenticating with identity and psk. There is
// no session resumption: every call performs a complete handshake.
func Dial(addr string, timeout time.Duration, identity string, psk [32]byte) (*mint.Conn, error) {
	raw, err := net.DialTimeout("tcp4", addr, timeout)
	if err != nil {
		return nil, lukserr.New(lukserr.KindIO, "Dial", err)
	}
	conn := mint.Client(raw, ClientConfig(identity, psk))
	if alert := conn.Handshake(); alert != mint.AlertNoAlert {
		raw.Close()
		return nil, lukserr.New(lukserr.KindProtocol, "Dial", lukserr.ErrAuthFailure)
	}
	return conn, nil
}
