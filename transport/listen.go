// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package transport

import (
	"net"

	"github.com/bifurcation/mint"

	"github.com/tacerus/luksrku/lukserr"
	"github.com/tacerus/luksrku/vault"
)

// Accepted is one successfully authenticated inbound connection: the live
// TLS conn plus the host UUID the handshake resolved.
type Accepted struct {
	Conn     *mint.Conn
	HostUUID [16]byte
}

// Accept runs the server side of a fresh TLS 1.3 external-PSK handshake
// over raw, an already-accepted TCP connection. It refuses any client whose
// identity does not resolve to a known host in vkdb.
func Accept(raw net.Conn, vkdb *vault.VaultedKeyDB) (*Accepted, error) {
	cache := NewServerPSKCache(vkdb)
	conn := mint.Server(raw, ServerConfig(cache))
	if alert := conn.Handshake(); alert != mint.AlertNoAlert {
		return nil, lukserr.New(lukserr.KindProtocol, "Accept", lukserr.ErrAuthFailure)
	}
	if !cache.Resolved {
		conn.Close()
		return nil, lukserr.New(lukserr.KindProtocol, "Accept", lukserr.ErrAuthFailure)
	}
	return &Accepted{Conn: conn, HostUUID: cache.ResolvedHostUUID}, nil
}
