// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.

// Package transport builds the TLS 1.3 external-PSK connections of section
// 4.5 on top of github.com/bifurcation/mint, the one TLS 1.3 stack in the
// retrieved pack whose PSK lookup is a caller-supplied cache rather than a
// certificate chain. crypto/tls has no public external-PSK API to fall back to.
package transport

import (
	"github.com/bifurcation/mint"
)

// allowedCipherSuites and allowedGroups are the fixed choices section 4.5
// names; both client and server configs are built from the same lists so a
// handshake never has anything to negotiate down to.
var (
	allowedCipherSuites = []mint.CipherSuite{
		mint.TLS_CHACHA20_POLY1305_SHA256,
		mint.TLS_AES_256_GCM_SHA384,
	}
	allowedGroups = []mint.NamedGroup{
		mint.X448,
		mint.X25519,
	}
)

// pskCipherSuite is the suite every PreSharedKey entry is tagged with. It
// fixes the PSK binder hash to SHA-256, matching section 4.5's "hash =
// SHA-256" for the client callback.
const pskCipherSuite = mint.TLS_CHACHA20_POLY1305_SHA256

// ClientConfig builds the mint.Config a client uses to dial a server,
// authenticating with identity (its own 36-character host UUID) and psk
// (its 32-byte TLS PSK, taken from the exported database by the caller).
func ClientConfig(identity string, psk [32]byte) *mint.Config {
	key := make([]byte, 32)
	copy(key, psk[:])
	cache := mint.PSKMapCache{
		identity: mint.PreSharedKey{
			CipherSuite: pskCipherSuite,
			Identity:    []byte(identity),
			Key:         key,
		},
	}
	return &mint.Config{
		CipherSuites:   allowedCipherSuites,
		Groups:         allowedGroups,
		PSKs:           &cache,
		NonBlocking:    false,
		AllowEarlyData: false,
	}
}

// ServerConfig builds the mint.Config a server uses for a single inbound
// connection. Each connection gets its own config and cache instance so the
// identity that the handshake resolved can be read back afterward without
// any shared, connection-spanning state.
func ServerConfig(cache *ServerPSKCache) *mint.Config {
	return &mint.Config{
		CipherSuites: allowedCipherSuites,
		Groups:       allowedGroups,
		PSKs:         cache,
	}
}
