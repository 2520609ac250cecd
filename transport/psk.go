// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package transport

import (
	"github.com/bifurcation/mint"

	"github.com/tacerus/luksrku/cryptoutil"
	"github.com/tacerus/luksrku/vault"
)

// ServerPSKCache implements mint's PreSharedKeyCache contract, resolving an
// incoming client identity (a canonical host UUID string) against a
// VaultedKeyDB. It refuses any identity that does not parse as a UUID or
// does not name a known host, which is how section 4.5's "if not found,
// refuse the handshake" requirement is enforced: returning false from Get
// makes mint abort the handshake before any application data is exchanged.
type ServerPSKCache struct {
	vkdb *vault.VaultedKeyDB

	ResolvedHostUUID [16]byte
	Resolved         bool
}

// NewServerPSKCache returns a fresh, single-connection PSK cache bound to
// vkdb. Build one per accepted TCP connection.
func NewServerPSKCache(vkdb *vault.VaultedKeyDB) *ServerPSKCache {
	return &ServerPSKCache{vkdb: vkdb}
}

// Get looks up identity, opening the PSK vault only for the duration of the
// copy, exactly as section 4.5 specifies.
func (c *ServerPSKCache) Get(identity string) (mint.PreSharedKey, bool) {
	hostUUID, err := cryptoutil.ParseUUID(identity)
	if err != nil {
		return mint.PreSharedKey{}, false
	}
	psk, ok := c.vkdb.PSK(hostUUID)
	if !ok {
		return mint.PreSharedKey{}, false
	}
	key := make([]byte, 32)
	copy(key, psk[:])
	cryptoutil.Wipe(psk[:])
	c.ResolvedHostUUID = hostUUID
	c.Resolved = true
	return mint.PreSharedKey{
		CipherSuite: pskCipherSuite,
		Identity:    []byte(identity),
		Key:         key,
	}, true
}

// Put is a no-op: section 4.5 requires no session resumption, so nothing
// learned during a handshake is ever cached for reuse.
func (c *ServerPSKCache) Put(identity string, psk mint.PreSharedKey) {}

// Size reports the cache's entry count to satisfy mint's PreSharedKeyCache
// contract. The cache resolves identities against the vault on every Get
// rather than holding entries itself, so a single connection's cache always
// reports the one identity it's scoped to.
func (c *ServerPSKCache) Size() int { return 1 }
