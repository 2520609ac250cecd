// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package vault

import (
	"github.com/tacerus/luksrku/keydb"
)

// hostRecord is the non-secret metadata VaultedKeyDB keeps in the open:
// UUIDs and counts are not secrets, only tls_psk and luks_passphrase_raw are.
type hostRecord struct {
	uuid        [16]byte
	name        string
	timeout     uint32
	volumeUUIDs [][16]byte
	pskOffset   int
	passOffset  int // offset of this host's first volume in the passphrase vault
}

// VaultedKeyDB is the in-memory, vault-backed form of a server KeyDB built
// per section 4.3: every tls_psk concatenated into one vault in host order,
// every luks_passphrase_raw concatenated into another in (host, volume)
// order. The source KeyDB is wiped as soon as both vaults are built.
type VaultedKeyDB struct {
	psk   *Vault
	pass  *Vault
	hosts []hostRecord
}

// Build constructs a VaultedKeyDB from a plaintext server KeyDB and wipes
// db's secret fields immediately afterward; subsequent consumers must go
// through the returned VaultedKeyDB.
func Build(db *keydb.KeyDB) *VaultedKeyDB {
	pskBuf := make([]byte, 0, len(db.Hosts)*32)
	passBuf := make([]byte, 0, len(db.Hosts)*8*32)
	hosts := make([]hostRecord, 0, len(db.Hosts))

	for i := range db.Hosts {
		h := &db.Hosts[i]
		rec := hostRecord{
			uuid:       h.HostUUID,
			name:       h.Name(),
			timeout:    h.DefaultTimeout,
			pskOffset:  len(pskBuf),
			passOffset: len(passBuf),
		}
		pskBuf = append(pskBuf, h.PSK[:]...)
		for v := uint32(0); v < h.VolumeCount; v++ {
			rec.volumeUUIDs = append(rec.volumeUUIDs, h.Volumes[v].VolumeUUID)
			passBuf = append(passBuf, h.Volumes[v].RawPassword[:]...)
		}
		hosts = append(hosts, rec)
	}

	vkdb := &VaultedKeyDB{
		psk:   New(pskBuf),
		pass:  New(passBuf),
		hosts: hosts,
	}
	wipeBuf(pskBuf)
	wipeBuf(passBuf)
	db.Wipe()
	return vkdb
}

func wipeBuf(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func (vkdb *VaultedKeyDB) lookup(hostUUID [16]byte) (*hostRecord, bool) {
	for i := range vkdb.hosts {
		if vkdb.hosts[i].uuid == hostUUID {
			return &vkdb.hosts[i], true
		}
	}
	return nil, false
}

// HasHost reports whether hostUUID is a known host, without touching either
// vault - this backs the discovery server's known-host check.
func (vkdb *VaultedKeyDB) HasHost(hostUUID [16]byte) bool {
	_, ok := vkdb.lookup(hostUUID)
	return ok
}

// HostCount returns the number of hosts the vault was built from.
func (vkdb *VaultedKeyDB) HostCount() int {
	return len(vkdb.hosts)
}

// HostName returns the display name for a known host UUID.
func (vkdb *VaultedKeyDB) HostName(hostUUID [16]byte) (string, bool) {
	rec, ok := vkdb.lookup(hostUUID)
	if !ok {
		return "", false
	}
	return rec.name, true
}

// VolumeUUIDs returns the volume UUIDs attached to hostUUID, in database
// order, without touching the passphrase vault.
func (vkdb *VaultedKeyDB) VolumeUUIDs(hostUUID [16]byte) ([][16]byte, bool) {
	rec, ok := vkdb.lookup(hostUUID)
	if !ok {
		return nil, false
	}
	return rec.volumeUUIDs, true
}

// PSK opens the PSK vault just long enough to copy out hostUUID's 32-byte
// pre-shared key, then closes it. This is the server TLS-PSK callback's
// only interaction with the vault.
func (vkdb *VaultedKeyDB) PSK(hostUUID [16]byte) ([32]byte, bool) {
	var out [32]byte
	rec, ok := vkdb.lookup(hostUUID)
	if !ok {
		return out, false
	}
	plaintext := vkdb.psk.Open()
	copy(out[:], plaintext[rec.pskOffset:rec.pskOffset+32])
	vkdb.psk.Close()
	return out, true
}

// Passphrases opens the LUKS passphrase vault for the minimum time needed
// to copy out every raw passphrase belonging to hostUUID, in database
// order, then closes it. The returned slice is the only plaintext copy;
// callers must wipe each entry once sent.
func (vkdb *VaultedKeyDB) Passphrases(hostUUID [16]byte) ([][32]byte, bool) {
	rec, ok := vkdb.lookup(hostUUID)
	if !ok {
		return nil, false
	}
	out := make([][32]byte, len(rec.volumeUUIDs))
	plaintext := vkdb.pass.Open()
	off := rec.passOffset
	for i := range out {
		copy(out[i][:], plaintext[off:off+32])
		off += 32
	}
	vkdb.pass.Close()
	return out, true
}

// Close wipes both underlying vaults. Call once at server shutdown.
func (vkdb *VaultedKeyDB) Close() {
	vkdb.psk.Wipe()
	vkdb.pass.Wipe()
}
