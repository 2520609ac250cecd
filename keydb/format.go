// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.

// Package keydb implements the versioned on-disk key database: the fixed
// binary layout of hosts and volumes, authenticated load/save, legacy
// version migration, and the mutators the editor collaborator drives.
package keydb

import "github.com/tacerus/luksrku/cryptoutil"

const (
	// MagicSize is the length of the literal header magic.
	MagicSize = 8
	// CurrentVersion is the version Write always produces.
	CurrentVersion uint32 = 3
	// MaxHosts bounds the number of HOST_ENTRY records in a v3 payload.
	MaxHosts = 32
	// MaxVolumesPerHost bounds the fixed VOLUME_ENTRY slots per host.
	MaxVolumesPerHost = 8

	hostNameSize   = 32
	dmNameSize     = 32
	pskSize        = 32
	passphraseSize = 32

	// hostEntrySize is host_uuid+host_name+tls_psk+client_default_timeout_secs+volume_count+volumes.
	hostEntrySize = 16 + hostNameSize + pskSize + 4 + 4 + MaxVolumesPerHost*volumeEntrySize
	// volumeEntrySize is volume_uuid+devmapper_name+luks_passphrase_raw+volume_flags.
	volumeEntrySize = 16 + dmNameSize + passphraseSize + 4

	// VolumeFlagAllowDiscards is bit 0 of VolumeEntry.Flags.
	VolumeFlagAllowDiscards uint32 = 1 << 0
)

// MinPBKDF2Iterations is the build-time floor section 4.2 requires, re-
// exported from cryptoutil so callers never need to import both packages
// just to check a save's iteration count.
const MinPBKDF2Iterations = cryptoutil.MinPBKDF2Iterations

// magic is the literal 8-byte header every version of the database starts with.
var magic = [MagicSize]byte{'\x4c', '\x55', '\x4b', '\x53', '\x52', '\x4b', '\x55', '\x00'}

// VolumeEntry is one LUKS volume attached to a host (section 3).
type VolumeEntry struct {
	VolumeUUID  [16]byte
	DMName      [dmNameSize]byte
	RawPassword [passphraseSize]byte
	Flags       uint32
}

// HostEntry is one client host known to a server database (section 3).
type HostEntry struct {
	HostUUID       [16]byte
	HostName       [hostNameSize]byte
	PSK            [pskSize]byte
	DefaultTimeout uint32 // 0 = infinite, client_default_timeout_secs
	VolumeCount    uint32
	Volumes        [MaxVolumesPerHost]VolumeEntry
}

// KeyDB is the in-memory form of a v3 payload. ServerDatabase is true for a
// key-holding server copy, false for an exported client-side copy.
type KeyDB struct {
	ServerDatabase bool
	Hosts          []HostEntry
}

// New returns an empty server-database KeyDB at the current version.
func New() *KeyDB {
	return &KeyDB{ServerDatabase: true, Hosts: make([]HostEntry, 0, 4)}
}
