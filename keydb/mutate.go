// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package keydb

import (
	"fmt"

	"github.com/tacerus/luksrku/cryptoutil"
	"github.com/tacerus/luksrku/lukserr"
)

func putName(dst []byte, name string) error {
	if len(name)+1 > len(dst) {
		return lukserr.New(lukserr.KindConfig, "putName", fmt.Errorf("name %q too long for %d-byte field", name, len(dst)))
	}
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, name)
	return nil
}

func getName(src []byte) string {
	for i, b := range src {
		if b == 0 {
			return string(src[:i])
		}
	}
	return string(src)
}

// AddHost appends a fresh host with a new UUID and a freshly generated PSK.
// It fails once MaxHosts is reached.
func (db *KeyDB) AddHost(name string) (*HostEntry, error) {
	if len(db.Hosts) >= MaxHosts {
		return nil, lukserr.New(lukserr.KindResource, "AddHost", fmt.Errorf("host limit %d reached", MaxHosts))
	}
	var h HostEntry
	if err := putName(h.HostName[:], name); err != nil {
		return nil, err
	}
	h.HostUUID = cryptoutil.NewUUID()
	cryptoutil.RandomBytes(h.PSK[:])
	db.Hosts = append(db.Hosts, h)
	return &db.Hosts[len(db.Hosts)-1], nil
}

// DelHostByName removes the named host and every volume it owned.
func (db *KeyDB) DelHostByName(name string) error {
	for i := range db.Hosts {
		if getName(db.Hosts[i].HostName[:]) == name {
			db.Hosts = append(db.Hosts[:i], db.Hosts[i+1:]...)
			return nil
		}
	}
	return lukserr.New(lukserr.KindConfig, "DelHostByName", lukserr.ErrNotFound)
}

// RekeyHost replaces the host's TLS PSK with a fresh 32-byte value. The host
// UUID, once created, never changes.
func (db *KeyDB) RekeyHost(name string) error {
	h := db.GetHostByName(name)
	if h == nil {
		return lukserr.New(lukserr.KindConfig, "RekeyHost", lukserr.ErrNotFound)
	}
	cryptoutil.RandomBytes(h.PSK[:])
	return nil
}

// SetHostTimeout sets the per-host default client timeout in seconds (0 = infinite).
func (db *KeyDB) SetHostTimeout(name string, secs uint32) error {
	h := db.GetHostByName(name)
	if h == nil {
		return lukserr.New(lukserr.KindConfig, "SetHostTimeout", lukserr.ErrNotFound)
	}
	h.DefaultTimeout = secs
	return nil
}

// AddVolume attaches a new volume with a freshly generated raw passphrase to
// the named host. It fails if the host is unknown, the host's volume table
// is full, or volumeUUID already exists anywhere in the database.
func (db *KeyDB) AddVolume(hostName, dmName string, volumeUUID [16]byte) (*VolumeEntry, error) {
	h := db.GetHostByName(hostName)
	if h == nil {
		return nil, lukserr.New(lukserr.KindConfig, "AddVolume", lukserr.ErrNotFound)
	}
	if h.VolumeCount >= MaxVolumesPerHost {
		return nil, lukserr.New(lukserr.KindResource, "AddVolume", fmt.Errorf("volume limit %d reached", MaxVolumesPerHost))
	}
	if _, _, found := db.GetVolumeByUUID(volumeUUID); found {
		return nil, lukserr.New(lukserr.KindConfig, "AddVolume", fmt.Errorf("volume uuid already present"))
	}
	v := &h.Volumes[h.VolumeCount]
	*v = VolumeEntry{}
	v.VolumeUUID = volumeUUID
	if err := putName(v.DMName[:], dmName); err != nil {
		return nil, err
	}
	cryptoutil.RandomBytes(v.RawPassword[:])
	h.VolumeCount++
	return v, nil
}

// DelVolume removes the named volume from the named host, compacting its
// fixed slot array so unused slots stay zeroed and trailing.
func (db *KeyDB) DelVolume(hostName, dmName string) error {
	h := db.GetHostByName(hostName)
	if h == nil {
		return lukserr.New(lukserr.KindConfig, "DelVolume", lukserr.ErrNotFound)
	}
	idx := -1
	for i := uint32(0); i < h.VolumeCount; i++ {
		if getName(h.Volumes[i].DMName[:]) == dmName {
			idx = int(i)
			break
		}
	}
	if idx < 0 {
		return lukserr.New(lukserr.KindConfig, "DelVolume", lukserr.ErrNotFound)
	}
	for i := idx; i < int(h.VolumeCount)-1; i++ {
		h.Volumes[i] = h.Volumes[i+1]
	}
	h.Volumes[h.VolumeCount-1] = VolumeEntry{}
	h.VolumeCount--
	return nil
}

// RekeyVolume replaces a volume's raw passphrase with a fresh 32-byte value.
func (db *KeyDB) RekeyVolume(hostName, dmName string) error {
	h := db.GetHostByName(hostName)
	if h == nil {
		return lukserr.New(lukserr.KindConfig, "RekeyVolume", lukserr.ErrNotFound)
	}
	for i := uint32(0); i < h.VolumeCount; i++ {
		if getName(h.Volumes[i].DMName[:]) == dmName {
			cryptoutil.RandomBytes(h.Volumes[i].RawPassword[:])
			return nil
		}
	}
	return lukserr.New(lukserr.KindConfig, "RekeyVolume", lukserr.ErrNotFound)
}

// SetVolumeFlag sets or clears a volume_flags bit, e.g. VolumeFlagAllowDiscards.
func (db *KeyDB) SetVolumeFlag(hostName, dmName string, flag uint32, set bool) error {
	h := db.GetHostByName(hostName)
	if h == nil {
		return lukserr.New(lukserr.KindConfig, "SetVolumeFlag", lukserr.ErrNotFound)
	}
	for i := uint32(0); i < h.VolumeCount; i++ {
		if getName(h.Volumes[i].DMName[:]) == dmName {
			if set {
				h.Volumes[i].Flags |= flag
			} else {
				h.Volumes[i].Flags &^= flag
			}
			return nil
		}
	}
	return lukserr.New(lukserr.KindConfig, "SetVolumeFlag", lukserr.ErrNotFound)
}

// GetHostByName returns a pointer into db.Hosts, or nil.
func (db *KeyDB) GetHostByName(name string) *HostEntry {
	for i := range db.Hosts {
		if getName(db.Hosts[i].HostName[:]) == name {
			return &db.Hosts[i]
		}
	}
	return nil
}

// GetHostByUUID returns a pointer into db.Hosts, or nil.
func (db *KeyDB) GetHostByUUID(uuid [16]byte) *HostEntry {
	for i := range db.Hosts {
		if db.Hosts[i].HostUUID == uuid {
			return &db.Hosts[i]
		}
	}
	return nil
}

// GetVolumeByUUID searches every host for volumeUUID (volume UUIDs are
// globally unique) and returns the owning host, the volume, and whether it
// was found.
func (db *KeyDB) GetVolumeByUUID(volumeUUID [16]byte) (*HostEntry, *VolumeEntry, bool) {
	for hi := range db.Hosts {
		h := &db.Hosts[hi]
		for vi := uint32(0); vi < h.VolumeCount; vi++ {
			if h.Volumes[vi].VolumeUUID == volumeUUID {
				return h, &h.Volumes[vi], true
			}
		}
	}
	return nil, nil, false
}

// GetVolumeByName looks up a volume by its owning host name and devmapper name.
func (db *KeyDB) GetVolumeByName(hostName, dmName string) (*VolumeEntry, bool) {
	h := db.GetHostByName(hostName)
	if h == nil {
		return nil, false
	}
	for i := uint32(0); i < h.VolumeCount; i++ {
		if getName(h.Volumes[i].DMName[:]) == dmName {
			return &h.Volumes[i], true
		}
	}
	return nil, false
}

// GetVolumeIndex returns the slot index of dmName within host's fixed volume
// array, or -1 if not present.
func (db *KeyDB) GetVolumeIndex(host *HostEntry, dmName string) int {
	for i := uint32(0); i < host.VolumeCount; i++ {
		if getName(host.Volumes[i].DMName[:]) == dmName {
			return int(i)
		}
	}
	return -1
}

// GetVolumeLUKSPassphrase ASCII-encodes vol's raw passphrase for display.
func (db *KeyDB) GetVolumeLUKSPassphrase(vol *VolumeEntry) string {
	return cryptoutil.AsciiEncode(vol.RawPassword)
}

// Name returns h's decoded, NUL-stripped name.
func (h *HostEntry) Name() string { return getName(h.HostName[:]) }

// DevMapperName returns v's decoded, NUL-stripped devmapper name.
func (v *VolumeEntry) DevMapperName() string { return getName(v.DMName[:]) }

// ExportPublic returns a client-side copy of a single host: every volume is
// present but luks_passphrase_raw is zeroed and server_database is false, so
// the exported file never carries key material the client does not need
// until the server hands it over live.
func (db *KeyDB) ExportPublic(hostName string) (*KeyDB, error) {
	h := db.GetHostByName(hostName)
	if h == nil {
		return nil, lukserr.New(lukserr.KindConfig, "ExportPublic", lukserr.ErrNotFound)
	}
	out := &KeyDB{ServerDatabase: false, Hosts: make([]HostEntry, 1)}
	out.Hosts[0] = *h
	for i := range out.Hosts[0].Volumes {
		out.Hosts[0].Volumes[i].RawPassword = [32]byte{}
	}
	return out, nil
}

// Wipe zeroes every secret held in db: all TLS PSKs and all raw passphrases.
// Call it as soon as a VaultedKeyDB has copied what it needs.
func (db *KeyDB) Wipe() {
	for i := range db.Hosts {
		cryptoutil.Wipe(db.Hosts[i].PSK[:])
		for j := range db.Hosts[i].Volumes {
			cryptoutil.Wipe(db.Hosts[i].Volumes[j].RawPassword[:])
		}
	}
}
