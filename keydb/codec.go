// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package keydb

import (
	"encoding/binary"

	"github.com/tacerus/luksrku/lukserr"
)

// marshalV3 encodes db into the v3 plaintext payload described in section 3.
func marshalV3(db *KeyDB) []byte {
	out := make([]byte, 0, 5+len(db.Hosts)*hostEntrySize)
	if db.ServerDatabase {
		out = append(out, 1)
	} else {
		out = append(out, 0)
	}
	out = binary.LittleEndian.AppendUint32(out, uint32(len(db.Hosts)))
	for _, h := range db.Hosts {
		out = appendHostEntry(out, h)
	}
	return out
}

func appendHostEntry(out []byte, h HostEntry) []byte {
	out = append(out, h.HostUUID[:]...)
	out = append(out, h.HostName[:]...)
	out = append(out, h.PSK[:]...)
	out = binary.LittleEndian.AppendUint32(out, h.DefaultTimeout)
	out = binary.LittleEndian.AppendUint32(out, h.VolumeCount)
	for i := 0; i < MaxVolumesPerHost; i++ {
		out = appendVolumeEntry(out, h.Volumes[i])
	}
	return out
}

func appendVolumeEntry(out []byte, v VolumeEntry) []byte {
	out = append(out, v.VolumeUUID[:]...)
	out = append(out, v.DMName[:]...)
	out = append(out, v.RawPassword[:]...)
	out = binary.LittleEndian.AppendUint32(out, v.Flags)
	return out
}

// unmarshalV3 decodes a v3 plaintext payload previously produced by marshalV3.
func unmarshalV3(payload []byte) (*KeyDB, error) {
	if len(payload) < 5 {
		return nil, lukserr.New(lukserr.KindFormat, "unmarshalV3", lukserr.ErrTruncated)
	}
	db := &KeyDB{ServerDatabase: payload[0] == 1}
	hostCount := binary.LittleEndian.Uint32(payload[1:5])
	if hostCount > MaxHosts {
		return nil, lukserr.New(lukserr.KindResource, "unmarshalV3", lukserr.ErrTruncated)
	}
	want := 5 + int(hostCount)*hostEntrySize
	if len(payload) != want {
		return nil, lukserr.New(lukserr.KindFormat, "unmarshalV3", lukserr.ErrTruncated)
	}
	db.Hosts = make([]HostEntry, hostCount)
	off := 5
	for i := range db.Hosts {
		var h HostEntry
		copy(h.HostUUID[:], payload[off:])
		off += 16
		copy(h.HostName[:], payload[off:])
		off += hostNameSize
		copy(h.PSK[:], payload[off:])
		off += pskSize
		h.DefaultTimeout = binary.LittleEndian.Uint32(payload[off:])
		off += 4
		h.VolumeCount = binary.LittleEndian.Uint32(payload[off:])
		off += 4
		for j := 0; j < MaxVolumesPerHost; j++ {
			copy(h.Volumes[j].VolumeUUID[:], payload[off:])
			off += 16
			copy(h.Volumes[j].DMName[:], payload[off:])
			off += dmNameSize
			copy(h.Volumes[j].RawPassword[:], payload[off:])
			off += passphraseSize
			h.Volumes[j].Flags = binary.LittleEndian.Uint32(payload[off:])
			off += 4
		}
		db.Hosts[i] = h
	}
	return db, nil
}
