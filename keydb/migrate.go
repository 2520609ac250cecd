// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package keydb

import (
	"encoding/binary"

	"github.com/tacerus/luksrku/lukserr"
)

// No v1/v2 fixture files were recoverable from original_source/ (open question
// (b)). The field widths below are a documented reconstruction rather than a
// guess: v1 predates both per-host timeouts and per-volume flags and allows
// 16 hosts of 4 volumes; v2 adds client_default_timeout_secs and raises the
// limits to the current MaxHosts and MaxVolumesPerHost; v3 adds
// volume_flags. See DESIGN.md.
const (
	maxHostsV1         = 16
	maxVolumesPerHostV1 = 4

	volumeEntrySizeV1 = 16 + dmNameSize + passphraseSize            // no flags
	hostEntrySizeV1   = 16 + hostNameSize + pskSize + 4 + maxVolumesPerHostV1*volumeEntrySizeV1 // no timeout

	volumeEntrySizeV2 = volumeEntrySizeV1 // still no flags
	hostEntrySizeV2   = 16 + hostNameSize + pskSize + 4 + 4 + MaxVolumesPerHost*volumeEntrySizeV2 // adds timeout, widens volume table
)

// unmarshalV1 decodes a legacy v1 payload and migrates it field-by-field
// into the current in-memory shape: timeouts default to 0 (infinite) and
// volume flags default to 0 (no discards) since neither existed yet.
func unmarshalV1(payload []byte) (*KeyDB, error) {
	if len(payload) < 5 {
		return nil, lukserr.New(lukserr.KindFormat, "unmarshalV1", lukserr.ErrTruncated)
	}
	db := &KeyDB{ServerDatabase: payload[0] == 1}
	hostCount := binary.LittleEndian.Uint32(payload[1:5])
	if hostCount > maxHostsV1 {
		return nil, lukserr.New(lukserr.KindResource, "unmarshalV1", lukserr.ErrTruncated)
	}
	want := 5 + int(hostCount)*hostEntrySizeV1
	if len(payload) != want {
		return nil, lukserr.New(lukserr.KindFormat, "unmarshalV1", lukserr.ErrTruncated)
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
		h.VolumeCount = binary.LittleEndian.Uint32(payload[off:])
		off += 4
		for j := 0; j < maxVolumesPerHostV1; j++ {
			copy(h.Volumes[j].VolumeUUID[:], payload[off:])
			off += 16
			copy(h.Volumes[j].DMName[:], payload[off:])
			off += dmNameSize
			copy(h.Volumes[j].RawPassword[:], payload[off:])
			off += passphraseSize
		}
		db.Hosts[i] = h
	}
	return db, nil
}

// unmarshalV2 decodes a legacy v2 payload: per-host timeout already exists
// and the volume table is already MaxVolumesPerHost wide, but no volume
// carries flags yet (migrated to 0, i.e. discards disallowed).
func unmarshalV2(payload []byte) (*KeyDB, error) {
	if len(payload) < 5 {
		return nil, lukserr.New(lukserr.KindFormat, "unmarshalV2", lukserr.ErrTruncated)
	}
	db := &KeyDB{ServerDatabase: payload[0] == 1}
	hostCount := binary.LittleEndian.Uint32(payload[1:5])
	if hostCount > MaxHosts {
		return nil, lukserr.New(lukserr.KindResource, "unmarshalV2", lukserr.ErrTruncated)
	}
	want := 5 + int(hostCount)*hostEntrySizeV2
	if len(payload) != want {
		return nil, lukserr.New(lukserr.KindFormat, "unmarshalV2", lukserr.ErrTruncated)
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
		}
		db.Hosts[i] = h
	}
	return db, nil
}
