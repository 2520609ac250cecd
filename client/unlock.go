// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package client

import (
	"log"

	"github.com/bifurcation/mint"

	"github.com/tacerus/luksrku/cryptoutil"
	"github.com/tacerus/luksrku/keydb"
	"github.com/tacerus/luksrku/sys"
	"github.com/tacerus/luksrku/unlock"
)

// handleStream reads the server's UnlockMsg stream off conn and applies
// section 4.6's per-message steps (i)-(iv) against s.
func (s *State) handleStream(conn *mint.Conn) error {
	defer conn.Close()
	return unlock.ReadLoop(conn, func(msg unlock.Msg) error {
		vol := s.findVolume(msg.VolumeUUID)
		if vol == nil {
			log.Printf("handleStream: server sent unknown volume uuid %s, ignoring", cryptoutil.SprintfUUID(msg.VolumeUUID))
			return nil
		}
		if s.IsUnlocked(msg.VolumeUUID) {
			sys.Debugf("handleStream: %s already unlocked, ignoring repeat message", cryptoutil.SprintfUUID(msg.VolumeUUID))
			cryptoutil.Wipe(msg.RawPass[:])
			return nil
		}
		text := cryptoutil.AsciiEncode(msg.RawPass)
		allowDiscards := vol.Flags&keydb.VolumeFlagAllowDiscards != 0
		ok := s.Collaborator.OpenLUKSDevice(cryptoutil.SprintfUUID(msg.VolumeUUID), vol.DevMapperName(), text, allowDiscards)
		cryptoutil.Wipe(msg.RawPass[:])
		if ok {
			s.MarkUnlocked(msg.VolumeUUID)
			log.Printf("handleStream: unlocked %s as %s", cryptoutil.SprintfUUID(msg.VolumeUUID), vol.DevMapperName())
		} else {
			log.Printf("handleStream: failed to unlock %s as %s", cryptoutil.SprintfUUID(msg.VolumeUUID), vol.DevMapperName())
		}
		return nil
	})
}

// findVolume returns the volume entry matching volumeUUID, or nil.
func (s *State) findVolume(volumeUUID [16]byte) *keydb.VolumeEntry {
	for i := uint32(0); i < s.Host.VolumeCount; i++ {
		if s.Host.Volumes[i].VolumeUUID == volumeUUID {
			return &s.Host.Volumes[i]
		}
	}
	return nil
}
