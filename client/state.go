// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.

// Package client implements the client orchestrator of section 4.7: load an
// exported database, probe already-unlocked volumes, find a server by
// direct connect or broadcast discovery, and drive the unlock protocol
// until every volume is open or the overall timeout elapses.
package client

import (
	"fmt"
	"log"

	"github.com/tacerus/luksrku/cryptoutil"
	"github.com/tacerus/luksrku/keydb"
	"github.com/tacerus/luksrku/lukserr"
	"github.com/tacerus/luksrku/luksctl"
)

// State tracks one client run's progress against a single exported database.
// It holds exactly one host entry - export_public never produces more.
type State struct {
	Host         *keydb.HostEntry
	Collaborator luksctl.Collaborator
	unlocked     map[[16]byte]bool
}

// NewState builds a State for db (which must contain exactly one host, as
// every exported database does) and probes which volumes are already
// unlocked.
func NewState(db *keydb.KeyDB, collaborator luksctl.Collaborator) (*State, error) {
	if len(db.Hosts) != 1 {
		return nil, lukserr.New(lukserr.KindFormat, "NewState", fmt.Errorf("exported database must contain exactly one host, found %d", len(db.Hosts)))
	}
	s := &State{
		Host:         &db.Hosts[0],
		Collaborator: collaborator,
		unlocked:     make(map[[16]byte]bool),
	}
	for i := uint32(0); i < s.Host.VolumeCount; i++ {
		vol := &s.Host.Volumes[i]
		if collaborator.IsLUKSDeviceOpened(vol.DevMapperName()) {
			s.unlocked[vol.VolumeUUID] = true
			log.Printf("NewState: %s is already unlocked as %s", cryptoutil.SprintfUUID(vol.VolumeUUID), vol.DevMapperName())
		}
	}
	return s, nil
}

// AllUnlocked reports whether every volume known to the host is unlocked.
func (s *State) AllUnlocked() bool {
	return s.LockedCount() == 0
}

// LockedCount returns how many volumes are still locked.
func (s *State) LockedCount() int {
	n := 0
	for i := uint32(0); i < s.Host.VolumeCount; i++ {
		if !s.unlocked[s.Host.Volumes[i].VolumeUUID] {
			n++
		}
	}
	return n
}

// IsUnlocked reports whether volumeUUID has already been unlocked this run.
func (s *State) IsUnlocked(volumeUUID [16]byte) bool {
	return s.unlocked[volumeUUID]
}

// MarkUnlocked records that volumeUUID is now unlocked.
func (s *State) MarkUnlocked(volumeUUID [16]byte) {
	s.unlocked[volumeUUID] = true
}
