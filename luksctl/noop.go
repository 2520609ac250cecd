// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package luksctl

import (
	"log"
	"sync"
)

// NoOp is the Collaborator used behind --no-luks: it records what it was
// asked to open instead of calling cryptsetup, letting scenario S1's
// "client with --hostname 127.0.0.1 --no-luks" be exercised without a real
// encrypted block device.
type NoOp struct {
	mu     sync.Mutex
	opened map[string]bool
	Opens  []NoOpOpen
}

// NoOpOpen records one call to OpenLUKSDevice.
type NoOpOpen struct {
	VolumeUUID     string
	DevmapperName  string
	PassphraseText string
	AllowDiscards  bool
}

// NewNoOp returns an empty NoOp collaborator.
func NewNoOp() *NoOp {
	return &NoOp{opened: make(map[string]bool)}
}

// IsLUKSDeviceOpened reports whether OpenLUKSDevice has already been called
// for devmapperName.
func (n *NoOp) IsLUKSDeviceOpened(devmapperName string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.opened[devmapperName]
}

// OpenLUKSDevice logs the call it would have made and always succeeds.
func (n *NoOp) OpenLUKSDevice(volumeUUID, devmapperName, passphraseText string, allowDiscards bool) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.opened[devmapperName] = true
	n.Opens = append(n.Opens, NoOpOpen{
		VolumeUUID:     volumeUUID,
		DevmapperName:  devmapperName,
		PassphraseText: passphraseText,
		AllowDiscards:  allowDiscards,
	})
	log.Printf("OpenLUKSDevice (no-luks): would open %s as %s (allow_discards=%v)", volumeUUID, devmapperName, allowDiscards)
	return true
}
