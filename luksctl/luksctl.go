// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.

// Package luksctl defines the LUKS/cryptsetup collaborator contract of
// section 6 and an exec-based implementation of it.
package luksctl

// Collaborator is the contract the client orchestrator drives to check and
// open LUKS volumes. It is satisfied by Cryptsetup for real unlocks and by
// NoOp for the --no-luks test path.
type Collaborator interface {
	// IsLUKSDeviceOpened reports whether /dev/mapper/<devmapperName> already exists.
	IsLUKSDeviceOpened(devmapperName string) bool
	// OpenLUKSDevice runs cryptsetup luksOpen for volumeUUID under devmapperName
	// using passphraseText, honoring allowDiscards, and reports success.
	OpenLUKSDevice(volumeUUID, devmapperName, passphraseText string, allowDiscards bool) bool
}
