// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package luksctl

import (
	"bytes"
	"log"
	"os"
	"path"
	"strings"

	"github.com/tacerus/luksrku/sys"
)

const binCryptsetup = "/sbin/cryptsetup"

// Cryptsetup is the real Collaborator, invoking the system cryptsetup
// binary the way fs.CryptOpen historically did: passphrase on stdin via
// --key-file=-, never as a command-line argument.
type Cryptsetup struct {
	// DevicePath resolves a volume UUID to the underlying block device node,
	// e.g. "/dev/disk/by-uuid/<volumeUUID>" - overridable for tests.
	DevicePath func(volumeUUID string) string
}

// NewCryptsetup returns a Cryptsetup collaborator resolving volumes through
// /dev/disk/by-uuid, the standard udev-managed symlink farm.
func NewCryptsetup() *Cryptsetup {
	return &Cryptsetup{DevicePath: func(uuid string) string {
		return path.Join("/dev/disk/by-uuid", uuid)
	}}
}

// IsLUKSDeviceOpened reports whether the mapping already exists.
func (c *Cryptsetup) IsLUKSDeviceOpened(devmapperName string) bool {
	_, err := os.Stat(path.Join("/dev/mapper", devmapperName))
	return err == nil
}

// OpenLUKSDevice calls cryptsetup luksOpen, feeding passphraseText on stdin
// so it never appears in argv or in the process listing.
func (c *Cryptsetup) OpenLUKSDevice(volumeUUID, devmapperName, passphraseText string, allowDiscards bool) bool {
	if c.IsLUKSDeviceOpened(devmapperName) {
		log.Printf("OpenLUKSDevice: %s is already opened as %s", volumeUUID, devmapperName)
		return true
	}
	blockDev := c.DevicePath(volumeUUID)
	args := []string{"--batch-mode", "luksOpen", "--key-file=-"}
	if allowDiscards {
		args = append(args, "--allow-discards")
	}
	args = append(args, blockDev, devmapperName)
	_, stdout, stderr, err := sys.Exec(bytes.NewReader([]byte(passphraseText)), nil, nil, binCryptsetup, args...)
	if err != nil {
		log.Printf("OpenLUKSDevice: failed to open %s (%s) as %s - %v %s %s",
			volumeUUID, blockDev, devmapperName, err, strings.TrimSpace(stdout), strings.TrimSpace(stderr))
		return false
	}
	return true
}
