// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package client

import (
	"fmt"
	"log"
	"time"

	"github.com/tacerus/luksrku/cryptoutil"
	"github.com/tacerus/luksrku/keydb"
	"github.com/tacerus/luksrku/luksctl"
	"github.com/tacerus/luksrku/sys"
)

// Options collects everything Run needs from the command line.
type Options struct {
	DBPath   string
	Hostname string        // empty selects broadcast mode
	Port     int
	Timeout  time.Duration // 0 means infinite, overrides the database's own timeout
	NoLUKS   bool
}

// Run implements the client entry point of section 4.7: prompt for the
// database passphrase, load the exported database, probe already-unlocked
// volumes, then drive either direct or broadcast mode until every volume is
// open or the timeout elapses. It returns a non-nil error for setup
// failures (bad passphrase, malformed database) and also when it gives up
// with volumes still locked; that error carries the locked-volume count.
func Run(opts Options) error {
	passphrase, err := sys.InputPassword("Enter the database passphrase")
	if err != nil {
		return err
	}
	defer cryptoutil.Wipe(passphrase)

	db, err := keydb.Read(opts.DBPath, passphrase)
	if err != nil {
		return err
	}
	defer db.Wipe()

	var collaborator luksctl.Collaborator
	if opts.NoLUKS {
		collaborator = luksctl.NewNoOp()
	} else {
		collaborator = luksctl.NewCryptsetup()
	}

	state, err := NewState(db, collaborator)
	if err != nil {
		return err
	}

	timeout := opts.Timeout
	if timeout == 0 && state.Host.DefaultTimeout > 0 {
		timeout = time.Duration(state.Host.DefaultTimeout) * time.Second
	}

	if state.AllUnlocked() {
		log.Printf("Run: every volume already unlocked, nothing to do")
		return nil
	}

	if opts.Hostname != "" {
		if err := state.RunDirect(opts.Hostname, opts.Port, 5*time.Second); err != nil {
			log.Printf("Run: direct connection to %s failed - %v", opts.Hostname, err)
		}
	} else {
		if err := state.RunBroadcast(opts.Port, timeout); err != nil {
			log.Printf("Run: broadcast discovery failed - %v", err)
		}
	}

	locked := state.LockedCount()
	if locked == 0 {
		log.Printf("Run: all volumes unlocked")
		return nil
	}
	return fmt.Errorf("Run: %d volume(s) still locked after giving up", locked)
}
