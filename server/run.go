// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.

// Package server implements the key server orchestrator of section 4.8: load
// a server database, vault its secrets, and answer UDP discovery queries and
// TCP unlock connections on the same port until stopped.
package server

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/tacerus/luksrku/cryptoutil"
	"github.com/tacerus/luksrku/keydb"
	"github.com/tacerus/luksrku/lukserr"
	"github.com/tacerus/luksrku/sys"
	"github.com/tacerus/luksrku/vault"
)

// DefaultPort is the UDP/TCP port the server listens on when none is given.
const DefaultPort = 23170

// Options collects everything Run needs from the command line.
type Options struct {
	DBPath string
	Port   int
	Silent bool
}

// Run loads the database at opts.DBPath, vaults it, and serves discovery and
// unlock requests until an unrecoverable listen error occurs.
func Run(opts Options) error {
	port := opts.Port
	if port == 0 {
		port = DefaultPort
	}

	var passphrase []byte
	var err error
	if opts.Silent {
		line, rerr := bufio.NewReader(os.Stdin).ReadBytes('\n')
		if rerr != nil && rerr != io.EOF {
			return lukserr.New(lukserr.KindIO, "Run", rerr)
		}
		passphrase = bytes.TrimRight(line, "\r\n")
	} else {
		passphrase, err = sys.InputPassword("Enter the database passphrase")
		if err != nil {
			return err
		}
	}
	defer cryptoutil.Wipe(passphrase)

	db, err := keydb.Read(opts.DBPath, passphrase)
	if err != nil {
		return err
	}
	if !db.ServerDatabase {
		return lukserr.New(lukserr.KindConfig, "Run", fmt.Errorf("%s is a client-exported database, not a server database", opts.DBPath))
	}

	vkdb := vault.Build(db)
	defer vkdb.Close()

	log.Printf("Run: serving %d host(s) on UDP/TCP port %d", vkdb.HostCount(), port)
	if sys.Verbose() {
		log.Printf("Run: database loaded from %s", opts.DBPath)
	}

	errCh := make(chan error, 2)
	go func() { errCh <- serveDiscovery(port, vkdb) }()
	go func() { errCh <- serveUnlock(port, vkdb) }()
	return <-errCh
}
