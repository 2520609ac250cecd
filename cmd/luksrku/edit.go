// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.

// edit.go wires the database-mutation verbs that section 9's design notes
// describe as REPL prompts into one-shot cobra subcommands instead, each
// calling straight into a keydb mutator and saving the result.
package main

import (
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tacerus/luksrku/cryptoutil"
	"github.com/tacerus/luksrku/keydb"
	"github.com/tacerus/luksrku/sys"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Create or modify a luksrku database file",
}

func init() {
	rootCmd.AddCommand(editCmd)
}

// loadForEdit prompts for the passphrase and loads path, returning both the
// database and the passphrase so the caller can Write it back under the
// same key once done.
func loadForEdit(path string) (*keydb.KeyDB, []byte) {
	passphrase, err := sys.InputPassword("Enter the database passphrase")
	if err != nil {
		log.Fatalf("edit: %v", err)
	}
	db, err := keydb.Read(path, passphrase)
	if err != nil {
		cryptoutil.Wipe(passphrase)
		log.Fatalf("edit: %v", err)
	}
	return db, passphrase
}

func saveAfterEdit(db *keydb.KeyDB, path string, passphrase []byte) {
	defer cryptoutil.Wipe(passphrase)
	if err := keydb.Write(db, path, passphrase); err != nil {
		log.Fatalf("edit: %v", err)
	}
}

var editNewCmd = &cobra.Command{
	Use:   "new FILENAME",
	Short: "Create a new, empty server database",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		passphrase, err := sys.InputPassword("Choose a database passphrase")
		if err != nil {
			log.Fatalf("edit new: %v", err)
		}
		db := keydb.New()
		db.ServerDatabase = true
		saveAfterEdit(db, args[0], passphrase)
		fmt.Println("Created an empty server database.")
	},
}

var editListCmd = &cobra.Command{
	Use:   "list FILENAME",
	Short: "List every host and volume in a database",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		db, passphrase := loadForEdit(args[0])
		cryptoutil.Wipe(passphrase)
		for _, h := range db.Hosts {
			fmt.Printf("host %s (%s) timeout=%ds\n", h.Name(), cryptoutil.SprintfUUID(h.HostUUID), h.DefaultTimeout)
			for i := uint32(0); i < h.VolumeCount; i++ {
				v := h.Volumes[i]
				fmt.Printf("  volume %s -> %s flags=%#x\n", cryptoutil.SprintfUUID(v.VolumeUUID), v.DevMapperName(), v.Flags)
			}
		}
	},
}

var editAddHostCmd = &cobra.Command{
	Use:   "add-host FILENAME [HOSTNAME]",
	Short: "Add a new host with a freshly generated TLS PSK",
	Long:  "Add a new host with a freshly generated TLS PSK. If HOSTNAME is omitted, this machine's own FQDN is suggested.",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		name := ""
		if len(args) == 2 {
			name = args[1]
		} else {
			suggested, _ := sys.GetHostnameAndIP()
			name = sys.Input("Host name [%s]", suggested)
			if name == "" {
				name = suggested
			}
		}
		db, passphrase := loadForEdit(args[0])
		h, err := db.AddHost(name)
		if err != nil {
			log.Fatalf("edit add-host: %v", err)
		}
		fmt.Printf("Added host %s with uuid %s\n", h.Name(), cryptoutil.SprintfUUID(h.HostUUID))
		saveAfterEdit(db, args[0], passphrase)
	},
}

var editDelHostCmd = &cobra.Command{
	Use:   "del-host FILENAME HOSTNAME",
	Short: "Remove a host and every volume it owns",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		db, passphrase := loadForEdit(args[0])
		if err := db.DelHostByName(args[1]); err != nil {
			log.Fatalf("edit del-host: %v", err)
		}
		saveAfterEdit(db, args[0], passphrase)
	},
}

var editRekeyHostCmd = &cobra.Command{
	Use:   "rekey-host FILENAME HOSTNAME",
	Short: "Replace a host's TLS PSK with a fresh value",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		db, passphrase := loadForEdit(args[0])
		if err := db.RekeyHost(args[1]); err != nil {
			log.Fatalf("edit rekey-host: %v", err)
		}
		saveAfterEdit(db, args[0], passphrase)
	},
}

var editHostTimeoutCmd = &cobra.Command{
	Use:   "host-timeout FILENAME HOSTNAME SECONDS",
	Short: "Set a host's default client timeout (0 = infinite)",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		secs, err := strconv.ParseUint(args[2], 10, 32)
		if err != nil {
			log.Fatalf("edit host-timeout: %v", err)
		}
		db, passphrase := loadForEdit(args[0])
		if err := db.SetHostTimeout(args[1], uint32(secs)); err != nil {
			log.Fatalf("edit host-timeout: %v", err)
		}
		saveAfterEdit(db, args[0], passphrase)
	},
}

var editAddVolumeCmd = &cobra.Command{
	Use:   "add-volume FILENAME HOSTNAME DMNAME VOLUME_UUID",
	Short: "Attach a new volume with a freshly generated passphrase to a host",
	Args:  cobra.ExactArgs(4),
	Run: func(cmd *cobra.Command, args []string) {
		volUUID, err := cryptoutil.ParseUUID(args[3])
		if err != nil {
			log.Fatalf("edit add-volume: %v", err)
		}
		db, passphrase := loadForEdit(args[0])
		v, err := db.AddVolume(args[1], args[2], volUUID)
		if err != nil {
			log.Fatalf("edit add-volume: %v", err)
		}
		fmt.Printf("Added volume %s as %s\n", cryptoutil.SprintfUUID(v.VolumeUUID), v.DevMapperName())
		saveAfterEdit(db, args[0], passphrase)
	},
}

var editDelVolumeCmd = &cobra.Command{
	Use:   "del-volume FILENAME HOSTNAME DMNAME",
	Short: "Remove a volume from a host",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		db, passphrase := loadForEdit(args[0])
		if err := db.DelVolume(args[1], args[2]); err != nil {
			log.Fatalf("edit del-volume: %v", err)
		}
		saveAfterEdit(db, args[0], passphrase)
	},
}

var editRekeyVolumeCmd = &cobra.Command{
	Use:   "rekey-volume FILENAME HOSTNAME DMNAME",
	Short: "Replace a volume's raw LUKS passphrase with a fresh value",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		db, passphrase := loadForEdit(args[0])
		if err := db.RekeyVolume(args[1], args[2]); err != nil {
			log.Fatalf("edit rekey-volume: %v", err)
		}
		fmt.Println("Rekeyed. Remember to also run cryptsetup luksChangeKey on the volume itself.")
		saveAfterEdit(db, args[0], passphrase)
	},
}

var editShowkeyVolumeCmd = &cobra.Command{
	Use:   "showkey-volume FILENAME HOSTNAME DMNAME",
	Short: "Print a volume's ASCII-encoded LUKS passphrase",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		db, passphrase := loadForEdit(args[0])
		defer cryptoutil.Wipe(passphrase)
		vol, found := db.GetVolumeByName(args[1], args[2])
		if !found {
			log.Fatalf("edit showkey-volume: no such volume")
		}
		fmt.Println(db.GetVolumeLUKSPassphrase(vol))
	},
}

var editFlagVolumeCmd = &cobra.Command{
	Use:   "flag-volume FILENAME HOSTNAME DMNAME FLAG on|off",
	Short: "Set or clear a volume flag, e.g. allow-discards",
	Args:  cobra.ExactArgs(5),
	Run: func(cmd *cobra.Command, args []string) {
		var flag uint32
		switch args[3] {
		case "allow-discards":
			flag = keydb.VolumeFlagAllowDiscards
		default:
			log.Fatalf("edit flag-volume: unknown flag %q", args[3])
		}
		var set bool
		switch args[4] {
		case "on":
			set = true
		case "off":
			set = false
		default:
			log.Fatalf("edit flag-volume: expected \"on\" or \"off\", got %q", args[4])
		}
		db, passphrase := loadForEdit(args[0])
		if err := db.SetVolumeFlag(args[1], args[2], flag, set); err != nil {
			log.Fatalf("edit flag-volume: %v", err)
		}
		saveAfterEdit(db, args[0], passphrase)
	},
}

var editExportCmd = &cobra.Command{
	Use:   "export FILENAME HOSTNAME OUTFILE",
	Short: "Export a single host's client database for distribution",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		db, passphrase := loadForEdit(args[0])
		defer cryptoutil.Wipe(passphrase)
		exported, err := db.ExportPublic(args[1])
		if err != nil {
			log.Fatalf("edit export: %v", err)
		}
		exportPassphrase, err := sys.InputPassword("Choose a passphrase for the exported database")
		if err != nil {
			log.Fatalf("edit export: %v", err)
		}
		if err := keydb.Write(exported, args[2], exportPassphrase); err != nil {
			cryptoutil.Wipe(exportPassphrase)
			log.Fatalf("edit export: %v", err)
		}
		cryptoutil.Wipe(exportPassphrase)
		fmt.Printf("Exported %s to %s\n", args[1], args[2])
	},
}

func init() {
	editCmd.AddCommand(
		editNewCmd,
		editListCmd,
		editAddHostCmd,
		editDelHostCmd,
		editRekeyHostCmd,
		editHostTimeoutCmd,
		editAddVolumeCmd,
		editDelVolumeCmd,
		editRekeyVolumeCmd,
		editShowkeyVolumeCmd,
		editFlagVolumeCmd,
		editExportCmd,
	)
}
