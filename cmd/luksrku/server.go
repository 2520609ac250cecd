// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package main

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tacerus/luksrku/server"
)

var serverCmd = &cobra.Command{
	Use:   "server FILENAME",
	Short: "Serve a server database's hosts over UDP discovery and TCP unlock",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		opts := server.Options{
			DBPath: args[0],
			Port:   viper.GetInt("server.port"),
			Silent: viper.GetBool("server.silent"),
		}
		if err := server.Run(opts); err != nil {
			log.Fatalf("server: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().IntP("port", "p", server.DefaultPort, "UDP/TCP port to listen on")
	serverCmd.Flags().BoolP("silent", "s", false, "read the database passphrase from stdin instead of prompting")

	viper.BindPFlag("server.port", serverCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.silent", serverCmd.Flags().Lookup("silent"))
}
