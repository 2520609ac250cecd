// luksrku - Copyright (c) 2024 the luksrku authors
// This source code is licensed under GPL version 3 that can be found in LICENSE file.
package main

import (
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tacerus/luksrku/client"
	"github.com/tacerus/luksrku/server"
)

var clientCmd = &cobra.Command{
	Use:   "client FILENAME [HOSTNAME]",
	Short: "Load an exported database and unlock this host's volumes",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		opts := client.Options{
			DBPath:  args[0],
			Port:    viper.GetInt("client.port"),
			Timeout: time.Duration(viper.GetInt("client.timeout")) * time.Second,
			NoLUKS:  viper.GetBool("client.no-luks"),
		}
		if len(args) == 2 {
			opts.Hostname = args[1]
		}
		if err := client.Run(opts); err != nil {
			log.Fatalf("client: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(clientCmd)

	clientCmd.Flags().IntP("timeout", "t", 0, "give up after this many seconds (0 = infinite, overrides the database's default)")
	clientCmd.Flags().IntP("port", "p", server.DefaultPort, "key server port")
	clientCmd.Flags().Bool("no-luks", false, "record unlock attempts instead of calling cryptsetup, for testing")

	viper.BindPFlag("client.timeout", clientCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("client.port", clientCmd.Flags().Lookup("port"))
	viper.BindPFlag("client.no-luks", clientCmd.Flags().Lookup("no-luks"))
}
