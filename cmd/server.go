package cmd

import (
	"ShelfFM/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the ShelfFM daemon",
	Long:  `Start the ShelfFM daemon: library stores, playback engine and the remote-control HTTP API.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
