package cmd

import (
	"fmt"
	"os"

	"ShelfFM/config"
	"ShelfFM/logger"
	"ShelfFM/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shelffm",
	Short: "ShelfFM is a personal offline music library and player.",
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

// initLogging configures the global logger from the environment. Every
// subcommand goes through here.
func initLogging() {
	cfg := config.Load()
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    50, // MB
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	})
}

// Execute executes the root command.
func Execute() {
	cobra.OnInitialize(initLogging)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
