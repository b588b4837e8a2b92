package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hamed0406/uptimeengine/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "monitord",
	Short: "Uptime monitoring engine",
	Long: `monitord probes HTTP, ping, port, docker, game, pagespeed and hardware
targets on their own intervals, folds results into an up/down status over a
sliding window, and alerts on transitions.

Configuration comes from the environment (a .env file is read if present).`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.FromEnv()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
