package main

import (
	"fmt"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/config"
	"github.com/spf13/cobra"
)

// Version and Commit are set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "tgcollector",
	Short:         "Collect recent posts from public Telegram channels",
	Long:          "tgcollector harvests recent messages from public Telegram channels on an hourly and a daily schedule, optionally forwards them to a target channel and serves on-demand collections over HTTP.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("tgcollector %s (%s)\n", Version, Commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "path to the service config")
	rootCmd.AddCommand(versionCmd, serveCmd, collectCmd, authCmd)
}
