package main

import (
	"fmt"
	"os"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/config"
	fetcher "github.com/ScrpTrx-Go/GoTGCollector/internal/infra/telegram"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize the Telegram session interactively",
	Long:  "auth prompts for the phone number, login code and password, and stores the authorized session in the TDLib database directory used by serve and collect.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := os.MkdirAll(cfg.TDLib.DatabaseDirectory, 0o700); err != nil {
			return fmt.Errorf("create session directory: %w", err)
		}

		tdlibClient, err := fetcher.NewClient(cfg.TDLib, true)
		if err != nil {
			return err
		}
		defer func() { _, _ = tdlibClient.Close() }()

		me, err := tdlibClient.GetMe()
		if err != nil {
			return fmt.Errorf("GetMe error: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Authorized as %s (id %d). Session stored in %s\n", me.FirstName, me.Id, cfg.TDLib.DatabaseDirectory)
		return nil
	},
}
