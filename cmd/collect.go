package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/service/gateway"
	"github.com/spf13/cobra"
)

var (
	collectDaily  bool
	collectWindow time.Duration
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Run one cycle from the channels file and print the posts as JSON lines",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		rt, err := setup(ctx)
		if err != nil {
			return err
		}
		defer rt.close()

		spec := rt.hourlySpec()
		if collectDaily {
			spec = rt.dailySpec()
		}
		if collectWindow > 0 {
			spec.Window = collectWindow
		}

		res, runErr := rt.app.RunCycle(ctx, spec)

		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, m := range res.Messages {
			if err := enc.Encode(gateway.NewPost(m)); err != nil {
				return err
			}
		}
		if res.Forward != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "forwarded %d/%d\n", res.Forward.Forwarded, res.Forward.Attempted)
		}
		return runErr
	},
}

func init() {
	collectCmd.Flags().BoolVar(&collectDaily, "daily", false, "use the daily cycle settings")
	collectCmd.Flags().DurationVar(&collectWindow, "window", 0, "override the lookback window")
}
