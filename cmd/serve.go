package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/config"
	"github.com/ScrpTrx-Go/GoTGCollector/internal/service/gateway"
	"github.com/ScrpTrx-Go/GoTGCollector/internal/service/scheduler"
	transport "github.com/ScrpTrx-Go/GoTGCollector/internal/transport/http"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the hourly and daily cycles and the HTTP gateway",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	d := rt.cfg.Scheduler.Daily
	hour, minute, err := config.ParseClock(d.At)
	if err != nil {
		return err
	}
	loc, err := config.ParseUTCOffset(d.UTCOffset)
	if err != nil {
		return err
	}
	clock, err := scheduler.NewDailyClock(hour, minute, loc)
	if err != nil {
		return err
	}

	hourly, daily := rt.hourlySpec(), rt.dailySpec()
	sched := scheduler.New(
		scheduler.Config{HourlyEvery: rt.cfg.Scheduler.Hourly.Interval.Duration, Daily: clock},
		func(ctx context.Context) error {
			_, err := rt.app.RunCycle(ctx, hourly)
			return err
		},
		func(ctx context.Context) error {
			_, err := rt.app.RunCycle(ctx, daily)
			return err
		},
		rt.log.WithPackage("scheduler"),
	)

	gw := gateway.New(rt.session, rt.cycle, rt.log.WithPackage("gateway"))
	srv := transport.NewServer(rt.cfg.HTTP.Addr, gw, rt.log.WithPackage("http"))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(ctx) })
	g.Go(func() error { return srv.Run(ctx) })

	err = g.Wait()
	rt.log.Info("Stopped")
	return err
}
