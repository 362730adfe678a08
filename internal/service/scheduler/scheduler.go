package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	pkg "github.com/ScrpTrx-Go/GoTGCollector/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// Job is one ingestion cycle.
type Job func(ctx context.Context) error

type Config struct {
	HourlyEvery time.Duration
	Daily       DailyClock
}

// Scheduler drives the hourly and the daily cycle until ctx is cancelled.
type Scheduler struct {
	cfg    Config
	hourly Job
	daily  Job
	log    pkg.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg Config, hourly, daily Job, log pkg.Logger) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		hourly: hourly,
		daily:  daily,
		log:    log,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Run blocks until ctx is done. Each loop contains its own failures, so
// neither can stop the other.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.hourlyLoop(ctx) })
	g.Go(func() error { return s.dailyLoop(ctx) })
	return g.Wait()
}

func (s *Scheduler) hourlyLoop(ctx context.Context) error {
	s.log.Info("Hourly loop started", "every", s.cfg.HourlyEvery.String())
	for {
		s.runSafely(ctx, "hourly", s.hourly)
		// No drift correction: the period starts after the cycle ends.
		if err := s.sleep(ctx, s.cfg.HourlyEvery); err != nil {
			s.log.Info("Hourly loop stopped")
			return nil
		}
	}
}

func (s *Scheduler) dailyLoop(ctx context.Context) error {
	s.log.Info("Daily loop started", "at", s.cfg.Daily.String())
	for {
		now := s.now()
		next := s.cfg.Daily.Next(now)
		wait := next.Sub(now)
		s.log.Info("Next daily run scheduled", "at", next, "in", wait.String())

		if err := s.sleep(ctx, wait); err != nil {
			s.log.Info("Daily loop stopped")
			return nil
		}
		s.runSafely(ctx, "daily", s.daily)
	}
}

func (s *Scheduler) runSafely(ctx context.Context, name string, job Job) {
	start := time.Now()
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
			}
		}()
		return job(ctx)
	}()
	if err != nil {
		s.log.Error("Cycle failed", "cycle", name, "err", err, "duration", time.Since(start).String())
		return
	}
	s.log.Info("Cycle completed", "cycle", name, "duration", time.Since(start).String())
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
