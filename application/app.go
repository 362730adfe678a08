package application

import (
	"context"
	"fmt"
	"time"

	"github.com/ScrpTrx-Go/GoTGCollector/internal/config"
	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/contracts"
	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/model"
	"github.com/ScrpTrx-Go/GoTGCollector/internal/service/collector"
	pkg "github.com/ScrpTrx-Go/GoTGCollector/pkg/logger"
)

type cycleRunner interface {
	Run(ctx context.Context, in collector.Input) (model.CycleResult, error)
}

// CycleSpec describes one kind of autonomous cycle.
type CycleSpec struct {
	Label        string
	ChannelsFile string
	Window       time.Duration
	Report       bool
}

type App struct {
	Session  contracts.Session
	Cycle    cycleRunner
	Archive  contracts.Archiver
	Reporter contracts.Reporter
	Logger   pkg.Logger

	loadChannels func(path string) (config.Channels, error)
}

// NewApp wires an App. archive and reporter may be nil.
func NewApp(session contracts.Session, cycle cycleRunner, archive contracts.Archiver, reporter contracts.Reporter, logger pkg.Logger) *App {
	return &App{
		Session:      session,
		Cycle:        cycle,
		Archive:      archive,
		Reporter:     reporter,
		Logger:       logger,
		loadChannels: config.LoadChannels,
	}
}

// RunCycle reads the channels file, runs one cycle and hands the result to
// the archive and, when asked, the reporter. Archive and report failures
// are logged and do not fail the cycle.
func (a *App) RunCycle(ctx context.Context, spec CycleSpec) (model.CycleResult, error) {
	channels, err := a.loadChannels(spec.ChannelsFile)
	if err != nil {
		return model.CycleResult{}, err
	}
	if len(channels.Channels) == 0 {
		a.Logger.Warn("Channels file lists no channels", "label", spec.Label, "file", spec.ChannelsFile)
		return model.CycleResult{}, nil
	}

	if a.Session != nil {
		if err := a.Session.EnsureConnected(ctx); err != nil {
			return model.CycleResult{}, fmt.Errorf("ensure connected: %w", err)
		}
	}

	a.Logger.Info("Cycle started", "label", spec.Label, "channels", len(channels.Channels), "window", spec.Window.String(), "target", channels.Target)
	res, runErr := a.Cycle.Run(ctx, collector.Input{
		Channels: channels.Channels,
		Window:   spec.Window,
		Target:   channels.Target,
	})
	a.logOutcomes(spec.Label, res)

	if len(res.Messages) > 0 && a.Archive != nil {
		if err := a.Archive.SaveCycle(ctx, spec.Label, res); err != nil {
			a.Logger.Error("Failed to archive cycle", "label", spec.Label, "err", err)
		}
	}
	if spec.Report && a.Reporter != nil && len(res.Outcomes) > 0 {
		if _, err := a.Reporter.WriteCycleReport(ctx, spec.Label, res); err != nil {
			a.Logger.Error("Failed to write cycle report", "label", spec.Label, "err", err)
		}
	}

	return res, runErr
}

func (a *App) logOutcomes(label string, res model.CycleResult) {
	skipped := 0
	for _, o := range res.Outcomes {
		if o.Skip.Skipped() {
			skipped++
		}
	}
	fields := []interface{}{
		"label", label,
		"channels", len(res.Outcomes),
		"skipped", skipped,
		"posts", len(res.Messages),
	}
	if res.Forward != nil {
		fields = append(fields, "forwarded", res.Forward.Forwarded, "attempted", res.Forward.Attempted)
	}
	a.Logger.Info("Cycle summary", fields...)
}
