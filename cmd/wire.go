package main

import (
	"context"
	"fmt"

	"github.com/ScrpTrx-Go/GoTGCollector/application"
	"github.com/ScrpTrx-Go/GoTGCollector/internal/config"
	"github.com/ScrpTrx-Go/GoTGCollector/internal/domain/contracts"
	"github.com/ScrpTrx-Go/GoTGCollector/internal/infra/database"
	fetcher "github.com/ScrpTrx-Go/GoTGCollector/internal/infra/telegram"
	"github.com/ScrpTrx-Go/GoTGCollector/internal/service/analyzer"
	"github.com/ScrpTrx-Go/GoTGCollector/internal/service/collector"
	"github.com/ScrpTrx-Go/GoTGCollector/internal/service/reporter"
	pkg "github.com/ScrpTrx-Go/GoTGCollector/pkg/logger"
)

// services holds everything a command needs once the config is loaded.
type services struct {
	cfg     config.Config
	log     pkg.Logger
	session *fetcher.Session
	cycle   *collector.Cycle
	app     *application.App
	db      *database.Database
}

func setup(ctx context.Context) (*services, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	zaplogger, err := pkg.NewZapLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	rt := &services{cfg: cfg, log: zaplogger}

	rt.session = fetcher.NewSession(cfg.TDLib, zaplogger.WithPackage("telegram"))
	if err := rt.session.Connect(ctx); err != nil {
		_ = zaplogger.Sync()
		return nil, fmt.Errorf("connect telegram session: %w", err)
	}

	provider := fetcher.NewTDLibProvider(rt.session, zaplogger.WithPackage("telegram"))
	collectorLog := zaplogger.WithPackage("collector")
	resolver := collector.NewResolver(provider, collectorLog)
	rt.cycle = collector.NewCycle(
		resolver,
		collector.NewCollector(provider, collectorLog, cfg.TDLib.HistoryPageLimit),
		collector.NewForwarder(provider, resolver, collectorLog, cfg.Forward.RatePerSecond),
		collectorLog,
	)

	var archive contracts.Archiver
	if cfg.DatabaseConfig.DSN != "" {
		keywords := analyzer.NewKeywords(cfg.Archive.Keywords)
		tagger := analyzer.NewTagPipeline(zaplogger.WithPackage("analyzer"), keywords, analyzer.DefaultWorkers)
		rt.db, err = database.NewPostgresPool(ctx, zaplogger.WithPackage("database"), cfg.DatabaseConfig, tagger)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("init database: %w", err)
		}
		if err := rt.db.EnsureSchema(ctx); err != nil {
			rt.close()
			return nil, err
		}
		archive = rt.db
	}

	var reports contracts.Reporter
	if cfg.Scheduler.Daily.ReportDir != "" {
		reports = reporter.NewReporter(zaplogger.WithPackage("reporter"), cfg.Scheduler.Daily.ReportDir)
	}

	rt.app = application.NewApp(rt.session, rt.cycle, archive, reports, zaplogger.WithPackage("application"))
	return rt, nil
}

func (rt *services) hourlySpec() application.CycleSpec {
	h := rt.cfg.Scheduler.Hourly
	return application.CycleSpec{Label: "hourly", ChannelsFile: h.ChannelsFile, Window: h.Window.Duration}
}

func (rt *services) dailySpec() application.CycleSpec {
	d := rt.cfg.Scheduler.Daily
	return application.CycleSpec{Label: "daily", ChannelsFile: d.ChannelsFile, Window: d.Window.Duration, Report: d.ReportDir != ""}
}

func (rt *services) close() {
	if rt.db != nil {
		rt.db.Close()
	}
	if err := rt.session.Close(); err != nil {
		rt.log.Error("Failed to close TDLib session", "err", err)
	}
	_ = rt.log.Sync()
}
