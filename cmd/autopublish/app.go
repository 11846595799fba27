package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"mercator-hq/autopublish/pkg/autopublish"
	"mercator-hq/autopublish/pkg/cli"
	"mercator-hq/autopublish/pkg/config"
	"mercator-hq/autopublish/pkg/content"
	"mercator-hq/autopublish/pkg/content/storage"
	"mercator-hq/autopublish/pkg/history"
	"mercator-hq/autopublish/pkg/mail"
	"mercator-hq/autopublish/pkg/telemetry"
	"mercator-hq/autopublish/pkg/telemetry/health"
	"mercator-hq/autopublish/pkg/workflow"
)

// app holds the components shared by the commands.
type app struct {
	cfg       *config.Config
	telemetry *telemetry.Telemetry
	catalog   content.Catalog
	engine    *workflow.Engine
	history   history.Store
	scanner   *autopublish.Scanner
	scheduler *autopublish.Scheduler
}

// newApp wires every component from cfg. Logs go to logOut.
func newApp(cfg *config.Config, logOut io.Writer) (*app, error) {
	tel, err := telemetry.New(&cfg.Telemetry, versionInfo(), telemetry.WithLogWriter(logOut))
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	slog.SetDefault(tel.Logger())

	catalog, err := storage.NewCatalog(&cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	store, err := history.NewStore(&cfg.History)
	if err != nil {
		catalog.Close()
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}

	settings := autopublish.FromConfig()
	engine := workflow.NewEngine(&cfg.Workflow, catalog)
	engine.Subscribe(autopublish.NewTransitionHandler(settings, tel.Metrics()))

	scanner := autopublish.NewScanner(catalog, engine,
		autopublish.WithSettings(settings),
		autopublish.WithSender(mail.NewSender(&cfg.Mail)),
		autopublish.WithHistory(store),
		autopublish.WithRecorder(tel.Metrics()),
		autopublish.WithTracer(tel.Tracer()),
		autopublish.WithLock(autopublish.NewRunLock(cfg.Autopublish.LockFile)),
	)

	var pruner *history.Pruner
	if store != nil {
		pruner = history.NewPruner(store, cfg.History.RetentionDays)
	}
	scheduler := autopublish.NewScheduler(scanner, pruner, autopublish.SchedulerConfig{
		Schedule:      cfg.Autopublish.Schedule,
		PruneSchedule: cfg.History.PruneSchedule,
	})

	checker := tel.Health()
	checker.RegisterCheck("catalog", health.PingCheck(catalog))
	if store != nil {
		checker.RegisterCheck("history", health.PingCheck(store))
	}

	return &app{
		cfg:       cfg,
		telemetry: tel,
		catalog:   catalog,
		engine:    engine,
		history:   store,
		scanner:   scanner,
		scheduler: scheduler,
	}, nil
}

// Close releases the stores and flushes telemetry.
func (a *app) Close() error {
	var errs []error
	if a.history != nil {
		errs = append(errs, a.history.Close())
	}
	errs = append(errs, a.catalog.Close())
	errs = append(errs, a.telemetry.Shutdown(context.Background()))
	return errors.Join(errs...)
}
