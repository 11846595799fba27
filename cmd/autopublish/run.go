package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/autopublish/pkg/cli"
	"mercator-hq/autopublish/pkg/config"
	"mercator-hq/autopublish/pkg/server"
	"mercator-hq/autopublish/pkg/telemetry/health"
)

var runFlags struct {
	listenAddress string
	noServer      bool
	scanOnStart   bool
	noWatch       bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler and admin API",
	Long: `Run autopublishing on the configured cron schedule until interrupted.

The daemon starts the scan scheduler, the history pruning job, a watcher that
reloads the configuration file when it changes (SIGHUP also reloads), and the
admin HTTP API.

Examples:
  # Start with the default config file
  autopublish run

  # Start with a custom config and scan immediately
  autopublish run --config /etc/autopublish.yaml --scan-on-start

  # Scheduler only, no HTTP API
  autopublish run --no-server`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override admin API listen address")
	runCmd.Flags().BoolVar(&runFlags.noServer, "no-server", false, "do not start the admin API")
	runCmd.Flags().BoolVar(&runFlags.scanOnStart, "scan-on-start", false, "run a scan immediately on startup")
	runCmd.Flags().BoolVar(&runFlags.noWatch, "no-watch", false, "do not reload the config file on change")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.noServer {
		cfg.Server.Enabled = false
	}

	a, err := newApp(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Autopublish v%s\n", Version)
	fmt.Fprintln(out, cli.Success("Configuration loaded from "+cfgFile))
	if cfg.Autopublish.DryRun {
		fmt.Fprintln(out, cli.Warn("Dry run enabled: items will be reported, not transitioned"))
	}

	if err := a.scheduler.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	defer a.scheduler.Stop()
	a.telemetry.Health().RegisterCheck("scheduler", health.RunningCheck("scheduler", a.scheduler.IsRunning))

	msg := "Scheduler started (" + cfg.Autopublish.Schedule + ")"
	if next := a.scheduler.NextRun(); next != nil {
		msg += ", next scan " + next.Local().Format("2006-01-02 15:04:05")
	}
	fmt.Fprintln(out, cli.Success(msg))

	if !runFlags.noWatch {
		startWatcher(ctx, cfg)
	}
	watchSIGHUP(ctx)

	if runFlags.scanOnStart {
		go a.scheduler.RunOnStart(ctx)
	}

	if !cfg.Server.Enabled {
		fmt.Fprintln(out, "\nPress Ctrl+C to stop")
		<-ctx.Done()
		fmt.Fprintln(out, cli.Success("Stopped"))
		return nil
	}

	srv := server.NewServer(&cfg.Server, server.Deps{
		Catalog:   a.catalog,
		Engine:    a.engine,
		Runner:    a.scheduler,
		History:   a.history,
		Telemetry: a.telemetry,
	})

	fmt.Fprintln(out, cli.Success("Admin API on http://"+cfg.Server.ListenAddress))
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintln(out, cli.Success("Stopped"))
	return nil
}

func startWatcher(ctx context.Context, cfg *config.Config) {
	watcher, err := config.NewWatcher(cfgFile, 0, slog.Default())
	if err != nil {
		slog.Warn("config file watching disabled", "error", err)
		return
	}
	schedule := cfg.Autopublish.Schedule
	watcher.OnReload = func(next *config.Config) {
		if next.Autopublish.Schedule != schedule {
			slog.Warn("schedule change takes effect after restart",
				"running", schedule,
				"configured", next.Autopublish.Schedule,
			)
		}
	}

	go func() {
		if err := watcher.Watch(ctx); err != nil {
			slog.Error("config watcher stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		_ = watcher.Stop()
	}()
}

func watchSIGHUP(ctx context.Context) {
	hup, stop := cli.ReloadSignals()
	go func() {
		defer stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				if err := config.ReloadConfig(cfgFile); err != nil {
					slog.Error("configuration reload failed", "error", err)
					continue
				}
				slog.Info("configuration reloaded", "trigger", "SIGHUP")
			}
		}
	}()
}
