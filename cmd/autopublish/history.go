package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mercator-hq/autopublish/pkg/cli"
	"mercator-hq/autopublish/pkg/history"
)

var historyFlags struct {
	limit int
	prune bool
}

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recent autopublishing runs",
	Long: `Show recent autopublishing runs, or the audit log of one run.

Examples:
  # Last 20 runs
  autopublish history

  # Audit log of a single run
  autopublish history 0b4c8f0e-...

  # Drop runs older than the retention period
  autopublish history --prune`,
	Args: cobra.MaximumNArgs(1),
	RunE: showHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyFlags.limit, "limit", "n", 20, "number of runs to show, 0 for all")
	historyCmd.Flags().BoolVar(&historyFlags.prune, "prune", false, "delete runs older than history.retention_days")
}

// runRows is the table view of run records.
type runRows []*history.Record

func (r runRows) TableHeaders() []string {
	return []string{"ID", "STARTED", "TRIGGER", "FOUND", "DONE", "REFUSED", "STATUS"}
}

func (r runRows) TableRows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, rec := range r {
		rows = append(rows, []string{
			shortID(rec.ID),
			humanize.Time(rec.StartedAt),
			rec.Trigger,
			strconv.Itoa(rec.Found),
			strconv.Itoa(rec.Affected),
			strconv.Itoa(rec.Failed),
			runStatus(rec),
		})
	}
	return rows
}

func showHistory(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.history == nil {
		return cli.NewCommandError("history", errors.New("run history is disabled (history.enabled: false)"))
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if historyFlags.prune {
		n, err := history.NewPruner(a.history, a.cfg.History.RetentionDays).Prune(ctx)
		if err != nil {
			return cli.NewCommandError("history", err)
		}
		fmt.Fprintln(out, cli.Success(fmt.Sprintf("Pruned %d runs", n)))
		return nil
	}

	if len(args) == 1 {
		rec, err := a.history.Get(ctx, args[0])
		if err != nil {
			return cli.NewCommandError("history", err)
		}
		if outputFormat != string(cli.FormatTable) {
			return formatter().FormatTo(out, rec)
		}
		fmt.Fprintf(out, "Run %s (%s, %s)\n", rec.ID, rec.Trigger, runStatus(rec))
		fmt.Fprintf(out, "Started %s, took %s\n",
			rec.StartedAt.Local().Format("2006-01-02 15:04:05"), rec.FinishedAt.Sub(rec.StartedAt))
		if rec.Error != "" {
			fmt.Fprintln(out, cli.Fail(rec.Error))
		}
		if audit := strings.TrimSpace(rec.Audit); audit != "" {
			fmt.Fprintln(out)
			fmt.Fprintln(out, audit)
		}
		return nil
	}

	runs, err := a.history.List(ctx, historyFlags.limit)
	if err != nil {
		return cli.NewCommandError("history", err)
	}
	if outputFormat != string(cli.FormatTable) {
		if runs == nil {
			runs = []*history.Record{}
		}
		return formatter().FormatTo(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, cli.Muted("No runs recorded"))
		return nil
	}
	return formatter().FormatTo(out, runRows(runs))
}

func runStatus(rec *history.Record) string {
	switch {
	case rec.Error != "":
		return "error"
	case rec.DryRun:
		return "dry run"
	case rec.Mailed:
		return "ok, mailed"
	default:
		return "ok"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
