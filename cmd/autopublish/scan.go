package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/autopublish/pkg/autopublish"
	"mercator-hq/autopublish/pkg/cli"
	"mercator-hq/autopublish/pkg/history"
)

var scanFlags struct {
	dryRun    bool
	showAudit bool
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one autopublishing pass now",
	Long: `Run a single publish and retract pass over the catalog and exit.

Items whose effective date has passed are published and items whose
expiration date has passed are retracted, following the configured action
rules. The run is recorded in history and the audit log is mailed when
recipients are configured.

Exit codes:
  0   Scan finished (or was skipped)
  1   Scan failed
  75  Another scan holds the run lock
  78  Configuration error

Examples:
  # Scan and transition due items
  autopublish scan

  # Report what would change without transitioning anything
  autopublish scan --dry-run --audit

  # JSON output for scripting
  autopublish scan -o json`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().BoolVar(&scanFlags.dryRun, "dry-run", false, "report due items without transitioning them")
	scanCmd.Flags().BoolVar(&scanFlags.showAudit, "audit", false, "print the audit log after the summary")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	result, err := a.scanner.Run(ctx, autopublish.RunOptions{
		Trigger: history.TriggerManual,
		DryRun:  scanFlags.dryRun,
	})
	if errors.Is(err, autopublish.ErrRunInProgress) {
		return cli.NewCommandErrorCode("scan", cli.ExitTempFail, err)
	}
	if err != nil {
		return cli.NewCommandError("scan", err)
	}

	out := cmd.OutOrStdout()
	if outputFormat != string(cli.FormatTable) {
		return formatter().FormatTo(out, result)
	}

	if result.Skipped {
		fmt.Fprintln(out, cli.Warn("Scan skipped: "+result.SkipReason))
		return nil
	}
	if err := formatter().FormatTo(out, runTable(result)); err != nil {
		return err
	}

	var notes []string
	if result.DryRun {
		notes = append(notes, "dry run")
	}
	if result.Mailed {
		notes = append(notes, "audit mailed")
	}
	summary := fmt.Sprintf("Run %s: %d found, %d transitioned", result.ID, result.Found(), result.Affected())
	if len(notes) > 0 {
		summary += " (" + strings.Join(notes, ", ") + ")"
	}
	if result.Failed() > 0 {
		fmt.Fprintln(out, cli.Warn(fmt.Sprintf("%s, %d refused by the workflow", summary, result.Failed())))
	} else {
		fmt.Fprintln(out, cli.Success(summary))
	}

	if scanFlags.showAudit {
		fmt.Fprintln(out, strings.TrimSpace(result.Audit()))
	}
	return nil
}

func runTable(r *autopublish.RunResult) cli.Table {
	t := cli.Table{
		Headers:      []string{"PHASE", "FOUND", "TRANSITIONED", "REFUSED"},
		RightAligned: []int{1, 2, 3},
	}
	for _, p := range []*autopublish.PhaseResult{r.Publish, r.Retract} {
		if p == nil {
			continue
		}
		t.Rows = append(t.Rows, []string{
			p.Phase,
			strconv.Itoa(p.Found),
			strconv.Itoa(p.Affected),
			strconv.Itoa(p.Failed),
		})
	}
	return t
}
