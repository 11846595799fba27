package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"mercator-hq/autopublish/pkg/autopublish"
	"mercator-hq/autopublish/pkg/cli"
	"mercator-hq/autopublish/pkg/content"
	"mercator-hq/autopublish/pkg/history"
)

const testConfig = `
autopublish:
  schedule: "*/5 * * * *"
  lock_file: %[1]s/autopublish.lock
  publish_actions:
    - portal_types: ["News Item"]
      initial_state: private
      transition: publish
  retract_actions:
    - portal_types: ["News Item", "Event"]
      initial_state: [published]
      transition: retract
catalog:
  backend: sqlite
  sqlite:
    path: %[1]s/catalog.db
history:
  backend: sqlite
  path: %[1]s/history.db
server:
  enabled: false
telemetry:
  logging:
    level: error
    format: json
  metrics:
    enabled: false
`

// writeWorkspace creates a config file and an items file in a temp dir.
func writeWorkspace(t *testing.T) (cfgPath, itemsPath string) {
	t.Helper()
	dir := t.TempDir()

	cfgPath = filepath.Join(dir, "autopublish.yaml")
	if err := os.WriteFile(cfgPath, []byte(fmt.Sprintf(testConfig, dir)), 0o644); err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	items := fmt.Sprintf(`
- id: news-1
  path: /site/news/news-1
  title: Launch
  portal_type: News Item
  effective_date: %s
  enable_autopublishing: true
- id: event-1
  path: /site/events/event-1
  title: Open day
  portal_type: Event
  review_state: published
  effective_date: %s
  expiration_date: %s
  enable_autopublishing: true
- id: draft-1
  path: /site/news/draft-1
  title: Not yet
  portal_type: News Item
  effective_date: %s
  enable_autopublishing: true
`,
		now.Add(-time.Hour).Format(time.RFC3339),
		now.Add(-48*time.Hour).Format(time.RFC3339),
		now.Add(-time.Hour).Format(time.RFC3339),
		now.Add(24*time.Hour).Format(time.RFC3339),
	)
	itemsPath = filepath.Join(dir, "items.yaml")
	if err := os.WriteFile(itemsPath, []byte(items), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfgPath, itemsPath
}

// execute runs the root command with args and returns what it wrote to
// stdout. Logs and progress go to stderr and are discarded. Flags are reset
// to their defaults first.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, stderr bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	if err != nil && testing.Verbose() {
		t.Logf("stderr:\n%s", stderr.String())
	}
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func decodeJSON(t *testing.T, out string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(out), v); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
}

func TestCommands_ImportScanShow(t *testing.T) {
	cfgPath, itemsPath := writeWorkspace(t)

	out, err := execute(t, "-c", cfgPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "is valid") {
		t.Errorf("config validate output = %q", out)
	}

	out, err = execute(t, "-c", cfgPath, "items", "import", itemsPath)
	if err != nil {
		t.Fatalf("items import: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Imported 3 items") {
		t.Errorf("items import output = %q", out)
	}

	out, err = execute(t, "-c", cfgPath, "-o", "json", "items", "list", "--autopublish")
	if err != nil {
		t.Fatalf("items list: %v\n%s", err, out)
	}
	var listed []*content.Item
	decodeJSON(t, out, &listed)
	if len(listed) != 3 {
		t.Fatalf("listed %d items, want 3", len(listed))
	}
	for _, item := range listed {
		if item.ID == "news-1" && item.ReviewState != "private" {
			t.Errorf("news-1 imported in state %q, want the initial state", item.ReviewState)
		}
	}

	out, err = execute(t, "-c", cfgPath, "-o", "json", "scan", "--dry-run")
	if err != nil {
		t.Fatalf("scan --dry-run: %v\n%s", err, out)
	}
	var dry autopublish.RunResult
	decodeJSON(t, out, &dry)
	if !dry.DryRun || dry.Found() != 2 || dry.Affected() != 0 {
		t.Errorf("dry run = dry:%v found:%d affected:%d, want dry:true found:2 affected:0",
			dry.DryRun, dry.Found(), dry.Affected())
	}

	out, err = execute(t, "-c", cfgPath, "-o", "json", "scan")
	if err != nil {
		t.Fatalf("scan: %v\n%s", err, out)
	}
	var run autopublish.RunResult
	decodeJSON(t, out, &run)
	if run.DryRun || run.Found() != 2 || run.Affected() != 2 {
		t.Errorf("run = dry:%v found:%d affected:%d, want dry:false found:2 affected:2",
			run.DryRun, run.Found(), run.Affected())
	}
	if !strings.Contains(run.Audit(), "Transitioning (/site/news/news-1) publish\n") {
		t.Errorf("audit missing publish line:\n%s", run.Audit())
	}

	tests := []struct {
		id        string
		wantState string
		wantFlag  bool
	}{
		{"news-1", "published", false},
		{"event-1", "private", false},
		{"draft-1", "private", true},
	}
	for _, tt := range tests {
		out, err := execute(t, "-c", cfgPath, "-o", "json", "items", "show", tt.id)
		if err != nil {
			t.Fatalf("items show %s: %v\n%s", tt.id, err, out)
		}
		var item content.Item
		decodeJSON(t, out, &item)
		if item.ReviewState != tt.wantState {
			t.Errorf("%s state = %q, want %q", tt.id, item.ReviewState, tt.wantState)
		}
		if item.EnableAutopublishing != tt.wantFlag {
			t.Errorf("%s enable_autopublishing = %v, want %v", tt.id, item.EnableAutopublishing, tt.wantFlag)
		}
	}

	out, err = execute(t, "-c", cfgPath, "-o", "json", "history")
	if err != nil {
		t.Fatalf("history: %v\n%s", err, out)
	}
	var runs []*history.Record
	decodeJSON(t, out, &runs)
	if len(runs) != 2 {
		t.Fatalf("history has %d runs, want 2", len(runs))
	}
	if runs[0].ID != run.ID || runs[0].Affected != 2 {
		t.Errorf("latest run = %+v, want id %s with 2 affected", runs[0], run.ID)
	}

	out, err = execute(t, "-c", cfgPath, "history")
	if err != nil {
		t.Fatalf("history table: %v\n%s", err, out)
	}
	if !strings.Contains(out, shortID(run.ID)) {
		t.Errorf("history table missing run %s:\n%s", shortID(run.ID), out)
	}
}

func TestCommands_TransitionStampsExpiration(t *testing.T) {
	cfgPath, itemsPath := writeWorkspace(t)
	if out, err := execute(t, "-c", cfgPath, "items", "import", itemsPath); err != nil {
		t.Fatalf("items import: %v\n%s", err, out)
	}

	out, err := execute(t, "-c", cfgPath, "transition", "news-1", "publish")
	if err != nil {
		t.Fatalf("transition publish: %v\n%s", err, out)
	}
	if !strings.Contains(out, "private -> published") {
		t.Errorf("transition output = %q", out)
	}

	before := time.Now().UTC().Add(-time.Second)
	out, err = execute(t, "-c", cfgPath, "-o", "json", "transition", "news-1", "retract")
	if err != nil {
		t.Fatalf("transition retract: %v\n%s", err, out)
	}
	var item content.Item
	decodeJSON(t, out, &item)
	if item.ExpirationDate == nil || item.ExpirationDate.Before(before) {
		t.Errorf("expiration after retract = %v, want about now", item.ExpirationDate)
	}

	_, err = execute(t, "-c", cfgPath, "transition", "news-1", "reject")
	if err == nil {
		t.Fatal("reject from private should fail")
	}
	if code := cli.ExitCode(err); code != cli.ExitError {
		t.Errorf("exit code = %d, want %d", code, cli.ExitError)
	}
}

func TestCommands_ItemsSet(t *testing.T) {
	cfgPath, itemsPath := writeWorkspace(t)
	if out, err := execute(t, "-c", cfgPath, "items", "import", itemsPath); err != nil {
		t.Fatalf("items import: %v\n%s", err, out)
	}

	out, err := execute(t, "-c", cfgPath, "-o", "json", "items", "set", "draft-1",
		"--effective", "2024-01-02 03:04", "--expires", "none", "--autopublish", "false")
	if err != nil {
		t.Fatalf("items set: %v\n%s", err, out)
	}
	var item content.Item
	decodeJSON(t, out, &item)
	want := time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)
	if item.EffectiveDate == nil || !item.EffectiveDate.Equal(want) {
		t.Errorf("effective = %v, want %v", item.EffectiveDate, want)
	}
	if item.ExpirationDate != nil {
		t.Errorf("expiration = %v, want cleared", item.ExpirationDate)
	}
	if item.EnableAutopublishing {
		t.Error("enable_autopublishing should be false")
	}

	_, err = execute(t, "-c", cfgPath, "items", "set", "draft-1")
	if code := cli.ExitCode(err); code != cli.ExitUsage {
		t.Errorf("set without changes: exit code = %d, want %d", code, cli.ExitUsage)
	}

	_, err = execute(t, "-c", cfgPath, "items", "set", "draft-1", "--effective", "soon")
	if code := cli.ExitCode(err); code != cli.ExitUsage {
		t.Errorf("bad date: exit code = %d, want %d", code, cli.ExitUsage)
	}
}

func TestCommands_ConfigErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	body := "autopublish:\n  schedule: \"not cron\"\ncatalog:\n  backend: postgres\n"
	if err := os.WriteFile(bad, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "-c", bad, "config", "validate")
	if code := cli.ExitCode(err); code != cli.ExitConfig {
		t.Fatalf("exit code = %d, want %d (err %v)", code, cli.ExitConfig, err)
	}
	for _, field := range []string{"autopublish.schedule", "catalog.backend"} {
		if !strings.Contains(out, field) {
			t.Errorf("output missing %s:\n%s", field, out)
		}
	}

	_, err = execute(t, "-c", filepath.Join(dir, "missing.yaml"), "scan")
	var cfgErr *cli.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("scan with missing config: err = %v, want *cli.ConfigError", err)
	}

	_, err = execute(t, "-c", bad, "-o", "xml", "version")
	if err == nil {
		t.Error("unknown output format should fail")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    *time.Time
		wantErr bool
	}{
		{"", nil, false},
		{"none", nil, false},
		{"2024-06-01", ptr(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)), false},
		{"2024-06-01 12:30", ptr(time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)), false},
		{"2024-06-01T12:30:00+02:00", ptr(time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)), false},
		{"tomorrow", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDate(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if (got == nil) != (tt.want == nil) || (got != nil && !got.Equal(*tt.want)) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func ptr(t time.Time) *time.Time { return &t }
