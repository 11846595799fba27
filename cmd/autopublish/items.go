package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mercator-hq/autopublish/pkg/cli"
	"mercator-hq/autopublish/pkg/content"
)

const dateLayout = "2006-01-02 15:04"

var itemsFlags struct {
	state       string
	portalType  string
	path        string
	autopublish bool

	effective      string
	expires        string
	setAutopublish string
}

var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Inspect and edit catalog items",
	Long: `Inspect and edit the items in the content catalog.

Examples:
  # List items waiting to be autopublished
  autopublish items list --autopublish

  # Show one item with its available transitions
  autopublish items show news-1

  # Load items from a YAML or JSON file
  autopublish items import items.yaml

  # Schedule an item
  autopublish items set news-1 --effective "2025-01-01 09:00" --autopublish=true`,
}

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog items",
	Args:  cobra.NoArgs,
	RunE:  listItems,
}

var itemsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one item",
	Args:  cobra.ExactArgs(1),
	RunE:  showItem,
}

var itemsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Insert or replace items from a YAML or JSON list",
	Long: `Insert or replace items from a file holding a list of items.

Items without a review state start in the workflow's initial state.

Example file:
  - id: news-1
    path: /site/news/news-1
    title: Launch
    portal_type: News Item
    effective_date: 2025-01-01T09:00:00Z
    enable_autopublishing: true`,
	Args: cobra.ExactArgs(1),
	RunE: importItems,
}

var itemsSetCmd = &cobra.Command{
	Use:   "set <id>",
	Short: "Change an item's dates or autopublishing flag",
	Long: `Change an item's dates or autopublishing flag.

Dates are RFC 3339 timestamps, "YYYY-MM-DD" or "YYYY-MM-DD HH:MM" in UTC.
Pass "none" to clear a date.`,
	Args: cobra.ExactArgs(1),
	RunE: setItem,
}

var itemsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove an item from the catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  deleteItem,
}

func init() {
	rootCmd.AddCommand(itemsCmd)
	itemsCmd.AddCommand(itemsListCmd, itemsShowCmd, itemsImportCmd, itemsSetCmd, itemsDeleteCmd)

	itemsListCmd.Flags().StringVar(&itemsFlags.state, "state", "", "only items in this review state")
	itemsListCmd.Flags().StringVar(&itemsFlags.portalType, "type", "", "only items of this portal type")
	itemsListCmd.Flags().StringVar(&itemsFlags.path, "path", "", "only items under this path")
	itemsListCmd.Flags().BoolVar(&itemsFlags.autopublish, "autopublish", false, "only items with autopublishing enabled")

	itemsSetCmd.Flags().StringVar(&itemsFlags.effective, "effective", "", `effective date, or "none"`)
	itemsSetCmd.Flags().StringVar(&itemsFlags.expires, "expires", "", `expiration date, or "none"`)
	itemsSetCmd.Flags().StringVar(&itemsFlags.setAutopublish, "autopublish", "", "enable autopublishing: true or false")
}

// itemRows is the table view of a list of items.
type itemRows []*content.Item

func (r itemRows) TableHeaders() []string {
	return []string{"ID", "PATH", "TYPE", "STATE", "EFFECTIVE", "EXPIRES", "AUTO"}
}

func (r itemRows) TableRows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, item := range r {
		auto := ""
		if item.EnableAutopublishing {
			auto = "yes"
		}
		rows = append(rows, []string{
			item.ID,
			item.Path,
			item.PortalType,
			item.ReviewState,
			formatDate(item.EffectiveDate),
			formatDate(item.ExpirationDate),
			auto,
		})
	}
	return rows
}

func listItems(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	query := &content.Query{
		PathPrefix:      itemsFlags.path,
		AutopublishOnly: itemsFlags.autopublish,
	}
	if itemsFlags.state != "" {
		query.ReviewStates = []string{itemsFlags.state}
	}
	if itemsFlags.portalType != "" {
		query.PortalTypes = []string{itemsFlags.portalType}
	}

	ctx := cmd.Context()
	brains, err := a.catalog.Search(ctx, query)
	if err != nil {
		return cli.NewCommandError("items list", err)
	}
	items := make(itemRows, 0, len(brains))
	for _, b := range brains {
		item, err := a.catalog.Get(ctx, b.ID)
		if errors.Is(err, content.ErrNotFound) {
			continue
		}
		if err != nil {
			return cli.NewCommandError("items list", err)
		}
		items = append(items, item)
	}

	if outputFormat == string(cli.FormatTable) && len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.Muted("No items"))
		return nil
	}
	if outputFormat == string(cli.FormatTable) {
		return formatter().FormatTo(cmd.OutOrStdout(), items)
	}
	return formatter().FormatTo(cmd.OutOrStdout(), []*content.Item(items))
}

func showItem(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	item, err := getItem(cmd.Context(), a, args[0])
	if err != nil {
		return cli.NewCommandError("items show", err)
	}
	return printItem(cmd, a, item)
}

func importItems(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return cli.NewCommandErrorCode("items import", cli.ExitUsage, err)
	}
	// JSON is a subset of YAML, so one decoder reads both.
	var items []*content.Item
	if err := yaml.Unmarshal(data, &items); err != nil {
		return cli.NewCommandErrorCode("items import", cli.ExitUsage,
			fmt.Errorf("failed to parse %s: %w", args[0], err))
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	initial := a.engine.Definition().InitialState
	progress := cli.NewProgressReporter(cmd.ErrOrStderr(), "Importing")
	progress.Start(int64(len(items)))
	for i, item := range items {
		if item == nil {
			continue
		}
		if item.ReviewState == "" {
			item.ReviewState = initial
		}
		if err := a.catalog.Put(cmd.Context(), item); err != nil {
			progress.Error(err)
			return cli.NewCommandError("items import", fmt.Errorf("item %d (%s): %w", i+1, item.ID, err))
		}
		progress.Update(int64(i + 1))
	}
	progress.Finish()

	fmt.Fprintln(cmd.OutOrStdout(), cli.Success(fmt.Sprintf("Imported %d items from %s", len(items), args[0])))
	return nil
}

func setItem(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if !flags.Changed("effective") && !flags.Changed("expires") && !flags.Changed("autopublish") {
		return cli.NewCommandErrorCode("items set", cli.ExitUsage,
			errors.New("nothing to change: pass --effective, --expires or --autopublish"))
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	item, err := getItem(ctx, a, args[0])
	if err != nil {
		return cli.NewCommandError("items set", err)
	}

	if flags.Changed("effective") {
		if item.EffectiveDate, err = parseDate(itemsFlags.effective); err != nil {
			return cli.NewCommandErrorCode("items set", cli.ExitUsage, fmt.Errorf("--effective: %w", err))
		}
	}
	if flags.Changed("expires") {
		if item.ExpirationDate, err = parseDate(itemsFlags.expires); err != nil {
			return cli.NewCommandErrorCode("items set", cli.ExitUsage, fmt.Errorf("--expires: %w", err))
		}
	}
	if flags.Changed("autopublish") {
		on, err := strconv.ParseBool(itemsFlags.setAutopublish)
		if err != nil {
			return cli.NewCommandErrorCode("items set", cli.ExitUsage, fmt.Errorf("--autopublish: %w", err))
		}
		item.EnableAutopublishing = on
	}

	if err := a.catalog.Put(ctx, item); err != nil {
		return cli.NewCommandError("items set", err)
	}
	return printItem(cmd, a, item)
}

func deleteItem(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.catalog.Delete(cmd.Context(), args[0]); err != nil {
		return cli.NewCommandError("items delete", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.Success("Deleted "+args[0]))
	return nil
}

// openApp loads the configuration and wires the components, logging to
// the command's stderr.
func openApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(cfg, cmd.ErrOrStderr())
}

func getItem(ctx context.Context, a *app, id string) (*content.Item, error) {
	item, err := a.catalog.Get(ctx, id)
	if errors.Is(err, content.ErrNotFound) {
		return nil, fmt.Errorf("item %q not found", id)
	}
	return item, err
}

func printItem(cmd *cobra.Command, a *app, item *content.Item) error {
	var transitions []string
	for _, t := range a.engine.AvailableTransitions(item) {
		transitions = append(transitions, t.ID)
	}

	if outputFormat != string(cli.FormatTable) {
		return formatter().FormatTo(cmd.OutOrStdout(), struct {
			*content.Item
			Transitions []string `json:"transitions"`
		}{item, transitions})
	}

	t := cli.Table{
		Headers: []string{"FIELD", "VALUE"},
		Rows: [][]string{
			{"ID", item.ID},
			{"Path", item.Path},
			{"Title", item.Title},
			{"Type", item.PortalType},
			{"State", item.ReviewState},
			{"Effective", describeDate(item.EffectiveDate)},
			{"Expires", describeDate(item.ExpirationDate)},
			{"Autopublish", strconv.FormatBool(item.EnableAutopublishing)},
			{"Transitions", strings.Join(transitions, ", ")},
		},
	}
	return formatter().FormatTo(cmd.OutOrStdout(), t)
}

// parseDate reads a date flag. "none" and "" clear the date.
func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, dateLayout, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("cannot parse %q as a date", s)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(dateLayout)
}

func describeDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatDate(t) + " (" + humanize.Time(*t) + ")"
}
