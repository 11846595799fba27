package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/autopublish/pkg/cli"
	"mercator-hq/autopublish/pkg/workflow"
)

var transitionCmd = &cobra.Command{
	Use:   "transition <id> <transition>",
	Short: "Apply a workflow transition to an item",
	Long: `Apply a workflow transition to an item by hand.

Retracting or rejecting an item stamps its expiration date, the same as when
the scheduler does it.

Examples:
  autopublish transition news-1 publish
  autopublish transition news-1 retract`,
	Args: cobra.ExactArgs(2),
	RunE: runTransition,
}

func init() {
	rootCmd.AddCommand(transitionCmd)
}

func runTransition(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	item, err := getItem(ctx, a, args[0])
	if err != nil {
		return cli.NewCommandError("transition", err)
	}

	from := item.ReviewState
	if err := a.engine.DoActionFor(ctx, item, args[1]); err != nil {
		if errors.Is(err, workflow.ErrTransitionNotAllowed) {
			var available []string
			for _, t := range a.engine.AvailableTransitions(item) {
				available = append(available, t.ID)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), cli.Hint(fmt.Sprintf("available from %s: %v", from, available)))
		}
		return cli.NewCommandError("transition", err)
	}

	if outputFormat == string(cli.FormatTable) {
		fmt.Fprintln(cmd.OutOrStdout(), cli.Success(fmt.Sprintf("%s: %s -> %s", item.Path, from, item.ReviewState)))
		return nil
	}
	return printItem(cmd, a, item)
}
