package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate shell completion script for autopublish.

To load completions:

Bash:
  $ source <(autopublish completion bash)
  # To load permanently:
  $ autopublish completion bash > /etc/bash_completion.d/autopublish

Zsh:
  $ autopublish completion zsh > "${fpath[1]}/_autopublish"
  $ compinit

Fish:
  $ autopublish completion fish | source
  # To load permanently:
  $ autopublish completion fish > ~/.config/fish/completions/autopublish.fish

PowerShell:
  PS> autopublish completion powershell | Out-String | Invoke-Expression
  # To load permanently, add to your PowerShell profile
`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		case "zsh":
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		case "fish":
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		case "powershell":
			return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)

	for _, c := range []*cobra.Command{itemsShowCmd, itemsSetCmd, itemsDeleteCmd} {
		c.ValidArgsFunction = completeItemIDs
	}
	transitionCmd.ValidArgsFunction = completeTransition
}

// completeItemIDs completes the first argument with catalog item ids.
func completeItemIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	a, err := openApp(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer a.Close()

	items, err := a.catalog.List(cmd.Context())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var ids []string
	for _, item := range items {
		if strings.HasPrefix(item.ID, toComplete) {
			ids = append(ids, item.ID+"\t"+item.Path)
		}
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

// completeTransition completes an item id, then the transitions its state
// offers.
func completeTransition(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return completeItemIDs(cmd, args, toComplete)
	}
	if len(args) > 1 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	a, err := openApp(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer a.Close()

	item, err := a.catalog.Get(cmd.Context(), args[0])
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var ids []string
	for _, t := range a.engine.AvailableTransitions(item) {
		ids = append(ids, t.ID+"\t"+t.Title)
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
