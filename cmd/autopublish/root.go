package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/autopublish/pkg/cli"
	"mercator-hq/autopublish/pkg/config"
)

var (
	// Global flags
	cfgFile      string
	outputFormat string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "autopublish",
	Short: "Autopublish - scheduled publishing and expiry for catalog content",
	Long: `Autopublish scans a content catalog on a schedule and moves items through
their workflow when their dates come due:

  - items whose effective date has passed are published
  - items whose expiration date has passed are retracted
  - retracting or rejecting an item stamps an expiration date on it
  - every run can be mailed as an audit log and is kept in run history`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cli.ConfigureColor(cmd.OutOrStdout())
		_, err := cli.ParseFormat(outputFormat)
		return err
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.Fail(err.Error()))
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "autopublish.yaml", "config file path")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json, text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}

// loadConfig reads the config file with environment overrides and makes it
// the global configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	config.SetConfig(cfg)
	return cfg, nil
}

func formatter() cli.Formatter {
	f, _ := cli.ParseFormat(outputFormat)
	return cli.NewFormatter(f)
}
