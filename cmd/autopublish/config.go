package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mercator-hq/autopublish/pkg/cli"
	"mercator-hq/autopublish/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Check and print the configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate the configuration file with environment overrides applied.

Every problem is reported, not only the first one.

Examples:
  autopublish config validate
  autopublish config validate -c /etc/autopublish.yaml -o json`,
	Args: cobra.NoArgs,
	RunE: validateConfig,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE:  showConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd, configShowCmd)
}

// configReport is the machine-readable result of config validate.
type configReport struct {
	File   string              `json:"file"`
	Valid  bool                `json:"valid"`
	Errors []config.FieldError `json:"errors,omitempty"`
}

func (r configReport) TableHeaders() []string { return []string{"FIELD", "PROBLEM"} }

func (r configReport) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		rows = append(rows, []string{e.Field, e.Message})
	}
	return rows
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := parseConfig()
	if err != nil {
		return err
	}

	report := configReport{File: cfgFile, Valid: true}
	if err := config.Validate(cfg); err != nil {
		var verr config.ValidationError
		if !errors.As(err, &verr) {
			return cli.NewConfigError(cfgFile, err)
		}
		report.Valid = false
		report.Errors = verr.Errors
	}

	out := cmd.OutOrStdout()
	if outputFormat != string(cli.FormatTable) {
		if err := formatter().FormatTo(out, report); err != nil {
			return err
		}
	} else if report.Valid {
		fmt.Fprintln(out, cli.Success(cfgFile+" is valid"))
	} else {
		if err := formatter().FormatTo(out, report); err != nil {
			return err
		}
	}

	if !report.Valid {
		return cli.NewConfigError(cfgFile, fmt.Errorf("%d problems found", len(report.Errors)))
	}
	return nil
}

func showConfig(cmd *cobra.Command, args []string) error {
	cfg, err := parseConfig()
	if err != nil {
		return err
	}
	if cfg.Mail.Password != "" {
		cfg.Mail.Password = "********"
	}

	if outputFormat == string(cli.FormatJSON) {
		return formatter().FormatTo(cmd.OutOrStdout(), cfg)
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

// parseConfig reads the config file with defaults and environment overrides
// but without validating it.
func parseConfig() (*config.Config, error) {
	data, err := os.ReadFile(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	cfg, err := config.Parse(data)
	if err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	if err := config.ApplyEnvOverrides(cfg); err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	return cfg, nil
}
