package config

import (
	"fmt"
	"net"
	"net/mail"
	"strings"

	"github.com/robfig/cron/v3"

	"mercator-hq/autopublish/pkg/workflow"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "mail.port").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration. All validation errors are
// collected and returned together as a ValidationError.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateWorkflow(&cfg.Workflow)...)
	errs = append(errs, validateAutopublish(&cfg.Autopublish, &cfg.Workflow)...)
	errs = append(errs, validateCatalog(&cfg.Catalog)...)
	errs = append(errs, validateHistory(&cfg.History)...)
	errs = append(errs, validateMail(&cfg.Mail, len(cfg.Autopublish.EmailLog) > 0)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateWorkflow(def *workflow.Definition) []FieldError {
	if err := def.Validate(); err != nil {
		return []FieldError{{Field: "workflow", Message: err.Error()}}
	}
	return nil
}

func validateAutopublish(cfg *AutopublishConfig, def *workflow.Definition) []FieldError {
	var errs []FieldError

	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "autopublish.schedule",
			Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Schedule, err),
		})
	}

	for i, addr := range cfg.EmailLog {
		if _, err := mail.ParseAddress(addr); err != nil {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("autopublish.email_log[%d]", i),
				Message: fmt.Sprintf("invalid email address %q", addr),
			})
		}
	}

	for i, rule := range cfg.PublishActions {
		errs = append(errs, validateActionRule(fmt.Sprintf("autopublish.publish_actions[%d]", i), rule, def, true)...)
	}
	for i, rule := range cfg.RetractActions {
		errs = append(errs, validateActionRule(fmt.Sprintf("autopublish.retract_actions[%d]", i), rule, def, false)...)
	}

	for i, id := range cfg.ExpireOnTransitions {
		if _, ok := def.Transition(id); !ok {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("autopublish.expire_on_transitions[%d]", i),
				Message: fmt.Sprintf("unknown transition %q", id),
			})
		}
	}

	if cfg.LockFile == "" {
		errs = append(errs, FieldError{Field: "autopublish.lock_file", Message: "must not be empty"})
	}

	return errs
}

// validateActionRule checks a single rule. Publish rules take exactly one
// initial state; retract rules take one or more.
func validateActionRule(prefix string, rule ActionRule, def *workflow.Definition, publish bool) []FieldError {
	var errs []FieldError

	if len(rule.PortalTypes) == 0 {
		errs = append(errs, FieldError{Field: prefix + ".portal_types", Message: "at least one portal type is required"})
	}

	switch {
	case len(rule.InitialState) == 0:
		errs = append(errs, FieldError{Field: prefix + ".initial_state", Message: "is required"})
	case publish && len(rule.InitialState) > 1:
		errs = append(errs, FieldError{Field: prefix + ".initial_state", Message: "publish actions take exactly one initial state"})
	}

	if rule.Transition == "" {
		errs = append(errs, FieldError{Field: prefix + ".transition", Message: "is required"})
	} else if _, ok := def.Transition(rule.Transition); !ok {
		errs = append(errs, FieldError{
			Field:   prefix + ".transition",
			Message: fmt.Sprintf("unknown transition %q", rule.Transition),
		})
	}

	return errs
}

func validateCatalog(cfg *CatalogConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "catalog.sqlite.path", Message: "required for sqlite backend"})
		}
		if cfg.SQLite.MaxOpenConns < 0 {
			errs = append(errs, FieldError{Field: "catalog.sqlite.max_open_conns", Message: "must not be negative"})
		}
		if cfg.SQLite.MaxIdleConns < 0 {
			errs = append(errs, FieldError{Field: "catalog.sqlite.max_idle_conns", Message: "must not be negative"})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{Field: "catalog.sqlite.busy_timeout", Message: "must not be negative"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "catalog.backend",
			Message: fmt.Sprintf("invalid backend %q (must be sqlite or memory)", cfg.Backend),
		})
	}

	return errs
}

func validateHistory(cfg *HistoryConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}

	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.Path == "" {
			errs = append(errs, FieldError{Field: "history.path", Message: "required for sqlite backend"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "history.backend",
			Message: fmt.Sprintf("invalid backend %q (must be sqlite or memory)", cfg.Backend),
		})
	}

	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{Field: "history.retention_days", Message: "must not be negative"})
	}
	if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "history.prune_schedule",
			Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.PruneSchedule, err),
		})
	}

	return errs
}

func validateMail(cfg *MailConfig, recipients bool) []FieldError {
	var errs []FieldError

	if recipients && cfg.Host == "" {
		errs = append(errs, FieldError{Field: "mail.host", Message: "required when autopublish.email_log is set"})
	}
	if cfg.Host == "" {
		return errs
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, FieldError{Field: "mail.port", Message: fmt.Sprintf("invalid port %d", cfg.Port)})
	}
	if cfg.From == "" {
		errs = append(errs, FieldError{Field: "mail.from", Message: "required when mail.host is set"})
	} else if _, err := mail.ParseAddress(cfg.From); err != nil {
		errs = append(errs, FieldError{Field: "mail.from", Message: fmt.Sprintf("invalid email address %q", cfg.From)})
	}
	if cfg.Username != "" && cfg.Password == "" {
		errs = append(errs, FieldError{Field: "mail.password", Message: "required when mail.username is set"})
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{Field: "mail.timeout", Message: "must be positive"})
	}

	return errs
}

func validateServer(cfg *ServerConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}

	var errs []FieldError

	if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid address %q: %v", cfg.ListenAddress, err),
		})
	}
	if cfg.ReadTimeout <= 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "must be positive"})
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "must be positive"})
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "must be positive"})
	}

	names := make(map[string]bool, len(cfg.APITokens))
	for i, tok := range cfg.APITokens {
		field := fmt.Sprintf("server.api_tokens[%d]", i)
		if tok.Name == "" {
			errs = append(errs, FieldError{Field: field + ".name", Message: "must not be empty"})
		} else if names[tok.Name] {
			errs = append(errs, FieldError{Field: field + ".name", Message: fmt.Sprintf("duplicate token name %q", tok.Name)})
		}
		names[tok.Name] = true
		if len(tok.Token) < MinAPITokenLength {
			errs = append(errs, FieldError{
				Field:   field + ".token",
				Message: fmt.Sprintf("must be at least %d characters", MinAPITokenLength),
			})
		}
	}
	if cfg.APIToken != "" && len(cfg.APIToken) < MinAPITokenLength {
		errs = append(errs, FieldError{
			Field:   "server.api_token",
			Message: fmt.Sprintf("must be at least %d characters", MinAPITokenLength),
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid level %q (must be debug, info, warn or error)", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console", "auto":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid format %q (must be json, text, console or auto)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if !strings.HasPrefix(cfg.Metrics.Path, "/") {
			errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "must start with /"})
		}
		if cfg.Metrics.Namespace == "" {
			errs = append(errs, FieldError{Field: "telemetry.metrics.namespace", Message: "must not be empty"})
		}
	}

	if cfg.Tracing.Enabled {
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "required when tracing is enabled"})
		}
		switch cfg.Tracing.Sampler {
		case "always", "never":
		case "ratio":
			if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
				errs = append(errs, FieldError{
					Field:   "telemetry.tracing.sample_ratio",
					Message: fmt.Sprintf("must be between 0 and 1, got %g", cfg.Tracing.SampleRatio),
				})
			}
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("invalid sampler %q (must be always, never or ratio)", cfg.Tracing.Sampler),
			})
		}
	}

	return errs
}
