package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a ConfigBuilder with an in-memory catalog and one
// publish and one retract rule. The resulting configuration is valid.
func NewTestConfig() *ConfigBuilder {
	cfg := NewDefaultConfig()
	cfg.Catalog.Backend = "memory"
	cfg.History.Backend = "memory"
	cfg.Autopublish.PublishActions = []ActionRule{
		{PortalTypes: []string{"Document"}, InitialState: StateList{"private"}, Transition: "publish"},
	}
	cfg.Autopublish.RetractActions = []ActionRule{
		{PortalTypes: []string{"Document"}, InitialState: StateList{"published"}, Transition: "retract"},
	}
	return &ConfigBuilder{cfg: *cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithSchedule sets the scan schedule.
func (b *ConfigBuilder) WithSchedule(expr string) *ConfigBuilder {
	b.cfg.Autopublish.Schedule = expr
	return b
}

// WithEmailLog sets the audit mail recipients and a mail server.
func (b *ConfigBuilder) WithEmailLog(addrs ...string) *ConfigBuilder {
	b.cfg.Autopublish.EmailLog = addrs
	b.cfg.Mail.Host = "localhost"
	b.cfg.Mail.From = "portal@example.org"
	return b
}

// WithPublishAction appends a publish rule.
func (b *ConfigBuilder) WithPublishAction(rule ActionRule) *ConfigBuilder {
	b.cfg.Autopublish.PublishActions = append(b.cfg.Autopublish.PublishActions, rule)
	return b
}

// WithRetractAction appends a retract rule.
func (b *ConfigBuilder) WithRetractAction(rule ActionRule) *ConfigBuilder {
	b.cfg.Autopublish.RetractActions = append(b.cfg.Autopublish.RetractActions, rule)
	return b
}

// WithMailTimeout sets the SMTP timeout.
func (b *ConfigBuilder) WithMailTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.Mail.Timeout = d
	return b
}

// WithLoggingLevel sets the log level.
func (b *ConfigBuilder) WithLoggingLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}
