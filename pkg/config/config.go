package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"mercator-hq/autopublish/pkg/workflow"
)

// Config is the root configuration structure.
type Config struct {
	// Autopublish contains the scan settings: schedule, dry run, action
	// rules and the audit mail recipients.
	Autopublish AutopublishConfig `yaml:"autopublish" envPrefix:"AUTOPUBLISH_"`

	// Catalog selects and configures the content catalog backend.
	Catalog CatalogConfig `yaml:"catalog" envPrefix:"CATALOG_"`

	// Workflow defines the review states and transitions.
	Workflow workflow.Definition `yaml:"workflow"`

	// History configures the run history store and its retention.
	History HistoryConfig `yaml:"history" envPrefix:"HISTORY_"`

	// Mail configures delivery of the audit mail.
	Mail MailConfig `yaml:"mail" envPrefix:"MAIL_"`

	// Server configures the admin HTTP server.
	Server ServerConfig `yaml:"server" envPrefix:"SERVER_"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

// AutopublishConfig contains the autopublishing settings.
type AutopublishConfig struct {
	// Schedule is the cron expression the scan runs on.
	// Default: "*/5 * * * *"
	Schedule string `yaml:"schedule" env:"SCHEDULE"`

	// DryRun reports what would be transitioned without changing anything.
	// Default: false
	DryRun bool `yaml:"dry_run" env:"DRY_RUN"`

	// EmailLog lists the addresses that receive the audit report.
	// An empty list disables the audit mail.
	EmailLog []string `yaml:"email_log" env:"EMAIL_LOG"`

	// PublishActions are the rules applied by the publish scan.
	PublishActions []ActionRule `yaml:"publish_actions"`

	// RetractActions are the rules applied by the retract scan.
	RetractActions []ActionRule `yaml:"retract_actions"`

	// OverwriteExpirationOnRetract makes retract and reject transitions always
	// reset the expiration date to now, not only when it is unset.
	// Default: false
	OverwriteExpirationOnRetract bool `yaml:"overwrite_expiration_on_retract" env:"OVERWRITE_EXPIRATION_ON_RETRACT"`

	// ExpireOnTransitions lists the transitions that set the expiration date.
	// Default: ["retract", "reject"]
	ExpireOnTransitions []string `yaml:"expire_on_transitions" env:"EXPIRE_ON_TRANSITIONS"`

	// LockFile guards against two scans running at once, across processes.
	// Default: "data/autopublish.lock"
	LockFile string `yaml:"lock_file" env:"LOCK_FILE"`
}

// ActionRule selects items by type and state and names the transition to
// apply to them.
type ActionRule struct {
	// PortalTypes are the content types the rule applies to.
	PortalTypes []string `yaml:"portal_types" json:"portal_types"`

	// InitialState holds the review state(s) candidates must be in.
	// The YAML value may be a single state or a list.
	InitialState StateList `yaml:"initial_state" json:"initial_state"`

	// Transition is the workflow transition to invoke.
	Transition string `yaml:"transition" json:"transition"`
}

// StateList is a list of review states that also accepts a scalar in YAML.
type StateList []string

// UnmarshalYAML decodes either a scalar or a sequence of states.
func (s *StateList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var state string
		if err := value.Decode(&state); err != nil {
			return err
		}
		*s = StateList{state}
		return nil
	case yaml.SequenceNode:
		var states []string
		if err := value.Decode(&states); err != nil {
			return err
		}
		*s = StateList(states)
		return nil
	default:
		return fmt.Errorf("line %d: initial_state must be a state or a list of states", value.Line)
	}
}

// CatalogConfig selects the catalog backend.
type CatalogConfig struct {
	// Backend is "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend" env:"BACKEND"`

	// SQLite configures the SQLite backend.
	SQLite SQLiteConfig `yaml:"sqlite" envPrefix:"SQLITE_"`
}

// SQLiteConfig contains SQLite connection settings.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string `yaml:"path" env:"PATH"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode" env:"WAL_MODE"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout" env:"BUSY_TIMEOUT"`
}

// HistoryConfig configures run history.
type HistoryConfig struct {
	// Enabled controls whether runs are recorded.
	// Default: true
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Backend is "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend" env:"BACKEND"`

	// Path is the history database file.
	// Default: "data/history.db"
	Path string `yaml:"path" env:"PATH"`

	// RetentionDays is how long runs are kept. 0 keeps them forever.
	// Default: 30
	RetentionDays int `yaml:"retention_days" env:"RETENTION_DAYS"`

	// PruneSchedule is the cron expression for pruning old runs.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule" env:"PRUNE_SCHEDULE"`
}

// MailConfig configures SMTP delivery.
type MailConfig struct {
	// Host is the SMTP server. Empty disables mail delivery.
	Host string `yaml:"host" env:"HOST"`

	// Port is the SMTP port.
	// Default: 25
	Port int `yaml:"port" env:"PORT"`

	// Username and Password enable PLAIN authentication when set.
	Username string `yaml:"username" env:"USERNAME"`
	Password string `yaml:"password" env:"PASSWORD"`

	// From is the sender address of the audit mail.
	From string `yaml:"from" env:"FROM"`

	// Timeout bounds connecting to and talking with the server.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// ServerConfig configures the admin HTTP server.
type ServerConfig struct {
	// Enabled controls whether the server starts with the daemon.
	// Default: true
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// ListenAddress is "host:port".
	// Default: "127.0.0.1:8090"
	ListenAddress string `yaml:"listen_address" env:"LISTEN_ADDRESS"`

	// ReadTimeout bounds reading a request.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`

	// WriteTimeout bounds writing a response. Manual scans run inside it.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`

	// APITokens guard the /v1 routes. With no tokens the API is open.
	APITokens []APIToken `yaml:"api_tokens"`

	// APIToken adds one unnamed token, for setting a token from the
	// environment.
	APIToken string `yaml:"-" env:"API_TOKEN"`
}

// APIToken is a bearer token accepted by the admin API.
type APIToken struct {
	// Name identifies the caller in logs.
	Name string `yaml:"name"`

	Token string `yaml:"token"`

	// Disabled tokens are rejected.
	Disabled bool `yaml:"disabled"`
}

// TelemetryConfig contains logging and metrics configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOGGING_"`
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`
	Tracing TracingConfig `yaml:"tracing" envPrefix:"TRACING_"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level" env:"LEVEL"`

	// Format is "json", "text", "console" or "auto". Auto picks console on a
	// terminal and json otherwise.
	// Default: "auto"
	Format string `yaml:"format" env:"FORMAT"`

	// AddSource includes file and line in log entries.
	AddSource bool `yaml:"add_source" env:"ADD_SOURCE"`

	// Redact masks email addresses and credentials in log attributes.
	// Default: true
	Redact bool `yaml:"redact" env:"REDACT"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served.
	// Default: true
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Path is the HTTP path metrics are served on.
	// Default: "/metrics"
	Path string `yaml:"path" env:"PATH"`

	// Namespace prefixes every metric name.
	// Default: "autopublish"
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// TracingConfig contains OpenTelemetry tracing settings.
type TracingConfig struct {
	// Enabled turns on span export.
	// Default: false
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint" env:"ENDPOINT"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure" env:"INSECURE"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`

	// Sampler is "always", "never" or "ratio".
	// Default: "always"
	Sampler string `yaml:"sampler" env:"SAMPLER"`

	// SampleRatio is used by the ratio sampler, between 0 and 1.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio" env:"SAMPLE_RATIO"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "autopublish"
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
}
