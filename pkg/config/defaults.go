package config

import (
	"time"

	"mercator-hq/autopublish/pkg/workflow"
)

// Default values for configuration fields.
const (
	// Autopublish defaults
	DefaultSchedule = "*/5 * * * *"
	DefaultLockFile = "data/autopublish.lock"

	// Catalog defaults
	DefaultCatalogBackend       = "sqlite"
	DefaultCatalogSQLitePath    = "data/catalog.db"
	DefaultSQLiteMaxOpenConns   = 10
	DefaultSQLiteMaxIdleConns   = 5
	DefaultSQLiteWALMode        = true
	DefaultSQLiteBusyTimeout    = 5 * time.Second
	DefaultHistoryEnabled       = true
	DefaultHistoryBackend       = "sqlite"
	DefaultHistoryPath          = "data/history.db"
	DefaultHistoryRetention     = 30
	DefaultHistoryPruneSchedule = "0 3 * * *"

	// Mail defaults
	DefaultMailPort    = 25
	DefaultMailTimeout = 30 * time.Second

	// Server defaults
	DefaultServerEnabled   = true
	DefaultListenAddress   = "127.0.0.1:8090"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	MinAPITokenLength      = 16

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "auto"
	DefaultLoggingRedact    = true
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "autopublish"
	DefaultTracingEndpoint  = "localhost:4317"
	DefaultTracingTimeout   = 10 * time.Second
	DefaultTracingSampler   = "always"
	DefaultTracingRatio     = 1.0
	DefaultServiceName      = "autopublish"
)

// DefaultExpireOnTransitions are the transitions that set an expiration date.
var DefaultExpireOnTransitions = []string{"retract", "reject"}

// NewDefaultConfig returns a configuration with every default applied.
// Files are decoded on top of it, so booleans that default to true stay true
// unless the file sets them to false.
func NewDefaultConfig() *Config {
	cfg := &Config{
		Catalog: CatalogConfig{
			SQLite: SQLiteConfig{WALMode: DefaultSQLiteWALMode},
		},
		History: HistoryConfig{Enabled: DefaultHistoryEnabled},
		Server:  ServerConfig{Enabled: DefaultServerEnabled},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{Redact: DefaultLoggingRedact},
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets defaults on fields that hold their zero value.
// It is idempotent.
func ApplyDefaults(cfg *Config) {
	// Autopublish defaults
	if cfg.Autopublish.Schedule == "" {
		cfg.Autopublish.Schedule = DefaultSchedule
	}
	if cfg.Autopublish.LockFile == "" {
		cfg.Autopublish.LockFile = DefaultLockFile
	}
	if cfg.Autopublish.ExpireOnTransitions == nil {
		cfg.Autopublish.ExpireOnTransitions = append([]string(nil), DefaultExpireOnTransitions...)
	}

	// Catalog defaults
	if cfg.Catalog.Backend == "" {
		cfg.Catalog.Backend = DefaultCatalogBackend
	}
	if cfg.Catalog.SQLite.Path == "" {
		cfg.Catalog.SQLite.Path = DefaultCatalogSQLitePath
	}
	if cfg.Catalog.SQLite.MaxOpenConns == 0 {
		cfg.Catalog.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.Catalog.SQLite.MaxIdleConns == 0 {
		cfg.Catalog.SQLite.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if cfg.Catalog.SQLite.BusyTimeout == 0 {
		cfg.Catalog.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}

	// Workflow defaults
	if cfg.Workflow.InitialState == "" && len(cfg.Workflow.Transitions) == 0 {
		cfg.Workflow = *workflow.DefaultDefinition()
	}

	// History defaults
	if cfg.History.Backend == "" {
		cfg.History.Backend = DefaultHistoryBackend
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}
	if cfg.History.PruneSchedule == "" {
		cfg.History.PruneSchedule = DefaultHistoryPruneSchedule
	}

	// Mail defaults
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = DefaultMailPort
	}
	if cfg.Mail.Timeout == 0 {
		cfg.Mail.Timeout = DefaultMailTimeout
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultServiceName
	}
}
