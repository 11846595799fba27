package storage

import (
	"fmt"

	"mercator-hq/autopublish/pkg/config"
	"mercator-hq/autopublish/pkg/content"
)

// NewCatalog opens the catalog backend selected by cfg.
func NewCatalog(cfg *config.CatalogConfig) (content.Catalog, error) {
	switch cfg.Backend {
	case "memory":
		return NewMemoryStorage(), nil
	case "sqlite", "":
		return NewSQLiteStorage(&SQLiteConfig{
			Path:         cfg.SQLite.Path,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported catalog backend: %s", cfg.Backend)
	}
}
