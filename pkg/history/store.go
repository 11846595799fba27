package history

import (
	"fmt"

	"mercator-hq/autopublish/pkg/config"
)

// NewStore opens the store selected by cfg. A disabled history yields nil.
func NewStore(cfg *config.HistoryConfig) (Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	switch cfg.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite", "":
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}
