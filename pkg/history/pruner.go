package history

import (
	"context"
	"log/slog"
	"time"
)

// Pruner deletes runs older than the retention period.
type Pruner struct {
	store         Store
	retentionDays int
	now           func() time.Time
	logger        *slog.Logger
}

// NewPruner creates a pruner. retentionDays <= 0 keeps runs forever.
func NewPruner(store Store, retentionDays int) *Pruner {
	return &Pruner{
		store:         store,
		retentionDays: retentionDays,
		now:           time.Now,
		logger:        slog.Default().With("component", "history.pruner"),
	}
}

// Prune deletes runs that started before now minus the retention period.
func (p *Pruner) Prune(ctx context.Context) (int, error) {
	if p.retentionDays <= 0 {
		p.logger.Debug("retention disabled, skipping pruning")
		return 0, nil
	}

	cutoff := p.now().AddDate(0, 0, -p.retentionDays)
	deleted, err := p.store.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		p.logger.Info("pruned run history",
			"deleted_count", deleted,
			"cutoff", cutoff.Format(time.RFC3339),
		)
	}
	return deleted, nil
}
