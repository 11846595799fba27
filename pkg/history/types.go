package history

import (
	"context"
	"errors"
	"time"
)

// Triggers recorded on a run.
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
	TriggerCLI      = "cli"
	TriggerStartup  = "startup"
)

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// Record is one autopublishing run.
type Record struct {
	ID         string    `json:"id"`
	Trigger    string    `json:"trigger"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DryRun     bool      `json:"dry_run"`

	// Found counts candidates whose dates qualified them.
	Found int `json:"found"`

	// Affected counts items actually transitioned.
	Affected int `json:"affected"`

	// Failed counts transitions the workflow refused.
	Failed int `json:"failed"`

	// Mailed reports whether the audit mail was sent.
	Mailed bool `json:"mailed"`

	// Audit is the publish and retract audit text.
	Audit string `json:"audit,omitempty"`

	// Error is the error that ended the run, if any.
	Error string `json:"error,omitempty"`
}

// Duration is how long the run took.
func (r *Record) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Status summarises the run as "error", "dry-run" or "ok".
func (r *Record) Status() string {
	switch {
	case r.Error != "":
		return "error"
	case r.DryRun:
		return "dry-run"
	default:
		return "ok"
	}
}

// Store persists run records. Implementations are safe for concurrent use.
type Store interface {
	// Save inserts or replaces a record.
	Save(ctx context.Context, rec *Record) error

	// Get returns the record with id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// List returns the most recent records first. limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]*Record, error)

	// Prune deletes records that started before the cutoff and returns how
	// many were removed.
	Prune(ctx context.Context, before time.Time) (int, error)

	// Ping checks the store is usable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
