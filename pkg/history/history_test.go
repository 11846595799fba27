package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/autopublish/pkg/config"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func record(id string, started time.Time) *Record {
	return &Record{
		ID:         id,
		Trigger:    TriggerSchedule,
		StartedAt:  started,
		FinishedAt: started.Add(250 * time.Millisecond),
		Found:      2,
		Affected:   1,
		Failed:     1,
		Mailed:     true,
		Audit:      "Transitioning (/news/a) publish\n",
	}
}

func TestStore_SaveGet(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := record("run-1", base)

			if err := store.Save(ctx, rec); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			got, err := store.Get(ctx, "run-1")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if !got.StartedAt.Equal(rec.StartedAt) || !got.FinishedAt.Equal(rec.FinishedAt) {
				t.Errorf("times mismatch: %v/%v", got.StartedAt, got.FinishedAt)
			}
			if got.Found != 2 || got.Affected != 1 || got.Failed != 1 || !got.Mailed {
				t.Errorf("counts mismatch: %+v", got)
			}
			if got.Audit != rec.Audit || got.Trigger != TriggerSchedule {
				t.Errorf("text mismatch: %+v", got)
			}
			if got.Duration() != 250*time.Millisecond {
				t.Errorf("expected 250ms duration, got %v", got.Duration())
			}

			// Save replaces.
			rec.Error = "mail failed"
			if err := store.Save(ctx, rec); err != nil {
				t.Fatalf("second Save failed: %v", err)
			}
			got, _ = store.Get(ctx, "run-1")
			if got.Status() != "error" {
				t.Errorf("expected error status after update, got %q", got.Status())
			}

			if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestStore_ListPrune(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i, id := range []string{"a", "b", "c", "d"} {
				if err := store.Save(ctx, record(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
					t.Fatal(err)
				}
			}

			all, err := store.List(ctx, 0)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(all) != 4 || all[0].ID != "d" || all[3].ID != "a" {
				t.Errorf("expected newest first, got %v", ids(all))
			}

			limited, _ := store.List(ctx, 2)
			if len(limited) != 2 || limited[0].ID != "d" {
				t.Errorf("unexpected limited list %v", ids(limited))
			}

			n, err := store.Prune(ctx, base.Add(2*time.Hour))
			if err != nil {
				t.Fatalf("Prune failed: %v", err)
			}
			if n != 2 {
				t.Errorf("expected 2 pruned, got %d", n)
			}
			rest, _ := store.List(ctx, 0)
			if len(rest) != 2 || rest[1].ID != "c" {
				t.Errorf("unexpected remaining %v", ids(rest))
			}

			if err := store.Ping(ctx); err != nil {
				t.Errorf("Ping failed: %v", err)
			}
		})
	}
}

func TestRecord_Status(t *testing.T) {
	tests := []struct {
		rec  Record
		want string
	}{
		{Record{}, "ok"},
		{Record{DryRun: true}, "dry-run"},
		{Record{DryRun: true, Error: "boom"}, "error"},
	}
	for _, tt := range tests {
		if got := tt.rec.Status(); got != tt.want {
			t.Errorf("Status() = %q, want %q", got, tt.want)
		}
	}
}

func TestNewStore(t *testing.T) {
	store, err := NewStore(&config.HistoryConfig{Enabled: false})
	if err != nil || store != nil {
		t.Errorf("disabled history should yield nil store, got %v, %v", store, err)
	}

	store, err = NewStore(&config.HistoryConfig{Enabled: true, Backend: "memory"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Errorf("expected MemoryStore, got %T", store)
	}

	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err = NewStore(&config.HistoryConfig{Enabled: true, Backend: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("expected sqlite store, got %v", err)
	}
	store.Close()

	if _, err := NewStore(&config.HistoryConfig{Enabled: true, Backend: "redis"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func ids(recs []*Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestPruner(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	store := NewMemoryStore()
	_ = store.Save(ctx, record("old", now.AddDate(0, 0, -40)))
	_ = store.Save(ctx, record("recent", now.AddDate(0, 0, -5)))

	p := NewPruner(store, 30)
	p.now = func() time.Time { return now }

	n, err := p.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 pruned, got %d", n)
	}
	if _, err := store.Get(ctx, "recent"); err != nil {
		t.Errorf("recent run should survive: %v", err)
	}

	forever := NewPruner(store, 0)
	if n, _ := forever.Prune(ctx); n != 0 {
		t.Errorf("zero retention must not prune, got %d", n)
	}
}
