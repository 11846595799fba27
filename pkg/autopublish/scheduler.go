package autopublish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/autopublish/pkg/history"
)

// SchedulerConfig configures the cron jobs.
type SchedulerConfig struct {
	// Schedule is the cron expression for the scan. Required.
	Schedule string

	// PruneSchedule is the cron expression for history pruning. Pruning is
	// skipped when empty or when no pruner is set.
	PruneSchedule string
}

// Scheduler runs the scanner, and optionally history pruning, on cron
// schedules.
type Scheduler struct {
	scanner *Scanner
	pruner  *history.Pruner
	config  SchedulerConfig
	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
	scanID  cron.EntryID
}

// NewScheduler creates a scheduler. pruner may be nil.
func NewScheduler(scanner *Scanner, pruner *history.Pruner, cfg SchedulerConfig) *Scheduler {
	return &Scheduler{
		scanner: scanner,
		pruner:  pruner,
		config:  cfg,
		cron:    cron.New(),
		logger:  slog.Default().With("component", "autopublish.scheduler"),
	}
}

// Start registers the jobs and starts the cron loop. The scheduler stops when
// ctx is cancelled.
//
// Common cron expressions:
//   - "*/5 * * * *" - Every five minutes
//   - "0 * * * *"   - Hourly
//   - "0 3 * * *"   - Daily at 3 AM
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scheduler already running")
	}

	if _, err := cron.ParseStandard(s.config.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.config.Schedule, err)
	}

	id, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runScan(ctx, history.TriggerSchedule)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule scan: %w", err)
	}
	s.scanID = id

	if s.pruner != nil && s.config.PruneSchedule != "" {
		if _, err := cron.ParseStandard(s.config.PruneSchedule); err != nil {
			s.cron.Remove(id)
			return fmt.Errorf("invalid prune schedule %q: %w", s.config.PruneSchedule, err)
		}
		if _, err := s.cron.AddFunc(s.config.PruneSchedule, func() {
			s.runPruning(ctx)
		}); err != nil {
			s.cron.Remove(id)
			return fmt.Errorf("failed to schedule pruning: %w", err)
		}
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("autopublish scheduler started",
		"schedule", s.config.Schedule,
		"prune_schedule", s.config.PruneSchedule,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) runScan(ctx context.Context, trigger string) {
	// Failures are logged by the scanner.
	if _, err := s.scanner.Run(ctx, RunOptions{Trigger: trigger}); errors.Is(err, ErrRunInProgress) {
		s.logger.Info("previous autopublishing run still in progress, skipping", "trigger", trigger)
	}
}

// RunOnStart runs one scan recorded with the startup trigger.
func (s *Scheduler) RunOnStart(ctx context.Context) {
	s.runScan(ctx, history.TriggerStartup)
}

func (s *Scheduler) runPruning(ctx context.Context) {
	s.logger.Info("starting scheduled history pruning")

	deleted, err := s.pruner.Prune(ctx)
	if err != nil {
		s.logger.Error("scheduled pruning failed", "error", err)
		return
	}

	if deleted > 0 {
		s.logger.Info("scheduled pruning completed", "deleted_count", deleted)
	} else {
		s.logger.Debug("scheduled pruning completed, no runs deleted")
	}
}

// RunNow triggers a scan outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context, opts RunOptions) (*RunResult, error) {
	return s.scanner.Run(ctx, opts)
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("autopublish scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled scan, or nil if none is scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil || !s.running {
		return nil
	}

	entry := s.cron.Entry(s.scanID)
	if !entry.Valid() || entry.Next.IsZero() {
		return nil
	}

	next := entry.Next
	return &next
}
