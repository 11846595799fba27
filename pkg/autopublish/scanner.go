package autopublish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mercator-hq/autopublish/pkg/content"
	"mercator-hq/autopublish/pkg/history"
	"mercator-hq/autopublish/pkg/mail"
	"mercator-hq/autopublish/pkg/telemetry/logging"
	"mercator-hq/autopublish/pkg/telemetry/metrics"
	"mercator-hq/autopublish/pkg/telemetry/tracing"
	"mercator-hq/autopublish/pkg/workflow"
)

// Transitioner applies a workflow transition to an item and persists it.
type Transitioner interface {
	DoActionFor(ctx context.Context, item *content.Item, transitionID string) error
}

// Recorder receives run metrics. *metrics.Collector implements it.
type Recorder interface {
	RecordRun(status string, duration time.Duration)
	RecordPhase(phase string, found, affected, failed int)
	RecordMail(status string)
}

type noopRecorder struct{}

func (noopRecorder) RecordRun(string, time.Duration)   {}
func (noopRecorder) RecordPhase(string, int, int, int) {}
func (noopRecorder) RecordMail(string)                 {}

// PhaseResult is the outcome of one scan phase.
type PhaseResult struct {
	Phase string `json:"phase"`

	// Audit is the report text written for the phase.
	Audit string `json:"audit"`

	// Found counts items whose dates qualified them.
	Found int `json:"found"`

	// Affected counts items transitioned.
	Affected int `json:"affected"`

	// Failed counts transitions the workflow refused.
	Failed int `json:"failed"`
}

// RunOptions control a single run.
type RunOptions struct {
	// Trigger is recorded in history. Defaults to history.TriggerManual.
	Trigger string

	// DryRun forces a dry run regardless of settings.
	DryRun bool
}

// RunResult summarises a run.
type RunResult struct {
	ID         string       `json:"id"`
	Trigger    string       `json:"trigger"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	DryRun     bool         `json:"dry_run"`
	Skipped    bool         `json:"skipped"`
	SkipReason string       `json:"skip_reason,omitempty"`
	Publish    *PhaseResult `json:"publish,omitempty"`
	Retract    *PhaseResult `json:"retract,omitempty"`
	Mailed     bool         `json:"mailed"`
}

// Found is the number of qualifying items across both phases.
func (r *RunResult) Found() int { return r.publish().Found + r.retract().Found }

// Affected is the number of transitioned items across both phases.
func (r *RunResult) Affected() int { return r.publish().Affected + r.retract().Affected }

// Failed is the number of refused transitions across both phases.
func (r *RunResult) Failed() int { return r.publish().Failed + r.retract().Failed }

// Audit is the combined audit text.
func (r *RunResult) Audit() string {
	if r.Publish == nil && r.Retract == nil {
		return ""
	}
	return r.publish().Audit + "\n\n" + r.retract().Audit
}

func (r *RunResult) publish() *PhaseResult {
	if r.Publish == nil {
		return &PhaseResult{Phase: PhasePublish}
	}
	return r.Publish
}

func (r *RunResult) retract() *PhaseResult {
	if r.Retract == nil {
		return &PhaseResult{Phase: PhaseRetract}
	}
	return r.Retract
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithSettings sets the settings source. Defaults to FromConfig.
func WithSettings(p SettingsProvider) Option {
	return func(s *Scanner) { s.settings = p }
}

// WithSender sets the audit mail sender.
func WithSender(sender mail.Sender) Option {
	return func(s *Scanner) { s.sender = sender }
}

// WithHistory records every completed run in store.
func WithHistory(store history.Store) Option {
	return func(s *Scanner) { s.history = store }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Scanner) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithTracer sets the tracer for run and phase spans.
func WithTracer(t *tracing.Tracer) Option {
	return func(s *Scanner) { s.tracer = t }
}

// WithLock sets the run lock. Defaults to an in-process lock.
func WithLock(l *RunLock) Option {
	return func(s *Scanner) { s.lock = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) { s.logger = logger }
}

// Scanner finds items due for publishing or retraction and transitions them.
type Scanner struct {
	catalog  content.Catalog
	engine   Transitioner
	settings SettingsProvider
	sender   mail.Sender
	history  history.Store
	recorder Recorder
	tracer   *tracing.Tracer
	lock     *RunLock
	now      func() time.Time
	logger   *slog.Logger
}

// NewScanner creates a scanner over the catalog using engine for transitions.
func NewScanner(catalog content.Catalog, engine Transitioner, opts ...Option) *Scanner {
	s := &Scanner{
		catalog:  catalog,
		engine:   engine,
		settings: FromConfig(),
		sender:   mail.NoopSender{},
		recorder: noopRecorder{},
		lock:     NewRunLock(""),
		now:      time.Now,
		logger:   slog.Default().With("component", "autopublish.scanner"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one complete autopublishing pass: publish scan, retract scan,
// audit mail and history. It returns ErrRunInProgress if another run holds
// the lock. Missing settings or a catalog without the autopublishing index
// skip the run without error.
func (s *Scanner) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if err := s.lock.TryLock(); err != nil {
		return nil, err
	}
	defer s.lock.Unlock()

	if opts.Trigger == "" {
		opts.Trigger = history.TriggerManual
	}

	result := &RunResult{
		ID:        uuid.NewString(),
		Trigger:   opts.Trigger,
		StartedAt: s.now().UTC(),
	}
	ctx = logging.WithRunID(ctx, result.ID)
	ctx, span := s.tracer.Start(ctx, "autopublish.run", tracing.AttrRunID.String(result.ID))

	err := s.run(ctx, opts, result)
	result.FinishedAt = s.now().UTC()
	span.SetAttributes(tracing.AttrDryRun.Bool(result.DryRun))
	span.SetAttributes(tracing.CountAttributes(result.Found(), result.Affected())...)
	tracing.End(span, err)

	duration := result.FinishedAt.Sub(result.StartedAt)
	switch {
	case err != nil:
		s.recorder.RecordRun(metrics.StatusError, duration)
	case result.Skipped:
		s.recorder.RecordRun(metrics.StatusSkipped, duration)
	default:
		s.recorder.RecordRun(metrics.StatusSuccess, duration)
	}

	if !result.Skipped {
		s.saveHistory(ctx, result, err)
	}

	if err != nil {
		s.logger.ErrorContext(ctx, "autopublishing run failed", "error", err, "trigger", result.Trigger)
		return result, err
	}

	s.logger.InfoContext(ctx, "autopublishing run completed",
		"trigger", result.Trigger,
		"dry_run", result.DryRun,
		"skipped", result.Skipped,
		"found", result.Found(),
		"affected", result.Affected(),
		"failed", result.Failed(),
		"mailed", result.Mailed,
		"duration", duration,
	)
	return result, nil
}

func (s *Scanner) run(ctx context.Context, opts RunOptions, result *RunResult) error {
	settings, err := s.settings.Settings()
	if errors.Is(err, ErrSettingsUnavailable) {
		s.logger.InfoContext(ctx, "no autopublishing settings available, skipping run")
		result.Skipped = true
		result.SkipReason = "settings unavailable"
		return nil
	}
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if opts.DryRun {
		settings.DryRun = true
	}
	result.DryRun = settings.DryRun

	ok, err := content.HasIndex(ctx, s.catalog, content.IndexEnableAutopublishing)
	if err != nil {
		return fmt.Errorf("check catalog indexes: %w", err)
	}
	if !ok {
		s.logger.InfoContext(ctx, "catalog has no autopublishing index, skipping run",
			"index", content.IndexEnableAutopublishing)
		result.Skipped = true
		result.SkipReason = "catalog index " + content.IndexEnableAutopublishing + " missing"
		return nil
	}

	now := result.StartedAt
	if result.Publish, err = s.HandlePublishing(ctx, settings, now); err != nil {
		return err
	}
	if result.Retract, err = s.HandleRetracting(ctx, settings, now); err != nil {
		return err
	}

	mailed, err := s.sendAudit(ctx, settings, result.Publish.Audit, result.Retract.Audit)
	result.Mailed = mailed
	return err
}

// HandlePublishing publishes items whose effective date has passed and whose
// expiration date, if any, has not.
func (s *Scanner) HandlePublishing(ctx context.Context, settings *Settings, now time.Time) (*PhaseResult, error) {
	return s.handle(ctx, PhasePublish, settings, settings.PublishActions, now,
		func(rule ActionRule) *content.Query {
			return &content.Query{
				ReviewStates:    rule.InitialStates,
				PortalTypes:     rule.PortalTypes,
				EffectiveAt:     &now,
				AutopublishOnly: true,
			}
		},
		func(item *content.Item) bool {
			return item.EffectiveDate != nil && item.EffectiveDate.Before(now) &&
				(item.ExpirationDate == nil || item.ExpirationDate.After(now))
		},
	)
}

// HandleRetracting retracts items whose expiration date has passed.
func (s *Scanner) HandleRetracting(ctx context.Context, settings *Settings, now time.Time) (*PhaseResult, error) {
	return s.handle(ctx, PhaseRetract, settings, settings.RetractActions, now,
		func(rule ActionRule) *content.Query {
			return &content.Query{
				ReviewStates:    rule.InitialStates,
				PortalTypes:     rule.PortalTypes,
				ExpiresBefore:   &now,
				AutopublishOnly: true,
			}
		},
		func(item *content.Item) bool {
			return item.ExpirationDate != nil && item.ExpirationDate.Before(now)
		},
	)
}

func (s *Scanner) handle(
	ctx context.Context,
	phase string,
	settings *Settings,
	rules []ActionRule,
	now time.Time,
	query func(ActionRule) *content.Query,
	qualifies func(*content.Item) bool,
) (*PhaseResult, error) {
	ctx, span := s.tracer.Start(ctx, "autopublish."+phase)
	result := &PhaseResult{Phase: phase}
	var report Report

	var err error
	for _, rule := range rules {
		report.Action(phase, rule)
		if err = s.applyRule(ctx, phase, settings, rule, query(rule), qualifies, &report, result); err != nil {
			break
		}
	}

	result.Audit = report.String()
	s.recorder.RecordPhase(phase, result.Found, result.Affected, result.Failed)
	span.SetAttributes(tracing.CountAttributes(result.Found, result.Affected)...)
	tracing.End(span, err)
	return result, err
}

func (s *Scanner) applyRule(
	ctx context.Context,
	phase string,
	settings *Settings,
	rule ActionRule,
	query *content.Query,
	qualifies func(*content.Item) bool,
	report *Report,
	result *PhaseResult,
) error {
	ctx, span := s.tracer.Start(ctx, "autopublish.rule", tracing.RuleAttributes(phase, rule.Transition, rule.PortalTypes)...)

	found, affected, err := s.transitionMatches(ctx, phase, settings, rule, query, qualifies, report, result)
	span.SetAttributes(tracing.CountAttributes(found, affected)...)
	tracing.End(span, err)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "ran autopublishing",
		"phase", phase,
		"transition", rule.Transition,
		"portal_types", rule.PortalTypes,
		"found", found,
		"affected", affected,
	)
	return nil
}

func (s *Scanner) transitionMatches(
	ctx context.Context,
	phase string,
	settings *Settings,
	rule ActionRule,
	query *content.Query,
	qualifies func(*content.Item) bool,
	report *Report,
	result *PhaseResult,
) (found, affected int, err error) {
	brains, err := s.catalog.Search(ctx, query)
	if err != nil {
		return 0, 0, &PhaseError{Phase: phase, Transition: rule.Transition, Cause: err}
	}

	for _, brain := range brains {
		if err := ctx.Err(); err != nil {
			return found, affected, err
		}

		item, err := s.catalog.Get(ctx, brain.ID)
		if errors.Is(err, content.ErrNotFound) {
			// Deleted between search and load.
			continue
		}
		if err != nil {
			return found, affected, &PhaseError{Phase: phase, Transition: rule.Transition, Path: brain.Path, Cause: err}
		}

		// The index holds sentinel dates for unset fields, so the live item decides.
		if !qualifies(item) {
			continue
		}

		report.Transition(item.Path, rule.Transition)
		found++
		result.Found++

		if settings.DryRun {
			continue
		}

		item.EnableAutopublishing = false
		if err := s.engine.DoActionFor(ctx, item, rule.Transition); err != nil {
			if errors.Is(err, workflow.ErrTransitionNotAllowed) {
				s.logger.WarnContext(ctx, "transition not allowed",
					"phase", phase,
					"path", item.Path,
					"transition", rule.Transition,
					"error", err,
				)
				result.Failed++
				continue
			}
			return found, affected, &PhaseError{Phase: phase, Transition: rule.Transition, Path: item.Path, Cause: err}
		}
		affected++
		result.Affected++
	}
	return found, affected, nil
}

func (s *Scanner) sendAudit(ctx context.Context, settings *Settings, publishAudit, retractAudit string) (bool, error) {
	if len(settings.EmailLog) == 0 || (publishAudit == "" && retractAudit == "") {
		return false, nil
	}

	msg := &mail.Message{
		From:    settings.MailFrom,
		To:      settings.EmailLog,
		Subject: MailSubject,
		Body:    MailBody(publishAudit, retractAudit),
		Date:    s.now(),
	}

	ctx, span := s.tracer.Start(ctx, "autopublish.mail")
	err := s.sender.Send(ctx, msg)
	tracing.End(span, err)
	if err != nil {
		s.recorder.RecordMail(metrics.StatusError)
		return false, fmt.Errorf("send audit mail: %w", err)
	}
	s.recorder.RecordMail(metrics.StatusSuccess)
	s.logger.InfoContext(ctx, "audit mail sent", "recipients", len(msg.To))
	return true, nil
}

func (s *Scanner) saveHistory(ctx context.Context, result *RunResult, runErr error) {
	if s.history == nil {
		return
	}
	rec := &history.Record{
		ID:         result.ID,
		Trigger:    result.Trigger,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		DryRun:     result.DryRun,
		Found:      result.Found(),
		Affected:   result.Affected(),
		Failed:     result.Failed(),
		Mailed:     result.Mailed,
		Audit:      result.Audit(),
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	if err := s.history.Save(ctx, rec); err != nil {
		s.logger.WarnContext(ctx, "failed to record run history", "error", err)
	}
}
