package autopublish

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"mercator-hq/autopublish/pkg/workflow"
)

// ExpirationRecorder counts expiration dates set by the handler.
// *metrics.Collector implements it.
type ExpirationRecorder interface {
	RecordExpirationSet(transition string)
}

// TransitionHandler stamps an expiration date on items leaving publication
// through one of the configured transitions, so the publish scan does not
// pick them up again.
type TransitionHandler struct {
	settings SettingsProvider
	recorder ExpirationRecorder
	now      func() time.Time
	logger   *slog.Logger
}

var _ workflow.Subscriber = (*TransitionHandler)(nil)

// NewTransitionHandler creates a handler reading settings from p.
// recorder may be nil.
func NewTransitionHandler(p SettingsProvider, recorder ExpirationRecorder) *TransitionHandler {
	return &TransitionHandler{
		settings: p,
		recorder: recorder,
		now:      time.Now,
		logger:   slog.Default().With("component", "autopublish.transition_handler"),
	}
}

// Handle implements workflow.Subscriber.
func (h *TransitionHandler) Handle(ctx context.Context, event *workflow.TransitionEvent) error {
	if event == nil || event.Transition == nil || event.Item == nil {
		return nil
	}

	expireOn := DefaultExpireOnTransitions
	overwrite := false

	settings, err := h.settings.Settings()
	switch {
	case err == nil:
		overwrite = settings.OverwriteExpirationOnRetract
		if len(settings.ExpireOnTransitions) > 0 {
			expireOn = settings.ExpireOnTransitions
		}
	case errors.Is(err, ErrSettingsUnavailable):
		h.logger.InfoContext(ctx, "no autopublishing settings available, expiration will not be overwritten")
	default:
		h.logger.WarnContext(ctx, "failed to load autopublishing settings", "error", err)
	}

	if !containsString(expireOn, event.Transition.ID) {
		return nil
	}

	item := event.Item
	if item.ExpirationDate != nil && !overwrite {
		return nil
	}

	at := event.At
	if at.IsZero() {
		at = h.now().UTC()
	}
	item.SetExpirationDate(at)

	if h.recorder != nil {
		h.recorder.RecordExpirationSet(event.Transition.ID)
	}
	h.logger.DebugContext(ctx, "expiration date set",
		"path", item.Path,
		"transition", event.Transition.ID,
		"expires", at.Format(time.RFC3339),
	)
	return nil
}

// DefaultExpireOnTransitions are the transitions that set an expiration
// date when none is configured.
var DefaultExpireOnTransitions = []string{"retract", "reject"}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
