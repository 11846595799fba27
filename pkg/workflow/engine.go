package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/autopublish/pkg/content"
)

// TransitionEvent is delivered to subscribers after an item changed state.
type TransitionEvent struct {
	Item       *content.Item
	Transition *Transition
	FromState  string
	ToState    string
	At         time.Time
}

// Subscriber reacts to transitions. Errors abort the transition before the
// item is saved.
type Subscriber interface {
	Handle(ctx context.Context, event *TransitionEvent) error
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(ctx context.Context, event *TransitionEvent) error

// Handle calls f.
func (f SubscriberFunc) Handle(ctx context.Context, event *TransitionEvent) error {
	return f(ctx, event)
}

// Engine applies workflow transitions to catalog items.
type Engine struct {
	definition  *Definition
	catalog     content.Catalog
	logger      *slog.Logger
	now         func() time.Time
	mu          sync.RWMutex
	subscribers []Subscriber
}

// NewEngine creates an engine for the definition backed by the catalog.
// A nil definition selects DefaultDefinition.
func NewEngine(definition *Definition, catalog content.Catalog) *Engine {
	if definition == nil {
		definition = DefaultDefinition()
	}
	return &Engine{
		definition: definition,
		catalog:    catalog,
		logger:     slog.Default().With("component", "workflow.engine"),
		now:        time.Now,
	}
}

// Definition returns the workflow definition.
func (e *Engine) Definition() *Definition {
	return e.definition
}

// Subscribe registers a subscriber for transition events.
func (e *Engine) Subscribe(s Subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, s)
}

// AvailableTransitions lists the transitions offered by the item's state.
func (e *Engine) AvailableTransitions(item *content.Item) []Transition {
	return e.definition.Available(item.ReviewState)
}

// DoActionFor applies a transition to the item and saves it.
//
// The item is modified in place. If the transition is not offered by the
// item's current state a *TransitionError is returned and nothing changes.
func (e *Engine) DoActionFor(ctx context.Context, item *content.Item, transitionID string) error {
	t, ok := e.definition.Transition(transitionID)
	if !ok || !offers(t, item.ReviewState) {
		return &TransitionError{
			ItemID:     item.ID,
			Path:       item.Path,
			State:      item.ReviewState,
			Transition: transitionID,
		}
	}

	// Work on a copy so a failing subscriber or save leaves the caller's item untouched.
	working := item.Clone()
	from := working.ReviewState
	working.ReviewState = t.To
	working.Modified = e.now().UTC()

	event := &TransitionEvent{
		Item:       working,
		Transition: &t,
		FromState:  from,
		ToState:    t.To,
		At:         working.Modified,
	}

	e.mu.RLock()
	subscribers := append([]Subscriber(nil), e.subscribers...)
	e.mu.RUnlock()

	for _, s := range subscribers {
		if err := s.Handle(ctx, event); err != nil {
			return fmt.Errorf("transition %q on %s: subscriber failed: %w", t.ID, item.Path, err)
		}
	}

	if err := e.catalog.Put(ctx, working); err != nil {
		return fmt.Errorf("transition %q on %s: %w", t.ID, item.Path, err)
	}

	*item = *working

	e.logger.Debug("transition applied",
		"item_id", item.ID,
		"path", item.Path,
		"transition", t.ID,
		"from", from,
		"to", t.To,
	)
	return nil
}

func offers(t Transition, state string) bool {
	for _, from := range t.From {
		if from == state {
			return true
		}
	}
	return false
}
