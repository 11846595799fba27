package workflow_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"mercator-hq/autopublish/pkg/content"
	"mercator-hq/autopublish/pkg/content/storage"
	"mercator-hq/autopublish/pkg/workflow"
)

func newItem(state string) *content.Item {
	return &content.Item{
		ID:          "doc-1",
		Path:        "/site/doc-1",
		PortalType:  "Document",
		ReviewState: state,
	}
}

func TestEngine_DoActionFor(t *testing.T) {
	tests := []struct {
		name       string
		state      string
		transition string
		wantState  string
		wantErr    bool
	}{
		{name: "publish private", state: "private", transition: "publish", wantState: "published"},
		{name: "publish pending", state: "pending", transition: "publish", wantState: "published"},
		{name: "retract published", state: "published", transition: "retract", wantState: "private"},
		{name: "reject pending", state: "pending", transition: "reject", wantState: "private"},
		{name: "publish published is not offered", state: "published", transition: "publish", wantState: "published", wantErr: true},
		{name: "unknown transition", state: "private", transition: "explode", wantState: "private", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			catalog := storage.NewMemoryStorage()
			item := newItem(tt.state)
			if err := catalog.Put(ctx, item); err != nil {
				t.Fatalf("Put() failed: %v", err)
			}

			engine := workflow.NewEngine(nil, catalog)
			err := engine.DoActionFor(ctx, item, tt.transition)

			if (err != nil) != tt.wantErr {
				t.Fatalf("DoActionFor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, workflow.ErrTransitionNotAllowed) {
				t.Errorf("error %v does not match ErrTransitionNotAllowed", err)
			}
			if item.ReviewState != tt.wantState {
				t.Errorf("item.ReviewState = %s, want %s", item.ReviewState, tt.wantState)
			}

			stored, err := catalog.Get(ctx, item.ID)
			if err != nil {
				t.Fatalf("Get() failed: %v", err)
			}
			if stored.ReviewState != tt.wantState {
				t.Errorf("stored ReviewState = %s, want %s", stored.ReviewState, tt.wantState)
			}
		})
	}
}

func TestEngine_SubscriberChangesAreSaved(t *testing.T) {
	ctx := context.Background()
	catalog := storage.NewMemoryStorage()
	item := newItem("published")
	_ = catalog.Put(ctx, item)

	expiry := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	var got *workflow.TransitionEvent

	engine := workflow.NewEngine(nil, catalog)
	engine.Subscribe(workflow.SubscriberFunc(func(ctx context.Context, event *workflow.TransitionEvent) error {
		got = event
		event.Item.SetExpirationDate(expiry)
		return nil
	}))

	if err := engine.DoActionFor(ctx, item, "retract"); err != nil {
		t.Fatalf("DoActionFor() failed: %v", err)
	}

	if got == nil {
		t.Fatal("subscriber was not called")
	}
	if got.Transition.ID != "retract" || got.FromState != "published" || got.ToState != "private" {
		t.Errorf("event = %+v", got)
	}

	stored, _ := catalog.Get(ctx, item.ID)
	if stored.ExpirationDate == nil || !stored.ExpirationDate.Equal(expiry) {
		t.Errorf("stored ExpirationDate = %v, want %v", stored.ExpirationDate, expiry)
	}
}

func TestEngine_SubscriberErrorAborts(t *testing.T) {
	ctx := context.Background()
	catalog := storage.NewMemoryStorage()
	item := newItem("private")
	_ = catalog.Put(ctx, item)

	boom := errors.New("boom")
	engine := workflow.NewEngine(nil, catalog)
	engine.Subscribe(workflow.SubscriberFunc(func(ctx context.Context, event *workflow.TransitionEvent) error {
		return boom
	}))

	err := engine.DoActionFor(ctx, item, "publish")
	if !errors.Is(err, boom) {
		t.Fatalf("DoActionFor() error = %v, want %v", err, boom)
	}
	if item.ReviewState != "private" {
		t.Errorf("item changed despite subscriber failure: %s", item.ReviewState)
	}
	stored, _ := catalog.Get(ctx, item.ID)
	if stored.ReviewState != "private" {
		t.Errorf("stored item changed despite subscriber failure: %s", stored.ReviewState)
	}
}

func TestDefinition(t *testing.T) {
	d := workflow.DefaultDefinition()
	if err := d.Validate(); err != nil {
		t.Fatalf("DefaultDefinition().Validate() = %v", err)
	}

	states := d.States()
	if len(states) != 3 || states[0] != "private" {
		t.Errorf("States() = %v", states)
	}

	var ids []string
	for _, tr := range d.Available("published") {
		ids = append(ids, tr.ID)
	}
	if len(ids) != 2 || ids[0] != "retract" || ids[1] != "hide" {
		t.Errorf("Available(published) = %v", ids)
	}

	invalid := []*workflow.Definition{
		{},
		{InitialState: "a"},
		{InitialState: "a", Transitions: []workflow.Transition{{ID: "x", To: "b"}}},
		{InitialState: "a", Transitions: []workflow.Transition{{ID: "x", From: []string{"a"}}}},
		{InitialState: "a", Transitions: []workflow.Transition{
			{ID: "x", From: []string{"a"}, To: "b"},
			{ID: "x", From: []string{"b"}, To: "a"},
		}},
	}
	for i, def := range invalid {
		if err := def.Validate(); err == nil {
			t.Errorf("invalid definition %d passed validation", i)
		}
	}
}
