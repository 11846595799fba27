package workflow

import "fmt"

// Transition moves an item from one of the From states to the To state.
type Transition struct {
	ID    string   `yaml:"id" json:"id"`
	Title string   `yaml:"title" json:"title"`
	From  []string `yaml:"from" json:"from"`
	To    string   `yaml:"to" json:"to"`
}

// Definition describes a workflow.
type Definition struct {
	// InitialState is the state new items start in.
	InitialState string `yaml:"initial_state" json:"initial_state"`

	// Transitions lists every transition in the workflow.
	Transitions []Transition `yaml:"transitions" json:"transitions"`
}

// DefaultDefinition returns the simple publication workflow:
// private -> pending -> published, with retract and reject back to private.
func DefaultDefinition() *Definition {
	return &Definition{
		InitialState: "private",
		Transitions: []Transition{
			{ID: "submit", Title: "Submit for publication", From: []string{"private"}, To: "pending"},
			{ID: "publish", Title: "Publish", From: []string{"private", "pending"}, To: "published"},
			{ID: "reject", Title: "Send back", From: []string{"pending"}, To: "private"},
			{ID: "retract", Title: "Retract", From: []string{"pending", "published"}, To: "private"},
			{ID: "hide", Title: "Make private", From: []string{"published"}, To: "private"},
			{ID: "show", Title: "Promote to draft", From: []string{"private"}, To: "pending"},
		},
	}
}

// Transition returns the transition with the given id.
func (d *Definition) Transition(id string) (Transition, bool) {
	for _, t := range d.Transitions {
		if t.ID == id {
			return t, true
		}
	}
	return Transition{}, false
}

// States returns every state named by the definition, initial state first.
func (d *Definition) States() []string {
	seen := map[string]bool{d.InitialState: true}
	states := []string{d.InitialState}
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			states = append(states, s)
		}
	}
	for _, t := range d.Transitions {
		for _, from := range t.From {
			add(from)
		}
		add(t.To)
	}
	return states
}

// Available returns the transitions offered from a state.
func (d *Definition) Available(state string) []Transition {
	var out []Transition
	for _, t := range d.Transitions {
		for _, from := range t.From {
			if from == state {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// Validate checks the definition is usable.
func (d *Definition) Validate() error {
	if d.InitialState == "" {
		return fmt.Errorf("workflow initial state is required")
	}
	if len(d.Transitions) == 0 {
		return fmt.Errorf("workflow defines no transitions")
	}
	ids := make(map[string]bool, len(d.Transitions))
	for i, t := range d.Transitions {
		if t.ID == "" {
			return fmt.Errorf("transition %d: id is required", i)
		}
		if ids[t.ID] {
			return fmt.Errorf("transition %q defined more than once", t.ID)
		}
		ids[t.ID] = true
		if len(t.From) == 0 {
			return fmt.Errorf("transition %q: at least one source state is required", t.ID)
		}
		if t.To == "" {
			return fmt.Errorf("transition %q: target state is required", t.ID)
		}
	}
	return nil
}
