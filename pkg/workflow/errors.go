package workflow

import (
	"errors"
	"fmt"
)

// ErrTransitionNotAllowed is matched by TransitionError via errors.Is.
var ErrTransitionNotAllowed = errors.New("transition not allowed")

// TransitionError reports a transition the item's current state does not offer.
type TransitionError struct {
	ItemID     string
	Path       string
	State      string
	Transition string
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("the state %q of the workflow associated with the object at %q does not provide the %q action",
		e.State, e.Path, e.Transition)
}

// Is reports whether target is ErrTransitionNotAllowed.
func (e *TransitionError) Is(target error) bool {
	return target == ErrTransitionNotAllowed
}
