package autopublish

import (
	"errors"
	"fmt"
)

var (
	// ErrRunInProgress is returned when a scan is triggered while another
	// scan holds the run lock.
	ErrRunInProgress = errors.New("autopublishing run already in progress")

	// ErrSettingsUnavailable is returned by a SettingsProvider when no
	// configuration has been loaded.
	ErrSettingsUnavailable = errors.New("autopublishing settings not available")
)

// PhaseError wraps a failure inside one scan phase.
type PhaseError struct {
	Phase      string
	Transition string
	Path       string
	Cause      error
}

func (e *PhaseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s scan failed [transition=%s, path=%s]: %v", e.Phase, e.Transition, e.Path, e.Cause)
	}
	return fmt.Sprintf("%s scan failed [transition=%s]: %v", e.Phase, e.Transition, e.Cause)
}

func (e *PhaseError) Unwrap() error {
	return e.Cause
}
