package autopublish

import (
	"fmt"
	"strings"
)

// Phases of a run.
const (
	PhasePublish = "publish"
	PhaseRetract = "retract"
)

// MailSubject is the subject of the audit mail.
const MailSubject = "Autopublishing results"

// Report accumulates the audit text of one scan phase.
type Report struct {
	b strings.Builder
}

// Action writes the header for a rule.
func (r *Report) Action(phase string, rule ActionRule) {
	fmt.Fprintf(&r.b, "\n\nRunning autopublishing (%s) for portal_types: %v, initial state: %v, transition: %s \n",
		phase, rule.PortalTypes, rule.InitialStates, rule.Transition)
}

// Transition writes the line for one qualifying item.
func (r *Report) Transition(path, transition string) {
	fmt.Fprintf(&r.b, "Transitioning (%s) %s\n", path, transition)
}

// String returns the accumulated text.
func (r *Report) String() string {
	return r.b.String()
}

// MailBody joins the publish and retract audit texts into the mail body.
func MailBody(publishAudit, retractAudit string) string {
	return "Autopublishing results:\n\n" + publishAudit + "\n\n" + retractAudit
}
