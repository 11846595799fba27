package mail

import "fmt"

// SendError reports a failed delivery.
type SendError struct {
	// Host is the SMTP server.
	Host string

	// Stage is the step that failed (validate, config, dial, mail, rcpt, data, send).
	Stage string

	// Cause is the underlying error.
	Cause error
}

// NewSendError creates a SendError.
func NewSendError(host, stage string, cause error) *SendError {
	return &SendError{Host: host, Stage: stage, Cause: cause}
}

func (e *SendError) Error() string {
	return fmt.Sprintf("mail delivery failed [host=%s, stage=%s]: %v", e.Host, e.Stage, e.Cause)
}

func (e *SendError) Unwrap() error {
	return e.Cause
}
