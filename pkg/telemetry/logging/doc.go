// Package logging configures structured logging with credential redaction.
//
// # Overview
//
// The package builds a log/slog logger from the telemetry.logging section:
//   - JSON, text and console output, or "auto" which picks console on a
//     terminal and JSON otherwise
//   - Redaction of email addresses, passwords and bearer tokens
//   - Run and request IDs taken from the context on every *Context call
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "auto",
//	    Redact: true,
//	})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	ctx = logging.WithRunID(ctx, run.ID)
//	slog.InfoContext(ctx, "scan started")  // includes run_id
//
// # Redaction
//
// Audit mail recipients and SMTP credentials pass through the logs. With
// redaction enabled:
//
//   - Emails: webmaster@example.org → w***@example.org
//   - Keys naming a secret (password, token, secret, auth): value → ***
//   - Bearer tokens: Bearer abc.def → Bearer ***
package logging
