package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

var (
	emailPattern    = regexp.MustCompile(`([a-zA-Z0-9._%+-])[a-zA-Z0-9._%+-]*@([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)
	bearerPattern   = regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`)
	passwordPattern = regexp.MustCompile(`(?i)(password|passwd|pwd)([:=]\s*)[^\s]+`)
)

// sensitiveKeys are attribute key fragments whose values are masked entirely.
var sensitiveKeys = []string{
	"password", "passwd", "pwd",
	"secret", "token",
	"auth", "authorization",
}

// Redactor masks emails and credentials in log attributes.
// A nil *Redactor leaves attributes unchanged.
type Redactor struct{}

// NewRedactor creates a Redactor.
func NewRedactor() *Redactor {
	return &Redactor{}
}

// RedactString masks emails, bearer tokens and inline passwords in value.
func (r *Redactor) RedactString(value string) string {
	if r == nil || value == "" {
		return value
	}

	redacted := emailPattern.ReplaceAllString(value, "$1***@$2")
	redacted = bearerPattern.ReplaceAllString(redacted, "Bearer ***")
	redacted = passwordPattern.ReplaceAllString(redacted, "$1$2***")
	return redacted
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if r == nil {
		return a
	}

	if isSensitiveKey(a.Key) {
		if a.Value.Kind() == slog.KindString && a.Value.String() == "" {
			return a
		}
		return slog.String(a.Key, "***")
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	case slog.KindAny:
		switch v := a.Value.Any().(type) {
		case []string:
			out := make([]string, len(v))
			for i, s := range v {
				out[i] = r.RedactString(s)
			}
			return slog.Any(a.Key, out)
		case error:
			return slog.String(a.Key, r.RedactString(v.Error()))
		}
	}

	return a
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// RedactEmail redacts an email address partially (shows first char and domain).
func RedactEmail(email string) string {
	user, domain, ok := strings.Cut(email, "@")
	if !ok {
		return email
	}
	if user == "" {
		return "***@" + domain
	}
	return user[:1] + "***@" + domain
}
