package logging

import (
	"errors"
	"log/slog"
	"testing"
)

func TestRedactor_RedactString(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "email", input: "sent to webmaster@example.org", want: "sent to w***@example.org"},
		{name: "two emails", input: "a@x.io, bob@y.io", want: "a***@x.io, b***@y.io"},
		{name: "bearer", input: "Authorization: Bearer abc.def-123", want: "Authorization: Bearer ***"},
		{name: "password", input: "password=secret123 host=smtp", want: "password=*** host=smtp"},
		{name: "plain", input: "Transitioning (/news/item) publish", want: "Transitioning (/news/item) publish"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.RedactString(tt.input); got != tt.want {
				t.Errorf("RedactString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRedactor_ReplaceAttr(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{name: "sensitive key", attr: slog.String("mail_password", "hunter2"), want: "***"},
		{name: "sensitive key non string", attr: slog.Int("auth_token", 42), want: "***"},
		{name: "empty sensitive value", attr: slog.String("password", ""), want: ""},
		{name: "email value", attr: slog.String("from", "portal@example.org"), want: "p***@example.org"},
		{name: "error value", attr: slog.Any("error", errors.New("rcpt bob@example.org rejected")), want: "rcpt b***@example.org rejected"},
		{name: "plain", attr: slog.String("path", "/news"), want: "/news"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.ReplaceAttr(nil, tt.attr)
			if got.Value.String() != tt.want {
				t.Errorf("got %q, want %q", got.Value.String(), tt.want)
			}
		})
	}
}

func TestRedactor_Nil(t *testing.T) {
	var r *Redactor
	a := slog.String("password", "hunter2")
	if got := r.ReplaceAttr(nil, a); got.Value.String() != "hunter2" {
		t.Error("nil redactor must not change attributes")
	}
}

func TestRedactEmail(t *testing.T) {
	tests := map[string]string{
		"webmaster@example.org": "w***@example.org",
		"@example.org":          "***@example.org",
		"not-an-email":          "not-an-email",
	}
	for in, want := range tests {
		if got := RedactEmail(in); got != want {
			t.Errorf("RedactEmail(%q) = %q, want %q", in, got, want)
		}
	}
}
