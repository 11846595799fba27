package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"json", FormatJSON, false},
		{"text", FormatText, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTableFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	data := Table{
		Headers:      []string{"Path", "State", "Found"},
		Rows:         [][]string{{"/site/news", "published", "3"}, {"/site/short"}},
		RightAligned: []int{2},
	}

	if err := NewFormatter(FormatTable).FormatTo(buf, data); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"PATH", "STATE", "FOUND", "/site/news", "published", "/site/short", "╭"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestTableFormatter_NonTabular(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&TableFormatter{}).FormatTo(buf, "plain"); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	if buf.String() != "plain\n" {
		t.Errorf("FormatTo() = %q, want %q", buf.String(), "plain\n")
	}
}

func TestRenderTable_NoHeaders(t *testing.T) {
	if got := RenderTable(nil, [][]string{{"x"}}); got != "" {
		t.Errorf("RenderTable() = %q, want empty", got)
	}
}

func TestJSONFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	data := map[string]int{"found": 2, "affected": 1}

	if err := NewFormatter(FormatJSON).FormatTo(buf, data); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("expected indented JSON")
	}

	var decoded map[string]int
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["found"] != 2 {
		t.Errorf("found = %d, want 2", decoded["found"])
	}
}

func TestTextFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewFormatter(FormatText).FormatTo(buf, "test message"); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}
	if buf.String() != "test message\n" {
		t.Errorf("FormatTo() = %q", buf.String())
	}
}

func TestColorMarkers(t *testing.T) {
	ConfigureColor(&bytes.Buffer{})
	if !color.NoColor {
		t.Error("color should be disabled for non-terminal writers")
	}
	if IsTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}

	tests := map[string]string{
		Success("done"): "✓ done",
		Warn("careful"): "⚠ careful",
		Fail("broken"):  "✗ broken",
		Hint("run it"):  "→ run it",
		Muted("quiet"):  "quiet",
	}
	for got, want := range tests {
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	}
}
