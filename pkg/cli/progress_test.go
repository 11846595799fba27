package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestSimpleProgress_NonTerminal(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "Importing")

	progress.Start(10)
	progress.Update(5)
	if buf.Len() != 0 {
		t.Fatalf("expected no output before Finish on a non-terminal, got %q", buf.String())
	}
	progress.Finish()

	output := buf.String()
	if !strings.HasPrefix(output, "Importing: 10/10 done in ") {
		t.Errorf("unexpected summary line %q", output)
	}
	if strings.Contains(output, "\r") {
		t.Error("summary should not redraw")
	}
}

func TestSimpleProgress_Live(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := &SimpleProgress{writer: buf, label: "Importing", live: true}

	progress.Start(4)
	progress.Update(1)
	progress.Finish()

	output := buf.String()
	for _, want := range []string{"\rImporting: [", " 25% (1/4)", "100% (4/4)"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q: %q", want, output)
		}
	}
	if !strings.HasSuffix(output, "\n") {
		t.Error("Finish should end the bar line")
	}
}

func TestSimpleProgress_DefaultLabel(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "")

	progress.Start(1)
	progress.Finish()
	if !strings.HasPrefix(buf.String(), "Progress:") {
		t.Errorf("expected default label, got %q", buf.String())
	}
}

func TestSimpleProgress_ZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "Importing")

	progress.Start(0)
	progress.Update(0)
	progress.Finish()

	if buf.Len() != 0 {
		t.Errorf("nothing should render for an empty batch, got %q", buf.String())
	}
}

func TestSimpleProgress_Error(t *testing.T) {
	buf := &bytes.Buffer{}
	progress := NewProgressReporter(buf, "Importing")

	progress.Start(3)
	progress.Update(1)
	progress.Error(errors.New("disk full"))

	if !strings.Contains(buf.String(), "Importing stopped at 1/3: disk full") {
		t.Errorf("unexpected error output %q", buf.String())
	}
}
