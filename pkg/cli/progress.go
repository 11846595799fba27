package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter reports progress for long-running operations.
type ProgressReporter interface {
	Start(total int64)
	Update(current int64)
	Finish()
	Error(err error)
}

// SimpleProgress draws a bar on a terminal. On other writers it stays quiet
// until Finish, which prints one summary line.
type SimpleProgress struct {
	mu      sync.Mutex
	label   string
	total   int64
	current int64
	started time.Time
	writer  io.Writer
	live    bool
}

// NewProgressReporter creates a reporter that writes to w, prefixing each
// line with label. If w is nil, it defaults to os.Stderr.
func NewProgressReporter(w io.Writer, label string) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	if label == "" {
		label = "Progress"
	}
	return &SimpleProgress{
		writer: w,
		label:  label,
		live:   IsTerminal(w),
	}
}

// Start resets the reporter for a batch of total items.
func (p *SimpleProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.current = 0
	p.started = time.Now()
	p.draw()
}

// Update records that current items are done.
func (p *SimpleProgress) Update(current int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = current
	p.draw()
}

// Finish marks the batch complete.
func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.total == 0 {
		return
	}
	p.current = p.total
	if p.live {
		p.draw()
		fmt.Fprintln(p.writer)
		return
	}
	fmt.Fprintf(p.writer, "%s: %d/%d done in %s\n", p.label, p.current, p.total, p.elapsed())
}

// Error reports a failure that ended the batch.
func (p *SimpleProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.live {
		fmt.Fprintln(p.writer)
	}
	fmt.Fprintf(p.writer, "%s\n", Fail(fmt.Sprintf("%s stopped at %d/%d: %v", p.label, p.current, p.total, err)))
}

func (p *SimpleProgress) draw() {
	if !p.live || p.total == 0 {
		return
	}
	const width = 30
	filled := int(width * p.current / p.total)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	fmt.Fprintf(p.writer, "\r%s: [%s] %3d%% (%d/%d) %s",
		p.label, bar, 100*p.current/p.total, p.current, p.total, p.elapsed())
}

func (p *SimpleProgress) elapsed() time.Duration {
	return time.Since(p.started).Round(time.Millisecond)
}
