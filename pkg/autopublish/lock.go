package autopublish

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// RunLock allows one scan at a time within the process and, when a path is
// set, across processes sharing the lock file.
type RunLock struct {
	mu   sync.Mutex
	path string
	file *flock.Flock
}

// NewRunLock creates a lock. An empty path gives an in-process lock only.
func NewRunLock(path string) *RunLock {
	l := &RunLock{path: path}
	if path != "" {
		l.file = flock.New(path)
	}
	return l
}

// TryLock acquires the lock without blocking. It returns ErrRunInProgress
// when the lock is held.
func (l *RunLock) TryLock() error {
	if !l.mu.TryLock() {
		return ErrRunInProgress
	}
	if l.file == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("create lock directory: %w", err)
	}

	ok, err := l.file.TryLock()
	if err != nil {
		l.mu.Unlock()
		return fmt.Errorf("acquire run lock %s: %w", l.path, err)
	}
	if !ok {
		l.mu.Unlock()
		return ErrRunInProgress
	}
	return nil
}

// Unlock releases the lock.
func (l *RunLock) Unlock() {
	if l.file != nil {
		_ = l.file.Unlock()
	}
	l.mu.Unlock()
}

// Path returns the lock file path, if any.
func (l *RunLock) Path() string {
	return l.path
}
