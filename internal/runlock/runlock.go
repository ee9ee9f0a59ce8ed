// Package runlock provides the single-run guard. Two concurrent runs
// racing on the ledger file could double-send an alert, so the whole job
// body executes under an exclusive lock file.
package runlock

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrHeld is returned when another run currently holds the lock.
var ErrHeld = errors.New("another run holds the lock")

// Lock is an exclusively created lock file.
type Lock struct {
	path string
}

// Acquire creates the lock file, failing with ErrHeld if it already
// exists. The file records the owner pid so an operator can identify a
// stale lock left by a killed run.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("%w: %s", ErrHeld, path)
	}
	if err != nil {
		return nil, fmt.Errorf("create lock file: %w", err)
	}

	fmt.Fprintf(f, "%d\n", os.Getpid())
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write lock file: %w", err)
	}
	return &Lock{path: path}, nil
}

// Release removes the lock file.
func (l *Lock) Release() error {
	return os.Remove(l.path)
}
