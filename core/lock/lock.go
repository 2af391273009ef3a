// Package lock provides the exclusive advisory lock that keeps two runs from
// touching the same state directory at once.
package lock

import (
	"fmt"
	"path/filepath"

	"decomp-history/core/apperr"

	"github.com/gofrs/flock"
)

// FileName is the lock file created at the state directory root.
const FileName = ".decomp-history.lock"

// Lock is a held flock on a file.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes an exclusive lock on <dir>/.decomp-history.lock without
// blocking. A lock held by another process yields *apperr.ConcurrentRunError.
func Acquire(dir string) (*Lock, error) {
	path := filepath.Join(dir, FileName)
	fl := flock.New(path)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, &apperr.ConcurrentRunError{LockPath: path}
	}
	return &Lock{fl: fl}, nil
}

// Release drops the lock. The file is left in place so that a concurrent
// Acquire never races on its removal.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	err := l.fl.Unlock()
	l.fl = nil
	return err
}
