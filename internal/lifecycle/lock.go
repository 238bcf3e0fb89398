package lifecycle

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock is an exclusive run lock. Two concurrent runs against the same
// state directory would interleave phase actions, so the second refuses
// to start.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes the run lock under the given state directory. It
// fails immediately when another run holds the lock.
func AcquireLock(stateDir string) (*Lock, error) {
	if err := os.MkdirAll(stateDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	path := filepath.Join(stateDir, "kubelift.lock")
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("another kubelift run is already in progress (lock %s is held)", path)
	}
	return &Lock{fl: fl}, nil
}

// Release gives the lock back. Safe to call on a nil lock.
func (l *Lock) Release() {
	if l == nil || l.fl == nil {
		return
	}
	_ = l.fl.Unlock()
}
