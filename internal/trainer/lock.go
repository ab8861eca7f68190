package trainer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrPrefixLocked is returned when another run is writing the same prefix.
var ErrPrefixLocked = errors.New("model prefix is locked by another run")

// PrefixLock guards a model prefix for the duration of one training run.
type PrefixLock struct {
	lock *flock.Flock
}

// LockPrefix creates the prefix's parent directory and takes an exclusive
// lock on {prefix}.lock. It fails with ErrPrefixLocked rather than waiting.
func LockPrefix(prefix string) (*PrefixLock, error) {
	if dir := filepath.Dir(prefix); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	lockPath := prefix + ".lock"
	fileLock := flock.New(lockPath)

	locked, err := fileLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %q: %w", lockPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrPrefixLocked, lockPath)
	}

	return &PrefixLock{lock: fileLock}, nil
}

// Release unlocks and removes the lock file.
func (l *PrefixLock) Release() error {
	path := l.lock.Path()

	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("unlock %q: %w", path, err)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not remove lock file", "path", path, "error", err)
	}

	return nil
}
