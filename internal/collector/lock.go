package collector

import (
	"errors"
	"fmt"
	"os"
)

// ErrAlreadyRunning is the controlled early exit when another invocation
// holds the marker file.
var ErrAlreadyRunning = errors.New("collection already running")

// fileLock is the coarse cross-process guard: a zero-byte marker whose
// existence alone is the signal. It is advisory and not crash-safe; a stale
// marker from a crashed run must be cleared manually.
type fileLock struct {
	path string
}

// Acquire creates the marker exclusively. An existing marker means another
// run is in flight and the marker is left untouched.
func (l *fileLock) Acquire() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		if os.IsExist(err) {
			return ErrAlreadyRunning
		}
		return fmt.Errorf("create lock marker %s: %w", l.path, err)
	}
	return f.Close()
}

// Release removes the marker. Safe to call when it is already gone.
func (l *fileLock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock marker %s: %w", l.path, err)
	}
	return nil
}
