package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// LockPath returns the lock file guarding writers of dir.
func LockPath(dir string) string {
	return filepath.Clean(dir) + ".lock"
}

// Lock obtains the writer lock for dir, polling until timeout elapses.
// The returned func releases it.
func Lock(dir string, timeout time.Duration) (func(), error) {
	lockPath := LockPath(dir)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return func() {}, fmt.Errorf("cannot create lock dir: %w", err)
	}
	l := flock.New(lockPath)
	deadline := time.Now().Add(timeout)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return func() {}, fmt.Errorf("cannot acquire snapshot lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		if time.Now().After(deadline) {
			return func() {}, fmt.Errorf("another writer holds the snapshot (lock: %s)", lockPath)
		}
		time.Sleep(100 * time.Millisecond)
	}
}
