package db

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	writeLockFile      = ".crew/write.lock"
	defaultLockTimeout = 500 * time.Millisecond
)

// writeLocker serializes writes across processes via an exclusive lock
// on a sidecar lock file next to the database.
type writeLocker struct {
	path string
	file *os.File
}

func newWriteLocker(baseDir string) *writeLocker {
	return &writeLocker{path: filepath.Join(baseDir, writeLockFile)}
}

// acquire opens the lock file and takes an exclusive lock, retrying with
// backoff until the timeout expires.
func (l *writeLocker) acquire(timeout time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open write lock: %w", err)
	}

	if err := acquireFileLockTimeout(f, timeout); err != nil {
		f.Close()
		return fmt.Errorf("acquire write lock: %w", err)
	}

	l.file = f
	return nil
}

// release drops the lock and closes the file.
func (l *writeLocker) release() {
	if l.file == nil {
		return
	}
	releaseFileLock(l.file)
	l.file.Close()
	l.file = nil
}
