//go:build unix

package db

import (
	"fmt"
	"os"
	"syscall"
	"time"
)

// acquireFileLockTimeout tries to acquire an exclusive flock with exponential
// backoff up to the given timeout.
func acquireFileLockTimeout(f *os.File, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	backoff := 5 * time.Millisecond
	maxBackoff := 50 * time.Millisecond

	for {
		err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout after %v waiting for write lock", timeout)
		}
		time.Sleep(backoff)
		if backoff < maxBackoff {
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
}

// releaseFileLock releases the exclusive flock.
func releaseFileLock(f *os.File) {
	if f != nil {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}
}
