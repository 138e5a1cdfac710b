package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	lockFileName   = "autodoist.lock"
	initialBackoff = 5 * time.Millisecond
	maxBackoff     = 50 * time.Millisecond
)

// ErrLocked is returned when another daemon holds the state directory
var ErrLocked = errors.New("state directory is locked by another process")

// Lock gives one daemon exclusive use of a state directory using OS file
// locks. The lock is released when the process exits, including crashes.
type Lock struct {
	lockPath string
	lockFile *os.File
}

// NewLock creates a lock for the given state directory
func NewLock(dir string) *Lock {
	return &Lock{lockPath: filepath.Join(dir, lockFileName)}
}

// Acquire attempts to get the lock within timeout. The error carries the
// current holder for diagnostics.
func (l *Lock) Acquire(timeout time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(l.lockPath), 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	f, err := os.OpenFile(l.lockPath, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	l.lockFile = f

	deadline := time.Now().Add(timeout)
	backoff := initialBackoff

	for {
		// Non-blocking exclusive lock (platform-specific)
		if err := l.tryLock(); err == nil {
			l.writeHolder()
			return nil
		}

		if time.Now().After(deadline) {
			holder := l.readHolder()
			l.lockFile.Close()
			l.lockFile = nil
			return fmt.Errorf("%w\n  holder: %s\n  stop the other daemon or use a different state dir", ErrLocked, holder)
		}

		// Exponential backoff with cap
		time.Sleep(backoff)
		if backoff < maxBackoff {
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		}
	}
}

// Release releases the lock
func (l *Lock) Release() error {
	if l.lockFile == nil {
		return nil
	}

	l.lockFile.Truncate(0)
	l.unlock()

	err := l.lockFile.Close()
	l.lockFile = nil
	return err
}

// writeHolder writes current process info to the lock file for debugging.
func (l *Lock) writeHolder() {
	if l.lockFile == nil {
		return
	}
	l.lockFile.Truncate(0)
	l.lockFile.Seek(0, 0)
	fmt.Fprintf(l.lockFile, "pid:%d\ntime:%s\n", os.Getpid(), time.Now().Format(time.RFC3339))
	l.lockFile.Sync()
}

// readHolder reads the current holder info from the lock file.
func (l *Lock) readHolder() string {
	data, err := os.ReadFile(l.lockPath)
	if err != nil {
		return "unknown"
	}

	var pid, timestamp string
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if strings.HasPrefix(line, "pid:") {
			pid = strings.TrimPrefix(line, "pid:")
		} else if strings.HasPrefix(line, "time:") {
			timestamp = strings.TrimPrefix(line, "time:")
		}
	}

	if pid == "" {
		return "unknown"
	}

	pidInt, err := strconv.Atoi(pid)
	if err == nil && !isProcessAlive(pidInt) {
		return fmt.Sprintf("pid:%s since %s (STALE - process dead)", pid, timestamp)
	}

	return fmt.Sprintf("pid:%s since %s", pid, timestamp)
}

// tryLock, unlock and isProcessAlive live in lock_unix.go and lock_windows.go
