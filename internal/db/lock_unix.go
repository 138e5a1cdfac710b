//go:build unix

package db

import (
	"golang.org/x/sys/unix"
)

// tryLock takes an exclusive flock on the lock file without waiting.
func (l *Lock) tryLock() error {
	return unix.Flock(int(l.lockFile.Fd()), unix.LOCK_EX|unix.LOCK_NB)
}

func (l *Lock) unlock() {
	if l.lockFile != nil {
		unix.Flock(int(l.lockFile.Fd()), unix.LOCK_UN)
	}
}

// isProcessAlive reports whether a daemon recorded in the lock file is
// still running. Signal 0 checks without delivering anything.
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
