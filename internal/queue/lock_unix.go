//go:build unix

package queue

import (
	"os"
	"syscall"
)

// tryLock takes a non-blocking exclusive flock on the lock file.
func (l *writeLocker) tryLock() error {
	return syscall.Flock(int(l.file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
}

func (l *writeLocker) unlock() {
	if l.file != nil {
		syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	}
}

// isProcessAlive probes pid with signal 0. FindProcess cannot fail on
// unix, so the signal result is the whole answer.
func isProcessAlive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}
