package queue

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	lockFileName = "queue.db.lock"
	lockWait     = 500 * time.Millisecond
	lockPoll     = 10 * time.Millisecond
)

// writeLocker serializes queue writes across processes with an OS file
// lock next to the database. The OS drops the lock when the holding
// process exits, so a crash never wedges the queue.
type writeLocker struct {
	path string
	file *os.File
}

func newWriteLocker(dir string) *writeLocker {
	return &writeLocker{path: filepath.Join(dir, lockFileName)}
}

// acquire polls for the exclusive lock until the wait budget runs out.
// The timeout error names the current holder.
func (l *writeLocker) acquire(wait time.Duration) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	l.file = f

	deadline := time.Now().Add(wait)
	for {
		if err := l.tryLock(); err == nil {
			l.stamp()
			return nil
		}
		if time.Now().After(deadline) {
			break
		}
		time.Sleep(lockPoll)
	}

	holder := l.holderInfo()
	l.file.Close()
	l.file = nil
	return fmt.Errorf("queue is write-locked by %s (waited %v)", holder, wait)
}

func (l *writeLocker) release() error {
	if l.file == nil {
		return nil
	}
	l.file.Truncate(0)
	l.unlock()
	l.file.Close()
	l.file = nil
	return nil
}

// stamp records who holds the lock, for the timeout message of whoever
// is stuck behind it.
func (l *writeLocker) stamp() {
	if l.file == nil {
		return
	}
	l.file.Truncate(0)
	l.file.Seek(0, 0)
	fmt.Fprintf(l.file, "pid=%d acquired=%s\n", os.Getpid(), time.Now().Format(time.RFC3339))
	l.file.Sync()
}

// holderInfo parses the stamp left by the current holder and flags it
// stale when that process is gone.
func (l *writeLocker) holderInfo() string {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return "unknown process"
	}

	var pid int
	var acquired string
	for _, field := range strings.Fields(string(data)) {
		if v, ok := strings.CutPrefix(field, "pid="); ok {
			pid, _ = strconv.Atoi(v)
		}
		if v, ok := strings.CutPrefix(field, "acquired="); ok {
			acquired = v
		}
	}
	if pid == 0 {
		return "unknown process"
	}
	if !isProcessAlive(pid) {
		return fmt.Sprintf("pid %d since %s (stale, process gone)", pid, acquired)
	}
	return fmt.Sprintf("pid %d since %s", pid, acquired)
}
