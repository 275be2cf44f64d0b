// Package lock serialises load-mutate-save cycles across habitlit processes
// with a PID lock file next to the store.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/logger"
)

// ErrLocked is returned when a live process holds the lock
var ErrLocked = errors.New("another habitlit process is modifying the store")

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
)

// FileLock is an advisory lock backed by a file holding the owner's PID
type FileLock struct {
	path    string
	retries int
	delay   time.Duration
	held    bool
}

// New returns a lock living in dir
func New(dir string) *FileLock {
	return &FileLock{
		path:    filepath.Join(dir, constants.LockFileName),
		retries: constants.LockRetries,
		delay:   constants.LockRetryDelay,
	}
}

// Path returns the lock file location
func (l *FileLock) Path() string {
	return l.path
}

// Acquire takes the lock, reclaiming it when the recorded owner is no longer
// running. It retries a few times before giving up with ErrLocked.
func (l *FileLock) Acquire() error {
	if l.held {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	for attempt := 0; ; attempt++ {
		err := l.tryCreate()
		if err == nil {
			l.held = true
			return nil
		}
		if !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("failed to create lock file: %w", err)
		}

		stale, owner := l.isStale()
		if stale {
			logger.Warn("Removing stale lock", "path", l.path, "pid", owner)
			if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove stale lock: %w", err)
			}
			continue
		}

		if attempt >= l.retries {
			return fmt.Errorf("%w (pid %d, lock file %s)", ErrLocked, owner, l.path)
		}
		time.Sleep(l.delay)
	}
}

func (l *FileLock) tryCreate() error {
	f, err := os.OpenFile(l.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return err
	}
	_, werr := f.WriteString(strconv.Itoa(getpidFunc()))
	cerr := f.Close()
	if werr != nil {
		_ = os.Remove(l.path)
		return werr
	}
	if cerr != nil {
		_ = os.Remove(l.path)
		return cerr
	}
	return nil
}

// isStale reports whether the current lock file can be reclaimed, along with
// the PID it names (0 when unreadable).
func (l *FileLock) isStale() (bool, int) {
	content, err := os.ReadFile(l.path)
	if err != nil {
		// Removed between our create attempt and the read
		return os.IsNotExist(err), 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil || pid <= 0 {
		return true, 0
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return true, pid
	}
	return false, pid
}

// Release drops the lock if this FileLock holds it
func (l *FileLock) Release() error {
	if !l.held {
		return nil
	}
	l.held = false
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}
