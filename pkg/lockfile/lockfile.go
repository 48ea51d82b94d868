package lockfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// ErrHeld is returned by Acquire when the lock is already held by a
// live process.
var ErrHeld = errors.New("lock already held by a running process")

// Lock is a held advisory lock. Release removes the backing file.
type Lock struct {
	path string
}

// Path returns the lock file's path, e.g. for reporting to the operator.
func (l *Lock) Path() string { return l.path }

// Release removes the lock file. It is safe to call more than once.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file %s: %w", l.path, err)
	}
	return nil
}

// Acquire creates path containing the current process id. If path
// already exists and names a live process, Acquire returns ErrHeld. If
// it exists but the recorded pid is dead (a stale lock from a crashed
// run), the file is reaped and the lock is acquired normally.
func Acquire(path string) (*Lock, error) {
	if pid, err := readPID(path); err == nil {
		if processAlive(pid) {
			return nil, fmt.Errorf("%w: pid %d, lock file %s", ErrHeld, pid, path)
		}
		// Stale lock: the owning process is gone.
		_ = os.Remove(path)
	}

	pid := os.Getpid()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			// Lost a race with another acquirer; report it as held.
			if existingPID, rErr := readPID(path); rErr == nil && processAlive(existingPID) {
				return nil, fmt.Errorf("%w: pid %d, lock file %s", ErrHeld, existingPID, path)
			}
		}
		return nil, fmt.Errorf("failed to create lock file %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(strconv.Itoa(pid)); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write lock file %s: %w", path, err)
	}

	return &Lock{path: path}, nil
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("lock file %s does not contain a valid pid: %w", path, err)
	}
	return pid, nil
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix, FindProcess always succeeds; signal 0 probes liveness
	// without actually sending a signal.
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	if errors.Is(err, os.ErrProcessDone) {
		return false
	}
	// EPERM means it exists but we can't signal it -- still alive.
	return errors.Is(err, syscall.EPERM)
}
