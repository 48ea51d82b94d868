package datapump

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cuemby/restoreorc/pkg/fsutil"
	"github.com/fsnotify/fsnotify"
)

// ReadyStatus is the outcome recorded in a job's .READY file.
type ReadyStatus string

const (
	ReadySuccess ReadyStatus = "SUCCESS"
	ReadyFailed  ReadyStatus = "FAILED"
)

const defaultWaitInterval = 5 * time.Second

func readyPath(dir, job string) string {
	return filepath.Join(dir, job+".READY")
}

// MarkReady is called by the exporter after a job completes: it writes
// <dir>/<job>.READY with the job's timestamp, exit code, and derived
// status (spec §4.5 "Ready-file protocol").
func MarkReady(dir, job string, exitCode int) error {
	status := ReadySuccess
	if exitCode != 0 {
		status = ReadyFailed
	}
	content := fmt.Sprintf("timestamp=%d\nexit_code=%d\nstatus=%s\n", time.Now().Unix(), exitCode, status)
	return fsutil.AtomicWriteFile(readyPath(dir, job), []byte(content), 0o644)
}

// IsReady is the non-blocking check for whether a job's ready file has
// appeared, returning its parsed status.
func IsReady(dir, job string) (bool, ReadyStatus, error) {
	data, err := os.ReadFile(readyPath(dir, job))
	if os.IsNotExist(err) {
		return false, "", nil
	}
	if err != nil {
		return false, "", fmt.Errorf("failed to read ready file for %s: %w", job, err)
	}
	return true, parseStatus(string(data)), nil
}

// WaitReady blocks until the importer's counterpart ready file
// appears, then returns its status. A directory watch wakes it as soon
// as the file is created; interval (defaulting to 5s) remains the
// mandatory fallback poll so a watch that fails to start (or misses an
// event, e.g. on some network filesystems) never turns into a hang.
func WaitReady(dir, job string, interval time.Duration) (ReadyStatus, error) {
	if interval <= 0 {
		interval = defaultWaitInterval
	}

	wake := make(chan struct{}, 1)
	if watcher, err := fsnotify.NewWatcher(); err == nil {
		defer watcher.Close()
		if err := watcher.Add(dir); err == nil {
			target := readyPath(dir, job)
			go func() {
				for {
					select {
					case ev, ok := <-watcher.Events:
						if !ok {
							return
						}
						if ev.Name == target && (ev.Op&(fsnotify.Create|fsnotify.Write) != 0) {
							select {
							case wake <- struct{}{}:
							default:
							}
						}
					case _, ok := <-watcher.Errors:
						if !ok {
							return
						}
					}
				}
			}()
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		ready, status, err := IsReady(dir, job)
		if err != nil {
			return "", err
		}
		if ready {
			return status, nil
		}
		select {
		case <-wake:
		case <-ticker.C:
		}
	}
}

func parseStatus(content string) ReadyStatus {
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "status=") {
			return ReadyStatus(strings.TrimPrefix(line, "status="))
		}
	}
	return ""
}
