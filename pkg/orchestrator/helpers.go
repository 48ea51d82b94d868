package orchestrator

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cuemby/restoreorc/pkg/fsutil"
)

// stepExitError carries a failed step's child exit code so the CLI
// entry point can propagate it verbatim (spec §6.1 exit codes).
type stepExitError struct {
	what string
	code int
}

func (e *stepExitError) Error() string { return fmt.Sprintf("%s exited %d", e.what, e.code) }
func (e *stepExitError) ExitCode() int { return e.code }

func errExitCode(what string, code int) error {
	return &stepExitError{what: what, code: code}
}

func formatEpoch(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// countArchiveLogsUnderFRA counts *.arc files under c.FraDir, used to
// persist CATALOG_ARCHIVELOG_COUNT (spec §4.6 step 13) for the later
// divergence probe.
func countArchiveLogsUnderFRA(c *Context) (int, error) {
	if fsutil.IsASMPath(c.FraDir) {
		return 0, nil
	}
	matches, err := filepath.Glob(filepath.Join(c.FraDir, "*.arc"))
	if err != nil {
		return 0, fmt.Errorf("failed to glob %s: %w", c.FraDir, err)
	}
	return len(matches), nil
}
