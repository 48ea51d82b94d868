package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/cuemby/restoreorc/pkg/fsutil"
	"github.com/cuemby/restoreorc/pkg/report"
	"github.com/cuemby/restoreorc/pkg/sqlgateway"
)

// InstanceState is the target instance's liveness as probed in Phase A
// step 4 (spec §4.6).
type InstanceState string

const (
	StateDown   InstanceState = "DOWN"
	StateUp     InstanceState = "UP"
	StateZombie InstanceState = "ZOMBIE" // PMON present but v$instance unresponsive
)

var pmonArgRE = regexp.MustCompile(`(?i)^ora_pmon_([A-Za-z0-9_]+)$`)

// FindPMON scans /proc for a PMON background process belonging to
// sid, matching case-insensitively per spec §4.6 step 4.
func FindPMON(sid string) (pid int, found bool, err error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return 0, false, fmt.Errorf("failed to read /proc: %w", err)
	}
	for _, e := range entries {
		p, convErr := strconv.Atoi(e.Name())
		if convErr != nil {
			continue
		}
		data, readErr := os.ReadFile(filepath.Join("/proc", e.Name(), "cmdline"))
		if readErr != nil {
			continue
		}
		for _, arg := range strings.Split(string(data), "\x00") {
			m := pmonArgRE.FindStringSubmatch(arg)
			if m != nil && strings.EqualFold(m[1], sid) {
				return p, true, nil
			}
		}
	}
	return 0, false, nil
}

// ProbeInstanceState combines the PMON scan with a SQL probe to
// classify the target SID as DOWN, UP, or ZOMBIE.
func ProbeInstanceState(sql *sqlgateway.Gateway, sid string) (InstanceState, error) {
	_, found, err := FindPMON(sid)
	if err != nil {
		return "", err
	}
	if !found {
		return StateDown, nil
	}
	if sql.SysdbaPing(sid) == sqlgateway.PingUp {
		return StateUp, nil
	}
	return StateZombie, nil
}

// GuardRunningInstance implements Phase A step 4's instance guard: a
// ZOMBIE instance fails immediately; an UP instance requires
// ALLOW_CLEANUP plus an operator confirmation before it is shut down
// with SHUTDOWN ABORT and re-probed.
func GuardRunningInstance(c *Context) error {
	sid := c.Config.TargetSID
	state, err := ProbeInstanceState(c.SQL, sid)
	if err != nil {
		return err
	}

	switch state {
	case StateDown:
		return nil
	case StateZombie:
		return fmt.Errorf("%s is ZOMBIE (PMON present, instance unresponsive); manual intervention required", sid)
	case StateUp:
		if !c.Config.AllowCleanup {
			return fmt.Errorf("%s is UP. Use ALLOW_CLEANUP=1 to permit stop.", sid)
		}
		if c.Report != nil && !c.Report.Confirm(fmt.Sprintf("Stop running instance %s?", sid), "STOP-"+sid) {
			return report.ErrOperatorDenied
		}
		if _, _, err := c.SQL.SysdbaExec("shutdown abort;", sid, 60, true); err != nil {
			return fmt.Errorf("failed to stop %s: %w", sid, err)
		}
		reprobed, err := ProbeInstanceState(c.SQL, sid)
		if err != nil {
			return err
		}
		if reprobed != StateDown {
			return fmt.Errorf("%s did not reach DOWN after SHUTDOWN ABORT (probed %s)", sid, reprobed)
		}
		return nil
	default:
		return fmt.Errorf("unrecognized instance state %q", state)
	}
}

// EnsureDestinationDirs creates DataDir, FraDir, AdminDir, ControlDir
// (skipping any that are ASM disk groups).
func EnsureDestinationDirs(c *Context) error {
	for _, dir := range []string{c.AdminDir, c.DataDir, c.FraDir, c.ControlDir} {
		if err := fsutil.EnsureDir(dir); err != nil {
			return err
		}
	}
	return nil
}

// GuardPreexistingFiles implements Phase A step 4's controlfile check:
// if CONTROL_DIR already holds control*.ctl files, ALLOW_CLEANUP and a
// WIPE-<sid> confirmation are required before they (and .dbf/.log
// siblings) are removed.
func GuardPreexistingFiles(c *Context) error {
	if fsutil.IsASMPath(c.ControlDir) {
		return nil
	}
	matches, err := filepath.Glob(filepath.Join(c.ControlDir, "control*.ctl"))
	if err != nil {
		return fmt.Errorf("failed to glob %s: %w", c.ControlDir, err)
	}
	if len(matches) == 0 {
		return nil
	}

	sid := c.Config.TargetSID
	if !c.Config.AllowCleanup {
		return fmt.Errorf("pre-existing controlfiles found under %s. Use ALLOW_CLEANUP=1 to permit removal.", c.ControlDir)
	}
	if c.Report != nil && !c.Report.Confirm(fmt.Sprintf("Remove pre-existing controlfiles, datafiles, and logs under %s?", c.ControlDir), "WIPE-"+sid) {
		return report.ErrOperatorDenied
	}

	for _, pattern := range []string{"control*.ctl", "*.dbf", "*.log"} {
		found, err := filepath.Glob(filepath.Join(c.ControlDir, pattern))
		if err != nil {
			return fmt.Errorf("failed to glob %s: %w", pattern, err)
		}
		for _, f := range found {
			if err := os.Remove(f); err != nil {
				return fmt.Errorf("failed to remove %s: %w", f, err)
			}
		}
	}
	return nil
}
