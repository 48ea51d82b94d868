package rman

import (
	"fmt"
	"os"
	"time"

	"github.com/cuemby/restoreorc/pkg/procexec"
	"github.com/cuemby/restoreorc/pkg/report"
)

// ExecWithState runs one gated RMAN script through the full
// skip-if-done / preview / confirm / execute / scan / persist
// pipeline described in spec §4.4 "Unified execution". force (passed
// as --force for RESTORE and RECOVER) disables the skip-if-done check.
func (e *Engine) ExecWithState(stepName, cmdfile, logfile, desc string, force bool) (int, error) {
	if !force && e.State.IsCompleted(stepName) {
		report.TrackItem(report.ItemSkip, desc, fmt.Sprintf("%s already completed", stepName))
		return 0, nil
	}

	if _, err := os.Stat(cmdfile); err != nil {
		return 1, fmt.Errorf("command file %s does not exist: %w", cmdfile, err)
	}

	r := report.Current()
	start := time.Now()

	run := func() (int, error) {
		return procexec.ExecLoggedToFile(desc, logfile,
			e.rmanPath(), "target", "/", fmt.Sprintf("cmdfile=%s", cmdfile), fmt.Sprintf("log=%s", logfile))
	}

	var code int
	var err error
	if r != nil {
		code, err = r.PreviewExec(cmdfile, run)
	} else {
		code, err = run()
	}
	dur := time.Since(start)

	if err != nil && code == 1 && err == report.ErrOperatorDenied {
		return 1, err
	}

	warned := false
	if f, openErr := os.Open(logfile); openErr == nil {
		result, scanErr := ScanLog(f)
		f.Close()
		if scanErr == nil && result.Warned() {
			warned = true
			for _, w := range result.Warnings {
				report.TrackItem(report.ItemWarn, desc, w)
			}
		}
	}

	if markErr := e.State.MarkStep(stepName, code, logfile, dur); markErr != nil {
		return code, fmt.Errorf("failed to persist state for %s: %w", stepName, markErr)
	}

	if code == 0 && warned {
		report.TrackItem(report.ItemWarn, desc, "completed with warnings, see log for details")
	}
	return code, err
}
