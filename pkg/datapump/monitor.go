package datapump

import (
	"errors"
	"os/exec"
	"syscall"
	"time"

	"github.com/cuemby/restoreorc/pkg/log"
)

// TimeoutAction selects what MonitorJob does once a job's wall-clock
// budget is exceeded (spec §4.5 "Per-job monitoring").
type TimeoutAction string

const (
	ActionKill TimeoutAction = "kill" // default: status, kill request, SIGTERM/SIGKILL
	ActionLog  TimeoutAction = "log"  // query status only, job keeps running
	ActionBoth TimeoutAction = "both" // status and the full kill sequence, same as kill
)

const (
	defaultCheckInterval = 60 * time.Second
	progressLogInterval  = 300 * time.Second
	killGracePeriod      = 5 * time.Second
)

var componentLog = log.WithComponent("datapump")

// JobControl lets MonitorJob issue Data Pump interactive-mode commands
// against the running job (STATUS/KILL_JOB) without needing to know
// how the caller talks to impdp's attach interface.
type JobControl interface {
	Status() error
	KillJob() error
}

// MonitorJob polls cmd (already started by the caller) every
// checkInterval, logs a progress line every 5 minutes, and on
// exceeding timeoutMinutes applies action. It returns the process's
// final exit code, or 124 if the job was killed for exceeding its
// budget.
func MonitorJob(cmd *exec.Cmd, ctrl JobControl, checkInterval time.Duration, timeoutMinutes int, action TimeoutAction) int {
	if checkInterval <= 0 {
		checkInterval = defaultCheckInterval
	}
	if action == "" {
		action = ActionKill
	}
	timeout := time.Duration(timeoutMinutes) * time.Minute

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	start := time.Now()
	lastProgress := start
	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			return exitCodeFromWait(err)
		case <-ticker.C:
			elapsed := time.Since(start)
			if time.Since(lastProgress) >= progressLogInterval {
				componentLog.Info().Dur("elapsed", elapsed).Msg("datapump job still running")
				lastProgress = time.Now()
			}
			if elapsed < timeout {
				continue
			}
			return handleTimeout(cmd, ctrl, action, done)
		}
	}
}

func handleTimeout(cmd *exec.Cmd, ctrl JobControl, action TimeoutAction, done chan error) int {
	if ctrl != nil {
		_ = ctrl.Status()
	}

	if action == ActionLog {
		return 124
	}

	if ctrl != nil {
		_ = ctrl.KillJob()
	}

	_ = cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-done:
	case <-time.After(killGracePeriod):
		_ = cmd.Process.Kill()
		<-done
	}
	return 124
}

func exitCodeFromWait(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
