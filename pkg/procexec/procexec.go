package procexec

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/cuemby/restoreorc/pkg/lockfile"
	"github.com/cuemby/restoreorc/pkg/log"
	"github.com/cuemby/restoreorc/pkg/metrics"
	"github.com/cuemby/restoreorc/pkg/report"
	shellquote "github.com/kballard/go-shellquote"
)

// TimeoutExitCode is returned by Timeout (and any executor that
// wraps it) when the child is killed for exceeding its wall-clock
// budget.
const TimeoutExitCode = 124

// componentLog tags every log line this package emits directly
// (outside the per-command report steps) with component=procexec.
var componentLog = log.WithComponent("procexec")

func renderCmdLine(name string, args []string) string {
	parts := append([]string{name}, args...)
	return shellquote.Join(parts...)
}

// ExecLogged spawns name with args, streams combined stdout/stderr to
// the console with a two-space indent, and emits a tracked step
// through pkg/report. It returns the child's exit code; a failure to
// even start the process also returns a non-zero code alongside the
// error.
func ExecLogged(desc, name string, args ...string) (int, error) {
	report.TrackStep(desc)
	start := time.Now()

	code, err := runStreamed(context.Background(), name, args, os.Stdout, "  ")

	dur := time.Since(start)
	metrics.ProcessExecDuration.WithLabelValues(desc).Observe(dur.Seconds())
	if code != 0 {
		metrics.ProcessExecFailuresTotal.WithLabelValues(desc).Inc()
	}
	report.TrackStepDone(code, fmt.Sprintf("%s (%s)", renderCmdLine(name, args), report.FormatDuration(dur)))
	return code, err
}

// ExecLoggedToFile behaves like ExecLogged but redirects the child's
// combined output to logfile instead of the console.
func ExecLoggedToFile(desc, logfile, name string, args ...string) (int, error) {
	report.TrackStep(desc)
	start := time.Now()

	f, err := os.Create(logfile)
	if err != nil {
		report.TrackStepDone(1, fmt.Sprintf("failed to create log file %s: %v", logfile, err))
		return 1, fmt.Errorf("failed to create log file %s: %w", logfile, err)
	}
	defer f.Close()

	code, runErr := runStreamed(context.Background(), name, args, f, "")

	dur := time.Since(start)
	metrics.ProcessExecDuration.WithLabelValues(desc).Observe(dur.Seconds())
	if code != 0 {
		metrics.ProcessExecFailuresTotal.WithLabelValues(desc).Inc()
	}
	report.TrackStepDone(code, fmt.Sprintf("%s (%s) -> %s", renderCmdLine(name, args), report.FormatDuration(dur), logfile))
	return code, runErr
}

// ExecLoggedToFileTimeout behaves like ExecLoggedToFile but enforces a
// wall-clock limit: on expiry the child is killed and the exit code
// is forced to TimeoutExitCode, same contract as Timeout.
func ExecLoggedToFileTimeout(desc, logfile string, d time.Duration, name string, args ...string) (int, error) {
	report.TrackStep(desc)
	start := time.Now()

	f, err := os.Create(logfile)
	if err != nil {
		report.TrackStepDone(1, fmt.Sprintf("failed to create log file %s: %v", logfile, err))
		return 1, fmt.Errorf("failed to create log file %s: %w", logfile, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	code, runErr := runStreamed(ctx, name, args, f, "")
	if ctx.Err() == context.DeadlineExceeded {
		code = TimeoutExitCode
		runErr = fmt.Errorf("command %s timed out after %s", renderCmdLine(name, args), d)
	}

	dur := time.Since(start)
	metrics.ProcessExecDuration.WithLabelValues(desc).Observe(dur.Seconds())
	if code != 0 {
		metrics.ProcessExecFailuresTotal.WithLabelValues(desc).Inc()
	}
	report.TrackStepDone(code, fmt.Sprintf("%s (%s) -> %s", renderCmdLine(name, args), report.FormatDuration(dur), logfile))
	return code, runErr
}

// ExecSilent captures output; on success it is discarded, on failure
// the full captured output is written to stderr so the operator can
// diagnose without re-running.
func ExecSilent(desc, name string, args ...string) (int, error) {
	report.TrackStep(desc)
	start := time.Now()

	var buf bytes.Buffer
	code, err := runStreamed(context.Background(), name, args, &buf, "")

	dur := time.Since(start)
	metrics.ProcessExecDuration.WithLabelValues(desc).Observe(dur.Seconds())
	if code != 0 {
		metrics.ProcessExecFailuresTotal.WithLabelValues(desc).Inc()
		fmt.Fprintln(os.Stderr, buf.String())
	}
	report.TrackStepDone(code, report.FormatDuration(dur))
	return code, err
}

// Retry runs name up to maxAttempts times with exponential backoff
// (the delay doubles after each failed attempt), returning as soon as
// an attempt succeeds. It returns the exit code of the last attempt.
func Retry(maxAttempts int, initialDelay time.Duration, name string, args ...string) (int, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	delay := initialDelay
	var lastCode int
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var buf bytes.Buffer
		code, err := runStreamed(context.Background(), name, args, &buf, "")
		lastCode, lastErr = code, err
		if code == 0 {
			return 0, nil
		}

		componentLog.Warn().
			Str("cmd", renderCmdLine(name, args)).
			Int("attempt", attempt).
			Int("max_attempts", maxAttempts).
			Int("exit_code", code).
			Msg("command failed, retrying")

		if attempt < maxAttempts {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return lastCode, lastErr
}

// Timeout runs name with a wall-clock limit. On expiry it sends
// SIGTERM, waits up to 5 seconds, then SIGKILL. TimeoutExitCode (124)
// specifically means the child was killed for exceeding d.
func Timeout(d time.Duration, name string, args ...string) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return 1, fmt.Errorf("failed to start %s: %w", name, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return exitCodeOf(err)
	case <-ctx.Done():
		_ = cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			_ = cmd.Process.Kill()
			<-done
		}
		return TimeoutExitCode, fmt.Errorf("command %s timed out after %s", renderCmdLine(name, args), d)
	}
}

// Capture runs name and returns its combined stdout+stderr with no
// logging or step tracking at all.
func Capture(name string, args ...string) ([]byte, int, error) {
	var buf bytes.Buffer
	code, err := runStreamed(context.Background(), name, args, &buf, "")
	return buf.Bytes(), code, err
}

// CaptureEnv behaves like Capture but appends extraEnv (in "KEY=VALUE"
// form) to the child's inherited environment, for callers such as
// sqlgateway's SYSDBA mode that must set ORACLE_SID on the child
// without mutating the orchestrator's own environment.
func CaptureEnv(extraEnv []string, name string, args ...string) ([]byte, int, error) {
	cmd := exec.CommandContext(context.Background(), name, args...)
	cmd.Env = append(os.Environ(), extraEnv...)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	runErr := cmd.Run()
	code, err := exitCodeOf(runErr)
	return buf.Bytes(), code, err
}

// CaptureTimeout behaves like Capture but enforces a wall-clock limit,
// same SIGTERM-then-SIGKILL expiry behavior as Timeout, for callers
// (sqlgateway's Query-with-timeout path) that need both the captured
// output and a deadline.
func CaptureTimeout(d time.Duration, name string, args ...string) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	cmd := exec.Command(name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Start(); err != nil {
		return nil, 1, fmt.Errorf("failed to start %s: %w", name, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		code, err := exitCodeOf(err)
		return buf.Bytes(), code, err
	case <-ctx.Done():
		_ = cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			_ = cmd.Process.Kill()
			<-done
		}
		return buf.Bytes(), TimeoutExitCode, fmt.Errorf("command %s timed out after %s", renderCmdLine(name, args), d)
	}
}

// CaptureEnvTimeout combines CaptureEnv and CaptureTimeout: extraEnv
// is appended to the child's environment and a wall-clock limit is
// enforced, for connection modes (e.g. wallet) that need TNS_ADMIN set
// on a timed-out query.
func CaptureEnvTimeout(extraEnv []string, d time.Duration, name string, args ...string) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()

	cmd := exec.Command(name, args...)
	cmd.Env = append(os.Environ(), extraEnv...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Start(); err != nil {
		return nil, 1, fmt.Errorf("failed to start %s: %w", name, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		code, err := exitCodeOf(err)
		return buf.Bytes(), code, err
	case <-ctx.Done():
		_ = cmd.Process.Signal(syscall.SIGTERM)
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			_ = cmd.Process.Kill()
			<-done
		}
		return buf.Bytes(), TimeoutExitCode, fmt.Errorf("command %s timed out after %s", renderCmdLine(name, args), d)
	}
}

// Lock acquires the process-wide advisory lock at path, returning a
// handle whose Release should be deferred by the caller.
func Lock(path string) (*lockfile.Lock, error) {
	return lockfile.Acquire(path)
}

// runStreamed runs name/args, writing each line of its combined
// stdout+stderr to sink as it arrives, prefixed with indent (e.g. the
// two-space console indent exec_logged uses).
func runStreamed(ctx context.Context, name string, args []string, sink io.Writer, indent string) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			fmt.Fprintln(sink, indent+scanner.Text())
		}
	}()

	runErr := cmd.Run()
	pw.Close()
	<-done

	return exitCodeOf(runErr)
}

func exitCodeOf(runErr error) (int, error) {
	if runErr == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return 1, runErr
}
