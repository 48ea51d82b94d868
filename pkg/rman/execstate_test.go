package rman

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/restoreorc/pkg/report"
	"github.com/cuemby/restoreorc/pkg/statefile"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	home := t.TempDir()
	if err := os.MkdirAll(filepath.Join(home, "bin"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	rman := filepath.Join(home, "bin", "rman")
	if err := os.WriteFile(rman, []byte("#!/bin/sh\necho RMAN completed\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	st, err := statefile.Load(filepath.Join(t.TempDir(), "execution_state.sh"))
	if err != nil {
		t.Fatalf("statefile.Load: %v", err)
	}

	r, err := report.Init("test", t.TempDir(), "20260730_000000")
	if err != nil {
		t.Fatalf("report.Init: %v", err)
	}
	r.SetAutoYes(true)

	return New(home, "ORCLCLONE", st)
}

func TestExecWithStateSkipIfDone(t *testing.T) {
	e := newTestEngine(t)
	cmdfile := filepath.Join(t.TempDir(), "03_preview.rcv")
	os.WriteFile(cmdfile, []byte("restore database preview summary;\n"), 0o644)
	logfile := filepath.Join(t.TempDir(), "preview.log")

	code, err := e.ExecWithState(statefile.StepPreview, cmdfile, logfile, "rman:preview", false)
	if err != nil || code != 0 {
		t.Fatalf("first run: code=%d err=%v", code, err)
	}
	if !e.State.IsCompleted(statefile.StepPreview) {
		t.Fatal("expected PREVIEW to be marked completed")
	}

	// Replace the rman script so a relaunch would be detectable.
	os.WriteFile(filepath.Join(e.OracleHome, "bin", "rman"), []byte("#!/bin/sh\nexit 1\n"), 0o755)

	code, err = e.ExecWithState(statefile.StepPreview, cmdfile, logfile, "rman:preview", false)
	if err != nil || code != 0 {
		t.Errorf("second run should skip and return 0, got code=%d err=%v", code, err)
	}
}

func TestExecWithStateForceBypassesSkip(t *testing.T) {
	e := newTestEngine(t)
	cmdfile := filepath.Join(t.TempDir(), "05_restore.rcv")
	os.WriteFile(cmdfile, []byte("restore database;\n"), 0o644)
	logfile := filepath.Join(t.TempDir(), "restore.log")

	if _, err := e.ExecWithState(statefile.StepRestore, cmdfile, logfile, "rman:restore", false); err != nil {
		t.Fatalf("first run: %v", err)
	}

	os.WriteFile(filepath.Join(e.OracleHome, "bin", "rman"), []byte("#!/bin/sh\nexit 3\n"), 0o755)

	code, _ := e.ExecWithState(statefile.StepRestore, cmdfile, logfile, "rman:restore", true)
	if code != 3 {
		t.Errorf("--force should relaunch, got code=%d, want 3", code)
	}
}

func TestExecWithStateMissingCmdfile(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.ExecWithState(statefile.StepValidate, "/nonexistent.rcv", filepath.Join(t.TempDir(), "v.log"), "rman:validate", false)
	if err == nil {
		t.Error("expected failure for missing command file")
	}
}
