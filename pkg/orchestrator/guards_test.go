package orchestrator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/restoreorc/pkg/config"
	"github.com/cuemby/restoreorc/pkg/report"
	"github.com/cuemby/restoreorc/pkg/sqlgateway"
)

// unlikelySID is chosen so FindPMON never matches a real process in the
// test environment's /proc.
const unlikelySID = "ZZPROBESIDZZ99"

func TestFindPMONNotFound(t *testing.T) {
	_, found, err := FindPMON(unlikelySID)
	if err != nil {
		t.Fatalf("FindPMON: %v", err)
	}
	if found {
		t.Fatalf("expected no PMON match for %s", unlikelySID)
	}
}

func TestProbeInstanceStateDown(t *testing.T) {
	sql := sqlgateway.New("/fake/oracle/home")
	sql.SkipOracleCmds = true

	state, err := ProbeInstanceState(sql, unlikelySID)
	if err != nil {
		t.Fatalf("ProbeInstanceState: %v", err)
	}
	if state != StateDown {
		t.Fatalf("expected DOWN, got %s", state)
	}
}

func TestGuardRunningInstanceDownIsNoop(t *testing.T) {
	cfg := &config.Config{TargetSID: unlikelySID}
	sql := sqlgateway.New("/fake/oracle/home")
	sql.SkipOracleCmds = true
	c := &Context{Config: cfg, SQL: sql}

	if err := GuardRunningInstance(c); err != nil {
		t.Fatalf("expected no error for a DOWN instance, got %v", err)
	}
}

func TestEnsureDestinationDirsCreatesAllFour(t *testing.T) {
	base := t.TempDir()
	c := &Context{
		AdminDir:   filepath.Join(base, "admin"),
		DataDir:    filepath.Join(base, "oradata"),
		FraDir:     filepath.Join(base, "fra"),
		ControlDir: filepath.Join(base, "oradata"),
	}
	if err := EnsureDestinationDirs(c); err != nil {
		t.Fatalf("EnsureDestinationDirs: %v", err)
	}
	for _, dir := range []string{c.AdminDir, c.DataDir, c.FraDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected %s to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %s to be a directory", dir)
		}
	}
}

func TestGuardPreexistingFilesNoneFoundIsNoop(t *testing.T) {
	controlDir := t.TempDir()
	c := &Context{
		Config:     &config.Config{TargetSID: "ORCL", AllowCleanup: false},
		ControlDir: controlDir,
	}
	if err := GuardPreexistingFiles(c); err != nil {
		t.Fatalf("expected no error when no controlfiles exist, got %v", err)
	}
}

func TestGuardPreexistingFilesRequiresAllowCleanup(t *testing.T) {
	controlDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(controlDir, "control01.ctl"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	c := &Context{
		Config:     &config.Config{TargetSID: "ORCL", AllowCleanup: false},
		ControlDir: controlDir,
	}
	err := GuardPreexistingFiles(c)
	if err == nil {
		t.Fatal("expected an error without ALLOW_CLEANUP=1")
	}
}

func TestGuardPreexistingFilesDeniedConfirmationLeavesFiles(t *testing.T) {
	controlDir := t.TempDir()
	ctlPath := filepath.Join(controlDir, "control01.ctl")
	if err := os.WriteFile(ctlPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	rep, err := report.Init("test", t.TempDir(), "session")
	if err != nil {
		t.Fatal(err)
	}
	rep.SetAutoNo(true)

	c := &Context{
		Config:     &config.Config{TargetSID: "ORCL", AllowCleanup: true},
		ControlDir: controlDir,
		Report:     rep,
	}
	err = GuardPreexistingFiles(c)
	if err != report.ErrOperatorDenied {
		t.Fatalf("expected ErrOperatorDenied, got %v", err)
	}
	if _, statErr := os.Stat(ctlPath); statErr != nil {
		t.Fatalf("expected %s to still exist after denial, got %v", ctlPath, statErr)
	}
}

func TestGuardPreexistingFilesConfirmedRemovesFiles(t *testing.T) {
	controlDir := t.TempDir()
	for _, name := range []string{"control01.ctl", "system01.dbf", "redo01.log"} {
		if err := os.WriteFile(filepath.Join(controlDir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	rep, err := report.Init("test", t.TempDir(), "session")
	if err != nil {
		t.Fatal(err)
	}
	rep.SetAutoYes(true)

	c := &Context{
		Config:     &config.Config{TargetSID: "ORCL", AllowCleanup: true},
		ControlDir: controlDir,
		Report:     rep,
	}
	if err := GuardPreexistingFiles(c); err != nil {
		t.Fatalf("GuardPreexistingFiles: %v", err)
	}

	entries, err := os.ReadDir(controlDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected controlDir to be empty, found %v", entries)
	}
}
