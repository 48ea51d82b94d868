package statefile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSetGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "execution_state.sh")
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := s.Set("DBID", "1234567890"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got := s.Get("DBID"); got != "1234567890" {
		t.Errorf("Get(DBID) = %q, want 1234567890", got)
	}

	// Reload from disk to make sure the write actually landed.
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.Get("DBID"); got != "1234567890" {
		t.Errorf("reloaded Get(DBID) = %q, want 1234567890", got)
	}
}

func TestSetOverwriteKeepsOneLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "execution_state.sh")
	s, _ := Load(path)

	if err := s.Set("K", "V1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set("K", "V2"); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := reloaded.Get("K"); got != "V2" {
		t.Errorf("Get(K) = %q, want V2", got)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, line := range strings.Split(string(raw), "\n") {
		if line == `K="V2"` {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one K line, found %d in %q", count, string(raw))
	}
}

func TestMissingKeyDefaultsEmpty(t *testing.T) {
	s, _ := Load(filepath.Join(t.TempDir(), "execution_state.sh"))
	if got := s.Get("NOPE"); got != "" {
		t.Errorf("Get(NOPE) = %q, want empty", got)
	}
}

func TestMarkStepAndIsCompleted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "execution_state.sh")
	s, _ := Load(path)

	if s.IsCompleted(StepRestore) {
		t.Fatal("expected RESTORE not completed before MarkStep")
	}

	if err := s.MarkStep(StepRestore, 0, "/tmp/restore.log", 42*time.Second); err != nil {
		t.Fatal(err)
	}
	if !s.IsCompleted(StepRestore) {
		t.Fatal("expected RESTORE completed after successful MarkStep")
	}

	result := s.Step(StepRestore)
	if result.ExitCode != 0 || result.Log != "/tmp/restore.log" || result.Duration != 42*time.Second {
		t.Errorf("unexpected step result: %+v", result)
	}

	if err := s.MarkStep(StepRestore, 1, "/tmp/restore2.log", 5*time.Second); err != nil {
		t.Fatal(err)
	}
	if s.IsCompleted(StepRestore) {
		t.Fatal("expected RESTORE not completed after failing MarkStep")
	}
}
