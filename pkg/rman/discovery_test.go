package rman

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiscoverBackupFindsFirstAutobackup(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "2026_07_30")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "c-1234567890-20260730-00"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ab, err := DiscoverBackup(root, 0)
	if err != nil {
		t.Fatalf("DiscoverBackup: %v", err)
	}
	if ab.DBID != "1234567890" {
		t.Errorf("DBID = %q, want 1234567890", ab.DBID)
	}
	if ab.Dir != sub {
		t.Errorf("Dir = %q, want %q", ab.Dir, sub)
	}
}

func TestDiscoverBackupNotFound(t *testing.T) {
	if _, err := DiscoverBackup("/nonexistent-backup-root", 0); err == nil {
		t.Error("expected failure for missing backup root")
	}
}

func TestDiscoverBackupMultipleDBIDs(t *testing.T) {
	root := t.TempDir()
	os.WriteFile(filepath.Join(root, "c-1111111111-20260730-00"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(root, "c-2222222222-20260730-00"), []byte("x"), 0o644)

	if _, err := DiscoverBackup(root, 0); err == nil {
		t.Error("expected distinguishable failure for multiple distinct DBIDs")
	}
}

func TestParseDiscoveryMap(t *testing.T) {
	input := `--DATAFILES--
1|/orig/system.dbf
2|/orig/sysaux.dbf
--TEMPFILES--
3|/orig/temp01.dbf
--REDO--
1|/orig/redo01a.log|1
1|/orig/redo01b.log|1
2|/orig/redo02a.log|1
`
	entries, err := ParseDiscoveryMap(bufio.NewScanner(strings.NewReader(input)))
	if err != nil {
		t.Fatalf("ParseDiscoveryMap: %v", err)
	}
	if len(entries) != 6 {
		t.Fatalf("got %d entries, want 6", len(entries))
	}

	if entries[0].Kind != Datafile || entries[0].ID != 1 {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	if entries[2].Kind != Tempfile || entries[2].ID != 3 {
		t.Errorf("entry 2 = %+v", entries[2])
	}
	if entries[3].Kind != RedoLog || entries[3].ID != 1 || entries[3].Member != 1 {
		t.Errorf("entry 3 = %+v", entries[3])
	}
	if entries[4].Kind != RedoLog || entries[4].ID != 1 || entries[4].Member != 2 {
		t.Errorf("entry 4 (second member of group 1) = %+v", entries[4])
	}
}

func TestParseDiscoveryMapRejectsRowOutsideSection(t *testing.T) {
	input := "1|/orig/system.dbf\n"
	_, err := ParseDiscoveryMap(bufio.NewScanner(strings.NewReader(input)))
	if err == nil {
		t.Error("expected failure for a row outside any section")
	}
}
