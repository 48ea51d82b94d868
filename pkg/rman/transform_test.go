package rman

import "testing"

func TestBuildFSDestinations(t *testing.T) {
	cfg := Config{DestType: DestFS, DestBase: "/u02/oradata", UnqName: "ORCLCLONE"}
	discovered := []TransformEntry{
		{Kind: Datafile, ID: 1, Source: "/orig/o1_mf_system_abc123_.dbf"},
		{Kind: Tempfile, ID: 3, Source: "/orig/o1_mf_temp_def456_.dbf"},
		{Kind: RedoLog, ID: 1, Source: "/orig/redo01.log", Thread: 1, Member: 1},
	}

	m, err := Build(cfg, discovered)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	prefix := "/u02/oradata/oradata/ORCLCLONE"
	seen := map[string]bool{}
	for _, e := range m.Entries {
		if !hasPrefix(e.Dest, prefix) {
			t.Errorf("dest %q does not start with %q", e.Dest, prefix)
		}
		if !hasSuffix(e.Dest, ".dbf") && !hasSuffix(e.Dest, ".log") {
			t.Errorf("dest %q does not end with .dbf or .log", e.Dest)
		}
		if seen[e.Dest] {
			t.Errorf("duplicate dest %q", e.Dest)
		}
		seen[e.Dest] = true
	}
}

func TestBuildFSCollisionSuffixing(t *testing.T) {
	cfg := Config{DestType: DestFS, DestBase: "/u02/oradata", UnqName: "ORCLCLONE"}
	discovered := []TransformEntry{
		{Kind: Datafile, ID: 1, Source: "/a/users.dbf"},
		{Kind: Datafile, ID: 2, Source: "/b/users.dbf"},
		{Kind: Datafile, ID: 3, Source: "/c/users.dbf"},
	}

	m, err := Build(cfg, discovered)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	want := []string{
		"/u02/oradata/oradata/ORCLCLONE/users.dbf",
		"/u02/oradata/oradata/ORCLCLONE/users_2.dbf",
		"/u02/oradata/oradata/ORCLCLONE/users_3.dbf",
	}
	for i, e := range m.Entries {
		if e.Dest != want[i] {
			t.Errorf("entry %d: dest = %q, want %q", i, e.Dest, want[i])
		}
	}
}

func TestBuildASMDestinations(t *testing.T) {
	cfg := Config{DestType: DestASM, DataDG: "+DATA", FraDG: "+FRA"}
	discovered := []TransformEntry{
		{Kind: Datafile, ID: 1, Source: "/orig/system.dbf"},
		{Kind: Tempfile, ID: 3, Source: "/orig/temp.dbf"},
		{Kind: RedoLog, ID: 1, Source: "/orig/redo01.log", Thread: 1, Member: 1},
	}

	m, err := Build(cfg, discovered)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	for _, e := range m.Entries {
		if e.Dest != cfg.DataDG && e.Dest != cfg.FraDG {
			t.Errorf("dest %q is neither DATA_DG nor FRA_DG", e.Dest)
		}
		if e.Dest[0] != '+' {
			t.Errorf("dest %q does not start with +", e.Dest)
		}
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
