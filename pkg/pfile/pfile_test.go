package pfile

import (
	"strings"
	"testing"
)

func TestRenderBootstrap(t *testing.T) {
	out, err := RenderBootstrap(BootstrapVars{
		UNQ:        "ORCLCLONE",
		DestBase:   "/u02/restore",
		AdminDir:   "/u02/restore/admin/ORCLCLONE/adump",
		ControlDir: "/u02/restore/oradata/ORCLCLONE",
		SGATarget:  "4G",
		PGATarget:  "2G",
	})
	if err != nil {
		t.Fatalf("RenderBootstrap: %v", err)
	}
	for _, want := range []string{
		"db_name='DUMMY'",
		"db_unique_name='ORCLCLONE'",
		"control_files='/u02/restore/oradata/ORCLCLONE/control01.ctl','/u02/restore/oradata/ORCLCLONE/control02.ctl'",
		"sga_target=4G",
		"pga_aggregate_target=2G",
		"processes=1500",
		"cluster_database=FALSE",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("bootstrap PFILE missing %q:\n%s", want, out)
		}
	}
}

func TestCaptureDBName(t *testing.T) {
	raw := "*.compatible='19.0.0'\n*.db_name='ORCLPRD'\n*.undo_tablespace='UNDOTBS1'\n"
	got, err := CaptureDBName(raw)
	if err != nil {
		t.Fatalf("CaptureDBName: %v", err)
	}
	if got != "'ORCLPRD'" {
		t.Errorf("CaptureDBName = %q, want 'ORCLPRD'", got)
	}
}

func TestSanitizeRoundTripsDBName(t *testing.T) {
	raw := "*.compatible='19.0.0'\n*.db_name='ORCLPRD'\n*._optimizer_fake_hidden=TRUE\n"
	out, err := Sanitize(raw, SanitizeOptions{
		OriginalDBName: "'ORCLPRD'",
		UNQ:            "ORCLCLONE",
		DestBase:       "/u02/restore",
		AdminDir:       "/u02/restore/admin/ORCLCLONE/adump",
		ControlDir:     "/u02/restore/oradata/ORCLCLONE",
		SGATarget:      "4G",
		PGATarget:      "2G",
		DropHidden:     true,
	})
	if err != nil {
		t.Fatalf("Sanitize: %v", err)
	}
	if !strings.Contains(out, "db_name='ORCLPRD'") {
		t.Errorf("expected db_name to round-trip byte-equivalently, got:\n%s", out)
	}
	if strings.Contains(out, "_optimizer_fake_hidden") {
		t.Errorf("expected hidden parameter to be dropped, got:\n%s", out)
	}
	if !strings.Contains(out, "db_unique_name=ORCLCLONE") {
		t.Errorf("expected db_unique_name to be set, got:\n%s", out)
	}
}

func TestParamsSetPreservesOrderOnOverwrite(t *testing.T) {
	p := Parse("a=1\nb=2\nc=3\n")
	p.Set("b", "99")
	out := p.Render()
	wantOrder := []string{"a=1", "b=99", "c=3"}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	for i, want := range wantOrder {
		if lines[i] != want {
			t.Errorf("line %d = %q, want %q", i, lines[i], want)
		}
	}
}
