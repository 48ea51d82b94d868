package datapump

import (
	"os"
	"strings"
	"testing"
)

func writeParfile(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "*.par")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	f.Close()
	return f.Name()
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return string(data)
}

func TestPrepareParfileNoRewriteNeeded(t *testing.T) {
	path := writeParfile(t, "DIRECTORY=DATA_PUMP_DIR\nDUMPFILE=full.dmp\n")
	eff, owned, err := PrepareParfile(path, ModeImport, false)
	if err != nil {
		t.Fatalf("PrepareParfile: %v", err)
	}
	if owned {
		t.Error("expected the original path, not a temp copy")
	}
	if eff != path {
		t.Errorf("effectivePath = %q, want %q", eff, path)
	}
}

func TestPrepareParfileMetadataOnlyStripsQueryBlock(t *testing.T) {
	path := writeParfile(t, strings.Join([]string{
		"DIRECTORY=DATA_PUMP_DIR",
		`QUERY=employees:"WHERE dept_id = 10`,
		`AND hire_date > sysdate-30"`,
		"DUMPFILE=meta.dmp",
	}, "\n") + "\n")

	eff, owned, err := PrepareParfile(path, ModeExport, true)
	if err != nil {
		t.Fatalf("PrepareParfile: %v", err)
	}
	if !owned {
		t.Fatal("expected a temp copy owned by the caller")
	}
	defer os.Remove(eff)

	content := readFile(t, eff)
	if strings.Contains(content, "QUERY=") {
		t.Errorf("expected QUERY block stripped, got:\n%s", content)
	}
	if !strings.Contains(content, "DUMPFILE=meta.dmp") {
		t.Errorf("expected surrounding lines preserved, got:\n%s", content)
	}
}

func TestPrepareParfileImportDumpfileStripsExtraKeys(t *testing.T) {
	path := writeParfile(t, strings.Join([]string{
		"DIRECTORY=DATA_PUMP_DIR",
		"NETWORK_LINK=prod_link",
		"FLASHBACK_SCN=123456",
		`QUERY=t1:"WHERE 1=1"`,
		"DUMPFILE=full.dmp",
	}, "\n") + "\n")

	eff, owned, err := PrepareParfile(path, ModeImportDumpfile, false)
	if err != nil {
		t.Fatalf("PrepareParfile: %v", err)
	}
	if !owned {
		t.Fatal("expected a temp copy")
	}
	defer os.Remove(eff)

	content := readFile(t, eff)
	for _, stripped := range []string{"NETWORK_LINK=", "FLASHBACK_SCN=", "QUERY="} {
		if strings.Contains(content, stripped) {
			t.Errorf("expected %q stripped, got:\n%s", stripped, content)
		}
	}
	if !strings.Contains(content, "DUMPFILE=full.dmp") {
		t.Errorf("expected surrounding lines preserved, got:\n%s", content)
	}
}
