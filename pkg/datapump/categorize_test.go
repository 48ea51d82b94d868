package datapump

import (
	"strings"
	"testing"
)

func TestCategorizeTables(t *testing.T) {
	input := "EMPLOYEES|45\nORDERS|1500\nLOGS|5000\nSMALL|10\n"
	ants, elephants, err := CategorizeTables(strings.NewReader(input), DefaultAntMB, DefaultElephantMB)
	if err != nil {
		t.Fatalf("CategorizeTables: %v", err)
	}

	wantAnts := map[string]bool{"EMPLOYEES": true, "SMALL": true}
	if len(ants) != len(wantAnts) {
		t.Fatalf("ants = %v, want %v", ants, wantAnts)
	}
	for _, a := range ants {
		if !wantAnts[a] {
			t.Errorf("unexpected ant %q", a)
		}
	}

	wantElephants := map[string]bool{"ORDERS": true, "LOGS": true}
	if len(elephants) != len(wantElephants) {
		t.Fatalf("elephants = %v, want %v", elephants, wantElephants)
	}
}

func TestCategorizeTablesRejectsNonPositiveThreshold(t *testing.T) {
	if _, _, err := CategorizeTables(strings.NewReader("T|10\n"), 0, DefaultElephantMB); err == nil {
		t.Error("expected failure for a non-positive ant_mb threshold")
	}
}

func TestCategorizeTablesRejectsMalformedRow(t *testing.T) {
	if _, _, err := CategorizeTables(strings.NewReader("T|notanumber\n"), DefaultAntMB, DefaultElephantMB); err == nil {
		t.Error("expected failure for a non-numeric size")
	}
}
