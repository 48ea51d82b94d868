package rman

import "testing"

func TestValidatePITRWithinWindow(t *testing.T) {
	window := Window{Min: "2026-01-15 00:00:00", Max: "2026-01-17 00:00:00"}
	spec := PITRSpec{UntilTime: "2026-01-16 14:30:00"}
	if err := ValidatePITR(spec, window); err != nil {
		t.Errorf("expected pass, got %v", err)
	}
}

func TestValidatePITROutsideWindow(t *testing.T) {
	window := Window{Min: "2026-01-15 00:00:00", Max: "2026-01-16 14:00:00"}
	spec := PITRSpec{UntilTime: "2026-01-16 14:30:00"}
	if err := ValidatePITR(spec, window); err == nil {
		t.Error("expected failure for UNTIL_TIME outside archive window")
	}
}

func TestValidatePITRRejectsBoth(t *testing.T) {
	spec := PITRSpec{UntilTime: "2026-01-16 14:30:00", UntilSCN: "12345"}
	if err := ValidatePITR(spec, Window{}); err == nil {
		t.Error("expected failure when both UNTIL_TIME and UNTIL_SCN are given")
	}
}

func TestValidatePITRRejectsNonNumericSCN(t *testing.T) {
	spec := PITRSpec{UntilSCN: "not-a-number"}
	if err := ValidatePITR(spec, Window{}); err == nil {
		t.Error("expected failure for non-numeric UNTIL_SCN")
	}
}

func TestValidatePITRAcceptsNumericSCN(t *testing.T) {
	spec := PITRSpec{UntilSCN: "123456789"}
	if err := ValidatePITR(spec, Window{}); err != nil {
		t.Errorf("expected pass, got %v", err)
	}
}

func TestValidatePITRNoneRequested(t *testing.T) {
	if err := ValidatePITR(PITRSpec{}, Window{}); err != nil {
		t.Errorf("expected pass when neither is requested, got %v", err)
	}
}
