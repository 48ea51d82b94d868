package memsize

import "testing"

func TestComputeHappyPath(t *testing.T) {
	// P4: available = 10 GiB, SGA%=45, PGA%=20 -> SGA=4G, PGA=2G
	// (percentages apply to whole GiB with integer division: 10*45/100
	// = 4, 10*20/100 = 2).
	opts := DefaultOptions()
	sizing, err := Compute(10*GiB, opts)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	wantSGA := uint64(4 * GiB)
	wantPGA := uint64(2 * GiB)
	if sizing.SGABytes != wantSGA {
		t.Errorf("SGA = %d, want %d", sizing.SGABytes, wantSGA)
	}
	if sizing.PGABytes != wantPGA {
		t.Errorf("PGA = %d, want %d", sizing.PGABytes, wantPGA)
	}
}

func TestComputeInsufficientMemory(t *testing.T) {
	_, err := Compute(3*GiB, DefaultOptions())
	if err == nil {
		t.Fatal("expected insufficient memory error for 3 GiB available")
	}
}

func TestComputeAppliesFloors(t *testing.T) {
	opts := DefaultOptions()
	opts.SGAPercent = 1
	opts.PGAPercent = 1
	sizing, err := Compute(4*GiB, opts)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if sizing.SGABytes != opts.SGAFloor {
		t.Errorf("SGA = %d, want floor %d", sizing.SGABytes, opts.SGAFloor)
	}
	if sizing.PGABytes != opts.PGAFloor {
		t.Errorf("PGA = %d, want floor %d", sizing.PGABytes, opts.PGAFloor)
	}
}

func TestComputeRejectsOverBudgetPercentages(t *testing.T) {
	opts := DefaultOptions()
	opts.SGAPercent = 70
	opts.PGAPercent = 40
	if _, err := Compute(10*GiB, opts); err == nil {
		t.Fatal("expected error when SGA%+PGA% > 100")
	}
}

func TestParseFreeBytes(t *testing.T) {
	out := `              total        used        free      shared  buff/cache   available
Mem:       17179869184  8000000000  2000000000   100000000  7000000000  9000000000
Swap:       2147483648           0  2147483648`
	total, available, err := ParseFreeBytes(out)
	if err != nil {
		t.Fatalf("ParseFreeBytes: %v", err)
	}
	if total != 17179869184 {
		t.Errorf("total = %d, want 17179869184", total)
	}
	if available != 9000000000 {
		t.Errorf("available = %d, want 9000000000", available)
	}
}

func TestParseFreeBytesLocalizedRow(t *testing.T) {
	out := "Mém.:       17179869184  8000000000  2000000000   100000000  7000000000  9000000000"
	_, available, err := ParseFreeBytes(out)
	if err != nil {
		t.Fatalf("ParseFreeBytes: %v", err)
	}
	if available != 9000000000 {
		t.Errorf("available = %d, want 9000000000", available)
	}
}

func TestFormatOracle(t *testing.T) {
	cases := map[uint64]string{
		4 * GiB:   "4G",
		512 * MiB: "512M",
		123:       "123",
	}
	for bytes, want := range cases {
		if got := FormatOracle(bytes); got != want {
			t.Errorf("FormatOracle(%d) = %q, want %q", bytes, got, want)
		}
	}
}

func TestParseOracleMemValue(t *testing.T) {
	cases := map[string]uint64{
		"4G": 4 * GiB,
		"512M": 512 * MiB,
		"2048K": 2048 * KiB,
		"4294967296": 4294967296,
		"": 0,
	}
	for in, want := range cases {
		got, err := ParseOracleMemValue(in)
		if err != nil {
			t.Fatalf("ParseOracleMemValue(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseOracleMemValue(%q) = %d, want %d", in, got, want)
		}
	}
}
