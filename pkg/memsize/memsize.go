package memsize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	GiB = 1 << 30
	MiB = 1 << 20
	KiB = 1 << 10
)

var memRowRE = regexp.MustCompile(`(?i)^M[ée]m\.?:$`)

// ParseFreeBytes parses the byte-unit output of `free -b` (or the
// locale-translated "Mém.:" row some hosts emit) and returns the total
// and available memory in bytes. If the `free` version predates the
// "available" column, available is approximated as free+buff/cache.
func ParseFreeBytes(output string) (total, available uint64, err error) {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 || !memRowRE.MatchString(fields[0]) {
			continue
		}
		total, err = strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to parse total memory from %q: %w", line, err)
		}
		switch len(fields) {
		case 4, 5:
			// total used free [shared] -- no buff/cache or available column.
			free, ferr := strconv.ParseUint(fields[2], 10, 64)
			if ferr != nil {
				return 0, 0, fmt.Errorf("failed to parse free memory from %q: %w", line, ferr)
			}
			available = free
		case 6:
			free, _ := strconv.ParseUint(fields[2], 10, 64)
			buffCache, _ := strconv.ParseUint(fields[4], 10, 64)
			available = free + buffCache
		default:
			available, err = strconv.ParseUint(fields[len(fields)-1], 10, 64)
			if err != nil {
				return 0, 0, fmt.Errorf("failed to parse available memory from %q: %w", line, err)
			}
		}
		return total, available, nil
	}
	return 0, 0, fmt.Errorf("no Mem: row found in free output")
}

// Sizing is the computed SGA/PGA targets, in bytes.
type Sizing struct {
	SGABytes uint64
	PGABytes uint64
}

// Options controls auto-sizing.
type Options struct {
	SGAPercent   int    // default 45
	PGAPercent   int    // default 20
	MinAvailable uint64 // default 4 GiB
	SGAFloor     uint64 // default 2 GiB
	PGAFloor     uint64 // default 1 GiB
}

// DefaultOptions returns the percentages and floors named in spec §4.6.
func DefaultOptions() Options {
	return Options{
		SGAPercent:   45,
		PGAPercent:   20,
		MinAvailable: 4 * GiB,
		SGAFloor:     2 * GiB,
		PGAFloor:     1 * GiB,
	}
}

// Compute derives SGA/PGA targets from availableBytes and opts. The
// percentages are applied to the whole GiB of available memory with
// integer division, so each target is a whole number of GiB before the
// floors apply. It fails if availableBytes is below MinAvailable, or if
// the two percentages together exceed 100 (spec §3.1 invariant).
func Compute(availableBytes uint64, opts Options) (Sizing, error) {
	if opts.SGAPercent+opts.PGAPercent > 100 {
		return Sizing{}, fmt.Errorf("SGA%%+PGA%% = %d exceeds 100", opts.SGAPercent+opts.PGAPercent)
	}
	if availableBytes < opts.MinAvailable {
		return Sizing{}, fmt.Errorf("insufficient memory: %d bytes available, need at least %d", availableBytes, opts.MinAvailable)
	}

	availableGiB := availableBytes / GiB
	sga := availableGiB * uint64(opts.SGAPercent) / 100 * GiB
	pga := availableGiB * uint64(opts.PGAPercent) / 100 * GiB

	if sga < opts.SGAFloor {
		sga = opts.SGAFloor
	}
	if pga < opts.PGAFloor {
		pga = opts.PGAFloor
	}

	return Sizing{SGABytes: sga, PGABytes: pga}, nil
}

// FormatOracle renders bytes as an Oracle-style memory literal: "<n>G"
// when the value is an exact multiple of a gigabyte, "<n>M" when it is
// an exact multiple of a megabyte, and a raw byte count otherwise.
func FormatOracle(bytes uint64) string {
	if bytes != 0 && bytes%GiB == 0 {
		return fmt.Sprintf("%dG", bytes/GiB)
	}
	if bytes != 0 && bytes%MiB == 0 {
		return fmt.Sprintf("%dM", bytes/MiB)
	}
	return strconv.FormatUint(bytes, 10)
}

// ParseOracleMemValue parses the config-layer memory literal format
// "<uint>[GMK]" or a raw byte count into bytes.
func ParseOracleMemValue(value string) (uint64, error) {
	if value == "" {
		return 0, nil
	}
	suffix := value[len(value)-1]
	switch suffix {
	case 'G', 'g':
		n, err := strconv.ParseUint(value[:len(value)-1], 10, 64)
		return n * GiB, err
	case 'M', 'm':
		n, err := strconv.ParseUint(value[:len(value)-1], 10, 64)
		return n * MiB, err
	case 'K', 'k':
		n, err := strconv.ParseUint(value[:len(value)-1], 10, 64)
		return n * KiB, err
	default:
		return strconv.ParseUint(value, 10, 64)
	}
}
