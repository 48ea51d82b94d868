package datapump

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	DefaultAntMB      = 100.0
	DefaultElephantMB = 1000.0
)

// CategorizeTables reads "<table>|<size_mb>" rows from r and splits
// them into "ant" (size < antMB) and "elephant" (everything else,
// including the medium band between antMB and elephantMB) buckets per
// spec §4.5 "Table categorization". elephantMB is accepted for
// documentation/config symmetry with the source even though the split
// itself only tests against antMB.
func CategorizeTables(r io.Reader, antMB, elephantMB float64) (ants, elephants []string, err error) {
	if antMB <= 0 || elephantMB <= 0 {
		return nil, nil, fmt.Errorf("ant_mb and elephant_mb thresholds must be numeric and positive")
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 2)
		if len(parts) != 2 {
			return nil, nil, fmt.Errorf("malformed table-size row: %q", line)
		}
		table := parts[0]
		sizeMB, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("non-numeric size in row %q: %w", line, err)
		}

		if sizeMB < antMB {
			ants = append(ants, table)
		} else {
			elephants = append(elephants, table)
		}
	}
	return ants, elephants, scanner.Err()
}
