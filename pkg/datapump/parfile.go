package datapump

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Mode selects which kind of Data Pump job a parfile drives.
type Mode string

const (
	ModeExport            Mode = "export"
	ModeImport            Mode = "import"
	ModeImportDumpfile    Mode = "import-dumpfile"
	ModeImportNetworkLink Mode = "import-networklink"
)

// PrepareParfile returns the parfile that should actually be passed to
// impdp/expdp for (path, mode, metadataOnly), per spec §4.5 "Parfile
// preparation":
//
//   - metadataOnly strips any QUERY=... block (a QUERY block spans
//     from the "QUERY=" line to the next line ending in a double quote).
//   - mode == import-dumpfile additionally strips any line starting
//     with QUERY=, FLASHBACK_SCN=, or NETWORK_LINK=.
//
// When no rewriting is needed, it returns the original path unowned
// (ownedByCaller == false); the caller only removes files it owns.
func PrepareParfile(path string, mode Mode, metadataOnly bool) (effectivePath string, ownedByCaller bool, err error) {
	if !metadataOnly && mode != ModeImportDumpfile {
		return path, false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", false, fmt.Errorf("failed to open parfile %s: %w", path, err)
	}
	defer f.Close()

	lines, err := filterParfileLines(f, mode, metadataOnly)
	if err != nil {
		return "", false, err
	}

	out, err := os.CreateTemp("", "restoreorc_parfile_*.par")
	if err != nil {
		return "", false, fmt.Errorf("failed to create temp parfile: %w", err)
	}
	defer out.Close()

	for _, l := range lines {
		if _, err := fmt.Fprintln(out, l); err != nil {
			os.Remove(out.Name())
			return "", false, fmt.Errorf("failed to write temp parfile: %w", err)
		}
	}
	return out.Name(), true, nil
}

func filterParfileLines(f *os.File, mode Mode, metadataOnly bool) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	inQueryBlock := false
	for scanner.Scan() {
		line := scanner.Text()

		if inQueryBlock {
			if strings.HasSuffix(strings.TrimRight(line, " \t"), `"`) {
				inQueryBlock = false
			}
			continue
		}

		trimmed := strings.TrimSpace(line)
		if metadataOnly && strings.HasPrefix(trimmed, "QUERY=") {
			inQueryBlock = !strings.HasSuffix(trimmed, `"`)
			continue
		}

		if mode == ModeImportDumpfile {
			if strings.HasPrefix(trimmed, "QUERY=") || strings.HasPrefix(trimmed, "FLASHBACK_SCN=") || strings.HasPrefix(trimmed, "NETWORK_LINK=") {
				continue
			}
		}

		out = append(out, line)
	}
	return out, scanner.Err()
}
