package rman

import (
	"bufio"
	"io"
	"regexp"
)

var (
	rmanErrorLine = regexp.MustCompile(`^RMAN-\d+:`)
	oraErrorLine  = regexp.MustCompile(`^ORA-\d+:`)
)

// errorWhitelist holds error codes that are benign in a recovery
// context and should not downgrade a clean exit to a warning (spec
// §4.4 "Log error detection").
var errorWhitelist = map[string]bool{
	"RMAN-07517": true, // corrupted header, expected when scanning non-backup files
	"RMAN-06169": true, // during crosscheck of deleted backups
	"ORA-01917":  true, // grant on a missing user/role, benign in recovery
	"ORA-01921":  true,
}

// LogScanResult is the outcome of scanning one RMAN log.
type LogScanResult struct {
	Warnings []string // non-whitelisted RMAN-/ORA- lines found
}

// Warned reports whether any non-whitelisted error line was found.
func (r LogScanResult) Warned() bool {
	return len(r.Warnings) > 0
}

// ScanLog reads an RMAN log and collects every RMAN-/ORA- error line
// not covered by the whitelist. A clean exit code combined with a
// non-empty result downgrades the step from "success" to "success with
// warnings" at the caller.
func ScanLog(r io.Reader) (LogScanResult, error) {
	var result LogScanResult
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		code := errorCode(line)
		if code == "" {
			continue
		}
		if errorWhitelist[code] {
			continue
		}
		result.Warnings = append(result.Warnings, line)
	}
	return result, scanner.Err()
}

// errorCode extracts the leading "RMAN-12345" or "ORA-12345" token
// from line, or "" if the line doesn't start with one.
func errorCode(line string) string {
	if loc := rmanErrorLine.FindStringIndex(line); loc != nil {
		return line[loc[0] : loc[1]-1]
	}
	if loc := oraErrorLine.FindStringIndex(line); loc != nil {
		return line[loc[0] : loc[1]-1]
	}
	return ""
}
