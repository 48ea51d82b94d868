package rman

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/cuemby/restoreorc/pkg/fsutil"
)

const defaultDiscoveryDepth = 10

var autobackupDBID = regexp.MustCompile(`^c-(\d+)-`)

// Autobackup is what DiscoverBackup finds under BACKUP_ROOT.
type Autobackup struct {
	Dir  string
	DBID string
}

// DiscoverBackup scans root (bounded to maxDepth directories, 0 means
// the package default of 10) for RMAN controlfile autobackups named
// "c-*". It returns the directory of the first match and the numeric
// DBID embedded in its filename. Finding pieces stamped with more than
// one distinct DBID is a distinguishable failure so the caller can ask
// the operator to pin DBID explicitly (spec §4.4 "Backup discovery").
func DiscoverBackup(root string, maxDepth int) (Autobackup, error) {
	if maxDepth <= 0 {
		maxDepth = defaultDiscoveryDepth
	}

	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return Autobackup{}, fmt.Errorf("backup not found: %s", root)
	}

	var first Autobackup
	dbids := map[string]bool{}

	err := fsutil.WalkMatching(root, maxDepth, "c-*", func(path string) error {
		m := autobackupDBID.FindStringSubmatch(filepath.Base(path))
		if m == nil {
			return nil
		}
		dbid := m[1]
		dbids[dbid] = true
		if first.Dir == "" {
			first = Autobackup{Dir: filepath.Dir(path), DBID: dbid}
		}
		return nil
	})
	if err != nil {
		return Autobackup{}, fmt.Errorf("scanning %s for autobackups: %w", root, err)
	}

	if len(dbids) == 0 {
		return Autobackup{}, fmt.Errorf("backup not found: %s", root)
	}
	if len(dbids) > 1 {
		return Autobackup{}, fmt.Errorf("multiple distinct DBIDs found under %s, specify DBID explicitly", root)
	}
	return first, nil
}

var sectionSentinel = regexp.MustCompile(`^--[A-Z_]+--$`)

// ParseDiscoveryMap reads the three-section discovery-map file C4
// produces by querying the mounted controlfile (spec §4.4 "Discovery
// map format") and returns the raw, un-destined entries in file order.
func ParseDiscoveryMap(r *bufio.Scanner) ([]TransformEntry, error) {
	var entries []TransformEntry
	section := ""

	for r.Scan() {
		line := strings.TrimRight(r.Text(), "\r\n")
		if line == "" {
			continue
		}
		if sectionSentinel.MatchString(line) {
			section = strings.Trim(line, "-")
			switch section {
			case "DATAFILES", "TEMPFILES", "REDO":
			default:
				return nil, fmt.Errorf("unrecognized discovery map section %q", line)
			}
			continue
		}

		fields := strings.Split(line, "|")
		switch section {
		case "DATAFILES":
			if len(fields) < 2 {
				return nil, fmt.Errorf("malformed DATAFILES row: %q", line)
			}
			id, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("malformed DATAFILES row %q: %w", line, err)
			}
			entries = append(entries, TransformEntry{Kind: Datafile, ID: id, Source: fields[1]})
		case "TEMPFILES":
			if len(fields) < 2 {
				return nil, fmt.Errorf("malformed TEMPFILES row: %q", line)
			}
			id, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("malformed TEMPFILES row %q: %w", line, err)
			}
			entries = append(entries, TransformEntry{Kind: Tempfile, ID: id, Source: fields[1]})
		case "REDO":
			if len(fields) < 3 {
				return nil, fmt.Errorf("malformed REDO row: %q", line)
			}
			group, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("malformed REDO row %q: %w", line, err)
			}
			thread, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("malformed REDO row %q: %w", line, err)
			}
			entries = append(entries, TransformEntry{
				Kind:   RedoLog,
				ID:     group,
				Source: fields[1],
				Thread: thread,
			})
		default:
			return nil, fmt.Errorf("discovery map row outside any section: %q", line)
		}
	}

	assignRedoMembers(entries)
	return entries, r.Err()
}

// assignRedoMembers numbers redo log members 1-based within their
// group, in the order they appear in the discovery map.
func assignRedoMembers(entries []TransformEntry) {
	next := map[int]int{}
	for i := range entries {
		if entries[i].Kind != RedoLog {
			continue
		}
		next[entries[i].ID]++
		entries[i].Member = next[entries[i].ID]
	}
}
