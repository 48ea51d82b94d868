package rman

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// EntryKind tags a File Transformation Map entry (spec §3.2).
type EntryKind string

const (
	Datafile EntryKind = "DATAFILE"
	Tempfile EntryKind = "TEMPFILE"
	RedoLog  EntryKind = "REDO_LOG"
)

// DestType selects filesystem vs. ASM destination layout.
type DestType string

const (
	DestFS  DestType = "FS"
	DestASM DestType = "ASM"
)

// TransformEntry is one row of the File Transformation Map.
type TransformEntry struct {
	Kind   EntryKind
	ID     int // file# for DATAFILE/TEMPFILE, log group# for REDO_LOG
	Source string
	Dest   string

	Thread int // REDO_LOG only
	Member int // REDO_LOG only, 1-based member index within the group
}

// Map is the finite ordered sequence of transformation entries for one
// restore.
type Map struct {
	Entries []TransformEntry
}

// Config carries the destination-layout parameters needed to compute
// Dest for every entry (spec §4.4 "Destination computation").
type Config struct {
	DestType DestType
	DestBase string // FS mode
	UnqName  string // db_unique_name, used in FS paths
	DataDG   string // ASM mode, e.g. "+DATA"
	FraDG    string // ASM mode, e.g. "+FRA"
}

func (c Config) dataDir() string {
	return filepath.Join(c.DestBase, "oradata", c.UnqName)
}

// Build computes Dest for every entry in discovered (in discovery-map
// order), applying name cleaning and FS/ASM destination rules,
// resolving collisions with a numeric suffix (spec §4.4).
func Build(cfg Config, discovered []TransformEntry) (*Map, error) {
	m := &Map{}
	seen := map[string]int{} // cleaned dest basename -> count, FS mode only

	for _, e := range discovered {
		dest, err := destinationFor(cfg, e, seen)
		if err != nil {
			return nil, err
		}
		e.Dest = dest
		m.Entries = append(m.Entries, e)
	}
	return m, nil
}

func destinationFor(cfg Config, e TransformEntry, seen map[string]int) (string, error) {
	if cfg.DestType == DestASM {
		switch e.Kind {
		case Datafile, Tempfile:
			return cfg.DataDG, nil
		case RedoLog:
			return cfg.DataDG, nil
		default:
			return "", fmt.Errorf("unknown transform entry kind %q", e.Kind)
		}
	}

	// FS mode.
	switch e.Kind {
	case Datafile:
		cleaned := dedupe(CleanName(e.Source, "dbf"), seen)
		return filepath.Join(cfg.dataDir(), cleaned), nil
	case Tempfile:
		cleaned := dedupe("temp_"+CleanName(e.Source, "dbf"), seen)
		return filepath.Join(cfg.dataDir(), cleaned), nil
	case RedoLog:
		cleaned := CleanName(e.Source, "log")
		name := fmt.Sprintf("redo_t%d_g%d_m%d_%s", e.Thread, e.ID, e.Member, cleaned)
		return filepath.Join(cfg.dataDir(), name), nil
	default:
		return "", fmt.Errorf("unknown transform entry kind %q", e.Kind)
	}
}

// dedupe returns name unmodified the first time it is seen, and
// "<base>_2.<ext>", "<base>_3.<ext>", … on every subsequent collision
// (spec §4.4).
func dedupe(name string, seen map[string]int) string {
	seen[name]++
	n := seen[name]
	if n == 1 {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return base + "_" + strconv.Itoa(n) + ext
}
