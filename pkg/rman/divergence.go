package rman

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultCatalogStaleSeconds is used when the caller passes staleAfter
// <= 0, mirroring config.Config's CatalogStaleSeconds default.
const DefaultCatalogStaleSeconds = 3600

// DivergenceProbe is the outcome of checking whether the RMAN catalog
// may have drifted from the actual backup set on disk since the last
// crosscheck (spec §4.4 "Catalog-divergence probe").
type DivergenceProbe struct {
	Stale  bool
	Reason string
}

// CheckDivergence returns "stale" when crosscheckedAt is older than
// staleAfter (config.Config.CatalogStaleSeconds; <= 0 falls back to
// DefaultCatalogStaleSeconds), or when the number of archive logs
// currently present under fraDir exceeds recordedArchiveCount (the
// count persisted right after CATALOG ran).
func CheckDivergence(crosscheckedAt time.Time, staleAfter time.Duration, fraDir string, recordedArchiveCount int) (DivergenceProbe, error) {
	if staleAfter <= 0 {
		staleAfter = DefaultCatalogStaleSeconds * time.Second
	}
	if crosscheckedAt.IsZero() {
		return DivergenceProbe{Stale: true, Reason: "no crosscheck has ever run"}, nil
	}
	if age := time.Since(crosscheckedAt); age > staleAfter {
		return DivergenceProbe{Stale: true, Reason: "last crosscheck is " + age.Round(time.Second).String() + " old"}, nil
	}

	current, err := countArchiveLogs(fraDir)
	if err != nil {
		return DivergenceProbe{}, err
	}
	if current > recordedArchiveCount {
		return DivergenceProbe{Stale: true, Reason: "archive log count grew since catalog ran"}, nil
	}
	return DivergenceProbe{Stale: false}, nil
}

func countArchiveLogs(fraDir string) (int, error) {
	entries, err := os.ReadDir(fraDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if matched, _ := filepath.Match("*.arc", e.Name()); matched {
			n++
		}
	}
	return n, nil
}
