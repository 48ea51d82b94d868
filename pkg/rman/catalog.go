package rman

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cuemby/restoreorc/pkg/report"
	"github.com/cuemby/restoreorc/pkg/sqlgateway"
)

// CatalogKind classifies what kind of backup pieces the catalog holds
// for this database (spec §4.4 "Catalog content detection").
type CatalogKind string

const (
	CatalogImageCopy CatalogKind = "imagecopy"
	CatalogBackupSet CatalogKind = "backupset"
	CatalogBoth      CatalogKind = "both"
)

// DetectCatalogKind runs two v$ count queries (v$backup_set rows with
// backup_type D or I, v$datafile_copy rows with status 'A') after
// CATALOG completes and the instance is mounted, and classifies the
// catalog from them. Archived-log and backup-redolog counts are not
// queried. A catalog with neither image copies nor backup sets still
// returns CatalogBackupSet, with a warning recorded on the Report.
func DetectCatalogKind(sql *sqlgateway.Gateway) (CatalogKind, error) {
	backupSets, err := queryCount(sql, "select count(*) from v$backup_set where backup_type in ('D','I')")
	if err != nil {
		return "", err
	}
	imageCopies, err := queryCount(sql, "select count(*) from v$datafile_copy where status = 'A'")
	if err != nil {
		return "", err
	}

	switch {
	case imageCopies > 0 && backupSets > 0:
		return CatalogBoth, nil
	case imageCopies > 0:
		return CatalogImageCopy, nil
	case backupSets > 0:
		return CatalogBackupSet, nil
	default:
		report.TrackItem(report.ItemWarn, "catalog content detection",
			"no image copies or backup sets found in catalog; defaulting to backupset")
		return CatalogBackupSet, nil
	}
}

func queryCount(sql *sqlgateway.Gateway, stmt string) (int, error) {
	out, err := sql.Query(stmt+";", nil)
	if err != nil {
		return 0, err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(out)
	if err != nil {
		return 0, fmt.Errorf("unexpected count output %q: %w", out, err)
	}
	return n, nil
}

// Window is a [Min, Max] string-formatted time bound as returned by
// Oracle's TO_CHAR'd date queries.
type Window struct {
	Min string
	Max string
}

// RestoreWindow bundles the backup window (when pieces were produced)
// and the archive window (the span of available archived redo), per
// spec §4.4 "Restore window query". The archive window bounds any
// UNTIL_TIME the operator supplies.
type RestoreWindow struct {
	Backup  Window
	Archive Window
}

const dateFmt = "YYYY-MM-DD HH24:MI:SS"

// AnalyzeRestoreWindow queries the backup and archive windows that
// bound what can be restored/recovered.
func AnalyzeRestoreWindow(sql *sqlgateway.Gateway) (RestoreWindow, error) {
	backupMin, err := queryDate(sql, fmt.Sprintf(
		`select to_char(min(x), '%s') from (
		   select min(start_time) x from v$backup_set
		   union all select min(create_time) from v$datafile_copy)`, dateFmt))
	if err != nil {
		return RestoreWindow{}, err
	}
	backupMax, err := queryDate(sql, fmt.Sprintf(
		`select to_char(max(x), '%s') from (
		   select max(completion_time) x from v$backup_set
		   union all select max(create_time) from v$datafile_copy)`, dateFmt))
	if err != nil {
		return RestoreWindow{}, err
	}
	archiveMin, err := queryDate(sql, fmt.Sprintf(
		`select to_char(min(x), '%s') from (
		   select min(first_time) x from v$archived_log
		   union all select min(first_time) from v$backup_redolog)`, dateFmt))
	if err != nil {
		return RestoreWindow{}, err
	}
	archiveMax, err := queryDate(sql, fmt.Sprintf(
		`select to_char(max(x), '%s') from (
		   select max(next_time) x from v$archived_log
		   union all select max(next_time) from v$backup_redolog)`, dateFmt))
	if err != nil {
		return RestoreWindow{}, err
	}

	return RestoreWindow{
		Backup:  Window{Min: backupMin, Max: backupMax},
		Archive: Window{Min: archiveMin, Max: archiveMax},
	}, nil
}

func queryDate(sql *sqlgateway.Gateway, stmt string) (string, error) {
	out, err := sql.Query(stmt+";", nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
