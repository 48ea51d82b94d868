package orchestrator

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cuemby/restoreorc/pkg/report"
	"github.com/cuemby/restoreorc/pkg/rman"
	"github.com/cuemby/restoreorc/pkg/statefile"
)

// PhaseC runs Catalog & Preview (spec §4.6, steps 12-15): crosscheck,
// catalog, backup-type/window analysis, and script generation with
// operator preview.
func PhaseC(c *Context) error {
	report.TrackPhase("Catalog & Preview")

	if c.RMAN.TransformMap == nil {
		if err := step(c, "reload_discovery_map", func() error { return reloadDiscoveryMap(c) }); err != nil {
			return err
		}
	}
	if err := step(c, "crosscheck", func() error { return runCrosscheck(c) }); err != nil {
		return err
	}
	if err := step(c, "catalog", func() error { return runCatalog(c) }); err != nil {
		return err
	}
	if err := step(c, "detect_backup_type", func() error { return detectBackupType(c) }); err != nil {
		return err
	}
	if err := step(c, "generate_scripts", func() error { return generateScripts(c) }); err != nil {
		return err
	}
	return nil
}

func runCrosscheck(c *Context) error {
	channels := rman.ChannelCount(0)
	script := rman.GenerateCrosscheck(channels)
	cmdfile := filepath.Join(c.LogDir, "02a_crosscheck.rcv")
	if err := os.WriteFile(cmdfile, []byte(script), 0o644); err != nil {
		return err
	}
	logfile := filepath.Join(c.LogDir, "02a_crosscheck.log")
	code, err := c.RMAN.ExecWithState(statefile.StepCrosscheck, cmdfile, logfile, "crosscheck backup and copy", false)
	if err == nil && code == 0 {
		err = c.State.Set("CROSSCHECK_TIMESTAMP", formatEpoch(time.Now()))
	}
	if err == nil && code != 0 {
		return errExitCode("crosscheck", code)
	}
	return err
}

func runCatalog(c *Context) error {
	channels := rman.ChannelCount(0)
	script := rman.GenerateCatalog(c.Config.BackupRoot, channels)
	cmdfile := filepath.Join(c.LogDir, "02b_catalog.rcv")
	if err := os.WriteFile(cmdfile, []byte(script), 0o644); err != nil {
		return err
	}
	logfile := filepath.Join(c.LogDir, "02b_catalog.log")
	code, err := c.RMAN.ExecWithState(statefile.StepCatalog, cmdfile, logfile, "catalog backup pieces", false)
	if err != nil {
		return err
	}
	if code != 0 {
		return errExitCode("catalog", code)
	}

	count, countErr := countArchiveLogsUnderFRA(c)
	if countErr != nil {
		return countErr
	}
	return c.State.Set("CATALOG_ARCHIVELOG_COUNT", itoa(count))
}

func detectBackupType(c *Context) error {
	kind, err := rman.DetectCatalogKind(c.SQL)
	if err != nil {
		return err
	}
	report.TrackMeta("catalog_kind", string(kind))

	window, err := rman.AnalyzeRestoreWindow(c.SQL)
	if err != nil {
		return err
	}
	if err := c.State.SetMany(map[string]string{
		"PITR_ARCHIVE_MIN": window.Archive.Min,
		"PITR_ARCHIVE_MAX": window.Archive.Max,
		"PITR_BACKUP_MIN":  window.Backup.Min,
		"PITR_BACKUP_MAX":  window.Backup.Max,
	}); err != nil {
		return err
	}
	return nil
}

// generateScripts implements step 15: generate scripts 4-7 and the
// post-restore SQL, displaying each in preview form.
func generateScripts(c *Context) error {
	channels := rman.ChannelCount(0)
	m := c.RMAN.TransformMap
	spec := pitrSpec(c)

	files := map[string]string{
		"03_preview.rcv":      rman.GeneratePreview(m, channels),
		"04_validate.rcv":     rman.GenerateValidate(m, channels),
		"05_restore.rcv":      rman.GenerateRestore(m, spec, channels),
		"06_recover.rcv":      rman.GenerateRecover(spec, channels),
		"07_post_restore.sql": rman.GeneratePostRestoreSQL(m),
	}
	for name, content := range files {
		path := filepath.Join(c.LogDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
		if c.Report != nil {
			c.Report.Item(report.ItemOK, "generated "+name)
		}
	}
	return nil
}

func pitrSpec(c *Context) rman.PITRSpec {
	return rman.PITRSpec{UntilTime: c.Config.UntilTime, UntilSCN: c.Config.UntilSCN}
}
