package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cuemby/restoreorc/pkg/report"
	"github.com/cuemby/restoreorc/pkg/rman"
	"github.com/cuemby/restoreorc/pkg/statefile"
)

const (
	defaultSpaceMarginPercent = 20
	defaultSpaceExtraGB       = 20
)

// PhaseD runs Validate & Restore (spec §4.6, steps 16-20): PITR
// validation, the divergence probe, then either a dry-run stop or the
// destructive restore/recover/open sequence.
func PhaseD(c *Context) error {
	report.TrackPhase("Validate & Restore")

	if err := step(c, "validate_pitr", func() error { return validatePITR(c) }); err != nil {
		return err
	}
	if err := step(c, "divergence_probe", func() error { return probeDivergence(c) }); err != nil {
		return err
	}

	if c.Config.DryRun == 1 {
		return runDryRunValidation(c)
	}
	return runDestructiveRestore(c)
}

func validatePITR(c *Context) error {
	if c.Config.UntilTime == "" && c.Config.UntilSCN == "" {
		return nil
	}
	window := rman.Window{Min: c.State.Get("PITR_ARCHIVE_MIN"), Max: c.State.Get("PITR_ARCHIVE_MAX")}
	return rman.ValidatePITR(pitrSpec(c), window)
}

func probeDivergence(c *Context) error {
	crosscheckedAt := time.Time{}
	if epoch := c.State.Get("CROSSCHECK_TIMESTAMP"); epoch != "" {
		if secs, err := strconv.ParseInt(epoch, 10, 64); err == nil {
			crosscheckedAt = time.Unix(secs, 0)
		}
	}
	recorded := c.State.GetInt("CATALOG_ARCHIVELOG_COUNT")
	staleAfter := time.Duration(c.Config.CatalogStaleSeconds) * time.Second

	probe, err := rman.CheckDivergence(crosscheckedAt, staleAfter, c.FraDir, recorded)
	if err != nil {
		return err
	}
	if !probe.Stale {
		return nil
	}

	if c.Report != nil {
		c.Report.Item(report.ItemWarn, "divergence_probe", probe.Reason)
	}
	if c.Report != nil && c.Report.Confirm("Catalog may be stale ("+probe.Reason+"). Re-crosscheck now?", "RECROSSCHECK") {
		return runCrosscheck(c)
	}
	return nil
}

// runDryRunValidation implements step 18 (DRY_RUN=1): preview then
// validate, each skip-if-done, then finalize.
func runDryRunValidation(c *Context) error {
	if err := step(c, "preview", func() error { return execRmanStep(c, statefile.StepPreview, "03_preview.rcv", false) }); err != nil {
		return err
	}
	if err := step(c, "validate", func() error { return execRmanStep(c, statefile.StepValidate, "04_validate.rcv", false) }); err != nil {
		return err
	}
	return finalize(c)
}

// runDestructiveRestore implements step 19 (DRY_RUN=0): space check,
// restore, recover, post-restore SQL, RESETLOGS, optional
// NOARCHIVELOG, final verification.
func runDestructiveRestore(c *Context) error {
	if err := step(c, "space_check", func() error { return checkRestoreSpace(c) }); err != nil {
		return err
	}
	if err := step(c, "restore", func() error { return execRmanStep(c, statefile.StepRestore, "05_restore.rcv", true) }); err != nil {
		return err
	}
	if err := step(c, "recover", func() error { return execRmanStep(c, statefile.StepRecover, "06_recover.rcv", true) }); err != nil {
		return err
	}
	if err := step(c, "rename_files", func() error { return applyFileRenames(c) }); err != nil {
		return err
	}
	if err := step(c, "open_resetlogs", func() error { return openResetlogs(c) }); err != nil {
		return err
	}
	if err := step(c, "noarchivelog", func() error { return maybeSwitchNoArchivelog(c) }); err != nil {
		return err
	}
	if err := step(c, "final_verification", func() error { return finalVerification(c) }); err != nil {
		return err
	}
	return finalize(c)
}

func execRmanStep(c *Context, stepName, scriptName string, force bool) error {
	cmdfile := filepath.Join(c.LogDir, scriptName)
	logfile := filepath.Join(c.LogDir, strings.TrimSuffix(scriptName, filepath.Ext(scriptName))+".log")
	code, err := c.RMAN.ExecWithState(stepName, cmdfile, logfile, scriptName, force)
	if err != nil {
		return err
	}
	if code != 0 {
		return errExitCode(scriptName, code)
	}
	return nil
}

// checkRestoreSpace implements the space check named in step 19:
// required = db_size_gb * (1 + margin/100) + extra_gb, compared
// against the filesystem available at DEST_BASE. ASM destinations
// skip the filesystem check; space accounting there is the disk
// group's own concern.
func checkRestoreSpace(c *Context) error {
	if c.Config.DestType == "ASM" {
		return nil
	}

	sizeStr, err := c.SQL.Query("select ceil(sum(bytes)/1024/1024/1024) from v$datafile;", nil)
	if err != nil {
		return fmt.Errorf("failed to query database size: %w", err)
	}
	dbSizeGB, err := strconv.ParseFloat(strings.TrimSpace(sizeStr), 64)
	if err != nil {
		return fmt.Errorf("unexpected database size output %q: %w", sizeStr, err)
	}

	requiredGB := dbSizeGB*(1+float64(defaultSpaceMarginPercent)/100) + float64(defaultSpaceExtraGB)

	var stat syscall.Statfs_t
	if err := syscall.Statfs(c.Config.DestBase, &stat); err != nil {
		return fmt.Errorf("failed to stat filesystem at %s: %w", c.Config.DestBase, err)
	}
	availableGB := float64(stat.Bavail) * float64(stat.Bsize) / (1024 * 1024 * 1024)

	if availableGB < requiredGB {
		return fmt.Errorf("insufficient space at %s: %.0f GiB available, %.0f GiB required", c.Config.DestBase, availableGB, requiredGB)
	}
	return nil
}

// applyFileRenames implements the REDO_LOG/TEMPFILE rename half of
// step 19, gated by a verbatim RENAME-FILES confirmation. A rename
// failing because the underlying file does not yet exist is a
// warning, not fatal (spec §7).
func applyFileRenames(c *Context) error {
	if c.Report != nil && !c.Report.Confirm("Apply redo/tempfile renames?", "RENAME-FILES") {
		return report.ErrOperatorDenied
	}

	m := c.RMAN.TransformMap
	path := filepath.Join(c.LogDir, "08_rename_files.sql")
	var b strings.Builder
	for _, e := range m.Entries {
		if e.Kind == rman.RedoLog || e.Kind == rman.Tempfile {
			fmt.Fprintf(&b, "alter database rename file '%s' to '%s';\n", e.Source, e.Dest)
		}
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return err
	}

	for _, e := range m.Entries {
		if e.Kind != rman.RedoLog && e.Kind != rman.Tempfile {
			continue
		}
		stmt := fmt.Sprintf("alter database rename file '%s' to '%s';", e.Source, e.Dest)
		if code, _, err := c.SQL.SysdbaExec(stmt, c.Config.TargetSID, 30, true); err != nil || code != 0 {
			detail := fmt.Sprintf("rename %s -> %s failed (file may not exist yet)", e.Source, e.Dest)
			if c.Report != nil {
				c.Report.Item(report.ItemWarn, "rename_files", detail)
			}
		}
	}
	return nil
}

func openResetlogs(c *Context) error {
	if c.Report != nil && !c.Report.Confirm("Open database with RESETLOGS?", "OPEN-RESETLOGS") {
		return report.ErrOperatorDenied
	}
	if _, _, err := c.SQL.SysdbaExec("alter database open resetlogs;", c.Config.TargetSID, 600, true); err != nil {
		return fmt.Errorf("open resetlogs failed: %w", err)
	}
	out, err := c.SQL.SysdbaQuery("select name, open_mode from v$database;", c.Config.TargetSID)
	if err != nil {
		return fmt.Errorf("failed to verify v$database after resetlogs: %w", err)
	}
	if c.Report != nil {
		c.Report.Item(report.ItemOK, "v$database", out)
	}
	return nil
}

func maybeSwitchNoArchivelog(c *Context) error {
	if c.Report == nil || !c.Report.Confirm("Switch to NOARCHIVELOG mode?", "NOARCHIVELOG") {
		return nil
	}
	for _, stmt := range []string{"shutdown immediate;", "startup mount;", "alter database noarchivelog;", "alter database open;"} {
		if _, _, err := c.SQL.SysdbaExec(stmt, c.Config.TargetSID, 300, true); err != nil {
			return fmt.Errorf("noarchivelog switch failed at %q: %w", stmt, err)
		}
	}
	return nil
}

func finalVerification(c *Context) error {
	queries := map[string]string{
		"v$instance":     "select status from v$instance;",
		"datafile_count": "select count(*) from v$datafile;",
		"tempfile_count": "select count(*) from v$tempfile;",
	}
	for name, q := range queries {
		out, err := c.SQL.SysdbaQuery(q, c.Config.TargetSID)
		if err != nil {
			return fmt.Errorf("final verification query %s failed: %w", name, err)
		}
		if c.Report != nil {
			c.Report.Item(report.ItemOK, name, out)
		}
	}
	return nil
}

func finalize(c *Context) error {
	if c.Report == nil {
		return nil
	}
	_, err := c.Report.Finalize("markdown")
	return err
}
