package orchestrator

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cuemby/restoreorc/pkg/fsutil"
	"github.com/cuemby/restoreorc/pkg/pfile"
	"github.com/cuemby/restoreorc/pkg/report"
	"github.com/cuemby/restoreorc/pkg/rman"
)

// PhaseB runs Bootstrap & Metadata (spec §4.6, steps 6-11): it writes
// a skeleton PFILE, restores the real SPFILE/controlfile through
// RMAN, sanitizes the restored PFILE, recycles the instance onto it,
// mounts the controlfile, and spools the discovery map.
func PhaseB(c *Context) error {
	report.TrackPhase("Bootstrap & Metadata")

	if err := step(c, "write_bootstrap_pfile", func() error { return writeBootstrapPFILE(c) }); err != nil {
		return err
	}
	if err := step(c, "startup_nomount_bootstrap", func() error { return startupNomount(c, bootstrapPFILEPath(c)) }); err != nil {
		return err
	}
	if err := step(c, "restore_spfile_controlfile", func() error { return runBootstrapScript(c) }); err != nil {
		return err
	}
	if err := step(c, "sanitize_pfile", func() error { return sanitizePFILE(c) }); err != nil {
		return err
	}
	if err := step(c, "recycle_instance", func() error { return recycleInstance(c) }); err != nil {
		return err
	}
	if err := step(c, "mount_controlfile", func() error { return copyControlfileAndMount(c) }); err != nil {
		return err
	}
	if err := step(c, "generate_discovery_map", func() error { return generateDiscoveryMap(c) }); err != nil {
		return err
	}
	return nil
}

func bootstrapPFILEPath(c *Context) string {
	return fmt.Sprintf("/tmp/init_%s_bootstrap.ora", c.Config.TargetSID)
}

func rawPFILEPath(c *Context) string {
	return fmt.Sprintf("/tmp/pfile_raw_%s.ora", c.Config.TargetSID)
}

func cleanPFILEPath(c *Context) string {
	return fmt.Sprintf("/tmp/init_%s_clean.ora", c.Config.TargetSID)
}

func writeBootstrapPFILE(c *Context) error {
	text, err := pfile.RenderBootstrap(pfile.BootstrapVars{
		UNQ:        c.Config.TargetDBUniqueName,
		DestBase:   c.Config.DestBase,
		AdminDir:   c.AdminDir,
		ControlDir: c.ControlDir,
		SGATarget:  c.Config.SGATarget,
		PGATarget:  c.Config.PGATarget,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(bootstrapPFILEPath(c), []byte(text), 0o644)
}

func startupNomount(c *Context, pfilePath string) error {
	code, _, err := c.SQL.SysdbaExec(
		fmt.Sprintf("startup nomount pfile='%s';", pfilePath), c.Config.TargetSID, 300, true)
	if err != nil {
		return fmt.Errorf("startup nomount failed: %w", err)
	}
	if code != 0 {
		return fmt.Errorf("startup nomount exited %d", code)
	}
	return nil
}

func shutdownAbort(c *Context) error {
	_, _, err := c.SQL.SysdbaExec("shutdown abort;", c.Config.TargetSID, 60, true)
	return err
}

func runBootstrapScript(c *Context) error {
	channels := rman.ChannelCount(0)
	script := rman.GenerateBootstrap(c.DBID, c.ControlDir, channels)
	cmdfile := filepath.Join(c.LogDir, "01_bootstrap.rcv")
	if err := os.WriteFile(cmdfile, []byte(script), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", cmdfile, err)
	}
	logfile := filepath.Join(c.LogDir, "01_bootstrap.log")
	code, err := c.RMAN.ExecWithState("BOOTSTRAP", cmdfile, logfile, "restore spfile and controlfile", false)
	if err == nil && code != 0 {
		err = fmt.Errorf("bootstrap script exited %d", code)
	}
	return err
}

// sanitizePFILE implements step 8: dump a PFILE from the restored
// SPFILE, capture its db_name, and rewrite it into a restore-safe
// PFILE (spec §9's byte-equivalent db_name round-trip).
func sanitizePFILE(c *Context) error {
	if _, _, err := c.SQL.SysdbaExec(
		fmt.Sprintf("create pfile='%s' from spfile;", rawPFILEPath(c)), c.Config.TargetSID, 60, true); err != nil {
		return fmt.Errorf("create pfile from spfile failed: %w", err)
	}

	raw, err := os.ReadFile(rawPFILEPath(c))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", rawPFILEPath(c), err)
	}
	dbName, err := pfile.CaptureDBName(string(raw))
	if err != nil {
		return err
	}

	clean, err := pfile.Sanitize(string(raw), pfile.SanitizeOptions{
		OriginalDBName: dbName,
		UNQ:            c.Config.TargetDBUniqueName,
		DestBase:       c.Config.DestBase,
		AdminDir:       c.AdminDir,
		ControlDir:     c.ControlDir,
		SGATarget:      c.Config.SGATarget,
		PGATarget:      c.Config.PGATarget,
		DropHidden:     c.Config.SanitizeDropHidden,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(cleanPFILEPath(c), []byte(clean), 0o644)
}

// recycleInstance implements step 9.
func recycleInstance(c *Context) error {
	if err := shutdownAbort(c); err != nil {
		return err
	}
	if err := startupNomount(c, cleanPFILEPath(c)); err != nil {
		return err
	}
	if _, _, err := c.SQL.SysdbaExec("create spfile from pfile;", c.Config.TargetSID, 60, true); err != nil {
		return fmt.Errorf("create spfile from pfile failed: %w", err)
	}
	if err := shutdownAbort(c); err != nil {
		return err
	}
	return startupNomount(c, cleanPFILEPath(c))
}

// copyControlfileAndMount implements step 10.
func copyControlfileAndMount(c *Context) error {
	if !fsutil.IsASMPath(c.ControlDir) {
		src := filepath.Join(c.ControlDir, "control01.ctl")
		dst := filepath.Join(c.ControlDir, "control02.ctl")
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", src, err)
		}
		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", dst, err)
		}
	}
	if _, _, err := c.SQL.SysdbaExec("alter database mount;", c.Config.TargetSID, 120, true); err != nil {
		return fmt.Errorf("alter database mount failed: %w", err)
	}
	return nil
}

// generateDiscoveryMap implements step 11: spool the three-section
// discovery file, then build the deterministic transformation map.
func generateDiscoveryMap(c *Context) error {
	discoveryFile := discoveryFilePath(c)
	if err := c.SQL.Spool(discoveryFile, discoverySQL(), c.Config.TargetSID, 0, 32767); err != nil {
		return fmt.Errorf("failed to spool discovery map: %w", err)
	}
	return reloadDiscoveryMap(c)
}

func discoveryFilePath(c *Context) string {
	return filepath.Join(c.LogDir, fmt.Sprintf("discovery_%s.txt", c.Config.TargetSID))
}

// reloadDiscoveryMap rebuilds the in-memory transform map from the
// already-spooled discovery file, used both right after Phase B's
// spool and when a resumed run re-enters Phase C in a fresh process
// that never ran Phase B this time.
func reloadDiscoveryMap(c *Context) error {
	discoveryFile := discoveryFilePath(c)
	f, err := os.Open(discoveryFile)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", discoveryFile, err)
	}
	defer f.Close()

	entries, err := rman.ParseDiscoveryMap(bufio.NewScanner(f))
	if err != nil {
		return fmt.Errorf("failed to parse discovery map: %w", err)
	}

	cfg := rman.Config{
		DestType: rman.DestType(c.Config.DestType),
		DestBase: c.Config.DestBase,
		UnqName:  c.Config.TargetDBUniqueName,
		DataDG:   c.Config.DataDG,
		FraDG:    c.Config.FraDG,
	}
	m, err := rman.Build(cfg, entries)
	if err != nil {
		return err
	}
	c.RMAN.TransformMap = m
	return nil
}

// discoverySQL is the spool script emitting the three discovery
// sections (spec §4.4); it queries v$datafile/v$tempfile for
// DATAFILES/TEMPFILES and v$log/v$logfile for REDO.
func discoverySQL() string {
	var b strings.Builder
	b.WriteString("SELECT '--DATAFILES--' FROM dual;\n")
	b.WriteString("SELECT file# || '|' || name FROM v$datafile ORDER BY file#;\n")
	b.WriteString("SELECT '--TEMPFILES--' FROM dual;\n")
	b.WriteString("SELECT file# || '|' || name FROM v$tempfile ORDER BY file#;\n")
	b.WriteString("SELECT '--REDO--' FROM dual;\n")
	b.WriteString("SELECT l.group# || '|' || lf.member || '|' || l.thread# FROM v$log l JOIN v$logfile lf ON lf.group# = l.group# ORDER BY l.group#, lf.member;\n")
	return b.String()
}
