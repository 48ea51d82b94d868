package orchestrator

import (
	"fmt"
	"path/filepath"

	"github.com/cuemby/restoreorc/pkg/config"
	"github.com/cuemby/restoreorc/pkg/datapump"
	"github.com/cuemby/restoreorc/pkg/lockfile"
	"github.com/cuemby/restoreorc/pkg/report"
	"github.com/cuemby/restoreorc/pkg/rman"
	"github.com/cuemby/restoreorc/pkg/sqlgateway"
	"github.com/cuemby/restoreorc/pkg/statefile"
)

// Context bundles every component phase functions need, replacing the
// source tool's process-wide globals (spec §9). Exactly one Context
// exists per run; it is built once in New and threaded explicitly.
type Context struct {
	Config *config.Config
	Report *report.Report
	SQL    *sqlgateway.Gateway
	RMAN   *rman.Engine
	State  *statefile.State
	Lock   *lockfile.Lock

	DPTracker datapump.Tracker

	Credentials CredentialProvider
	Wallet      WalletProvider
	ObjectStore ObjectStoreProvider

	// Paths, resolved once in Phase A step 2.
	AdminDir   string
	DataDir    string
	FraDir     string
	ControlDir string

	// LogDir is <log-dir> from spec §6.2.
	LogDir string

	// DBID is set once discovered (Phase A step 3) or taken verbatim
	// from Config.DBID when the operator supplied it.
	DBID string
}

// New resolves paths and opens the session's Report, state file, and
// process lock. It does not run any phase.
func New(cfg *config.Config, sessionID string) (*Context, error) {
	sidDir := fmt.Sprintf("/tmp/restore_%s_logs", cfg.TargetSID)
	logDir := filepath.Join(sidDir, sessionID)

	lock, err := lockfile.Acquire(fmt.Sprintf("/tmp/restore_%s.lock", cfg.TargetSID))
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}

	r, err := report.Init("Oracle restore: "+cfg.TargetSID, logDir, sessionID)
	if err != nil {
		lock.Release()
		return nil, fmt.Errorf("failed to initialize report: %w", err)
	}
	r.SetAutoYes(cfg.AutoYes)

	state, err := statefile.Load(filepath.Join(logDir, "execution_state.sh"))
	if err != nil {
		lock.Release()
		return nil, fmt.Errorf("failed to load execution state: %w", err)
	}

	sql := sqlgateway.New(cfg.OracleHome)
	engine := rman.New(cfg.OracleHome, cfg.TargetSID, state)

	c := &Context{
		Config:      cfg,
		Report:      r,
		SQL:         sql,
		RMAN:        engine,
		State:       state,
		Lock:        lock,
		LogDir:      logDir,
		DBID:        cfg.DBID,
		Credentials: NullCredentialProvider{},
	}
	c.resolvePaths()
	return c, nil
}

// resolvePaths implements Phase A step 2.
func (c *Context) resolvePaths() {
	unq := c.Config.TargetDBUniqueName
	c.AdminDir = filepath.Join(c.Config.DestBase, "admin", unq, "adump")

	if c.Config.DestType == "ASM" {
		c.ControlDir = filepath.Join(c.Config.DestBase, "oradata", unq)
		c.DataDir = c.Config.DataDG
		c.FraDir = c.Config.FraDG
		return
	}
	c.DataDir = filepath.Join(c.Config.DestBase, "oradata", unq)
	c.FraDir = filepath.Join(c.Config.DestBase, "fra", unq)
	c.ControlDir = c.DataDir
}

// Close releases the run lock. The Report is finalized explicitly by
// the caller (Run), not here, since some callers want to inspect it
// first.
func (c *Context) Close() error {
	return c.Lock.Release()
}
