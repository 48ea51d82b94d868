package rman

import (
	"path/filepath"

	"github.com/cuemby/restoreorc/pkg/statefile"
)

// Engine bundles the RMAN Engine's per-restore-session state: the
// File Transformation Map, the discovered DBID, the cluster-detection
// cache, and the execution-state file every gated script goes
// through. One Engine is created per restore session; nothing in this
// package relies on global mutable state (spec §4.4 "State").
type Engine struct {
	OracleHome string
	TargetSID  string

	TransformMap *Map
	DBID         string
	IsCluster    bool

	State *statefile.State
}

// New creates an Engine rooted at oracleHome, with step state persisted
// in stateFile.
func New(oracleHome, targetSID string, state *statefile.State) *Engine {
	return &Engine{OracleHome: oracleHome, TargetSID: targetSID, State: state}
}

func (e *Engine) rmanPath() string {
	return filepath.Join(e.OracleHome, "bin", "rman")
}
