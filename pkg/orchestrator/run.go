package orchestrator

import (
	"fmt"
)

// entryPoint is the macro-phase a run begins at, decided by Run before
// any phase function executes (spec §4.6 "Entry points").
type entryPoint string

const (
	entryPhaseA entryPoint = "A"
	entryPhaseB entryPoint = "B"
	entryPhaseC entryPoint = "C"
	entryDone   entryPoint = "DONE"
)

// Run drives the full state machine: it decides the entry point, then
// runs every phase from there through completion (or through whichever
// DRY_RUN stop point applies).
func Run(c *Context) error {
	entry, err := resolveEntryPoint(c)
	if err != nil {
		return err
	}
	if entry == entryDone {
		return nil
	}
	if entry != entryPhaseA && c.DBID == "" {
		c.DBID = c.State.Get("DBID")
		c.RMAN.DBID = c.DBID
	}

	if entry == entryPhaseA {
		if err := PhaseA(c); err != nil {
			return err
		}
		if c.Config.DryRun == 2 {
			return finalize(c)
		}
	}
	if entry == entryPhaseA || entry == entryPhaseB {
		if err := PhaseB(c); err != nil {
			return err
		}
	}
	if err := PhaseC(c); err != nil {
		return err
	}
	return PhaseD(c)
}

// resolveEntryPoint implements RESUME_FROM and CONTINUE_MODE (spec
// §4.6 "Entry points"). Cold start (neither set) always begins at
// Phase A.
func resolveEntryPoint(c *Context) (entryPoint, error) {
	switch c.Config.ResumeFrom {
	case "catalog":
		return entryPhaseC, nil
	case "restore", "recover":
		// Both enter at Phase C: its CROSSCHECK and CATALOG steps are
		// skipped when already completed, and generate_scripts writes
		// the restore/recover command files into this run's log
		// directory before Phase D executes them.
		return entryPhaseC, nil
	}

	if !c.Config.ContinueMode {
		return entryPhaseA, nil
	}

	state, err := ProbeInstanceState(c.SQL, c.Config.TargetSID)
	if err != nil {
		return "", err
	}
	if state == StateDown {
		return entryPhaseA, nil
	}

	out, err := c.SQL.SysdbaQuery("select status from v$instance;", c.Config.TargetSID)
	if err != nil {
		// SQL probe failed but PMON exists: treated as NOMOUNT (spec
		// §4.6 CONTINUE_MODE).
		return entryPhaseB, nil
	}
	switch out {
	case "OPEN":
		return entryDone, nil
	case "MOUNTED":
		return entryPhaseC, nil
	case "STARTED":
		return entryPhaseB, nil
	default:
		return "", fmt.Errorf("unrecognized v$instance.status %q during CONTINUE_MODE probe", out)
	}
}
