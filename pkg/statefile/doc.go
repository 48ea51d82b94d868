// Package statefile persists the orchestrator's execution state
// (spec §3.3) to <log-dir>/execution_state.sh -- a flat, shell-sourceable
// key=value file. It exists so a crashed or deliberately paused
// (DRY_RUN=1) run can be resumed later without redoing completed steps:
// the file is the only thing on disk the orchestrator consults to decide
// "have I already done this."
//
// Each step name in {PREVIEW, VALIDATE, CROSSCHECK, CATALOG, RESTORE,
// RECOVER} gets five keys: <step>_COMPLETED, <step>_EXIT_CODE,
// <step>_LOG, <step>_DURATION, <step>_TIMESTAMP. Every write (Set for one
// key, SetMany for several) re-serializes the whole in-memory key set,
// sorted by key, and replaces the file through fsutil.AtomicWriteFile,
// so a concurrent reader never observes a half-written file; the file
// on disk is not re-read before writing. Missing keys read back as the
// empty string rather than erroring.
package statefile
