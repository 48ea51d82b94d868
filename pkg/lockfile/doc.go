// Package lockfile implements the process-wide advisory lock the restore
// orchestrator uses to guarantee that exactly one run operates on a given
// target SID at a time (spec §5, §4.2 Lock). The lock is a plain file
// holding the owning pid; a stale lock left behind by a dead process is
// reaped automatically rather than blocking a fresh run forever.
package lockfile
