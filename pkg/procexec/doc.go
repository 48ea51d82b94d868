/*
Package procexec spawns and supervises external commands: rman,
sqlplus, impdp/expdp, free, and anything else the restore orchestrator
shells out to. It is the only package in this module that starts
child processes through os/exec (pkg/datapump's MonitorJob supervises
an *exec.Cmd handed to it); Phase A's "free -b" probe also runs
through Capture here.

Every executor here follows the same contract: never raise on a
non-zero exit, always return the exit code for the caller to inspect,
and always render durations through report.FormatDuration so console
and report output agree. ExecLogged and ExecSilent additionally emit
tracked steps through pkg/report's Track* wrappers, so callers get
console/report visibility for free instead of threading a *Report
handle through every call site.

Command lines are rendered for logging with go-shellquote, the same
library the other example repos reach for when a command needs to be
echoed back in a human-readable, copy-pasteable form.

Lock wraps pkg/lockfile to give callers a single import for "acquire
the process-wide advisory lock, defer the release."
*/
package procexec
