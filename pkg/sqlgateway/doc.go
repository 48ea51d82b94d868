/*
Package sqlgateway is the typed interface to sqlplus: connecting with
a password, a wallet, or SYSDBA operating-system authentication,
running scripts and ad-hoc statements, and spooling query results to a
file.

A Gateway never raises on a failed SQL*Plus invocation -- every method
returns the child's exit code (via pkg/procexec) for the caller to
act on, matching the Process Executor's contract. SkipOracleCmds turns
every method into a no-op that reports success, for exercising the
orchestrator's phase logic in tests without a real database.

Connection strings are never logged verbatim: Gateway renders them
through Connection.redact before any log line or report detail mentions a
connection.
*/
package sqlgateway
