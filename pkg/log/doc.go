/*
Package log provides structured logging for the restore orchestrator using zerolog.

The log package wraps zerolog to provide JSON-structured logging with
component-specific child loggers, a configurable level, and helper functions
for the patterns the rest of the tree uses repeatedly: tagging a log line
with the current phase, step, or session id so a long restore run can be
grepped back into its timeline.

Usage:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
	})

	log.Info("restore orchestrator starting")

	phaseLog := log.WithPhase("catalog")
	phaseLog.Info().Str("session_id", sessionID).Msg("entering phase")

	err := errors.New("rman exited 1")
	log.Logger.Error().Err(err).Str("step", "RESTORE").Msg("step failed")

JSON format (production):

	{"level":"info","phase":"catalog","time":"2026-07-30T10:30:00Z","message":"entering phase"}

Console format (development, AUTO_YES-free interactive runs):

	2026-07-30T10:30:00Z INF entering phase phase=catalog session_id=20260730_103000

Every non-core component is expected to log through a `With*` child
logger rather than the bare global Logger, so a single `grep session_id=`
reconstructs one run's full timeline across phases.
*/
package log
