// Package config resolves the flat, immutable-for-a-run configuration
// record (spec §3.1): built-in defaults, then /etc/restore.conf, then
// <ORACLE_HOME>/../etc/restore.conf (the "plugin" location), then the
// process environment, each layer overriding the last. Every field
// with a defined format is validated through pkg/validate before the
// orchestrator's state machine starts; LOG_LEVEL, UNTIL_TIME and
// METRICS_ADDR are taken as given.
package config
