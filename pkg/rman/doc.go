/*
Package rman is the RMAN Engine: it owns the File Transformation Map,
generates the seven RMAN command scripts plus the post-restore SQL,
discovers autobackups under BACKUP_ROOT, classifies catalog contents,
validates point-in-time recovery bounds, and scans RMAN logs for
warnings against a whitelist.

State that would otherwise be module-global in the source (the
transformation map, the cluster-detection cache, the discovered DBID)
is carried explicitly on an *Engine value, one per restore session,
so nothing here depends on package-level mutable state.

ExecWithState is the one operation in this package that uses
pkg/statefile and the current *report.Report (for its preview
confirmation) directly; other operations only emit through the
report.Track* wrappers. It is the skip-if-done gate every RMAN script
execution in the orchestrator goes through.
*/
package rman
