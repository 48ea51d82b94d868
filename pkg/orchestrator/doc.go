// Package orchestrator implements the restore state machine (spec
// §4.6): four macro-phases (Validation & Discovery, Bootstrap &
// Metadata, Catalog & Preview, Validate & Restore) composed of
// explicit, individually resumable steps. It owns the Report's
// lifecycle and drives the Process Executor, SQL Gateway, RMAN Engine
// and Data Pump pool through one explicit Context rather than process
// globals (spec §9 "Globals → explicit context").
package orchestrator
