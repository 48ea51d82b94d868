// Package report is the Report Kernel (spec §4.1, C1): the single
// source of truth for what a restore run did and when. It tracks
// phases, steps, items, metrics, and operator confirmations, renders a
// live console view as the orchestrator progresses, and on Finalize
// writes a persisted Markdown or JSON artifact.
//
// A Report is created with Init and is single-owner: every mutating
// call is expected to come from the orchestrator's one calling
// goroutine, exactly as spec §5 requires. Background workers (the Data
// Pump pool) surface their outcomes through channels or ready-files and
// let the orchestrator call into the Report on their behalf.
//
// Other packages record progress through the package-level Track*
// functions (track.go), which forward to whichever *Report Init last
// installed and silently no-op if Init was never called -- the
// "graceful wrapper" spec §4.1 describes, so unit tests of C2-C5 in
// isolation don't need a live Report. The exceptions fetch the
// installed Report with Current(): rman's ExecWithState (for its
// preview confirmation), datapump's RunParallel and the pkg/metrics
// collector.
package report
