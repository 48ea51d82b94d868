// Package fsutil provides the small filesystem helpers the rest of the
// orchestrator needs that the standard library doesn't give for free:
// ensuring a directory tree exists, a depth-bounded file walk for backup
// discovery, and an atomic single-file write.
package fsutil
