/*
Package datapump is the Data Pump Worker Pool: it prepares parfiles for
export/import/import-dumpfile/import-networklink jobs, acquires a
consistent SCN for network-link exports, categorizes tables by size
into "ant" and "elephant" buckets, runs a bounded-concurrency batch of
impdp/expdp jobs, coordinates producer/consumer handoff through a
ready-file protocol, and harvests per-job metrics into pkg/report.

run_parallel's OS-process-per-item model is expressed here as one
goroutine per item guarded by a buffered-channel semaphore: each
goroutine's callback still shells out to impdp/expdp through
pkg/procexec, which owns the actual child-process lifecycle (including
SIGTERM/SIGKILL), so process parallelism is preserved even though the
scheduling loop itself is goroutines rather than forked shell jobs.
*/
package datapump
