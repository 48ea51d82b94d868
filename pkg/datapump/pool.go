package datapump

import (
	"os"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/cuemby/restoreorc/pkg/report"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
)

// Callback runs one batch item (typically shelling out to impdp/expdp
// through pkg/procexec) and returns its exit code.
type Callback func(index int, item string) int

// RunParallel runs callback over items with at most maxConcurrent
// in flight at once, and returns (total, success, failed) (spec §4.5
// "Concurrent batch execution", P8). Each item is tracked as a Report
// item so per-parfile outcomes show up in the final report.
func RunParallel(maxConcurrent int, items []string, callback Callback) (total, success, failed int) {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	total = len(items)
	if total == 0 {
		return 0, 0, 0
	}

	// Each batch gets its own correlation id so parfile-level log lines
	// from concurrent impdp/expdp runs can be grouped back together in
	// the final report even though items complete out of order.
	batchID := uuid.NewString()
	if r := report.Current(); r != nil {
		r.Meta("datapump_batch_id", batchID)
	}

	// A progress bar is only useful attached to a real terminal; a run
	// piping its output to a log file gets the same information through
	// Report items instead.
	var bar *pb.ProgressBar
	if isatty.IsTerminal(os.Stdout.Fd()) {
		bar = pb.StartNew(total)
		defer bar.Finish()
	}

	sem := make(chan struct{}, maxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, item := range items {
		sem <- struct{}{}
		wg.Add(1)
		go func(idx int, it string) {
			defer wg.Done()
			defer func() { <-sem }()

			code := callback(idx, it)

			mu.Lock()
			defer mu.Unlock()
			if code == 0 {
				success++
				report.TrackItem(report.ItemOK, it)
			} else {
				failed++
				report.TrackItem(report.ItemFail, it)
			}
			if bar != nil {
				bar.Increment()
			}
		}(i, item)
	}

	wg.Wait()
	return total, success, failed
}
