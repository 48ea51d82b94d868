package datapump

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cuemby/restoreorc/pkg/report"
)

var (
	rowsPattern  = regexp.MustCompile(`(\d+)\s+rows`)
	bytesPattern = regexp.MustCompile(`(\d+)\s+bytes`)
)

// JobMetrics is what a Tracker extracts from one Data Pump job's log
// (spec §4.5 "Metrics").
type JobMetrics struct {
	RowsImported    int64
	ThroughputMBps  float64
	TablesProcessed int
	Duration        time.Duration
	HasErrors       bool
}

// Tracker accumulates metrics across every job in one batch so
// dp_avg_throughput_mbps can be recomputed as a running average on
// each sample -- an operation pkg/report's add/max/min/set ops don't
// express directly. One Tracker is scoped to one batch run.
type Tracker struct {
	mu              sync.Mutex
	throughputSum   float64
	throughputCount int
}

// HarvestMetrics scans a job's completed log, computes its metrics,
// and folds dp_rows_imported/dp_tables_processed/dp_duration_secs
// (add) and dp_avg_throughput_mbps (running average) into the Report.
func (t *Tracker) HarvestMetrics(r io.Reader, duration time.Duration) (JobMetrics, error) {
	m := JobMetrics{Duration: duration}
	var lastBytes int64

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		for _, match := range rowsPattern.FindAllStringSubmatch(line, -1) {
			if n, err := strconv.ParseInt(match[1], 10, 64); err == nil {
				m.RowsImported += n
			}
		}
		if match := bytesPattern.FindStringSubmatch(line); match != nil {
			if n, err := strconv.ParseInt(match[1], 10, 64); err == nil {
				lastBytes = n
			}
		}
		if strings.Contains(line, `Table "`) {
			m.TablesProcessed++
		}
		if strings.Contains(line, "ORA-") {
			m.HasErrors = true
		}
	}
	if err := scanner.Err(); err != nil {
		return m, err
	}

	if duration > 0 && lastBytes > 0 {
		m.ThroughputMBps = (float64(lastBytes) / (1024 * 1024)) / duration.Seconds()
	}

	report.TrackMetric("dp_rows_imported", int(m.RowsImported), report.MetricAdd)
	report.TrackMetric("dp_tables_processed", m.TablesProcessed, report.MetricAdd)
	report.TrackMetric("dp_duration_secs", int(duration.Seconds()), report.MetricAdd)
	t.trackAverageThroughput(m.ThroughputMBps)

	return m, nil
}

func (t *Tracker) trackAverageThroughput(sample float64) {
	if sample <= 0 {
		return
	}
	t.mu.Lock()
	t.throughputCount++
	t.throughputSum += sample
	avg := t.throughputSum / float64(t.throughputCount)
	t.mu.Unlock()
	report.TrackMetric("dp_avg_throughput_mbps", int(avg), report.MetricSet)
}

// FinalizeBatchCounts records the batch-level parfile tallies (spec
// §4.5: "dp_parfiles_total|success|failed (set at batch completion)").
func FinalizeBatchCounts(total, success, failed int) {
	report.TrackMetric("dp_parfiles_total", total, report.MetricSet)
	report.TrackMetric("dp_parfiles_success", success, report.MetricSet)
	report.TrackMetric("dp_parfiles_failed", failed, report.MetricSet)
}
