package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Data Pump metrics
	DataPumpRowsImported = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "restoreorc_datapump_rows_imported_total",
			Help: "Total rows imported by Data Pump jobs",
		},
	)

	DataPumpTablesProcessed = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "restoreorc_datapump_tables_processed",
			Help: "Tables processed by Data Pump category (ant/elephant)",
		},
		[]string{"category", "status"},
	)

	DataPumpJobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "restoreorc_datapump_job_duration_seconds",
			Help:    "Duration of individual Data Pump import jobs",
			Buckets: []float64{1, 5, 15, 30, 60, 180, 300, 600, 1800, 3600},
		},
		[]string{"category"},
	)

	DataPumpThroughputMBps = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "restoreorc_datapump_throughput_mbps",
			Help: "Most recently observed Data Pump import throughput in MB/s",
		},
	)

	DataPumpJobsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "restoreorc_datapump_jobs_failed_total",
			Help: "Total Data Pump jobs that ended in failure",
		},
	)

	// SQL gateway metrics
	SQLQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restoreorc_sql_queries_total",
			Help: "Total SQL statements executed by connection mode",
		},
		[]string{"mode", "status"},
	)

	SQLQueryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "restoreorc_sql_query_duration_seconds",
			Help:    "Duration of individual SQL*Plus invocations",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RMAN metrics
	RMANChannelsAllocated = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "restoreorc_rman_channels_allocated",
			Help: "Channels allocated by the most recent RMAN script",
		},
	)

	RMANScriptDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "restoreorc_rman_script_duration_seconds",
			Help:    "Duration of RMAN script execution by script kind",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600, 7200},
		},
		[]string{"script"},
	)

	RMANWarningsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "restoreorc_rman_warnings_total",
			Help: "Total warnings (non-whitelisted ORA-/RMAN- lines) observed in RMAN logs",
		},
	)

	// Process executor metrics
	ProcessExecDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "restoreorc_process_exec_duration_seconds",
			Help:    "Duration of spawned external commands by label",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"label"},
	)

	ProcessExecFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restoreorc_process_exec_failures_total",
			Help: "Total external command invocations that returned a non-zero exit code",
		},
		[]string{"label"},
	)

	// Orchestrator / instance-state metrics
	InstanceStateGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "restoreorc_instance_state",
			Help: "Observed instance state (1 = current state, 0 = otherwise) per state label",
		},
		[]string{"state"},
	)

	RestorePhaseGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "restoreorc_phase_active",
			Help: "Whether a named restore phase is currently active (1) or not (0)",
		},
		[]string{"phase"},
	)

	RestoreStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restoreorc_steps_total",
			Help: "Total steps completed by final status",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		DataPumpRowsImported,
		DataPumpTablesProcessed,
		DataPumpJobDuration,
		DataPumpThroughputMBps,
		DataPumpJobsFailed,
		SQLQueriesTotal,
		SQLQueryDuration,
		RMANChannelsAllocated,
		RMANScriptDuration,
		RMANWarningsTotal,
		ProcessExecDuration,
		ProcessExecFailuresTotal,
		InstanceStateGauge,
		RestorePhaseGauge,
		RestoreStepsTotal,
	)
}

// Handler returns the Prometheus HTTP handler, served by the
// orchestrator on a local port for the duration of a restore when
// --metrics-addr is set (§2 domain stack).
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
