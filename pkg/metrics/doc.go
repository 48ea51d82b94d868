/*
Package metrics exposes restore-orchestrator progress as Prometheus
metrics, mirrored off the live pkg/report tree by a Collector running
on a ticker, the same interval-loop shape used elsewhere in this
codebase for anything that needs to sample live state on a schedule.

Unlike pkg/report, which renders a human-facing Markdown/JSON artifact
at the end of a run, this package exists so a restore long enough to
be worth watching (a multi-terabyte RMAN restore, a Data Pump batch
spanning hours) can be scraped mid-flight. The orchestrator starts a
Collector and, when --metrics-addr is configured, serves Handler() on
that address for the duration of the run; both are optional and a
restore that never enables metrics behaves identically otherwise.

Metric families cover the same module boundaries as pkg/report's
module sections: Data Pump job/row/throughput counters, SQL gateway
query counts and latency, RMAN channel allocation and warning counts,
process executor durations and failures, and coarse instance/phase
gauges for dashboards that want "what is restoreorc doing right now."

Counters only move forward; gauges reflect the most recent sample.
Collector.collect is deliberately conservative about what it mirrors --
it reads known metric keys off the Report rather than iterating every
key a future module might add, so an unrecognized metric simply isn't
exported rather than producing a metric name clash.
*/
package metrics
