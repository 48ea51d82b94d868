package rman

import (
	"runtime"

	"github.com/cuemby/restoreorc/pkg/report"
)

const (
	minChannels = 4
	maxChannels = 8
)

// ChannelCount picks the RMAN channel allocation: min(8, cpu_count),
// clamped to a floor of 4 (spec §4.4 "Channel sizing"). A positive
// override short-circuits the calculation entirely. The chosen count
// is recorded as a report metric so pkg/metrics can mirror it.
func ChannelCount(override int) int {
	n := override
	if n <= 0 {
		n = runtime.NumCPU()
		if n > maxChannels {
			n = maxChannels
		}
		if n < minChannels {
			n = minChannels
		}
	}
	report.TrackMetric("rman_channels_allocated", n, report.MetricSet)
	return n
}
