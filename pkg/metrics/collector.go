package metrics

import (
	"time"

	"github.com/cuemby/restoreorc/pkg/report"
)

// Collector mirrors the live Report's metrics into the Prometheus
// registry on a fixed interval, so a restore that runs long enough to
// be scraped exposes its progress without waiting for Finalize.
type Collector struct {
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{stopCh: make(chan struct{})}
}

// Start begins mirroring metrics every interval until Stop is called.
func (c *Collector) Start(interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	r := report.Current()
	if r == nil {
		return
	}

	if v := r.MetricValue("dp_avg_throughput_mbps"); v > 0 {
		DataPumpThroughputMBps.Set(float64(v))
	}
	if v := r.MetricValue("rman_channels_allocated"); v > 0 {
		RMANChannelsAllocated.Set(float64(v))
	}

	current := r.CurrentPhaseName()
	for _, name := range r.PhaseNames() {
		if name == current {
			RestorePhaseGauge.WithLabelValues(name).Set(1)
		} else {
			RestorePhaseGauge.WithLabelValues(name).Set(0)
		}
	}
}
