package report

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"
)

// AggregateOp selects the reduction Aggregate applies across matching
// metric keys.
type AggregateOp string

const (
	AggSum   AggregateOp = "sum"
	AggAvg   AggregateOp = "avg"
	AggMax   AggregateOp = "max"
	AggMin   AggregateOp = "min"
	AggCount AggregateOp = "count"
)

// Aggregate applies a glob match (filepath.Match semantics) to metric
// keys and reduces the matches with op. It is a read-only query,
// intended for use after Finalize, though it works against a live tree
// too.
func (r *Report) Aggregate(pattern string, op AggregateOp) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var values []int
	for _, k := range r.metricsOrder {
		matched, err := filepath.Match(pattern, k)
		if err != nil {
			return 0, fmt.Errorf("invalid aggregate pattern %q: %w", pattern, err)
		}
		if matched {
			values = append(values, r.metrics[k])
		}
	}
	if len(values) == 0 {
		return 0, nil
	}

	switch op {
	case AggCount:
		return float64(len(values)), nil
	case AggSum:
		sum := 0
		for _, v := range values {
			sum += v
		}
		return float64(sum), nil
	case AggAvg:
		sum := 0
		for _, v := range values {
			sum += v
		}
		return float64(sum) / float64(len(values)), nil
	case AggMax:
		max := values[0]
		for _, v := range values[1:] {
			if v > max {
				max = v
			}
		}
		return float64(max), nil
	case AggMin:
		min := values[0]
		for _, v := range values[1:] {
			if v < min {
				min = v
			}
		}
		return float64(min), nil
	default:
		return 0, fmt.Errorf("%w: unknown aggregate op %q", ErrInvalidArgument, op)
	}
}

// TimelineEvent is one chronological entry in Timeline's merged stream.
type TimelineEvent struct {
	StepName string
	Kind     string // "start" or "end"
	At       time.Time
}

// Timeline merges every step's start/end events into a single
// chronological stream.
func (r *Report) Timeline() []TimelineEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	events := make([]TimelineEvent, 0, len(r.steps)*2)
	for _, s := range r.steps {
		events = append(events, TimelineEvent{StepName: s.Name, Kind: "start", At: s.Start})
		if !s.End.IsZero() {
			events = append(events, TimelineEvent{StepName: s.Name, Kind: "end", At: s.End})
		}
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].At.Before(events[j].At)
	})
	return events
}

// CriticalPathEntry names one of the slowest steps.
type CriticalPathEntry struct {
	StepName string
	Duration time.Duration
}

// CriticalPath returns the limit slowest steps, slowest first.
func (r *Report) CriticalPath(limit int) []CriticalPathEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make([]CriticalPathEntry, 0, len(r.steps))
	for _, s := range r.steps {
		if s.End.IsZero() {
			continue
		}
		entries = append(entries, CriticalPathEntry{StepName: s.Name, Duration: s.End.Sub(s.Start)})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Duration > entries[j].Duration
	})
	if limit >= 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}
