package report

import (
	"fmt"
	"time"
)

// FormatDuration renders d as "Hh Mm Ss", "Mm Ss", or "Ss" -- the
// shared formatter spec §4.2 requires every duration in console and log
// output to use, whether emitted by the Report or the Process Executor.
func FormatDuration(d time.Duration) string {
	total := int(d.Round(time.Second).Seconds())
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
