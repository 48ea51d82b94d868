package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// moduleSection maps a recognized metric key prefix to its display
// title and the per-key labels shown under it (spec §4.1 "Module
// sections"). Unknown prefixes are silently omitted from the report.
type moduleSection struct {
	prefix string
	title  string
	labels map[string]string
}

var moduleSections = []moduleSection{
	{
		prefix: "dp_",
		title:  "Data Pump Operations",
		labels: map[string]string{
			"dp_rows_imported":        "Rows imported",
			"dp_avg_throughput_mbps":  "Average throughput (MB/s)",
			"dp_tables_processed":     "Tables processed",
			"dp_duration_secs":        "Duration (s)",
			"dp_parfiles_total":       "Parfiles total",
			"dp_parfiles_success":     "Parfiles succeeded",
			"dp_parfiles_failed":      "Parfiles failed",
		},
	},
	{
		prefix: "sql_",
		title:  "SQL Operations",
		labels: map[string]string{
			"sql_queries_total":    "Queries executed",
			"sql_queries_failed":   "Queries failed",
			"sql_scripts_executed": "Scripts executed",
		},
	},
	{
		prefix: "rman_",
		title:  "RMAN Operations",
		labels: map[string]string{
			"rman_channels_allocated": "Channels allocated",
			"rman_scripts_executed":   "Scripts executed",
			"rman_warnings":           "Warnings detected",
		},
	},
	{
		prefix: "instance_",
		title:  "Instance Operations",
		labels: map[string]string{
			"instance_startups":  "Startups",
			"instance_shutdowns": "Shutdowns",
		},
	},
	{prefix: "env_", title: "Environment", labels: map[string]string{}},
	{prefix: "config_", title: "Configuration", labels: map[string]string{}},
	{prefix: "cluster_", title: "Cluster", labels: map[string]string{}},
}

func labelFor(sec moduleSection, key string) string {
	if l, ok := sec.labels[key]; ok {
		return l
	}
	return key
}

func maskValue(key, value string) string {
	if isSecretKey(key) {
		return "********"
	}
	return value
}

// Finalize computes totals, prints a console summary, and writes the
// persisted artifact. It is idempotent within a run (repeated calls
// re-render without mutating the tree further) but is intended to be
// called at most once per Report.
func (r *Report) Finalize(format string) (string, error) {
	r.mu.Lock()
	var totals Totals
	if r.finalized {
		totals = r.finalizedTotals
	} else {
		if r.currentStepIdx >= 0 && r.steps[r.currentStepIdx].Status == StepPending {
			r.stepDoneLocked(0, "")
		}
		totals = r.computeTotalsLocked()
		r.finalizedTotals = totals
		r.finalized = true
	}
	r.mu.Unlock()

	fmt.Println()
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("RESULT: %s\n", totals.FinalStatus)
	fmt.Printf("Phases: %d  Steps ok=%d failed=%d  Items ok=%d fail=%d skip=%d warn=%d  Elapsed: %s\n",
		totals.PhaseCount,
		totals.StepsByStatus[StepSuccess], totals.StepsByStatus[StepFailed],
		totals.ItemsByStatus[ItemOK], totals.ItemsByStatus[ItemFail],
		totals.ItemsByStatus[ItemSkip], totals.ItemsByStatus[ItemWarn],
		FormatDuration(time.Duration(totals.ElapsedSecs*float64(time.Second))))
	fmt.Println(strings.Repeat("=", 70))

	var (
		body []byte
		ext  string
		err  error
	)
	switch format {
	case "markdown":
		body = []byte(r.renderMarkdown(totals))
		ext = "md"
	case "json":
		body, err = r.renderJSON(totals)
		ext = "json"
	default:
		return "", fmt.Errorf("%w: unknown report format %q", ErrInvalidArgument, format)
	}
	if err != nil {
		return "", err
	}

	path := filepath.Join(r.outputDir, fmt.Sprintf("%s_report.%s", r.sessionID, ext))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report artifact %s: %w", path, err)
	}
	return path, nil
}

func (r *Report) renderMarkdown(totals Totals) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", r.title)
	fmt.Fprintf(&b, "- Session: %s\n", r.sessionID)
	fmt.Fprintf(&b, "- Date: %s\n", r.startTime.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Status: %s\n", totals.FinalStatus)
	fmt.Fprintf(&b, "- Duration: %s\n\n", FormatDuration(time.Duration(totals.ElapsedSecs*float64(time.Second))))

	if len(r.metaOrder) > 0 {
		b.WriteString("## Metadata\n\n| Key | Value |\n|---|---|\n")
		for _, k := range r.metaOrder {
			fmt.Fprintf(&b, "| %s | %s |\n", k, maskValue(k, r.meta[k]))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "| Phases | Steps OK | Steps Failed | Items OK | Items Fail | Items Skip | Items Warn |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %d | %d | %d |\n\n",
		totals.PhaseCount,
		totals.StepsByStatus[StepSuccess], totals.StepsByStatus[StepFailed],
		totals.ItemsByStatus[ItemOK], totals.ItemsByStatus[ItemFail],
		totals.ItemsByStatus[ItemSkip], totals.ItemsByStatus[ItemWarn])

	if len(r.metricsOrder) > 0 {
		b.WriteString("## Metrics\n\n| Key | Value |\n|---|---|\n")
		for _, k := range r.sortedMetricKeys() {
			fmt.Fprintf(&b, "| %s | %d |\n", k, r.metrics[k])
		}
		b.WriteString("\n")
	}

	for _, sec := range moduleSections {
		keys := r.metricKeysWithPrefix(sec.prefix)
		if len(keys) == 0 {
			continue
		}
		fmt.Fprintf(&b, "### %s\n\n| Metric | Value |\n|---|---|\n", sec.title)
		for _, k := range keys {
			fmt.Fprintf(&b, "| %s | %d |\n", labelFor(sec, k), r.metrics[k])
		}
		b.WriteString("\n")
	}

	b.WriteString("## Steps\n\n")
	for i, s := range r.steps {
		fmt.Fprintf(&b, "### [%d] %s %s\n\n", s.DisplayNum, s.Name, statusIcon(s.Status))
		fmt.Fprintf(&b, "- Duration: %s\n", FormatDuration(s.End.Sub(s.Start)))
		if s.Detail != "" {
			fmt.Fprintf(&b, "- Detail: %s\n", s.Detail)
		}
		for _, it := range r.items {
			if it.StepIndex != i {
				continue
			}
			fmt.Fprintf(&b, "  - %s **%s**", itemIcon(it.Status), it.Name)
			if it.Detail != "" {
				fmt.Fprintf(&b, " -- %s", it.Detail)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(r.confirmations) > 0 {
		b.WriteString("## Confirmations\n\n| Step | Kind | Prompt | Outcome |\n|---|---|---|---|\n")
		for _, c := range r.confirmations {
			stepName := "-"
			if c.StepIndex >= 0 && c.StepIndex < len(r.steps) {
				stepName = r.steps[c.StepIndex].Name
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", stepName, c.Kind, c.Prompt, c.Outcome)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "---\nLog directory: %s\n", r.outputDir)

	return b.String()
}

func (r *Report) metricKeysWithPrefix(prefix string) []string {
	var out []string
	for _, k := range r.sortedMetricKeys() {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

func statusIcon(s StepStatus) string {
	switch s {
	case StepSuccess:
		return "✅"
	case StepFailed:
		return "❌"
	default:
		return "…"
	}
}

// jsonReport is the wire shape written by renderJSON; it mirrors the
// Markdown structure field-for-field.
type jsonReport struct {
	Title         string            `json:"title"`
	Session       string            `json:"session"`
	Date          string            `json:"date"`
	Status        string            `json:"status"`
	DurationSecs  float64           `json:"duration_secs"`
	Meta          map[string]string `json:"meta"`
	Totals        jsonTotals        `json:"totals"`
	Metrics       map[string]int    `json:"metrics"`
	Phases        []string          `json:"phases"`
	Steps         []jsonStep        `json:"steps"`
	Confirmations []Confirmation    `json:"confirmations"`
	OutputDir     string            `json:"output_dir"`
}

type jsonTotals struct {
	StepsSuccess int `json:"steps_success"`
	StepsFailed  int `json:"steps_failed"`
	ItemsOK      int `json:"items_ok"`
	ItemsFail    int `json:"items_fail"`
	ItemsSkip    int `json:"items_skip"`
	ItemsWarn    int `json:"items_warn"`
}

type jsonStep struct {
	Name     string     `json:"name"`
	Display  int        `json:"display_num"`
	Status   StepStatus `json:"status"`
	Duration float64    `json:"duration_secs"`
	Detail   string     `json:"detail,omitempty"`
	Items    []Item     `json:"items,omitempty"`
}

func (r *Report) renderJSON(totals Totals) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	meta := map[string]string{}
	for _, k := range r.metaOrder {
		meta[k] = maskValue(k, r.meta[k])
	}

	phases := make([]string, len(r.phases))
	for i, p := range r.phases {
		phases[i] = p.Name
	}

	steps := make([]jsonStep, len(r.steps))
	for i, s := range r.steps {
		js := jsonStep{
			Name:     s.Name,
			Display:  s.DisplayNum,
			Status:   s.Status,
			Duration: s.End.Sub(s.Start).Seconds(),
			Detail:   s.Detail,
		}
		for _, it := range r.items {
			if it.StepIndex == i {
				js.Items = append(js.Items, it)
			}
		}
		steps[i] = js
	}

	metrics := map[string]int{}
	for _, k := range r.metricsOrder {
		metrics[k] = r.metrics[k]
	}

	out := jsonReport{
		Title:        r.title,
		Session:      r.sessionID,
		Date:         r.startTime.Format(time.RFC3339),
		Status:       totals.FinalStatus,
		DurationSecs: totals.ElapsedSecs,
		Meta:         meta,
		Totals: jsonTotals{
			StepsSuccess: totals.StepsByStatus[StepSuccess],
			StepsFailed:  totals.StepsByStatus[StepFailed],
			ItemsOK:      totals.ItemsByStatus[ItemOK],
			ItemsFail:    totals.ItemsByStatus[ItemFail],
			ItemsSkip:    totals.ItemsByStatus[ItemSkip],
			ItemsWarn:    totals.ItemsByStatus[ItemWarn],
		},
		Metrics:       metrics,
		Phases:        phases,
		Steps:         steps,
		Confirmations: r.confirmations,
		OutputDir:     r.outputDir,
	}

	body, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return body, nil
}
