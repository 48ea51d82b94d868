package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestReport(t *testing.T) *Report {
	t.Helper()
	dir := t.TempDir()
	r, err := Init("Test Restore", dir, "20260730_000000")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	return r
}

func TestMetaMasksSecrets(t *testing.T) {
	r := newTestReport(t)
	r.Meta("TARGET_SID", "ORCLCLONE")
	r.Meta("SYS_PASSWORD", "hunter2")
	r.Phase("setup")
	r.Step("noop")
	r.StepDone(0)

	md := r.renderMarkdown(r.computeTotalsLocked())
	if !contains(md, "ORCLCLONE") {
		t.Error("expected plain metadata value to render")
	}
	if contains(md, "hunter2") {
		t.Error("expected SYS_PASSWORD value to be masked")
	}
	if !contains(md, "********") {
		t.Error("expected mask marker in rendered output")
	}
}

func TestItemRejectsInvalidStatus(t *testing.T) {
	r := newTestReport(t)
	r.Phase("p")
	r.Step("s")
	if err := r.Item(ItemStatus("bogus"), "x"); err == nil {
		t.Fatal("expected error for invalid item status")
	}
}

func TestMetricOps(t *testing.T) {
	r := newTestReport(t)
	r.Metric("dp_rows_imported", 10, MetricAdd)
	r.Metric("dp_rows_imported", 5, MetricAdd)
	if got := r.MetricValue("dp_rows_imported"); got != 15 {
		t.Errorf("add: got %d, want 15", got)
	}

	r.Metric("dp_avg_throughput_mbps", 20, MetricMax)
	r.Metric("dp_avg_throughput_mbps", 5, MetricMax)
	if got := r.MetricValue("dp_avg_throughput_mbps"); got != 20 {
		t.Errorf("max: got %d, want 20", got)
	}

	r.Metric("dp_min_thing", 20, MetricMin)
	r.Metric("dp_min_thing", 5, MetricMin)
	if got := r.MetricValue("dp_min_thing"); got != 5 {
		t.Errorf("min: got %d, want 5", got)
	}

	r.Metric("rman_channels_allocated", 4, MetricSet)
	r.Metric("rman_channels_allocated", 8, MetricSet)
	if got := r.MetricValue("rman_channels_allocated"); got != 8 {
		t.Errorf("set: got %d, want 8", got)
	}
}

func TestModuleSectionsOmitUnknownPrefixes(t *testing.T) {
	r := newTestReport(t)
	r.Metric("dp_rows_imported", 100, MetricAdd)
	r.Metric("totally_unknown_metric", 1, MetricSet)
	r.Phase("p")
	r.Step("s")
	r.StepDone(0)

	md := r.renderMarkdown(r.computeTotalsLocked())
	if !contains(md, "Data Pump Operations") {
		t.Error("expected Data Pump Operations section")
	}
	// The generic Metrics table lists every key; only the module
	// sections (from the first section heading up to "## Steps") omit it.
	start, end := strings.Index(md, "### Data Pump Operations"), strings.Index(md, "## Steps")
	if start < 0 || end < start {
		t.Fatalf("could not locate module sections in:\n%s", md)
	}
	if contains(md[start:end], "totally_unknown_metric") {
		t.Error("expected unknown-prefix metric to be omitted from module sections")
	}
}

func TestFinalizeIsPureAndIdempotent(t *testing.T) {
	dir := t.TempDir()
	r, err := Init("Test Restore", dir, "20260730_000000")
	if err != nil {
		t.Fatal(err)
	}
	r.Meta("TARGET_SID", "ORCLCLONE")
	r.Phase("catalog")
	r.Step("crosscheck")
	r.Item(ItemOK, "crosscheck ran")
	r.StepDone(0)

	path1, err := r.Finalize("markdown")
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	body1, _ := os.ReadFile(path1)

	path2, err := r.Finalize("markdown")
	if err != nil {
		t.Fatalf("second Finalize: %v", err)
	}
	body2, _ := os.ReadFile(path2)

	if string(body1) != string(body2) {
		t.Errorf("expected byte-identical Markdown across Finalize calls:\n%s\n---\n%s", body1, body2)
	}
}

func TestFinalizeWritesExpectedArtifactName(t *testing.T) {
	dir := t.TempDir()
	r, err := Init("Test Restore", dir, "20260730_120000")
	if err != nil {
		t.Fatal(err)
	}
	r.Phase("p")
	r.Step("s")
	r.StepDone(0)
	path, err := r.Finalize("json")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "20260730_120000_report.json" {
		t.Errorf("unexpected artifact name %q", filepath.Base(path))
	}
}

func TestTrackWrappersNoopWithoutInit(t *testing.T) {
	// There is no global Report installed by this test in isolation from
	// the package's other tests; TrackItem must not panic or error.
	if err := TrackItem(ItemOK, "anything"); err != nil {
		t.Errorf("expected TrackItem to no-op cleanly, got %v", err)
	}
	_ = TrackStep("noop")
	TrackStepDone(0)
	TrackMetric("x", 1, MetricSet)
	TrackMeta("k", "v")
	TrackPhase("p")
	TrackSection("s")
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (func() bool {
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				return true
			}
		}
		return false
	})()
}
