package report

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cuemby/restoreorc/pkg/fsutil"
	"github.com/cuemby/restoreorc/pkg/log"
	"github.com/rs/zerolog"
)

// ErrInvalidArgument is returned by Item for an unrecognized status.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrOperatorDenied is returned when a confirmation is refused.
var ErrOperatorDenied = errors.New("operator denied confirmation")

// ErrRetypeMismatch is returned by ConfirmRetype on a non-matching
// reply; callers must treat it as fatal per spec §4.1.
var ErrRetypeMismatch = errors.New("retype confirmation did not match")

// StepStatus is the lifecycle state of a Step.
type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepSuccess StepStatus = "success"
	StepFailed  StepStatus = "failed"
)

// ItemStatus is the outcome of a single Item attached to a Step.
type ItemStatus string

const (
	ItemOK   ItemStatus = "ok"
	ItemFail ItemStatus = "fail"
	ItemSkip ItemStatus = "skip"
	ItemWarn ItemStatus = "warn"
)

// MetricOp selects how Metric combines a new value with any existing one.
type MetricOp string

const (
	MetricSet MetricOp = "set"
	MetricAdd MetricOp = "add"
	MetricMax MetricOp = "max"
	MetricMin MetricOp = "min"
)

// ConfirmKind is the flavor of operator confirmation recorded.
type ConfirmKind string

const (
	ConfirmPlain  ConfirmKind = "confirm"
	ConfirmRetype ConfirmKind = "retype"
	ConfirmSelect ConfirmKind = "select"
)

// Phase is one top-level stage of the run (spec §3.4).
type Phase struct {
	Name  string
	Start time.Time
}

// Step is one tracked unit of work within a phase.
type Step struct {
	PhaseIndex int
	Name       string
	DisplayNum int
	Status     StepStatus
	Start      time.Time
	End        time.Time
	Detail     string
}

// Item is one outcome attached to a step.
type Item struct {
	StepIndex int
	Status    ItemStatus
	Name      string
	Detail    string
}

// Confirmation is one recorded operator interaction.
type Confirmation struct {
	StepIndex int
	Kind      ConfirmKind
	Prompt    string
	Outcome   string
}

// Report is the in-memory tree described in spec §3.4. It is mutated
// throughout a run. Finalize freezes the computed totals but does not
// block later mutation of the tree.
type Report struct {
	mu sync.Mutex

	title     string
	sessionID string
	outputDir string
	startTime time.Time

	meta          map[string]string
	metaOrder     []string
	phases        []Phase
	steps         []Step
	items         []Item
	metrics       map[string]int
	metricsOrder  []string
	confirmations []Confirmation

	stepCounter    int
	currentStepIdx int // -1 when no step is open

	autoYes bool
	autoNo  bool

	finalized       bool
	finalizedTotals Totals

	logger zerolog.Logger
}

var (
	globalMu sync.Mutex
	current  *Report
)

// Init creates a new Report, installs it as the process-wide current
// Report for the Track* wrappers, and ensures outputDir exists.
// sessionID defaults to a YYYYMMDD_HHMMSS timestamp when empty.
func Init(title, outputDir, sessionID string) (*Report, error) {
	if sessionID == "" {
		sessionID = time.Now().Format("20060102_150405")
	}
	if err := fsutil.EnsureDir(outputDir); err != nil {
		return nil, fmt.Errorf("failed to initialize report output dir: %w", err)
	}

	r := &Report{
		title:          title,
		sessionID:      sessionID,
		outputDir:      outputDir,
		startTime:      time.Now(),
		meta:           map[string]string{},
		metrics:        map[string]int{},
		currentStepIdx: -1,
		logger:         log.WithSession(sessionID),
	}

	globalMu.Lock()
	current = r
	globalMu.Unlock()

	return r, nil
}

// Current returns the process-wide Report installed by the most recent
// Init call, or nil if none has run yet.
func Current() *Report {
	globalMu.Lock()
	defer globalMu.Unlock()
	return current
}

// SessionID returns the session identifier used for artifact naming.
func (r *Report) SessionID() string { return r.sessionID }

// OutputDir returns the directory artifacts are written under.
func (r *Report) OutputDir() string { return r.outputDir }

// SetAutoYes configures AUTO_YES=1 behavior for Confirm/Select.
func (r *Report) SetAutoYes(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autoYes = v
}

// SetAutoNo configures AUTO_NO=1 behavior for Confirm (test/CI seam).
func (r *Report) SetAutoNo(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.autoNo = v
}

func isSecretKey(key string) bool {
	up := strings.ToUpper(key)
	return strings.Contains(up, "PASSWORD") || strings.Contains(up, "SECRET")
}

// Meta sets a metadata key/value pair. Values whose key contains
// "PASSWORD" or "SECRET" are masked on render.
func (r *Report) Meta(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.meta[key]; !exists {
		r.metaOrder = append(r.metaOrder, key)
	}
	r.meta[key] = value
}

// Phase opens a new phase and prints a visual separator to the console.
func (r *Report) Phase(name string) {
	r.mu.Lock()
	r.phases = append(r.phases, Phase{Name: name, Start: time.Now()})
	r.mu.Unlock()

	sep := strings.Repeat("=", 70)
	fmt.Println()
	fmt.Println(sep)
	fmt.Printf("PHASE: %s\n", name)
	fmt.Println(sep)
	r.logger.Info().Str("phase", name).Msg("entering phase")
}

// Section opens a cosmetic subdivision within the current phase; it
// carries no persisted state.
func (r *Report) Section(title string) {
	fmt.Println()
	fmt.Printf("--- %s ---\n", title)
}

// Step opens a new step, returning its display number (1-based, used
// for console numbering).
func (r *Report) Step(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	phaseIdx := len(r.phases) - 1
	r.stepCounter++
	r.steps = append(r.steps, Step{
		PhaseIndex: phaseIdx,
		Name:       name,
		DisplayNum: r.stepCounter,
		Status:     StepPending,
		Start:      time.Now(),
	})
	r.currentStepIdx = len(r.steps) - 1

	fmt.Printf("[%d] %s ... ", r.stepCounter, name)
	return r.currentStepIdx
}

// StepDone closes the most recently opened step.
func (r *Report) StepDone(exitCode int, detail ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stepDoneLocked(exitCode, joinDetail(detail))
}

func (r *Report) stepDoneLocked(exitCode int, detail string) {
	if r.currentStepIdx < 0 {
		return
	}
	s := &r.steps[r.currentStepIdx]
	s.End = time.Now()
	s.Detail = detail
	if exitCode == 0 {
		s.Status = StepSuccess
	} else {
		s.Status = StepFailed
	}

	dur := s.End.Sub(s.Start)
	if s.Status == StepSuccess {
		fmt.Printf("OK (%s)\n", FormatDuration(dur))
	} else {
		fmt.Printf("FAILED exit=%d (%s)\n", exitCode, FormatDuration(dur))
	}
	if detail != "" {
		fmt.Printf("      %s\n", detail)
	}

	r.logger.Info().
		Str("step", s.Name).
		Str("status", string(s.Status)).
		Int("exit_code", exitCode).
		Dur("duration", dur).
		Msg("step finished")
}

func joinDetail(detail []string) string {
	if len(detail) == 0 {
		return ""
	}
	return strings.Join(detail, " ")
}

// Item attaches an outcome to the most-recently opened step.
func (r *Report) Item(status ItemStatus, name string, detail ...string) error {
	switch status {
	case ItemOK, ItemFail, ItemSkip, ItemWarn:
	default:
		return fmt.Errorf("%w: unknown item status %q", ErrInvalidArgument, status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, Item{
		StepIndex: r.currentStepIdx,
		Status:    status,
		Name:      name,
		Detail:    joinDetail(detail),
	})

	icon := itemIcon(status)
	fmt.Printf("      %s %s\n", icon, name)
	return nil
}

func itemIcon(status ItemStatus) string {
	switch status {
	case ItemOK:
		return "[ok]"
	case ItemFail:
		return "[FAIL]"
	case ItemSkip:
		return "[skip]"
	case ItemWarn:
		return "[warn]"
	default:
		return "[?]"
	}
}

// Metric updates a metric according to op.
func (r *Report) Metric(key string, value int, op MetricOp) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.metrics[key]
	if !exists {
		r.metricsOrder = append(r.metricsOrder, key)
	}

	switch op {
	case MetricSet:
		r.metrics[key] = value
	case MetricAdd:
		if !exists {
			r.metrics[key] = 0
		}
		r.metrics[key] += value
	case MetricMax:
		if !exists {
			r.metrics[key] = value
		} else if value > r.metrics[key] {
			r.metrics[key] = value
		}
	case MetricMin:
		if !exists {
			r.metrics[key] = value
		} else if value < r.metrics[key] {
			r.metrics[key] = value
		}
	}
}

// MetricValue returns the current value of key (0 if unset), mostly for
// tests and the analysis queries.
func (r *Report) MetricValue(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.metrics[key]
}

// CurrentPhaseName returns the name of the most recently opened phase,
// or "" if none has been opened yet.
func (r *Report) CurrentPhaseName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.phases) == 0 {
		return ""
	}
	return r.phases[len(r.phases)-1].Name
}

// PhaseNames returns every phase name opened so far, in order.
func (r *Report) PhaseNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.phases))
	for i, p := range r.phases {
		out[i] = p.Name
	}
	return out
}

// Totals is the summary computed at Finalize.
type Totals struct {
	PhaseCount    int
	StepsByStatus map[StepStatus]int
	ItemsByStatus map[ItemStatus]int
	ElapsedSecs   float64
	FinalStatus   string
}

func (r *Report) computeTotalsLocked() Totals {
	t := Totals{
		PhaseCount:    len(r.phases),
		StepsByStatus: map[StepStatus]int{},
		ItemsByStatus: map[ItemStatus]int{},
		ElapsedSecs:   time.Since(r.startTime).Seconds(),
	}
	for _, s := range r.steps {
		t.StepsByStatus[s.Status]++
	}
	for _, it := range r.items {
		t.ItemsByStatus[it.Status]++
	}
	if t.StepsByStatus[StepFailed] == 0 && t.ItemsByStatus[ItemFail] == 0 {
		t.FinalStatus = "SUCCESS"
	} else {
		t.FinalStatus = "COMPLETED WITH ERRORS"
	}
	return t
}

// sortedMetricKeys returns metric keys in deterministic (alphabetical)
// order, required for Finalize to be a pure function of the tree (P7).
func (r *Report) sortedMetricKeys() []string {
	keys := append([]string{}, r.metricsOrder...)
	sort.Strings(keys)
	return keys
}
