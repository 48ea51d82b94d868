package statefile

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cuemby/restoreorc/pkg/fsutil"
)

// Step names recognized by the orchestrator (spec §3.3).
const (
	StepPreview    = "PREVIEW"
	StepValidate   = "VALIDATE"
	StepCrosscheck = "CROSSCHECK"
	StepCatalog    = "CATALOG"
	StepRestore    = "RESTORE"
	StepRecover    = "RECOVER"
)

var lineRE = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)="((?:[^"\\]|\\.)*)"\s*$`)

// State is an in-memory view of execution_state.sh, backed by a file on
// disk. All mutation goes through Set or SetMany, which rewrite the whole
// file from memory with an atomic replace, so it is atomic from a
// reader's perspective.
type State struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// Load reads path into memory, creating an empty State if the file does
// not yet exist (it is created lazily on first Set).
func Load(path string) (*State, error) {
	s := &State{path: path, values: map[string]string{}}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file %s: %w", path, err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := lineRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		s.values[m[1]] = unescape(m[2])
	}
	return s, nil
}

// Get returns the value of key, or "" if unset.
func (s *State) Get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// GetBool reports whether key holds the string "1".
func (s *State) GetBool(key string) bool {
	return s.Get(key) == "1"
}

// GetInt parses key as an integer, returning 0 if unset or unparsable.
func (s *State) GetInt(key string) int {
	v, err := strconv.Atoi(s.Get(key))
	if err != nil {
		return 0
	}
	return v
}

// Set assigns key=value and persists the whole file atomically.
func (s *State) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.flushLocked()
}

// SetMany assigns several keys in one atomic write.
func (s *State) SetMany(kv map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range kv {
		s.values[k] = v
	}
	return s.flushLocked()
}

func (s *State) flushLocked() error {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=\"%s\"\n", k, escape(s.values[k]))
	}
	if err := fsutil.AtomicWriteFile(s.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to persist state file %s: %w", s.path, err)
	}
	return nil
}

func escape(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return v
}

func unescape(v string) string {
	var b strings.Builder
	esc := false
	for _, r := range v {
		if esc {
			b.WriteRune(r)
			esc = false
			continue
		}
		if r == '\\' {
			esc = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// StepResult is the persisted outcome of a single gated step.
type StepResult struct {
	Completed bool
	ExitCode  int
	Log       string
	Duration  time.Duration
	Timestamp time.Time
}

// Step returns the persisted result for name, zero-valued if the step
// has never run.
func (s *State) Step(name string) StepResult {
	var r StepResult
	r.Completed = s.GetBool(name + "_COMPLETED")
	r.ExitCode = s.GetInt(name + "_EXIT_CODE")
	r.Log = s.Get(name + "_LOG")
	if d := s.GetInt(name + "_DURATION"); d > 0 {
		r.Duration = time.Duration(d) * time.Second
	}
	if ts := s.GetInt(name + "_TIMESTAMP"); ts > 0 {
		r.Timestamp = time.Unix(int64(ts), 0)
	}
	return r
}

// MarkStep persists a step's outcome in a single atomic write.
func (s *State) MarkStep(name string, exitCode int, logPath string, duration time.Duration) error {
	completed := "0"
	if exitCode == 0 {
		completed = "1"
	}
	return s.SetMany(map[string]string{
		name + "_COMPLETED": completed,
		name + "_EXIT_CODE": strconv.Itoa(exitCode),
		name + "_LOG":       logPath,
		name + "_DURATION":  strconv.Itoa(int(duration.Seconds())),
		name + "_TIMESTAMP": strconv.FormatInt(time.Now().Unix(), 10),
	})
}

// IsCompleted is a convenience wrapper used by skip-if-done checks.
func (s *State) IsCompleted(name string) bool {
	return s.GetBool(name + "_COMPLETED")
}
