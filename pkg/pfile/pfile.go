package pfile

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/a8m/envsubst"
)

// bootstrapTemplate is the skeleton emitted in Phase B step 6. It is
// intentionally minimal: just enough to STARTUP NOMOUNT and restore the
// real SPFILE from autobackup.
const bootstrapTemplate = `db_name='DUMMY'
db_unique_name='${UNQ}'
diagnostic_dest='${DEST_BASE}'
audit_file_dest='${ADMIN_DIR}'
control_files='${CONTROL_DIR}/control01.ctl','${CONTROL_DIR}/control02.ctl'
sga_target=${SGA_TARGET}
pga_aggregate_target=${PGA_TARGET}
processes=1500
cluster_database=FALSE
local_listener=''
`

// BootstrapVars is the variable set the bootstrap template requires.
type BootstrapVars struct {
	UNQ        string
	DestBase   string
	AdminDir   string
	ControlDir string
	SGATarget  string // Oracle-style literal, e.g. "4G"
	PGATarget  string
}

// RenderBootstrap renders the bootstrap PFILE (spec §4.6 step 6).
func RenderBootstrap(v BootstrapVars) (string, error) {
	return render(bootstrapTemplate, map[string]string{
		"UNQ":         v.UNQ,
		"DEST_BASE":   v.DestBase,
		"ADMIN_DIR":   v.AdminDir,
		"CONTROL_DIR": v.ControlDir,
		"SGA_TARGET":  v.SGATarget,
		"PGA_TARGET":  v.PGATarget,
	})
}

func render(tmpl string, vars map[string]string) (string, error) {
	out, err := envsubst.Eval(tmpl, func(key string) string {
		return vars[key]
	})
	if err != nil {
		return "", fmt.Errorf("failed to render PFILE template: %w", err)
	}
	return out, nil
}

var directiveRE = regexp.MustCompile(`^\s*([A-Za-z0-9_.*]+)\s*=\s*(.*?)\s*$`)

// Params is an ordered set of PFILE directives, preserving the order
// parameters were encountered so re-serialization stays close to the
// input (important for the db_name round-trip byte-equivalence
// requirement in spec §9).
type Params struct {
	order  []string
	values map[string]string
	// lines holds every input line in position order: comment/blank
	// lines verbatim, directives as a "\x00<key>" placeholder, so Render
	// can reproduce them; directives overwrite in place.
	lines []string
}

// Parse reads a PFILE's text into Params.
func Parse(content string) *Params {
	p := &Params{values: map[string]string{}}
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			p.lines = append(p.lines, line)
			continue
		}
		m := directiveRE.FindStringSubmatch(line)
		if m == nil {
			p.lines = append(p.lines, line)
			continue
		}
		key := normalizeKey(m[1])
		if _, exists := p.values[key]; !exists {
			p.order = append(p.order, key)
		}
		p.values[key] = m[2]
		p.lines = append(p.lines, "\x00"+key)
	}
	return p
}

// normalizeKey strips a leading "*." instance-qualifier, which Oracle
// PFILEs use interchangeably with the bare parameter name.
func normalizeKey(key string) string {
	return strings.TrimPrefix(key, "*.")
}

// Get returns the raw value text for key, and whether it was present.
func (p *Params) Get(key string) (string, bool) {
	v, ok := p.values[normalizeKey(key)]
	return v, ok
}

// Set assigns key=value, appending a new directive if key was not
// already present, or rewriting it in place (preserving its original
// position) if it was.
func (p *Params) Set(key, value string) {
	key = normalizeKey(key)
	if _, exists := p.values[key]; !exists {
		p.order = append(p.order, key)
		p.lines = append(p.lines, "\x00"+key)
	}
	p.values[key] = value
}

// Delete removes key if present.
func (p *Params) Delete(key string) {
	key = normalizeKey(key)
	delete(p.values, key)
	filtered := p.order[:0]
	for _, k := range p.order {
		if k != key {
			filtered = append(filtered, k)
		}
	}
	p.order = filtered
}

// DeleteHidden removes every underscore-prefixed ("hidden") parameter.
func (p *Params) DeleteHidden() {
	for _, k := range append([]string{}, p.order...) {
		if strings.HasPrefix(k, "_") {
			p.Delete(k)
		}
	}
}

// Render serializes Params back to PFILE text, preserving comment/blank
// lines and each directive's original position.
func (p *Params) Render() string {
	var b strings.Builder
	for _, line := range p.lines {
		if strings.HasPrefix(line, "\x00") {
			key := strings.TrimPrefix(line, "\x00")
			v, ok := p.values[key]
			if !ok {
				continue // deleted
			}
			fmt.Fprintf(&b, "%s=%s\n", key, v)
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// Keys returns the directive keys sorted alphabetically (for tests and
// diagnostics).
func (p *Params) Keys() []string {
	out := append([]string{}, p.order...)
	sort.Strings(out)
	return out
}

var dbNameRE = regexp.MustCompile(`(?m)^\s*\*?\.?db_name\s*=\s*(.+?)\s*$`)

// CaptureDBName extracts the db_name value from a raw PFILE dumped from
// the restored SPFILE, as required by spec §4.6 step 8.
func CaptureDBName(raw string) (string, error) {
	m := dbNameRE.FindStringSubmatch(raw)
	if m == nil {
		return "", fmt.Errorf("db_name not found in PFILE")
	}
	return m[1], nil
}

// SanitizeOptions carries the values the sanitizer enforces into the
// restore-safe PFILE (spec §4.6 step 8, §9).
type SanitizeOptions struct {
	OriginalDBName string // captured via CaptureDBName; written back byte-equivalent
	UNQ            string
	DestBase       string
	AdminDir       string
	ControlDir     string
	SGATarget      string
	PGATarget      string
	DropHidden     bool
}

// Sanitize rewrites raw (a PFILE dumped from the restored SPFILE) to be
// safe to mount the cloned instance with: db_name is restored
// byte-equivalently to OriginalDBName (spec §9's round-trip
// requirement), identity/path/memory parameters are overwritten, and
// hidden parameters are dropped when requested.
func Sanitize(raw string, opts SanitizeOptions) (string, error) {
	p := Parse(raw)

	if opts.OriginalDBName == "" {
		return "", fmt.Errorf("sanitize: OriginalDBName is required")
	}
	p.Set("db_name", opts.OriginalDBName)
	p.Set("db_unique_name", opts.UNQ)
	p.Set("diagnostic_dest", opts.DestBase)
	p.Set("audit_file_dest", opts.AdminDir)
	p.Set("control_files", fmt.Sprintf("'%s/control01.ctl','%s/control02.ctl'", opts.ControlDir, opts.ControlDir))
	if opts.SGATarget != "" {
		p.Set("sga_target", opts.SGATarget)
	}
	if opts.PGATarget != "" {
		p.Set("pga_aggregate_target", opts.PGATarget)
	}

	if opts.DropHidden {
		p.DeleteHidden()
	}

	return p.Render(), nil
}
