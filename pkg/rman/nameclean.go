package rman

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	omfPattern = regexp.MustCompile(`^o1_mf_(.+)_[a-z0-9]+_\.dbf$`)
	asmPattern = regexp.MustCompile(`^([a-zA-Z_][a-zA-Z0-9_]*)\.\d+\.\d+$`)
	junkChars  = regexp.MustCompile(`[^a-zA-Z0-9_]`)
)

// CleanName derives a destination-safe basename from a source path
// (spec §4.4 "Name cleaning"):
//
//  1. If the filename matches an OMF datafile pattern
//     (o1_mf_<tag>_<suffix>_.dbf), take <tag>.
//  2. Else if it matches an ASM-style versioned name
//     (<name>.<incarnation>.<file>), take <name>.
//  3. Else strip the last extension.
//
// The result then has every character outside [a-zA-Z0-9_] stripped,
// and targetExt (lower-cased) is appended.
func CleanName(source, targetExt string) string {
	base := filepath.Base(source)

	var stem string
	switch {
	case omfPattern.MatchString(base):
		stem = omfPattern.FindStringSubmatch(base)[1]
	case asmPattern.MatchString(base):
		stem = asmPattern.FindStringSubmatch(base)[1]
	default:
		stem = strings.TrimSuffix(base, filepath.Ext(base))
	}

	stem = junkChars.ReplaceAllString(stem, "")
	return stem + "." + strings.ToLower(targetExt)
}
