package validate

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
)

var sidRE = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// memValueRE matches "<uint>[GMK]" or a raw byte count.
var memValueRE = regexp.MustCompile(`^[0-9]+[GMKgmk]?$`)

// AbsPath requires value to be a non-empty absolute filesystem path, or
// an ASM disk group identifier beginning with "+".
func AbsPath(field, value string) error {
	if value == "" {
		return fmt.Errorf("%s: must not be empty", field)
	}
	if len(value) > 0 && value[0] == '+' {
		return nil
	}
	if !filepath.IsAbs(value) {
		return fmt.Errorf("%s: %q is not an absolute path", field, value)
	}
	return nil
}

// Enum requires value to be one of allowed.
func Enum(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s: %q is not one of %v", field, value, allowed)
}

// Bool01 requires value to be "0" or "1".
func Bool01(field, value string) error {
	return Enum(field, value, "0", "1")
}

// UnsignedInt requires value to parse as a non-negative integer.
func UnsignedInt(field, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: %q is not an integer", field, value)
	}
	if n < 0 {
		return fmt.Errorf("%s: %q must not be negative", field, value)
	}
	return nil
}

// SIDToken requires value to match [A-Za-z0-9_]+.
func SIDToken(field, value string) error {
	if !sidRE.MatchString(value) {
		return fmt.Errorf("%s: %q does not match [A-Za-z0-9_]+", field, value)
	}
	return nil
}

// MemoryValue requires value to be empty (meaning "auto-size") or of the
// form <uint>[GMK] / a raw byte count.
func MemoryValue(field, value string) error {
	if value == "" {
		return nil
	}
	if !memValueRE.MatchString(value) {
		return fmt.Errorf("%s: %q is not a valid memory size (expected <uint>[GMK])", field, value)
	}
	return nil
}

// DBID requires value to be empty or a 10-digit database identifier.
func DBID(field, value string) error {
	if value == "" {
		return nil
	}
	matched, _ := regexp.MatchString(`^[0-9]{10}$`, value)
	if !matched {
		return fmt.Errorf("%s: %q is not a 10-digit DBID", field, value)
	}
	return nil
}
