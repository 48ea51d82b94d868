package rman

import (
	"fmt"
	"strconv"
	"time"
)

// PITRSpec is the at-most-one-of UNTIL_TIME/UNTIL_SCN request an
// operator may supply.
type PITRSpec struct {
	UntilTime string // "YYYY-MM-DD HH24:MI:SS"
	UntilSCN  string
}

const pitrTimeLayout = "2006-01-02 15:04:05"

// ValidatePITR enforces spec §4.4 "PITR validation": at most one of
// UntilTime/UntilSCN, UntilTime must fall inside the archive window,
// and UntilSCN must be numeric.
func ValidatePITR(spec PITRSpec, archive Window) error {
	if spec.UntilTime == "" && spec.UntilSCN == "" {
		return nil
	}
	if spec.UntilTime != "" && spec.UntilSCN != "" {
		return fmt.Errorf("specify at most one of UNTIL_TIME or UNTIL_SCN, not both")
	}

	if spec.UntilSCN != "" {
		if _, err := strconv.ParseInt(spec.UntilSCN, 10, 64); err != nil {
			return fmt.Errorf("UNTIL_SCN must be a positive integer, got %q", spec.UntilSCN)
		}
		return nil
	}

	target, err := time.Parse(pitrTimeLayout, spec.UntilTime)
	if err != nil {
		return fmt.Errorf("UNTIL_TIME must match %q, got %q", pitrTimeLayout, spec.UntilTime)
	}
	min, err := time.Parse(pitrTimeLayout, archive.Min)
	if err != nil {
		return fmt.Errorf("archive window minimum %q is not a parseable time: %w", archive.Min, err)
	}
	max, err := time.Parse(pitrTimeLayout, archive.Max)
	if err != nil {
		return fmt.Errorf("archive window maximum %q is not a parseable time: %w", archive.Max, err)
	}
	if target.Before(min) || target.After(max) {
		return fmt.Errorf("UNTIL_TIME %s is outside the archive window [%s, %s]", spec.UntilTime, archive.Min, archive.Max)
	}
	return nil
}
