package datapump

import (
	"fmt"

	"github.com/cuemby/restoreorc/pkg/report"
	"github.com/cuemby/restoreorc/pkg/sqlgateway"
)

// GetSCN acquires a consistent SCN for a network-link export (spec
// §4.5 "SCN acquisition"): it first tries the live query over
// networkLink, and falls back to a caller-supplied value (with a
// warning) only if that fails and a fallback was given.
func GetSCN(sql *sqlgateway.Gateway, networkLink, fallback string) (string, error) {
	stmt := fmt.Sprintf("SELECT CURRENT_SCN FROM V$DATABASE@%s;", networkLink)
	scn, err := sql.Query(stmt, nil)
	if err == nil && scn != "" {
		return scn, nil
	}

	if fallback != "" {
		report.TrackItem(report.ItemWarn, "datapump:get_scn",
			fmt.Sprintf("live SCN query over %s failed, using fallback SCN %s", networkLink, fallback))
		return fallback, nil
	}

	if err == nil {
		err = fmt.Errorf("empty SCN returned from %s", networkLink)
	}
	return "", fmt.Errorf("failed to acquire SCN and no fallback was given: %w", err)
}
