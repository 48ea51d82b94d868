package report

// Every non-core component (C2-C5) is required by spec §4.1 to use only
// these Track* wrappers rather than talking to a *Report directly, so
// they keep working whether or not the orchestrator has called Init
// yet -- useful for unit-testing C2-C5 in isolation.

// TrackMeta forwards to Meta if a Report is installed.
func TrackMeta(key, value string) {
	if r := Current(); r != nil {
		r.Meta(key, value)
	}
}

// TrackPhase forwards to Phase if a Report is installed.
func TrackPhase(name string) {
	if r := Current(); r != nil {
		r.Phase(name)
	}
}

// TrackSection forwards to Section if a Report is installed.
func TrackSection(title string) {
	if r := Current(); r != nil {
		r.Section(title)
	}
}

// TrackStep forwards to Step if a Report is installed, returning -1
// when it is not.
func TrackStep(name string) int {
	if r := Current(); r != nil {
		return r.Step(name)
	}
	return -1
}

// TrackStepDone forwards to StepDone if a Report is installed.
func TrackStepDone(exitCode int, detail ...string) {
	if r := Current(); r != nil {
		r.StepDone(exitCode, detail...)
	}
}

// TrackItem forwards to Item if a Report is installed; it no-ops
// (returning nil) rather than erroring when there is no Report, since
// an invalid status in that case has nothing to be invalid in.
func TrackItem(status ItemStatus, name string, detail ...string) error {
	if r := Current(); r != nil {
		return r.Item(status, name, detail...)
	}
	return nil
}

// TrackMetric forwards to Metric if a Report is installed.
func TrackMetric(key string, value int, op MetricOp) {
	if r := Current(); r != nil {
		r.Metric(key, value, op)
	}
}
