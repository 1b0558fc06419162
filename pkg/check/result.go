package check

// Result captures the evaluation of a single target.
type Result struct {
	// Target is the series name as returned by the backend, or the
	// requested expressions when nothing was returned.
	Target string

	// Status is the classification of the target.
	Status Status

	// Detail is the human-readable message printed after the status
	// prefix. It embeds the thresholds and the offending datapoints.
	Detail string

	// Perf is the performance data for the target, nil when the target
	// had no value to report.
	Perf *Perfdata
}

// Line renders the result as a plugin output line, e.g.
// "CRITICAL: a.b out of bounds [...]".
func (r Result) Line() string {
	return r.Status.String() + ": " + r.Detail
}
