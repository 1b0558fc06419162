package check

import (
	"strings"
)

// Report is the outcome of one evaluation: a Result per target.
type Report struct {
	Results []Result
}

// Status computes the aggregate status of the report: the worst status of
// its results, or UNKNOWN when there are none.
func (r Report) Status() Status {
	if len(r.Results) == 0 {
		return Unknown
	}
	statuses := make([]Status, len(r.Results))
	for i, res := range r.Results {
		statuses[i] = res.Status
	}
	return Worst(statuses...)
}

// ExitCode is the exit code of the aggregate status.
func (r Report) ExitCode() int {
	return r.Status().ExitCode()
}

// ByTarget indexes the results by target name. When several series share
// a name, the most severe result wins.
func (r Report) ByTarget() map[string]Result {
	out := make(map[string]Result, len(r.Results))
	for _, res := range r.Results {
		if prev, ok := out[res.Target]; ok && !res.Status.Worse(prev.Status) {
			continue
		}
		out[res.Target] = res
	}
	return out
}

// tierOrder is the order severity tiers are printed in.
var tierOrder = []Status{Critical, Unknown, Warning, OK}

// Lines renders the report as plugin output: one line per target, grouped
// by severity tier with the worst tier first. Target order is kept within
// a tier. With perfdata set, the performance data of all results is
// appended to the first line.
func (r Report) Lines(perfdata bool) []string {
	lines := make([]string, 0, len(r.Results))
	for _, tier := range tierOrder {
		for _, res := range r.Results {
			if res.Status == tier {
				lines = append(lines, res.Line())
			}
		}
	}

	if perfdata && len(lines) > 0 {
		var perf []string
		for _, res := range r.Results {
			if res.Perf != nil {
				perf = append(perf, res.Perf.String())
			}
		}
		if len(perf) > 0 {
			lines[0] += " | " + strings.Join(perf, " ")
		}
	}

	return lines
}
