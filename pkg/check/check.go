// Package check evaluates Graphite series against thresholds and
// classifies them for a monitoring supervisor.
//
// An Evaluator combines a Direction (over or under) with a Mode:
//   - Fixed: one threshold, classified by the number of datapoints out of
//     bounds against warning and critical allowances.
//   - Dual: separate warning and critical bounds.
//   - Relative: a bound derived from the series' own quantile.
//   - Paired: positional comparison against a confidence band.
//
// Evaluate is a pure function of its inputs and produces a Report with one
// Result per target. The Report's aggregate Status maps directly to the
// plugin exit code.
package check

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/kylerisse/check-graphite/pkg/graphite"
)

// Evaluator judges series according to a Direction and a Mode.
type Evaluator struct {
	Direction Direction
	Mode      Mode

	// EmptyOK classifies series without datapoints as OK instead of
	// CRITICAL.
	EmptyOK bool

	// Targets are the requested expressions. They name the result when
	// the backend returned no series at all.
	Targets []string
}

// Validate checks the mode parameters.
func (e Evaluator) Validate() error {
	switch m := e.Mode.(type) {
	case nil:
		return Configf("no evaluation mode configured")
	case Fixed:
		if m.MaxWarn < 0 || m.MaxCrit < 0 {
			return Configf("warning and critical allowances must not be negative")
		}
		if m.Percent && (m.MaxWarn > 100 || m.MaxCrit > 100) {
			return Configf("percentage allowances must not exceed 100")
		}
	case Dual:
		if m.MinCount < 0 {
			return Configf("minimum count must not be negative, got %d", m.MinCount)
		}
	case Relative:
		if m.Percent <= 0 {
			return Configf("relative percent must be positive, got %v", m.Percent)
		}
		if m.Quantile <= 0 || m.Quantile > 1 {
			return Configf("quantile must be in (0, 1], got %v", m.Quantile)
		}
		if m.MaxWarn < 0 || m.MaxCrit < 0 {
			return Configf("warning and critical allowances must not be negative")
		}
	case Paired:
		if m.Target == "" {
			return Configf("confidence band mode requires a target")
		}
		if m.Window < 0 {
			return Configf("window must not be negative, got %d", m.Window)
		}
	}
	return nil
}

// Evaluate classifies every series and returns the Report.
func (e Evaluator) Evaluate(series []graphite.Series) Report {
	if m, ok := e.Mode.(Paired); ok {
		return Report{Results: []Result{e.paired(series, m)}}
	}

	if len(series) == 0 {
		return Report{Results: []Result{e.noData(strings.Join(e.Targets, ","))}}
	}

	results := make([]Result, 0, len(series))
	for _, s := range series {
		results = append(results, e.evaluateSeries(s))
	}
	return Report{Results: results}
}

func (e Evaluator) evaluateSeries(s graphite.Series) Result {
	if s.Empty() {
		return e.noData(s.Target)
	}

	values := s.Values()
	last, _ := s.Last()

	switch m := e.Mode.(type) {
	case Fixed:
		bounds := fmt.Sprintf("threshold=%0.3f", m.Threshold)
		return e.counted(s.Target, values, last, m.Threshold, m.MaxWarn, m.MaxCrit, m.Percent, bounds)
	case Relative:
		ceil := nearestRank(values, m.Quantile)
		bound := ceil * m.Percent / 100
		bounds := fmt.Sprintf("ceiling=%0.3f|threshold=%0.3f", ceil, bound)
		return e.counted(s.Target, values, last, bound, m.MaxWarn, m.MaxCrit, false, bounds)
	case Dual:
		return e.dual(s.Target, values, last, m)
	default:
		return Result{
			Target: s.Target,
			Status: Unknown,
			Detail: fmt.Sprintf("%s: unsupported evaluation mode %T", s.Target, e.Mode),
		}
	}
}

// noData is the result for a target without usable datapoints.
func (e Evaluator) noData(target string) Result {
	status := Critical
	if e.EmptyOK {
		status = OK
	}
	return Result{
		Target: target,
		Status: status,
		Detail: strings.TrimSpace("no output for target(s) " + target),
	}
}

// counted classifies by the number (or percentage) of values beyond bound.
func (e Evaluator) counted(target string, values []float64, last, bound float64, maxWarn, maxCrit int, percent bool, bounds string) Result {
	oob := outOfBounds(values, bound, e.Direction)

	measure := float64(len(oob))
	unit := ""
	if percent {
		measure = 100 * float64(len(oob)) / float64(len(values))
		unit = "%"
	}

	res := Result{
		Target: target,
		Perf:   &Perfdata{Label: target, Value: last, Warn: &bound, Crit: &bound},
	}

	switch {
	case measure > float64(maxCrit):
		res.Status = Critical
		res.Detail = fmt.Sprintf("%s out of bounds [%s|maxcrit=%d%s|datapoints=%s]",
			target, bounds, maxCrit, unit, joinValues(oob))
	case measure > float64(maxWarn):
		res.Status = Warning
		res.Detail = fmt.Sprintf("%s out of bounds [%s|maxwarn=%d%s|datapoints=%s]",
			target, bounds, maxWarn, unit, joinValues(oob))
	default:
		res.Status = OK
		res.Detail = fmt.Sprintf("%s OK [%s|maxwarn=%d%s|maxcrit=%d%s|datapoints=%s]",
			target, bounds, maxWarn, unit, maxCrit, unit, joinValues(values))
	}
	return res
}

func (e Evaluator) dual(target string, values []float64, last float64, m Dual) Result {
	warnSet := outOfBounds(values, m.Warning, e.Direction)
	critSet := outOfBounds(values, m.Critical, e.Direction)

	triggers := func(set []float64) bool {
		return len(set) > 0 && len(set) >= m.MinCount
	}

	warn, crit := m.Warning, m.Critical
	res := Result{
		Target: target,
		Perf:   &Perfdata{Label: target, Value: last, Warn: &warn, Crit: &crit},
	}

	switch {
	case triggers(critSet):
		res.Status = Critical
		res.Detail = fmt.Sprintf("%s [crit=%0.3f|datapoints=%s]", target, m.Critical, joinValues(critSet))
	case triggers(warnSet):
		res.Status = Warning
		res.Detail = fmt.Sprintf("%s [warn=%0.3f|datapoints=%s]", target, m.Warning, joinValues(warnSet))
	default:
		res.Status = OK
		res.Detail = fmt.Sprintf("%s OK [warn=%0.3f|crit=%0.3f|datapoints=%s]",
			target, m.Warning, m.Critical, joinValues(values))
	}
	return res
}

// paired compares the actual series of a confidence band response against
// the band edge on the side given by Direction.
func (e Evaluator) paired(series []graphite.Series, m Paired) Result {
	band, err := graphite.SplitConfidence(series, m.Target, m.Compare)
	if err != nil || band.Actual.Empty() {
		return e.noData(m.Target)
	}

	edge := band.Upper
	if e.Direction == Under {
		edge = band.Lower
	}

	cols := []graphite.Series{band.Actual.Tail(m.Window), edge.Tail(m.Window)}
	if band.Compare != nil {
		cols = append(cols, band.Compare.Tail(m.Window))
	}

	// Align on the most recent datapoints.
	n := len(cols[0].Datapoints)
	for _, c := range cols[1:] {
		n = min(n, len(c.Datapoints))
	}

	var checked, oob []float64
	var lastEdge float64
	for i := 0; i < n; i++ {
		row := make([]*float64, len(cols))
		complete := true
		for j, c := range cols {
			row[j] = c.Datapoints[len(c.Datapoints)-n+i].Value
			if row[j] == nil {
				complete = false
			}
		}
		if !complete {
			continue
		}

		actual := *row[0]
		checked = append(checked, actual)
		lastEdge = *row[1]

		if !e.Direction.Exceeds(actual, *row[1]) {
			continue
		}
		if len(row) > 2 && !e.Direction.Exceeds(actual, *row[2]) {
			continue
		}
		oob = append(oob, actual)
	}

	target := band.Actual.Target
	if len(checked) == 0 {
		return e.noData(target)
	}

	res := Result{
		Target: target,
		Perf:   &Perfdata{Label: target, Value: checked[len(checked)-1], Crit: &lastEdge},
	}
	if len(oob) > 0 {
		res.Status = Critical
		res.Detail = fmt.Sprintf("%s out of confidence band [window=%d|datapoints=%s]",
			target, n, joinValues(oob))
	} else {
		res.Status = OK
		res.Detail = fmt.Sprintf("%s within confidence band [window=%d|datapoints=%s]",
			target, n, joinValues(checked))
	}
	return res
}

// nearestRank returns the q-quantile of values by the nearest-rank method.
func nearestRank(values []float64, q float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	idx := int(math.Ceil(float64(len(sorted))*q)) - 1
	idx = max(0, min(idx, len(sorted)-1))
	return sorted[idx]
}
