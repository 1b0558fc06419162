package graphite

import (
	"fmt"
	"strings"
)

// WrapPercentile wraps expr so the backend reduces it to its n-th percentile.
func WrapPercentile(expr string, n int) (string, error) {
	if n < 1 || n > 100 {
		return "", fmt.Errorf("percentile must be between 1 and 100, got %d", n)
	}
	return fmt.Sprintf("nPercentile(%s, %d)", expr, n), nil
}

// ConfidenceBands returns the expression asking for the Holt-Winters
// confidence bands of expr.
func ConfidenceBands(expr string) string {
	return fmt.Sprintf("holtWintersConfidenceBands(%s)", expr)
}

// ConfidenceTargets returns the targets fetched in confidence band mode:
// the actual series, its bands and, when compare is set, a comparison
// series.
func ConfidenceTargets(expr, compare string) []string {
	targets := []string{expr, ConfidenceBands(expr)}
	if compare != "" {
		targets = append(targets, compare)
	}
	return targets
}

// Band groups the series of one confidence band response.
type Band struct {
	Actual  Series
	Upper   Series
	Lower   Series
	Compare *Series
}

// SplitConfidence sorts a response to ConfidenceTargets(expr, compare)
// into a Band. The bands are recognised by their function names and the
// comparison series by its exact target. Slots left unmatched, such as an
// actual series the backend renamed, are filled from the remaining series
// in request order: actual, upper, lower, compare.
func SplitConfidence(series []Series, expr, compare string) (Band, error) {
	want := 3
	if compare != "" {
		want = 4
	}
	if len(series) < want {
		return Band{}, fmt.Errorf("confidence band: expected %d series, got %d", want, len(series))
	}

	actual, upper, lower, cmp := -1, -1, -1, -1
	used := make([]bool, len(series))
	for i, s := range series {
		switch {
		case upper < 0 && strings.HasPrefix(s.Target, "holtWintersConfidenceUpper("):
			upper = i
		case lower < 0 && strings.HasPrefix(s.Target, "holtWintersConfidenceLower("):
			lower = i
		case compare != "" && cmp < 0 && s.Target == compare:
			cmp = i
		default:
			continue
		}
		used[i] = true
	}
	for i, s := range series {
		if !used[i] && actual < 0 && s.Target == expr {
			actual = i
			used[i] = true
		}
	}

	slots := []*int{&actual, &upper, &lower}
	if compare != "" {
		slots = append(slots, &cmp)
	}
	next := 0
	for _, slot := range slots {
		if *slot >= 0 {
			continue
		}
		for next < len(series) && used[next] {
			next++
		}
		if next == len(series) {
			return Band{}, fmt.Errorf("confidence band: cannot identify all series for %s", expr)
		}
		*slot = next
		used[next] = true
	}

	b := Band{
		Actual: series[actual],
		Upper:  series[upper],
		Lower:  series[lower],
	}
	if compare != "" {
		c := series[cmp]
		b.Compare = &c
	}
	return b, nil
}
