package check

import (
	"strconv"
	"strings"
)

// Perfdata is one performance data item in the plugin output, rendered as
// 'label'=value;warn;crit.
type Perfdata struct {
	// Label identifies the metric, usually the series name.
	Label string

	// Value is the most recent non-null value of the series.
	Value float64

	// Warn and Crit are the thresholds in effect. Nil thresholds are
	// left empty in the output.
	Warn *float64
	Crit *float64
}

// String renders p in the plugin performance data format.
func (p Perfdata) String() string {
	var b strings.Builder
	b.WriteString(quotePerfLabel(p.Label))
	b.WriteByte('=')
	b.WriteString(formatValue(p.Value))
	b.WriteByte(';')
	if p.Warn != nil {
		b.WriteString(formatValue(*p.Warn))
	}
	b.WriteByte(';')
	if p.Crit != nil {
		b.WriteString(formatValue(*p.Crit))
	}
	return b.String()
}

// quotePerfLabel single-quotes a label and doubles embedded quotes. Labels
// may not contain '=' or line breaks, so those are replaced.
func quotePerfLabel(s string) string {
	s = strings.ReplaceAll(s, "'", "''")
	s = strings.ReplaceAll(s, "=", "_")
	s = strings.ReplaceAll(s, "\n", " ")
	return "'" + s + "'"
}

// formatValue prints v in its shortest decimal form.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// joinValues comma-joins values for detail messages.
func joinValues(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatValue(v)
	}
	return strings.Join(parts, ",")
}
