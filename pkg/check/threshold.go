package check

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Direction decides which side of a bound is out of bounds.
type Direction int

const (
	// Over flags values strictly greater than the bound.
	Over Direction = iota
	// Under flags values strictly less than the bound.
	Under
)

func (d Direction) String() string {
	if d == Under {
		return "under"
	}
	return "over"
}

// Exceeds reports whether v is out of bounds relative to bound.
func (d Direction) Exceeds(v, bound float64) bool {
	if d == Under {
		return v < bound
	}
	return v > bound
}

// ParseDirection converts "over" or "under" to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "over", "":
		return Over, nil
	case "under":
		return Under, nil
	default:
		return Over, Configf("direction must be over or under, got %q", s)
	}
}

// outOfBounds returns the values exceeding bound, in order.
func outOfBounds(values []float64, bound float64, d Direction) []float64 {
	var oob []float64
	for _, v := range values {
		if d.Exceeds(v, bound) {
			oob = append(oob, v)
		}
	}
	return oob
}

// ParseThreshold parses a threshold value. A trailing '%' is accepted for
// compatibility and stripped; legacy reports whether it was present. The
// number is used as a plain bound either way.
func ParseThreshold(s string) (value float64, legacy bool, err error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return 0, false, Configf("threshold is required")
	}
	if strings.HasSuffix(raw, "%") {
		legacy = true
		raw = strings.TrimSpace(strings.TrimSuffix(raw, "%"))
	}
	value, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, &ConfigError{Msg: fmt.Sprintf("threshold %q is not a number", s), Err: err}
	}
	if math.IsNaN(value) {
		return 0, false, Configf("threshold %q is not a number", s)
	}
	return value, legacy, nil
}
