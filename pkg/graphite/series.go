package graphite

import (
	"encoding/json"
	"fmt"
)

// Datapoint is a single sample of a Series. Value is nil when the backend
// had no sample for the time bucket.
type Datapoint struct {
	Value     *float64
	Timestamp int64
}

// UnmarshalJSON decodes the render API's [value, timestamp] pair.
func (d *Datapoint) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("datapoint: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("datapoint: expected [value, timestamp], got %d elements", len(pair))
	}

	var value *float64
	if err := json.Unmarshal(pair[0], &value); err != nil {
		return fmt.Errorf("datapoint value: %w", err)
	}

	// Some backends emit float timestamps.
	var ts float64
	if err := json.Unmarshal(pair[1], &ts); err != nil {
		return fmt.Errorf("datapoint timestamp: %w", err)
	}

	d.Value = value
	d.Timestamp = int64(ts)
	return nil
}

// Series is a named, chronologically ordered sequence of datapoints.
type Series struct {
	Target     string      `json:"target"`
	Datapoints []Datapoint `json:"datapoints"`
}

// Values returns the non-null values of the series, in order.
func (s Series) Values() []float64 {
	values := make([]float64, 0, len(s.Datapoints))
	for _, dp := range s.Datapoints {
		if dp.Value != nil {
			values = append(values, *dp.Value)
		}
	}
	return values
}

// Empty reports whether the series carries no non-null datapoint.
func (s Series) Empty() bool {
	for _, dp := range s.Datapoints {
		if dp.Value != nil {
			return false
		}
	}
	return true
}

// Last returns the most recent non-null value.
func (s Series) Last() (float64, bool) {
	for i := len(s.Datapoints) - 1; i >= 0; i-- {
		if v := s.Datapoints[i].Value; v != nil {
			return *v, true
		}
	}
	return 0, false
}

// Tail returns the series restricted to its trailing n datapoints.
// A non-positive n or one larger than the series returns it unchanged.
func (s Series) Tail(n int) Series {
	if n <= 0 || n >= len(s.Datapoints) {
		return s
	}
	return Series{
		Target:     s.Target,
		Datapoints: s.Datapoints[len(s.Datapoints)-n:],
	}
}
