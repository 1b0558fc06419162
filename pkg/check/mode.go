package check

// Mode selects how datapoints are judged. It is one of Fixed, Dual,
// Relative or Paired; the Evaluator dispatches on the concrete type.
type Mode interface {
	// Name is a short identifier used in logs.
	Name() string

	isMode()
}

// Fixed compares every datapoint against a single threshold and
// classifies by how many datapoints are out of bounds.
type Fixed struct {
	Threshold float64

	// MaxWarn and MaxCrit are the allowances: the status is CRITICAL when
	// more than MaxCrit datapoints are out of bounds, otherwise WARNING
	// when more than MaxWarn are.
	MaxWarn int
	MaxCrit int

	// Percent interprets the allowances as percentages of the non-null
	// datapoints instead of counts.
	Percent bool
}

func (Fixed) Name() string { return "threshold" }
func (Fixed) isMode()      {}

// Dual computes separate out-of-bounds sets for a warning and a critical
// bound in the same direction.
type Dual struct {
	Warning  float64
	Critical float64

	// MinCount is the size an out-of-bounds set must reach to trigger.
	// Values below 1 mean any non-empty set triggers.
	MinCount int
}

func (Dual) Name() string { return "dual" }
func (Dual) isMode()      {}

// Relative derives the bound from the series itself: Percent percent of
// its nearest-rank Quantile. Allowances work as in Fixed.
type Relative struct {
	Percent  float64
	Quantile float64
	MaxWarn  int
	MaxCrit  int
}

// DefaultQuantile is the quantile Relative uses when none is set.
const DefaultQuantile = 0.95

func (Relative) Name() string { return "relative" }
func (Relative) isMode()      {}

// Paired compares a series positionally against its confidence band and,
// optionally, a second comparison series. Datapoint i is out of bounds
// when it exceeds the band at i and, if Compare is set, the comparison
// series at i.
type Paired struct {
	// Target is the expression of the actual series.
	Target string

	// Compare is the expression of the optional comparison series.
	Compare string

	// Window is the number of trailing datapoints compared. Zero means
	// the shortest common length.
	Window int
}

func (Paired) Name() string { return "confidence" }
func (Paired) isMode()      {}
