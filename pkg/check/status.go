package check

import (
	"fmt"
)

// Status is the outcome of a check, following the monitoring plugin
// convention. The numeric value of a Status is its process exit code.
type Status int

const (
	// OK means every evaluated datapoint was within bounds.
	OK Status = 0
	// Warning means the warning allowance or bound was exceeded.
	Warning Status = 1
	// Critical means the critical allowance or bound was exceeded, or no
	// data could be retrieved.
	Critical Status = 2
	// Unknown means the check could not be evaluated, typically because
	// of a configuration error.
	Unknown Status = 3
)

// String returns the upper-case name used as output prefix.
func (s Status) String() string {
	switch s {
	case OK:
		return "OK"
	case Warning:
		return "WARNING"
	case Critical:
		return "CRITICAL"
	case Unknown:
		return "UNKNOWN"
	default:
		return fmt.Sprintf("STATUS(%d)", int(s))
	}
}

// ExitCode returns the process exit code for s.
func (s Status) ExitCode() int {
	switch s {
	case OK, Warning, Critical:
		return int(s)
	default:
		return int(Unknown)
	}
}

// severity ranks statuses from best to worst. UNKNOWN sits between
// WARNING and CRITICAL.
func (s Status) severity() int {
	switch s {
	case OK:
		return 0
	case Warning:
		return 1
	case Critical:
		return 3
	default:
		return 2
	}
}

// Worse reports whether s is more severe than other.
func (s Status) Worse(other Status) bool {
	return s.severity() > other.severity()
}

// Worst returns the most severe of the given statuses, or Unknown when
// none are given.
func Worst(statuses ...Status) Status {
	if len(statuses) == 0 {
		return Unknown
	}
	worst := statuses[0]
	for _, s := range statuses[1:] {
		if s.Worse(worst) {
			worst = s
		}
	}
	return worst
}
