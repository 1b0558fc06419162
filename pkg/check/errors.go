package check

import (
	"errors"
	"fmt"

	"github.com/kylerisse/check-graphite/pkg/graphite"
)

// ConfigError reports a missing or invalid setting. It always maps to
// UNKNOWN and is shown together with the usage text.
type ConfigError struct {
	Msg string
	Err error
}

// Configf builds a ConfigError from a format string.
func Configf(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// StatusForError maps an error that ended a run to the Status it is
// reported with:
//   - *ConfigError: UNKNOWN
//   - *graphite.FetchError: CRITICAL
//   - anything else: UNKNOWN
func StatusForError(err error) Status {
	if err == nil {
		return OK
	}

	var ce *ConfigError
	if errors.As(err, &ce) {
		return Unknown
	}

	var fe *graphite.FetchError
	if errors.As(err, &fe) {
		return Critical
	}

	return Unknown
}

// IsConfigError reports whether err is, or wraps, a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
