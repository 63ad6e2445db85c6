package timetable

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidHours is returned by ValidateHours for values that are not
	// finite or fall outside [0, 24].
	ErrInvalidHours = errors.New("invalid hours")

	// ErrMalformedSnapshot is returned when snapshot text cannot be decoded
	// into a timetable store.
	ErrMalformedSnapshot = errors.New("malformed snapshot")
)

// MaxHoursPerDay is the upper bound accepted for manual hours.
const MaxHoursPerDay = 24

// ValidateHours checks manual hours before they reach the engine, which does
// not validate them itself.
func ValidateHours(hours float64) error {
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		return fmt.Errorf("%w: %v is not a number", ErrInvalidHours, hours)
	}
	if hours < 0 || hours > MaxHoursPerDay {
		return fmt.Errorf("%w: %v is outside 0-%d", ErrInvalidHours, hours, MaxHoursPerDay)
	}
	return nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedSnapshot, fmt.Sprintf(format, args...))
}
