package convert

import (
	"errors"
	"fmt"
)

// ErrInvalidClockPeriod is returned when a clock period is zero, negative or not a number.
var ErrInvalidClockPeriod = errors.New("clock period must be a positive number of nanoseconds")

// OutOfRangeError indicates that a value lies outside a type's declared range.
type OutOfRangeError struct {
	Type  string
	Value float64
	Min   float64
	Max   float64
	Unit  string
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("value %g%s out of range for %s: valid range is %g to %g%s",
		e.Value, e.Unit, e.Type, e.Min, e.Max, e.Unit)
}

// InvalidUnitError indicates an unrecognized duration unit.
type InvalidUnitError struct {
	Unit string
}

func (e *InvalidUnitError) Error() string {
	return fmt.Sprintf("invalid duration unit %q: expected one of ns, us, ms, s", e.Unit)
}

// NonDivisibleError indicates that EXACT rounding was requested for a duration
// that is not a whole number of clock periods.
type NonDivisibleError struct {
	DurationNs    float64
	ClockPeriodNs float64
}

func (e *NonDivisibleError) Error() string {
	return fmt.Sprintf("duration %gns is not divisible by clock period %gns (%.3f cycles)",
		e.DurationNs, e.ClockPeriodNs, e.DurationNs/e.ClockPeriodNs)
}
