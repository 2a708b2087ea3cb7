package regmap

import (
	"errors"
	"fmt"

	"github.com/KevinKickass/OpenRegMap/internal/convert"
)

// DuplicateFieldNameError indicates that two fields in one call share a name.
type DuplicateFieldNameError struct {
	Name string
}

func (e *DuplicateFieldNameError) Error() string {
	return fmt.Sprintf("duplicate names in field list: %q", e.Name)
}

// InvalidFieldError indicates a field with an empty name or an undeclared data type.
type InvalidFieldError struct {
	Index  int
	Name   string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid field %d (%q): %s", e.Index, e.Name, e.Reason)
}

// FieldTooWideError indicates a field that does not fit in a single register.
type FieldTooWideError struct {
	Name     string
	BitWidth int
	MaxWidth int
}

func (e *FieldTooWideError) Error() string {
	return fmt.Sprintf("field %q is %d bits wide: registers hold at most %d bits",
		e.Name, e.BitWidth, e.MaxWidth)
}

// CapacityExceededError indicates that the fields need more bits than the bank provides.
// Registers and Limit are set when the bits fit but the chosen order needs more registers
// than the bank has.
type CapacityExceededError struct {
	Requested int
	Available int
	Registers int
	Limit     int
}

func (e *CapacityExceededError) Error() string {
	if e.Registers > 0 {
		return fmt.Sprintf("Cannot fit %d bits: packing needs at least %d registers, bank has %d (%d available bits)",
			e.Requested, e.Registers, e.Limit, e.Available)
	}
	return fmt.Sprintf("Cannot fit %d bits into %d available bits", e.Requested, e.Available)
}

// UnknownStrategyError indicates a strategy name outside the supported set.
type UnknownStrategyError struct {
	Strategy string
}

func (e *UnknownStrategyError) Error() string {
	return fmt.Sprintf("Unknown packing strategy %q: expected one of %s, %s, %s",
		e.Strategy, FirstFit, BestFit, TypeClustering)
}

// InvalidBankError indicates an unusable register bank configuration.
type InvalidBankError struct {
	Bank Bank
}

func (e *InvalidBankError) Error() string {
	return fmt.Sprintf("invalid register bank: base index %d, register count %d",
		e.Bank.BaseIndex, e.Bank.RegisterCount)
}

// ErrorKind names the class of a packing or encoding error for API clients,
// e.g. "duplicate_field_name". It is empty for errors from elsewhere.
func ErrorKind(err error) string {
	var (
		dup      *DuplicateFieldNameError
		invalid  *InvalidFieldError
		wide     *FieldTooWideError
		capacity *CapacityExceededError
		strategy *UnknownStrategyError
		bank     *InvalidBankError
		rng      *convert.OutOfRangeError
	)
	switch {
	case errors.As(err, &dup):
		return "duplicate_field_name"
	case errors.As(err, &invalid):
		return "invalid_field"
	case errors.As(err, &wide):
		return "field_too_wide"
	case errors.As(err, &capacity):
		return "capacity_exceeded"
	case errors.As(err, &strategy):
		return "unknown_strategy"
	case errors.As(err, &bank):
		return "invalid_bank"
	case errors.As(err, &rng):
		return "out_of_range"
	default:
		return ""
	}
}
