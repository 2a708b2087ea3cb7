package regmap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KevinKickass/OpenRegMap/internal/convert"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&DuplicateFieldNameError{Name: "a"}, "duplicate_field_name"},
		{&InvalidFieldError{Index: 1}, "invalid_field"},
		{&FieldTooWideError{Name: "a", BitWidth: 33, MaxWidth: 32}, "field_too_wide"},
		{&CapacityExceededError{Requested: 400, Available: 384}, "capacity_exceeded"},
		{&UnknownStrategyError{Strategy: "x"}, "unknown_strategy"},
		{&InvalidBankError{}, "invalid_bank"},
		{fmt.Errorf("failed to encode default for x: %w", &convert.OutOfRangeError{Type: "boolean", Value: 2, Max: 1}), "out_of_range"},
		{errors.New("disk full"), ""},
		{nil, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err), "%v", tt.err)
	}
}
