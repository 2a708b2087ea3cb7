package regmap

import (
	"fmt"

	"github.com/KevinKickass/OpenRegMap/internal/datatypes"
)

// RegisterWidth is the width of every control register in bits.
const RegisterWidth = 32

// Field is one named, typed value requested by an application.
type Field struct {
	Name string             `json:"name" yaml:"name"`
	Type datatypes.DataType `json:"datatype" yaml:"datatype"`
}

// BitSlice is an inclusive bit range inside one register.
type BitSlice struct {
	MSB int `json:"msb"`
	LSB int `json:"lsb"`
}

// Width is the number of bits covered by the slice.
func (s BitSlice) Width() int {
	return s.MSB - s.LSB + 1
}

// Overlaps reports whether two slices share at least one bit.
func (s BitSlice) Overlaps(o BitSlice) bool {
	return s.LSB <= o.MSB && o.LSB <= s.MSB
}

func (s BitSlice) String() string {
	return fmt.Sprintf("[%d:%d]", s.MSB, s.LSB)
}

// Mapping places a field at a bit slice of a control register.
type Mapping struct {
	Name     string             `json:"name"`
	Type     datatypes.DataType `json:"datatype"`
	Register int                `json:"register"`
	Slice    BitSlice           `json:"bit_slice"`
}

func (m Mapping) Width() int {
	return m.Slice.Width()
}

// VHDLSlice renders the slice as a VHDL expression on the app register signal,
// e.g. app_reg_6(31 downto 16), or app_reg_6(31) for single bits.
func (m Mapping) VHDLSlice() string {
	if m.Slice.MSB == m.Slice.LSB {
		return fmt.Sprintf("app_reg_%d(%d)", m.Register, m.Slice.MSB)
	}
	return fmt.Sprintf("app_reg_%d(%d downto %d)", m.Register, m.Slice.MSB, m.Slice.LSB)
}

// Bank describes the range of control registers available for packing.
type Bank struct {
	BaseIndex     int `json:"base_index" yaml:"base_index" mapstructure:"base_index"`
	RegisterCount int `json:"register_count" yaml:"register_count" mapstructure:"register_count"`
}

// DefaultBank is CR6 through CR17.
func DefaultBank() Bank {
	return Bank{BaseIndex: 6, RegisterCount: 12}
}

func (b Bank) TotalBits() int {
	return b.RegisterCount * RegisterWidth
}

// LastIndex is the highest register index in the bank.
func (b Bank) LastIndex() int {
	return b.BaseIndex + b.RegisterCount - 1
}

// Contains reports whether register lies inside the bank.
func (b Bank) Contains(register int) bool {
	return register >= b.BaseIndex && register <= b.LastIndex()
}

// Validate rejects banks without registers or with a negative base.
func (b Bank) Validate() error {
	if b.RegisterCount < 1 || b.BaseIndex < 0 {
		return &InvalidBankError{Bank: b}
	}
	return nil
}
