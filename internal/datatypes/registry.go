package datatypes

import (
	"fmt"
	"math"
)

// Descriptor is the immutable metadata record of one DataType. It is handed out by value and
// exposes no mutators, so the table cannot be changed after init.
type Descriptor struct {
	typ          DataType
	bitWidth     int
	category     Category
	unit         Unit
	signed       bool
	min          float64
	max          float64
	defaultValue float64
	description  string
}

func (d Descriptor) Type() DataType        { return d.typ }
func (d Descriptor) Name() string          { return d.typ.String() }
func (d Descriptor) BitWidth() int         { return d.bitWidth }
func (d Descriptor) Category() Category    { return d.category }
func (d Descriptor) Unit() Unit            { return d.unit }
func (d Descriptor) Signed() bool          { return d.signed }
func (d Descriptor) Min() float64          { return d.min }
func (d Descriptor) Max() float64          { return d.max }
func (d Descriptor) DefaultValue() float64 { return d.defaultValue }
func (d Descriptor) Description() string   { return d.description }

// RawMax is the largest raw code the type produces. Signed types stop at 2^(w-1)-1 on both sides.
func (d Descriptor) RawMax() int64 {
	if d.signed {
		return int64(1)<<(d.bitWidth-1) - 1
	}
	return int64(1)<<d.bitWidth - 1
}

// RawMin is the smallest raw code the type produces.
func (d Descriptor) RawMin() int64 {
	if d.signed {
		return -d.RawMax()
	}
	return 0
}

// Step is one quantization step in engineering units.
func (d Descriptor) Step() float64 {
	if d.signed {
		return d.max / float64(d.RawMax())
	}
	return (d.max - d.min) / float64(d.RawMax())
}

// Contains reports whether value lies inside the inclusive range.
func (d Descriptor) Contains(value float64) bool {
	return !math.IsNaN(value) && value >= d.min && value <= d.max
}

// VHDLType is the port type used when the field is sliced out of a control register.
func (d Descriptor) VHDLType() string {
	switch {
	case d.category == CategoryBoolean:
		return "std_logic"
	case d.signed:
		return fmt.Sprintf("signed(%d downto 0)", d.bitWidth-1)
	default:
		return fmt.Sprintf("unsigned(%d downto 0)", d.bitWidth-1)
	}
}

// GoType is the narrowest Go type that holds the raw code.
func (d Descriptor) GoType() string {
	if d.category == CategoryBoolean {
		return "bool"
	}
	size := 8
	for size < d.bitWidth {
		size *= 2
	}
	if d.signed {
		return fmt.Sprintf("int%d", size)
	}
	return fmt.Sprintf("uint%d", size)
}

func voltage(t DataType, cat Category, width int, signed bool, fullScaleMV float64) Descriptor {
	d := Descriptor{
		typ:      t,
		bitWidth: width,
		category: cat,
		unit:     UnitMillivolt,
		signed:   signed,
		max:      fullScaleMV,
	}
	dir := "output"
	if cat == CategoryVoltageInput {
		dir = "input"
	}
	if signed {
		d.min = -fullScaleMV
		d.description = fmt.Sprintf("±%gV %s, %d-bit signed", fullScaleMV/1000, dir, width)
	} else {
		d.description = fmt.Sprintf("0 to +%gV %s, %d-bit unsigned", fullScaleMV/1000, dir, width)
	}
	return d
}

func duration(t DataType, unit Unit, width int) Descriptor {
	return Descriptor{
		typ:         t,
		bitWidth:    width,
		category:    CategoryDuration,
		unit:        unit,
		max:         float64(int64(1)<<width - 1),
		description: fmt.Sprintf("pulse duration in %s, %d-bit unsigned", unit, width),
	}
}

var table = [numDataTypes]Descriptor{
	VoltageOutput05VS8:  voltage(VoltageOutput05VS8, CategoryVoltageOutput, 8, true, 5000),
	VoltageOutput05VS16: voltage(VoltageOutput05VS16, CategoryVoltageOutput, 16, true, 5000),
	VoltageOutput05VU7:  voltage(VoltageOutput05VU7, CategoryVoltageOutput, 7, false, 5000),
	VoltageOutput05VU15: voltage(VoltageOutput05VU15, CategoryVoltageOutput, 15, false, 5000),

	VoltageInput20VS8:  voltage(VoltageInput20VS8, CategoryVoltageInput, 8, true, 20000),
	VoltageInput20VS16: voltage(VoltageInput20VS16, CategoryVoltageInput, 16, true, 20000),
	VoltageInput20VU7:  voltage(VoltageInput20VU7, CategoryVoltageInput, 7, false, 20000),
	VoltageInput20VU15: voltage(VoltageInput20VU15, CategoryVoltageInput, 15, false, 20000),

	VoltageInput25VS8:  voltage(VoltageInput25VS8, CategoryVoltageInput, 8, true, 25000),
	VoltageInput25VS16: voltage(VoltageInput25VS16, CategoryVoltageInput, 16, true, 25000),
	VoltageInput25VU7:  voltage(VoltageInput25VU7, CategoryVoltageInput, 7, false, 25000),
	VoltageInput25VU15: voltage(VoltageInput25VU15, CategoryVoltageInput, 15, false, 25000),

	PulseDurationNsU8:  duration(PulseDurationNsU8, UnitNanosecond, 8),
	PulseDurationNsU16: duration(PulseDurationNsU16, UnitNanosecond, 16),
	PulseDurationNsU32: duration(PulseDurationNsU32, UnitNanosecond, 32),
	PulseDurationUsU8:  duration(PulseDurationUsU8, UnitMicrosecond, 8),
	PulseDurationUsU16: duration(PulseDurationUsU16, UnitMicrosecond, 16),
	PulseDurationUsU24: duration(PulseDurationUsU24, UnitMicrosecond, 24),
	PulseDurationMsU8:  duration(PulseDurationMsU8, UnitMillisecond, 8),
	PulseDurationMsU16: duration(PulseDurationMsU16, UnitMillisecond, 16),
	PulseDurationSU8:   duration(PulseDurationSU8, UnitSecond, 8),
	PulseDurationSU16:  duration(PulseDurationSU16, UnitSecond, 16),

	Boolean: {
		typ:         Boolean,
		bitWidth:    1,
		category:    CategoryBoolean,
		unit:        UnitNone,
		max:         1,
		description: "single-bit flag",
	},
}

func init() {
	for i := DataType(0); i < numDataTypes; i++ {
		if err := checkDescriptor(i, table[i]); err != nil {
			panic(fmt.Sprintf("datatypes: corrupt metadata table: %v", err))
		}
	}
}

func checkDescriptor(t DataType, d Descriptor) error {
	if d.typ != t || d.bitWidth == 0 {
		return fmt.Errorf("missing metadata for %s", t)
	}
	if d.bitWidth < 1 || d.bitWidth > 32 {
		return fmt.Errorf("%s: bit width %d outside [1,32]", t, d.bitWidth)
	}
	if d.min > d.defaultValue || d.defaultValue > d.max {
		return fmt.Errorf("%s: default %g outside [%g,%g]", t, d.defaultValue, d.min, d.max)
	}

	switch d.category {
	case CategoryBoolean:
		if d.bitWidth != 1 || d.min != 0 || d.max != 1 {
			return fmt.Errorf("%s: boolean must be 1 bit over [0,1]", t)
		}
	case CategoryVoltageOutput, CategoryVoltageInput:
		if d.unit != UnitMillivolt {
			return fmt.Errorf("%s: voltage unit must be mV, got %q", t, d.unit)
		}
		if d.signed && d.min != -d.max {
			return fmt.Errorf("%s: signed range must be symmetric", t)
		}
		if !d.signed && d.min != 0 {
			return fmt.Errorf("%s: unsigned range must start at 0", t)
		}
	case CategoryDuration:
		if d.signed || d.min != 0 || d.max != float64(d.RawMax()) {
			return fmt.Errorf("%s: duration range must be [0,%d]", t, d.RawMax())
		}
	}
	return nil
}

// Lookup returns the descriptor of t. It panics for identifiers outside the declared set,
// which can only be produced by an unchecked integer conversion.
func Lookup(t DataType) Descriptor {
	if !t.Valid() {
		panic(fmt.Sprintf("datatypes: lookup of undeclared %s", t))
	}
	return table[t]
}

// LookupName resolves an identifier string and returns its descriptor.
func LookupName(name string) (Descriptor, error) {
	t, err := Parse(name)
	if err != nil {
		return Descriptor{}, err
	}
	return table[t], nil
}

// All returns every declared type in declaration order.
func All() []DataType {
	out := make([]DataType, 0, numDataTypes)
	for i := DataType(0); i < numDataTypes; i++ {
		out = append(out, i)
	}
	return out
}

// Count is the number of declared types.
func Count() int {
	return int(numDataTypes)
}
