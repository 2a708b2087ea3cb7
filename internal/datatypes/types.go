package datatypes

import (
	"fmt"
	"strings"
)

// DataType identifies one supported register data type.
type DataType int

const (
	VoltageOutput05VS8 DataType = iota
	VoltageOutput05VS16
	VoltageOutput05VU7
	VoltageOutput05VU15

	VoltageInput20VS8
	VoltageInput20VS16
	VoltageInput20VU7
	VoltageInput20VU15

	VoltageInput25VS8
	VoltageInput25VS16
	VoltageInput25VU7
	VoltageInput25VU15

	PulseDurationNsU8
	PulseDurationNsU16
	PulseDurationNsU32
	PulseDurationUsU8
	PulseDurationUsU16
	PulseDurationUsU24
	PulseDurationMsU8
	PulseDurationMsU16
	PulseDurationSU8
	PulseDurationSU16

	Boolean

	numDataTypes
)

var dataTypeNames = [numDataTypes]string{
	VoltageOutput05VS8:  "voltage_output_05v_s8",
	VoltageOutput05VS16: "voltage_output_05v_s16",
	VoltageOutput05VU7:  "voltage_output_05v_u7",
	VoltageOutput05VU15: "voltage_output_05v_u15",
	VoltageInput20VS8:   "voltage_input_20v_s8",
	VoltageInput20VS16:  "voltage_input_20v_s16",
	VoltageInput20VU7:   "voltage_input_20v_u7",
	VoltageInput20VU15:  "voltage_input_20v_u15",
	VoltageInput25VS8:   "voltage_input_25v_s8",
	VoltageInput25VS16:  "voltage_input_25v_s16",
	VoltageInput25VU7:   "voltage_input_25v_u7",
	VoltageInput25VU15:  "voltage_input_25v_u15",
	PulseDurationNsU8:   "pulse_duration_ns_u8",
	PulseDurationNsU16:  "pulse_duration_ns_u16",
	PulseDurationNsU32:  "pulse_duration_ns_u32",
	PulseDurationUsU8:   "pulse_duration_us_u8",
	PulseDurationUsU16:  "pulse_duration_us_u16",
	PulseDurationUsU24:  "pulse_duration_us_u24",
	PulseDurationMsU8:   "pulse_duration_ms_u8",
	PulseDurationMsU16:  "pulse_duration_ms_u16",
	PulseDurationSU8:    "pulse_duration_s_u8",
	PulseDurationSU16:   "pulse_duration_s_u16",
	Boolean:             "boolean",
}

// String returns the lower-case identifier used in interface files.
func (t DataType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("datatype(%d)", int(t))
	}
	return dataTypeNames[t]
}

// Valid reports whether t is one of the declared identifiers.
func (t DataType) Valid() bool {
	return t >= 0 && t < numDataTypes
}

// MarshalText implements encoding.TextMarshaler.
func (t DataType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown datatype: %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *DataType) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Parse resolves an identifier such as "voltage_output_05v_s16". Matching is case-insensitive.
func Parse(name string) (DataType, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for i, n := range dataTypeNames {
		if n == key {
			return DataType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown datatype: %q", name)
}

// Category is the closed set of type families.
type Category int

const (
	CategoryBoolean Category = iota
	CategoryVoltageOutput
	CategoryVoltageInput
	CategoryDuration
)

func (c Category) String() string {
	switch c {
	case CategoryBoolean:
		return "BOOLEAN"
	case CategoryVoltageOutput:
		return "VOLTAGE_OUTPUT"
	case CategoryVoltageInput:
		return "VOLTAGE_INPUT"
	case CategoryDuration:
		return "DURATION"
	default:
		return "UNKNOWN"
	}
}

// Unit is the physical unit a descriptor's range and default are expressed in.
type Unit string

const (
	UnitNone        Unit = ""
	UnitMillivolt   Unit = "mV"
	UnitNanosecond  Unit = "ns"
	UnitMicrosecond Unit = "us"
	UnitMillisecond Unit = "ms"
	UnitSecond      Unit = "s"
)
