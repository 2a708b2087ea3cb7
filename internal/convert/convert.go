package convert

import (
	"fmt"
	"math"
	"strings"

	"github.com/KevinKickass/OpenRegMap/internal/datatypes"
)

// Rounding selects how a duration that is not a whole number of clock periods is handled.
type Rounding int

const (
	Exact Rounding = iota
	RoundUp
	RoundDown
)

func (r Rounding) String() string {
	switch r {
	case Exact:
		return "EXACT"
	case RoundUp:
		return "ROUND_UP"
	case RoundDown:
		return "ROUND_DOWN"
	default:
		return "UNKNOWN"
	}
}

// ParseRounding accepts EXACT, ROUND_UP and ROUND_DOWN in any case.
func ParseRounding(s string) (Rounding, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EXACT":
		return Exact, nil
	case "ROUND_UP":
		return RoundUp, nil
	case "ROUND_DOWN":
		return RoundDown, nil
	default:
		return 0, fmt.Errorf("unknown rounding policy %q", s)
	}
}

// integralTolerance absorbs float noise such as 1000/0.2 = 4999.999999999999.
// It is absolute in cycles so a half-cycle remainder is never treated as whole.
const integralTolerance = 1e-6

var nsPerUnit = map[datatypes.Unit]float64{
	datatypes.UnitNanosecond:  1,
	datatypes.UnitMicrosecond: 1e3,
	datatypes.UnitMillisecond: 1e6,
	datatypes.UnitSecond:      1e9,
}

// UnitMultiplier returns the number of nanoseconds in one unit.
func UnitMultiplier(unit datatypes.Unit) (float64, error) {
	m, ok := nsPerUnit[unit]
	if !ok {
		return 0, &InvalidUnitError{Unit: string(unit)}
	}
	return m, nil
}

// ToRaw scales value (in d's unit) linearly onto d's raw code range.
// Signed types map ±max onto ±(2^(w-1)-1), so the most negative code is never produced.
func ToRaw(value float64, d datatypes.Descriptor) (int64, error) {
	if !d.Contains(value) {
		return 0, &OutOfRangeError{
			Type:  d.Name(),
			Value: value,
			Min:   d.Min(),
			Max:   d.Max(),
			Unit:  string(d.Unit()),
		}
	}

	rawMax := float64(d.RawMax())

	switch d.Category() {
	case datatypes.CategoryBoolean:
		if value != 0 && value != 1 {
			return 0, &OutOfRangeError{Type: d.Name(), Value: value, Min: 0, Max: 1}
		}
		return int64(value), nil
	case datatypes.CategoryVoltageOutput, datatypes.CategoryVoltageInput, datatypes.CategoryDuration:
		if d.Signed() {
			return int64(math.Trunc(value * rawMax / d.Max())), nil
		}
		return int64(math.Trunc((value - d.Min()) * rawMax / (d.Max() - d.Min()))), nil
	}
	return 0, fmt.Errorf("unsupported category %s", d.Category())
}

// FromRaw is the inverse of ToRaw, accurate to one quantization step.
func FromRaw(raw int64, d datatypes.Descriptor) float64 {
	if d.Category() == datatypes.CategoryBoolean {
		if raw != 0 {
			return 1
		}
		return 0
	}

	rawMax := float64(d.RawMax())
	if d.Signed() {
		return float64(raw) * d.Max() / rawMax
	}
	return d.Min() + float64(raw)*(d.Max()-d.Min())/rawMax
}

// EncodeField converts value to its raw code and masks it to the field width,
// so signed codes come out in two's complement.
func EncodeField(value float64, d datatypes.Descriptor) (uint32, error) {
	raw, err := ToRaw(value, d)
	if err != nil {
		return 0, err
	}
	mask := uint64(1)<<d.BitWidth() - 1
	return uint32(uint64(raw) & mask), nil
}

// DecodeField is the inverse of EncodeField: it sign-extends a masked field and scales it back.
func DecodeField(bits uint32, d datatypes.Descriptor) float64 {
	w := d.BitWidth()
	mask := uint64(1)<<w - 1
	v := uint64(bits) & mask

	raw := int64(v)
	if d.Signed() && v&(uint64(1)<<(w-1)) != 0 {
		raw = int64(v) - int64(uint64(1)<<w)
	}
	return FromRaw(raw, d)
}

// DurationToCycles converts a duration to a whole number of clock cycles.
func DurationToCycles(value float64, unit datatypes.Unit, clockPeriodNs float64, rounding Rounding) (int64, error) {
	mult, err := UnitMultiplier(unit)
	if err != nil {
		return 0, err
	}
	if !(clockPeriodNs > 0) || math.IsInf(clockPeriodNs, 0) {
		return 0, ErrInvalidClockPeriod
	}
	if math.IsNaN(value) || value < 0 {
		return 0, &OutOfRangeError{
			Type:  "duration",
			Value: value,
			Min:   0,
			Max:   math.Inf(1),
			Unit:  string(unit),
		}
	}

	ns := value * mult
	cycles := ns / clockPeriodNs

	nearest := math.Round(cycles)
	if math.Abs(cycles-nearest) <= integralTolerance {
		return int64(nearest), nil
	}

	switch rounding {
	case Exact:
		return 0, &NonDivisibleError{DurationNs: ns, ClockPeriodNs: clockPeriodNs}
	case RoundUp:
		return int64(math.Ceil(cycles)), nil
	case RoundDown:
		return int64(math.Floor(cycles)), nil
	default:
		return 0, fmt.Errorf("unknown rounding policy %d", int(rounding))
	}
}

// CyclesToDuration converts a cycle count back into a duration in unit.
func CyclesToDuration(cycles int64, unit datatypes.Unit, clockPeriodNs float64) (float64, error) {
	mult, err := UnitMultiplier(unit)
	if err != nil {
		return 0, err
	}
	if !(clockPeriodNs > 0) || math.IsInf(clockPeriodNs, 0) {
		return 0, ErrInvalidClockPeriod
	}
	return float64(cycles) * clockPeriodNs / mult, nil
}

// ParseUnit resolves a duration unit string. "µs" is accepted for microseconds.
func ParseUnit(s string) (datatypes.Unit, error) {
	u := datatypes.Unit(strings.TrimSpace(s))
	if u == "µs" {
		u = datatypes.UnitMicrosecond
	}
	if _, ok := nsPerUnit[u]; !ok {
		return "", &InvalidUnitError{Unit: s}
	}
	return u, nil
}
