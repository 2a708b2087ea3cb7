package convert

import (
	"errors"
	"math"
	"testing"

	"github.com/KevinKickass/OpenRegMap/internal/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoltageOutput05VS16(t *testing.T) {
	d := datatypes.Lookup(datatypes.VoltageOutput05VS16)

	raw, err := ToRaw(2400, d)
	require.NoError(t, err)
	assert.Equal(t, int64(15728), raw)
	assert.InDelta(t, 2400, FromRaw(raw, d), 10)

	raw, err = ToRaw(5000, d)
	require.NoError(t, err)
	assert.Equal(t, int64(32767), raw)

	// -5000 mV stops at -32767, -32768 stays unused.
	raw, err = ToRaw(-5000, d)
	require.NoError(t, err)
	assert.Equal(t, int64(-32767), raw)

	_, err = ToRaw(6000, d)
	var rangeErr *OutOfRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, float64(6000), rangeErr.Value)
	assert.Contains(t, err.Error(), "voltage_output_05v_s16")
}

func TestVoltageInput25VS16(t *testing.T) {
	d := datatypes.Lookup(datatypes.VoltageInput25VS16)

	raw, err := ToRaw(10000, d)
	require.NoError(t, err)
	assert.InDelta(t, 10000, FromRaw(raw, d), 50)

	raw, err = ToRaw(25000, d)
	require.NoError(t, err)
	assert.Equal(t, int64(32767), raw)

	raw, err = ToRaw(-25000, d)
	require.NoError(t, err)
	assert.Equal(t, int64(-32767), raw)
}

func TestVoltageOutput05VU15(t *testing.T) {
	d := datatypes.Lookup(datatypes.VoltageOutput05VU15)

	raw, err := ToRaw(2500, d)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, raw, int64(0))
	assert.LessOrEqual(t, raw, int64(32767))
	assert.InDelta(t, 2500, FromRaw(raw, d), 10)

	raw, err = ToRaw(0, d)
	require.NoError(t, err)
	assert.Equal(t, int64(0), raw)

	raw, err = ToRaw(5000, d)
	require.NoError(t, err)
	assert.Equal(t, int64(32767), raw)

	_, err = ToRaw(-1000, d)
	assert.Error(t, err)
}

func TestBooleanRaw(t *testing.T) {
	d := datatypes.Lookup(datatypes.Boolean)

	raw, err := ToRaw(1, d)
	require.NoError(t, err)
	assert.Equal(t, int64(1), raw)

	raw, err = ToRaw(0, d)
	require.NoError(t, err)
	assert.Equal(t, int64(0), raw)

	_, err = ToRaw(0.5, d)
	assert.Error(t, err)
	_, err = ToRaw(2, d)
	assert.Error(t, err)

	assert.Equal(t, float64(1), FromRaw(1, d))
	assert.Equal(t, float64(0), FromRaw(0, d))
}

func TestNaNIsOutOfRange(t *testing.T) {
	_, err := ToRaw(math.NaN(), datatypes.Lookup(datatypes.VoltageOutput05VS8))
	var rangeErr *OutOfRangeError
	assert.ErrorAs(t, err, &rangeErr)
}

func TestRoundTripWithinOneStep(t *testing.T) {
	for _, dt := range datatypes.All() {
		d := datatypes.Lookup(dt)
		if d.Category() == datatypes.CategoryBoolean {
			continue
		}

		samples := []float64{d.Min(), d.Max(), (d.Min() + d.Max()) / 2}
		for i := 1; i <= 16; i++ {
			samples = append(samples, d.Min()+(d.Max()-d.Min())*float64(i)/17.0)
		}

		for _, v := range samples {
			raw, err := ToRaw(v, d)
			require.NoError(t, err, "%s value %g", dt, v)
			assert.GreaterOrEqual(t, raw, d.RawMin(), "%s value %g", dt, v)
			assert.LessOrEqual(t, raw, d.RawMax(), "%s value %g", dt, v)

			back := FromRaw(raw, d)
			assert.LessOrEqual(t, math.Abs(back-v), d.Step()*(1+1e-9), "%s value %g -> %d -> %g", dt, v, raw, back)
		}
	}
}

func TestEncodeDecodeField(t *testing.T) {
	d := datatypes.Lookup(datatypes.VoltageOutput05VS16)

	bits, err := EncodeField(-5000, d)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x8001), bits)
	assert.InDelta(t, -5000, DecodeField(bits, d), d.Step())

	bits, err = EncodeField(5000, d)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x7FFF), bits)

	s8 := datatypes.Lookup(datatypes.VoltageInput25VS8)
	bits, err = EncodeField(-25000, s8)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x81), bits)

	bits, err = EncodeField(1, datatypes.Lookup(datatypes.Boolean))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), bits)

	_, err = EncodeField(300, datatypes.Lookup(datatypes.PulseDurationNsU8))
	assert.Error(t, err)
}

func TestDurationToCycles(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		unit     datatypes.Unit
		period   float64
		rounding Rounding
		want     int64
	}{
		{"exact 800ns", 800, datatypes.UnitNanosecond, 8, Exact, 100},
		{"round up 500ns", 500, datatypes.UnitNanosecond, 8, RoundUp, 63},
		{"round down 500ns", 500, datatypes.UnitNanosecond, 8, RoundDown, 62},
		{"1us at 125MHz", 1000, datatypes.UnitNanosecond, 8, Exact, 125},
		{"1us at 500MHz", 1000, datatypes.UnitNanosecond, 2, Exact, 500},
		{"1us at 5GHz", 1000, datatypes.UnitNanosecond, 0.2, Exact, 5000},
		{"100us", 100, datatypes.UnitMicrosecond, 8, Exact, 12500},
		{"100ms", 100, datatypes.UnitMillisecond, 8, Exact, 12_500_000},
		{"1s", 1, datatypes.UnitSecond, 8, Exact, 125_000_000},
		{"integral ignores rounding", 800, datatypes.UnitNanosecond, 8, RoundUp, 100},
		{"zero", 0, datatypes.UnitNanosecond, 8, Exact, 0},
		{"u32 max exact", 4294967288, datatypes.UnitNanosecond, 8, Exact, 536870911},
		{"u32 half cycle up", 4294967292, datatypes.UnitNanosecond, 8, RoundUp, 536870912},
		{"u32 half cycle down", 4294967292, datatypes.UnitNanosecond, 8, RoundDown, 536870911},
		{"1s+1ns down", 1000000001, datatypes.UnitNanosecond, 2, RoundDown, 500000000},
		{"1s+1ns up", 1000000001, datatypes.UnitNanosecond, 2, RoundUp, 500000001},
		{"1.5s", 1.5, datatypes.UnitSecond, 8, Exact, 187_500_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DurationToCycles(tt.value, tt.unit, tt.period, tt.rounding)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDurationToCyclesErrors(t *testing.T) {
	_, err := DurationToCycles(500, datatypes.UnitNanosecond, 8, Exact)
	var nd *NonDivisibleError
	require.ErrorAs(t, err, &nd)
	assert.Equal(t, float64(500), nd.DurationNs)
	assert.Equal(t, float64(8), nd.ClockPeriodNs)

	for _, ns := range []float64{4294967292, 1000000001} {
		_, err = DurationToCycles(ns, datatypes.UnitNanosecond, 8, Exact)
		assert.ErrorAs(t, err, &nd, "%g ns", ns)
	}

	_, err = DurationToCycles(100, datatypes.Unit("invalid"), 8, Exact)
	var iu *InvalidUnitError
	require.ErrorAs(t, err, &iu)
	assert.Equal(t, "invalid", iu.Unit)

	_, err = DurationToCycles(100, datatypes.UnitMillivolt, 8, Exact)
	assert.ErrorAs(t, err, &iu)

	_, err = DurationToCycles(100, datatypes.UnitNanosecond, 0, Exact)
	assert.True(t, errors.Is(err, ErrInvalidClockPeriod))

	_, err = DurationToCycles(-1, datatypes.UnitNanosecond, 8, RoundUp)
	var rangeErr *OutOfRangeError
	assert.ErrorAs(t, err, &rangeErr)
}

func TestCyclesToDuration(t *testing.T) {
	ns, err := CyclesToDuration(125, datatypes.UnitNanosecond, 8)
	require.NoError(t, err)
	assert.Equal(t, float64(1000), ns)

	us, err := CyclesToDuration(12500, datatypes.UnitMicrosecond, 8)
	require.NoError(t, err)
	assert.Equal(t, float64(100), us)

	_, err = CyclesToDuration(1, datatypes.Unit("h"), 8)
	var iu *InvalidUnitError
	assert.ErrorAs(t, err, &iu)

	_, err = CyclesToDuration(1, datatypes.UnitSecond, -8)
	assert.ErrorIs(t, err, ErrInvalidClockPeriod)
}

func TestParseRoundingAndUnit(t *testing.T) {
	r, err := ParseRounding("round_up")
	require.NoError(t, err)
	assert.Equal(t, RoundUp, r)
	assert.Equal(t, "ROUND_UP", r.String())

	_, err = ParseRounding("nearest")
	assert.Error(t, err)

	u, err := ParseUnit("µs")
	require.NoError(t, err)
	assert.Equal(t, datatypes.UnitMicrosecond, u)

	_, err = ParseUnit("min")
	assert.Error(t, err)
}
