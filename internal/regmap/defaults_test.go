package regmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinKickass/OpenRegMap/internal/convert"
	"github.com/KevinKickass/OpenRegMap/internal/datatypes"
)

func TestMaterializeDefaultsAllZero(t *testing.T) {
	mappings, err := newTestMapper().Map(ds1140Fields(), BestFit)
	require.NoError(t, err)

	values, err := MaterializeDefaults(mappings, nil)
	require.NoError(t, err)

	assert.Len(t, values, 3)
	for cr, v := range values {
		assert.Equal(t, uint32(0), v, "CR%d", cr)
	}
}

func TestMaterializeDefaultsWithOverrides(t *testing.T) {
	mappings := []Mapping{
		{Name: "enable", Type: datatypes.Boolean, Register: 6, Slice: BitSlice{MSB: 31, LSB: 31}},
		{Name: "intensity", Type: datatypes.VoltageOutput05VS16, Register: 6, Slice: BitSlice{MSB: 30, LSB: 15}},
		{Name: "divider", Type: datatypes.PulseDurationNsU8, Register: 6, Slice: BitSlice{MSB: 14, LSB: 7}},
		{Name: "timeout", Type: datatypes.PulseDurationMsU16, Register: 7, Slice: BitSlice{MSB: 31, LSB: 16}},
	}

	values, err := MaterializeDefaults(mappings, map[string]float64{
		"enable":    1,
		"intensity": -5000,
		"divider":   0xAB,
		"timeout":   1000,
		"unmapped":  12,
	})
	require.NoError(t, err)

	// -32767 in 16 bits is 0x8001.
	want6 := uint32(1)<<31 | uint32(0x8001)<<15 | uint32(0xAB)<<7
	assert.Equal(t, want6, values[6])
	assert.Equal(t, uint32(1000)<<16, values[7])

	// Decoding each slice gives the value back.
	enc := values[6] >> 15 & 0xFFFF
	assert.InDelta(t, -5000, convert.DecodeField(enc, datatypes.Lookup(datatypes.VoltageOutput05VS16)), 1)
}

func TestMaterializeDefaultsRejectsOutOfRange(t *testing.T) {
	mappings := []Mapping{
		{Name: "divider", Type: datatypes.PulseDurationNsU8, Register: 6, Slice: BitSlice{MSB: 31, LSB: 24}},
	}
	_, err := MaterializeDefaults(mappings, map[string]float64{"divider": 256})
	var rangeErr *convert.OutOfRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Contains(t, err.Error(), "divider")
}
