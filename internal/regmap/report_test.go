package regmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinKickass/OpenRegMap/internal/datatypes"
)

func TestGenerateReport(t *testing.T) {
	m := newTestMapper()
	mappings, err := m.Map([]Field{
		{Name: "intensity", Type: datatypes.VoltageOutput05VS16},
		{Name: "threshold", Type: datatypes.VoltageOutput05VS16},
	}, FirstFit)
	require.NoError(t, err)

	report := m.GenerateReport(mappings)
	assert.Equal(t, 32, report.TotalBitsUsed)
	assert.Equal(t, 384, report.TotalBitsAvailable)
	assert.InDelta(t, 32.0/384.0*100, report.EfficiencyPercent, 1e-9)
	assert.Equal(t, 1, report.RegistersUsed())
	assert.Equal(t, []int{6}, report.Registers())
	assert.Equal(t, 0, report.FreeBits(6))
	assert.Equal(t, 32, report.FreeBits(7))
}

func TestReportOrdersRegistersByMSB(t *testing.T) {
	shuffled := []Mapping{
		{Name: "c", Type: datatypes.Boolean, Register: 7, Slice: BitSlice{MSB: 0, LSB: 0}},
		{Name: "b", Type: datatypes.PulseDurationNsU8, Register: 6, Slice: BitSlice{MSB: 15, LSB: 8}},
		{Name: "a", Type: datatypes.VoltageOutput05VS16, Register: 6, Slice: BitSlice{MSB: 31, LSB: 16}},
		{Name: "d", Type: datatypes.Boolean, Register: 7, Slice: BitSlice{MSB: 31, LSB: 31}},
	}

	report := NewReport(DefaultBank(), shuffled)
	assert.Equal(t, []int{6, 7}, report.Registers())

	require.Len(t, report.RegisterMap[6], 2)
	assert.Equal(t, "a", report.RegisterMap[6][0].Name)
	assert.Equal(t, "b", report.RegisterMap[6][1].Name)
	assert.Equal(t, "d", report.RegisterMap[7][0].Name)
	assert.Equal(t, "c", report.RegisterMap[7][1].Name)

	names := []string{}
	for _, mp := range report.Mappings() {
		names = append(names, mp.Name)
	}
	assert.Equal(t, []string{"a", "b", "d", "c"}, names)

	// The caller's slice is left alone.
	assert.Equal(t, "c", shuffled[0].Name)
}

func TestReportOfNothing(t *testing.T) {
	report := newTestMapper().GenerateReport(nil)
	assert.Equal(t, 0, report.TotalBitsUsed)
	assert.Equal(t, float64(0), report.EfficiencyPercent)
	assert.Empty(t, report.Registers())
}
