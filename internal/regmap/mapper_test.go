package regmap

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KevinKickass/OpenRegMap/internal/datatypes"
)

func newTestMapper() *Mapper {
	return NewMapper(DefaultBank(), zap.NewNop())
}

func ds1140Fields() []Field {
	return []Field{
		{Name: "arm_probe", Type: datatypes.Boolean},
		{Name: "force_fire", Type: datatypes.Boolean},
		{Name: "reset_fsm", Type: datatypes.Boolean},
		{Name: "clock_divider", Type: datatypes.PulseDurationNsU8},
		{Name: "arm_timeout", Type: datatypes.PulseDurationMsU16},
		{Name: "firing_duration", Type: datatypes.PulseDurationNsU8},
		{Name: "cooling_duration", Type: datatypes.PulseDurationNsU8},
		{Name: "trigger_threshold", Type: datatypes.VoltageInput25VS16},
		{Name: "intensity", Type: datatypes.VoltageOutput05VS16},
	}
}

func TestMappingVHDLSlice(t *testing.T) {
	single := Mapping{Name: "enable", Type: datatypes.Boolean, Register: 6, Slice: BitSlice{MSB: 31, LSB: 31}}
	assert.Equal(t, "app_reg_6(31)", single.VHDLSlice())
	assert.Equal(t, 1, single.Width())

	multi := Mapping{Name: "intensity", Type: datatypes.VoltageOutput05VS16, Register: 6, Slice: BitSlice{MSB: 31, LSB: 16}}
	assert.Equal(t, "app_reg_6(31 downto 16)", multi.VHDLSlice())
	assert.Equal(t, 16, multi.Width())
}

func TestMapEmptyInput(t *testing.T) {
	mappings, err := newTestMapper().Map(nil, FirstFit)
	require.NoError(t, err)
	assert.NotNil(t, mappings)
	assert.Empty(t, mappings)
}

func TestMapValidation(t *testing.T) {
	wide := make([]Field, 25)
	for i := range wide {
		wide[i] = Field{Name: fmt.Sprintf("val_%d", i), Type: datatypes.VoltageOutput05VS16}
	}

	t.Run("duplicate name", func(t *testing.T) {
		_, err := newTestMapper().Map([]Field{
			{Name: "intensity", Type: datatypes.VoltageOutput05VS16},
			{Name: "intensity", Type: datatypes.VoltageOutput05VS8},
		}, FirstFit)
		var dup *DuplicateFieldNameError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "intensity", dup.Name)
		assert.Contains(t, err.Error(), "intensity")
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := newTestMapper().Map([]Field{{Name: "", Type: datatypes.Boolean}}, FirstFit)
		var inv *InvalidFieldError
		require.ErrorAs(t, err, &inv)
		assert.Equal(t, 0, inv.Index)
	})

	t.Run("undeclared type", func(t *testing.T) {
		_, err := newTestMapper().Map([]Field{{Name: "x", Type: datatypes.DataType(99)}}, FirstFit)
		var inv *InvalidFieldError
		assert.ErrorAs(t, err, &inv)
	})

	t.Run("capacity exceeded", func(t *testing.T) {
		_, err := newTestMapper().Map(wide, FirstFit)
		var ce *CapacityExceededError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, 400, ce.Requested)
		assert.Equal(t, 384, ce.Available)
		assert.Regexp(t, "Cannot fit.*384 available bits", err.Error())
	})

	t.Run("unknown strategy", func(t *testing.T) {
		_, err := newTestMapper().Map([]Field{{Name: "test", Type: datatypes.Boolean}}, Strategy("invalid_strategy"))
		var us *UnknownStrategyError
		require.ErrorAs(t, err, &us)
		assert.Contains(t, err.Error(), "Unknown packing strategy")
	})

	t.Run("duplicate wins over capacity", func(t *testing.T) {
		fields := append([]Field{{Name: "val_0", Type: datatypes.Boolean}}, wide...)
		_, err := newTestMapper().Map(fields, Strategy("nope"))
		var dup *DuplicateFieldNameError
		assert.ErrorAs(t, err, &dup)
	})

	t.Run("capacity wins over strategy", func(t *testing.T) {
		_, err := newTestMapper().Map(wide, Strategy("nope"))
		var ce *CapacityExceededError
		assert.ErrorAs(t, err, &ce)
	})

	t.Run("field wider than a register", func(t *testing.T) {
		orig := typeWidth
		t.Cleanup(func() { typeWidth = orig })
		typeWidth = func(dt datatypes.DataType) int {
			if dt == datatypes.PulseDurationNsU32 {
				return 33
			}
			return orig(dt)
		}

		fields := []Field{
			{Name: "enable", Type: datatypes.Boolean},
			{Name: "window", Type: datatypes.PulseDurationNsU32},
		}
		_, err := newTestMapper().Map(fields, Strategy("nope"))
		var tw *FieldTooWideError
		require.ErrorAs(t, err, &tw)
		assert.Equal(t, "window", tw.Name)
		assert.Equal(t, 33, tw.BitWidth)
		assert.Equal(t, RegisterWidth, tw.MaxWidth)
		assert.Equal(t, "field_too_wide", ErrorKind(err))
	})

	t.Run("invalid bank", func(t *testing.T) {
		m := NewMapper(Bank{BaseIndex: 0, RegisterCount: 0}, nil)
		_, err := m.Map([]Field{{Name: "a", Type: datatypes.Boolean}}, FirstFit)
		var ib *InvalidBankError
		assert.ErrorAs(t, err, &ib)
	})
}

func TestFirstFit(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
		want   []Mapping
	}{
		{
			name: "two 16 bit fields share a register",
			fields: []Field{
				{Name: "intensity", Type: datatypes.VoltageOutput05VS16},
				{Name: "threshold", Type: datatypes.VoltageOutput05VS16},
			},
			want: []Mapping{
				{Name: "intensity", Type: datatypes.VoltageOutput05VS16, Register: 6, Slice: BitSlice{31, 16}},
				{Name: "threshold", Type: datatypes.VoltageOutput05VS16, Register: 6, Slice: BitSlice{15, 0}},
			},
		},
		{
			name: "third 16 bit field moves to next register",
			fields: []Field{
				{Name: "v1", Type: datatypes.VoltageOutput05VS16},
				{Name: "v2", Type: datatypes.VoltageOutput05VS16},
				{Name: "v3", Type: datatypes.VoltageOutput05VS16},
			},
			want: []Mapping{
				{Name: "v1", Type: datatypes.VoltageOutput05VS16, Register: 6, Slice: BitSlice{31, 16}},
				{Name: "v2", Type: datatypes.VoltageOutput05VS16, Register: 6, Slice: BitSlice{15, 0}},
				{Name: "v3", Type: datatypes.VoltageOutput05VS16, Register: 7, Slice: BitSlice{31, 16}},
			},
		},
		{
			name: "booleans pack bit by bit",
			fields: []Field{
				{Name: "enable", Type: datatypes.Boolean},
				{Name: "armed", Type: datatypes.Boolean},
				{Name: "trigger", Type: datatypes.Boolean},
			},
			want: []Mapping{
				{Name: "enable", Type: datatypes.Boolean, Register: 6, Slice: BitSlice{31, 31}},
				{Name: "armed", Type: datatypes.Boolean, Register: 6, Slice: BitSlice{30, 30}},
				{Name: "trigger", Type: datatypes.Boolean, Register: 6, Slice: BitSlice{29, 29}},
			},
		},
		{
			name: "mixed sizes",
			fields: []Field{
				{Name: "voltage", Type: datatypes.VoltageOutput05VS16},
				{Name: "time_ns", Type: datatypes.PulseDurationNsU8},
				{Name: "enable", Type: datatypes.Boolean},
			},
			want: []Mapping{
				{Name: "voltage", Type: datatypes.VoltageOutput05VS16, Register: 6, Slice: BitSlice{31, 16}},
				{Name: "time_ns", Type: datatypes.PulseDurationNsU8, Register: 6, Slice: BitSlice{15, 8}},
				{Name: "enable", Type: datatypes.Boolean, Register: 6, Slice: BitSlice{7, 7}},
			},
		},
		{
			name: "exactly full register",
			fields: []Field{
				{Name: "a", Type: datatypes.VoltageOutput05VS16},
				{Name: "b", Type: datatypes.PulseDurationNsU8},
				{Name: "c", Type: datatypes.PulseDurationNsU8},
			},
			want: []Mapping{
				{Name: "a", Type: datatypes.VoltageOutput05VS16, Register: 6, Slice: BitSlice{31, 16}},
				{Name: "b", Type: datatypes.PulseDurationNsU8, Register: 6, Slice: BitSlice{15, 8}},
				{Name: "c", Type: datatypes.PulseDurationNsU8, Register: 6, Slice: BitSlice{7, 0}},
			},
		},
		{
			name:   "single field is msb aligned",
			fields: []Field{{Name: "solo", Type: datatypes.VoltageOutput05VS16}},
			want: []Mapping{
				{Name: "solo", Type: datatypes.VoltageOutput05VS16, Register: 6, Slice: BitSlice{31, 16}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newTestMapper().Map(tt.fields, FirstFit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBestFitSortsByWidth(t *testing.T) {
	got, err := newTestMapper().Map([]Field{
		{Name: "small", Type: datatypes.PulseDurationNsU8},
		{Name: "large", Type: datatypes.VoltageOutput05VS16},
		{Name: "tiny", Type: datatypes.Boolean},
	}, BestFit)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "large", got[0].Name)
	assert.Equal(t, "small", got[1].Name)
	assert.Equal(t, "tiny", got[2].Name)
}

func TestBestFitOrderIndependence(t *testing.T) {
	m := newTestMapper()

	a, err := m.Map([]Field{
		{Name: "small", Type: datatypes.PulseDurationNsU8},
		{Name: "large", Type: datatypes.VoltageOutput05VS16},
	}, BestFit)
	require.NoError(t, err)

	b, err := m.Map([]Field{
		{Name: "large", Type: datatypes.VoltageOutput05VS16},
		{Name: "small", Type: datatypes.PulseDurationNsU8},
	}, BestFit)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, BitSlice{31, 16}, a[0].Slice)
	assert.Equal(t, "large", a[0].Name)
	assert.Equal(t, BitSlice{15, 8}, a[1].Slice)
	assert.Equal(t, "small", a[1].Name)
}

func TestBestFitPermutationsKeepLayout(t *testing.T) {
	m := newTestMapper()
	fields := ds1140Fields()

	base, err := m.Map(fields, BestFit)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := append([]Field(nil), fields...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, err := m.Map(shuffled, BestFit)
		require.NoError(t, err)
		require.Len(t, got, len(base))

		for j := range base {
			assert.Equal(t, base[j].Width(), got[j].Width())
			assert.Equal(t, base[j].Register, got[j].Register)
			assert.Equal(t, base[j].Slice, got[j].Slice)
		}
	}
}

func TestTypeClusteringGroupsFamilies(t *testing.T) {
	got, err := newTestMapper().Map([]Field{
		{Name: "time1", Type: datatypes.PulseDurationNsU8},
		{Name: "voltage_out", Type: datatypes.VoltageOutput05VS16},
		{Name: "bool1", Type: datatypes.Boolean},
		{Name: "time2", Type: datatypes.PulseDurationMsU16},
		{Name: "voltage_in", Type: datatypes.VoltageInput25VS16},
	}, TypeClustering)
	require.NoError(t, err)

	names := make([]string, len(got))
	for i, mp := range got {
		names[i] = mp.Name
	}
	assert.Equal(t, []string{"voltage_out", "voltage_in", "time1", "time2", "bool1"}, names)
}

func TestDS1140Layout(t *testing.T) {
	m := newTestMapper()
	got, err := m.Map(ds1140Fields(), BestFit)
	require.NoError(t, err)

	report := m.GenerateReport(got)
	assert.LessOrEqual(t, report.RegistersUsed(), 4)
	assert.Equal(t, 75, report.TotalBitsUsed)
}

func TestCapacityBoundary(t *testing.T) {
	fields := make([]Field, 12)
	for i := range fields {
		fields[i] = Field{Name: fmt.Sprintf("timer_%d", i), Type: datatypes.PulseDurationNsU32}
	}

	got, err := newTestMapper().Map(fields, FirstFit)
	require.NoError(t, err)
	for i, mp := range got {
		assert.Equal(t, 6+i, mp.Register)
		assert.Equal(t, BitSlice{31, 0}, mp.Slice)
	}

	fields = append(fields, Field{Name: "timer_12", Type: datatypes.PulseDurationNsU32})
	_, err = newTestMapper().Map(fields, FirstFit)
	var ce *CapacityExceededError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 416, ce.Requested)
}

func TestFragmentationOverflow(t *testing.T) {
	// 13 x 24 bits = 312 bits fit the bank, but no two share a register.
	fields := make([]Field, 13)
	for i := range fields {
		fields[i] = Field{Name: fmt.Sprintf("f%d", i), Type: datatypes.PulseDurationUsU24}
	}

	_, err := newTestMapper().Map(fields, BestFit)
	var ce *CapacityExceededError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 13, ce.Registers)
	assert.Equal(t, 12, ce.Limit)
}

func TestCustomBank(t *testing.T) {
	m := NewMapper(Bank{BaseIndex: 0, RegisterCount: 2}, zap.NewNop())
	got, err := m.Map([]Field{
		{Name: "a", Type: datatypes.PulseDurationNsU32},
		{Name: "b", Type: datatypes.Boolean},
	}, FirstFit)
	require.NoError(t, err)
	assert.Equal(t, 0, got[0].Register)
	assert.Equal(t, 1, got[1].Register)

	report := m.GenerateReport(got)
	assert.Equal(t, 64, report.TotalBitsAvailable)
}

func TestDeterminism(t *testing.T) {
	m := newTestMapper()
	fields := []Field{
		{Name: "a", Type: datatypes.VoltageOutput05VS16},
		{Name: "b", Type: datatypes.PulseDurationMsU16},
		{Name: "c", Type: datatypes.Boolean},
	}
	for _, s := range Strategies() {
		first, err := m.Map(fields, s)
		require.NoError(t, err)
		second, err := m.Map(fields, s)
		require.NoError(t, err)
		assert.Equal(t, first, second, string(s))
	}
}

func TestRandomLayoutsHoldInvariants(t *testing.T) {
	m := newTestMapper()
	types := datatypes.All()
	rng := rand.New(rand.NewSource(7))

	for iter := 0; iter < 200; iter++ {
		n := rng.Intn(30) + 1
		fields := make([]Field, n)
		requested := 0
		for i := range fields {
			dt := types[rng.Intn(len(types))]
			fields[i] = Field{Name: fmt.Sprintf("f%d", i), Type: dt}
			requested += datatypes.Lookup(dt).BitWidth()
		}

		for _, s := range Strategies() {
			got, err := m.Map(fields, s)
			if err != nil {
				var ce *CapacityExceededError
				require.ErrorAs(t, err, &ce, "strategy %s", s)
				continue
			}
			require.Len(t, got, n)

			sum := 0
			for _, mp := range got {
				sum += mp.Width()
				assert.Equal(t, datatypes.Lookup(mp.Type).BitWidth(), mp.Width())
				assert.True(t, m.Bank().Contains(mp.Register))
				assert.GreaterOrEqual(t, mp.Slice.LSB, 0)
				assert.LessOrEqual(t, mp.Slice.MSB, 31)
			}
			assert.Equal(t, requested, sum, "conservation for %s", s)

			for i := 0; i < len(got); i++ {
				for j := i + 1; j < len(got); j++ {
					if got[i].Register != got[j].Register {
						continue
					}
					assert.False(t, got[i].Slice.Overlaps(got[j].Slice),
						"%s: %s%s overlaps %s%s", s, got[i].Name, got[i].Slice, got[j].Name, got[j].Slice)
				}
			}
		}
	}
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy(" Best_Fit ")
	require.NoError(t, err)
	assert.Equal(t, BestFit, s)

	_, err = ParseStrategy("worst_fit")
	var us *UnknownStrategyError
	assert.ErrorAs(t, err, &us)
}
