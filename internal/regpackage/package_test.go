package regpackage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KevinKickass/OpenRegMap/internal/datatypes"
	"github.com/KevinKickass/OpenRegMap/internal/regmap"
)

func TestLoadDS1140(t *testing.T) {
	pkg, err := Load(filepath.Join("testdata", "DS1140_PD_interface.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "DS1140_PD", pkg.AppName)
	assert.Equal(t, "1.0.0", pkg.Version)
	assert.Len(t, pkg.Datatypes, 9)

	fields, err := pkg.Fields()
	require.NoError(t, err)
	assert.Equal(t, regmap.Field{Name: "arm_probe", Type: datatypes.Boolean}, fields[0])
	assert.Equal(t, datatypes.VoltageOutput05VS16, fields[8].Type)

	strategy, err := pkg.Strategy(regmap.FirstFit)
	require.NoError(t, err)
	assert.Equal(t, regmap.BestFit, strategy)

	defaults := pkg.Defaults()
	assert.Equal(t, float64(2000), defaults["intensity"])
	_, ok := defaults["force_fire"]
	assert.False(t, ok)
}

func TestGenerateMappingAndControlRegisters(t *testing.T) {
	pkg, err := Load(filepath.Join("testdata", "DS1140_PD_interface.yaml"))
	require.NoError(t, err)

	mapper := pkg.Mapper(regmap.DefaultBank(), zap.NewNop())
	mappings, err := pkg.GenerateMapping(mapper, regmap.FirstFit)
	require.NoError(t, err)

	report := mapper.GenerateReport(mappings)
	assert.Equal(t, 3, report.RegistersUsed())
	assert.Equal(t, 75, report.TotalBitsUsed)

	values, err := pkg.ControlRegisters(mappings)
	require.NoError(t, err)
	assert.Len(t, values, 3)

	// best_fit order: arm_timeout and trigger_threshold share CR6, intensity leads CR7.
	assert.Equal(t, "intensity", mappings[2].Name)
	assert.Equal(t, 7, mappings[2].Register)
	assert.Equal(t, uint32(255)<<16|uint32(3145), values[6])
	assert.Equal(t, uint32(13106), values[7]>>16)
	assert.Equal(t, uint32(16), values[7]&0xFF)
}

func TestGenerateMappingChecksFieldsBeforeStrategy(t *testing.T) {
	pkg := &Package{
		AppName:         "x",
		MappingStrategy: "nope",
		Datatypes: []Entry{
			{Name: "a", Datatype: "boolean"},
			{Name: "a", Datatype: "boolean"},
		},
	}
	mapper := pkg.Mapper(regmap.DefaultBank(), zap.NewNop())

	_, err := pkg.GenerateMapping(mapper, regmap.FirstFit)
	var dup *regmap.DuplicateFieldNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a", dup.Name)

	pkg.Datatypes = pkg.Datatypes[:1]
	_, err = pkg.GenerateMapping(mapper, regmap.FirstFit)
	var unknown *regmap.UnknownStrategyError
	assert.ErrorAs(t, err, &unknown)

	pkg.MappingStrategy = " Best_Fit "
	mappings, err := pkg.GenerateMapping(mapper, regmap.FirstFit)
	require.NoError(t, err)
	assert.Len(t, mappings, 1)
}

func TestParseAcceptsJSON(t *testing.T) {
	pkg, err := Parse([]byte(`{"app_name": "pulser", "mapping_strategy": "first_fit", ` +
		`"bank": {"base_index": 0, "register_count": 4}, ` +
		`"datatypes": [{"name": "width", "datatype": "pulse_duration_ns_u16", "default_value": 80}]}`))
	require.NoError(t, err)
	require.NotNil(t, pkg.Bank)
	assert.Equal(t, regmap.Bank{BaseIndex: 0, RegisterCount: 4}, pkg.BankOr(regmap.DefaultBank()))
}

func TestParseRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing app name", "datatypes: []\n"},
		{"unknown strategy", "app_name: x\nmapping_strategy: worst_fit\ndatatypes: []\n"},
		{"entry without datatype", "app_name: x\ndatatypes:\n  - name: a\n"},
		{"unknown key", "app_name: x\ncolor: red\ndatatypes: []\n"},
		{"string default", "app_name: x\ndatatypes:\n  - name: a\n    datatype: boolean\n    default_value: yes please\n"},
		{"empty document", ""},
		{"not yaml", "app_name: [unterminated\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoaderSearchPathsAndCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "probe.yml")
	require.NoError(t, os.WriteFile(path, []byte("app_name: probe\ndatatypes:\n  - name: go\n    datatype: boolean\n"), 0o644))

	loader, err := NewLoader([]string{filepath.Join(dir, "missing"), dir})
	require.NoError(t, err)

	pkg, err := loader.Load("probe")
	require.NoError(t, err)
	assert.Equal(t, "probe", pkg.AppName)

	// Served from cache even after the file is gone.
	require.NoError(t, os.Remove(path))
	cached, err := loader.Load("probe")
	require.NoError(t, err)
	assert.Same(t, pkg, cached)

	loader.ClearCache()
	_, err = loader.Load("probe")
	assert.Error(t, err)
}

func TestLoaderAbsolutePath(t *testing.T) {
	abs, err := filepath.Abs(filepath.Join("testdata", "DS1140_PD_interface.yaml"))
	require.NoError(t, err)

	loader, err := NewLoader(nil)
	require.NoError(t, err)

	pkg, err := loader.Load(abs)
	require.NoError(t, err)
	assert.Equal(t, "DS1140_PD", pkg.AppName)
	assert.NoError(t, loader.Validator().ValidatePackage(pkg))
}
