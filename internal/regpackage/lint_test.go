package regpackage

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevinKickass/OpenRegMap/internal/regmap"
)

func TestLintCleanPackage(t *testing.T) {
	pkg, err := Load(filepath.Join("testdata", "DS1140_PD_interface.yaml"))
	require.NoError(t, err)

	rep := Lint(pkg, regmap.DefaultBank(), regmap.FirstFit)
	assert.True(t, rep.Valid)
	assert.Empty(t, rep.Errors)
	assert.Empty(t, rep.Warnings)
}

func TestLintCollectsEveryProblem(t *testing.T) {
	pkg, err := Load(filepath.Join("testdata", "bad_defaults.yaml"))
	require.NoError(t, err)

	rep := Lint(pkg, regmap.DefaultBank(), regmap.FirstFit)
	assert.False(t, rep.Valid)

	for _, code := range []string{"REG_002", "REG_010", "REG_011", "REG_020", "REG_040"} {
		assert.True(t, rep.HasCode(code), "missing %s", code)
	}
	assert.False(t, rep.HasCode("REG_030"))

	for _, i := range rep.Errors {
		assert.Equal(t, SevError, i.Severity)
	}
	for _, i := range rep.Warnings {
		assert.Equal(t, SevWarning, i.Severity)
	}
}

func TestLintCapacity(t *testing.T) {
	pkg := &Package{AppName: "big", Description: "too many fields", MappingStrategy: "first_fit"}
	for i := 0; i < 13; i++ {
		pkg.Datatypes = append(pkg.Datatypes, Entry{
			Name:        fmt.Sprintf("timer_%d", i),
			Datatype:    "pulse_duration_ns_u32",
			Description: "timer",
		})
	}

	rep := Lint(pkg, regmap.DefaultBank(), regmap.FirstFit)
	require.Len(t, rep.Errors, 1)
	assert.Equal(t, "REG_030", rep.Errors[0].Code)
	assert.Equal(t, 416, rep.Errors[0].Meta["requested"])

	pkg.Bank = &regmap.Bank{BaseIndex: 0, RegisterCount: 16}
	rep = Lint(pkg, regmap.DefaultBank(), regmap.FirstFit)
	assert.True(t, rep.Valid)
}

func TestLintUnknownStrategy(t *testing.T) {
	pkg := &Package{AppName: "x", Description: "x", MappingStrategy: "worst_fit"}
	rep := Lint(pkg, regmap.DefaultBank(), regmap.FirstFit)
	require.Len(t, rep.Errors, 1)
	assert.Equal(t, "REG_012", rep.Errors[0].Code)
}

func TestValidHDLName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"arm_probe", true},
		{"CR6_level", true},
		{"1st", false},
		{"double__underscore", false},
		{"trailing_", false},
		{"with-dash", false},
		{"signal", false},
		{"Signal", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, validHDLName(tt.name), tt.name)
	}
}
