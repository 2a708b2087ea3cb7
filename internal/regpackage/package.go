// Package regpackage reads register interface files: the list of typed fields an
// application exposes through its control registers, plus packing preferences.
package regpackage

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/KevinKickass/OpenRegMap/internal/datatypes"
	"github.com/KevinKickass/OpenRegMap/internal/regmap"
)

// Package is one register interface definition.
type Package struct {
	AppName         string       `yaml:"app_name" json:"app_name"`
	Version         string       `yaml:"version,omitempty" json:"version,omitempty"`
	Description     string       `yaml:"description,omitempty" json:"description,omitempty"`
	MappingStrategy string       `yaml:"mapping_strategy,omitempty" json:"mapping_strategy,omitempty"`
	Bank            *regmap.Bank `yaml:"bank,omitempty" json:"bank,omitempty"`
	Datatypes       []Entry      `yaml:"datatypes" json:"datatypes"`
}

// Entry declares one field of the interface.
type Entry struct {
	Name         string   `yaml:"name" json:"name"`
	Datatype     string   `yaml:"datatype" json:"datatype"`
	Description  string   `yaml:"description,omitempty" json:"description,omitempty"`
	DisplayName  string   `yaml:"display_name,omitempty" json:"display_name,omitempty"`
	DefaultValue *float64 `yaml:"default_value,omitempty" json:"default_value,omitempty"`
	Units        string   `yaml:"units,omitempty" json:"units,omitempty"`
}

// Parse validates data (YAML or JSON) against the interface schema and decodes it.
func Parse(data []byte) (*Package, error) {
	validator, err := defaultValidator()
	if err != nil {
		return nil, err
	}
	return parseWith(validator, data)
}

// Load reads and parses an interface file.
func Load(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read interface file: %w", err)
	}
	pkg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pkg, nil
}

func parseWith(v *Validator, data []byte) (*Package, error) {
	if err := v.ValidateBytes(data); err != nil {
		return nil, err
	}

	var pkg Package
	if err := yaml.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("failed to decode interface: %w", err)
	}
	return &pkg, nil
}

// Fields resolves the declared datatypes, in file order.
func (p *Package) Fields() ([]regmap.Field, error) {
	fields := make([]regmap.Field, 0, len(p.Datatypes))
	for i, e := range p.Datatypes {
		dt, err := datatypes.Parse(e.Datatype)
		if err != nil {
			return nil, fmt.Errorf("datatypes[%d] %s: %w", i, e.Name, err)
		}
		fields = append(fields, regmap.Field{Name: e.Name, Type: dt})
	}
	return fields, nil
}

// Strategy returns the declared strategy, or fallback when none is declared.
func (p *Package) Strategy(fallback regmap.Strategy) (regmap.Strategy, error) {
	if p.MappingStrategy == "" {
		return fallback, nil
	}
	return regmap.ParseStrategy(p.MappingStrategy)
}

// BankOr returns the declared bank, or fallback when none is declared.
func (p *Package) BankOr(fallback regmap.Bank) regmap.Bank {
	if p.Bank == nil {
		return fallback
	}
	return *p.Bank
}

// Mapper builds a mapper for the package's bank.
func (p *Package) Mapper(fallback regmap.Bank, logger *zap.Logger) *regmap.Mapper {
	return regmap.NewMapper(p.BankOr(fallback), logger)
}

// Defaults collects the declared default values by field name.
func (p *Package) Defaults() map[string]float64 {
	out := make(map[string]float64)
	for _, e := range p.Datatypes {
		if e.DefaultValue != nil {
			out[e.Name] = *e.DefaultValue
		}
	}
	return out
}

// GenerateMapping packs the package's fields with mapper.
func (p *Package) GenerateMapping(mapper *regmap.Mapper, fallback regmap.Strategy) ([]regmap.Mapping, error) {
	fields, err := p.Fields()
	if err != nil {
		return nil, err
	}
	strategy := fallback
	if p.MappingStrategy != "" {
		strategy = regmap.StrategyName(p.MappingStrategy)
	}
	return mapper.Map(fields, strategy)
}

// ControlRegisters materialises the initial CR values for mappings using the declared defaults.
func (p *Package) ControlRegisters(mappings []regmap.Mapping) (map[int]uint32, error) {
	return regmap.MaterializeDefaults(mappings, p.Defaults())
}

// ToJSON encodes the package for storage.
func (p *Package) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}
