package regpackage

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed schema/reg-interface-v1.json
var regInterfaceSchemaJSON string

type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	if err := compiler.AddResource("reg-interface-v1.json",
		strings.NewReader(regInterfaceSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}

	schema, err := compiler.Compile("reg-interface-v1.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

var (
	sharedValidator     *Validator
	sharedValidatorErr  error
	sharedValidatorOnce sync.Once
)

func defaultValidator() (*Validator, error) {
	sharedValidatorOnce.Do(func() {
		sharedValidator, sharedValidatorErr = NewValidator()
	})
	return sharedValidator, sharedValidatorErr
}

// ValidateBytes checks a YAML or JSON document against the schema.
func (v *Validator) ValidateBytes(data []byte) error {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	if doc == nil {
		return fmt.Errorf("schema validation failed: empty document")
	}

	// Round-trip through JSON so the validator sees float64 numbers and string-keyed maps.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to normalise document: %w", err)
	}
	var normalised interface{}
	if err := json.Unmarshal(raw, &normalised); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	if err := v.schema.Validate(normalised); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// ValidatePackage checks an already decoded package.
func (v *Validator) ValidatePackage(pkg *Package) error {
	data, err := json.Marshal(pkg)
	if err != nil {
		return fmt.Errorf("failed to marshal package: %w", err)
	}
	return v.ValidateBytes(data)
}
