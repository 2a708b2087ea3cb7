// Package regmap packs typed application fields into a bank of 32-bit control registers.
//
// # Overview
//
// A Mapper takes an ordered list of Fields, validates it as a whole and assigns every field a
// register index and an inclusive bit slice. Packing is MSB first: the first field placed in a
// register occupies bit 31 downwards. A field never spans two registers.
//
// # Strategies
//
// Strategies only reorder the fields before the shared sequential packer runs:
//   - FirstFit keeps the caller's order.
//   - BestFit sorts by bit width, widest first, ties in input order.
//   - TypeClustering groups voltage outputs, voltage inputs, durations and booleans.
//
// # Basic Usage
//
//	mapper := regmap.NewMapper(regmap.DefaultBank(), logger)
//
//	mappings, err := mapper.Map([]regmap.Field{
//	    {Name: "intensity", Type: datatypes.VoltageOutput05VS16},
//	    {Name: "arm_probe", Type: datatypes.Boolean},
//	}, regmap.BestFit)
//	if err != nil {
//	    return err
//	}
//
//	report := mapper.GenerateReport(mappings)
//
// # Errors
//
// Validation is all-or-nothing. The typed errors DuplicateFieldNameError, InvalidFieldError,
// FieldTooWideError, CapacityExceededError, UnknownStrategyError and InvalidBankError can be
// inspected with errors.As.
package regmap
