package regmap

import (
	"go.uber.org/zap"
)

// Mapper assigns fields to control registers. It keeps no state between calls
// and is safe for concurrent use.
type Mapper struct {
	bank   Bank
	logger *zap.Logger
}

func NewMapper(bank Bank, logger *zap.Logger) *Mapper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mapper{
		bank:   bank,
		logger: logger,
	}
}

// Bank returns the register bank the mapper packs into.
func (m *Mapper) Bank() Bank {
	return m.bank
}

// Map validates fields and packs them using strategy. Either every field is placed
// or an error is returned and nothing is.
func (m *Mapper) Map(fields []Field, strategy Strategy) ([]Mapping, error) {
	if err := m.bank.Validate(); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return []Mapping{}, nil
	}

	requested, err := m.validate(fields)
	if err != nil {
		return nil, err
	}

	order := strategy.order()
	if order == nil {
		return nil, &UnknownStrategyError{Strategy: string(strategy)}
	}

	mappings, err := m.packSequential(order(fields), requested)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("Fields mapped",
		zap.String("strategy", string(strategy)),
		zap.Int("fields", len(mappings)),
		zap.Int("bits", requested),
		zap.Int("available", m.bank.TotalBits()))

	return mappings, nil
}

// validate runs the field checks in order: names, widths, then total capacity.
func (m *Mapper) validate(fields []Field) (int, error) {
	seen := make(map[string]struct{}, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return 0, &InvalidFieldError{Index: i, Name: f.Name, Reason: "name must not be empty"}
		}
		if !f.Type.Valid() {
			return 0, &InvalidFieldError{Index: i, Name: f.Name, Reason: "undeclared data type " + f.Type.String()}
		}
		if _, dup := seen[f.Name]; dup {
			return 0, &DuplicateFieldNameError{Name: f.Name}
		}
		seen[f.Name] = struct{}{}
	}

	total := 0
	for _, f := range fields {
		// Every current type fits one register; this guards types added to the table later.
		w := width(f)
		if w > RegisterWidth {
			return 0, &FieldTooWideError{Name: f.Name, BitWidth: w, MaxWidth: RegisterWidth}
		}
		total += w
	}

	if total > m.bank.TotalBits() {
		return 0, &CapacityExceededError{Requested: total, Available: m.bank.TotalBits()}
	}
	return total, nil
}

// packSequential walks fields once, filling each register from bit 31 down and
// moving to the next register when the current field no longer fits.
// Fragmentation can push the last field past the bank even when the bit total fits.
func (m *Mapper) packSequential(fields []Field, requested int) ([]Mapping, error) {
	out := make([]Mapping, 0, len(fields))

	register := m.bank.BaseIndex
	cursor := RegisterWidth - 1

	for _, f := range fields {
		w := width(f)
		if w > cursor+1 {
			register++
			cursor = RegisterWidth - 1
		}
		if register > m.bank.LastIndex() {
			return nil, &CapacityExceededError{
				Requested: requested,
				Available: m.bank.TotalBits(),
				Registers: register - m.bank.BaseIndex + 1,
				Limit:     m.bank.RegisterCount,
			}
		}
		out = append(out, Mapping{
			Name:     f.Name,
			Type:     f.Type,
			Register: register,
			Slice:    BitSlice{MSB: cursor, LSB: cursor - w + 1},
		})
		cursor -= w
	}
	return out, nil
}
