package regmap

import (
	"fmt"

	"github.com/KevinKickass/OpenRegMap/internal/convert"
	"github.com/KevinKickass/OpenRegMap/internal/datatypes"
)

// MaterializeDefaults computes the initial value of every occupied register. Each field
// contributes its override value, or its type default, encoded and shifted to its LSB.
// Overrides for names that are not mapped are ignored.
func MaterializeDefaults(mappings []Mapping, overrides map[string]float64) (map[int]uint32, error) {
	values := make(map[int]uint32)

	for _, mp := range mappings {
		d := datatypes.Lookup(mp.Type)

		value := d.DefaultValue()
		if v, ok := overrides[mp.Name]; ok {
			value = v
		}

		bits, err := convert.EncodeField(value, d)
		if err != nil {
			return nil, fmt.Errorf("failed to encode default for %s: %w", mp.Name, err)
		}

		values[mp.Register] |= bits << uint(mp.Slice.LSB)
	}
	return values, nil
}
