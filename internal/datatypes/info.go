package datatypes

// Info is the serializable view of a Descriptor, as served over the APIs.
type Info struct {
	Name         string  `json:"name"`
	BitWidth     int     `json:"bit_width"`
	Category     string  `json:"category"`
	Unit         string  `json:"unit,omitempty"`
	Signed       bool    `json:"signed"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	DefaultValue float64 `json:"default_value"`
	Step         float64 `json:"step"`
	VHDLType     string  `json:"vhdl_type"`
	GoType       string  `json:"go_type"`
	Description  string  `json:"description"`
}

func (d Descriptor) Info() Info {
	return Info{
		Name:         d.Name(),
		BitWidth:     d.BitWidth(),
		Category:     d.Category().String(),
		Unit:         string(d.Unit()),
		Signed:       d.Signed(),
		Min:          d.Min(),
		Max:          d.Max(),
		DefaultValue: d.DefaultValue(),
		Step:         d.Step(),
		VHDLType:     d.VHDLType(),
		GoType:       d.GoType(),
		Description:  d.Description(),
	}
}

// Catalog returns Info for every type, in declaration order.
func Catalog() []Info {
	all := All()
	out := make([]Info, 0, len(all))
	for _, t := range all {
		out = append(out, Lookup(t).Info())
	}
	return out
}
