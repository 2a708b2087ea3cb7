package regmap

import (
	"sort"
)

// Report summarises a completed mapping. It holds copies of the mappings and is
// never modified after GenerateReport returns it.
type Report struct {
	TotalBitsUsed      int               `json:"total_bits_used"`
	TotalBitsAvailable int               `json:"total_bits_available"`
	EfficiencyPercent  float64           `json:"efficiency_percent"`
	RegisterMap        map[int][]Mapping `json:"register_map"`
	Bank               Bank              `json:"bank"`
}

// GenerateReport aggregates mappings produced by Map. It does not validate them.
func (m *Mapper) GenerateReport(mappings []Mapping) *Report {
	return NewReport(m.bank, mappings)
}

// NewReport builds a report for mappings packed into bank.
func NewReport(bank Bank, mappings []Mapping) *Report {
	r := &Report{
		TotalBitsAvailable: bank.TotalBits(),
		RegisterMap:        make(map[int][]Mapping),
		Bank:               bank,
	}

	for _, mp := range mappings {
		r.TotalBitsUsed += mp.Width()
		r.RegisterMap[mp.Register] = append(r.RegisterMap[mp.Register], mp)
	}

	for _, list := range r.RegisterMap {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Slice.MSB > list[j].Slice.MSB
		})
	}

	if r.TotalBitsAvailable > 0 {
		r.EfficiencyPercent = float64(r.TotalBitsUsed) / float64(r.TotalBitsAvailable) * 100
	}
	return r
}

// Registers returns the occupied register indices in ascending order.
func (r *Report) Registers() []int {
	out := make([]int, 0, len(r.RegisterMap))
	for idx := range r.RegisterMap {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

func (r *Report) RegistersUsed() int {
	return len(r.RegisterMap)
}

// Mappings flattens the report in register order, MSB first within each register.
func (r *Report) Mappings() []Mapping {
	var out []Mapping
	for _, idx := range r.Registers() {
		out = append(out, r.RegisterMap[idx]...)
	}
	return out
}

// FreeBits returns the unused bits of register, counting registers with no mapping as empty.
func (r *Report) FreeBits(register int) int {
	used := 0
	for _, mp := range r.RegisterMap[register] {
		used += mp.Width()
	}
	return RegisterWidth - used
}
