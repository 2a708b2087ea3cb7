package render

import (
	"encoding/json"
	"fmt"

	"github.com/KevinKickass/OpenRegMap/internal/datatypes"
	"github.com/KevinKickass/OpenRegMap/internal/regmap"
)

// Document is the machine-readable form of a report.
type Document struct {
	Mappings []MappingEntry `json:"mappings"`
	Summary  Summary        `json:"summary"`
}

type MappingEntry struct {
	Name      string `json:"name"`
	Datatype  string `json:"datatype"`
	Register  int    `json:"register"`
	MSB       int    `json:"msb"`
	LSB       int    `json:"lsb"`
	Width     int    `json:"width"`
	VHDLSlice string `json:"vhdl_slice"`
	VHDLType  string `json:"vhdl_type"`
}

type Summary struct {
	BitsUsed          int     `json:"bits_used"`
	BitsAvailable     int     `json:"bits_available"`
	RegistersUsed     int     `json:"registers_used"`
	RegisterCount     int     `json:"register_count"`
	EfficiencyPercent float64 `json:"efficiency_percent"`
}

// NewDocument converts report into its serializable form.
func NewDocument(report *regmap.Report) Document {
	doc := Document{
		Mappings: []MappingEntry{},
		Summary: Summary{
			BitsUsed:          report.TotalBitsUsed,
			BitsAvailable:     report.TotalBitsAvailable,
			RegistersUsed:     report.RegistersUsed(),
			RegisterCount:     report.Bank.RegisterCount,
			EfficiencyPercent: report.EfficiencyPercent,
		},
	}

	for _, mp := range report.Mappings() {
		doc.Mappings = append(doc.Mappings, MappingEntry{
			Name:      mp.Name,
			Datatype:  mp.Type.String(),
			Register:  mp.Register,
			MSB:       mp.Slice.MSB,
			LSB:       mp.Slice.LSB,
			Width:     mp.Width(),
			VHDLSlice: mp.VHDLSlice(),
			VHDLType:  datatypes.Lookup(mp.Type).VHDLType(),
		})
	}
	return doc
}

// JSON marshals the report document with indentation.
func JSON(report *regmap.Report) ([]byte, error) {
	b, err := json.MarshalIndent(NewDocument(report), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return b, nil
}
