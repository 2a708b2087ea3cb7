package render

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/KevinKickass/OpenRegMap/internal/regmap"
)

const legendKeys = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

func legendKey(i int) byte {
	if i < len(legendKeys) {
		return legendKeys[i]
	}
	return '#'
}

// ASCIIArt draws one 32-bit ruler per occupied register. Each field is drawn with
// its legend letter and free bits with '.'.
func ASCIIArt(report *regmap.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Register map (CR%d-CR%d)\n\n", report.Bank.BaseIndex, report.Bank.LastIndex())

	for _, cr := range report.Registers() {
		fields := report.RegisterMap[cr]

		bits := []byte(strings.Repeat(".", regmap.RegisterWidth))
		for i, mp := range fields {
			for bit := mp.Slice.LSB; bit <= mp.Slice.MSB; bit++ {
				bits[regmap.RegisterWidth-1-bit] = legendKey(i)
			}
		}

		fmt.Fprintf(&b, "CR%d  %d bits free\n", cr, report.FreeBits(cr))
		b.WriteString("  31    24 23    16 15     8 7      0\n")
		fmt.Fprintf(&b, "  %s|%s|%s|%s\n", bits[0:8], bits[8:16], bits[16:24], bits[24:32])

		tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
		for i, mp := range fields {
			fmt.Fprintf(tw, "  %c\t%s\t%s\t%s\t%d bits\n",
				legendKey(i), mp.Slice, mp.Name, mp.Type, mp.Width())
		}
		tw.Flush()
		b.WriteString("\n")
	}

	b.WriteString(summaryLine(report))
	b.WriteString("\n")
	return b.String()
}

// Markdown renders the report as a table, one row per field.
func Markdown(report *regmap.Report) string {
	var b strings.Builder

	b.WriteString("| CR  | Bit Slice | Name | Type | Width |\n")
	b.WriteString("|-----|-----------|------|------|-------|\n")
	for _, mp := range report.Mappings() {
		fmt.Fprintf(&b, "| CR%d | %s | %s | `%s` | %d |\n",
			mp.Register, mp.Slice, mp.Name, mp.Type, mp.Width())
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "**%s**\n", summaryLine(report))
	return b.String()
}

// VHDLComments renders a comment block that can be pasted above the register decode logic.
func VHDLComments(report *regmap.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "-- Register map: %d of %d bits used (%.1f%%)\n",
		report.TotalBitsUsed, report.TotalBitsAvailable, report.EfficiencyPercent)

	for _, cr := range report.Registers() {
		for _, mp := range report.RegisterMap[cr] {
			fmt.Fprintf(&b, "-- CR%d: %s[%d:%d] %s -> %s\n",
				cr, mp.Name, mp.Slice.MSB, mp.Slice.LSB, mp.Type, mp.VHDLSlice())
		}
	}
	return b.String()
}
