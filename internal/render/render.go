// Package render turns a mapping report into text for people and tools.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/KevinKickass/OpenRegMap/internal/regmap"
)

// Format selects an output representation.
type Format string

const (
	FormatASCII    Format = "ascii"
	FormatMarkdown Format = "markdown"
	FormatVHDL     Format = "vhdl"
	FormatJSON     Format = "json"
)

func Formats() []Format {
	return []Format{FormatASCII, FormatMarkdown, FormatVHDL, FormatJSON}
}

// ParseFormat resolves a format name. "md" is accepted for markdown.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatASCII, FormatMarkdown, FormatVHDL, FormatJSON:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "":
		return FormatASCII, nil
	default:
		return "", fmt.Errorf("unknown render format %q", name)
	}
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Render writes report to w in format f.
func Render(w io.Writer, report *regmap.Report, f Format) error {
	var out string
	switch f {
	case FormatASCII:
		out = ASCIIArt(report)
	case FormatMarkdown:
		out = Markdown(report)
	case FormatVHDL:
		out = VHDLComments(report)
	case FormatJSON:
		b, err := JSON(report)
		if err != nil {
			return err
		}
		out = string(b) + "\n"
	default:
		return fmt.Errorf("unknown render format %q", f)
	}

	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("failed to write %s output: %w", f, err)
	}
	return nil
}

func summaryLine(report *regmap.Report) string {
	return fmt.Sprintf("Efficiency: %.1f%% (%d of %d bits, %d registers used)",
		report.EfficiencyPercent, report.TotalBitsUsed, report.TotalBitsAvailable, report.RegistersUsed())
}
