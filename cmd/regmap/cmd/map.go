package cmd

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/KevinKickass/OpenRegMap/internal/regmap"
	"github.com/KevinKickass/OpenRegMap/internal/regpackage"
	"github.com/KevinKickass/OpenRegMap/internal/render"
)

var (
	mapStrategy string
	mapFormat   string
	mapDump     bool
)

var mapCmd = &cobra.Command{
	Use:   "map <interface-file>",
	Short: "Pack the fields of an interface file and render the register map",
	Long: `Pack the fields declared in a register interface file (YAML or JSON) into
the control register bank and print the result.

Examples:
  regmap map app.yaml
  regmap map --format markdown app.yaml
  regmap map --strategy type_clustering --dump app.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runMap,
}

func init() {
	rootCmd.AddCommand(mapCmd)

	mapCmd.Flags().StringVarP(&mapStrategy, "strategy", "s", "",
		"packing strategy (first_fit, best_fit, type_clustering); overrides the file")
	mapCmd.Flags().StringVarP(&mapFormat, "format", "f", "ascii",
		"output format (ascii, markdown, vhdl, json)")
	mapCmd.Flags().BoolVar(&mapDump, "dump", false,
		"dump the raw mapping structures")
}

// mapPackage loads file and packs it. A non-empty strategy overrides the one
// declared in the file.
func mapPackage(file, strategy string) (*regpackage.Package, *regmap.Report, error) {
	pkg, err := regpackage.Load(file)
	if err != nil {
		return nil, nil, err
	}

	fields, err := pkg.Fields()
	if err != nil {
		return nil, nil, err
	}

	s := cfg.Mapping.Strategy()
	switch {
	case strategy != "":
		s = regmap.StrategyName(strategy)
	case pkg.MappingStrategy != "":
		s = regmap.StrategyName(pkg.MappingStrategy)
	}

	mapper := pkg.Mapper(cfg.Bank.ToBank(), logger)
	mappings, err := mapper.Map(fields, s)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to map %s: %w", pkg.AppName, err)
	}
	return pkg, mapper.GenerateReport(mappings), nil
}

func runMap(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(mapFormat)
	if err != nil {
		return err
	}

	_, report, err := mapPackage(args[0], mapStrategy)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if mapDump {
		spew.Fdump(out, report.Mappings())
		return nil
	}

	return render.Render(out, report, format)
}
