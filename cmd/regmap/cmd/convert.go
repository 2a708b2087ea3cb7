package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KevinKickass/OpenRegMap/internal/convert"
	"github.com/KevinKickass/OpenRegMap/internal/datatypes"
)

var (
	convType     string
	convValue    float64
	convRaw      int64
	convUnit     string
	convPeriod   float64
	convRounding string
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert between physical values, raw codes and clock cycles",
}

var convertRawCmd = &cobra.Command{
	Use:   "raw",
	Short: "Convert a physical value to its raw code, or back with --raw",
	Long: `Examples:
  regmap convert raw --type voltage_output_05v_s16 --value 2400
  regmap convert raw --type voltage_output_05v_s16 --raw 15728`,
	Args: cobra.NoArgs,
	RunE: runConvertRaw,
}

var convertCyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "Convert a duration to FPGA clock cycles",
	Long: `Examples:
  regmap convert cycles --value 800 --unit ns
  regmap convert cycles --value 500 --unit ns --rounding round_up --period 8`,
	Args: cobra.NoArgs,
	RunE: runConvertCycles,
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.AddCommand(convertRawCmd, convertCyclesCmd)

	convertRawCmd.Flags().StringVarP(&convType, "type", "t", "", "datatype name")
	convertRawCmd.Flags().Float64Var(&convValue, "value", 0, "physical value")
	convertRawCmd.Flags().Int64Var(&convRaw, "raw", 0, "raw code")
	convertRawCmd.MarkFlagRequired("type")
	convertRawCmd.MarkFlagsOneRequired("value", "raw")
	convertRawCmd.MarkFlagsMutuallyExclusive("value", "raw")

	convertCyclesCmd.Flags().Float64Var(&convValue, "value", 0, "duration")
	convertCyclesCmd.Flags().StringVarP(&convUnit, "unit", "u", "ns", "duration unit (s, ms, us, ns)")
	convertCyclesCmd.Flags().Float64Var(&convPeriod, "period", 0, "clock period in ns (config clock.period_ns when 0)")
	convertCyclesCmd.Flags().StringVarP(&convRounding, "rounding", "r", "exact", "exact, round_up or round_down")
	convertCyclesCmd.MarkFlagRequired("value")
}

func runConvertRaw(cmd *cobra.Command, args []string) error {
	d, err := datatypes.LookupName(convType)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if cmd.Flags().Changed("raw") {
		if convRaw < d.RawMin() || convRaw > d.RawMax() {
			return fmt.Errorf("raw code %d outside %d..%d for %s", convRaw, d.RawMin(), d.RawMax(), d.Name())
		}
		fmt.Fprintf(out, "%g %s\n", convert.FromRaw(convRaw, d), d.Unit())
		return nil
	}

	raw, err := convert.ToRaw(convValue, d)
	if err != nil {
		return err
	}
	bits, err := convert.EncodeField(convValue, d)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "raw %d (0x%0*X, %d bits)\n", raw, (d.BitWidth()+3)/4, bits, d.BitWidth())
	return nil
}

func runConvertCycles(cmd *cobra.Command, args []string) error {
	unit, err := convert.ParseUnit(convUnit)
	if err != nil {
		return err
	}
	rounding, err := convert.ParseRounding(convRounding)
	if err != nil {
		return err
	}

	period := convPeriod
	if period == 0 {
		period = cfg.Clock.PeriodNs
	}

	cycles, err := convert.DurationToCycles(convValue, unit, period, rounding)
	if err != nil {
		var nd *convert.NonDivisibleError
		if errors.As(err, &nd) {
			return fmt.Errorf("%w (use --rounding round_up or round_down)", err)
		}
		return err
	}

	actual, err := convert.CyclesToDuration(cycles, unit, period)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d cycles (%g %s at %g ns)\n", cycles, actual, unit, period)
	return nil
}
