package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KevinKickass/OpenRegMap/internal/deploy"
	"github.com/KevinKickass/OpenRegMap/internal/regmap"
	"github.com/KevinKickass/OpenRegMap/internal/types"
)

var (
	deployAddress     string
	deployUnitID      uint8
	deployBaseAddress uint16
	deployVerify      bool
	deploySet         []string
)

var deployCmd = &cobra.Command{
	Use:   "deploy <interface-file>",
	Short: "Write the initial control register values to a device over Modbus TCP",
	Long: `Map an interface file, materialize its default values and write the
resulting control registers to a Modbus TCP device. Each 32-bit CR occupies two
holding registers, high word first.

Examples:
  regmap deploy app.yaml --address 192.168.1.50
  regmap deploy app.yaml --address 10.0.0.7:5020 --unit-id 3 --verify
  regmap deploy app.yaml --address 10.0.0.7 --set intensity=1200 --set arm_probe=1`,
	Args: cobra.ExactArgs(1),
	RunE: runDeploy,
}

func init() {
	rootCmd.AddCommand(deployCmd)

	deployCmd.Flags().StringVarP(&deployAddress, "address", "a", "", "device address, host[:port]")
	deployCmd.Flags().Uint8Var(&deployUnitID, "unit-id", 0, "Modbus unit ID (config modbus.unit_id when unset)")
	deployCmd.Flags().Uint16Var(&deployBaseAddress, "base-address", 0, "holding register of CR0 (config modbus.cr_base_address when unset)")
	deployCmd.Flags().BoolVar(&deployVerify, "verify", false, "read the registers back after writing")
	deployCmd.Flags().StringArrayVar(&deploySet, "set", nil, "override a field value, name=value")
	deployCmd.MarkFlagRequired("address")
}

// parseOverrides turns name=value pairs into field values. Names must exist in mappings.
func parseOverrides(pairs []string, mappings []regmap.Mapping) (map[string]float64, error) {
	known := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		known[m.Name] = true
	}

	out := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		name, raw, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid override %q, expected name=value", p)
		}
		name = strings.TrimSpace(name)
		if !known[name] {
			return nil, fmt.Errorf("no field named %s", name)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

func runDeploy(cmd *cobra.Command, args []string) error {
	pkg, report, err := mapPackage(args[0], "")
	if err != nil {
		return err
	}
	mappings := report.Mappings()

	overrides, err := parseOverrides(deploySet, mappings)
	if err != nil {
		return err
	}
	merged := pkg.Defaults()
	for name, v := range overrides {
		merged[name] = v
	}

	values, err := regmap.MaterializeDefaults(mappings, merged)
	if err != nil {
		return err
	}

	target, err := types.ParseTargetAddress(deployAddress)
	if err != nil {
		return err
	}
	target.Name = pkg.AppName
	target.UnitID = cfg.Modbus.UnitID
	if cmd.Flags().Changed("unit-id") {
		target.UnitID = deployUnitID
	}
	target.BaseAddress = cfg.Modbus.CRBaseAddress
	if cmd.Flags().Changed("base-address") {
		target.BaseAddress = deployBaseAddress
	}

	manager := deploy.NewManager(deploy.Options{Timeout: cfg.Modbus.DefaultTimeout}, logger)
	defer manager.StopAll(context.Background())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := manager.Deploy(ctx, target, values, deployVerify)
	out := cmd.OutOrStdout()

	var verifyErr *deploy.VerifyError
	if err != nil && !errors.As(err, &verifyErr) {
		return err
	}

	for _, cr := range sortedRegisters(values) {
		fmt.Fprintf(out, "CR%-3d 0x%08X\n", cr, values[cr])
	}
	fmt.Fprintf(out, "wrote %d control registers to %s in %s\n", len(values), result.Address, result.Duration)
	if deployVerify && err == nil {
		fmt.Fprintln(out, "verified")
	}
	return err
}
