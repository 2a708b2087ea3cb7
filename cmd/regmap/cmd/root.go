package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KevinKickass/OpenRegMap/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "regmap",
	Short: "Control register packing for FPGA applications",
	Long: `Pack typed application fields into 32-bit control registers, render the
resulting register map and deploy the register values over Modbus TCP.

Examples:
  regmap types                                        # List the supported datatypes
  regmap map interfaces/DS1140_PD_interface.yaml      # Show the register map
  regmap map --format vhdl --strategy first_fit my_app.yaml
  regmap deploy my_app.yaml --address 192.168.1.50 --verify`,
	Version:       "0.3.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded

		if verbose {
			l, err := zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			logger = l
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (defaults only when empty; ORM_* variables still apply)")
}
