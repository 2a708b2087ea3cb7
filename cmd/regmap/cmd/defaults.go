package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var defaultsCmd = &cobra.Command{
	Use:   "defaults <interface-file>",
	Short: "Print the initial control register values of an interface",
	Args:  cobra.ExactArgs(1),
	RunE:  runDefaults,
}

func init() {
	rootCmd.AddCommand(defaultsCmd)
}

func runDefaults(cmd *cobra.Command, args []string) error {
	pkg, report, err := mapPackage(args[0], "")
	if err != nil {
		return err
	}

	values, err := pkg.ControlRegisters(report.Mappings())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, cr := range sortedRegisters(values) {
		fmt.Fprintf(out, "CR%-3d 0x%08X\n", cr, values[cr])
	}
	return nil
}

func sortedRegisters(values map[int]uint32) []int {
	regs := make([]int, 0, len(values))
	for cr := range values {
		regs = append(regs, cr)
	}
	sort.Ints(regs)
	return regs
}
