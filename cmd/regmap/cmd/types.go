package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/KevinKickass/OpenRegMap/internal/datatypes"
)

var typesJSON bool

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the supported datatypes",
	Args:  cobra.NoArgs,
	RunE:  runTypes,
}

func init() {
	rootCmd.AddCommand(typesCmd)
	typesCmd.Flags().BoolVar(&typesJSON, "json", false, "output as JSON")
}

func runTypes(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	catalog := datatypes.Catalog()

	if typesJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(catalog)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tBITS\tCATEGORY\tRANGE\tVHDL")
	for _, info := range catalog {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%g..%g %s\t%s\n",
			info.Name, info.BitWidth, info.Category, info.Min, info.Max, info.Unit, info.VHDLType)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(out, "\n%d datatypes\n", len(catalog))
	}
	return nil
}
