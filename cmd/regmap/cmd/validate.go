package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KevinKickass/OpenRegMap/internal/regpackage"
)

var validateJSON bool

var validateCmd = &cobra.Command{
	Use:   "validate <interface-file>",
	Short: "Lint an interface file",
	Long: `Check an interface file against the schema, the datatype table and the
register bank. All problems are listed, not only the first.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "output the lint report as JSON")
}

func runValidate(cmd *cobra.Command, args []string) error {
	pkg, err := regpackage.Load(args[0])
	if err != nil {
		return err
	}

	report := regpackage.Lint(pkg, cfg.Bank.ToBank(), cfg.Mapping.Strategy())
	out := cmd.OutOrStdout()

	if validateJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printIssues(out, report.Errors)
		printIssues(out, report.Warnings)
		if report.Valid {
			fmt.Fprintf(out, "%s: OK (%d warnings)\n", pkg.AppName, len(report.Warnings))
		}
	}

	if !report.Valid {
		return fmt.Errorf("%s: %d errors", args[0], len(report.Errors))
	}
	return nil
}

func printIssues(w io.Writer, issues []regpackage.Issue) {
	for _, i := range issues {
		fmt.Fprintf(w, "%-7s %s %s", i.Severity, i.Code, i.Message)
		if i.Path != "" {
			fmt.Fprintf(w, " (%s)", i.Path)
		}
		fmt.Fprintln(w)
		if verbose && i.Hint != "" {
			fmt.Fprintf(w, "        hint: %s\n", i.Hint)
		}
	}
}
