package commands

import (
	"os"

	"github.com/meikuraledutech/curriculum"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Validate a graph document on disk",
	Long: `Validate parses a graph document exported from the editor and reports
every validation error and warning. Nothing is read from or written to the
stores, so this works offline.

Exit status is non-zero when the graph has errors.

Examples:
  curriculum validate ./graphs/piano-101.json`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return printError("Cannot read graph file", err.Error(), nil)
	}
	g, err := curriculum.ParseGraph("", raw)
	if err != nil {
		return printError("Graph document is malformed", err.Error(), nil)
	}

	out := cmd.OutOrStdout()
	res := curriculum.Validate(g)
	printIssues(out, res.Errors, res.Warnings)
	printCounts(out, curriculum.Transform(g).Counts())

	if res.HasErrors() {
		return printError("Validation failed", "", []string{"Fix the errors above in the editor and export again"})
	}
	printSuccess(out, "%s is valid (%d warnings)", args[0], len(res.Warnings))
	return nil
}
