package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/meikuraledutech/curriculum"
	"github.com/spf13/cobra"
)

var versionsOutput string

var versionsCmd = &cobra.Command{
	Use:   "versions GRAPH_ID",
	Short: "List the published versions of a graph",
	Long: `Versions lists every version of GRAPH_ID, newest first.

Output Formats:
  default - table with number, status, title and publish time
  json    - the version records as a JSON array`,
	Args: cobra.ExactArgs(1),
	RunE: runVersions,
}

func init() {
	versionsCmd.Flags().StringVarP(&versionsOutput, "output", "o", "default", "Output format: default or json")
	rootCmd.AddCommand(versionsCmd)
}

func runVersions(cmd *cobra.Command, args []string) error {
	if versionsOutput != "default" && versionsOutput != "json" {
		return printError("Invalid output format", fmt.Sprintf("unknown format %q", versionsOutput), []string{"Use --output=default or --output=json"})
	}
	ctx := cmd.Context()

	pool, store, err := openPostgres(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	versions, err := store.ListVersions(ctx, args[0])
	if err != nil {
		return printError("Cannot list versions", err.Error(), nil)
	}

	out := cmd.OutOrStdout()
	if versionsOutput == "json" {
		return printJSON(out, versions)
	}
	if len(versions) == 0 {
		fmt.Fprintf(out, "no versions of %s\n", args[0])
		return nil
	}
	return writeVersionTable(out, versions)
}

func writeVersionTable(w io.Writer, versions []curriculum.Version) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATUS\tTITLE\tPUBLISHED\tID")
	for _, v := range versions {
		published := "-"
		if v.PublishedAt != nil {
			published = v.PublishedAt.UTC().Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", v.VersionNumber, v.Status, v.Title, published, v.ID)
	}
	return tw.Flush()
}
