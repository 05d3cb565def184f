package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/meikuraledutech/curriculum"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Manage source graph documents in Redis",
}

var graphPutCmd = &cobra.Command{
	Use:   "put GRAPH_ID FILE",
	Short: "Store a graph document",
	Long: `Put reads an editor export from FILE and stores it under GRAPH_ID,
replacing any previous document. Documents that cannot be parsed are refused;
documents that parse but fail validation are stored and can be fixed later.`,
	Args: cobra.ExactArgs(2),
	RunE: runGraphPut,
}

var graphGetCmd = &cobra.Command{
	Use:   "get GRAPH_ID",
	Short: "Print a stored graph document",
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphGet,
}

var graphDeleteCmd = &cobra.Command{
	Use:   "delete GRAPH_ID",
	Short: "Delete a stored graph document",
	Long:  `Delete removes the source document. Published versions are not affected.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runGraphDelete,
}

var graphListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored graph ids",
	Args:  cobra.NoArgs,
	RunE:  runGraphList,
}

func init() {
	graphCmd.AddCommand(graphPutCmd, graphGetCmd, graphDeleteCmd, graphListCmd)
	rootCmd.AddCommand(graphCmd)
}

func runGraphPut(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	raw, err := os.ReadFile(args[1])
	if err != nil {
		return printError("Cannot read graph file", err.Error(), nil)
	}

	graphs, err := openGraphs(ctx)
	if err != nil {
		return err
	}
	defer graphs.Close()

	if err := graphs.SaveGraph(ctx, args[0], raw); err != nil {
		if errors.Is(err, curriculum.ErrMalformedGraph) {
			return printError("Graph document is malformed", err.Error(), []string{"Run `curriculum validate` on the file for details"})
		}
		return printError("Cannot store graph", err.Error(), nil)
	}
	printSuccess(cmd.OutOrStdout(), "stored %s", args[0])
	return nil
}

func runGraphGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	graphs, err := openGraphs(ctx)
	if err != nil {
		return err
	}
	defer graphs.Close()

	raw, err := graphs.GetRaw(ctx, args[0])
	if err != nil {
		return printError("Cannot load graph", err.Error(), nil)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(raw))
	return err
}

func runGraphDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	graphs, err := openGraphs(ctx)
	if err != nil {
		return err
	}
	defer graphs.Close()

	if err := graphs.DeleteGraph(ctx, args[0]); err != nil {
		return printError("Cannot delete graph", err.Error(), nil)
	}
	printSuccess(cmd.OutOrStdout(), "deleted %s", args[0])
	return nil
}

func runGraphList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	graphs, err := openGraphs(ctx)
	if err != nil {
		return err
	}
	defer graphs.Close()

	ids, err := graphs.ListGraphs(ctx)
	if err != nil {
		return printError("Cannot list graphs", err.Error(), nil)
	}
	out := cmd.OutOrStdout()
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return nil
}
