package commands

import (
	"os"
	"time"

	"github.com/meikuraledutech/curriculum"
	"github.com/meikuraledutech/curriculum/memory"
	"github.com/spf13/cobra"
)

var (
	publishTitle  string
	publishDryRun bool
	publishFile   string
)

var publishCmd = &cobra.Command{
	Use:   "publish GRAPH_ID",
	Short: "Publish a graph as a new version",
	Long: `Publish loads the graph from Redis, validates and transforms it, and writes
it to Postgres as the next version of GRAPH_ID.

With --dry-run nothing is written; the validation report and counts are
printed instead. With --file the graph is read from disk instead of Redis.

Examples:
  curriculum publish piano-101 --title "Autumn term"
  curriculum publish piano-101 --dry-run
  curriculum publish piano-101 --file ./graphs/piano-101.json --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVarP(&publishTitle, "title", "t", "", "Version title (defaults to \"<graph> v<n>\")")
	publishCmd.Flags().BoolVar(&publishDryRun, "dry-run", false, "Validate and transform only")
	publishCmd.Flags().StringVarP(&publishFile, "file", "f", "", "Read the graph from a local file instead of Redis")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := newLogger(cfg.Log)
	graphID := args[0]

	var source curriculum.GraphSource
	if publishFile != "" {
		raw, err := os.ReadFile(publishFile)
		if err != nil {
			return printError("Cannot read graph file", err.Error(), nil)
		}
		mem := memory.NewGraphs()
		mem.Put(graphID, raw)
		source = mem
	} else {
		graphs, err := openGraphs(ctx)
		if err != nil {
			return err
		}
		defer graphs.Close()
		source = graphs
	}

	opts := []curriculum.Option{
		curriculum.WithLogger(log),
		curriculum.WithVersionRetries(cfg.Publish.VersionRetries),
	}

	var store curriculum.VersionStore
	mode := curriculum.ModePublish
	if publishDryRun {
		mode = curriculum.ModeDryRun
		store = memory.New()
	} else {
		pool, pg, err := openPostgres(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = pg
		if n, ok := source.(curriculum.Notifier); ok {
			opts = append(opts, curriculum.WithNotifier(n))
		}
	}

	out := cmd.OutOrStdout()
	if publishDryRun {
		printStep(out, "Checking %s", graphID)
	} else {
		printStep(out, "Publishing %s", graphID)
	}

	pub := curriculum.NewPublisher(source, store, opts...)
	res, err := pub.Publish(ctx, curriculum.PublishRequest{GraphID: graphID, Title: publishTitle, Mode: mode})
	if res != nil {
		printIssues(out, res.Errors, res.Warnings)
		printCounts(out, res.Counts)
	}
	if err != nil {
		return printError("Publish failed", err.Error(), nil)
	}
	if !res.Success {
		return printError("Dry run found errors", "The graph would be rejected if published.", nil)
	}

	if publishDryRun {
		printSuccess(out, "%s would publish cleanly", graphID)
		return nil
	}
	if res.PublishedAt == nil {
		printSuccess(out, "wrote %s v%d (%s), pending reconciliation", graphID, res.VersionNumber, res.VersionID)
		return nil
	}
	printSuccess(out, "published %s v%d (%s) at %s", graphID, res.VersionNumber, res.VersionID,
		res.PublishedAt.Format(time.RFC3339))
	return nil
}
