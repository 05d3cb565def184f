package commands

import (
	"github.com/meikuraledutech/curriculum"
	"github.com/spf13/cobra"
)

var reconcileOlderThan string

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Clean up after failed or interrupted publishes",
	Long: `Reconcile deletes versions recorded as orphaned by a failed rollback, and
resolves versions stuck in publishing status for longer than --older-than:
those whose export was written are marked published, the rest are deleted.

--older-than must exceed the longest publish you expect: a shorter age lets
reconcile delete versions that a running publish is still writing.

Examples:
  curriculum reconcile
  curriculum reconcile --older-than 1h`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileOlderThan, "older-than", "", "Minimum age of stuck versions (defaults to publish.reconcile_after)")
	rootCmd.AddCommand(reconcileCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	olderThan := cfg.Publish.ReconcileAfter
	if reconcileOlderThan != "" {
		d, err := parseDuration(reconcileOlderThan)
		if err != nil {
			return printError("Invalid --older-than", err.Error(), []string{"Use a duration such as 30m or 2h"})
		}
		olderThan = d
	}

	pool, store, err := openPostgres(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Graphs are never loaded during reconciliation.
	pub := curriculum.NewPublisher(nil, store, curriculum.WithLogger(newLogger(cfg.Log)))
	rep, err := pub.Reconcile(ctx, olderThan)

	out := cmd.OutOrStdout()
	for _, id := range rep.OrphansCleaned {
		printStep(out, "cleaned orphan %s", id)
	}
	for _, id := range rep.Finalized {
		printStep(out, "finalized %s", id)
	}
	for _, id := range rep.Discarded {
		printStep(out, "discarded %s", id)
	}
	if err != nil {
		return printError("Reconciliation incomplete", err.Error(), []string{"Run reconcile again once the cause is fixed"})
	}
	printSuccess(out, "reconciled: %d orphans, %d finalized, %d discarded",
		len(rep.OrphansCleaned), len(rep.Finalized), len(rep.Discarded))
	return nil
}
