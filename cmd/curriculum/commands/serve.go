package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/meikuraledutech/curriculum"
	"github.com/meikuraledutech/curriculum/server"
	"github.com/spf13/cobra"
)

var serveNoReconcile bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the publishing HTTP API",
	Long: `Serve starts the HTTP API on server.addr. Graphs are read from Redis,
versions are written to Postgres, and every published version is announced
on the Redis events channel.

Unless --no-reconcile is given, a reconciliation sweep runs at start-up and
then every publish.reconcile_after.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveNoReconcile, "no-reconcile", false, "Do not run background reconciliation")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := newLogger(cfg.Log)

	pool, store, err := openPostgres(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	graphs, err := openGraphs(ctx)
	if err != nil {
		return err
	}
	defer graphs.Close()

	pub := curriculum.NewPublisher(graphs, store,
		curriculum.WithLogger(log.WithName("publisher")),
		curriculum.WithNotifier(graphs),
		curriculum.WithVersionRetries(cfg.Publish.VersionRetries),
	)

	if !serveNoReconcile {
		go reconcileLoop(ctx, log.WithName("reconcile"), pub, cfg.Publish.ReconcileAfter)
	}

	app := server.New(pub, store, log.WithName("http"))
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Error(err, "shutdown")
		}
	}()

	log.Info("listening", "addr", cfg.Server.Addr)
	if err := app.Listen(cfg.Server.Addr); err != nil {
		return printError("Server stopped", err.Error(), nil)
	}
	return nil
}

func reconcileLoop(ctx context.Context, log logr.Logger, pub *curriculum.Publisher, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		reconcileOnce(ctx, log, pub, every)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// reconcileOnce runs one sweep and logs its outcome. The next tick retries
// whatever failed.
func reconcileOnce(ctx context.Context, log logr.Logger, pub *curriculum.Publisher, olderThan time.Duration) {
	rep, err := pub.Reconcile(ctx, olderThan)
	if err != nil {
		log.Error(err, "reconcile sweep failed")
	}
	log.V(1).Info("reconcile sweep done",
		"orphansCleaned", len(rep.OrphansCleaned),
		"finalized", len(rep.Finalized),
		"discarded", len(rep.Discarded),
	)
}
