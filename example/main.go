package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/curriculum"
	"github.com/meikuraledutech/curriculum/postgres"
	"github.com/meikuraledutech/curriculum/redisgraph"
	"github.com/redis/go-redis/v9"
)

const pianoGraph = `{
  "nodes": [
    {"id": "n1", "type": "track", "data": {"key": "A", "title": "Beginner piano"}},
    {"id": "n2", "type": "lesson", "data": {"key": "A1.1", "title": "Finding middle C", "goal": "Locate middle C with either hand", "level": 1}},
    {"id": "n3", "type": "lesson", "data": {"key": "A1.2", "title": "Five finger position", "setupGuidance": "Thumb on C"}},
    {"id": "n4", "type": "skill", "data": {"key": "skill_c_position", "title": "C position", "unlockGuidance": "Play C to G without looking"}},
    {"id": "n5", "type": "lesson", "data": {"key": "A2.1", "title": "First melody"}},
    {"id": "n6", "type": "tune", "data": {"key": "ode-to-joy", "title": "Ode to Joy", "musicRef": "scores/ode-to-joy.xml"}}
  ],
  "edges": [
    {"id": "e1", "source": "n1", "target": "n2", "sourceHandle": "start", "targetHandle": "in"},
    {"id": "e2", "source": "n2", "target": "n3", "sourceHandle": "out", "targetHandle": "in"},
    {"id": "e3", "source": "n3", "target": "n4", "sourceHandle": "award", "targetHandle": "in"},
    {"id": "e4", "source": "n4", "target": "n5", "sourceHandle": "unlock", "targetHandle": "requires"},
    {"id": "e5", "source": "n6", "target": "n4", "sourceHandle": "award", "targetHandle": "in"}
  ]
}`

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	// Postgres holds published versions, Redis holds source graphs.
	pg := postgres.New(pool)
	var store curriculum.VersionStore = pg
	graphs := redisgraph.New(redis.NewClient(&redis.Options{Addr: redisAddr}))
	defer graphs.Close()

	// 1. Create tables
	if err := pg.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}
	fmt.Println("schema created")

	// ── Store the editor document ─────────────────────────────────────
	if err := graphs.SaveGraph(ctx, "piano-101", []byte(pianoGraph)); err != nil {
		log.Fatalf("save graph: %v", err)
	}
	fmt.Println("graph stored")

	pub := curriculum.NewPublisher(graphs, store, curriculum.WithNotifier(graphs))

	// ── Dry run ───────────────────────────────────────────────────────
	check, err := pub.Publish(ctx, curriculum.PublishRequest{GraphID: "piano-101", Mode: curriculum.ModeDryRun})
	if err != nil {
		log.Fatalf("dry run: %v", err)
	}
	fmt.Println("\ndry run:")
	printJSON(check)

	// ── Publish ───────────────────────────────────────────────────────
	res, err := pub.Publish(ctx, curriculum.PublishRequest{
		GraphID: "piano-101",
		Title:   "Beginner piano, autumn",
		Mode:    curriculum.ModePublish,
	})
	if err != nil {
		log.Fatalf("publish: %v", err)
	}
	fmt.Printf("\npublished v%d (%s)\n", res.VersionNumber, res.VersionID)

	// ── Read back the current version ─────────────────────────────────
	current, err := store.CurrentVersion(ctx, "piano-101")
	if err != nil {
		log.Fatalf("current: %v", err)
	}
	printJSON(current)

	edges, err := store.ListEdges(ctx, current.ID)
	if err != nil {
		log.Fatalf("list edges: %v", err)
	}
	fmt.Printf("\nedges (%d):\n", len(edges))
	printJSON(edges)

	export, err := store.GetExport(ctx, current.ID)
	if err != nil {
		log.Fatalf("export: %v", err)
	}
	fmt.Println("\nexport:")
	printJSON(export)

	// ── Versions ──────────────────────────────────────────────────────
	versions, err := store.ListVersions(ctx, "piano-101")
	if err != nil {
		log.Fatalf("list versions: %v", err)
	}
	fmt.Printf("\nversions (%d):\n", len(versions))
	printJSON(versions)

	// ── Cleanup ───────────────────────────────────────────────────────
	if err := graphs.DeleteGraph(ctx, "piano-101"); err != nil {
		log.Fatalf("delete: %v", err)
	}
	fmt.Println("\nsource graph deleted")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
