//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/curriculum"
	"github.com/meikuraledutech/curriculum/memory"
	"github.com/meikuraledutech/curriculum/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres starts a Postgres container and returns a store with the
// schema created.
func setupPostgres(t *testing.T) (*postgres.PGStore, *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "postgres",
			"POSTGRES_DB":       "curriculum",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "start postgres container")
	t.Cleanup(func() {
		if err := pgC.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate Postgres container: %v", err)
		}
	})

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	url := fmt.Sprintf("postgres://postgres:postgres@%s:%s/curriculum?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := postgres.New(pool)
	require.NoError(t, store.CreateSchema(ctx))
	return store, pool
}

const courseJSON = `{
  "nodes": [
    {"id": "t", "type": "track", "data": {"key": "A", "title": "Track A"}},
    {"id": "l1", "type": "lesson", "data": {"key": "A1.1", "title": "Middle C", "goal": "find C", "level": 1}},
    {"id": "l2", "type": "lesson", "data": {"key": "A1.2", "title": "C major"}},
    {"id": "s", "type": "skill", "data": {"key": "skill_c_position", "title": "C position"}}
  ],
  "edges": [
    {"id": "e1", "source": "t", "target": "l1", "sourceHandle": "start", "targetHandle": "in"},
    {"id": "e2", "source": "l1", "target": "l2", "sourceHandle": "out", "targetHandle": "in"},
    {"id": "e3", "source": "l1", "target": "s", "sourceHandle": "award", "targetHandle": "in"}
  ]
}`

func TestPGStore_PublishRoundTrip(t *testing.T) {
	store, _ := setupPostgres(t)
	ctx := context.Background()

	graphs := memory.NewGraphs()
	graphs.Put("course", []byte(courseJSON))
	p := curriculum.NewPublisher(graphs, store)

	first, err := p.Publish(ctx, curriculum.PublishRequest{GraphID: "course", Mode: curriculum.ModePublish})
	require.NoError(t, err)
	second, err := p.Publish(ctx, curriculum.PublishRequest{GraphID: "course", Mode: curriculum.ModePublish})
	require.NoError(t, err)
	assert.Equal(t, first.VersionNumber+1, second.VersionNumber)

	cur, err := store.CurrentVersion(ctx, "course")
	require.NoError(t, err)
	assert.Equal(t, second.VersionID, cur.ID)
	assert.Equal(t, curriculum.StatusPublished, cur.Status)
	require.NotNil(t, cur.PublishedAt)

	nodes, err := store.ListNodes(ctx, cur.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 4)
	assert.Equal(t, "A", nodes[0].Key)
	assert.Equal(t, "find C", nodes[1].Data["goal"])

	edges, err := store.ListEdges(ctx, cur.ID)
	require.NoError(t, err)
	assert.Contains(t, edges, curriculum.RuntimeEdge{Type: curriculum.EdgeTrackStartsWith, FromKey: "A", ToKey: "A1.1"})

	ok, err := store.HasExport(ctx, cur.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	versions, err := store.ListVersions(ctx, "course")
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

func TestPGStore_VersionConflict(t *testing.T) {
	store, _ := setupPostgres(t)
	ctx := context.Background()

	v := &curriculum.Version{ID: "v1", SourceGraphID: "g", VersionNumber: 1, Status: curriculum.StatusPublishing, CreatedAt: time.Now()}
	require.NoError(t, store.CreateVersion(ctx, v))

	dup := *v
	dup.ID = "v2"
	err := store.CreateVersion(ctx, &dup)
	assert.ErrorIs(t, err, curriculum.ErrVersionConflict)
}

func TestPGStore_CompensationIsIdempotent(t *testing.T) {
	store, pool := setupPostgres(t)
	ctx := context.Background()

	v := &curriculum.Version{ID: "v1", SourceGraphID: "g", VersionNumber: 1, Status: curriculum.StatusPublishing, CreatedAt: time.Now()}
	require.NoError(t, store.CreateVersion(ctx, v))
	require.NoError(t, store.InsertNodes(ctx, "v1", []curriculum.RuntimeNode{{Kind: curriculum.KindTrack, Key: "A", Data: map[string]any{}}}))
	require.NoError(t, store.RecordOrphan(ctx, "v1", "test"))

	for i := 0; i < 2; i++ {
		require.NoError(t, store.DeleteExport(ctx, "v1"))
		require.NoError(t, store.DeleteEdges(ctx, "v1"))
		require.NoError(t, store.DeleteNodes(ctx, "v1"))
		require.NoError(t, store.DeleteVersion(ctx, "v1"))
	}

	var n int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM curriculum_versions`).Scan(&n))
	assert.Zero(t, n)

	orphans, err := store.ListOrphans(ctx)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	require.NoError(t, store.ClearOrphan(ctx, "v1"))

	_, err = store.GetVersion(ctx, "v1")
	assert.ErrorIs(t, err, curriculum.ErrVersionNotFound)
}
