package memory

import (
	"context"
	"testing"
	"time"

	"github.com/meikuraledutech/curriculum"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func version(id, graph string, n int) *curriculum.Version {
	return &curriculum.Version{
		ID:            id,
		SourceGraphID: graph,
		VersionNumber: n,
		Title:         graph,
		Status:        curriculum.StatusPublishing,
		CreatedAt:     time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
	}
}

func TestStore_VersionNumbering(t *testing.T) {
	s := New()
	ctx := context.Background()

	n, err := s.NextVersionNumber(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.CreateVersion(ctx, version("v1", "g", 1)))
	require.NoError(t, s.CreateVersion(ctx, version("o1", "other", 1)))

	n, err = s.NextVersionNumber(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	err = s.CreateVersion(ctx, version("v1b", "g", 1))
	assert.ErrorIs(t, err, curriculum.ErrVersionConflict)
}

func TestStore_InsertRequiresVersion(t *testing.T) {
	s := New()
	ctx := context.Background()

	assert.ErrorIs(t, s.InsertNodes(ctx, "nope", nil), curriculum.ErrVersionNotFound)
	assert.ErrorIs(t, s.InsertEdges(ctx, "nope", nil), curriculum.ErrVersionNotFound)
	assert.ErrorIs(t, s.InsertExport(ctx, "nope", []byte(`{}`)), curriculum.ErrVersionNotFound)
	assert.ErrorIs(t, s.MarkPublished(ctx, "nope", time.Now()), curriculum.ErrVersionNotFound)
}

func TestStore_CurrentVersion(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.CurrentVersion(ctx, "g")
	assert.ErrorIs(t, err, curriculum.ErrVersionNotFound)

	require.NoError(t, s.CreateVersion(ctx, version("v1", "g", 1)))
	require.NoError(t, s.CreateVersion(ctx, version("v2", "g", 2)))
	require.NoError(t, s.MarkPublished(ctx, "v1", time.Now()))

	// v2 is still publishing, so v1 is current.
	cur, err := s.CurrentVersion(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, "v1", cur.ID)

	vs, err := s.ListVersions(ctx, "g")
	require.NoError(t, err)
	require.Len(t, vs, 2)
	assert.Equal(t, "v2", vs[0].ID)
}

func TestStore_DeletesAreIdempotent(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.CreateVersion(ctx, version("v1", "g", 1)))
	require.NoError(t, s.InsertNodes(ctx, "v1", []curriculum.RuntimeNode{{Kind: curriculum.KindTrack, Key: "A"}}))
	require.NoError(t, s.InsertEdges(ctx, "v1", []curriculum.RuntimeEdge{{Type: curriculum.EdgeLessonNext, FromKey: "a", ToKey: "b"}}))
	require.NoError(t, s.InsertExport(ctx, "v1", []byte(`{}`)))

	for i := 0; i < 2; i++ {
		require.NoError(t, s.DeleteExport(ctx, "v1"))
		require.NoError(t, s.DeleteEdges(ctx, "v1"))
		require.NoError(t, s.DeleteNodes(ctx, "v1"))
		require.NoError(t, s.DeleteVersion(ctx, "v1"))
	}

	versions, nodes, edges, exports := s.Rows()
	assert.Zero(t, versions+nodes+edges+exports)
}

func TestStore_Orphans(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.RecordOrphan(ctx, "v1", "insert_edges: boom"))
	require.NoError(t, s.RecordOrphan(ctx, "v1", "insert_edges: boom again"))

	orphans, err := s.ListOrphans(ctx)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "insert_edges: boom again", orphans[0].Reason)

	require.NoError(t, s.ClearOrphan(ctx, "v1"))
	require.NoError(t, s.ClearOrphan(ctx, "v1"))
	orphans, err = s.ListOrphans(ctx)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestGraphs(t *testing.T) {
	g := NewGraphs()
	g.Put("piano", []byte(`{"nodes": [{"id": "t", "type": "track", "data": {"key": "A"}}], "edges": []}`))

	graph, err := g.LoadGraph(context.Background(), "piano")
	require.NoError(t, err)
	assert.Equal(t, "piano", graph.ID)
	assert.Len(t, graph.Nodes, 1)

	_, err = g.LoadGraph(context.Background(), "missing")
	assert.ErrorIs(t, err, curriculum.ErrGraphNotFound)
}
