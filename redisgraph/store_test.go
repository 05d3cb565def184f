package redisgraph

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/meikuraledutech/curriculum"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const graphJSON = `{
  "nodes": [
    {"id": "t", "type": "track", "position": {"x": 0, "y": 0}, "data": {"key": "A", "title": "Track A"}},
    {"id": "l", "type": "lesson", "data": {"key": "A1.1", "title": "Middle C"}}
  ],
  "edges": [
    {"id": "e", "source": "t", "target": "l", "sourceHandle": "start", "targetHandle": "in"}
  ]
}`

func newStore(t *testing.T, opts ...Option) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := New(rdb, opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStore_SaveAndLoad(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveGraph(ctx, "piano-101", []byte(graphJSON)))
	assert.True(t, mr.Exists("curriculum:graph:piano-101"))

	g, err := s.LoadGraph(ctx, "piano-101")
	require.NoError(t, err)
	assert.Equal(t, "piano-101", g.ID)
	assert.Len(t, g.Nodes, 2)
	assert.Len(t, g.EdgesFrom("t"), 1)
}

func TestStore_LoadMissing(t *testing.T) {
	s, _ := newStore(t)

	_, err := s.LoadGraph(context.Background(), "nope")
	assert.ErrorIs(t, err, curriculum.ErrGraphNotFound)
}

func TestStore_LoadMalformed(t *testing.T) {
	s, mr := newStore(t)
	require.NoError(t, mr.Set("curriculum:graph:broken", `{"nodes": []}`))

	_, err := s.LoadGraph(context.Background(), "broken")
	assert.ErrorIs(t, err, curriculum.ErrMalformedGraph)
}

func TestStore_SaveRejectsMalformed(t *testing.T) {
	s, mr := newStore(t)

	err := s.SaveGraph(context.Background(), "bad", []byte(`not json`))
	assert.ErrorIs(t, err, curriculum.ErrMalformedGraph)
	assert.False(t, mr.Exists("curriculum:graph:bad"))
}

func TestStore_KeyPrefix(t *testing.T) {
	s, mr := newStore(t, WithKeyPrefix("piano"))

	require.NoError(t, s.SaveGraph(context.Background(), "g", []byte(graphJSON)))
	assert.True(t, mr.Exists("piano:graph:g"))
}

func TestStore_ListAndDelete(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveGraph(ctx, "a", []byte(graphJSON)))
	require.NoError(t, s.SaveGraph(ctx, "b", []byte(graphJSON)))

	ids, err := s.ListGraphs(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)

	require.NoError(t, s.DeleteGraph(ctx, "a"))
	require.NoError(t, s.DeleteGraph(ctx, "a"))

	ids, err = s.ListGraphs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestStore_NotifyPublished(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	sub := s.Subscribe(ctx)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	at := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.NotifyPublished(ctx, curriculum.Version{
		ID:            "v-1",
		SourceGraphID: "piano-101",
		VersionNumber: 3,
		PublishedAt:   &at,
	}))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultEventsChannel, msg.Channel)

	var ev PublishedEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
	assert.Equal(t, "piano-101", ev.SourceGraphID)
	assert.Equal(t, "v-1", ev.VersionID)
	assert.Equal(t, 3, ev.VersionNumber)
	assert.Equal(t, "2026-10-15T09:00:00.000Z", ev.PublishedAt)
}
