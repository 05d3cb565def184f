// Package redisgraph keeps author-edited curriculum graphs in Redis and
// announces published versions over Redis pub/sub.
package redisgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/meikuraledutech/curriculum"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultKeyPrefix     = "curriculum"
	DefaultEventsChannel = "curriculum:published"
)

// Store reads and writes graph documents stored as JSON strings under
// {prefix}:graph:{id}. It is safe for concurrent use.
type Store struct {
	rdb     *redis.Client
	prefix  string
	channel string
}

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix namespaces all keys under prefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithEventsChannel sets the channel publish events are sent to.
func WithEventsChannel(channel string) Option {
	return func(s *Store) {
		if channel != "" {
			s.channel = channel
		}
	}
}

// New creates a Store over an existing client.
func New(rdb *redis.Client, opts ...Option) *Store {
	s := &Store{rdb: rdb, prefix: DefaultKeyPrefix, channel: DefaultEventsChannel}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	_ curriculum.GraphSource = (*Store)(nil)
	_ curriculum.Notifier    = (*Store)(nil)
)

// GraphKey returns the Redis key of a graph document.
func (s *Store) GraphKey(id string) string {
	return fmt.Sprintf("%s:graph:%s", s.prefix, id)
}

// Ping verifies Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// LoadGraph fetches and parses a graph document.
// Returns ErrGraphNotFound if no document exists for id.
func (s *Store) LoadGraph(ctx context.Context, id string) (*curriculum.Graph, error) {
	raw, err := s.GetRaw(ctx, id)
	if err != nil {
		return nil, err
	}
	return curriculum.ParseGraph(id, raw)
}

// GetRaw returns the stored document bytes unparsed.
func (s *Store) GetRaw(ctx context.Context, id string) ([]byte, error) {
	raw, err := s.rdb.Get(ctx, s.GraphKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, curriculum.ErrGraphNotFound
		}
		return nil, fmt.Errorf("curriculum: read graph %s: %w", id, err)
	}
	return raw, nil
}

// SaveGraph stores a graph document after checking that it parses.
func (s *Store) SaveGraph(ctx context.Context, id string, raw []byte) error {
	if _, err := curriculum.ParseGraph(id, raw); err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.GraphKey(id), raw, 0).Err(); err != nil {
		return fmt.Errorf("curriculum: write graph %s: %w", id, err)
	}
	return nil
}

// DeleteGraph removes a graph document.
// No error if it doesn't exist.
func (s *Store) DeleteGraph(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, s.GraphKey(id)).Err(); err != nil {
		return fmt.Errorf("curriculum: delete graph %s: %w", id, err)
	}
	return nil
}

// ListGraphs returns the ids of all stored graphs.
func (s *Store) ListGraphs(ctx context.Context) ([]string, error) {
	pattern := s.GraphKey("*")
	keyPrefix := s.GraphKey("")

	var ids []string
	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), keyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("curriculum: scan graphs: %w", err)
	}
	return ids, nil
}

// PublishedEvent is the payload sent on the events channel.
type PublishedEvent struct {
	SourceGraphID string `json:"sourceGraphId"`
	VersionID     string `json:"versionId"`
	VersionNumber int    `json:"versionNumber"`
	PublishedAt   string `json:"publishedAt,omitempty"`
}

// NotifyPublished announces a published version so runtime readers can
// refresh their cached curriculum.
func (s *Store) NotifyPublished(ctx context.Context, v curriculum.Version) error {
	ev := PublishedEvent{
		SourceGraphID: v.SourceGraphID,
		VersionID:     v.ID,
		VersionNumber: v.VersionNumber,
	}
	if v.PublishedAt != nil {
		ev.PublishedAt = v.PublishedAt.Format("2006-01-02T15:04:05.000Z07:00")
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("curriculum: marshal publish event: %w", err)
	}
	if err := s.rdb.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("curriculum: publish event: %w", err)
	}
	return nil
}

// Subscribe listens for publish events. The caller must close the returned
// PubSub.
func (s *Store) Subscribe(ctx context.Context) *redis.PubSub {
	return s.rdb.Subscribe(ctx, s.channel)
}
