// Package memory implements curriculum.VersionStore in process memory.
// It keeps the same per-relation layout as the postgres store so the
// publish write sequence behaves identically against both.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/meikuraledutech/curriculum"
)

// Store is a concurrency-safe in-memory VersionStore.
type Store struct {
	mu       sync.RWMutex
	versions map[string]curriculum.Version
	nodes    map[string][]curriculum.RuntimeNode
	edges    map[string][]curriculum.RuntimeEdge
	exports  map[string]json.RawMessage
	orphans  map[string]curriculum.Orphan
	now      func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		versions: make(map[string]curriculum.Version),
		nodes:    make(map[string][]curriculum.RuntimeNode),
		edges:    make(map[string][]curriculum.RuntimeEdge),
		exports:  make(map[string]json.RawMessage),
		orphans:  make(map[string]curriculum.Orphan),
		now:      time.Now,
	}
}

var _ curriculum.VersionStore = (*Store)(nil)

// NextVersionNumber returns max(versionNumber)+1 for the source graph.
func (s *Store) NextVersionNumber(_ context.Context, sourceGraphID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for _, v := range s.versions {
		if v.SourceGraphID == sourceGraphID && v.VersionNumber > max {
			max = v.VersionNumber
		}
	}
	return max + 1, nil
}

// CreateVersion inserts a version row. The (source graph, number) pair is
// unique, as in the relational schema.
func (s *Store) CreateVersion(_ context.Context, v *curriculum.Version) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.versions[v.ID]; ok {
		return fmt.Errorf("memory: version %s already exists", v.ID)
	}
	for _, existing := range s.versions {
		if existing.SourceGraphID == v.SourceGraphID && existing.VersionNumber == v.VersionNumber {
			return curriculum.ErrVersionConflict
		}
	}
	s.versions[v.ID] = *v
	return nil
}

func (s *Store) InsertNodes(_ context.Context, versionID string, nodes []curriculum.RuntimeNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.versions[versionID]; !ok {
		return fmt.Errorf("memory: insert nodes: %w", curriculum.ErrVersionNotFound)
	}
	s.nodes[versionID] = append([]curriculum.RuntimeNode(nil), nodes...)
	return nil
}

func (s *Store) InsertEdges(_ context.Context, versionID string, edges []curriculum.RuntimeEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.versions[versionID]; !ok {
		return fmt.Errorf("memory: insert edges: %w", curriculum.ErrVersionNotFound)
	}
	s.edges[versionID] = append([]curriculum.RuntimeEdge(nil), edges...)
	return nil
}

func (s *Store) InsertExport(_ context.Context, versionID string, snapshot json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.versions[versionID]; !ok {
		return fmt.Errorf("memory: insert export: %w", curriculum.ErrVersionNotFound)
	}
	s.exports[versionID] = append(json.RawMessage(nil), snapshot...)
	return nil
}

func (s *Store) MarkPublished(_ context.Context, versionID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[versionID]
	if !ok {
		return curriculum.ErrVersionNotFound
	}
	v.Status = curriculum.StatusPublished
	v.PublishedAt = &at
	s.versions[versionID] = v
	return nil
}

func (s *Store) DeleteExport(_ context.Context, versionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.exports, versionID)
	return nil
}

func (s *Store) DeleteEdges(_ context.Context, versionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.edges, versionID)
	return nil
}

func (s *Store) DeleteNodes(_ context.Context, versionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nodes, versionID)
	return nil
}

func (s *Store) DeleteVersion(_ context.Context, versionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.versions, versionID)
	return nil
}

func (s *Store) RecordOrphan(_ context.Context, versionID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orphans[versionID] = curriculum.Orphan{VersionID: versionID, Reason: reason, RecordedAt: s.now().UTC()}
	return nil
}

func (s *Store) ClearOrphan(_ context.Context, versionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orphans, versionID)
	return nil
}

func (s *Store) ListOrphans(_ context.Context) ([]curriculum.Orphan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]curriculum.Orphan, 0, len(s.orphans))
	for _, o := range s.orphans {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}

func (s *Store) ListStuckVersions(_ context.Context, createdBefore time.Time) ([]curriculum.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []curriculum.Version
	for _, v := range s.versions {
		if v.Status == curriculum.StatusPublishing && v.CreatedAt.Before(createdBefore) {
			out = append(out, v)
		}
	}
	sortVersions(out)
	return out, nil
}

func (s *Store) HasExport(_ context.Context, versionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.exports[versionID]
	return ok, nil
}

func (s *Store) GetVersion(_ context.Context, versionID string) (*curriculum.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.versions[versionID]
	if !ok {
		return nil, curriculum.ErrVersionNotFound
	}
	return &v, nil
}

// ListVersions returns every version of a source graph, newest first.
func (s *Store) ListVersions(_ context.Context, sourceGraphID string) ([]curriculum.Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []curriculum.Version{}
	for _, v := range s.versions {
		if v.SourceGraphID == sourceGraphID {
			out = append(out, v)
		}
	}
	sortVersions(out)
	return out, nil
}

// CurrentVersion returns the published version with the highest number.
func (s *Store) CurrentVersion(ctx context.Context, sourceGraphID string) (*curriculum.Version, error) {
	all, _ := s.ListVersions(ctx, sourceGraphID)
	for _, v := range all {
		if v.Status == curriculum.StatusPublished {
			return &v, nil
		}
	}
	return nil, curriculum.ErrVersionNotFound
}

func (s *Store) GetExport(_ context.Context, versionID string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.exports[versionID]
	if !ok {
		return nil, curriculum.ErrVersionNotFound
	}
	return snap, nil
}

func (s *Store) ListNodes(_ context.Context, versionID string) ([]curriculum.RuntimeNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]curriculum.RuntimeNode{}, s.nodes[versionID]...), nil
}

func (s *Store) ListEdges(_ context.Context, versionID string) ([]curriculum.RuntimeEdge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]curriculum.RuntimeEdge{}, s.edges[versionID]...), nil
}

// Rows reports how many rows each relation holds, across all versions.
func (s *Store) Rows() (versions, nodes, edges, exports int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.nodes {
		nodes += len(n)
	}
	for _, e := range s.edges {
		edges += len(e)
	}
	return len(s.versions), nodes, edges, len(s.exports)
}

func sortVersions(vs []curriculum.Version) {
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].SourceGraphID != vs[j].SourceGraphID {
			return vs[i].SourceGraphID < vs[j].SourceGraphID
		}
		return vs[i].VersionNumber > vs[j].VersionNumber
	})
}
