package memory

import (
	"context"
	"sync"

	"github.com/meikuraledutech/curriculum"
)

// Graphs is an in-memory GraphSource holding raw editor documents.
type Graphs struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewGraphs creates an empty Graphs.
func NewGraphs() *Graphs {
	return &Graphs{docs: make(map[string][]byte)}
}

var _ curriculum.GraphSource = (*Graphs)(nil)

// Put stores a raw graph document under id. The document is not parsed
// until it is loaded.
func (g *Graphs) Put(id string, raw []byte) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.docs[id] = append([]byte(nil), raw...)
}

// LoadGraph parses the document stored under id.
func (g *Graphs) LoadGraph(_ context.Context, id string) (*curriculum.Graph, error) {
	g.mu.RLock()
	raw, ok := g.docs[id]
	g.mu.RUnlock()
	if !ok {
		return nil, curriculum.ErrGraphNotFound
	}
	return curriculum.ParseGraph(id, raw)
}
