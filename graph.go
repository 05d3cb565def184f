package curriculum

import (
	"encoding/json"
	"sync"
)

// Kind is the type of an authored curriculum element.
type Kind string

const (
	KindTrack  Kind = "track"
	KindLesson Kind = "lesson"
	KindSkill  Kind = "skill"
	KindTune   Kind = "tune"
)

// Kinds lists the known node kinds in export order.
var Kinds = []Kind{KindTrack, KindLesson, KindSkill, KindTune}

// Known reports whether k is one of the four curriculum kinds.
func (k Kind) Known() bool {
	switch k {
	case KindTrack, KindLesson, KindSkill, KindTune:
		return true
	}
	return false
}

// Graph is an author-edited curriculum graph as loaded from a single stored
// document. It is read-only once parsed.
type Graph struct {
	ID    string `json:"id,omitempty"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`

	once sync.Once
	byID map[string]int
	from map[string][]int
	to   map[string][]int
}

// NewGraph builds an indexed graph from nodes and edges.
func NewGraph(id string, nodes []Node, edges []Edge) *Graph {
	g := &Graph{ID: id, Nodes: nodes, Edges: edges}
	g.ensureIndex()
	return g
}

// Node is one authored curriculum element. ID is editor-local and never
// leaves the authoring side; Key is the business identifier.
type Node struct {
	ID   string   `json:"id"`
	Kind Kind     `json:"type"`
	Data NodeData `json:"data"`
}

// Key returns the node's business key.
func (n Node) Key() string { return n.Data.Key }

// NodeData carries the shared and kind-specific fields a node may hold.
// Which fields survive publishing depends on the node's kind.
type NodeData struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// lesson
	Goal               string `json:"goal,omitempty"`
	SetupGuidance      string `json:"setupGuidance,omitempty"`
	DifficultyGuidance string `json:"difficultyGuidance,omitempty"`

	// lesson, tune
	EvaluationGuidance string          `json:"evaluationGuidance,omitempty"`
	Level              json.RawMessage `json:"level,omitempty"`

	// skill
	UnlockGuidance string `json:"unlockGuidance,omitempty"`

	// tune
	MusicRef string `json:"musicRef,omitempty"`
}

// Edge is a directed connection between two nodes. The handles name the
// connection points on each endpoint and, together with the endpoint kinds,
// decide the edge's semantic type.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// index builds the lookup tables behind the accessors.
func (g *Graph) index() {
	g.byID = make(map[string]int, len(g.Nodes))
	g.from = make(map[string][]int)
	g.to = make(map[string][]int)
	for i, n := range g.Nodes {
		if _, dup := g.byID[n.ID]; !dup {
			g.byID[n.ID] = i
		}
	}
	for i, e := range g.Edges {
		g.from[e.Source] = append(g.from[e.Source], i)
		g.to[e.Target] = append(g.to[e.Target], i)
	}
}

func (g *Graph) ensureIndex() {
	g.once.Do(g.index)
}

// NodeByID returns the node with the given editor id.
func (g *Graph) NodeByID(id string) (Node, bool) {
	g.ensureIndex()
	i, ok := g.byID[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// NodesByKind returns the nodes of kind k in graph order.
func (g *Graph) NodesByKind(k Kind) []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Kind == k {
			out = append(out, n)
		}
	}
	return out
}

// EdgesFrom returns the edges whose source is the given node id.
func (g *Graph) EdgesFrom(id string) []Edge {
	g.ensureIndex()
	return g.collect(g.from[id])
}

// EdgesTo returns the edges whose target is the given node id.
func (g *Graph) EdgesTo(id string) []Edge {
	g.ensureIndex()
	return g.collect(g.to[id])
}

func (g *Graph) collect(idx []int) []Edge {
	if len(idx) == 0 {
		return nil
	}
	out := make([]Edge, 0, len(idx))
	for _, i := range idx {
		out = append(out, g.Edges[i])
	}
	return out
}

// Classify resolves an edge's endpoints and looks up its semantic type.
// ok is false when an endpoint is missing or no mapping matches.
func (g *Graph) Classify(e Edge) (t EdgeType, src, dst Node, ok bool) {
	src, okSrc := g.NodeByID(e.Source)
	dst, okDst := g.NodeByID(e.Target)
	if !okSrc || !okDst {
		return "", src, dst, false
	}
	t, ok = ClassifyEdge(src.Kind, dst.Kind, e.SourceHandle, e.TargetHandle)
	return t, src, dst, ok
}
