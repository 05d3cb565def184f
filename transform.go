package curriculum

import (
	"encoding/json"
	"strings"
)

// RuntimeNode is the published projection of a node, addressed by key.
type RuntimeNode struct {
	Kind        Kind           `json:"kind"`
	Key         string         `json:"key"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data"`
}

// RuntimeEdge is a classified edge with both endpoints resolved to keys.
type RuntimeEdge struct {
	Type    EdgeType `json:"type"`
	FromKey string   `json:"fromKey"`
	ToKey   string   `json:"toKey"`
}

// ExportNode is the bulk-read shape of a node inside the export snapshot.
type ExportNode struct {
	Key         string         `json:"key"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

// ExportSnapshot groups a version's nodes by kind so readers can hydrate a
// whole curriculum without joining the node and edge relations.
type ExportSnapshot struct {
	Tracks  []ExportNode  `json:"tracks"`
	Lessons []ExportNode  `json:"lessons"`
	Skills  []ExportNode  `json:"skills"`
	Tunes   []ExportNode  `json:"tunes"`
	Edges   []RuntimeEdge `json:"edges"`
}

// RuntimeDocument is the normalized form of a graph that gets written as a
// version. It is recomputed on every publish.
type RuntimeDocument struct {
	Nodes  []RuntimeNode  `json:"nodes"`
	Edges  []RuntimeEdge  `json:"edges"`
	Export ExportSnapshot `json:"exportJson"`
}

// Counts summarises a runtime document.
type Counts struct {
	Nodes   int `json:"nodes"`
	Edges   int `json:"edges"`
	Tracks  int `json:"tracks"`
	Lessons int `json:"lessons"`
	Skills  int `json:"skills"`
	Tunes   int `json:"tunes"`
}

// Counts returns node, edge and per-kind totals.
func (d *RuntimeDocument) Counts() Counts {
	return Counts{
		Nodes:   len(d.Nodes),
		Edges:   len(d.Edges),
		Tracks:  len(d.Export.Tracks),
		Lessons: len(d.Export.Lessons),
		Skills:  len(d.Export.Skills),
		Tunes:   len(d.Export.Tunes),
	}
}

// ExportJSON encodes the export snapshot for storage.
func (d *RuntimeDocument) ExportJSON() (json.RawMessage, error) {
	return json.Marshal(d.Export)
}

// Transform projects a graph into its runtime form. It assumes g has been
// validated; nodes without a key or of an unknown kind are dropped, and
// edges that cannot be resolved or classified are omitted. The output
// follows graph order.
func Transform(g *Graph) *RuntimeDocument {
	doc := &RuntimeDocument{
		Nodes: []RuntimeNode{},
		Edges: []RuntimeEdge{},
		Export: ExportSnapshot{
			Tracks:  []ExportNode{},
			Lessons: []ExportNode{},
			Skills:  []ExportNode{},
			Tunes:   []ExportNode{},
		},
	}

	emitted := make(map[string]bool, len(g.Nodes))
	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if ids[n.ID] {
			continue
		}
		ids[n.ID] = true
		key := strings.TrimSpace(n.Key())
		if key == "" || !n.Kind.Known() || emitted[key] {
			continue
		}
		emitted[key] = true

		rn := RuntimeNode{
			Kind:        n.Kind,
			Key:         key,
			Title:       n.Data.Title,
			Description: n.Data.Description,
			Data:        projectData(n),
		}
		doc.Nodes = append(doc.Nodes, rn)

		en := ExportNode{Key: key, Title: rn.Title, Description: rn.Description}
		if len(rn.Data) > 0 {
			en.Data = rn.Data
		}
		switch n.Kind {
		case KindTrack:
			doc.Export.Tracks = append(doc.Export.Tracks, en)
		case KindLesson:
			doc.Export.Lessons = append(doc.Export.Lessons, en)
		case KindSkill:
			doc.Export.Skills = append(doc.Export.Skills, en)
		case KindTune:
			doc.Export.Tunes = append(doc.Export.Tunes, en)
		}
	}

	seen := make(map[RuntimeEdge]bool, len(g.Edges))
	for _, e := range g.Edges {
		t, src, dst, ok := g.Classify(e)
		if !ok {
			continue
		}
		from, to := strings.TrimSpace(src.Key()), strings.TrimSpace(dst.Key())
		if from == "" || to == "" {
			continue
		}
		re := RuntimeEdge{Type: t, FromKey: from, ToKey: to}
		if seen[re] {
			continue
		}
		seen[re] = true
		doc.Edges = append(doc.Edges, re)
	}
	doc.Export.Edges = doc.Edges

	return doc
}

// projectData keeps only the fields the runtime reads for the node's kind.
func projectData(n Node) map[string]any {
	d := n.Data
	out := map[string]any{}
	put := func(name, v string) {
		if strings.TrimSpace(v) != "" {
			out[name] = v
		}
	}
	putLevel := func() {
		if len(d.Level) > 0 && string(d.Level) != "null" {
			out["level"] = d.Level
		}
	}

	switch n.Kind {
	case KindLesson:
		put("goal", d.Goal)
		put("setupGuidance", d.SetupGuidance)
		put("evaluationGuidance", d.EvaluationGuidance)
		put("difficultyGuidance", d.DifficultyGuidance)
		putLevel()
	case KindSkill:
		put("unlockGuidance", d.UnlockGuidance)
	case KindTune:
		put("musicRef", d.MusicRef)
		putLevel()
		put("evaluationGuidance", d.EvaluationGuidance)
	}
	return out
}
