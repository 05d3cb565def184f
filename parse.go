package curriculum

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// graphDocument mirrors the stored editor document. Pointers distinguish a
// missing collection from an empty one.
type graphDocument struct {
	ID    string  `json:"id,omitempty"`
	Nodes *[]Node `json:"nodes"`
	Edges *[]Edge `json:"edges"`
}

// ParseGraph decodes a stored graph document. It returns a
// *MalformedGraphError when the JSON is unreadable, when the nodes or edges
// collection is missing, or when a node or edge has no id. Fields the
// editor keeps for its own use (positions, styling) are ignored.
func ParseGraph(id string, raw []byte) (*Graph, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &MalformedGraphError{Msg: "empty document"}
	}

	var doc graphDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &MalformedGraphError{Msg: "decode", Err: err}
	}
	if doc.Nodes == nil {
		return nil, &MalformedGraphError{Field: "nodes", Msg: "required collection is missing"}
	}
	if doc.Edges == nil {
		return nil, &MalformedGraphError{Field: "edges", Msg: "required collection is missing"}
	}

	for i, n := range *doc.Nodes {
		if n.ID == "" {
			return nil, &MalformedGraphError{Field: fmt.Sprintf("nodes[%d].id", i), Msg: "required field is missing"}
		}
	}
	for i, e := range *doc.Edges {
		if e.ID == "" {
			return nil, &MalformedGraphError{Field: fmt.Sprintf("edges[%d].id", i), Msg: "required field is missing"}
		}
	}

	if id == "" {
		id = doc.ID
	}
	return NewGraph(id, *doc.Nodes, *doc.Edges), nil
}
