package curriculum

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransform_TrackStart(t *testing.T) {
	g := NewGraph("g",
		[]Node{track("t", "A"), lesson("l", "A1.1")},
		[]Edge{edge("e", "t", "l", HandleStart, HandleIn)},
	)
	doc := Transform(g)
	assert.Equal(t, []RuntimeEdge{{Type: EdgeTrackStartsWith, FromKey: "A", ToKey: "A1.1"}}, doc.Edges)
}

func TestTransform_FullGraph(t *testing.T) {
	doc := Transform(pianoGraph())

	assert.Equal(t, Counts{Nodes: 6, Edges: 7, Tracks: 1, Lessons: 3, Skills: 1, Tunes: 1}, doc.Counts())
	assert.Equal(t, []RuntimeEdge{
		{EdgeTrackStartsWith, "A", "A1.1"},
		{EdgeTrackStartsWith, "A", "ode-to-joy"},
		{EdgeLessonNext, "A1.1", "A1.2"},
		{EdgeLessonNext, "A1.2", "A2.1"},
		{EdgeLessonAwardsSkill, "A1.2", "skill_c_position"},
		{EdgeTuneAwardsSkill, "ode-to-joy", "skill_c_position"},
		{EdgeSkillRequiredBy, "skill_c_position", "A2.1"},
	}, doc.Edges)

	keys := make([]string, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		keys = append(keys, n.Key)
	}
	assert.Equal(t, []string{"A", "A1.1", "A1.2", "A2.1", "skill_c_position", "ode-to-joy"}, keys)

	require.Len(t, doc.Export.Lessons, 3)
	assert.Equal(t, "A1.1", doc.Export.Lessons[0].Key)
	require.Len(t, doc.Export.Tunes, 1)
	assert.Equal(t, doc.Edges, doc.Export.Edges)
}

func TestTransform_OmitsUnclassifiedAndDanglingEdges(t *testing.T) {
	g := NewGraph("g",
		[]Node{track("t", "A"), lesson("l1", "A1.1"), lesson("l2", "A1.2")},
		[]Edge{
			edge("e1", "t", "l1", "bottom", "top"),
			edge("e2", "l1", "l2", HandleOut, HandleIn),
			edge("e3", "l2", "missing", HandleOut, HandleIn),
			edge("e4", "t", "l2", "", ""),
		},
	)
	doc := Transform(g)
	assert.Equal(t, []RuntimeEdge{{EdgeLessonNext, "A1.1", "A1.2"}}, doc.Edges)
}

func TestTransform_DropsUnpublishableNodes(t *testing.T) {
	g := NewGraph("g",
		[]Node{
			lesson("l1", "A1.1"),
			lesson("l2", "A1.1"),
			lesson("l3", ""),
			node("x", "chapter", "C1", "Chapter"),
		},
		[]Edge{
			edge("e1", "l1", "l3", HandleOut, HandleIn),
		},
	)
	doc := Transform(g)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, "Lesson A1.1", doc.Nodes[0].Title)
	assert.Empty(t, doc.Edges)
	assert.NotNil(t, doc.Edges)
}

func TestTransform_RepeatedNodeIDKeepsFirstNode(t *testing.T) {
	g := NewGraph("g",
		[]Node{track("t", "A"), lesson("l", "A1.1"), lesson("l", "A1.2")},
		[]Edge{edge("e", "t", "l", HandleStart, HandleIn)},
	)
	doc := Transform(g)
	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, "A1.1", doc.Nodes[1].Key)
	assert.Equal(t, []RuntimeEdge{{EdgeTrackStartsWith, "A", "A1.1"}}, doc.Edges)
	assert.Len(t, doc.Export.Lessons, 1)
}

func TestTransform_DeduplicatesEdges(t *testing.T) {
	g := NewGraph("g",
		[]Node{lesson("l", "A1.1"), skill("s", "skill_a")},
		[]Edge{
			edge("e1", "l", "s", HandleAward, HandleIn),
			edge("e2", "l", "s", HandleAward, HandleIn),
		},
	)
	assert.Len(t, Transform(g).Edges, 1)
}

func TestTransform_DataWhitelist(t *testing.T) {
	all := NodeData{
		Title:              "T",
		Description:        "D",
		Goal:               "goal",
		SetupGuidance:      "setup",
		DifficultyGuidance: "difficulty",
		EvaluationGuidance: "evaluation",
		Level:              json.RawMessage(`2`),
		UnlockGuidance:     "unlock",
		MusicRef:           "scores/x.xml",
	}
	mk := func(id string, k Kind, key string) Node {
		d := all
		d.Key = key
		return Node{ID: id, Kind: k, Data: d}
	}
	g := NewGraph("g",
		[]Node{mk("t", KindTrack, "A"), mk("l", KindLesson, "A1.1"), mk("s", KindSkill, "skill_a"), mk("u", KindTune, "tune")},
		[]Edge{},
	)
	doc := Transform(g)
	require.Len(t, doc.Nodes, 4)

	keysOf := func(m map[string]any) []string {
		out := make([]string, 0, len(m))
		for k := range m {
			out = append(out, k)
		}
		return out
	}
	assert.Empty(t, doc.Nodes[0].Data)
	assert.ElementsMatch(t, []string{"goal", "setupGuidance", "evaluationGuidance", "difficultyGuidance", "level"}, keysOf(doc.Nodes[1].Data))
	assert.ElementsMatch(t, []string{"unlockGuidance"}, keysOf(doc.Nodes[2].Data))
	assert.ElementsMatch(t, []string{"musicRef", "level", "evaluationGuidance"}, keysOf(doc.Nodes[3].Data))

	for _, n := range doc.Nodes {
		assert.Equal(t, "T", n.Title)
		assert.Equal(t, "D", n.Description)
	}

	// Tracks carry no data, so the export omits the field.
	assert.Nil(t, doc.Export.Tracks[0].Data)
}

func TestTransform_NullLevelDropped(t *testing.T) {
	n := lesson("l", "A1.1")
	n.Data.Level = json.RawMessage(`null`)
	doc := Transform(NewGraph("g", []Node{n}, []Edge{}))
	assert.NotContains(t, doc.Nodes[0].Data, "level")
}

func TestTransform_EmptyGraph(t *testing.T) {
	doc := Transform(NewGraph("g", []Node{}, []Edge{}))

	raw, err := doc.ExportJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"tracks": [], "lessons": [], "skills": [], "tunes": [], "edges": []}`, string(raw))
	assert.Equal(t, Counts{}, doc.Counts())
}

func TestRuntimeDocument_ExportJSON(t *testing.T) {
	doc := Transform(pianoGraph())
	raw, err := doc.ExportJSON()
	require.NoError(t, err)

	var snap ExportSnapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Len(t, snap.Lessons, 3)
	assert.Len(t, snap.Skills, 1)
	assert.Len(t, snap.Edges, 7)
}
