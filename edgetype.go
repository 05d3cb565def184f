package curriculum

import "fmt"

// EdgeType is the semantic relationship an edge carries once published.
type EdgeType string

const (
	EdgeTrackStartsWith   EdgeType = "track_starts_with"
	EdgeLessonNext        EdgeType = "lesson_next"
	EdgeLessonAwardsSkill EdgeType = "lesson_awards_skill"
	EdgeTuneAwardsSkill   EdgeType = "tune_awards_skill"
	EdgeSkillRequiredBy   EdgeType = "skill_required_by"
)

// EdgeTypes enumerates every semantic edge type.
var EdgeTypes = []EdgeType{
	EdgeTrackStartsWith,
	EdgeLessonNext,
	EdgeLessonAwardsSkill,
	EdgeTuneAwardsSkill,
	EdgeSkillRequiredBy,
}

// Handle names used by the editor.
const (
	HandleStart    = "start"
	HandleIn       = "in"
	HandleOut      = "out"
	HandleAward    = "award"
	HandleUnlock   = "unlock"
	HandleRequires = "requires"
)

type edgeSignature struct {
	SourceKind   Kind
	TargetKind   Kind
	SourceHandle string
	TargetHandle string
}

// edgeTypeTable is the closed mapping from endpoint kinds and handles to
// semantic edge types. Adding a relationship is one row here.
var edgeTypeTable = map[edgeSignature]EdgeType{
	{KindTrack, KindLesson, HandleStart, HandleIn}:        EdgeTrackStartsWith,
	{KindTrack, KindTune, HandleStart, HandleIn}:          EdgeTrackStartsWith,
	{KindLesson, KindLesson, HandleOut, HandleIn}:         EdgeLessonNext,
	{KindLesson, KindSkill, HandleAward, HandleIn}:        EdgeLessonAwardsSkill,
	{KindTune, KindSkill, HandleAward, HandleIn}:          EdgeTuneAwardsSkill,
	{KindSkill, KindLesson, HandleUnlock, HandleRequires}: EdgeSkillRequiredBy,
}

func init() {
	if err := checkEdgeTypeTable(edgeTypeTable, EdgeTypes); err != nil {
		panic(err)
	}
}

// checkEdgeTypeTable verifies every enumerated type is produced by some row
// and every row produces an enumerated type.
func checkEdgeTypeTable(table map[edgeSignature]EdgeType, types []EdgeType) error {
	known := make(map[EdgeType]bool, len(types))
	for _, t := range types {
		known[t] = false
	}
	for sig, t := range table {
		if _, ok := known[t]; !ok {
			return fmt.Errorf("curriculum: edge table row %v maps to unknown type %q", sig, t)
		}
		if !sig.SourceKind.Known() || !sig.TargetKind.Known() {
			return fmt.Errorf("curriculum: edge table row %v uses an unknown node kind", sig)
		}
		known[t] = true
	}
	for _, t := range types {
		if !known[t] {
			return fmt.Errorf("curriculum: edge type %q has no mapping", t)
		}
	}
	return nil
}

// ClassifyEdge returns the semantic type for the given endpoint kinds and
// handles. ok is false for combinations the table does not know.
func ClassifyEdge(sourceKind, targetKind Kind, sourceHandle, targetHandle string) (EdgeType, bool) {
	t, ok := edgeTypeTable[edgeSignature{sourceKind, targetKind, sourceHandle, targetHandle}]
	return t, ok
}
