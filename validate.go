package curriculum

import (
	"fmt"
	"regexp"
	"strings"
)

// SkillKeyPrefix is the reserved prefix every skill key carries.
const SkillKeyPrefix = "skill_"

var keyPatterns = map[Kind]*regexp.Regexp{
	KindTrack:  regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`),
	KindLesson: regexp.MustCompile(`^[A-Za-z0-9]+(\.[A-Za-z0-9]+)*$`),
	KindSkill:  regexp.MustCompile(`^` + SkillKeyPrefix + `[a-z0-9_]+$`),
	KindTune:   regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`),
}

var keyConventions = map[Kind]string{
	KindTrack:  "an identifier (letters, digits, underscores)",
	KindLesson: "alphanumeric segments separated by dots",
	KindSkill:  "prefixed with " + SkillKeyPrefix + " followed by lowercase letters, digits or underscores",
	KindTune:   "lowercase words separated by dashes",
}

// Validate checks a graph against the key, referential and structural rules
// and returns every finding. It never mutates g and consults nothing but g,
// so repeated calls return identical results.
func Validate(g *Graph) Result {
	var v validation
	v.keys(g)
	v.edges(g)
	v.structure(g)
	return v.res
}

type validation struct {
	res Result
}

func (v *validation) errorf(t IssueType, nodeID, edgeID, format string, args ...any) {
	v.res.Errors = append(v.res.Errors, Issue{Type: t, Message: fmt.Sprintf(format, args...), NodeID: nodeID, EdgeID: edgeID})
}

func (v *validation) warnf(t IssueType, nodeID, edgeID, format string, args ...any) {
	v.res.Warnings = append(v.res.Warnings, Issue{Type: t, Message: fmt.Sprintf(format, args...), NodeID: nodeID, EdgeID: edgeID})
}

// keys enforces unique editor ids, and the presence, convention and
// graph-wide uniqueness of keys. Edges resolve a repeated id to its first
// node, so later nodes with that id are reported and otherwise ignored.
func (v *validation) keys(g *Graph) {
	seen := make(map[string]string, len(g.Nodes))
	ids := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if ids[n.ID] {
			v.errorf(IssueDuplicateNodeID, n.ID, "", "node id %q is used by more than one node", n.ID)
			continue
		}
		ids[n.ID] = true

		if !n.Kind.Known() {
			v.warnf(IssueUnknownNodeKind, n.ID, "", "node %q has unknown kind %q and will not be published", n.ID, n.Kind)
			continue
		}

		key := strings.TrimSpace(n.Key())
		if key == "" {
			v.errorf(IssueMissingKey, n.ID, "", "%s node %q has no key", n.Kind, n.ID)
			continue
		}
		if strings.TrimSpace(n.Data.Title) == "" {
			v.warnf(IssueMissingTitle, n.ID, "", "%s %q has no title", n.Kind, key)
		}
		if !keyPatterns[n.Kind].MatchString(key) {
			v.warnf(IssueInvalidKeyFormat, n.ID, "", "%s key %q should be %s", n.Kind, key, keyConventions[n.Kind])
		}
		if first, dup := seen[key]; dup {
			v.errorf(IssueDuplicateKey, n.ID, "", "key %q on node %q is already used by node %q", key, n.ID, first)
			continue
		}
		seen[key] = n.ID
	}
}

// edges enforces referential integrity, the single-next rule for lessons and
// the kinds a skill may connect to.
func (v *validation) edges(g *Graph) {
	nextCount := make(map[string]int)
	for _, e := range g.Edges {
		src, okSrc := g.NodeByID(e.Source)
		dst, okDst := g.NodeByID(e.Target)
		if !okSrc {
			v.errorf(IssueDanglingEdge, "", e.ID, "edge %q references unknown source node %q", e.ID, e.Source)
		}
		if !okDst {
			v.errorf(IssueDanglingEdge, "", e.ID, "edge %q references unknown target node %q", e.ID, e.Target)
		}
		if !okSrc || !okDst {
			continue
		}

		if t, ok := ClassifyEdge(src.Kind, dst.Kind, e.SourceHandle, e.TargetHandle); ok && t == EdgeLessonNext {
			nextCount[src.ID]++
			if nextCount[src.ID] == 2 {
				v.errorf(IssueMultipleLessonNext, src.ID, e.ID, "lesson %q has more than one next lesson", displayKey(src))
			}
		}

		if src.Kind == KindSkill && !skillPeer(dst.Kind) {
			v.warnf(IssueInvalidSkillEdge, src.ID, e.ID, "skill %q is connected to %s node %q", displayKey(src), dst.Kind, dst.ID)
		} else if dst.Kind == KindSkill && !skillPeer(src.Kind) {
			v.warnf(IssueInvalidSkillEdge, dst.ID, e.ID, "skill %q is connected from %s node %q", displayKey(dst), src.Kind, src.ID)
		}
	}
}

func skillPeer(k Kind) bool {
	return k == KindLesson || k == KindTune || k == KindTrack
}

// structure checks entry points, orphans and the acyclicity of the
// lesson_next chain.
func (v *validation) structure(g *Graph) {
	hasStart := make(map[string]bool)
	entered := make(map[string]bool)
	awarded := make(map[string]bool)
	next := make(map[string][]string)

	for _, e := range g.Edges {
		t, src, dst, ok := g.Classify(e)
		if !ok {
			continue
		}
		switch t {
		case EdgeTrackStartsWith:
			hasStart[src.ID] = true
			entered[dst.ID] = true
		case EdgeLessonNext:
			entered[dst.ID] = true
			next[src.ID] = append(next[src.ID], dst.ID)
		case EdgeLessonAwardsSkill, EdgeTuneAwardsSkill:
			awarded[dst.ID] = true
		}
	}

	for _, n := range g.Nodes {
		switch n.Kind {
		case KindTrack:
			if !hasStart[n.ID] {
				v.warnf(IssueTrackNoStart, n.ID, "", "track %q has no start lesson or tune", displayKey(n))
			}
		case KindLesson:
			if !entered[n.ID] {
				v.warnf(IssueOrphanLesson, n.ID, "", "lesson %q is not reachable from a track or a previous lesson", displayKey(n))
			}
		case KindSkill:
			if !awarded[n.ID] {
				v.warnf(IssueOrphanSkill, n.ID, "", "skill %q is not awarded by any lesson or tune", displayKey(n))
			}
		}
	}

	v.lessonCycles(g, next)
}

// lessonCycles runs a visited + recursion-stack DFS over every lesson that
// has a next edge and reports each cycle once.
func (v *validation) lessonCycles(g *Graph, next map[string][]string) {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var path []string

	var dfs func(id string)
	dfs = func(id string) {
		visited[id] = true
		onStack[id] = true
		path = append(path, id)

		for _, succ := range next[id] {
			if onStack[succ] {
				start := 0
				for i, p := range path {
					if p == succ {
						start = i
						break
					}
				}
				cycle := make([]string, 0, len(path)-start+1)
				for _, p := range path[start:] {
					cycle = append(cycle, v.lessonLabel(g, p))
				}
				cycle = append(cycle, v.lessonLabel(g, succ))
				v.errorf(IssueLessonCycle, succ, "", "lesson chain loops back on itself: %s", strings.Join(cycle, " -> "))
				continue
			}
			if !visited[succ] {
				dfs(succ)
			}
		}

		path = path[:len(path)-1]
		onStack[id] = false
	}

	for _, n := range g.Nodes {
		if n.Kind != KindLesson || len(next[n.ID]) == 0 || visited[n.ID] {
			continue
		}
		dfs(n.ID)
	}
}

func (v *validation) lessonLabel(g *Graph, id string) string {
	if n, ok := g.NodeByID(id); ok {
		return displayKey(n)
	}
	return id
}

// displayKey prefers the business key and falls back to the editor id.
func displayKey(n Node) string {
	if k := strings.TrimSpace(n.Key()); k != "" {
		return k
	}
	return n.ID
}
