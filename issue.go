package curriculum

import "fmt"

// IssueType tags a validation finding.
type IssueType string

const (
	IssueDuplicateNodeID    IssueType = "duplicate_node_id"
	IssueMissingKey         IssueType = "missing_key"
	IssueDuplicateKey       IssueType = "duplicate_key"
	IssueInvalidKeyFormat   IssueType = "invalid_key_format"
	IssueUnknownNodeKind    IssueType = "unknown_node_kind"
	IssueMissingTitle       IssueType = "missing_title"
	IssueDanglingEdge       IssueType = "dangling_edge"
	IssueMultipleLessonNext IssueType = "multiple_lesson_next"
	IssueInvalidSkillEdge   IssueType = "invalid_skill_edge"
	IssueTrackNoStart       IssueType = "track_no_start"
	IssueOrphanLesson       IssueType = "orphan_lesson"
	IssueOrphanSkill        IssueType = "orphan_skill"
	IssueLessonCycle        IssueType = "lesson_cycle"

	// IssueMarkPublishedFailed is raised by the Publisher, not the Validator.
	IssueMarkPublishedFailed IssueType = "mark_published_failed"
)

// Issue is one validation finding. NodeID and EdgeID point the editor at
// the element to highlight.
type Issue struct {
	Type    IssueType `json:"type"`
	Message string    `json:"message"`
	NodeID  string    `json:"nodeId,omitempty"`
	EdgeID  string    `json:"edgeId,omitempty"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Type, i.Message)
}

// Result holds the outcome of validating a graph. Errors block publishing,
// warnings never do.
type Result struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// HasErrors reports whether any blocking issue was found.
func (r Result) HasErrors() bool { return len(r.Errors) > 0 }

// ErrorStrings renders the errors for the wire response.
func (r Result) ErrorStrings() []string { return IssueStrings(r.Errors) }

// WarningStrings renders the warnings for the wire response.
func (r Result) WarningStrings() []string { return IssueStrings(r.Warnings) }

// IssueStrings renders issues as "type: message" lines.
func IssueStrings(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.String())
	}
	return out
}
