package curriculum

import (
	"context"
	"encoding/json"
	"time"
)

// VersionStatus is the lifecycle state of a published version.
type VersionStatus string

const (
	StatusDraft      VersionStatus = "draft"
	StatusPublishing VersionStatus = "publishing"
	StatusPublished  VersionStatus = "published"
)

// Version is one immutable, numbered publication of a source graph.
type Version struct {
	ID            string        `json:"id"`
	SourceGraphID string        `json:"sourceGraphId"`
	VersionNumber int           `json:"versionNumber"`
	Title         string        `json:"title"`
	Status        VersionStatus `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
	PublishedAt   *time.Time    `json:"publishedAt,omitempty"`
}

// Orphan records a version whose write sequence failed and whose cleanup
// may not have finished.
type Orphan struct {
	VersionID  string    `json:"versionId"`
	Reason     string    `json:"reason"`
	RecordedAt time.Time `json:"recordedAt"`
}

// GraphSource loads author-edited graphs from the document store.
type GraphSource interface {
	// LoadGraph returns ErrGraphNotFound when no document exists for id and
	// a *MalformedGraphError when the document cannot be read.
	LoadGraph(ctx context.Context, id string) (*Graph, error)
}

// Notifier is told about every version that finished publishing.
type Notifier interface {
	NotifyPublished(ctx context.Context, v Version) error
}

// VersionStore defines the relational persistence of published versions.
// Each write touches a single relation; the Publisher sequences them and
// owns rollback. Deletes are idempotent.
type VersionStore interface {
	// Write sequence
	NextVersionNumber(ctx context.Context, sourceGraphID string) (int, error)
	CreateVersion(ctx context.Context, v *Version) error // ErrVersionConflict on a taken number
	InsertNodes(ctx context.Context, versionID string, nodes []RuntimeNode) error
	InsertEdges(ctx context.Context, versionID string, edges []RuntimeEdge) error
	InsertExport(ctx context.Context, versionID string, snapshot json.RawMessage) error
	MarkPublished(ctx context.Context, versionID string, at time.Time) error

	// Compensation
	DeleteExport(ctx context.Context, versionID string) error
	DeleteEdges(ctx context.Context, versionID string) error
	DeleteNodes(ctx context.Context, versionID string) error
	DeleteVersion(ctx context.Context, versionID string) error

	// Reconciliation
	RecordOrphan(ctx context.Context, versionID, reason string) error
	ClearOrphan(ctx context.Context, versionID string) error
	ListOrphans(ctx context.Context) ([]Orphan, error)
	ListStuckVersions(ctx context.Context, createdBefore time.Time) ([]Version, error)
	HasExport(ctx context.Context, versionID string) (bool, error)

	// Read side
	GetVersion(ctx context.Context, versionID string) (*Version, error) // ErrVersionNotFound
	ListVersions(ctx context.Context, sourceGraphID string) ([]Version, error)
	CurrentVersion(ctx context.Context, sourceGraphID string) (*Version, error) // ErrVersionNotFound
	GetExport(ctx context.Context, versionID string) (json.RawMessage, error)   // ErrVersionNotFound
	ListNodes(ctx context.Context, versionID string) ([]RuntimeNode, error)
	ListEdges(ctx context.Context, versionID string) ([]RuntimeEdge, error)
}
