package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/meikuraledutech/curriculum"
)

const versionColumns = `id, source_graph_id, version_number, title, status, created_at, published_at`

// NextVersionNumber returns max(version_number)+1 for the source graph.
func (s *PGStore) NextVersionNumber(ctx context.Context, sourceGraphID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT COALESCE(MAX(version_number), 0) + 1 FROM curriculum_versions WHERE source_graph_id = $1`,
		sourceGraphID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("curriculum: next version number: %w", err)
	}
	return n, nil
}

// CreateVersion inserts a version row.
// Returns ErrVersionConflict if the number is already taken for the graph.
func (s *PGStore) CreateVersion(ctx context.Context, v *curriculum.Version) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO curriculum_versions (id, source_graph_id, version_number, title, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		v.ID, v.SourceGraphID, v.VersionNumber, v.Title, string(v.Status), v.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("curriculum: insert version %d: %w", v.VersionNumber, curriculum.ErrVersionConflict)
		}
		return fmt.Errorf("curriculum: insert version: %w", err)
	}
	return nil
}

// MarkPublished flips a version to published.
// Returns ErrVersionNotFound if the version doesn't exist.
func (s *PGStore) MarkPublished(ctx context.Context, versionID string, at time.Time) error {
	ct, err := s.db.Exec(ctx,
		`UPDATE curriculum_versions SET status = $1, published_at = $2 WHERE id = $3`,
		string(curriculum.StatusPublished), at, versionID,
	)
	if err != nil {
		return fmt.Errorf("curriculum: mark published: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return curriculum.ErrVersionNotFound
	}
	return nil
}

// DeleteVersion removes a version row.
// No error if the version doesn't exist.
func (s *PGStore) DeleteVersion(ctx context.Context, versionID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM curriculum_versions WHERE id = $1`, versionID); err != nil {
		return fmt.Errorf("curriculum: delete version: %w", err)
	}
	return nil
}

// GetVersion fetches a single version by its ID.
// Returns ErrVersionNotFound if not found.
func (s *PGStore) GetVersion(ctx context.Context, versionID string) (*curriculum.Version, error) {
	row := s.db.QueryRow(ctx, `SELECT `+versionColumns+` FROM curriculum_versions WHERE id = $1`, versionID)
	v, err := scanVersion(row)
	if err != nil {
		if isNoRows(err) {
			return nil, curriculum.ErrVersionNotFound
		}
		return nil, fmt.Errorf("curriculum: get version: %w", err)
	}
	return v, nil
}

// ListVersions returns all versions of a source graph, newest first.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListVersions(ctx context.Context, sourceGraphID string) ([]curriculum.Version, error) {
	return s.queryVersions(ctx,
		`SELECT `+versionColumns+` FROM curriculum_versions WHERE source_graph_id = $1 ORDER BY version_number DESC`,
		sourceGraphID)
}

// CurrentVersion returns the most recently published version of a graph.
// Returns ErrVersionNotFound if nothing has been published yet.
func (s *PGStore) CurrentVersion(ctx context.Context, sourceGraphID string) (*curriculum.Version, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+versionColumns+` FROM curriculum_versions
		 WHERE source_graph_id = $1 AND status = $2
		 ORDER BY version_number DESC LIMIT 1`,
		sourceGraphID, string(curriculum.StatusPublished))
	v, err := scanVersion(row)
	if err != nil {
		if isNoRows(err) {
			return nil, curriculum.ErrVersionNotFound
		}
		return nil, fmt.Errorf("curriculum: current version: %w", err)
	}
	return v, nil
}

// ListStuckVersions returns versions still publishing that were created
// before the cutoff.
func (s *PGStore) ListStuckVersions(ctx context.Context, createdBefore time.Time) ([]curriculum.Version, error) {
	return s.queryVersions(ctx,
		`SELECT `+versionColumns+` FROM curriculum_versions WHERE status = $1 AND created_at < $2 ORDER BY created_at`,
		string(curriculum.StatusPublishing), createdBefore)
}

func (s *PGStore) queryVersions(ctx context.Context, sql string, args ...any) ([]curriculum.Version, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("curriculum: list versions: %w", err)
	}
	defer rows.Close()

	versions := []curriculum.Version{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("curriculum: scan version: %w", err)
		}
		versions = append(versions, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("curriculum: rows versions: %w", err)
	}
	return versions, nil
}

func scanVersion(row pgx.Row) (*curriculum.Version, error) {
	var (
		v      curriculum.Version
		status string
	)
	if err := row.Scan(&v.ID, &v.SourceGraphID, &v.VersionNumber, &v.Title, &status, &v.CreatedAt, &v.PublishedAt); err != nil {
		return nil, err
	}
	v.Status = curriculum.VersionStatus(status)
	return &v, nil
}
