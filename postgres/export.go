package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meikuraledutech/curriculum"
)

// InsertExport stores the export snapshot of a version.
func (s *PGStore) InsertExport(ctx context.Context, versionID string, snapshot json.RawMessage) error {
	if _, err := s.db.Exec(ctx,
		`INSERT INTO curriculum_exports (version_id, snapshot) VALUES ($1, $2)`,
		versionID, []byte(snapshot),
	); err != nil {
		return fmt.Errorf("curriculum: insert export: %w", err)
	}
	return nil
}

// DeleteExport removes the export snapshot of a version.
// No error if there is none.
func (s *PGStore) DeleteExport(ctx context.Context, versionID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM curriculum_exports WHERE version_id = $1`, versionID); err != nil {
		return fmt.Errorf("curriculum: delete export: %w", err)
	}
	return nil
}

// GetExport returns the export snapshot of a version.
// Returns ErrVersionNotFound if there is none.
func (s *PGStore) GetExport(ctx context.Context, versionID string) (json.RawMessage, error) {
	var snap []byte
	err := s.db.QueryRow(ctx, `SELECT snapshot FROM curriculum_exports WHERE version_id = $1`, versionID).Scan(&snap)
	if err != nil {
		if isNoRows(err) {
			return nil, curriculum.ErrVersionNotFound
		}
		return nil, fmt.Errorf("curriculum: get export: %w", err)
	}
	return json.RawMessage(snap), nil
}

// HasExport reports whether a version's export row was written.
func (s *PGStore) HasExport(ctx context.Context, versionID string) (bool, error) {
	var ok bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM curriculum_exports WHERE version_id = $1)`, versionID,
	).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("curriculum: has export: %w", err)
	}
	return ok, nil
}
