package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/meikuraledutech/curriculum"
)

// RecordOrphan durably notes a version whose publish failed, before any
// cleanup is attempted.
func (s *PGStore) RecordOrphan(ctx context.Context, versionID, reason string) error {
	if _, err := s.db.Exec(ctx,
		`INSERT INTO curriculum_orphaned_versions (version_id, reason) VALUES ($1, $2)
		 ON CONFLICT (version_id) DO UPDATE SET reason = EXCLUDED.reason, recorded_at = NOW()`,
		versionID, reason,
	); err != nil {
		return fmt.Errorf("curriculum: record orphan: %w", err)
	}
	return nil
}

// ClearOrphan forgets an orphan record.
// No error if there is none.
func (s *PGStore) ClearOrphan(ctx context.Context, versionID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM curriculum_orphaned_versions WHERE version_id = $1`, versionID); err != nil {
		return fmt.Errorf("curriculum: clear orphan: %w", err)
	}
	return nil
}

// ListOrphans returns every recorded orphan, oldest first.
func (s *PGStore) ListOrphans(ctx context.Context) ([]curriculum.Orphan, error) {
	rows, err := s.db.Query(ctx,
		`SELECT version_id, reason, recorded_at FROM curriculum_orphaned_versions ORDER BY recorded_at`)
	if err != nil {
		return nil, fmt.Errorf("curriculum: list orphans: %w", err)
	}
	defer rows.Close()

	orphans := []curriculum.Orphan{}
	for rows.Next() {
		var (
			o  curriculum.Orphan
			at time.Time
		)
		if err := rows.Scan(&o.VersionID, &o.Reason, &at); err != nil {
			return nil, fmt.Errorf("curriculum: scan orphan: %w", err)
		}
		o.RecordedAt = at
		orphans = append(orphans, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("curriculum: rows orphans: %w", err)
	}
	return orphans, nil
}
