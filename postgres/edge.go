package postgres

import (
	"context"
	"fmt"

	"github.com/meikuraledutech/curriculum"
)

// InsertEdges writes all runtime edges of a version in one transaction.
func (s *PGStore) InsertEdges(ctx context.Context, versionID string, edges []curriculum.RuntimeEdge) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("curriculum: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, e := range edges {
		if _, err := tx.Exec(ctx,
			`INSERT INTO curriculum_edges (version_id, from_key, to_key, edge_type, position) VALUES ($1, $2, $3, $4, $5)`,
			versionID, e.FromKey, e.ToKey, string(e.Type), i,
		); err != nil {
			return fmt.Errorf("curriculum: insert edge %s -> %s: %w", e.FromKey, e.ToKey, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("curriculum: commit edges: %w", err)
	}
	return nil
}

// DeleteEdges removes every edge of a version.
// No error if there are none.
func (s *PGStore) DeleteEdges(ctx context.Context, versionID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM curriculum_edges WHERE version_id = $1`, versionID); err != nil {
		return fmt.Errorf("curriculum: delete edges: %w", err)
	}
	return nil
}

// ListEdges returns the edges of a version in publish order.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListEdges(ctx context.Context, versionID string) ([]curriculum.RuntimeEdge, error) {
	rows, err := s.db.Query(ctx,
		`SELECT edge_type, from_key, to_key FROM curriculum_edges WHERE version_id = $1 ORDER BY position`,
		versionID)
	if err != nil {
		return nil, fmt.Errorf("curriculum: list edges: %w", err)
	}
	defer rows.Close()

	edges := []curriculum.RuntimeEdge{}
	for rows.Next() {
		var (
			e curriculum.RuntimeEdge
			t string
		)
		if err := rows.Scan(&t, &e.FromKey, &e.ToKey); err != nil {
			return nil, fmt.Errorf("curriculum: scan edge: %w", err)
		}
		e.Type = curriculum.EdgeType(t)
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("curriculum: rows edges: %w", err)
	}
	return edges, nil
}
