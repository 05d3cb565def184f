package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meikuraledutech/curriculum"
)

// InsertNodes writes all runtime nodes of a version in one transaction.
func (s *PGStore) InsertNodes(ctx context.Context, versionID string, nodes []curriculum.RuntimeNode) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("curriculum: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for i, n := range nodes {
		data, err := json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("curriculum: encode node %s: %w", n.Key, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO curriculum_nodes (version_id, key, kind, title, description, data, position)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			versionID, n.Key, string(n.Kind), n.Title, n.Description, data, i,
		); err != nil {
			return fmt.Errorf("curriculum: insert node %s: %w", n.Key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("curriculum: commit nodes: %w", err)
	}
	return nil
}

// DeleteNodes removes every node of a version.
// No error if there are none.
func (s *PGStore) DeleteNodes(ctx context.Context, versionID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM curriculum_nodes WHERE version_id = $1`, versionID); err != nil {
		return fmt.Errorf("curriculum: delete nodes: %w", err)
	}
	return nil
}

// ListNodes returns the nodes of a version in publish order.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListNodes(ctx context.Context, versionID string) ([]curriculum.RuntimeNode, error) {
	rows, err := s.db.Query(ctx,
		`SELECT kind, key, title, description, data FROM curriculum_nodes WHERE version_id = $1 ORDER BY position`,
		versionID)
	if err != nil {
		return nil, fmt.Errorf("curriculum: list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []curriculum.RuntimeNode{}
	for rows.Next() {
		var (
			n    curriculum.RuntimeNode
			kind string
			data []byte
		)
		if err := rows.Scan(&kind, &n.Key, &n.Title, &n.Description, &data); err != nil {
			return nil, fmt.Errorf("curriculum: scan node: %w", err)
		}
		n.Kind = curriculum.Kind(kind)
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, fmt.Errorf("curriculum: decode node %s: %w", n.Key, err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("curriculum: rows nodes: %w", err)
	}
	return nodes, nil
}
