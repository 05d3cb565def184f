package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS curriculum_versions (
    id              TEXT PRIMARY KEY,
    source_graph_id TEXT NOT NULL,
    version_number  INTEGER NOT NULL,
    title           TEXT NOT NULL DEFAULT '',
    status          TEXT NOT NULL DEFAULT 'draft',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    published_at    TIMESTAMPTZ,
    UNIQUE (source_graph_id, version_number)
);

CREATE TABLE IF NOT EXISTS curriculum_nodes (
    version_id  TEXT NOT NULL REFERENCES curriculum_versions(id),
    key         TEXT NOT NULL,
    kind        TEXT NOT NULL,
    title       TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    data        JSONB NOT NULL DEFAULT '{}',
    position    INTEGER NOT NULL,
    PRIMARY KEY (version_id, key)
);

CREATE TABLE IF NOT EXISTS curriculum_edges (
    version_id TEXT NOT NULL REFERENCES curriculum_versions(id),
    from_key   TEXT NOT NULL,
    to_key     TEXT NOT NULL,
    edge_type  TEXT NOT NULL,
    position   INTEGER NOT NULL,
    PRIMARY KEY (version_id, from_key, to_key, edge_type)
);

CREATE TABLE IF NOT EXISTS curriculum_exports (
    version_id TEXT PRIMARY KEY REFERENCES curriculum_versions(id),
    snapshot   JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS curriculum_orphaned_versions (
    version_id  TEXT PRIMARY KEY,
    reason      TEXT NOT NULL DEFAULT '',
    recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_curriculum_versions_graph  ON curriculum_versions(source_graph_id, version_number DESC);
CREATE INDEX IF NOT EXISTS idx_curriculum_versions_status ON curriculum_versions(status, created_at);
CREATE INDEX IF NOT EXISTS idx_curriculum_edges_from      ON curriculum_edges(version_id, from_key);
CREATE INDEX IF NOT EXISTS idx_curriculum_edges_to        ON curriculum_edges(version_id, to_key);
`

// CreateSchema creates the version, node, edge, export and orphan tables if
// they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops every curriculum table.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS curriculum_exports, curriculum_edges, curriculum_nodes, curriculum_versions, curriculum_orphaned_versions CASCADE;`)
	return err
}
