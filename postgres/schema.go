package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS flow_workflows (
    id         TEXT PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS flow_nodes (
    workflow_id TEXT NOT NULL REFERENCES flow_workflows(id) ON DELETE CASCADE,
    id          TEXT NOT NULL,
    ord         INTEGER NOT NULL,
    type        TEXT NOT NULL,
    position_x  DOUBLE PRECISION NOT NULL DEFAULT 0,
    position_y  DOUBLE PRECISION NOT NULL DEFAULT 0,
    data        JSONB NOT NULL DEFAULT '{}',
    PRIMARY KEY (workflow_id, id)
);

CREATE TABLE IF NOT EXISTS flow_edges (
    workflow_id   TEXT NOT NULL,
    ord           INTEGER NOT NULL,
    id            TEXT NOT NULL,
    source_id     TEXT NOT NULL,
    target_id     TEXT NOT NULL,
    source_handle TEXT NOT NULL DEFAULT '',
    target_handle TEXT NOT NULL DEFAULT '',
    label         TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (workflow_id, ord),
    FOREIGN KEY (workflow_id, source_id) REFERENCES flow_nodes(workflow_id, id) ON DELETE CASCADE,
    FOREIGN KEY (workflow_id, target_id) REFERENCES flow_nodes(workflow_id, id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_flow_edges_source ON flow_edges(workflow_id, source_id);
CREATE INDEX IF NOT EXISTS idx_flow_edges_target ON flow_edges(workflow_id, target_id);
`

// CreateSchema creates the workflow, node and edge tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the workflow tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS flow_edges, flow_nodes, flow_workflows CASCADE;`)
	return err
}
