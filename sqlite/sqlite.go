// Package sqlite implements flow.Store on SQLite through database/sql.
//
// The caller opens the *sql.DB with a SQLite driver, for example:
//
//	import _ "modernc.org/sqlite"
//
//	db, err := sql.Open("sqlite", "file:flow.db?_pragma=foreign_keys(1)")
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/meikuraledutech/flow"
)

// Store implements flow.Store on SQLite.
type Store struct {
	db *sql.DB
}

var _ flow.Store = (*Store)(nil)

// New wraps db. Open it with the "sqlite" driver from modernc.org/sqlite.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS flow_workflows (
	id         TEXT PRIMARY KEY,
	updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS flow_nodes (
	workflow_id TEXT NOT NULL REFERENCES flow_workflows(id) ON DELETE CASCADE,
	id          TEXT NOT NULL,
	ord         INTEGER NOT NULL,
	type        TEXT NOT NULL,
	position_x  REAL NOT NULL DEFAULT 0,
	position_y  REAL NOT NULL DEFAULT 0,
	data        TEXT NOT NULL DEFAULT '{}',
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
	PRIMARY KEY (workflow_id, ord)
);
`

// CreateSchema creates the workflow tables if they don't exist.
func (s *Store) CreateSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}

// DropSchema drops the workflow tables.
func (s *Store) DropSchema(ctx context.Context) error {
	for _, table := range []string{"flow_edges", "flow_nodes", "flow_workflows"} {
		if _, err := s.db.ExecContext(ctx, `DROP TABLE IF EXISTS `+table); err != nil {
			return err
		}
	}
	return nil
}

// SaveWorkflow replaces the nodes and edges stored under id in one transaction.
func (s *Store) SaveWorkflow(ctx context.Context, id string, g flow.Graph) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("flow: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO flow_workflows (id) VALUES (?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = CURRENT_TIMESTAMP`, id,
	); err != nil {
		return fmt.Errorf("flow: upsert workflow: %w", err)
	}
	if err := deleteGraph(ctx, tx, id); err != nil {
		return err
	}

	for i, n := range g.Nodes {
		data, err := json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("flow: encode node %s: %w", n.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO flow_nodes (workflow_id, id, ord, type, position_x, position_y, data)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, n.ID, i, n.Type, n.Position.X, n.Position.Y, string(data),
		); err != nil {
			return fmt.Errorf("flow: insert node %s: %w", n.ID, err)
		}
	}
	for i, e := range g.Edges {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO flow_edges (workflow_id, ord, id, source_id, target_id, source_handle, target_handle, label)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, i, e.ID, e.Source, e.Target, e.SourceHandle, e.TargetHandle, e.Label,
		); err != nil {
			return fmt.Errorf("flow: insert edge %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("flow: commit: %w", err)
	}
	return nil
}

// GetWorkflow loads the graph saved under id in save order.
// Returns nil, nil if not found.
func (s *Store) GetWorkflow(ctx context.Context, id string) (*flow.Graph, error) {
	var found string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM flow_workflows WHERE id = ?`, id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("flow: get workflow: %w", err)
	}

	g := &flow.Graph{Nodes: []flow.Node{}, Edges: []flow.Edge{}}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, position_x, position_y, data FROM flow_nodes WHERE workflow_id = ? ORDER BY ord`, id)
	if err != nil {
		return nil, fmt.Errorf("flow: list nodes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			n    flow.Node
			data string
		)
		if err := rows.Scan(&n.ID, &n.Type, &n.Position.X, &n.Position.Y, &data); err != nil {
			return nil, fmt.Errorf("flow: scan node: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &n.Data); err != nil {
			return nil, fmt.Errorf("flow: decode node %s: %w", n.ID, err)
		}
		g.Nodes = append(g.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flow: rows nodes: %w", err)
	}

	edgeRows, err := s.db.QueryContext(ctx,
		`SELECT id, source_id, target_id, source_handle, target_handle, label
		 FROM flow_edges WHERE workflow_id = ? ORDER BY ord`, id)
	if err != nil {
		return nil, fmt.Errorf("flow: list edges: %w", err)
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var e flow.Edge
		if err := edgeRows.Scan(&e.ID, &e.Source, &e.Target, &e.SourceHandle, &e.TargetHandle, &e.Label); err != nil {
			return nil, fmt.Errorf("flow: scan edge: %w", err)
		}
		g.Edges = append(g.Edges, e)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, fmt.Errorf("flow: rows edges: %w", err)
	}

	return g, nil
}

// DeleteWorkflow removes id and its nodes and edges.
// No error if it doesn't exist.
func (s *Store) DeleteWorkflow(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("flow: begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := deleteGraph(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM flow_workflows WHERE id = ?`, id); err != nil {
		return fmt.Errorf("flow: delete workflow: %w", err)
	}
	return tx.Commit()
}

// ListWorkflows returns the saved ids in sorted order.
func (s *Store) ListWorkflows(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM flow_workflows ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("flow: list workflows: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("flow: scan workflow: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// deleteGraph removes nodes and edges explicitly; foreign keys may be disabled on the connection.
func deleteGraph(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM flow_edges WHERE workflow_id = ?`, id); err != nil {
		return fmt.Errorf("flow: delete edges: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM flow_nodes WHERE workflow_id = ?`, id); err != nil {
		return fmt.Errorf("flow: delete nodes: %w", err)
	}
	return nil
}
