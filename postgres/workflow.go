package postgres

import (
	"context"
	"fmt"

	"github.com/meikuraledutech/flow"
)

// SaveWorkflow stores g under id in one transaction, replacing any previous snapshot.
func (s *PGStore) SaveWorkflow(ctx context.Context, id string, g flow.Graph) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("flow: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO flow_workflows (id) VALUES ($1)
		 ON CONFLICT (id) DO UPDATE SET updated_at = NOW()`, id,
	); err != nil {
		return fmt.Errorf("flow: upsert workflow: %w", err)
	}

	// Replace semantics: drop the previous snapshot first.
	if _, err := tx.Exec(ctx, `DELETE FROM flow_edges WHERE workflow_id = $1`, id); err != nil {
		return fmt.Errorf("flow: delete edges: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM flow_nodes WHERE workflow_id = $1`, id); err != nil {
		return fmt.Errorf("flow: delete nodes: %w", err)
	}

	if err := insertNodes(ctx, tx, id, g.Nodes); err != nil {
		return err
	}
	if err := insertEdges(ctx, tx, id, g.Edges); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("flow: commit: %w", err)
	}
	return nil
}

// GetWorkflow loads the graph stored under id.
// Returns nil, nil if the workflow doesn't exist.
func (s *PGStore) GetWorkflow(ctx context.Context, id string) (*flow.Graph, error) {
	var found string
	err := s.db.QueryRow(ctx, `SELECT id FROM flow_workflows WHERE id = $1`, id).Scan(&found)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("flow: get workflow: %w", err)
	}

	nodes, err := listNodes(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	edges, err := listEdges(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return &flow.Graph{Nodes: nodes, Edges: edges}, nil
}

// DeleteWorkflow removes a workflow; nodes and edges cascade.
// No error if the workflow doesn't exist.
func (s *PGStore) DeleteWorkflow(ctx context.Context, id string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM flow_workflows WHERE id = $1`, id); err != nil {
		return fmt.Errorf("flow: delete workflow: %w", err)
	}
	return nil
}

// ListWorkflows returns the ids of all stored workflows, sorted.
func (s *PGStore) ListWorkflows(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM flow_workflows ORDER BY id`)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flow: rows workflows: %w", err)
	}
	return ids, nil
}
