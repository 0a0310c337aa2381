package postgres

import (
	"context"
	"fmt"

	"github.com/meikuraledutech/flow"
)

// insertEdges writes edges in slice order. Duplicate edges are stored as-is.
func insertEdges(ctx context.Context, q querier, workflowID string, edges []flow.Edge) error {
	for i, e := range edges {
		if _, err := q.Exec(ctx,
			`INSERT INTO flow_edges (workflow_id, ord, id, source_id, target_id, source_handle, target_handle, label)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			workflowID, i, e.ID, e.Source, e.Target, e.SourceHandle, e.TargetHandle, e.Label,
		); err != nil {
			return fmt.Errorf("flow: insert edge %s: %w", e.ID, err)
		}
	}
	return nil
}

// listEdges returns the edges of a workflow in save order.
// Returns an empty slice (not nil) if none found.
func listEdges(ctx context.Context, q querier, workflowID string) ([]flow.Edge, error) {
	rows, err := q.Query(ctx,
		`SELECT id, source_id, target_id, source_handle, target_handle, label
		 FROM flow_edges WHERE workflow_id = $1 ORDER BY ord`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("flow: list edges: %w", err)
	}
	defer rows.Close()

	edges := []flow.Edge{}
	for rows.Next() {
		var e flow.Edge
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &e.SourceHandle, &e.TargetHandle, &e.Label); err != nil {
			return nil, fmt.Errorf("flow: scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flow: rows edges: %w", err)
	}

	return edges, nil
}
