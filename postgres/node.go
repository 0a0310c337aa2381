package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meikuraledutech/flow"
)

// insertNodes writes nodes in slice order; ord keeps that order on load.
func insertNodes(ctx context.Context, q querier, workflowID string, nodes []flow.Node) error {
	for i, n := range nodes {
		data, err := json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("flow: encode node %s: %w", n.ID, err)
		}
		if _, err := q.Exec(ctx,
			`INSERT INTO flow_nodes (workflow_id, id, ord, type, position_x, position_y, data)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			workflowID, n.ID, i, n.Type, n.Position.X, n.Position.Y, data,
		); err != nil {
			return fmt.Errorf("flow: insert node %s: %w", n.ID, err)
		}
	}
	return nil
}

// listNodes returns the nodes of a workflow in save order.
// Returns an empty slice (not nil) if none found.
func listNodes(ctx context.Context, q querier, workflowID string) ([]flow.Node, error) {
	rows, err := q.Query(ctx,
		`SELECT id, type, position_x, position_y, data FROM flow_nodes WHERE workflow_id = $1 ORDER BY ord`,
		workflowID)
	if err != nil {
		return nil, fmt.Errorf("flow: list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []flow.Node{}
	for rows.Next() {
		var (
			n    flow.Node
			data []byte
		)
		if err := rows.Scan(&n.ID, &n.Type, &n.Position.X, &n.Position.Y, &data); err != nil {
			return nil, fmt.Errorf("flow: scan node: %w", err)
		}
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, fmt.Errorf("flow: decode node %s: %w", n.ID, err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("flow: rows nodes: %w", err)
	}

	return nodes, nil
}
