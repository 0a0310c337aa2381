package flow

import (
	"context"
	"errors"
)

var ErrWorkflowNotFound = errors.New("flow: workflow not found")

// Store persists named graph snapshots of the single workspace.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// SaveWorkflow replaces everything stored under id with g.
	SaveWorkflow(ctx context.Context, id string, g Graph) error
	// GetWorkflow returns nil, nil when nothing is stored under id.
	GetWorkflow(ctx context.Context, id string) (*Graph, error)
	// DeleteWorkflow is a no-op for unknown ids.
	DeleteWorkflow(ctx context.Context, id string) error
	ListWorkflows(ctx context.Context) ([]string, error)
}
