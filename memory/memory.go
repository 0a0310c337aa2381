// Package memory implements flow.Store in process memory.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/meikuraledutech/flow"
)

// Store is a goroutine-safe flow.Store backed by a map.
type Store struct {
	mu        sync.RWMutex
	workflows map[string]flow.Graph
}

var _ flow.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{workflows: make(map[string]flow.Graph)}
}

// CreateSchema is a no-op; the map needs no setup.
func (s *Store) CreateSchema(ctx context.Context) error { return nil }

// DropSchema forgets every stored workflow.
func (s *Store) DropSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows = make(map[string]flow.Graph)
	return nil
}

// SaveWorkflow stores a copy of g under id, replacing any previous graph.
func (s *Store) SaveWorkflow(ctx context.Context, id string, g flow.Graph) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows[id] = g.Clone()
	return nil
}

// GetWorkflow returns a copy of the graph saved under id.
// Returns nil, nil if not found.
func (s *Store) GetWorkflow(ctx context.Context, id string) (*flow.Graph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.workflows[id]
	if !ok {
		return nil, nil
	}
	out := g.Clone()
	return &out, nil
}

// DeleteWorkflow removes id. No error if it doesn't exist.
func (s *Store) DeleteWorkflow(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.workflows, id)
	return nil
}

// ListWorkflows returns the saved ids in sorted order.
func (s *Store) ListWorkflows(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.workflows))
	for id := range s.workflows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
