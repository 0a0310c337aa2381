package flow

import (
	"sync"

	"go.uber.org/zap"
)

// Editor is the callback surface the presentation layer drives.
type Editor interface {
	OnDrop(nodeType string, pos Position) (Node, bool)
	OnChange(nodeID string, data NodeData)
	OnDelete(nodeID string)
	OnConnect(source, target, sourceHandle, targetHandle string) (Edge, bool)
}

// CommandKind names a node command sent by the editor.
type CommandKind string

const (
	CommandUpdate CommandKind = "update"
	CommandDelete CommandKind = "delete"
)

// Command is what a rendered node sends instead of holding callbacks into the core.
type Command struct {
	Kind    CommandKind `json:"kind" validate:"required,oneof=update delete"`
	NodeID  string      `json:"nodeId" validate:"required"`
	Payload *NodeData   `json:"payload,omitempty"`
}

// Canvas holds the live graph of one editing session.
// Every operation builds the next graph and swaps it in under the lock.
type Canvas struct {
	mu     sync.RWMutex
	graph  Graph
	logger *zap.Logger
}

var _ Editor = (*Canvas)(nil)

// NewCanvas returns a canvas holding g.
func NewCanvas(g Graph, logger *zap.Logger) *Canvas {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Canvas{graph: g.Clone(), logger: logger}
}

// Snapshot returns a copy of the current graph.
func (c *Canvas) Snapshot() Graph {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.graph.Clone()
}

// OnDrop creates a node of nodeType at pos. An empty type is ignored and reports false.
func (c *Canvas) OnDrop(nodeType string, pos Position) (Node, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, n, ok := c.graph.CreateNode(nodeType, pos)
	if !ok {
		c.logger.Debug("drop without node type ignored")
		return Node{}, false
	}
	c.graph = g
	c.logger.Debug("node created", zap.String("node_id", n.ID), zap.String("type", n.Type))
	return n, true
}

// OnChange replaces the data record of a node.
func (c *Canvas) OnChange(nodeID string, data NodeData) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.graph.UpdateNode(nodeID, data)
	if !ok {
		c.unknown("update", nodeID)
		return
	}
	c.graph = g
}

// OnDelete removes a node and every edge touching it.
func (c *Canvas) OnDelete(nodeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.graph.DeleteNode(nodeID)
	if !ok {
		c.unknown("delete", nodeID)
		return
	}
	c.graph = g
	c.logger.Debug("node deleted", zap.String("node_id", nodeID))
}

// OnConnect adds an edge. It reports false when either endpoint is missing.
func (c *Canvas) OnConnect(source, target, sourceHandle, targetHandle string) (Edge, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, e, ok := c.graph.Connect(source, target, sourceHandle, targetHandle)
	if !ok {
		c.logger.Debug("connect ignored",
			zap.String("source", source),
			zap.String("target", target),
			zap.Error(ErrUnknownNode),
		)
		return Edge{}, false
	}
	c.graph = g
	return e, true
}

// Move sets the position of a node.
func (c *Canvas) Move(nodeID string, pos Position) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.graph.MoveNode(nodeID, pos)
	if !ok {
		c.unknown("move", nodeID)
		return
	}
	c.graph = g
}

// Disconnect removes an edge. Unknown ids are ignored.
func (c *Canvas) Disconnect(edgeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if g, ok := c.graph.DeleteEdge(edgeID); ok {
		c.graph = g
	}
}

// Dispatch applies a node command.
func (c *Canvas) Dispatch(cmd Command) {
	switch cmd.Kind {
	case CommandUpdate:
		if cmd.Payload == nil {
			c.logger.Debug("update command without payload ignored", zap.String("node_id", cmd.NodeID))
			return
		}
		c.OnChange(cmd.NodeID, *cmd.Payload)
	case CommandDelete:
		c.OnDelete(cmd.NodeID)
	default:
		c.logger.Warn("unknown command ignored", zap.String("kind", string(cmd.Kind)))
	}
}

// Clear empties the canvas.
func (c *Canvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.graph = c.graph.Clear()
}

// Replace swaps in g as the live graph.
func (c *Canvas) Replace(g Graph) {
	g = g.Clone()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.graph = g
}

// Import loads a workflow document. The document is fully decoded before the
// live graph is replaced, so a failed import leaves the canvas untouched.
func (c *Canvas) Import(data []byte) error {
	g, err := Import(data)
	if err != nil {
		c.logger.Info("workflow import rejected", zap.Error(err))
		return err
	}
	c.Replace(g)
	c.logger.Info("workflow imported",
		zap.Int("nodes", len(g.Nodes)),
		zap.Int("edges", len(g.Edges)),
	)
	return nil
}

// Export returns the workflow document of the current graph.
func (c *Canvas) Export() Document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Export(c.graph)
}

func (c *Canvas) unknown(op, nodeID string) {
	c.logger.Debug(op+" ignored", zap.String("node_id", nodeID), zap.Error(ErrUnknownNode))
}
