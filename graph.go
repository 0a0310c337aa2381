package flow

import (
	"fmt"

	"github.com/google/uuid"
)

// CreateNode places a node of type t at pos.
// An empty type is a drop without payload and leaves the graph unchanged.
func (g Graph) CreateNode(t string, pos Position) (Graph, Node, bool) {
	if t == "" {
		return g, Node{}, false
	}
	title := Title(t)
	n := Node{
		ID:       g.nextNodeID(),
		Type:     t,
		Position: pos,
		Data: NodeData{
			Label:     title,
			Name:      title,
			ClassName: DefaultClassName,
			NodeType:  DefaultNodeType,
			Actions:   []Action{},
			Metadata:  map[string]any{},
		},
	}
	out := g.Clone()
	out.Nodes = append(out.Nodes, n)
	return out, n, true
}

// UpdateNode replaces the data record of node id.
// Label wins over Name: Name is always rewritten to Label, and an empty Label is taken from Name.
func (g Graph) UpdateNode(id string, data NodeData) (Graph, bool) {
	i := g.indexOf(id)
	if i < 0 {
		return g, false
	}
	data = data.Clone()
	if data.Label == "" {
		data.Label = data.Name
	}
	data.Name = data.Label

	out := g.Clone()
	out.Nodes[i].Data = data
	return out, true
}

// MoveNode sets the canvas position of node id.
func (g Graph) MoveNode(id string, pos Position) (Graph, bool) {
	i := g.indexOf(id)
	if i < 0 {
		return g, false
	}
	out := g.Clone()
	out.Nodes[i].Position = pos
	return out, true
}

// DeleteNode removes node id together with every edge touching it.
func (g Graph) DeleteNode(id string) (Graph, bool) {
	if g.indexOf(id) < 0 {
		return g, false
	}
	out := Graph{
		Nodes: make([]Node, 0, len(g.Nodes)-1),
		Edges: make([]Edge, 0, len(g.Edges)),
	}
	for _, n := range g.Nodes {
		if n.ID != id {
			n.Data = n.Data.Clone()
			out.Nodes = append(out.Nodes, n)
		}
	}
	for _, e := range g.Edges {
		if e.Source != id && e.Target != id {
			out.Edges = append(out.Edges, e)
		}
	}
	return out, true
}

// Connect appends an edge from source to target. Empty handles fall back to the
// default source/target handles. Cycles and duplicate edges are allowed; an edge
// to or from a missing node is not.
func (g Graph) Connect(source, target, sourceHandle, targetHandle string) (Graph, Edge, bool) {
	if !g.Has(source) || !g.Has(target) {
		return g, Edge{}, false
	}
	if sourceHandle == "" {
		sourceHandle = DefaultSourceHandle
	}
	if targetHandle == "" {
		targetHandle = DefaultTargetHandle
	}
	e := Edge{
		ID:           uuid.NewString(),
		Source:       source,
		Target:       target,
		SourceHandle: sourceHandle,
		TargetHandle: targetHandle,
	}
	out := g.Clone()
	out.Edges = append(out.Edges, e)
	return out, e, true
}

// DeleteEdge removes the edge with the given id.
func (g Graph) DeleteEdge(id string) (Graph, bool) {
	for i, e := range g.Edges {
		if e.ID != id {
			continue
		}
		out := g.Clone()
		out.Edges = append(out.Edges[:i], out.Edges[i+1:]...)
		return out, true
	}
	return g, false
}

// Clear returns an empty graph.
func (g Graph) Clear() Graph {
	return Graph{Nodes: []Node{}, Edges: []Edge{}}
}

// nextNodeID returns n<len+1>, stepping past ids that are already taken.
func (g Graph) nextNodeID() string {
	for k := len(g.Nodes) + 1; ; k++ {
		id := fmt.Sprintf("n%d", k)
		if !g.Has(id) {
			return id
		}
	}
}
