package flow

import (
	"encoding/json"
	"fmt"
	"math"
)

// PlaceholderStartID is exported as startNodeId when the graph has no nodes.
const PlaceholderStartID = "n1"

// Document is the portable workflow document consumed by the execution backend.
// Its field names are an external contract and intentionally differ from Graph.
type Document struct {
	StartNodeID string     `json:"startNodeId"`
	Variables   Variables  `json:"variables"`
	FlowChart   *FlowChart `json:"flowChart"`
}

// Variables carries a type/label summary of every node.
type Variables struct {
	Nodes []VariableNode `json:"nodes"`
}

// VariableNode summarizes one node for the variables section.
type VariableNode struct {
	ClassName string `json:"className"`
	Label     string `json:"label"`
	Type      string `json:"type"`
	NType     string `json:"nType"`
}

// FlowChart holds the nodes and connections of a document.
type FlowChart struct {
	Nodes       []DocumentNode `json:"nodes"`
	Connections []Connection   `json:"connections"`
}

// DocumentNode is a node as persisted in a workflow document.
// Positions are written as integers but any JSON number is accepted on import.
type DocumentNode struct {
	NodeID    string         `json:"nodeId"`
	Name      string         `json:"name"`
	NType     string         `json:"nType"`
	ClassName string         `json:"className"`
	NodeType  int            `json:"nodeType"`
	PositionX float64        `json:"positionX"`
	PositionY float64        `json:"positionY"`
	Actions   []Action       `json:"actions"`
	Metadata  map[string]any `json:"metadata"`
}

// Connection is an edge as persisted in a workflow document.
// Handles are only written when they differ from the defaults.
type Connection struct {
	ConnectionID string `json:"connectionId"`
	PageSourceID string `json:"pageSourceId"`
	PageTargetID string `json:"pageTargetId"`
	Label        string `json:"label"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Export maps g into a workflow document. Edges whose endpoints are missing are skipped.
// An empty edge handle is the default handle, so it is exported the same way.
// The document shares no maps or slices with g.
func Export(g Graph) Document {
	doc := Document{
		StartNodeID: startNode(g),
		Variables:   Variables{Nodes: make([]VariableNode, 0, len(g.Nodes))},
		FlowChart: &FlowChart{
			Nodes:       make([]DocumentNode, 0, len(g.Nodes)),
			Connections: make([]Connection, 0, len(g.Edges)),
		},
	}

	for _, n := range g.Nodes {
		n.Data = n.Data.Clone()
		className := n.Data.ClassName
		if className == "" {
			className = DefaultClassName
		}
		nodeType := n.Data.NodeType
		if nodeType == 0 {
			nodeType = DefaultNodeType
		}
		name := n.Data.Name
		if name == "" {
			name = n.Data.Label
		}

		doc.Variables.Nodes = append(doc.Variables.Nodes, VariableNode{
			ClassName: className,
			Label:     n.Data.Label,
			Type:      "1",
			NType:     n.Type,
		})
		doc.FlowChart.Nodes = append(doc.FlowChart.Nodes, DocumentNode{
			NodeID:    n.ID,
			Name:      name,
			NType:     n.Type,
			ClassName: className,
			NodeType:  nodeType,
			PositionX: round(n.Position.X),
			PositionY: round(n.Position.Y),
			Actions:   n.Data.Actions,
			Metadata:  n.Data.Metadata,
		})
	}

	for _, e := range g.Edges {
		if !g.Has(e.Source) || !g.Has(e.Target) {
			continue
		}
		c := Connection{
			ConnectionID: e.ID,
			PageSourceID: e.Source,
			PageTargetID: e.Target,
			Label:        e.Label,
		}
		if e.SourceHandle != "" && e.SourceHandle != DefaultSourceHandle {
			c.SourceHandle = e.SourceHandle
		}
		if e.TargetHandle != "" && e.TargetHandle != DefaultTargetHandle {
			c.TargetHandle = e.TargetHandle
		}
		doc.FlowChart.Connections = append(doc.FlowChart.Connections, c)
	}

	return doc
}

// Encode exports g as indented JSON.
func Encode(g Graph) ([]byte, error) {
	b, err := json.MarshalIndent(Export(g), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("flow: encode document: %w", err)
	}
	return b, nil
}

// Import parses a workflow document and builds the graph it describes.
// All failures are reported as *InvalidDocumentError.
func Import(data []byte) (Graph, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Graph{}, &InvalidDocumentError{Msg: err.Error(), Err: err}
	}
	return ImportDocument(doc)
}

// ImportDocument builds the graph described by doc.
// flowChart.nodes is required, an empty array is a valid empty workflow. Missing actions
// and metadata become empty, the label is taken from the name, a missing connections list
// means no edges, and connections that reference unknown nodes are dropped.
func ImportDocument(doc Document) (Graph, error) {
	if doc.FlowChart == nil {
		return Graph{}, &InvalidDocumentError{Field: "flowChart", Msg: "required field is missing"}
	}
	if doc.FlowChart.Nodes == nil {
		return Graph{}, &InvalidDocumentError{Field: "flowChart.nodes", Msg: "required field is missing"}
	}

	g := Graph{
		Nodes: make([]Node, 0, len(doc.FlowChart.Nodes)),
		Edges: make([]Edge, 0, len(doc.FlowChart.Connections)),
	}
	for i, dn := range doc.FlowChart.Nodes {
		if dn.NodeID == "" {
			return Graph{}, &InvalidDocumentError{
				Field: fmt.Sprintf("flowChart.nodes[%d].nodeId", i),
				Msg:   "required field is missing",
			}
		}
		if g.Has(dn.NodeID) {
			return Graph{}, &InvalidDocumentError{
				Field: fmt.Sprintf("flowChart.nodes[%d].nodeId", i),
				Msg:   fmt.Sprintf("duplicate node id %q", dn.NodeID),
			}
		}

		data := NodeData{
			Label:     dn.Name,
			Name:      dn.Name,
			ClassName: dn.ClassName,
			NodeType:  dn.NodeType,
			Actions:   dn.Actions,
			Metadata:  dn.Metadata,
		}
		data = data.Clone()
		g.Nodes = append(g.Nodes, Node{
			ID:       dn.NodeID,
			Type:     dn.NType,
			Position: Position{X: dn.PositionX, Y: dn.PositionY},
			Data:     data,
		})
	}

	for _, c := range doc.FlowChart.Connections {
		if !g.Has(c.PageSourceID) || !g.Has(c.PageTargetID) {
			continue
		}
		e := Edge{
			ID:           c.ConnectionID,
			Source:       c.PageSourceID,
			Target:       c.PageTargetID,
			SourceHandle: c.SourceHandle,
			TargetHandle: c.TargetHandle,
			Label:        c.Label,
		}
		if e.SourceHandle == "" {
			e.SourceHandle = DefaultSourceHandle
		}
		if e.TargetHandle == "" {
			e.TargetHandle = DefaultTargetHandle
		}
		g.Edges = append(g.Edges, e)
	}

	return g, nil
}

// startNode picks the first node without incoming edges, then the first node,
// then the placeholder id.
func startNode(g Graph) string {
	targets := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		targets[e.Target] = true
	}
	for _, n := range g.Nodes {
		if !targets[n.ID] {
			return n.ID
		}
	}
	if len(g.Nodes) > 0 {
		return g.Nodes[0].ID
	}
	return PlaceholderStartID
}

// round rounds half up, so -2.5 becomes -2.
func round(v float64) float64 {
	return math.Floor(v + 0.5)
}
