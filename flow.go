package flow

// Graph is the in-memory workflow graph edited on the canvas.
// It is a value type: mutation methods return a new Graph and never modify the receiver.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is a typed step placed on the canvas.
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// Position is a canvas coordinate. It has no meaning beyond layout.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the editable record of a node. It is always replaced as a whole.
// Name is the document alias of Label and is kept equal to it.
type NodeData struct {
	Label     string         `json:"label"`
	Name      string         `json:"name"`
	ClassName string         `json:"className"`
	NodeType  int            `json:"nodeType"`
	Actions   []Action       `json:"actions"`
	Metadata  map[string]any `json:"metadata"`
}

// Action is a labelled formula attached to a node.
type Action struct {
	Label   string `json:"label"`
	Formula string `json:"formula"`
}

// Edge is a directed connection between two node handles.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
	Label        string `json:"label,omitempty"`
}

const (
	DefaultClassName = "actionNode"
	DefaultNodeType  = 1

	DefaultSourceHandle = "source"
	DefaultTargetHandle = "target"
)

// Node returns the node with the given id.
func (g Graph) Node(id string) (Node, bool) {
	if i := g.indexOf(id); i >= 0 {
		return g.Nodes[i], true
	}
	return Node{}, false
}

// Has reports whether a node with the given id exists.
func (g Graph) Has(id string) bool {
	return g.indexOf(id) >= 0
}

// Incoming returns the edges whose target is id.
func (g Graph) Incoming(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Target == id {
			out = append(out, e)
		}
	}
	return out
}

// Outgoing returns the edges whose source is id.
func (g Graph) Outgoing(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// Next returns the target of the first edge leaving id through handle.
func (g Graph) Next(id, handle string) (string, bool) {
	for _, e := range g.Edges {
		if e.Source == id && e.SourceHandle == handle {
			return e.Target, true
		}
	}
	return "", false
}

// Clone returns a deep copy of the graph.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		n.Data = n.Data.Clone()
		out.Nodes[i] = n
	}
	copy(out.Edges, g.Edges)
	return out
}

// Clone returns a copy of d that shares no slices or maps with it, including
// JSON objects and arrays nested in Metadata.
func (d NodeData) Clone() NodeData {
	out := d
	out.Actions = make([]Action, len(d.Actions))
	copy(out.Actions, d.Actions)
	out.Metadata = cloneMap(d.Metadata)
	return out
}

// cloneMap copies m and every nested JSON object or array inside it.
func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

func (g Graph) indexOf(id string) int {
	for i, n := range g.Nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}
