package flow

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_SingleKafkaNode(t *testing.T) {
	g, n := mustCreate(t, Graph{}, "kafka", 100, 50)

	raw, err := Encode(g)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, n.ID, doc["startNodeId"])

	nodes := doc["flowChart"].(map[string]any)["nodes"].([]any)
	require.Len(t, nodes, 1)
	node := nodes[0].(map[string]any)
	assert.Equal(t, "kafka", node["nType"])
	assert.Equal(t, float64(100), node["positionX"])
	assert.Equal(t, float64(50), node["positionY"])
	assert.Equal(t, []any{}, node["actions"])
	assert.Equal(t, map[string]any{}, node["metadata"])
	assert.Equal(t, "actionNode", node["className"])
	assert.Equal(t, float64(1), node["nodeType"])

	vars := doc["variables"].(map[string]any)["nodes"].([]any)
	require.Len(t, vars, 1)
	assert.Equal(t, map[string]any{
		"className": "actionNode",
		"label":     "Kafka",
		"type":      "1",
		"nType":     "kafka",
	}, vars[0])

	assert.Equal(t, []any{}, doc["flowChart"].(map[string]any)["connections"])
}

func TestExport_StartNode(t *testing.T) {
	assert.Equal(t, PlaceholderStartID, Export(Graph{}).StartNodeID)

	g := Graph{}
	g, a := mustCreate(t, g, "actor", 0, 0)
	g, b := mustCreate(t, g, "actor", 0, 0)
	g = mustConnect(t, g, b.ID, a.ID, "", "")
	assert.Equal(t, b.ID, Export(g).StartNodeID)

	// Every node has an incoming edge: fall back to the first node.
	g = mustConnect(t, g, a.ID, b.ID, "", "")
	assert.Equal(t, a.ID, Export(g).StartNodeID)
}

func TestExport_Defaults(t *testing.T) {
	g := Graph{
		Nodes: []Node{{ID: "x", Type: "set", Position: Position{X: 2.5, Y: -2.5}, Data: NodeData{Label: "Only label"}}},
		Edges: []Edge{
			{ID: "e1", Source: "x", Target: "x", SourceHandle: DefaultSourceHandle, TargetHandle: DefaultTargetHandle},
			{ID: "dangling", Source: "x", Target: "gone"},
		},
	}

	doc := Export(g)
	dn := doc.FlowChart.Nodes[0]
	assert.Equal(t, "Only label", dn.Name)
	assert.Equal(t, DefaultClassName, dn.ClassName)
	assert.Equal(t, DefaultNodeType, dn.NodeType)
	assert.Equal(t, float64(3), dn.PositionX)
	assert.Equal(t, float64(-2), dn.PositionY)
	assert.NotNil(t, dn.Actions)
	assert.NotNil(t, dn.Metadata)

	require.Len(t, doc.FlowChart.Connections, 1)
	c := doc.FlowChart.Connections[0]
	assert.Equal(t, "", c.Label)
	assert.Empty(t, c.SourceHandle)
	assert.Empty(t, c.TargetHandle)
}

func TestRoundTrip(t *testing.T) {
	g := Graph{}
	g, a := mustCreate(t, g, "gateway", 10.2, 20.7)
	g, b := mustCreate(t, g, "validator", 200, 40)
	g, c := mustCreate(t, g, "error", 400, 0)
	g, d := mustCreate(t, g, "region", 400, 100)

	data := a.Data
	data.Label = "Ingress"
	data.Actions = []Action{{Label: "route", Formula: "metadata.path"}}
	data.Metadata = map[string]any{"path": "/users", "weights": []any{1.0, 2.0}}
	g, _ = g.UpdateNode(a.ID, data)

	g = mustConnect(t, g, a.ID, b.ID, "", "")
	g = mustConnect(t, g, b.ID, c.ID, "error", "in")
	g = mustConnect(t, g, b.ID, d.ID, "success", "in")
	g = mustConnect(t, g, b.ID, d.ID, "success", "in")

	raw, err := Encode(g)
	require.NoError(t, err)
	back, err := Import(raw)
	require.NoError(t, err)

	require.Len(t, back.Nodes, len(g.Nodes))
	for i, want := range g.Nodes {
		got := back.Nodes[i]
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Type, got.Type)
		assert.Equal(t, round(want.Position.X), got.Position.X)
		assert.Equal(t, round(want.Position.Y), got.Position.Y)
		assert.Equal(t, want.Data, got.Data)
	}
	assert.Equal(t, g.Edges, back.Edges, "duplicates and handles survive")
}

func TestImport_Tolerant(t *testing.T) {
	g, err := Import([]byte(`{
		"flowChart": {
			"nodes": [
				{"nodeId": "a", "name": "Gate", "nType": "gateway", "positionX": 1, "positionY": 2},
				{"nodeId": "b", "name": "Act", "nType": "actor", "className": "custom", "nodeType": 2,
				 "actions": [{"label": "l", "formula": "f"}], "metadata": {"reply": "true"}}
			],
			"connections": [
				{"connectionId": "c1", "pageSourceId": "a", "pageTargetId": "b", "label": "go"},
				{"connectionId": "c2", "pageSourceId": "a", "pageTargetId": "missing"}
			]
		}
	}`))
	require.NoError(t, err)

	require.Len(t, g.Nodes, 2)
	a := g.Nodes[0]
	assert.Equal(t, "Gate", a.Data.Label)
	assert.Equal(t, "Gate", a.Data.Name)
	assert.Equal(t, []Action{}, a.Data.Actions)
	assert.Equal(t, map[string]any{}, a.Data.Metadata)
	assert.Equal(t, Position{X: 1, Y: 2}, a.Position)

	b := g.Nodes[1]
	assert.Equal(t, "custom", b.Data.ClassName)
	assert.Equal(t, 2, b.Data.NodeType)
	assert.Equal(t, "true", b.Data.Metadata["reply"])

	require.Len(t, g.Edges, 1)
	assert.Equal(t, Edge{
		ID: "c1", Source: "a", Target: "b",
		SourceHandle: DefaultSourceHandle, TargetHandle: DefaultTargetHandle,
		Label: "go",
	}, g.Edges[0])
}

func TestImport_Invalid(t *testing.T) {
	tests := map[string]string{
		"malformed":      `{"flowChart": `,
		"missing chart":  `{"startNodeId": "n1"}`,
		"null chart":     `{"flowChart": null}`,
		"missing nodeId": `{"flowChart": {"nodes": [{"name": "x"}]}}`,
		"duplicate id":   `{"flowChart": {"nodes": [{"nodeId": "a"}, {"nodeId": "a"}]}}`,
		"wrong type":     `{"flowChart": {"nodes": "nope"}}`,
		"missing nodes":  `{"flowChart": {}}`,
		"null nodes":     `{"flowChart": {"nodes": null}}`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Import([]byte(input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidDocument)

			var derr *InvalidDocumentError
			require.True(t, errors.As(err, &derr))
			assert.NotEmpty(t, derr.Msg)
		})
	}
}

func TestImport_EmptyChart(t *testing.T) {
	g, err := Import([]byte(`{"flowChart": {"nodes": []}}`))
	require.NoError(t, err)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Edges)

	// An exported empty graph imports again.
	raw, err := Encode(Graph{})
	require.NoError(t, err)
	_, err = Import(raw)
	require.NoError(t, err)
}

func TestExport_EmptyHandlesAreDefaults(t *testing.T) {
	g := Graph{
		Nodes: []Node{{ID: "a", Type: "kafka"}, {ID: "b", Type: "actor"}},
		Edges: []Edge{{ID: "e1", Source: "a", Target: "b"}},
	}
	normalized := g.Clone()
	normalized.Edges[0].SourceHandle = DefaultSourceHandle
	normalized.Edges[0].TargetHandle = DefaultTargetHandle

	assert.Equal(t, Export(normalized), Export(g))

	raw, err := Encode(g)
	require.NoError(t, err)
	back, err := Import(raw)
	require.NoError(t, err)
	assert.Equal(t, normalized.Edges, back.Edges)
}

func TestExport_DoesNotShareMetadata(t *testing.T) {
	g := Graph{Nodes: []Node{{ID: "a", Type: "http", Data: NodeData{
		Metadata: map[string]any{"headers": map[string]any{"a": "1"}},
	}}}}

	doc := Export(g)
	doc.FlowChart.Nodes[0].Metadata["headers"].(map[string]any)["a"] = "changed"

	assert.Equal(t, "1", g.Nodes[0].Data.Metadata["headers"].(map[string]any)["a"])
}
