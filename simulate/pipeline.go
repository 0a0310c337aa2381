package simulate

import "github.com/meikuraledutech/flow"

// Stage node ids of the reference pipeline. Records are published under these ids.
const (
	StageRegistration = "start"
	StageValidation   = "validator"
	StageError        = "error"
	StageRegion       = "region"
	StageEmail        = "email"
)

// Ports used by the reference pipeline edges.
const (
	PortOut     = "out"
	PortIn      = "in"
	PortSuccess = "success"
	PortError   = "error"
)

func pipelineNode(id, label string, x, y float64) flow.Node {
	return flow.Node{
		ID:       id,
		Type:     id,
		Position: flow.Position{X: x, Y: y},
		Data: flow.NodeData{
			Label:     label,
			Name:      label,
			ClassName: flow.DefaultClassName,
			NodeType:  flow.DefaultNodeType,
			Actions:   []flow.Action{},
			Metadata:  map[string]any{},
		},
	}
}

// ReferencePipeline returns the registration workflow laid out for the canvas:
// start -> validator -> (error | region -> email).
func ReferencePipeline() flow.Graph {
	return flow.Graph{
		Nodes: []flow.Node{
			pipelineNode(StageRegistration, "User Registration", 10, 210),
			pipelineNode(StageValidation, "Validator", 260, 200),
			pipelineNode(StageError, "Error Handler", 540, 90),
			pipelineNode(StageRegion, "Region Process", 550, 320),
			pipelineNode(StageEmail, "Welcome Email", 800, 320),
		},
		Edges: []flow.Edge{
			{ID: "e1", Source: StageRegistration, SourceHandle: PortOut, Target: StageValidation, TargetHandle: PortIn},
			{ID: "e2", Source: StageValidation, SourceHandle: PortError, Target: StageError, TargetHandle: PortIn},
			{ID: "e3", Source: StageValidation, SourceHandle: PortSuccess, Target: StageRegion, TargetHandle: PortIn},
			{ID: "e4", Source: StageRegion, SourceHandle: PortOut, Target: StageEmail, TargetHandle: PortIn},
		},
	}
}
