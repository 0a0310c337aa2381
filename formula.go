package flow

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
)

// FormulaError points at an action whose formula does not compile.
type FormulaError struct {
	NodeID string `json:"nodeId"`
	Index  int    `json:"index"`
	Label  string `json:"label"`
	Msg    string `json:"message"`
}

func (e FormulaError) Error() string {
	return fmt.Sprintf("flow: node %s action %d: %s", e.NodeID, e.Index, e.Msg)
}

// CheckFormulas compiles every non-empty action formula on g.
// Variables are resolved at run time, so undefined names are not reported.
func CheckFormulas(g Graph) []FormulaError {
	var out []FormulaError
	for _, n := range g.Nodes {
		for i, a := range n.Data.Actions {
			if strings.TrimSpace(a.Formula) == "" {
				continue
			}
			if _, err := expr.Compile(a.Formula, expr.AllowUndefinedVariables()); err != nil {
				out = append(out, FormulaError{
					NodeID: n.ID,
					Index:  i,
					Label:  a.Label,
					Msg:    err.Error(),
				})
			}
		}
	}
	return out
}

// EvalActions runs the formulas of n against env. Results are keyed by action label,
// or by "action<i>" when the label is empty. Empty formulas are skipped.
// The node metadata is visible to formulas as "metadata".
func EvalActions(n Node, env map[string]any) (map[string]any, error) {
	scope := make(map[string]any, len(env)+1)
	for k, v := range env {
		scope[k] = v
	}
	if _, ok := scope["metadata"]; !ok {
		scope["metadata"] = n.Data.Metadata
	}

	out := make(map[string]any, len(n.Data.Actions))
	for i, a := range n.Data.Actions {
		if strings.TrimSpace(a.Formula) == "" {
			continue
		}
		program, err := expr.Compile(a.Formula, expr.Env(scope), expr.AllowUndefinedVariables())
		if err != nil {
			return nil, FormulaError{NodeID: n.ID, Index: i, Label: a.Label, Msg: err.Error()}
		}
		v, err := expr.Run(program, scope)
		if err != nil {
			return nil, FormulaError{NodeID: n.ID, Index: i, Label: a.Label, Msg: err.Error()}
		}
		key := a.Label
		if key == "" {
			key = fmt.Sprintf("action%d", i)
		}
		out[key] = v
	}
	return out, nil
}
