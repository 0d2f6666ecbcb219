package react

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/rzbill/modeldb/pkg/model"
)

// Event kinds and phases exposed to filter expressions.
const (
	OpPut    = "put"
	OpDelete = "delete"

	PhaseWill = "will"
	PhaseDid  = "did"
)

// Filtered forwards callbacks to an inner Listener only when a CEL
// expression evaluates to true. The expression sees:
//
//	op        string              "put" or "delete"
//	phase     string              "will" or "did"
//	type_name string              registered type name
//	id        string              rendered primary key
//	indexes   map(string, list)   rendered index values by name (empty for deletes)
//
// For example `type_name == "Adult" && "1986" in indexes.birth`. Evaluation
// errors count as false.
type Filtered struct {
	inner Listener
	prog  cel.Program
	expr  string
}

// Filter compiles expr and wraps inner. An empty expression matches every event.
func Filter(expr string, inner Listener) (*Filtered, error) {
	expr = strings.TrimSpace(expr)
	f := &Filtered{inner: inner, expr: expr}
	if expr == "" {
		return f, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("op", cel.StringType),
		cel.Variable("phase", cel.StringType),
		cel.Variable("type_name", cel.StringType),
		cel.Variable("id", cel.StringType),
		cel.Variable("indexes", cel.MapType(cel.StringType, cel.ListType(cel.StringType))),
	)
	if err != nil {
		return nil, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("react: filter %q: %w", expr, iss.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("react: filter %q must evaluate to bool, got %s", expr, out)
	}
	prog, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	f.prog = prog
	return f, nil
}

// Expr returns the filter expression.
func (f *Filtered) Expr() string { return f.expr }

func (f *Filtered) match(op, phase, typeName string, id model.Value, md *model.Metadata) bool {
	if f.prog == nil {
		return true
	}
	indexes := map[string][]string{}
	if md != nil {
		indexes = md.IndexStrings()
	}
	out, _, err := f.prog.Eval(map[string]any{
		"op":        op,
		"phase":     phase,
		"type_name": typeName,
		"id":        id.String(),
		"indexes":   indexes,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}

func (f *Filtered) SetSubscription(sub *Subscription) { f.inner.SetSubscription(sub) }

func (f *Filtered) WillPut(m any, typeName string, md model.Metadata) error {
	if !f.match(OpPut, PhaseWill, typeName, md.ID, &md) {
		return nil
	}
	return f.inner.WillPut(m, typeName, md)
}

func (f *Filtered) DidPut(m any, typeName string, md model.Metadata) error {
	if !f.match(OpPut, PhaseDid, typeName, md.ID, &md) {
		return nil
	}
	return f.inner.DidPut(m, typeName, md)
}

func (f *Filtered) WillDelete(key model.Key, typeName string, getModel func() (any, error)) error {
	if !f.match(OpDelete, PhaseWill, typeName, key.ID, nil) {
		return nil
	}
	return f.inner.WillDelete(key, typeName, getModel)
}

func (f *Filtered) DidDelete(key model.Key, typeName string) error {
	if !f.match(OpDelete, PhaseDid, typeName, key.ID, nil) {
		return nil
	}
	return f.inner.DidDelete(key, typeName)
}
