package intrinsic

import (
	"fmt"
	"math"

	"github.com/zurustar/mathjit/pkg/compiler/ast"
	"github.com/zurustar/mathjit/pkg/eval"
	"github.com/zurustar/mathjit/pkg/functable"
)

// ResolveSumTarget picks the function a sum call iterates and returns the
// three range arguments (from, to, step). The four-argument form names the
// function in its first argument; the three-argument form uses the most
// recently defined unary function.
func ResolveSumTarget(table *functable.Table, n *ast.Call) (*ast.FunctionDefinition, []ast.Expression, error) {
	if len(n.Arguments) == 4 {
		ref, ok := n.Arguments[0].(*ast.VariableRef)
		if !ok {
			return nil, nil, &eval.EvalError{
				Type:    eval.ErrorArityMismatch,
				Message: fmt.Sprintf("sum: first of four arguments must name a function, got %s", n.Arguments[0]),
				Name:    "sum",
				Arity:   4,
			}
		}
		def, ok := table.Lookup(ref.Name, 1)
		if !ok {
			return nil, nil, eval.NewUndefinedFunctionError(ref.Name, 1)
		}
		return def, n.Arguments[1:], nil
	}

	def, ok := table.LastUnary()
	if !ok {
		return nil, nil, eval.NewUndefinedFunctionError(SumTargetName, 1)
	}
	return def, n.Arguments, nil
}

// ValidRange reports whether a sum from `from` to `to` moves toward `to`.
// from == to is valid for any nonzero step.
func ValidRange(from, to, step float64) bool {
	if math.IsNaN(from) || math.IsNaN(to) || math.IsNaN(step) || step == 0 {
		return false
	}
	if step > 0 && to < from {
		return false
	}
	if step < 0 && to > from {
		return false
	}
	return true
}
