// Package interpreter evaluates expression trees directly.
package interpreter

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/zurustar/mathjit/pkg/compiler/ast"
	"github.com/zurustar/mathjit/pkg/eval"
	"github.com/zurustar/mathjit/pkg/functable"
	"github.com/zurustar/mathjit/pkg/intrinsic"
	"github.com/zurustar/mathjit/pkg/libm"
	"github.com/zurustar/mathjit/pkg/logger"
)

// Interpreter is a recursive tree-walking evaluator. It holds no per-call
// state, so one Interpreter may serve concurrent evaluations.
type Interpreter struct {
	table  *functable.Table
	limits eval.Limits
	log    *slog.Logger
}

// Option is a functional option for configuring the Interpreter.
type Option func(*Interpreter)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(in *Interpreter) {
		in.log = log
	}
}

// New creates an Interpreter that resolves calls through table.
func New(table *functable.Table, limits eval.Limits, opts ...Option) *Interpreter {
	in := &Interpreter{
		table:  table,
		limits: limits.Normalize(),
		log:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Evaluate computes the value of node. env supplies variable bindings and
// may be nil for a top-level expression.
func (in *Interpreter) Evaluate(node ast.Expression, env *eval.Environment) (float64, error) {
	in.log.Debug("Interpreting expression", "expr", node.String())
	return in.eval(node, env, 0)
}

func (in *Interpreter) eval(node ast.Expression, env *eval.Environment, depth int) (float64, error) {
	switch n := node.(type) {
	case *ast.NumberLiteral:
		return n.Value, nil

	case *ast.VariableRef:
		v, ok := env.Get(n.Name)
		if !ok {
			return 0, eval.NewUnboundVariableError(n.Name)
		}
		return v, nil

	case *ast.UnaryOp:
		v, err := in.eval(n.Operand, env, depth)
		if err != nil {
			return 0, err
		}
		return -v, nil

	case *ast.BinaryOp:
		left, err := in.eval(n.Left, env, depth)
		if err != nil {
			return 0, err
		}
		right, err := in.eval(n.Right, env, depth)
		if err != nil {
			return 0, err
		}
		return applyBinary(n.Operator, left, right)

	case *ast.Call:
		if it, ok := intrinsic.Lookup(n.Name); ok {
			return in.evalIntrinsic(it, n, env, depth)
		}
		return in.evalUserCall(n, env, depth)
	}

	return 0, fmt.Errorf("unknown AST node type: %T", node)
}

func applyBinary(op ast.BinaryOperator, left, right float64) (float64, error) {
	switch op {
	case ast.Add:
		return left + right, nil
	case ast.Sub:
		return left - right, nil
	case ast.Mul:
		return left * right, nil
	case ast.Div:
		return left / right, nil
	case ast.Pow:
		return libm.Pow(left, right), nil
	}
	return 0, fmt.Errorf("unknown binary operator: %s", op)
}

func (in *Interpreter) evalArgs(args []ast.Expression, env *eval.Environment, depth int) ([]float64, error) {
	values := make([]float64, len(args))
	for i, a := range args {
		v, err := in.eval(a, env, depth)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func (in *Interpreter) evalUserCall(n *ast.Call, env *eval.Environment, depth int) (float64, error) {
	def, ok := in.table.Lookup(n.Name, len(n.Arguments))
	if !ok {
		return 0, eval.NewUndefinedFunctionError(n.Name, len(n.Arguments))
	}
	args, err := in.evalArgs(n.Arguments, env, depth)
	if err != nil {
		return 0, err
	}
	return in.call(def, args, depth)
}

// call runs a user function body in a fresh environment one level deeper.
func (in *Interpreter) call(def *ast.FunctionDefinition, args []float64, depth int) (float64, error) {
	if depth+1 > in.limits.MaxDepth {
		return 0, eval.NewRecursionLimitError(in.limits.MaxDepth)
	}
	return in.eval(def.Body, eval.Bind(def.Parameters, args), depth+1)
}

func (in *Interpreter) evalIntrinsic(it *intrinsic.Intrinsic, n *ast.Call, env *eval.Environment, depth int) (float64, error) {
	if !it.AcceptsArity(len(n.Arguments)) {
		return 0, eval.NewArityMismatchError(it.Name, len(n.Arguments))
	}

	switch it.Kind {
	case intrinsic.Pi:
		return math.Pi, nil
	case intrinsic.Sum:
		return in.evalSum(n, env, depth)
	}

	x, err := in.eval(n.Arguments[0], env, depth)
	if err != nil {
		return 0, err
	}
	return it.Unary(x), nil
}

// evalSum accumulates f(x) for x = from, from+step, ... while x has not
// passed to.
func (in *Interpreter) evalSum(n *ast.Call, env *eval.Environment, depth int) (float64, error) {
	target, rangeArgs, err := intrinsic.ResolveSumTarget(in.table, n)
	if err != nil {
		return 0, err
	}

	bounds, err := in.evalArgs(rangeArgs, env, depth)
	if err != nil {
		return 0, err
	}
	from, to, step := bounds[0], bounds[1], bounds[2]
	if !intrinsic.ValidRange(from, to, step) {
		return 0, eval.NewInvalidRangeError(from, to, step)
	}

	total := 0.0
	var iterations int64
	for x := from; (step > 0 && x <= to) || (step < 0 && x >= to); x += step {
		iterations++
		if iterations > in.limits.MaxIterations {
			return 0, eval.NewIterationLimitError(in.limits.MaxIterations)
		}
		v, err := in.call(target, []float64{x}, depth)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}
