package interpreter

import (
	"errors"
	"math"
	"testing"

	"github.com/zurustar/mathjit/pkg/compiler"
	"github.com/zurustar/mathjit/pkg/eval"
	"github.com/zurustar/mathjit/pkg/functable"
)

// run parses and evaluates each line in order, defining functions along the
// way, and returns the value of the last line.
func run(t *testing.T, limits eval.Limits, lines ...string) (float64, error) {
	t.Helper()
	table := functable.New()
	in := New(table, limits)

	var value float64
	var err error
	for _, line := range lines {
		res, perr := compiler.Parse(line)
		if perr != nil {
			t.Fatalf("Parse(%q): %v", line, perr)
		}
		if res.IsDefinition() {
			table.Define(res.Definition)
			continue
		}
		value, err = in.Evaluate(res.Expression, nil)
	}
	return value, err
}

func TestEvaluate_Arithmetic(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"2 + 3 * 4", 14},
		{"2 ^ 3 ^ 2", 512},
		{"-2 ^ 2", -4},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"1 - 2 - 3", -4},
		{"--3", 3},
		{"2 ^ -1", 0.5},
		{"sqrt(16)", 4},
		{"pi()", math.Pi},
		{"sin(0) + cos(0)", 1},
		{".5 + 5.", 5.5},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := run(t, eval.DefaultLimits(), tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEvaluate_IEEESemantics(t *testing.T) {
	if got, _ := run(t, eval.DefaultLimits(), "1 / 0"); !math.IsInf(got, 1) {
		t.Errorf("1/0 = %v, want +Inf", got)
	}
	if got, _ := run(t, eval.DefaultLimits(), "-1 / 0"); !math.IsInf(got, -1) {
		t.Errorf("-1/0 = %v, want -Inf", got)
	}
	if got, _ := run(t, eval.DefaultLimits(), "0 / 0"); !math.IsNaN(got) {
		t.Errorf("0/0 = %v, want NaN", got)
	}
	if got, _ := run(t, eval.DefaultLimits(), "-0"); !math.Signbit(got) {
		t.Errorf("-0 should be negative zero, got %v", got)
	}
	if got, _ := run(t, eval.DefaultLimits(), "sqrt(-1)"); !math.IsNaN(got) {
		t.Errorf("sqrt(-1) = %v, want NaN", got)
	}
}

func TestEvaluate_UserFunctions(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		expected float64
	}{
		{"simple", []string{"f(x) = x + 1", "f(5)"}, 6},
		{"two params", []string{"add(a, b) = a + b", "add(2, 3) * 2"}, 10},
		{"zero params", []string{"k() = 42", "k() + 1"}, 43},
		{"nested", []string{"sq(x) = x * x", "h(x) = sq(x) + sq(x + 1)", "h(2)"}, 13},
		{"redefinition", []string{"f(x) = x", "f(x) = x * 2", "f(5)"}, 10},
		{"arity overload", []string{"f(x) = x", "f(x, y) = x * y", "f(3) + f(3, 4)"}, 15},
		{"late binding", []string{"g(x) = h(x) + 1", "h(x) = x * 10", "g(2)"}, 21},
		{"parameter shadows name", []string{"f(f) = f * 2", "f(4)"}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, eval.DefaultLimits(), tt.lines...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEvaluate_Sum(t *testing.T) {
	tests := []struct {
		name     string
		lines    []string
		expected float64
	}{
		{"legacy form", []string{"f(x) = x * x", "sum(1, 3, 1)"}, 14},
		{"explicit form", []string{"f(x) = x * x", "sum(f, 1, 3, 1)"}, 14},
		{"explicit picks named function", []string{"f(x) = x * x", "g(x) = 1", "sum(f, 1, 3, 1)"}, 14},
		{"legacy uses latest unary", []string{"f(x) = x * x", "g(x) = 1", "sum(1, 3, 1)"}, 3},
		{"legacy ignores other arities", []string{"f(x) = x", "h(a, b) = 0", "sum(1, 4, 1)"}, 10},
		{"redefinition is latest", []string{"f(x) = x", "g(x) = 1", "f(x) = 2 * x", "sum(1, 3, 1)"}, 12},
		{"negative step", []string{"f(x) = x", "sum(3, 1, -1)"}, 6},
		{"empty range single point", []string{"f(x) = x", "sum(2, 2, 1)"}, 2},
		{"step overshoots", []string{"f(x) = x", "sum(0, 1, 0.75)"}, 0.75},
		{"fractional", []string{"f(x) = 1", "sum(0, 1, 0.25)"}, 5},
		{"nested sum", []string{"f(x) = x", "g(x) = sum(f, 1, x, 1)", "sum(g, 1, 3, 1)"}, 10},
		{"range expressions", []string{"f(x) = x", "sum(f, 1 + 1, 2 * 2, 2 - 1)"}, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, eval.DefaultLimits(), tt.lines...)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	small := eval.Limits{MaxDepth: 50, MaxIterations: 100}

	tests := []struct {
		name    string
		limits  eval.Limits
		lines   []string
		errType eval.ErrorType
	}{
		{"undefined function", eval.DefaultLimits(), []string{"g(1)"}, eval.ErrorUndefinedFunction},
		{"wrong arity is undefined", eval.DefaultLimits(), []string{"f(x) = x", "f(1, 2)"}, eval.ErrorUndefinedFunction},
		{"unbound top-level variable", eval.DefaultLimits(), []string{"x + 1"}, eval.ErrorUnboundVariable},
		{"unbound body variable", eval.DefaultLimits(), []string{"f(x) = y", "f(1)"}, eval.ErrorUnboundVariable},
		{"no caller scope", eval.DefaultLimits(), []string{"g(y) = y + h(1)", "h(x) = y", "g(2)"}, eval.ErrorUnboundVariable},
		{"intrinsic arity", eval.DefaultLimits(), []string{"sqrt(1, 2)"}, eval.ErrorArityMismatch},
		{"pi arity", eval.DefaultLimits(), []string{"pi(1)"}, eval.ErrorArityMismatch},
		{"sum arity", eval.DefaultLimits(), []string{"f(x) = x", "sum(1, 2)"}, eval.ErrorArityMismatch},
		{"sum first argument not a name", eval.DefaultLimits(), []string{"f(x) = x", "sum(1, 1, 2, 1)"}, eval.ErrorArityMismatch},
		{"unbounded recursion", eval.DefaultLimits(), []string{"f(x) = f(x) + 1", "f(1)"}, eval.ErrorRecursionLimit},
		{"mutual recursion", small, []string{"a(x) = b(x)", "b(x) = a(x)", "a(1)"}, eval.ErrorRecursionLimit},
		{"sum without target", eval.DefaultLimits(), []string{"sum(1, 3, 1)"}, eval.ErrorUndefinedFunction},
		{"sum explicit missing", eval.DefaultLimits(), []string{"sum(q, 1, 3, 1)"}, eval.ErrorUndefinedFunction},
		{"sum zero step", eval.DefaultLimits(), []string{"f(x) = x", "sum(1, 3, 0)"}, eval.ErrorInvalidRange},
		{"sum wrong direction", eval.DefaultLimits(), []string{"f(x) = x", "sum(1, 3, -1)"}, eval.ErrorInvalidRange},
		{"sum wrong direction negative", eval.DefaultLimits(), []string{"f(x) = x", "sum(3, 1, 1)"}, eval.ErrorInvalidRange},
		{"sum NaN bound", eval.DefaultLimits(), []string{"f(x) = x", "sum(0 / 0, 1, 1)"}, eval.ErrorInvalidRange},
		{"sum iteration limit", small, []string{"f(x) = x", "sum(1, 1000, 1)"}, eval.ErrorIterationLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.limits, tt.lines...)
			var evalErr *eval.EvalError
			if !errors.As(err, &evalErr) {
				t.Fatalf("expected EvalError, got %v", err)
			}
			if evalErr.Type != tt.errType {
				t.Errorf("error type = %s, want %s (%v)", evalErr.Type, tt.errType, err)
			}
		})
	}
}

func TestEvaluate_RecursionDepthBoundary(t *testing.T) {
	limits := eval.Limits{MaxDepth: 10}
	// fN calls down a chain N functions deep.
	chain := []string{
		"f1(x) = x", "f2(x) = f1(x)", "f3(x) = f2(x)", "f4(x) = f3(x)", "f5(x) = f4(x)",
		"f6(x) = f5(x)", "f7(x) = f6(x)", "f8(x) = f7(x)", "f9(x) = f8(x)", "f10(x) = f9(x)",
		"f11(x) = f10(x)",
	}

	got, err := run(t, limits, append(chain, "f10(7)")...)
	if err != nil {
		t.Fatalf("depth 10 should succeed: %v", err)
	}
	if got != 7 {
		t.Errorf("got %v, want 7", got)
	}

	_, err = run(t, limits, append(chain, "f11(7)")...)
	if typ, _ := eval.TypeOf(err); typ != eval.ErrorRecursionLimit {
		t.Errorf("depth 11 error = %v, want recursion limit", err)
	}
}

func TestEvaluate_IterationLimitBoundary(t *testing.T) {
	limits := eval.Limits{MaxIterations: 5}
	if got, err := run(t, limits, "f(x) = 1", "sum(1, 5, 1)"); err != nil || got != 5 {
		t.Errorf("five iterations: got %v, %v", got, err)
	}
	if _, err := run(t, limits, "f(x) = 1", "sum(1, 6, 1)"); err == nil {
		t.Error("six iterations should exceed the limit")
	}

	// The counter restarts for every sum evaluation.
	if got, err := run(t, limits, "f(x) = 1", "sum(1, 5, 1) + sum(1, 5, 1)"); err != nil || got != 10 {
		t.Errorf("two sums: got %v, %v", got, err)
	}
}
