// Package engine runs one line of input end to end: parse, then either
// store a definition or evaluate an expression with the selected back end.
package engine

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/kr/pretty"

	"github.com/zurustar/mathjit/pkg/compiler"
	"github.com/zurustar/mathjit/pkg/compiler/ast"
	"github.com/zurustar/mathjit/pkg/compiler/token"
	"github.com/zurustar/mathjit/pkg/eval"
	"github.com/zurustar/mathjit/pkg/functable"
	"github.com/zurustar/mathjit/pkg/interpreter"
	"github.com/zurustar/mathjit/pkg/jit"
	"github.com/zurustar/mathjit/pkg/logger"
	"github.com/zurustar/mathjit/pkg/timings"
)

// Outcome describes what one Eval did.
type Outcome struct {
	// Definition is set when the input defined a function.
	Definition *ast.FunctionDefinition

	Value    float64
	Mode     Mode // back end that produced Value
	FellBack bool // the JIT was unavailable and the interpreter ran instead
	Timings  *timings.Laps

	// Filled in verbose mode only.
	Tokens   []token.Token
	AST      string
	IR       string
	Assembly string
}

// IsDefinition reports whether the input was a function definition.
func (o *Outcome) IsDefinition() bool {
	return o.Definition != nil
}

// Engine owns the function table for a session and serialises
// evaluations.
type Engine struct {
	mu       sync.Mutex
	table    *functable.Table
	mode     Mode
	limits   eval.Limits
	fallback bool
	verbose  bool
	log      *slog.Logger
}

// Option is a functional option for configuring the Engine.
type Option func(*Engine)

// WithMode sets the initial back end.
func WithMode(m Mode) Option {
	return func(e *Engine) { e.mode = m }
}

// WithLimits sets the execution limits.
func WithLimits(l eval.Limits) Option {
	return func(e *Engine) { e.limits = l.Normalize() }
}

// WithFallback makes the JIT mode fall back to the interpreter when native
// code cannot run on this host.
func WithFallback(enabled bool) Option {
	return func(e *Engine) { e.fallback = enabled }
}

// WithVerbose records tokens, the AST and the generated code in every
// Outcome.
func WithVerbose(enabled bool) Option {
	return func(e *Engine) { e.verbose = enabled }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithTable shares an existing function table.
func WithTable(t *functable.Table) Option {
	return func(e *Engine) { e.table = t }
}

// New creates an Engine in interpret mode with default limits.
func New(opts ...Option) *Engine {
	e := &Engine{
		table:  functable.New(),
		mode:   ModeInterpret,
		limits: eval.DefaultLimits(),
		log:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetMode switches the back end for subsequent evaluations.
func (e *Engine) SetMode(m Mode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = m
	e.log.Debug("Mode changed", "mode", m)
}

// Mode returns the current back end.
func (e *Engine) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Functions returns the stored definitions in canonical form, ordered by
// name then arity.
func (e *Engine) Functions() []string {
	defs := e.table.List()
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.String()
	}
	return out
}

// Eval processes one line of input. Failed inputs never change the
// function table.
func (e *Engine) Eval(text string) (*Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	laps := timings.Start()
	out := &Outcome{Mode: e.mode, Timings: laps}

	res, err := compiler.Parse(text)
	if err != nil {
		return nil, err
	}
	laps.Lap("Parse")

	if e.verbose {
		out.Tokens = res.Tokens
		if res.IsDefinition() {
			out.AST = pretty.Sprint(res.Definition)
		} else {
			out.AST = pretty.Sprint(res.Expression)
		}
	}

	if res.IsDefinition() {
		e.table.Define(res.Definition)
		laps.Lap("Define")
		e.log.Debug("Function defined", "name", res.Definition.Name, "arity", res.Definition.Arity(), "functions", e.table.Len())
		out.Definition = res.Definition
		return out, nil
	}

	switch e.mode {
	case ModeJIT:
		err = e.runJIT(res.Expression, out)
	default:
		err = e.interpret(res.Expression, out)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) interpret(expr ast.Expression, out *Outcome) error {
	in := interpreter.New(e.table, e.limits, interpreter.WithLogger(e.log))
	v, err := in.Evaluate(expr, nil)
	out.Timings.Lap("Interpret")
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	out.Value = v
	out.Mode = ModeInterpret
	return nil
}

func (e *Engine) runJIT(expr ast.Expression, out *Outcome) error {
	c := jit.New(e.table, e.limits, jit.WithLogger(e.log))
	art, err := c.Compile(expr)
	out.Timings.Lap("Compile")
	if err != nil {
		if typ, _ := eval.TypeOf(err); typ == eval.ErrorNativeUnavailable && e.fallback {
			e.log.Warn("Native code unavailable, falling back to interpreter", "error", err)
			out.FellBack = true
			return e.interpret(expr, out)
		}
		return fmt.Errorf("compilation failed: %w", err)
	}
	defer art.Close()

	if e.verbose {
		out.IR = art.IR()
		out.Assembly = art.Disassembly()
	}

	v, err := art.Call()
	out.Timings.Lap("Run")
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	out.Value = v
	out.Mode = ModeJIT
	return nil
}

// FormatTokens renders tokens one per line.
func FormatTokens(tokens []token.Token) string {
	var sb strings.Builder
	for _, tok := range tokens {
		fmt.Fprintf(&sb, "%d:%d\t%s\t%q\n", tok.Line, tok.Column, tok.Type, tok.Literal)
	}
	return sb.String()
}
