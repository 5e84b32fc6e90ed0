// Package jit compiles expression trees to x86-64 machine code and runs it.
//
// Compilation runs in three steps: translation of the AST (and every user
// function it reaches) into a small block-structured IR, code generation
// to position independent SSE2 code, and loading into executable memory.
package jit

import (
	"log/slog"

	"github.com/zurustar/mathjit/pkg/compiler/ast"
	"github.com/zurustar/mathjit/pkg/eval"
	"github.com/zurustar/mathjit/pkg/functable"
	"github.com/zurustar/mathjit/pkg/logger"
)

// Compiler turns expressions into Artifacts, resolving calls through a
// function table.
type Compiler struct {
	table      *functable.Table
	limits     eval.Limits
	log        *slog.Logger
	introspect bool
}

// Option is a functional option for configuring the Compiler.
type Option func(*Compiler)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Compiler) {
		c.log = log
	}
}

// WithIntrospection makes CompileAndRun fill Result.IR and
// Result.Assembly.
func WithIntrospection(enabled bool) Option {
	return func(c *Compiler) {
		c.introspect = enabled
	}
}

// New creates a Compiler.
func New(table *functable.Table, limits eval.Limits, opts ...Option) *Compiler {
	c := &Compiler{
		table:  table,
		limits: limits.Normalize(),
		log:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is the outcome of CompileAndRun. IR and Assembly are empty
// unless the Compiler was created WithIntrospection.
type Result struct {
	Value    float64
	IR       string
	Assembly string
	CodeSize int
}

// Translate lowers expr to IR without generating code.
func (c *Compiler) Translate(expr ast.Expression) (*Module, error) {
	return newTranslator(c.table).translateExpression(expr)
}

// Compile translates expr and loads it as a zero-argument Artifact.
func (c *Compiler) Compile(expr ast.Expression) (*Artifact, error) {
	m, err := c.Translate(expr)
	if err != nil {
		return nil, err
	}
	return c.load(m)
}

// CompileFunction compiles the user function name/arity so it can be
// called directly with arguments.
func (c *Compiler) CompileFunction(name string, arity int) (*Artifact, error) {
	def, ok := c.table.Lookup(name, arity)
	if !ok {
		return nil, fromEval(eval.NewUndefinedFunctionError(name, arity))
	}
	m, err := newTranslator(c.table).translateFunction(def)
	if err != nil {
		return nil, err
	}
	return c.load(m)
}

func (c *Compiler) load(m *Module) (*Artifact, error) {
	prog, exe, err := load(m, c.limits)
	if err != nil {
		return nil, err
	}
	c.log.Debug("Compiled module", "functions", len(m.Functions), "code_size", len(prog.Code))
	return &Artifact{module: m, prog: prog, exe: exe, limits: c.limits}, nil
}

// CompileAndRun compiles expr, runs it once and releases the code.
func (c *Compiler) CompileAndRun(expr ast.Expression) (*Result, error) {
	art, err := c.Compile(expr)
	if err != nil {
		return nil, err
	}
	defer art.Close()

	res := &Result{CodeSize: art.CodeSize()}
	if c.introspect {
		res.IR = art.IR()
		res.Assembly = art.Disassembly()
	}
	res.Value, err = art.Call()
	if err != nil {
		return res, err
	}
	return res, nil
}
