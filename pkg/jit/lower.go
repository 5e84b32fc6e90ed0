package jit

import (
	"fmt"
	"math"
	"strconv"

	"github.com/zurustar/mathjit/pkg/compiler/ast"
	"github.com/zurustar/mathjit/pkg/eval"
	"github.com/zurustar/mathjit/pkg/functable"
	"github.com/zurustar/mathjit/pkg/intrinsic"
)

// translator lowers ASTs into one IR module. User functions are translated
// on first use and memoised by (name, arity), which also terminates
// recursive definitions.
type translator struct {
	table  *functable.Table
	module *Module
	seen   map[functable.Key]*Function
	queue  []pending
}

type pending struct {
	def *ast.FunctionDefinition
	fn  *Function
}

func newTranslator(table *functable.Table) *translator {
	return &translator{
		table:  table,
		module: &Module{},
		seen:   make(map[functable.Key]*Function),
	}
}

// translateExpression builds a module whose entry evaluates expr.
func (t *translator) translateExpression(expr ast.Expression) (*Module, error) {
	entry := &Function{Name: EntryName}
	t.module.Functions = append(t.module.Functions, entry)

	b := newBuilder(t, entry, nil)
	v, err := b.lower(expr)
	if err != nil {
		return nil, err
	}
	b.ret(v)
	return t.drain()
}

// translateFunction builds a module whose entry forwards its arguments to
// the user function def.
func (t *translator) translateFunction(def *ast.FunctionDefinition) (*Module, error) {
	entry := &Function{Name: EntryName, Params: def.Parameters}
	t.module.Functions = append(t.module.Functions, entry)

	b := newBuilder(t, entry, def.Parameters)
	args := make([]Value, len(def.Parameters))
	for i, p := range def.Parameters {
		args[i] = b.vars[p]
	}
	v := b.call(t.request(def), args)
	b.ret(v)
	return t.drain()
}

// request returns the symbol for def, scheduling its translation.
func (t *translator) request(def *ast.FunctionDefinition) string {
	key := functable.Key{Name: def.Name, Arity: def.Arity()}
	if fn, ok := t.seen[key]; ok {
		return fn.Name
	}
	fn := &Function{Name: symbolName(def.Name, def.Arity()), Params: def.Parameters, Counted: true}
	t.seen[key] = fn
	t.module.Functions = append(t.module.Functions, fn)
	t.queue = append(t.queue, pending{def: def, fn: fn})
	return fn.Name
}

func (t *translator) drain() (*Module, error) {
	for len(t.queue) > 0 {
		p := t.queue[0]
		t.queue = t.queue[1:]

		b := newBuilder(t, p.fn, p.def.Parameters)
		v, err := b.lower(p.def.Body)
		if err != nil {
			return nil, err
		}
		b.ret(v)
	}
	return t.module, nil
}

// builder appends instructions to one function.
type builder struct {
	t    *translator
	fn   *Function
	cur  *Block
	vars map[string]Value
	sums int
}

func newBuilder(t *translator, fn *Function, params []string) *builder {
	b := &builder{t: t, fn: fn, vars: make(map[string]Value)}
	b.cur = b.newBlock("entry")
	for i, p := range params {
		b.vars[p] = b.emit(Instr{Op: OpParam, Index: i})
	}
	return b
}

func (b *builder) newBlock(label string) *Block {
	blk := &Block{Label: label}
	b.fn.Blocks = append(b.fn.Blocks, blk)
	return blk
}

func (b *builder) newValue() Value {
	v := Value(b.fn.NumValues)
	b.fn.NumValues++
	return v
}

func (b *builder) newCell() Cell {
	c := Cell(b.fn.NumCells)
	b.fn.NumCells++
	b.cur.Instrs = append(b.cur.Instrs, Instr{Op: OpAlloca, Dst: NoValue, Cell: c})
	return c
}

// emit appends an instruction producing a new value.
func (b *builder) emit(in Instr) Value {
	in.Dst = b.newValue()
	b.cur.Instrs = append(b.cur.Instrs, in)
	return in.Dst
}

// effect appends an instruction with no result.
func (b *builder) effect(in Instr) {
	in.Dst = NoValue
	b.cur.Instrs = append(b.cur.Instrs, in)
}

func (b *builder) call(sym string, args []Value) Value {
	return b.emit(Instr{Op: OpCall, Callee: sym, Args: args})
}

func (b *builder) ret(v Value) {
	b.cur.Term = Terminator{Op: TermRet, Args: []Value{v}}
}

func (b *builder) jmp(to *Block) {
	b.cur.Term = Terminator{Op: TermJmp, Then: to}
}

func (b *builder) lower(node ast.Expression) (Value, error) {
	switch n := node.(type) {
	case *ast.NumberLiteral:
		return b.emit(Instr{Op: OpConst, Const: n.Value}), nil

	case *ast.VariableRef:
		v, ok := b.vars[n.Name]
		if !ok {
			return NoValue, fromEval(eval.NewUnboundVariableError(n.Name))
		}
		return v, nil

	case *ast.UnaryOp:
		v, err := b.lower(n.Operand)
		if err != nil {
			return NoValue, err
		}
		return b.emit(Instr{Op: OpFNeg, Args: []Value{v}}), nil

	case *ast.BinaryOp:
		left, err := b.lower(n.Left)
		if err != nil {
			return NoValue, err
		}
		right, err := b.lower(n.Right)
		if err != nil {
			return NoValue, err
		}
		op, err := binaryOp(n.Operator)
		if err != nil {
			return NoValue, err
		}
		return b.emit(Instr{Op: op, Args: []Value{left, right}}), nil

	case *ast.Call:
		if it, ok := intrinsic.Lookup(n.Name); ok {
			return b.lowerIntrinsic(it, n)
		}
		return b.lowerUserCall(n)
	}
	return NoValue, codegenError(fmt.Errorf("unknown AST node type: %T", node))
}

func binaryOp(op ast.BinaryOperator) (Op, error) {
	switch op {
	case ast.Add:
		return OpFAdd, nil
	case ast.Sub:
		return OpFSub, nil
	case ast.Mul:
		return OpFMul, nil
	case ast.Div:
		return OpFDiv, nil
	case ast.Pow:
		return OpPow, nil
	}
	return "", codegenError(fmt.Errorf("unknown binary operator: %s", op))
}

func (b *builder) lowerArgs(args []ast.Expression) ([]Value, error) {
	values := make([]Value, len(args))
	for i, a := range args {
		v, err := b.lower(a)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func (b *builder) lowerUserCall(n *ast.Call) (Value, error) {
	def, ok := b.t.table.Lookup(n.Name, len(n.Arguments))
	if !ok {
		return NoValue, fromEval(eval.NewUndefinedFunctionError(n.Name, len(n.Arguments)))
	}
	args, err := b.lowerArgs(n.Arguments)
	if err != nil {
		return NoValue, err
	}
	return b.call(b.t.request(def), args), nil
}

func (b *builder) lowerIntrinsic(it *intrinsic.Intrinsic, n *ast.Call) (Value, error) {
	if !it.AcceptsArity(len(n.Arguments)) {
		return NoValue, fromEval(eval.NewArityMismatchError(it.Name, len(n.Arguments)))
	}

	var op Op
	switch it.Kind {
	case intrinsic.Pi:
		return b.emit(Instr{Op: OpConst, Const: math.Pi}), nil
	case intrinsic.Sum:
		return b.lowerSum(n)
	case intrinsic.Sqrt:
		op = OpSqrt
	case intrinsic.Sin:
		op = OpSin
	case intrinsic.Cos:
		op = OpCos
	}

	x, err := b.lower(n.Arguments[0])
	if err != nil {
		return NoValue, err
	}
	return b.emit(Instr{Op: op, Args: []Value{x}}), nil
}

// lowerSum expands a sum into a counted loop:
//
//	rangecheck from, to, step
//	x = from; acc = 0; n = 0
//	cond: loopcond x, to, step -> body | exit
//	body: tick n; acc += f(x); x += step; jmp cond
//	exit: load acc
func (b *builder) lowerSum(n *ast.Call) (Value, error) {
	target, rangeArgs, err := intrinsic.ResolveSumTarget(b.t.table, n)
	if err != nil {
		return NoValue, fromEval(err)
	}
	bounds, err := b.lowerArgs(rangeArgs)
	if err != nil {
		return NoValue, err
	}
	from, to, step := bounds[0], bounds[1], bounds[2]
	sym := b.t.request(target)

	id := strconv.Itoa(b.sums)
	b.sums++

	b.effect(Instr{Op: OpRangeCheck, Args: []Value{from, to, step}})
	acc := b.newCell()
	x := b.newCell()
	count := b.newCell()
	b.effect(Instr{Op: OpStore, Cell: x, Args: []Value{from}})
	b.effect(Instr{Op: OpZero, Cell: acc})
	b.effect(Instr{Op: OpZero, Cell: count})

	cond := b.newBlock("sum.cond." + id)
	body := b.newBlock("sum.body." + id)
	exit := b.newBlock("sum.exit." + id)
	b.jmp(cond)

	b.cur = cond
	xv := b.emit(Instr{Op: OpLoad, Cell: x})
	b.cur.Term = Terminator{Op: TermLoopCond, Args: []Value{xv, to, step}, Then: body, Else: exit}

	b.cur = body
	b.effect(Instr{Op: OpTick, Cell: count})
	xi := b.emit(Instr{Op: OpLoad, Cell: x})
	fx := b.call(sym, []Value{xi})
	total := b.emit(Instr{Op: OpLoad, Cell: acc})
	b.effect(Instr{Op: OpStore, Cell: acc, Args: []Value{b.emit(Instr{Op: OpFAdd, Args: []Value{total, fx}})}})
	b.effect(Instr{Op: OpStore, Cell: x, Args: []Value{b.emit(Instr{Op: OpFAdd, Args: []Value{xi, step}})}})
	b.jmp(cond)

	b.cur = exit
	return b.emit(Instr{Op: OpLoad, Cell: acc}), nil
}
