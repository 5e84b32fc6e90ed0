package jit

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is an IR instruction opcode.
type Op string

const (
	OpConst      Op = "const"
	OpParam      Op = "param"
	OpFNeg       Op = "fneg"
	OpFAdd       Op = "fadd"
	OpFSub       Op = "fsub"
	OpFMul       Op = "fmul"
	OpFDiv       Op = "fdiv"
	OpPow        Op = "pow"
	OpSqrt       Op = "sqrt"
	OpSin        Op = "sin"
	OpCos        Op = "cos"
	OpCall       Op = "call"
	OpAlloca     Op = "alloca"
	OpLoad       Op = "load"
	OpStore      Op = "store"
	OpZero       Op = "zero"
	OpTick       Op = "tick"
	OpRangeCheck Op = "rangecheck"
)

// TermOp is a block terminator opcode.
type TermOp string

const (
	TermJmp      TermOp = "jmp"
	TermRet      TermOp = "ret"
	TermLoopCond TermOp = "loopcond"
)

// Value names the result of an instruction (%N). Every value is a double.
type Value int

// NoValue marks an instruction without a result.
const NoValue Value = -1

func (v Value) String() string { return "%" + strconv.Itoa(int(v)) }

// Cell is a mutable stack slot ($N) used by loops.
type Cell int

func (c Cell) String() string { return "$" + strconv.Itoa(int(c)) }

// Instr is one IR instruction. Which fields are meaningful depends on Op.
type Instr struct {
	Op     Op
	Dst    Value
	Args   []Value
	Cell   Cell
	Const  float64
	Index  int    // OpParam
	Callee string // OpCall
}

func (in Instr) String() string {
	var sb strings.Builder
	if in.Dst != NoValue {
		fmt.Fprintf(&sb, "%s = ", in.Dst)
	}
	sb.WriteString(string(in.Op))

	switch in.Op {
	case OpConst:
		sb.WriteString(" " + strconv.FormatFloat(in.Const, 'g', -1, 64))
	case OpParam:
		sb.WriteString(" " + strconv.Itoa(in.Index))
	case OpCall:
		fmt.Fprintf(&sb, " @%s(%s)", in.Callee, joinValues(in.Args))
	case OpAlloca, OpZero, OpTick, OpLoad:
		sb.WriteString(" " + in.Cell.String())
	case OpStore:
		fmt.Fprintf(&sb, " %s, %s", in.Cell, joinValues(in.Args))
	default:
		sb.WriteString(" " + joinValues(in.Args))
	}
	return sb.String()
}

// Terminator ends a block.
type Terminator struct {
	Op   TermOp
	Args []Value
	Then *Block // jmp target, or loopcond body
	Else *Block // loopcond exit
}

func (t Terminator) String() string {
	switch t.Op {
	case TermJmp:
		return "jmp " + t.Then.Label
	case TermRet:
		return "ret " + joinValues(t.Args)
	case TermLoopCond:
		return fmt.Sprintf("loopcond %s, %s, %s", joinValues(t.Args), t.Then.Label, t.Else.Label)
	}
	return string(t.Op)
}

// Block is a labelled straight-line instruction sequence.
type Block struct {
	Label  string
	Instrs []Instr
	Term   Terminator
}

// Function is one compiled function. Counted functions participate in the
// recursion depth limit; the entry wrapper does not.
type Function struct {
	Name    string
	Params  []string
	Counted bool
	Blocks  []*Block

	NumValues int
	NumCells  int
}

// MaxCallArgs returns the largest argument count of any call in f.
func (f *Function) MaxCallArgs() int {
	n := 0
	for _, b := range f.Blocks {
		for _, in := range b.Instrs {
			if in.Op == OpCall && len(in.Args) > n {
				n = len(in.Args)
			}
		}
	}
	return n
}

func (f *Function) String() string {
	var sb strings.Builder
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = "double %" + p
	}
	fmt.Fprintf(&sb, "define double @%s(%s) {\n", f.Name, strings.Join(params, ", "))
	for _, b := range f.Blocks {
		sb.WriteString(b.Label + ":\n")
		for _, in := range b.Instrs {
			sb.WriteString("  " + in.String() + "\n")
		}
		sb.WriteString("  " + b.Term.String() + "\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

// Module is the unit handed to code generation. Functions[0] is the entry.
type Module struct {
	Functions []*Function
}

func (m *Module) String() string {
	parts := make([]string, len(m.Functions))
	for i, f := range m.Functions {
		parts[i] = f.String()
	}
	return strings.Join(parts, "\n")
}

func joinValues(vs []Value) string {
	s := make([]string, len(vs))
	for i, v := range vs {
		s[i] = v.String()
	}
	return strings.Join(s, ", ")
}

// symbolName returns the IR name of a user function.
func symbolName(name string, arity int) string {
	return name + "." + strconv.Itoa(arity)
}

// EntryName is the symbol of the artifact's entry wrapper.
const EntryName = "__entry"
