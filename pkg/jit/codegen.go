package jit

import (
	"fmt"
	"math"
	"sort"
)

// Runtime holds the absolute addresses generated code refers to.
type Runtime struct {
	State uintptr // runtime state block
	Sin   uintptr
	Cos   uintptr
	Pow   uintptr
}

// Symbol locates a function or block label in generated code.
type Symbol struct {
	Name   string
	Offset int
}

// Program is position independent machine code for a module. The entry
// function starts at offset 0.
type Program struct {
	Code    []byte
	Symbols []Symbol // function starts, by offset
	Labels  []Symbol // block labels, by offset
	Runtime Runtime

	// Stack bytes one activation uses, including return address and
	// saved registers.
	EntryFrame int
	MaxFrame   int // largest user function
}

// Generate lowers m to x86-64 machine code.
//
// Every function has the signature double f(const double *args). Frame:
//
//	[rbp-8]        saved rbx (args pointer)
//	[rbp-16]       saved r12 (state block)
//	[rbp-24-8k]    slot k: values first, then cells
//	[rsp+8i]       outgoing call argument i
//
// The entry saves rbx and r12 on the caller's stack, then moves rsp and rbp
// to the top of a dedicated stack whose address is in the state block.
// [rbp-8] and [rbp-16] are unused there.
func Generate(m *Module, rt Runtime) (*Program, error) {
	if len(m.Functions) == 0 || m.Functions[0].Name != EntryName {
		return nil, codegenError(fmt.Errorf("module has no entry function"))
	}
	if n := len(m.Functions[0].Params); n > MaxEntryArgs {
		return nil, codegenError(fmt.Errorf("entry takes %d arguments, at most %d supported", n, MaxEntryArgs))
	}

	g := &generator{
		asm:     NewAssembler(),
		rt:      rt,
		funcs:   make(map[string]Label),
		labelOf: make(map[*Block]Label),
	}
	for _, f := range m.Functions {
		g.funcs[f.Name] = g.asm.NewLabel()
	}
	for _, f := range m.Functions {
		if err := g.function(f); err != nil {
			return nil, codegenError(err)
		}
	}

	code, err := g.asm.Bytes()
	if err != nil {
		return nil, codegenError(err)
	}

	prog := &Program{Code: code, Runtime: rt, EntryFrame: g.entryFrame, MaxFrame: g.maxFrame}
	for _, f := range m.Functions {
		off, _ := g.asm.Offset(g.funcs[f.Name])
		prog.Symbols = append(prog.Symbols, Symbol{Name: f.Name, Offset: off})
	}
	for _, l := range g.blockNames {
		off, _ := g.asm.Offset(l.label)
		prog.Labels = append(prog.Labels, Symbol{Name: l.name, Offset: off})
	}
	sort.SliceStable(prog.Labels, func(i, j int) bool { return prog.Labels[i].Offset < prog.Labels[j].Offset })
	return prog, nil
}

type namedLabel struct {
	name  string
	label Label
}

type generator struct {
	asm        *Assembler
	rt         Runtime
	funcs      map[string]Label
	labelOf    map[*Block]Label
	blockNames []namedLabel
	entryFrame int
	maxFrame   int

	// per function
	fn        *Function
	frame     int32
	epilogue  Label
	unwind    Label
	recursion Label
	badRange  Label
	tooMany   Label
}

func (g *generator) valueSlot(v Value) Mem {
	return Mem{Base: RBP, Disp: -24 - 8*int32(v)}
}

func (g *generator) cellSlot(c Cell) Mem {
	return Mem{Base: RBP, Disp: -24 - 8*int32(g.fn.NumValues+int(c))}
}

func state(field int32) Mem {
	return Mem{Base: R12, Disp: field}
}

func (g *generator) function(f *Function) error {
	a := g.asm
	g.fn = f
	slots := f.NumValues + f.NumCells
	g.frame = int32((8*(slots+f.MaxCallArgs()) + 15) &^ 15)
	g.epilogue = a.NewLabel()
	g.unwind = a.NewLabel()
	g.recursion = a.NewLabel()
	g.badRange = a.NewLabel()
	g.tooMany = a.NewLabel()
	for _, b := range f.Blocks {
		l := a.NewLabel()
		g.labelOf[b] = l
		g.blockNames = append(g.blockNames, namedLabel{name: f.Name + "." + b.Label, label: l})
	}

	if f.Counted {
		g.maxFrame = max(g.maxFrame, int(g.frame)+frameOverhead)
	} else {
		g.entryFrame = int(g.frame) + 16
	}

	a.Bind(g.funcs[f.Name])
	a.Push(RBP)
	a.MovRR(RBP, RSP)
	a.Push(RBX)
	a.Push(R12)
	a.MovRR(RBX, RDI)
	a.MovRI64(R12, uint64(g.rt.State))

	if f.Counted {
		a.SubRI(RSP, g.frame)
		a.MovRM(RAX, state(stateDepth))
		a.AddRI(RAX, 1)
		a.MovMR(state(stateDepth), RAX)
		a.CmpRM(RAX, state(stateMaxDepth))
		a.Jcc(CondG, g.recursion)
		a.MovRM(RAX, state(stateStackTop))
		a.SubRR(RAX, RSP)
		a.CmpRM(RAX, state(stateStackBudget))
		a.Jcc(CondG, g.recursion)
	} else {
		a.MovMR(state(stateSavedRSP), RSP)
		a.MovRM(RSP, state(stateStackTop))
		a.MovRR(RBP, RSP)
		a.SubRI(RSP, g.frame+16)
	}

	for _, b := range f.Blocks {
		a.Bind(g.labelOf[b])
		for _, in := range b.Instrs {
			if err := g.instr(in); err != nil {
				return fmt.Errorf("%s: %w", f.Name, err)
			}
		}
		if err := g.terminator(b.Term); err != nil {
			return fmt.Errorf("%s/%s: %w", f.Name, b.Label, err)
		}
	}

	g.abortPath(g.recursion, abortRecursion)
	g.abortPath(g.badRange, abortRange)
	g.abortPath(g.tooMany, abortIteration)

	a.Bind(g.unwind)
	a.Xorpd(X0, X0)

	a.Bind(g.epilogue)
	if f.Counted {
		a.SubMI(state(stateDepth), 1)
		a.AddRI(RSP, g.frame)
	} else {
		a.MovRM(RSP, state(stateSavedRSP))
	}
	a.Pop(R12)
	a.Pop(RBX)
	a.Pop(RBP)
	a.Ret()
	return nil
}

func (g *generator) abortPath(l Label, code int32) {
	g.asm.Bind(l)
	g.asm.MovMI32(state(stateAbort), code)
	g.asm.Jmp(g.unwind)
}

func (g *generator) load(x XReg, v Value) {
	g.asm.MovsdXM(x, g.valueSlot(v))
}

func (g *generator) store(v Value, x XReg) {
	g.asm.MovsdMX(g.valueSlot(v), x)
}

func (g *generator) callAbs(addr uintptr) {
	g.asm.MovRI64(RAX, uint64(addr))
	g.asm.CallR(RAX)
}

func (g *generator) instr(in Instr) error {
	a := g.asm
	switch in.Op {
	case OpConst:
		a.MovRI64(RAX, math.Float64bits(in.Const))
		a.MovMR(g.valueSlot(in.Dst), RAX)

	case OpParam:
		a.MovsdXM(X0, Mem{Base: RBX, Disp: 8 * int32(in.Index)})
		g.store(in.Dst, X0)

	case OpFNeg:
		a.MovRM(RAX, g.valueSlot(in.Args[0]))
		a.MovRI64(RCX, 1<<63)
		a.XorRR(RAX, RCX)
		a.MovMR(g.valueSlot(in.Dst), RAX)

	case OpFAdd, OpFSub, OpFMul, OpFDiv:
		g.load(X0, in.Args[0])
		g.load(X1, in.Args[1])
		switch in.Op {
		case OpFAdd:
			a.Addsd(X0, X1)
		case OpFSub:
			a.Subsd(X0, X1)
		case OpFMul:
			a.Mulsd(X0, X1)
		case OpFDiv:
			a.Divsd(X0, X1)
		}
		g.store(in.Dst, X0)

	case OpSqrt:
		g.load(X0, in.Args[0])
		a.Sqrtsd(X0, X0)
		g.store(in.Dst, X0)

	case OpSin, OpCos:
		g.load(X0, in.Args[0])
		if in.Op == OpSin {
			g.callAbs(g.rt.Sin)
		} else {
			g.callAbs(g.rt.Cos)
		}
		g.store(in.Dst, X0)

	case OpPow:
		g.load(X0, in.Args[0])
		g.load(X1, in.Args[1])
		g.callAbs(g.rt.Pow)
		g.store(in.Dst, X0)

	case OpCall:
		target, ok := g.funcs[in.Callee]
		if !ok {
			return fmt.Errorf("call to unknown function @%s", in.Callee)
		}
		for i, arg := range in.Args {
			g.load(X0, arg)
			a.MovsdMX(Mem{Base: RSP, Disp: 8 * int32(i)}, X0)
		}
		a.Lea(RDI, Mem{Base: RSP})
		a.Call(target)
		g.store(in.Dst, X0)
		a.CmpMI(state(stateAbort), abortNone)
		a.Jcc(CondNE, g.unwind)

	case OpAlloca:
		// Slots are laid out up front.

	case OpLoad:
		a.MovRM(RAX, g.cellSlot(in.Cell))
		a.MovMR(g.valueSlot(in.Dst), RAX)

	case OpStore:
		a.MovRM(RAX, g.valueSlot(in.Args[0]))
		a.MovMR(g.cellSlot(in.Cell), RAX)

	case OpZero:
		a.MovMI32(g.cellSlot(in.Cell), 0)

	case OpTick:
		slot := g.cellSlot(in.Cell)
		a.MovRM(RAX, slot)
		a.AddRI(RAX, 1)
		a.MovMR(slot, RAX)
		a.CmpRM(RAX, state(stateIterLimit))
		a.Jcc(CondG, g.tooMany)

	case OpRangeCheck:
		ok := a.NewLabel()
		negative := a.NewLabel()
		g.load(X0, in.Args[0])
		g.load(X1, in.Args[1])
		g.load(X2, in.Args[2])
		for _, x := range []XReg{X0, X1, X2} {
			a.Ucomisd(x, x)
			a.Jcc(CondP, g.badRange)
		}
		a.Xorpd(X3, X3)
		a.Ucomisd(X2, X3)
		a.Jcc(CondE, g.badRange)
		a.Jcc(CondB, negative)
		a.Ucomisd(X1, X0)
		a.Jcc(CondB, g.badRange)
		a.Jmp(ok)
		a.Bind(negative)
		a.Ucomisd(X1, X0)
		a.Jcc(CondA, g.badRange)
		a.Bind(ok)

	default:
		return fmt.Errorf("unsupported instruction %q", in.Op)
	}
	return nil
}

func (g *generator) terminator(t Terminator) error {
	a := g.asm
	switch t.Op {
	case TermRet:
		g.load(X0, t.Args[0])
		a.Jmp(g.epilogue)

	case TermJmp:
		a.Jmp(g.labelOf[t.Then])

	case TermLoopCond:
		// x, to, step; step is known to be nonzero and not NaN.
		negative := a.NewLabel()
		body, exit := g.labelOf[t.Then], g.labelOf[t.Else]
		g.load(X0, t.Args[0])
		g.load(X1, t.Args[1])
		g.load(X2, t.Args[2])
		a.Xorpd(X3, X3)
		a.Ucomisd(X2, X3)
		a.Jcc(CondB, negative)
		a.Ucomisd(X1, X0) // to >= x
		a.Jcc(CondAE, body)
		a.Jmp(exit)
		a.Bind(negative)
		a.Ucomisd(X0, X1) // x >= to
		a.Jcc(CondAE, body)
		a.Jmp(exit)

	default:
		return fmt.Errorf("block has no terminator")
	}
	return nil
}
