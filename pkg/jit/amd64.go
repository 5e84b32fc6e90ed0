package jit

import (
	"encoding/binary"
	"fmt"
)

// Reg is a general purpose register in hardware numbering.
type Reg uint8

const (
	RAX Reg = iota
	RCX
	RDX
	RBX
	RSP
	RBP
	RSI
	RDI
	R8
	R9
	R10
	R11
	R12
	R13
	R14
	R15
)

// XReg is an SSE register.
type XReg uint8

const (
	X0 XReg = iota
	X1
	X2
	X3
)

// Mem is a [base + disp32] memory operand.
type Mem struct {
	Base Reg
	Disp int32
}

// Cond is the low nibble of a Jcc opcode.
type Cond byte

const (
	CondB  Cond = 0x2 // below (CF=1)
	CondAE Cond = 0x3 // above or equal (CF=0)
	CondE  Cond = 0x4
	CondNE Cond = 0x5
	CondA  Cond = 0x7 // above (CF=0 and ZF=0)
	CondP  Cond = 0xA // parity, set by unordered ucomisd
	CondG  Cond = 0xF // signed greater
)

// Label marks a position in the code buffer. Labels may be referenced
// before they are bound.
type Label int

type fixup struct {
	at    int // offset of the rel32 field
	label Label
}

// Assembler encodes the subset of x86-64 used by the code generator.
type Assembler struct {
	buf    []byte
	labels []int // bound offsets, -1 while unbound
	fixups []fixup
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Len returns the current code size.
func (a *Assembler) Len() int { return len(a.buf) }

// NewLabel allocates an unbound label.
func (a *Assembler) NewLabel() Label {
	a.labels = append(a.labels, -1)
	return Label(len(a.labels) - 1)
}

// Bind binds l to the current position.
func (a *Assembler) Bind(l Label) {
	a.labels[l] = len(a.buf)
}

// Offset returns the bound position of l.
func (a *Assembler) Offset(l Label) (int, bool) {
	off := a.labels[l]
	return off, off >= 0
}

// Bytes patches every label reference and returns the finished code.
func (a *Assembler) Bytes() ([]byte, error) {
	for _, f := range a.fixups {
		target := a.labels[f.label]
		if target < 0 {
			return nil, fmt.Errorf("unbound label %d", f.label)
		}
		rel := int32(target - (f.at + 4))
		binary.LittleEndian.PutUint32(a.buf[f.at:], uint32(rel))
	}
	return a.buf, nil
}

func (a *Assembler) emit(b ...byte) {
	a.buf = append(a.buf, b...)
}

func (a *Assembler) imm32(v int32) {
	a.buf = binary.LittleEndian.AppendUint32(a.buf, uint32(v))
}

func (a *Assembler) imm64(v uint64) {
	a.buf = binary.LittleEndian.AppendUint64(a.buf, v)
}

// rex emits a REX prefix when any bit is needed.
func (a *Assembler) rex(w bool, reg, base byte) {
	b := byte(0x40)
	if w {
		b |= 0x08
	}
	if reg&8 != 0 {
		b |= 0x04
	}
	if base&8 != 0 {
		b |= 0x01
	}
	if b != 0x40 {
		a.emit(b)
	}
}

// modrmMem emits a mod=10 (disp32) ModRM for m, with the SIB byte that
// rsp and r12 bases require.
func (a *Assembler) modrmMem(reg byte, m Mem) {
	base := byte(m.Base) & 7
	a.emit(0x80 | (reg&7)<<3 | base)
	if base == 4 {
		a.emit(0x24)
	}
	a.imm32(m.Disp)
}

func (a *Assembler) modrmReg(reg, rm byte) {
	a.emit(0xC0 | (reg&7)<<3 | rm&7)
}

func (a *Assembler) rel32(l Label) {
	a.fixups = append(a.fixups, fixup{at: len(a.buf), label: l})
	a.imm32(0)
}

// General purpose instructions.

func (a *Assembler) Push(r Reg) {
	a.rex(false, 0, byte(r))
	a.emit(0x50 + byte(r)&7)
}

func (a *Assembler) Pop(r Reg) {
	a.rex(false, 0, byte(r))
	a.emit(0x58 + byte(r)&7)
}

// MovRR: mov dst, src
func (a *Assembler) MovRR(dst, src Reg) {
	a.rex(true, byte(src), byte(dst))
	a.emit(0x89)
	a.modrmReg(byte(src), byte(dst))
}

// MovRM: mov dst, qword [m]
func (a *Assembler) MovRM(dst Reg, m Mem) {
	a.rex(true, byte(dst), byte(m.Base))
	a.emit(0x8B)
	a.modrmMem(byte(dst), m)
}

// MovMR: mov qword [m], src
func (a *Assembler) MovMR(m Mem, src Reg) {
	a.rex(true, byte(src), byte(m.Base))
	a.emit(0x89)
	a.modrmMem(byte(src), m)
}

// MovRI64: mov r, imm64
func (a *Assembler) MovRI64(r Reg, v uint64) {
	a.rex(true, 0, byte(r))
	a.emit(0xB8 + byte(r)&7)
	a.imm64(v)
}

// MovMI32: mov qword [m], sign-extended imm32
func (a *Assembler) MovMI32(m Mem, v int32) {
	a.rex(true, 0, byte(m.Base))
	a.emit(0xC7)
	a.modrmMem(0, m)
	a.imm32(v)
}

// Lea: lea r, [m]
func (a *Assembler) Lea(r Reg, m Mem) {
	a.rex(true, byte(r), byte(m.Base))
	a.emit(0x8D)
	a.modrmMem(byte(r), m)
}

func (a *Assembler) aluRI(ext byte, r Reg, v int32) {
	a.rex(true, 0, byte(r))
	a.emit(0x81)
	a.modrmReg(ext, byte(r))
	a.imm32(v)
}

func (a *Assembler) aluMI(ext byte, m Mem, v int32) {
	a.rex(true, 0, byte(m.Base))
	a.emit(0x81)
	a.modrmMem(ext, m)
	a.imm32(v)
}

// AddRI: add r, imm32
func (a *Assembler) AddRI(r Reg, v int32) { a.aluRI(0, r, v) }

// SubRI: sub r, imm32
func (a *Assembler) SubRI(r Reg, v int32) { a.aluRI(5, r, v) }

// SubMI: sub qword [m], imm32
func (a *Assembler) SubMI(m Mem, v int32) { a.aluMI(5, m, v) }

// CmpMI: cmp qword [m], imm32
func (a *Assembler) CmpMI(m Mem, v int32) { a.aluMI(7, m, v) }

// CmpRM: cmp r, qword [m]
func (a *Assembler) CmpRM(r Reg, m Mem) {
	a.rex(true, byte(r), byte(m.Base))
	a.emit(0x3B)
	a.modrmMem(byte(r), m)
}

// SubRR: sub dst, src
func (a *Assembler) SubRR(dst, src Reg) {
	a.rex(true, byte(src), byte(dst))
	a.emit(0x29)
	a.modrmReg(byte(src), byte(dst))
}

// XorRR: xor dst, src
func (a *Assembler) XorRR(dst, src Reg) {
	a.rex(true, byte(src), byte(dst))
	a.emit(0x31)
	a.modrmReg(byte(src), byte(dst))
}

// Control flow.

// Call emits a rel32 call to a label.
func (a *Assembler) Call(l Label) {
	a.emit(0xE8)
	a.rel32(l)
}

// CallR: call r
func (a *Assembler) CallR(r Reg) {
	a.rex(false, 0, byte(r))
	a.emit(0xFF)
	a.modrmReg(2, byte(r))
}

func (a *Assembler) Jmp(l Label) {
	a.emit(0xE9)
	a.rel32(l)
}

func (a *Assembler) Jcc(c Cond, l Label) {
	a.emit(0x0F, 0x80|byte(c))
	a.rel32(l)
}

func (a *Assembler) Ret() {
	a.emit(0xC3)
}

// SSE2 scalar double instructions.

func (a *Assembler) sse(prefix byte, op byte, reg byte, m Mem) {
	a.emit(prefix)
	a.rex(false, reg, byte(m.Base))
	a.emit(0x0F, op)
	a.modrmMem(reg, m)
}

func (a *Assembler) sseRR(prefix byte, op byte, dst, src XReg) {
	a.emit(prefix)
	a.emit(0x0F, op)
	a.modrmReg(byte(dst), byte(src))
}

// MovsdXM: movsd x, qword [m]
func (a *Assembler) MovsdXM(x XReg, m Mem) { a.sse(0xF2, 0x10, byte(x), m) }

// MovsdMX: movsd qword [m], x
func (a *Assembler) MovsdMX(m Mem, x XReg) { a.sse(0xF2, 0x11, byte(x), m) }

func (a *Assembler) Addsd(dst, src XReg)   { a.sseRR(0xF2, 0x58, dst, src) }
func (a *Assembler) Mulsd(dst, src XReg)   { a.sseRR(0xF2, 0x59, dst, src) }
func (a *Assembler) Subsd(dst, src XReg)   { a.sseRR(0xF2, 0x5C, dst, src) }
func (a *Assembler) Divsd(dst, src XReg)   { a.sseRR(0xF2, 0x5E, dst, src) }
func (a *Assembler) Sqrtsd(dst, src XReg)  { a.sseRR(0xF2, 0x51, dst, src) }
func (a *Assembler) Ucomisd(x, y XReg)     { a.sseRR(0x66, 0x2E, x, y) }
func (a *Assembler) Xorpd(dst, src XReg)   { a.sseRR(0x66, 0x57, dst, src) }
