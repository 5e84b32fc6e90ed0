package jit

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/arch/x86/x86asm"
)

func TestAssembler_Encodings(t *testing.T) {
	tests := []struct {
		name string
		emit func(a *Assembler)
		want []byte
		op   x86asm.Op
	}{
		{"push rbp", func(a *Assembler) { a.Push(RBP) }, []byte{0x55}, x86asm.PUSH},
		{"push r12", func(a *Assembler) { a.Push(R12) }, []byte{0x41, 0x54}, x86asm.PUSH},
		{"pop r12", func(a *Assembler) { a.Pop(R12) }, []byte{0x41, 0x5C}, x86asm.POP},
		{"mov rbp, rsp", func(a *Assembler) { a.MovRR(RBP, RSP) }, []byte{0x48, 0x89, 0xE5}, x86asm.MOV},
		{"mov rax, [r12+8]", func(a *Assembler) { a.MovRM(RAX, Mem{Base: R12, Disp: 8}) },
			[]byte{0x49, 0x8B, 0x84, 0x24, 0x08, 0x00, 0x00, 0x00}, x86asm.MOV},
		{"mov [rbp-24], rax", func(a *Assembler) { a.MovMR(Mem{Base: RBP, Disp: -24}, RAX) },
			[]byte{0x48, 0x89, 0x85, 0xE8, 0xFF, 0xFF, 0xFF}, x86asm.MOV},
		{"mov r12, imm64", func(a *Assembler) { a.MovRI64(R12, 0x1122334455667788) },
			[]byte{0x49, 0xBC, 0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11}, x86asm.MOV},
		{"mov qword [r12+16], 3", func(a *Assembler) { a.MovMI32(Mem{Base: R12, Disp: 16}, 3) },
			[]byte{0x49, 0xC7, 0x84, 0x24, 0x10, 0x00, 0x00, 0x00, 0x03, 0x00, 0x00, 0x00}, x86asm.MOV},
		{"lea rdi, [rsp]", func(a *Assembler) { a.Lea(RDI, Mem{Base: RSP}) },
			[]byte{0x48, 0x8D, 0xBC, 0x24, 0x00, 0x00, 0x00, 0x00}, x86asm.LEA},
		{"sub rsp, 32", func(a *Assembler) { a.SubRI(RSP, 32) }, []byte{0x48, 0x81, 0xEC, 0x20, 0x00, 0x00, 0x00}, x86asm.SUB},
		{"xor rax, rcx", func(a *Assembler) { a.XorRR(RAX, RCX) }, []byte{0x48, 0x31, 0xC8}, x86asm.XOR},
		{"call rax", func(a *Assembler) { a.CallR(RAX) }, []byte{0xFF, 0xD0}, x86asm.CALL},
		{"movsd xmm0, [rbp-24]", func(a *Assembler) { a.MovsdXM(X0, Mem{Base: RBP, Disp: -24}) },
			[]byte{0xF2, 0x0F, 0x10, 0x85, 0xE8, 0xFF, 0xFF, 0xFF}, x86asm.MOVSD_XMM},
		{"movsd [rsp+8], xmm0", func(a *Assembler) { a.MovsdMX(Mem{Base: RSP, Disp: 8}, X0) },
			[]byte{0xF2, 0x0F, 0x11, 0x84, 0x24, 0x08, 0x00, 0x00, 0x00}, x86asm.MOVSD_XMM},
		{"addsd xmm0, xmm1", func(a *Assembler) { a.Addsd(X0, X1) }, []byte{0xF2, 0x0F, 0x58, 0xC1}, x86asm.ADDSD},
		{"sqrtsd xmm0, xmm0", func(a *Assembler) { a.Sqrtsd(X0, X0) }, []byte{0xF2, 0x0F, 0x51, 0xC0}, x86asm.SQRTSD},
		{"ucomisd xmm1, xmm0", func(a *Assembler) { a.Ucomisd(X1, X0) }, []byte{0x66, 0x0F, 0x2E, 0xC8}, x86asm.UCOMISD},
		{"xorpd xmm3, xmm3", func(a *Assembler) { a.Xorpd(X3, X3) }, []byte{0x66, 0x0F, 0x57, 0xDB}, x86asm.XORPD},
		{"ret", func(a *Assembler) { a.Ret() }, []byte{0xC3}, x86asm.RET},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssembler()
			tt.emit(a)
			code, err := a.Bytes()
			require.NoError(t, err)
			require.Equal(t, tt.want, code)

			inst, err := x86asm.Decode(code, 64)
			require.NoError(t, err)
			require.Equal(t, len(code), inst.Len)
			require.Equal(t, tt.op, inst.Op)
		})
	}
}

func TestAssembler_Labels(t *testing.T) {
	a := NewAssembler()
	forward := a.NewLabel()
	a.Jmp(forward)
	a.Ret()
	a.Bind(forward)
	a.Ret()

	code, err := a.Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte{0xE9, 0x01, 0x00, 0x00, 0x00, 0xC3, 0xC3}, code)

	a = NewAssembler()
	back := a.NewLabel()
	a.Bind(back)
	a.Jcc(CondNE, back)

	code, err = a.Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte{0x0F, 0x85, 0xFA, 0xFF, 0xFF, 0xFF}, code)
}

func TestAssembler_UnboundLabel(t *testing.T) {
	a := NewAssembler()
	a.Call(a.NewLabel())
	_, err := a.Bytes()
	require.Error(t, err)
}

func TestAssembler_ConditionCodes(t *testing.T) {
	tests := []struct {
		cond Cond
		op   x86asm.Op
	}{
		{CondB, x86asm.JB},
		{CondAE, x86asm.JAE},
		{CondE, x86asm.JE},
		{CondNE, x86asm.JNE},
		{CondA, x86asm.JA},
		{CondP, x86asm.JP},
		{CondG, x86asm.JG},
	}

	for _, tt := range tests {
		a := NewAssembler()
		l := a.NewLabel()
		a.Bind(l)
		a.Jcc(tt.cond, l)
		code, err := a.Bytes()
		require.NoError(t, err)

		inst, err := x86asm.Decode(code, 64)
		require.NoError(t, err)
		require.Equal(t, tt.op, inst.Op, "cond %#x", byte(tt.cond))
	}
}

// Every generated function decodes into a whole number of instructions.
func TestGenerate_DecodesCleanly(t *testing.T) {
	table := defineAll(t, "f(x) = x * x + 1", "g(a, b) = f(a) - b / 2", "h(x) = sum(f, 1, x, 1)")
	m, err := newTranslator(table).translateExpression(parseExpr(t, "g(3, 4) + h(5) ^ 2 + sin(pi()) - -sqrt(2)"))
	require.NoError(t, err)

	prog, err := Generate(m, Runtime{State: 0x7000_0000, Sin: 0x7100_0000, Cos: 0x7200_0000, Pow: 0x7300_0000})
	require.NoError(t, err)
	require.Equal(t, EntryName, prog.Symbols[0].Name)
	require.Equal(t, 0, prog.Symbols[0].Offset)

	for off := 0; off < len(prog.Code); {
		inst, err := x86asm.Decode(prog.Code[off:], 64)
		require.NoError(t, err, "offset %#x", off)
		off += inst.Len
	}

	text, err := prog.Disassemble(0)
	require.NoError(t, err)
	for _, want := range []string{"__entry:", "f.1:", "g.2:", "h.1:", "call g.2", "$pow", "$sin", "$state", "sqrtsd"} {
		require.Contains(t, text, want)
	}
}
