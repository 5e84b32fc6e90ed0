package jit

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

// disasmBase is the address code is shown at when it is not loaded.
const disasmBase = 0x1000

// Disassemble renders p as Intel syntax listing. base is the address the
// code is (or would be) loaded at; zero selects a fixed display address.
func (p *Program) Disassemble(base uint64) (string, error) {
	if base == 0 {
		base = disasmBase
	}

	names := make(map[uint64]string)
	for _, l := range p.Labels {
		names[base+uint64(l.Offset)] = l.Name
	}
	starts := make(map[int]string)
	for _, s := range p.Symbols {
		names[base+uint64(s.Offset)] = s.Name
		starts[s.Offset] = s.Name
	}
	for addr, name := range map[uintptr]string{
		p.Runtime.State: "state",
		p.Runtime.Sin:   "sin",
		p.Runtime.Cos:   "cos",
		p.Runtime.Pow:   "pow",
	} {
		if addr != 0 {
			names[uint64(addr)] = name
		}
	}
	lookup := func(addr uint64) (string, uint64) {
		if name, ok := names[addr]; ok {
			return name, addr
		}
		return "", 0
	}

	var sb strings.Builder
	for off := 0; off < len(p.Code); {
		if name, ok := starts[off]; ok {
			if off > 0 {
				sb.WriteByte('\n')
			}
			fmt.Fprintf(&sb, "%s:\n", name)
		}
		inst, err := x86asm.Decode(p.Code[off:], 64)
		if err != nil {
			return sb.String(), fmt.Errorf("decode at offset %#x: %w", off, err)
		}
		pc := base + uint64(off)
		fmt.Fprintf(&sb, "  %#06x  %-30s %s\n", off,
			hex.EncodeToString(p.Code[off:off+inst.Len]),
			x86asm.IntelSyntax(inst, pc, lookup))
		off += inst.Len
	}
	return sb.String(), nil
}
