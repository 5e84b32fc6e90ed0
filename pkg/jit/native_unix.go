//go:build (linux || darwin) && amd64

package jit

import (
	"encoding/binary"
	"errors"
	"math"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/zurustar/mathjit/pkg/eval"
	"github.com/zurustar/mathjit/pkg/libm"
)

// Available reports whether compiled code can be executed on this host.
func Available() bool {
	return libm.Native()
}

// native is loaded code plus its runtime state block and stack.
type native struct {
	code   []byte
	state  []byte
	stack  []byte
	top    uintptr
	budget int64
	entry  func(args uintptr) float64
}

func load(m *Module, limits eval.Limits) (*Program, executable, error) {
	addrs, err := libm.Symbols()
	if err != nil {
		return nil, nil, unavailableError(err)
	}

	state, err := mapData(stateSize)
	if err != nil {
		return nil, nil, unavailableError(err)
	}
	rt := Runtime{
		State: uintptr(unsafe.Pointer(&state[0])),
		Sin:   addrs.Sin,
		Cos:   addrs.Cos,
		Pow:   addrs.Pow,
	}
	prog, err := Generate(m, rt)
	if err != nil {
		unmap(state)
		return nil, nil, err
	}

	size := stackSize(prog, limits)
	stack, err := mapStack(int(size))
	if err != nil {
		unmap(state)
		return nil, nil, unavailableError(err)
	}
	code, err := mapCode(prog.Code)
	if err != nil {
		unmap(state)
		unmap(stack)
		return nil, nil, unavailableError(err)
	}

	n := &native{
		code:   code,
		state:  state,
		stack:  stack,
		top:    (uintptr(unsafe.Pointer(&stack[0])) + uintptr(len(stack))) &^ 15,
		budget: size - stackReserve,
	}
	purego.RegisterFunc(&n.entry, uintptr(unsafe.Pointer(&code[0])))
	return prog, n, nil
}

func (n *native) put(off int, v uint64) {
	binary.LittleEndian.PutUint64(n.state[off:], v)
}

func (n *native) run(args []float64, limits eval.Limits) (float64, int64) {
	n.put(stateDepth, 0)
	n.put(stateMaxDepth, uint64(limits.MaxDepth))
	n.put(stateAbort, abortNone)
	n.put(stateStackTop, uint64(n.top))
	n.put(stateStackBudget, uint64(n.budget))
	n.put(stateIterLimit, uint64(limits.MaxIterations))
	for i, a := range args {
		n.put(stateArgs+8*i, math.Float64bits(a))
	}

	v := n.entry(uintptr(unsafe.Pointer(&n.state[stateArgs])))
	return v, int64(binary.LittleEndian.Uint64(n.state[stateAbort:]))
}

func (n *native) base() uint64 {
	return uint64(uintptr(unsafe.Pointer(&n.code[0])))
}

func (n *native) release() error {
	return errors.Join(unmap(n.code), unmap(n.state), unmap(n.stack))
}
