package jit

import (
	"fmt"
	"sync"

	"github.com/zurustar/mathjit/pkg/eval"
)

// executable is loaded machine code.
type executable interface {
	run(args []float64, limits eval.Limits) (value float64, abort int64)
	base() uint64
	release() error
}

// Artifact is an executable compiled module. It owns its native memory
// until Close. Calls are serialised because the runtime state block is
// shared by every call.
type Artifact struct {
	mu     sync.Mutex
	module *Module
	prog   *Program
	exe    executable
	limits eval.Limits
	closed bool
}

// Arity returns the number of arguments Call expects.
func (a *Artifact) Arity() int {
	return len(a.module.Functions[0].Params)
}

// IR returns the textual IR of the compiled module.
func (a *Artifact) IR() string {
	return a.module.String()
}

// Disassembly returns the Intel syntax listing of the loaded code.
func (a *Artifact) Disassembly() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	var base uint64
	if !a.closed {
		base = a.exe.base()
	}
	text, err := a.prog.Disassemble(base)
	if err != nil {
		return text + fmt.Sprintf("; %v\n", err)
	}
	return text
}

// CodeSize returns the machine code size in bytes.
func (a *Artifact) CodeSize() int {
	return len(a.prog.Code)
}

// Call runs the entry function.
func (a *Artifact) Call(args ...float64) (float64, error) {
	if len(args) != a.Arity() {
		return 0, fromEval(eval.NewArityMismatchError(EntryName, len(args)))
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return 0, NewJitError(eval.ErrorNativeUnavailable, "artifact is closed")
	}

	v, abort := a.exe.run(args, a.limits)
	switch abort {
	case abortNone:
		return v, nil
	case abortRecursion:
		return 0, fromEval(eval.NewRecursionLimitError(a.limits.MaxDepth))
	case abortRange:
		return 0, NewJitError(eval.ErrorInvalidRange, "invalid sum range")
	case abortIteration:
		return 0, fromEval(eval.NewIterationLimitError(a.limits.MaxIterations))
	}
	return 0, NewJitError(eval.ErrorCodegenFailed, fmt.Sprintf("unknown abort code %d", abort))
}

// Close releases the native memory. Further calls fail.
func (a *Artifact) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return a.exe.release()
}
