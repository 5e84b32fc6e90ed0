package jit

import "github.com/zurustar/mathjit/pkg/eval"

// Layout of the runtime state block every compiled function addresses
// through r12. All fields are int64.
const (
	stateDepth       = 0
	stateMaxDepth    = 8
	stateAbort       = 16
	stateStackTop    = 24 // top of the dedicated stack the entry switches to
	stateStackBudget = 32
	stateIterLimit   = 40
	stateSavedRSP    = 48 // caller's rsp while the dedicated stack is in use

	// Arguments to the entry function are copied here before each call.
	stateArgs = 64

	// MaxEntryArgs bounds the arity of a compiled entry function.
	MaxEntryArgs = 64

	stateSize = 4096
)

// Abort codes written to the state block before unwinding.
const (
	abortNone      = 0
	abortRecursion = 1
	abortRange     = 2
	abortIteration = 3
)

// stackReserve stays free below the deepest checked frame for calls into
// the C math library.
const stackReserve = 64 * 1024

// frameOverhead is what a call adds besides the frame itself: return
// address and saved rbp, rbx and r12.
const frameOverhead = 32

// stackSize returns the size of the dedicated stack p runs on: the entry
// frame plus MaxDepth+1 of the largest user frame, capped at
// NativeStackBudget. The entry frame and the reserve always fit.
func stackSize(p *Program, limits eval.Limits) int64 {
	need := int64(p.EntryFrame) + int64(limits.MaxDepth+1)*int64(p.MaxFrame) + stackReserve
	if need > limits.NativeStackBudget {
		need = limits.NativeStackBudget
	}
	if floor := int64(p.EntryFrame) + 2*stackReserve; need < floor {
		need = floor
	}
	return need
}
