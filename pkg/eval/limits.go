package eval

const (
	// DefaultMaxDepth is the maximum user-function call depth.
	DefaultMaxDepth = 1000

	// DefaultMaxIterations bounds the iterations of a single sum.
	DefaultMaxIterations int64 = 10_000_000

	// DefaultNativeStackBudget caps, in bytes, the stack compiled code runs
	// on. The stack is sized for MaxDepth nested frames up to this cap.
	DefaultNativeStackBudget int64 = 256 << 20
)

// Limits bounds the resources one evaluation may use.
type Limits struct {
	MaxDepth          int
	MaxIterations     int64
	NativeStackBudget int64
}

// DefaultLimits returns the default execution limits.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:          DefaultMaxDepth,
		MaxIterations:     DefaultMaxIterations,
		NativeStackBudget: DefaultNativeStackBudget,
	}
}

// Normalize replaces non-positive fields with their defaults.
func (l Limits) Normalize() Limits {
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultMaxDepth
	}
	if l.MaxIterations <= 0 {
		l.MaxIterations = DefaultMaxIterations
	}
	if l.NativeStackBudget <= 0 {
		l.NativeStackBudget = DefaultNativeStackBudget
	}
	return l
}
