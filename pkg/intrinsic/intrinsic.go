// Package intrinsic holds the fixed set of built-in functions shared by the
// parser, the interpreter and the JIT.
package intrinsic

import (
	"math"
	"slices"
	"sort"

	"github.com/zurustar/mathjit/pkg/libm"
)

// Kind identifies a built-in function.
type Kind int

const (
	Pi Kind = iota
	Sqrt
	Sin
	Cos
	Sum
)

// SumTargetName is the pseudo name reported when the three-argument sum
// form finds no unary user function to iterate.
const SumTargetName = "<sum target>"

// Intrinsic describes one built-in function.
type Intrinsic struct {
	Name    string
	Kind    Kind
	Arities []int

	// Unary is the Go implementation of sqrt, sin and cos.
	Unary func(float64) float64
}

// AcceptsArity reports whether the intrinsic can be called with n arguments.
func (in *Intrinsic) AcceptsArity(n int) bool {
	return slices.Contains(in.Arities, n)
}

var registry = map[string]*Intrinsic{}

func register(in *Intrinsic) {
	registry[in.Name] = in
}

func init() {
	register(&Intrinsic{Name: "pi", Kind: Pi, Arities: []int{0}})
	register(&Intrinsic{Name: "sqrt", Kind: Sqrt, Arities: []int{1}, Unary: math.Sqrt})
	register(&Intrinsic{Name: "sin", Kind: Sin, Arities: []int{1}, Unary: libm.Sin})
	register(&Intrinsic{Name: "cos", Kind: Cos, Arities: []int{1}, Unary: libm.Cos})
	// sum(min, max, step) or sum(f, min, max, step)
	register(&Intrinsic{Name: "sum", Kind: Sum, Arities: []int{3, 4}})
}

// Lookup returns the intrinsic with the given name.
func Lookup(name string) (*Intrinsic, bool) {
	in, ok := registry[name]
	return in, ok
}

// IsIntrinsic reports whether name is reserved for a built-in function.
func IsIntrinsic(name string) bool {
	_, ok := registry[name]
	return ok
}

// Names returns the built-in function names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
