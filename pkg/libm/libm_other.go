//go:build !((linux || darwin) && (amd64 || arm64))

package libm

import (
	"errors"
	"math"
)

var errUnsupported = errors.New("C math library is not supported on this platform")

// Symbols always fails on this platform.
func Symbols() (Addresses, error) {
	return Addresses{}, errUnsupported
}

func sin(x float64) float64    { return math.Sin(x) }
func cos(x float64) float64    { return math.Cos(x) }
func pow(x, y float64) float64 { return math.Pow(x, y) }
