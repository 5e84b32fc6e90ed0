// Package libm gives every back end the same sin, cos and pow. Results are
// computed by the host C math library when it can be loaded, so values
// produced by compiled code that calls the C functions directly are bit
// for bit identical to interpreted ones. Without a C library the package
// falls back to package math.
package libm

// Addresses are the entry points of the C functions, for code that calls
// them without going through Go.
type Addresses struct {
	Sin uintptr
	Cos uintptr
	Pow uintptr
}

// Sin returns the sine of the radian argument x.
func Sin(x float64) float64 { return sin(x) }

// Cos returns the cosine of the radian argument x.
func Cos(x float64) float64 { return cos(x) }

// Pow returns x**y.
func Pow(x, y float64) float64 { return pow(x, y) }

// Native reports whether the C math library is in use.
func Native() bool {
	_, err := Symbols()
	return err == nil
}
