//go:build (linux || darwin) && (amd64 || arm64)

package libm

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/ebitengine/purego"
)

func candidates() []string {
	if runtime.GOOS == "darwin" {
		return []string{"/usr/lib/libSystem.B.dylib"}
	}
	return []string{"libm.so.6", "libm.so"}
}

var lib struct {
	once  sync.Once
	addrs Addresses
	err   error

	sin func(float64) float64
	cos func(float64) float64
	pow func(float64, float64) float64
}

func load() error {
	lib.once.Do(func() {
		var handle uintptr
		var errs []error
		for _, path := range candidates() {
			h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
			if err == nil {
				handle = h
				break
			}
			errs = append(errs, err)
		}
		if handle == 0 {
			lib.err = fmt.Errorf("load C math library: %w", errors.Join(errs...))
			return
		}

		var addrs Addresses
		for name, dst := range map[string]*uintptr{"sin": &addrs.Sin, "cos": &addrs.Cos, "pow": &addrs.Pow} {
			addr, err := purego.Dlsym(handle, name)
			if err != nil {
				lib.err = fmt.Errorf("resolve %s: %w", name, err)
				return
			}
			*dst = addr
		}

		purego.RegisterFunc(&lib.sin, addrs.Sin)
		purego.RegisterFunc(&lib.cos, addrs.Cos)
		purego.RegisterFunc(&lib.pow, addrs.Pow)
		lib.addrs = addrs
	})
	return lib.err
}

// Symbols loads the C math library and returns its entry points.
func Symbols() (Addresses, error) {
	if err := load(); err != nil {
		return Addresses{}, err
	}
	return lib.addrs, nil
}

func sin(x float64) float64 {
	if load() != nil {
		return math.Sin(x)
	}
	return lib.sin(x)
}

func cos(x float64) float64 {
	if load() != nil {
		return math.Cos(x)
	}
	return lib.cos(x)
}

func pow(x, y float64) float64 {
	if load() != nil {
		return math.Pow(x, y)
	}
	return lib.pow(x, y)
}
