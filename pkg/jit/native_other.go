//go:build !((linux || darwin) && amd64)

package jit

import (
	"fmt"
	"runtime"

	"github.com/zurustar/mathjit/pkg/eval"
)

// Available reports whether compiled code can be executed on this host.
func Available() bool { return false }

func load(m *Module, limits eval.Limits) (*Program, executable, error) {
	return nil, nil, unavailableError(fmt.Errorf("no native back end for %s/%s", runtime.GOOS, runtime.GOARCH))
}
