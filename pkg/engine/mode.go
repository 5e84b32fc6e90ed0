package engine

import (
	"fmt"
	"strings"
)

// Mode selects the back end that evaluates expressions.
type Mode string

const (
	ModeInterpret Mode = "interpret"
	ModeJIT       Mode = "jit"
)

// ParseMode accepts a mode name or one of its aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "interpret", "interpreter", "i":
		return ModeInterpret, nil
	case "jit", "j":
		return ModeJIT, nil
	}
	return "", fmt.Errorf("invalid mode: %q (must be interpret or jit)", s)
}

func (m Mode) String() string { return string(m) }
