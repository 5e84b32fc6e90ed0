package eval

// Environment binds parameter names to values for one call frame. Frames
// never see their caller's bindings.
type Environment struct {
	variables map[string]float64
}

// Bind creates an environment for a call, binding params[i] to args[i].
// The caller guarantees len(params) == len(args).
func Bind(params []string, args []float64) *Environment {
	env := &Environment{variables: make(map[string]float64, len(params))}
	for i, name := range params {
		env.variables[name] = args[i]
	}
	return env
}

// Get retrieves a variable value by name.
func (e *Environment) Get(name string) (float64, bool) {
	if e == nil {
		return 0, false
	}
	v, ok := e.variables[name]
	return v, ok
}
