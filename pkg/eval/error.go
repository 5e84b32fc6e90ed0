// Package eval holds the pieces both execution back ends share: the error
// taxonomy, execution limits and call-frame environments.
package eval

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of evaluation error.
type ErrorType string

const (
	ErrorUnboundVariable   ErrorType = "UNBOUND_VARIABLE"
	ErrorUndefinedFunction ErrorType = "UNDEFINED_FUNCTION"
	ErrorArityMismatch     ErrorType = "ARITY_MISMATCH"
	ErrorInvalidRange      ErrorType = "INVALID_RANGE"
	ErrorRecursionLimit    ErrorType = "RECURSION_LIMIT_EXCEEDED"
	ErrorIterationLimit    ErrorType = "ITERATION_LIMIT_EXCEEDED"

	// Only produced by the JIT.
	ErrorNativeUnavailable ErrorType = "NATIVE_UNAVAILABLE"
	ErrorCodegenFailed     ErrorType = "CODEGEN_FAILED"
)

// EvalError is a failure raised while interpreting an expression.
type EvalError struct {
	Type    ErrorType
	Message string

	// Name and Arity identify the function involved, when there is one.
	Name  string
	Arity int
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// ErrType returns the error classification.
func (e *EvalError) ErrType() ErrorType { return e.Type }

// NewEvalError creates a new EvalError.
func NewEvalError(errType ErrorType, message string) *EvalError {
	return &EvalError{Type: errType, Message: message}
}

// NewUnboundVariableError creates an unbound variable error.
func NewUnboundVariableError(name string) *EvalError {
	return &EvalError{Type: ErrorUnboundVariable, Message: fmt.Sprintf("unbound variable: %s", name), Name: name}
}

// NewUndefinedFunctionError creates an undefined function error.
func NewUndefinedFunctionError(name string, arity int) *EvalError {
	return &EvalError{
		Type:    ErrorUndefinedFunction,
		Message: fmt.Sprintf("undefined function: %s/%d", name, arity),
		Name:    name,
		Arity:   arity,
	}
}

// NewArityMismatchError creates an arity mismatch error for a built-in.
func NewArityMismatchError(name string, got int) *EvalError {
	return &EvalError{
		Type:    ErrorArityMismatch,
		Message: fmt.Sprintf("wrong number of arguments for %s: %d", name, got),
		Name:    name,
		Arity:   got,
	}
}

// NewInvalidRangeError creates an invalid sum range error.
func NewInvalidRangeError(min, max, step float64) *EvalError {
	return NewEvalError(ErrorInvalidRange,
		fmt.Sprintf("invalid sum range: min=%g max=%g step=%g", min, max, step))
}

// NewRecursionLimitError creates a recursion limit error.
func NewRecursionLimitError(limit int) *EvalError {
	return NewEvalError(ErrorRecursionLimit,
		fmt.Sprintf("recursion limit exceeded: depth exceeds maximum %d", limit))
}

// NewIterationLimitError creates a sum iteration limit error.
func NewIterationLimitError(limit int64) *EvalError {
	return NewEvalError(ErrorIterationLimit,
		fmt.Sprintf("sum iteration limit exceeded: more than %d iterations", limit))
}

// Typed is implemented by errors that carry an ErrorType.
type Typed interface {
	error
	ErrType() ErrorType
}

// TypeOf returns the ErrorType carried by err or anything it wraps, and
// false if there is none.
func TypeOf(err error) (ErrorType, bool) {
	var typed Typed
	if errors.As(err, &typed) {
		return typed.ErrType(), true
	}
	return "", false
}
