package jit

import (
	"errors"
	"fmt"

	"github.com/zurustar/mathjit/pkg/eval"
)

// JitError is a failure raised while translating, generating or running
// native code. Type uses the same classification as eval.EvalError.
type JitError struct {
	Type    eval.ErrorType
	Message string
	Name    string
	Arity   int
	Err     error
}

// Error implements the error interface.
func (e *JitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("jit [%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("jit [%s] %s", e.Type, e.Message)
}

// ErrType returns the error classification.
func (e *JitError) ErrType() eval.ErrorType { return e.Type }

// Unwrap returns the underlying error.
func (e *JitError) Unwrap() error { return e.Err }

// NewJitError creates a new JitError.
func NewJitError(errType eval.ErrorType, message string) *JitError {
	return &JitError{Type: errType, Message: message}
}

// fromEval converts an evaluation error raised during translation.
func fromEval(err error) error {
	var ee *eval.EvalError
	if errors.As(err, &ee) {
		return &JitError{Type: ee.Type, Message: ee.Message, Name: ee.Name, Arity: ee.Arity}
	}
	return err
}

func codegenError(err error) *JitError {
	return &JitError{Type: eval.ErrorCodegenFailed, Message: "code generation failed", Err: err}
}

func unavailableError(err error) *JitError {
	return &JitError{Type: eval.ErrorNativeUnavailable, Message: "native execution unavailable", Err: err}
}
