// Package compiler provides the front end of the expression pipeline.
// This file defines the CompileError type for structured error reporting.
package compiler

import (
	"fmt"
	"strings"
)

// CompileError represents a structured front-end error with location
// information. It wraps the lexer or parser error it was built from, so
// errors.As still reaches *lexer.LexError and *parser.ParseError.
type CompileError struct {
	// Phase indicates which phase generated the error.
	// Valid values: "lexer", "parser"
	Phase string

	// Message is the human-readable error description.
	Message string

	// Line is the 1-indexed line number where the error occurred.
	Line int

	// Column is the 1-indexed column number where the error occurred.
	Column int

	// Context contains the source code around the error location,
	// with a pointer (^) indicating the error column.
	Context string

	// Err is the underlying phase error.
	Err error
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s error at line %d, column %d: %s\n%s",
			e.Phase, e.Line, e.Column, e.Message, strings.TrimRight(e.Context, "\n"))
	}
	return fmt.Sprintf("%s error at line %d, column %d: %s",
		e.Phase, e.Line, e.Column, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// NewLexerErrorWithContext creates a CompileError for the lexer phase.
func NewLexerErrorWithContext(err error, line, column int, source string) *CompileError {
	return &CompileError{
		Phase:   "lexer",
		Message: err.Error(),
		Line:    line,
		Column:  column,
		Context: GenerateErrorContext(source, line, column),
		Err:     err,
	}
}

// NewParserErrorWithContext creates a CompileError for the parser phase.
func NewParserErrorWithContext(err error, line, column int, source string) *CompileError {
	return &CompileError{
		Phase:   "parser",
		Message: err.Error(),
		Line:    line,
		Column:  column,
		Context: GenerateErrorContext(source, line, column),
		Err:     err,
	}
}

// GenerateErrorContext generates source code context around an error location.
// It includes 2 lines before and 2 lines after the error line, with line numbers
// and a pointer (^) indicating the error column.
//
// Example output:
//
//	  1 | f(x) =
//	> 2 |   x + * 2
//	    |       ^
func GenerateErrorContext(source string, line, column int) string {
	if source == "" || line <= 0 {
		return ""
	}

	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}

	start := line - 3
	if start < 0 {
		start = 0
	}
	end := line + 2
	if end > len(lines) {
		end = len(lines)
	}

	var buf strings.Builder

	lineNumWidth := len(fmt.Sprintf("%d", end))

	for i := start; i < end; i++ {
		lineNum := i + 1
		lineContent := strings.TrimRight(lines[i], "\r")

		if lineNum == line {
			buf.WriteString(fmt.Sprintf("> %*d | %s\n", lineNumWidth, lineNum, lineContent))
			// "> " + width + " | "
			pointerIndent := 2 + lineNumWidth + 3
			if column > 0 {
				buf.WriteString(fmt.Sprintf("%s%s^\n", strings.Repeat(" ", pointerIndent), strings.Repeat(" ", column-1)))
			} else {
				buf.WriteString(fmt.Sprintf("%s^\n", strings.Repeat(" ", pointerIndent)))
			}
		} else {
			buf.WriteString(fmt.Sprintf("  %*d | %s\n", lineNumWidth, lineNum, lineContent))
		}
	}

	return buf.String()
}
