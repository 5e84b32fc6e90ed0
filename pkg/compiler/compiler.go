// Package compiler provides the front end of the expression pipeline.
// It turns one line of source text into either a function definition or an
// expression tree:
// 1. Normalize: full-width characters are folded to ASCII
// 2. Lexer: Tokenization
// 3. Parser: AST generation
package compiler

import (
	"errors"

	"golang.org/x/text/width"

	"github.com/zurustar/mathjit/pkg/compiler/lexer"
	"github.com/zurustar/mathjit/pkg/compiler/parser"
	"github.com/zurustar/mathjit/pkg/compiler/token"
)

// Result is a parsed input together with the text and tokens it came from.
type Result struct {
	Source string
	Tokens []token.Token
	*parser.Result
}

// Normalize folds full-width forms (as typed with an East Asian input
// method) to their ASCII equivalents.
func Normalize(source string) string {
	return width.Narrow.String(source)
}

// Tokenize normalizes and tokenizes source.
func Tokenize(source string) ([]token.Token, error) {
	source = Normalize(source)
	tokens, err := lexer.Tokenize(source)
	if err != nil {
		var le *lexer.LexError
		if errors.As(err, &le) {
			return nil, NewLexerErrorWithContext(le, le.Line, le.Column, source)
		}
		return nil, err
	}
	return tokens, nil
}

// Parse runs the lexer → parser pipeline over one input.
func Parse(source string) (*Result, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}

	normalized := Normalize(source)
	p := parser.New(tokens)
	res, err := p.ParseTopLevel()
	if err != nil {
		var pe *parser.ParseError
		if errors.As(err, &pe) {
			return nil, NewParserErrorWithContext(pe, pe.Found.Line, pe.Found.Column, normalized)
		}
		return nil, err
	}

	return &Result{Source: normalized, Tokens: tokens, Result: res}, nil
}
