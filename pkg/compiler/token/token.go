// Package token defines the lexical tokens of the expression language.
package token

import "fmt"

type TokenType string

// Token is a single lexical unit with its source position.
// Offset is the 0-indexed byte offset; Line and Column are 1-indexed.
type Token struct {
	Type    TokenType
	Literal string
	Offset  int
	Line    int
	Column  int
}

const (
	EOF = "EOF"

	// Identifiers + Literals
	IDENT  = "IDENT"  // f, x_1, sqrt
	NUMBER = "NUMBER" // 12, 3.5, .5, 5.

	// Operators
	PLUS     = "+"
	MINUS    = "-"
	ASTERISK = "*"
	SLASH    = "/"
	CARET    = "^"

	// Punctuation
	LPAREN = "("
	RPAREN = ")"
	COMMA  = ","
	ASSIGN = "="
)

// Single maps each single-character token to its type.
var Single = map[byte]TokenType{
	'+': PLUS,
	'-': MINUS,
	'*': ASTERISK,
	'/': SLASH,
	'^': CARET,
	'(': LPAREN,
	')': RPAREN,
	',': COMMA,
	'=': ASSIGN,
}

// Describe returns a short human-readable name used in error messages.
func (t Token) Describe() string {
	switch t.Type {
	case EOF:
		return "end of input"
	case IDENT:
		return fmt.Sprintf("identifier %q", t.Literal)
	case NUMBER:
		return fmt.Sprintf("number %s", t.Literal)
	}
	return fmt.Sprintf("%q", t.Literal)
}

func (t Token) String() string {
	if t.Type == EOF {
		return fmt.Sprintf("%d:%d EOF", t.Line, t.Column)
	}
	return fmt.Sprintf("%d:%d %s %q", t.Line, t.Column, t.Type, t.Literal)
}
