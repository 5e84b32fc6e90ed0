package lexer

import (
	"fmt"
	"unicode/utf8"

	"github.com/zurustar/mathjit/pkg/compiler/token"
)

// LexError reports a character that does not start any token.
type LexError struct {
	Position int  // 0-indexed byte offset
	Line     int  // 1-indexed
	Column   int  // 1-indexed
	Char     rune // offending character
}

func (e *LexError) Error() string {
	return fmt.Sprintf("unexpected character %q at position %d", e.Char, e.Position)
}

// Lexer tokenizes expression source text.
type Lexer struct {
	input        string
	position     int  // current position in input
	readPosition int  // current reading position (after current char)
	ch           byte // current char
	line         int  // current line number
	column       int  // current column number
}

// New creates a new Lexer.
func New(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// Tokenize scans the whole input. The result always ends with exactly one
// EOF token.
func Tokenize(input string) ([]token.Token, error) {
	l := New(input)
	var tokens []token.Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens, nil
		}
	}
}

// NextToken returns the next token. Once the input is exhausted every call
// returns EOF.
func (l *Lexer) NextToken() (token.Token, error) {
	l.skipWhitespace()

	tok := token.Token{Offset: l.position, Line: l.line, Column: l.column}

	if l.ch == 0 && l.position >= len(l.input) {
		tok.Type = token.EOF
		return tok, nil
	}

	if tt, ok := token.Single[l.ch]; ok {
		tok.Type = tt
		tok.Literal = string(l.ch)
		l.readChar()
		return tok, nil
	}

	switch {
	case isLetter(l.ch):
		tok.Type = token.IDENT
		tok.Literal = l.readIdentifier()
		return tok, nil
	case isDigit(l.ch), l.ch == '.' && isDigit(l.peekChar()):
		tok.Type = token.NUMBER
		tok.Literal = l.readNumber()
		return tok, nil
	}

	r, _ := utf8.DecodeRuneInString(l.input[l.position:])
	return tok, &LexError{Position: l.position, Line: l.line, Column: l.column, Char: r}
}

// readChar reads the next character.
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	if l.readPosition <= len(l.input) {
		l.readPosition++
	}
	l.column++

	if l.position > 0 && l.position <= len(l.input) && l.input[l.position-1] == '\n' {
		l.line++
		l.column = 1
	}
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// readIdentifier reads an identifier.
func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads a run of digits containing at most one decimal point.
func (l *Lexer) readNumber() string {
	position := l.position
	seenDot := false
	for isDigit(l.ch) || (l.ch == '.' && !seenDot) {
		if l.ch == '.' {
			seenDot = true
		}
		l.readChar()
	}
	return l.input[position:l.position]
}

// skipWhitespace skips whitespace characters.
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// isLetter checks if a character can start an identifier.
func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

// isDigit checks if a character is a digit.
func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
