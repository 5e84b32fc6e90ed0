package lexer

import (
	"errors"
	"testing"

	"github.com/zurustar/mathjit/pkg/compiler/token"
)

func TestNextToken(t *testing.T) {
	input := `f(x, y_2) = x ^ 2.5 + .5 * (y_2 - 3.) / 10`

	tests := []struct {
		expectedType    token.TokenType
		expectedLiteral string
	}{
		{token.IDENT, "f"},
		{token.LPAREN, "("},
		{token.IDENT, "x"},
		{token.COMMA, ","},
		{token.IDENT, "y_2"},
		{token.RPAREN, ")"},
		{token.ASSIGN, "="},
		{token.IDENT, "x"},
		{token.CARET, "^"},
		{token.NUMBER, "2.5"},
		{token.PLUS, "+"},
		{token.NUMBER, ".5"},
		{token.ASTERISK, "*"},
		{token.LPAREN, "("},
		{token.IDENT, "y_2"},
		{token.MINUS, "-"},
		{token.NUMBER, "3."},
		{token.RPAREN, ")"},
		{token.SLASH, "/"},
		{token.NUMBER, "10"},
		{token.EOF, ""},
	}

	tokens, err := Tokenize(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tokens) != len(tests) {
		t.Fatalf("wrong token count. expected=%d, got=%d (%v)", len(tests), len(tokens), tokens)
	}

	for i, tt := range tests {
		tok := tokens[i]
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q", i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestTokenize_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\r\n"} {
		tokens, err := Tokenize(input)
		if err != nil {
			t.Fatalf("Tokenize(%q) unexpected error: %v", input, err)
		}
		if len(tokens) != 1 || tokens[0].Type != token.EOF {
			t.Errorf("Tokenize(%q) = %v, want single EOF", input, tokens)
		}
	}
}

func TestTokenize_NumberRuns(t *testing.T) {
	// A second decimal point starts a new number.
	tokens, err := Tokenize("1.2.3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"1.2", ".3", ""}
	if len(tokens) != len(want) {
		t.Fatalf("got %v", tokens)
	}
	for i, lit := range want {
		if tokens[i].Literal != lit {
			t.Errorf("tokens[%d] = %q, want %q", i, tokens[i].Literal, lit)
		}
	}
}

func TestTokenize_LexError(t *testing.T) {
	tests := []struct {
		input    string
		position int
		char     rune
	}{
		{"2 $ 3", 2, '$'},
		{"x % y", 2, '%'},
		{"a.b", 1, '.'},
		{"1 + λ", 4, 'λ'},
		{".", 0, '.'},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			var lexErr *LexError
			if !errors.As(err, &lexErr) {
				t.Fatalf("expected LexError, got %v", err)
			}
			if lexErr.Position != tt.position {
				t.Errorf("position = %d, want %d", lexErr.Position, tt.position)
			}
			if lexErr.Char != tt.char {
				t.Errorf("char = %q, want %q", lexErr.Char, tt.char)
			}
		})
	}
}

func TestTokenPositions(t *testing.T) {
	tokens, err := Tokenize("1 +\n  foo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		offset, line, column int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{6, 2, 3},
		{9, 2, 6},
	}
	for i, tt := range tests {
		tok := tokens[i]
		if tok.Offset != tt.offset || tok.Line != tt.line || tok.Column != tt.column {
			t.Errorf("tokens[%d] = offset %d line %d col %d, want %d/%d/%d",
				i, tok.Offset, tok.Line, tok.Column, tt.offset, tt.line, tt.column)
		}
	}
}
