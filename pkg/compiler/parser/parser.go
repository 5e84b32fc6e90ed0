package parser

import (
	"fmt"
	"strconv"

	"github.com/zurustar/mathjit/pkg/compiler/ast"
	"github.com/zurustar/mathjit/pkg/compiler/token"
	"github.com/zurustar/mathjit/pkg/intrinsic"
)

// Precedence levels for operators.
const (
	_ int = iota
	LOWEST
	SUM     // + -
	PRODUCT // * /
	PREFIX  // -X
	POWER   // X ^ Y
)

var precedences = map[token.TokenType]int{
	token.PLUS:     SUM,
	token.MINUS:    SUM,
	token.ASTERISK: PRODUCT,
	token.SLASH:    PRODUCT,
	token.CARET:    POWER,
}

var binaryOperators = map[token.TokenType]ast.BinaryOperator{
	token.PLUS:     ast.Add,
	token.MINUS:    ast.Sub,
	token.ASTERISK: ast.Mul,
	token.SLASH:    ast.Div,
	token.CARET:    ast.Pow,
}

// ParseError reports a token the grammar did not allow at that point.
type ParseError struct {
	Expected string
	Found    token.Token
	Position int // byte offset of Found
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("expected %s, found %s at position %d", e.Expected, e.Found.Describe(), e.Position)
}

// Result is the outcome of parsing one line of input: exactly one of
// Definition and Expression is set.
type Result struct {
	Definition *ast.FunctionDefinition
	Expression ast.Expression
}

// IsDefinition reports whether the input was a function definition.
func (r *Result) IsDefinition() bool {
	return r.Definition != nil
}

// Parser builds an AST from a token sequence produced by the lexer.
type Parser struct {
	tokens []token.Token
	pos    int
	err    *ParseError

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// New creates a new Parser. tokens must end with an EOF token.
func New(tokens []token.Token) *Parser {
	p := &Parser{tokens: tokens}

	p.prefixParseFns = make(map[token.TokenType]prefixParseFn)
	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	p.registerInfix(token.PLUS, p.parseInfixExpression)
	p.registerInfix(token.MINUS, p.parseInfixExpression)
	p.registerInfix(token.ASTERISK, p.parseInfixExpression)
	p.registerInfix(token.SLASH, p.parseInfixExpression)
	p.registerInfix(token.CARET, p.parseInfixExpression)

	// Read two tokens to initialize curToken and peekToken
	p.nextToken()
	p.nextToken()

	return p
}

// ParseTopLevel parses one complete input, which is either a function
// definition `name(p1, ..., pn) = body` or an expression.
func (p *Parser) ParseTopLevel() (*Result, error) {
	if p.curTokenIs(token.EOF) {
		p.fail("expression", p.curToken)
		return nil, p.err
	}

	exp := p.parseExpression(LOWEST)
	if p.err != nil {
		return nil, p.err
	}

	if p.peekTokenIs(token.ASSIGN) {
		def := p.parseDefinition(exp)
		if p.err != nil {
			return nil, p.err
		}
		return &Result{Definition: def}, nil
	}

	if !p.expectPeek(token.EOF) {
		return nil, p.err
	}
	return &Result{Expression: exp}, nil
}

// parseDefinition parses the body that follows `head =`. curToken is the
// last token of head.
func (p *Parser) parseDefinition(head ast.Expression) *ast.FunctionDefinition {
	call, ok := head.(*ast.Call)
	if !ok {
		p.fail("function definition head name(param, ...) before '='", p.peekToken)
		return nil
	}

	def := &ast.FunctionDefinition{Token: call.Token, Name: call.Name}
	seen := make(map[string]bool, len(call.Arguments))
	for _, arg := range call.Arguments {
		ref, ok := arg.(*ast.VariableRef)
		if !ok {
			p.fail("parameter name", arg.Pos())
			return nil
		}
		if seen[ref.Name] {
			p.fail("distinct parameter names", ref.Token)
			return nil
		}
		seen[ref.Name] = true
		def.Parameters = append(def.Parameters, ref.Name)
	}

	if intrinsic.IsIntrinsic(def.Name) {
		p.fail("a name that is not a built-in function", call.Token)
		return nil
	}

	p.nextToken() // '='
	p.nextToken()
	if p.curTokenIs(token.EOF) {
		p.fail("expression", p.curToken)
		return nil
	}

	def.Body = p.parseExpression(LOWEST)
	if p.err != nil {
		return nil
	}
	if !p.expectPeek(token.EOF) {
		return nil
	}
	return def
}

func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError()
		return nil
	}
	leftExp := prefix()

	for p.err == nil && !p.peekTokenIs(token.EOF) && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()
		leftExp = infix(leftExp)
	}

	if p.err != nil {
		return nil
	}
	return leftExp
}

// parseIdentifier parses a variable reference, or a call when the name is
// immediately followed by '('.
func (p *Parser) parseIdentifier() ast.Expression {
	tok := p.curToken
	if !p.peekTokenIs(token.LPAREN) {
		return &ast.VariableRef{Token: tok, Name: tok.Literal}
	}

	p.nextToken()
	args := p.parseExpressionList(token.RPAREN)
	if p.err != nil {
		return nil
	}
	return &ast.Call{Token: tok, Name: tok.Literal, Arguments: args}
}

func (p *Parser) parseNumberLiteral() ast.Expression {
	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.fail("number", p.curToken)
		return nil
	}
	return &ast.NumberLiteral{Token: p.curToken, Value: value}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expression := &ast.UnaryOp{
		Token:    p.curToken,
		Operator: ast.Negate,
	}

	p.nextToken()
	expression.Operand = p.parseExpression(PREFIX)
	if expression.Operand == nil {
		return nil
	}

	return expression
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.BinaryOp{
		Token:    p.curToken,
		Operator: binaryOperators[p.curToken.Type],
		Left:     left,
	}

	precedence := p.curPrecedence()
	// ^ is right-associative
	if p.curTokenIs(token.CARET) {
		precedence--
	}
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}

	return expression
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken()

	exp := p.parseExpression(LOWEST)
	if p.err != nil {
		return nil
	}

	if !p.expectPeek(token.RPAREN) {
		return nil
	}

	return exp
}

func (p *Parser) parseExpressionList(end token.TokenType) []ast.Expression {
	list := []ast.Expression{}

	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}

	p.nextToken()
	list = append(list, p.parseExpression(LOWEST))

	for p.err == nil && p.peekTokenIs(token.COMMA) {
		p.nextToken()
		p.nextToken()
		list = append(list, p.parseExpression(LOWEST))
	}

	if p.err != nil {
		return nil
	}
	if !p.peekTokenIs(end) {
		p.fail(fmt.Sprintf("',' or '%s'", end), p.peekToken)
		return nil
	}
	p.nextToken()

	return list
}

// Helper functions
func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	if p.pos < len(p.tokens) {
		p.peekToken = p.tokens[p.pos]
		p.pos++
		return
	}
	// Past the end: keep yielding EOF at the last known position.
	last := p.curToken
	p.peekToken = token.Token{Type: token.EOF, Offset: last.Offset + len(last.Literal), Line: last.Line, Column: last.Column + len(last.Literal)}
}

func (p *Parser) peekPrecedence() int {
	if p, ok := precedences[p.peekToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if p, ok := precedences[p.curToken.Type]; ok {
		return p
	}
	return LOWEST
}

func (p *Parser) peekError(t token.TokenType) {
	switch t {
	case token.EOF:
		p.fail("end of input", p.peekToken)
	default:
		p.fail(fmt.Sprintf("'%s'", t), p.peekToken)
	}
}

func (p *Parser) noPrefixParseFnError() {
	p.fail("expression", p.curToken)
}

// fail records the first error; later errors are consequences of it.
func (p *Parser) fail(expected string, found token.Token) {
	if p.err != nil {
		return
	}
	p.err = &ParseError{Expected: expected, Found: found, Position: found.Offset}
}

func (p *Parser) registerPrefix(tokenType token.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType token.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}
