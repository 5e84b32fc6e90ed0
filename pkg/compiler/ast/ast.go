package ast

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/zurustar/mathjit/pkg/compiler/token"
)

type Node interface {
	TokenLiteral() string
	String() string
}

type Expression interface {
	Node
	expressionNode()
	// Pos returns the token the node was built from.
	Pos() token.Token
}

type UnaryOperator string

const (
	Negate UnaryOperator = "-"
)

type BinaryOperator string

const (
	Add BinaryOperator = "+"
	Sub BinaryOperator = "-"
	Mul BinaryOperator = "*"
	Div BinaryOperator = "/"
	Pow BinaryOperator = "^"
)

// NumberLiteral
type NumberLiteral struct {
	Token token.Token
	Value float64
}

func (nl *NumberLiteral) expressionNode()      {}
func (nl *NumberLiteral) Pos() token.Token     { return nl.Token }
func (nl *NumberLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NumberLiteral) String() string       { return FormatNumber(nl.Value) }

// VariableRef is a bare identifier. Inside a function body it must name
// one of the parameters.
type VariableRef struct {
	Token token.Token // token.IDENT
	Name  string
}

func (vr *VariableRef) expressionNode()      {}
func (vr *VariableRef) Pos() token.Token     { return vr.Token }
func (vr *VariableRef) TokenLiteral() string { return vr.Token.Literal }
func (vr *VariableRef) String() string       { return vr.Name }

// UnaryOp
type UnaryOp struct {
	Token    token.Token // the prefix token, e.g. -
	Operator UnaryOperator
	Operand  Expression
}

func (uo *UnaryOp) expressionNode()      {}
func (uo *UnaryOp) Pos() token.Token     { return uo.Token }
func (uo *UnaryOp) TokenLiteral() string { return uo.Token.Literal }
func (uo *UnaryOp) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(string(uo.Operator))
	out.WriteString(uo.Operand.String())
	out.WriteString(")")
	return out.String()
}

// BinaryOp
type BinaryOp struct {
	Token    token.Token // the operator token
	Operator BinaryOperator
	Left     Expression
	Right    Expression
}

func (bo *BinaryOp) expressionNode()      {}
func (bo *BinaryOp) Pos() token.Token     { return bo.Token }
func (bo *BinaryOp) TokenLiteral() string { return bo.Token.Literal }
func (bo *BinaryOp) String() string {
	var out bytes.Buffer
	out.WriteString("(")
	out.WriteString(bo.Left.String())
	out.WriteString(" " + string(bo.Operator) + " ")
	out.WriteString(bo.Right.String())
	out.WriteString(")")
	return out.String()
}

// Call names either a user function or an intrinsic. Which one is decided
// when the call is evaluated or compiled.
type Call struct {
	Token     token.Token // the function name token
	Name      string
	Arguments []Expression
}

func (c *Call) expressionNode()      {}
func (c *Call) Pos() token.Token     { return c.Token }
func (c *Call) TokenLiteral() string { return c.Token.Literal }
func (c *Call) String() string {
	var out bytes.Buffer

	args := []string{}
	for _, a := range c.Arguments {
		args = append(args, a.String())
	}

	out.WriteString(c.Name)
	out.WriteString("(")
	out.WriteString(strings.Join(args, ", "))
	out.WriteString(")")

	return out.String()
}

// FunctionDefinition is the result of parsing `name(p1, ..., pn) = body`.
type FunctionDefinition struct {
	Token      token.Token // the function name token
	Name       string
	Parameters []string
	Body       Expression
}

// Arity returns the number of parameters.
func (fd *FunctionDefinition) Arity() int { return len(fd.Parameters) }

func (fd *FunctionDefinition) TokenLiteral() string { return fd.Token.Literal }
func (fd *FunctionDefinition) String() string {
	var out bytes.Buffer
	out.WriteString(fd.Name)
	out.WriteString("(")
	out.WriteString(strings.Join(fd.Parameters, ", "))
	out.WriteString(") = ")
	if fd.Body != nil {
		out.WriteString(fd.Body.String())
	}
	return out.String()
}

// FormatNumber prints a literal value in a form the lexer accepts back.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
