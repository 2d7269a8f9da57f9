package ast

import (
	"bytes"
	"glang/internal/token"
	"math/big"
	"strconv"
	"strings"
)

// The base Node interface
type Node interface {
	Pos() token.Position
	String() string
}

type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

// Program is the statement sequence handed over by the parser.
type Program struct {
	Statements []Statement
}

func (p *Program) Pos() token.Position {
	if len(p.Statements) > 0 {
		return p.Statements[0].Pos()
	}
	return token.Position{}
}

func (p *Program) String() string {
	var out bytes.Buffer

	for _, s := range p.Statements {
		out.WriteString(s.String())
	}

	return out.String()
}

// Block is an ordered statement sequence used as a function body.
type Block struct {
	Position   token.Position // the { token
	Statements []Statement
}

func (b *Block) Pos() token.Position { return b.Position }
func (b *Block) String() string {
	var out bytes.Buffer

	out.WriteString("{ ")
	for _, s := range b.Statements {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("}")

	return out.String()
}

// Statements

type LetStatement struct {
	Position token.Position
	Name     string
	Value    Expression
}

func (ls *LetStatement) statementNode()      {}
func (ls *LetStatement) Pos() token.Position { return ls.Position }
func (ls *LetStatement) String() string {
	return "let " + ls.Name + " = " + ls.Value.String() + ";"
}

type FunctionDeclaration struct {
	Position   token.Position
	Name       string
	Parameters []string
	Body       *Block
}

func (fd *FunctionDeclaration) statementNode()      {}
func (fd *FunctionDeclaration) Pos() token.Position { return fd.Position }
func (fd *FunctionDeclaration) String() string {
	return "fn " + fd.Name + "(" + strings.Join(fd.Parameters, ", ") + ") " + fd.Body.String()
}

// ExpressionStatement evaluates an expression and discards the result.
type ExpressionStatement struct {
	Position   token.Position
	Expression Expression
}

func (es *ExpressionStatement) statementNode()      {}
func (es *ExpressionStatement) Pos() token.Position { return es.Position }
func (es *ExpressionStatement) String() string      { return es.Expression.String() + ";" }

// ReturnStatement is a trailing expression whose value becomes the result of
// the enclosing block or run.
type ReturnStatement struct {
	Position    token.Position
	ReturnValue Expression
}

func (rs *ReturnStatement) statementNode()      {}
func (rs *ReturnStatement) Pos() token.Position { return rs.Position }
func (rs *ReturnStatement) String() string      { return rs.ReturnValue.String() }

type ImportStatement struct {
	Position token.Position
	Path     string
}

func (is *ImportStatement) statementNode()      {}
func (is *ImportStatement) Pos() token.Position { return is.Position }
func (is *ImportStatement) String() string      { return "import " + strconv.Quote(is.Path) + ";" }

// Expressions

type Identifier struct {
	Position token.Position
	Value    string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) Pos() token.Position { return i.Position }
func (i *Identifier) String() string      { return i.Value }

type NullLiteral struct {
	Position token.Position
}

func (n *NullLiteral) expressionNode()      {}
func (n *NullLiteral) Pos() token.Position { return n.Position }
func (n *NullLiteral) String() string      { return "null" }

type BooleanLiteral struct {
	Position token.Position
	Value    bool
}

func (b *BooleanLiteral) expressionNode()      {}
func (b *BooleanLiteral) Pos() token.Position { return b.Position }
func (b *BooleanLiteral) String() string      { return strconv.FormatBool(b.Value) }

type IntegerLiteral struct {
	Position token.Position
	Value    *big.Int
}

func (il *IntegerLiteral) expressionNode()      {}
func (il *IntegerLiteral) Pos() token.Position { return il.Position }
func (il *IntegerLiteral) String() string      { return il.Value.String() }

type FloatLiteral struct {
	Position token.Position
	Value    *big.Rat
}

func (fl *FloatLiteral) expressionNode()      {}
func (fl *FloatLiteral) Pos() token.Position { return fl.Position }
func (fl *FloatLiteral) String() string      { return fl.Value.RatString() }

type StringLiteral struct {
	Position token.Position
	Value    string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) Pos() token.Position { return sl.Position }
func (sl *StringLiteral) String() string      { return strconv.Quote(sl.Value) }

type VectorLiteral struct {
	Position token.Position
	Elements []Expression
}

func (vl *VectorLiteral) expressionNode()      {}
func (vl *VectorLiteral) Pos() token.Position { return vl.Position }
func (vl *VectorLiteral) String() string {
	elements := []string{}
	for _, el := range vl.Elements {
		elements = append(elements, el.String())
	}
	return "[" + strings.Join(elements, ", ") + "]"
}

type MapPair struct {
	Key   Expression
	Value Expression
}

// MapLiteral keeps its pairs in source order so keys and values are
// evaluated deterministically.
type MapLiteral struct {
	Position token.Position
	Pairs    []MapPair
}

func (ml *MapLiteral) expressionNode()      {}
func (ml *MapLiteral) Pos() token.Position { return ml.Position }
func (ml *MapLiteral) String() string {
	pairs := []string{}
	for _, pair := range ml.Pairs {
		pairs = append(pairs, pair.Key.String()+": "+pair.Value.String())
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

type PrefixExpression struct {
	Position token.Position
	Operator token.TokenType
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) Pos() token.Position { return pe.Position }
func (pe *PrefixExpression) String() string {
	var out bytes.Buffer

	out.WriteString("(")
	out.WriteString(string(pe.Operator))
	if pe.Operator == token.NOT {
		out.WriteString(" ")
	}
	out.WriteString(pe.Right.String())
	out.WriteString(")")

	return out.String()
}

type InfixExpression struct {
	Position token.Position
	Left     Expression
	Operator token.TokenType
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) Pos() token.Position { return ie.Position }
func (ie *InfixExpression) String() string {
	var out bytes.Buffer

	out.WriteString("(")
	out.WriteString(ie.Left.String())
	out.WriteString(" " + string(ie.Operator) + " ")
	out.WriteString(ie.Right.String())
	out.WriteString(")")

	return out.String()
}

type CallExpression struct {
	Position  token.Position // The '(' token
	Function  Expression
	Arguments []Expression
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) Pos() token.Position { return ce.Position }
func (ce *CallExpression) String() string {
	args := []string{}
	for _, a := range ce.Arguments {
		args = append(args, a.String())
	}
	return ce.Function.String() + "(" + strings.Join(args, ", ") + ")"
}

type IndexExpression struct {
	Position token.Position // The [ token
	Left     Expression
	Index    Expression
}

func (ie *IndexExpression) expressionNode()      {}
func (ie *IndexExpression) Pos() token.Position { return ie.Position }
func (ie *IndexExpression) String() string {
	return "(" + ie.Left.String() + "[" + ie.Index.String() + "])"
}

// AttributeExpression is member access, `object.name`.
type AttributeExpression struct {
	Position token.Position // The . token
	Object   Expression
	Name     string
}

func (ae *AttributeExpression) expressionNode()      {}
func (ae *AttributeExpression) Pos() token.Position { return ae.Position }
func (ae *AttributeExpression) String() string      { return ae.Object.String() + "." + ae.Name }

type FunctionLiteral struct {
	Position   token.Position // The 'fn' token
	Parameters []string
	Body       *Block
}

func (fl *FunctionLiteral) expressionNode()      {}
func (fl *FunctionLiteral) Pos() token.Position { return fl.Position }
func (fl *FunctionLiteral) String() string {
	return "fn(" + strings.Join(fl.Parameters, ", ") + ") " + fl.Body.String()
}
