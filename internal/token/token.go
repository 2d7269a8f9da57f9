package token

import "fmt"

type TokenType string

const (
	ILLEGAL = "ILLEGAL"

	// Arithmetic
	PLUS     = "+"
	MINUS    = "-"
	ASTERISK = "*"
	SLASH    = "/"

	// Comparison
	LT     = "<"
	LT_EQ  = "<="
	GT     = ">"
	GT_EQ  = ">="
	EQ     = "=="
	NOT_EQ = "!="

	// Logical
	NOT = "not"
)

var prefixOperators = map[string]TokenType{
	"+":   PLUS,
	"-":   MINUS,
	"not": NOT,
	"!":   NOT,
}

var infixOperators = map[string]TokenType{
	"+":  PLUS,
	"-":  MINUS,
	"*":  ASTERISK,
	"/":  SLASH,
	"<":  LT,
	"<=": LT_EQ,
	">":  GT,
	">=": GT_EQ,
	"==": EQ,
	"!=": NOT_EQ,
}

// LookupPrefix maps the textual form of a unary operator to its token type.
func LookupPrefix(op string) (TokenType, bool) {
	tok, ok := prefixOperators[op]
	return tok, ok
}

// LookupInfix maps the textual form of a binary operator to its token type.
func LookupInfix(op string) (TokenType, bool) {
	tok, ok := infixOperators[op]
	return tok, ok
}

// IsComparison reports whether the operator produces a Boolean.
func (t TokenType) IsComparison() bool {
	switch t {
	case LT, LT_EQ, GT, GT_EQ, EQ, NOT_EQ:
		return true
	}
	return false
}

// Position is a 1-based line/column location in the source the parser read.
// The zero value means "unknown".
type Position struct {
	Line   int
	Column int
}

func (p Position) IsKnown() bool { return p.Line > 0 }

func (p Position) String() string {
	if !p.IsKnown() {
		return "?:?"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
