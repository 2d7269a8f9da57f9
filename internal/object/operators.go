package object

import (
	"glang/internal/token"
	"math/big"
	"strings"
)

// maxRepeatedLen caps the byte length a string repetition may produce.
const maxRepeatedLen = 1 << 30

// BinaryOp applies an infix operator. Dispatch is on the pair of operand
// kinds: numeric pairs (Booleans coerced to Integer) go through the numeric
// tower, String+String concatenates, String*Integer repeats, and every other
// combination is a TypeError naming both kinds.
func BinaryOp(op token.TokenType, left, right Value) (Value, *Exception) {
	switch {
	case IsNumeric(left) && IsNumeric(right):
		li, lok := CoerceInteger(left)
		ri, rok := CoerceInteger(right)
		if lok && rok {
			return integerOp(op, li, ri)
		}
		lr, _ := ToRat(left)
		rr, _ := ToRat(right)
		return ratOp(op, left, right, lr, rr)

	case left.Type() == STRING_OBJ && right.Type() == STRING_OBJ:
		if op == token.PLUS {
			return &String{Value: left.(*String).Value + right.(*String).Value}, nil
		}

	case left.Type() == STRING_OBJ && (right.Type() == INTEGER_OBJ || right.Type() == BOOLEAN_OBJ):
		if op == token.ASTERISK {
			count, _ := CoerceInteger(right)
			return repeatString(left.(*String), count.Value)
		}
	}
	return nil, unsupportedOperands(op, left, right)
}

// UnaryOp applies a prefix operator.
func UnaryOp(op token.TokenType, operand Value) (Value, *Exception) {
	switch op {
	case token.NOT:
		return NativeBoolToBooleanObject(!IsTruthy(operand)), nil
	case token.PLUS, token.MINUS:
		negate := op == token.MINUS
		switch v := operand.(type) {
		case *Integer, *Boolean:
			i, _ := CoerceInteger(v)
			if negate {
				return &Integer{Value: new(big.Int).Neg(i.Value)}, nil
			}
			return i, nil
		case *Float:
			if negate {
				return &Float{Value: new(big.Rat).Neg(v.Value)}, nil
			}
			return v, nil
		}
		return nil, NewException(TypeError, "bad operand type for unary %s: '%s'", op, operand.Type())
	}
	return nil, NewException(TypeError, "unknown operator: %s%s", op, operand.Type())
}

func integerOp(op token.TokenType, left, right *Integer) (Value, *Exception) {
	l, r := left.Value, right.Value

	switch op {
	case token.PLUS:
		return &Integer{Value: new(big.Int).Add(l, r)}, nil
	case token.MINUS:
		return &Integer{Value: new(big.Int).Sub(l, r)}, nil
	case token.ASTERISK:
		return &Integer{Value: new(big.Int).Mul(l, r)}, nil
	case token.SLASH:
		if r.Sign() == 0 {
			return nil, NewException(ZeroDivisionError, "division by zero")
		}
		return &Float{Value: new(big.Rat).SetFrac(l, r)}, nil
	}
	if op.IsComparison() {
		return compareResult(op, l.Cmp(r)), nil
	}
	return nil, unsupportedOperands(op, left, right)
}

func ratOp(op token.TokenType, left, right Value, l, r *big.Rat) (Value, *Exception) {
	switch op {
	case token.PLUS:
		return &Float{Value: new(big.Rat).Add(l, r)}, nil
	case token.MINUS:
		return &Float{Value: new(big.Rat).Sub(l, r)}, nil
	case token.ASTERISK:
		return &Float{Value: new(big.Rat).Mul(l, r)}, nil
	case token.SLASH:
		if r.Sign() == 0 {
			return nil, NewException(ZeroDivisionError, "division by zero")
		}
		return &Float{Value: new(big.Rat).Quo(l, r)}, nil
	}
	if op.IsComparison() {
		return compareResult(op, l.Cmp(r)), nil
	}
	return nil, unsupportedOperands(op, left, right)
}

func compareResult(op token.TokenType, cmp int) *Boolean {
	switch op {
	case token.LT:
		return NativeBoolToBooleanObject(cmp < 0)
	case token.LT_EQ:
		return NativeBoolToBooleanObject(cmp <= 0)
	case token.GT:
		return NativeBoolToBooleanObject(cmp > 0)
	case token.GT_EQ:
		return NativeBoolToBooleanObject(cmp >= 0)
	case token.EQ:
		return NativeBoolToBooleanObject(cmp == 0)
	default:
		return NativeBoolToBooleanObject(cmp != 0)
	}
}

// repeatString yields the empty string for a non-positive count.
func repeatString(s *String, count *big.Int) (Value, *Exception) {
	if count.Sign() <= 0 || s.Value == "" {
		return &String{Value: ""}, nil
	}
	if !repeatFits(len(s.Value), count) {
		return nil, NewException(GenericError, "repeated string is too large")
	}
	return &String{Value: strings.Repeat(s.Value, int(count.Int64()))}, nil
}

// repeatFits reports whether count copies of size bytes stay within
// maxRepeatedLen. size and count are positive.
func repeatFits(size int, count *big.Int) bool {
	return count.IsInt64() && count.Int64() <= int64(maxRepeatedLen/size)
}

func unsupportedOperands(op token.TokenType, left, right Value) *Exception {
	return NewException(TypeError, "unsupported operand type(s) for %s: '%s' and '%s'",
		op, left.Type(), right.Type())
}
