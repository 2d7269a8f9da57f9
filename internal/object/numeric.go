package object

import (
	"math/big"
	"strings"
)

var (
	bigZero = big.NewInt(0)
	bigOne  = big.NewInt(1)
	bigTwo  = big.NewInt(2)
	bigFive = big.NewInt(5)
)

// floatDisplayDigits bounds the fractional digits printed for rationals
// without a finite decimal expansion.
const floatDisplayDigits = 16

func NewInteger(v int64) *Integer {
	return &Integer{Value: big.NewInt(v)}
}

// NewIntegerBig wraps a copy of v.
func NewIntegerBig(v *big.Int) *Integer {
	return &Integer{Value: new(big.Int).Set(v)}
}

// NewFloat wraps a copy of v.
func NewFloat(v *big.Rat) *Float {
	return &Float{Value: new(big.Rat).Set(v)}
}

// NewFloatFrac builds the exact rational num/den. den must not be zero.
func NewFloatFrac(num, den int64) *Float {
	return &Float{Value: big.NewRat(num, den)}
}

// Rat promotes an Integer to an exact rational.
func (i *Integer) Rat() *big.Rat {
	return new(big.Rat).SetInt(i.Value)
}

// IsNumeric reports whether v takes part in the numeric tower. Booleans count
// because they coerce to Integer.
func IsNumeric(v Value) bool {
	switch v.(type) {
	case *Integer, *Float, *Boolean:
		return true
	}
	return false
}

// CoerceInteger returns v as an Integer when it is one or a Boolean.
func CoerceInteger(v Value) (*Integer, bool) {
	switch v := v.(type) {
	case *Integer:
		return v, true
	case *Boolean:
		if v.Value {
			return &Integer{Value: bigOne}, true
		}
		return &Integer{Value: bigZero}, true
	}
	return nil, false
}

// ToRat promotes any numeric value to an exact rational.
func ToRat(v Value) (*big.Rat, bool) {
	switch v := v.(type) {
	case *Float:
		return v.Value, true
	case *Integer, *Boolean:
		i, _ := CoerceInteger(v)
		return i.Rat(), true
	}
	return nil, false
}

// CompareNumeric orders two numeric values by their promoted rational value.
func CompareNumeric(a, b Value) (int, bool) {
	if ai, ok := CoerceInteger(a); ok {
		if bi, ok := CoerceInteger(b); ok {
			return ai.Value.Cmp(bi.Value), true
		}
	}
	ar, ok := ToRat(a)
	if !ok {
		return 0, false
	}
	br, ok := ToRat(b)
	if !ok {
		return 0, false
	}
	return ar.Cmp(br), true
}

func formatRat(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String() + ".0"
	}
	if digits, ok := finiteDecimalDigits(r.Denom()); ok {
		return r.FloatString(digits)
	}
	digits := floatDisplayDigits
	s := strings.TrimRight(r.FloatString(digits), "0")
	if s == "0." || s == "-0." {
		// at most len(den)-len(num) zeros follow the point
		num := new(big.Int).Abs(r.Num())
		digits += len(r.Denom().String()) - len(num.String())
		s = strings.TrimRight(r.FloatString(digits), "0")
	}
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}

// finiteDecimalDigits returns the number of fractional digits needed to print
// 1/den exactly, if den has no prime factors besides 2 and 5.
func finiteDecimalDigits(den *big.Int) (int, bool) {
	d := new(big.Int).Set(den)
	rem := new(big.Int)
	twos, fives := 0, 0
	for {
		q, m := new(big.Int).QuoRem(d, bigTwo, rem)
		if m.Sign() != 0 {
			break
		}
		d = q
		twos++
	}
	for {
		q, m := new(big.Int).QuoRem(d, bigFive, rem)
		if m.Sign() != 0 {
			break
		}
		d = q
		fives++
	}
	if d.Cmp(bigOne) != 0 {
		return 0, false
	}
	return max(twos, fives), true
}
