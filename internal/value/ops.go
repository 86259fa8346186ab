package value

import (
	"bytes"
	"math"

	"pycc/internal/ast"
)

func binErr(code ErrorCode, op ast.ExprBinaryOp, l, r TaggedValue) *OpError {
	return &OpError{Code: code, Op: op.String(), Left: l.tag, Right: r.tag, Binary: true}
}

func isIntegral(v TaggedValue) bool { return v.tag == TagInt || v.tag == TagBool }

func isNumeric(v TaggedValue) bool { return isIntegral(v) || v.tag == TagFloat }

// intOf reads Int or Bool as int64.
func intOf(v TaggedValue) int64 {
	if v.tag == TagBool {
		return int64(v.bits) // #nosec G115 -- 0 or 1
	}
	n, _ := v.AsInt()
	return n
}

func floatOf(v TaggedValue) float64 {
	if v.tag == TagFloat {
		f, _ := v.AsFloat()
		return f
	}
	return float64(intOf(v))
}

// Binary evaluates `l op r`. Strings produced by the operation are added to pool.
func Binary(pool *StrPool, op ast.ExprBinaryOp, l, r TaggedValue) (TaggedValue, error) {
	if !l.tag.Valid() || !r.tag.Valid() {
		return TaggedValue{}, binErr(ErrInvalidValue, op, l, r)
	}
	switch {
	case op == ast.ExprBinaryLogicalAnd:
		if !l.Truthy(pool) {
			return l, nil
		}
		return r, nil
	case op == ast.ExprBinaryLogicalOr:
		if l.Truthy(pool) {
			return l, nil
		}
		return r, nil
	case op.IsComparison():
		return compare(pool, op, l, r)
	case op.IsBitwise():
		return bitwise(op, l, r)
	}

	switch {
	case isNumeric(l) && isNumeric(r):
		return arith(op, l, r)
	case op == ast.ExprBinaryAdd && l.tag == TagStr && r.tag == TagStr:
		a, _ := l.AsStr()
		b, _ := r.AsStr()
		if !pool.Fits(uint64(pool.Len(a)) + uint64(pool.Len(b))) {
			return TaggedValue{}, binErr(ErrStringTooLarge, op, l, r)
		}
		joined := make([]byte, 0, pool.Len(a)+pool.Len(b))
		ab, _ := pool.Bytes(a)
		bb, _ := pool.Bytes(b)
		joined = append(append(joined, ab...), bb...)
		return MakeStr(pool.AddBytes(joined)), nil
	case op == ast.ExprBinaryMul && l.tag == TagStr && isIntegral(r):
		return repeat(pool, op, l, r, intOf(r))
	case op == ast.ExprBinaryMul && isIntegral(l) && r.tag == TagStr:
		return repeat(pool, op, l, r, intOf(l))
	}
	return TaggedValue{}, binErr(ErrTypeMismatch, op, l, r)
}

// repeat evaluates str * n; l and r are the original operands for errors.
func repeat(pool *StrPool, op ast.ExprBinaryOp, l, r TaggedValue, n int64) (TaggedValue, error) {
	s := l
	if r.tag == TagStr {
		s = r
	}
	ref, _ := s.AsStr()
	b, _ := pool.Bytes(ref)
	if n <= 0 || len(b) == 0 {
		return MakeStr(0), nil
	}
	// len(b)*n without overflow
	if uint64(n) > math.MaxUint32/uint64(len(b)) || !pool.Fits(uint64(len(b))*uint64(n)) {
		return TaggedValue{}, binErr(ErrStringTooLarge, op, l, r)
	}
	return MakeStr(pool.AddBytes(bytes.Repeat(b, int(n)))), nil
}

func arith(op ast.ExprBinaryOp, l, r TaggedValue) (TaggedValue, error) {
	if op == ast.ExprBinaryDiv {
		d := floatOf(r)
		if d == 0 {
			return TaggedValue{}, binErr(ErrDivisionByZero, op, l, r)
		}
		return MakeFloat(floatOf(l) / d), nil
	}
	if l.tag == TagFloat || r.tag == TagFloat {
		return floatArith(op, l, r)
	}
	a, b := intOf(l), intOf(r)
	switch op {
	case ast.ExprBinaryAdd:
		return MakeInt(a + b), nil
	case ast.ExprBinarySub:
		return MakeInt(a - b), nil
	case ast.ExprBinaryMul:
		return MakeInt(a * b), nil
	case ast.ExprBinaryFloorDiv, ast.ExprBinaryMod:
		if b == 0 {
			return TaggedValue{}, binErr(ErrDivisionByZero, op, l, r)
		}
		q, m := a/b, a%b
		// округление к минус бесконечности, как в Python
		if m != 0 && (m < 0) != (b < 0) {
			q--
			m += b
		}
		if op == ast.ExprBinaryFloorDiv {
			return MakeInt(q), nil
		}
		return MakeInt(m), nil
	case ast.ExprBinaryPow:
		if b < 0 {
			if a == 0 {
				return TaggedValue{}, binErr(ErrDivisionByZero, op, l, r)
			}
			return MakeInt(int64(math.Pow(float64(a), float64(b)))), nil
		}
		return MakeInt(ipow(a, b)), nil
	}
	return TaggedValue{}, binErr(ErrTypeMismatch, op, l, r)
}

func ipow(base, exp int64) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

func floatArith(op ast.ExprBinaryOp, l, r TaggedValue) (TaggedValue, error) {
	a, b := floatOf(l), floatOf(r)
	switch op {
	case ast.ExprBinaryAdd:
		return MakeFloat(a + b), nil
	case ast.ExprBinarySub:
		return MakeFloat(a - b), nil
	case ast.ExprBinaryMul:
		return MakeFloat(a * b), nil
	case ast.ExprBinaryFloorDiv:
		if b == 0 {
			return TaggedValue{}, binErr(ErrDivisionByZero, op, l, r)
		}
		return MakeFloat(math.Floor(a / b)), nil
	case ast.ExprBinaryMod:
		if b == 0 {
			return TaggedValue{}, binErr(ErrDivisionByZero, op, l, r)
		}
		m := math.Mod(a, b)
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return MakeFloat(m), nil
	case ast.ExprBinaryPow:
		return MakeFloat(math.Pow(a, b)), nil
	}
	return TaggedValue{}, binErr(ErrTypeMismatch, op, l, r)
}

func compare(pool *StrPool, op ast.ExprBinaryOp, l, r TaggedValue) (TaggedValue, error) {
	var cmp int
	switch {
	case isNumeric(l) && isNumeric(r):
		if l.tag == TagFloat || r.tag == TagFloat {
			a, b := floatOf(l), floatOf(r)
			switch {
			case a < b:
				cmp = -1
			case a > b:
				cmp = 1
			case a != b:
				// NaN: ordered comparisons and == are false
				return MakeBool(op == ast.ExprBinaryNotEq), nil
			}
		} else {
			a, b := intOf(l), intOf(r)
			switch {
			case a < b:
				cmp = -1
			case a > b:
				cmp = 1
			}
		}
	case l.tag == TagStr && r.tag == TagStr:
		a, _ := l.AsStr()
		b, _ := r.AsStr()
		ab, _ := pool.Bytes(a)
		bb, _ := pool.Bytes(b)
		cmp = bytes.Compare(ab, bb)
	case l.tag == TagNone && r.tag == TagNone:
		cmp = 0
	default:
		// разные типы: равенство определено, порядок нет
		switch op {
		case ast.ExprBinaryEq:
			return MakeBool(false), nil
		case ast.ExprBinaryNotEq:
			return MakeBool(true), nil
		}
		return TaggedValue{}, binErr(ErrTypeMismatch, op, l, r)
	}
	if l.tag == TagNone && op != ast.ExprBinaryEq && op != ast.ExprBinaryNotEq {
		return TaggedValue{}, binErr(ErrTypeMismatch, op, l, r)
	}
	switch op {
	case ast.ExprBinaryEq:
		return MakeBool(cmp == 0), nil
	case ast.ExprBinaryNotEq:
		return MakeBool(cmp != 0), nil
	case ast.ExprBinaryLess:
		return MakeBool(cmp < 0), nil
	case ast.ExprBinaryLessEq:
		return MakeBool(cmp <= 0), nil
	case ast.ExprBinaryGreater:
		return MakeBool(cmp > 0), nil
	case ast.ExprBinaryGreaterEq:
		return MakeBool(cmp >= 0), nil
	}
	return TaggedValue{}, binErr(ErrTypeMismatch, op, l, r)
}

func bitwise(op ast.ExprBinaryOp, l, r TaggedValue) (TaggedValue, error) {
	if !isIntegral(l) || !isIntegral(r) {
		return TaggedValue{}, binErr(ErrTypeMismatch, op, l, r)
	}
	if l.tag == TagBool && r.tag == TagBool && !op.IsShift() {
		a, b := l.bits != 0, r.bits != 0
		switch op {
		case ast.ExprBinaryBitAnd:
			return MakeBool(a && b), nil
		case ast.ExprBinaryBitOr:
			return MakeBool(a || b), nil
		case ast.ExprBinaryBitXor:
			return MakeBool(a != b), nil
		}
	}
	a, b := intOf(l), intOf(r)
	switch op {
	case ast.ExprBinaryBitAnd:
		return MakeInt(a & b), nil
	case ast.ExprBinaryBitOr:
		return MakeInt(a | b), nil
	case ast.ExprBinaryBitXor:
		return MakeInt(a ^ b), nil
	case ast.ExprBinaryShiftLeft, ast.ExprBinaryShiftRight:
		if b < 0 {
			return TaggedValue{}, binErr(ErrNegativeShift, op, l, r)
		}
		if b > 63 {
			b = 63
			if op == ast.ExprBinaryShiftLeft {
				return MakeInt(0), nil
			}
		}
		if op == ast.ExprBinaryShiftLeft {
			return MakeInt(a << uint(b)), nil
		}
		return MakeInt(a >> uint(b)), nil
	}
	return TaggedValue{}, binErr(ErrTypeMismatch, op, l, r)
}

// Unary evaluates `op x`.
func Unary(pool *StrPool, op ast.ExprUnaryOp, x TaggedValue) (TaggedValue, error) {
	fail := func(code ErrorCode) (TaggedValue, error) {
		return TaggedValue{}, &OpError{Code: code, Op: op.String(), Left: x.tag}
	}
	if !x.tag.Valid() {
		return fail(ErrInvalidValue)
	}
	switch op {
	case ast.ExprUnaryNot:
		return MakeBool(!x.Truthy(pool)), nil
	case ast.ExprUnaryPlus, ast.ExprUnaryMinus:
		switch {
		case x.tag == TagFloat:
			f, _ := x.AsFloat()
			if op == ast.ExprUnaryMinus {
				f = -f
			}
			return MakeFloat(f), nil
		case isIntegral(x):
			n := intOf(x)
			if op == ast.ExprUnaryMinus {
				n = -n
			}
			return MakeInt(n), nil
		}
	case ast.ExprUnaryInvert:
		if isIntegral(x) {
			return MakeInt(^intOf(x)), nil
		}
	}
	return fail(ErrTypeMismatch)
}
