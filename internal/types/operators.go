package types

import "pycc/internal/ast"

// BinaryResult describes how to derive the result type for an operator.
type BinaryResult uint8

const (
	BinaryResultUnknown BinaryResult = iota
	BinaryResultNumeric              // float if either side is float, else int
	BinaryResultFloat
	BinaryResultInt
	BinaryResultStr
	BinaryResultBool
)

// BinarySpec lists operand families and the result for one accepted combination.
type BinarySpec struct {
	Left   Set
	Right  Set
	Result BinaryResult
}

var binarySpecs = map[ast.ExprBinaryOp][]BinarySpec{
	ast.ExprBinaryAdd: {
		{Left: SetNumeric, Right: SetNumeric, Result: BinaryResultNumeric},
		{Left: SetStr, Right: SetStr, Result: BinaryResultStr},
	},
	ast.ExprBinarySub: {{Left: SetNumeric, Right: SetNumeric, Result: BinaryResultNumeric}},
	ast.ExprBinaryMul: {
		{Left: SetNumeric, Right: SetNumeric, Result: BinaryResultNumeric},
		{Left: SetStr, Right: SetIntegral, Result: BinaryResultStr},
		{Left: SetIntegral, Right: SetStr, Result: BinaryResultStr},
	},
	ast.ExprBinaryDiv:      {{Left: SetNumeric, Right: SetNumeric, Result: BinaryResultFloat}},
	ast.ExprBinaryFloorDiv: {{Left: SetNumeric, Right: SetNumeric, Result: BinaryResultNumeric}},
	ast.ExprBinaryMod:      {{Left: SetNumeric, Right: SetNumeric, Result: BinaryResultNumeric}},
	ast.ExprBinaryPow:      {{Left: SetNumeric, Right: SetNumeric, Result: BinaryResultNumeric}},
	ast.ExprBinaryBitAnd: {
		{Left: SetBool, Right: SetBool, Result: BinaryResultBool},
		{Left: SetIntegral, Right: SetIntegral, Result: BinaryResultInt},
	},
	ast.ExprBinaryBitOr: {
		{Left: SetBool, Right: SetBool, Result: BinaryResultBool},
		{Left: SetIntegral, Right: SetIntegral, Result: BinaryResultInt},
	},
	ast.ExprBinaryBitXor: {
		{Left: SetBool, Right: SetBool, Result: BinaryResultBool},
		{Left: SetIntegral, Right: SetIntegral, Result: BinaryResultInt},
	},
	ast.ExprBinaryShiftLeft:  {{Left: SetIntegral, Right: SetIntegral, Result: BinaryResultInt}},
	ast.ExprBinaryShiftRight: {{Left: SetIntegral, Right: SetIntegral, Result: BinaryResultInt}},
}

// BinarySpecs returns the accepted operand combinations for op.
// Comparisons and logical operators accept anything and have no table entry.
func BinarySpecs(op ast.ExprBinaryOp) []BinarySpec {
	return binarySpecs[op]
}

// BinaryType derives the result set of `l op r`.
func BinaryType(op ast.ExprBinaryOp, l, r Set) Set {
	switch {
	case op.IsComparison():
		return SetBool
	case op.IsLogical():
		// and/or yield one of their operands
		return l | r
	}
	if l.IsUnbounded() || r.IsUnbounded() {
		return SetUnbounded
	}
	var out Set
	for _, a := range l.Types() {
		for _, b := range r.Types() {
			out |= binaryScalar(op, a, b)
		}
	}
	return out
}

func binaryScalar(op ast.ExprBinaryOp, a, b Type) Set {
	la, rb := SetOf(a), SetOf(b)
	for _, spec := range binarySpecs[op] {
		if spec.Left&la == 0 || spec.Right&rb == 0 {
			continue
		}
		switch spec.Result {
		case BinaryResultNumeric:
			if a == Float || b == Float {
				return SetFloat
			}
			return SetInt
		case BinaryResultFloat:
			return SetFloat
		case BinaryResultInt:
			return SetInt
		case BinaryResultStr:
			return SetStr
		case BinaryResultBool:
			return SetBool
		}
	}
	return SetUnbounded
}

// UnaryType derives the result set of `op x`.
func UnaryType(op ast.ExprUnaryOp, x Set) Set {
	if op == ast.ExprUnaryNot {
		return SetBool
	}
	if x.IsUnbounded() {
		return SetUnbounded
	}
	var out Set
	for _, t := range x.Types() {
		switch {
		case t == Int || t == Bool:
			out |= SetInt
		case t == Float && op != ast.ExprUnaryInvert:
			out |= SetFloat
		default:
			out |= SetUnbounded
		}
	}
	return out
}

// Coercion is a numeric promotion the backend must emit before a binary op.
type Coercion struct {
	From Type
	To   Type
}

// BinaryCoercion reports the promotion needed when both operands are single,
// different numeric types.
func BinaryCoercion(op ast.ExprBinaryOp, l, r Set) (Coercion, bool) {
	if op.IsLogical() {
		return Coercion{}, false
	}
	a, okA := l.Single()
	b, okB := r.Single()
	if !okA || !okB || a == b || !a.IsNumeric() || !b.IsNumeric() {
		return Coercion{}, false
	}
	if numericRank(a) > numericRank(b) {
		a, b = b, a
	}
	return Coercion{From: a, To: b}, true
}

func numericRank(t Type) int {
	switch t {
	case Bool:
		return 0
	case Int:
		return 1
	}
	return 2
}
