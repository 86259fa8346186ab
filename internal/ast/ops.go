package ast

type ExprBinaryOp uint8

const (
	ExprBinaryAdd ExprBinaryOp = iota
	ExprBinarySub
	ExprBinaryMul
	ExprBinaryDiv
	ExprBinaryFloorDiv
	ExprBinaryMod
	ExprBinaryPow
	ExprBinaryEq
	ExprBinaryNotEq
	ExprBinaryLess
	ExprBinaryLessEq
	ExprBinaryGreater
	ExprBinaryGreaterEq
	ExprBinaryLogicalAnd
	ExprBinaryLogicalOr
	ExprBinaryBitAnd
	ExprBinaryBitOr
	ExprBinaryBitXor
	ExprBinaryShiftLeft
	ExprBinaryShiftRight
)

var binaryOpText = [...]string{
	ExprBinaryAdd:        "+",
	ExprBinarySub:        "-",
	ExprBinaryMul:        "*",
	ExprBinaryDiv:        "/",
	ExprBinaryFloorDiv:   "//",
	ExprBinaryMod:        "%",
	ExprBinaryPow:        "**",
	ExprBinaryEq:         "==",
	ExprBinaryNotEq:      "!=",
	ExprBinaryLess:       "<",
	ExprBinaryLessEq:     "<=",
	ExprBinaryGreater:    ">",
	ExprBinaryGreaterEq:  ">=",
	ExprBinaryLogicalAnd: "and",
	ExprBinaryLogicalOr:  "or",
	ExprBinaryBitAnd:     "&",
	ExprBinaryBitOr:      "|",
	ExprBinaryBitXor:     "^",
	ExprBinaryShiftLeft:  "<<",
	ExprBinaryShiftRight: ">>",
}

func (op ExprBinaryOp) String() string {
	if int(op) < len(binaryOpText) {
		return binaryOpText[op]
	}
	return "?"
}

// ParseBinaryOp maps operator text back to the enum.
func ParseBinaryOp(s string) (ExprBinaryOp, bool) {
	for i, text := range binaryOpText {
		if text == s {
			return ExprBinaryOp(i), true // #nosec G115 -- table is tiny
		}
	}
	return 0, false
}

func (op ExprBinaryOp) IsComparison() bool {
	return op >= ExprBinaryEq && op <= ExprBinaryGreaterEq
}

func (op ExprBinaryOp) IsLogical() bool {
	return op == ExprBinaryLogicalAnd || op == ExprBinaryLogicalOr
}

func (op ExprBinaryOp) IsBitwise() bool {
	return op >= ExprBinaryBitAnd && op <= ExprBinaryShiftRight
}

func (op ExprBinaryOp) IsShift() bool {
	return op == ExprBinaryShiftLeft || op == ExprBinaryShiftRight
}

type ExprUnaryOp uint8

const (
	ExprUnaryPlus ExprUnaryOp = iota
	ExprUnaryMinus
	ExprUnaryNot
	ExprUnaryInvert
)

var unaryOpText = [...]string{
	ExprUnaryPlus:   "+",
	ExprUnaryMinus:  "-",
	ExprUnaryNot:    "not",
	ExprUnaryInvert: "~",
}

func (op ExprUnaryOp) String() string {
	if int(op) < len(unaryOpText) {
		return unaryOpText[op]
	}
	return "?"
}

func ParseUnaryOp(s string) (ExprUnaryOp, bool) {
	for i, text := range unaryOpText {
		if text == s {
			return ExprUnaryOp(i), true // #nosec G115 -- table is tiny
		}
	}
	return 0, false
}

// AssignOp distinguishes plain `=` from augmented forms like `+=`.
type AssignOp uint8

const (
	AssignPlain AssignOp = iota
	AssignAdd
	AssignSub
	AssignMul
	AssignDiv
	AssignFloorDiv
	AssignMod
	AssignPow
)

var assignOpText = [...]string{
	AssignPlain:    "=",
	AssignAdd:      "+=",
	AssignSub:      "-=",
	AssignMul:      "*=",
	AssignDiv:      "/=",
	AssignFloorDiv: "//=",
	AssignMod:      "%=",
	AssignPow:      "**=",
}

func (op AssignOp) String() string {
	if int(op) < len(assignOpText) {
		return assignOpText[op]
	}
	return "?"
}

func ParseAssignOp(s string) (AssignOp, bool) {
	for i, text := range assignOpText {
		if text == s {
			return AssignOp(i), true // #nosec G115 -- table is tiny
		}
	}
	return 0, false
}

// BinaryOp returns the operator an augmented assignment applies.
func (op AssignOp) BinaryOp() (ExprBinaryOp, bool) {
	switch op {
	case AssignAdd:
		return ExprBinaryAdd, true
	case AssignSub:
		return ExprBinarySub, true
	case AssignMul:
		return ExprBinaryMul, true
	case AssignDiv:
		return ExprBinaryDiv, true
	case AssignFloorDiv:
		return ExprBinaryFloorDiv, true
	case AssignMod:
		return ExprBinaryMod, true
	case AssignPow:
		return ExprBinaryPow, true
	}
	return 0, false
}
