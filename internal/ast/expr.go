package ast

import (
	"pycc/internal/source"
)

type ExprKind uint8

const (
	ExprIdent ExprKind = iota
	ExprLit
	ExprFString
	ExprBinary
	ExprUnary
	ExprCall
)

func (k ExprKind) String() string {
	switch k {
	case ExprIdent:
		return "ident"
	case ExprLit:
		return "lit"
	case ExprFString:
		return "fstring"
	case ExprBinary:
		return "binary"
	case ExprUnary:
		return "unary"
	case ExprCall:
		return "call"
	}
	return "unknown"
}

type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

type ExprIdentData struct {
	Name source.StringID
}

type ExprLitKind uint8

const (
	ExprLitInt ExprLitKind = iota
	ExprLitFloat
	ExprLitString
	ExprLitTrue
	ExprLitFalse
	ExprLitNone
	// ExprLitInvalid replaces an expression that could not be read.
	ExprLitInvalid
)

func (k ExprLitKind) String() string {
	switch k {
	case ExprLitInt:
		return "int"
	case ExprLitFloat:
		return "float"
	case ExprLitString:
		return "str"
	case ExprLitTrue:
		return "true"
	case ExprLitFalse:
		return "false"
	case ExprLitNone:
		return "none"
	case ExprLitInvalid:
		return "invalid"
	}
	return "unknown"
}

// ExprLiteralData keeps the literal's source text; strings are stored unquoted.
type ExprLiteralData struct {
	Kind  ExprLitKind
	Value source.StringID
}

// FStringPart is either literal text or an embedded expression.
type FStringPart struct {
	Text source.StringID
	Expr ExprID
}

type ExprFStringData struct {
	Parts []FStringPart
}

type ExprBinaryData struct {
	Op    ExprBinaryOp
	Left  ExprID
	Right ExprID
}

type ExprUnaryData struct {
	Op      ExprUnaryOp
	Operand ExprID
}

// ExprCallData: Callee is always an ExprIdent, calls go to plain names.
type ExprCallData struct {
	Callee ExprID
	Args   []ExprID
}
