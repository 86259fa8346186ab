package value

import "fmt"

// ErrorCode identifies why an operation has no result.
type ErrorCode uint8

const (
	ErrTypeMismatch ErrorCode = iota + 1
	ErrDivisionByZero
	ErrNegativeShift
	ErrInvalidValue
	ErrStringTooLarge
)

func (c ErrorCode) String() string {
	switch c {
	case ErrTypeMismatch:
		return "type mismatch"
	case ErrDivisionByZero:
		return "division by zero"
	case ErrNegativeShift:
		return "negative shift count"
	case ErrInvalidValue:
		return "invalid value"
	case ErrStringTooLarge:
		return "string too large"
	}
	return fmt.Sprintf("ErrorCode(%d)", c)
}

// OpError is returned by Binary and Unary.
type OpError struct {
	Code ErrorCode
	Op   string
	Left Tag
	// Right is meaningful only for binary operators.
	Right  Tag
	Binary bool
}

func (e *OpError) Error() string {
	switch e.Code {
	case ErrDivisionByZero, ErrNegativeShift, ErrStringTooLarge:
		return fmt.Sprintf("%s in %s", e.Code, e.Op)
	}
	if e.Binary {
		return fmt.Sprintf("%s: unsupported operand types for %s: %s and %s", e.Code, e.Op, e.Left, e.Right)
	}
	return fmt.Sprintf("%s: unsupported operand type for %s: %s", e.Code, e.Op, e.Left)
}
