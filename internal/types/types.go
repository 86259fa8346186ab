package types

import "fmt"

// Type is one point of the InferredType lattice.
type Type uint8

const (
	Unknown Type = iota
	Int
	Float
	Str
	Bool
	NoneType
	Function
	Dynamic
)

func (t Type) String() string {
	switch t {
	case Unknown:
		return "unknown"
	case Int:
		return "int"
	case Float:
		return "float"
	case Str:
		return "str"
	case Bool:
		return "bool"
	case NoneType:
		return "None"
	case Function:
		return "function"
	case Dynamic:
		return "dynamic"
	default:
		return fmt.Sprintf("Type(%d)", t)
	}
}

// ParseType is the inverse of String.
func ParseType(s string) (Type, bool) {
	for t := Unknown; t <= Dynamic; t++ {
		if t.String() == s {
			return t, true
		}
	}
	return Unknown, false
}

// IsConcrete reports whether t is a single primitive type (not Unknown/Dynamic).
func (t Type) IsConcrete() bool {
	return t >= Int && t <= Function
}

func (t Type) IsNumeric() bool {
	return t == Int || t == Float || t == Bool
}

// Height is the lattice level: 0 for Unknown, 1 for concrete types, 2 for Dynamic.
func (t Type) Height() int {
	switch {
	case t == Unknown:
		return 0
	case t == Dynamic:
		return 2
	}
	return 1
}

// ConcreteCount is the number of concrete primitive types in the lattice.
const ConcreteCount = 6
