package value

import (
	"fmt"

	"pycc/internal/types"
)

// Tag is the runtime discriminant. Numbering is part of the backend contract.
type Tag uint8

const (
	TagNone  Tag = 0
	TagBool  Tag = 1
	TagInt   Tag = 2
	TagFloat Tag = 3
	TagStr   Tag = 4

	tagCount = 5
)

func (t Tag) String() string {
	switch t {
	case TagNone:
		return "None"
	case TagBool:
		return "bool"
	case TagInt:
		return "int"
	case TagFloat:
		return "float"
	case TagStr:
		return "str"
	default:
		return fmt.Sprintf("Tag(%d)", t)
	}
}

func (t Tag) Valid() bool { return t < tagCount }

// Type maps the tag onto the InferredType lattice.
func (t Tag) Type() types.Type {
	switch t {
	case TagNone:
		return types.NoneType
	case TagBool:
		return types.Bool
	case TagInt:
		return types.Int
	case TagFloat:
		return types.Float
	case TagStr:
		return types.Str
	}
	return types.Unknown
}

// TagFor returns the tag for a concrete primitive. Unknown, Dynamic and
// Function have no runtime tag.
func TagFor(t types.Type) (Tag, bool) {
	switch t {
	case types.NoneType:
		return TagNone, true
	case types.Bool:
		return TagBool, true
	case types.Int:
		return TagInt, true
	case types.Float:
		return TagFloat, true
	case types.Str:
		return TagStr, true
	}
	return 0, false
}
