package value

import (
	"math"
	"strconv"
	"strings"
)

// TaggedValue is a discriminant plus a 64-bit payload word.
type TaggedValue struct {
	tag  Tag
	bits uint64
}

func MakeNone() TaggedValue { return TaggedValue{tag: TagNone} }

func MakeBool(b bool) TaggedValue {
	v := TaggedValue{tag: TagBool}
	if b {
		v.bits = 1
	}
	return v
}

func MakeInt(n int64) TaggedValue {
	return TaggedValue{tag: TagInt, bits: uint64(n)} // #nosec G115 -- two's complement storage
}

func MakeFloat(f float64) TaggedValue {
	return TaggedValue{tag: TagFloat, bits: math.Float64bits(f)}
}

func MakeStr(ref StrRef) TaggedValue {
	return TaggedValue{tag: TagStr, bits: uint64(ref)}
}

func (v TaggedValue) Tag() Tag { return v.tag }

// Bits returns the raw payload word.
func (v TaggedValue) Bits() uint64 { return v.bits }

func (v TaggedValue) AsBool() (bool, bool) {
	return v.bits != 0, v.tag == TagBool
}

func (v TaggedValue) AsInt() (int64, bool) {
	return int64(v.bits), v.tag == TagInt // #nosec G115 -- two's complement storage
}

func (v TaggedValue) AsFloat() (float64, bool) {
	return math.Float64frombits(v.bits), v.tag == TagFloat
}

func (v TaggedValue) AsStr() (StrRef, bool) {
	return StrRef(v.bits), v.tag == TagStr // #nosec G115 -- constructed from StrRef
}

// Truthy applies Python truthiness.
func (v TaggedValue) Truthy(pool *StrPool) bool {
	switch v.tag {
	case TagBool, TagInt:
		return v.bits != 0
	case TagFloat:
		f, _ := v.AsFloat()
		return f != 0
	case TagStr:
		ref, _ := v.AsStr()
		return pool.Len(ref) > 0
	}
	return false
}

// Format renders v the way print does.
func (v TaggedValue) Format(pool *StrPool) string {
	switch v.tag {
	case TagNone:
		return "None"
	case TagBool:
		if v.bits != 0 {
			return "True"
		}
		return "False"
	case TagInt:
		n, _ := v.AsInt()
		return strconv.FormatInt(n, 10)
	case TagFloat:
		f, _ := v.AsFloat()
		return formatFloat(f)
	case TagStr:
		ref, _ := v.AsStr()
		return pool.String(ref)
	}
	return "<invalid>"
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
