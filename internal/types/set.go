package types

import "strings"

// Set is a reaching-type set. The zero value is the empty set (Unknown).
type Set uint8

const (
	SetInt Set = 1 << iota
	SetFloat
	SetStr
	SetBool
	SetNone
	SetFunction
	// SetUnbounded marks a slot whose type cannot be statically bounded.
	SetUnbounded
)

const (
	SetEmpty    Set = 0
	SetIntegral     = SetInt | SetBool
	SetNumeric      = SetIntegral | SetFloat
	SetConcrete     = SetInt | SetFloat | SetStr | SetBool | SetNone | SetFunction
	SetAll          = SetConcrete | SetUnbounded
)

var concreteOrder = [...]struct {
	bit Set
	typ Type
}{
	{SetInt, Int},
	{SetFloat, Float},
	{SetStr, Str},
	{SetBool, Bool},
	{SetNone, NoneType},
	{SetFunction, Function},
}

// SetOf lifts a lattice point into a set.
func SetOf(t Type) Set {
	switch t {
	case Unknown:
		return SetEmpty
	case Dynamic:
		return SetUnbounded
	}
	for _, c := range concreteOrder {
		if c.typ == t {
			return c.bit
		}
	}
	return SetUnbounded
}

func (s Set) Union(o Set) Set { return s | o }

func (s Set) Has(o Set) bool { return o != 0 && s&o == o }

func (s Set) IsEmpty() bool { return s == SetEmpty }

func (s Set) IsUnbounded() bool { return s&SetUnbounded != 0 }

// Widens reports whether next adds anything to s.
func (s Set) Widens(next Set) bool { return next&^s != 0 }

// Len counts the concrete types in s; Unbounded is not counted.
func (s Set) Len() int {
	n := 0
	for _, c := range concreteOrder {
		if s&c.bit != 0 {
			n++
		}
	}
	return n
}

// Types lists the concrete members in a stable order.
func (s Set) Types() []Type {
	out := make([]Type, 0, s.Len())
	for _, c := range concreteOrder {
		if s&c.bit != 0 {
			out = append(out, c.typ)
		}
	}
	return out
}

// Single returns the only concrete member of a bounded one-element set.
func (s Set) Single() (Type, bool) {
	if s.IsUnbounded() || s.Len() != 1 {
		return Unknown, false
	}
	return s.Types()[0], true
}

// Type projects the set onto the lattice.
func (s Set) Type() Type {
	if s.IsEmpty() {
		return Unknown
	}
	if t, ok := s.Single(); ok {
		return t
	}
	return Dynamic
}

func (s Set) String() string {
	if s.IsEmpty() {
		return "{}"
	}
	parts := make([]string, 0, s.Len()+1)
	for _, t := range s.Types() {
		parts = append(parts, t.String())
	}
	if s.IsUnbounded() {
		parts = append(parts, "*")
	}
	return "{" + strings.Join(parts, "|") + "}"
}
