package symbols

import (
	"maps"
	"slices"

	"pycc/internal/types"
)

// BuiltinSig is the static signature of a built-in function.
type BuiltinSig struct {
	Name string
	// Arity is the exact parameter count; -1 means variadic.
	Arity  int
	Result types.Set
	// ResultFromArg makes the result the type of the first argument (abs).
	ResultFromArg bool
}

// Builtins is an immutable table of built-in signatures. Build it once and
// share it by reference across concurrent analysis runs.
type Builtins struct {
	entries []BuiltinSig
	byName  map[string]int
}

// NewBuiltins copies entries into a new table; later duplicates are ignored.
func NewBuiltins(entries ...BuiltinSig) *Builtins {
	b := &Builtins{
		entries: make([]BuiltinSig, 0, len(entries)),
		byName:  make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if _, dup := b.byName[e.Name]; dup || e.Name == "" {
			continue
		}
		b.byName[e.Name] = len(b.entries)
		b.entries = append(b.entries, e)
	}
	return b
}

// NewDefaultBuiltins builds the table of the supported language subset.
func NewDefaultBuiltins() *Builtins {
	return NewBuiltins(
		BuiltinSig{Name: "print", Arity: -1, Result: types.SetNone},
		BuiltinSig{Name: "len", Arity: 1, Result: types.SetInt},
		BuiltinSig{Name: "str", Arity: 1, Result: types.SetStr},
		BuiltinSig{Name: "int", Arity: 1, Result: types.SetInt},
		BuiltinSig{Name: "float", Arity: 1, Result: types.SetFloat},
		BuiltinSig{Name: "bool", Arity: 1, Result: types.SetBool},
		BuiltinSig{Name: "abs", Arity: 1, Result: types.SetEmpty, ResultFromArg: true},
	)
}

// Lookup returns a copy of the named signature.
func (b *Builtins) Lookup(name string) (BuiltinSig, bool) {
	if b == nil {
		return BuiltinSig{}, false
	}
	idx, ok := b.byName[name]
	if !ok {
		return BuiltinSig{}, false
	}
	return b.entries[idx], true
}

// Names lists built-in names in sorted order.
func (b *Builtins) Names() []string {
	if b == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(b.byName))
}

func (b *Builtins) Len() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}
