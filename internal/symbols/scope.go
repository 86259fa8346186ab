package symbols

import (
	"pycc/internal/ast"
	"pycc/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid  ScopeKind = iota
	ScopeBuiltin            // root, per-run copies of the built-in table
	ScopeGlobal             // module level of one unit
	ScopeFunction           // function body
	ScopeBlock              // if/else/while body
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeBuiltin:
		return "builtin"
	case ScopeGlobal:
		return "global"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// IsRegion reports whether the scope starts a new function region: names
// assigned below it never rebind names above it.
func (k ScopeKind) IsRegion() bool {
	return k == ScopeBuiltin || k == ScopeGlobal || k == ScopeFunction
}

// ScopeOwner references the syntax that opened the scope.
type ScopeOwner struct {
	File ast.FileID
	Stmt ast.StmtID
}

// Scope models a lexical scope with a parent-child hierarchy.
// A name maps to at most one symbol per scope.
type Scope struct {
	Kind      ScopeKind
	Parent    ScopeID
	Owner     ScopeOwner
	Span      source.Span
	NameIndex map[source.StringID]SymbolID
	Symbols   []SymbolID
	Children  []ScopeID
	// Detached holds symbols owned by the scope but not visible by name
	// (e.g. a function whose name was already taken).
	Detached []SymbolID
}
