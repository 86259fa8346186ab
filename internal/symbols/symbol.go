package symbols

import (
	"pycc/internal/ast"
	"pycc/internal/source"
	"pycc/internal/types"
)

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolVariable
	SymbolParameter
	SymbolFunction
	SymbolBuiltin
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolVariable:
		return "variable"
	case SymbolParameter:
		return "parameter"
	case SymbolFunction:
		return "function"
	case SymbolBuiltin:
		return "builtin"
	default:
		return "invalid"
	}
}

// IsCallable reports whether calls to the symbol have a known signature.
func (k SymbolKind) IsCallable() bool {
	return k == SymbolFunction || k == SymbolBuiltin
}

// Hoisted symbols are visible anywhere in their scope.
func (k SymbolKind) Hoisted() bool {
	return k == SymbolFunction || k == SymbolBuiltin || k == SymbolParameter
}

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint8

const (
	// SymbolFlagRecovery marks the synthetic binding of an undeclared name.
	SymbolFlagRecovery SymbolFlags = 1 << iota
	// SymbolFlagDetached marks a symbol that lost a name conflict.
	SymbolFlagDetached
	SymbolFlagBuiltin
)

// Strings returns a slice of textual flag labels.
func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 3)
	if f&SymbolFlagRecovery != 0 {
		labels = append(labels, "recovery")
	}
	if f&SymbolFlagDetached != 0 {
		labels = append(labels, "detached")
	}
	if f&SymbolFlagBuiltin != 0 {
		labels = append(labels, "builtin")
	}
	return labels
}

// SymbolDecl points at the syntax that introduced the symbol.
type SymbolDecl struct {
	File  ast.FileID
	Stmt  ast.StmtID
	Param int // index for parameters
}

// FuncInfo is attached to Function symbols.
type FuncInfo struct {
	Params []SymbolID
	Body   ScopeID
	// Return is the join of every reachable return expression.
	Return types.Set
}

// Symbol is one declared name.
type Symbol struct {
	Name  source.StringID
	Kind  SymbolKind
	Scope ScopeID
	Span  source.Span
	Flags SymbolFlags
	Decl  SymbolDecl
	// Shadows is the binding this symbol hides in an enclosing scope.
	Shadows SymbolID
	// Type is the reaching-type set; widened only during classification.
	Type    types.Set
	Func    *FuncInfo
	Builtin *BuiltinSig
}

// InferredType projects the reaching-type set onto the lattice.
func (s *Symbol) InferredType() types.Type {
	return s.Type.Type()
}

// Arity returns the fixed parameter count, or -1 for variadic or unknown.
func (s *Symbol) Arity() int {
	switch {
	case s.Kind == SymbolFunction && s.Func != nil:
		return len(s.Func.Params)
	case s.Kind == SymbolBuiltin && s.Builtin != nil:
		return s.Builtin.Arity
	}
	return -1
}
