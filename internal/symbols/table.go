package symbols

import (
	"fmt"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"

	"pycc/internal/source"
	"pycc/internal/types"
)

// Hints provide optional capacity suggestions for the symbol table arenas.
type Hints struct{ Scopes, Symbols uint }

// DuplicateError is returned by Declare when the name is already bound in
// the very same scope. The table is left unchanged.
type DuplicateError struct {
	Name     string
	Scope    ScopeID
	Existing SymbolID
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("'%s' is already declared in scope %d", e.Name, e.Scope)
}

// Table is the scope graph and symbol arena of one analysis run.
type Table struct {
	Scopes   *Scopes
	Symbols  *Symbols
	Strings  *source.Interner
	Builtins *Builtins
	Root     ScopeID

	normalized map[source.StringID]source.StringID
	recovery   map[source.StringID]SymbolID
}

// NewTable builds a table whose root scope holds per-run copies of builtins.
// If strings is nil, a fresh interner is allocated.
func NewTable(h Hints, strings *source.Interner, builtins *Builtins) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	t := &Table{
		Scopes:     NewScopes(scopeCap),
		Symbols:    NewSymbols(symCap),
		Strings:    strings,
		Builtins:   builtins,
		normalized: make(map[source.StringID]source.StringID),
		recovery:   make(map[source.StringID]SymbolID),
	}
	t.Root = t.Scopes.New(ScopeBuiltin, NoScopeID, ScopeOwner{}, source.Span{})
	for _, name := range builtins.Names() {
		sig, _ := builtins.Lookup(name)
		t.insert(t.Root, &Symbol{
			Name:    t.Strings.Intern(name),
			Kind:    SymbolBuiltin,
			Flags:   SymbolFlagBuiltin,
			Type:    types.SetFunction,
			Builtin: &sig,
		})
	}
	return t
}

// OpenScope creates a scope under parent.
func (t *Table) OpenScope(kind ScopeKind, parent ScopeID, owner ScopeOwner, span source.Span) ScopeID {
	return t.Scopes.New(kind, parent, owner, span)
}

// Name normalizes an identifier to NFKC and returns its interned ID.
func (t *Table) Name(id source.StringID) source.StringID {
	if n, ok := t.normalized[id]; ok {
		return n
	}
	out := id
	if s, ok := t.Strings.Lookup(id); ok && !norm.NFKC.IsNormalString(s) {
		out = t.Strings.Intern(norm.NFKC.String(s))
	}
	t.normalized[id] = out
	return out
}

// NameString returns the text of a name ID.
func (t *Table) NameString(id source.StringID) string {
	s, _ := t.Strings.Lookup(id)
	return s
}

// Declare binds name in scope. It fails without mutating anything when the
// name already exists in that exact scope; a binding in an ancestor is
// shadowed and recorded in Symbol.Shadows.
func (t *Table) Declare(scope ScopeID, name source.StringID, kind SymbolKind, span source.Span, decl SymbolDecl) (SymbolID, error) {
	sc := t.Scopes.Get(scope)
	if sc == nil {
		return NoSymbolID, fmt.Errorf("declare '%s': invalid scope %d", t.NameString(name), scope)
	}
	if existing, ok := sc.NameIndex[name]; ok {
		return NoSymbolID, &DuplicateError{Name: t.NameString(name), Scope: scope, Existing: existing}
	}
	shadows, _ := t.Lookup(sc.Parent, name)
	return t.insert(scope, &Symbol{
		Name:    name,
		Kind:    kind,
		Span:    span,
		Decl:    decl,
		Shadows: shadows,
	}), nil
}

func (t *Table) insert(scope ScopeID, sym *Symbol) SymbolID {
	sym.Scope = scope
	id := t.Symbols.New(sym)
	sc := t.Scopes.Get(scope)
	sc.Symbols = append(sc.Symbols, id)
	sc.NameIndex[sym.Name] = id
	return id
}

// Detach allocates a symbol owned by scope but not reachable through lookup.
func (t *Table) Detach(scope ScopeID, name source.StringID, kind SymbolKind, span source.Span, decl SymbolDecl) SymbolID {
	id := t.Symbols.New(&Symbol{
		Name:  name,
		Kind:  kind,
		Scope: scope,
		Span:  span,
		Flags: SymbolFlagDetached,
		Decl:  decl,
	})
	if sc := t.Scopes.Get(scope); sc != nil {
		sc.Detached = append(sc.Detached, id)
	}
	return id
}

// Recovery returns the synthetic binding for an undeclared name. There is
// one per name; it is never inserted into a scope.
func (t *Table) Recovery(name source.StringID, span source.Span) SymbolID {
	if id, ok := t.recovery[name]; ok {
		return id
	}
	id := t.Symbols.New(&Symbol{
		Name:  name,
		Kind:  SymbolVariable,
		Span:  span,
		Flags: SymbolFlagRecovery,
		Type:  types.SetUnbounded,
	})
	t.recovery[name] = id
	return id
}

// Lookup walks from scope to the root and returns the innermost binding.
func (t *Table) Lookup(scope ScopeID, name source.StringID) (SymbolID, bool) {
	for sc := t.Scopes.Get(scope); sc != nil; sc = t.Scopes.Get(sc.Parent) {
		if id, ok := sc.NameIndex[name]; ok {
			return id, true
		}
	}
	return NoSymbolID, false
}

// LookupLocal checks only the given scope.
func (t *Table) LookupLocal(scope ScopeID, name source.StringID) (SymbolID, bool) {
	sc := t.Scopes.Get(scope)
	if sc == nil {
		return NoSymbolID, false
	}
	id, ok := sc.NameIndex[name]
	return id, ok
}

// Region returns the nearest enclosing scope that is not a block.
func (t *Table) Region(scope ScopeID) ScopeID {
	for id := scope; id.IsValid(); {
		sc := t.Scopes.Get(id)
		if sc == nil {
			break
		}
		if sc.Kind.IsRegion() {
			return id
		}
		id = sc.Parent
	}
	return NoScopeID
}

// EnclosingFunction returns the nearest Function scope, if any.
func (t *Table) EnclosingFunction(scope ScopeID) (ScopeID, bool) {
	for id := scope; id.IsValid(); {
		sc := t.Scopes.Get(id)
		if sc == nil {
			break
		}
		if sc.Kind == ScopeFunction {
			return id, true
		}
		id = sc.Parent
	}
	return NoScopeID, false
}

// Symbol is a nil-safe shortcut for Symbols.Get.
func (t *Table) Symbol(id SymbolID) *Symbol {
	return t.Symbols.Get(id)
}
