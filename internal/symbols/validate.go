package symbols

import (
	"errors"
	"fmt"
	"slices"
)

// Validate walks internal arenas checking structural invariants. Returns nil if
// everything is consistent; otherwise aggregates all detected issues.
func (t *Table) Validate() error {
	var errs []error

	for idx := 1; idx < len(t.Scopes.data); idx++ {
		scopeID, err := toScopeID(idx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scope := &t.Scopes.data[idx]
		if scope.Kind == ScopeInvalid {
			errs = append(errs, fmt.Errorf("scope %d has invalid kind", scopeID))
		}
		switch {
		case !scope.Parent.IsValid() && scopeID != t.Root:
			errs = append(errs, fmt.Errorf("scope %d has no parent", scopeID))
		case scope.Parent.IsValid() && (int(scope.Parent) >= len(t.Scopes.data) || scope.Parent >= scopeID):
			// родитель всегда создаётся раньше ребёнка, поэтому циклов быть не может
			errs = append(errs, fmt.Errorf("scope %d has invalid parent %d", scopeID, scope.Parent))
		case scope.Parent.IsValid() && !slices.Contains(t.Scopes.data[scope.Parent].Children, scopeID):
			errs = append(errs, fmt.Errorf("scope %d parent %d missing backlink", scopeID, scope.Parent))
		}
		for _, child := range scope.Children {
			if int(child) >= len(t.Scopes.data) || t.Scopes.data[child].Parent != scopeID {
				errs = append(errs, fmt.Errorf("scope %d child %d missing parent backlink", scopeID, child))
			}
		}
		if len(scope.NameIndex) != len(scope.Symbols) {
			errs = append(errs, fmt.Errorf("scope %d indexes %d names for %d symbols", scopeID, len(scope.NameIndex), len(scope.Symbols)))
		}
		for _, id := range scope.Symbols {
			sym := t.Symbols.Get(id)
			if sym == nil {
				errs = append(errs, fmt.Errorf("scope %d lists unknown symbol %d", scopeID, id))
				continue
			}
			if sym.Scope != scopeID {
				errs = append(errs, fmt.Errorf("symbol %d listed in scope %d but owned by %d", id, scopeID, sym.Scope))
			}
			if got := scope.NameIndex[sym.Name]; got != id {
				errs = append(errs, fmt.Errorf("scope %d name index maps '%s' to %d, want %d", scopeID, t.NameString(sym.Name), got, id))
			}
		}
	}

	for idx := 1; idx < len(t.Symbols.data); idx++ {
		symID, err := toSymbolID(idx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sym := &t.Symbols.data[idx]
		if sym.Kind == SymbolInvalid {
			errs = append(errs, fmt.Errorf("symbol %d has invalid kind", symID))
		}
		if sym.Flags&SymbolFlagRecovery == 0 && t.Scopes.Get(sym.Scope) == nil {
			errs = append(errs, fmt.Errorf("symbol %d has invalid scope %d", symID, sym.Scope))
		}
		if sym.Kind == SymbolFunction && sym.Func == nil {
			errs = append(errs, fmt.Errorf("function symbol %d has no signature", symID))
		}
		if sym.Shadows == symID || int(sym.Shadows) >= len(t.Symbols.data) {
			errs = append(errs, fmt.Errorf("symbol %d shadows invalid symbol %d", symID, sym.Shadows))
		}
	}

	return errors.Join(errs...)
}
