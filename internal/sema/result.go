package sema

import (
	"pycc/internal/ast"
	"pycc/internal/symbols"
	"pycc/internal/types"
)

// Result stores semantic artefacts produced by the passes. Slices indexed by
// ExprID or StmtID have slot 0 unused.
type Result struct {
	Table  *symbols.Table
	Global symbols.ScopeID

	// Bindings maps every identifier expression to its symbol.
	Bindings []symbols.SymbolID
	// Unresolved marks identifiers whose lookup failed (undeclared or read
	// before declaration). Their type is Dynamic whatever they bind to.
	Unresolved []bool
	// ExprTypes holds the reaching-type set of every expression.
	ExprTypes []types.Set

	// StmtScope is the scope a statement executes in.
	StmtScope []symbols.ScopeID
	// BodyScope is the scope of a def body, if-then or while body.
	BodyScope []symbols.ScopeID
	ElseScope []symbols.ScopeID
	// StmtSymbol is the function symbol of a def or the target of an assignment.
	StmtSymbol []symbols.SymbolID
	// AugRead is the binding read by an augmented assignment.
	AugRead []symbols.SymbolID
	// AugUnresolved marks augmented assignments whose read failed.
	AugUnresolved []bool

	Sites      []Site // Sites[0] unused
	ExprSite   []SiteID
	AssignSite []SiteID
	AugSite    []SiteID

	Iterations int
	Budget     int
	Converged  bool
}

func newResult(b *ast.Builder, table *symbols.Table) *Result {
	nExpr := int(b.Exprs.Len()) + 1
	nStmt := int(b.Stmts.Len()) + 1
	return &Result{
		Table:         table,
		Bindings:      make([]symbols.SymbolID, nExpr),
		Unresolved:    make([]bool, nExpr),
		ExprTypes:     make([]types.Set, nExpr),
		StmtScope:     make([]symbols.ScopeID, nStmt),
		BodyScope:     make([]symbols.ScopeID, nStmt),
		ElseScope:     make([]symbols.ScopeID, nStmt),
		StmtSymbol:    make([]symbols.SymbolID, nStmt),
		AugRead:       make([]symbols.SymbolID, nStmt),
		AugUnresolved: make([]bool, nStmt),
		Sites:         make([]Site, 1, nExpr/2+1),
		ExprSite:      make([]SiteID, nExpr),
		AssignSite:    make([]SiteID, nStmt),
		AugSite:       make([]SiteID, nStmt),
	}
}

// Binding returns the symbol an identifier expression resolved to.
func (r *Result) Binding(id ast.ExprID) symbols.SymbolID {
	if int(id) >= len(r.Bindings) {
		return symbols.NoSymbolID
	}
	return r.Bindings[id]
}

// IsUnresolved reports whether an identifier failed resolution.
func (r *Result) IsUnresolved(id ast.ExprID) bool {
	return int(id) < len(r.Unresolved) && r.Unresolved[id]
}

// ExprSet returns the reaching-type set of an expression.
func (r *Result) ExprSet(id ast.ExprID) types.Set {
	if int(id) >= len(r.ExprTypes) {
		return types.SetEmpty
	}
	return r.ExprTypes[id]
}

// ExprType returns the InferredType of an expression.
func (r *Result) ExprType(id ast.ExprID) types.Type {
	return r.ExprSet(id).Type()
}

// Symbol is a shortcut to the table.
func (r *Result) Symbol(id symbols.SymbolID) *symbols.Symbol {
	return r.Table.Symbol(id)
}

// SymbolOf returns the symbol declared or assigned by a statement.
func (r *Result) SymbolOf(id ast.StmtID) symbols.SymbolID {
	if int(id) >= len(r.StmtSymbol) {
		return symbols.NoSymbolID
	}
	return r.StmtSymbol[id]
}

// Site returns the site by ID, or nil.
func (r *Result) Site(id SiteID) *Site {
	if !id.IsValid() || int(id) >= len(r.Sites) {
		return nil
	}
	return &r.Sites[id]
}

// SiteOf returns the operation site rooted at an expression, or nil.
func (r *Result) SiteOf(id ast.ExprID) *Site {
	if int(id) >= len(r.ExprSite) {
		return nil
	}
	return r.Site(r.ExprSite[id])
}

// AllSites lists the sites in creation order.
func (r *Result) AllSites() []Site {
	return r.Sites[1:]
}
