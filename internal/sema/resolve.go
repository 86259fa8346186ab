package sema

import (
	"fmt"

	"pycc/internal/ast"
	"pycc/internal/diag"
	"pycc/internal/source"
	"pycc/internal/symbols"
)

// resolvePass binds every identifier in one linear walk. The declared
// cursor is per symbol: a variable becomes visible to its own region once
// the statement that declares it has completed.
func (c *checker) resolvePass() {
	c.declared = make([]bool, c.table.Symbols.Len()+1)
	c.resolveBlock(c.file.Body)
}

func (c *checker) resolveBlock(stmts []ast.StmtID) {
	for _, id := range stmts {
		c.resolveStmt(id)
	}
}

func (c *checker) resolveStmt(id ast.StmtID) {
	stmt := c.builder.Stmts.Get(id)
	if stmt == nil {
		return
	}
	scope := c.result.StmtScope[id]
	switch stmt.Kind {
	case ast.StmtFunc:
		c.resolveBlock(c.builder.Stmts.Func(id).Body)
	case ast.StmtAssign:
		data := c.builder.Stmts.Assign(id)
		if data.Op != ast.AssignPlain {
			sym, ok := c.resolveName(scope, data.Target, data.TargetSpan)
			c.result.AugRead[id] = sym
			c.result.AugUnresolved[id] = !ok
		}
		c.resolveExpr(scope, data.Value)
		c.markDeclared(c.result.StmtSymbol[id])
	case ast.StmtReturn:
		c.resolveExpr(scope, c.builder.Stmts.Return(id).Value)
	case ast.StmtExpr:
		c.resolveExpr(scope, c.builder.Stmts.Expr(id).Expr)
	case ast.StmtIf:
		data := c.builder.Stmts.If(id)
		c.resolveExpr(scope, data.Cond)
		c.resolveBlock(data.Then)
		c.resolveBlock(data.Else)
	case ast.StmtWhile:
		data := c.builder.Stmts.While(id)
		c.resolveExpr(scope, data.Cond)
		c.resolveBlock(data.Body)
	}
}

func (c *checker) markDeclared(id symbols.SymbolID) {
	if id.IsValid() && int(id) < len(c.declared) {
		c.declared[id] = true
	}
}

func (c *checker) resolveExpr(scope symbols.ScopeID, root ast.ExprID) {
	c.builder.WalkExpr(root, func(id ast.ExprID) {
		data, ok := c.builder.Exprs.Ident(id)
		if !ok {
			return
		}
		sym, ok := c.resolveName(scope, data.Name, c.builder.Exprs.Get(id).Span)
		c.result.Bindings[id] = sym
		c.result.Unresolved[id] = !ok
	})
}

// resolveName implements lookup with the declared-before-use rule. Inside
// the current region a variable is visible only once declared; a read that
// comes too early falls through to outer bindings. Outside the region every
// binding is visible. A failed lookup still yields a symbol for recovery and
// reports false.
func (c *checker) resolveName(scope symbols.ScopeID, raw source.StringID, sp source.Span) (symbols.SymbolID, bool) {
	name := c.table.Name(raw)
	later := symbols.NoSymbolID
	inRegion := true
	for id := scope; id.IsValid(); {
		sc := c.table.Scopes.Get(id)
		if sc == nil {
			break
		}
		if symID, ok := sc.NameIndex[name]; ok {
			sym := c.table.Symbol(symID)
			if !inRegion || sym.Kind.Hoisted() || c.declared[symID] {
				return symID, true
			}
			if !later.IsValid() {
				later = symID
			}
		}
		if sc.Kind.IsRegion() {
			inRegion = false
		}
		id = sc.Parent
	}

	text := c.table.NameString(name)
	if later.IsValid() {
		diag.ReportError(c.reporter, diag.SemaUseBeforeDeclaration, sp,
			fmt.Sprintf("'%s' is used before its declaration", text)).
			WithNote(c.table.Symbol(later).Span, "declared here").
			Emit()
		return later, false
	}
	diag.ReportError(c.reporter, diag.SemaUndeclaredName, sp,
		fmt.Sprintf("undeclared name '%s'", text)).Emit()
	return c.table.Recovery(name, sp), false
}
