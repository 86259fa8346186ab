package sema

import (
	"fmt"

	"pycc/internal/ast"
	"pycc/internal/diag"
	"pycc/internal/source"
	"pycc/internal/symbols"
)

// validatePass runs the independent checks over the classified unit.
func (c *checker) validatePass() {
	c.validateBlock(c.file.Body)
	c.verifyDuplicateFunctions()
}

func (c *checker) validateBlock(stmts []ast.StmtID) {
	dead := false
	for i, id := range stmts {
		if !dead && i > 0 && c.stmtStatus(stmts[i-1]) == returnClosed {
			dead = true
			c.reportUnreachable(stmts[i-1], stmts[i:])
		}
		c.validateStmt(id)
	}
}

func (c *checker) validateStmt(id ast.StmtID) {
	stmt := c.builder.Stmts.Get(id)
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case ast.StmtFunc:
		c.validateBlock(c.builder.Stmts.Func(id).Body)
	case ast.StmtAssign:
		c.checkCalls(c.builder.Stmts.Assign(id).Value)
	case ast.StmtReturn:
		if _, ok := c.table.EnclosingFunction(c.result.StmtScope[id]); !ok {
			diag.ReportError(c.reporter, diag.SemaReturnOutsideFunction, stmt.Span,
				"'return' outside function").Emit()
		}
		c.checkCalls(c.builder.Stmts.Return(id).Value)
	case ast.StmtExpr:
		c.checkCalls(c.builder.Stmts.Expr(id).Expr)
	case ast.StmtIf:
		data := c.builder.Stmts.If(id)
		c.checkCalls(data.Cond)
		c.validateBlock(data.Then)
		c.validateBlock(data.Else)
	case ast.StmtWhile:
		data := c.builder.Stmts.While(id)
		c.checkCalls(data.Cond)
		c.validateBlock(data.Body)
	}
}

// checkCalls compares argument counts with every known fixed arity.
func (c *checker) checkCalls(root ast.ExprID) {
	c.builder.WalkExpr(root, func(id ast.ExprID) {
		data, ok := c.builder.Exprs.Call(id)
		if !ok {
			return
		}
		callee := c.table.Symbol(c.result.Binding(data.Callee))
		if callee == nil || callee.Flags&symbols.SymbolFlagRecovery != 0 || !callee.Kind.IsCallable() {
			return
		}
		expected := callee.Arity()
		if expected < 0 || expected == len(data.Args) {
			return
		}
		b := diag.ReportError(c.reporter, diag.SemaArityMismatch, c.builder.Exprs.Get(id).Span,
			fmt.Sprintf("%s '%s' expects %s, got %d", callee.Kind, c.table.NameString(callee.Name),
				plural(expected, "argument"), len(data.Args))).
			WithIntAttr("expected", expected).
			WithIntAttr("actual", len(data.Args))
		if callee.Kind == symbols.SymbolFunction {
			b = b.WithNote(callee.Span, "declared here")
		}
		b.Emit()
	})
}

// reportUnreachable warns once per block about the statements after one
// that never falls through.
func (c *checker) reportUnreachable(closer ast.StmtID, rest []ast.StmtID) {
	first := c.builder.Stmts.Get(rest[0]).Span
	last := c.builder.Stmts.Get(rest[len(rest)-1]).Span
	diag.ReportWarning(c.reporter, diag.SemaUnreachableCode, first.Cover(last), "unreachable code").
		WithNote(c.builder.Stmts.Get(closer).Span, "control never leaves this statement").
		WithIntAttr("statements", len(rest)).
		Emit()
}

// verifyDuplicateFunctions re-checks function names per region, catching
// definitions that only collide once branches are merged.
func (c *checker) verifyDuplicateFunctions() {
	type key struct {
		region symbols.ScopeID
		name   source.StringID
	}
	first := make(map[key]symbols.SymbolID)
	for i := 1; i <= c.table.Symbols.Len(); i++ {
		id := symbols.SymbolID(i)
		sym := c.table.Symbol(id)
		if sym.Kind != symbols.SymbolFunction || sym.Flags&symbols.SymbolFlagDetached != 0 || c.reported[id] {
			continue
		}
		k := key{region: c.table.Region(sym.Scope), name: sym.Name}
		prev, seen := first[k]
		if !seen {
			first[k] = id
			continue
		}
		c.reported[id] = true
		diag.ReportWarning(c.reporter, diag.SemaDuplicateDeclaration, sym.Span,
			fmt.Sprintf("function '%s' is defined more than once on different branches", c.table.NameString(sym.Name))).
			WithNote(c.table.Symbol(prev).Span, "other definition here").
			Emit()
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
