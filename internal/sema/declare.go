package sema

import (
	"errors"
	"fmt"

	"pycc/internal/ast"
	"pycc/internal/diag"
	"pycc/internal/source"
	"pycc/internal/symbols"
)

// declarePass builds the scope graph: one Global scope under the builtin
// root, a Function scope per def and a Block scope per if/else/while body.
// Block scopes hold the functions defined in a branch; variables always
// belong to the enclosing region.
func (c *checker) declarePass() {
	global := c.table.OpenScope(symbols.ScopeGlobal, c.table.Root, symbols.ScopeOwner{File: c.fileID}, c.file.Span)
	c.result.Global = global
	c.declareBlock(global, c.file.Body)
}

func (c *checker) declareBlock(scope symbols.ScopeID, stmts []ast.StmtID) {
	for _, id := range stmts {
		c.declareStmt(scope, id)
	}
}

func (c *checker) declareStmt(scope symbols.ScopeID, id ast.StmtID) {
	stmt := c.builder.Stmts.Get(id)
	if stmt == nil {
		return
	}
	c.result.StmtScope[id] = scope
	switch stmt.Kind {
	case ast.StmtFunc:
		c.declareFunc(scope, id, stmt)
	case ast.StmtAssign:
		c.declareAssign(scope, id)
	case ast.StmtIf:
		data := c.builder.Stmts.If(id)
		then := c.openBlock(scope, id, stmt.Span)
		c.result.BodyScope[id] = then
		c.declareBlock(then, data.Then)
		if len(data.Else) > 0 {
			els := c.openBlock(scope, id, stmt.Span)
			c.result.ElseScope[id] = els
			c.declareBlock(els, data.Else)
		}
	case ast.StmtWhile:
		data := c.builder.Stmts.While(id)
		body := c.openBlock(scope, id, stmt.Span)
		c.result.BodyScope[id] = body
		c.declareBlock(body, data.Body)
	}
}

func (c *checker) openBlock(parent symbols.ScopeID, owner ast.StmtID, sp source.Span) symbols.ScopeID {
	return c.table.OpenScope(symbols.ScopeBlock, parent, symbols.ScopeOwner{File: c.fileID, Stmt: owner}, sp)
}

func (c *checker) declareFunc(scope symbols.ScopeID, id ast.StmtID, stmt *ast.Stmt) {
	data := c.builder.Stmts.Func(id)
	name := c.table.Name(data.Name)
	decl := symbols.SymbolDecl{File: c.fileID, Stmt: id}

	symID, err := c.table.Declare(scope, name, symbols.SymbolFunction, data.NameSpan, decl)
	if err != nil {
		c.reportDuplicate(err, data.NameSpan, "function")
		symID = c.table.Detach(scope, name, symbols.SymbolFunction, data.NameSpan, decl)
		c.reported[symID] = true
	} else {
		c.reportShadowing(symID)
	}

	body := c.table.OpenScope(symbols.ScopeFunction, scope, symbols.ScopeOwner{File: c.fileID, Stmt: id}, stmt.Span)
	c.result.BodyScope[id] = body
	c.result.StmtSymbol[id] = symID
	c.funcOf[body] = symID

	info := &symbols.FuncInfo{Body: body, Params: make([]symbols.SymbolID, 0, len(data.Params))}
	for i, p := range data.Params {
		pname := c.table.Name(p.Name)
		pdecl := symbols.SymbolDecl{File: c.fileID, Stmt: id, Param: i}
		pid, perr := c.table.Declare(body, pname, symbols.SymbolParameter, p.Span, pdecl)
		if perr != nil {
			c.reportDuplicate(perr, p.Span, "parameter")
			pid = c.table.Detach(body, pname, symbols.SymbolParameter, p.Span, pdecl)
		}
		// duplicates keep their slot so the arity stays the syntactic count
		info.Params = append(info.Params, pid)
	}
	c.table.Symbol(symID).Func = info

	c.declareBlock(body, data.Body)
}

// declareAssign binds the target of an assignment. An existing variable or
// parameter of the same region is rebound; a function visible in the region
// is a conflict in the function's scope; anything else declares a new
// variable in the region, so a name first assigned in a branch stays
// visible after it.
func (c *checker) declareAssign(scope symbols.ScopeID, id ast.StmtID) {
	data := c.builder.Stmts.Assign(id)
	name := c.table.Name(data.Target)
	decl := symbols.SymbolDecl{File: c.fileID, Stmt: id}

	target := c.table.Region(scope)
	if !target.IsValid() {
		target = scope
	}
	if existing, ok := c.lookupRegion(scope, name); ok {
		sym := c.table.Symbol(existing)
		if sym.Kind == symbols.SymbolVariable || sym.Kind == symbols.SymbolParameter {
			c.result.StmtSymbol[id] = existing
			return
		}
		target = sym.Scope
	}

	symID, err := c.table.Declare(target, name, symbols.SymbolVariable, data.TargetSpan, decl)
	if err != nil {
		c.reportDuplicate(err, data.TargetSpan, "variable")
		symID = c.table.Detach(target, name, symbols.SymbolVariable, data.TargetSpan, decl)
	} else {
		c.reportShadowing(symID)
	}
	c.result.StmtSymbol[id] = symID
}

// lookupRegion searches from scope outwards without leaving the region.
func (c *checker) lookupRegion(scope symbols.ScopeID, name source.StringID) (symbols.SymbolID, bool) {
	for id := scope; id.IsValid(); {
		sc := c.table.Scopes.Get(id)
		if sc == nil {
			break
		}
		if sym, ok := sc.NameIndex[name]; ok {
			return sym, true
		}
		if sc.Kind.IsRegion() {
			break
		}
		id = sc.Parent
	}
	return symbols.NoSymbolID, false
}

func (c *checker) reportDuplicate(err error, sp source.Span, what string) {
	var dup *symbols.DuplicateError
	if !errors.As(err, &dup) {
		diag.ReportError(c.reporter, diag.SemaError, sp, err.Error()).Emit()
		return
	}
	b := diag.ReportError(c.reporter, diag.SemaDuplicateDeclaration, sp,
		fmt.Sprintf("%s '%s' is already declared in this scope", what, dup.Name))
	if prev := c.table.Symbol(dup.Existing); prev != nil {
		b = b.WithNote(prev.Span, "previous declaration here")
	}
	b.Emit()
}

func (c *checker) reportShadowing(id symbols.SymbolID) {
	if !c.opts.ReportShadowing {
		return
	}
	sym := c.table.Symbol(id)
	if sym == nil || !sym.Shadows.IsValid() {
		return
	}
	outer := c.table.Symbol(sym.Shadows)
	what := "an outer declaration"
	if outer.Kind == symbols.SymbolBuiltin {
		what = "a builtin"
	}
	b := diag.ReportInfo(c.reporter, diag.SemaShadowSymbol, sym.Span,
		fmt.Sprintf("'%s' shadows %s", c.table.NameString(sym.Name), what))
	if outer.Kind != symbols.SymbolBuiltin {
		b = b.WithNote(outer.Span, "shadowed declaration here")
	}
	b.Emit()
}
