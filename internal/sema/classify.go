package sema

import (
	"fmt"

	"pycc/internal/ast"
	"pycc/internal/diag"
	"pycc/internal/symbols"
	"pycc/internal/trace"
	"pycc/internal/types"
)

// slot addresses a widenable type cell: a symbol's type or a function's
// return set.
type slot uint64

func symSlot(id symbols.SymbolID) slot { return slot(id) << 1 }
func retSlot(id symbols.SymbolID) slot { return slot(id)<<1 | 1 }

type itemKind uint8

const (
	itemAssign itemKind = iota
	itemReturn
	itemEval
	itemSite
)

// workItem is either a root constraint (assignment, return, evaluated
// expression) or a site waiting for reclassification.
type workItem struct {
	kind itemKind
	stmt ast.StmtID
	root ast.ExprID
	// fn is the function whose return slot a return widens.
	fn    symbols.SymbolID
	site  SiteID
	sites []SiteID
	deps  int
}

type classifier struct {
	*checker
	items      []workItem
	dependents map[slot][]int
	queue      []int
	queued     []bool
	// siteItem maps a site to its item index.
	siteItem []int
}

func (c *checker) classifyPass() {
	cl := &classifier{
		checker:    c,
		dependents: make(map[slot][]int),
	}
	cl.seed()
	cl.collect(c.file.Body)

	budget := 0
	for _, it := range cl.items {
		budget += 1 + 7*it.deps
	}
	if c.opts.MaxIterations > 0 && c.opts.MaxIterations < budget {
		budget = c.opts.MaxIterations
	}
	c.result.Budget = budget

	converged := cl.drain(budget)
	if converged && cl.promoteEmptySlots() {
		converged = cl.drain(budget)
	}
	c.result.Converged = converged
	if !converged {
		diag.ReportError(c.reporter, diag.SemaClassificationNonConvergence, c.file.Span,
			fmt.Sprintf("type classification did not converge within %d iterations", budget)).
			WithIntAttr("budget", budget).
			Emit()
		cl.promoteEmptySlots()
	}
	for i := 1; i < len(c.result.ExprTypes); i++ {
		if c.result.ExprTypes[i].IsEmpty() && c.builder.Exprs.Get(ast.ExprID(i)) != nil {
			c.result.ExprTypes[i] = types.SetUnbounded
		}
	}
	for i := 1; i < len(c.result.Sites); i++ {
		c.classifySite(SiteID(i))
	}
}

// seed gives every symbol its starting set.
func (cl *classifier) seed() {
	for i := 1; i <= cl.table.Symbols.Len(); i++ {
		sym := cl.table.Symbol(symbols.SymbolID(i))
		switch sym.Kind {
		case symbols.SymbolFunction, symbols.SymbolBuiltin:
			sym.Type = types.SetFunction
		case symbols.SymbolParameter:
			sym.Type = types.SetUnbounded
		}
		if sym.Flags&symbols.SymbolFlagRecovery != 0 {
			sym.Type = types.SetUnbounded
		}
		if sym.Func != nil {
			data := cl.builder.Stmts.Func(sym.Decl.Stmt)
			if data != nil && cl.blockStatus(data.Body) == returnOpen {
				sym.Func.Return = types.SetNone
			}
		}
	}
}

// collect registers root items and their sites in textual order.
func (cl *classifier) collect(stmts []ast.StmtID) {
	for _, id := range stmts {
		stmt := cl.builder.Stmts.Get(id)
		if stmt == nil {
			continue
		}
		switch stmt.Kind {
		case ast.StmtFunc:
			cl.collect(cl.builder.Stmts.Func(id).Body)
		case ast.StmtAssign:
			cl.addAssign(id, stmt)
		case ast.StmtReturn:
			fn := symbols.NoSymbolID
			if body, ok := cl.table.EnclosingFunction(cl.result.StmtScope[id]); ok {
				fn = cl.funcOf[body]
			}
			cl.addRoot(workItem{kind: itemReturn, stmt: id, root: cl.builder.Stmts.Return(id).Value, fn: fn})
		case ast.StmtExpr:
			cl.addRoot(workItem{kind: itemEval, stmt: id, root: cl.builder.Stmts.Expr(id).Expr})
		case ast.StmtIf:
			data := cl.builder.Stmts.If(id)
			cl.addRoot(workItem{kind: itemEval, stmt: id, root: data.Cond})
			cl.collect(data.Then)
			cl.collect(data.Else)
		case ast.StmtWhile:
			data := cl.builder.Stmts.While(id)
			cl.addRoot(workItem{kind: itemEval, stmt: id, root: data.Cond})
			cl.collect(data.Body)
		}
	}
}

func (cl *classifier) addAssign(id ast.StmtID, stmt *ast.Stmt) {
	data := cl.builder.Stmts.Assign(id)
	it := workItem{kind: itemAssign, stmt: id, root: data.Value}
	cl.addSites(&it, data.Value)
	if binOp, ok := data.Op.BinaryOp(); ok {
		site := cl.newSite(Site{Kind: SiteBinary, Stmt: id, Span: stmt.Span, BinaryOp: binOp, Symbol: cl.result.AugRead[id]})
		cl.result.AugSite[id] = site
		it.sites = append(it.sites, site)
	}
	site := cl.newSite(Site{Kind: SiteAssign, Stmt: id, Span: stmt.Span, Symbol: cl.result.StmtSymbol[id]})
	cl.result.AssignSite[id] = site
	it.sites = append(it.sites, site)
	cl.register(it)
}

func (cl *classifier) addRoot(it workItem) {
	if !it.root.IsValid() && it.kind != itemReturn {
		return
	}
	cl.addSites(&it, it.root)
	cl.register(it)
}

func (cl *classifier) addSites(it *workItem, root ast.ExprID) {
	cl.builder.WalkExpr(root, func(id ast.ExprID) {
		expr := cl.builder.Exprs.Get(id)
		s := Site{Expr: id, Stmt: it.stmt, Span: expr.Span}
		switch expr.Kind {
		case ast.ExprBinary:
			data, _ := cl.builder.Exprs.Binary(id)
			s.Kind, s.BinaryOp = SiteBinary, data.Op
		case ast.ExprUnary:
			data, _ := cl.builder.Exprs.Unary(id)
			s.Kind, s.UnaryOp = SiteUnary, data.Op
		case ast.ExprCall:
			data, _ := cl.builder.Exprs.Call(id)
			s.Kind = SiteCall
			s.Symbol = cl.result.Binding(data.Callee)
			callee := cl.table.Symbol(s.Symbol)
			s.DynamicCallee = callee == nil || callee.Flags&symbols.SymbolFlagRecovery != 0 ||
				(callee.Kind != symbols.SymbolBuiltin && (callee.Kind != symbols.SymbolFunction || callee.Func == nil))
		default:
			return
		}
		site := cl.newSite(s)
		cl.result.ExprSite[id] = site
		it.sites = append(it.sites, site)
	})
}

// register links the item to the slots it reads and queues it once.
func (cl *classifier) register(it workItem) {
	idx := len(cl.items)
	reads := cl.reads(it)
	it.deps = len(reads)
	cl.items = append(cl.items, it)
	for _, s := range reads {
		cl.dependents[s] = append(cl.dependents[s], idx)
	}
	for _, site := range it.sites {
		for len(cl.siteItem) <= int(site) {
			cl.siteItem = append(cl.siteItem, -1)
		}
		cl.siteItem[site] = len(cl.items)
		cl.items = append(cl.items, workItem{kind: itemSite, site: site, stmt: it.stmt, deps: it.deps})
	}
	cl.push(idx)
}

func (cl *classifier) reads(it workItem) []slot {
	seen := make(map[slot]bool)
	var out []slot
	add := func(s slot) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	if it.kind == itemAssign {
		if aug := cl.result.AugRead[it.stmt]; aug.IsValid() {
			add(symSlot(aug))
		}
	}
	cl.builder.WalkExpr(it.root, func(id ast.ExprID) {
		if sym := cl.result.Binding(id); sym.IsValid() {
			add(symSlot(sym))
		}
		if data, ok := cl.builder.Exprs.Call(id); ok {
			if callee := cl.table.Symbol(cl.result.Binding(data.Callee)); callee != nil && callee.Func != nil {
				add(retSlot(cl.result.Binding(data.Callee)))
			}
		}
	})
	return out
}

func (cl *classifier) push(idx int) {
	for len(cl.queued) <= idx {
		cl.queued = append(cl.queued, false)
	}
	if cl.queued[idx] {
		return
	}
	cl.queued[idx] = true
	cl.queue = append(cl.queue, idx)
}

// drain runs the worklist until it is empty or the budget is spent.
func (cl *classifier) drain(budget int) bool {
	for len(cl.queue) > 0 {
		if cl.result.Iterations >= budget {
			return false
		}
		idx := cl.queue[0]
		cl.queue = cl.queue[1:]
		cl.queued[idx] = false
		cl.result.Iterations++
		cl.step(idx)
	}
	return true
}

func (cl *classifier) step(idx int) {
	it := cl.items[idx]
	if it.kind == itemSite {
		cl.classifySite(it.site)
		return
	}
	changed := cl.evalTree(it.root)
	switch it.kind {
	case itemAssign:
		target := cl.result.StmtSymbol[it.stmt]
		if sym := cl.table.Symbol(target); sym != nil && cl.widen(&sym.Type, cl.assignValue(it.stmt)) {
			trace.Point(cl.tracer, trace.ScopeNode, "widen", cl.passSpan,
				fmt.Sprintf("%s -> %s", cl.symName(target), sym.Type))
			cl.wake(symSlot(target))
			changed = true
		}
	case itemReturn:
		val := types.SetNone
		if it.root.IsValid() {
			val = cl.result.ExprTypes[it.root]
		}
		if fn := cl.table.Symbol(it.fn); fn != nil && fn.Func != nil && cl.widen(&fn.Func.Return, val) {
			cl.wake(retSlot(it.fn))
		}
	}
	if changed || cl.firstVisit(it) {
		for _, site := range it.sites {
			cl.result.Sites[site].Stale = true
			cl.push(cl.siteItem[site])
		}
	}
}

func (cl *classifier) firstVisit(it workItem) bool {
	for _, site := range it.sites {
		if cl.result.Sites[site].Revisions == 0 {
			return true
		}
	}
	return false
}

func (cl *classifier) wake(s slot) {
	for _, idx := range cl.dependents[s] {
		cl.push(idx)
	}
}

// widen unions next into cur and reports whether cur grew. Sets never shrink.
func (cl *classifier) widen(cur *types.Set, next types.Set) bool {
	if !cur.Widens(next) {
		return false
	}
	*cur |= next
	return true
}

// evalTree recomputes the sets of an expression tree bottom-up.
func (cl *classifier) evalTree(root ast.ExprID) bool {
	changed := false
	cl.builder.WalkExpr(root, func(id ast.ExprID) {
		if cl.widen(&cl.result.ExprTypes[id], cl.exprType(id)) {
			changed = true
		}
	})
	return changed
}

func (cl *classifier) exprType(id ast.ExprID) types.Set {
	ex := cl.result.ExprTypes
	expr := cl.builder.Exprs.Get(id)
	switch expr.Kind {
	case ast.ExprIdent:
		if cl.result.IsUnresolved(id) {
			return types.SetUnbounded
		}
		return cl.symType(cl.result.Binding(id))
	case ast.ExprLit:
		data, _ := cl.builder.Exprs.Literal(id)
		return literalType(data.Kind)
	case ast.ExprFString:
		return types.SetStr
	case ast.ExprBinary:
		data, _ := cl.builder.Exprs.Binary(id)
		return types.BinaryType(data.Op, ex[data.Left], ex[data.Right])
	case ast.ExprUnary:
		data, _ := cl.builder.Exprs.Unary(id)
		return types.UnaryType(data.Op, ex[data.Operand])
	case ast.ExprCall:
		return cl.callType(id)
	}
	return types.SetUnbounded
}

func (cl *classifier) callType(id ast.ExprID) types.Set {
	data, _ := cl.builder.Exprs.Call(id)
	callee := cl.table.Symbol(cl.result.Binding(data.Callee))
	switch {
	case callee == nil || callee.Flags&symbols.SymbolFlagRecovery != 0:
		return types.SetUnbounded
	case callee.Kind == symbols.SymbolFunction && callee.Func != nil:
		return callee.Func.Return
	case callee.Kind == symbols.SymbolBuiltin && callee.Builtin != nil:
		sig := callee.Builtin
		if !sig.ResultFromArg {
			return sig.Result
		}
		if len(data.Args) == 0 {
			return types.SetUnbounded
		}
		return numericResult(cl.result.ExprTypes[data.Args[0]])
	}
	return types.SetUnbounded
}

// numericResult is the result of abs-like builtins: integral args give int.
func numericResult(arg types.Set) types.Set {
	if arg.IsUnbounded() {
		return types.SetUnbounded
	}
	var out types.Set
	for _, t := range arg.Types() {
		switch t {
		case types.Int, types.Bool:
			out |= types.SetInt
		case types.Float:
			out |= types.SetFloat
		default:
			out |= types.SetUnbounded
		}
	}
	return out
}

func literalType(k ast.ExprLitKind) types.Set {
	switch k {
	case ast.ExprLitInt:
		return types.SetInt
	case ast.ExprLitFloat:
		return types.SetFloat
	case ast.ExprLitString:
		return types.SetStr
	case ast.ExprLitTrue, ast.ExprLitFalse:
		return types.SetBool
	case ast.ExprLitNone:
		return types.SetNone
	}
	// ExprLitInvalid and anything unknown
	return types.SetUnbounded
}

func (c *checker) symType(id symbols.SymbolID) types.Set {
	if sym := c.table.Symbol(id); sym != nil {
		return sym.Type
	}
	return types.SetUnbounded
}

// augType is the set an augmented assignment reads from its target.
func (c *checker) augType(id ast.StmtID) types.Set {
	if c.result.AugUnresolved[id] {
		return types.SetUnbounded
	}
	return c.symType(c.result.AugRead[id])
}

// assignValue is the set an assignment stores: the RHS, or the result of
// the binary operation for augmented forms.
func (c *checker) assignValue(id ast.StmtID) types.Set {
	data := c.builder.Stmts.Assign(id)
	rhs := c.result.ExprTypes[data.Value]
	if op, ok := data.Op.BinaryOp(); ok {
		return types.BinaryType(op, c.augType(id), rhs)
	}
	return rhs
}

// promoteEmptySlots turns every still-empty slot into Unbounded and wakes
// its dependents. It reports whether anything was promoted.
func (cl *classifier) promoteEmptySlots() bool {
	promoted := false
	for i := 1; i <= cl.table.Symbols.Len(); i++ {
		id := symbols.SymbolID(i)
		sym := cl.table.Symbol(id)
		if sym.Type.IsEmpty() {
			sym.Type = types.SetUnbounded
			cl.wake(symSlot(id))
			promoted = true
		}
		if sym.Func != nil && sym.Func.Return.IsEmpty() {
			sym.Func.Return = types.SetUnbounded
			cl.wake(retSlot(id))
			promoted = true
		}
	}
	return promoted
}
