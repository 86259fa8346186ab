package sema

import (
	"reflect"
	"testing"

	"pycc/internal/ast"
	"pycc/internal/ast/asttest"
	"pycc/internal/diag"
	"pycc/internal/symbols"
	"pycc/internal/types"
)

func TestShadowingKeepsOuterSymbol(t *testing.T) {
	tr := asttest.New()
	inner := tr.Name("x")
	def := tr.Def("g", nil,
		tr.Assign("x", tr.Str("s")),
		tr.Return(inner),
	)
	tr.Program(tr.Assign("x", tr.Int(1)), def)

	res, bag := analyze(t, tr, Options{})
	expectCodes(t, bag)

	outerID, outer := lookup(t, res, res.Global, "x")
	innerID, innerSym := lookup(t, res, res.BodyScope[def], "x")
	if outerID == innerID {
		t.Fatal("inner assignment must declare a new symbol")
	}
	if got := res.Binding(inner); got != innerID {
		t.Fatalf("inner read bound to #%d, want #%d", got, innerID)
	}
	if innerSym.Shadows != outerID {
		t.Fatalf("shadows = #%d, want #%d", innerSym.Shadows, outerID)
	}
	if innerSym.InferredType() != types.Str {
		t.Fatalf("inner x = %s, want str", innerSym.InferredType())
	}
	if outer.InferredType() != types.Int {
		t.Fatalf("outer x = %s, want int", outer.InferredType())
	}
	if res.ExprType(inner) != types.Str {
		t.Fatalf("read type = %s", res.ExprType(inner))
	}
}

func TestLookupReturnsInnermost(t *testing.T) {
	tr := asttest.New()
	deepRead := tr.Name("v")
	innerDef := tr.Def("inner", []string{"v"}, tr.Return(deepRead))
	outerDef := tr.Def("outer", []string{"v"}, innerDef, tr.Return(tr.Call("inner", tr.Name("v"))))
	tr.Program(tr.Assign("v", tr.Int(0)), outerDef)

	res, bag := analyze(t, tr, Options{})
	expectCodes(t, bag)

	param := res.Table.Symbol(res.Binding(deepRead))
	if param.Kind != symbols.SymbolParameter || param.Scope != res.BodyScope[innerDef] {
		t.Fatalf("read bound to %+v, want inner's parameter", param)
	}
	if got := res.Table.Scopes.Get(res.BodyScope[innerDef]).Parent; got != res.BodyScope[outerDef] {
		t.Fatalf("inner body parent = %d, want outer body", got)
	}
}

func TestUseBeforeDeclaration(t *testing.T) {
	tr := asttest.New()
	read := tr.Name("y")
	tr.Program(tr.Def("h", nil,
		tr.Expr(tr.Call("print", read)),
		tr.Assign("y", tr.Int(5)),
	))

	res, bag := analyze(t, tr, Options{})
	expectCodes(t, bag, diag.SemaUseBeforeDeclaration)
	if d := bag.Items()[0]; d.Primary != tr.B.Exprs.Get(read).Span || len(d.Notes) != 1 {
		t.Fatalf("diagnostic not anchored at the read: %+v", d)
	}
	if sym := res.Symbol(res.Binding(read)); sym.Kind != symbols.SymbolVariable || sym.Scope == res.Global {
		t.Fatalf("read should bind to the later local, got %+v", sym)
	}
}

func TestEarlyReadIsDynamic(t *testing.T) {
	tr := asttest.New()
	read := tr.Name("y")
	call := tr.Call("print", read)
	aug := tr.AugAssign("n", ast.AssignAdd, tr.Int(1))
	tr.Program(tr.Def("h", nil,
		tr.Expr(call),
		tr.Assign("y", tr.Int(5)),
		aug,
	))

	res, bag := analyze(t, tr, Options{})
	expectCodes(t, bag, diag.SemaUseBeforeDeclaration, diag.SemaUseBeforeDeclaration)
	if !res.IsUnresolved(read) || res.ExprType(read) != types.Dynamic {
		t.Fatalf("early read typed %s, want dynamic", res.ExprType(read))
	}
	if _, y := lookup(t, res, res.Symbol(res.Binding(read)).Scope, "y"); y.InferredType() != types.Int {
		t.Fatalf("the later local keeps its own type, got %s", y.InferredType())
	}
	site := res.SiteOf(call)
	if site == nil || site.Class.Kind != ClassMegamorphic || site.Strategy != StrategyGenericDispatch {
		t.Fatalf("call site: %+v", site)
	}
	if s := res.Site(res.AugSite[aug]); s == nil || s.Class.Kind != ClassMegamorphic {
		t.Fatalf("augmented read before declaration must be generic: %+v", s)
	}
}

func TestAncestorBindingSatisfiesEarlyRead(t *testing.T) {
	tr := asttest.New()
	read := tr.Name("y")
	tr.Program(
		tr.Assign("y", tr.Int(1)),
		tr.Def("h", nil,
			tr.Expr(tr.Call("print", read)),
			tr.Assign("y", tr.Int(5)),
		),
	)

	res, bag := analyze(t, tr, Options{})
	expectCodes(t, bag)
	globalY, _ := lookup(t, res, res.Global, "y")
	if res.Binding(read) != globalY {
		t.Fatalf("read bound to #%d, want global #%d", res.Binding(read), globalY)
	}
}

func TestFunctionsAreHoisted(t *testing.T) {
	tr := asttest.New()
	call := tr.Call("later")
	tr.Program(
		tr.Def("early", nil, tr.Return(call)),
		tr.Def("later", nil, tr.Return(tr.Int(1))),
	)
	res, bag := analyze(t, tr, Options{})
	expectCodes(t, bag)
	if res.ExprType(call) != types.Int {
		t.Fatalf("call type = %s", res.ExprType(call))
	}
}

func TestGlobalReadBeforeAssignment(t *testing.T) {
	tr := asttest.New()
	tr.Program(
		tr.Expr(tr.Call("print", tr.Name("n"))),
		tr.Assign("n", tr.Int(1)),
	)
	_, bag := analyze(t, tr, Options{})
	expectCodes(t, bag, diag.SemaUseBeforeDeclaration)
}

func TestSelfReferentialAssignment(t *testing.T) {
	tr := asttest.New()
	tr.Program(tr.Assign("x", tr.Bin(ast.ExprBinaryAdd, tr.Name("x"), tr.Int(1))))
	res, bag := analyze(t, tr, Options{})
	expectCodes(t, bag, diag.SemaUseBeforeDeclaration)
	if _, x := lookup(t, res, res.Global, "x"); x.InferredType() != types.Dynamic {
		t.Fatalf("x = %s, want dynamic", x.InferredType())
	}
}

func TestUndeclaredNamesReportEveryUse(t *testing.T) {
	tr := asttest.New()
	a, b := tr.Name("ghost"), tr.Name("ghost")
	tr.Program(tr.Expr(a), tr.Expr(b))

	res, bag := analyze(t, tr, Options{})
	expectCodes(t, bag, diag.SemaUndeclaredName, diag.SemaUndeclaredName)
	rec := res.Symbol(res.Binding(a))
	if rec.Flags&symbols.SymbolFlagRecovery == 0 || rec.InferredType() != types.Dynamic {
		t.Fatalf("undeclared use should bind to a dynamic recovery symbol: %+v", rec)
	}
	if res.Binding(a) != res.Binding(b) {
		t.Fatal("recovery symbols are shared per name")
	}
}

func TestRebindingIsNotRedeclaration(t *testing.T) {
	tr := asttest.New()
	first := tr.Assign("x", tr.Int(1))
	second := tr.Assign("x", tr.Str("s"))
	inLoop := tr.Assign("x", tr.Float(1.5))
	tr.Program(first, second, tr.While(tr.Bool(false), inLoop))

	res, bag := analyze(t, tr, Options{})
	expectCodes(t, bag)
	if res.SymbolOf(first) != res.SymbolOf(second) || res.SymbolOf(first) != res.SymbolOf(inLoop) {
		t.Fatal("assignments in one region must rebind the same symbol")
	}
	if got := res.Symbol(res.SymbolOf(first)).Type; got != types.SetInt|types.SetStr|types.SetFloat {
		t.Fatalf("joined set = %s", got)
	}
}

func TestBranchAssignmentsBindInTheRegion(t *testing.T) {
	tr := asttest.New()
	then := tr.Assign("y", tr.Int(1))
	els := tr.Assign("y", tr.Float(2))
	after := tr.Name("y")
	counter := tr.Name("n")
	tr.Program(
		tr.Assign("c", tr.Bool(true)),
		tr.If(tr.Name("c"), asttest.Block(then), asttest.Block(els)),
		tr.Expr(tr.Call("print", after)),
		tr.Def("f", nil,
			tr.While(tr.Name("c"), tr.Assign("n", tr.Int(0))),
			tr.Return(counter),
		),
	)
	res, bag := analyze(t, tr, Options{})
	expectCodes(t, bag)

	yID, y := lookup(t, res, res.Global, "y")
	if y.Scope != res.Global || res.SymbolOf(then) != yID || res.SymbolOf(els) != yID {
		t.Fatalf("both branches must bind the global y, got scope %d", y.Scope)
	}
	if res.Binding(after) != yID || y.InferredType() != types.Dynamic {
		t.Fatalf("y after the if: binding %d type %s", res.Binding(after), y.InferredType())
	}
	n := res.Symbol(res.Binding(counter))
	if n == nil || n.Kind != symbols.SymbolVariable || res.Table.Scopes.Get(n.Scope).Kind != symbols.ScopeFunction {
		t.Fatalf("n should live in f's scope: %+v", n)
	}
}

func TestBranchFunctionsStayInTheirBlock(t *testing.T) {
	tr := asttest.New()
	tr.Program(
		tr.If(tr.Bool(true), asttest.Block(tr.Def("g", nil, tr.Return(tr.Int(1)))), nil),
		tr.Expr(tr.Call("g")),
	)
	_, bag := analyze(t, tr, Options{})
	expectCodes(t, bag, diag.SemaUndeclaredName)
}

func TestBranchVariableConflictsWithBranchFunction(t *testing.T) {
	tr := asttest.New()
	tr.Program(
		tr.If(tr.Bool(true), asttest.Block(
			tr.Def("g", nil, tr.Return(tr.Int(1))),
			tr.Assign("g", tr.Int(2)),
		), nil),
	)
	_, bag := analyze(t, tr, Options{})
	expectCodes(t, bag, diag.SemaDuplicateDeclaration)
}

func TestDuplicateDeclarations(t *testing.T) {
	tr := asttest.New()
	tr.Program(
		tr.Def("f", []string{"a", "a"}, tr.Return(tr.Name("a"))),
		tr.Expr(tr.Call("f", tr.Int(1), tr.Int(2))),
		tr.Assign("g", tr.Int(1)),
		tr.Def("g", nil, tr.Return(tr.Int(2))),
	)
	res, bag := analyze(t, tr, Options{})
	expectCodes(t, bag, diag.SemaDuplicateDeclaration, diag.SemaDuplicateDeclaration)
	for _, d := range bag.Items() {
		if d.Severity != diag.SevError || len(d.Notes) != 1 {
			t.Fatalf("duplicate should be an error with a note: %+v", d)
		}
	}
	_, f := lookup(t, res, res.Global, "f")
	if f.Arity() != 2 {
		t.Fatalf("arity = %d, duplicate parameters keep their slot", f.Arity())
	}
	if _, g := lookup(t, res, res.Global, "g"); g.Kind != symbols.SymbolVariable {
		t.Fatalf("g = %s, the first declaration wins", g.Kind)
	}
}

func TestShadowingInfo(t *testing.T) {
	tr := asttest.New()
	tr.Program(
		tr.Assign("x", tr.Int(1)),
		tr.Def("g", nil, tr.Assign("x", tr.Int(2)), tr.Return(tr.Name("x"))),
		tr.Assign("len", tr.Int(3)),
	)
	_, bag := analyze(t, tr, Options{ReportShadowing: true})
	expectCodes(t, bag, diag.SemaShadowSymbol, diag.SemaShadowSymbol)
	if bag.HasErrors() || bag.Items()[0].Severity != diag.SevInfo {
		t.Fatalf("shadowing must be informational:\n%s", dumpBag(bag))
	}
}

func TestNFKCNames(t *testing.T) {
	tr := asttest.New()
	read := tr.Name("\ufb01le")
	tr.Program(tr.Assign("file", tr.Int(1)), tr.Expr(read))
	res, bag := analyze(t, tr, Options{})
	expectCodes(t, bag)
	id, _ := lookup(t, res, res.Global, "file")
	if res.Binding(read) != id {
		t.Fatal("ligature spelling must resolve to the NFKC name")
	}
}

func TestDeclarationAndResolutionAreDeterministic(t *testing.T) {
	tr := asttest.New()
	tr.Program(
		tr.Assign("x", tr.Int(1)),
		tr.Def("f", []string{"a"},
			tr.If(tr.Name("a"),
				asttest.Block(tr.Assign("y", tr.Name("x")), tr.Return(tr.Name("y"))),
				asttest.Block(tr.Return(tr.Name("missing"))),
			),
		),
		tr.Def("f", nil, tr.Return(tr.Int(0))),
		tr.Expr(tr.Call("f", tr.Name("z"))),
	)

	opts := Options{Stage: StageResolve, ReportShadowing: true}
	first, bag1 := analyze(t, tr, opts)
	second, bag2 := analyze(t, tr, opts)

	if a, b := first.Table.DumpString(), second.Table.DumpString(); a != b {
		t.Fatalf("scope graphs differ:\n%s\n---\n%s", a, b)
	}
	if !reflect.DeepEqual(bag1.Items(), bag2.Items()) {
		t.Fatalf("diagnostics differ:\n%s---\n%s", dumpBag(bag1), dumpBag(bag2))
	}
	if !reflect.DeepEqual(first.Bindings, second.Bindings) {
		t.Fatal("bindings differ")
	}
	if bag1.Len() == 0 {
		t.Fatal("fixture should produce diagnostics")
	}
}
