package sema

import (
	"fmt"
	"strings"
	"testing"

	"pycc/internal/ast"
	"pycc/internal/ast/asttest"
	"pycc/internal/diag"
	"pycc/internal/trace"
	"pycc/internal/types"
)

func TestSiteClasses(t *testing.T) {
	tr := asttest.New()
	mono := tr.Bin(ast.ExprBinaryAdd, tr.Int(1), tr.Int(2))
	mixed := tr.Bin(ast.ExprBinaryAdd, tr.Int(1), tr.Float(2.5))
	param := tr.Bin(ast.ExprBinaryMul, tr.Name("p"), tr.Int(2))
	poly := tr.Call("print", tr.Name("v"))
	dyn := tr.Call("g", tr.Int(2))
	neg := tr.Un(ast.ExprUnaryMinus, tr.Float(1.5))
	tr.Program(
		tr.Assign("a", mono),
		tr.Assign("b", mixed),
		tr.Def("f", []string{"p"}, tr.Return(param)),
		tr.Assign("v", tr.Int(1)),
		tr.Assign("v", tr.Str("s")),
		tr.Expr(poly),
		tr.Assign("g", tr.Int(0)),
		tr.Expr(dyn),
		tr.Assign("n", neg),
	)

	res, bag := analyze(t, tr, Options{})
	expectCodes(t, bag)
	if !res.Converged {
		t.Fatal("expected convergence")
	}

	cases := []struct {
		name     string
		expr     ast.ExprID
		kind     ClassKind
		strategy Strategy
	}{
		{"int+int", mono, ClassMonomorphic, StrategyFastPath},
		{"int+float", mixed, ClassPolymorphic, StrategyDispatchTable},
		{"param*int", param, ClassMegamorphic, StrategyGenericDispatch},
		{"print(int|str)", poly, ClassPolymorphic, StrategyDispatchTable},
		{"variable callee", dyn, ClassMegamorphic, StrategyGenericDispatch},
		{"-float", neg, ClassMonomorphic, StrategyFastPath},
	}
	for _, tc := range cases {
		site := res.SiteOf(tc.expr)
		if site == nil {
			t.Fatalf("%s: no site", tc.name)
		}
		if site.Class.Kind != tc.kind || site.Strategy != tc.strategy {
			t.Fatalf("%s: got %s/%s, want %s/%s", tc.name, site.Class, site.Strategy, tc.kind, tc.strategy)
		}
		if site.Stale {
			t.Fatalf("%s: site left stale", tc.name)
		}
	}

	if s := res.SiteOf(mono); s.Class.Mono != types.Int || s.HasCoercion {
		t.Fatalf("int+int: %s", s)
	}
	s := res.SiteOf(mixed)
	if !s.HasCoercion || s.Coercion != (types.Coercion{From: types.Int, To: types.Float}) {
		t.Fatalf("int+float should record int->float: %s", s)
	}
	if _, b := lookup(t, res, res.Global, "b"); b.InferredType() != types.Float {
		t.Fatalf("b = %s", b.InferredType())
	}
	if _, n := lookup(t, res, res.Global, "n"); n.InferredType() != types.Float {
		t.Fatalf("n = %s", n.InferredType())
	}
	if !res.SiteOf(dyn).DynamicCallee {
		t.Fatal("call through a variable is dynamic")
	}
}

func TestClassifyThresholds(t *testing.T) {
	cases := []struct {
		sets []types.Set
		want ClassKind
	}{
		{nil, ClassUnclassified},
		{[]types.Set{types.SetInt, types.SetInt}, ClassMonomorphic},
		{[]types.Set{types.SetInt, types.SetStr | types.SetBool}, ClassPolymorphic},
		{[]types.Set{types.SetInt | types.SetFloat | types.SetStr | types.SetBool}, ClassPolymorphic},
		{[]types.Set{types.SetConcrete}, ClassMegamorphic},
		{[]types.Set{types.SetInt, types.SetUnbounded}, ClassMegamorphic},
	}
	for i, tc := range cases {
		if got := Classify(tc.sets, false).Kind; got != tc.want {
			t.Fatalf("case %d: got %s, want %s", i, got, tc.want)
		}
	}
	if Classify([]types.Set{types.SetInt}, true).Kind != ClassMegamorphic {
		t.Fatal("dynamic callee is always megamorphic")
	}
}

func TestReturnSlots(t *testing.T) {
	tr := asttest.New()
	one := tr.Call("one")
	nothing := tr.Call("nothing")
	maybe := tr.Call("maybe", tr.Bool(true))
	absF := tr.Call("abs", tr.Float(-2.5))
	absB := tr.Call("abs", tr.Bool(true))
	length := tr.Call("len", tr.Str("abc"))
	tr.Program(
		tr.Def("one", nil, tr.Return(tr.Int(1))),
		tr.Def("nothing", nil, tr.Assign("x", tr.Int(1))),
		tr.Def("maybe", []string{"c"},
			tr.If(tr.Name("c"), asttest.Block(tr.Return(tr.Int(1))), nil),
		),
		tr.Expr(one), tr.Expr(nothing), tr.Expr(maybe),
		tr.Expr(absF), tr.Expr(absB), tr.Expr(length),
	)
	res, bag := analyze(t, tr, Options{})
	expectCodes(t, bag)

	want := map[ast.ExprID]types.Type{
		one:     types.Int,
		nothing: types.NoneType,
		maybe:   types.Dynamic,
		absF:    types.Float,
		absB:    types.Int,
		length:  types.Int,
	}
	for expr, ty := range want {
		if got := res.ExprType(expr); got != ty {
			t.Fatalf("%s: got %s, want %s", tr.B.Exprs.Get(expr).Span, got, ty)
		}
	}
	if _, m := lookup(t, res, res.Global, "maybe"); m.Func.Return != types.SetInt|types.SetNone {
		t.Fatalf("maybe returns %s", m.Func.Return)
	}
}

func TestRecursionConverges(t *testing.T) {
	tr := asttest.New()
	tr.Program(
		tr.Def("fact", []string{"n"},
			tr.If(tr.Bin(ast.ExprBinaryLess, tr.Name("n"), tr.Int(2)),
				asttest.Block(tr.Return(tr.Int(1))),
				asttest.Block(tr.Return(tr.Bin(ast.ExprBinaryMul, tr.Name("n"),
					tr.Call("fact", tr.Bin(ast.ExprBinarySub, tr.Name("n"), tr.Int(1)))))),
			),
		),
		tr.Assign("r", tr.Call("fact", tr.Int(5))),
	)
	res, bag := analyze(t, tr, Options{})
	expectCodes(t, bag)
	if !res.Converged || res.Iterations > res.Budget {
		t.Fatalf("iterations %d budget %d converged %v", res.Iterations, res.Budget, res.Converged)
	}
	if _, r := lookup(t, res, res.Global, "r"); r.InferredType() != types.Dynamic {
		t.Fatalf("r = %s", r.InferredType())
	}
}

func TestAugmentedAssignmentSites(t *testing.T) {
	tr := asttest.New()
	aug := tr.AugAssign("x", ast.AssignAdd, tr.Float(0.5))
	tr.Program(
		tr.Assign("x", tr.Int(0)),
		tr.While(tr.Bin(ast.ExprBinaryLess, tr.Name("x"), tr.Int(10)), aug),
	)
	res, bag := analyze(t, tr, Options{})
	expectCodes(t, bag)

	bin := res.Site(res.AugSite[aug])
	if bin == nil || bin.Kind != SiteBinary || bin.Expr.IsValid() {
		t.Fatalf("augmented assignment needs a binary site: %+v", bin)
	}
	if bin.Class.Kind != ClassPolymorphic {
		t.Fatalf("x += 0.5 with x int|float: %s", bin.Class)
	}
	asg := res.Site(res.AssignSite[aug])
	if asg == nil || asg.Kind != SiteAssign || asg.Class.Kind != ClassMonomorphic || asg.Class.Mono != types.Float {
		t.Fatalf("assign site: %+v", asg)
	}
	if res.AugRead[aug] != res.SymbolOf(aug) {
		t.Fatal("augmented read and write hit the same symbol")
	}
}

func TestTypesOnlyWiden(t *testing.T) {
	ring := trace.NewRingTracer(256, trace.LevelDebug)
	tr := asttest.New()
	add := tr.Bin(ast.ExprBinaryAdd, tr.Name("x"), tr.Int(1))
	tr.Program(
		tr.Assign("x", tr.Int(1)),
		tr.Assign("y", add),
		tr.Assign("x", tr.Str("s")),
		tr.Assign("z", tr.Name("y")),
	)
	res, bag := analyze(t, tr, Options{Tracer: ring})
	expectCodes(t, bag)

	dynamic := map[string]bool{}
	for _, ev := range ring.Snapshot() {
		if ev.Name != "widen" {
			continue
		}
		name, set, _ := strings.Cut(ev.Detail, " -> ")
		isDyn := strings.ContainsAny(set, "|*")
		if dynamic[name] && !isDyn {
			t.Fatalf("%s narrowed back to %s", name, set)
		}
		dynamic[name] = dynamic[name] || isDyn
	}
	if !dynamic["x"] {
		t.Fatal("x should have widened to dynamic")
	}
	if _, y := lookup(t, res, res.Global, "y"); y.Type != types.SetInt|types.SetUnbounded {
		t.Fatalf("y = %s; str + int is unbounded", y.Type)
	}
	// the site was first seen with x = {int} and must follow the widening
	site := res.SiteOf(add)
	switch {
	case site == nil:
		t.Fatal("x + 1 has no site")
	case site.Class.Kind == ClassMonomorphic:
		t.Fatalf("x + 1 still monomorphic after x widened: %s", site.Class.Kind)
	case site.Stale:
		t.Fatal("x + 1 left stale")
	case site.Revisions < 2:
		t.Fatalf("x + 1 classified %d time(s), want a reclassification", site.Revisions)
	}
	for i := 1; i <= res.Table.Symbols.Len(); i++ {
		if res.Table.Symbol(symbolID(i)).InferredType() == types.Unknown {
			t.Fatalf("symbol #%d left unknown", i)
		}
	}
}

func TestIterationCapReportsNonConvergence(t *testing.T) {
	tr := asttest.New()
	tr.Program(
		tr.Assign("a", tr.Int(1)),
		tr.Assign("b", tr.Name("a")),
		tr.Assign("c", tr.Name("b")),
	)
	res, bag := analyze(t, tr, Options{MaxIterations: 1})
	expectCodes(t, bag, diag.SemaClassificationNonConvergence)
	if res.Converged || res.Iterations != 1 {
		t.Fatalf("converged=%v iterations=%d", res.Converged, res.Iterations)
	}
	for _, name := range []string{"b", "c"} {
		if _, sym := lookup(t, res, res.Global, name); sym.InferredType() != types.Dynamic {
			t.Fatalf("%s = %s, unfinished slots are promoted", name, sym.InferredType())
		}
	}
	for _, s := range res.AllSites() {
		if s.Class.Kind == ClassUnclassified {
			t.Fatalf("site %d unclassified", s.ID)
		}
	}
}

func TestChainBudget(t *testing.T) {
	tr := asttest.New()
	// f7 calls f6 ... calls f0; defined callers first so every slot waits on a later one
	var stmts []ast.StmtID
	for i := 7; i > 0; i-- {
		stmts = append(stmts, tr.Def(fmt.Sprintf("f%d", i), nil, tr.Return(tr.Call(fmt.Sprintf("f%d", i-1)))))
	}
	stmts = append(stmts, tr.Def("f0", nil, tr.Return(tr.Int(0))))
	top := tr.Call("f7")
	stmts = append(stmts, tr.Assign("r", top))
	tr.Program(stmts...)

	res, bag := analyze(t, tr, Options{})
	expectCodes(t, bag)
	if !res.Converged || res.Iterations > res.Budget {
		t.Fatalf("iterations %d budget %d converged %v", res.Iterations, res.Budget, res.Converged)
	}
	if res.ExprType(top) != types.Int {
		t.Fatalf("f7() = %s", res.ExprType(top))
	}
}

func TestLiteralKinds(t *testing.T) {
	tr := asttest.New()
	tr.Program(
		tr.Assign("x", tr.Int(3)),
		tr.Assign("s", tr.FString("x=", tr.Name("x"))),
		tr.Assign("z", tr.None()),
	)
	res, bag := analyze(t, tr, Options{})
	expectCodes(t, bag)
	want := map[string]types.Type{"x": types.Int, "s": types.Str, "z": types.NoneType}
	for name, typ := range want {
		if _, sym := lookup(t, res, res.Global, name); sym.InferredType() != typ {
			t.Fatalf("%s = %s, want %s", name, sym.InferredType(), typ)
		}
	}
}

func TestInvalidPlaceholderIsDynamic(t *testing.T) {
	tr := asttest.New()
	bad := tr.Invalid()
	add := tr.Bin(ast.ExprBinaryAdd, tr.Name("w"), tr.Int(1))
	tr.Program(
		tr.Assign("w", bad),
		tr.Expr(tr.Call("print", add)),
	)
	res, bag := analyze(t, tr, Options{})
	expectCodes(t, bag)
	if got := res.ExprType(bad); got != types.Dynamic {
		t.Fatalf("placeholder typed %s, want dynamic", got)
	}
	if _, w := lookup(t, res, res.Global, "w"); !w.Type.IsUnbounded() {
		t.Fatalf("w = %s; an unreadable value is unbounded", w.Type)
	}
	if site := res.SiteOf(add); site == nil || site.Class.Kind != ClassMegamorphic || site.Strategy != StrategyGenericDispatch {
		t.Fatalf("w + 1 site = %v, want megamorphic generic dispatch", site)
	}
}
