package sema

import (
	"strings"
	"testing"

	"pycc/internal/ast/asttest"
	"pycc/internal/diag"
	"pycc/internal/symbols"
)

func analyze(t *testing.T, tr *asttest.Tree, opts Options) (*Result, *diag.Bag) {
	t.Helper()
	bag := diag.NewBag(0)
	opts.Reporter = diag.BagReporter{Bag: bag}
	res := Analyze(tr.B, tr.File, opts)
	if err := res.Table.Validate(); err != nil {
		t.Fatalf("table invariants: %v", err)
	}
	return res, bag
}

func lookup(t *testing.T, res *Result, scope symbols.ScopeID, name string) (symbols.SymbolID, *symbols.Symbol) {
	t.Helper()
	id, ok := res.Table.Lookup(scope, res.Table.Strings.Intern(name))
	if !ok {
		t.Fatalf("%q not visible from scope %d", name, scope)
	}
	return id, res.Table.Symbol(id)
}

func codes(bag *diag.Bag) []diag.Code {
	out := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func expectCodes(t *testing.T, bag *diag.Bag, want ...diag.Code) {
	t.Helper()
	got := codes(bag)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v:\n%s", want, got, dumpBag(bag))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v:\n%s", want, got, dumpBag(bag))
		}
	}
}

func dumpBag(bag *diag.Bag) string {
	var sb strings.Builder
	for _, d := range bag.Items() {
		sb.WriteString(d.Severity.Label() + " " + d.Code.ID() + ": " + d.Message + "\n")
	}
	return sb.String()
}

func symbolID(i int) symbols.SymbolID { return symbols.SymbolID(i) }
