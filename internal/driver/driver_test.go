package driver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"pycc/internal/diag"
	"pycc/internal/trace"
	"pycc/internal/treeio"
	"pycc/internal/value"
)

func lit(v string) *treeio.Expr { return &treeio.Expr{Kind: "lit", Type: "int", Value: v} }

func name(id string) *treeio.Expr { return &treeio.Expr{Kind: "name", ID: id} }

func call(fn string, args ...*treeio.Expr) *treeio.Expr {
	return &treeio.Expr{Kind: "call", Func: fn, Args: args}
}

// x = 1
// def f(a):
//     return a + x
// print(f(2))
func goodDoc() *treeio.Document {
	return &treeio.Document{Path: "good.py", Body: []treeio.Stmt{
		{Kind: "assign", Target: "x", Value: lit("1")},
		{Kind: "def", Name: "f", Params: []treeio.Param{{Name: "a"}}, Body: []treeio.Stmt{
			{Kind: "return", Value: &treeio.Expr{Kind: "binary", Op: "+", Left: name("a"), Right: name("x")}},
		}},
		{Kind: "expr", Expr: call("print", call("f", lit("2")))},
	}}
}

// print(y)
// print(z)
func badDoc() *treeio.Document {
	return &treeio.Document{Path: "bad.py", Body: []treeio.Stmt{
		{Kind: "expr", Expr: call("print", name("y"))},
		{Kind: "expr", Expr: call("print", name("z"))},
	}}
}

// def f():
//     return 1
//     print(2)
// f()
func warnDoc() *treeio.Document {
	return &treeio.Document{Path: "warn.py", Body: []treeio.Stmt{
		{Kind: "def", Name: "f", Body: []treeio.Stmt{
			{Kind: "return", Value: lit("1")},
			{Kind: "expr", Expr: call("print", lit("2"))},
		}},
		{Kind: "expr", Expr: call("f")},
	}}
}

func writeDoc(t *testing.T, dir, file string, doc *treeio.Document) string {
	t.Helper()
	data, err := treeio.Encode(doc, treeio.FormatForPath(file))
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func shortAll(u *UnitResult) string {
	return diag.FormatShortAll(u.Bag, u.Files)
}

func phaseNames(u *UnitResult) []string {
	var names []string
	for _, p := range u.Timing.Phases {
		names = append(names, p.Name)
	}
	return names
}

func TestAnalyzeUnit(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "good.json", goodDoc())
	res, err := AnalyzeUnit(context.Background(), path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Err != nil || res.HasErrors() || res.Bag.Len() != 0 {
		t.Fatalf("unexpected failure: %v\n%s", res.Err, shortAll(res))
	}
	if res.Sema == nil || !res.Sema.Converged {
		t.Fatal("expected a converged semantic result")
	}
	if got := phaseNames(res); !slices.Equal(got, []string{"load", "sema"}) {
		t.Fatalf("phases = %v", got)
	}
}

func TestAnalyzeUnitReportsErrors(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "bad.mp", badDoc())
	res, err := AnalyzeUnit(context.Background(), path, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(res.Bag.ByCode(diag.SemaUndeclaredName)); got != 2 {
		t.Fatalf("undeclared = %d\n%s", got, shortAll(res))
	}
	if !res.HasErrors() {
		t.Fatal("undeclared names must block code generation")
	}
}

func TestAnalyzeUnitFailures(t *testing.T) {
	dir := t.TempDir()
	missing, err := AnalyzeUnit(context.Background(), filepath.Join(dir, "missing.json"), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if missing.Err == nil || !missing.HasErrors() {
		t.Fatal("missing input must fail the unit")
	}

	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, []byte(`{"body": [`), 0o600); err != nil {
		t.Fatal(err)
	}
	res, err := AnalyzeUnit(context.Background(), broken, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Err != nil || res.Sema != nil {
		t.Fatalf("decode failure must be a diagnostic: err=%v", res.Err)
	}
	if len(res.Bag.ByCode(diag.IOTreeDecode)) != 1 || !res.HasErrors() {
		t.Fatalf("diagnostics:\n%s", shortAll(res))
	}
}

func TestWarningsAsErrors(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "warn.json", warnDoc())
	plain, _ := AnalyzeUnit(context.Background(), path, Options{})
	if plain.HasErrors() || !plain.Bag.HasWarnings() {
		t.Fatalf("expected only warnings:\n%s", shortAll(plain))
	}
	strict, _ := AnalyzeUnit(context.Background(), path, Options{WarningsAsErrors: true})
	if !strict.HasErrors() || strict.Bag.HasWarnings() {
		t.Fatalf("expected promoted warnings:\n%s", shortAll(strict))
	}
}

func TestAnalyzeAllKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i := range 6 {
		file := fmt.Sprintf("u%d", i)
		if i%2 == 0 {
			paths = append(paths, writeDoc(t, dir, file+".json", goodDoc()))
		} else {
			paths = append(paths, writeDoc(t, dir, file+".mp", badDoc()))
		}
	}
	var seen atomic.Int32
	results, err := AnalyzeAll(context.Background(), paths, Options{
		Jobs:   3,
		OnUnit: func(*UnitResult) { seen.Add(1) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(paths) || int(seen.Load()) != len(paths) {
		t.Fatalf("results=%d callbacks=%d", len(results), seen.Load())
	}
	for i, r := range results {
		if r.Path != paths[i] {
			t.Fatalf("result %d is %s, want %s", i, r.Path, paths[i])
		}
		if r.HasErrors() != (i%2 == 1) {
			t.Fatalf("unit %s: errors=%t\n%s", r.Path, r.HasErrors(), shortAll(r))
		}
	}
	if total := Totals(results); len(total.Phases) != 2 {
		t.Fatalf("aggregate phases = %+v", total.Phases)
	}
}

func TestAnalyzeAllCancelled(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "good.json", goodDoc())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := AnalyzeAll(ctx, []string{path, path}, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "bad.json", badDoc())
	cache, err := OpenDiskCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{Cache: cache}

	first, _ := AnalyzeUnit(context.Background(), path, opts)
	if first.Cached || first.Sema == nil {
		t.Fatal("first run must analyse")
	}
	second, _ := AnalyzeUnit(context.Background(), path, opts)
	if !second.Cached || second.Sema != nil {
		t.Fatal("second run must come from the cache")
	}
	if shortAll(first) != shortAll(second) {
		t.Fatalf("cached diagnostics differ:\n%s\nvs\n%s", shortAll(first), shortAll(second))
	}
	if got := phaseNames(second); !slices.Equal(got, []string{"load", "cache"}) {
		t.Fatalf("phases = %v", got)
	}

	opts.ReportShadowing = true
	if third, _ := AnalyzeUnit(context.Background(), path, opts); third.Cached {
		t.Fatal("changed options must miss the cache")
	}

	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	if again, _ := AnalyzeUnit(context.Background(), path, Options{Cache: cache}); again.Cached {
		t.Fatal("dropped cache must miss")
	}
}

func TestCacheSkipsTruncatedBags(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "bad.json", badDoc())
	cache, err := OpenDiskCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{Cache: cache, MaxDiagnostics: 1}
	first, _ := AnalyzeUnit(context.Background(), path, opts)
	if first.Bag.Dropped() != 1 {
		t.Fatalf("dropped = %d", first.Bag.Dropped())
	}
	if second, _ := AnalyzeUnit(context.Background(), path, opts); second.Cached {
		t.Fatal("a truncated bag must not be cached")
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "good.json", goodDoc())
	res, _ := AnalyzeUnit(context.Background(), path, Options{})
	a, err := BuildArtifact(res)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteArtifact(&buf, a); err != nil {
		t.Fatal(err)
	}
	got, err := ReadArtifact(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Layout.Size != value.DefaultLayout().Size || len(got.Layout.Tags) != 5 {
		t.Fatalf("layout = %+v", got.Layout)
	}
	typesByName := got.Types()
	if typesByName["x"] != "int" || typesByName["f"] != "function" {
		t.Fatalf("types = %v", typesByName)
	}
	var ints []int64
	for _, c := range got.Constants {
		if n, ok := c.AsInt(); ok {
			ints = append(ints, n)
		}
	}
	if !slices.Equal(ints, []int64{1, 2}) {
		t.Fatalf("int constants = %v", ints)
	}
	var plus *ArtifactSite
	for i := range got.Sites {
		if got.Sites[i].Op == "+" {
			plus = &got.Sites[i]
		}
	}
	if plus == nil {
		t.Fatalf("no '+' site in %+v", got.Sites)
	}
	// a is a parameter, so the addition cannot be bounded.
	if plus.Class != "megamorphic" || plus.Strategy != "generic" {
		t.Fatalf("'+' site = %+v", *plus)
	}
	if got.HasErrors || !got.Converged || len(got.Diagnostics) != 0 {
		t.Fatalf("artifact status = %t %t %d", got.HasErrors, got.Converged, len(got.Diagnostics))
	}
}

func TestArtifactRejectsOtherSchema(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteArtifact(&buf, &Artifact{Schema: ArtifactSchema + 1, Strings: value.NewStrPool()}); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadArtifact(&buf); !errors.Is(err, ErrArtifactSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
	if _, err := BuildArtifact(&UnitResult{}); !errors.Is(err, ErrNoSemantics) {
		t.Fatalf("expected ErrNoSemantics, got %v", err)
	}
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"b.json", "a.mp", "notes.txt", ".hidden.json"} {
		if err := os.WriteFile(filepath.Join(dir, f), nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	extra := filepath.Join(dir, "notes.txt")
	got, err := ExpandPaths([]string{dir, extra})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.mp"), filepath.Join(dir, "b.json"), extra}
	if !slices.Equal(got, want) {
		t.Fatalf("paths = %v, want %v", got, want)
	}
	if _, err := ExpandPaths([]string{filepath.Join(dir, "nope")}); err == nil {
		t.Fatal("expected error for a missing input")
	}
}

func TestWriteTimingsJSON(t *testing.T) {
	dir := t.TempDir()
	paths := []string{writeDoc(t, dir, "a.json", goodDoc()), writeDoc(t, dir, "b.json", warnDoc())}
	results, err := AnalyzeAll(context.Background(), paths, Options{Jobs: 2})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteTimings(&buf, results, true); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines:\n%s", buf.String())
	}
	var last timingPayload
	if err := json.Unmarshal([]byte(lines[2]), &last); err != nil {
		t.Fatal(err)
	}
	if last.Kind != "total" || len(last.Phases) != 2 {
		t.Fatalf("total = %+v", last)
	}

	buf.Reset()
	if err := WriteTimings(&buf, results, false); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "all 2 units") {
		t.Fatalf("text timings:\n%s", buf.String())
	}
}

func TestAnalyzeUnitUsesContextTracer(t *testing.T) {
	path := writeDoc(t, t.TempDir(), "good.json", goodDoc())
	ring := trace.NewRingTracer(256, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	if _, err := AnalyzeUnit(ctx, path, Options{}); err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, ev := range ring.Snapshot() {
		seen[ev.Name] = true
	}
	for _, want := range []string{"unit:" + path, "sema", "sema/resolve", "sema/validate"} {
		if !seen[want] {
			t.Fatalf("no %q event in %v", want, seen)
		}
	}
}
