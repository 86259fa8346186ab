package diag

import (
	"testing"

	"pycc/internal/source"
)

func TestBagKeepsDetectionOrder(t *testing.T) {
	bag := NewBag(0)
	r := BagReporter{Bag: bag}
	ReportError(r, SemaUndeclaredName, source.Span{Start: 10, End: 11}, "b").Emit()
	ReportWarning(r, SemaUnreachableCode, source.Span{Start: 1, End: 2}, "w").Emit()
	ReportError(r, SemaUndeclaredName, source.Span{Start: 3, End: 4}, "a").Emit()

	items := bag.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d", len(items))
	}
	if items[0].Message != "b" || items[1].Message != "w" || items[2].Message != "a" {
		t.Fatalf("unexpected order: %q %q %q", items[0].Message, items[1].Message, items[2].Message)
	}
	if !bag.HasErrors() || !bag.HasWarnings() {
		t.Fatalf("expected both errors and warnings")
	}
	if got := bag.Count(SevError); got != 2 {
		t.Fatalf("expected 2 errors, got %d", got)
	}
}

func TestBagLimitCountsDroppedErrors(t *testing.T) {
	bag := NewBag(1)
	if !bag.Add(New(SevWarning, SemaUnreachableCode, source.Span{}, "w")) {
		t.Fatalf("first add must succeed")
	}
	if bag.Add(NewError(SemaArityMismatch, source.Span{}, "e")) {
		t.Fatalf("second add must be rejected")
	}
	if bag.Len() != 1 || bag.Dropped() != 1 {
		t.Fatalf("len=%d dropped=%d", bag.Len(), bag.Dropped())
	}
	if !bag.HasErrors() {
		t.Fatalf("dropped error must still count as an error")
	}
}

func TestBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(0)
	b := ReportError(BagReporter{Bag: bag}, SemaArityMismatch, source.Span{}, "arity").
		WithIntAttr("expected", 2).
		WithIntAttr("actual", 1).
		WithNote(source.Span{Start: 4, End: 5}, "declared here")
	b.Emit()
	b.Emit()
	if bag.Len() != 1 {
		t.Fatalf("expected single emission, got %d", bag.Len())
	}
	d := bag.Items()[0]
	if v, ok := d.Attr("expected"); !ok || v != "2" {
		t.Fatalf("expected attr = %q, %v", v, ok)
	}
	if v, ok := d.Attr("actual"); !ok || v != "1" {
		t.Fatalf("actual attr = %q, %v", v, ok)
	}
	if len(d.Notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(d.Notes))
	}
}

func TestNilReporterBuilderIsNoop(t *testing.T) {
	ReportError(nil, SemaError, source.Span{}, "x").WithNote(source.Span{}, "n").Emit()
}

func TestDedupReporter(t *testing.T) {
	bag := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{Start: 1, End: 5}
	ReportError(r, SemaDuplicateDeclaration, sp, "dup").Emit()
	ReportError(r, SemaDuplicateDeclaration, sp, "dup again").Emit()
	ReportError(r, SemaUndeclaredName, sp, "other code").Emit()
	if bag.Len() != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", bag.Len())
	}
}

func TestCodeNames(t *testing.T) {
	if got := SemaDuplicateDeclaration.ID(); got != "SEM3002" {
		t.Fatalf("ID = %q", got)
	}
	if got := SemaArityMismatch.Kind(); got != "ArityMismatch" {
		t.Fatalf("Kind = %q", got)
	}
	if got := Code(9999).Kind(); got != "Unknown" {
		t.Fatalf("unknown Kind = %q", got)
	}
}

func TestFormatShort(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.py", []byte("x = 1\nprint(y)\n"))
	d := NewError(SemaUndeclaredName, source.Span{File: id, Start: 12, End: 13}, "name 'y' is not declared")
	got := FormatShort(&d, fs)
	want := "main.py:2:7: UndeclaredName: name 'y' is not declared"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
