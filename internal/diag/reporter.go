package diag

import (
	"strconv"

	"pycc/internal/source"
)

// Reporter is the sink passes emit diagnostics into.
type Reporter interface {
	Report(code Code, sev Severity, primary source.Span, msg string, notes []Note, attrs []Attr)
}

// ReportBuilder accumulates notes and attributes before emitting.
type ReportBuilder struct {
	reporter Reporter
	code     Code
	sev      Severity
	primary  source.Span
	msg      string
	notes    []Note
	attrs    []Attr
	emitted  bool
}

func NewReportBuilder(r Reporter, sev Severity, code Code, primary source.Span, msg string) *ReportBuilder {
	if r == nil {
		return nil
	}
	return &ReportBuilder{
		reporter: r,
		code:     code,
		sev:      sev,
		primary:  primary,
		msg:      msg,
	}
}

func ReportError(r Reporter, code Code, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevError, code, primary, msg)
}

func ReportWarning(r Reporter, code Code, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevWarning, code, primary, msg)
}

func ReportInfo(r Reporter, code Code, primary source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevInfo, code, primary, msg)
}

func (b *ReportBuilder) WithNote(sp source.Span, msg string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.notes = append(b.notes, Note{Span: sp, Msg: msg})
	return b
}

func (b *ReportBuilder) WithAttr(key, value string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.attrs = append(b.attrs, Attr{Key: key, Value: value})
	return b
}

func (b *ReportBuilder) WithIntAttr(key string, value int) *ReportBuilder {
	return b.WithAttr(key, strconv.Itoa(value))
}

// Emit sends the diagnostic once; later calls are no-ops.
func (b *ReportBuilder) Emit() {
	if b == nil || b.emitted || b.reporter == nil {
		return
	}
	b.emitted = true
	b.reporter.Report(b.code, b.sev, b.primary, b.msg, b.notes, b.attrs)
}

// BagReporter адаптирует Reporter к Bag.
type BagReporter struct {
	Bag *Bag
}

func (r BagReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note, attrs []Attr) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  msg,
		Primary:  primary,
		Notes:    notes,
		Attrs:    attrs,
	})
}

// NopReporter drops everything.
type NopReporter struct{}

func (NopReporter) Report(Code, Severity, source.Span, string, []Note, []Attr) {}

// DedupReporter suppresses a second report with the same code and primary span.
type DedupReporter struct {
	Next Reporter
	seen map[dedupKey]struct{}
}

type dedupKey struct {
	code Code
	span source.Span
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{Next: next, seen: make(map[dedupKey]struct{})}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note, attrs []Attr) {
	k := dedupKey{code: code, span: primary}
	if _, ok := r.seen[k]; ok {
		return
	}
	r.seen[k] = struct{}{}
	if r.Next != nil {
		r.Next.Report(code, sev, primary, msg, notes, attrs)
	}
}
