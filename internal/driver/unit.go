package driver

import (
	"context"
	"errors"
	"fmt"

	"pycc/internal/ast"
	"pycc/internal/diag"
	"pycc/internal/observ"
	"pycc/internal/sema"
	"pycc/internal/source"
	"pycc/internal/trace"
	"pycc/internal/treeio"
)

// UnitResult is the outcome of analysing one tree document. Every unit owns
// its FileSet, Builder and Bag; nothing is shared with other units except the
// read-only builtin table.
type UnitResult struct {
	Path    string
	Files   *source.FileSet
	Builder *ast.Builder
	Unit    treeio.Unit
	Bag     *diag.Bag
	// Sema is nil when the unit came from the cache or did not decode.
	Sema   *sema.Result
	Cached bool
	Timing observ.Report
	// Err is an I/O failure. Decode failures are IOTreeDecode diagnostics.
	Err error
}

// HasErrors reports whether the unit must not proceed to code generation.
func (u *UnitResult) HasErrors() bool {
	return u.Err != nil || u.Bag.HasErrors()
}

// AnalyzeUnit loads one tree document and runs every pass over it. The
// returned error is reserved for cancellation; I/O failures land in
// UnitResult.Err so multi-unit runs can keep going.
func AnalyzeUnit(ctx context.Context, path string, opts Options) (*UnitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.OnStart != nil {
		opts.OnStart(path)
	}
	tracer := opts.tracer(ctx)
	_, span := trace.StartSpan(trace.WithUnit(ctx, path), tracer, trace.ScopeUnit, "unit")

	timer := observ.NewTimer()
	res := &UnitResult{
		Path:    path,
		Files:   source.NewFileSet(),
		Builder: ast.NewBuilder(ast.Hints{}, nil),
		Bag:     diag.NewBag(opts.MaxDiagnostics),
	}
	reporter := diag.BagReporter{Bag: res.Bag}

	done := timer.Track("load")
	unit, err := treeio.Load(path, res.Builder, res.Files, reporter)
	res.Unit = unit
	switch {
	case errors.Is(err, treeio.ErrDecode):
		done("undecodable")
	case err != nil:
		done("")
		res.Err = err
	default:
		done(fmt.Sprintf("%d stmts", res.Builder.Stmts.Len()))
	}
	if err != nil {
		res.Timing = timer.Report()
		span.End("failed")
		opts.notify(res)
		return res, nil
	}

	key := cacheKey(unit.Digest, res.Files.Get(unit.Source).Hash, &opts)
	if opts.Cache != nil {
		done = timer.Track("cache")
		hit, cacheErr := res.restore(opts.Cache, key)
		if cacheErr != nil {
			trace.Point(tracer, trace.ScopeUnit, "cache-error", span.ID(), cacheErr.Error())
		}
		res.Cached = hit
		if hit {
			done("hit")
		} else {
			done("miss")
		}
	}

	if !res.Cached {
		done = timer.Track("sema")
		res.Sema = sema.Analyze(res.Builder, unit.File, sema.Options{
			Reporter:        reporter,
			Builtins:        opts.builtins(),
			Stage:           opts.Stage,
			MaxIterations:   opts.MaxIterations,
			ReportShadowing: opts.ReportShadowing,
			Tracer:          tracer,
			ParentSpan:      span.ID(),
		})
		done(fmt.Sprintf("iterations=%d/%d", res.Sema.Iterations, res.Sema.Budget))
		if opts.Cache != nil {
			if putErr := opts.Cache.Put(key, newCachePayload(res)); putErr != nil {
				trace.Point(tracer, trace.ScopeUnit, "cache-error", span.ID(), putErr.Error())
			}
		}
	}

	if opts.WarningsAsErrors {
		res.Bag.Transform(func(d *diag.Diagnostic) {
			if d.Severity == diag.SevWarning {
				d.Severity = diag.SevError
			}
		})
	}
	res.Timing = timer.Report()
	span.End(fmt.Sprintf("diagnostics=%d cached=%t", res.Bag.Len(), res.Cached))
	opts.notify(res)
	return res, nil
}

func (o *Options) notify(res *UnitResult) {
	if o.OnUnit != nil {
		o.OnUnit(res)
	}
}
