package driver

import (
	"context"

	"pycc/internal/sema"
	"pycc/internal/symbols"
	"pycc/internal/trace"
)

// Options configure per-unit and multi-unit analysis.
type Options struct {
	// MaxDiagnostics caps each unit's bag; 0 means unlimited.
	MaxDiagnostics  int
	MaxIterations   int
	ReportShadowing bool
	// Stage stops analysis early; StageAll runs every pass.
	Stage sema.Stage
	// WarningsAsErrors promotes warnings after analysis; cached results are
	// stored before promotion.
	WarningsAsErrors bool
	// Jobs bounds parallel units; <= 0 means GOMAXPROCS.
	Jobs int

	// Builtins is shared by every unit; nil means the default table.
	Builtins *symbols.Builtins
	// Cache is consulted before analysis when set. Units that need the full
	// semantic result (dump) must run without it.
	Cache *DiskCache
	// Tracer defaults to the tracer attached to the context.
	Tracer trace.Tracer

	// OnStart and OnUnit are called around each unit, possibly from several
	// goroutines at once.
	OnStart func(path string)
	OnUnit  func(*UnitResult)
}

func (o *Options) builtins() *symbols.Builtins {
	if o.Builtins == nil {
		o.Builtins = symbols.NewDefaultBuiltins()
	}
	return o.Builtins
}

// tracer prefers the explicit tracer and falls back to the one carried by ctx.
func (o *Options) tracer(ctx context.Context) trace.Tracer {
	if o.Tracer == nil {
		return trace.FromContext(ctx)
	}
	return o.Tracer
}
