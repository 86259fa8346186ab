package trace

import "context"

// frame is what a context carries for tracing: the tracer, the span new
// work should hang under, and the unit being analyzed.
type frame struct {
	tracer Tracer
	span   uint64
	unit   string
}

type frameKey struct{}

func frameOf(ctx context.Context) frame {
	if ctx == nil {
		return frame{}
	}
	f, _ := ctx.Value(frameKey{}).(frame)
	return f
}

func withFrame(ctx context.Context, f frame) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, frameKey{}, f)
}

// FromContext returns the tracer attached by WithTracer, or Nop.
func FromContext(ctx context.Context) Tracer {
	if t := frameOf(ctx).tracer; t != nil {
		return t
	}
	return Nop
}

// WithTracer attaches t; the parent span and unit are kept.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	f := frameOf(ctx)
	f.tracer = t
	return withFrame(ctx, f)
}

// ParentSpan is the span opened by the nearest StartSpan up the context, 0 at the root.
func ParentSpan(ctx context.Context) uint64 { return frameOf(ctx).span }

// WithUnit records the path of the unit analyzed under ctx.
func WithUnit(ctx context.Context, path string) context.Context {
	f := frameOf(ctx)
	f.unit = path
	return withFrame(ctx, f)
}

// UnitOf returns the path set by WithUnit, or "".
func UnitOf(ctx context.Context) string { return frameOf(ctx).unit }

// StartSpan begins a span under ParentSpan(ctx) and returns a context whose
// children attach to it. Unit spans are named "unit:<path>" when ctx names a unit.
func StartSpan(ctx context.Context, t Tracer, scope Scope, name string) (context.Context, *Span) {
	f := frameOf(ctx)
	if scope == ScopeUnit && f.unit != "" {
		name += ":" + f.unit
	}
	span := Begin(t, scope, name, f.span)
	f.span = span.ID()
	return withFrame(ctx, f), span
}
