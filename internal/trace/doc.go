// Package trace records structured begin/end events for the driver, each
// analysed unit and every pass over it. It is the logging layer of pycc:
// nothing in the analysis core prints, it emits events here.
//
// Enable it from the CLI:
//
//	pycc check --trace=- --trace-level=phase prog.json
//
// Tracers:
//
//   - Nop: disabled, zero overhead
//   - StreamTracer: writes each event immediately (text or NDJSON)
//   - RingTracer: keeps the last N events for post-mortem dumps
//   - MultiTracer: fans out to several tracers
//   - Heartbeat: wraps another tracer and periodically reports the unit
//     and pass each worker is in
//
// Levels gate scopes: phase shows driver and pass spans, detail adds
// per-unit spans, debug adds node-level points such as slot widenings.
//
//	span := trace.Begin(t, trace.ScopePass, "sema/resolve", parentID)
//	defer span.End("")
//
// Across goroutines the parent span and unit path travel in the context:
//
//	ctx, span := trace.StartSpan(trace.WithUnit(ctx, path), t, trace.ScopeUnit, "unit")
package trace
