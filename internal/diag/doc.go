// Package diag defines the diagnostic model shared by all analysis passes.
//
// Passes never stop on an error: they emit a Diagnostic through a Reporter
// and continue with a recovery value. BagReporter collects diagnostics into a
// Bag in detection order; the Bag is append-only and is what a compilation
// run hands to its caller together with the annotated tree.
//
// Each Diagnostic carries a Code (stable numeric ID plus a kind name), a
// Severity, a primary source.Span, optional notes and optional attributes
// (structured facts such as expected/actual argument counts). Nothing here
// formats for terminals; see internal/diagfmt for rendering.
package diag
