package sema

import (
	"fmt"

	"pycc/internal/ast"
	"pycc/internal/diag"
	"pycc/internal/symbols"
	"pycc/internal/trace"
)

// Analyze runs the passes selected by opts.Stage over one file and always
// returns a complete Result; problems are reported, never returned.
func Analyze(builder *ast.Builder, fileID ast.FileID, opts Options) *Result {
	builtins := opts.Builtins
	if builtins == nil {
		builtins = symbols.NewDefaultBuiltins()
	}
	table := symbols.NewTable(symbols.Hints{
		Scopes:  uint(builder.Stmts.Len()/4 + 4),
		Symbols: uint(builder.Exprs.Len()/2 + 16),
	}, builder.StringsInterner, builtins)
	res := newResult(builder, table)

	file := builder.Files.Get(fileID)
	if file == nil {
		return res
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = diag.NopReporter{}
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	c := &checker{
		builder:  builder,
		fileID:   fileID,
		file:     file,
		table:    table,
		reporter: reporter,
		opts:     opts,
		tracer:   tracer,
		result:   res,
		funcOf:   make(map[symbols.ScopeID]symbols.SymbolID),
		reported: make(map[symbols.SymbolID]bool),
	}
	c.run()
	return res
}

type checker struct {
	builder  *ast.Builder
	fileID   ast.FileID
	file     *ast.File
	table    *symbols.Table
	reporter diag.Reporter
	opts     Options
	tracer   trace.Tracer
	result   *Result

	// funcOf maps a Function body scope to its function symbol.
	funcOf map[symbols.ScopeID]symbols.SymbolID
	// reported marks function symbols already flagged as duplicates.
	reported map[symbols.SymbolID]bool
	// declared is the resolution cursor: variables whose declaring statement completed.
	declared []bool
	// passSpan is the trace span of the running pass.
	passSpan uint64
}

func (c *checker) run() {
	root := trace.Begin(c.tracer, trace.ScopeUnit, "sema", c.opts.ParentSpan)
	defer root.End("")

	c.pass(root.ID(), "declare", c.declarePass)
	if !c.opts.Stage.includes(StageResolve) {
		return
	}
	c.pass(root.ID(), "resolve", c.resolvePass)
	if !c.opts.Stage.includes(StageClassify) {
		return
	}
	c.pass(root.ID(), "classify", c.classifyPass)
	if c.opts.Stage != StageAll {
		return
	}
	c.pass(root.ID(), "validate", c.validatePass)
}

func (c *checker) pass(parent uint64, name string, fn func()) {
	span := trace.Begin(c.tracer, trace.ScopePass, "sema/"+name, parent)
	c.passSpan = span.ID()
	fn()
	span.End(fmt.Sprintf("scopes=%d symbols=%d", c.table.Scopes.Len(), c.table.Symbols.Len()))
}

func (c *checker) symName(id symbols.SymbolID) string {
	if sym := c.table.Symbol(id); sym != nil {
		return c.table.NameString(sym.Name)
	}
	return ""
}
