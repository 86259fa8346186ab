package ast

import (
	"pycc/internal/source"
)

type Hints struct{ Files, Stmts, Exprs uint }

// Builder owns every arena of one parsed unit plus the interner its names live in.
type Builder struct {
	Files           *Files
	Stmts           *Stmts
	Exprs           *Exprs
	StringsInterner *source.Interner
}

func NewBuilder(hints Hints, strs *source.Interner) *Builder {
	if hints.Files == 0 {
		hints.Files = 1 << 2
	}
	if hints.Stmts == 0 {
		hints.Stmts = 1 << 8
	}
	if hints.Exprs == 0 {
		hints.Exprs = 1 << 8
	}
	if strs == nil {
		strs = source.NewInterner()
	}
	return &Builder{
		Files:           NewFiles(hints.Files),
		Stmts:           NewStmts(hints.Stmts),
		Exprs:           NewExprs(hints.Exprs),
		StringsInterner: strs,
	}
}

func (b *Builder) NewFile(sp source.Span) FileID {
	return b.Files.New(sp)
}

// PushStmt appends a module-level statement to the file body.
func (b *Builder) PushStmt(file FileID, stmt StmtID) {
	f := b.Files.Get(file)
	if f == nil {
		return
	}
	f.Body = append(f.Body, stmt)
}

// Name returns the text of an interned name, or "" when unknown.
func (b *Builder) Name(id source.StringID) string {
	s, _ := b.StringsInterner.Lookup(id)
	return s
}
