// Package testkit holds checks shared by the tests of the front-end packages.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"pycc/internal/ast"
	"pycc/internal/source"
)

// CheckSpanInvariants verifies the spans of a lowered file:
// 1) the file span lies within the source content
// 2) every statement and expression span is non-empty and points at the file
// 3) every node lies within the span of its parent
func CheckSpanInvariants(b *ast.Builder, fileID ast.FileID, sf *source.File) error {
	if b == nil || sf == nil {
		return fmt.Errorf("nil builder or file")
	}
	f := b.Files.Get(fileID)
	if f == nil {
		return fmt.Errorf("file node not found")
	}
	if f.Span.File != sf.ID {
		return fmt.Errorf("file span points to different file id: got=%d want=%d", f.Span.File, sf.ID)
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if f.Span.End > lenContent {
		return fmt.Errorf("file span end beyond content: %d > %d", f.Span.End, lenContent)
	}
	c := spanChecker{b: b, file: sf.ID}
	return c.block(f.Body, f.Span)
}

type spanChecker struct {
	b    *ast.Builder
	file source.FileID
}

func (c spanChecker) within(what string, sp, parent source.Span) error {
	if sp.Empty() {
		return fmt.Errorf("empty %s span: %v", what, sp)
	}
	if sp.File != c.file {
		return fmt.Errorf("%s span file mismatch: got=%d want=%d", what, sp.File, c.file)
	}
	if sp.Start < parent.Start || sp.End > parent.End {
		return fmt.Errorf("%s span %v is outside %v", what, sp, parent)
	}
	return nil
}

func (c spanChecker) block(ids []ast.StmtID, parent source.Span) error {
	for _, id := range ids {
		if err := c.stmt(id, parent); err != nil {
			return err
		}
	}
	return nil
}

func (c spanChecker) stmt(id ast.StmtID, parent source.Span) error {
	st := c.b.Stmts.Get(id)
	if st == nil {
		return fmt.Errorf("nil statement for id=%d", id)
	}
	sp := st.Span
	if err := c.within(st.Kind.String(), sp, parent); err != nil {
		return err
	}
	stmts := c.b.Stmts
	switch st.Kind {
	case ast.StmtFunc:
		data := stmts.Func(id)
		for _, p := range data.Params {
			if err := c.within("parameter", p.Span, sp); err != nil {
				return err
			}
		}
		return c.block(data.Body, sp)
	case ast.StmtAssign:
		data := stmts.Assign(id)
		if err := c.within("assignment target", data.TargetSpan, sp); err != nil {
			return err
		}
		return c.expr(data.Value, sp)
	case ast.StmtReturn:
		if v := stmts.Return(id).Value; v.IsValid() {
			return c.expr(v, sp)
		}
	case ast.StmtExpr:
		return c.expr(stmts.Expr(id).Expr, sp)
	case ast.StmtIf:
		data := stmts.If(id)
		if err := c.expr(data.Cond, sp); err != nil {
			return err
		}
		if err := c.block(data.Then, sp); err != nil {
			return err
		}
		return c.block(data.Else, sp)
	case ast.StmtWhile:
		data := stmts.While(id)
		if err := c.expr(data.Cond, sp); err != nil {
			return err
		}
		return c.block(data.Body, sp)
	}
	return nil
}

func (c spanChecker) expr(id ast.ExprID, parent source.Span) error {
	e := c.b.Exprs.Get(id)
	if e == nil {
		return fmt.Errorf("nil expression for id=%d", id)
	}
	if err := c.within("expression", e.Span, parent); err != nil {
		return err
	}
	for _, child := range c.b.ExprChildren(id) {
		if err := c.expr(child, e.Span); err != nil {
			return err
		}
	}
	return nil
}
