// Package asttest builds syntax trees for tests without a parser.
package asttest

import (
	"strconv"

	"pycc/internal/ast"
	"pycc/internal/source"
)

// Tree wraps a Builder with one unit and hands out distinct synthetic spans.
type Tree struct {
	B     *ast.Builder
	Files *source.FileSet
	File  ast.FileID

	src source.FileID
	off uint32
}

func New() *Tree {
	return NewNamed("test.py")
}

func NewNamed(path string) *Tree {
	fs := source.NewFileSet()
	src := fs.AddVirtual(path, nil)
	b := ast.NewBuilder(ast.Hints{}, nil)
	return &Tree{
		B:     b,
		Files: fs,
		File:  b.NewFile(source.Span{File: src}),
		src:   src,
	}
}

func (t *Tree) span() source.Span {
	sp := source.Span{File: t.src, Start: t.off, End: t.off + 1}
	t.off += 2
	return sp
}

func (t *Tree) intern(s string) source.StringID {
	return t.B.StringsInterner.Intern(s)
}

func (t *Tree) Int(v int64) ast.ExprID {
	return t.B.Exprs.NewLiteral(t.span(), ast.ExprLitInt, t.intern(strconv.FormatInt(v, 10)))
}

func (t *Tree) Float(v float64) ast.ExprID {
	return t.B.Exprs.NewLiteral(t.span(), ast.ExprLitFloat, t.intern(strconv.FormatFloat(v, 'g', -1, 64)))
}

func (t *Tree) Str(s string) ast.ExprID {
	return t.B.Exprs.NewLiteral(t.span(), ast.ExprLitString, t.intern(s))
}

func (t *Tree) Bool(v bool) ast.ExprID {
	kind := ast.ExprLitFalse
	if v {
		kind = ast.ExprLitTrue
	}
	return t.B.Exprs.NewLiteral(t.span(), kind, source.NoStringID)
}

func (t *Tree) None() ast.ExprID {
	return t.B.Exprs.NewLiteral(t.span(), ast.ExprLitNone, source.NoStringID)
}

// Invalid is what a reader leaves behind for an unreadable expression.
func (t *Tree) Invalid() ast.ExprID {
	return t.B.Exprs.NewLiteral(t.span(), ast.ExprLitInvalid, source.NoStringID)
}

// FString builds f"<text>{e0}{e1}...".
func (t *Tree) FString(text string, exprs ...ast.ExprID) ast.ExprID {
	parts := []ast.FStringPart{{Text: t.intern(text)}}
	for _, e := range exprs {
		parts = append(parts, ast.FStringPart{Expr: e})
	}
	return t.B.Exprs.NewFString(t.span(), parts)
}

func (t *Tree) Name(name string) ast.ExprID {
	return t.B.Exprs.NewIdent(t.span(), t.intern(name))
}

func (t *Tree) Bin(op ast.ExprBinaryOp, l, r ast.ExprID) ast.ExprID {
	return t.B.Exprs.NewBinary(t.span(), op, l, r)
}

func (t *Tree) Un(op ast.ExprUnaryOp, x ast.ExprID) ast.ExprID {
	return t.B.Exprs.NewUnary(t.span(), op, x)
}

func (t *Tree) Call(name string, args ...ast.ExprID) ast.ExprID {
	return t.B.Exprs.NewCall(t.span(), t.Name(name), args)
}

func (t *Tree) Assign(name string, v ast.ExprID) ast.StmtID {
	return t.AugAssign(name, ast.AssignPlain, v)
}

func (t *Tree) AugAssign(name string, op ast.AssignOp, v ast.ExprID) ast.StmtID {
	return t.B.Stmts.NewAssign(t.span(), t.span(), t.intern(name), op, v)
}

func (t *Tree) Def(name string, params []string, body ...ast.StmtID) ast.StmtID {
	ps := make([]ast.Param, 0, len(params))
	for _, p := range params {
		ps = append(ps, ast.Param{Name: t.intern(p), Span: t.span()})
	}
	return t.B.Stmts.NewFunc(t.span(), t.span(), t.intern(name), ps, body)
}

func (t *Tree) Return(v ast.ExprID) ast.StmtID {
	return t.B.Stmts.NewReturn(t.span(), v)
}

func (t *Tree) ReturnBare() ast.StmtID {
	return t.B.Stmts.NewReturn(t.span(), ast.NoExprID)
}

func (t *Tree) Expr(e ast.ExprID) ast.StmtID {
	return t.B.Stmts.NewExpr(t.span(), e)
}

// Print is shorthand for the expression statement print(args...).
func (t *Tree) Print(args ...ast.ExprID) ast.StmtID {
	return t.Expr(t.Call("print", args...))
}

func (t *Tree) If(cond ast.ExprID, then, els []ast.StmtID) ast.StmtID {
	return t.B.Stmts.NewIf(t.span(), cond, then, els)
}

func (t *Tree) While(cond ast.ExprID, body ...ast.StmtID) ast.StmtID {
	return t.B.Stmts.NewWhile(t.span(), cond, body)
}

// Program appends stmts to the unit body and returns the file.
func (t *Tree) Program(stmts ...ast.StmtID) ast.FileID {
	for _, s := range stmts {
		t.B.PushStmt(t.File, s)
	}
	return t.File
}

// Block is a readability helper for If branches.
func Block(stmts ...ast.StmtID) []ast.StmtID { return stmts }
