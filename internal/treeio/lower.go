package treeio

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pycc/internal/ast"
	"pycc/internal/diag"
	"pycc/internal/source"
)

// maxDepth bounds nesting so a hostile document cannot exhaust the stack.
const maxDepth = 2048

// Unit is a lowered document.
type Unit struct {
	File   ast.FileID
	Source source.FileID
	Path   string
	// Digest is the sha256 of the encoded document; zero for in-memory documents.
	Digest [32]byte
}

type lowerer struct {
	b      *ast.Builder
	file   source.FileID
	size   uint32
	r      diag.Reporter
	depth  int
	broken int
}

// Lower registers the document's source in fs and builds its tree into b.
// Malformed nodes are reported as IOTreeMalformed and replaced by inert
// placeholders; the returned count says how many were replaced.
func Lower(doc *Document, b *ast.Builder, fs *source.FileSet, r diag.Reporter) (Unit, int) {
	if r == nil {
		r = diag.NopReporter{}
	}
	path := doc.Path
	if path == "" {
		path = "<tree>"
	}
	src := fs.AddVirtual(path, []byte(doc.Source))
	l := &lowerer{b: b, file: src, size: uint32(len(doc.Source)), r: r} // #nosec G115 -- AddVirtual rejects >4GiB
	fileID := b.NewFile(source.Span{File: src, End: l.size})
	for i := range doc.Body {
		if id := l.stmt(&doc.Body[i]); id.IsValid() {
			b.PushStmt(fileID, id)
		}
	}
	return Unit{File: fileID, Source: src, Path: path}, l.broken
}

// Load reads a tree document from disk and lowers it. When the document
// carries no source text, the file named by its path is read (relative to
// the document) so diagnostics can show source lines.
func Load(path string, b *ast.Builder, fs *source.FileSet, r diag.Reporter) (Unit, error) {
	// #nosec G304 -- user-supplied input file
	data, err := os.ReadFile(path)
	if err != nil {
		return Unit{}, fmt.Errorf("read tree %s: %w", path, err)
	}
	doc, err := Decode(data, FormatForPath(path))
	if err != nil {
		if r == nil {
			r = diag.NopReporter{}
		}
		src := fs.AddVirtual(path, nil)
		diag.ReportError(r, diag.IOTreeDecode, source.Span{File: src}, err.Error()).Emit()
		return Unit{Source: src, Path: path}, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	if doc.Path == "" {
		doc.Path = strings.TrimSuffix(path, filepath.Ext(path)) + ".py"
	}
	if doc.Source == "" {
		candidate := doc.Path
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(filepath.Dir(path), doc.Path)
		}
		// #nosec G304 -- path comes from the user's tree document
		if text, readErr := os.ReadFile(candidate); readErr == nil {
			doc.Source = string(text)
		}
	}
	unit, _ := Lower(doc, b, fs, r)
	unit.Digest = sha256.Sum256(data)
	return unit, nil
}

func (l *lowerer) span(p Pos) source.Span {
	start, end := p[0], p[1]
	if end < start || (l.size > 0 && end > l.size) {
		sp := source.Span{File: l.file, Start: min(start, l.size), End: min(start, l.size)}
		l.malformed(sp, fmt.Sprintf("invalid span [%d, %d)", start, end))
		return sp
	}
	return source.Span{File: l.file, Start: start, End: end}
}

func (l *lowerer) malformed(sp source.Span, msg string) {
	l.broken++
	diag.ReportError(l.r, diag.IOTreeMalformed, sp, msg).Emit()
}

func (l *lowerer) name(s string) source.StringID {
	return l.b.StringsInterner.Intern(s)
}

func (l *lowerer) enter(sp source.Span) bool {
	l.depth++
	if l.depth > maxDepth {
		l.malformed(sp, fmt.Sprintf("tree nested deeper than %d", maxDepth))
		return false
	}
	return true
}

func (l *lowerer) leave() { l.depth-- }

func (l *lowerer) block(stmts []Stmt) []ast.StmtID {
	out := make([]ast.StmtID, 0, len(stmts))
	for i := range stmts {
		if id := l.stmt(&stmts[i]); id.IsValid() {
			out = append(out, id)
		}
	}
	return out
}

// stmt lowers one statement; malformed statements are dropped.
func (l *lowerer) stmt(s *Stmt) ast.StmtID {
	sp := l.span(s.Span)
	if !l.enter(sp) {
		return ast.NoStmtID
	}
	defer l.leave()

	stmts := l.b.Stmts
	switch s.Kind {
	case "def":
		if s.Name == "" {
			l.malformed(sp, "def without a name")
			return ast.NoStmtID
		}
		params := make([]ast.Param, 0, len(s.Params))
		for _, p := range s.Params {
			params = append(params, ast.Param{Name: l.name(p.Name), Span: l.span(p.Span)})
		}
		body := l.block(s.Body)
		if len(body) == 0 {
			l.malformed(sp, fmt.Sprintf("function '%s' has an empty body", s.Name))
		}
		return stmts.NewFunc(sp, l.span(s.NameSpan), l.name(s.Name), params, body)
	case "assign":
		op := ast.AssignPlain
		if s.Op != "" {
			parsed, ok := ast.ParseAssignOp(s.Op)
			if !ok {
				l.malformed(sp, fmt.Sprintf("unknown assignment operator %q", s.Op))
				return ast.NoStmtID
			}
			op = parsed
		}
		if s.Target == "" {
			l.malformed(sp, "assignment without a target")
			return ast.NoStmtID
		}
		return stmts.NewAssign(sp, l.span(s.TargetSpan), l.name(s.Target), op, l.required(s.Value, sp, "assignment value"))
	case "return":
		value := ast.NoExprID
		if s.Value != nil {
			value = l.expr(s.Value)
		}
		return stmts.NewReturn(sp, value)
	case "expr":
		return stmts.NewExpr(sp, l.required(s.Expr, sp, "expression"))
	case "if":
		cond := l.required(s.Cond, sp, "if condition")
		return stmts.NewIf(sp, cond, l.block(s.Then), l.block(s.Else))
	case "while":
		cond := l.required(s.Cond, sp, "while condition")
		return stmts.NewWhile(sp, cond, l.block(s.Body))
	}
	l.malformed(sp, fmt.Sprintf("unknown statement kind %q", s.Kind))
	return ast.NoStmtID
}

func (l *lowerer) required(e *Expr, parent source.Span, what string) ast.ExprID {
	if e == nil {
		l.malformed(parent, "missing "+what)
		return l.placeholder(parent)
	}
	return l.expr(e)
}

// placeholder stands in for a malformed expression. Its type is unknown,
// so sites reading it fall back to generic dispatch.
func (l *lowerer) placeholder(sp source.Span) ast.ExprID {
	return l.b.Exprs.NewLiteral(sp, ast.ExprLitInvalid, source.NoStringID)
}

func (l *lowerer) expr(e *Expr) ast.ExprID {
	sp := l.span(e.Span)
	if !l.enter(sp) {
		return l.placeholder(sp)
	}
	defer l.leave()

	exprs := l.b.Exprs
	switch e.Kind {
	case "name":
		if e.ID == "" {
			l.malformed(sp, "name without an identifier")
			return l.placeholder(sp)
		}
		return exprs.NewIdent(sp, l.name(e.ID))
	case "lit":
		return l.literal(e, sp)
	case "fstring":
		parts := make([]ast.FStringPart, 0, len(e.Parts))
		for _, p := range e.Parts {
			if p.Expr != nil {
				parts = append(parts, ast.FStringPart{Expr: l.expr(p.Expr)})
				continue
			}
			parts = append(parts, ast.FStringPart{Text: l.name(p.Text)})
		}
		return exprs.NewFString(sp, parts)
	case "binary":
		op, ok := ast.ParseBinaryOp(e.Op)
		if !ok {
			l.malformed(sp, fmt.Sprintf("unknown binary operator %q", e.Op))
			return l.placeholder(sp)
		}
		left := l.required(e.Left, sp, "left operand")
		right := l.required(e.Right, sp, "right operand")
		return exprs.NewBinary(sp, op, left, right)
	case "unary":
		op, ok := ast.ParseUnaryOp(e.Op)
		if !ok {
			l.malformed(sp, fmt.Sprintf("unknown unary operator %q", e.Op))
			return l.placeholder(sp)
		}
		return exprs.NewUnary(sp, op, l.required(e.Operand, sp, "operand"))
	case "call":
		if e.Func == "" {
			l.malformed(sp, "call without a callee name")
			return l.placeholder(sp)
		}
		calleeSpan := sp
		if e.FuncSpan != (Pos{}) {
			calleeSpan = l.span(e.FuncSpan)
		}
		callee := exprs.NewIdent(calleeSpan, l.name(e.Func))
		args := make([]ast.ExprID, 0, len(e.Args))
		for _, a := range e.Args {
			args = append(args, l.required(a, sp, "argument"))
		}
		return exprs.NewCall(sp, callee, args)
	}
	l.malformed(sp, fmt.Sprintf("unknown expression kind %q", e.Kind))
	return l.placeholder(sp)
}

func (l *lowerer) literal(e *Expr, sp source.Span) ast.ExprID {
	exprs := l.b.Exprs
	switch strings.ToLower(e.Type) {
	case "int":
		if _, err := strconv.ParseInt(strings.ReplaceAll(e.Value, "_", ""), 0, 64); err != nil {
			l.malformed(sp, fmt.Sprintf("invalid int literal %q", e.Value))
			return l.placeholder(sp)
		}
		return exprs.NewLiteral(sp, ast.ExprLitInt, l.name(e.Value))
	case "float":
		if _, err := strconv.ParseFloat(strings.ReplaceAll(e.Value, "_", ""), 64); err != nil {
			l.malformed(sp, fmt.Sprintf("invalid float literal %q", e.Value))
			return l.placeholder(sp)
		}
		return exprs.NewLiteral(sp, ast.ExprLitFloat, l.name(e.Value))
	case "str":
		return exprs.NewLiteral(sp, ast.ExprLitString, l.name(e.Value))
	case "bool":
		switch strings.ToLower(e.Value) {
		case "true":
			return exprs.NewLiteral(sp, ast.ExprLitTrue, source.NoStringID)
		case "false":
			return exprs.NewLiteral(sp, ast.ExprLitFalse, source.NoStringID)
		}
		l.malformed(sp, fmt.Sprintf("invalid bool literal %q", e.Value))
		return l.placeholder(sp)
	case "none":
		return exprs.NewLiteral(sp, ast.ExprLitNone, source.NoStringID)
	}
	l.malformed(sp, fmt.Sprintf("unknown literal type %q", e.Type))
	return l.placeholder(sp)
}
