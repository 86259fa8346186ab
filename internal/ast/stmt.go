package ast

import (
	"pycc/internal/source"
)

type StmtKind uint8

const (
	StmtFunc StmtKind = iota
	StmtAssign
	StmtReturn
	StmtExpr
	StmtIf
	StmtWhile
)

func (k StmtKind) String() string {
	switch k {
	case StmtFunc:
		return "def"
	case StmtAssign:
		return "assign"
	case StmtReturn:
		return "return"
	case StmtExpr:
		return "expr"
	case StmtIf:
		return "if"
	case StmtWhile:
		return "while"
	}
	return "unknown"
}

type Stmt struct {
	Kind    StmtKind
	Span    source.Span
	Payload PayloadID
}

type Param struct {
	Name source.StringID
	Span source.Span
}

type StmtFuncData struct {
	Name     source.StringID
	NameSpan source.Span
	Params   []Param
	Body     []StmtID
}

// StmtAssignData covers `x = v` and augmented `x op= v`.
type StmtAssignData struct {
	Target     source.StringID
	TargetSpan source.Span
	Op         AssignOp
	Value      ExprID
}

type StmtReturnData struct {
	Value ExprID // NoExprID for a bare return
}

type StmtExprData struct {
	Expr ExprID
}

type StmtIfData struct {
	Cond ExprID
	Then []StmtID
	Else []StmtID
}

type StmtWhileData struct {
	Cond ExprID
	Body []StmtID
}

type Stmts struct {
	Arena   *Arena[Stmt]
	Funcs   *Arena[StmtFuncData]
	Assigns *Arena[StmtAssignData]
	Returns *Arena[StmtReturnData]
	Exprs   *Arena[StmtExprData]
	Ifs     *Arena[StmtIfData]
	Whiles  *Arena[StmtWhileData]
}

func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Stmts{
		Arena:   NewArena[Stmt](capHint),
		Funcs:   NewArena[StmtFuncData](capHint / 8),
		Assigns: NewArena[StmtAssignData](capHint / 2),
		Returns: NewArena[StmtReturnData](capHint / 8),
		Exprs:   NewArena[StmtExprData](capHint / 4),
		Ifs:     NewArena[StmtIfData](capHint / 8),
		Whiles:  NewArena[StmtWhileData](capHint / 8),
	}
}

func (s *Stmts) new(kind StmtKind, span source.Span, payload PayloadID) StmtID {
	return StmtID(s.Arena.Allocate(Stmt{
		Kind:    kind,
		Span:    span,
		Payload: payload,
	}))
}

func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}

func (s *Stmts) Len() uint32 {
	return s.Arena.Len()
}

func (s *Stmts) NewFunc(span, nameSpan source.Span, name source.StringID, params []Param, body []StmtID) StmtID {
	payload := s.Funcs.Allocate(StmtFuncData{
		Name:     name,
		NameSpan: nameSpan,
		Params:   append([]Param(nil), params...),
		Body:     append([]StmtID(nil), body...),
	})
	return s.new(StmtFunc, span, PayloadID(payload))
}

func (s *Stmts) Func(id StmtID) *StmtFuncData {
	st := s.Get(id)
	if st == nil || st.Kind != StmtFunc {
		return nil
	}
	return s.Funcs.Get(uint32(st.Payload))
}

func (s *Stmts) NewAssign(span, targetSpan source.Span, target source.StringID, op AssignOp, value ExprID) StmtID {
	payload := s.Assigns.Allocate(StmtAssignData{
		Target:     target,
		TargetSpan: targetSpan,
		Op:         op,
		Value:      value,
	})
	return s.new(StmtAssign, span, PayloadID(payload))
}

func (s *Stmts) Assign(id StmtID) *StmtAssignData {
	st := s.Get(id)
	if st == nil || st.Kind != StmtAssign {
		return nil
	}
	return s.Assigns.Get(uint32(st.Payload))
}

func (s *Stmts) NewReturn(span source.Span, value ExprID) StmtID {
	payload := s.Returns.Allocate(StmtReturnData{Value: value})
	return s.new(StmtReturn, span, PayloadID(payload))
}

func (s *Stmts) Return(id StmtID) *StmtReturnData {
	st := s.Get(id)
	if st == nil || st.Kind != StmtReturn {
		return nil
	}
	return s.Returns.Get(uint32(st.Payload))
}

func (s *Stmts) NewExpr(span source.Span, expr ExprID) StmtID {
	payload := s.Exprs.Allocate(StmtExprData{Expr: expr})
	return s.new(StmtExpr, span, PayloadID(payload))
}

func (s *Stmts) Expr(id StmtID) *StmtExprData {
	st := s.Get(id)
	if st == nil || st.Kind != StmtExpr {
		return nil
	}
	return s.Exprs.Get(uint32(st.Payload))
}

func (s *Stmts) NewIf(span source.Span, cond ExprID, then, els []StmtID) StmtID {
	payload := s.Ifs.Allocate(StmtIfData{
		Cond: cond,
		Then: append([]StmtID(nil), then...),
		Else: append([]StmtID(nil), els...),
	})
	return s.new(StmtIf, span, PayloadID(payload))
}

func (s *Stmts) If(id StmtID) *StmtIfData {
	st := s.Get(id)
	if st == nil || st.Kind != StmtIf {
		return nil
	}
	return s.Ifs.Get(uint32(st.Payload))
}

func (s *Stmts) NewWhile(span source.Span, cond ExprID, body []StmtID) StmtID {
	payload := s.Whiles.Allocate(StmtWhileData{
		Cond: cond,
		Body: append([]StmtID(nil), body...),
	})
	return s.new(StmtWhile, span, PayloadID(payload))
}

func (s *Stmts) While(id StmtID) *StmtWhileData {
	st := s.Get(id)
	if st == nil || st.Kind != StmtWhile {
		return nil
	}
	return s.Whiles.Get(uint32(st.Payload))
}
