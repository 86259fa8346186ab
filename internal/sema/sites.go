package sema

import (
	"fmt"

	"fortio.org/safecast"

	"pycc/internal/ast"
	"pycc/internal/source"
	"pycc/internal/symbols"
	"pycc/internal/types"
)

// SiteID indexes Result.Sites; 0 is reserved.
type SiteID uint32

const NoSiteID SiteID = 0

func (id SiteID) IsValid() bool { return id != NoSiteID }

// SiteKind names the operation a site performs.
type SiteKind uint8

const (
	SiteBinary SiteKind = iota + 1
	SiteUnary
	SiteCall
	SiteAssign
)

func (k SiteKind) String() string {
	switch k {
	case SiteBinary:
		return "binary"
	case SiteUnary:
		return "unary"
	case SiteCall:
		return "call"
	case SiteAssign:
		return "assign"
	}
	return "invalid"
}

// ClassKind is the dispatch class of a site.
type ClassKind uint8

const (
	ClassUnclassified ClassKind = iota
	ClassMonomorphic
	ClassPolymorphic
	ClassMegamorphic
)

func (k ClassKind) String() string {
	switch k {
	case ClassMonomorphic:
		return "monomorphic"
	case ClassPolymorphic:
		return "polymorphic"
	case ClassMegamorphic:
		return "megamorphic"
	}
	return "unclassified"
}

// MaxPolymorphic is the largest observed type set a dispatch table covers.
const MaxPolymorphic = 4

// SiteClass is what the backend switches on.
type SiteClass struct {
	Kind ClassKind
	// Mono is set for Monomorphic sites.
	Mono types.Type
	// Observed is the union of operand sets.
	Observed types.Set
}

func (c SiteClass) String() string {
	switch c.Kind {
	case ClassMonomorphic:
		return "mono(" + c.Mono.String() + ")"
	case ClassPolymorphic:
		return "poly" + c.Observed.String()
	}
	return c.Kind.String()
}

// Strategy is the code shape recommended for a site.
type Strategy uint8

const (
	StrategyNone Strategy = iota
	// StrategyFastPath emits an unboxed single-type operation.
	StrategyFastPath
	// StrategyDispatchTable switches over the observed tags behind a guard.
	StrategyDispatchTable
	// StrategyGenericDispatch goes through TaggedValue at runtime.
	StrategyGenericDispatch
)

func (s Strategy) String() string {
	switch s {
	case StrategyFastPath:
		return "fast-path"
	case StrategyDispatchTable:
		return "dispatch-table"
	case StrategyGenericDispatch:
		return "generic"
	}
	return "none"
}

// StrategyFor maps a class to its strategy.
func StrategyFor(k ClassKind) Strategy {
	switch k {
	case ClassMonomorphic:
		return StrategyFastPath
	case ClassPolymorphic:
		return StrategyDispatchTable
	case ClassMegamorphic:
		return StrategyGenericDispatch
	}
	return StrategyNone
}

// Site is one operation the backend must emit code for.
type Site struct {
	ID   SiteID
	Kind SiteKind
	// Expr is NoExprID for the binary half of an augmented assignment.
	Expr ast.ExprID
	Stmt ast.StmtID
	Span source.Span

	BinaryOp ast.ExprBinaryOp
	UnaryOp  ast.ExprUnaryOp
	// Callee for calls, target for assignments.
	Symbol symbols.SymbolID
	// DynamicCallee marks calls whose target is not a known function.
	DynamicCallee bool

	Operands    []types.Set
	Class       SiteClass
	Coercion    types.Coercion
	HasCoercion bool
	Strategy    Strategy
	// Stale is set while a widened operand awaits reclassification.
	Stale bool
	// Revisions counts classifications of this site.
	Revisions int
}

func (s *Site) String() string {
	out := fmt.Sprintf("site %d %s %s", s.ID, s.Kind, s.Class)
	if s.HasCoercion {
		out += fmt.Sprintf(" coerce %s->%s", s.Coercion.From, s.Coercion.To)
	}
	return out
}

// Classify derives the class of a site from its operand sets.
func Classify(operands []types.Set, dynamicCallee bool) SiteClass {
	var observed types.Set
	for _, op := range operands {
		observed |= op
	}
	if dynamicCallee {
		return SiteClass{Kind: ClassMegamorphic, Observed: observed | types.SetUnbounded}
	}
	switch n := observed.Len(); {
	case observed.IsEmpty():
		return SiteClass{Kind: ClassUnclassified}
	case observed.IsUnbounded() || n > MaxPolymorphic:
		return SiteClass{Kind: ClassMegamorphic, Observed: observed}
	case n == 1:
		t, _ := observed.Single()
		return SiteClass{Kind: ClassMonomorphic, Mono: t, Observed: observed}
	default:
		return SiteClass{Kind: ClassPolymorphic, Observed: observed}
	}
}

func (c *checker) newSite(s Site) SiteID {
	n, err := safecast.Conv[uint32](len(c.result.Sites))
	if err != nil {
		panic(fmt.Errorf("site arena overflow: %w", err))
	}
	s.ID = SiteID(n)
	c.result.Sites = append(c.result.Sites, s)
	return s.ID
}

// operands gathers the current operand sets of a site.
func (c *checker) operands(s *Site) []types.Set {
	ex := c.result.ExprTypes
	switch s.Kind {
	case SiteBinary:
		if s.Expr.IsValid() {
			data, _ := c.builder.Exprs.Binary(s.Expr)
			return []types.Set{ex[data.Left], ex[data.Right]}
		}
		data := c.builder.Stmts.Assign(s.Stmt)
		return []types.Set{c.augType(s.Stmt), ex[data.Value]}
	case SiteUnary:
		data, _ := c.builder.Exprs.Unary(s.Expr)
		return []types.Set{ex[data.Operand]}
	case SiteCall:
		data, _ := c.builder.Exprs.Call(s.Expr)
		if len(data.Args) == 0 {
			return []types.Set{ex[s.Expr]}
		}
		out := make([]types.Set, 0, len(data.Args))
		for _, a := range data.Args {
			out = append(out, ex[a])
		}
		return out
	case SiteAssign:
		return []types.Set{c.assignValue(s.Stmt)}
	}
	return nil
}

func (c *checker) classifySite(id SiteID) {
	s := &c.result.Sites[id]
	s.Operands = c.operands(s)
	s.Class = Classify(s.Operands, s.DynamicCallee)
	s.Strategy = StrategyFor(s.Class.Kind)
	if s.Kind == SiteBinary {
		s.Coercion, s.HasCoercion = types.BinaryCoercion(s.BinaryOp, s.Operands[0], s.Operands[1])
	}
	s.Stale = false
	s.Revisions++
}
