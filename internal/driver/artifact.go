package driver

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"pycc/internal/ast"
	"pycc/internal/sema"
	"pycc/internal/symbols"
	"pycc/internal/value"
)

// ArtifactSchema versions the hand-off format read by the backend.
const ArtifactSchema uint16 = 1

var (
	// ErrNoSemantics is returned for units without a semantic result.
	ErrNoSemantics = errors.New("unit has no semantic result")
	// ErrArtifactSchema is wrapped when an artifact has another schema.
	ErrArtifactSchema = errors.New("unsupported artifact schema")
)

// Artifact is everything the backend consumes from one analysed unit. IDs
// are the arena IDs of the analysis; 0 means none everywhere.
type Artifact struct {
	Schema      uint16              `msgpack:"schema"`
	Path        string              `msgpack:"path"`
	HasErrors   bool                `msgpack:"has_errors"`
	Converged   bool                `msgpack:"converged"`
	Iterations  int                 `msgpack:"iterations"`
	Layout      value.Layout        `msgpack:"layout"`
	Global      uint32              `msgpack:"global"`
	Scopes      []ArtifactScope     `msgpack:"scopes"`
	Symbols     []ArtifactSymbol    `msgpack:"symbols"`
	Exprs       []ArtifactExpr      `msgpack:"exprs"`
	Sites       []ArtifactSite      `msgpack:"sites"`
	Constants   []value.TaggedValue `msgpack:"constants"`
	Strings     *value.StrPool      `msgpack:"strings"`
	Diagnostics []ArtifactDiag      `msgpack:"diagnostics"`
}

type ArtifactScope struct {
	ID      uint32   `msgpack:"id"`
	Kind    string   `msgpack:"kind"`
	Parent  uint32   `msgpack:"parent"`
	Symbols []uint32 `msgpack:"symbols"`
}

type ArtifactSymbol struct {
	ID    uint32   `msgpack:"id"`
	Name  string   `msgpack:"name"`
	Kind  string   `msgpack:"kind"`
	Scope uint32   `msgpack:"scope"`
	Type  string   `msgpack:"type"`
	Set   string   `msgpack:"set"`
	Flags []string `msgpack:"flags,omitempty"`
	// Function symbols only.
	Params []uint32 `msgpack:"params,omitempty"`
	Body   uint32   `msgpack:"body,omitempty"`
	Return string   `msgpack:"return,omitempty"`
	Arity  int      `msgpack:"arity"`
	Start  uint32   `msgpack:"start"`
	End    uint32   `msgpack:"end"`
}

// ArtifactExpr carries the per-expression facts codegen needs.
type ArtifactExpr struct {
	ID      uint32 `msgpack:"id"`
	Kind    string `msgpack:"kind"`
	Set     string `msgpack:"set"`
	Binding uint32 `msgpack:"binding,omitempty"`
	// Unresolved identifiers must go through the generic path.
	Unresolved bool   `msgpack:"unresolved,omitempty"`
	Site       uint32 `msgpack:"site,omitempty"`
	// Const is 1 + the index into Artifact.Constants; 0 when the expression
	// is not a representable literal.
	Const uint32 `msgpack:"const,omitempty"`
}

type ArtifactSite struct {
	ID       uint32            `msgpack:"id"`
	Kind     string            `msgpack:"kind"`
	Expr     uint32            `msgpack:"expr"`
	Stmt     uint32            `msgpack:"stmt"`
	Op       string            `msgpack:"op,omitempty"`
	Symbol   uint32            `msgpack:"symbol,omitempty"`
	Class    string            `msgpack:"class"`
	Mono     string            `msgpack:"mono,omitempty"`
	Observed string            `msgpack:"observed"`
	Strategy string            `msgpack:"strategy"`
	Coercion *ArtifactCoercion `msgpack:"coercion,omitempty"`
}

type ArtifactCoercion struct {
	From string `msgpack:"from"`
	To   string `msgpack:"to"`
}

type ArtifactDiag struct {
	Severity string `msgpack:"severity"`
	Code     string `msgpack:"code"`
	Kind     string `msgpack:"kind"`
	Message  string `msgpack:"message"`
	Line     uint32 `msgpack:"line"`
	Col      uint32 `msgpack:"col"`
}

// BuildArtifact snapshots a unit for the backend.
func BuildArtifact(u *UnitResult) (*Artifact, error) {
	if u == nil || u.Sema == nil {
		return nil, ErrNoSemantics
	}
	res := u.Sema
	table := res.Table
	a := &Artifact{
		Schema:     ArtifactSchema,
		Path:       u.Unit.Path,
		HasErrors:  u.Bag.HasErrors(),
		Converged:  res.Converged,
		Iterations: res.Iterations,
		Layout:     value.DefaultLayout(),
		Global:     uint32(res.Global),
		Strings:    value.NewStrPool(),
	}

	for i := 1; i <= table.Scopes.Len(); i++ {
		id := symbols.ScopeID(i) // #nosec G115 -- bounded by the arena
		sc := table.Scopes.Get(id)
		as := ArtifactScope{ID: uint32(id), Kind: sc.Kind.String(), Parent: uint32(sc.Parent)}
		for _, sym := range sc.Symbols {
			as.Symbols = append(as.Symbols, uint32(sym))
		}
		a.Scopes = append(a.Scopes, as)
	}

	for i := 1; i <= table.Symbols.Len(); i++ {
		id := symbols.SymbolID(i) // #nosec G115 -- bounded by the arena
		a.Symbols = append(a.Symbols, artifactSymbol(table, id))
	}

	b := u.Builder
	for i := uint32(1); i <= b.Exprs.Len(); i++ {
		id := ast.ExprID(i)
		ae := ArtifactExpr{
			ID:      i,
			Kind:    b.Exprs.Get(id).Kind.String(),
			Set:     res.ExprSet(id).String(),
			Binding:    uint32(res.Binding(id)),
			Unresolved: res.IsUnresolved(id),
		}
		if site := res.SiteOf(id); site != nil {
			ae.Site = uint32(site.ID)
		}
		if v, ok := constant(b, a.Strings, id); ok {
			a.Constants = append(a.Constants, v)
			ae.Const = uint32(len(a.Constants)) // #nosec G115 -- at most one per expression
		}
		a.Exprs = append(a.Exprs, ae)
	}

	for _, site := range res.AllSites() {
		a.Sites = append(a.Sites, artifactSite(&site))
	}

	for _, d := range u.Bag.Items() {
		start, _ := u.Files.Resolve(d.Primary)
		a.Diagnostics = append(a.Diagnostics, ArtifactDiag{
			Severity: d.Severity.Label(),
			Code:     d.Code.ID(),
			Kind:     d.Code.Kind(),
			Message:  d.Message,
			Line:     start.Line,
			Col:      start.Col,
		})
	}
	return a, nil
}

func artifactSymbol(table *symbols.Table, id symbols.SymbolID) ArtifactSymbol {
	sym := table.Symbol(id)
	out := ArtifactSymbol{
		ID:    uint32(id),
		Name:  table.NameString(sym.Name),
		Kind:  sym.Kind.String(),
		Scope: uint32(sym.Scope),
		Type:  sym.InferredType().String(),
		Set:   sym.Type.String(),
		Flags: sym.Flags.Strings(),
		Arity: sym.Arity(),
		Start: sym.Span.Start,
		End:   sym.Span.End,
	}
	if sym.Func != nil {
		for _, p := range sym.Func.Params {
			out.Params = append(out.Params, uint32(p))
		}
		out.Body = uint32(sym.Func.Body)
		out.Return = sym.Func.Return.String()
	}
	return out
}

func artifactSite(s *sema.Site) ArtifactSite {
	out := ArtifactSite{
		ID:       uint32(s.ID),
		Kind:     s.Kind.String(),
		Expr:     uint32(s.Expr),
		Stmt:     uint32(s.Stmt),
		Symbol:   uint32(s.Symbol),
		Class:    s.Class.Kind.String(),
		Observed: s.Class.Observed.String(),
		Strategy: s.Strategy.String(),
	}
	switch s.Kind {
	case sema.SiteBinary:
		out.Op = s.BinaryOp.String()
	case sema.SiteUnary:
		out.Op = s.UnaryOp.String()
	}
	if s.Class.Kind == sema.ClassMonomorphic {
		out.Mono = s.Class.Mono.String()
	}
	if s.HasCoercion {
		out.Coercion = &ArtifactCoercion{From: s.Coercion.From.String(), To: s.Coercion.To.String()}
	}
	return out
}

// constant evaluates a literal to its runtime value. Integers that do not
// fit in 64 bits are left to the backend.
func constant(b *ast.Builder, pool *value.StrPool, id ast.ExprID) (value.TaggedValue, bool) {
	lit, ok := b.Exprs.Literal(id)
	if !ok {
		return value.TaggedValue{}, false
	}
	text := b.Name(lit.Value)
	switch lit.Kind {
	case ast.ExprLitInt:
		n, err := strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 0, 64)
		if err != nil {
			return value.TaggedValue{}, false
		}
		return value.MakeInt(n), true
	case ast.ExprLitFloat:
		f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
		if err != nil {
			return value.TaggedValue{}, false
		}
		return value.MakeFloat(f), true
	case ast.ExprLitString:
		return value.MakeStr(pool.Add(text)), true
	case ast.ExprLitTrue:
		return value.MakeBool(true), true
	case ast.ExprLitFalse:
		return value.MakeBool(false), true
	case ast.ExprLitNone:
		return value.MakeNone(), true
	}
	return value.TaggedValue{}, false
}

// WriteArtifact encodes a as msgpack.
func WriteArtifact(w io.Writer, a *Artifact) error {
	if err := msgpack.NewEncoder(w).Encode(a); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	return nil
}

// ReadArtifact decodes an artifact written by WriteArtifact.
func ReadArtifact(r io.Reader) (*Artifact, error) {
	var a Artifact
	if err := msgpack.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if a.Schema != ArtifactSchema {
		return nil, fmt.Errorf("%w: %d", ErrArtifactSchema, a.Schema)
	}
	return &a, nil
}

// Types lists the inferred type of every named symbol of the unit's global
// scope; a compact view used by tests and the dump summary.
func (a *Artifact) Types() map[string]string {
	out := make(map[string]string)
	for _, sc := range a.Scopes {
		if sc.ID != a.Global {
			continue
		}
		for _, id := range sc.Symbols {
			if id == 0 || int(id) > len(a.Symbols) {
				continue
			}
			sym := a.Symbols[id-1]
			out[sym.Name] = sym.Type
		}
	}
	return out
}
