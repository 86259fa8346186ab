package ast

// ExprChildren returns the direct sub-expressions of id in evaluation order.
func (b *Builder) ExprChildren(id ExprID) []ExprID {
	expr := b.Exprs.Get(id)
	if expr == nil {
		return nil
	}
	switch expr.Kind {
	case ExprBinary:
		data, _ := b.Exprs.Binary(id)
		return []ExprID{data.Left, data.Right}
	case ExprUnary:
		data, _ := b.Exprs.Unary(id)
		return []ExprID{data.Operand}
	case ExprCall:
		data, _ := b.Exprs.Call(id)
		out := make([]ExprID, 0, len(data.Args)+1)
		out = append(out, data.Callee)
		return append(out, data.Args...)
	case ExprFString:
		data, _ := b.Exprs.FString(id)
		var out []ExprID
		for _, p := range data.Parts {
			if p.Expr.IsValid() {
				out = append(out, p.Expr)
			}
		}
		return out
	}
	return nil
}

// WalkExpr visits id and its sub-expressions depth-first, children first.
func (b *Builder) WalkExpr(id ExprID, visit func(ExprID)) {
	if !id.IsValid() {
		return
	}
	for _, child := range b.ExprChildren(id) {
		b.WalkExpr(child, visit)
	}
	visit(id)
}
