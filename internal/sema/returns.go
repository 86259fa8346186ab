package sema

import "pycc/internal/ast"

type returnStatus uint8

const (
	returnOpen returnStatus = iota
	returnClosed
)

// blockStatus reports whether control can fall off the end of stmts.
func (c *checker) blockStatus(stmts []ast.StmtID) returnStatus {
	for _, id := range stmts {
		if c.stmtStatus(id) == returnClosed {
			return returnClosed
		}
	}
	return returnOpen
}

func (c *checker) stmtStatus(id ast.StmtID) returnStatus {
	stmt := c.builder.Stmts.Get(id)
	if stmt == nil {
		return returnOpen
	}
	switch stmt.Kind {
	case ast.StmtReturn:
		return returnClosed
	case ast.StmtIf:
		data := c.builder.Stmts.If(id)
		if len(data.Else) == 0 {
			return returnOpen
		}
		if c.blockStatus(data.Then) == returnClosed && c.blockStatus(data.Else) == returnClosed {
			return returnClosed
		}
	case ast.StmtWhile:
		// there is no break, so only a literal `while True` never falls through
		if c.isTrueLiteral(c.builder.Stmts.While(id).Cond) {
			return returnClosed
		}
	}
	return returnOpen
}

func (c *checker) isTrueLiteral(id ast.ExprID) bool {
	lit, ok := c.builder.Exprs.Literal(id)
	return ok && lit.Kind == ast.ExprLitTrue
}
