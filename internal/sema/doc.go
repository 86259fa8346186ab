// Package sema runs the analysis passes over one parsed unit:
//
//	Declaration → Resolution → Classification → Validation
//
// Each pass completes before the next starts and reports into a shared
// diag.Reporter; none of them stops on an error. Results are dense side
// tables indexed by ast.ExprID / ast.StmtID plus the finished symbol table,
// which together form the annotated tree handed to a code generator.
package sema
