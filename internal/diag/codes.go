package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// Семантические
	SemaInfo                         Code = 3000
	SemaError                        Code = 3001 // internal invariant violation
	SemaDuplicateDeclaration         Code = 3002
	SemaShadowSymbol                 Code = 3003
	SemaUndeclaredName               Code = 3004
	SemaUseBeforeDeclaration         Code = 3005
	SemaArityMismatch                Code = 3006
	SemaReturnOutsideFunction        Code = 3007
	SemaUnreachableCode              Code = 3008
	SemaClassificationNonConvergence Code = 3009

	// Ввод/вывод дерева разбора
	IOInfo          Code = 4000
	IOTreeDecode    Code = 4001
	IOTreeMalformed Code = 4002
)

var codeKinds = map[Code]string{
	UnknownCode:                      "Unknown",
	SemaInfo:                         "Info",
	SemaError:                        "InternalError",
	SemaDuplicateDeclaration:         "DuplicateDeclaration",
	SemaShadowSymbol:                 "Shadowing",
	SemaUndeclaredName:               "UndeclaredName",
	SemaUseBeforeDeclaration:         "UseBeforeDeclaration",
	SemaArityMismatch:                "ArityMismatch",
	SemaReturnOutsideFunction:        "ReturnOutsideFunction",
	SemaUnreachableCode:              "UnreachableCode",
	SemaClassificationNonConvergence: "ClassificationNonConvergence",
	IOInfo:                           "Info",
	IOTreeDecode:                     "TreeDecode",
	IOTreeMalformed:                  "TreeMalformed",
}

var codeDescription = map[Code]string{
	UnknownCode:                      "Unknown diagnostic",
	SemaError:                        "Semantic analysis invariant violated",
	SemaDuplicateDeclaration:         "Name declared twice in the same scope",
	SemaShadowSymbol:                 "Declaration shadows an outer binding",
	SemaUndeclaredName:               "Name is not declared in any enclosing scope",
	SemaUseBeforeDeclaration:         "Name is used before its declaration in the same scope",
	SemaArityMismatch:                "Call passes the wrong number of arguments",
	SemaReturnOutsideFunction:        "'return' outside of a function",
	SemaUnreachableCode:              "Statement can never execute",
	SemaClassificationNonConvergence: "Type classification did not reach a fixed point",
	IOTreeDecode:                     "Syntax tree document could not be decoded",
	IOTreeMalformed:                  "Syntax tree document is structurally invalid",
}

// ID returns the stable identifier, e.g. SEM3002.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

// Kind returns the taxonomy name rendered as "file:line:col: <kind>: <message>".
func (c Code) Kind() string {
	if k, ok := codeKinds[c]; ok {
		return k
	}
	return codeKinds[UnknownCode]
}

func (c Code) Title() string {
	if desc, ok := codeDescription[c]; ok {
		return desc
	}
	return codeDescription[UnknownCode]
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
