package sema

import (
	"pycc/internal/diag"
	"pycc/internal/symbols"
	"pycc/internal/trace"
)

// Stage selects the last pass to run.
type Stage uint8

const (
	StageAll Stage = iota
	StageDeclare
	StageResolve
	StageClassify
)

func (s Stage) String() string {
	switch s {
	case StageDeclare:
		return "declare"
	case StageResolve:
		return "resolve"
	case StageClassify:
		return "classify"
	}
	return "all"
}

// ParseStage is the inverse of String.
func ParseStage(name string) (Stage, bool) {
	for s := StageAll; s <= StageClassify; s++ {
		if s.String() == name {
			return s, true
		}
	}
	return StageAll, false
}

func (s Stage) includes(next Stage) bool {
	return s == StageAll || next <= s
}

// Options configure a semantic run over a file.
type Options struct {
	Reporter diag.Reporter
	// Builtins is shared read-only between runs; nil means the default table.
	Builtins *symbols.Builtins
	Stage    Stage
	// MaxIterations lowers the classification budget; 0 keeps the computed bound.
	MaxIterations int
	// ReportShadowing emits info diagnostics for declarations hiding outer names.
	ReportShadowing bool

	Tracer     trace.Tracer
	ParentSpan uint64
}
