package diagfmt

import "pycc/internal/diag"

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto shows paths relative to BaseDir when they live under it.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// ParsePathMode accepts auto|absolute|relative|basename.
func ParsePathMode(s string) (PathMode, bool) {
	switch s {
	case "", "auto":
		return PathModeAuto, true
	case "absolute":
		return PathModeAbsolute, true
	case "relative":
		return PathModeRelative, true
	case "basename":
		return PathModeBasename, true
	}
	return PathModeAuto, false
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color bool
	// Context is the number of source lines shown above the primary line.
	Context  int
	PathMode PathMode
	BaseDir  string
	// Width truncates source lines wider than this many cells; 0 disables.
	Width     int
	ShowNotes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludePositions bool // добавить line/col
	PathMode         PathMode
	BaseDir          string
	Max              int // обрезка вывода, не Bag
	IncludeNotes     bool
	IncludeAttrs     bool
}

// Summary counts a bag by severity, e.g. "2 errors, 1 warning".
func Summary(bag *diag.Bag) string {
	errs, warns := bag.Count(diag.SevError), bag.Count(diag.SevWarning)
	out := plural(errs, "error") + ", " + plural(warns, "warning")
	if dropped := bag.Dropped(); dropped > 0 {
		out += " (" + plural(dropped, "diagnostic") + " not shown)"
	}
	return out
}
