package diagfmt

import (
	"path/filepath"
	"strconv"

	"pycc/internal/source"
)

func displayPath(f *source.File, mode PathMode, base string) string {
	if f == nil {
		return "<unknown>"
	}
	if f.Flags&source.FileVirtual != 0 && mode != PathModeBasename {
		return f.Path
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(f.Path); err == nil {
			return filepath.ToSlash(abs)
		}
	case PathModeRelative:
		if base == "" {
			return f.Path
		}
		abs, err := filepath.Abs(f.Path)
		if err != nil {
			return f.Path
		}
		if rel, err := filepath.Rel(base, abs); err == nil {
			return filepath.ToSlash(rel)
		}
	case PathModeBasename:
		return filepath.Base(f.Path)
	default:
		return f.DisplayPath(base)
	}
	return f.Path
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
