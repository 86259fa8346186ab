package diag

import (
	"fmt"
	"strings"

	"pycc/internal/source"
)

// FormatShort renders one diagnostic as "file:line:col: Kind: message".
func FormatShort(d *Diagnostic, fs *source.FileSet) string {
	path := "<unknown>"
	line, col := uint32(0), uint32(0)
	if fs != nil {
		if f := fs.Get(d.Primary.File); f != nil {
			path = f.Path
			start, _ := fs.Resolve(d.Primary)
			line, col = start.Line, start.Col
		}
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s", path, line, col, d.Code.Kind(), d.Message)
}

// FormatShortAll renders every diagnostic of the bag, one per line, in detection order.
func FormatShortAll(b *Bag, fs *source.FileSet) string {
	if b == nil || b.Len() == 0 {
		return ""
	}
	var sb strings.Builder
	items := b.Items()
	for i := range items {
		sb.WriteString(FormatShort(&items[i], fs))
		sb.WriteByte('\n')
	}
	return sb.String()
}
