package diagfmt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"pycc/internal/diag"
	"pycc/internal/source"
)

const tabWidth = 4

type palette struct {
	sev    map[diag.Severity]*color.Color
	gutter *color.Color
	note   *color.Color
	bold   *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		sev: map[diag.Severity]*color.Color{
			diag.SevError:   color.New(color.FgRed, color.Bold),
			diag.SevWarning: color.New(color.FgYellow, color.Bold),
			diag.SevInfo:    color.New(color.FgCyan, color.Bold),
		},
		gutter: color.New(color.FgBlue, color.Bold),
		note:   color.New(color.FgGreen),
		bold:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.sev[diag.SevError], p.sev[diag.SevWarning], p.sev[diag.SevInfo], p.gutter, p.note, p.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Pretty форматирует диагностики в человекочитаемый вид, в порядке Bag:
//
//	<path>:<line>:<col>: <sev>[<CODE>]: <message>
//	   |
//	 3 | print(y)
//	   |       ^
//	   = note: <path>:<line>:<col>: declared here
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	bw := bufio.NewWriter(w)
	p := newPalette(opts.Color)
	items := bag.Items()
	for i := range items {
		if i > 0 {
			bw.WriteByte('\n')
		}
		writeDiagnostic(bw, &items[i], fs, opts, p)
	}
	return bw.Flush()
}

func writeDiagnostic(w *bufio.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) {
	file := fs.Get(d.Primary.File)
	start, end := fs.Resolve(d.Primary)
	fmt.Fprintf(w, "%s: %s: %s\n",
		p.bold.Sprintf("%s:%d:%d", displayPath(file, opts.PathMode, opts.BaseDir), start.Line, start.Col),
		p.sev[d.Severity].Sprintf("%s[%s]", d.Severity.Label(), d.Code.ID()),
		p.bold.Sprint(d.Message))

	gutter := len(strconv.Itoa(int(start.Line)))
	if hasSource(file) {
		writeSnippet(w, file, start, end, gutter, opts, p, p.sev[d.Severity], '^')
	}

	if !opts.ShowNotes {
		return
	}
	for _, n := range d.Notes {
		nf := fs.Get(n.Span.File)
		ns, ne := fs.Resolve(n.Span)
		fmt.Fprintf(w, "%s %s %s: %s\n", pad(gutter), p.gutter.Sprint("="), p.note.Sprint("note"),
			fmt.Sprintf("%s:%d:%d: %s", displayPath(nf, opts.PathMode, opts.BaseDir), ns.Line, ns.Col, n.Msg))
		if hasSource(nf) && n.Span.File == d.Primary.File {
			writeSnippet(w, nf, ns, ne, max(gutter, len(strconv.Itoa(int(ns.Line)))), PrettyOpts{Width: opts.Width}, p, p.note, '-')
		}
	}
}

func hasSource(f *source.File) bool {
	return f != nil && len(f.Content) > 0
}

// writeSnippet prints the lines of one span with an underline below the
// first one. Multi-line spans are underlined to the end of their first line.
func writeSnippet(w *bufio.Writer, f *source.File, start, end source.LineCol, gutter int, opts PrettyOpts, p palette, mark *color.Color, ch byte) {
	bar := p.gutter.Sprint("|")
	fmt.Fprintf(w, "%s %s\n", pad(gutter), bar)
	for n := max(1, int(start.Line)-opts.Context); n < int(start.Line); n++ {
		line := expandTabs(f.Line(uint32(n))) // #nosec G115 -- below start.Line
		fmt.Fprintf(w, "%s %s %s\n", p.gutter.Sprintf("%*d", gutter, n), bar, clip(line, opts.Width))
	}

	raw := f.Line(start.Line)
	line := expandTabs(raw)
	fmt.Fprintf(w, "%s %s %s\n", p.gutter.Sprintf("%*d", gutter, start.Line), bar, clip(line, opts.Width))

	col := columnWidth(raw, start.Col)
	endCol := uint32(len(raw)) + 1 // #nosec G115 -- one source line
	if end.Line == start.Line && end.Col > start.Col {
		endCol = end.Col
	}
	width := max(1, columnWidth(raw, endCol)-col)
	if opts.Width > 0 {
		col = min(col, opts.Width)
		width = max(1, min(width, opts.Width-col))
	}
	underline := strings.Repeat(" ", col) + mark.Sprint(strings.Repeat(string(ch), width))
	fmt.Fprintf(w, "%s %s %s\n", pad(gutter), bar, underline)
}

// columnWidth is the display width of line before the 1-based byte column.
func columnWidth(line string, col uint32) int {
	idx := min(int(col)-1, len(line))
	if idx <= 0 {
		return 0
	}
	return runewidth.StringWidth(expandTabs(line[:idx]))
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var sb strings.Builder
	width := 0
	for _, r := range s {
		if r == '\t' {
			n := tabWidth - width%tabWidth
			sb.WriteString(strings.Repeat(" ", n))
			width += n
			continue
		}
		sb.WriteRune(r)
		width += runewidth.RuneWidth(r)
	}
	return sb.String()
}

func clip(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

func pad(n int) string { return strings.Repeat(" ", n) }
