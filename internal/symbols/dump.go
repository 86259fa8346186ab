package symbols

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes the scope graph in a stable text form.
func (t *Table) Dump(w io.Writer) error {
	for idx := 1; idx < len(t.Scopes.data); idx++ {
		sc := &t.Scopes.data[idx]
		if _, err := fmt.Fprintf(w, "scope %d %s parent=%d\n", idx, sc.Kind, sc.Parent); err != nil {
			return err
		}
		ids := append(append([]SymbolID(nil), sc.Symbols...), sc.Detached...)
		for _, id := range ids {
			if _, err := fmt.Fprintf(w, "  %s\n", t.describe(id)); err != nil {
				return err
			}
		}
	}
	return nil
}

// DumpString is Dump into a string.
func (t *Table) DumpString() string {
	var sb strings.Builder
	_ = t.Dump(&sb)
	return sb.String()
}

func (t *Table) describe(id SymbolID) string {
	sym := t.Symbols.Get(id)
	if sym == nil {
		return fmt.Sprintf("#%d <invalid>", id)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%d %s %s %s", id, t.NameString(sym.Name), sym.Kind, sym.Type)
	if sym.Shadows.IsValid() {
		fmt.Fprintf(&sb, " shadows=#%d", sym.Shadows)
	}
	if sym.Func != nil {
		fmt.Fprintf(&sb, " params=%d return=%s body=%d", len(sym.Func.Params), sym.Func.Return, sym.Func.Body)
	}
	if labels := sym.Flags.Strings(); len(labels) > 0 {
		fmt.Fprintf(&sb, " [%s]", strings.Join(labels, ","))
	}
	return sb.String()
}
