package diagfmt

import (
	"io"

	"pycc/internal/diag"
	"pycc/internal/source"
)

// Short writes one "file:line:col: Kind: message" line per diagnostic.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet) error {
	_, err := io.WriteString(w, diag.FormatShortAll(bag, fs))
	return err
}
