package source

import (
	"crypto/sha256"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"fortio.org/safecast"
)

// FileSet manages the source files referenced by spans of one analysis run.
type FileSet struct {
	files []File
	index map[string]FileID // path -> id
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0, 4),
		index: make(map[string]FileID),
	}
}

// Add stores a file from normalized bytes, computes LineIdx and Hash, and returns a new FileID.
// It always creates a new FileID even if a file with the same path already exists.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	if uint64(len(content)) > math.MaxUint32 {
		panic(fmt.Errorf("file %s is too large: %d bytes", path, len(content)))
	}
	lenFiles, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(lenFiles)
	normalized := normalizePath(path)
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    normalized,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	fs.index[normalized] = id
	return id
}

// Load reads a file from disk, normalizes CRLF/BOM, and calls Add.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fs.Add(path, content, flags), nil
}

// AddVirtual adds a file that does not live on disk.
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	return fs.Add(name, content, FileVirtual)
}

// Get returns the file metadata for the given ID, or nil.
func (fs *FileSet) Get(id FileID) *File {
	if int(id) >= len(fs.files) {
		return nil
	}
	return &fs.files[id]
}

// Lookup returns the latest file ID registered for path.
func (fs *FileSet) Lookup(path string) (FileID, bool) {
	id, ok := fs.index[normalizePath(path)]
	return id, ok
}

// Len reports the number of registered files.
func (fs *FileSet) Len() int { return len(fs.files) }

// Resolve converts a span into line and column positions.
func (fs *FileSet) Resolve(span Span) (start, end LineCol) {
	f := fs.Get(span.File)
	if f == nil {
		return LineCol{Line: 1, Col: 1}, LineCol{Line: 1, Col: 1}
	}
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// Line returns the text of the 1-based line without its trailing newline.
func (f *File) Line(n uint32) string {
	if n == 0 || int(n) > len(f.LineIdx)+1 {
		return ""
	}
	var start uint32
	if n > 1 {
		start = f.LineIdx[n-2] + 1
	}
	end := uint32(len(f.Content)) // #nosec G115 -- bounded in Add
	if int(n) <= len(f.LineIdx) {
		end = f.LineIdx[n-1]
	}
	if start > end {
		return ""
	}
	return string(f.Content[start:end])
}

// DisplayPath returns the path relative to base when possible.
func (f *File) DisplayPath(base string) string {
	if base == "" || !filepath.IsAbs(f.Path) {
		return f.Path
	}
	if rel, err := filepath.Rel(base, f.Path); err == nil {
		return filepath.ToSlash(rel)
	}
	return f.Path
}
