package treeio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// SchemaVersion is the document version this package understands.
const SchemaVersion = 1

// ErrUnsupportedVersion is wrapped when a document has a newer schema.
var ErrUnsupportedVersion = errors.New("unsupported tree document version")

// ErrDecode is wrapped by Load when the file was read but is not a document.
var ErrDecode = errors.New("tree document could not be decoded")

// Pos is a [start, end) byte range.
type Pos [2]uint32

type Document struct {
	Version int    `json:"version"`
	Path    string `json:"path"`
	Source  string `json:"source,omitempty"`
	Body    []Stmt `json:"body"`
}

type Param struct {
	Name string `json:"name"`
	Span Pos    `json:"span"`
}

// Stmt is one statement node; Kind selects which fields are meaningful.
type Stmt struct {
	Kind string `json:"kind"`
	Span Pos    `json:"span"`

	// def
	Name     string  `json:"name,omitempty"`
	NameSpan Pos     `json:"name_span,omitzero"`
	Params   []Param `json:"params,omitempty"`
	Body     []Stmt  `json:"body,omitempty"`

	// assign
	Target     string `json:"target,omitempty"`
	TargetSpan Pos    `json:"target_span,omitzero"`
	Op         string `json:"op,omitempty"`

	// assign, return
	Value *Expr `json:"value,omitempty"`
	// expr
	Expr *Expr `json:"expr,omitempty"`

	// if, while
	Cond *Expr  `json:"cond,omitempty"`
	Then []Stmt `json:"then,omitempty"`
	Else []Stmt `json:"else,omitempty"`
}

// Expr is one expression node.
type Expr struct {
	Kind string `json:"kind"`
	Span Pos    `json:"span"`

	// name
	ID string `json:"id,omitempty"`
	// lit: type is int|float|str|bool|none, value is the source text
	Type  string `json:"type,omitempty"`
	Value string `json:"value,omitempty"`
	// fstring
	Parts []Part `json:"parts,omitempty"`
	// binary, unary
	Op      string `json:"op,omitempty"`
	Left    *Expr  `json:"left,omitempty"`
	Right   *Expr  `json:"right,omitempty"`
	Operand *Expr  `json:"operand,omitempty"`
	// call
	Func     string  `json:"func,omitempty"`
	FuncSpan Pos     `json:"func_span,omitzero"`
	Args     []*Expr `json:"args,omitempty"`
}

// Part is literal text or an embedded expression of an f-string.
type Part struct {
	Text string `json:"text,omitempty"`
	Expr *Expr  `json:"expr,omitempty"`
}

// Format of an encoded document.
type Format uint8

const (
	FormatAuto Format = iota
	FormatJSON
	FormatMsgpack
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatMsgpack:
		return "msgpack"
	}
	return "auto"
}

// FormatForPath picks the format from a file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".mp", ".msgpack":
		return FormatMsgpack
	}
	return FormatAuto
}

// sniff treats anything starting with '{' as JSON; a msgpack map never does.
func sniff(data []byte) Format {
	if t := bytes.TrimLeft(data, " \t\r\n"); len(t) > 0 && t[0] == '{' {
		return FormatJSON
	}
	return FormatMsgpack
}

// Decode parses an encoded document.
func Decode(data []byte, format Format) (*Document, error) {
	if format == FormatAuto {
		format = sniff(data)
	}
	var doc Document
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode json tree: %w", err)
		}
	case FormatMsgpack:
		dec := msgpack.NewDecoder(bytes.NewReader(data))
		dec.SetCustomStructTag("json")
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode msgpack tree: %w", err)
		}
	default:
		return nil, fmt.Errorf("decode tree: unknown format %d", format)
	}
	if doc.Version == 0 {
		doc.Version = SchemaVersion
	}
	if doc.Version > SchemaVersion {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrUnsupportedVersion, doc.Version, SchemaVersion)
	}
	return &doc, nil
}

// Encode writes a document; used by tests and tooling that converts trees.
func Encode(doc *Document, format Format) ([]byte, error) {
	switch format {
	case FormatMsgpack:
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		enc.SetCustomStructTag("json")
		enc.SetOmitEmpty(true)
		if err := enc.Encode(doc); err != nil {
			return nil, fmt.Errorf("encode msgpack tree: %w", err)
		}
		return buf.Bytes(), nil
	default:
		data, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("encode json tree: %w", err)
		}
		return data, nil
	}
}
