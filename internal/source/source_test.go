package source

import "testing"

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("prog.py", []byte("x = 1\ndef f():\n    return x\n"))

	cases := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{4, LineCol{Line: 1, Col: 5}},
		{5, LineCol{Line: 1, Col: 6}},
		{6, LineCol{Line: 2, Col: 1}},
		{19, LineCol{Line: 3, Col: 5}},
	}
	for _, tc := range cases {
		start, _ := fs.Resolve(Span{File: id, Start: tc.off, End: tc.off})
		if start != tc.want {
			t.Fatalf("offset %d: got %+v, want %+v", tc.off, start, tc.want)
		}
	}
}

func TestFileLine(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("a.py", []byte("first\nsecond\nthird")))
	if got := f.Line(2); got != "second" {
		t.Fatalf("line 2 = %q", got)
	}
	if got := f.Line(3); got != "third" {
		t.Fatalf("line 3 = %q", got)
	}
	if got := f.Line(4); got != "" {
		t.Fatalf("line 4 = %q, want empty", got)
	}
}

func TestNormalizeCRLFAndBOM(t *testing.T) {
	out, changed := normalizeCRLF([]byte("a\r\nb\rc"))
	if !changed || string(out) != "a\nb\rc" {
		t.Fatalf("normalizeCRLF: %q %v", out, changed)
	}
	out, had := removeBOM([]byte{0xEF, 0xBB, 0xBF, 'x'})
	if !had || string(out) != "x" {
		t.Fatalf("removeBOM: %q %v", out, had)
	}
}

func TestInternerStableIDs(t *testing.T) {
	in := NewInterner()
	a := in.Intern("alpha")
	b := in.Intern("beta")
	if a == b || in.Intern("alpha") != a {
		t.Fatalf("unexpected ids %d %d", a, b)
	}
	if s := in.MustLookup(b); s != "beta" {
		t.Fatalf("lookup = %q", s)
	}
	if in.Intern("") != NoStringID {
		t.Fatalf("empty string must map to NoStringID")
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	if got := a.Cover(b); got != (Span{File: 1, Start: 2, End: 8}) {
		t.Fatalf("cover = %v", got)
	}
	if got := a.Cover(Span{File: 2, Start: 0, End: 100}); got != a {
		t.Fatalf("cross-file cover must keep receiver, got %v", got)
	}
}
