package value

import (
	"errors"
	"math"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"pycc/internal/ast"
	"pycc/internal/types"
)

func TestConstructorsSetTagAndPayload(t *testing.T) {
	pool := NewStrPool()
	cases := []struct {
		v    TaggedValue
		tag  Tag
		text string
	}{
		{MakeNone(), TagNone, "None"},
		{MakeBool(true), TagBool, "True"},
		{MakeInt(-42), TagInt, "-42"},
		{MakeFloat(2.5), TagFloat, "2.5"},
		{MakeFloat(3), TagFloat, "3.0"},
		{MakeStr(pool.Add("hi")), TagStr, "hi"},
	}
	for _, tc := range cases {
		if tc.v.Tag() != tc.tag {
			t.Fatalf("%s: tag = %s", tc.text, tc.v.Tag())
		}
		if got := tc.v.Format(pool); got != tc.text {
			t.Fatalf("Format = %q, want %q", got, tc.text)
		}
	}
	if n, ok := MakeInt(-42).AsInt(); !ok || n != -42 {
		t.Fatalf("AsInt = %d, %v", n, ok)
	}
	if b, ok := MakeBool(true).AsBool(); !ok || !b {
		t.Fatal("bool payload lost")
	}
	if _, ok := MakeInt(1).AsFloat(); ok {
		t.Fatalf("int must not read as float")
	}
}

func TestStrPoolLengthPrefixed(t *testing.T) {
	pool := NewStrPool()
	a := pool.Add("abc")
	b := pool.Add("")
	c := pool.Add("héllo")
	if pool.String(a) != "abc" || pool.String(c) != "héllo" {
		t.Fatalf("pool strings corrupted: %q %q", pool.String(a), pool.String(c))
	}
	if b != 0 || pool.Len(b) != 0 {
		t.Fatalf("empty string must use the zero ref")
	}
	if pool.Size() != 4+3+4+len("héllo") {
		t.Fatalf("unexpected pool size %d", pool.Size())
	}
	if _, ok := pool.Bytes(StrRef(9999)); ok {
		t.Fatalf("out of range ref must fail")
	}
}

func TestBinaryArithmetic(t *testing.T) {
	pool := NewStrPool()
	cases := []struct {
		name string
		op   ast.ExprBinaryOp
		l, r TaggedValue
		want string
		tag  Tag
	}{
		{"int add", ast.ExprBinaryAdd, MakeInt(2), MakeInt(3), "5", TagInt},
		{"int div", ast.ExprBinaryDiv, MakeInt(7), MakeInt(2), "3.5", TagFloat},
		{"floor neg", ast.ExprBinaryFloorDiv, MakeInt(-7), MakeInt(2), "-4", TagInt},
		{"mod neg", ast.ExprBinaryMod, MakeInt(-7), MakeInt(3), "2", TagInt},
		{"mixed", ast.ExprBinaryMul, MakeInt(2), MakeFloat(1.5), "3.0", TagFloat},
		{"pow", ast.ExprBinaryPow, MakeInt(2), MakeInt(10), "1024", TagInt},
		{"bool add", ast.ExprBinaryAdd, MakeBool(true), MakeBool(true), "2", TagInt},
		{"concat", ast.ExprBinaryAdd, MakeStr(pool.Add("ab")), MakeStr(pool.Add("cd")), "abcd", TagStr},
		{"repeat", ast.ExprBinaryMul, MakeStr(pool.Add("ab")), MakeInt(3), "ababab", TagStr},
		{"and", ast.ExprBinaryLogicalAnd, MakeInt(0), MakeStr(pool.Add("x")), "0", TagInt},
		{"or", ast.ExprBinaryLogicalOr, MakeInt(0), MakeStr(pool.Add("x")), "x", TagStr},
		{"lt", ast.ExprBinaryLess, MakeInt(1), MakeFloat(1.5), "True", TagBool},
		{"eq mixed", ast.ExprBinaryEq, MakeStr(pool.Add("1")), MakeInt(1), "False", TagBool},
		{"shift", ast.ExprBinaryShiftLeft, MakeInt(1), MakeInt(4), "16", TagInt},
		{"bool xor", ast.ExprBinaryBitXor, MakeBool(true), MakeBool(false), "True", TagBool},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Binary(pool, tc.op, tc.l, tc.r)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Tag() != tc.tag || got.Format(pool) != tc.want {
				t.Fatalf("got %s %q, want %s %q", got.Tag(), got.Format(pool), tc.tag, tc.want)
			}
		})
	}
}

func TestBinaryErrorsAreValues(t *testing.T) {
	pool := NewStrPool()
	_, err := Binary(pool, ast.ExprBinaryDiv, MakeInt(1), MakeInt(0))
	var opErr *OpError
	if !errors.As(err, &opErr) || opErr.Code != ErrDivisionByZero {
		t.Fatalf("expected division by zero, got %v", err)
	}
	_, err = Binary(pool, ast.ExprBinaryAdd, MakeStr(pool.Add("a")), MakeInt(1))
	if !errors.As(err, &opErr) || opErr.Code != ErrTypeMismatch {
		t.Fatalf("expected type mismatch, got %v", err)
	}
	_, err = Unary(pool, ast.ExprUnaryInvert, MakeFloat(1))
	if !errors.As(err, &opErr) || opErr.Code != ErrTypeMismatch {
		t.Fatalf("expected type mismatch for ~float, got %v", err)
	}
}

func TestOversizedStringsAreErrors(t *testing.T) {
	pool := NewStrPool()
	ab := MakeStr(pool.Add("ab"))
	size := pool.Size()
	for _, n := range []int64{1 << 62, 1 << 31, math.MaxInt64} {
		_, err := Binary(pool, ast.ExprBinaryMul, ab, MakeInt(n))
		var opErr *OpError
		if !errors.As(err, &opErr) || opErr.Code != ErrStringTooLarge {
			t.Fatalf("ab * %d: expected string too large, got %v", n, err)
		}
		if _, err := Binary(pool, ast.ExprBinaryMul, MakeInt(n), ab); !errors.As(err, &opErr) || opErr.Code != ErrStringTooLarge {
			t.Fatalf("%d * ab: expected string too large, got %v", n, err)
		}
	}
	if pool.Size() != size {
		t.Fatal("failed operations must not grow the pool")
	}
	if got, err := Binary(pool, ast.ExprBinaryMul, ab, MakeInt(3)); err != nil || pool.String(mustStr(t, got)) != "ababab" {
		t.Fatalf("ab * 3 = %v, %v", got, err)
	}
	if got, err := Binary(pool, ast.ExprBinaryMul, MakeStr(0), MakeInt(1<<62)); err != nil || mustStr(t, got) != 0 {
		t.Fatalf("empty * n = %v, %v", got, err)
	}
	if pool.Fits(math.MaxUint32+1) || !pool.Fits(math.MaxUint32) {
		t.Fatal("Fits must follow the u32 length prefix")
	}
}

func mustStr(t *testing.T, v TaggedValue) StrRef {
	t.Helper()
	ref, ok := v.AsStr()
	if !ok {
		t.Fatalf("expected a str, got %s", v.Tag())
	}
	return ref
}

// Runtime results must stay inside the static result set.
func TestRuntimeAgreesWithStaticRules(t *testing.T) {
	pool := NewStrPool()
	samples := []TaggedValue{
		MakeNone(), MakeBool(true), MakeBool(false), MakeInt(3), MakeInt(-2),
		MakeFloat(0.5), MakeStr(pool.Add("s")), MakeStr(0),
	}
	for op := ast.ExprBinaryAdd; op <= ast.ExprBinaryShiftRight; op++ {
		for _, l := range samples {
			for _, r := range samples {
				got, err := Binary(pool, op, l, r)
				if err != nil {
					continue
				}
				static := types.BinaryType(op, types.SetOf(l.Tag().Type()), types.SetOf(r.Tag().Type()))
				if !static.Has(types.SetOf(got.Tag().Type())) {
					t.Fatalf("%s %s %s = %s, static %s", l.Tag(), op, r.Tag(), got.Tag(), static)
				}
			}
		}
	}
	for op := ast.ExprUnaryPlus; op <= ast.ExprUnaryInvert; op++ {
		for _, x := range samples {
			got, err := Unary(pool, op, x)
			if err != nil {
				continue
			}
			static := types.UnaryType(op, types.SetOf(x.Tag().Type()))
			if !static.Has(types.SetOf(got.Tag().Type())) {
				t.Fatalf("%s %s = %s, static %s", op, x.Tag(), got.Tag(), static)
			}
		}
	}
}

func TestMsgpackRejectsInconsistentValues(t *testing.T) {
	in := []TaggedValue{MakeInt(-5), MakeFloat(1.25), MakeBool(true), MakeNone()}
	data, err := msgpack.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out []TaggedValue
	if err := msgpack.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Fatalf("value %d changed: %+v -> %+v", i, in[i], out[i])
		}
	}

	bad, err := msgpack.Marshal([]any{uint8(TagBool), uint64(7)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var v TaggedValue
	if err := msgpack.Unmarshal(bad, &v); err == nil {
		t.Fatalf("bool with payload 7 must be rejected")
	}
}

func TestLayoutCoversEveryTag(t *testing.T) {
	l := DefaultLayout()
	if len(l.Tags) != tagCount {
		t.Fatalf("layout lists %d tags, want %d", len(l.Tags), tagCount)
	}
	for i, info := range l.Tags {
		if int(info.Tag) != i {
			t.Fatalf("tag numbering drifted at %d: %s", i, info.Name)
		}
	}
	if l.PayloadOffset+l.PayloadSize > l.Size {
		t.Fatalf("payload exceeds value size")
	}
}
