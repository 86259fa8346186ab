package types

import (
	"testing"

	"pycc/internal/ast"
)

func TestSetProjection(t *testing.T) {
	cases := []struct {
		set  Set
		want Type
	}{
		{SetEmpty, Unknown},
		{SetInt, Int},
		{SetStr, Str},
		{SetInt | SetFloat, Dynamic},
		{SetUnbounded, Dynamic},
		{SetBool | SetUnbounded, Dynamic},
	}
	for _, tc := range cases {
		if got := tc.set.Type(); got != tc.want {
			t.Fatalf("%s.Type() = %s, want %s", tc.set, got, tc.want)
		}
	}
}

func TestSetOfRoundTrip(t *testing.T) {
	for ty := Int; ty <= Function; ty++ {
		if got := SetOf(ty).Type(); got != ty {
			t.Fatalf("SetOf(%s).Type() = %s", ty, got)
		}
	}
	if SetOf(Dynamic).Type() != Dynamic || SetOf(Unknown).Type() != Unknown {
		t.Fatalf("lattice ends must round-trip")
	}
}

func TestUnionNeverNarrows(t *testing.T) {
	sets := []Set{SetEmpty, SetInt, SetFloat, SetStr, SetInt | SetStr, SetUnbounded}
	for _, a := range sets {
		for _, b := range sets {
			u := a.Union(b)
			if u.Type().Height() < a.Type().Height() {
				t.Fatalf("%s ∪ %s = %s narrowed", a, b, u)
			}
			if a.Type() == Dynamic && u.Type() != Dynamic {
				t.Fatalf("dynamic narrowed: %s ∪ %s = %s", a, b, u)
			}
		}
	}
}

func TestBinaryType(t *testing.T) {
	cases := []struct {
		name string
		op   ast.ExprBinaryOp
		l, r Set
		want Set
	}{
		{"int+int", ast.ExprBinaryAdd, SetInt, SetInt, SetInt},
		{"int/int", ast.ExprBinaryDiv, SetInt, SetInt, SetFloat},
		{"int//int", ast.ExprBinaryFloorDiv, SetInt, SetInt, SetInt},
		{"float%int", ast.ExprBinaryMod, SetFloat, SetInt, SetFloat},
		{"int+float", ast.ExprBinaryAdd, SetInt, SetFloat, SetFloat},
		{"bool+bool", ast.ExprBinaryAdd, SetBool, SetBool, SetInt},
		{"str+str", ast.ExprBinaryAdd, SetStr, SetStr, SetStr},
		{"str*int", ast.ExprBinaryMul, SetStr, SetInt, SetStr},
		{"str+int", ast.ExprBinaryAdd, SetStr, SetInt, SetUnbounded},
		{"cmp dynamic", ast.ExprBinaryLess, SetUnbounded, SetInt, SetBool},
		{"and union", ast.ExprBinaryLogicalAnd, SetInt, SetStr, SetInt | SetStr},
		{"bitand bool", ast.ExprBinaryBitAnd, SetBool, SetBool, SetBool},
		{"shift", ast.ExprBinaryShiftLeft, SetInt, SetBool, SetInt},
		{"float shift", ast.ExprBinaryShiftLeft, SetFloat, SetInt, SetUnbounded},
		{"unknown operand", ast.ExprBinaryAdd, SetEmpty, SetInt, SetEmpty},
		{"union operand", ast.ExprBinaryAdd, SetInt | SetFloat, SetInt, SetInt | SetFloat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := BinaryType(tc.op, tc.l, tc.r); got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestUnaryType(t *testing.T) {
	if got := UnaryType(ast.ExprUnaryMinus, SetFloat); got != SetFloat {
		t.Fatalf("-float = %s", got)
	}
	if got := UnaryType(ast.ExprUnaryNot, SetUnbounded); got != SetBool {
		t.Fatalf("not * = %s", got)
	}
	if got := UnaryType(ast.ExprUnaryInvert, SetFloat); got != SetUnbounded {
		t.Fatalf("~float = %s", got)
	}
	if got := UnaryType(ast.ExprUnaryMinus, SetBool); got != SetInt {
		t.Fatalf("-bool = %s", got)
	}
}

func TestBinaryCoercion(t *testing.T) {
	c, ok := BinaryCoercion(ast.ExprBinaryAdd, SetFloat, SetInt)
	if !ok || c.From != Int || c.To != Float {
		t.Fatalf("float+int coercion = %+v, %v", c, ok)
	}
	if _, ok := BinaryCoercion(ast.ExprBinaryAdd, SetInt, SetInt); ok {
		t.Fatalf("same type must not coerce")
	}
	if _, ok := BinaryCoercion(ast.ExprBinaryAdd, SetStr, SetInt); ok {
		t.Fatalf("non-numeric pair must not coerce")
	}
	if _, ok := BinaryCoercion(ast.ExprBinaryAdd, SetInt|SetFloat, SetInt); ok {
		t.Fatalf("non-single operand must not coerce")
	}
}
