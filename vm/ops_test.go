package vm

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/chazu/mirvm/mir"
)

func TestBinaryOpIntegers(t *testing.T) {
	tests := []struct {
		op   mir.BinaryOp
		a, b int64
		want int64
	}{
		{mir.Add, 2, 3, 5},
		{mir.Sub, 2, 3, -1},
		{mir.Mul, -4, 3, -12},
		{mir.Div, 7, 2, 3},
		{mir.Div, -7, 2, -3},
		{mir.Mod, -7, 2, -1},
		{mir.Div, math.MinInt64, -1, math.MinInt64},
		{mir.Mod, math.MinInt64, -1, 0},
		{mir.BitAnd, 6, 3, 2},
		{mir.BitOr, 6, 3, 7},
		{mir.BitXor, 6, 3, 5},
		{mir.Shl, 1, 4, 16},
		{mir.Shl, 1, 64, 0},
		{mir.Shr, -16, 2, -4},
		{mir.Shr, -1, 100, -1},
	}
	for _, tt := range tests {
		got, err := binaryOp(tt.op, Int(tt.a), Int(tt.b))
		if err != nil {
			t.Errorf("%d %s %d: %v", tt.a, tt.op, tt.b, err)
			continue
		}
		if !got.Equal(Int(tt.want)) {
			t.Errorf("%d %s %d = %v, want %d", tt.a, tt.op, tt.b, got, tt.want)
		}
	}
}

func TestBinaryOpDivisionByZero(t *testing.T) {
	for _, tt := range []struct {
		op   mir.BinaryOp
		l, r Value
	}{
		{mir.Div, Int(1), Int(0)},
		{mir.Mod, Int(1), Int(0)},
		{mir.Div, Float(1), Float(0)},
		{mir.Div, Int(1), Float(0)},
	} {
		_, err := binaryOp(tt.op, tt.l, tt.r)
		if !errors.Is(err, ErrDivisionByZero) {
			t.Errorf("%v %s %v: err = %v, want division by zero", tt.l, tt.op, tt.r, err)
		}
	}
}

func TestBinaryOpNegativeShift(t *testing.T) {
	_, err := binaryOp(mir.Shl, Int(1), Int(-1))
	if !errors.Is(err, ErrInvalidValue) {
		t.Errorf("err = %v, want invalid value", err)
	}
}

func TestBinaryOpFloats(t *testing.T) {
	got, err := binaryOp(mir.Add, Int(1), Float(0.5))
	if err != nil || !got.Equal(Float(1.5)) {
		t.Errorf("1 + 0.5 = %v, %v, want 1.5", got, err)
	}
	got, err = binaryOp(mir.Mod, Float(7.5), Float(2))
	if err != nil || !got.Equal(Float(1.5)) {
		t.Errorf("7.5 mod 2 = %v, %v, want 1.5", got, err)
	}
}

func TestBinaryOpStrings(t *testing.T) {
	got, err := binaryOp(mir.Add, String("a"), String("b"))
	if err != nil || !got.Equal(String("ab")) {
		t.Errorf("a + b = %v, %v", got, err)
	}
	got, err = binaryOp(mir.Add, String("n"), Int(3))
	if err != nil || !got.Equal(String("n3")) {
		t.Errorf("n + 3 = %v, %v", got, err)
	}

	for _, tt := range []struct {
		op   mir.BinaryOp
		l, r Value
	}{
		{mir.Sub, String("a"), String("b")},
		{mir.Add, Int(3), String("n")},
		{mir.Add, String("a"), Bool(true)},
	} {
		if _, err := binaryOp(tt.op, tt.l, tt.r); !errors.Is(err, ErrTypeError) {
			t.Errorf("%#v %s %#v: err = %v, want type error", tt.l, tt.op, tt.r, err)
		}
	}
}

func TestBinaryOpMismatchNamesOperands(t *testing.T) {
	_, err := binaryOp(mir.Mul, Bool(true), String("x"))
	if err == nil {
		t.Fatal("err = nil, want type error")
	}
	for _, want := range []string{"mul", "bool", "string"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestBinaryOpLogical(t *testing.T) {
	got, err := binaryOp(mir.And, Bool(true), Int(0))
	if err != nil || !got.Equal(Bool(false)) {
		t.Errorf("true and 0 = %v, %v", got, err)
	}
	got, err = binaryOp(mir.Or, Bool(false), Int(2))
	if err != nil || !got.Equal(Bool(true)) {
		t.Errorf("false or 2 = %v, %v", got, err)
	}
	if _, err := binaryOp(mir.And, String("x"), Bool(true)); !errors.Is(err, ErrTypeError) {
		t.Errorf("err = %v, want type error", err)
	}
}

func TestUnaryOp(t *testing.T) {
	tests := []struct {
		op   mir.UnaryOp
		x    Value
		want Value
	}{
		{mir.Neg, Int(4), Int(-4)},
		{mir.Neg, Float(1.5), Float(-1.5)},
		{mir.Not, Bool(true), Bool(false)},
		{mir.Not, Int(0), Bool(true)},
		{mir.BitNot, Int(0), Int(-1)},
	}
	for _, tt := range tests {
		got, err := unaryOp(tt.op, tt.x)
		if err != nil || !got.Equal(tt.want) {
			t.Errorf("%s %v = %v, %v, want %v", tt.op, tt.x, got, err, tt.want)
		}
	}

	if _, err := unaryOp(mir.Neg, String("x")); !errors.Is(err, ErrTypeError) {
		t.Errorf("neg string: err = %v, want type error", err)
	}
	if _, err := unaryOp(mir.BitNot, Float(1)); !errors.Is(err, ErrTypeError) {
		t.Errorf("bitnot float: err = %v, want type error", err)
	}
}

func TestCompareOp(t *testing.T) {
	tests := []struct {
		op   mir.CompareOp
		l, r Value
		want bool
	}{
		{mir.Lt, Int(1), Int(2), true},
		{mir.Ge, Int(2), Int(2), true},
		{mir.Gt, Float(1.5), Int(1), true},
		{mir.Le, String("abc"), String("abd"), true},
		{mir.Eq, Bool(true), Bool(true), true},
		{mir.Ne, Void, Void, false},
		{mir.Eq, Float(math.NaN()), Float(math.NaN()), false},
		{mir.Ne, Float(math.NaN()), Int(1), true},
	}
	for _, tt := range tests {
		got, err := compareOp(tt.op, tt.l, tt.r)
		if err != nil {
			t.Errorf("%v %s %v: %v", tt.l, tt.op, tt.r, err)
			continue
		}
		if !got.Equal(Bool(tt.want)) {
			t.Errorf("%v %s %v = %v, want %v", tt.l, tt.op, tt.r, got, tt.want)
		}
	}

	for _, tt := range []struct {
		op   mir.CompareOp
		l, r Value
	}{
		{mir.Lt, Bool(true), Bool(false)},
		{mir.Eq, Int(1), String("1")},
	} {
		if _, err := compareOp(tt.op, tt.l, tt.r); !errors.Is(err, ErrTypeError) {
			t.Errorf("%#v %s %#v: err = %v, want type error", tt.l, tt.op, tt.r, err)
		}
	}
}
