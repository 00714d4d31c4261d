package vm

import (
	"cmp"
	"math"
	"strconv"

	"github.com/chazu/mirvm/mir"
)

// ---------------------------------------------------------------------------
// Binary operators
// ---------------------------------------------------------------------------

// binaryOp applies op to l and r. Operands must form an allowed kind
// combination; a mismatch is a TypeError naming both kinds and the operator.
func binaryOp(op mir.BinaryOp, l, r Value) (Value, error) {
	switch op {
	case mir.And, mir.Or:
		return logicalOp(op, l, r)
	}

	if op == mir.Add && l.kind == KindString {
		switch r.kind {
		case KindString:
			return String(l.s + r.s), nil
		case KindInteger:
			return String(l.s + strconv.FormatInt(r.i, 10)), nil
		}
		return Void, mismatch(op, l, r)
	}

	switch {
	case l.kind == KindInteger && r.kind == KindInteger:
		return intOp(op, l.i, r.i)
	case isNumeric(l) && isNumeric(r):
		return floatOp(op, l, r)
	}
	return Void, mismatch(op, l, r)
}

func intOp(op mir.BinaryOp, a, b int64) (Value, error) {
	switch op {
	case mir.Add:
		return Int(a + b), nil
	case mir.Sub:
		return Int(a - b), nil
	case mir.Mul:
		return Int(a * b), nil
	case mir.Div:
		if b == 0 {
			return Void, newError(DivisionByZero, "%d / 0", a)
		}
		if a == math.MinInt64 && b == -1 {
			// Two's complement overflow wraps instead of trapping.
			return Int(a), nil
		}
		return Int(a / b), nil
	case mir.Mod:
		if b == 0 {
			return Void, newError(DivisionByZero, "%d %% 0", a)
		}
		if b == -1 {
			return Int(0), nil
		}
		return Int(a % b), nil
	case mir.BitAnd:
		return Int(a & b), nil
	case mir.BitOr:
		return Int(a | b), nil
	case mir.BitXor:
		return Int(a ^ b), nil
	case mir.Shl:
		if b < 0 {
			return Void, newError(InvalidValue, "negative shift count %d", b)
		}
		if b >= 64 {
			return Int(0), nil
		}
		return Int(a << uint(b)), nil
	case mir.Shr:
		if b < 0 {
			return Void, newError(InvalidValue, "negative shift count %d", b)
		}
		if b >= 64 {
			b = 63
		}
		return Int(a >> uint(b)), nil
	}
	return Void, newError(InvalidInstruction, "unknown binary operator %s", op)
}

func floatOp(op mir.BinaryOp, l, r Value) (Value, error) {
	a, b := toFloat(l), toFloat(r)
	switch op {
	case mir.Add:
		return Float(a + b), nil
	case mir.Sub:
		return Float(a - b), nil
	case mir.Mul:
		return Float(a * b), nil
	case mir.Div:
		if b == 0 {
			return Void, newError(DivisionByZero, "%s / 0", l)
		}
		return Float(a / b), nil
	case mir.Mod:
		if b == 0 {
			return Void, newError(DivisionByZero, "%s %% 0", l)
		}
		return Float(math.Mod(a, b)), nil
	}
	return Void, mismatch(op, l, r)
}

// logicalOp implements And and Or on operands that coerce to bool. Both
// operands are already evaluated; there is no short circuit at this level.
func logicalOp(op mir.BinaryOp, l, r Value) (Value, error) {
	a, errL := l.CoerceBool()
	b, errR := r.CoerceBool()
	if errL != nil || errR != nil {
		return Void, mismatch(op, l, r)
	}
	if op == mir.And {
		return Bool(a && b), nil
	}
	return Bool(a || b), nil
}

func mismatch(op mir.BinaryOp, l, r Value) error {
	return typeErrorf("cannot apply %s to %s and %s", op, l.kind, r.kind)
}

func isNumeric(v Value) bool {
	return v.kind == KindInteger || v.kind == KindFloat
}

func toFloat(v Value) float64 {
	if v.kind == KindInteger {
		return float64(v.i)
	}
	return v.f
}

// ---------------------------------------------------------------------------
// Unary operators
// ---------------------------------------------------------------------------

func unaryOp(op mir.UnaryOp, x Value) (Value, error) {
	switch op {
	case mir.Neg:
		switch x.kind {
		case KindInteger:
			return Int(-x.i), nil
		case KindFloat:
			return Float(-x.f), nil
		}
	case mir.Not:
		b, err := x.CoerceBool()
		if err != nil {
			return Void, typeErrorf("cannot apply %s to %s", op, x.kind)
		}
		return Bool(!b), nil
	case mir.BitNot:
		if x.kind == KindInteger {
			return Int(^x.i), nil
		}
	default:
		return Void, newError(InvalidInstruction, "unknown unary operator %s", op)
	}
	return Void, typeErrorf("cannot apply %s to %s", op, x.kind)
}

// ---------------------------------------------------------------------------
// Comparisons
// ---------------------------------------------------------------------------

// compareOp compares l and r. Integers and floats compare numerically
// (mixed operands promote to float), strings lexically. Eq and Ne accept any
// pair of the same kind; ordering on other kinds is a TypeError.
func compareOp(op mir.CompareOp, l, r Value) (Value, error) {
	var c int
	switch {
	case l.kind == KindInteger && r.kind == KindInteger:
		c = cmp.Compare(l.i, r.i)
	case isNumeric(l) && isNumeric(r):
		c = cmp.Compare(toFloat(l), toFloat(r))
		if math.IsNaN(toFloat(l)) || math.IsNaN(toFloat(r)) {
			return Bool(op == mir.Ne), nil
		}
	case l.kind == KindString && r.kind == KindString:
		c = cmp.Compare(l.s, r.s)
	case l.kind == r.kind && (op == mir.Eq || op == mir.Ne):
		return Bool(l.Equal(r) == (op == mir.Eq)), nil
	default:
		return Void, typeErrorf("cannot compare %s %s %s", l.kind, op, r.kind)
	}

	switch op {
	case mir.Eq:
		return Bool(c == 0), nil
	case mir.Ne:
		return Bool(c != 0), nil
	case mir.Lt:
		return Bool(c < 0), nil
	case mir.Le:
		return Bool(c <= 0), nil
	case mir.Gt:
		return Bool(c > 0), nil
	case mir.Ge:
		return Bool(c >= 0), nil
	}
	return Void, newError(InvalidInstruction, "unknown comparison %s", op)
}
