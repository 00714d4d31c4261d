package vm

import (
	"fmt"
	"strconv"

	"github.com/chazu/mirvm/mir"
)

// Kind identifies the active variant of a Value.
type Kind uint8

const (
	KindVoid Kind = iota
	KindInteger
	KindFloat
	KindBool
	KindString
	KindFuture
	KindObject
)

var kindNames = [...]string{
	KindVoid:    "void",
	KindInteger: "integer",
	KindFloat:   "float",
	KindBool:    "bool",
	KindString:  "string",
	KindFuture:  "future",
	KindObject:  "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Value is the runtime representation of every MIR value. It is a closed
// tagged variant: exactly one payload field is meaningful for a given kind.
//
// Objects are not held by pointer. An Object value carries the Handle of an
// entry in the VM's Arena, so copying a Value never aliases Go memory.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	fut  *Future
	ref  Handle
}

// Void is the unit value.
var Void = Value{}

// Int creates an integer value.
func Int(n int64) Value { return Value{kind: KindInteger, i: n} }

// Float creates a float value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Bool creates a boolean value.
func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.i = 1
	}
	return v
}

// String creates a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// FromFuture creates a value referring to f. A nil future is void.
func FromFuture(f *Future) Value {
	if f == nil {
		return Void
	}
	return Value{kind: KindFuture, fut: f}
}

// Ref creates a value referring to the arena object h.
func Ref(h Handle) Value { return Value{kind: KindObject, ref: h} }

// FromConst maps a MIR constant to its runtime value. Null and void both
// become Void.
func FromConst(c mir.ConstValue) Value {
	switch c.Kind {
	case mir.ConstInteger:
		return Int(c.Int)
	case mir.ConstFloat:
		return Float(c.Float)
	case mir.ConstBool:
		return Bool(c.Bool)
	case mir.ConstString:
		return String(c.Str)
	default:
		return Void
	}
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Kind returns the active variant.
func (v Value) Kind() Kind { return v.kind }

// IsVoid returns true if v is the unit value.
func (v Value) IsVoid() bool { return v.kind == KindVoid }

// AsInt returns the integer payload.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInteger }

// AsFloat returns the float payload.
func (v Value) AsFloat() (float64, bool) { return v.f, v.kind == KindFloat }

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, bool) { return v.i != 0, v.kind == KindBool }

// AsString returns the string payload.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsFuture returns the future payload.
func (v Value) AsFuture() (*Future, bool) { return v.fut, v.kind == KindFuture }

// AsRef returns the arena handle of an object value.
func (v Value) AsRef() (Handle, bool) { return v.ref, v.kind == KindObject }

// Equal reports whether v and o are the same variant with the same payload.
// Objects and futures compare by identity.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindVoid:
		return true
	case KindInteger, KindBool:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	case KindFuture:
		return v.fut == o.fut
	case KindObject:
		return v.ref == o.ref
	}
	return false
}

// String returns the display form used by Print and diagnostics.
func (v Value) String() string {
	switch v.kind {
	case KindVoid:
		return "void"
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.i != 0)
	case KindString:
		return v.s
	case KindFuture:
		return v.fut.String()
	case KindObject:
		return fmt.Sprintf("<object#%d>", v.ref)
	}
	return fmt.Sprintf("<%s>", v.kind)
}

// GoString makes %#v output readable in test failures.
func (v Value) GoString() string {
	if v.kind == KindString {
		return "String(" + strconv.Quote(v.s) + ")"
	}
	return fmt.Sprintf("%s(%s)", v.kind, v.String())
}

// ---------------------------------------------------------------------------
// Coercions
// ---------------------------------------------------------------------------

// CoerceInt returns v as an integer. Integers pass through and booleans map
// to 0 or 1; any other kind is a TypeError.
func (v Value) CoerceInt() (int64, error) {
	switch v.kind {
	case KindInteger, KindBool:
		return v.i, nil
	}
	return 0, typeErrorf("expected integer, got %s", v.kind)
}

// CoerceBool returns v as a boolean. Booleans pass through and integers are
// true when non-zero; any other kind is a TypeError.
func (v Value) CoerceBool() (bool, error) {
	switch v.kind {
	case KindBool, KindInteger:
		return v.i != 0, nil
	}
	return false, typeErrorf("expected bool, got %s", v.kind)
}
