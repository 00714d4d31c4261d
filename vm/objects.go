package vm

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/chazu/mirvm/host"
	"github.com/chazu/mirvm/mir"
)

// ---------------------------------------------------------------------------
// Type names
// ---------------------------------------------------------------------------

// typeAliases maps the names accepted by NewBox, TypeCheck, Cast and Catch
// to the canonical kind names.
var typeAliases = map[string]string{
	"int":        "integer",
	"integer":    "integer",
	"IntegerBox": "integer",
	"float":      "float",
	"FloatBox":   "float",
	"bool":       "bool",
	"boolean":    "bool",
	"BoolBox":    "bool",
	"string":     "string",
	"StringBox":  "string",
	"array":      "array",
	"ArrayBox":   "array",
	"future":     "future",
	"FutureBox":  "future",
	"void":       "void",
	"null":       "void",
}

func canonicalType(name string) string {
	if c, ok := typeAliases[name]; ok {
		return c
	}
	return name
}

// typeName returns the kind name of v. Objects report their arena type; a
// released object reports "void".
func (vm *VM) typeName(v Value) string {
	if v.kind != KindObject {
		return v.kind.String()
	}
	obj, ok := vm.arena.Get(v.ref)
	if !ok {
		return "void"
	}
	return obj.TypeName()
}

// hasType reports whether v is of the named type. "object" matches every
// live arena object.
func (vm *VM) hasType(v Value, typ string) bool {
	typ = canonicalType(typ)
	if typ == "object" {
		return v.kind == KindObject && vm.arena.Alive(v.ref)
	}
	return vm.typeName(v) == typ
}

// Display renders v the way Print does.
func (vm *VM) Display(v Value) string {
	return vm.display(v)
}

// display renders v for Print, Debug and host call arguments. Arrays show
// their elements; other objects show their type and handle. An array that
// contains itself renders the inner occurrence as [...].
func (vm *VM) display(v Value) string {
	return vm.displaySeen(v, nil)
}

func (vm *VM) displaySeen(v Value, seen map[Handle]bool) string {
	if v.kind != KindObject {
		return v.String()
	}
	obj, ok := vm.arena.Get(v.ref)
	if !ok {
		return "void"
	}
	switch obj.Kind {
	case ObjectArray:
		if seen[v.ref] {
			return "[...]"
		}
		if seen == nil {
			seen = make(map[Handle]bool)
		}
		seen[v.ref] = true
		defer delete(seen, v.ref)
		parts := make([]string, len(obj.Elements))
		for i, e := range obj.Elements {
			parts[i] = vm.displaySeen(e, seen)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ObjectWeak:
		if seen[v.ref] {
			return "weak ..."
		}
		if seen == nil {
			seen = make(map[Handle]bool)
		}
		seen[v.ref] = true
		defer delete(seen, v.ref)
		return "weak " + vm.displaySeen(vm.deref(v), seen)
	}
	return "<" + obj.TypeName() + "#" + strconv.FormatUint(uint64(v.ref), 10) + ">"
}

// ---------------------------------------------------------------------------
// Construction and conversion
// ---------------------------------------------------------------------------

// newBox constructs a value of the named kind. Unknown kinds produce an
// empty instance object whose state lives in the field store.
func (vm *VM) newBox(kind string, args []Value) (Value, error) {
	switch canonicalType(kind) {
	case "array":
		return vm.NewArray(args...), nil
	case "future":
		f := NewFuture()
		if len(args) > 0 {
			f.Set(args[0])
		}
		return FromFuture(f), nil
	case "integer":
		if len(args) == 0 {
			return Int(0), nil
		}
		return vm.cast(args[0], "integer")
	case "float":
		if len(args) == 0 {
			return Float(0), nil
		}
		return vm.cast(args[0], "float")
	case "bool":
		if len(args) == 0 {
			return Bool(false), nil
		}
		return vm.cast(args[0], "bool")
	case "string":
		if len(args) == 0 {
			return String(""), nil
		}
		return vm.cast(args[0], "string")
	}

	if vm.strict {
		return Void, typeErrorf("unknown box kind %q", kind)
	}
	log.Debugf("new %s: no built-in representation, creating placeholder instance", kind)
	return vm.NewInstance(kind), nil
}

// cast converts x to the named primitive type. Casting an object to its own
// type is the identity; any other conversion that cannot be made is a
// TypeError.
func (vm *VM) cast(x Value, typ string) (Value, error) {
	target := canonicalType(typ)
	switch target {
	case "integer":
		switch x.kind {
		case KindInteger, KindBool:
			return Int(x.i), nil
		case KindFloat:
			if math.IsNaN(x.f) || math.IsInf(x.f, 0) {
				return Void, typeErrorf("cannot cast %s to integer", x)
			}
			return Int(int64(x.f)), nil
		case KindString:
			n, err := strconv.ParseInt(strings.TrimSpace(x.s), 10, 64)
			if err != nil {
				return Void, typeErrorf("cannot cast %q to integer", x.s)
			}
			return Int(n), nil
		}
	case "float":
		switch x.kind {
		case KindFloat:
			return x, nil
		case KindInteger, KindBool:
			return Float(float64(x.i)), nil
		case KindString:
			f, err := strconv.ParseFloat(strings.TrimSpace(x.s), 64)
			if err != nil {
				return Void, typeErrorf("cannot cast %q to float", x.s)
			}
			return Float(f), nil
		}
	case "bool":
		switch x.kind {
		case KindBool, KindInteger:
			return Bool(x.i != 0), nil
		case KindFloat:
			return Bool(x.f != 0), nil
		case KindString:
			b, err := strconv.ParseBool(strings.TrimSpace(x.s))
			if err != nil {
				return Void, typeErrorf("cannot cast %q to bool", x.s)
			}
			return Bool(b), nil
		}
	case "string":
		return String(vm.display(x)), nil
	default:
		if vm.hasType(x, target) {
			return x, nil
		}
	}
	return Void, typeErrorf("cannot cast %s to %s", vm.typeName(x), typ)
}

// ---------------------------------------------------------------------------
// Arrays
// ---------------------------------------------------------------------------

func (vm *VM) array(v Value) (*Object, error) {
	v = vm.deref(v)
	if h, ok := v.AsRef(); ok {
		if obj, ok := vm.arena.Get(h); ok && obj.Kind == ObjectArray {
			return obj, nil
		}
	}
	return nil, typeErrorf("expected array, got %s", vm.typeName(v))
}

// arrayGet returns arr[idx], or Void when idx is out of range.
func (vm *VM) arrayGet(arr, idx Value) (Value, error) {
	obj, err := vm.array(arr)
	if err != nil {
		return Void, err
	}
	i, err := idx.CoerceInt()
	if err != nil {
		return Void, err
	}
	if i < 0 || i >= int64(len(obj.Elements)) {
		if vm.strict {
			return Void, newError(InvalidValue, "index %d out of range [0, %d)", i, len(obj.Elements))
		}
		return Void, nil
	}
	return obj.Elements[i], nil
}

// arraySet stores val at arr[idx]. Writing at the length appends.
func (vm *VM) arraySet(arr, idx, val Value) error {
	obj, err := vm.array(arr)
	if err != nil {
		return err
	}
	i, err := idx.CoerceInt()
	if err != nil {
		return err
	}
	n := int64(len(obj.Elements))
	switch {
	case i >= 0 && i < n:
		obj.Elements[i] = val
	case i == n:
		obj.Elements = append(obj.Elements, val)
	default:
		return newError(InvalidValue, "index %d out of range [0, %d]", i, n)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Weak references
// ---------------------------------------------------------------------------

// newWeak creates a weak reference to x. Only arena objects can be weakly
// held; any other value is returned as is.
func (vm *VM) newWeak(x Value) Value {
	x = vm.deref(x)
	h, ok := x.AsRef()
	if !ok {
		return x
	}
	return Ref(vm.arena.NewWeak(h))
}

// ---------------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------------

// execCall runs a Call instruction: the first operand names the callee.
func (vm *VM) execCall(ctx context.Context, act *activation, in *mir.Instruction) (outcome, error) {
	callee, err := act.arg(in, 0)
	if err != nil {
		return proceed, err
	}
	name, ok := callee.AsString()
	if !ok {
		return proceed, typeErrorf("call target must be a function name, got %s", callee.Kind())
	}
	fn, ok := vm.module.Function(name)
	if !ok {
		return proceed, newError(InvalidInstruction, "unknown function %q", name)
	}
	args, err := act.args(in, 1)
	if err != nil {
		return proceed, err
	}
	result, err := vm.call(ctx, fn, args)
	if err != nil {
		return proceed, err
	}
	act.store(in, result)
	return proceed, nil
}

// externCall delivers iface.method to the host stub.
func (vm *VM) externCall(ctx context.Context, iface, method string, args []Value) (Value, error) {
	call := host.Call{
		RunID:     vm.ID(),
		Interface: iface,
		Method:    method,
		Args:      make([]any, len(args)),
		Display:   make([]string, len(args)),
		Time:      time.Now(),
	}
	for i, a := range args {
		call.Args[i] = vm.ToHost(a)
		call.Display[i] = vm.display(a)
	}

	result, err := vm.host.Call(ctx, call)
	if err != nil {
		return Void, wrapError(InvalidInstruction, err, "extern %s", call.Name())
	}
	return vm.FromHost(result), nil
}

// ---------------------------------------------------------------------------
// Futures
// ---------------------------------------------------------------------------

// await blocks until fv resolves or ctx is done.
func (vm *VM) await(ctx context.Context, fv Value) (Value, error) {
	f, ok := fv.AsFuture()
	if !ok {
		return Void, typeErrorf("await expects a future, got %s", vm.typeName(fv))
	}
	v, err := f.Wait(ctx)
	if err != nil {
		return Void, wrapError(InvalidInstruction, err, "await %s", f.ID())
	}
	return v, nil
}
