package vm

import (
	"context"
	"math"
	"strings"
	"unicode/utf8"
)

// ---------------------------------------------------------------------------
// MethodResolver: methods supplied by the embedding program
// ---------------------------------------------------------------------------

// MethodResolver resolves methods on values the built-in tables do not
// cover: instance and opaque objects. recv and args are in the host
// representation (see ToHost). ok is false when the resolver does not know
// the method, in which case the VM falls back to its permissive default.
type MethodResolver interface {
	ResolveMethod(ctx context.Context, recv any, typeName, method string, args []any) (result any, ok bool, err error)
}

// MethodResolverFunc adapts a function to the MethodResolver interface.
type MethodResolverFunc func(ctx context.Context, recv any, typeName, method string, args []any) (any, bool, error)

func (f MethodResolverFunc) ResolveMethod(ctx context.Context, recv any, typeName, method string, args []any) (any, bool, error) {
	return f(ctx, recv, typeName, method, args)
}

// ---------------------------------------------------------------------------
// Built-in method tables
// ---------------------------------------------------------------------------

// builtinMethod implements one method of a built-in kind. recv has already
// been dereferenced.
type builtinMethod func(vm *VM, recv Value, args []Value) (Value, error)

var stringMethods = map[string]builtinMethod{
	"length": func(_ *VM, recv Value, args []Value) (Value, error) {
		return Int(int64(utf8.RuneCountInString(recv.s))), nil
	},
	"substring": stringSubstring,
	"concat": func(vm *VM, recv Value, args []Value) (Value, error) {
		var sb strings.Builder
		sb.WriteString(recv.s)
		for _, a := range args {
			sb.WriteString(vm.display(a))
		}
		return String(sb.String()), nil
	},
	"toUpper": func(_ *VM, recv Value, args []Value) (Value, error) {
		return String(strings.ToUpper(recv.s)), nil
	},
	"toLower": func(_ *VM, recv Value, args []Value) (Value, error) {
		return String(strings.ToLower(recv.s)), nil
	},
	"trim": func(_ *VM, recv Value, args []Value) (Value, error) {
		return String(strings.TrimSpace(recv.s)), nil
	},
	"indexOf": func(_ *VM, recv Value, args []Value) (Value, error) {
		sub, err := stringArg("indexOf", args, 0)
		if err != nil {
			return Void, err
		}
		i := strings.Index(recv.s, sub)
		if i < 0 {
			return Int(-1), nil
		}
		return Int(int64(utf8.RuneCountInString(recv.s[:i]))), nil
	},
	"contains": func(_ *VM, recv Value, args []Value) (Value, error) {
		sub, err := stringArg("contains", args, 0)
		if err != nil {
			return Void, err
		}
		return Bool(strings.Contains(recv.s, sub)), nil
	},
	"charAt": func(_ *VM, recv Value, args []Value) (Value, error) {
		i, err := intArg("charAt", args, 0)
		if err != nil {
			return Void, err
		}
		runes := []rune(recv.s)
		if i < 0 || i >= int64(len(runes)) {
			return String(""), nil
		}
		return String(string(runes[i])), nil
	},
	"split": func(vm *VM, recv Value, args []Value) (Value, error) {
		sep, err := stringArg("split", args, 0)
		if err != nil {
			return Void, err
		}
		parts := strings.Split(recv.s, sep)
		elems := make([]Value, len(parts))
		for i, p := range parts {
			elems[i] = String(p)
		}
		return vm.NewArray(elems...), nil
	},
}

// stringSubstring returns the runes in [start, end). Bounds are clamped to
// the string; an inverted range yields the empty string. end defaults to
// the length.
func stringSubstring(_ *VM, recv Value, args []Value) (Value, error) {
	runes := []rune(recv.s)
	n := int64(len(runes))

	start, err := intArg("substring", args, 0)
	if err != nil {
		return Void, err
	}
	end := n
	if len(args) > 1 {
		if end, err = intArg("substring", args, 1); err != nil {
			return Void, err
		}
	}
	start = min(max(start, 0), n)
	end = min(max(end, 0), n)
	if start >= end {
		return String(""), nil
	}
	return String(string(runes[start:end])), nil
}

var integerMethods = map[string]builtinMethod{
	"abs": func(_ *VM, recv Value, args []Value) (Value, error) {
		if recv.i < 0 {
			return Int(-recv.i), nil
		}
		return recv, nil
	},
	"toFloat": func(_ *VM, recv Value, args []Value) (Value, error) {
		return Float(float64(recv.i)), nil
	},
	"max": func(_ *VM, recv Value, args []Value) (Value, error) {
		o, err := intArg("max", args, 0)
		if err != nil {
			return Void, err
		}
		return Int(max(recv.i, o)), nil
	},
	"min": func(_ *VM, recv Value, args []Value) (Value, error) {
		o, err := intArg("min", args, 0)
		if err != nil {
			return Void, err
		}
		return Int(min(recv.i, o)), nil
	},
}

var floatMethods = map[string]builtinMethod{
	"abs": func(_ *VM, recv Value, args []Value) (Value, error) {
		return Float(math.Abs(recv.f)), nil
	},
	"floor": func(_ *VM, recv Value, args []Value) (Value, error) {
		return Float(math.Floor(recv.f)), nil
	},
	"ceil": func(_ *VM, recv Value, args []Value) (Value, error) {
		return Float(math.Ceil(recv.f)), nil
	},
	"round": func(_ *VM, recv Value, args []Value) (Value, error) {
		return Float(math.Round(recv.f)), nil
	},
	"toInteger": func(vm *VM, recv Value, args []Value) (Value, error) {
		return vm.cast(recv, "integer")
	},
}

var boolMethods = map[string]builtinMethod{
	"not": func(_ *VM, recv Value, args []Value) (Value, error) {
		return Bool(recv.i == 0), nil
	},
}

var arrayMethods = map[string]builtinMethod{
	"length": func(vm *VM, recv Value, args []Value) (Value, error) {
		obj, err := vm.array(recv)
		if err != nil {
			return Void, err
		}
		return Int(int64(len(obj.Elements))), nil
	},
	"get": func(vm *VM, recv Value, args []Value) (Value, error) {
		if len(args) != 1 {
			return Void, arityError("get", 1, args)
		}
		return vm.arrayGet(recv, args[0])
	},
	"set": func(vm *VM, recv Value, args []Value) (Value, error) {
		if len(args) != 2 {
			return Void, arityError("set", 2, args)
		}
		return Void, vm.arraySet(recv, args[0], args[1])
	},
	"push": func(vm *VM, recv Value, args []Value) (Value, error) {
		obj, err := vm.array(recv)
		if err != nil {
			return Void, err
		}
		obj.Elements = append(obj.Elements, args...)
		return Int(int64(len(obj.Elements))), nil
	},
}

var futureMethods = map[string]builtinMethod{
	"isReady": func(_ *VM, recv Value, args []Value) (Value, error) {
		return Bool(recv.fut.Ready()), nil
	},
	"value": func(_ *VM, recv Value, args []Value) (Value, error) {
		v, _ := recv.fut.Value()
		return v, nil
	},
}

// universalMethods apply to every value after its kind's own table.
var universalMethods = map[string]builtinMethod{
	"toString": func(vm *VM, recv Value, args []Value) (Value, error) {
		return String(vm.display(recv)), nil
	},
	"typeName": func(vm *VM, recv Value, args []Value) (Value, error) {
		return String(vm.typeName(recv)), nil
	},
	"equals": func(_ *VM, recv Value, args []Value) (Value, error) {
		if len(args) != 1 {
			return Void, arityError("equals", 1, args)
		}
		return Bool(recv.Equal(args[0])), nil
	},
}

// ---------------------------------------------------------------------------
// CallMethod
// ---------------------------------------------------------------------------

// CallMethod invokes method on recv. Weak references are dereferenced
// first. Primitive kinds and arrays use the built-in tables; instance and
// opaque objects go to the configured MethodResolver. A method nobody
// implements yields Void, or a TypeError in strict mode.
func (vm *VM) CallMethod(ctx context.Context, recv Value, method string, args []Value) (Value, error) {
	recv = vm.deref(recv)

	var table map[string]builtinMethod
	switch recv.kind {
	case KindString:
		table = stringMethods
	case KindInteger:
		table = integerMethods
	case KindFloat:
		table = floatMethods
	case KindBool:
		table = boolMethods
	case KindFuture:
		table = futureMethods
	case KindObject:
		obj, ok := vm.arena.Get(recv.ref)
		if !ok {
			break
		}
		if obj.Kind == ObjectArray {
			table = arrayMethods
			break
		}
		if v, ok, err := vm.resolve(ctx, recv, obj, method, args); ok || err != nil {
			return v, err
		}
	}

	if m, ok := table[method]; ok {
		return m(vm, recv, args)
	}
	if m, ok := universalMethods[method]; ok {
		return m(vm, recv, args)
	}
	return vm.unknownMethod(recv, method)
}

// resolve asks the MethodResolver for method on an instance or opaque object.
func (vm *VM) resolve(ctx context.Context, recv Value, obj *Object, method string, args []Value) (Value, bool, error) {
	if vm.resolver == nil {
		return Void, false, nil
	}
	hostArgs := make([]any, len(args))
	for i, a := range args {
		hostArgs[i] = vm.ToHost(a)
	}
	result, ok, err := vm.resolver.ResolveMethod(ctx, vm.ToHost(recv), obj.TypeName(), method, hostArgs)
	if err != nil {
		return Void, false, wrapError(InvalidInstruction, err, "%s.%s", obj.TypeName(), method)
	}
	if !ok {
		return Void, false, nil
	}
	return vm.FromHost(result), true, nil
}

func (vm *VM) unknownMethod(recv Value, method string) (Value, error) {
	if vm.strict {
		return Void, typeErrorf("%s does not understand %s", vm.typeName(recv), method)
	}
	log.Debugf("%s does not understand %s, returning void", vm.typeName(recv), method)
	return Void, nil
}

// ---------------------------------------------------------------------------
// Argument helpers
// ---------------------------------------------------------------------------

func arityError(method string, want int, args []Value) error {
	return typeErrorf("%s expects %d arguments, got %d", method, want, len(args))
}

func intArg(method string, args []Value, i int) (int64, error) {
	if i >= len(args) {
		return 0, typeErrorf("%s is missing argument %d", method, i+1)
	}
	n, err := args[i].CoerceInt()
	if err != nil {
		return 0, typeErrorf("%s argument %d: expected integer, got %s", method, i+1, args[i].Kind())
	}
	return n, nil
}

func stringArg(method string, args []Value, i int) (string, error) {
	if i >= len(args) {
		return "", typeErrorf("%s is missing argument %d", method, i+1)
	}
	s, ok := args[i].AsString()
	if !ok {
		return "", typeErrorf("%s argument %d: expected string, got %s", method, i+1, args[i].Kind())
	}
	return s, nil
}
