package vm

// ObjectRef is the host representation of an instance object. Passing it back
// through FromHost yields the same object.
type ObjectRef struct {
	Handle Handle
	Class  string
}

// ToHost converts v to the host's generic representation: int64, float64,
// bool, string, *Future, []any for arrays, ObjectRef for instances, the
// original payload for opaque objects, and nil for void or a released object.
// An array nested inside itself converts to nil at the point of recursion.
func (vm *VM) ToHost(v Value) any {
	return vm.toHost(v, nil)
}

func (vm *VM) toHost(v Value, seen map[Handle]bool) any {
	switch v.kind {
	case KindVoid:
		return nil
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.i != 0
	case KindString:
		return v.s
	case KindFuture:
		return v.fut
	case KindObject:
		obj, ok := vm.arena.Get(v.ref)
		if !ok {
			return nil
		}
		switch obj.Kind {
		case ObjectArray, ObjectWeak:
			if seen[v.ref] {
				return nil
			}
			if seen == nil {
				seen = make(map[Handle]bool)
			}
			seen[v.ref] = true
			defer delete(seen, v.ref)
			if obj.Kind == ObjectWeak {
				return vm.toHost(vm.deref(v), seen)
			}
			out := make([]any, len(obj.Elements))
			for i, e := range obj.Elements {
				out[i] = vm.toHost(e, seen)
			}
			return out
		case ObjectOpaque:
			return obj.Payload
		default:
			return ObjectRef{Handle: v.ref, Class: obj.Class}
		}
	}
	return nil
}

// FromHost converts a host value to a VM value. Known primitive kinds are
// tried in a fixed order; anything else is stored in the arena as an opaque
// object.
func (vm *VM) FromHost(x any) Value {
	switch t := x.(type) {
	case nil:
		return Void
	case Value:
		return t
	case int64:
		return Int(t)
	case int:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case float64:
		return Float(t)
	case float32:
		return Float(float64(t))
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case *Future:
		return FromFuture(t)
	case ObjectRef:
		return Ref(t.Handle)
	case []any:
		elems := make([]Value, len(t))
		for i, e := range t {
			elems[i] = vm.FromHost(e)
		}
		return vm.NewArray(elems...)
	}
	return Ref(vm.arena.Alloc(&Object{Kind: ObjectOpaque, Payload: x}))
}

// NewArray allocates an array object holding elems.
func (vm *VM) NewArray(elems ...Value) Value {
	return Ref(vm.arena.Alloc(&Object{Kind: ObjectArray, Elements: append([]Value(nil), elems...)}))
}

// NewInstance allocates an instance object of the named kind.
func (vm *VM) NewInstance(class string) Value {
	return Ref(vm.arena.Alloc(&Object{Kind: ObjectInstance, Class: class}))
}
