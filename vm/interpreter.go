package vm

import (
	"context"
	"fmt"

	"github.com/chazu/mirvm/mir"
)

// ---------------------------------------------------------------------------
// Activation: Execution state for one function invocation
// ---------------------------------------------------------------------------

// activation holds the state of a single function invocation.
type activation struct {
	fn *mir.Function

	// Dense register file indexed by ValueID.
	values  []Value
	defined []bool

	current  mir.BlockID
	previous mir.BlockID
	phi      PhiResolver

	// Catch handlers installed in this activation, innermost last.
	handlers []catchHandler
}

type catchHandler struct {
	typ   string
	dst   mir.ValueID
	block mir.BlockID
}

func newActivation(fn *mir.Function) (*activation, error) {
	n := fn.MaxValueID() + 1
	if n > mir.MaxRegisters {
		return nil, newError(InvalidValue, "%s uses register v%d, beyond the limit of %d", fn.Name, n-1, mir.MaxRegisters)
	}
	act := &activation{
		fn:       fn,
		values:   make([]Value, n),
		defined:  make([]bool, n),
		current:  fn.Entry,
		previous: fn.Entry,
	}
	act.phi.Reset()
	return act, nil
}

// get reads register id. Reading a register that has not been written in
// this activation is an InvalidValue error.
func (a *activation) get(id mir.ValueID) (Value, error) {
	if int(id) >= len(a.values) || !a.defined[id] {
		return Void, newError(InvalidValue, "undefined value %s", id)
	}
	return a.values[id], nil
}

// set writes register id, growing the register file if needed.
func (a *activation) set(id mir.ValueID, v Value) {
	if int(id) >= len(a.values) {
		n := int(id) + 1
		values := make([]Value, n)
		copy(values, a.values)
		defined := make([]bool, n)
		copy(defined, a.defined)
		a.values, a.defined = values, defined
	}
	a.values[id] = v
	a.defined[id] = true
}

// arg reads the i'th source operand of in.
func (a *activation) arg(in *mir.Instruction, i int) (Value, error) {
	id, ok := in.Arg(i)
	if !ok {
		return Void, newError(InvalidInstruction, "%s is missing operand %d", in.Op, i)
	}
	return a.get(id)
}

// args reads the source operands of in starting at from.
func (a *activation) args(in *mir.Instruction, from int) ([]Value, error) {
	if from > len(in.Args) {
		return nil, newError(InvalidInstruction, "%s is missing operand %d", in.Op, from)
	}
	out := make([]Value, 0, len(in.Args)-from)
	for _, id := range in.Args[from:] {
		v, err := a.get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// store writes v to the instruction's destination, if it has one.
func (a *activation) store(in *mir.Instruction, v Value) {
	if dst, ok := in.Dest(); ok {
		a.set(dst, v)
	}
}

// install pushes h unless the same handler is already installed, so a Catch
// inside a loop body arms its handler once.
func (a *activation) install(h catchHandler) {
	for _, existing := range a.handlers {
		if existing == h {
			return
		}
	}
	a.handlers = append(a.handlers, h)
}

// transition moves to target, recording the edge for phi resolution.
func (a *activation) transition(target mir.BlockID) {
	a.previous = a.current
	a.phi.Record(a.current, target)
	a.current = target
}

// ---------------------------------------------------------------------------
// Control results
// ---------------------------------------------------------------------------

type control uint8

const (
	controlContinue control = iota
	controlJump
	controlReturn
	controlThrow
)

// outcome is what executing one instruction decided about control flow.
type outcome struct {
	kind   control
	target mir.BlockID
	value  Value
}

var proceed = outcome{kind: controlContinue}

func jumpTo(target mir.BlockID) outcome { return outcome{kind: controlJump, target: target} }

func returnWith(v Value) outcome { return outcome{kind: controlReturn, value: v} }

func throwing(v Value) outcome { return outcome{kind: controlThrow, value: v} }

// ---------------------------------------------------------------------------
// Block loop
// ---------------------------------------------------------------------------

// call runs fn to completion in a fresh activation.
func (vm *VM) call(ctx context.Context, fn *mir.Function, args []Value) (Value, error) {
	if vm.depth >= vm.maxFrameDepth {
		return Void, newError(InvalidInstruction, "call depth exceeded calling %s (max %d)", fn.Name, vm.maxFrameDepth)
	}
	if len(args) != len(fn.Params) {
		return Void, newError(InvalidInstruction, "%s expects %d arguments, got %d", fn.Name, len(fn.Params), len(args))
	}
	vm.depth++
	defer func() { vm.depth-- }()

	act, err := newActivation(fn)
	if err != nil {
		return Void, locate(err, fn.Name, fn.Entry.String())
	}
	for i, p := range fn.Params {
		act.set(p, args[i])
	}

	if vm.observer != nil {
		vm.observer.OnEnter(fn.Name, vm.depth)
		vm.observer.OnBlock(fn.Name, act.previous, act.current)
	}

	for {
		block, ok := fn.Block(act.current)
		if !ok {
			return Void, locate(newError(InvalidBasicBlock, "block %s does not exist", act.current), fn.Name, act.previous.String())
		}

		out, err := vm.runBlock(ctx, act, block)
		if err != nil {
			return Void, locate(err, fn.Name, act.current.String())
		}

		switch out.kind {
		case controlJump:
			act.transition(out.target)

		case controlReturn:
			if vm.observer != nil {
				vm.observer.OnReturn(fn.Name, out.value)
			}
			return out.value, nil

		case controlThrow:
			h, ok := act.findHandler(vm, out.value)
			if !ok {
				thrown := out.value
				e := newError(InvalidInstruction, "uncaught exception: %s", thrown)
				e.thrown = &thrown
				return Void, locate(e, fn.Name, act.current.String())
			}
			act.set(h.dst, out.value)
			act.transition(h.block)

		default:
			// The block ran out of instructions without a terminator.
			if vm.strict {
				return Void, locate(newError(InvalidInstruction, "block %s is not terminated", act.current), fn.Name, act.current.String())
			}
			log.Warningf("%s: block %s is not terminated, returning void", fn.Name, act.current)
			return Void, nil
		}

		if vm.observer != nil {
			vm.observer.OnBlock(fn.Name, act.previous, act.current)
		}
	}
}

// runBlock executes the block's instructions in order until one of them
// transfers control.
func (vm *VM) runBlock(ctx context.Context, act *activation, block *mir.BasicBlock) (outcome, error) {
	for i := range block.Instructions {
		vm.steps++
		if vm.contextCheckInterval > 0 && vm.steps%vm.contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return proceed, wrapError(InvalidInstruction, err, "execution interrupted")
			}
		}

		out, err := vm.execute(ctx, act, &block.Instructions[i])
		if err != nil {
			return proceed, err
		}
		if out.kind != controlContinue {
			return out, nil
		}
	}
	return proceed, nil
}

// findHandler pops handlers until one accepts v.
func (a *activation) findHandler(vm *VM, v Value) (catchHandler, bool) {
	for len(a.handlers) > 0 {
		h := a.handlers[len(a.handlers)-1]
		a.handlers = a.handlers[:len(a.handlers)-1]
		if h.typ == "" || h.typ == "*" || vm.hasType(v, h.typ) {
			return h, true
		}
	}
	return catchHandler{}, false
}

// ---------------------------------------------------------------------------
// Instruction dispatch
// ---------------------------------------------------------------------------

// execute runs a single instruction.
func (vm *VM) execute(ctx context.Context, act *activation, in *mir.Instruction) (outcome, error) {
	switch in.Op {
	case mir.OpConst:
		act.store(in, FromConst(in.Const))

	case mir.OpBinOp:
		l, r, err := act.pair(in)
		if err != nil {
			return proceed, err
		}
		v, err := binaryOp(in.Binary, l, r)
		if err != nil {
			return proceed, err
		}
		act.store(in, v)

	case mir.OpUnaryOp:
		x, err := act.arg(in, 0)
		if err != nil {
			return proceed, err
		}
		v, err := unaryOp(in.Unary, x)
		if err != nil {
			return proceed, err
		}
		act.store(in, v)

	case mir.OpCompare:
		l, r, err := act.pair(in)
		if err != nil {
			return proceed, err
		}
		v, err := compareOp(in.Cmp, l, r)
		if err != nil {
			return proceed, err
		}
		act.store(in, v)

	case mir.OpJump:
		return jumpTo(in.Then), nil

	case mir.OpBranch:
		cond, err := act.arg(in, 0)
		if err != nil {
			return proceed, err
		}
		taken, err := cond.CoerceBool()
		if err != nil {
			return proceed, err
		}
		if taken {
			return jumpTo(in.Then), nil
		}
		return jumpTo(in.Else), nil

	case mir.OpReturn:
		if len(in.Args) == 0 {
			return returnWith(Void), nil
		}
		v, err := act.arg(in, 0)
		if err != nil {
			return proceed, err
		}
		return returnWith(v), nil

	case mir.OpPhi:
		v, err := act.phi.Select(in.Dst, in.Inputs, act.get)
		if err != nil {
			return proceed, err
		}
		act.store(in, v)

	case mir.OpLoad, mir.OpCopy, mir.OpRefNew:
		v, err := act.arg(in, 0)
		if err != nil {
			return proceed, err
		}
		act.store(in, v)

	case mir.OpStore:
		v, err := act.arg(in, 0)
		if err != nil {
			return proceed, err
		}
		if _, ok := in.Dest(); !ok {
			return proceed, newError(InvalidInstruction, "store is missing its target")
		}
		act.store(in, v)

	case mir.OpRefGet:
		obj, err := act.arg(in, 0)
		if err != nil {
			return proceed, err
		}
		obj = vm.deref(obj)
		act.store(in, vm.fields.Get(OwnerOf(obj, in.Args[0]), in.Name))

	case mir.OpRefSet:
		obj, err := act.arg(in, 0)
		if err != nil {
			return proceed, err
		}
		v, err := act.arg(in, 1)
		if err != nil {
			return proceed, err
		}
		obj = vm.deref(obj)
		vm.fields.Set(OwnerOf(obj, in.Args[0]), in.Name, v)

	case mir.OpWeakNew:
		x, err := act.arg(in, 0)
		if err != nil {
			return proceed, err
		}
		act.store(in, vm.newWeak(x))

	case mir.OpWeakLoad:
		x, err := act.arg(in, 0)
		if err != nil {
			return proceed, err
		}
		act.store(in, vm.deref(x))

	case mir.OpCall:
		return vm.execCall(ctx, act, in)

	case mir.OpMethodCall:
		recv, err := act.arg(in, 0)
		if err != nil {
			return proceed, err
		}
		args, err := act.args(in, 1)
		if err != nil {
			return proceed, err
		}
		v, err := vm.CallMethod(ctx, recv, in.Name, args)
		if err != nil {
			return proceed, err
		}
		act.store(in, v)

	case mir.OpNewBox:
		args, err := act.args(in, 0)
		if err != nil {
			return proceed, err
		}
		v, err := vm.newBox(in.Name, args)
		if err != nil {
			return proceed, err
		}
		act.store(in, v)

	case mir.OpTypeCheck:
		x, err := act.arg(in, 0)
		if err != nil {
			return proceed, err
		}
		act.store(in, Bool(vm.hasType(x, in.Name)))

	case mir.OpCast:
		x, err := act.arg(in, 0)
		if err != nil {
			return proceed, err
		}
		v, err := vm.cast(x, in.Name)
		if err != nil {
			return proceed, err
		}
		act.store(in, v)

	case mir.OpArrayGet:
		arr, idx, err := act.pair(in)
		if err != nil {
			return proceed, err
		}
		v, err := vm.arrayGet(arr, idx)
		if err != nil {
			return proceed, err
		}
		act.store(in, v)

	case mir.OpArraySet:
		vals, err := act.args(in, 0)
		if err != nil {
			return proceed, err
		}
		if len(vals) != 3 {
			return proceed, newError(InvalidInstruction, "array.set expects 3 operands, got %d", len(vals))
		}
		if err := vm.arraySet(vals[0], vals[1], vals[2]); err != nil {
			return proceed, err
		}

	case mir.OpPrint:
		v, err := act.arg(in, 0)
		if err != nil {
			return proceed, err
		}
		fmt.Fprintln(vm.stdout, vm.display(v))

	case mir.OpDebug:
		v, err := act.arg(in, 0)
		if err != nil {
			return proceed, err
		}
		log.Debugf("%s: %s = %s", in.Name, in.Args[0], vm.display(v))

	case mir.OpNop, mir.OpSafepoint, mir.OpBarrierRead, mir.OpBarrierWrite:
		// Reserved for collector and instrumentation hooks.

	case mir.OpThrow:
		v, err := act.arg(in, 0)
		if err != nil {
			return proceed, err
		}
		return throwing(v), nil

	case mir.OpCatch:
		dst, ok := in.Dest()
		if !ok {
			return proceed, newError(InvalidInstruction, "catch has no binding register")
		}
		act.install(catchHandler{typ: in.Name, dst: dst, block: in.Then})

	case mir.OpFutureNew:
		f := NewFuture()
		if len(in.Args) > 0 {
			v, err := act.arg(in, 0)
			if err != nil {
				return proceed, err
			}
			f.Set(v)
		}
		act.store(in, FromFuture(f))

	case mir.OpFutureSet:
		fv, v, err := act.pair(in)
		if err != nil {
			return proceed, err
		}
		f, ok := fv.AsFuture()
		if !ok {
			return proceed, typeErrorf("future.set expects a future, got %s", fv.Kind())
		}
		if !f.Set(v) {
			log.Debugf("future %s already resolved, ignoring set", f.ID())
		}

	case mir.OpAwait:
		fv, err := act.arg(in, 0)
		if err != nil {
			return proceed, err
		}
		v, err := vm.await(ctx, fv)
		if err != nil {
			return proceed, err
		}
		act.store(in, v)

	case mir.OpExternCall:
		args, err := act.args(in, 0)
		if err != nil {
			return proceed, err
		}
		v, err := vm.externCall(ctx, in.Iface, in.Name, args)
		if err != nil {
			return proceed, err
		}
		act.store(in, v)

	default:
		return proceed, newError(InvalidInstruction, "unknown opcode %s", in.Op)
	}
	return proceed, nil
}

// pair reads the first two source operands of in.
func (a *activation) pair(in *mir.Instruction) (Value, Value, error) {
	l, err := a.arg(in, 0)
	if err != nil {
		return Void, Void, err
	}
	r, err := a.arg(in, 1)
	if err != nil {
		return Void, Void, err
	}
	return l, r, nil
}
