package vm

import (
	"context"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/mirvm/host"
	"github.com/chazu/mirvm/mir"
)

var log = commonlog.GetLogger("mirvm.vm")

// ---------------------------------------------------------------------------
// VM: The MIR Virtual Machine
// ---------------------------------------------------------------------------

// VM executes the functions of one MIR module.
//
// A VM is not safe for concurrent use: one activation runs to completion (or
// blocks in Await) on the calling goroutine. Use one VM per goroutine.
// Futures are the only values meant to be shared between VMs.
type VM struct {
	id     uuid.UUID
	module *mir.Module

	arena  *Arena
	fields *FieldStore

	host     host.Stub
	resolver MethodResolver
	observer Observer
	stdout   io.Writer

	strict               bool
	maxFrameDepth        int
	contextCheckInterval int

	depth int // current number of nested activations
	steps int // instructions executed, for context checks
}

// NewVM creates a VM for module m.
func NewVM(m *mir.Module, opts ...Option) *VM {
	vm := &VM{
		id:                   uuid.New(),
		module:               m,
		arena:                NewArena(),
		fields:               NewFieldStore(),
		stdout:               os.Stdout,
		maxFrameDepth:        DefaultMaxFrameDepth,
		contextCheckInterval: DefaultContextCheckInterval,
	}
	for _, opt := range opts {
		opt(vm)
	}
	if vm.host == nil {
		vm.host = host.NewEnv(vm.stdout)
	}
	return vm
}

// ID returns the identifier of this VM instance. It is attached to every
// host call as the run id.
func (vm *VM) ID() string {
	return vm.id.String()
}

// Module returns the module the VM executes.
func (vm *VM) Module() *mir.Module {
	return vm.module
}

// Arena returns the VM's object arena.
func (vm *VM) Arena() *Arena {
	return vm.arena
}

// Fields returns the VM's object field store.
func (vm *VM) Fields() *FieldStore {
	return vm.fields
}

// Strict reports whether permissive fallbacks are disabled.
func (vm *VM) Strict() bool {
	return vm.strict
}

// Release frees the arena object v refers to, together with its fields,
// and clears weak references to it. Returns false if v is not a live object.
func (vm *VM) Release(v Value) bool {
	h, ok := v.AsRef()
	if !ok || !vm.arena.Release(h) {
		return false
	}
	vm.fields.drop(HandleOwner(h))
	return true
}

// ---------------------------------------------------------------------------
// Entry points
// ---------------------------------------------------------------------------

// ExecuteModule runs the module's "main" function and returns its result in
// the host representation.
func (vm *VM) ExecuteModule(ctx context.Context) (any, error) {
	if _, ok := vm.module.Function(mir.MainFunction); !ok {
		return nil, newError(InvalidInstruction, "module has no %q function", mir.MainFunction)
	}
	return vm.ExecuteFunction(ctx, mir.MainFunction)
}

// ExecuteFunction runs the named function with host arguments and returns
// its result in the host representation. No partial result is returned on
// failure.
func (vm *VM) ExecuteFunction(ctx context.Context, name string, args ...any) (any, error) {
	vals := make([]Value, len(args))
	for i, a := range args {
		vals[i] = vm.FromHost(a)
	}
	result, err := vm.Run(ctx, name, vals)
	if err != nil {
		return nil, err
	}
	return vm.ToHost(result), nil
}

// Run runs the named function with VM values.
func (vm *VM) Run(ctx context.Context, name string, args []Value) (Value, error) {
	fn, ok := vm.module.Function(name)
	if !ok {
		return Void, newError(InvalidInstruction, "unknown function %q", name)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	vm.steps = 0
	return vm.call(ctx, fn, args)
}
