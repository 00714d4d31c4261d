package vm

import (
	"io"

	"github.com/chazu/mirvm/host"
)

const (
	// DefaultMaxFrameDepth bounds nested Call activations.
	DefaultMaxFrameDepth = 1024

	// DefaultContextCheckInterval is the number of instructions between
	// deterministic checks of ctx.Done(). Set to 0 to disable.
	DefaultContextCheckInterval = 1000
)

// Option is a configuration function for a VM.
type Option func(*VM)

// WithStrict turns the permissive fallbacks into errors: an unterminated
// block becomes InvalidInstruction, and an unknown method, NewBox kind or
// out-of-range ArrayGet becomes a TypeError or InvalidValue.
func WithStrict(strict bool) Option {
	return func(vm *VM) {
		vm.strict = strict
	}
}

// WithMaxFrameDepth limits how deeply Call may nest activations.
func WithMaxFrameDepth(depth int) Option {
	return func(vm *VM) {
		if depth > 0 {
			vm.maxFrameDepth = depth
		}
	}
}

// WithContextCheckInterval sets how often, in instructions, the VM checks
// whether the execution context is done. 0 disables the check; Await always
// honors the context regardless.
func WithContextCheckInterval(interval int) Option {
	return func(vm *VM) {
		vm.contextCheckInterval = interval
	}
}

// WithStdout sets the writer Print instructions write to.
func WithStdout(w io.Writer) Option {
	return func(vm *VM) {
		vm.stdout = w
	}
}

// WithHost sets the stub ExternCall instructions are delivered to.
func WithHost(stub host.Stub) Option {
	return func(vm *VM) {
		vm.host = stub
	}
}

// WithMethodResolver sets the resolver consulted for methods on objects the
// built-in dispatcher does not know.
func WithMethodResolver(r MethodResolver) Option {
	return func(vm *VM) {
		vm.resolver = r
	}
}

// WithObserver attaches an observer for execution events.
func WithObserver(o Observer) Option {
	return func(vm *VM) {
		vm.observer = o
	}
}

// WithTrace logs every activation and block transition at debug level.
func WithTrace(trace bool) Option {
	return func(vm *VM) {
		if trace {
			vm.observer = &traceObserver{next: vm.observer}
		}
	}
}
