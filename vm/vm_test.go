package vm

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/chazu/mirvm/mir"
)

// ---------------------------------------------------------------------------
// VM construction tests
// ---------------------------------------------------------------------------

func TestNewVM(t *testing.T) {
	m := mir.NewModule("test")
	vm := NewVM(m)
	if vm == nil {
		t.Fatal("NewVM returned nil")
	}
	if vm.Module() != m {
		t.Error("Module() should return the module passed to NewVM")
	}
	if vm.Arena() == nil || vm.Fields() == nil {
		t.Error("Arena and Fields should be initialized")
	}
	if vm.Strict() {
		t.Error("a new VM should be permissive")
	}
	if vm.maxFrameDepth != DefaultMaxFrameDepth {
		t.Errorf("maxFrameDepth = %d, want %d", vm.maxFrameDepth, DefaultMaxFrameDepth)
	}
	if vm.host == nil {
		t.Error("a default host should be installed")
	}
}

func TestVMIDs(t *testing.T) {
	a := NewVM(mir.NewModule("a"))
	b := NewVM(mir.NewModule("b"))
	if a.ID() == b.ID() {
		t.Error("VMs should have distinct ids")
	}
	if _, err := uuid.Parse(a.ID()); err != nil {
		t.Errorf("ID() = %q is not a uuid: %v", a.ID(), err)
	}
}

func TestVMOptions(t *testing.T) {
	var out bytes.Buffer
	vm := NewVM(mir.NewModule("test"),
		WithStrict(true),
		WithMaxFrameDepth(8),
		WithMaxFrameDepth(0), // ignored
		WithContextCheckInterval(0),
		WithStdout(&out),
	)

	if !vm.Strict() {
		t.Error("WithStrict(true) not applied")
	}
	if vm.maxFrameDepth != 8 {
		t.Errorf("maxFrameDepth = %d, want 8", vm.maxFrameDepth)
	}
	if vm.contextCheckInterval != 0 {
		t.Errorf("contextCheckInterval = %d, want 0", vm.contextCheckInterval)
	}
	if vm.stdout != &out {
		t.Error("WithStdout not applied")
	}
}

func TestDefaultHostPrintsToStdout(t *testing.T) {
	var out bytes.Buffer
	b := mir.NewFunctionBuilder("main", 0)
	b.Emit(mir.ExternCallVoid("env.console", "log", b.String("hello")), mir.ReturnVoid())

	vm := NewVM(mir.NewModule("test").Add(b.Build()), WithStdout(&out))
	if _, err := vm.ExecuteModule(context.Background()); err != nil {
		t.Fatal(err)
	}
	if out.String() != "hello\n" {
		t.Errorf("output = %q, want hello", out.String())
	}
}

func TestRunUnknownFunction(t *testing.T) {
	vm := NewVM(mir.NewModule("test"))
	_, err := vm.Run(context.Background(), "nope", nil)
	if !errors.Is(err, ErrInvalidInstruction) {
		t.Errorf("err = %v, want invalid instruction", err)
	}
}

func TestErrorFormatting(t *testing.T) {
	err := newError(TypeError, "cannot apply %s to %s and %s", "add", "bool", "string")
	if got, want := err.Error(), "type error: cannot apply add to bool and string"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	located := locate(err, "main", "b2")
	if got, want := located.Error(), "type error: cannot apply add to bool and string (in main/b2)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	// The first location wins.
	locate(err, "outer", "b0")
	if err.Function != "main" {
		t.Errorf("Function = %q, want main", err.Function)
	}

	if errors.Is(err, ErrDivisionByZero) {
		t.Error("a type error should not match division by zero")
	}
	if ErrorKind(99).String() != "ErrorKind(99)" {
		t.Errorf("unknown kind = %q", ErrorKind(99).String())
	}
}
