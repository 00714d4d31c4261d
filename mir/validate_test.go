package mir

import (
	"errors"
	"strings"
	"testing"

	"github.com/hashicorp/go-multierror"
)

func validLoop() *Module {
	b := NewFunctionBuilder("main", 0)
	header := b.NewBlock()
	exit := b.NewBlock()
	zero := b.Int(0)
	b.Emit(Jump(header))

	b.SetBlock(header)
	i := b.Value()
	b.Emit(Phi(i, PhiInput{Pred: 0, Value: zero}))
	b.Emit(Jump(exit))

	b.SetBlock(exit)
	b.Emit(Return(i))
	return NewModule("loop").Add(b.Build())
}

func TestValidateAcceptsWellFormedModule(t *testing.T) {
	if err := Validate(validLoop()); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestValidateReportsEveryViolation(t *testing.T) {
	b := NewFunctionBuilder("broken", 0)
	other := b.NewBlock()
	v := b.Int(1)
	b.Emit(Jump(42), Return(v)) // terminator in the middle, unknown target

	b.SetBlock(other)
	b.Emit(Phi(b.Value(), PhiInput{Pred: 9, Value: v}))
	// block left unterminated

	err := Validate(NewModule("m").Add(b.Build()))
	if err == nil {
		t.Fatal("Validate() = nil, want errors")
	}

	var merr *multierror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("Validate() error type = %T, want *multierror.Error", err)
	}
	if len(merr.Errors) != 4 {
		t.Errorf("len(Errors) = %d, want 4: %v", len(merr.Errors), err)
	}

	for _, want := range []string{"jump to unknown block b42", "not the last instruction", "not terminated", "unknown predecessor b9"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err.Error(), want)
		}
	}
}

func TestValidateMissingEntry(t *testing.T) {
	fn := &Function{Name: "f", Entry: 3, Blocks: map[BlockID]*BasicBlock{}}
	err := ValidateFunction(fn)
	if err == nil || !strings.Contains(err.Error(), "entry block does not exist") {
		t.Errorf("ValidateFunction() = %v, want missing entry error", err)
	}
}

func TestValidateRegisterLimit(t *testing.T) {
	b := NewFunctionBuilder("main", 0)
	b.Emit(Const(4000000000, IntConst(1)), Return(4000000000))
	err := Validate(NewModule("m").Add(b.Build()))
	if err == nil || !strings.Contains(err.Error(), "exceeds the limit") {
		t.Errorf("Validate() = %v, want register limit error", err)
	}
}

func TestValidateNilBlock(t *testing.T) {
	fn := &Function{Name: "f", Blocks: map[BlockID]*BasicBlock{0: nil}}
	err := ValidateFunction(fn)
	if err == nil || !strings.Contains(err.Error(), "block is nil") {
		t.Errorf("ValidateFunction() = %v, want nil block error", err)
	}
	if _, ok := fn.Block(0); ok {
		t.Error("Block(0) ok = true for a nil block")
	}
}
