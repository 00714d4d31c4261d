package mir

import (
	"strings"
	"testing"
)

func TestFormatInstruction(t *testing.T) {
	tests := []struct {
		in   Instruction
		want string
	}{
		{Const(0, IntConst(42)), "v0 = const 42"},
		{Const(1, StringConst("hi")), `v1 = const "hi"`},
		{BinOp(2, Div, 0, 1), "v2 = binop div v0, v1"},
		{Compare(3, Lt, 0, 1), "v3 = cmp lt v0, v1"},
		{Branch(3, 1, 2), "br v3, b1, b2"},
		{Phi(4, PhiInput{Pred: 0, Value: 0}, PhiInput{Pred: 1, Value: 2}), "v4 = phi [b0: v0], [b1: v2]"},
		{RefGet(5, 4, "x"), "v5 = ref.get x v4"},
		{ExternCallVoid("env.console", "log", 1), "extern env.console.log v1"},
		{Catch(6, "", 3), "v6 = catch * b3"},
		{ReturnVoid(), "ret"},
	}

	for _, tt := range tests {
		if got := FormatInstruction(&tt.in); got != tt.want {
			t.Errorf("FormatInstruction() = %q, want %q", got, tt.want)
		}
	}
}

func TestFormatModule(t *testing.T) {
	out := Format(validLoop())
	for _, want := range []string{"; module loop", "fn main() entry b0 {", "  b1:", "    ret v1"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
}
