package mir

import (
	"fmt"
	"strconv"
	"strings"
)

// Format returns a human-readable listing of every function in m.
func Format(m *Module) string {
	var sb strings.Builder
	if m.Name != "" {
		fmt.Fprintf(&sb, "; module %s\n", m.Name)
	}
	for i, name := range m.FunctionNames() {
		if i > 0 || m.Name != "" {
			sb.WriteString("\n")
		}
		writeFunction(&sb, m.Functions[name])
	}
	return sb.String()
}

// FormatFunction returns a human-readable listing of fn.
func FormatFunction(fn *Function) string {
	var sb strings.Builder
	writeFunction(&sb, fn)
	return sb.String()
}

func writeFunction(sb *strings.Builder, fn *Function) {
	fmt.Fprintf(sb, "fn %s(", fn.Name)
	for i, p := range fn.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	fmt.Fprintf(sb, ") entry %s {\n", fn.Entry)
	for _, id := range fn.BlockIDs() {
		fmt.Fprintf(sb, "  %s:\n", id)
		if fn.Blocks[id] == nil {
			continue
		}
		for i := range fn.Blocks[id].Instructions {
			fmt.Fprintf(sb, "    %s\n", FormatInstruction(&fn.Blocks[id].Instructions[i]))
		}
	}
	sb.WriteString("}\n")
}

// FormatInstruction renders a single instruction, e.g. "v2 = binop add v0, v1".
func FormatInstruction(in *Instruction) string {
	var sb strings.Builder
	if in.HasDst {
		fmt.Fprintf(&sb, "%s = ", in.Dst)
	}
	sb.WriteString(in.Op.String())

	var operands []string
	switch in.Op {
	case OpConst:
		operands = append(operands, in.Const.String())
	case OpBinOp:
		sb.WriteString(" " + in.Binary.String())
	case OpUnaryOp:
		sb.WriteString(" " + in.Unary.String())
	case OpCompare:
		sb.WriteString(" " + in.Cmp.String())
	case OpPhi:
		for _, input := range in.Inputs {
			operands = append(operands, fmt.Sprintf("[%s: %s]", input.Pred, input.Value))
		}
	case OpExternCall:
		sb.WriteString(" " + in.Iface + "." + in.Name)
	case OpRefGet, OpRefSet, OpMethodCall, OpNewBox, OpTypeCheck, OpCast:
		sb.WriteString(" " + in.Name)
	case OpDebug:
		sb.WriteString(" " + strconv.Quote(in.Name))
	case OpCatch:
		typ := in.Name
		if typ == "" {
			typ = "*"
		}
		sb.WriteString(" " + typ)
	}

	for _, arg := range in.Args {
		operands = append(operands, arg.String())
	}

	switch in.Op {
	case OpJump, OpCatch:
		operands = append(operands, in.Then.String())
	case OpBranch:
		operands = append(operands, in.Then.String(), in.Else.String())
	}

	if len(operands) > 0 {
		sb.WriteString(" ")
		sb.WriteString(strings.Join(operands, ", "))
	}
	return sb.String()
}
