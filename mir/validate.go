package mir

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ValidationError describes one well-formedness violation.
type ValidationError struct {
	Function string
	Block    BlockID
	Index    int // instruction index, -1 for block-level problems
	Msg      string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s/%s: %s", e.Function, e.Block, e.Msg)
	}
	return fmt.Sprintf("%s/%s[%d]: %s", e.Function, e.Block, e.Index, e.Msg)
}

// MaxRegisters bounds the register ids a function may mention. The VM
// allocates one slot per id up to the largest one.
const MaxRegisters = 1 << 16

// Validate checks that every function in m is well formed: the entry block
// exists, every block ends in exactly one terminator, jump targets and phi
// predecessors name existing blocks, register ids stay below MaxRegisters,
// and every opcode is known. All violations are reported together.
func Validate(m *Module) error {
	var result *multierror.Error
	for _, name := range m.FunctionNames() {
		fn := m.Functions[name]
		if fn == nil {
			result = multierror.Append(result, fmt.Errorf("%s: function is nil", name))
			continue
		}
		if err := ValidateFunction(fn); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// ValidateFunction checks a single function. See Validate.
func ValidateFunction(fn *Function) error {
	var result *multierror.Error
	report := func(block BlockID, index int, format string, args ...any) {
		result = multierror.Append(result, &ValidationError{
			Function: fn.Name,
			Block:    block,
			Index:    index,
			Msg:      fmt.Sprintf(format, args...),
		})
	}

	if _, ok := fn.Blocks[fn.Entry]; !ok {
		report(fn.Entry, -1, "entry block does not exist")
	}
	for _, p := range fn.Params {
		if int(p) >= MaxRegisters {
			report(fn.Entry, -1, "parameter %s exceeds the register limit %d", p, MaxRegisters)
		}
	}

	for _, id := range fn.BlockIDs() {
		block := fn.Blocks[id]
		if block == nil {
			report(id, -1, "block is nil")
			continue
		}
		if block.ID != id {
			report(id, -1, "block is stored under %s but declares %s", id, block.ID)
		}
		if _, ok := block.Terminator(); !ok {
			report(id, -1, "block is not terminated")
		}
		for i := range block.Instructions {
			in := &block.Instructions[i]
			if !in.Op.Valid() {
				report(id, i, "unknown opcode %d", in.Op)
				continue
			}
			if dst, ok := in.Dest(); ok && int(dst) >= MaxRegisters {
				report(id, i, "register %s exceeds the limit %d", dst, MaxRegisters)
			}
			for _, src := range in.Sources() {
				if int(src) >= MaxRegisters {
					report(id, i, "register %s exceeds the limit %d", src, MaxRegisters)
				}
			}
			if in.IsTerminator() && i != len(block.Instructions)-1 {
				report(id, i, "%s is not the last instruction", in.Op)
			}
			switch in.Op {
			case OpJump:
				if _, ok := fn.Blocks[in.Then]; !ok {
					report(id, i, "jump to unknown block %s", in.Then)
				}
			case OpBranch, OpCatch:
				if _, ok := fn.Blocks[in.Then]; !ok {
					report(id, i, "%s to unknown block %s", in.Op, in.Then)
				}
				if in.Op == OpBranch {
					if _, ok := fn.Blocks[in.Else]; !ok {
						report(id, i, "%s to unknown block %s", in.Op, in.Else)
					}
				}
			case OpPhi:
				if len(in.Inputs) == 0 {
					report(id, i, "phi %s has no inputs", in.Dst)
				}
				for _, input := range in.Inputs {
					if _, ok := fn.Blocks[input.Pred]; !ok {
						report(id, i, "phi %s names unknown predecessor %s", in.Dst, input.Pred)
					}
				}
			}
		}
	}
	return result.ErrorOrNil()
}
