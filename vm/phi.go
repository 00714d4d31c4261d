package vm

import (
	"github.com/chazu/mirvm/mir"
)

// PhiResolver selects phi inputs based on the control-flow edge that was
// just taken. One resolver belongs to one activation.
type PhiResolver struct {
	from, to mir.BlockID
	recorded bool
}

// Reset forgets the recorded transition. Called at the start of every
// activation.
func (r *PhiResolver) Reset() {
	*r = PhiResolver{}
}

// Record notes that control moved from one block to another. It must be
// called for every transition before the target block's phis run.
func (r *PhiResolver) Record(from, to mir.BlockID) {
	r.from, r.to, r.recorded = from, to, true
}

// Previous returns the block control arrived from.
func (r *PhiResolver) Previous() (mir.BlockID, bool) {
	return r.from, r.recorded
}

// Select returns the value of the input whose predecessor is the block control
// arrived from. lookup reads a register of the current activation.
func (r *PhiResolver) Select(dst mir.ValueID, inputs []mir.PhiInput, lookup func(mir.ValueID) (Value, error)) (Value, error) {
	if !r.recorded {
		return Void, newError(InvalidValue, "phi %s executed without a predecessor block", dst)
	}
	for _, input := range inputs {
		if input.Pred == r.from {
			return lookup(input.Value)
		}
	}
	return Void, newError(InvalidValue, "phi %s has no input for predecessor %s", dst, r.from)
}
