package mir

// ---------------------------------------------------------------------------
// FunctionBuilder: Helper for constructing functions
// ---------------------------------------------------------------------------

// FunctionBuilder helps construct Function instances. It hands out dense
// ValueIDs and BlockIDs and appends instructions to the current block.
type FunctionBuilder struct {
	fn        *Function
	current   *BasicBlock
	nextValue ValueID
	nextBlock BlockID
}

// NewFunctionBuilder creates a builder for a function with the given name and
// number of parameters. Parameters receive ValueIDs 0..arity-1 and the entry
// block is created and made current.
func NewFunctionBuilder(name string, arity int) *FunctionBuilder {
	b := &FunctionBuilder{
		fn: &Function{
			Name:   name,
			Blocks: make(map[BlockID]*BasicBlock),
		},
	}
	for i := 0; i < arity; i++ {
		b.fn.Params = append(b.fn.Params, b.Value())
	}
	b.fn.Entry = b.NewBlock()
	b.SetBlock(b.fn.Entry)
	return b
}

// Param returns the ValueID of the i'th parameter.
func (b *FunctionBuilder) Param(i int) ValueID {
	return b.fn.Params[i]
}

// Value allocates a fresh ValueID.
func (b *FunctionBuilder) Value() ValueID {
	v := b.nextValue
	b.nextValue++
	return v
}

// NewBlock allocates an empty block and returns its id. The current block is
// left unchanged.
func (b *FunctionBuilder) NewBlock() BlockID {
	id := b.nextBlock
	b.nextBlock++
	b.fn.Blocks[id] = &BasicBlock{ID: id}
	return id
}

// SetBlock makes id the block that Emit appends to.
func (b *FunctionBuilder) SetBlock(id BlockID) *FunctionBuilder {
	b.current = b.fn.Blocks[id]
	return b
}

// Current returns the id of the block being built.
func (b *FunctionBuilder) Current() BlockID {
	return b.current.ID
}

// Emit appends instructions to the current block.
func (b *FunctionBuilder) Emit(ins ...Instruction) *FunctionBuilder {
	b.current.Instructions = append(b.current.Instructions, ins...)
	return b
}

// Const allocates a register, emits a Const into it and returns it.
func (b *FunctionBuilder) Const(c ConstValue) ValueID {
	v := b.Value()
	b.Emit(Const(v, c))
	return v
}

// Int is shorthand for Const(IntConst(n)).
func (b *FunctionBuilder) Int(n int64) ValueID {
	return b.Const(IntConst(n))
}

// String is shorthand for Const(StringConst(s)).
func (b *FunctionBuilder) String(s string) ValueID {
	return b.Const(StringConst(s))
}

// BinOp allocates a register and emits lhs op rhs into it.
func (b *FunctionBuilder) BinOp(op BinaryOp, lhs, rhs ValueID) ValueID {
	v := b.Value()
	b.Emit(BinOp(v, op, lhs, rhs))
	return v
}

// Compare allocates a register and emits lhs op rhs into it.
func (b *FunctionBuilder) Compare(op CompareOp, lhs, rhs ValueID) ValueID {
	v := b.Value()
	b.Emit(Compare(v, op, lhs, rhs))
	return v
}

// Build finalizes and returns the function.
func (b *FunctionBuilder) Build() *Function {
	return b.fn
}
