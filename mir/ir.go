package mir

import (
	"fmt"
	"sort"
	"strconv"
)

// ValueID identifies an SSA virtual register within one function activation.
// IDs are dense: the VM uses them directly as indexes into its value table.
type ValueID uint32

// BlockID identifies a basic block within a function.
type BlockID uint32

func (v ValueID) String() string {
	return "v" + strconv.FormatUint(uint64(v), 10)
}

func (b BlockID) String() string {
	return "b" + strconv.FormatUint(uint64(b), 10)
}

// MainFunction is the entry point required for module-level execution.
const MainFunction = "main"

// ---------------------------------------------------------------------------
// Constants
// ---------------------------------------------------------------------------

// ConstKind identifies the kind of a constant operand.
type ConstKind uint8

const (
	ConstVoid ConstKind = iota
	ConstNull
	ConstInteger
	ConstFloat
	ConstBool
	ConstString
)

var constKindNames = [...]string{
	ConstVoid:    "void",
	ConstNull:    "null",
	ConstInteger: "integer",
	ConstFloat:   "float",
	ConstBool:    "bool",
	ConstString:  "string",
}

func (k ConstKind) String() string {
	if int(k) < len(constKindNames) {
		return constKindNames[k]
	}
	return fmt.Sprintf("ConstKind(%d)", k)
}

// ConstValue is a literal carried by a Const instruction.
type ConstValue struct {
	Kind  ConstKind `cbor:"1,keyasint"`
	Int   int64     `cbor:"2,keyasint,omitempty"`
	Float float64   `cbor:"3,keyasint,omitempty"`
	Bool  bool      `cbor:"4,keyasint,omitempty"`
	Str   string    `cbor:"5,keyasint,omitempty"`
}

// IntConst returns an integer constant.
func IntConst(n int64) ConstValue { return ConstValue{Kind: ConstInteger, Int: n} }

// FloatConst returns a float constant.
func FloatConst(f float64) ConstValue { return ConstValue{Kind: ConstFloat, Float: f} }

// BoolConst returns a boolean constant.
func BoolConst(b bool) ConstValue { return ConstValue{Kind: ConstBool, Bool: b} }

// StringConst returns a string constant.
func StringConst(s string) ConstValue { return ConstValue{Kind: ConstString, Str: s} }

// NullConst returns the null constant. The VM treats it as void.
func NullConst() ConstValue { return ConstValue{Kind: ConstNull} }

// VoidConst returns the void constant.
func VoidConst() ConstValue { return ConstValue{Kind: ConstVoid} }

func (c ConstValue) String() string {
	switch c.Kind {
	case ConstInteger:
		return strconv.FormatInt(c.Int, 10)
	case ConstFloat:
		return strconv.FormatFloat(c.Float, 'g', -1, 64)
	case ConstBool:
		return strconv.FormatBool(c.Bool)
	case ConstString:
		return strconv.Quote(c.Str)
	default:
		return c.Kind.String()
	}
}

// ---------------------------------------------------------------------------
// Blocks, functions, modules
// ---------------------------------------------------------------------------

// BasicBlock is an ordered instruction sequence. The last instruction must be
// a terminator (Jump, Branch, Return or Throw).
type BasicBlock struct {
	ID           BlockID       `cbor:"1,keyasint"`
	Instructions []Instruction `cbor:"2,keyasint"`
}

// Terminator returns the block's final instruction when it is a terminator.
func (b *BasicBlock) Terminator() (Instruction, bool) {
	if len(b.Instructions) == 0 {
		return Instruction{}, false
	}
	last := b.Instructions[len(b.Instructions)-1]
	return last, last.IsTerminator()
}

// Successors returns the blocks control may transfer to from this block,
// in the order the terminator names them.
func (b *BasicBlock) Successors() []BlockID {
	term, ok := b.Terminator()
	if !ok {
		return nil
	}
	switch term.Op {
	case OpJump:
		return []BlockID{term.Then}
	case OpBranch:
		return []BlockID{term.Then, term.Else}
	}
	return nil
}

// Function is a control-flow graph of basic blocks with a single entry.
type Function struct {
	Name   string                  `cbor:"1,keyasint"`
	Params []ValueID               `cbor:"2,keyasint,omitempty"`
	Entry  BlockID                 `cbor:"3,keyasint"`
	Blocks map[BlockID]*BasicBlock `cbor:"4,keyasint"`
}

// Block returns the block with the given id.
func (f *Function) Block(id BlockID) (*BasicBlock, bool) {
	b, ok := f.Blocks[id]
	return b, ok && b != nil
}

// BlockIDs returns the function's block ids in ascending order.
func (f *Function) BlockIDs() []BlockID {
	ids := make([]BlockID, 0, len(f.Blocks))
	for id := range f.Blocks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MaxValueID returns the largest ValueID mentioned by the function, or -1
// for a function that mentions none. The VM sizes its value table from it.
func (f *Function) MaxValueID() int {
	max := -1
	note := func(v ValueID) {
		if int(v) > max {
			max = int(v)
		}
	}
	for _, p := range f.Params {
		note(p)
	}
	for _, b := range f.Blocks {
		if b == nil {
			continue
		}
		for i := range b.Instructions {
			in := &b.Instructions[i]
			if dst, ok := in.Dest(); ok {
				note(dst)
			}
			for _, src := range in.Sources() {
				note(src)
			}
		}
	}
	return max
}

// Module maps function names to functions.
type Module struct {
	Name      string               `cbor:"1,keyasint,omitempty"`
	Functions map[string]*Function `cbor:"2,keyasint"`
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name, Functions: make(map[string]*Function)}
}

// Add registers fn under its name, replacing any previous definition.
func (m *Module) Add(fn *Function) *Module {
	if m.Functions == nil {
		m.Functions = make(map[string]*Function)
	}
	m.Functions[fn.Name] = fn
	return m
}

// Function looks up a function by name.
func (m *Module) Function(name string) (*Function, bool) {
	fn, ok := m.Functions[name]
	return fn, ok && fn != nil
}

// FunctionNames returns the module's function names sorted.
func (m *Module) FunctionNames() []string {
	names := make([]string, 0, len(m.Functions))
	for name := range m.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
