package mir

import "fmt"

// Opcode identifies an instruction kind. The set is closed: the VM rejects
// any opcode it does not know with an InvalidInstruction error.
type Opcode uint8

const (
	OpInvalid Opcode = iota

	// Values and arithmetic
	OpConst
	OpBinOp
	OpUnaryOp
	OpCompare

	// Control flow
	OpJump
	OpBranch
	OpReturn
	OpPhi

	// SSA rebinding
	OpLoad
	OpStore
	OpCopy

	// References and fields
	OpRefNew
	OpRefGet
	OpRefSet
	OpWeakNew
	OpWeakLoad

	// Calls and objects
	OpCall
	OpMethodCall
	OpNewBox
	OpTypeCheck
	OpCast
	OpArrayGet
	OpArraySet

	// Diagnostics and hooks
	OpPrint
	OpDebug
	OpNop
	OpSafepoint
	OpBarrierRead
	OpBarrierWrite

	// Exceptions
	OpThrow
	OpCatch

	// Async
	OpFutureNew
	OpFutureSet
	OpAwait

	// Host boundary
	OpExternCall

	opcodeCount
)

var opcodeNames = [...]string{
	OpInvalid:      "invalid",
	OpConst:        "const",
	OpBinOp:        "binop",
	OpUnaryOp:      "unop",
	OpCompare:      "cmp",
	OpJump:         "jump",
	OpBranch:       "br",
	OpReturn:       "ret",
	OpPhi:          "phi",
	OpLoad:         "load",
	OpStore:        "store",
	OpCopy:         "copy",
	OpRefNew:       "ref.new",
	OpRefGet:       "ref.get",
	OpRefSet:       "ref.set",
	OpWeakNew:      "weak.new",
	OpWeakLoad:     "weak.load",
	OpCall:         "call",
	OpMethodCall:   "mcall",
	OpNewBox:       "newbox",
	OpTypeCheck:    "typecheck",
	OpCast:         "cast",
	OpArrayGet:     "array.get",
	OpArraySet:     "array.set",
	OpPrint:        "print",
	OpDebug:        "debug",
	OpNop:          "nop",
	OpSafepoint:    "safepoint",
	OpBarrierRead:  "barrier.read",
	OpBarrierWrite: "barrier.write",
	OpThrow:        "throw",
	OpCatch:        "catch",
	OpFutureNew:    "future.new",
	OpFutureSet:    "future.set",
	OpAwait:        "await",
	OpExternCall:   "extern",
}

func (op Opcode) String() string {
	if op < opcodeCount {
		return opcodeNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", op)
}

// Valid reports whether op belongs to the instruction set.
func (op Opcode) Valid() bool {
	return op > OpInvalid && op < opcodeCount
}

// BinaryOp is the operator of a BinOp instruction.
type BinaryOp uint8

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Mod
	And
	Or
	BitAnd
	BitOr
	BitXor
	Shl
	Shr
)

var binaryOpNames = [...]string{"add", "sub", "mul", "div", "mod", "and", "or", "bitand", "bitor", "bitxor", "shl", "shr"}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return fmt.Sprintf("BinaryOp(%d)", op)
}

// UnaryOp is the operator of a UnaryOp instruction.
type UnaryOp uint8

const (
	Neg UnaryOp = iota
	Not
	BitNot
)

var unaryOpNames = [...]string{"neg", "not", "bitnot"}

func (op UnaryOp) String() string {
	if int(op) < len(unaryOpNames) {
		return unaryOpNames[op]
	}
	return fmt.Sprintf("UnaryOp(%d)", op)
}

// CompareOp is the operator of a Compare instruction.
type CompareOp uint8

const (
	Eq CompareOp = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

var compareOpNames = [...]string{"eq", "ne", "lt", "le", "gt", "ge"}

func (op CompareOp) String() string {
	if int(op) < len(compareOpNames) {
		return compareOpNames[op]
	}
	return fmt.Sprintf("CompareOp(%d)", op)
}

// PhiInput names the value a phi selects when control arrives from Pred.
type PhiInput struct {
	Pred  BlockID `cbor:"1,keyasint"`
	Value ValueID `cbor:"2,keyasint"`
}

// ---------------------------------------------------------------------------
// Instruction
// ---------------------------------------------------------------------------

// Instruction is a single MIR instruction. Operand fields are shared between
// opcodes; the constructor for each opcode documents which ones it uses.
// Args always holds the source operands in positional order.
type Instruction struct {
	Op     Opcode     `cbor:"1,keyasint"`
	Dst    ValueID    `cbor:"2,keyasint,omitempty"`
	HasDst bool       `cbor:"3,keyasint,omitempty"`
	Args   []ValueID  `cbor:"4,keyasint,omitempty"`
	Const  ConstValue `cbor:"5,keyasint"`
	Binary BinaryOp   `cbor:"6,keyasint,omitempty"`
	Unary  UnaryOp    `cbor:"7,keyasint,omitempty"`
	Cmp    CompareOp  `cbor:"8,keyasint,omitempty"`
	Then   BlockID    `cbor:"9,keyasint,omitempty"`
	Else   BlockID    `cbor:"10,keyasint,omitempty"`
	Inputs []PhiInput `cbor:"11,keyasint,omitempty"`
	Name   string     `cbor:"12,keyasint,omitempty"`
	Iface  string     `cbor:"13,keyasint,omitempty"`
}

// Dest returns the destination register, if the instruction writes one.
func (in *Instruction) Dest() (ValueID, bool) {
	return in.Dst, in.HasDst
}

// Sources returns every register the instruction reads.
func (in *Instruction) Sources() []ValueID {
	if in.Op != OpPhi {
		return in.Args
	}
	srcs := make([]ValueID, len(in.Inputs))
	for i, input := range in.Inputs {
		srcs[i] = input.Value
	}
	return srcs
}

// Arg returns the i'th source operand.
func (in *Instruction) Arg(i int) (ValueID, bool) {
	if i < 0 || i >= len(in.Args) {
		return 0, false
	}
	return in.Args[i], true
}

// IsTerminator reports whether the instruction ends a basic block.
func (in *Instruction) IsTerminator() bool {
	switch in.Op {
	case OpJump, OpBranch, OpReturn, OpThrow:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

func withDst(dst ValueID, in Instruction) Instruction {
	in.Dst = dst
	in.HasDst = true
	return in
}

// Const loads c into dst.
func Const(dst ValueID, c ConstValue) Instruction {
	return withDst(dst, Instruction{Op: OpConst, Const: c})
}

// BinOp computes dst = lhs op rhs.
func BinOp(dst ValueID, op BinaryOp, lhs, rhs ValueID) Instruction {
	return withDst(dst, Instruction{Op: OpBinOp, Binary: op, Args: []ValueID{lhs, rhs}})
}

// Unary computes dst = op x.
func Unary(dst ValueID, op UnaryOp, x ValueID) Instruction {
	return withDst(dst, Instruction{Op: OpUnaryOp, Unary: op, Args: []ValueID{x}})
}

// Compare computes dst = lhs op rhs as a bool.
func Compare(dst ValueID, op CompareOp, lhs, rhs ValueID) Instruction {
	return withDst(dst, Instruction{Op: OpCompare, Cmp: op, Args: []ValueID{lhs, rhs}})
}

// Jump transfers control to target.
func Jump(target BlockID) Instruction {
	return Instruction{Op: OpJump, Then: target}
}

// Branch transfers control to then when cond is truthy, else to els.
func Branch(cond ValueID, then, els BlockID) Instruction {
	return Instruction{Op: OpBranch, Args: []ValueID{cond}, Then: then, Else: els}
}

// Return ends the activation with the value in v.
func Return(v ValueID) Instruction {
	return Instruction{Op: OpReturn, Args: []ValueID{v}}
}

// ReturnVoid ends the activation with void.
func ReturnVoid() Instruction {
	return Instruction{Op: OpReturn}
}

// Phi selects the input whose predecessor control arrived from.
func Phi(dst ValueID, inputs ...PhiInput) Instruction {
	return withDst(dst, Instruction{Op: OpPhi, Inputs: inputs})
}

// Load rebinds the value held by ptr to dst.
func Load(dst, ptr ValueID) Instruction {
	return withDst(dst, Instruction{Op: OpLoad, Args: []ValueID{ptr}})
}

// Store rebinds value into ptr. ptr is the destination register.
func Store(value, ptr ValueID) Instruction {
	return withDst(ptr, Instruction{Op: OpStore, Args: []ValueID{value}})
}

// Copy duplicates src into dst.
func Copy(dst, src ValueID) Instruction {
	return withDst(dst, Instruction{Op: OpCopy, Args: []ValueID{src}})
}

// RefNew creates a new reference to box in dst.
func RefNew(dst, box ValueID) Instruction {
	return withDst(dst, Instruction{Op: OpRefNew, Args: []ValueID{box}})
}

// RefGet reads field of ref into dst.
func RefGet(dst, ref ValueID, field string) Instruction {
	return withDst(dst, Instruction{Op: OpRefGet, Args: []ValueID{ref}, Name: field})
}

// RefSet writes value into field of ref.
func RefSet(ref ValueID, field string, value ValueID) Instruction {
	return Instruction{Op: OpRefSet, Args: []ValueID{ref, value}, Name: field}
}

// WeakNew creates a weak reference to box in dst.
func WeakNew(dst, box ValueID) Instruction {
	return withDst(dst, Instruction{Op: OpWeakNew, Args: []ValueID{box}})
}

// WeakLoad dereferences weak into dst.
func WeakLoad(dst, weak ValueID) Instruction {
	return withDst(dst, Instruction{Op: OpWeakLoad, Args: []ValueID{weak}})
}

// Call invokes the function named by the string in callee.
func Call(dst ValueID, callee ValueID, args ...ValueID) Instruction {
	return withDst(dst, CallVoid(callee, args...))
}

// CallVoid is Call without a result register.
func CallVoid(callee ValueID, args ...ValueID) Instruction {
	return Instruction{Op: OpCall, Args: append([]ValueID{callee}, args...)}
}

// MethodCall invokes method on recv through the unified dispatcher.
func MethodCall(dst, recv ValueID, method string, args ...ValueID) Instruction {
	return withDst(dst, MethodCallVoid(recv, method, args...))
}

// MethodCallVoid is MethodCall without a result register.
func MethodCallVoid(recv ValueID, method string, args ...ValueID) Instruction {
	return Instruction{Op: OpMethodCall, Args: append([]ValueID{recv}, args...), Name: method}
}

// NewBox constructs a value of the named kind from args.
func NewBox(dst ValueID, kind string, args ...ValueID) Instruction {
	return withDst(dst, Instruction{Op: OpNewBox, Args: args, Name: kind})
}

// TypeCheck sets dst to whether x has the named type.
func TypeCheck(dst, x ValueID, typ string) Instruction {
	return withDst(dst, Instruction{Op: OpTypeCheck, Args: []ValueID{x}, Name: typ})
}

// Cast converts x to the named type.
func Cast(dst, x ValueID, typ string) Instruction {
	return withDst(dst, Instruction{Op: OpCast, Args: []ValueID{x}, Name: typ})
}

// ArrayGet reads array[index] into dst.
func ArrayGet(dst, array, index ValueID) Instruction {
	return withDst(dst, Instruction{Op: OpArrayGet, Args: []ValueID{array, index}})
}

// ArraySet writes value into array[index].
func ArraySet(array, index, value ValueID) Instruction {
	return Instruction{Op: OpArraySet, Args: []ValueID{array, index, value}}
}

// Print writes the display form of v to the VM's output.
func Print(v ValueID) Instruction {
	return Instruction{Op: OpPrint, Args: []ValueID{v}}
}

// Debug logs message together with the display form of v.
func Debug(v ValueID, message string) Instruction {
	return Instruction{Op: OpDebug, Args: []ValueID{v}, Name: message}
}

// Nop does nothing.
func Nop() Instruction { return Instruction{Op: OpNop} }

// Safepoint marks a point where a collector could run.
func Safepoint() Instruction { return Instruction{Op: OpSafepoint} }

// BarrierRead marks a read of ptr for a collector.
func BarrierRead(ptr ValueID) Instruction {
	return Instruction{Op: OpBarrierRead, Args: []ValueID{ptr}}
}

// BarrierWrite marks a write of ptr for a collector.
func BarrierWrite(ptr ValueID) Instruction {
	return Instruction{Op: OpBarrierWrite, Args: []ValueID{ptr}}
}

// Throw raises v.
func Throw(v ValueID) Instruction {
	return Instruction{Op: OpThrow, Args: []ValueID{v}}
}

// Catch installs handler for thrown values of typ ("" catches everything).
// The thrown value is bound to dst before handler runs.
func Catch(dst ValueID, typ string, handler BlockID) Instruction {
	return withDst(dst, Instruction{Op: OpCatch, Name: typ, Then: handler})
}

// FutureNew creates an unresolved future in dst.
func FutureNew(dst ValueID) Instruction {
	return withDst(dst, Instruction{Op: OpFutureNew})
}

// FutureResolved creates a future in dst already resolved with value.
func FutureResolved(dst, value ValueID) Instruction {
	return withDst(dst, Instruction{Op: OpFutureNew, Args: []ValueID{value}})
}

// FutureSet resolves future with value.
func FutureSet(future, value ValueID) Instruction {
	return Instruction{Op: OpFutureSet, Args: []ValueID{future, value}}
}

// Await blocks until future resolves and stores its value in dst.
func Await(dst, future ValueID) Instruction {
	return withDst(dst, Instruction{Op: OpAwait, Args: []ValueID{future}})
}

// ExternCall calls iface.method on the host with args.
func ExternCall(dst ValueID, iface, method string, args ...ValueID) Instruction {
	return withDst(dst, ExternCallVoid(iface, method, args...))
}

// ExternCallVoid is ExternCall without a result register.
func ExternCallVoid(iface, method string, args ...ValueID) Instruction {
	return Instruction{Op: OpExternCall, Iface: iface, Name: method, Args: args}
}
