// Package mir defines the mid-level intermediate representation executed by
// the mirvm virtual machine.
//
// This package contains:
//   - SSA-style value and block identifiers
//   - The closed instruction set and its operand conventions
//   - Functions, basic blocks and modules
//   - A FunctionBuilder used by front ends and tests
//   - Well-formedness validation, disassembly and the CBOR module codec
package mir
