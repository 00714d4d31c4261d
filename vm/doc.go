// Package vm implements the MIR virtual machine.
//
// This package contains:
//   - Tagged-variant value representation and host conversions
//   - Handle-indexed object arena with weak references
//   - Object field store
//   - Phi resolution across block transitions
//   - Unified method dispatch over built-in kinds
//   - Futures shared between goroutines
//   - The basic-block interpreter
package vm
