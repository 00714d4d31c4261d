package vm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a VM error. The set is closed.
type ErrorKind uint8

const (
	InvalidValue ErrorKind = iota + 1
	InvalidInstruction
	InvalidBasicBlock
	DivisionByZero
	StackUnderflow // reserved; the register machine has no operand stack
	TypeError
)

var errorKindNames = map[ErrorKind]string{
	InvalidValue:       "invalid value",
	InvalidInstruction: "invalid instruction",
	InvalidBasicBlock:  "invalid basic block",
	DivisionByZero:     "division by zero",
	StackUnderflow:     "stack underflow",
	TypeError:          "type error",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

// Error is the single error type returned by VM execution.
type Error struct {
	Kind ErrorKind
	Msg  string

	// Function and Block locate the fault when known.
	Function string
	Block    string

	// thrown holds the value of an uncaught Throw.
	thrown *Value

	// cause is the host or context error behind this one, if any.
	cause error
}

// Sentinels for errors.Is matching on the kind alone.
var (
	ErrInvalidValue       = &Error{Kind: InvalidValue}
	ErrInvalidInstruction = &Error{Kind: InvalidInstruction}
	ErrInvalidBasicBlock  = &Error{Kind: InvalidBasicBlock}
	ErrDivisionByZero     = &Error{Kind: DivisionByZero}
	ErrStackUnderflow     = &Error{Kind: StackUnderflow}
	ErrTypeError          = &Error{Kind: TypeError}
)

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Function != "" {
		msg = fmt.Sprintf("%s (in %s/%s)", msg, e.Function, e.Block)
	}
	return msg
}

// Is matches any *Error with the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Unwrap returns the underlying host or context error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Thrown returns the value of an uncaught Throw, if this error carries one.
func (e *Error) Thrown() (Value, bool) {
	if e.thrown == nil {
		return Void, false
	}
	return *e.thrown, true
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, cause error, format string, args ...any) *Error {
	e := newError(kind, format, args...)
	e.Msg += ": " + cause.Error()
	e.cause = cause
	return e
}

func typeErrorf(format string, args ...any) *Error {
	return newError(TypeError, format, args...)
}

// locate attaches the position of a fault to err if it is a VM error that
// does not already carry one.
func locate(err error, function, block string) error {
	var vmErr *Error
	if errors.As(err, &vmErr) && vmErr.Function == "" {
		vmErr.Function = function
		vmErr.Block = block
	}
	return err
}
