package vm

import (
	"errors"
	"fmt"
)

// Execution failure kinds. Every failure aborts the running frame; the
// detailed error types below unwrap to one of these.
var (
	ErrBadInstruction     = errors.New("bad instruction")
	ErrStackUnderflow     = errors.New("stack underflow")
	ErrOutOfStack         = errors.New("out of stack")
	ErrOutOfGas           = errors.New("out of gas")
	ErrBadJumpDestination = errors.New("bad jump destination")
)

// BadInstructionError is returned for an opcode that is undefined or
// disabled by the active schedule.
type BadInstructionError struct {
	Op OpCode
}

func (e *BadInstructionError) Error() string {
	return fmt.Sprintf("bad instruction %#02x", byte(e.Op))
}

func (e *BadInstructionError) Unwrap() error { return ErrBadInstruction }

// StackUnderflowError reports an instruction that needs more operands than
// the current frame holds.
type StackUnderflowError struct {
	Op      OpCode
	Wanted  int
	OnStack int
}

func (e *StackUnderflowError) Error() string {
	return fmt.Sprintf("stack underflow in %v: wanted %d, have %d", e.Op, e.Wanted, e.OnStack)
}

func (e *StackUnderflowError) Unwrap() error { return ErrStackUnderflow }

// OutOfStackError reports an instruction whose result would push the frame
// past the stack limit.
type OutOfStackError struct {
	Op     OpCode
	Wanted int
	Limit  int
}

func (e *OutOfStackError) Error() string {
	return fmt.Sprintf("out of stack in %v: wanted %d more, limit %d", e.Op, e.Wanted, e.Limit)
}

func (e *OutOfStackError) Unwrap() error { return ErrOutOfStack }

// BadJumpDestinationError carries the low 64 bits of the rejected target.
type BadJumpDestinationError struct {
	Destination uint64
}

func (e *BadJumpDestinationError) Error() string {
	return fmt.Sprintf("bad jump destination %#x", e.Destination)
}

func (e *BadJumpDestinationError) Unwrap() error { return ErrBadJumpDestination }
