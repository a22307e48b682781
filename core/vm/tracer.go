package vm

import "github.com/holiman/uint256"

// MemoryDiff is the memory range an instruction wrote, read back after it
// executed.
type MemoryDiff struct {
	Offset uint64
	Data   []byte
}

// StorageDiff is the storage slot an instruction wrote.
type StorageDiff struct {
	Key   uint256.Int
	Value uint256.Int
}

// Tracer observes execution step by step. A tracer never influences the
// outcome of an execution.
type Tracer interface {
	// PrepareExecute is called once gas requirements are known and before
	// they are verified. Returning false skips Executed for this step.
	PrepareExecute(pc uint64, op OpCode, cost uint64, depth int) bool
	// Executed is called after a prepared instruction ran, with the items
	// it pushed and the memory and storage it wrote, if any.
	Executed(gasLeft uint64, stackPush []uint256.Int, mem *MemoryDiff, store *StorageDiff)
	// Fault is called when the frame at depth fails.
	Fault(pc uint64, op OpCode, depth int, err error)
}

// memoryWritten returns the range op will write or load, from its operands.
func memoryWritten(op OpCode, stack *Stack) (offset, size uint64, ok bool) {
	var o, s *uint256.Int
	switch op {
	case MSTORE, MLOAD:
		o, s = stack.Peek(0), uint256.NewInt(32)
	case MSTORE8:
		o, s = stack.Peek(0), uint256.NewInt(1)
	case CALLDATACOPY, CODECOPY:
		o, s = stack.Peek(0), stack.Peek(2)
	case EXTCODECOPY:
		o, s = stack.Peek(1), stack.Peek(3)
	case CALL, CALLCODE:
		o, s = stack.Peek(5), stack.Peek(6)
	case DELEGATECALL:
		o, s = stack.Peek(4), stack.Peek(5)
	default:
		return 0, 0, false
	}
	if s.IsZero() {
		return 0, 0, false
	}
	return o.Uint64(), s.Uint64(), true
}

// storageWritten returns the slot and value an SSTORE will write.
func storageWritten(op OpCode, stack *Stack) *StorageDiff {
	if op != SSTORE {
		return nil
	}
	return &StorageDiff{Key: *stack.Peek(0), Value: *stack.Peek(1)}
}
