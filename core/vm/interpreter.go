package vm

import (
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
)

// Config holds the interpreter options shared by every frame of a factory.
type Config struct {
	// Debug enables the per-opcode timing summary logged after each frame.
	Debug bool
	// Tracer, when set, observes every step.
	Tracer Tracer
}

// Interpreter executes one frame at a time on a stack it shares with the
// other interpreters of its factory.
type Interpreter struct {
	config Config
	cache  *JumpDestCache
	stack  *Stack
}

// Run executes params.Code to completion against env. It returns the output
// of a RETURN, if any, and the gas left. A failed execution returns one of
// the error kinds of this package and no gas.
func (in *Interpreter) Run(params *Params, env Environment) (ret []byte, gasLeft uint64, err error) {
	in.stack.Checkpoint()
	defer in.stack.PopCheckpoint()

	var (
		schedule  = env.Schedule()
		table     = jumpTableFor(schedule)
		depth     = env.Depth()
		tracer    = in.config.Tracer
		reader    = NewCodeReader(params.Code)
		mem       = NewMemory()
		gasometer = NewGasometer(params.Gas)
		inf       = newInformant(in.config.Debug, depth)
		dests     JumpDests
		pc        uint64
		op        OpCode
		start     = time.Now()
	)
	f := &frame{
		params: params,
		env:    env,
		reader: reader,
		stack:  in.stack,
		mem:    mem,
	}
	defer func() {
		execTimer.UpdateSince(start)
		if err != nil {
			execFailMeter.Mark(1)
			if tracer != nil {
				tracer.Fault(pc, op, depth, err)
			}
			log.Trace("Frame failed", "depth", depth, "pc", pc, "op", op, "err", err)
		}
		if gasometer.Gas() < params.Gas {
			inf.done(params.Gas-gasometer.Gas(), err)
		} else {
			inf.done(0, err)
		}
	}()

	for !reader.Done() {
		pc = reader.Position()
		op = reader.ReadOp()
		operation := table[op]

		if err := verifyInstruction(schedule, op, operation, in.stack); err != nil {
			return nil, 0, err
		}
		req, err := gasometer.Requirements(env, op, operation.tier, in.stack, mem.Size())
		if err != nil {
			return nil, 0, err
		}
		traced := tracer != nil && tracer.PrepareExecute(pc, op, req.GasCost, depth)
		if err := gasometer.VerifyGas(req.GasCost); err != nil {
			return nil, 0, err
		}
		mem.Expand(req.MemoryRequiredSize)
		gasometer.charge(&req)

		var (
			memOffset, memSize uint64
			memWritten         bool
			store              *StorageDiff
		)
		if traced {
			memOffset, memSize, memWritten = memoryWritten(op, in.stack)
			store = storageWritten(op, in.stack)
		}

		f.gas, f.provided = gasometer.Gas(), req.ProvideGas
		inf.before(op)
		res := operation.execute(f)
		inf.after()
		opcodeCounter.Inc(1)

		if res.kind == resultUnusedGas {
			gasometer.refund(res.gas)
		}
		if traced {
			var diff *MemoryDiff
			if memWritten {
				diff = &MemoryDiff{Offset: memOffset, Data: mem.ReadSlice(memOffset, memSize)}
			}
			tracer.Executed(gasometer.Gas(), in.stack.PeekTop(operation.ret), diff, store)
		}

		switch res.kind {
		case resultJump:
			if dests == nil {
				dests = in.cache.JumpDestinations(params.CodeHash, params.Code)
			}
			target, err := verifyJump(&res.target, dests)
			if err != nil {
				return nil, 0, err
			}
			reader.SetPosition(target)
		case resultReturn:
			data := mem.ReadSlice(res.offset, res.size)
			gas, err := env.Return(res.gas, data)
			if err != nil {
				return nil, 0, err
			}
			return data, gas, nil
		case resultStop:
			return nil, gasometer.Gas(), nil
		}
	}
	return nil, gasometer.Gas(), nil
}

// verifyInstruction checks that op is enabled and that the stack can serve
// it, before any gas is computed.
func verifyInstruction(schedule *Schedule, op OpCode, operation *operation, stack *Stack) error {
	if operation == nil {
		return &BadInstructionError{Op: op}
	}
	if !stack.Has(operation.args) {
		return &StackUnderflowError{Op: op, Wanted: operation.args, OnStack: stack.Len()}
	}
	if stack.Len()-operation.args+operation.ret > schedule.StackLimit {
		return &OutOfStackError{Op: op, Wanted: operation.ret - operation.args, Limit: schedule.StackLimit}
	}
	return nil
}

// verifyJump accepts target only when it is exactly representable as a code
// offset and marks a JUMPDEST.
func verifyJump(target *uint256.Int, dests JumpDests) (uint64, error) {
	pos, overflow := target.Uint64WithOverflow()
	if overflow || !dests.Contains(pos) {
		return 0, &BadJumpDestinationError{Destination: target.Uint64()}
	}
	return pos, nil
}
