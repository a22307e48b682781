package vm

import (
	"github.com/holiman/uint256"

	"github.com/eth2030/meteredvm/core/types"
	"github.com/eth2030/meteredvm/crypto"
)

// frame is the state an instruction executes against.
type frame struct {
	params *Params
	env    Environment
	reader *CodeReader
	stack  *Stack
	mem    *Memory
	// gas is what is left after the current instruction was charged.
	gas uint64
	// provided is the gas set aside for a sub-call or creation.
	provided uint64
}

// executionFunc runs one instruction whose operands and gas have already
// been validated.
type executionFunc func(f *frame) instructionResult

type resultKind uint8

const (
	resultContinue resultKind = iota
	resultUnusedGas
	resultJump
	resultReturn
	resultStop
)

// instructionResult tells the loop what to do after an instruction.
type instructionResult struct {
	kind resultKind
	// gas is the unused gas to give back for resultUnusedGas and the gas
	// left for resultReturn.
	gas    uint64
	target uint256.Int
	offset uint64
	size   uint64
}

var (
	continueResult = instructionResult{kind: resultContinue}
	stopResult     = instructionResult{kind: resultStop}
)

func unusedGas(gas uint64) instructionResult {
	return instructionResult{kind: resultUnusedGas, gas: gas}
}

func opStop(f *frame) instructionResult {
	return stopResult
}

func opAdd(f *frame) instructionResult {
	x, y := f.stack.Pop(), f.stack.Peek(0)
	y.Add(&x, y)
	return continueResult
}

func opSub(f *frame) instructionResult {
	x, y := f.stack.Pop(), f.stack.Peek(0)
	y.Sub(&x, y)
	return continueResult
}

func opMul(f *frame) instructionResult {
	x, y := f.stack.Pop(), f.stack.Peek(0)
	y.Mul(&x, y)
	return continueResult
}

func opDiv(f *frame) instructionResult {
	x, y := f.stack.Pop(), f.stack.Peek(0)
	y.Div(&x, y)
	return continueResult
}

func opSdiv(f *frame) instructionResult {
	x, y := f.stack.Pop(), f.stack.Peek(0)
	y.SDiv(&x, y)
	return continueResult
}

func opMod(f *frame) instructionResult {
	x, y := f.stack.Pop(), f.stack.Peek(0)
	y.Mod(&x, y)
	return continueResult
}

func opSmod(f *frame) instructionResult {
	x, y := f.stack.Pop(), f.stack.Peek(0)
	y.SMod(&x, y)
	return continueResult
}

func opExp(f *frame) instructionResult {
	base, exponent := f.stack.Pop(), f.stack.Peek(0)
	exponent.Exp(&base, exponent)
	return continueResult
}

// opSignExtend leaves the value untouched when the byte index is past the
// top byte.
func opSignExtend(f *frame) instructionResult {
	back, num := f.stack.Pop(), f.stack.Peek(0)
	num.ExtendSign(num, &back)
	return continueResult
}

func opAddmod(f *frame) instructionResult {
	x, y, z := f.stack.Pop(), f.stack.Pop(), f.stack.Peek(0)
	z.AddMod(&x, &y, z)
	return continueResult
}

func opMulmod(f *frame) instructionResult {
	x, y, z := f.stack.Pop(), f.stack.Pop(), f.stack.Peek(0)
	z.MulMod(&x, &y, z)
	return continueResult
}

func setBool(z *uint256.Int, b bool) {
	if b {
		z.SetOne()
	} else {
		z.Clear()
	}
}

func opLt(f *frame) instructionResult {
	x, y := f.stack.Pop(), f.stack.Peek(0)
	setBool(y, x.Lt(y))
	return continueResult
}

func opGt(f *frame) instructionResult {
	x, y := f.stack.Pop(), f.stack.Peek(0)
	setBool(y, x.Gt(y))
	return continueResult
}

func opSlt(f *frame) instructionResult {
	x, y := f.stack.Pop(), f.stack.Peek(0)
	setBool(y, x.Slt(y))
	return continueResult
}

func opSgt(f *frame) instructionResult {
	x, y := f.stack.Pop(), f.stack.Peek(0)
	setBool(y, x.Sgt(y))
	return continueResult
}

func opEq(f *frame) instructionResult {
	x, y := f.stack.Pop(), f.stack.Peek(0)
	setBool(y, x.Eq(y))
	return continueResult
}

func opIszero(f *frame) instructionResult {
	x := f.stack.Peek(0)
	setBool(x, x.IsZero())
	return continueResult
}

func opAnd(f *frame) instructionResult {
	x, y := f.stack.Pop(), f.stack.Peek(0)
	y.And(&x, y)
	return continueResult
}

func opOr(f *frame) instructionResult {
	x, y := f.stack.Pop(), f.stack.Peek(0)
	y.Or(&x, y)
	return continueResult
}

func opXor(f *frame) instructionResult {
	x, y := f.stack.Pop(), f.stack.Peek(0)
	y.Xor(&x, y)
	return continueResult
}

func opNot(f *frame) instructionResult {
	x := f.stack.Peek(0)
	x.Not(x)
	return continueResult
}

// opByte yields zero for an index of 32 or more.
func opByte(f *frame) instructionResult {
	th, val := f.stack.Pop(), f.stack.Peek(0)
	val.Byte(&th)
	return continueResult
}

func opSha3(f *frame) instructionResult {
	offset, size := f.stack.Pop(), f.stack.Peek(0)
	data := f.mem.ReadSlice(memRange(&offset, size))
	hash := crypto.Keccak256(data)
	size.SetBytes32(hash)
	return continueResult
}

func opAddress(f *frame) instructionResult {
	f.stack.Push(f.params.Address.Word())
	return continueResult
}

func opBalance(f *frame) instructionResult {
	slot := f.stack.Peek(0)
	slot.Set(f.env.Balance(types.WordToAddress(slot)))
	return continueResult
}

func opOrigin(f *frame) instructionResult {
	f.stack.Push(f.params.Origin.Word())
	return continueResult
}

func opCaller(f *frame) instructionResult {
	f.stack.Push(f.params.Sender.Word())
	return continueResult
}

func opCallValue(f *frame) instructionResult {
	f.stack.Push(&f.params.Value.Amount)
	return continueResult
}

// opCallDataLoad zero-pads reads that run past the input.
func opCallDataLoad(f *frame) instructionResult {
	x := f.stack.Peek(0)
	var buf [32]byte
	if offset, overflow := x.Uint64WithOverflow(); !overflow && offset < uint64(len(f.params.Data)) {
		copy(buf[:], f.params.Data[offset:])
	}
	x.SetBytes32(buf[:])
	return continueResult
}

func opCallDataSize(f *frame) instructionResult {
	f.stack.Push(uint256.NewInt(uint64(len(f.params.Data))))
	return continueResult
}

func opCallDataCopy(f *frame) instructionResult {
	copyToMemory(f, f.params.Data)
	return continueResult
}

func opCodeSize(f *frame) instructionResult {
	f.stack.Push(uint256.NewInt(uint64(len(f.params.Code))))
	return continueResult
}

func opCodeCopy(f *frame) instructionResult {
	copyToMemory(f, f.params.Code)
	return continueResult
}

func opGasPrice(f *frame) instructionResult {
	f.stack.Push(&f.params.GasPrice)
	return continueResult
}

func opExtCodeSize(f *frame) instructionResult {
	slot := f.stack.Peek(0)
	slot.SetUint64(uint64(f.env.ExtCodeSize(types.WordToAddress(slot))))
	return continueResult
}

func opExtCodeCopy(f *frame) instructionResult {
	addr := f.stack.Pop()
	copyToMemory(f, f.env.ExtCode(types.WordToAddress(&addr)))
	return continueResult
}

// copyToMemory pops destination offset, source offset and length and copies
// from source, zero-filling whatever lies past its end.
func copyToMemory(f *frame, source []byte) {
	var (
		memOffset = f.stack.Pop()
		offset    = f.stack.Pop()
		size      = f.stack.Pop()
	)
	if size.IsZero() {
		return
	}
	dst := f.mem.WriteableSlice(memOffset.Uint64(), size.Uint64())
	start, overflow := offset.Uint64WithOverflow()
	if overflow || start > uint64(len(source)) {
		start = uint64(len(source))
	}
	n := copy(dst, source[start:])
	clear(dst[n:])
}

func opBlockhash(f *frame) instructionResult {
	num := f.stack.Peek(0)
	hash := f.env.BlockHash(num)
	num.SetBytes32(hash[:])
	return continueResult
}

func opCoinbase(f *frame) instructionResult {
	f.stack.Push(f.env.EnvInfo().Author.Word())
	return continueResult
}

func opTimestamp(f *frame) instructionResult {
	f.stack.Push(uint256.NewInt(f.env.EnvInfo().Timestamp))
	return continueResult
}

func opNumber(f *frame) instructionResult {
	f.stack.Push(uint256.NewInt(f.env.EnvInfo().Number))
	return continueResult
}

func opDifficulty(f *frame) instructionResult {
	f.stack.Push(&f.env.EnvInfo().Difficulty)
	return continueResult
}

func opGasLimit(f *frame) instructionResult {
	f.stack.Push(uint256.NewInt(f.env.EnvInfo().GasLimit))
	return continueResult
}

func opPop(f *frame) instructionResult {
	f.stack.Pop()
	return continueResult
}

func opMload(f *frame) instructionResult {
	v := f.stack.Peek(0)
	*v = f.mem.Read(v.Uint64())
	return continueResult
}

func opMstore(f *frame) instructionResult {
	offset, val := f.stack.Pop(), f.stack.Pop()
	f.mem.Write(offset.Uint64(), &val)
	return continueResult
}

func opMstore8(f *frame) instructionResult {
	offset, val := f.stack.Pop(), f.stack.Pop()
	f.mem.SetByte(offset.Uint64(), byte(val.Uint64()))
	return continueResult
}

func opSload(f *frame) instructionResult {
	loc := f.stack.Peek(0)
	val := f.env.StorageAt(types.WordToHash(loc))
	loc.SetBytes32(val[:])
	return continueResult
}

// opSstore reports a nonzero to zero transition so the environment can
// accrue the clearing refund.
func opSstore(f *frame) instructionResult {
	loc, val := f.stack.Pop(), f.stack.Pop()
	key := types.WordToHash(&loc)
	if current := f.env.StorageAt(key); !current.IsZero() && val.IsZero() {
		f.env.IncSstoreClears()
	}
	f.env.SetStorage(key, types.WordToHash(&val))
	return continueResult
}

func opJump(f *frame) instructionResult {
	return instructionResult{kind: resultJump, target: f.stack.Pop()}
}

func opJumpi(f *frame) instructionResult {
	pos, cond := f.stack.Pop(), f.stack.Pop()
	if cond.IsZero() {
		return continueResult
	}
	return instructionResult{kind: resultJump, target: pos}
}

func opJumpdest(f *frame) instructionResult {
	return continueResult
}

func opPc(f *frame) instructionResult {
	f.stack.Push(uint256.NewInt(f.reader.Position() - 1))
	return continueResult
}

func opMsize(f *frame) instructionResult {
	f.stack.Push(uint256.NewInt(f.mem.Size()))
	return continueResult
}

func opGas(f *frame) instructionResult {
	f.stack.Push(uint256.NewInt(f.gas))
	return continueResult
}

func makePush(size int) executionFunc {
	return func(f *frame) instructionResult {
		val := f.reader.Read(size)
		f.stack.Push(&val)
		return continueResult
	}
}

func makeDup(n int) executionFunc {
	return func(f *frame) instructionResult {
		val := *f.stack.Peek(n - 1)
		f.stack.Push(&val)
		return continueResult
	}
}

func makeSwap(n int) executionFunc {
	return func(f *frame) instructionResult {
		f.stack.SwapWithTop(n)
		return continueResult
	}
}

// makeLog pops offset and size, then exactly n topics.
func makeLog(n int) executionFunc {
	return func(f *frame) instructionResult {
		offset, size := f.stack.Pop(), f.stack.Pop()
		topics := make([]types.Hash, n)
		for i := 0; i < n; i++ {
			topic := f.stack.Pop()
			topics[i] = types.WordToHash(&topic)
		}
		f.env.Log(topics, f.mem.ReadSlice(memRange(&offset, &size)))
		return continueResult
	}
}

func opCreate(f *frame) instructionResult {
	var (
		endowment = f.stack.Pop()
		offset    = f.stack.Pop()
		size      = f.stack.Pop()
		initCode  = f.mem.ReadSlice(memRange(&offset, &size))
	)
	if f.env.Balance(f.params.Address).Lt(&endowment) || f.env.Depth() >= f.env.Schedule().MaxDepth {
		f.stack.Push(new(uint256.Int))
		return unusedGas(f.provided)
	}
	res := f.env.Create(f.provided, &endowment, initCode)
	if !res.Success {
		f.stack.Push(new(uint256.Int))
		return continueResult
	}
	f.stack.Push(res.Address.Word())
	return unusedGas(res.GasLeft)
}

func opCall(f *frame) instructionResult {
	return call(f, CALL)
}

func opCallCode(f *frame) instructionResult {
	return call(f, CALLCODE)
}

func opDelegateCall(f *frame) instructionResult {
	return call(f, DELEGATECALL)
}

// call runs the CALL family. Operands are popped before the environment is
// entered since nested frames share the physical stack.
func call(f *frame, op OpCode) instructionResult {
	// The requested gas was already resolved by the gasometer.
	f.stack.Pop()
	var (
		gas         = f.provided
		target      = f.stack.Pop()
		codeAddress = types.WordToAddress(&target)
		value       *uint256.Int
	)
	if op != DELEGATECALL {
		v := f.stack.Pop()
		value = &v
	}
	var (
		inOffset  = f.stack.Pop()
		inSize    = f.stack.Pop()
		outOffset = f.stack.Pop()
		outSize   = f.stack.Pop()
	)
	if value != nil && !value.IsZero() {
		gas += f.env.Schedule().CallStipend
	}

	var (
		sender, receiver types.Address
		callType         CallType
		hasBalance       = true
	)
	switch op {
	case CALL:
		sender, receiver, callType = f.params.Address, codeAddress, CallTypeCall
	case CALLCODE:
		sender, receiver, callType = f.params.Address, f.params.Address, CallTypeCallCode
	case DELEGATECALL:
		sender, receiver, callType = f.params.Sender, f.params.Address, CallTypeDelegateCall
	}
	if value != nil {
		hasBalance = !f.env.Balance(f.params.Address).Lt(value)
	}
	if !hasBalance || f.env.Depth() >= f.env.Schedule().MaxDepth {
		f.stack.Push(new(uint256.Int))
		return unusedGas(gas)
	}

	// The input is copied out of memory while the output aliases it, so
	// overlapping ranges are safe.
	input := f.mem.ReadSlice(memRange(&inOffset, &inSize))
	output := f.mem.WriteableSlice(memRange(&outOffset, &outSize))
	res := f.env.Call(gas, sender, receiver, value, input, codeAddress, output, callType)
	if !res.Success {
		f.stack.Push(new(uint256.Int))
		return continueResult
	}
	f.stack.Push(uint256.NewInt(1))
	return unusedGas(res.GasLeft)
}

func opReturn(f *frame) instructionResult {
	offset, size := f.stack.Pop(), f.stack.Pop()
	off, sz := memRange(&offset, &size)
	return instructionResult{kind: resultReturn, gas: f.gas, offset: off, size: sz}
}

func opSuicide(f *frame) instructionResult {
	beneficiary := f.stack.Pop()
	f.env.Suicide(types.WordToAddress(&beneficiary))
	return stopResult
}

// memRange converts an offset and size that the gasometer has already
// bounded. A zero size maps to an empty range at offset zero, whatever the
// offset operand held.
func memRange(offset, size *uint256.Int) (uint64, uint64) {
	if size.IsZero() {
		return 0, 0
	}
	return offset.Uint64(), size.Uint64()
}
