package vm

import (
	"math/bits"

	"github.com/holiman/uint256"

	"github.com/eth2030/meteredvm/core/types"
)

// InstructionRequirements is what one instruction costs before it runs.
type InstructionRequirements struct {
	// GasCost is the full charge, including memory growth and any gas
	// forwarded to a sub-call or creation.
	GasCost uint64
	// ProvideGas is the gas forwarded to a sub-call or creation. It is only
	// meaningful when HasProvideGas is set.
	ProvideGas    uint64
	HasProvideGas bool
	// MemoryRequiredSize is the word-rounded size memory must grow to.
	MemoryRequiredSize uint64
	// MemoryTotalGas is the cumulative memory cost after the expansion.
	MemoryTotalGas uint64
}

// Gasometer tracks the gas left in one frame and the memory cost paid so far.
type Gasometer struct {
	currentGas    uint64
	currentMemGas uint64
}

// NewGasometer returns a gasometer holding gas.
func NewGasometer(gas uint64) *Gasometer {
	return &Gasometer{currentGas: gas}
}

// Gas returns the gas left.
func (g *Gasometer) Gas() uint64 { return g.currentGas }

// VerifyGas fails with ErrOutOfGas when cost exceeds the gas left.
func (g *Gasometer) VerifyGas(cost uint64) error {
	if cost > g.currentGas {
		return ErrOutOfGas
	}
	return nil
}

// charge applies requirements that have already been verified.
func (g *Gasometer) charge(req *InstructionRequirements) {
	g.currentMemGas = req.MemoryTotalGas
	g.currentGas -= req.GasCost
}

// refund returns unused gas to the frame.
func (g *Gasometer) refund(gas uint64) {
	g.currentGas += gas
}

// Requirements computes what op costs given the operands on the stack and
// the current memory size. Nothing is mutated. Arithmetic overflow anywhere
// in the computation is reported as ErrOutOfGas.
func (g *Gasometer) Requirements(env Environment, op OpCode, tier GasTier, stack *Stack, memSize uint64) (InstructionRequirements, error) {
	var (
		schedule = env.Schedule()
		gas      = schedule.TierStepGas[tier]
		memNeed  uint64
		copyLen  *uint256.Int
		provide  bool
		request  *uint256.Int
		err      error
	)
	switch op {
	case JUMPDEST:
		gas = schedule.JumpdestGas
	case SSTORE:
		key := types.WordToHash(stack.Peek(0))
		current := env.StorageAt(key)
		if current.IsZero() && !stack.Peek(1).IsZero() {
			gas = schedule.SstoreSetGas
		} else {
			gas = schedule.SstoreResetGas
		}
	case SLOAD:
		gas = schedule.SloadGas
	case BALANCE:
		gas = schedule.BalanceGas
	case EXTCODESIZE:
		gas = schedule.ExtcodesizeGas
	case BLOCKHASH:
		gas = schedule.BlockhashGas
	case SUICIDE:
		gas = schedule.SuicideGas
		if !env.Exists(types.WordToAddress(stack.Peek(0))) {
			gas += schedule.SuicideToNewAccountCost
		}
	case MSTORE, MLOAD:
		memNeed, err = memNeeded(stack.Peek(0), uint256.NewInt(32))
	case MSTORE8:
		memNeed, err = memNeeded(stack.Peek(0), uint256.NewInt(1))
	case RETURN:
		memNeed, err = memNeeded(stack.Peek(0), stack.Peek(1))
	case SHA3:
		words, overflow := wordCount(stack.Peek(1))
		if overflow {
			return InstructionRequirements{}, ErrOutOfGas
		}
		if gas, overflow = mulAdd(schedule.Sha3WordGas, words, schedule.Sha3Gas); overflow {
			return InstructionRequirements{}, ErrOutOfGas
		}
		memNeed, err = memNeeded(stack.Peek(0), stack.Peek(1))
	case CALLDATACOPY, CODECOPY:
		memNeed, err = memNeeded(stack.Peek(0), stack.Peek(2))
		copyLen = stack.Peek(2)
	case EXTCODECOPY:
		gas = schedule.ExtcodecopyBaseGas
		memNeed, err = memNeeded(stack.Peek(1), stack.Peek(3))
		copyLen = stack.Peek(3)
	case LOG0, LOG1, LOG2, LOG3, LOG4:
		topics := uint64(op - LOG0)
		size := stack.Peek(1)
		if !size.IsUint64() {
			return InstructionRequirements{}, ErrOutOfGas
		}
		dataGas, overflow := mulAdd(schedule.LogDataGas, size.Uint64(), schedule.LogGas)
		if overflow {
			return InstructionRequirements{}, ErrOutOfGas
		}
		if gas, overflow = mulAdd(schedule.LogTopicGas, topics, dataGas); overflow {
			return InstructionRequirements{}, ErrOutOfGas
		}
		memNeed, err = memNeeded(stack.Peek(0), size)
	case CALL, CALLCODE:
		gas = schedule.CallGas
		memNeed, err = maxMemNeeded(stack.Peek(5), stack.Peek(6), stack.Peek(3), stack.Peek(4))
		if op == CALL && !env.Exists(types.WordToAddress(stack.Peek(1))) {
			gas += schedule.CallNewAccountGas
		}
		if !stack.Peek(2).IsZero() {
			gas += schedule.CallValueTransferGas
		}
		provide, request = true, stack.Peek(0)
	case DELEGATECALL:
		gas = schedule.CallGas
		memNeed, err = maxMemNeeded(stack.Peek(4), stack.Peek(5), stack.Peek(2), stack.Peek(3))
		provide, request = true, stack.Peek(0)
	case CREATE:
		gas = schedule.CreateGas
		memNeed, err = memNeeded(stack.Peek(1), stack.Peek(2))
		provide = true
	case EXP:
		bytes := uint64(stack.Peek(1).ByteLen())
		var overflow bool
		if gas, overflow = mulAdd(schedule.ExpByteGas, bytes, schedule.ExpGas); overflow {
			return InstructionRequirements{}, ErrOutOfGas
		}
	}
	if err != nil {
		return InstructionRequirements{}, err
	}

	req := InstructionRequirements{MemoryTotalGas: g.currentMemGas}
	if memNeed > 0 {
		memGas, totalMemGas, newSize, err := g.memGasCost(schedule, memSize, memNeed)
		if err != nil {
			return InstructionRequirements{}, err
		}
		var overflow bool
		if gas, overflow = addOverflow(gas, memGas); overflow {
			return InstructionRequirements{}, ErrOutOfGas
		}
		req.MemoryRequiredSize = newSize
		req.MemoryTotalGas = totalMemGas
	}
	if copyLen != nil {
		words, overflow := wordCount(copyLen)
		if overflow {
			return InstructionRequirements{}, ErrOutOfGas
		}
		if gas, overflow = mulAdd(schedule.CopyGas, words, gas); overflow {
			return InstructionRequirements{}, ErrOutOfGas
		}
	}
	if provide {
		provided, err := g.gasProvided(schedule, gas, request)
		if err != nil {
			return InstructionRequirements{}, err
		}
		var overflow bool
		if gas, overflow = addOverflow(gas, provided); overflow {
			return InstructionRequirements{}, ErrOutOfGas
		}
		req.ProvideGas = provided
		req.HasProvideGas = true
	}
	req.GasCost = gas
	return req, nil
}

// memGasCost returns the charge for growing memory to hold needed bytes, the
// new cumulative memory cost, and the word-rounded size.
func (g *Gasometer) memGasCost(schedule *Schedule, current, needed uint64) (uint64, uint64, uint64, error) {
	if needed > maxMemorySize {
		return 0, 0, 0, ErrOutOfGas
	}
	rounded := toWordSize(needed) * 32
	if rounded <= current {
		return 0, g.currentMemGas, rounded, nil
	}
	words := rounded / 32
	total := words*schedule.MemoryGas + words*words/schedule.QuadCoeffDiv
	return total - g.currentMemGas, total, rounded, nil
}

// gasProvided decides how much gas a sub-call or creation receives. needed
// is the cost of the instruction excluding the forwarded gas. A nil request
// means CREATE, which asks for everything it may have.
func (g *Gasometer) gasProvided(schedule *Schedule, needed uint64, request *uint256.Int) (uint64, error) {
	if schedule.SubGasCapDivisor != 0 && g.currentGas >= needed {
		remaining := g.currentGas - needed
		capped := remaining - remaining/schedule.SubGasCapDivisor
		if request != nil && request.IsUint64() {
			return min(request.Uint64(), capped), nil
		}
		return capped, nil
	}
	if request != nil {
		if !request.IsUint64() {
			return 0, ErrOutOfGas
		}
		return request.Uint64(), nil
	}
	if g.currentGas >= needed {
		return g.currentGas - needed, nil
	}
	return 0, nil
}

// memNeeded is the byte length memory must have to cover [offset,
// offset+size). A zero size needs nothing whatever the offset.
func memNeeded(offset, size *uint256.Int) (uint64, error) {
	if size.IsZero() {
		return 0, nil
	}
	if !offset.IsUint64() || !size.IsUint64() {
		return 0, ErrOutOfGas
	}
	end, overflow := addOverflow(offset.Uint64(), size.Uint64())
	if overflow {
		return 0, ErrOutOfGas
	}
	return end, nil
}

func maxMemNeeded(offA, sizeA, offB, sizeB *uint256.Int) (uint64, error) {
	a, err := memNeeded(offA, sizeA)
	if err != nil {
		return 0, err
	}
	b, err := memNeeded(offB, sizeB)
	if err != nil {
		return 0, err
	}
	return max(a, b), nil
}

// wordCount returns the number of 32-byte words covering size bytes.
func wordCount(size *uint256.Int) (uint64, bool) {
	if !size.IsUint64() {
		return 0, true
	}
	return toWordSize(size.Uint64()), false
}

func addOverflow(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry != 0
}

// mulAdd returns a*b + c.
func mulAdd(a, b, c uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, true
	}
	return addOverflow(lo, c)
}
