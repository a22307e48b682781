package vm

import (
	"github.com/holiman/uint256"

	"github.com/eth2030/meteredvm/core/types"
)

// CallType identifies how a frame was entered.
type CallType uint8

const (
	CallTypeNone CallType = iota
	CallTypeCall
	CallTypeCallCode
	CallTypeDelegateCall
)

func (t CallType) String() string {
	switch t {
	case CallTypeCall:
		return "call"
	case CallTypeCallCode:
		return "callcode"
	case CallTypeDelegateCall:
		return "delegatecall"
	default:
		return "none"
	}
}

// CallResult is the outcome of Environment.Call.
type CallResult struct {
	Success bool
	GasLeft uint64
}

// CreateResult is the outcome of Environment.Create.
type CreateResult struct {
	Success bool
	Address types.Address
	GasLeft uint64
}

// EnvInfo is the block context visible to executing code.
type EnvInfo struct {
	Number     uint64
	Author     types.Address
	Timestamp  uint64
	Difficulty uint256.Int
	GasLimit   uint64
	LastHashes []types.Hash
}

// Environment is everything an executing frame can observe or affect beyond
// its own stack and memory. The interpreter never retains an Environment
// past the Run call it was passed to.
type Environment interface {
	// Schedule returns the gas table and feature set of the execution.
	Schedule() *Schedule
	// Depth is the call depth of the current frame, zero for the outermost.
	Depth() int

	Exists(addr types.Address) bool
	// Balance returns a copy of the balance of addr.
	Balance(addr types.Address) *uint256.Int
	StorageAt(key types.Hash) types.Hash
	SetStorage(key, value types.Hash)
	BlockHash(number *uint256.Int) types.Hash
	ExtCode(addr types.Address) []byte
	ExtCodeSize(addr types.Address) int

	// Call runs a message call. value is nil when nothing is transferred.
	// On success the callee's output is copied into output, truncated to
	// its length.
	Call(gas uint64, sender, receiver types.Address, value *uint256.Int,
		input []byte, codeAddress types.Address, output []byte, callType CallType) CallResult
	Create(gas uint64, endowment *uint256.Int, initCode []byte) CreateResult

	Log(topics []types.Hash, data []byte)
	Suicide(refundAddress types.Address)
	// IncSstoreClears records a storage slot cleared to zero, which the
	// environment turns into a refund.
	IncSstoreClears()

	EnvInfo() *EnvInfo

	// Return receives the output of a RETURN together with the gas left
	// after it was charged and returns the gas left after the environment
	// has handled the data.
	Return(gas uint64, data []byte) (uint64, error)
}

// ActionValue is the value seen by CALLVALUE. An apparent value is visible
// to the code but was never transferred.
type ActionValue struct {
	Amount   uint256.Int
	Apparent bool
}

// TransferValue returns a transferred value of v.
func TransferValue(v *uint256.Int) ActionValue {
	return ActionValue{Amount: *v}
}

// ApparentValue returns a value that was not transferred.
func ApparentValue(v *uint256.Int) ActionValue {
	return ActionValue{Amount: *v, Apparent: true}
}

// Params are the inputs of one frame, immutable for its lifetime.
type Params struct {
	CodeAddress types.Address
	Address     types.Address
	Sender      types.Address
	Origin      types.Address
	Gas         uint64
	GasPrice    uint256.Int
	Value       ActionValue
	Code        []byte
	// CodeHash identifies Code in the jump destination cache. A zero hash
	// is computed on demand.
	CodeHash types.Hash
	Data     []byte
	CallType CallType
}
