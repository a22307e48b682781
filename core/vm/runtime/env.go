package runtime

import (
	"github.com/holiman/uint256"

	"github.com/eth2030/meteredvm/core/types"
	"github.com/eth2030/meteredvm/core/vm"
	"github.com/eth2030/meteredvm/crypto"
)

// Env is the vm.Environment of one frame.
type Env struct {
	x        *executive
	params   *vm.Params
	depth    int
	substate *Substate
	// create is set for frames running init code; their RETURN deploys code.
	create bool
}

func newEnv(x *executive, params *vm.Params, depth int, substate *Substate, create bool) *Env {
	return &Env{x: x, params: params, depth: depth, substate: substate, create: create}
}

func (e *Env) Schedule() *vm.Schedule { return e.x.schedule }
func (e *Env) Depth() int             { return e.depth }
func (e *Env) EnvInfo() *vm.EnvInfo   { return e.x.info }

func (e *Env) Exists(addr types.Address) bool { return e.x.state.Exist(addr) }

func (e *Env) Balance(addr types.Address) *uint256.Int { return e.x.state.GetBalance(addr) }

func (e *Env) StorageAt(key types.Hash) types.Hash {
	return e.x.state.GetState(e.params.Address, key)
}

func (e *Env) SetStorage(key, value types.Hash) {
	e.x.state.SetState(e.params.Address, key, value)
}

func (e *Env) ExtCode(addr types.Address) []byte  { return e.x.state.GetCode(addr) }
func (e *Env) ExtCodeSize(addr types.Address) int { return e.x.state.GetCodeSize(addr) }

// BlockHash returns the hash of one of the 256 blocks before the current
// one, or zero for any other number.
func (e *Env) BlockHash(number *uint256.Int) types.Hash {
	info := e.x.info
	if !number.IsUint64() {
		return types.Hash{}
	}
	n := number.Uint64()
	if n >= info.Number || n < max(256, info.Number)-256 {
		return types.Hash{}
	}
	idx := info.Number - n - 1
	if idx >= uint64(len(info.LastHashes)) {
		return types.Hash{}
	}
	return info.LastHashes[idx]
}

// Call runs a nested message call. Balance and depth were checked by the
// caller.
func (e *Env) Call(gas uint64, sender, receiver types.Address, value *uint256.Int,
	input []byte, codeAddress types.Address, output []byte, callType vm.CallType) vm.CallResult {
	params := &vm.Params{
		CodeAddress: codeAddress,
		Address:     receiver,
		Sender:      sender,
		Origin:      e.params.Origin,
		Gas:         gas,
		GasPrice:    e.params.GasPrice,
		Code:        e.x.state.GetCode(codeAddress),
		CodeHash:    e.x.state.GetCodeHash(codeAddress),
		Data:        input,
		CallType:    callType,
	}
	if value != nil {
		params.Value = vm.TransferValue(value)
	} else {
		params.Value = vm.ApparentValue(&e.params.Value.Amount)
	}
	ret, gasLeft, err := e.x.call(params, e.depth+1, e.substate)
	if err != nil {
		return vm.CallResult{}
	}
	copy(output, ret)
	return vm.CallResult{Success: true, GasLeft: gasLeft}
}

// Create runs init code for a contract whose address derives from the
// creator and its nonce. The creator's nonce is bumped even when the
// creation fails.
func (e *Env) Create(gas uint64, endowment *uint256.Int, initCode []byte) vm.CreateResult {
	creator := e.params.Address
	nonce := e.x.state.GetNonce(creator)
	address := crypto.CreateAddress(creator, nonce)
	e.x.state.SetNonce(creator, nonce+1)

	params := &vm.Params{
		CodeAddress: address,
		Address:     address,
		Sender:      creator,
		Origin:      e.params.Origin,
		Gas:         gas,
		GasPrice:    e.params.GasPrice,
		Value:       vm.TransferValue(endowment),
		Code:        initCode,
	}
	gasLeft, err := e.x.create(params, e.depth+1, e.substate)
	if err != nil {
		return vm.CreateResult{}
	}
	return vm.CreateResult{Success: true, Address: address, GasLeft: gasLeft}
}

func (e *Env) Log(topics []types.Hash, data []byte) {
	e.substate.logs = append(e.substate.logs, types.Log{
		Address: e.params.Address,
		Topics:  topics,
		Data:    data,
	})
}

// Suicide moves the whole balance to refundAddress and schedules the
// account for removal. A contract naming itself burns its balance.
func (e *Env) Suicide(refundAddress types.Address) {
	addr := e.params.Address
	e.x.transfer(addr, refundAddress, e.x.state.GetBalance(addr))
	e.x.state.Suicide(addr)
	e.substate.suicides.Add(addr)
}

func (e *Env) IncSstoreClears() { e.substate.sstoreClears++ }

// Return deploys the output of init code, charging CreateDataGas per byte.
// Ordinary frames hand their output back unchanged.
func (e *Env) Return(gas uint64, data []byte) (uint64, error) {
	if !e.create {
		return gas, nil
	}
	schedule := e.x.schedule
	cost := uint64(len(data)) * schedule.CreateDataGas
	if cost > gas || (schedule.MaxCodeSize > 0 && len(data) > schedule.MaxCodeSize) {
		if schedule.ExceptionalFailedCodeDeposit {
			return 0, vm.ErrOutOfGas
		}
		return gas, nil
	}
	e.x.state.SetCode(e.params.Address, data)
	return gas - cost, nil
}

var _ vm.Environment = (*Env)(nil)
