package runtime

import (
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/eth2030/meteredvm/core/state"
	"github.com/eth2030/meteredvm/core/types"
	"github.com/eth2030/meteredvm/core/vm"
)

// executive runs frames of one execution tree. Every frame shares its
// state, factory and block context.
type executive struct {
	state    state.StateDB
	factory  *vm.Factory
	schedule *vm.Schedule
	info     *vm.EnvInfo
}

func newExecutive(cfg *Config) *executive {
	return &executive{
		state:    cfg.State,
		factory:  vm.NewFactory(cfg.VMConfig, cfg.JumpDests),
		schedule: cfg.Schedule,
		info: &vm.EnvInfo{
			Number:     cfg.BlockNumber,
			Author:     cfg.Coinbase,
			Timestamp:  cfg.Time,
			Difficulty: *cfg.Difficulty,
			GasLimit:   cfg.BlockGasLimit,
			LastHashes: cfg.LastHashes,
		},
	}
}

func (x *executive) transfer(from, to types.Address, amount *uint256.Int) {
	x.state.SubBalance(from, amount)
	x.state.AddBalance(to, amount)
}

// call runs a message call frame at depth. State changes are reverted and
// all gas is consumed when the frame fails.
func (x *executive) call(params *vm.Params, depth int, parent *Substate) ([]byte, uint64, error) {
	snapshot := x.state.Snapshot()
	if !params.Value.Apparent {
		x.transfer(params.Sender, params.Address, &params.Value.Amount)
	}
	if len(params.Code) == 0 {
		return nil, params.Gas, nil
	}
	log.Trace("Entering call frame", "depth", depth, "address", params.Address, "code", params.CodeAddress, "type", params.CallType, "gas", params.Gas)

	sub := NewSubstate()
	env := newEnv(x, params, depth, sub, false)
	ret, gasLeft, err := x.factory.NewInterpreter().Run(params, env)
	if err != nil {
		x.state.RevertToSnapshot(snapshot)
		log.Debug("Call frame failed", "depth", depth, "address", params.Address, "err", err)
		return nil, 0, err
	}
	parent.Accrue(sub)
	return ret, gasLeft, nil
}

// create runs init code for a new account at params.Address. The code it
// returns is deployed by Env.Return.
func (x *executive) create(params *vm.Params, depth int, parent *Substate) (uint64, error) {
	snapshot := x.state.Snapshot()
	x.state.CreateAccount(params.Address)
	x.transfer(params.Sender, params.Address, &params.Value.Amount)
	log.Trace("Entering create frame", "depth", depth, "address", params.Address, "gas", params.Gas)

	sub := NewSubstate()
	env := newEnv(x, params, depth, sub, true)
	_, gasLeft, err := x.factory.NewInterpreter().Run(params, env)
	if err != nil {
		x.state.RevertToSnapshot(snapshot)
		log.Debug("Create frame failed", "depth", depth, "address", params.Address, "err", err)
		return 0, err
	}
	sub.created = append(sub.created, params.Address)
	parent.Accrue(sub)
	return gasLeft, nil
}
