package runtime

import (
	"errors"
	"math"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/eth2030/meteredvm/core/state"
	"github.com/eth2030/meteredvm/core/types"
	"github.com/eth2030/meteredvm/core/vm"
	"github.com/eth2030/meteredvm/crypto"
)

// ErrInsufficientBalance is returned when the origin cannot pay the value of
// a top-level execution.
var ErrInsufficientBalance = errors.New("insufficient balance for transfer")

// Config is the environment a top-level execution runs in.
type Config struct {
	Schedule      *vm.Schedule
	Origin        types.Address
	Coinbase      types.Address
	BlockNumber   uint64
	Time          uint64
	Difficulty    *uint256.Int
	BlockGasLimit uint64
	// LastHashes holds the hashes of the most recent blocks, newest first:
	// LastHashes[0] is the hash of block BlockNumber-1.
	LastHashes []types.Hash

	GasLimit uint64
	GasPrice *uint256.Int
	Value    *uint256.Int

	State     state.StateDB
	VMConfig  vm.Config
	JumpDests *vm.JumpDestCache
}

// sets defaults on the config
func setDefaults(cfg *Config) {
	if cfg.Schedule == nil {
		cfg.Schedule = vm.EIP160Schedule()
	}
	if cfg.Difficulty == nil {
		cfg.Difficulty = new(uint256.Int)
	}
	if cfg.Time == 0 {
		cfg.Time = uint64(time.Now().Unix())
	}
	if cfg.GasLimit == 0 {
		cfg.GasLimit = math.MaxUint64
	}
	if cfg.BlockGasLimit == 0 {
		cfg.BlockGasLimit = cfg.GasLimit
	}
	if cfg.GasPrice == nil {
		cfg.GasPrice = new(uint256.Int)
	}
	if cfg.Value == nil {
		cfg.Value = new(uint256.Int)
	}
	if cfg.State == nil {
		cfg.State = state.NewMemoryStateDB()
	}
}

// Result is the outcome of a top-level execution.
type Result struct {
	ReturnData []byte
	// GasUsed is the gas consumed after the refund.
	GasUsed uint64
	Refund  uint64
	Logs    []types.Log
	// Suicides lists the accounts removed at the end of the execution.
	Suicides []types.Address
	// Created lists every contract deployed, in the order its init code
	// finished.
	Created []types.Address
	// Address is the created contract, for Create.
	Address types.Address
	Err     error
}

// Execute deploys code at a fixed address in a new or the configured state
// and calls it with input. It returns the result and the state the
// execution left behind.
func Execute(code, input []byte, cfg *Config) (*Result, state.StateDB, error) {
	if cfg == nil {
		cfg = new(Config)
	}
	setDefaults(cfg)

	address := types.BytesToAddress([]byte("contract"))
	cfg.State.CreateAccount(address)
	cfg.State.SetCode(address, code)

	res, err := Call(address, input, cfg)
	return res, cfg.State, err
}

// Call executes the code at address with input.
func Call(address types.Address, input []byte, cfg *Config) (*Result, error) {
	setDefaults(cfg)
	if cfg.State.GetBalance(cfg.Origin).Lt(cfg.Value) {
		return nil, ErrInsufficientBalance
	}
	x := newExecutive(cfg)
	params := &vm.Params{
		CodeAddress: address,
		Address:     address,
		Sender:      cfg.Origin,
		Origin:      cfg.Origin,
		Gas:         cfg.GasLimit,
		GasPrice:    *cfg.GasPrice,
		Value:       vm.TransferValue(cfg.Value),
		Code:        cfg.State.GetCode(address),
		CodeHash:    cfg.State.GetCodeHash(address),
		Data:        input,
		CallType:    vm.CallTypeCall,
	}
	sub := NewSubstate()
	ret, gasLeft, err := x.call(params, 0, sub)
	return x.finalise(cfg.GasLimit, ret, gasLeft, sub, err)
}

// Create runs input as init code from the origin and deploys what it
// returns.
func Create(input []byte, cfg *Config) (*Result, error) {
	setDefaults(cfg)
	if cfg.State.GetBalance(cfg.Origin).Lt(cfg.Value) {
		return nil, ErrInsufficientBalance
	}
	x := newExecutive(cfg)
	nonce := cfg.State.GetNonce(cfg.Origin)
	address := crypto.CreateAddress(cfg.Origin, nonce)
	cfg.State.SetNonce(cfg.Origin, nonce+1)

	params := &vm.Params{
		CodeAddress: address,
		Address:     address,
		Sender:      cfg.Origin,
		Origin:      cfg.Origin,
		Gas:         cfg.GasLimit,
		GasPrice:    *cfg.GasPrice,
		Value:       vm.TransferValue(cfg.Value),
		Code:        input,
	}
	sub := NewSubstate()
	gasLeft, err := x.create(params, 0, sub)
	res, err := x.finalise(cfg.GasLimit, nil, gasLeft, sub, err)
	if err == nil {
		res.Address = address
	}
	return res, err
}

// finalise settles refunds and removes suicided accounts. The refund is at
// most half the gas used. A failed execution consumes all its gas.
func (x *executive) finalise(gasLimit uint64, ret []byte, gasLeft uint64, sub *Substate, err error) (*Result, error) {
	defer x.state.Finalise()
	if err != nil {
		log.Debug("Execution failed", "gas", gasLimit, "err", err)
		return &Result{GasUsed: gasLimit, Err: err}, err
	}
	used := gasLimit - gasLeft
	refund := min(sub.Refund(x.schedule), used/2)
	res := &Result{
		ReturnData: ret,
		GasUsed:    used - refund,
		Refund:     refund,
		Logs:       sub.Logs(),
		Suicides:   sub.Suicides(),
		Created:    sub.Created(),
	}
	log.Debug("Execution finished", "gasUsed", res.GasUsed, "refund", refund, "logs", len(res.Logs))
	return res, nil
}
