package vm

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

// GasTier groups opcodes that share a flat step cost.
type GasTier uint8

const (
	ZeroTier GasTier = iota
	BaseTier
	VeryLowTier
	LowTier
	MidTier
	HighTier
	ExtTier
	SpecialTier
	InvalidTier
)

// Schedule is the gas cost table and feature set of one ruleset. A schedule
// is shared read-only by every execution that uses it and must not be
// modified once handed to an environment.
type Schedule struct {
	Name string

	HaveDelegateCall             bool
	ExceptionalFailedCodeDeposit bool

	StackLimit int
	MaxDepth   int

	TierStepGas [8]uint64

	ExpGas                  uint64
	ExpByteGas              uint64
	Sha3Gas                 uint64
	Sha3WordGas             uint64
	SloadGas                uint64
	SstoreSetGas            uint64
	SstoreResetGas          uint64
	SstoreRefundGas         uint64
	JumpdestGas             uint64
	LogGas                  uint64
	LogDataGas              uint64
	LogTopicGas             uint64
	CreateGas               uint64
	CallGas                 uint64
	CallStipend             uint64
	CallValueTransferGas    uint64
	CallNewAccountGas       uint64
	SuicideRefundGas        uint64
	MemoryGas               uint64
	QuadCoeffDiv            uint64
	CreateDataGas           uint64
	CopyGas                 uint64
	ExtcodesizeGas          uint64
	ExtcodecopyBaseGas      uint64
	BalanceGas              uint64
	BlockhashGas            uint64
	SuicideGas              uint64
	SuicideToNewAccountCost uint64

	// SubGasCapDivisor caps the gas forwarded to sub-calls at all but
	// 1/SubGasCapDivisor of what remains. Zero disables the cap.
	SubGasCapDivisor uint64

	// MaxCodeSize limits deployed code length. Zero means unlimited.
	MaxCodeSize int
}

// FrontierSchedule returns the launch ruleset.
func FrontierSchedule() *Schedule {
	return &Schedule{
		Name:                    "frontier",
		StackLimit:              int(params.StackLimit),
		MaxDepth:                int(params.CallCreateDepth),
		TierStepGas:             [8]uint64{0, 2, 3, 5, 8, 10, 20, 0},
		ExpGas:                  params.ExpGas,
		ExpByteGas:              params.ExpByteFrontier,
		Sha3Gas:                 params.Keccak256Gas,
		Sha3WordGas:             params.Keccak256WordGas,
		SloadGas:                params.SloadGasFrontier,
		SstoreSetGas:            params.SstoreSetGas,
		SstoreResetGas:          params.SstoreResetGas,
		SstoreRefundGas:         params.SstoreRefundGas,
		JumpdestGas:             params.JumpdestGas,
		LogGas:                  params.LogGas,
		LogDataGas:              params.LogDataGas,
		LogTopicGas:             params.LogTopicGas,
		CreateGas:               params.CreateGas,
		CallGas:                 params.CallGasFrontier,
		CallStipend:             params.CallStipend,
		CallValueTransferGas:    params.CallValueTransferGas,
		CallNewAccountGas:       params.CallNewAccountGas,
		SuicideRefundGas:        params.SelfdestructRefundGas,
		MemoryGas:               params.MemoryGas,
		QuadCoeffDiv:            params.QuadCoeffDiv,
		CreateDataGas:           params.CreateDataGas,
		CopyGas:                 params.CopyGas,
		ExtcodesizeGas:          params.ExtcodeSizeGasFrontier,
		ExtcodecopyBaseGas:      params.ExtcodeCopyBaseFrontier,
		BalanceGas:              params.BalanceGasFrontier,
		BlockhashGas:            20,
		SuicideGas:              0,
		SuicideToNewAccountCost: 0,
	}
}

// HomesteadSchedule enables DELEGATECALL and fails creations that cannot
// pay for their code deposit.
func HomesteadSchedule() *Schedule {
	s := FrontierSchedule()
	s.Name = "homestead"
	s.HaveDelegateCall = true
	s.ExceptionalFailedCodeDeposit = true
	return s
}

// EIP150Schedule reprices IO-heavy operations and caps forwarded call gas.
func EIP150Schedule() *Schedule {
	s := HomesteadSchedule()
	s.Name = "eip150"
	s.SloadGas = params.SloadGasEIP150
	s.BalanceGas = params.BalanceGasEIP150
	s.ExtcodesizeGas = params.ExtcodeSizeGasEIP150
	s.ExtcodecopyBaseGas = params.ExtcodeCopyBaseEIP150
	s.CallGas = params.CallGasEIP150
	s.SuicideGas = params.SelfdestructGasEIP150
	s.SuicideToNewAccountCost = params.CreateBySelfdestructGas
	s.SubGasCapDivisor = 64
	return s
}

// EIP160Schedule raises the EXP byte cost and limits deployed code size.
func EIP160Schedule() *Schedule {
	s := EIP150Schedule()
	s.Name = "eip160"
	s.ExpByteGas = params.ExpByteEIP158
	s.MaxCodeSize = params.MaxCodeSize
	return s
}

var schedules = map[string]func() *Schedule{
	"frontier":  FrontierSchedule,
	"homestead": HomesteadSchedule,
	"eip150":    EIP150Schedule,
	"eip160":    EIP160Schedule,
}

// ScheduleByName returns a fresh copy of the named schedule.
func ScheduleByName(name string) (*Schedule, error) {
	fn, ok := schedules[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown schedule %q", name)
	}
	return fn(), nil
}

// ScheduleNames lists the names accepted by ScheduleByName.
func ScheduleNames() []string {
	return []string{"frontier", "homestead", "eip150", "eip160"}
}
