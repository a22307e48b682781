package vm

import "github.com/ethereum/go-ethereum/metrics"

var (
	jumpdestHitMeter  = metrics.NewRegisteredMeter("vm/jumpdest/hit", nil)
	jumpdestMissMeter = metrics.NewRegisteredMeter("vm/jumpdest/miss", nil)

	opcodeCounter = metrics.NewRegisteredCounter("vm/opcode/count", nil)
	execTimer     = metrics.NewRegisteredTimer("vm/exec/time", nil)
	execFailMeter = metrics.NewRegisteredMeter("vm/exec/fail", nil)
)
