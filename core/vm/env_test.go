package vm

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/eth2030/meteredvm/core/types"
)

var (
	testSelf   = types.HexToAddress("0x00000000000000000000000000000000000000aa")
	testSender = types.HexToAddress("0x00000000000000000000000000000000000000bb")
	testOrigin = types.HexToAddress("0x00000000000000000000000000000000000000cc")
	testTarget = types.HexToAddress("0x00000000000000000000000000000000000000dd")
)

type testCall struct {
	gas         uint64
	sender      types.Address
	receiver    types.Address
	value       *uint256.Int
	input       []byte
	codeAddress types.Address
	callType    CallType
}

type testLog struct {
	topics []types.Hash
	data   []byte
}

// testEnv is an Environment backed by maps that records every side effect.
type testEnv struct {
	schedule *Schedule
	depth    int
	info     EnvInfo

	storage  map[types.Hash]types.Hash
	balances map[types.Address]*uint256.Int
	codes    map[types.Address][]byte
	existing map[types.Address]bool

	logs         []testLog
	suicides     []types.Address
	sstoreClears int

	calls      []testCall
	callResult CallResult
	callOutput []byte

	creates      [][]byte
	createResult CreateResult

	returnedGas  uint64
	returnedData []byte
}

func newTestEnv(schedule *Schedule) *testEnv {
	return &testEnv{
		schedule: schedule,
		storage:  make(map[types.Hash]types.Hash),
		balances: make(map[types.Address]*uint256.Int),
		codes:    make(map[types.Address][]byte),
		existing: make(map[types.Address]bool),
	}
}

func (e *testEnv) Schedule() *Schedule { return e.schedule }
func (e *testEnv) Depth() int          { return e.depth }

func (e *testEnv) Exists(addr types.Address) bool { return e.existing[addr] }

func (e *testEnv) Balance(addr types.Address) *uint256.Int {
	if b, ok := e.balances[addr]; ok {
		return new(uint256.Int).Set(b)
	}
	return new(uint256.Int)
}

func (e *testEnv) StorageAt(key types.Hash) types.Hash { return e.storage[key] }
func (e *testEnv) SetStorage(key, value types.Hash)    { e.storage[key] = value }

func (e *testEnv) BlockHash(number *uint256.Int) types.Hash {
	return types.BytesToHash(number.Bytes())
}

func (e *testEnv) ExtCode(addr types.Address) []byte { return e.codes[addr] }
func (e *testEnv) ExtCodeSize(addr types.Address) int { return len(e.codes[addr]) }

func (e *testEnv) Call(gas uint64, sender, receiver types.Address, value *uint256.Int,
	input []byte, codeAddress types.Address, output []byte, callType CallType) CallResult {
	e.calls = append(e.calls, testCall{
		gas:         gas,
		sender:      sender,
		receiver:    receiver,
		value:       value,
		input:       input,
		codeAddress: codeAddress,
		callType:    callType,
	})
	if e.callResult.Success {
		copy(output, e.callOutput)
	}
	return e.callResult
}

func (e *testEnv) Create(gas uint64, endowment *uint256.Int, initCode []byte) CreateResult {
	e.creates = append(e.creates, initCode)
	return e.createResult
}

func (e *testEnv) Log(topics []types.Hash, data []byte) {
	e.logs = append(e.logs, testLog{topics: topics, data: data})
}

func (e *testEnv) Suicide(refund types.Address) { e.suicides = append(e.suicides, refund) }
func (e *testEnv) IncSstoreClears()             { e.sstoreClears++ }
func (e *testEnv) EnvInfo() *EnvInfo            { return &e.info }

func (e *testEnv) Return(gas uint64, data []byte) (uint64, error) {
	e.returnedGas, e.returnedData = gas, data
	return gas, nil
}

// stackRecorder snapshots the frame stack after every step and on failure.
type stackRecorder struct {
	stack *Stack
	last  []uint256.Int
	steps []OpCode
	fault error
}

func (r *stackRecorder) PrepareExecute(pc uint64, op OpCode, cost uint64, depth int) bool {
	r.steps = append(r.steps, op)
	return true
}

func (r *stackRecorder) Executed(gasLeft uint64, stackPush []uint256.Int, mem *MemoryDiff, store *StorageDiff) {
	r.last = append([]uint256.Int(nil), r.stack.Data()...)
}

func (r *stackRecorder) Fault(pc uint64, op OpCode, depth int, err error) {
	r.last = append([]uint256.Int(nil), r.stack.Data()...)
	r.fault = err
}

type runResult struct {
	ret     []byte
	gasLeft uint64
	err     error
	stack   []uint256.Int
}

func hexCode(t *testing.T, s string) []byte {
	t.Helper()
	code, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	require.NoError(t, err)
	return code
}

func runCode(t *testing.T, env *testEnv, code string, gas uint64) runResult {
	t.Helper()
	return runParams(t, env, &Params{
		Address: testSelf,
		Sender:  testSender,
		Origin:  testOrigin,
		Gas:     gas,
		Code:    hexCode(t, code),
	})
}

func runParams(t *testing.T, env *testEnv, params *Params) runResult {
	t.Helper()
	rec := &stackRecorder{}
	factory := NewFactory(Config{Tracer: rec}, nil)
	rec.stack = factory.stack
	ret, gasLeft, err := factory.NewInterpreter().Run(params, env)
	require.Equal(t, 0, factory.stack.Len(), "frame stack not released")
	return runResult{ret: ret, gasLeft: gasLeft, err: err, stack: rec.last}
}

func word(s string) uint256.Int {
	return *uint256.MustFromHex(s)
}

func u(v uint64) uint256.Int {
	return *uint256.NewInt(v)
}
