package vm

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/eth2030/meteredvm/core/types"
	"github.com/eth2030/meteredvm/crypto"
)

var (
	wordMax       = word("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	wordMinSigned = word("0x8000000000000000000000000000000000000000000000000000000000000000")
	wordMinus2    = word("0xfffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffe")
	wordMinus4    = word("0xfffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffc")
	wordMinus7    = word("0xfffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff9")
)

func push32(v uint256.Int) []byte {
	b := v.Bytes32()
	return append([]byte{byte(PUSH32)}, b[:]...)
}

// opCode builds code that pushes args so that args[0] ends up on top, then
// runs op.
func opCode(op OpCode, args ...uint256.Int) []byte {
	var code []byte
	for i := len(args) - 1; i >= 0; i-- {
		code = append(code, push32(args[i])...)
	}
	return append(code, byte(op))
}

func runOp(t *testing.T, op OpCode, args ...uint256.Int) uint256.Int {
	t.Helper()
	res := runParams(t, newTestEnv(FrontierSchedule()), &Params{Gas: 1_000_000, Code: opCode(op, args...)})
	require.NoError(t, res.err)
	require.Len(t, res.stack, 1)
	return res.stack[0]
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		op   OpCode
		args []uint256.Int
		want uint256.Int
	}{
		{"add wraps", ADD, []uint256.Int{wordMax, u(1)}, u(0)},
		{"sub wraps", SUB, []uint256.Int{u(0), u(1)}, wordMax},
		{"mul wraps", MUL, []uint256.Int{wordMinSigned, u(2)}, u(0)},
		{"div", DIV, []uint256.Int{u(7), u(2)}, u(3)},
		{"div by zero", DIV, []uint256.Int{u(7), u(0)}, u(0)},
		{"mod", MOD, []uint256.Int{u(7), u(3)}, u(1)},
		{"mod by zero", MOD, []uint256.Int{u(7), u(0)}, u(0)},
		{"sdiv", SDIV, []uint256.Int{wordMinus4, u(2)}, wordMinus2},
		{"sdiv min by -1", SDIV, []uint256.Int{wordMinSigned, wordMax}, wordMinSigned},
		{"sdiv by zero", SDIV, []uint256.Int{wordMinus4, u(0)}, u(0)},
		{"smod keeps dividend sign", SMOD, []uint256.Int{wordMinus7, u(3)}, wordMax},
		{"smod by zero", SMOD, []uint256.Int{wordMinus7, u(0)}, u(0)},
		{"exp", EXP, []uint256.Int{u(3), u(3)}, u(27)},
		{"exp wraps", EXP, []uint256.Int{u(2), u(256)}, u(0)},
		{"addmod wide", ADDMOD, []uint256.Int{wordMax, wordMax, u(12)}, u(6)},
		{"addmod zero modulus", ADDMOD, []uint256.Int{u(1), u(2), u(0)}, u(0)},
		{"mulmod wide", MULMOD, []uint256.Int{wordMax, wordMax, u(12)}, u(9)},
		{"mulmod zero modulus", MULMOD, []uint256.Int{u(3), u(4), u(0)}, u(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, runOp(t, tt.op, tt.args...))
		})
	}
}

func TestComparisonAndBitwise(t *testing.T) {
	tests := []struct {
		name string
		op   OpCode
		args []uint256.Int
		want uint256.Int
	}{
		{"lt", LT, []uint256.Int{u(1), u(2)}, u(1)},
		{"gt", GT, []uint256.Int{u(1), u(2)}, u(0)},
		{"slt negative", SLT, []uint256.Int{wordMax, u(1)}, u(1)},
		{"sgt negative", SGT, []uint256.Int{wordMax, u(1)}, u(0)},
		{"eq", EQ, []uint256.Int{u(5), u(5)}, u(1)},
		{"iszero", ISZERO, []uint256.Int{u(0)}, u(1)},
		{"iszero nonzero", ISZERO, []uint256.Int{u(4)}, u(0)},
		{"and", AND, []uint256.Int{u(0b1100), u(0b1010)}, u(0b1000)},
		{"or", OR, []uint256.Int{u(0b1100), u(0b1010)}, u(0b1110)},
		{"xor", XOR, []uint256.Int{u(0b1100), u(0b1010)}, u(0b0110)},
		{"not", NOT, []uint256.Int{u(0)}, wordMax},
		{"byte low", BYTE, []uint256.Int{u(31), u(0xff)}, u(0xff)},
		{"byte high", BYTE, []uint256.Int{u(0), wordMinSigned}, u(0x80)},
		{"byte out of range", BYTE, []uint256.Int{u(32), wordMax}, u(0)},
		{"signextend negative", SIGNEXTEND, []uint256.Int{u(0), u(0xff)}, wordMax},
		{"signextend positive", SIGNEXTEND, []uint256.Int{u(0), u(0x7f)}, u(0x7f)},
		{"signextend two bytes", SIGNEXTEND, []uint256.Int{u(1), u(0x8000)},
			word("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff8000")},
		{"signextend top byte", SIGNEXTEND, []uint256.Int{u(31), u(0xff)}, u(0xff)},
		{"signextend out of range", SIGNEXTEND, []uint256.Int{u(32), u(0x80)}, u(0x80)},
		{"signextend huge index", SIGNEXTEND, []uint256.Int{wordMax, u(0x80)}, u(0x80)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, runOp(t, tt.op, tt.args...))
		})
	}
}

func TestPushAdd(t *testing.T) {
	// PUSH1 1 PUSH1 2 ADD
	res := runCode(t, newTestEnv(FrontierSchedule()), "6001 6002 01", 100)
	require.NoError(t, res.err)
	require.Equal(t, []uint256.Int{u(3)}, res.stack)
	require.Equal(t, uint64(100-9), res.gasLeft)
}

func TestDupSwapPop(t *testing.T) {
	// PUSH1 1 PUSH1 2 DUP2 SWAP2 POP
	res := runCode(t, newTestEnv(FrontierSchedule()), "6001 6002 81 91 50", 100)
	require.NoError(t, res.err)
	require.Equal(t, []uint256.Int{u(1), u(2)}, res.stack)
}

func TestMemoryOpcodes(t *testing.T) {
	env := newTestEnv(FrontierSchedule())
	// PUSH2 0xbeef PUSH1 0 MSTORE PUSH1 0 MLOAD
	res := runCode(t, env, "61beef 6000 52 6000 51", 1000)
	require.NoError(t, res.err)
	require.Equal(t, []uint256.Int{u(0xbeef)}, res.stack)

	// PUSH1 0xff PUSH1 33 MSTORE8 MSIZE
	res = runCode(t, env, "60ff 6021 53 59", 1000)
	require.NoError(t, res.err)
	require.Equal(t, []uint256.Int{u(64)}, res.stack)

	// PUSH1 64 MLOAD: never written memory loads zero.
	res = runCode(t, env, "6040 51 59", 1000)
	require.NoError(t, res.err)
	require.Equal(t, []uint256.Int{u(0), u(96)}, res.stack)
}

func TestSha3(t *testing.T) {
	// PUSH1 0 PUSH1 0 SHA3
	res := runCode(t, newTestEnv(FrontierSchedule()), "6000 6000 20", 1000)
	require.NoError(t, res.err)
	want := new(uint256.Int).SetBytes(crypto.Keccak256(nil))
	require.Equal(t, []uint256.Int{*want}, res.stack)
	require.Equal(t, uint64(1000-3-3-30), res.gasLeft)
}

func TestContextOpcodes(t *testing.T) {
	env := newTestEnv(FrontierSchedule())
	env.info = EnvInfo{Number: 7, Timestamp: 11, GasLimit: 13, Author: testTarget}
	env.info.Difficulty.SetUint64(17)
	env.balances[testSelf] = uint256.NewInt(99)
	env.codes[testTarget] = []byte{1, 2, 3}

	params := &Params{
		Address: testSelf,
		Sender:  testSender,
		Origin:  testOrigin,
		Gas:     10_000,
		Data:    []byte{1, 2},
		Code: hexCode(t, "30 32 33 34 36 38 3a 41 42 43 44 45"+
			"30 31"+
			"73"+testTarget.Hex()[2:]+"3b"),
	}
	params.GasPrice.SetUint64(5)
	params.Value = ApparentValue(uint256.NewInt(42))

	res := runParams(t, env, params)
	require.NoError(t, res.err)
	want := []uint256.Int{
		*testSelf.Word(), *testOrigin.Word(), *testSender.Word(), u(42), u(2),
		u(uint64(len(params.Code))), u(5), *testTarget.Word(), u(11), u(7), u(17), u(13),
		u(99), u(3),
	}
	require.Equal(t, want, res.stack)
}

func TestCallDataLoad(t *testing.T) {
	data := make([]byte, 40)
	for i := range data {
		data[i] = byte(i + 1)
	}
	tests := []struct {
		offset uint256.Int
		want   []byte
	}{
		{u(0), data[:32]},
		{u(20), append(append([]byte{}, data[20:]...), make([]byte, 12)...)},
		{u(40), make([]byte, 32)},
		{wordMax, make([]byte, 32)},
	}
	for _, tt := range tests {
		res := runParams(t, newTestEnv(FrontierSchedule()), &Params{
			Gas:  1000,
			Data: data,
			Code: opCode(CALLDATALOAD, tt.offset),
		})
		require.NoError(t, res.err)
		require.Equal(t, *new(uint256.Int).SetBytes(tt.want), res.stack[0])
	}
}

func TestCopyOpcodesZeroFill(t *testing.T) {
	env := newTestEnv(FrontierSchedule())
	env.codes[testTarget] = []byte{0xaa, 0xbb}
	// Fill memory with ones first so zero filling is observable:
	// PUSH32 max PUSH1 0 MSTORE, then CALLDATACOPY(0, 1, 4) and MLOAD 0.
	code := append(push32(wordMax), hexCode(t, "6000 52 6004 6001 6000 37 6000 51")...)
	res := runParams(t, env, &Params{Gas: 10_000, Data: []byte{1, 2, 3}, Code: code})
	require.NoError(t, res.err)
	want := word("0x2030000ffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	require.Equal(t, []uint256.Int{want}, res.stack)

	// EXTCODECOPY(target, 0, 5, 3) with an offset past the code end
	// copies zeros.
	code = append(push32(wordMax), hexCode(t, "6000 52 6003 6005 6000 73"+testTarget.Hex()[2:]+"3c 6000 51")...)
	res = runParams(t, env, &Params{Gas: 10_000, Code: code})
	require.NoError(t, res.err)
	want = word("0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	require.Equal(t, []uint256.Int{want}, res.stack)
}

func TestCodeCopy(t *testing.T) {
	// PUSH1 4 PUSH1 0 PUSH1 0 CODECOPY PUSH1 0 MLOAD
	code := "6004 6000 6000 39 6000 51"
	res := runCode(t, newTestEnv(FrontierSchedule()), code, 1000)
	require.NoError(t, res.err)
	want := new(uint256.Int).SetBytes(append([]byte{0x60, 0x04, 0x60, 0x00}, make([]byte, 28)...))
	require.Equal(t, []uint256.Int{*want}, res.stack)
}

func TestStorageOpcodes(t *testing.T) {
	env := newTestEnv(FrontierSchedule())
	key := types.WordToHash(uint256.NewInt(1))

	// PUSH1 5 PUSH1 1 SSTORE PUSH1 1 SLOAD
	res := runCode(t, env, "6005 6001 55 6001 54", 100_000)
	require.NoError(t, res.err)
	require.Equal(t, []uint256.Int{u(5)}, res.stack)
	require.Equal(t, types.WordToHash(uint256.NewInt(5)), env.storage[key])
	require.Equal(t, uint64(100_000-3-3-20000-3-50), res.gasLeft)
	require.Zero(t, env.sstoreClears)

	// PUSH1 0 PUSH1 1 SSTORE clears the slot.
	res = runCode(t, env, "6000 6001 55", 100_000)
	require.NoError(t, res.err)
	require.Equal(t, 1, env.sstoreClears)
	require.Equal(t, uint64(100_000-3-3-5000), res.gasLeft)
	require.True(t, env.storage[key].IsZero())

	// Writing zero over zero is not a clear.
	res = runCode(t, env, "6000 6001 55", 100_000)
	require.NoError(t, res.err)
	require.Equal(t, 1, env.sstoreClears)
}

func TestLogTopicsOrder(t *testing.T) {
	env := newTestEnv(FrontierSchedule())
	// MSTORE8(0, 0x42) LOG2(0, 1, 0xaa, 0xbb)
	res := runCode(t, env, "6042 6000 53 60bb 60aa 6001 6000 a2", 10_000)
	require.NoError(t, res.err)
	require.Len(t, env.logs, 1)
	require.Equal(t, []types.Hash{
		types.WordToHash(uint256.NewInt(0xaa)),
		types.WordToHash(uint256.NewInt(0xbb)),
	}, env.logs[0].topics)
	require.Equal(t, []byte{0x42}, env.logs[0].data)
}

func TestPcAndGas(t *testing.T) {
	// PUSH1 0 POP PC GAS
	res := runCode(t, newTestEnv(FrontierSchedule()), "6000 50 58 5a", 100)
	require.NoError(t, res.err)
	require.Equal(t, []uint256.Int{u(3), u(100 - 3 - 2 - 2 - 2)}, res.stack)
}

func TestBlockhash(t *testing.T) {
	res := runCode(t, newTestEnv(FrontierSchedule()), "6007 40", 100)
	require.NoError(t, res.err)
	require.Equal(t, []uint256.Int{u(7)}, res.stack)
	require.Equal(t, uint64(100-3-20), res.gasLeft)
}

func TestReturnUsesGasAfterCharges(t *testing.T) {
	env := newTestEnv(FrontierSchedule())
	// MSTORE8(0, 0x2a) RETURN(0, 1)
	res := runCode(t, env, "602a 6000 53 6001 6000 f3", 1000)
	require.NoError(t, res.err)
	require.Equal(t, []byte{0x2a}, res.ret)
	require.Equal(t, []byte{0x2a}, env.returnedData)
	want := uint64(1000 - 3 - 3 - 6 - 3 - 3)
	require.Equal(t, want, env.returnedGas)
	require.Equal(t, want, res.gasLeft)
}

func TestStopAndEndOfCode(t *testing.T) {
	res := runCode(t, newTestEnv(FrontierSchedule()), "00 6001", 100)
	require.NoError(t, res.err)
	require.Nil(t, res.ret)
	require.Equal(t, uint64(100), res.gasLeft)

	res = runCode(t, newTestEnv(FrontierSchedule()), "6001", 100)
	require.NoError(t, res.err)
	require.Equal(t, uint64(97), res.gasLeft)

	res = runCode(t, newTestEnv(FrontierSchedule()), "", 100)
	require.NoError(t, res.err)
	require.Equal(t, uint64(100), res.gasLeft)
}

func TestSuicide(t *testing.T) {
	env := newTestEnv(FrontierSchedule())
	res := runCode(t, env, "73"+testTarget.Hex()[2:]+"ff 6001", 100)
	require.NoError(t, res.err)
	require.Equal(t, []types.Address{testTarget}, env.suicides)
	require.Equal(t, uint64(100-3), res.gasLeft)
}
