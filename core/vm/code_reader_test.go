package vm

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestCodeReaderInBounds(t *testing.T) {
	r := NewCodeReader([]byte{byte(PUSH2), 0xab, 0xcd, byte(STOP)})
	require.Equal(t, PUSH2, r.ReadOp())
	v := r.Read(2)
	require.Equal(t, uint64(0xabcd), v.Uint64())
	require.Equal(t, uint64(3), r.Position())
	require.False(t, r.Done())
}

func TestCodeReaderPadsPastEnd(t *testing.T) {
	r := NewCodeReader([]byte{byte(PUSH3), 0xab})
	r.ReadOp()
	v := r.Read(3)
	require.Equal(t, uint64(0xab0000), v.Uint64())
	require.Equal(t, uint64(4), r.Position(), "position advances by the full width")
	require.True(t, r.Done())

	v = r.Read(32)
	require.True(t, v.IsZero())
	require.Equal(t, STOP, r.Op())
}

func TestCodeReaderImmediateRoundTrip(t *testing.T) {
	for n := 1; n <= 32; n++ {
		imm := make([]byte, n)
		for i := range imm {
			imm[i] = byte(i + 1)
		}
		code := append([]byte{byte(PUSH1) + byte(n-1)}, imm...)

		r := NewCodeReader(code)
		op := r.ReadOp()
		require.Equal(t, n, op.PushBytes())
		got := r.Read(op.PushBytes())
		require.Equal(t, *new(uint256.Int).SetBytes(imm), got, "PUSH%d", n)

		// Drop the last byte: it must come back as zero.
		r = NewCodeReader(code[:len(code)-1])
		r.ReadOp()
		got = r.Read(n)
		padded := append(append([]byte{}, imm[:n-1]...), 0)
		require.Equal(t, *new(uint256.Int).SetBytes(padded), got, "truncated PUSH%d", n)
	}
}
