package vm

import "github.com/holiman/uint256"

// CodeReader is a cursor over an immutable code buffer.
type CodeReader struct {
	code     []byte
	position uint64
}

// NewCodeReader returns a reader positioned at the start of code.
func NewCodeReader(code []byte) *CodeReader {
	return &CodeReader{code: code}
}

// Read returns the big-endian word formed by the next n bytes and advances
// the cursor by n. Bytes past the end of the code read as zero.
func (r *CodeReader) Read(n int) uint256.Int {
	var (
		buf   [32]byte
		start = r.position
		end   = start + uint64(n)
		size  = uint64(len(r.code))
	)
	if start < size {
		copy(buf[32-n:], r.code[start:min(end, size)])
	}
	r.position = end
	var word uint256.Int
	word.SetBytes32(buf[:])
	return word
}

// ReadOp returns the opcode under the cursor and moves past it.
func (r *CodeReader) ReadOp() OpCode {
	op := r.Op()
	r.position++
	return op
}

// Op returns the opcode under the cursor, STOP past the end of code.
func (r *CodeReader) Op() OpCode {
	if r.position < uint64(len(r.code)) {
		return OpCode(r.code[r.position])
	}
	return STOP
}

// Position returns the offset of the next byte to be read.
func (r *CodeReader) Position() uint64 { return r.position }

// SetPosition moves the cursor.
func (r *CodeReader) SetPosition(pos uint64) { r.position = pos }

// Len returns the length of the underlying code.
func (r *CodeReader) Len() uint64 { return uint64(len(r.code)) }

// Done reports whether the cursor has run past the end of code.
func (r *CodeReader) Done() bool { return r.position >= uint64(len(r.code)) }
