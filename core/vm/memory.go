package vm

import "github.com/holiman/uint256"

// maxMemorySize bounds the byte length memory may be expanded to. Larger
// requests are rejected by the gasometer as out of gas before any access.
const maxMemorySize = 0x1FFFFFFFE0

// Memory is the byte-addressable linear memory of one frame. It only grows,
// in 32-byte words, and unwritten bytes read as zero.
type Memory struct {
	store []byte
}

// NewMemory returns an empty memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Size returns the current length in bytes, always a multiple of 32.
func (m *Memory) Size() uint64 {
	return uint64(len(m.store))
}

// Expand grows memory to at least size bytes, rounded up to a whole word.
func (m *Memory) Expand(size uint64) {
	if size <= uint64(len(m.store)) {
		return
	}
	size = toWordSize(size) * 32
	if uint64(cap(m.store)) >= size {
		m.store = m.store[:size]
		return
	}
	m.store = append(m.store, make([]byte, size-uint64(len(m.store)))...)
}

// Read returns the 32-byte word at offset, zero-extended past the end.
func (m *Memory) Read(offset uint64) uint256.Int {
	var buf [32]byte
	if offset < uint64(len(m.store)) {
		copy(buf[:], m.store[offset:])
	}
	var word uint256.Int
	word.SetBytes32(buf[:])
	return word
}

// ReadSlice returns a copy of size bytes starting at offset. The range must
// already be inside memory unless size is zero.
func (m *Memory) ReadSlice(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	out := make([]byte, size)
	copy(out, m.store[offset:offset+size])
	return out
}

// WriteableSlice returns a view of size bytes at offset that aliases memory.
func (m *Memory) WriteableSlice(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	return m.store[offset : offset+size : offset+size]
}

// WriteSlice copies data into memory at offset.
func (m *Memory) WriteSlice(offset uint64, data []byte) {
	if len(data) == 0 {
		return
	}
	copy(m.store[offset:offset+uint64(len(data))], data)
}

// Write stores val as a big-endian 32-byte word at offset.
func (m *Memory) Write(offset uint64, val *uint256.Int) {
	val.WriteToSlice(m.store[offset : offset+32])
}

// SetByte stores a single byte at offset.
func (m *Memory) SetByte(offset uint64, b byte) {
	m.store[offset] = b
}

// Data returns the backing slice.
func (m *Memory) Data() []byte {
	return m.store
}

// toWordSize returns the number of 32-byte words needed to hold size bytes.
func toWordSize(size uint64) uint64 {
	if size > ^uint64(0)-31 {
		return ^uint64(0)/32 + 1
	}
	return (size + 31) / 32
}
