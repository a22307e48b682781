package vm

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Stack is the operand stack. One physical Stack can back a whole tree of
// nested frames: Checkpoint records a new logical bottom and every other
// method works relative to it until PopCheckpoint restores the previous view.
type Stack struct {
	data    []uint256.Int
	bottoms []int
}

// NewStack returns an empty stack with the given initial capacity.
func NewStack(capacity int) *Stack {
	return &Stack{
		data:    make([]uint256.Int, 0, capacity),
		bottoms: []int{0},
	}
}

func (st *Stack) bottom() int {
	return st.bottoms[len(st.bottoms)-1]
}

// Len returns the number of entries above the current checkpoint.
func (st *Stack) Len() int {
	return len(st.data) - st.bottom()
}

// Has reports whether at least n entries are above the current checkpoint.
func (st *Stack) Has(n int) bool {
	return st.Len() >= n
}

// Push copies val onto the stack.
func (st *Stack) Push(val *uint256.Int) {
	st.data = append(st.data, *val)
}

// Pop removes and returns the top entry. Popping an empty frame is an
// interpreter bug and panics.
func (st *Stack) Pop() uint256.Int {
	if st.Len() == 0 {
		panic("stack: pop from empty frame")
	}
	top := len(st.data) - 1
	val := st.data[top]
	st.data = st.data[:top]
	return val
}

// Peek returns the k-th entry from the top (0 = top). The pointer is valid
// until the next Push.
func (st *Stack) Peek(k int) *uint256.Int {
	if k >= st.Len() {
		panic(fmt.Sprintf("stack: peek %d with %d entries", k, st.Len()))
	}
	return &st.data[len(st.data)-1-k]
}

// SwapWithTop exchanges the top entry with the k-th entry from the top.
func (st *Stack) SwapWithTop(k int) {
	if k >= st.Len() {
		panic(fmt.Sprintf("stack: swap %d with %d entries", k, st.Len()))
	}
	top := len(st.data) - 1
	st.data[top], st.data[top-k] = st.data[top-k], st.data[top]
}

// PeekTop returns a copy of the top k entries, bottom-most first.
func (st *Stack) PeekTop(k int) []uint256.Int {
	k = min(k, st.Len())
	out := make([]uint256.Int, k)
	copy(out, st.data[len(st.data)-k:])
	return out
}

// Clear drops every entry of the current frame.
func (st *Stack) Clear() {
	st.data = st.data[:st.bottom()]
}

// Data returns the current frame, bottom first. The slice aliases the stack.
func (st *Stack) Data() []uint256.Int {
	return st.data[st.bottom():]
}

// Checkpoint starts a new empty frame on top of the current entries.
func (st *Stack) Checkpoint() {
	st.bottoms = append(st.bottoms, len(st.data))
}

// PopCheckpoint discards the current frame and restores the one below it.
func (st *Stack) PopCheckpoint() {
	if len(st.bottoms) < 2 {
		panic("stack: pop checkpoint without checkpoint")
	}
	st.data = st.data[:st.bottom()]
	st.bottoms = st.bottoms[:len(st.bottoms)-1]
}
