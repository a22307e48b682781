package vm

import (
	"encoding/json"
	"io"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// StructLog is one traced step. Gas is what was left after the step and
// Stack holds the items it pushed.
type StructLog struct {
	Pc      uint64
	Op      OpCode
	Gas     uint64
	GasCost uint64
	Depth   int
	Stack   []uint256.Int
	Memory  *MemoryDiff
	Storage *StorageDiff
	Err     error
}

type structLogJSON struct {
	Pc        uint64            `json:"pc"`
	Op        string            `json:"op"`
	Gas       uint64            `json:"gas"`
	GasCost   uint64            `json:"gasCost"`
	Depth     int               `json:"depth"`
	Stack     []string          `json:"stack,omitempty"`
	MemOffset *uint64           `json:"memOffset,omitempty"`
	Memory    hexutil.Bytes     `json:"memory,omitempty"`
	Storage   map[string]string `json:"storage,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// MarshalJSON encodes words and memory as hex.
func (l *StructLog) MarshalJSON() ([]byte, error) {
	enc := structLogJSON{
		Pc:      l.Pc,
		Op:      l.Op.String(),
		Gas:     l.Gas,
		GasCost: l.GasCost,
		Depth:   l.Depth,
	}
	for i := range l.Stack {
		enc.Stack = append(enc.Stack, l.Stack[i].Hex())
	}
	if l.Memory != nil {
		enc.MemOffset = &l.Memory.Offset
		enc.Memory = l.Memory.Data
	}
	if l.Storage != nil {
		enc.Storage = map[string]string{l.Storage.Key.Hex(): l.Storage.Value.Hex()}
	}
	if l.Err != nil {
		enc.Error = l.Err.Error()
	}
	return json.Marshal(&enc)
}

type pendingLog struct {
	index int
	depth int
}

// StructLogger is a Tracer that records every step of an execution tree in
// the order the steps started.
type StructLogger struct {
	logs    []StructLog
	pending []pendingLog
	limit   int
}

// NewStructLogger returns a logger recording at most limit steps, or all
// steps when limit is zero.
func NewStructLogger(limit int) *StructLogger {
	return &StructLogger{limit: limit}
}

func (l *StructLogger) full() bool {
	return l.limit > 0 && len(l.logs) >= l.limit
}

// PrepareExecute opens an entry for the step.
func (l *StructLogger) PrepareExecute(pc uint64, op OpCode, cost uint64, depth int) bool {
	if l.full() {
		return false
	}
	l.logs = append(l.logs, StructLog{Pc: pc, Op: op, GasCost: cost, Depth: depth})
	l.pending = append(l.pending, pendingLog{index: len(l.logs) - 1, depth: depth})
	return true
}

// Executed completes the most recently opened entry.
func (l *StructLogger) Executed(gasLeft uint64, stackPush []uint256.Int, mem *MemoryDiff, store *StorageDiff) {
	if len(l.pending) == 0 {
		return
	}
	top := l.pending[len(l.pending)-1]
	l.pending = l.pending[:len(l.pending)-1]

	entry := &l.logs[top.index]
	entry.Gas = gasLeft
	entry.Stack = stackPush
	entry.Memory = mem
	entry.Storage = store
}

// Fault attaches err to the open entry of the failing frame, or records a
// new entry when the failure happened before the step was prepared.
func (l *StructLogger) Fault(pc uint64, op OpCode, depth int, err error) {
	if n := len(l.pending); n > 0 && l.pending[n-1].depth == depth {
		l.logs[l.pending[n-1].index].Err = err
		l.pending = l.pending[:n-1]
		return
	}
	if l.full() {
		return
	}
	l.logs = append(l.logs, StructLog{Pc: pc, Op: op, Depth: depth, Err: err})
}

// StructLogs returns the recorded steps.
func (l *StructLogger) StructLogs() []StructLog {
	return l.logs
}

// WriteJSON writes the recorded steps to w, one JSON object per line.
func (l *StructLogger) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	for i := range l.logs {
		if err := enc.Encode(&l.logs[i]); err != nil {
			return err
		}
	}
	return nil
}
