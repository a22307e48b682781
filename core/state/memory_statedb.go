package state

import (
	"github.com/holiman/uint256"

	"github.com/eth2030/meteredvm/core/types"
	"github.com/eth2030/meteredvm/crypto"
)

// MemoryStateDB is an in-memory implementation of the StateDB interface.
// It is not safe for concurrent use.
type MemoryStateDB struct {
	stateObjects map[types.Address]*stateObject
	journal      *journal
}

// NewMemoryStateDB creates a new in-memory state database.
func NewMemoryStateDB() *MemoryStateDB {
	return &MemoryStateDB{
		stateObjects: make(map[types.Address]*stateObject),
		journal:      newJournal(),
	}
}

func (s *MemoryStateDB) getStateObject(addr types.Address) *stateObject {
	return s.stateObjects[addr]
}

func (s *MemoryStateDB) getOrNewStateObject(addr types.Address) *stateObject {
	if obj := s.stateObjects[addr]; obj != nil {
		return obj
	}
	obj := newStateObject()
	s.journal.append(createAccountChange{addr: addr})
	s.stateObjects[addr] = obj
	return obj
}

// --- Account operations ---

// CreateAccount replaces any account at addr with an empty one, keeping the
// balance it held.
func (s *MemoryStateDB) CreateAccount(addr types.Address) {
	prev := s.stateObjects[addr]
	s.journal.append(createAccountChange{addr: addr, prev: prev})
	obj := newStateObject()
	if prev != nil {
		obj.account.Balance = prev.account.Balance
	}
	s.stateObjects[addr] = obj
}

func (s *MemoryStateDB) SubBalance(addr types.Address, amount *uint256.Int) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(balanceChange{addr: addr, prev: obj.account.Balance})
	obj.account.Balance.Sub(&obj.account.Balance, amount)
}

func (s *MemoryStateDB) AddBalance(addr types.Address, amount *uint256.Int) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(balanceChange{addr: addr, prev: obj.account.Balance})
	obj.account.Balance.Add(&obj.account.Balance, amount)
}

// GetBalance returns a copy of the balance of addr.
func (s *MemoryStateDB) GetBalance(addr types.Address) *uint256.Int {
	if obj := s.getStateObject(addr); obj != nil {
		return new(uint256.Int).Set(&obj.account.Balance)
	}
	return new(uint256.Int)
}

func (s *MemoryStateDB) GetNonce(addr types.Address) uint64 {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.account.Nonce
	}
	return 0
}

func (s *MemoryStateDB) SetNonce(addr types.Address, nonce uint64) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(nonceChange{addr: addr, prev: obj.account.Nonce})
	obj.account.Nonce = nonce
}

func (s *MemoryStateDB) GetCode(addr types.Address) []byte {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.code
	}
	return nil
}

func (s *MemoryStateDB) SetCode(addr types.Address, code []byte) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(codeChange{addr: addr, prevCode: obj.code, prevHash: obj.account.CodeHash})
	obj.code = code
	obj.account.CodeHash = crypto.Keccak256Hash(code)
}

func (s *MemoryStateDB) GetCodeHash(addr types.Address) types.Hash {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.account.CodeHash
	}
	return types.Hash{}
}

func (s *MemoryStateDB) GetCodeSize(addr types.Address) int {
	if obj := s.getStateObject(addr); obj != nil {
		return len(obj.code)
	}
	return 0
}

// --- Self-destruct ---

// Suicide marks addr for removal at Finalise and clears its balance.
func (s *MemoryStateDB) Suicide(addr types.Address) {
	obj := s.getStateObject(addr)
	if obj == nil {
		return
	}
	s.journal.append(suicideChange{
		addr:         addr,
		prevSuicided: obj.suicided,
		prevBalance:  obj.account.Balance,
	})
	obj.suicided = true
	obj.account.Balance.Clear()
}

func (s *MemoryStateDB) HasSuicided(addr types.Address) bool {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.suicided
	}
	return false
}

// --- Storage operations ---

func (s *MemoryStateDB) GetState(addr types.Address, key types.Hash) types.Hash {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.storage[key]
	}
	return types.Hash{}
}

// SetState writes a storage slot. Writing zero deletes the slot.
func (s *MemoryStateDB) SetState(addr types.Address, key types.Hash, value types.Hash) {
	obj := s.getOrNewStateObject(addr)
	prev, prevExists := obj.storage[key]
	s.journal.append(storageChange{addr: addr, key: key, prev: prev, prevExists: prevExists})
	if value.IsZero() {
		delete(obj.storage, key)
		return
	}
	obj.storage[key] = value
}

// --- Account existence ---

func (s *MemoryStateDB) Exist(addr types.Address) bool {
	return s.stateObjects[addr] != nil
}

func (s *MemoryStateDB) Empty(addr types.Address) bool {
	obj := s.getStateObject(addr)
	return obj == nil || obj.empty()
}

// --- Snapshot and revert ---

func (s *MemoryStateDB) Snapshot() int {
	return s.journal.snapshot()
}

func (s *MemoryStateDB) RevertToSnapshot(id int) {
	s.journal.revertToSnapshot(id, s)
}

// Finalise deletes suicided accounts. Snapshots taken before it are no
// longer valid.
func (s *MemoryStateDB) Finalise() {
	for addr, obj := range s.stateObjects {
		if obj.suicided {
			delete(s.stateObjects, addr)
		}
	}
	s.journal.reset()
}

// Copy returns an independent deep copy of the state without its journal.
func (s *MemoryStateDB) Copy() *MemoryStateDB {
	cpy := NewMemoryStateDB()
	for addr, obj := range s.stateObjects {
		cpy.stateObjects[addr] = obj.deepCopy()
	}
	return cpy
}

// Verify interface compliance at compile time.
var _ StateDB = (*MemoryStateDB)(nil)
