// Package state holds the world state the reference environment executes
// against: accounts with balance, nonce, code and storage, kept in memory and
// revertible through an undo journal.
package state

import (
	"github.com/holiman/uint256"

	"github.com/eth2030/meteredvm/core/types"
)

// StateDB is the world state seen by the runtime environment.
type StateDB interface {
	// Account operations
	CreateAccount(addr types.Address)
	SubBalance(addr types.Address, amount *uint256.Int)
	AddBalance(addr types.Address, amount *uint256.Int)
	GetBalance(addr types.Address) *uint256.Int
	GetNonce(addr types.Address) uint64
	SetNonce(addr types.Address, nonce uint64)
	GetCode(addr types.Address) []byte
	SetCode(addr types.Address, code []byte)
	GetCodeHash(addr types.Address) types.Hash
	GetCodeSize(addr types.Address) int

	// Self-destruct
	Suicide(addr types.Address)
	HasSuicided(addr types.Address) bool

	// Storage operations
	GetState(addr types.Address, key types.Hash) types.Hash
	SetState(addr types.Address, key types.Hash, value types.Hash)

	// Account existence
	Exist(addr types.Address) bool
	Empty(addr types.Address) bool

	// Snapshot and revert for call-level atomicity
	Snapshot() int
	RevertToSnapshot(id int)

	// Finalise removes suicided accounts and clears the journal.
	Finalise()
	Root() types.Hash
}
