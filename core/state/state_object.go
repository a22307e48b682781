package state

import (
	"github.com/holiman/uint256"

	"github.com/eth2030/meteredvm/core/types"
)

// Account is the consensus view of an account.
type Account struct {
	Nonce    uint64
	Balance  uint256.Int
	CodeHash types.Hash
}

// stateObject is an account together with its code and storage.
type stateObject struct {
	account  Account
	code     []byte
	storage  map[types.Hash]types.Hash
	suicided bool
}

func newStateObject() *stateObject {
	return &stateObject{
		account: Account{CodeHash: types.EmptyCodeHash},
		storage: make(map[types.Hash]types.Hash),
	}
}

// empty reports whether the account has no nonce, balance or code.
func (o *stateObject) empty() bool {
	return o.account.Nonce == 0 && o.account.Balance.IsZero() && o.account.CodeHash == types.EmptyCodeHash
}

func (o *stateObject) deepCopy() *stateObject {
	cpy := &stateObject{
		account:  o.account,
		code:     o.code,
		storage:  make(map[types.Hash]types.Hash, len(o.storage)),
		suicided: o.suicided,
	}
	for k, v := range o.storage {
		cpy.storage[k] = v
	}
	return cpy
}
