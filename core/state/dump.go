package state

import (
	"bytes"
	"slices"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/eth2030/meteredvm/core/types"
	"github.com/eth2030/meteredvm/crypto"
)

// rlpSlot and rlpAccount are the encodings hashed into the state root.
type rlpSlot struct {
	Key   types.Hash
	Value types.Hash
}

type rlpAccount struct {
	Address  types.Address
	Nonce    uint64
	Balance  *uint256.Int
	CodeHash types.Hash
	Storage  []rlpSlot
}

// DumpAccount is the JSON view of one account.
type DumpAccount struct {
	Balance  string            `json:"balance"`
	Nonce    uint64            `json:"nonce"`
	CodeHash types.Hash        `json:"codeHash"`
	Code     hexutil.Bytes     `json:"code,omitempty"`
	Storage  map[string]string `json:"storage,omitempty"`
	Suicided bool              `json:"suicided,omitempty"`
}

// Dump is the JSON view of the whole state.
type Dump struct {
	Root     types.Hash             `json:"root"`
	Accounts map[string]DumpAccount `json:"accounts"`
}

func (s *MemoryStateDB) sortedAddresses() []types.Address {
	addrs := make([]types.Address, 0, len(s.stateObjects))
	for addr := range s.stateObjects {
		addrs = append(addrs, addr)
	}
	slices.SortFunc(addrs, func(a, b types.Address) int { return bytes.Compare(a[:], b[:]) })
	return addrs
}

func sortedSlots(storage map[types.Hash]types.Hash) []rlpSlot {
	slots := make([]rlpSlot, 0, len(storage))
	for k, v := range storage {
		slots = append(slots, rlpSlot{Key: k, Value: v})
	}
	slices.SortFunc(slots, func(a, b rlpSlot) int { return bytes.Compare(a.Key[:], b.Key[:]) })
	return slots
}

// Root hashes the RLP encoding of every account in address order. It is a
// deterministic fingerprint of the state, not a trie root.
func (s *MemoryStateDB) Root() types.Hash {
	hasher := crypto.NewKeccakState()
	for _, addr := range s.sortedAddresses() {
		obj := s.stateObjects[addr]
		enc, err := rlp.EncodeToBytes(&rlpAccount{
			Address:  addr,
			Nonce:    obj.account.Nonce,
			Balance:  &obj.account.Balance,
			CodeHash: obj.account.CodeHash,
			Storage:  sortedSlots(obj.storage),
		})
		if err != nil {
			log.Error("Failed to encode account", "addr", addr, "err", err)
			continue
		}
		hasher.Write(enc)
	}
	var root types.Hash
	hasher.Read(root[:])
	return root
}

// Dump returns a JSON-friendly copy of the state.
func (s *MemoryStateDB) Dump() Dump {
	dump := Dump{Root: s.Root(), Accounts: make(map[string]DumpAccount, len(s.stateObjects))}
	for addr, obj := range s.stateObjects {
		acc := DumpAccount{
			Balance:  obj.account.Balance.Dec(),
			Nonce:    obj.account.Nonce,
			CodeHash: obj.account.CodeHash,
			Code:     obj.code,
			Suicided: obj.suicided,
		}
		if len(obj.storage) > 0 {
			acc.Storage = make(map[string]string, len(obj.storage))
			for k, v := range obj.storage {
				acc.Storage[k.Hex()] = v.Hex()
			}
		}
		dump.Accounts[addr.Hex()] = acc
	}
	return dump
}
