package state

import (
	"encoding/json"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/eth2030/meteredvm/core/types"
	"github.com/eth2030/meteredvm/crypto"
)

func testAddr(b byte) types.Address {
	var a types.Address
	a[19] = b
	return a
}

func testHash(b byte) types.Hash {
	var h types.Hash
	h[31] = b
	return h
}

func TestMemoryStateDB_Balance(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(1)

	require.True(t, db.GetBalance(addr).IsZero())
	require.False(t, db.Exist(addr))

	db.AddBalance(addr, uint256.NewInt(100))
	require.True(t, db.Exist(addr), "AddBalance creates the account")
	require.Equal(t, uint64(100), db.GetBalance(addr).Uint64())

	db.SubBalance(addr, uint256.NewInt(30))
	require.Equal(t, uint64(70), db.GetBalance(addr).Uint64())

	// The returned balance is a copy.
	db.GetBalance(addr).SetUint64(5)
	require.Equal(t, uint64(70), db.GetBalance(addr).Uint64())
}

func TestMemoryStateDB_Code(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(1)
	require.Equal(t, types.Hash{}, db.GetCodeHash(addr))

	db.CreateAccount(addr)
	require.Equal(t, types.EmptyCodeHash, db.GetCodeHash(addr))

	code := []byte{0x60, 0x01, 0x00}
	db.SetCode(addr, code)
	require.Equal(t, code, db.GetCode(addr))
	require.Equal(t, 3, db.GetCodeSize(addr))
	require.Equal(t, crypto.Keccak256Hash(code), db.GetCodeHash(addr))
}

func TestMemoryStateDB_Storage(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(1)

	db.SetState(addr, testHash(1), testHash(0xaa))
	require.Equal(t, testHash(0xaa), db.GetState(addr, testHash(1)))
	require.Equal(t, types.Hash{}, db.GetState(addr, testHash(2)))

	db.SetState(addr, testHash(1), types.Hash{})
	require.Empty(t, db.getStateObject(addr).storage, "zero writes delete the slot")
}

func TestMemoryStateDB_CreateAccountKeepsBalance(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(1)
	db.AddBalance(addr, uint256.NewInt(7))
	db.SetNonce(addr, 3)
	db.SetState(addr, testHash(1), testHash(1))

	db.CreateAccount(addr)
	require.Equal(t, uint64(7), db.GetBalance(addr).Uint64())
	require.Zero(t, db.GetNonce(addr))
	require.Equal(t, types.Hash{}, db.GetState(addr, testHash(1)))
}

func TestMemoryStateDB_Empty(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(1)
	require.True(t, db.Empty(addr))
	db.CreateAccount(addr)
	require.True(t, db.Empty(addr))
	db.SetNonce(addr, 1)
	require.False(t, db.Empty(addr))
}

func TestMemoryStateDB_SuicideAndFinalise(t *testing.T) {
	db := NewMemoryStateDB()
	addr := testAddr(1)
	db.AddBalance(addr, uint256.NewInt(10))

	db.Suicide(addr)
	require.True(t, db.HasSuicided(addr))
	require.True(t, db.GetBalance(addr).IsZero())
	require.True(t, db.Exist(addr), "removed only at Finalise")

	db.Finalise()
	require.False(t, db.Exist(addr))

	// Suiciding a missing account is a no-op.
	db.Suicide(testAddr(2))
	require.False(t, db.Exist(testAddr(2)))
}

func TestMemoryStateDB_Root(t *testing.T) {
	a, b := NewMemoryStateDB(), NewMemoryStateDB()
	require.Equal(t, a.Root(), b.Root())

	// Insertion order does not matter.
	a.AddBalance(testAddr(1), uint256.NewInt(1))
	a.SetState(testAddr(2), testHash(1), testHash(2))
	b.SetState(testAddr(2), testHash(1), testHash(2))
	b.AddBalance(testAddr(1), uint256.NewInt(1))
	require.Equal(t, a.Root(), b.Root())

	b.SetNonce(testAddr(1), 1)
	require.NotEqual(t, a.Root(), b.Root())
}

func TestMemoryStateDB_Copy(t *testing.T) {
	db := NewMemoryStateDB()
	db.SetState(testAddr(1), testHash(1), testHash(1))
	cpy := db.Copy()
	cpy.SetState(testAddr(1), testHash(1), testHash(9))
	require.Equal(t, testHash(1), db.GetState(testAddr(1), testHash(1)))
	require.Equal(t, testHash(9), cpy.GetState(testAddr(1), testHash(1)))
}

func TestMemoryStateDB_Dump(t *testing.T) {
	db := NewMemoryStateDB()
	db.AddBalance(testAddr(1), uint256.NewInt(1000))
	db.SetCode(testAddr(1), []byte{0x00})
	db.SetState(testAddr(1), testHash(1), testHash(2))

	out, err := json.Marshal(db.Dump())
	require.NoError(t, err)

	var decoded struct {
		Root     types.Hash `json:"root"`
		Accounts map[string]struct {
			Balance string            `json:"balance"`
			Code    string            `json:"code"`
			Storage map[string]string `json:"storage"`
		} `json:"accounts"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.Equal(t, db.Root(), decoded.Root)
	acc, ok := decoded.Accounts[testAddr(1).Hex()]
	require.True(t, ok)
	require.Equal(t, "1000", acc.Balance)
	require.Equal(t, "0x00", acc.Code)
	require.Equal(t, testHash(2).Hex(), acc.Storage[testHash(1).Hex()])
}
