// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/yodynetwork/yody/trie"
	"github.com/yodynetwork/yody/yody"
)

// Account is the consensus representation of an account.
// RLP encoded objects are stored in the account trie.
type Account struct {
	Nonce       uint64
	Balance     *uint256.Int
	CodeHash    []byte // hash of code
	StorageRoot []byte // merkle root of the storage trie
}

// IsEmpty returns if an account is empty.
// An empty account has zero nonce, zero balance and zero length code hash.
func (a *Account) IsEmpty() bool {
	return a.Nonce == 0 &&
		a.Balance.IsZero() &&
		len(a.CodeHash) == 0
}

func emptyAccount() *Account {
	return &Account{Balance: new(uint256.Int)}
}

// loadAccount load an account object by address in trie.
// It returns nil if no account found at the address.
func loadAccount(t *trie.Trie, addr yody.Address) (*Account, error) {
	data, err := t.Get(addr[:])
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var a Account
	if err := rlp.DecodeBytes(data, &a); err != nil {
		return nil, err
	}
	if a.Balance == nil {
		a.Balance = new(uint256.Int)
	}
	return &a, nil
}

// saveAccount save account into trie at given address.
// The value for given address is deleted if a is nil.
func saveAccount(t *trie.Trie, addr yody.Address, a *Account) error {
	if a == nil {
		return t.Update(addr[:], nil)
	}
	data, err := rlp.EncodeToBytes(a)
	if err != nil {
		return err
	}
	return t.Update(addr[:], data)
}
