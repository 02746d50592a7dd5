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

// Vin is the spendable output currently holding the balance of an address.
// RLP encoded as [hash, nVout, value, alive] in the UTXO trie.
type Vin struct {
	Hash  yody.Bytes32 // id of the transaction created the output
	NVout uint32
	Value *uint256.Int
	Alive uint8
}

// IsAlive returns whether the vin is spendable.
func (v *Vin) IsAlive() bool {
	return v.Alive != 0
}

// Copy returns a deep copy of the vin.
func (v *Vin) Copy() *Vin {
	cpy := *v
	if v.Value != nil {
		cpy.Value = v.Value.Clone()
	} else {
		cpy.Value = new(uint256.Int)
	}
	return &cpy
}

func loadVin(t *trie.Trie, addr yody.Address) (*Vin, error) {
	data, err := t.Get(addr[:])
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var v Vin
	if err := rlp.DecodeBytes(data, &v); err != nil {
		return nil, err
	}
	if v.Value == nil {
		v.Value = new(uint256.Int)
	}
	return &v, nil
}

// saveVin saves the vin at given address. Dead vins are removed.
func saveVin(t *trie.Trie, addr yody.Address, v *Vin) error {
	if v == nil || !v.IsAlive() {
		return t.Update(addr[:], nil)
	}
	data, err := rlp.EncodeToBytes(v)
	if err != nil {
		return err
	}
	return t.Update(addr[:], data)
}
