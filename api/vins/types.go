// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vins

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/yodynetwork/yody/state"
	"github.com/yodynetwork/yody/yody"
)

// Vin for marshal the spendable output of a contract.
type Vin struct {
	Address yody.Address          `json:"address"`
	TxID    yody.Bytes32          `json:"txID"`
	NVout   uint32                `json:"nVout"`
	Value   *math.HexOrDecimal256 `json:"value"`
	Alive   bool                  `json:"alive"`
}

func convertVin(addr yody.Address, v *state.Vin) *Vin {
	return &Vin{
		Address: addr,
		TxID:    v.Hash,
		NVout:   v.NVout,
		Value:   (*math.HexOrDecimal256)(v.Value.ToBig()),
		Alive:   v.IsAlive(),
	}
}
