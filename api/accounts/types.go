// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/yodynetwork/yody/yody"
)

// Account for marshal account
type Account struct {
	Balance *math.HexOrDecimal256 `json:"balance"`
	Nonce   uint64                `json:"nonce"`
	HasCode bool                  `json:"hasCode"`
}

// CallData represents contract-call body
type CallData struct {
	Caller   *yody.Address         `json:"caller"`
	Value    *math.HexOrDecimal256 `json:"value"`
	Data     hexutil.Bytes         `json:"data"`
	Gas      uint64                `json:"gas"`
	GasPrice *math.HexOrDecimal256 `json:"gasPrice"`
}

type CallResult struct {
	Data     hexutil.Bytes `json:"data"`
	GasUsed  uint64        `json:"gasUsed"`
	Excepted bool          `json:"excepted"`
	VMError  string        `json:"vmError"`
	Reverted bool          `json:"reverted"`
}
