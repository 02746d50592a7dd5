// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import "github.com/yodynetwork/yody/yody"

// ExecReceipt is the outcome of executing a contract transaction.
type ExecReceipt struct {
	StateRoot yody.Bytes32 // account trie root after execution
	UTXORoot  yody.Bytes32 // utxo trie root after execution
	GasUsed   uint64       // cumulative gas used in the block
	Logs      Logs
}
