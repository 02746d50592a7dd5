// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/yodynetwork/yody/yody"
)

// Log represents a contract log event.
type Log struct {
	// address of the contract that generated the event
	Address yody.Address
	// list of topics provided by the contract.
	Topics []yody.Bytes32
	// supplied by the contract, usually ABI-encoded
	Data []byte
}

// Logs slice of logs.
type Logs []*Log

// Bloom returns the bloom filter of addresses and topics of all logs.
func (ls Logs) Bloom() types.Bloom {
	var bloom types.Bloom
	for _, l := range ls {
		bloom.Add(l.Address[:])
		for _, topic := range l.Topics {
			bloom.Add(topic[:])
		}
	}
	return bloom
}
