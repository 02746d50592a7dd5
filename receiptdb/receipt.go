// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package receiptdb

import (
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/yodynetwork/yody/tx"
	"github.com/yodynetwork/yody/vm"
	"github.com/yodynetwork/yody/yody"
)

// NoOutputIndex is the output index of receipts stored without one.
const NoOutputIndex = yody.NoOutputIndex

// Receipt is the execution receipt of one contract output of a tx.
type Receipt struct {
	BlockHash         yody.Bytes32
	BlockNumber       uint32
	TxHash            yody.Bytes32
	TxIndex           uint32
	Sender            yody.Address
	Receiver          yody.Address
	CumulativeGasUsed uint64
	GasUsed           uint64
	ContractAddress   yody.Address
	Logs              tx.Logs
	Exception         vm.Exception
	ExceptionMessage  string
	OutputIndex       uint32
	Bloom             types.Bloom
	StateRoot         yody.Bytes32
	UTXORoot          yody.Bytes32
}

type logBody struct {
	Topics []yody.Bytes32
	Data   []byte
}

type logEntry struct {
	Address yody.Address
	Body    logBody
}

// record is the column layout of a receipt set on disk. Columns were added
// over time, records written before miss the trailing ones.
type record struct {
	BlockHashes       []yody.Bytes32
	BlockNumbers      []uint32
	TxHashes          []yody.Bytes32
	TxIndexes         []uint32
	Senders           []yody.Address
	Receivers         []yody.Address
	CumulativeGasUsed []uint64
	GasUsed           []uint64
	ContractAddresses []yody.Address
	Logs              [][]logEntry
	Exceptions        []uint32       `rlp:"optional"`
	Messages          []string       `rlp:"optional"`
	OutputIndexes     []uint32       `rlp:"optional"`
	Blooms            []types.Bloom  `rlp:"optional"`
	StateRoots        []yody.Bytes32 `rlp:"optional"`
	UTXORoots         []yody.Bytes32 `rlp:"optional"`
}

func encodeReceipts(receipts []*Receipt) ([]byte, error) {
	n := len(receipts)
	r := record{
		BlockHashes:       make([]yody.Bytes32, 0, n),
		BlockNumbers:      make([]uint32, 0, n),
		TxHashes:          make([]yody.Bytes32, 0, n),
		TxIndexes:         make([]uint32, 0, n),
		Senders:           make([]yody.Address, 0, n),
		Receivers:         make([]yody.Address, 0, n),
		CumulativeGasUsed: make([]uint64, 0, n),
		GasUsed:           make([]uint64, 0, n),
		ContractAddresses: make([]yody.Address, 0, n),
		Logs:              make([][]logEntry, 0, n),
		Exceptions:        make([]uint32, 0, n),
		Messages:          make([]string, 0, n),
		OutputIndexes:     make([]uint32, 0, n),
		Blooms:            make([]types.Bloom, 0, n),
		StateRoots:        make([]yody.Bytes32, 0, n),
		UTXORoots:         make([]yody.Bytes32, 0, n),
	}
	for _, rc := range receipts {
		logs := make([]logEntry, 0, len(rc.Logs))
		for _, l := range rc.Logs {
			logs = append(logs, logEntry{l.Address, logBody{l.Topics, l.Data}})
		}
		r.BlockHashes = append(r.BlockHashes, rc.BlockHash)
		r.BlockNumbers = append(r.BlockNumbers, rc.BlockNumber)
		r.TxHashes = append(r.TxHashes, rc.TxHash)
		r.TxIndexes = append(r.TxIndexes, rc.TxIndex)
		r.Senders = append(r.Senders, rc.Sender)
		r.Receivers = append(r.Receivers, rc.Receiver)
		r.CumulativeGasUsed = append(r.CumulativeGasUsed, rc.CumulativeGasUsed)
		r.GasUsed = append(r.GasUsed, rc.GasUsed)
		r.ContractAddresses = append(r.ContractAddresses, rc.ContractAddress)
		r.Logs = append(r.Logs, logs)
		r.Exceptions = append(r.Exceptions, uint32(rc.Exception))
		r.Messages = append(r.Messages, rc.ExceptionMessage)
		r.OutputIndexes = append(r.OutputIndexes, rc.OutputIndex)
		r.Blooms = append(r.Blooms, rc.Bloom)
		r.StateRoots = append(r.StateRoots, rc.StateRoot)
		r.UTXORoots = append(r.UTXORoots, rc.UTXORoot)
	}
	return rlp.EncodeToBytes(&r)
}

var errMalformed = errors.New("malformed receipt record")

func decodeReceipts(data []byte) ([]*Receipt, error) {
	var r record
	if err := rlp.DecodeBytes(data, &r); err != nil {
		return nil, errors.Wrap(errMalformed, err.Error())
	}

	n := len(r.BlockHashes)
	for _, l := range []int{
		len(r.BlockNumbers), len(r.TxHashes), len(r.TxIndexes), len(r.Senders), len(r.Receivers),
		len(r.CumulativeGasUsed), len(r.GasUsed), len(r.ContractAddresses), len(r.Logs),
	} {
		if l != n {
			return nil, errors.Wrap(errMalformed, "column length mismatch")
		}
	}
	// optional columns are either absent or complete
	for _, l := range []int{
		len(r.Exceptions), len(r.Messages), len(r.OutputIndexes), len(r.Blooms), len(r.StateRoots), len(r.UTXORoots),
	} {
		if l != 0 && l != n {
			return nil, errors.Wrap(errMalformed, "column length mismatch")
		}
	}

	receipts := make([]*Receipt, 0, n)
	for i := range n {
		rc := &Receipt{
			BlockHash:         r.BlockHashes[i],
			BlockNumber:       r.BlockNumbers[i],
			TxHash:            r.TxHashes[i],
			TxIndex:           r.TxIndexes[i],
			Sender:            r.Senders[i],
			Receiver:          r.Receivers[i],
			CumulativeGasUsed: r.CumulativeGasUsed[i],
			GasUsed:           r.GasUsed[i],
			ContractAddress:   r.ContractAddresses[i],
			Exception:         vm.ExceptionNoInformation,
			OutputIndex:       NoOutputIndex,
		}
		if len(r.Logs[i]) > 0 {
			rc.Logs = make(tx.Logs, 0, len(r.Logs[i]))
			for _, l := range r.Logs[i] {
				log := &tx.Log{Address: l.Address}
				if len(l.Body.Topics) > 0 {
					log.Topics = l.Body.Topics
				}
				if len(l.Body.Data) > 0 {
					log.Data = l.Body.Data
				}
				rc.Logs = append(rc.Logs, log)
			}
		}
		if len(r.Exceptions) > 0 {
			rc.Exception = vm.Exception(r.Exceptions[i])
		}
		if len(r.Messages) > 0 {
			rc.ExceptionMessage = r.Messages[i]
		}
		if len(r.OutputIndexes) > 0 {
			rc.OutputIndex = r.OutputIndexes[i]
		}
		if len(r.Blooms) > 0 {
			rc.Bloom = r.Blooms[i]
		}
		if len(r.StateRoots) > 0 {
			rc.StateRoot = r.StateRoots[i]
		}
		if len(r.UTXORoots) > 0 {
			rc.UTXORoot = r.UTXORoots[i]
		}
		receipts = append(receipts, rc)
	}
	return receipts, nil
}
