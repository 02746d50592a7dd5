// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package receipts

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/yodynetwork/yody/receiptdb"
	"github.com/yodynetwork/yody/yody"
)

// Log for marshal log.
type Log struct {
	Address yody.Address   `json:"address"`
	Topics  []yody.Bytes32 `json:"topics"`
	Data    hexutil.Bytes  `json:"data"`
}

// Receipt for marshal execution receipt.
type Receipt struct {
	BlockHash         yody.Bytes32  `json:"blockHash"`
	BlockNumber       uint32        `json:"blockNumber"`
	TxID              yody.Bytes32  `json:"txID"`
	TxIndex           uint32        `json:"txIndex"`
	From              yody.Address  `json:"from"`
	To                yody.Address  `json:"to"`
	CumulativeGasUsed uint64        `json:"cumulativeGasUsed"`
	GasUsed           uint64        `json:"gasUsed"`
	ContractAddress   yody.Address  `json:"contractAddress"`
	Excepted          string        `json:"excepted"`
	ExceptedMessage   string        `json:"exceptedMessage"`
	OutputIndex       uint32        `json:"outputIndex"`
	Bloom             hexutil.Bytes `json:"bloom"`
	StateRoot         yody.Bytes32  `json:"stateRoot"`
	UTXORoot          yody.Bytes32  `json:"utxoRoot"`
	Logs              []*Log        `json:"logs"`
}

func convertReceipt(r *receiptdb.Receipt) *Receipt {
	logs := make([]*Log, 0, len(r.Logs))
	for _, l := range r.Logs {
		topics := l.Topics
		if topics == nil {
			topics = []yody.Bytes32{}
		}
		logs = append(logs, &Log{
			Address: l.Address,
			Topics:  topics,
			Data:    l.Data,
		})
	}
	return &Receipt{
		BlockHash:         r.BlockHash,
		BlockNumber:       r.BlockNumber,
		TxID:              r.TxHash,
		TxIndex:           r.TxIndex,
		From:              r.Sender,
		To:                r.Receiver,
		CumulativeGasUsed: r.CumulativeGasUsed,
		GasUsed:           r.GasUsed,
		ContractAddress:   r.ContractAddress,
		Excepted:          r.Exception.String(),
		ExceptedMessage:   r.ExceptionMessage,
		OutputIndex:       r.OutputIndex,
		Bloom:             r.Bloom.Bytes(),
		StateRoot:         r.StateRoot,
		UTXORoot:          r.UTXORoot,
		Logs:              logs,
	}
}
