// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package processor executes the contract txs of a block in order and
// collects what the block brings to the UTXO set and the receipt store.
package processor

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/yodynetwork/yody/kv"
	"github.com/yodynetwork/yody/log"
	"github.com/yodynetwork/yody/logdb"
	"github.com/yodynetwork/yody/receiptdb"
	"github.com/yodynetwork/yody/runtime"
	"github.com/yodynetwork/yody/state"
	"github.com/yodynetwork/yody/trie"
	"github.com/yodynetwork/yody/tx"
	"github.com/yodynetwork/yody/vm"
	"github.com/yodynetwork/yody/yody"
)

var logger = log.WithContext("pkg", "processor")

// ErrGasLimitExceeded is returned when the contract txs of a block use more
// gas than the block allows.
var ErrGasLimitExceeded = errors.New("block gas limit exceeded")

// Block is the part of a block needed to execute its contract txs.
type Block struct {
	Hash     yody.Bytes32
	Number   uint32
	Author   yody.Address
	Time     uint64
	GasLimit uint64
	TxIDs    []yody.Bytes32 // ids of all txs in block order
}

// Result is the outcome of a block.
type Result struct {
	GasUsed uint64
	// condensing and value refund txs, in execution order
	ValueTransfers []*tx.Transaction
	// unused gas paid back to senders
	RefundOutputs []*tx.Output
	Receipts      []*receiptdb.Receipt
	ReceiptsRoot  yody.Bytes32
	StateRoot     yody.Bytes32
	UTXORoot      yody.Bytes32
}

// Processor executes blocks against the latest state.
type Processor struct {
	db         kv.Store
	executor   vm.Executor
	forkConfig yody.ForkConfig
	receipts   *receiptdb.ReceiptDB
	logDB      *logdb.LogDB
}

// New create a processor. receipts and logDB may be nil to skip receipt
// storage and event indexing.
func New(
	db kv.Store,
	executor vm.Executor,
	forkConfig yody.ForkConfig,
	receipts *receiptdb.ReceiptDB,
	logDB *logdb.LogDB,
) *Processor {
	return &Processor{
		db:         db,
		executor:   executor,
		forkConfig: forkConfig,
		receipts:   receipts,
		logDB:      logDB,
	}
}

// Process executes the contract txs of blk and persists the state.
// Receipts are buffered in the receipt store until its Commit.
func (p *Processor) Process(blk *Block, vmtxs []*tx.VMTransaction) (*Result, error) {
	indexes := make(map[yody.Bytes32]uint32, len(blk.TxIDs))
	for i, id := range blk.TxIDs {
		indexes[id] = uint32(i)
	}

	var chainHeight uint32
	if blk.Number > 0 {
		chainHeight = blk.Number - 1
	}

	st := state.New(p.db)
	rt := runtime.New(st, p.executor, p.forkConfig, &vm.Env{
		Author:   blk.Author,
		Number:   blk.Number,
		Time:     blk.Time,
		GasLimit: blk.GasLimit,
	}, chainHeight, nil)

	result := &Result{}
	var order []yody.Bytes32
	grouped := make(map[yody.Bytes32][]*receiptdb.Receipt)

	for _, vmtx := range vmtxs {
		txIndex, ok := indexes[vmtx.HashWith]
		if !ok {
			return nil, errors.Errorf("contract tx %v not in block", vmtx.HashWith)
		}

		rt.SetGasUsed(result.GasUsed)
		out, err := rt.Execute(vmtx, runtime.Committed, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "execute %v:%d", vmtx.HashWith, vmtx.NVout)
		}

		result.GasUsed += out.Exec.GasUsed
		if result.GasUsed > blk.GasLimit {
			return nil, errors.Wrapf(ErrGasLimitExceeded, "used %d, limit %d", result.GasUsed, blk.GasLimit)
		}

		if out.Tx != nil {
			result.ValueTransfers = append(result.ValueTransfers, out.Tx)
		} else if out.Exec.Exception.Excepted() && !vmtx.Value.IsZero() {
			result.ValueTransfers = append(result.ValueTransfers, valueRefund(vmtx))
		}
		if refund := gasRefund(vmtx, out.Exec.GasUsed); refund != nil {
			result.RefundOutputs = append(result.RefundOutputs, refund)
		}

		receipt := newReceipt(blk, txIndex, vmtx, out)
		result.Receipts = append(result.Receipts, receipt)
		if _, ok := grouped[vmtx.HashWith]; !ok {
			order = append(order, vmtx.HashWith)
		}
		grouped[vmtx.HashWith] = append(grouped[vmtx.HashWith], receipt)
	}

	if err := st.Flush(); err != nil {
		return nil, err
	}

	var err error
	if result.StateRoot, err = st.Root(); err != nil {
		return nil, err
	}
	if result.UTXORoot, err = st.UTXORoot(); err != nil {
		return nil, err
	}
	result.ReceiptsRoot = trie.DeriveRoot(receiptList(result.Receipts))

	if p.receipts != nil {
		for _, h := range order {
			p.receipts.Put(h, grouped[h])
		}
	}
	if p.logDB != nil {
		w := p.logDB.NewWriter()
		if err := w.Write(result.Receipts); err != nil {
			_ = w.Rollback()
			return nil, errors.Wrap(err, "write events")
		}
		if err := w.Commit(); err != nil {
			return nil, errors.Wrap(err, "commit events")
		}
	}

	logger.Debug("processed block",
		"number", blk.Number,
		"id", blk.Hash.AbbrevString(),
		"contractTxs", len(vmtxs),
		"gasUsed", result.GasUsed,
	)
	return result, nil
}

// Revert removes the receipts and events of txs of disconnected blocks.
func (p *Processor) Revert(txIDs []yody.Bytes32) error {
	if p.receipts != nil {
		if err := p.receipts.DeleteMany(txIDs); err != nil {
			return err
		}
	}
	if p.logDB != nil {
		w := p.logDB.NewWriter()
		if err := w.DeleteTxs(txIDs); err != nil {
			_ = w.Rollback()
			return err
		}
		return w.Commit()
	}
	return nil
}

// valueRefund spends the carrying output back to the sender.
func valueRefund(vmtx *tx.VMTransaction) *tx.Transaction {
	return new(tx.Builder).
		Input(vmtx.HashWith, vmtx.NVout, tx.SpendScript()).
		Output(vmtx.Value.Uint64(), tx.P2PKHScript(vmtx.Sender)).
		Build()
}

func gasRefund(vmtx *tx.VMTransaction, gasUsed uint64) *tx.Output {
	if vmtx.GasPrice.IsZero() || gasUsed >= vmtx.Gas {
		return nil
	}
	value := new(uint256.Int).Mul(uint256.NewInt(vmtx.Gas-gasUsed), vmtx.GasPrice)
	return &tx.Output{Value: value.Uint64(), Script: tx.P2PKHScript(vmtx.Sender)}
}

func newReceipt(blk *Block, txIndex uint32, vmtx *tx.VMTransaction, out *runtime.Output) *receiptdb.Receipt {
	r := &receiptdb.Receipt{
		BlockHash:         blk.Hash,
		BlockNumber:       blk.Number,
		TxHash:            vmtx.HashWith,
		TxIndex:           txIndex,
		Sender:            vmtx.Sender,
		CumulativeGasUsed: out.Receipt.GasUsed,
		GasUsed:           out.Exec.GasUsed,
		ContractAddress:   out.ContractAddress,
		Logs:              out.Receipt.Logs,
		Exception:         out.Exec.Exception,
		ExceptionMessage:  exceptionMessage(out.Exec),
		OutputIndex:       vmtx.NVout,
		Bloom:             out.Receipt.Logs.Bloom(),
		StateRoot:         out.Receipt.StateRoot,
		UTXORoot:          out.Receipt.UTXORoot,
	}
	if vmtx.To != nil {
		r.Receiver = *vmtx.To
	}
	return r
}

// exceptionMessage returns the revert reason if the output carries one.
func exceptionMessage(res *vm.Result) string {
	if res.Exception != vm.ExceptionRevertInstruction || len(res.Output) == 0 {
		return ""
	}
	reason, err := abi.UnpackRevert(res.Output)
	if err != nil {
		return ""
	}
	return reason
}

type receiptList []*receiptdb.Receipt

func (l receiptList) Len() int { return len(l) }

func (l receiptList) GetRlp(i int) []byte {
	data, err := rlp.EncodeToBytes(&tx.ExecReceipt{
		StateRoot: l[i].StateRoot,
		UTXORoot:  l[i].UTXORoot,
		GasUsed:   l[i].CumulativeGasUsed,
		Logs:      l[i].Logs,
	})
	if err != nil {
		panic(err)
	}
	return data
}
