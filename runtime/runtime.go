// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime drives the state transition of contract transactions: it
// runs the vm, validates value movements and re-expresses them as UTXOs
// before committing both tries.
package runtime

import (
	"time"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/yodynetwork/yody/condense"
	"github.com/yodynetwork/yody/log"
	"github.com/yodynetwork/yody/metrics"
	"github.com/yodynetwork/yody/state"
	"github.com/yodynetwork/yody/tx"
	"github.com/yodynetwork/yody/vm"
	"github.com/yodynetwork/yody/yody"
)

var (
	logger = log.WithContext("pkg", "runtime")

	metricTxCount      = metrics.LazyLoadCounterVec("runtime_tx_count", []string{"outcome"})
	metricExecDuration = metrics.LazyLoadHistogram("runtime_exec_duration_ms", metrics.BucketExecution)

	// ErrVersionMismatch is returned for a contract tx not tagged with the
	// default vm version. The containing block is invalid.
	ErrVersionMismatch = errors.New("vm version mismatch")
)

var _ vm.StateDB = (*state.State)(nil)

// Permanence tells whether the outcome of an execution is kept.
type Permanence uint8

const (
	// Committed keeps the outcome in the tries.
	Committed Permanence = iota
	// Reverted discards the outcome, used to simulate calls.
	Reverted
)

// Output is the outcome of a contract tx.
type Output struct {
	Exec            *vm.Result
	Receipt         *tx.ExecReceipt
	Tx              *tx.Transaction // condensing or refund tx, nil if none
	ContractAddress yody.Address
}

// Runtime executes the contract txs of one block.
type Runtime struct {
	state       *state.State
	executor    vm.Executor
	forkConfig  yody.ForkConfig
	env         vm.Env
	chainHeight uint32
	deleted     state.AddressSet
}

// New create a Runtime object.
// deleted is the block scoped set of addresses removed after each tx, shared
// by all txs of the block. A nil set starts a new one.
func New(
	st *state.State,
	executor vm.Executor,
	forkConfig yody.ForkConfig,
	env *vm.Env,
	chainHeight uint32,
	deleted state.AddressSet,
) *Runtime {
	if deleted == nil {
		deleted = make(state.AddressSet)
	}
	return &Runtime{
		state:       st,
		executor:    executor,
		forkConfig:  forkConfig,
		env:         *env,
		chainHeight: chainHeight,
		deleted:     deleted,
	}
}

func (rt *Runtime) State() *state.State                { return rt.state }
func (rt *Runtime) Env() vm.Env                        { return rt.env }
func (rt *Runtime) ChainHeight() uint32                { return rt.chainHeight }
func (rt *Runtime) ForkConfig() yody.ForkConfig        { return rt.forkConfig }
func (rt *Runtime) DeletedAddresses() state.AddressSet { return rt.deleted }

// SetGasUsed sets the gas used by the block before the next tx.
func (rt *Runtime) SetGasUsed(gasUsed uint64) {
	rt.env.GasUsed = gasUsed
}

// Execute executes the contract tx. Failures of the execution are reported
// in the output, errors are returned only for invalid txs and storage faults.
func (rt *Runtime) Execute(vmtx *tx.VMTransaction, perm Permanence, onOp vm.OnOpFunc) (*Output, error) {
	if vmtx.Version != yody.DefaultVMVersion {
		return nil, errors.Wrapf(ErrVersionMismatch, "got %v", vmtx.Version)
	}

	start := time.Now()
	defer rt.state.ClearTransfers()

	out, outcome, err := rt.execute(vmtx, perm, onOp)
	if err != nil {
		rt.state.Discard()
		return nil, err
	}
	metricTxCount().AddWithLabel(1, map[string]string{"outcome": outcome})
	metricExecDuration().Observe(time.Since(start).Milliseconds())
	return out, nil
}

func (rt *Runtime) execute(vmtx *tx.VMTransaction, perm Permanence, onOp vm.OnOpFunc) (*Output, string, error) {
	st := rt.state

	if err := st.AddBalance(vmtx.Sender, new(uint256.Int).Add(vmtx.Value, vmtx.GasCost())); err != nil {
		return nil, "", err
	}
	rt.deleted.Add(vmtx.Sender, rt.env.Author)

	oldRoot, err := st.Root()
	if err != nil {
		return nil, "", err
	}
	oldUTXORoot, err := st.UTXORoot()
	if err != nil {
		return nil, "", err
	}

	contractAddr := vmtx.ContractAddress()
	rev := st.NewCheckpoint()

	var res *vm.Result
	if vmtx.IsCreation() && !vmtx.Value.IsZero() {
		res = &vm.Result{Status: vm.Aborted, Exception: vm.ExceptionCreateWithValue}
	} else {
		res = rt.executor.Execute(&rt.env, st, &vm.Message{
			Sender:   vmtx.Sender,
			To:       vmtx.To,
			Contract: contractAddr,
			Value:    vmtx.Value,
			Gas:      vmtx.Gas,
			GasPrice: vmtx.GasPrice,
			Data:     vmtx.Data,
		}, onOp)
	}

	switch {
	case res.Status == vm.Aborted:
		st.RevertTo(rev)
		exception := res.Exception
		if !exception.Excepted() {
			exception = vm.ExceptionUnknown
		}
		out, err := rt.except(vmtx, perm, contractAddr, &vm.Result{Status: vm.Aborted, Exception: exception})
		return out, "aborted", err
	case res.Exception.Excepted():
		// the revert reason in the output is kept
		st.RevertTo(rev)
		out, err := rt.except(vmtx, perm, contractAddr, res)
		return out, "excepted", err
	}

	if rt.chainHeight >= rt.forkConfig.TransferValidation {
		st.ValidateTransfers()
	}

	if perm == Reverted {
		st.Discard()
		out, err := rt.output(contractAddr, res, nil)
		return out, "reverted", err
	}

	if err := st.DeleteAccounts(rt.deleted); err != nil {
		return nil, "", err
	}

	result, err := condense.New(st, st.Transfers(), vmtx, rt.deleted).Build()
	switch {
	case errors.Is(err, condense.ErrVoutOverflow):
		st.RevertTo(rev)
		if _, err := rt.except(vmtx, perm, contractAddr, &vm.Result{Exception: vm.ExceptionOutOfGas}); err != nil {
			return nil, "", err
		}
		return rt.voutOverflow(vmtx, contractAddr, oldRoot, oldUTXORoot), "vout_overflow", nil
	case errors.Is(err, condense.ErrNegativeBalance), errors.Is(err, condense.ErrAmountOverflow):
		st.RevertTo(rev)
		logger.Warn("invalid transfers", "tx", vmtx.HashWith, "nvout", vmtx.NVout, "err", err)
		out, err := rt.except(vmtx, perm, contractAddr, &vm.Result{Status: vm.Excepted, Exception: vm.ExceptionInvalidTransfer})
		return out, "invalid_transfer", err
	case err != nil:
		return nil, "", err
	}
	if err := st.UpdateUTXO(result.VinUpdates); err != nil {
		return nil, "", err
	}

	if err := st.Commit(rt.env.Number >= rt.forkConfig.EmptyAccountRemoval); err != nil {
		return nil, "", err
	}
	out, err := rt.output(contractAddr, res, result.Tx)
	return out, res.Status.String(), err
}

// except finishes a tx whose execution is abandoned. The overlay is
// committed without the vm changes before the utxo cache fix, and
// discarded after it.
func (rt *Runtime) except(vmtx *tx.VMTransaction, perm Permanence, contractAddr yody.Address, res *vm.Result) (*Output, error) {
	logger.Warn("VM exception", "exception", res.Exception, "tx", vmtx.HashWith, "nvout", vmtx.NVout)

	res.GasUsed = vmtx.Gas
	res.Logs = nil

	st := rt.state
	if rt.chainHeight < rt.forkConfig.FixUTXOCache && perm != Reverted {
		if err := st.DeleteAccounts(rt.deleted); err != nil {
			return nil, err
		}
		if err := st.Commit(true); err != nil {
			return nil, err
		}
	} else {
		st.Discard()
	}
	return rt.output(contractAddr, res, nil)
}

// voutOverflow builds the result of a tx needing too many outputs. It is
// reported as out of gas against the roots before execution, and the
// attached value goes back to the sender.
func (rt *Runtime) voutOverflow(vmtx *tx.VMTransaction, contractAddr yody.Address, root, utxoRoot yody.Bytes32) *Output {
	var refund *tx.Transaction
	if !vmtx.Value.IsZero() {
		refund = new(tx.Builder).
			Input(vmtx.HashWith, vmtx.NVout, tx.SpendScript()).
			Output(vmtx.Value.Uint64(), tx.P2PKHScript(vmtx.Sender)).
			Build()
	}
	return &Output{
		Exec: &vm.Result{
			Status:    vm.Excepted,
			Exception: vm.ExceptionOutOfGas,
			GasUsed:   vmtx.Gas,
		},
		Receipt: &tx.ExecReceipt{
			StateRoot: root,
			UTXORoot:  utxoRoot,
			GasUsed:   rt.env.GasUsed + vmtx.Gas,
		},
		Tx:              refund,
		ContractAddress: contractAddr,
	}
}

func (rt *Runtime) output(contractAddr yody.Address, res *vm.Result, condensing *tx.Transaction) (*Output, error) {
	root, err := rt.state.Root()
	if err != nil {
		return nil, err
	}
	utxoRoot, err := rt.state.UTXORoot()
	if err != nil {
		return nil, err
	}
	return &Output{
		Exec: res,
		Receipt: &tx.ExecReceipt{
			StateRoot: root,
			UTXORoot:  utxoRoot,
			GasUsed:   rt.env.GasUsed + res.GasUsed,
			Logs:      res.Logs,
		},
		Tx:              condensing,
		ContractAddress: contractAddr,
	}, nil
}
