// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vmtest provides a scripted executor for tests.
package vmtest

import (
	"github.com/holiman/uint256"

	"github.com/yodynetwork/yody/tx"
	"github.com/yodynetwork/yody/vm"
	"github.com/yodynetwork/yody/yody"
)

// Op is a scripted step run against the state after the value transfer.
// A non-nil error excepts the execution.
type Op func(st vm.StateDB, msg *vm.Message) error

// Executor mimics the top level flow of a contract execution:
// buy gas, transfer value, run ops, refund unused gas and pay the author.
type Executor struct {
	Ops       []Op
	GasUsed   uint64
	Logs      tx.Logs
	Exception vm.Exception // excepts after ops run
	Abort     bool         // aborts before touching the state

	Calls []*vm.Message
}

var _ vm.Executor = (*Executor)(nil)

// Execute implements vm.Executor.
func (e *Executor) Execute(env *vm.Env, st vm.StateDB, msg *vm.Message, onOp vm.OnOpFunc) *vm.Result {
	e.Calls = append(e.Calls, msg)
	if e.Abort {
		return &vm.Result{Status: vm.Aborted, Exception: vm.ExceptionUnknown}
	}

	gasCost := new(uint256.Int).Mul(uint256.NewInt(msg.Gas), msg.GasPrice)
	if err := st.SubBalance(msg.Sender, gasCost); err != nil {
		return &vm.Result{Status: vm.Aborted, Exception: vm.ExceptionNotEnoughCash}
	}

	rev := st.NewCheckpoint()
	exception := e.Exception
	if err := st.TransferBalance(msg.Sender, msg.Contract, msg.Value); err != nil {
		exception = vm.ExceptionNotEnoughCash
	}
	for pc, op := range e.Ops {
		if exception.Excepted() {
			break
		}
		if onOp != nil {
			onOp(uint64(pc), 0, msg.Gas, 0)
		}
		if err := op(st, msg); err != nil {
			exception = vm.ExceptionRevertInstruction
		}
	}

	gasUsed := min(e.GasUsed, msg.Gas)
	res := &vm.Result{GasUsed: gasUsed, Logs: e.Logs}
	if exception.Excepted() {
		st.RevertTo(rev)
		res = &vm.Result{Status: vm.Excepted, Exception: exception, GasUsed: msg.Gas}
	}

	refund := new(uint256.Int).Mul(uint256.NewInt(msg.Gas-res.GasUsed), msg.GasPrice)
	fee := new(uint256.Int).Mul(uint256.NewInt(res.GasUsed), msg.GasPrice)
	_ = st.AddBalance(msg.Sender, refund)
	_ = st.AddBalance(env.Author, fee)
	return res
}

// Transfer returns an op moving value from the contract to addr.
func Transfer(to yody.Address, value uint64) Op {
	return func(st vm.StateDB, msg *vm.Message) error {
		return st.TransferBalance(msg.Contract, to, uint256.NewInt(value))
	}
}

// TransferFrom returns an op moving value between two addresses.
func TransferFrom(from, to yody.Address, value uint64) Op {
	return func(st vm.StateDB, _ *vm.Message) error {
		return st.TransferBalance(from, to, uint256.NewInt(value))
	}
}

// Deploy returns an op setting code of the contract.
func Deploy(code []byte) Op {
	return func(st vm.StateDB, msg *vm.Message) error {
		return st.SetCode(msg.Contract, code)
	}
}

// Reverted returns an op that runs ops in a nested call and reverts it,
// keeping the call's transfers recorded.
func Reverted(ops ...Op) Op {
	return func(st vm.StateDB, msg *vm.Message) error {
		rev := st.NewCheckpoint()
		for _, op := range ops {
			if err := op(st, msg); err != nil {
				break
			}
		}
		st.RevertTo(rev)
		return nil
	}
}
