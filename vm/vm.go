// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package vm defines the boundary to the contract virtual machine.
// The interpreter itself lives outside this module and plugs in as an Executor.
package vm

import (
	"github.com/holiman/uint256"

	"github.com/yodynetwork/yody/tx"
	"github.com/yodynetwork/yody/yody"
)

// Env is the block environment of an execution.
type Env struct {
	Author   yody.Address
	Number   uint32
	Time     uint64
	GasLimit uint64
	GasUsed  uint64 // gas used by the block before the tx
}

// Message is a contract call or creation handed to the executor.
type Message struct {
	Sender   yody.Address
	To       *yody.Address // nil for creation
	Contract yody.Address  // target contract, the new address for creation
	Value    *uint256.Int
	Gas      uint64
	GasPrice *uint256.Int
	Data     []byte
}

// Status is the outcome kind of an execution.
type Status uint8

// Execution statuses.
const (
	// Succeeded execution, changes kept.
	Succeeded Status = iota
	// Excepted by the VM. The executor has reverted its own changes.
	Excepted
	// Aborted before execution. The caller must revert the whole tx.
	Aborted
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Excepted:
		return "excepted"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

// Result is the output of an execution.
type Result struct {
	Status    Status
	Exception Exception
	GasUsed   uint64
	Output    []byte
	Logs      tx.Logs
}

// StateDB is the ledger view the executor mutates.
type StateDB interface {
	Exists(addr yody.Address) (bool, error)
	IsEmpty(addr yody.Address) (bool, error)

	GetBalance(addr yody.Address) (*uint256.Int, error)
	AddBalance(addr yody.Address, amount *uint256.Int) error
	SubBalance(addr yody.Address, amount *uint256.Int) error
	TransferBalance(from, to yody.Address, value *uint256.Int) error

	GetNonce(addr yody.Address) (uint64, error)
	SetNonce(addr yody.Address, nonce uint64) error

	GetCode(addr yody.Address) ([]byte, error)
	GetCodeHash(addr yody.Address) (yody.Bytes32, error)
	SetCode(addr yody.Address, code []byte) error

	GetStorage(addr yody.Address, key yody.Bytes32) (yody.Bytes32, error)
	SetStorage(addr yody.Address, key, value yody.Bytes32)

	Kill(addr yody.Address) error

	NewCheckpoint() int
	RevertTo(revision int)
}

// OnOpFunc is called before each executed opcode, for tracing.
type OnOpFunc func(pc uint64, op byte, gas uint64, depth int)

// Executor runs messages against a StateDB.
type Executor interface {
	Execute(env *Env, st StateDB, msg *Message, onOp OnOpFunc) *Result
}
