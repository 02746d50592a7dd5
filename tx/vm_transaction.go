// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"math"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/yodynetwork/yody/yody"
)

var (
	// ErrInvalidContractScript is returned for outputs carrying OP_CREATE or
	// OP_CALL that do not follow the contract script templates.
	ErrInvalidContractScript = errors.New("invalid contract script")
	// ErrGasOverflow is returned when gas limit times gas price overflows.
	ErrGasOverflow = errors.New("gas overflow")
)

// VMTransaction is a contract invocation carried by an output of a UTXO transaction.
type VMTransaction struct {
	Sender   yody.Address
	To       *yody.Address // nil for contract creation
	Value    *uint256.Int
	Gas      uint64
	GasPrice *uint256.Int
	Data     []byte
	Version  yody.VMVersion
	HashWith yody.Bytes32 // id of the carrying tx
	NVout    uint32       // index of the carrying output
}

// IsCreation returns whether the tx deploys a contract.
func (t *VMTransaction) IsCreation() bool {
	return t.To == nil
}

// ContractAddress returns the target contract, derived from the carrying
// output for creations.
func (t *VMTransaction) ContractAddress() yody.Address {
	if t.To != nil {
		return *t.To
	}
	return yody.CreateContractAddress(t.HashWith, t.NVout)
}

// GasCost returns gas times gas price.
func (t *VMTransaction) GasCost() *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(t.Gas), t.GasPrice)
}

// CreateScript builds an OP_CREATE output script.
func CreateScript(version yody.VMVersion, gas, gasPrice uint64, data []byte) []byte {
	return new(ScriptBuilder).
		AddNumber(int64(version.Raw())).
		AddNumber(int64(gas)).
		AddNumber(int64(gasPrice)).
		AddData(data).
		AddOp(OP_CREATE).
		Script()
}

// CallScript builds an OP_CALL output script.
func CallScript(version yody.VMVersion, gas, gasPrice uint64, data []byte, to yody.Address) []byte {
	return new(ScriptBuilder).
		AddNumber(int64(version.Raw())).
		AddNumber(int64(gas)).
		AddNumber(int64(gasPrice)).
		AddData(data).
		AddData(to[:]).
		AddOp(OP_CALL).
		Script()
}

// ExtractVMTransactions parses the contract outputs of t, in output order.
// sender is the owner of the output spent by the first input.
// Outputs without OP_CREATE or OP_CALL are skipped, while a malformed
// contract output fails the whole extraction.
func ExtractVMTransactions(t *Transaction, sender yody.Address) ([]*VMTransaction, error) {
	var vmtxs []*VMTransaction
	for i, out := range t.body.Outputs {
		ops, err := ParseScript(out.Script)
		if err != nil || !hasContractOp(ops) {
			continue
		}
		vmtx, err := parseContractOutput(ops)
		if err != nil {
			return nil, errors.Wrapf(err, "output %d", i)
		}
		vmtx.Sender = sender
		vmtx.Value = uint256.NewInt(out.Value)
		vmtx.HashWith = t.ID()
		vmtx.NVout = uint32(i)
		vmtxs = append(vmtxs, vmtx)
	}
	return vmtxs, nil
}

func hasContractOp(ops []ScriptOp) bool {
	for _, op := range ops {
		if op.Opcode == OP_CREATE || op.Opcode == OP_CALL {
			return true
		}
	}
	return false
}

// parseContractOutput matches
//
//	version gasLimit gasPrice data OP_CREATE
//	version gasLimit gasPrice data address OP_CALL
func parseContractOutput(ops []ScriptOp) (*VMTransaction, error) {
	last := ops[len(ops)-1]
	args := ops[:len(ops)-1]
	for _, op := range args {
		if !op.IsPush() {
			return nil, ErrInvalidContractScript
		}
	}

	var to *yody.Address
	switch last.Opcode {
	case OP_CREATE:
		if len(args) != 4 {
			return nil, ErrInvalidContractScript
		}
	case OP_CALL:
		if len(args) != 5 || len(args[4].Data) != yody.AddressLength {
			return nil, ErrInvalidContractScript
		}
		addr := yody.BytesToAddress(args[4].Data)
		to = &addr
	default:
		return nil, ErrInvalidContractScript
	}

	version, err := args[0].Uint()
	if err != nil || version > math.MaxUint32 {
		return nil, ErrInvalidContractScript
	}
	gas, err := args[1].Uint()
	if err != nil {
		return nil, ErrInvalidContractScript
	}
	gasPrice, err := args[2].Uint()
	if err != nil {
		return nil, ErrInvalidContractScript
	}
	if gas > math.MaxInt64 || gasPrice > math.MaxInt64 {
		return nil, ErrGasOverflow
	}
	if gasPrice != 0 && gas > math.MaxInt64/gasPrice {
		return nil, ErrGasOverflow
	}

	return &VMTransaction{
		To:       to,
		Gas:      gas,
		GasPrice: uint256.NewInt(gasPrice),
		Data:     append([]byte(nil), args[3].Data...),
		Version:  yody.ParseVMVersion(uint32(version)),
	}, nil
}
