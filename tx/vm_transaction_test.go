// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx_test

import (
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/yodynetwork/yody/tx"
	"github.com/yodynetwork/yody/yody"
)

const (
	testValue    = uint64(5000000000 - 1000)
	testGasPrice = uint64(3)
	testGasLimit = uint64(655535)
)

var (
	testAddress = yody.MustParseAddress("0xabababababababababababababababababababab")
	testData    = hexutil.MustDecode("0x6060604052346000575b60398060166000396000f30060606040525b600b5b5b565b0000a165627a7a72305820a5e02d6fa08a384e067a4c1f749729c502e7597980b427d287386aa006e49d6d0029")
)

func createScript() []byte {
	return CreateScript(yody.DefaultVMVersion, testGasLimit, testGasPrice, testData)
}

func callScript() []byte {
	return CallScript(yody.DefaultVMVersion, testGasLimit, testGasPrice, testData, testAddress)
}

func buildTx(n int, script1, script2 []byte) *Transaction {
	b := new(Builder).Input(yody.BytesToBytes32([]byte("parent")), 0, []byte{OP_1})
	for i := range n {
		if script2 == nil || i < n/2 {
			b.Output(testValue, script1)
		} else {
			b.Output(testValue, script2)
		}
	}
	return b.Build()
}

func checkResult(t *testing.T, isCreation bool, vmtxs []*VMTransaction, tx *Transaction) {
	for i, vmtx := range vmtxs {
		assert.Equal(t, isCreation, vmtx.IsCreation())
		if !isCreation {
			assert.Equal(t, testAddress, *vmtx.To)
		}
		assert.Equal(t, testData, vmtx.Data)
		assert.Equal(t, uint256.NewInt(testValue), vmtx.Value)
		assert.Equal(t, uint256.NewInt(testGasPrice), vmtx.GasPrice)
		assert.Equal(t, testGasLimit, vmtx.Gas)
		assert.Equal(t, testAddress, vmtx.Sender)
		assert.Equal(t, uint32(i), vmtx.NVout)
		assert.Equal(t, tx.ID(), vmtx.HashWith)
		assert.Equal(t, yody.DefaultVMVersion, vmtx.Version)
	}
}

func TestExtractVMTransactions(t *testing.T) {
	tests := []struct {
		name       string
		isCreation bool
		n          int
		script1    []byte
		script2    []byte
		want       int
	}{
		{"create", true, 1, createScript(), nil, 1},
		{"call", false, 1, callScript(), nil, 1},
		{"call mixed", false, 2, callScript(), []byte{OP_1}, 1},
		{"create many vout", true, 120, createScript(), nil, 120},
		{"create many vout mixed", true, 120, createScript(), []byte{OP_1}, 60},
		{"call many vout", false, 120, callScript(), nil, 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := buildTx(tt.n, tt.script1, tt.script2)
			vmtxs, err := ExtractVMTransactions(tx, testAddress)
			require.NoError(t, err)
			assert.Len(t, vmtxs, tt.want)
			checkResult(t, tt.isCreation, vmtxs, tx)
		})
	}
}

func TestExtractVMTransactionsInvalid(t *testing.T) {
	version := int64(yody.DefaultVMVersion.Raw())
	base := func() *ScriptBuilder {
		return new(ScriptBuilder).
			AddNumber(version).
			AddNumber(int64(testGasLimit)).
			AddNumber(int64(testGasPrice))
	}

	tests := []struct {
		name    string
		script1 []byte
		script2 []byte
	}{
		{"create many", createScript(), base().AddData(testData).AddData(testAddress[:]).AddOp(OP_CREATE).Script()},
		{"create few", createScript(), base().AddOp(OP_CREATE).Script()},
		{"call many", callScript(), base().AddData(testData).AddData(testAddress[:]).AddData(testAddress[:]).AddOp(OP_CALL).Script()},
		{"call few", callScript(), base().AddData(testData).AddOp(OP_CALL).Script()},
		{"call bad address", callScript(), base().AddData(testData).AddData([]byte{1, 2}).AddOp(OP_CALL).Script()},
		{"call overflow", callScript(), new(ScriptBuilder).
			AddNumber(version).
			AddData([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x1e, 0x84, 0x80}).
			AddData([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01}).
			AddData(testData).
			AddData(testAddress[:]).
			AddOp(OP_CALL).
			Script()},
		{"gas times price overflow", callScript(), new(ScriptBuilder).
			AddNumber(version).
			AddNumber(1 << 40).
			AddNumber(1 << 30).
			AddData(testData).
			AddData(testAddress[:]).
			AddOp(OP_CALL).
			Script()},
		{"trailing op", callScript(), append(callScript(), OP_DUP)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractVMTransactions(buildTx(120, tt.script1, tt.script2), testAddress)
			assert.Error(t, err)
		})
	}
}

func TestContractAddress(t *testing.T) {
	txid := yody.BytesToBytes32([]byte("txid"))
	to := yody.BytesToAddress([]byte("to"))

	create := &VMTransaction{HashWith: txid, NVout: 2}
	assert.Equal(t, yody.CreateContractAddress(txid, 2), create.ContractAddress())

	call := &VMTransaction{To: &to, HashWith: txid}
	assert.Equal(t, to, call.ContractAddress())

	call.Gas, call.GasPrice = 10, uint256.NewInt(3)
	assert.Equal(t, uint256.NewInt(30), call.GasCost())
}
