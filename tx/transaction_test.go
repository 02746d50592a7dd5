// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx_test

import (
	"math"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"

	. "github.com/yodynetwork/yody/tx"
	"github.com/yodynetwork/yody/yody"
)

func TestTx(t *testing.T) {
	assert := assert.New(t)

	prev := yody.BytesToBytes32([]byte("prev"))
	tx := new(Builder).
		Input(prev, 1, SpendScript()).
		Output(100, P2PKHScript(yody.BytesToAddress([]byte("to")))).
		Build()
	data, _ := rlp.EncodeToBytes(tx)

	tx2 := Transaction{}
	assert.NoError(rlp.DecodeBytes(data, &tx2))
	data2, _ := rlp.EncodeToBytes(&tx2)
	assert.Equal(data, data2)
	assert.Equal(tx.ID(), tx2.ID())
	assert.Equal(yody.Blake2b(data), tx.ID())

	assert.Equal(OutPoint{TxID: prev, N: 1}, tx.Inputs()[0].Prevout)
	assert.Equal(uint64(100), tx.Outputs()[0].Value)
	assert.False(tx.IsEmpty())
	assert.True(new(Builder).Build().IsEmpty())
}

func TestTxCopies(t *testing.T) {
	tx := new(Builder).Output(1, []byte{OP_CALL}).Build()
	id := tx.ID()

	outs := tx.Outputs()
	outs[0].Script[0] = OP_CREATE
	outs[0].Value = 2
	assert.Equal(t, []byte{OP_CALL}, tx.Outputs()[0].Script)
	assert.Equal(t, id, tx.ID())
}

func TestTotalOutput(t *testing.T) {
	tx := new(Builder).Output(1, nil).Output(2, nil).Build()
	sum, ok := tx.TotalOutput()
	assert.True(t, ok)
	assert.Equal(t, uint64(3), sum)

	tx = new(Builder).Output(math.MaxUint64, nil).Output(1, nil).Build()
	_, ok = tx.TotalOutput()
	assert.False(t, ok)
}
