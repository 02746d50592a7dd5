// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yodynetwork/yody/receiptdb"
	"github.com/yodynetwork/yody/tx"
	"github.com/yodynetwork/yody/yody"
)

var (
	contract1 = yody.BytesToAddress([]byte("contract1"))
	contract2 = yody.BytesToAddress([]byte("contract2"))
	sender    = yody.BytesToAddress([]byte("sender"))
	topicA    = yody.BytesToBytes32([]byte("A"))
	topicB    = yody.BytesToBytes32([]byte("B"))
)

func newReceipt(blockNum uint32, txID yody.Bytes32, logs ...*tx.Log) *receiptdb.Receipt {
	return &receiptdb.Receipt{
		BlockHash:   yody.Blake2b([]byte{byte(blockNum)}),
		BlockNumber: blockNum,
		TxHash:      txID,
		Sender:      sender,
		OutputIndex: 1,
		Logs:        logs,
	}
}

func newLog(addr yody.Address, data byte, topics ...yody.Bytes32) *tx.Log {
	return &tx.Log{Address: addr, Topics: topics, Data: []byte{data}}
}

func newTestDB(t *testing.T) (*LogDB, []yody.Bytes32) {
	db, err := NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	txs := []yody.Bytes32{
		yody.Blake2b([]byte("tx1")),
		yody.Blake2b([]byte("tx2")),
		yody.Blake2b([]byte("tx3")),
	}
	w := db.NewWriter()
	require.NoError(t, w.Write([]*receiptdb.Receipt{
		newReceipt(1, txs[0], newLog(contract1, 1, topicA), newLog(contract2, 2, topicB)),
		newReceipt(1, txs[1], newLog(contract1, 3, topicA, topicB)),
		newReceipt(2, txs[2], newLog(contract2, 4), newLog(contract1, 5, topicB)),
		newReceipt(2, txs[2]), // excepted, no logs
	}))
	assert.Equal(t, 5, w.UncommittedCount())
	require.NoError(t, w.Commit())
	assert.Equal(t, 0, w.UncommittedCount())
	return db, txs
}

func eventData(events []*Event) []byte {
	var data []byte
	for _, ev := range events {
		data = append(data, ev.Data...)
	}
	return data
}

func TestWriteAndFilterAll(t *testing.T) {
	db, txs := newTestDB(t)

	events, err := db.FilterEvents(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, events, 5)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, eventData(events))

	ev := events[2]
	assert.Equal(t, uint32(1), ev.BlockNumber)
	assert.Equal(t, uint32(2), ev.Index)
	assert.Equal(t, txs[1], ev.TxID)
	assert.Equal(t, uint32(1), ev.OutputIndex)
	assert.Equal(t, sender, ev.Sender)
	assert.Equal(t, contract1, ev.Address)
	assert.Equal(t, topicA, *ev.Topics[0])
	assert.Equal(t, topicB, *ev.Topics[1])
	assert.Nil(t, ev.Topics[2])

	// index restarts per block
	assert.Equal(t, uint32(2), events[3].BlockNumber)
	assert.Equal(t, uint32(0), events[3].Index)

	num, ok, err := db.NewestBlockNumber()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(2), num)
}

func TestFilterEvents(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter *EventFilter
		want   []byte
	}{
		{"address", &EventFilter{CriteriaSet: []*EventCriteria{{Address: &contract1}}}, []byte{1, 3, 5}},
		{"topic0", &EventFilter{CriteriaSet: []*EventCriteria{{Topics: [MaxTopics]*yody.Bytes32{&topicB}}}}, []byte{2, 5}},
		{"topic1", &EventFilter{CriteriaSet: []*EventCriteria{{Topics: [MaxTopics]*yody.Bytes32{nil, &topicB}}}}, []byte{3}},
		{"address and topic", &EventFilter{CriteriaSet: []*EventCriteria{{Address: &contract1, Topics: [MaxTopics]*yody.Bytes32{&topicB}}}}, []byte{5}},
		{"any criteria", &EventFilter{CriteriaSet: []*EventCriteria{
			{Address: &contract2},
			{Topics: [MaxTopics]*yody.Bytes32{&topicA, &topicB}},
		}}, []byte{2, 3, 4}},
		{"range", &EventFilter{Range: &Range{From: 2, To: 2}}, []byte{4, 5}},
		{"open range", &EventFilter{Range: &Range{From: 2, To: 0}}, []byte{4, 5}},
		{"desc", &EventFilter{Order: DESC}, []byte{5, 4, 3, 2, 1}},
		{"limit", &EventFilter{Options: &Options{Offset: 1, Limit: 2}}, []byte{2, 3}},
		{"range and address", &EventFilter{
			Range:       &Range{From: 1, To: 1},
			CriteriaSet: []*EventCriteria{{Address: &contract2}},
		}, []byte{2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := db.FilterEvents(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, eventData(events))
		})
	}
}

func TestTruncateAndDelete(t *testing.T) {
	db, txs := newTestDB(t)
	ctx := context.Background()

	w := db.NewWriter()
	require.NoError(t, w.DeleteTxs([]yody.Bytes32{txs[1]}))
	require.NoError(t, w.Commit())
	events, err := db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 4, 5}, eventData(events))

	require.NoError(t, w.Truncate(2))
	require.NoError(t, w.Commit())
	events, err = db.FilterEvents(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, eventData(events))

	require.NoError(t, w.Truncate(0))
	require.NoError(t, w.Commit())
	_, ok, err := db.NewestBlockNumber()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRollback(t *testing.T) {
	db, _ := newTestDB(t)

	w := db.NewWriter()
	require.NoError(t, w.Write([]*receiptdb.Receipt{
		newReceipt(3, yody.Blake2b([]byte("tx4")), newLog(contract1, 6)),
	}))
	require.NoError(t, w.Rollback())

	num, _, err := db.NewestBlockNumber()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), num)
}

func TestTooManyTopics(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	w := db.NewWriter()
	topics := []yody.Bytes32{topicA, topicA, topicA, topicA, topicA}
	assert.Error(t, w.Write([]*receiptdb.Receipt{newReceipt(1, yody.Bytes32{}, newLog(contract1, 1, topics...))}))
	require.NoError(t, w.Rollback())
}
