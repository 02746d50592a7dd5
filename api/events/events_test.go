// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yodynetwork/yody/logdb"
	"github.com/yodynetwork/yody/receiptdb"
	"github.com/yodynetwork/yody/tx"
	"github.com/yodynetwork/yody/yody"
)

var (
	contract = yody.BytesToAddress([]byte("contract"))
	other    = yody.BytesToAddress([]byte("other"))
	topic    = yody.BytesToBytes32([]byte("topic"))
)

func initEventServer(t *testing.T, limit uint64) *httptest.Server {
	db, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	w := db.NewWriter()
	for i := uint32(1); i <= 3; i++ {
		require.NoError(t, w.Write([]*receiptdb.Receipt{{
			BlockNumber: i,
			TxHash:      yody.Blake2b([]byte{byte(i)}),
			Logs: tx.Logs{
				{Address: contract, Topics: []yody.Bytes32{topic}, Data: []byte{byte(i)}},
				{Address: other, Data: []byte{byte(i * 10)}},
			},
		}}))
	}
	require.NoError(t, w.Commit())

	router := mux.NewRouter()
	New(db, limit).Mount(router, "/logs/event")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func httpPost(t *testing.T, url string, body any) ([]byte, int) {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(data)) // nolint:gosec
	require.NoError(t, err)
	defer res.Body.Close()
	r, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return r, res.StatusCode
}

func filterEvents(t *testing.T, ts *httptest.Server, filter any) []*FilteredEvent {
	body, status := httpPost(t, ts.URL+"/logs/event", filter)
	require.Equal(t, http.StatusOK, status, string(body))
	var events []*FilteredEvent
	require.NoError(t, json.Unmarshal(body, &events))
	return events
}

func u32(v uint32) *uint32 { return &v }
func u64(v uint64) *uint64 { return &v }

func TestFilterEvents(t *testing.T) {
	ts := initEventServer(t, 100)

	events := filterEvents(t, ts, &EventFilter{})
	assert.Len(t, events, 6)

	events = filterEvents(t, ts, &EventFilter{
		CriteriaSet: []*EventCriteria{{Address: &contract, Topic0: &topic}},
		Range:       &Range{From: u32(2)},
		Order:       logdb.DESC,
	})
	require.Len(t, events, 2)
	assert.Equal(t, []byte{3}, []byte(events[0].Data))
	assert.Equal(t, []yody.Bytes32{topic}, events[0].Topics)
	assert.Equal(t, uint32(3), events[0].Meta.BlockNumber)
	assert.Equal(t, yody.Blake2b([]byte{3}), events[0].Meta.TxID)
	assert.Equal(t, uint32(2), events[1].Meta.BlockNumber)

	events = filterEvents(t, ts, &EventFilter{
		CriteriaSet: []*EventCriteria{{Address: &other}},
		Options:     &Options{Offset: 1, Limit: u64(1)},
	})
	require.Len(t, events, 1)
	assert.Equal(t, []byte{20}, []byte(events[0].Data))
	assert.Empty(t, events[0].Topics)
}

func TestFilterLimit(t *testing.T) {
	ts := initEventServer(t, 2)

	events := filterEvents(t, ts, &EventFilter{})
	assert.Len(t, events, 2)

	_, status := httpPost(t, ts.URL+"/logs/event", &EventFilter{Options: &Options{Limit: u64(3)}})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestBadFilter(t *testing.T) {
	ts := initEventServer(t, 100)

	_, status := httpPost(t, ts.URL+"/logs/event", &EventFilter{Order: "random"})
	assert.Equal(t, http.StatusBadRequest, status)

	_, status = httpPost(t, ts.URL+"/logs/event", &EventFilter{Range: &Range{From: u32(3), To: u32(1)}})
	assert.Equal(t, http.StatusBadRequest, status)

	_, status = httpPost(t, ts.URL+"/logs/event", map[string]any{"unknown": true})
	assert.Equal(t, http.StatusBadRequest, status)
}
