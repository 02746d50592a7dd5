// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package receipts

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yodynetwork/yody/receiptdb"
	"github.com/yodynetwork/yody/tx"
	"github.com/yodynetwork/yody/vm"
	"github.com/yodynetwork/yody/yody"
)

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url) // nolint:gosec
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func TestReceipts(t *testing.T) {
	db, err := receiptdb.Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	txID := yody.Blake2b([]byte("tx"))
	logs := tx.Logs{{Address: yody.BytesToAddress([]byte("contract")), Data: []byte{1}}}
	db.Put(txID, []*receiptdb.Receipt{{
		TxHash:      txID,
		BlockNumber: 7,
		GasUsed:     21000,
		Logs:        logs,
		Exception:   vm.ExceptionRevertInstruction,
		OutputIndex: 1,
		Bloom:       logs.Bloom(),
	}})
	require.NoError(t, db.Commit())

	router := mux.NewRouter()
	New(db).Mount(router, "/receipts")
	ts := httptest.NewServer(router)
	defer ts.Close()

	body, status := httpGet(t, ts.URL+"/receipts/"+txID.String())
	require.Equal(t, http.StatusOK, status, string(body))

	var receipts []*Receipt
	require.NoError(t, json.Unmarshal(body, &receipts))
	require.Len(t, receipts, 1)
	assert.Equal(t, txID, receipts[0].TxID)
	assert.Equal(t, uint32(7), receipts[0].BlockNumber)
	assert.Equal(t, "RevertInstruction", receipts[0].Excepted)
	assert.Equal(t, uint32(1), receipts[0].OutputIndex)
	require.Len(t, receipts[0].Logs, 1)
	assert.Equal(t, []byte{1}, []byte(receipts[0].Logs[0].Data))
	assert.Len(t, receipts[0].Bloom, 256)

	_, status = httpGet(t, ts.URL+"/receipts/"+yody.Blake2b([]byte("unknown")).String())
	assert.Equal(t, http.StatusNotFound, status)

	_, status = httpGet(t, ts.URL+"/receipts/0xzz")
	assert.Equal(t, http.StatusBadRequest, status)
}
