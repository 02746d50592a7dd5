// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yodynetwork/yody/kv"
	"github.com/yodynetwork/yody/lvldb"
	"github.com/yodynetwork/yody/state"
	"github.com/yodynetwork/yody/vm"
	"github.com/yodynetwork/yody/yody"
)

var (
	addr       = yody.BytesToAddress([]byte("to"))
	contract   = yody.BytesToAddress([]byte("contract"))
	storageKey = yody.BytesToBytes32([]byte("key"))
	storageVal = yody.BytesToBytes32([]byte("value"))
	code       = []byte{0x11, 0x12}
)

// echoExecutor stores the call data and echoes it back, reverting on empty data.
type echoExecutor struct{}

func (echoExecutor) Execute(_ *vm.Env, st vm.StateDB, msg *vm.Message, _ vm.OnOpFunc) *vm.Result {
	if len(msg.Data) == 0 {
		return &vm.Result{Status: vm.Excepted, Exception: vm.ExceptionRevertInstruction, GasUsed: msg.Gas}
	}
	st.SetStorage(msg.Contract, storageKey, yody.BytesToBytes32(msg.Data))
	return &vm.Result{Output: msg.Data, GasUsed: 1000}
}

func initAccountServer(t *testing.T, executor vm.Executor) (*httptest.Server, kv.Store) {
	db := lvldb.NewMem()
	st := state.New(db)
	require.NoError(t, st.AddBalance(addr, uint256.NewInt(42)))
	require.NoError(t, st.SetNonce(addr, 3))
	require.NoError(t, st.SetCode(contract, code))
	st.SetStorage(contract, storageKey, storageVal)
	require.NoError(t, st.Commit(false))
	require.NoError(t, st.Flush())

	router := mux.NewRouter()
	New(db, executor, yody.AllForks).Mount(router, "/accounts")
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, db
}

func httpDo(t *testing.T, method, url string, body any) ([]byte, int) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return data, res.StatusCode
}

func TestGetAccount(t *testing.T) {
	ts, _ := initAccountServer(t, nil)

	body, status := httpDo(t, http.MethodGet, ts.URL+"/accounts/"+addr.String(), nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var acc Account
	require.NoError(t, json.Unmarshal(body, &acc))
	assert.Equal(t, big.NewInt(42), (*big.Int)(acc.Balance))
	assert.Equal(t, uint64(3), acc.Nonce)
	assert.False(t, acc.HasCode)

	body, status = httpDo(t, http.MethodGet, ts.URL+"/accounts/"+contract.String(), nil)
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &acc))
	assert.True(t, acc.HasCode)

	_, status = httpDo(t, http.MethodGet, ts.URL+"/accounts/0xbad", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestGetCodeAndStorage(t *testing.T) {
	ts, _ := initAccountServer(t, nil)

	body, status := httpDo(t, http.MethodGet, ts.URL+"/accounts/"+contract.String()+"/code", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	var res map[string]string
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, hexutil.Encode(code), res["code"])

	body, status = httpDo(t, http.MethodGet, ts.URL+"/accounts/"+contract.String()+"/storage/"+storageKey.String(), nil)
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, storageVal.String(), res["value"])

	_, status = httpDo(t, http.MethodGet, ts.URL+"/accounts/"+contract.String()+"/storage/0x01", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCallContract(t *testing.T) {
	ts, db := initAccountServer(t, echoExecutor{})

	body, status := httpDo(t, http.MethodPost, ts.URL+"/accounts/"+contract.String(), &CallData{
		Data: []byte{0xca, 0xfe},
		Gas:  50000,
	})
	require.Equal(t, http.StatusOK, status, string(body))
	var res CallResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, hexutil.Bytes{0xca, 0xfe}, res.Data)
	assert.Equal(t, uint64(1000), res.GasUsed)
	assert.False(t, res.Excepted)
	assert.Empty(t, res.VMError)

	// simulated calls leave no trace
	val, err := state.New(db).GetStorage(contract, storageKey)
	require.NoError(t, err)
	assert.Equal(t, storageVal, val)

	body, status = httpDo(t, http.MethodPost, ts.URL+"/accounts/"+contract.String(), &CallData{Gas: 50000})
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &res))
	assert.True(t, res.Excepted)
	assert.True(t, res.Reverted)
	assert.Equal(t, "RevertInstruction", res.VMError)
	assert.Equal(t, uint64(50000), res.GasUsed)

	_, status = httpDo(t, http.MethodPost, ts.URL+"/accounts/"+contract.String(), map[string]any{"unknown": 1})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCallDisabled(t *testing.T) {
	ts, _ := initAccountServer(t, nil)

	_, status := httpDo(t, http.MethodPost, ts.URL+"/accounts/"+contract.String(), &CallData{Data: []byte{1}})
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}
