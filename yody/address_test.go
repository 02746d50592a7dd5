// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package yody

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0xabababababababababababababababababababab")
	require.NoError(t, err)
	assert.Equal(t, "0xabababababababababababababababababababab", addr.String())

	addr2, err := ParseAddress("abababababababababababababababababababab")
	require.NoError(t, err)
	assert.Equal(t, addr, addr2)

	_, err = ParseAddress("0xabab")
	assert.Error(t, err)
	_, err = ParseAddress("1xabababababababababababababababababababab")
	assert.Error(t, err)
}

func TestAddressJSON(t *testing.T) {
	addr := MustParseAddress("0x0101010101010101010101010101010101010101")
	data, err := json.Marshal(&addr)
	require.NoError(t, err)
	assert.Equal(t, `"0x0101010101010101010101010101010101010101"`, string(data))

	var decoded Address
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, addr, decoded)
}

func TestAddressCompare(t *testing.T) {
	a := BytesToAddress([]byte{1})
	b := BytesToAddress([]byte{2})
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
}

func TestCreateContractAddress(t *testing.T) {
	txID := Blake2b([]byte("tx"))

	a0 := CreateContractAddress(txID, 0)
	a1 := CreateContractAddress(txID, 1)

	assert.False(t, a0.IsZero())
	assert.NotEqual(t, a0, a1)
	assert.Equal(t, a0, CreateContractAddress(txID, 0))
}
