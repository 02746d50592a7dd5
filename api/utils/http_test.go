// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapHandlerFunc(t *testing.T) {
	for _, tc := range []struct {
		err    error
		status int
		body   string
	}{
		{nil, http.StatusOK, `{"ok":true}`},
		{BadRequest(errors.New("address: invalid length")), http.StatusBadRequest, "address: invalid length"},
		{NotFound("receipt"), http.StatusNotFound, "receipt not found"},
		{errors.WithMessage(NotFound("vin"), "wrapped"), http.StatusNotFound, "vin not found"},
		{errors.New("boom"), http.StatusInternalServerError, "boom"},
	} {
		h := WrapHandlerFunc(func(w http.ResponseWriter, _ *http.Request) error {
			if tc.err != nil {
				return tc.err
			}
			return WriteJSON(w, map[string]bool{"ok": true})
		})
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, tc.status, rec.Code)
		assert.Equal(t, tc.body, strings.TrimSpace(rec.Body.String()))
	}
}

func TestParseJSON(t *testing.T) {
	var v struct {
		Gas uint64 `json:"gas"`
	}
	require.NoError(t, ParseJSON(strings.NewReader(`{"gas":1}`), &v))
	assert.Equal(t, uint64(1), v.Gas)
	assert.Error(t, ParseJSON(strings.NewReader(`{"gas":1,"extra":2}`), &v))
}
