// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yodynetwork/yody/logdb"
	"github.com/yodynetwork/yody/lvldb"
	"github.com/yodynetwork/yody/metrics"
	"github.com/yodynetwork/yody/receiptdb"
	"github.com/yodynetwork/yody/yody"
)

func init() {
	metrics.InitializePrometheusMetrics()
}

type captureLogger struct {
	records []string
}

func (l *captureLogger) record(msg string, ctx []any) {
	l.records = append(l.records, fmt.Sprint(append([]any{msg}, ctx...)...))
}

func (l *captureLogger) Trace(msg string, ctx ...any) { l.record(msg, ctx) }
func (l *captureLogger) Debug(msg string, ctx ...any) { l.record(msg, ctx) }
func (l *captureLogger) Info(msg string, ctx ...any)  { l.record(msg, ctx) }
func (l *captureLogger) Warn(msg string, ctx ...any)  { l.record(msg, ctx) }
func (l *captureLogger) Error(msg string, ctx ...any) { l.record(msg, ctx) }
func (l *captureLogger) Crit(msg string, ctx ...any)  { l.record(msg, ctx) }

func httpDo(t *testing.T, req *http.Request) (*http.Response, []byte) {
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, body
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	res, body := httpDo(t, req)
	return body, res.StatusCode
}

func initAPIServer(t *testing.T, opts Options) *httptest.Server {
	receiptDB, err := receiptdb.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { receiptDB.Close() })
	logDB, err := logdb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { logDB.Close() })

	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	router.PathPrefix("/").Handler(New(lvldb.NewMem(), receiptDB, logDB, nil, yody.AllForks, opts))
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts
}

func TestRoutes(t *testing.T) {
	ts := initAPIServer(t, Options{AllowedOrigins: "*", LogsLimit: 100})

	_, status := httpGet(t, ts.URL+"/accounts/"+yody.Address{}.String())
	assert.Equal(t, http.StatusOK, status)
	_, status = httpGet(t, ts.URL+"/vins")
	assert.Equal(t, http.StatusOK, status)
	_, status = httpGet(t, ts.URL+"/receipts/"+yody.Bytes32{}.String())
	assert.Equal(t, http.StatusNotFound, status)
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/logs/event", strings.NewReader("{}"))
	require.NoError(t, err)
	res, body := httpDo(t, req)
	assert.Equal(t, http.StatusOK, res.StatusCode, string(body))
	_, status = httpGet(t, ts.URL+"/unknown")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestCORS(t *testing.T) {
	ts := initAPIServer(t, Options{AllowedOrigins: " https://Example.com , https://other.com"})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/vins", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.com")
	res, _ := httpDo(t, req)
	assert.Equal(t, "https://example.com", res.Header.Get("Access-Control-Allow-Origin"))

	req, err = http.NewRequest(http.MethodGet, ts.URL+"/vins", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://evil.com")
	res, _ = httpDo(t, req)
	assert.Empty(t, res.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsMiddleware(t *testing.T) {
	ts := initAPIServer(t, Options{EnableMetrics: true})

	httpGet(t, ts.URL+"/accounts/0x")
	httpGet(t, ts.URL+"/accounts/"+yody.Address{}.String())
	httpGet(t, ts.URL+"/receipts/"+yody.Bytes32{}.String())

	body, _ := httpGet(t, ts.URL+"/metrics")
	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	require.NoError(t, err)

	family, ok := families["yody_api_request_count"]
	require.True(t, ok)

	counts := make(map[string]float64)
	for _, m := range family.GetMetric() {
		labels := make(map[string]string)
		for _, l := range m.GetLabel() {
			labels[l.GetName()] = l.GetValue()
		}
		assert.Equal(t, http.MethodGet, labels["method"])
		counts[labels["name"]+"/"+labels["code"]] = m.GetCounter().GetValue()
	}
	assert.Equal(t, float64(1), counts["accounts_address/200"])
	assert.Equal(t, float64(1), counts["accounts_address/400"])
	assert.Equal(t, float64(1), counts["receipts_id/404"])
}

func TestRequestLogger(t *testing.T) {
	logger := &captureLogger{}
	var received string
	handler := RequestLoggerHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		received = string(data)
	}), logger)

	req := httptest.NewRequest(http.MethodPost, "/accounts/0x01", strings.NewReader(`{"gas":1}`))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, `{"gas":1}`, received)
	require.Len(t, logger.records, 1)
	assert.Contains(t, logger.records[0], "API Request")
	assert.Contains(t, logger.records[0], "/accounts/0x01")
	assert.Contains(t, logger.records[0], `{"gas":1}`)
}
