// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/yodynetwork/yody/api/accounts"
	"github.com/yodynetwork/yody/api/events"
	"github.com/yodynetwork/yody/api/receipts"
	"github.com/yodynetwork/yody/api/vins"
	"github.com/yodynetwork/yody/kv"
	"github.com/yodynetwork/yody/log"
	"github.com/yodynetwork/yody/logdb"
	"github.com/yodynetwork/yody/receiptdb"
	"github.com/yodynetwork/yody/vm"
	"github.com/yodynetwork/yody/yody"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins  string
	EnableReqLogger bool
	EnableMetrics   bool
	LogsLimit       uint64
}

// New return api router. A nil logDB disables event queries.
func New(
	db kv.Store,
	receiptDB *receiptdb.ReceiptDB,
	logDB *logdb.LogDB,
	executor vm.Executor,
	forkConfig yody.ForkConfig,
	opts Options,
) http.HandlerFunc {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	accounts.New(db, executor, forkConfig).
		Mount(router, "/accounts")
	vins.New(db).
		Mount(router, "/vins")
	receipts.New(receiptDB).
		Mount(router, "/receipts")
	if logDB != nil {
		events.New(logDB, opts.LogsLimit).
			Mount(router, "/logs/event")
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}

	return handler.ServeHTTP
}
