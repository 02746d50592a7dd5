// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package receipts

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/yodynetwork/yody/api/utils"
	"github.com/yodynetwork/yody/receiptdb"
	"github.com/yodynetwork/yody/yody"
)

type Receipts struct {
	db *receiptdb.ReceiptDB
}

func New(db *receiptdb.ReceiptDB) *Receipts {
	return &Receipts{db}
}

func (r *Receipts) handleGetReceipts(w http.ResponseWriter, req *http.Request) error {
	txID, err := yody.ParseBytes32(mux.Vars(req)["id"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "id"))
	}
	receipts, err := r.db.Get(txID)
	if err != nil {
		return err
	}
	if len(receipts) == 0 {
		return utils.NotFound("receipts")
	}

	result := make([]*Receipt, 0, len(receipts))
	for _, rc := range receipts {
		result = append(result, convertReceipt(rc))
	}
	return utils.WriteJSON(w, result)
}

func (r *Receipts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{id}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(r.handleGetReceipts))
}
