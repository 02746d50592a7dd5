// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vins

import (
	"net/http"
	"sort"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/yodynetwork/yody/api/utils"
	"github.com/yodynetwork/yody/kv"
	"github.com/yodynetwork/yody/state"
	"github.com/yodynetwork/yody/yody"
)

type Vins struct {
	db kv.Store
}

func New(db kv.Store) *Vins {
	return &Vins{db}
}

func (v *Vins) handleGetVins(w http.ResponseWriter, _ *http.Request) error {
	vins, err := state.New(v.db).Vins()
	if err != nil {
		return err
	}
	result := make([]*Vin, 0, len(vins))
	for addr, vin := range vins {
		result = append(result, convertVin(addr, vin))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Address.Compare(result[j].Address) < 0
	})
	return utils.WriteJSON(w, result)
}

func (v *Vins) handleGetVin(w http.ResponseWriter, req *http.Request) error {
	addr, err := yody.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	vin, err := state.New(v.db).GetVin(addr)
	if err != nil {
		return err
	}
	if vin == nil {
		return utils.NotFound("vin")
	}
	return utils.WriteJSON(w, convertVin(addr, vin))
}

func (v *Vins) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(v.handleGetVins))
	sub.Path("/{address}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(v.handleGetVin))
}
