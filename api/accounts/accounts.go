// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/yodynetwork/yody/api/utils"
	"github.com/yodynetwork/yody/kv"
	"github.com/yodynetwork/yody/runtime"
	"github.com/yodynetwork/yody/state"
	"github.com/yodynetwork/yody/tx"
	"github.com/yodynetwork/yody/vm"
	"github.com/yodynetwork/yody/yody"
)

// defaultCallGas is used when a call gives no gas limit.
const defaultCallGas = 10_000_000

type Accounts struct {
	db         kv.Store
	executor   vm.Executor
	forkConfig yody.ForkConfig
}

// New creates the accounts API. A nil executor disables call simulation.
func New(db kv.Store, executor vm.Executor, forkConfig yody.ForkConfig) *Accounts {
	return &Accounts{
		db,
		executor,
		forkConfig,
	}
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := yody.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	st := state.New(a.db)
	balance, err := st.GetBalance(addr)
	if err != nil {
		return err
	}
	nonce, err := st.GetNonce(addr)
	if err != nil {
		return err
	}
	code, err := st.GetCode(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Account{
		Balance: (*math.HexOrDecimal256)(balance.ToBig()),
		Nonce:   nonce,
		HasCode: len(code) != 0,
	})
}

func (a *Accounts) handleGetCode(w http.ResponseWriter, req *http.Request) error {
	addr, err := yody.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	code, err := state.New(a.db).GetCode(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, map[string]string{"code": hexutil.Encode(code)})
}

func (a *Accounts) handleGetStorage(w http.ResponseWriter, req *http.Request) error {
	addr, err := yody.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	key, err := yody.ParseBytes32(mux.Vars(req)["key"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "key"))
	}
	value, err := state.New(a.db).GetStorage(addr, key)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, map[string]string{"value": value.String()})
}

func (a *Accounts) handleCallContract(w http.ResponseWriter, req *http.Request) error {
	addr, err := yody.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	var callData CallData
	if err := utils.ParseJSON(req.Body, &callData); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	vmtx, err := a.callTx(addr, &callData)
	if err != nil {
		return utils.BadRequest(err)
	}

	st := state.New(a.db)
	rt := runtime.New(st, a.executor, a.forkConfig, &vm.Env{GasLimit: vmtx.Gas}, 0, nil)
	out, err := rt.Execute(vmtx, runtime.Reverted, nil)
	if err != nil {
		return err
	}
	exception := out.Exec.Exception
	return utils.WriteJSON(w, &CallResult{
		Data:     out.Exec.Output,
		GasUsed:  out.Exec.GasUsed,
		Excepted: exception.Excepted(),
		VMError:  vmError(exception),
		Reverted: exception == vm.ExceptionRevertInstruction,
	})
}

func (a *Accounts) callTx(addr yody.Address, callData *CallData) (*tx.VMTransaction, error) {
	vmtx := &tx.VMTransaction{
		To:       &addr,
		Value:    new(uint256.Int),
		Gas:      callData.Gas,
		GasPrice: new(uint256.Int),
		Data:     callData.Data,
		Version:  yody.DefaultVMVersion,
	}
	if callData.Caller != nil {
		vmtx.Sender = *callData.Caller
	}
	if vmtx.Gas == 0 {
		vmtx.Gas = defaultCallGas
	}
	if callData.Value != nil {
		if overflow := vmtx.Value.SetFromBig((*big.Int)(callData.Value)); overflow {
			return nil, errors.New("value: overflow")
		}
	}
	if callData.GasPrice != nil {
		if overflow := vmtx.GasPrice.SetFromBig((*big.Int)(callData.GasPrice)); overflow {
			return nil, errors.New("gasPrice: overflow")
		}
	}
	return vmtx, nil
}

func vmError(e vm.Exception) string {
	if !e.Excepted() {
		return ""
	}
	return e.String()
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))
	sub.Path("/{address}/code").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(a.handleGetCode))
	sub.Path("/{address}/storage/{key}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(a.handleGetStorage))
	if a.executor != nil {
		sub.Path("/{address}").Methods(http.MethodPost).HandlerFunc(utils.WrapHandlerFunc(a.handleCallContract))
	}
}
