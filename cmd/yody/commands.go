// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/yodynetwork/yody/api"
	"github.com/yodynetwork/yody/metrics"
	"github.com/yodynetwork/yody/state"
	"github.com/yodynetwork/yody/yody"
)

func serveAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)
	forkConfig := mustLoadForkConfig(ctx)
	dataDir := makeDataDir(ctx)

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	stateDB := openStateDB(ctx, dataDir)
	defer func() { logger.Info("closing state database..."); stateDB.Close() }()

	receiptDB := openReceiptDB(dataDir)
	defer func() { logger.Info("closing receipt database..."); receiptDB.Close() }()

	logDB := openLogDB(dataDir)
	defer func() { logger.Info("closing log database..."); logDB.Close() }()

	// contract calls need a vm, the standalone server has none
	handler := api.New(stateDB, receiptDB, logDB, nil, forkConfig, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
		LogsLimit:       ctx.Uint64(apiLogsLimitFlag.Name),
	})
	apiURL, stopAPI, err := serveHTTP(ctx.String(apiAddrFlag.Name), handler)
	if err != nil {
		return errors.WithMessage(err, "api")
	}
	defer func() { logger.Info("stopping API server..."); stopAPI() }()

	if ctx.Bool(enableMetricsFlag.Name) {
		metricsURL, stopMetrics, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping metrics server..."); stopMetrics() }()
		logger.Info("metrics server started", "url", metricsURL)
	}

	logger.Info("API server started", "url", apiURL, "forks", forkConfig, "data-dir", dataDir)

	sigCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-sigCtx.Done()
	logger.Info("got interrupt, exiting...")
	return nil
}

func inspectReceiptsAction(ctx *cli.Context) error {
	initLogger(ctx)
	if ctx.NArg() != 1 {
		return errors.New("expect exactly one txid")
	}
	txID, err := yody.ParseBytes32(ctx.Args().First())
	if err != nil {
		return errors.WithMessage(err, "txid")
	}

	receiptDB := openReceiptDB(makeDataDir(ctx))
	defer receiptDB.Close()

	receipts, err := receiptDB.Get(txID)
	if err != nil {
		return err
	}
	if len(receipts) == 0 {
		return errors.Errorf("no receipts of %v", txID)
	}
	spew.Dump(receipts)
	return nil
}

func wipeReceiptsAction(ctx *cli.Context) error {
	initLogger(ctx)
	receiptDB := openReceiptDB(makeDataDir(ctx))
	defer receiptDB.Close()

	if err := receiptDB.Wipe(); err != nil {
		return err
	}
	logger.Info("receipts wiped")
	return nil
}

func dumpVinsAction(ctx *cli.Context) error {
	initLogger(ctx)
	stateDB := openStateDB(ctx, makeDataDir(ctx))
	defer stateDB.Close()

	vins, err := state.New(stateDB).Vins()
	if err != nil {
		return err
	}
	for _, addr := range sortedAddresses(vins) {
		v := vins[addr]
		fmt.Printf("%v %v:%d %v\n", addr, v.Hash, v.NVout, v.Value)
	}
	return nil
}

func dumpAccountsAction(ctx *cli.Context) error {
	initLogger(ctx)
	stateDB := openStateDB(ctx, makeDataDir(ctx))
	defer stateDB.Close()

	return state.New(stateDB).IterateAccounts(func(addr yody.Address, a *state.Account) bool {
		fmt.Printf("%v balance=%v nonce=%d code=%v\n", addr, a.Balance, a.Nonce, len(a.CodeHash) != 0)
		return true
	})
}

func sortedAddresses(vins map[yody.Address]*state.Vin) []yody.Address {
	addrs := make([]yody.Address, 0, len(vins))
	for addr := range vins {
		addrs = append(addrs, addr)
	}
	slices.SortFunc(addrs, yody.Address.Compare)
	return addrs
}
