// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/yodynetwork/yody/log"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func newApp() *cli.App {
	return &cli.App{
		Version:   fullVersion(),
		Name:      "Yody",
		Usage:     "Contract state engine of the Yody network",
		Copyright: "2025 The Yody developers",
		Flags: []cli.Flag{
			dataDirFlag,
			forksFlag,
			verbosityFlag,
			cacheFlag,
		},
		Commands: []cli.Command{
			{
				Name:  "serve",
				Usage: "serve the state and receipts over HTTP",
				Flags: []cli.Flag{
					apiAddrFlag,
					apiCorsFlag,
					apiLogsLimitFlag,
					enableAPILogsFlag,
					enableMetricsFlag,
					metricsAddrFlag,
				},
				Action: serveAction,
			},
			{
				Name:  "inspect",
				Usage: "inspect stored data",
				Subcommands: []cli.Command{
					{
						Name:      "receipts",
						Usage:     "dump the receipts of a transaction",
						ArgsUsage: "<txid>",
						Action:    inspectReceiptsAction,
					},
				},
			},
			{
				Name:  "wipe",
				Usage: "wipe stored data",
				Subcommands: []cli.Command{
					{
						Name:   "receipts",
						Usage:  "delete every stored receipt",
						Action: wipeReceiptsAction,
					},
				},
			},
			{
				Name:  "dump",
				Usage: "dump the state",
				Subcommands: []cli.Command{
					{
						Name:   "vins",
						Usage:  "print all spendable contract outputs",
						Action: dumpVinsAction,
					},
					{
						Name:   "accounts",
						Usage:  "print all accounts",
						Action: dumpAccountsAction,
					},
				},
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
