// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for ledger databases",
	}
	genesisFlag = cli.StringFlag{
		Name:  "genesis",
		Usage: "path to a genesis file (.json, .yaml or .yml), the devnet genesis when unset",
	}
	persistFlag = cli.BoolFlag{
		Name:  "persist",
		Usage: "keep the ledger in data dir instead of memory when serving",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8669",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}
	epochIntervalFlag = cli.DurationFlag{
		Name:  "epoch-interval",
		Usage: "advance the epoch on this wall clock interval, the genesis epoch length in seconds when unset",
	}

	// exec
	callerFlag = cli.StringFlag{
		Name:  "caller",
		Usage: "address submitting the clause",
	}
	methodFlag = cli.StringFlag{
		Name:  "method",
		Usage: "clause method, e.g. join, delegate, announceDelegatorLeave",
	}
	validatorFlag = cli.StringFlag{
		Name:  "validator",
		Usage: "target validator, or the source validator of a redelegation",
	}
	toFlag = cli.StringFlag{
		Name:  "to",
		Usage: "redelegation target, transfer recipient, approval spender or new params owner",
	}
	amountFlag = cli.StringFlag{
		Name:  "amount",
		Usage: "amount in hex or decimal",
	}
	commissionFlag = cli.UintFlag{
		Name:  "commission",
		Usage: "validator commission in basis points",
	}
	keyFlag = cli.StringFlag{
		Name:  "key",
		Usage: "params key, 32 bytes hex or a short name",
	}
	timeFlag = cli.Uint64Flag{
		Name:  "time",
		Usage: "time the clause executes at, the wall clock when unset",
	}
)
