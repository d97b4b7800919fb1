// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/co"
	"github.com/vechain/stakeledger/genesis"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/thor"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.New("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	serveFlags := []cli.Flag{
		dataDirFlag,
		genesisFlag,
		persistFlag,
		apiAddrFlag,
		apiCorsFlag,
		enableAPILogsFlag,
		enableMetricsFlag,
		metricsAddrFlag,
		epochIntervalFlag,
		verbosityFlag,
	}
	ledgerFlags := []cli.Flag{
		dataDirFlag,
		genesisFlag,
		verbosityFlag,
	}

	app := cli.App{
		Version:   fullVersion(),
		Name:      "StakeLedger",
		Usage:     "Validator staking and delegation ledger",
		Copyright: "2025 VeChain Foundation <https://vechain.org/>",
		Flags:     serveFlags,
		Action:    serveAction,
		Commands: []cli.Command{
			{
				Name:   "serve",
				Usage:  "serve the ledger over the REST API",
				Flags:  serveFlags,
				Action: serveAction,
			},
			{
				Name:   "init",
				Usage:  "apply the genesis to the data dir",
				Flags:  ledgerFlags,
				Action: initAction,
			},
			{
				Name:  "exec",
				Usage: "execute one clause against the data dir",
				Flags: append(ledgerFlags,
					callerFlag,
					methodFlag,
					validatorFlag,
					toFlag,
					amountFlag,
					commissionFlag,
					keyFlag,
					timeFlag,
				),
				Action: execAction,
			},
			{
				Name:   "epoch",
				Usage:  "advance the epoch of the data dir",
				Flags:  ledgerFlags,
				Action: epochAction,
			},
			{
				Name:   "status",
				Usage:  "print the ledger state of the data dir",
				Flags:  ledgerFlags,
				Action: statusAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openLedger opens the persistent ledger of the selected genesis, initializing it when fresh.
func openLedger(ctx *cli.Context) (*runtime.Runtime, *lvldb.LevelDB, *genesis.Genesis) {
	gene := loadGenesis(ctx)
	genesisID, err := gene.ID()
	if err != nil {
		fatal("genesis id:", err)
	}
	db := openMainDB(makeInstanceDir(ctx, genesisID))
	rt, err := initLedger(db, gene, genesisID)
	if err != nil {
		db.Close()
		fatal(err)
	}
	return rt, db, gene
}

func serveAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	gene := loadGenesis(ctx)
	genesisID, err := gene.ID()
	if err != nil {
		return errors.WithMessage(err, "genesis id")
	}

	var (
		db          *lvldb.LevelDB
		instanceDir string
	)
	if ctx.Bool(persistFlag.Name) {
		instanceDir = makeInstanceDir(ctx, genesisID)
		db = openMainDB(instanceDir)
	} else {
		instanceDir = "Memory"
		db = openMemMainDB()
	}
	defer func() { logger.Info("closing main database..."); db.Close() }()

	rt, err := initLedger(db, gene, genesisID)
	if err != nil {
		return err
	}

	apiURL, stopAPI := startAPIServer(ctx, rt)
	defer func() { logger.Info("stopping API server..."); stopAPI() }()

	metricsURL := ""
	if ctx.Bool(enableMetricsFlag.Name) {
		var stopMetrics func()
		metricsURL, stopMetrics = startMetricsServer(ctx.String(metricsAddrFlag.Name))
		defer func() { logger.Info("stopping metrics server..."); stopMetrics() }()
	}

	interval := ctx.Duration(epochIntervalFlag.Name)
	if !ctx.IsSet(epochIntervalFlag.Name) {
		interval = time.Duration(gene.Rules.EpochLength) * time.Second
	}

	printStartupMessage(gene, genesisID, instanceDir, apiURL, metricsURL, interval)

	exitCtx := handleExitSignal()
	var goes co.Goes
	if interval > 0 {
		goes.Tick(exitCtx, interval, func() {
			if _, err := rt.AdvanceEpoch(); err != nil {
				logger.Warn("failed to advance epoch", "err", err)
				return
			}
			if _, err := rt.Commit(); err != nil {
				logger.Error("failed to commit epoch", "err", err)
			}
		})
	}

	<-exitCtx.Done()
	goes.Wait()
	return nil
}

func initAction(ctx *cli.Context) error {
	initLogger(ctx)

	_, db, gene := openLedger(ctx)
	defer db.Close()

	id, err := gene.ID()
	if err != nil {
		return err
	}
	fmt.Printf("ledger ready, genesis %v, %d validators\n", id, len(gene.Validators))
	return nil
}

func execAction(ctx *cli.Context) error {
	initLogger(ctx)

	caller, err := parseAddressFlag(ctx, callerFlag)
	if err != nil {
		return err
	}
	if caller.IsZero() {
		return errors.New("caller: required")
	}
	clause, err := parseClause(ctx)
	if err != nil {
		return err
	}
	now := ctx.Uint64(timeFlag.Name)
	if !ctx.IsSet(timeFlag.Name) {
		now = uint64(time.Now().Unix())
	}

	rt, db, _ := openLedger(ctx)
	defer db.Close()

	if err := rt.Execute(caller, now, clause); err != nil {
		if kind, ok := reverts.KindOf(err); ok {
			return errors.Errorf("reverted (%v): %v", kind, err)
		}
		return err
	}
	root, err := rt.Commit()
	if err != nil {
		return err
	}
	fmt.Printf("%s applied, state root %v\n", clause.Method, root)
	return nil
}

func epochAction(ctx *cli.Context) error {
	initLogger(ctx)

	rt, db, _ := openLedger(ctx)
	defer db.Close()

	epoch, err := rt.AdvanceEpoch()
	if err != nil {
		return err
	}
	if _, err := rt.Commit(); err != nil {
		return err
	}
	fmt.Printf("epoch %d\n", epoch)
	return nil
}

type status struct {
	Epoch         uint32         `json:"epoch"`
	TotalPower    string         `json:"totalPower"`
	TotalEscrowed string         `json:"totalEscrowed"`
	Validators    []thor.Address `json:"validators"`
	ActiveSet     []thor.Address `json:"activeSet"`
}

func statusAction(ctx *cli.Context) error {
	initLogger(ctx)

	rt, db, _ := openLedger(ctx)
	defer db.Close()

	var st status
	err := rt.View(func(c *runtime.Contracts) (err error) {
		if st.Epoch, err = c.Staker.Epoch(); err != nil {
			return
		}
		total, err := c.Staker.TotalPower()
		if err != nil {
			return
		}
		escrowed, err := c.Staker.TotalEscrowed()
		if err != nil {
			return
		}
		st.TotalPower, st.TotalEscrowed = total.String(), escrowed.String()
		if st.Validators, err = c.Staker.Validators(); err != nil {
			return
		}
		st.ActiveSet, err = c.Staker.ActiveSet()
		return
	})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(&st)
}

func printStartupMessage(
	gene *genesis.Genesis,
	genesisID thor.Bytes32,
	instanceDir string,
	apiURL string,
	metricsURL string,
	epochInterval time.Duration,
) {
	metricsInfo := "Disabled"
	if metricsURL != "" {
		metricsInfo = metricsURL + "metrics"
	}
	epochInfo := "Manual"
	if epochInterval > 0 {
		epochInfo = epochInterval.String()
	}

	fmt.Printf(`Starting %v
    Genesis      [ %v ]
    Validators   [ %v ]
    Epoch        [ %v ]
    Instance dir [ %v ]
    API portal   [ %v ]
    Metrics      [ %v ]
`,
		"StakeLedger/"+fullVersion(),
		genesisID,
		len(gene.Validators),
		epochInfo,
		instanceDir,
		apiURL,
		metricsInfo)
}
