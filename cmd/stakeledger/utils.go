// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	goruntime "runtime"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/stakeledger/api"
	"github.com/vechain/stakeledger/builtin/staker"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/co"
	"github.com/vechain/stakeledger/genesis"
	"github.com/vechain/stakeledger/lvldb"
	"github.com/vechain/stakeledger/metrics"
	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

var genesisIDKey = []byte("genesis-id")

func fatal(args ...any) {
	var w io.Writer
	if goruntime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		} else {
			w = io.MultiWriter(os.Stdout, os.Stderr)
		}
	}
	fmt.Fprint(w, "Fatal: ")
	fmt.Fprintln(w, args...)
	os.Exit(1)
}

func fatalf(format string, args ...any) {
	fatal(fmt.Sprintf(format, args...))
}

func initLogger(ctx *cli.Context) {
	useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	handler := log.NewGlogHandler(log.NewTerminalHandler(os.Stderr, useColor))
	handler.Verbosity(log.FromLegacyLevel(ctx.Int(verbosityFlag.Name)))
	log.SetDefault(log.NewLogger(handler))

	// package loggers are bound on creation
	logger = log.New("pkg", "main")
	api.SetLogger(log.New("pkg", "api"))
	runtime.SetLogger(log.New("pkg", "runtime"))
	staker.SetLogger(log.New("pkg", "staker"))
	token.SetLogger(log.New("pkg", "token"))
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".org.vechain.stakeledger")
	}
	return ""
}

func loadGenesis(ctx *cli.Context) *genesis.Genesis {
	path := ctx.String(genesisFlag.Name)
	if path == "" {
		return genesis.NewDevnet()
	}
	gene, err := genesis.Load(path)
	if err != nil {
		fatalf("load genesis [%v]: %v", path, err)
	}
	return gene
}

func makeInstanceDir(ctx *cli.Context, genesisID thor.Bytes32) string {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		fatal("unable to infer default data dir, use -data-dir to specify")
	}
	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", genesisID.Bytes()[24:]))
	if err := os.MkdirAll(instanceDir, 0o700); err != nil {
		fatalf("create instance dir [%v]: %v", instanceDir, err)
	}
	return instanceDir
}

func openMainDB(instanceDir string) *lvldb.LevelDB {
	dir := filepath.Join(instanceDir, "main.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              16,
		OpenFilesCacheCapacity: 64,
	})
	if err != nil {
		fatalf("open main database [%v]: %v", dir, err)
	}
	return db
}

func openMemMainDB() *lvldb.LevelDB {
	db, err := lvldb.NewMem()
	if err != nil {
		fatalf("open memory database: %v", err)
	}
	return db
}

// initLedger opens the runtime over db, applying gene when db is fresh.
// A db initialized from another genesis is rejected.
func initLedger(db *lvldb.LevelDB, gene *genesis.Genesis, genesisID thor.Bytes32) (*runtime.Runtime, error) {
	rt := runtime.New(state.NewStater(db, 0))

	stored, err := db.Get(genesisIDKey)
	if err != nil && !db.IsNotFound(err) {
		return nil, errors.Wrap(err, "read genesis id")
	}
	if err == nil {
		if thor.BytesToBytes32(stored) != genesisID {
			return nil, errors.Errorf("database initialized with genesis %v, not %v", thor.BytesToBytes32(stored), genesisID)
		}
		return rt, nil
	}

	if err := gene.Apply(rt); err != nil {
		return nil, errors.WithMessage(err, "apply genesis")
	}
	root, err := rt.Commit()
	if err != nil {
		return nil, errors.WithMessage(err, "commit genesis")
	}
	if err := db.Put(genesisIDKey, genesisID.Bytes()); err != nil {
		return nil, errors.Wrap(err, "write genesis id")
	}
	logger.Info("genesis applied", "id", genesisID, "root", root.AbbrevString(), "validators", len(gene.Validators))
	return rt, nil
}

func startServer(addr string, handler http.Handler) (string, func()) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		fatalf("listen addr [%v]: %v", addr, err)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
		}
		goes.Wait()
	}
}

func startAPIServer(ctx *cli.Context, rt *runtime.Runtime) (string, func()) {
	handler := api.New(rt, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
	})
	return startServer(ctx.String(apiAddrFlag.Name), handler)
}

func startMetricsServer(addr string) (string, func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler())
	return startServer(addr, mux)
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		select {
		case sig := <-exitSignalCh:
			logger.Info("exit signal received", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx
}

func parseAddressFlag(ctx *cli.Context, flag cli.StringFlag) (thor.Address, error) {
	s := ctx.String(flag.Name)
	if s == "" {
		return thor.Address{}, nil
	}
	addr, err := thor.ParseAddress(s)
	if err != nil {
		return thor.Address{}, errors.WithMessage(err, flag.Name)
	}
	return addr, nil
}

func parseClause(ctx *cli.Context) (*runtime.Clause, error) {
	clause := &runtime.Clause{
		Method:     ctx.String(methodFlag.Name),
		Commission: uint32(ctx.Uint(commissionFlag.Name)),
	}
	var err error
	if clause.Validator, err = parseAddressFlag(ctx, validatorFlag); err != nil {
		return nil, err
	}
	if clause.To, err = parseAddressFlag(ctx, toFlag); err != nil {
		return nil, err
	}
	if s := ctx.String(amountFlag.Name); s != "" {
		amount, ok := math.ParseBig256(s)
		if !ok || amount.Sign() < 0 {
			return nil, errors.Errorf("amount: invalid hex or decimal integer %q", s)
		}
		clause.Amount = new(big.Int).Set(amount)
	}
	if s := ctx.String(keyFlag.Name); s != "" {
		if clause.Key, err = thor.ParseBytes32(s); err != nil {
			if len(s) > 32 {
				return nil, errors.WithMessage(err, "key")
			}
			clause.Key = thor.BytesToBytes32([]byte(s))
		}
	}
	return clause, nil
}
