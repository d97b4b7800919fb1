// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"sync"

	"github.com/ethereum/go-ethereum/log"

	"github.com/vechain/stakeledger/builtin/params"
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/staker"
	"github.com/vechain/stakeledger/builtin/token"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

var logger = log.New("pkg", "runtime")

func SetLogger(l log.Logger) {
	logger = l
}

// Addresses of the built-in contracts.
var (
	StakerAddress = thor.BytesToAddress([]byte("Staker"))
	TokenAddress  = thor.BytesToAddress([]byte("Token"))
	ParamsAddress = thor.BytesToAddress([]byte("Params"))
)

// Contracts are the built-in contracts bound to one state.
type Contracts struct {
	Staker *staker.Staker
	Token  *token.Token
	Params *params.Params
}

func newContracts(st *state.State) *Contracts {
	tk := token.New(TokenAddress, st)
	return &Contracts{
		Staker: staker.New(StakerAddress, st, tk.Bind(StakerAddress)),
		Token:  tk,
		Params: params.New(ParamsAddress, st),
	}
}

// Runtime applies operations one at a time, in the order they are submitted.
// Every operation runs in its own checkpoint and leaves no trace when it fails.
type Runtime struct {
	mu     sync.Mutex
	stater *state.Stater
	state  *state.State
}

// New create a Runtime object over committed state.
func New(stater *state.Stater) *Runtime {
	return &Runtime{
		stater: stater,
		state:  stater.NewState(),
	}
}

// View runs fn against the current state, including uncommitted changes.
// fn must not modify the state.
func (rt *Runtime) View(fn func(c *Contracts) error) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	return fn(newContracts(rt.state))
}

// Apply runs fn inside a checkpoint, reverting all of its writes if it fails.
func (rt *Runtime) Apply(fn func(c *Contracts) error) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	return rt.apply(fn)
}

func (rt *Runtime) apply(fn func(c *Contracts) error) error {
	checkpoint := rt.state.NewCheckpoint()
	if err := fn(newContracts(rt.state)); err != nil {
		rt.state.RevertTo(checkpoint)
		return err
	}
	return nil
}

// Execute applies clause on behalf of caller at time now.
func (rt *Runtime) Execute(caller thor.Address, now uint64, clause *Clause) error {
	if err := clause.validate(); err != nil {
		return err
	}
	if err := checkCaller(caller, clause); err != nil {
		return err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	logger.Debug("execute clause", "method", clause.Method, "caller", caller, "now", now)
	err := rt.apply(func(c *Contracts) error {
		return dispatch(c, caller, now, clause)
	})
	if err != nil {
		logger.Debug("clause failed", "method", clause.Method, "caller", caller, "err", err)
	}
	return err
}

// AdvanceEpoch moves the staker to the next epoch.
func (rt *Runtime) AdvanceEpoch() (epoch uint32, err error) {
	err = rt.Apply(func(c *Contracts) error {
		epoch, err = c.Staker.AdvanceEpoch()
		return err
	})
	return
}

// Commit writes all applied operations to the store.
func (rt *Runtime) Commit() (thor.Bytes32, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	stage := rt.state.Stage()
	changes := stage.Len()
	root, err := stage.Commit()
	if err != nil {
		return thor.Bytes32{}, err
	}
	rt.state = rt.stater.NewState()

	if changes > 0 {
		logger.Info("committed", "changes", changes, "hash", root.AbbrevString())
	}
	return root, nil
}

// Discard drops every operation applied since the last commit.
func (rt *Runtime) Discard() {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.state = rt.stater.NewState()
}

// checkCaller rejects clauses no external account may submit.
// The built-in contracts hold custody and configuration, so they never act as callers,
// and value sent to the staker outside of a delegation would not be accounted as escrow.
func checkCaller(caller thor.Address, clause *Clause) error {
	switch caller {
	case thor.Address{}:
		return reverts.New(reverts.KindState, "caller must not be the zero address")
	case StakerAddress, TokenAddress, ParamsAddress:
		return reverts.Newf(reverts.KindState, "built-in contract %s cannot submit clauses", caller)
	}
	if clause.Method == MethodTransfer && clause.To == StakerAddress {
		return reverts.New(reverts.KindPolicy, "transfers to the staker must go through delegate")
	}
	return nil
}

func dispatch(c *Contracts, caller thor.Address, now uint64, clause *Clause) error {
	s := c.Staker
	switch clause.Method {
	case MethodJoin:
		return s.Join(caller, clause.Commission)
	case MethodAnnounceValidatorLeave:
		return s.AnnounceValidatorLeave(caller, now)
	case MethodCancelValidatorLeave:
		return s.CancelValidatorLeave(caller)
	case MethodValidatorLeave:
		return s.ValidatorLeave(caller, now)
	case MethodDelegate:
		return s.Delegate(caller, clause.Validator, clause.Amount)
	case MethodAnnounceDelegatorLeave:
		return s.AnnounceDelegatorLeave(caller, clause.Validator, now)
	case MethodCancelDelegatorLeave:
		return s.CancelDelegatorLeave(caller, clause.Validator)
	case MethodRedelegate:
		return s.Redelegate(caller, clause.Validator, clause.To, clause.Amount)
	case MethodDelegatorLeave:
		return s.DelegatorLeave(caller, clause.Validator, now)
	case MethodApprove:
		return c.Token.Approve(caller, clause.To, clause.Amount)
	case MethodTransfer:
		return c.Token.Transfer(caller, clause.To, clause.Amount)
	case MethodSetParam:
		return c.Params.Set(caller, clause.Key, clause.Amount)
	case MethodChangeParamsOwner:
		return c.Params.ChangeOwner(caller, clause.To)
	}
	return ErrInvalidClause
}
