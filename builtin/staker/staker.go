// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/staker/delegation"
	"github.com/vechain/stakeledger/builtin/staker/globalstats"
	"github.com/vechain/stakeledger/builtin/staker/validation"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

var (
	logger = log.New("pkg", "staker")

	slotRules = thor.BytesToBytes32([]byte("rules"))
)

func SetLogger(l log.Logger) {
	logger = l
}

// Token is the fungible token ledger the staker moves value with.
// Transfer moves value out of the staker's custody, TransferFrom spends an allowance granted to the staker.
type Token interface {
	BalanceOf(addr thor.Address) (*big.Int, error)
	Allowance(owner, spender thor.Address) (*big.Int, error)
	Transfer(amount *big.Int, to thor.Address) error
	TransferFrom(amount *big.Int, to, from thor.Address) error
}

// Staker implements the validator and delegation ledgers.
type Staker struct {
	addr  thor.Address
	token Token
	rules *solidity.Raw[*Rules]

	globalStatsService *globalstats.Service
	validationService  *validation.Service
	delegationService  *delegation.Service
}

// New create a new instance.
func New(addr thor.Address, state *state.State, token Token) *Staker {
	sctx := solidity.NewContext(addr, state)

	return &Staker{
		addr:  addr,
		token: token,
		rules: solidity.NewRaw[*Rules](sctx, slotRules),

		globalStatsService: globalstats.New(sctx),
		validationService:  validation.New(sctx),
		delegationService:  delegation.New(sctx),
	}
}

//
// Getters - no state change
//

func (s *Staker) Address() thor.Address {
	return s.addr
}

// Rules returns the configured rules, all zero before genesis.
func (s *Staker) Rules() (Rules, error) {
	rules, err := s.rules.Get()
	if err != nil {
		return Rules{}, errors.Wrap(err, "failed to get rules")
	}
	if rules == nil {
		return DefaultRules(), nil
	}
	return *rules, nil
}

// TotalPower returns the sum of the power of all validators.
func (s *Staker) TotalPower() (*big.Int, error) {
	return s.globalStatsService.TotalPower()
}

// TotalEscrowed returns the value held in custody for joined validators and delegations.
func (s *Staker) TotalEscrowed() (*big.Int, error) {
	return s.globalStatsService.TotalEscrowed()
}

// Epoch returns the current epoch index.
func (s *Staker) Epoch() (uint32, error) {
	return s.globalStatsService.Epoch()
}

// GetValidator returns a validator, nil when the address was never registered.
func (s *Staker) GetValidator(addr thor.Address) (*validation.Validation, error) {
	return s.validationService.GetValidation(addr)
}

// GetDelegation returns the delegation of delegator to validator, empty when none.
func (s *Staker) GetDelegation(delegator, validator thor.Address) (*delegation.Delegation, error) {
	return s.delegationService.GetDelegation(delegation.Key{Delegator: delegator, Validator: validator})
}

// Validators lists every registered validator in registration order.
func (s *Staker) Validators() ([]thor.Address, error) {
	var addrs []thor.Address
	err := s.validationService.Iterate(func(addr thor.Address, _ *validation.Validation) error {
		addrs = append(addrs, addr)
		return nil
	})
	return addrs, err
}

//
// Collaborator hooks
//

// AdvanceEpoch moves to the next epoch and returns its index.
func (s *Staker) AdvanceEpoch() (epoch uint32, err error) {
	defer func() { observe("advanceEpoch", err) }()

	if epoch, err = s.globalStatsService.AdvanceEpoch(); err != nil {
		return 0, err
	}
	metricEpoch().Set(int64(epoch))
	s.refreshActiveSetSize()
	logger.Info("advanced epoch", "epoch", epoch)
	return epoch, nil
}

// SetEpochCollected records the last epoch rewards were collected for by validator.
func (s *Staker) SetEpochCollected(validator thor.Address, epoch uint32) (err error) {
	defer func() { observe("setEpochCollected", err) }()

	val, err := s.validationService.GetValidation(validator)
	if err != nil {
		return err
	}
	if val == nil {
		return reverts.New(reverts.KindTarget, "validator is not registered")
	}
	return s.validationService.SetEpochCollected(validator, val, epoch)
}

func (s *Staker) nextEpoch() (uint32, error) {
	epoch, err := s.globalStatsService.Epoch()
	if err != nil {
		return 0, err
	}
	return epoch + 1, nil
}
