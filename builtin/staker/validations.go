// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"bytes"
	"math"
	"slices"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/staker/validation"
	"github.com/vechain/stakeledger/thor"
)

// Join makes caller a validator, escrowing the self bond from its balance.
// The staker must have been granted allowance over the bond.
func (s *Staker) Join(caller thor.Address, commission uint32) (err error) {
	defer func() { observe("join", err) }()
	logger.Debug("join", "caller", caller, "commission", commission)

	if err := checkCaller(caller); err != nil {
		return err
	}
	rules, err := s.Rules()
	if err != nil {
		return err
	}
	val, err := s.validationService.GetValidation(caller)
	if err != nil {
		return err
	}
	if val != nil && val.IsActive() {
		return reverts.New(reverts.KindState, "already a validator")
	}

	bond := rules.selfBond()
	balance, err := s.token.BalanceOf(caller)
	if err != nil {
		return err
	}
	if balance.Cmp(bond) < 0 {
		return reverts.New(reverts.KindInsufficient, "insufficient funds to join")
	}
	allowance, err := s.token.Allowance(caller, s.addr)
	if err != nil {
		return err
	}
	if allowance.Cmp(bond) < 0 {
		return reverts.New(reverts.KindInsufficient, "insufficient allowance to join")
	}
	if commission < rules.MinCommission {
		return reverts.Newf(reverts.KindPolicy, "commission must be at least %d", rules.MinCommission)
	}
	if commission > thor.BasisPoints {
		return reverts.Newf(reverts.KindPolicy, "commission must be at most %d", thor.BasisPoints)
	}
	epoch, err := s.nextEpoch()
	if err != nil {
		return err
	}

	if bond.Sign() > 0 {
		if err := s.token.TransferFrom(bond, s.addr, caller); err != nil {
			return errors.WithMessage(err, "escrow self bond")
		}
	}
	if _, err := s.validationService.Activate(caller, bond, commission, epoch, false); err != nil {
		return err
	}
	if err := s.globalStatsService.AddPower(bond); err != nil {
		return err
	}
	if err := s.globalStatsService.AddEscrow(bond); err != nil {
		return err
	}

	logger.Info("validator joined", "validator", caller, "bond", bond, "commission", commission, "epoch", epoch)
	s.refreshActiveSetSize()
	return nil
}

// AnnounceValidatorLeave starts the unbonding period of caller.
// The validator keeps its power until it leaves.
func (s *Staker) AnnounceValidatorLeave(caller thor.Address, now uint64) (err error) {
	defer func() { observe("announceValidatorLeave", err) }()
	logger.Debug("announce validator leave", "caller", caller, "now", now)

	rules, err := s.Rules()
	if err != nil {
		return err
	}
	val, err := s.activeValidator(caller)
	if err != nil {
		return err
	}
	if val.IsUnbonding() {
		return reverts.New(reverts.KindState, "already unbonding")
	}
	unbondingAt, err := unbondingTime(now, rules.UnbondingPeriod)
	if err != nil {
		return err
	}

	if err := s.validationService.SignalExit(caller, val, unbondingAt); err != nil {
		return err
	}
	logger.Info("validator leave announced", "validator", caller, "unbondingAt", unbondingAt)
	s.refreshActiveSetSize()
	return nil
}

// CancelValidatorLeave clears the announced leave of caller.
func (s *Staker) CancelValidatorLeave(caller thor.Address) (err error) {
	defer func() { observe("cancelValidatorLeave", err) }()
	logger.Debug("cancel validator leave", "caller", caller)

	val, err := s.activeValidator(caller)
	if err != nil {
		return err
	}
	if !val.IsUnbonding() {
		return reverts.New(reverts.KindState, "not unbonding")
	}

	if err := s.validationService.CancelExit(caller, val); err != nil {
		return err
	}
	logger.Info("validator leave cancelled", "validator", caller)
	s.refreshActiveSetSize()
	return nil
}

// ValidatorLeave deactivates caller once its unbonding period is over.
// The bond is refunded, except to genesis validators which never escrowed one.
func (s *Staker) ValidatorLeave(caller thor.Address, now uint64) (err error) {
	defer func() { observe("validatorLeave", err) }()
	logger.Debug("validator leave", "caller", caller, "now", now)

	val, err := s.activeValidator(caller)
	if err != nil {
		return err
	}
	if !val.IsUnbonding() {
		return reverts.New(reverts.KindState, "not unbonding")
	}
	if !val.Unlocked(now) {
		return reverts.Newf(reverts.KindTiming, "unbonding period not over, ends at %d", *val.UnbondingAt())
	}

	locked := val.Locked()
	genesisNode := val.IsGenesisNode()
	if !genesisNode && locked.Sign() > 0 {
		if err := s.token.Transfer(locked, caller); err != nil {
			return errors.WithMessage(err, "refund self bond")
		}
	}
	if _, err := s.validationService.Exit(caller, val); err != nil {
		return err
	}
	if err := s.globalStatsService.SubPower(locked); err != nil {
		return err
	}
	if !genesisNode {
		if err := s.globalStatsService.SubEscrow(locked); err != nil {
			return err
		}
	}

	logger.Info("validator left", "validator", caller, "released", locked, "refunded", !genesisNode)
	s.refreshActiveSetSize()
	return nil
}

// ActiveSet returns the validators eligible for the active set: active and not unbonding,
// ordered by power descending then address, at most MaxValidators of them.
func (s *Staker) ActiveSet() ([]thor.Address, error) {
	rules, err := s.Rules()
	if err != nil {
		return nil, err
	}

	type candidate struct {
		addr thor.Address
		val  *validation.Validation
	}
	var candidates []candidate
	err = s.validationService.Iterate(func(addr thor.Address, val *validation.Validation) error {
		if val.IsActive() && !val.IsUnbonding() {
			candidates = append(candidates, candidate{addr, val})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(candidates, func(a, b candidate) int {
		if c := b.val.Power().Cmp(a.val.Power()); c != 0 {
			return c
		}
		return bytes.Compare(a.addr.Bytes(), b.addr.Bytes())
	})
	if uint64(len(candidates)) > uint64(rules.MaxValidators) {
		candidates = candidates[:rules.MaxValidators]
	}

	set := make([]thor.Address, 0, len(candidates))
	for _, c := range candidates {
		set = append(set, c.addr)
	}
	return set, nil
}

// refreshActiveSetSize updates the active set gauge after the set may have changed.
func (s *Staker) refreshActiveSetSize() {
	set, err := s.ActiveSet()
	if err != nil {
		logger.Warn("failed to count active set", "err", err)
		return
	}
	metricActiveSetSize().Set(int64(len(set)))
}

func (s *Staker) activeValidator(addr thor.Address) (*validation.Validation, error) {
	val, err := s.validationService.GetValidation(addr)
	if err != nil {
		return nil, err
	}
	if val == nil || !val.IsActive() {
		return nil, reverts.New(reverts.KindState, "not a validator")
	}
	return val, nil
}

func unbondingTime(now, period uint64) (uint64, error) {
	if now > math.MaxUint64-period {
		return 0, reverts.New(reverts.KindPolicy, "unbonding time overflows")
	}
	return now + period, nil
}
