// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/staker/delegation"
	"github.com/vechain/stakeledger/builtin/staker/validation"
	"github.com/vechain/stakeledger/thor"
)

// Delegate escrows amount from caller and adds it to the power of validator.
func (s *Staker) Delegate(caller, validator thor.Address, amount *big.Int) (err error) {
	defer func() { observe("delegate", err) }()
	logger.Debug("delegate", "caller", caller, "validator", validator, "amount", amount)

	if err := checkCaller(caller); err != nil {
		return err
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	val, err := s.eligibleTarget(validator)
	if err != nil {
		return err
	}
	key := delegation.Key{Delegator: caller, Validator: validator}
	del, err := s.delegationService.GetDelegation(key)
	if err != nil {
		return err
	}
	if del.IsUnbonding() {
		return reverts.New(reverts.KindState, "delegation is unbonding")
	}
	balance, err := s.token.BalanceOf(caller)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return reverts.New(reverts.KindInsufficient, "insufficient funds")
	}
	allowance, err := s.token.Allowance(caller, s.addr)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return reverts.New(reverts.KindInsufficient, "insufficient allowance")
	}
	epoch, err := s.nextEpoch()
	if err != nil {
		return err
	}

	if err := s.token.TransferFrom(amount, s.addr, caller); err != nil {
		return errors.WithMessage(err, "escrow delegation")
	}
	if err := s.delegationService.Add(key, del, amount, epoch); err != nil {
		return err
	}
	if err := s.addPower(validator, val, amount); err != nil {
		return err
	}
	if err := s.globalStatsService.AddEscrow(amount); err != nil {
		return err
	}

	logger.Info("delegated", "delegator", caller, "validator", validator, "amount", amount, "epoch", epoch)
	return nil
}

// AnnounceDelegatorLeave removes the delegation of caller from the power of validator.
// When the validator already left the value is refunded at once, otherwise it stays escrowed
// until the validator's unbonding time, or a full unbonding period when the validator is not leaving.
func (s *Staker) AnnounceDelegatorLeave(caller, validator thor.Address, now uint64) (err error) {
	defer func() { observe("announceDelegatorLeave", err) }()
	logger.Debug("announce delegator leave", "caller", caller, "validator", validator, "now", now)

	rules, err := s.Rules()
	if err != nil {
		return err
	}
	key := delegation.Key{Delegator: caller, Validator: validator}
	del, err := s.delegationService.GetDelegation(key)
	if err != nil {
		return err
	}
	if del.IsEmpty() {
		return reverts.New(reverts.KindState, "no delegation to leave")
	}
	if del.IsUnbonding() {
		return reverts.New(reverts.KindState, "already unbonding")
	}
	val, err := s.delegatedValidator(validator)
	if err != nil {
		return err
	}
	amount := del.Amount()

	switch {
	case !val.IsActive():
		if err := s.token.Transfer(amount, caller); err != nil {
			return errors.WithMessage(err, "refund delegation")
		}
		if err := s.subPower(validator, val, amount); err != nil {
			return err
		}
		if _, err := s.delegationService.Withdraw(key, del); err != nil {
			return err
		}
		if err := s.globalStatsService.SubEscrow(amount); err != nil {
			return err
		}
		logger.Info("delegation refunded from departed validator", "delegator", caller, "validator", validator, "amount", amount)
		return nil
	case val.IsUnbonding():
		unbondingAt := *val.UnbondingAt()
		if err := s.delegationService.SignalExit(key, del, unbondingAt); err != nil {
			return err
		}
		if err := s.subPower(validator, val, amount); err != nil {
			return err
		}
		logger.Info("delegator leave announced", "delegator", caller, "validator", validator, "unbondingAt", unbondingAt)
		return nil
	default:
		unbondingAt, err := unbondingTime(now, rules.UnbondingPeriod)
		if err != nil {
			return err
		}
		if err := s.delegationService.SignalExit(key, del, unbondingAt); err != nil {
			return err
		}
		if err := s.subPower(validator, val, amount); err != nil {
			return err
		}
		logger.Info("delegator leave announced", "delegator", caller, "validator", validator, "unbondingAt", unbondingAt)
		return nil
	}
}

// CancelDelegatorLeave clears the announced leave of caller and restores the delegated power.
func (s *Staker) CancelDelegatorLeave(caller, validator thor.Address) (err error) {
	defer func() { observe("cancelDelegatorLeave", err) }()
	logger.Debug("cancel delegator leave", "caller", caller, "validator", validator)

	key := delegation.Key{Delegator: caller, Validator: validator}
	del, err := s.delegationService.GetDelegation(key)
	if err != nil {
		return err
	}
	if del.IsEmpty() {
		return reverts.New(reverts.KindState, "no delegation to leave")
	}
	if !del.IsUnbonding() {
		return reverts.New(reverts.KindState, "not unbonding")
	}
	val, err := s.delegatedValidator(validator)
	if err != nil {
		return err
	}

	if err := s.delegationService.CancelExit(key, del); err != nil {
		return err
	}
	if err := s.addPower(validator, val, del.Amount()); err != nil {
		return err
	}
	logger.Info("delegator leave cancelled", "delegator", caller, "validator", validator)
	return nil
}

// Redelegate moves amount of the delegation of caller from one validator to another.
// No value is transferred and no unbonding period applies.
func (s *Staker) Redelegate(caller, from, to thor.Address, amount *big.Int) (err error) {
	defer func() { observe("redelegate", err) }()
	logger.Debug("redelegate", "caller", caller, "from", from, "to", to, "amount", amount)

	if err := checkCaller(caller); err != nil {
		return err
	}
	if err := checkAmount(amount); err != nil {
		return err
	}
	if from == to {
		return reverts.New(reverts.KindPolicy, "cannot redelegate to the same validator")
	}
	toVal, err := s.eligibleTarget(to)
	if err != nil {
		return err
	}
	fromKey := delegation.Key{Delegator: caller, Validator: from}
	fromDel, err := s.delegationService.GetDelegation(fromKey)
	if err != nil {
		return err
	}
	if fromDel.IsEmpty() {
		return reverts.New(reverts.KindState, "no delegation to move")
	}
	if fromDel.IsUnbonding() {
		return reverts.New(reverts.KindState, "this delegation is unbonding, please cancel the unbonding period first")
	}
	if fromDel.Amount().Cmp(amount) < 0 {
		return reverts.New(reverts.KindInsufficient, "insufficient delegation")
	}
	toKey := delegation.Key{Delegator: caller, Validator: to}
	toDel, err := s.delegationService.GetDelegation(toKey)
	if err != nil {
		return err
	}
	if toDel.IsUnbonding() {
		return reverts.New(reverts.KindState, "target delegation is unbonding")
	}
	fromVal, err := s.delegatedValidator(from)
	if err != nil {
		return err
	}
	epochJoined := toDel.EpochJoined()
	if toDel.IsEmpty() {
		if epochJoined, err = s.nextEpoch(); err != nil {
			return err
		}
	}

	if err := s.delegationService.Sub(fromKey, fromDel, amount); err != nil {
		return err
	}
	if err := s.delegationService.Add(toKey, toDel, amount, epochJoined); err != nil {
		return err
	}
	if err := s.validationService.SubPower(from, fromVal, amount); err != nil {
		return err
	}
	if err := s.validationService.AddPower(to, toVal, amount); err != nil {
		return err
	}

	logger.Info("redelegated", "delegator", caller, "from", from, "to", to, "amount", amount)
	return nil
}

// DelegatorLeave refunds the delegation of caller once its unbonding period is over.
func (s *Staker) DelegatorLeave(caller, validator thor.Address, now uint64) (err error) {
	defer func() { observe("delegatorLeave", err) }()
	logger.Debug("delegator leave", "caller", caller, "validator", validator, "now", now)

	key := delegation.Key{Delegator: caller, Validator: validator}
	del, err := s.delegationService.GetDelegation(key)
	if err != nil {
		return err
	}
	if del.IsEmpty() {
		return reverts.New(reverts.KindState, "no delegation to leave")
	}
	if !del.IsUnbonding() {
		return reverts.New(reverts.KindState, "not unbonding")
	}
	if !del.Unlocked(now) {
		return reverts.Newf(reverts.KindTiming, "unbonding period not over, ends at %d", *del.UnbondingAt())
	}

	amount := del.Amount()
	if err := s.token.Transfer(amount, caller); err != nil {
		return errors.WithMessage(err, "refund delegation")
	}
	if _, err := s.delegationService.Withdraw(key, del); err != nil {
		return err
	}
	if err := s.globalStatsService.SubEscrow(amount); err != nil {
		return err
	}

	logger.Info("delegator left", "delegator", caller, "validator", validator, "amount", amount)
	return nil
}

// eligibleTarget returns validator if it can receive delegated value.
func (s *Staker) eligibleTarget(addr thor.Address) (*validation.Validation, error) {
	val, err := s.validationService.GetValidation(addr)
	if err != nil {
		return nil, err
	}
	if val == nil || !val.IsActive() {
		return nil, reverts.Newf(reverts.KindTarget, "validator %s is not registered", addr)
	}
	if val.IsUnbonding() {
		return nil, reverts.Newf(reverts.KindTarget, "validator %s is unbonding", addr)
	}
	return val, nil
}

// delegatedValidator returns the record a nonempty delegation points to, which always exists.
func (s *Staker) delegatedValidator(addr thor.Address) (*validation.Validation, error) {
	val, err := s.validationService.GetValidation(addr)
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, errors.Errorf("delegated validator %s has no record", addr)
	}
	return val, nil
}

func (s *Staker) addPower(addr thor.Address, val *validation.Validation, amount *big.Int) error {
	if err := s.validationService.AddPower(addr, val, amount); err != nil {
		return err
	}
	return s.globalStatsService.AddPower(amount)
}

func (s *Staker) subPower(addr thor.Address, val *validation.Validation, amount *big.Int) error {
	if err := s.validationService.SubPower(addr, val, amount); err != nil {
		return err
	}
	return s.globalStatsService.SubPower(amount)
}

func checkCaller(caller thor.Address) error {
	if caller.IsZero() {
		return reverts.New(reverts.KindState, "caller must not be the zero address")
	}
	return nil
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return reverts.New(reverts.KindInsufficient, "amount must be positive")
	}
	if amount.BitLen() > thor.MaxAmountBits {
		return reverts.New(reverts.KindPolicy, "amount exceeds 256 bits")
	}
	return nil
}
