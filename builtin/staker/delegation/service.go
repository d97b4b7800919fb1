// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/thor"
)

var slotDelegations = thor.BytesToBytes32([]byte("delegations"))

// Service is the repository of delegation records.
type Service struct {
	delegations *solidity.Mapping[Key, *body]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		delegations: solidity.NewMapping[Key, *body](sctx, slotDelegations),
	}
}

// GetDelegation returns the delegation for key. Absent delegations are returned empty, never nil.
func (s *Service) GetDelegation(key Key) (*Delegation, error) {
	b, err := s.delegations.Get(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get delegation")
	}
	if b == nil {
		b = &body{Amount: new(big.Int)}
	}
	return &Delegation{b}, nil
}

func (s *Service) update(key Key, d *Delegation) error {
	if err := s.delegations.Set(key, d.body); err != nil {
		return errors.Wrap(err, "failed to set delegation")
	}
	return nil
}

// Add increases the delegated amount and sets the epoch the value joins in.
func (s *Service) Add(key Key, d *Delegation, amount *big.Int, epochJoined uint32) error {
	d.body.Amount = new(big.Int).Add(d.Amount(), amount)
	d.body.EpochJoined = epochJoined
	return s.update(key, d)
}

// Sub decreases the delegated amount.
func (s *Service) Sub(key Key, d *Delegation, amount *big.Int) error {
	cur := d.Amount()
	if cur.Cmp(amount) < 0 {
		return errors.New("delegation amount underflow")
	}
	d.body.Amount = cur.Sub(cur, amount)
	return s.update(key, d)
}

// SignalExit records the time the delegated value may be withdrawn.
func (s *Service) SignalExit(key Key, d *Delegation, unbondingAt uint64) error {
	d.body.Unbonding = true
	d.body.UnbondingAt = unbondingAt
	return s.update(key, d)
}

// CancelExit clears an announced leave.
func (s *Service) CancelExit(key Key, d *Delegation) error {
	d.body.Unbonding = false
	d.body.UnbondingAt = 0
	return s.update(key, d)
}

// Withdraw zeroes the delegation and clears its unbonding state, returning the withdrawn amount.
// The record is kept so a later delegation can reuse it.
func (s *Service) Withdraw(key Key, d *Delegation) (*big.Int, error) {
	amount := d.Amount()
	d.body.Amount = new(big.Int)
	d.body.Unbonding = false
	d.body.UnbondingAt = 0
	return amount, s.update(key, d)
}
