// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validation

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/builtin/staker/linkedlist"
	"github.com/vechain/stakeledger/thor"
)

var (
	slotValidations = thor.BytesToBytes32([]byte("validations"))

	// registry of every address that ever held a record
	slotRegistryHead  = thor.BytesToBytes32([]byte("validations-registry-head"))
	slotRegistryTail  = thor.BytesToBytes32([]byte("validations-registry-tail"))
	slotRegistryCount = thor.BytesToBytes32([]byte("validations-registry-count"))
)

// Service is the repository of validator records.
// It keeps records consistent with themselves, cross-record rules are left to the caller.
type Service struct {
	validations *solidity.Mapping[thor.Address, *body]
	registry    *linkedlist.LinkedList
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		validations: solidity.NewMapping[thor.Address, *body](sctx, slotValidations),
		registry:    linkedlist.NewLinkedList(sctx, slotRegistryHead, slotRegistryTail, slotRegistryCount),
	}
}

// GetValidation returns the record of validator, nil when it was never registered.
func (s *Service) GetValidation(validator thor.Address) (*Validation, error) {
	b, err := s.validations.Get(validator)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get validator")
	}
	if b == nil {
		return nil, nil
	}
	return &Validation{b}, nil
}

func (s *Service) update(validator thor.Address, v *Validation) error {
	if err := s.validations.Set(validator, v.body); err != nil {
		return errors.Wrap(err, "failed to set validator")
	}
	return nil
}

// Count returns the number of registered validators.
func (s *Service) Count() (uint64, error) {
	return s.registry.Len()
}

// Iterate visits every registered validator in registration order.
func (s *Service) Iterate(callback func(thor.Address, *Validation) error) error {
	return s.registry.Iter(func(address thor.Address) error {
		v, err := s.GetValidation(address)
		if err != nil {
			return err
		}
		if v == nil {
			return errors.Errorf("registered validator %s has no record", address)
		}
		return callback(address, v)
	})
}

// Activate makes validator active with the given bond and returns the updated record.
// Power carried over from a previous activation is kept and the bond is added on top.
func (s *Service) Activate(
	validator thor.Address,
	bond *big.Int,
	commission uint32,
	epochJoined uint32,
	genesisNode bool,
) (*Validation, error) {
	prev, err := s.GetValidation(validator)
	if err != nil {
		return nil, err
	}
	power := new(big.Int).Set(bond)
	if prev != nil {
		power.Add(power, prev.Power())
	}

	v := &Validation{&body{
		Active:      true,
		Locked:      new(big.Int).Set(bond),
		Power:       power,
		Commission:  commission,
		EpochJoined: epochJoined,
		GenesisNode: genesisNode,
	}}
	if err := s.registry.Add(validator); err != nil {
		return nil, errors.Wrap(err, "failed to register validator")
	}
	return v, s.update(validator, v)
}

// SignalExit records the time the validator may leave.
func (s *Service) SignalExit(validator thor.Address, v *Validation, unbondingAt uint64) error {
	v.body.Unbonding = true
	v.body.UnbondingAt = unbondingAt
	return s.update(validator, v)
}

// CancelExit clears an announced leave.
func (s *Service) CancelExit(validator thor.Address, v *Validation) error {
	v.body.Unbonding = false
	v.body.UnbondingAt = 0
	return s.update(validator, v)
}

// Exit deactivates the validator, removing its bond from its power.
// It returns the released bond.
func (s *Service) Exit(validator thor.Address, v *Validation) (*big.Int, error) {
	locked := copyOrZero(v.body.Locked)
	if v.Power().Cmp(locked) < 0 {
		return nil, errors.Errorf("validator %s power below its bond", validator)
	}

	v.body.Power = new(big.Int).Sub(v.Power(), locked)
	v.body.Active = false
	v.body.Locked = new(big.Int)
	v.body.Unbonding = false
	v.body.UnbondingAt = 0
	return locked, s.update(validator, v)
}

// AddPower increases the power of the validator by amount.
func (s *Service) AddPower(validator thor.Address, v *Validation, amount *big.Int) error {
	v.body.Power = new(big.Int).Add(v.Power(), amount)
	return s.update(validator, v)
}

// SubPower decreases the power of the validator by amount.
func (s *Service) SubPower(validator thor.Address, v *Validation, amount *big.Int) error {
	power := v.Power()
	if power.Cmp(amount) < 0 {
		return errors.Errorf("validator %s power underflow", validator)
	}
	v.body.Power = power.Sub(power, amount)
	return s.update(validator, v)
}

// SetEpochCollected records the last epoch rewards were collected for.
func (s *Service) SetEpochCollected(validator thor.Address, v *Validation, epoch uint32) error {
	v.body.Collected = true
	v.body.EpochCollected = epoch
	return s.update(validator, v)
}
