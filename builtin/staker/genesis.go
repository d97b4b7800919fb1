// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/thor"
)

// Initialize stores the rules and seeds the genesis validators.
// Genesis validators are bonded without any transfer, so their bond is not counted as escrowed.
func (s *Staker) Initialize(genesisNodes []thor.Address, rules Rules) error {
	current, err := s.rules.Get()
	if err != nil {
		return errors.Wrap(err, "failed to get rules")
	}
	if current != nil {
		return errors.New("staker already initialized")
	}
	if err := rules.Validate(); err != nil {
		return errors.WithMessage(err, "invalid rules")
	}
	rules.SelfBondAmount = rules.selfBond()

	seen := make(map[thor.Address]struct{}, len(genesisNodes))
	for _, node := range genesisNodes {
		if node.IsZero() {
			return errors.New("genesis validator must not be the zero address")
		}
		if _, ok := seen[node]; ok {
			return errors.Errorf("duplicate genesis validator %s", node)
		}
		seen[node] = struct{}{}
	}

	if err := s.rules.Set(&rules); err != nil {
		return errors.Wrap(err, "failed to set rules")
	}

	total := new(big.Int)
	for _, node := range genesisNodes {
		if _, err := s.validationService.Activate(node, rules.SelfBondAmount, rules.MinCommission, 0, true); err != nil {
			return err
		}
		if err := s.globalStatsService.AddPower(rules.SelfBondAmount); err != nil {
			return err
		}
		total.Add(total, rules.SelfBondAmount)
	}

	logger.Info("staker initialized",
		"validators", len(genesisNodes),
		"selfBond", rules.SelfBondAmount,
		"minCommission", rules.MinCommission,
		"unbondingPeriod", rules.UnbondingPeriod,
		"totalPower", total,
	)
	s.refreshActiveSetSize()
	return nil
}
