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

// Rules is the network configuration of the staker. It is set once at genesis.
// Rates are in basis points.
type Rules struct {
	MaxValidators   uint32
	SelfBondAmount  *big.Int
	MinCommission   uint32
	FeeDistribution [thor.FeeShares]uint32 // validator, black hole, contract creators, treasury
	UnbondingPeriod uint64                 // seconds
	EpochLength     uint64                 // seconds
}

// DefaultRules returns the rules with every field zero.
func DefaultRules() Rules {
	return Rules{SelfBondAmount: new(big.Int)}
}

func (r Rules) Validate() error {
	if r.SelfBondAmount != nil {
		if r.SelfBondAmount.Sign() < 0 {
			return errors.New("self bond amount must not be negative")
		}
		if r.SelfBondAmount.BitLen() > thor.MaxAmountBits {
			return errors.New("self bond amount exceeds 256 bits")
		}
	}
	if r.MinCommission > thor.BasisPoints {
		return errors.Errorf("min commission %d exceeds %d basis points", r.MinCommission, thor.BasisPoints)
	}

	var sum uint64
	for _, share := range r.FeeDistribution {
		sum += uint64(share)
	}
	if sum != 0 && sum != uint64(thor.BasisPoints) {
		return errors.Errorf("fee distribution must sum to %d basis points, got %d", thor.BasisPoints, sum)
	}
	return nil
}

func (r Rules) selfBond() *big.Int {
	if r.SelfBondAmount == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(r.SelfBondAmount)
}
