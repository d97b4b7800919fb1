// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	builtin "github.com/vechain/stakeledger/builtin/staker"
	"github.com/vechain/stakeledger/builtin/staker/delegation"
	"github.com/vechain/stakeledger/builtin/staker/validation"
	"github.com/vechain/stakeledger/thor"
)

type Rules struct {
	MaxValidators   uint32                 `json:"maxValidators"`
	SelfBondAmount  *math.HexOrDecimal256  `json:"selfBondAmount"`
	MinCommission   uint32                 `json:"minCommission"`
	FeeDistribution [thor.FeeShares]uint32 `json:"feeDistribution"`
	UnbondingPeriod uint64                 `json:"unbondingPeriod"`
	EpochLength     uint64                 `json:"epochLength"`
}

// Summary is the ledger wide state.
type Summary struct {
	Address        thor.Address          `json:"address"`
	Rules          Rules                 `json:"rules"`
	TotalPower     *math.HexOrDecimal256 `json:"totalPower"`
	TotalEscrowed  *math.HexOrDecimal256 `json:"totalEscrowed"`
	Epoch          uint32                `json:"epoch"`
	ValidatorCount int                   `json:"validatorCount"`
}

type Validator struct {
	Address        thor.Address          `json:"address"`
	Active         bool                  `json:"active"`
	Locked         *math.HexOrDecimal256 `json:"locked"`
	Power          *math.HexOrDecimal256 `json:"power"`
	UnbondingAt    *uint64               `json:"unbondingAt"`
	Commission     uint32                `json:"commission"`
	EpochJoined    uint32                `json:"epochJoined"`
	EpochCollected *uint32               `json:"epochCollected"`
	GenesisNode    bool                  `json:"genesisNode"`
}

type Delegation struct {
	Delegator   thor.Address          `json:"delegator"`
	Validator   thor.Address          `json:"validator"`
	Amount      *math.HexOrDecimal256 `json:"amount"`
	UnbondingAt *uint64               `json:"unbondingAt"`
	EpochJoined uint32                `json:"epochJoined"`
}

func hexOrDecimal(v *big.Int) *math.HexOrDecimal256 {
	if v == nil {
		v = new(big.Int)
	}
	return (*math.HexOrDecimal256)(v)
}

func convertRules(r builtin.Rules) Rules {
	return Rules{
		MaxValidators:   r.MaxValidators,
		SelfBondAmount:  hexOrDecimal(r.SelfBondAmount),
		MinCommission:   r.MinCommission,
		FeeDistribution: r.FeeDistribution,
		UnbondingPeriod: r.UnbondingPeriod,
		EpochLength:     r.EpochLength,
	}
}

func convertValidator(addr thor.Address, v *validation.Validation) *Validator {
	return &Validator{
		Address:        addr,
		Active:         v.IsActive(),
		Locked:         hexOrDecimal(v.Locked()),
		Power:          hexOrDecimal(v.Power()),
		UnbondingAt:    v.UnbondingAt(),
		Commission:     v.Commission(),
		EpochJoined:    v.EpochJoined(),
		EpochCollected: v.EpochCollected(),
		GenesisNode:    v.IsGenesisNode(),
	}
}

func convertDelegation(delegator, validator thor.Address, d *delegation.Delegation) *Delegation {
	return &Delegation{
		Delegator:   delegator,
		Validator:   validator,
		Amount:      hexOrDecimal(d.Amount()),
		UnbondingAt: d.UnbondingAt(),
		EpochJoined: d.EpochJoined(),
	}
}
