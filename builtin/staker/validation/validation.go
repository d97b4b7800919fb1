// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validation

import (
	"math/big"
)

type Validation struct {
	body *body
}

// body is the stored record. Optional fields carry an explicit presence flag,
// so that zero stays a valid value.
type body struct {
	Active         bool
	Locked         *big.Int // the self bond, only meaningful while active
	Unbonding      bool
	UnbondingAt    uint64   // the earliest time the validator may leave
	Power          *big.Int // self bond plus delegated amounts
	Commission     uint32   // in basis points, fixed at join
	EpochJoined    uint32
	Collected      bool
	EpochCollected uint32 // last epoch rewards were collected
	GenesisNode    bool   // seeded at genesis, the bond was never escrowed
}

func (v *Validation) IsActive() bool {
	return v.body.Active
}

// Locked returns the bond held by an active validator, nil when inactive.
func (v *Validation) Locked() *big.Int {
	if !v.body.Active {
		return nil
	}
	return copyOrZero(v.body.Locked)
}

// UnbondingAt returns the time the validator may leave, nil when no leave was announced.
func (v *Validation) UnbondingAt() *uint64 {
	if !v.body.Unbonding {
		return nil
	}
	at := v.body.UnbondingAt
	return &at
}

func (v *Validation) IsUnbonding() bool {
	return v.body.Unbonding
}

// Unlocked reports whether the announced unbonding period has elapsed at now.
func (v *Validation) Unlocked(now uint64) bool {
	return v.body.Unbonding && now >= v.body.UnbondingAt
}

func (v *Validation) Power() *big.Int {
	return copyOrZero(v.body.Power)
}

func (v *Validation) Commission() uint32 {
	return v.body.Commission
}

func (v *Validation) EpochJoined() uint32 {
	return v.body.EpochJoined
}

// EpochCollected returns the last collected epoch, nil when rewards were never collected.
func (v *Validation) EpochCollected() *uint32 {
	if !v.body.Collected {
		return nil
	}
	epoch := v.body.EpochCollected
	return &epoch
}

func (v *Validation) IsGenesisNode() bool {
	return v.body.GenesisNode
}

func copyOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
