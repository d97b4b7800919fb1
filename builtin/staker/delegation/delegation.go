// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"math/big"

	"github.com/vechain/stakeledger/thor"
)

// Key identifies the delegation of one delegator to one validator.
type Key struct {
	Delegator thor.Address
	Validator thor.Address
}

func (k Key) Bytes() []byte {
	return append(k.Delegator.Bytes(), k.Validator.Bytes()...)
}

type Delegation struct {
	body *body
}

type body struct {
	Amount      *big.Int
	Unbonding   bool
	UnbondingAt uint64
	EpochJoined uint32 // refreshed whenever value is added
}

// Amount returns the delegated value, zero when nothing is delegated.
func (d *Delegation) Amount() *big.Int {
	if d.body.Amount == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(d.body.Amount)
}

// IsEmpty reports whether the delegation holds no value. An empty delegation is treated as nonexistent.
func (d *Delegation) IsEmpty() bool {
	return d.body.Amount == nil || d.body.Amount.Sign() == 0
}

// UnbondingAt returns the time the value may be withdrawn, nil when no leave was announced.
func (d *Delegation) UnbondingAt() *uint64 {
	if !d.body.Unbonding {
		return nil
	}
	at := d.body.UnbondingAt
	return &at
}

func (d *Delegation) IsUnbonding() bool {
	return d.body.Unbonding
}

// Unlocked reports whether the announced unbonding period has elapsed at now.
func (d *Delegation) Unlocked(now uint64) bool {
	return d.body.Unbonding && now >= d.body.UnbondingAt
}

func (d *Delegation) EpochJoined() uint32 {
	return d.body.EpochJoined
}
