// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

var (
	slotOwner  = thor.BytesToBytes32([]byte("owner"))
	slotValues = thor.BytesToBytes32([]byte("values"))
)

// Params binder of the administrative key/value store. Writes are restricted to the owner.
type Params struct {
	owner  *solidity.Address
	values *solidity.Mapping[thor.Bytes32, *big.Int]
}

func New(addr thor.Address, state *state.State) *Params {
	sctx := solidity.NewContext(addr, state)
	return &Params{
		owner:  solidity.NewAddress(sctx, slotOwner),
		values: solidity.NewMapping[thor.Bytes32, *big.Int](sctx, slotValues),
	}
}

// Owner returns the current owner, zero address when never initialized.
func (p *Params) Owner() (thor.Address, error) {
	return p.owner.Get()
}

// Init sets the first owner. It fails once an owner exists.
func (p *Params) Init(owner thor.Address) error {
	current, err := p.owner.Get()
	if err != nil {
		return err
	}
	if !current.IsZero() {
		return errors.New("params owner already initialized")
	}
	p.owner.Set(&owner)
	return nil
}

func (p *Params) assertOwner(caller thor.Address) error {
	owner, err := p.owner.Get()
	if err != nil {
		return err
	}
	if owner.IsZero() || caller != owner {
		return reverts.New(reverts.KindState, "only owner can call")
	}
	return nil
}

// Get native way to get param, zero when unset.
func (p *Params) Get(key thor.Bytes32) (*big.Int, error) {
	v, err := p.values.Get(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get param")
	}
	if v == nil {
		return new(big.Int), nil
	}
	return v, nil
}

// Set stores value under key on behalf of caller.
func (p *Params) Set(caller thor.Address, key thor.Bytes32, value *big.Int) error {
	if err := p.assertOwner(caller); err != nil {
		return err
	}
	if value == nil || value.Sign() == 0 {
		p.values.Delete(key)
		return nil
	}
	if value.Sign() < 0 || value.BitLen() > thor.MaxAmountBits {
		return reverts.New(reverts.KindPolicy, "param value out of range")
	}
	return p.values.Set(key, value)
}

// ChangeOwner hands the store over to newOwner.
func (p *Params) ChangeOwner(caller, newOwner thor.Address) error {
	if err := p.assertOwner(caller); err != nil {
		return err
	}
	if newOwner.IsZero() {
		return reverts.New(reverts.KindPolicy, "owner must not be zero")
	}
	p.owner.Set(&newOwner)
	return nil
}
