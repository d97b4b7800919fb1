// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/thor"
)

var (
	ErrOverflow  = errors.New("uint256 overflow")
	ErrUnderflow = errors.New("uint256 underflow")
)

// Uint256 is a wrapper for storage and retrieval of an uint256. Similar to storing an uint256 in a smart contract.
// Arithmetic is checked, results never wrap around.
type Uint256 struct {
	context *Context
	pos     thor.Bytes32
}

func NewUint256(context *Context, pos thor.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: pos}
}

// ToUint256 converts a non-negative big integer, failing if it does not fit in 256 bits.
func ToUint256(value *big.Int) (*uint256.Int, error) {
	if value == nil {
		return new(uint256.Int), nil
	}
	if value.Sign() < 0 {
		return nil, ErrUnderflow
	}
	v, overflow := uint256.FromBig(value)
	if overflow {
		return nil, ErrOverflow
	}
	return v, nil
}

func (u *Uint256) get() (*uint256.Int, error) {
	storage, err := u.context.state.GetStorage(u.context.address, u.pos)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes32(storage[:]), nil
}

func (u *Uint256) set(value *uint256.Int) {
	u.context.state.SetStorage(u.context.address, u.pos, thor.Bytes32(value.Bytes32()))
}

func (u *Uint256) Get() (*big.Int, error) {
	v, err := u.get()
	if err != nil {
		return nil, err
	}
	return v.ToBig(), nil
}

func (u *Uint256) Set(value *big.Int) error {
	v, err := ToUint256(value)
	if err != nil {
		return err
	}
	u.set(v)
	return nil
}

func (u *Uint256) Add(value *big.Int) error {
	delta, err := ToUint256(value)
	if err != nil {
		return err
	}
	cur, err := u.get()
	if err != nil {
		return err
	}
	sum, overflow := new(uint256.Int).AddOverflow(cur, delta)
	if overflow {
		return ErrOverflow
	}
	u.set(sum)
	return nil
}

func (u *Uint256) Sub(value *big.Int) error {
	delta, err := ToUint256(value)
	if err != nil {
		return err
	}
	cur, err := u.get()
	if err != nil {
		return err
	}
	diff, underflow := new(uint256.Int).SubOverflow(cur, delta)
	if underflow {
		return ErrUnderflow
	}
	u.set(diff)
	return nil
}
