// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transactions

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/thor"
)

// Clause is the JSON form of runtime.Clause. Fields a method does not use may be omitted.
type Clause struct {
	Method     string                `json:"method"`
	Validator  thor.Address          `json:"validator"`
	To         thor.Address          `json:"to"`
	Amount     *math.HexOrDecimal256 `json:"amount"`
	Commission uint32                `json:"commission"`
	Key        thor.Bytes32          `json:"key"`
}

// Transaction is one clause submitted by caller. Time defaults to the server clock.
type Transaction struct {
	Caller thor.Address `json:"caller"`
	Time   *uint64      `json:"time"`
	Clause Clause       `json:"clause"`
}

// Receipt reports an applied transaction.
type Receipt struct {
	Method    string       `json:"method"`
	Caller    thor.Address `json:"caller"`
	Time      uint64       `json:"time"`
	StateRoot thor.Bytes32 `json:"stateRoot"`
}

func (c *Clause) convert() *runtime.Clause {
	var amount *big.Int
	if c.Amount != nil {
		amount = (*big.Int)(c.Amount)
	}
	return &runtime.Clause{
		Method:     c.Method,
		Validator:  c.Validator,
		To:         c.To,
		Amount:     amount,
		Commission: c.Commission,
		Key:        c.Key,
	}
}
