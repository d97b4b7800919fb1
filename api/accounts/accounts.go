// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/thor"
)

// Account is the token position of an address.
type Account struct {
	Balance          *math.HexOrDecimal256 `json:"balance"`
	StakerAllowance  *math.HexOrDecimal256 `json:"stakerAllowance"`
	IsValidator      bool                  `json:"isValidator"`
	IsGenesisNode    bool                  `json:"isGenesisNode"`
	ValidatorPower   *math.HexOrDecimal256 `json:"validatorPower,omitempty"`
	ValidatorExiting bool                  `json:"validatorExiting"`
}

type Accounts struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Accounts {
	return &Accounts{rt}
}

func (a *Accounts) getAccount(addr thor.Address) (*Account, error) {
	var acc Account
	err := a.rt.View(func(c *runtime.Contracts) error {
		bal, err := c.Token.BalanceOf(addr)
		if err != nil {
			return err
		}
		allowance, err := c.Token.Allowance(addr, c.Staker.Address())
		if err != nil {
			return err
		}
		val, err := c.Staker.GetValidator(addr)
		if err != nil {
			return err
		}
		acc.Balance = (*math.HexOrDecimal256)(bal)
		acc.StakerAllowance = (*math.HexOrDecimal256)(allowance)
		if val != nil && val.IsActive() {
			acc.IsValidator = true
			acc.IsGenesisNode = val.IsGenesisNode()
			acc.ValidatorPower = (*math.HexOrDecimal256)(val.Power())
			acc.ValidatorExiting = val.IsUnbonding()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (a *Accounts) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := thor.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	acc, err := a.getAccount(addr)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, acc)
}

func (a *Accounts) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{address}").
		Methods(http.MethodGet).
		Name("GET /accounts/{address}").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetAccount))
}
