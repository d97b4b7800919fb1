// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/thor"
)

type Staker struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Staker {
	return &Staker{rt}
}

func (s *Staker) handleGetSummary(w http.ResponseWriter, _ *http.Request) error {
	var summary Summary
	err := s.rt.View(func(c *runtime.Contracts) error {
		rules, err := c.Staker.Rules()
		if err != nil {
			return err
		}
		total, err := c.Staker.TotalPower()
		if err != nil {
			return err
		}
		escrowed, err := c.Staker.TotalEscrowed()
		if err != nil {
			return err
		}
		epoch, err := c.Staker.Epoch()
		if err != nil {
			return err
		}
		validators, err := c.Staker.Validators()
		if err != nil {
			return err
		}
		summary = Summary{
			Address:        c.Staker.Address(),
			Rules:          convertRules(rules),
			TotalPower:     hexOrDecimal(total),
			TotalEscrowed:  hexOrDecimal(escrowed),
			Epoch:          epoch,
			ValidatorCount: len(validators),
		}
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &summary)
}

func (s *Staker) listValidators(active bool) ([]*Validator, error) {
	list := make([]*Validator, 0)
	err := s.rt.View(func(c *runtime.Contracts) error {
		var (
			addrs []thor.Address
			err   error
		)
		if active {
			addrs, err = c.Staker.ActiveSet()
		} else {
			addrs, err = c.Staker.Validators()
		}
		if err != nil {
			return err
		}
		for _, addr := range addrs {
			val, err := c.Staker.GetValidator(addr)
			if err != nil {
				return err
			}
			list = append(list, convertValidator(addr, val))
		}
		return nil
	})
	return list, err
}

func (s *Staker) handleGetValidators(w http.ResponseWriter, _ *http.Request) error {
	list, err := s.listValidators(false)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, list)
}

func (s *Staker) handleGetActiveSet(w http.ResponseWriter, _ *http.Request) error {
	list, err := s.listValidators(true)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, list)
}

func (s *Staker) handleGetValidator(w http.ResponseWriter, req *http.Request) error {
	addr, err := thor.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	var validator *Validator
	err = s.rt.View(func(c *runtime.Contracts) error {
		val, err := c.Staker.GetValidator(addr)
		if err != nil {
			return err
		}
		if val != nil {
			validator = convertValidator(addr, val)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if validator == nil {
		return utils.NotFound(errors.New("validator not found"))
	}
	return utils.WriteJSON(w, validator)
}

func (s *Staker) handleGetDelegation(w http.ResponseWriter, req *http.Request) error {
	delegator, err := thor.ParseAddress(mux.Vars(req)["delegator"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "delegator"))
	}
	validator, err := thor.ParseAddress(mux.Vars(req)["validator"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "validator"))
	}
	var result *Delegation
	err = s.rt.View(func(c *runtime.Contracts) error {
		d, err := c.Staker.GetDelegation(delegator, validator)
		if err != nil {
			return err
		}
		result = convertDelegation(delegator, validator, d)
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, result)
}

func (s *Staker) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /staker").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetSummary))
	sub.Path("/validators").
		Methods(http.MethodGet).
		Name("GET /staker/validators").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetValidators))
	sub.Path("/validators/active").
		Methods(http.MethodGet).
		Name("GET /staker/validators/active").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetActiveSet))
	sub.Path("/validators/{address}").
		Methods(http.MethodGet).
		Name("GET /staker/validators/{address}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetValidator))
	sub.Path("/delegations/{delegator}/{validator}").
		Methods(http.MethodGet).
		Name("GET /staker/delegations/{delegator}/{validator}").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetDelegation))
}
