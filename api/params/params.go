// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/runtime"
	"github.com/vechain/stakeledger/thor"
)

type Param struct {
	Key   thor.Bytes32          `json:"key"`
	Value *math.HexOrDecimal256 `json:"value"`
}

type Params struct {
	rt *runtime.Runtime
}

func New(rt *runtime.Runtime) *Params {
	return &Params{rt}
}

func (p *Params) handleGetOwner(w http.ResponseWriter, _ *http.Request) error {
	var owner thor.Address
	err := p.rt.View(func(c *runtime.Contracts) (err error) {
		owner, err = c.Params.Owner()
		return
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, map[string]thor.Address{"owner": owner})
}

// handleGetParam accepts a 32 bytes hex key, or a short name that is right aligned like the stored keys.
func (p *Params) handleGetParam(w http.ResponseWriter, req *http.Request) error {
	raw := mux.Vars(req)["key"]
	key, err := thor.ParseBytes32(raw)
	if err != nil {
		if len(raw) == 0 || len(raw) > 32 {
			return utils.BadRequest(errors.WithMessage(err, "key"))
		}
		key = thor.BytesToBytes32([]byte(raw))
	}
	var value *math.HexOrDecimal256
	err = p.rt.View(func(c *runtime.Contracts) error {
		v, err := c.Params.Get(key)
		if err != nil {
			return err
		}
		value = (*math.HexOrDecimal256)(v)
		return nil
	})
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Param{Key: key, Value: value})
}

func (p *Params) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/owner").
		Methods(http.MethodGet).
		Name("GET /params/owner").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetOwner))
	sub.Path("/{key}").
		Methods(http.MethodGet).
		Name("GET /params/{key}").
		HandlerFunc(utils.WrapHandlerFunc(p.handleGetParam))
}
