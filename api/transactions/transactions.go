// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package transactions

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/api/utils"
	"github.com/vechain/stakeledger/runtime"
)

type Transactions struct {
	rt  *runtime.Runtime
	now func() uint64
}

func New(rt *runtime.Runtime) *Transactions {
	return &Transactions{
		rt:  rt,
		now: func() uint64 { return uint64(time.Now().Unix()) },
	}
}

func (t *Transactions) handleSendTransaction(w http.ResponseWriter, req *http.Request) error {
	var tx Transaction
	if err := utils.ParseJSON(req.Body, &tx); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if tx.Caller.IsZero() {
		return utils.BadRequest(errors.New("caller: zero address"))
	}
	now := t.now()
	if tx.Time != nil {
		now = *tx.Time
	}

	if err := t.rt.Execute(tx.Caller, now, tx.Clause.convert()); err != nil {
		if errors.Is(err, runtime.ErrInvalidClause) {
			return utils.BadRequest(err)
		}
		return err
	}
	root, err := t.rt.Commit()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Receipt{
		Method:    tx.Clause.Method,
		Caller:    tx.Caller,
		Time:      now,
		StateRoot: root,
	})
}

func (t *Transactions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodPost).
		Name("POST /transactions").
		HandlerFunc(utils.WrapHandlerFunc(t.handleSendTransaction))
}
