// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/thor"
)

// Method names of the supported clauses.
const (
	MethodJoin                   = "join"
	MethodAnnounceValidatorLeave = "announceValidatorLeave"
	MethodCancelValidatorLeave   = "cancelValidatorLeave"
	MethodValidatorLeave         = "validatorLeave"
	MethodDelegate               = "delegate"
	MethodAnnounceDelegatorLeave = "announceDelegatorLeave"
	MethodCancelDelegatorLeave   = "cancelDelegatorLeave"
	MethodRedelegate             = "redelegate"
	MethodDelegatorLeave         = "delegatorLeave"
	MethodApprove                = "approve"
	MethodTransfer               = "transfer"
	MethodSetParam               = "setParam"
	MethodChangeParamsOwner      = "changeParamsOwner"
)

// ErrInvalidClause is returned for clauses that cannot be dispatched.
var ErrInvalidClause = errors.New("invalid clause")

// Clause is one operation submitted by a caller.
// Validator is the target validator, or the source validator of a redelegation.
// To is the target validator of a redelegation, the recipient of a transfer, the spender of an approval
// or the new params owner.
type Clause struct {
	Method     string
	Validator  thor.Address
	To         thor.Address
	Amount     *big.Int
	Commission uint32
	Key        thor.Bytes32
}

func (c *Clause) validate() error {
	missing := func(field string) error {
		return errors.Wrapf(ErrInvalidClause, "%s: missing %s", c.Method, field)
	}

	switch c.Method {
	case MethodJoin, MethodAnnounceValidatorLeave, MethodCancelValidatorLeave, MethodValidatorLeave:
	case MethodAnnounceDelegatorLeave, MethodCancelDelegatorLeave, MethodDelegatorLeave:
		if c.Validator.IsZero() {
			return missing("validator")
		}
	case MethodDelegate:
		if c.Validator.IsZero() {
			return missing("validator")
		}
		if c.Amount == nil {
			return missing("amount")
		}
	case MethodRedelegate:
		if c.Validator.IsZero() {
			return missing("validator")
		}
		if c.To.IsZero() {
			return missing("to")
		}
		if c.Amount == nil {
			return missing("amount")
		}
	case MethodApprove, MethodTransfer:
		if c.To.IsZero() {
			return missing("to")
		}
		if c.Amount == nil {
			return missing("amount")
		}
	case MethodSetParam:
		if c.Key.IsZero() {
			return missing("key")
		}
	case MethodChangeParamsOwner:
		if c.To.IsZero() {
			return missing("to")
		}
	default:
		return errors.Wrapf(ErrInvalidClause, "unknown method %q", c.Method)
	}
	return nil
}
