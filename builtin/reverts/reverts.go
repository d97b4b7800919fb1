// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation was rejected.
type Kind uint8

const (
	// KindState means the caller or target is in the wrong lifecycle state.
	KindState Kind = iota + 1
	// KindTiming means a required waiting period has not elapsed.
	KindTiming
	// KindInsufficient means a balance, allowance or amount is too small.
	KindInsufficient
	// KindPolicy means a rule was violated.
	KindPolicy
	// KindTarget means the referenced validator is not eligible.
	KindTarget
)

var kindNames = map[Kind]string{
	KindState:        "AuthorizationState",
	KindTiming:       "TimingNotElapsed",
	KindInsufficient: "InsufficientValue",
	KindPolicy:       "PolicyViolation",
	KindTarget:       "InvalidTarget",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ErrRevert is a rejected precondition. No state was changed.
type ErrRevert struct {
	kind    Kind
	message string
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		kind:    kind,
		message: message,
	}
}

func Newf(kind Kind, format string, args ...any) *ErrRevert {
	return New(kind, fmt.Sprintf(format, args...))
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// KindOf returns the kind of a revert error, looking through wrapping.
// The second value is false for errors that are not reverts.
func KindOf(err error) (Kind, bool) {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind, true
	}
	return 0, false
}

// IsKind reports whether err is a revert of the given kind.
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
