// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/state"
	"github.com/vechain/stakeledger/thor"
)

var (
	logger = log.New("pkg", "token")

	slotTotalSupply = thor.BytesToBytes32([]byte("total-supply"))
	slotBalances    = thor.BytesToBytes32([]byte("balances"))
	slotAllowances  = thor.BytesToBytes32([]byte("allowances"))
)

func SetLogger(l log.Logger) {
	logger = l
}

type allowanceKey struct {
	owner   thor.Address
	spender thor.Address
}

func (k allowanceKey) Bytes() []byte {
	return append(k.owner.Bytes(), k.spender.Bytes()...)
}

// Token is the fungible token ledger holding balances and allowances.
type Token struct {
	addr        thor.Address
	totalSupply *solidity.Uint256
	balances    *solidity.Mapping[thor.Address, *big.Int]
	allowances  *solidity.Mapping[allowanceKey, *big.Int]
}

func New(addr thor.Address, state *state.State) *Token {
	sctx := solidity.NewContext(addr, state)
	return &Token{
		addr:        addr,
		totalSupply: solidity.NewUint256(sctx, slotTotalSupply),
		balances:    solidity.NewMapping[thor.Address, *big.Int](sctx, slotBalances),
		allowances:  solidity.NewMapping[allowanceKey, *big.Int](sctx, slotAllowances),
	}
}

func (t *Token) Address() thor.Address {
	return t.addr
}

// TotalSupply returns the total minted amount.
func (t *Token) TotalSupply() (*big.Int, error) {
	return t.totalSupply.Get()
}

// BalanceOf returns the balance of addr, zero if it never held tokens.
func (t *Token) BalanceOf(addr thor.Address) (*big.Int, error) {
	bal, err := t.balances.Get(addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}
	if bal == nil {
		return new(big.Int), nil
	}
	return bal, nil
}

// Allowance returns the amount spender may still transfer on behalf of owner.
func (t *Token) Allowance(owner, spender thor.Address) (*big.Int, error) {
	allowance, err := t.allowances.Get(allowanceKey{owner, spender})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get allowance")
	}
	if allowance == nil {
		return new(big.Int), nil
	}
	return allowance, nil
}

func (t *Token) setBalance(addr thor.Address, bal *big.Int) error {
	if bal.Sign() == 0 {
		t.balances.Delete(addr)
		return nil
	}
	return t.balances.Set(addr, bal)
}

func (t *Token) setAllowance(owner, spender thor.Address, amount *big.Int) error {
	key := allowanceKey{owner, spender}
	if amount.Sign() == 0 {
		t.allowances.Delete(key)
		return nil
	}
	return t.allowances.Set(key, amount)
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return reverts.New(reverts.KindPolicy, "amount must not be negative")
	}
	if amount.BitLen() > thor.MaxAmountBits {
		return reverts.New(reverts.KindPolicy, "amount exceeds 256 bits")
	}
	return nil
}

// Mint creates amount new tokens owned by to.
func (t *Token) Mint(to thor.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	bal, err := t.BalanceOf(to)
	if err != nil {
		return err
	}
	if err := t.totalSupply.Add(amount); err != nil {
		return reverts.New(reverts.KindPolicy, "total supply overflow")
	}
	logger.Debug("mint", "to", to, "amount", amount)
	return t.setBalance(to, new(big.Int).Add(bal, amount))
}

// Approve sets the allowance of spender over the tokens of owner.
func (t *Token) Approve(owner, spender thor.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	logger.Debug("approve", "owner", owner, "spender", spender, "amount", amount)
	return t.setAllowance(owner, spender, amount)
}

// Transfer moves amount from one account to another.
// It fails without side effects if the balance of from is insufficient.
func (t *Token) Transfer(from, to thor.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	fromBal, err := t.BalanceOf(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return reverts.Newf(reverts.KindInsufficient, "insufficient balance: %s has %v, needs %v", from, fromBal, amount)
	}
	if from == to || amount.Sign() == 0 {
		return nil
	}
	toBal, err := t.BalanceOf(to)
	if err != nil {
		return err
	}

	if err := t.setBalance(from, new(big.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	if err := t.setBalance(to, new(big.Int).Add(toBal, amount)); err != nil {
		return err
	}
	logger.Debug("transfer", "from", from, "to", to, "amount", amount)
	return nil
}

// TransferFrom moves amount from one account to another on behalf of spender, consuming allowance.
// Allowance and balance are both checked before anything is written.
func (t *Token) TransferFrom(spender, from, to thor.Address, amount *big.Int) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	allowance, err := t.Allowance(from, spender)
	if err != nil {
		return err
	}
	if allowance.Cmp(amount) < 0 {
		return reverts.Newf(reverts.KindInsufficient, "insufficient allowance: %s allows %v, needs %v", from, allowance, amount)
	}
	fromBal, err := t.BalanceOf(from)
	if err != nil {
		return err
	}
	if fromBal.Cmp(amount) < 0 {
		return reverts.Newf(reverts.KindInsufficient, "insufficient balance: %s has %v, needs %v", from, fromBal, amount)
	}

	if err := t.setAllowance(from, spender, new(big.Int).Sub(allowance, amount)); err != nil {
		return err
	}
	return t.Transfer(from, to, amount)
}

// Bind returns the view of the ledger as seen by caller.
func (t *Token) Bind(caller thor.Address) *Account {
	return &Account{token: t, caller: caller}
}

// Account is the token ledger bound to a calling account.
type Account struct {
	token  *Token
	caller thor.Address
}

func (a *Account) BalanceOf(addr thor.Address) (*big.Int, error) {
	return a.token.BalanceOf(addr)
}

func (a *Account) Allowance(owner, spender thor.Address) (*big.Int, error) {
	return a.token.Allowance(owner, spender)
}

// Transfer moves amount from the bound account to to.
func (a *Account) Transfer(amount *big.Int, to thor.Address) error {
	return a.token.Transfer(a.caller, to, amount)
}

// TransferFrom moves amount from from to to, spending the allowance granted to the bound account.
func (a *Account) TransferFrom(amount *big.Int, to, from thor.Address) error {
	return a.token.TransferFrom(a.caller, from, to, amount)
}
