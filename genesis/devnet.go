// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"

	"github.com/vechain/stakeledger/thor"
)

// DevAccounts returns pre-alloced accounts for development.
func DevAccounts() []thor.Address {
	return []thor.Address{
		thor.MustParseAddress("0xf077b491b355e64048ce21e3a6fc4751eeea77fa"),
		thor.MustParseAddress("0x435933c8064b4ae76be665428e0307ef2ccfbd68"),
		thor.MustParseAddress("0x0f872421dc479f3c11edd89512731814d0598db5"),
		thor.MustParseAddress("0xf370940abdbd2583bc80bfc19d19bc216c88ccf0"),
		thor.MustParseAddress("0x99602e4bbc0503b8ff4432bb1857f916c3653b85"),
		thor.MustParseAddress("0x61e7d0c2b25706be3485980f39a3a994a8207acf"),
		thor.MustParseAddress("0x361277d1b27504f36a3b33d3a52d1f8270331b8c"),
		thor.MustParseAddress("0xd7f75a0a1287ab2916848909c8531a0ea9412800"),
		thor.MustParseAddress("0xabef6032b9176c186f6bf984f548bda53349f70a"),
		thor.MustParseAddress("0x865306084235bf804c8bba8a8d56890940ca8f0b"),
	}
}

// NewDevnet create genesis for development. The first two dev accounts are genesis validators,
// the first one also owns the params store. Every dev account is funded.
func NewDevnet() *Genesis {
	launchTime := uint64(1526400000) // 'Wed May 16 2018 00:00:00 GMT+0800 (CST)'

	unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	balance := new(big.Int).Mul(big.NewInt(1000*1000), unit)
	selfBond := new(big.Int).Mul(big.NewInt(25*1000), unit)

	accs := DevAccounts()
	accounts := make([]Account, 0, len(accs))
	for _, addr := range accs {
		accounts = append(accounts, Account{Address: addr, Balance: NewHexOrDecimal256(balance)})
	}

	return &Genesis{
		LaunchTime: launchTime,
		Owner:      accs[0],
		Rules: Rules{
			MaxValidators:   101,
			SelfBondAmount:  NewHexOrDecimal256(selfBond),
			MinCommission:   500,
			FeeDistribution: [thor.FeeShares]uint32{4000, 3000, 1000, 2000},
			UnbondingPeriod: 7 * 24 * 3600,
			EpochLength:     8 * 3600,
		},
		Validators: accs[:2],
		Accounts:   accounts,
	}
}
