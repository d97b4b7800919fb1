// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package thor

import (
	"math/big"
)

// Constants of the ledger.
const (
	// BasisPoints is the fixed-point denominator of rates, 10000 equals 1.0.
	BasisPoints uint32 = 10000

	// FeeShares is the number of fee distribution shares.
	FeeShares = 4

	// MaxAmountBits bounds every stored amount.
	MaxAmountBits = 256
)

// MaxUint256 is the largest amount the ledger can hold.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), MaxAmountBits), big.NewInt(1))
