// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package globalstats

import (
	"math"
	"math/big"

	"github.com/pkg/errors"

	"github.com/vechain/stakeledger/builtin/solidity"
	"github.com/vechain/stakeledger/thor"
)

var (
	slotTotalPower    = thor.BytesToBytes32([]byte("total-power"))
	slotTotalEscrowed = thor.BytesToBytes32([]byte("total-escrowed"))
	slotEpoch         = thor.BytesToBytes32([]byte("epoch"))
)

// Service manages contract-wide staking totals.
// Total power mirrors the sum of all validator power, total escrowed mirrors the value held in custody
// for joined validators and delegations.
type Service struct {
	totalPower    *solidity.Uint256
	totalEscrowed *solidity.Uint256
	epoch         *solidity.Uint256
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		totalPower:    solidity.NewUint256(sctx, slotTotalPower),
		totalEscrowed: solidity.NewUint256(sctx, slotTotalEscrowed),
		epoch:         solidity.NewUint256(sctx, slotEpoch),
	}
}

func (s *Service) TotalPower() (*big.Int, error) {
	return s.totalPower.Get()
}

func (s *Service) TotalEscrowed() (*big.Int, error) {
	return s.totalEscrowed.Get()
}

func (s *Service) AddPower(amount *big.Int) error {
	return errors.WithMessage(s.totalPower.Add(amount), "total power")
}

func (s *Service) SubPower(amount *big.Int) error {
	return errors.WithMessage(s.totalPower.Sub(amount), "total power")
}

func (s *Service) AddEscrow(amount *big.Int) error {
	return errors.WithMessage(s.totalEscrowed.Add(amount), "total escrowed")
}

func (s *Service) SubEscrow(amount *big.Int) error {
	return errors.WithMessage(s.totalEscrowed.Sub(amount), "total escrowed")
}

// Epoch returns the current epoch index.
func (s *Service) Epoch() (uint32, error) {
	epoch, err := s.epoch.Get()
	if err != nil {
		return 0, err
	}
	return uint32(epoch.Uint64()), nil
}

// AdvanceEpoch increments the epoch index and returns the new value.
func (s *Service) AdvanceEpoch() (uint32, error) {
	epoch, err := s.Epoch()
	if err != nil {
		return 0, err
	}
	if epoch == math.MaxUint32 {
		return 0, errors.New("epoch index overflow")
	}
	epoch++
	if err := s.epoch.Set(new(big.Int).SetUint64(uint64(epoch))); err != nil {
		return 0, err
	}
	return epoch, nil
}
