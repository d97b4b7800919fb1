// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/vechain/stakeledger/builtin/reverts"
	"github.com/vechain/stakeledger/metrics"
)

var (
	metricOperationCount = metrics.LazyLoadCounterVec("staker_operation_count", []string{"method", "result"})
	metricEpoch          = metrics.LazyLoadGauge("staker_epoch")
	metricActiveSetSize  = metrics.LazyLoadGauge("staker_active_set_size")
)

func observe(method string, err error) {
	result := "ok"
	if err != nil {
		if kind, ok := reverts.KindOf(err); ok {
			result = kind.String()
		} else {
			result = "error"
		}
	}
	metricOperationCount().AddWithLabel(1, map[string]string{"method": method, "result": result})
}
