// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/vechain/stakeledger/cache"
	"github.com/vechain/stakeledger/kv"
)

const defaultCacheSize = 4096

// Stater is the state creator.
// States created by the same stater share one cache of committed slots.
type Stater struct {
	db    kv.GetPutter
	cache *cache.LRU
}

// NewStater create a new stater. Non-positive cacheSize uses the default.
func NewStater(db kv.GetPutter, cacheSize int) *Stater {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	c, _ := cache.NewLRU(cacheSize)
	return &Stater{db, c}
}

// NewState create a new state object over committed data.
func (s *Stater) NewState() *State {
	return newState(s.db, s.cache)
}

// CacheStats returns hit and miss counts of the shared cache.
func (s *Stater) CacheStats() (hit, miss int64) {
	return s.cache.Stats()
}
