// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"io"
	"slices"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/vechain/stakeledger/cache"
	"github.com/vechain/stakeledger/kv"
	"github.com/vechain/stakeledger/thor"
)

// Stage abstracts the pending storage changes of a state.
type Stage struct {
	db      kv.GetPutter
	cache   *cache.LRU
	changes map[storageKey]rlp.RawValue
}

// Len returns the number of changed slots.
func (s *Stage) Len() int {
	return len(s.changes)
}

func (s *Stage) sortedKeys() []storageKey {
	keys := make([]storageKey, 0, len(s.changes))
	for k := range s.changes {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b storageKey) int {
		if c := bytes.Compare(a.addr[:], b.addr[:]); c != 0 {
			return c
		}
		return bytes.Compare(a.key[:], b.key[:])
	})
	return keys
}

// Hash computes the digest of all changes, independent of write order.
func (s *Stage) Hash() thor.Bytes32 {
	keys := s.sortedKeys()
	return thor.Blake2bFn(func(w io.Writer) {
		for _, k := range keys {
			w.Write(k.dbKey())
			w.Write(s.changes[k])
		}
	})
}

// Commit writes all changes into the underlying store in a single batch.
func (s *Stage) Commit() (thor.Bytes32, error) {
	batch := s.db.NewBatch()
	for k, v := range s.changes {
		var err error
		if len(v) == 0 {
			err = batch.Delete(k.dbKey())
		} else {
			err = batch.Put(k.dbKey(), v)
		}
		if err != nil {
			return thor.Bytes32{}, &Error{err}
		}
	}
	if err := batch.Write(); err != nil {
		return thor.Bytes32{}, &Error{err}
	}

	if s.cache != nil {
		for k, v := range s.changes {
			s.cache.Add(k, v)
		}
	}
	metricStorageCounter().AddWithLabel(int64(len(s.changes)), map[string]string{"type": "write"})
	metricCommitSize().Set(int64(len(s.changes)))
	return s.Hash(), nil
}
