// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/yodynetwork/yody/kv"
	"github.com/yodynetwork/yody/trie"
	"github.com/yodynetwork/yody/yody"
)

// Commit moves overlay changes into the account trie and the UTXO trie, and
// resets the overlay along with the change log. Killed accounts and dead
// vins are removed. Touched empty accounts are removed if removeEmpty is set.
// Nothing is persisted until Flush.
func (s *State) Commit(removeEmpty bool) error {
	var (
		accounts = make(map[yody.Address]struct{})
		vins     = make(map[yody.Address]struct{})
		storages = make(map[yody.Address]map[yody.Bytes32]rlp.RawValue)
	)

	// traverse journal to collect changes
	s.sm.Journal(func(k, v any) bool {
		switch key := k.(type) {
		case yody.Address:
			accounts[key] = struct{}{}
		case codeKey:
			accounts[yody.Address(key)] = struct{}{}
			if code := v.([]byte); len(code) > 0 {
				s.codes[yody.Bytes32(crypto.Keccak256Hash(code))] = code
			}
		case killedKey:
			accounts[yody.Address(key)] = struct{}{}
		case storageBarrierKey:
			accounts[yody.Address(key)] = struct{}{}
			// discard storage updates before the barrier
			delete(storages, yody.Address(key))
		case storageKey:
			accounts[key.addr] = struct{}{}
			if key.barrier != s.getStorageBarrier(key.addr) {
				break
			}
			m := storages[key.addr]
			if m == nil {
				m = make(map[yody.Bytes32]rlp.RawValue)
				storages[key.addr] = m
			}
			m[key.key] = v.(rlp.RawValue)
		case vinKey:
			vins[yody.Address(key)] = struct{}{}
		}
		return true
	})

	var updated, deleted int64
	for addr := range accounts {
		a, err := s.getAccount(addr)
		if err != nil {
			return &Error{err}
		}
		killed := s.isKilled(addr)
		if a == nil && !killed {
			continue
		}
		strie := s.storageTrie(addr)
		if killed || s.getStorageBarrier(addr) > 0 || (removeEmpty && a.IsEmpty()) {
			strie.Reset()
		}
		if killed || (removeEmpty && a.IsEmpty()) {
			if err := saveAccount(s.accountTrie, addr, nil); err != nil {
				return &Error{err}
			}
			deleted++
			continue
		}

		cpy := *a
		if m, ok := storages[addr]; ok || s.getStorageBarrier(addr) > 0 {
			for k, v := range m {
				if err := strie.Update(k[:], v); err != nil {
					return &Error{err}
				}
			}
			root, err := strie.Hash()
			if err != nil {
				return &Error{err}
			}
			if root == trie.EmptyRoot {
				cpy.StorageRoot = nil
			} else {
				cpy.StorageRoot = root.Bytes()
			}
		}
		if err := saveAccount(s.accountTrie, addr, &cpy); err != nil {
			return &Error{err}
		}
		updated++
	}

	for addr := range vins {
		v, err := s.GetVin(addr)
		if err != nil {
			return err
		}
		if err := saveVin(s.utxoTrie, addr, v); err != nil {
			return &Error{err}
		}
	}

	metricAccountCounter().AddWithLabel(updated, map[string]string{"type": "updated", "target": "account"})
	metricAccountCounter().AddWithLabel(deleted, map[string]string{"type": "deleted", "target": "account"})
	metricAccountCounter().AddWithLabel(int64(len(vins)), map[string]string{"type": "updated", "target": "vin"})

	s.resetOverlay()
	return nil
}

// Flush persists committed changes of the account trie, the UTXO trie,
// storage tries and codes in one atomic batch.
func (s *State) Flush() error {
	bulk := s.db.Bulk()
	if err := s.accountTrie.Commit(bulk); err != nil {
		return &Error{err}
	}
	if err := s.utxoTrie.Commit(bulk); err != nil {
		return &Error{err}
	}
	for _, strie := range s.storageTries {
		if err := strie.Commit(bulk); err != nil {
			return &Error{err}
		}
	}
	codePutter := kv.Bucket(codeStoreName).NewPutter(bulk)
	for hash, code := range s.codes {
		if err := codePutter.Put(hash[:], code); err != nil {
			return &Error{err}
		}
	}
	if err := bulk.Write(); err != nil {
		return &Error{err}
	}
	clear(s.codes)
	clear(s.storageTries)
	return nil
}
