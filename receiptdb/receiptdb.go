// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package receiptdb persists execution receipts of contract txs in a
// leveldb of its own, keyed by tx hash.
//
// Writes are buffered until Commit, reads go through an LRU cache.
package receiptdb

import (
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/yodynetwork/yody/cache"
	"github.com/yodynetwork/yody/kv"
	"github.com/yodynetwork/yody/log"
	"github.com/yodynetwork/yody/lvldb"
	"github.com/yodynetwork/yody/metrics"
	"github.com/yodynetwork/yody/yody"
)

const (
	dirName   = "resultsDB"
	cacheSize = 4096
)

var (
	logger = log.WithContext("pkg", "receiptdb")

	metricCacheHits   = metrics.LazyLoadCounter("receiptdb_cache_hits")
	metricCacheMisses = metrics.LazyLoadCounter("receiptdb_cache_misses")
	metricCommitCount = metrics.LazyLoadCounter("receiptdb_commit_count")
)

type pendingEntry struct {
	receipts []*Receipt
}

// ReceiptDB is the execution receipt store.
type ReceiptDB struct {
	path string

	dbLock sync.RWMutex // guards db, exclusive for wipe and close
	db     *lvldb.LevelDB

	lock    sync.Mutex // guards pending and gen
	pending map[yody.Bytes32]*pendingEntry
	gen     uint64 // bumped when stored records are deleted
	cache   *cache.LRU
	group   singleflight.Group
}

// Open opens or creates the receipt db under dir.
func Open(dir string) (*ReceiptDB, error) {
	path := filepath.Join(dir, dirName)
	db, err := lvldb.New(path, lvldb.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "open receipt db")
	}
	c, err := cache.NewLRU(cacheSize)
	if err != nil {
		return nil, err
	}
	logger.Info("opened receipt db", "path", path)
	return &ReceiptDB{
		path:    path,
		db:      db,
		pending: make(map[yody.Bytes32]*pendingEntry),
		cache:   c,
	}, nil
}

func dbKey(txHash yody.Bytes32) []byte {
	return []byte(common.Bytes2Hex(txHash[:]))
}

// Put buffers the receipts of a tx until Commit.
func (r *ReceiptDB) Put(txHash yody.Bytes32, receipts []*Receipt) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.pending[txHash] = &pendingEntry{receipts}
	r.cache.Remove(txHash)
}

// Get returns the receipts of a tx, nil if not found.
// A malformed record wipes the store.
func (r *ReceiptDB) Get(txHash yody.Bytes32) ([]*Receipt, error) {
	r.lock.Lock()
	if e, ok := r.pending[txHash]; ok {
		r.lock.Unlock()
		metricCacheHits().Add(1)
		return e.receipts, nil
	}
	r.lock.Unlock()

	if v, ok := r.cache.Get(txHash); ok {
		metricCacheHits().Add(1)
		return v.([]*Receipt), nil
	}
	metricCacheMisses().Add(1)

	v, err, _ := r.group.Do(string(txHash[:]), func() (any, error) {
		r.lock.Lock()
		gen := r.gen
		r.lock.Unlock()

		receipts, err := r.read(txHash)
		if err != nil {
			return nil, err
		}
		if receipts != nil {
			r.lock.Lock()
			// not cached if deleted while reading
			if r.gen == gen {
				r.cache.Add(txHash, receipts)
			}
			r.lock.Unlock()
		}
		return receipts, nil
	})
	if errors.Is(err, errMalformed) {
		logger.Warn("malformed receipt record, wiping receipt db", "tx", txHash, "err", err)
		if err := r.Wipe(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return v.([]*Receipt), nil
}

func (r *ReceiptDB) read(txHash yody.Bytes32) ([]*Receipt, error) {
	r.dbLock.RLock()
	defer r.dbLock.RUnlock()

	data, err := r.db.Get(dbKey(txHash))
	if err != nil {
		if r.db.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read receipts")
	}
	return decodeReceipts(data)
}

// DeleteMany removes the receipts of txs, pending or stored.
func (r *ReceiptDB) DeleteMany(txHashes []yody.Bytes32) error {
	r.lock.Lock()
	for _, h := range txHashes {
		delete(r.pending, h)
	}
	r.lock.Unlock()

	if err := r.delete(txHashes); err != nil {
		return err
	}

	// evict after the disk delete, so concurrent reads can't cache stale records
	r.lock.Lock()
	defer r.lock.Unlock()
	r.gen++
	for _, h := range txHashes {
		r.cache.Remove(h)
	}
	return nil
}

func (r *ReceiptDB) delete(txHashes []yody.Bytes32) error {
	r.dbLock.RLock()
	defer r.dbLock.RUnlock()

	bulk := r.db.Bulk()
	for _, h := range txHashes {
		if err := bulk.Delete(dbKey(h)); err != nil {
			return err
		}
	}
	return errors.Wrap(bulk.Write(), "delete receipts")
}

// Commit writes pending receipts in one batch. Records already on disk are
// kept as is.
func (r *ReceiptDB) Commit() error {
	r.lock.Lock()
	snapshot := make(map[yody.Bytes32]*pendingEntry, len(r.pending))
	for h, e := range r.pending {
		snapshot[h] = e
	}
	r.lock.Unlock()

	if len(snapshot) == 0 {
		return nil
	}

	written, err := r.write(snapshot)
	if err != nil {
		return err
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	for h, e := range snapshot {
		// untouched since snapshot
		if r.pending[h] != e {
			continue
		}
		delete(r.pending, h)
		if written[h] {
			r.cache.Add(h, e.receipts)
		} else {
			r.cache.Remove(h)
		}
	}
	return nil
}

// write stores the entries not on disk yet, and returns the set written.
func (r *ReceiptDB) write(entries map[yody.Bytes32]*pendingEntry) (map[yody.Bytes32]bool, error) {
	r.dbLock.RLock()
	defer r.dbLock.RUnlock()

	written := make(map[yody.Bytes32]bool, len(entries))
	bulk := r.db.Bulk()
	for h, e := range entries {
		key := dbKey(h)
		has, err := r.db.Has(key)
		if err != nil {
			return nil, errors.Wrap(err, "commit receipts")
		}
		if has {
			continue
		}
		data, err := encodeReceipts(e.receipts)
		if err != nil {
			return nil, err
		}
		if err := bulk.Put(key, data); err != nil {
			return nil, err
		}
		written[h] = true
	}
	if err := bulk.Write(); err != nil {
		return nil, errors.Wrap(err, "commit receipts")
	}
	metricCommitCount().Add(int64(len(written)))
	return written, nil
}

// Wipe destroys all stored and buffered receipts.
func (r *ReceiptDB) Wipe() error {
	r.dbLock.Lock()
	defer r.dbLock.Unlock()

	logger.Warn("wiping receipt db", "path", r.path)
	if err := r.db.Close(); err != nil {
		return errors.Wrap(err, "close receipt db")
	}
	if err := lvldb.Destroy(r.path); err != nil {
		return err
	}
	db, err := lvldb.New(r.path, lvldb.Options{})
	if err != nil {
		return errors.Wrap(err, "reopen receipt db")
	}
	r.db = db

	r.lock.Lock()
	r.pending = make(map[yody.Bytes32]*pendingEntry)
	r.gen++
	r.cache.Purge()
	r.lock.Unlock()
	return nil
}

// Close closes the receipt db. Pending receipts are dropped.
func (r *ReceiptDB) Close() error {
	r.dbLock.Lock()
	defer r.dbLock.Unlock()
	return r.db.Close()
}

// Iterate calls fn for each committed receipt set, until fn returns false.
func (r *ReceiptDB) Iterate(fn func(txHash yody.Bytes32, receipts []*Receipt) bool) error {
	r.dbLock.RLock()
	defer r.dbLock.RUnlock()

	it := r.db.Iterate(kv.Range{})
	defer it.Release()
	for it.Next() {
		receipts, err := decodeReceipts(it.Value())
		if err != nil {
			return errors.Wrapf(err, "key %s", it.Key())
		}
		if !fn(yody.BytesToBytes32(common.Hex2Bytes(string(it.Key()))), receipts) {
			break
		}
	}
	return it.Error()
}
