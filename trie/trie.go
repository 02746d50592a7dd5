// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package trie implements the authenticated key-value tree backing accounts,
// vins and contract storage.
//
// It's a secure Merkle Patricia trie: paths are keccak256 of the keys, and
// leaves carry the key along with the value so the tree can be enumerated.
// Nodes are persisted in a kv bucket keyed by node hash, next to the pointer
// of the latest root. Only the latest root is kept reachable.
package trie

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	gethtrie "github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/triedb/database"
	"github.com/pkg/errors"

	"github.com/yodynetwork/yody/kv"
	"github.com/yodynetwork/yody/yody"
)

// EmptyRoot is the root of a trie without leaves.
var EmptyRoot = yody.Bytes32(types.EmptyRootHash)

// rootKey locates the latest root in the bucket. Node keys are 32 bytes long.
var rootKey = []byte("root")

type leaf struct {
	Key   []byte
	Value []byte
}

// nodeDatabase resolves trie nodes from the bucket. Nodes of the latest
// commit are served from memory, since the putter they were written to may
// not be flushed yet.
type nodeDatabase struct {
	getter kv.Getter
	recent map[common.Hash][]byte
}

func (db *nodeDatabase) NodeReader(common.Hash) (database.NodeReader, error) {
	return db, nil
}

func (db *nodeDatabase) Node(_ common.Hash, _ []byte, hash common.Hash) ([]byte, error) {
	if blob, ok := db.recent[hash]; ok {
		return blob, nil
	}
	blob, err := db.getter.Get(hash[:])
	if err != nil {
		if db.getter.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return blob, nil
}

// Trie is a persistent authenticated key-value tree.
// It's not thread-safe.
type Trie struct {
	bucket kv.Bucket
	db     *nodeDatabase
	trie   *gethtrie.Trie
	reset  bool
}

// New creates a trie whose nodes live in the given bucket of db.
// The latest committed root is loaded on first access.
func New(bucket kv.Bucket, db kv.Getter) *Trie {
	return &Trie{
		bucket: bucket,
		db:     &nodeDatabase{getter: bucket.NewGetter(db)},
	}
}

func (t *Trie) open() (*gethtrie.Trie, error) {
	if t.trie != nil {
		return t.trie, nil
	}
	root := EmptyRoot
	data, err := t.db.getter.Get(rootKey)
	if err != nil {
		if !t.db.getter.IsNotFound(err) {
			return nil, err
		}
	} else {
		root = yody.BytesToBytes32(data)
	}
	tr, err := gethtrie.New(gethtrie.TrieID(common.Hash(root)), t.db)
	if err != nil {
		return nil, errors.Wrap(err, "open trie")
	}
	t.trie = tr
	return tr, nil
}

// Get returns the value for key. Nil value returned if the key not present.
func (t *Trie) Get(key []byte) ([]byte, error) {
	tr, err := t.open()
	if err != nil {
		return nil, err
	}
	hk := yody.Keccak256(key)
	data, err := tr.Get(hk[:])
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	var l leaf
	if err := rlp.DecodeBytes(data, &l); err != nil {
		return nil, errors.Wrap(err, "decode leaf")
	}
	return l.Value, nil
}

// Update associates key with value. An empty value deletes the key.
func (t *Trie) Update(key, value []byte) error {
	tr, err := t.open()
	if err != nil {
		return err
	}
	hk := yody.Keccak256(key)
	if len(value) == 0 {
		return tr.Delete(hk[:])
	}
	data, err := rlp.EncodeToBytes(&leaf{Key: key, Value: value})
	if err != nil {
		return err
	}
	return tr.Update(hk[:], data)
}

// Reset drops all leaves. The old nodes stay in the bucket unreferenced.
func (t *Trie) Reset() {
	t.trie = gethtrie.NewEmpty(t.db)
	t.reset = true
}

// Hash returns the root hash of the trie, including uncommitted updates.
// Only the nodes on updated paths are rehashed.
func (t *Trie) Hash() (yody.Bytes32, error) {
	tr, err := t.open()
	if err != nil {
		return yody.Bytes32{}, err
	}
	return yody.Bytes32(tr.Hash()), nil
}

// Iterate calls fn for each leaf in hashed-key order, until fn returns false.
// Uncommitted updates are included.
func (t *Trie) Iterate(fn func(key, value []byte) bool) error {
	tr, err := t.open()
	if err != nil {
		return err
	}
	nit, err := tr.NodeIterator(nil)
	if err != nil {
		return err
	}
	it := gethtrie.NewIterator(nit)
	for it.Next() {
		var l leaf
		if err := rlp.DecodeBytes(it.Value, &l); err != nil {
			return errors.Wrap(err, "decode leaf")
		}
		if !fn(l.Key, l.Value) {
			return nil
		}
	}
	return it.Err
}

// Commit writes new nodes and the root pointer into putter, which must be
// a putter of the db the trie created on.
func (t *Trie) Commit(putter kv.Putter) error {
	if t.trie == nil {
		return nil
	}
	root, nodes := t.trie.Commit(false)
	if nodes == nil && !t.reset {
		// clean, reopen the committed trie
		tr, err := gethtrie.New(gethtrie.TrieID(root), t.db)
		if err != nil {
			return errors.Wrap(err, "reopen trie")
		}
		t.trie = tr
		return nil
	}

	putter = t.bucket.NewPutter(putter)
	recent := make(map[common.Hash][]byte)
	if nodes != nil {
		for _, n := range nodes.Nodes {
			if n.IsDeleted() {
				continue
			}
			if err := putter.Put(n.Hash[:], n.Blob); err != nil {
				return err
			}
			recent[n.Hash] = bytes.Clone(n.Blob)
		}
	}
	if err := putter.Put(rootKey, root[:]); err != nil {
		return err
	}

	t.db.recent = recent
	tr, err := gethtrie.New(gethtrie.TrieID(root), t.db)
	if err != nil {
		return errors.Wrap(err, "reopen trie")
	}
	t.trie = tr
	t.reset = false
	return nil
}
