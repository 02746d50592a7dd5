// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package trie

import (
	"bytes"
	"slices"

	"github.com/ethereum/go-ethereum/rlp"
	gethtrie "github.com/ethereum/go-ethereum/trie"

	"github.com/yodynetwork/yody/yody"
)

// see "github.com/ethereum/go-ethereum/core/types/hashing.go"

// DerivableList is a list whose root can be derived.
type DerivableList interface {
	Len() int
	GetRlp(i int) []byte
}

// DeriveRoot computes the root of the trie mapping rlp(index) to element.
func DeriveRoot(list DerivableList) yody.Bytes32 {
	keys := make([][]byte, list.Len())
	for i := range keys {
		keys[i] = rlp.AppendUint64(nil, uint64(i))
	}
	// stack trie requires keys in ascending order
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int { return bytes.Compare(keys[a], keys[b]) })

	st := gethtrie.NewStackTrie(nil)
	for _, i := range order {
		// elements are rlp encoded, never empty
		_ = st.Update(keys[i], list.GetRlp(i))
	}
	return yody.Bytes32(st.Hash())
}
