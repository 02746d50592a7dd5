// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/yodynetwork/yody/yody"
)

// ChangeKind is the kind of a change log entry.
type ChangeKind uint8

// Kinds of change.
const (
	// Balance change, Value is the signed delta.
	Balance ChangeKind = iota
	// Touch of an empty account, the first time it's modified.
	Touch
)

func (k ChangeKind) String() string {
	switch k {
	case Balance:
		return "balance"
	case Touch:
		return "touch"
	}
	return "unknown"
}

// Change is an entry of the change log.
type Change struct {
	Kind    ChangeKind
	Address yody.Address
	Value   *big.Int
}

// Transfer records value moved between two addresses during execution.
// Transfers survive checkpoint reverts, unlike the change log.
type Transfer struct {
	From  yody.Address
	To    yody.Address
	Value *uint256.Int
}

// ValidateTransfers returns the transfers backed by the change log.
//
// A transfer is kept if the log has a balance change of +value for the
// receiver and a balance change of -value for the sender. Matched entries are
// consumed so every entry backs at most one transfer. Only the first matching
// receiver entry is examined. The input log is left untouched.
func ValidateTransfers(transfers []*Transfer, changes []Change) []*Transfer {
	// matched entries get their address zeroed
	log := make([]Change, len(changes))
	copy(log, changes)

	validated := make([]*Transfer, 0, len(transfers))
	for _, tr := range transfers {
		plus := tr.Value.ToBig()
		minus := new(big.Int).Neg(plus)
		for i := range log {
			if !log[i].matches(tr.To, plus) {
				continue
			}
			for j := range log {
				if log[j].matches(tr.From, minus) {
					validated = append(validated, tr)
					log[i].Address = yody.Address{}
					log[j].Address = yody.Address{}
					break
				}
			}
			break
		}
	}
	return validated
}

func (c *Change) matches(addr yody.Address, value *big.Int) bool {
	return c.Kind == Balance && c.Address == addr && c.Value != nil && c.Value.Cmp(value) == 0
}
