// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import "github.com/yodynetwork/yody/yody"

// AddressSet is a set of addresses.
type AddressSet map[yody.Address]struct{}

// Add adds addresses into the set.
func (s AddressSet) Add(addrs ...yody.Address) {
	for _, addr := range addrs {
		s[addr] = struct{}{}
	}
}

// Contains returns whether addr is in the set.
func (s AddressSet) Contains(addr yody.Address) bool {
	_, ok := s[addr]
	return ok
}
