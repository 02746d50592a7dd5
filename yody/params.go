// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package yody

// Constants of the state transition.
const (
	// MaxContractVouts caps the outputs of one condensing transaction.
	MaxContractVouts = 1000

	// NoOutputIndex marks a receipt whose transaction output index is unknown.
	NoOutputIndex uint32 = 0xffffffff
)
