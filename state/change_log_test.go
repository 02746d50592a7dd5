// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"

	"github.com/yodynetwork/yody/yody"
)

func TestValidateTransfers(t *testing.T) {
	a := yody.BytesToAddress([]byte("a"))
	b := yody.BytesToAddress([]byte("b"))
	c := yody.BytesToAddress([]byte("c"))

	credit := func(addr yody.Address, v int64) Change {
		return Change{Kind: Balance, Address: addr, Value: big.NewInt(v)}
	}

	ab := &Transfer{From: a, To: b, Value: uint256.NewInt(10)}
	bc := &Transfer{From: b, To: c, Value: uint256.NewInt(4)}
	// reverted: no log entries remain for it
	ac := &Transfer{From: a, To: c, Value: uint256.NewInt(7)}

	changes := []Change{
		{Kind: Touch, Address: c},
		credit(a, -10),
		credit(b, 10),
		credit(b, -4),
		credit(c, 4),
	}

	validated := ValidateTransfers([]*Transfer{ab, ac, bc}, changes)
	assert.Equal(t, []*Transfer{ab, bc}, validated)
	// the input log is not consumed
	assert.Equal(t, b, changes[2].Address)
}

func TestValidateTransfersConsumesEntries(t *testing.T) {
	a := yody.BytesToAddress([]byte("a"))
	b := yody.BytesToAddress([]byte("b"))

	t1 := &Transfer{From: a, To: b, Value: uint256.NewInt(5)}
	t2 := &Transfer{From: a, To: b, Value: uint256.NewInt(5)}

	changes := []Change{
		{Kind: Balance, Address: a, Value: big.NewInt(-5)},
		{Kind: Balance, Address: b, Value: big.NewInt(5)},
	}
	// a single pair backs only one transfer
	assert.Equal(t, []*Transfer{t1}, ValidateTransfers([]*Transfer{t1, t2}, changes))
}

func TestValidateTransfersFirstReceiverOnly(t *testing.T) {
	a := yody.BytesToAddress([]byte("a"))
	b := yody.BytesToAddress([]byte("b"))
	c := yody.BytesToAddress([]byte("c"))

	tr := &Transfer{From: a, To: b, Value: uint256.NewInt(3)}
	changes := []Change{
		{Kind: Balance, Address: b, Value: big.NewInt(3)},
		{Kind: Balance, Address: c, Value: big.NewInt(-3)},
	}
	assert.Empty(t, ValidateTransfers([]*Transfer{tr}, changes))
	assert.Empty(t, ValidateTransfers([]*Transfer{tr}, nil))
}
