// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package condense re-expresses the value transfers of a contract execution
// as one UTXO transaction, the condensing transaction.
package condense

import (
	"math"
	"slices"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/yodynetwork/yody/state"
	"github.com/yodynetwork/yody/tx"
	"github.com/yodynetwork/yody/yody"
)

var (
	// ErrVoutOverflow is returned when more than yody.MaxContractVouts outputs needed.
	ErrVoutOverflow = errors.New("condensing tx vout overflow")
	// ErrNegativeBalance is returned when an address spends more than it holds.
	ErrNegativeBalance = errors.New("negative balance")
	// ErrAmountOverflow is returned when an output value exceeds uint64.
	ErrAmountOverflow = errors.New("amount overflow")
)

// Reader reads the overlay.
type Reader interface {
	GetVin(addr yody.Address) (*state.Vin, error)
	IsContract(addr yody.Address) (bool, error)
}

// Result is the outcome of Build.
type Result struct {
	// the condensing tx, nil if it would have no inputs or no outputs
	Tx *tx.Transaction
	// new vins of every address involved, except the sender
	VinUpdates map[yody.Address]*state.Vin
}

type flow struct {
	plus, minus uint256.Int
}

// Condenser builds the condensing tx. It never modifies the state.
type Condenser struct {
	reader    Reader
	transfers []*state.Transfer
	vmtx      *tx.VMTransaction
	deleted   state.AddressSet

	vins     map[yody.Address]*state.Vin
	flows    map[yody.Address]*flow
	balances map[yody.Address]*uint256.Int
	nVouts   map[yody.Address]uint32
}

// New creates a condenser for validated transfers of vmtx.
// deleted is the block-scoped set of addresses killed before synthesis.
func New(reader Reader, transfers []*state.Transfer, vmtx *tx.VMTransaction, deleted state.AddressSet) *Condenser {
	return &Condenser{
		reader:    reader,
		transfers: transfers,
		vmtx:      vmtx,
		deleted:   deleted,
		vins:      make(map[yody.Address]*state.Vin),
		flows:     make(map[yody.Address]*flow),
		balances:  make(map[yody.Address]*uint256.Int),
		nVouts:    make(map[yody.Address]uint32),
	}
}

// Build builds the condensing tx and the vin updates.
func (c *Condenser) Build() (*Result, error) {
	if err := c.selectVins(); err != nil {
		return nil, err
	}
	c.net()
	if err := c.resolveBalances(); err != nil {
		return nil, err
	}

	var b tx.Builder
	nIn := c.buildInputs(&b)
	nOut, err := c.buildOutputs(&b)
	if err != nil {
		return nil, err
	}

	var condensing *tx.Transaction
	txID := new(tx.Builder).Build().ID()
	if nIn > 0 && nOut > 0 {
		condensing = b.Build()
		txID = condensing.ID()
	}

	updates := make(map[yody.Address]*state.Vin, len(c.balances))
	for addr, bal := range c.balances {
		if addr == c.vmtx.Sender {
			continue
		}
		if bal.Sign() > 0 {
			updates[addr] = &state.Vin{Hash: txID, NVout: c.nVouts[addr], Value: bal.Clone(), Alive: 1}
		} else {
			updates[addr] = &state.Vin{Hash: txID, Value: new(uint256.Int)}
		}
	}
	return &Result{Tx: condensing, VinUpdates: updates}, nil
}

// selectVins picks the current vin of every transfer party. The sender's vin
// is the output carrying the contract tx when value is attached.
func (c *Condenser) selectVins() error {
	for _, t := range c.transfers {
		if _, ok := c.vins[t.From]; !ok {
			v, err := c.reader.GetVin(t.From)
			if err != nil {
				return err
			}
			if v != nil {
				c.vins[t.From] = v
			}
			if t.From == c.vmtx.Sender && c.vmtx.Value.Sign() > 0 {
				c.vins[t.From] = &state.Vin{
					Hash:  c.vmtx.HashWith,
					NVout: c.vmtx.NVout,
					Value: c.vmtx.Value.Clone(),
					Alive: 1,
				}
			}
		}
		if _, ok := c.vins[t.To]; !ok {
			v, err := c.reader.GetVin(t.To)
			if err != nil {
				return err
			}
			if v != nil {
				c.vins[t.To] = v
			}
		}
	}
	return nil
}

// net sums credits and debits per address.
func (c *Condenser) net() {
	get := func(addr yody.Address) *flow {
		f, ok := c.flows[addr]
		if !ok {
			f = &flow{}
			c.flows[addr] = f
		}
		return f
	}
	for _, t := range c.transfers {
		from := get(t.From)
		from.minus.Add(&from.minus, t.Value)
		to := get(t.To)
		to.plus.Add(&to.plus, t.Value)
	}
}

// spendable returns whether the vin of addr still holds value to move.
// A dead vin counts unless the address was deleted in this block.
func (c *Condenser) spendable(addr yody.Address, v *state.Vin) bool {
	return v.IsAlive() || !c.deleted.Contains(addr)
}

func (c *Condenser) resolveBalances() error {
	for _, addr := range sortedKeys(c.flows) {
		f := c.flows[addr]
		balance := new(uint256.Int)
		if v, ok := c.vins[addr]; ok && c.spendable(addr, v) {
			balance.Set(v.Value)
		}
		balance.Add(balance, &f.plus)
		if balance.Lt(&f.minus) {
			return errors.Wrapf(ErrNegativeBalance, "address %v", addr)
		}
		balance.Sub(balance, &f.minus)
		c.balances[addr] = balance
	}
	return nil
}

func (c *Condenser) buildInputs(b *tx.Builder) int {
	n := 0
	for _, addr := range sortedKeys(c.vins) {
		v := c.vins[addr]
		if v.Value.Sign() > 0 && c.spendable(addr, v) {
			b.Input(v.Hash, v.NVout, tx.SpendScript())
			n++
		}
	}
	return n
}

func (c *Condenser) buildOutputs(b *tx.Builder) (int, error) {
	count := 0
	for _, addr := range sortedKeys(c.balances) {
		bal := c.balances[addr]
		if bal.Sign() > 0 {
			if !bal.IsUint64() || bal.Uint64() > math.MaxInt64 {
				return 0, errors.Wrapf(ErrAmountOverflow, "address %v", addr)
			}
			isContract, err := c.reader.IsContract(addr)
			if err != nil {
				return 0, err
			}
			var script []byte
			if isContract {
				script = tx.NoExecCallScript(addr)
			} else {
				script = tx.P2PKHScript(addr)
			}
			b.Output(bal.Uint64(), script)
			c.nVouts[addr] = uint32(count)
			count++
		}
		if count > yody.MaxContractVouts {
			return 0, ErrVoutOverflow
		}
	}
	return count, nil
}

func sortedKeys[V any](m map[yody.Address]V) []yody.Address {
	keys := make([]yody.Address, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, yody.Address.Compare)
	return keys
}
