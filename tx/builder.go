// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import "github.com/yodynetwork/yody/yody"

// Builder to make it easy to build transaction.
type Builder struct {
	body body
}

// Input adds an input spending txID:n by script.
func (b *Builder) Input(txID yody.Bytes32, n uint32, script []byte) *Builder {
	b.body.Inputs = append(b.body.Inputs, &Input{
		Prevout: OutPoint{TxID: txID, N: n},
		Script:  append([]byte(nil), script...),
	})
	return b
}

// Output adds an output.
func (b *Builder) Output(value uint64, script []byte) *Builder {
	b.body.Outputs = append(b.body.Outputs, &Output{
		Value:  value,
		Script: append([]byte(nil), script...),
	})
	return b
}

// Build build tx object.
func (b *Builder) Build() *Transaction {
	tx := Transaction{body: b.body}
	return &tx
}
