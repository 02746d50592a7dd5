// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package tx defines the UTXO transaction model, output scripts and the
// contract transactions extracted from them.
package tx

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/yodynetwork/yody/yody"
)

// OutPoint refers to an output of a transaction.
type OutPoint struct {
	TxID yody.Bytes32
	N    uint32
}

func (p OutPoint) String() string {
	return fmt.Sprintf("%v:%d", p.TxID, p.N)
}

// Input spends an output.
type Input struct {
	Prevout OutPoint
	Script  []byte
}

// Output is a spendable value locked by a script.
type Output struct {
	Value  uint64
	Script []byte
}

// Transaction is an immutable tx type.
type Transaction struct {
	body body

	cache struct {
		id atomic.Pointer[yody.Bytes32]
	}
}

// body describes details of a tx.
type body struct {
	Inputs  []*Input
	Outputs []*Output
}

// ID returns id of tx, blake2b hash of the rlp encoded tx.
func (t *Transaction) ID() yody.Bytes32 {
	if cached := t.cache.id.Load(); cached != nil {
		return *cached
	}
	id := yody.Blake2bFn(func(w io.Writer) {
		_ = rlp.Encode(w, &t.body)
	})
	t.cache.id.Store(&id)
	return id
}

// Inputs returns copy of inputs.
func (t *Transaction) Inputs() []*Input {
	inputs := make([]*Input, len(t.body.Inputs))
	for i, in := range t.body.Inputs {
		cpy := *in
		cpy.Script = append([]byte(nil), in.Script...)
		inputs[i] = &cpy
	}
	return inputs
}

// Outputs returns copy of outputs.
func (t *Transaction) Outputs() []*Output {
	outputs := make([]*Output, len(t.body.Outputs))
	for i, out := range t.body.Outputs {
		cpy := *out
		cpy.Script = append([]byte(nil), out.Script...)
		outputs[i] = &cpy
	}
	return outputs
}

// IsEmpty returns whether the tx has neither inputs nor outputs.
func (t *Transaction) IsEmpty() bool {
	return len(t.body.Inputs) == 0 && len(t.body.Outputs) == 0
}

// TotalOutput returns sum of output values. False returned on overflow.
func (t *Transaction) TotalOutput() (uint64, bool) {
	var sum uint64
	for _, out := range t.body.Outputs {
		if sum+out.Value < sum {
			return 0, false
		}
		sum += out.Value
	}
	return sum, true
}

// EncodeRLP implements rlp.Encoder
func (t *Transaction) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &t.body)
}

// DecodeRLP implements rlp.Decoder
func (t *Transaction) DecodeRLP(s *rlp.Stream) error {
	var body body
	if err := s.Decode(&body); err != nil {
		return err
	}
	*t = Transaction{body: body}
	return nil
}

func (t *Transaction) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tx(%v)\n", t.ID())
	for i, in := range t.body.Inputs {
		fmt.Fprintf(&b, "\tIn[%d]:  %v script=0x%x\n", i, in.Prevout, in.Script)
	}
	for i, out := range t.body.Outputs {
		fmt.Fprintf(&b, "\tOut[%d]: %d script=0x%x\n", i, out.Value, out.Script)
	}
	return b.String()
}
