// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/yodynetwork/yody/yody"
)

// Opcodes used by standard and contract scripts.
const (
	OP_0           = 0x00
	OP_PUSHDATA1   = 0x4c
	OP_PUSHDATA2   = 0x4d
	OP_PUSHDATA4   = 0x4e
	OP_1NEGATE     = 0x4f
	OP_1           = 0x51
	OP_16          = 0x60
	OP_DUP         = 0x76
	OP_EQUALVERIFY = 0x88
	OP_HASH160     = 0xa9
	OP_CHECKSIG    = 0xac
	OP_CREATE      = 0xc1
	OP_CALL        = 0xc2
	OP_SPEND       = 0xc3
)

// maxScriptNumSize is the max length of numbers in contract scripts.
const maxScriptNumSize = 8

var (
	errMalformedScript = errors.New("malformed script")
	errNumberTooLong   = errors.New("script number too long")
)

// ScriptBuilder builds scripts.
type ScriptBuilder struct {
	script []byte
}

// AddOp appends an opcode.
func (b *ScriptBuilder) AddOp(op byte) *ScriptBuilder {
	b.script = append(b.script, op)
	return b
}

// AddData appends a data push, using the smallest push opcode.
func (b *ScriptBuilder) AddData(data []byte) *ScriptBuilder {
	n := len(data)
	switch {
	case n < OP_PUSHDATA1:
		b.script = append(b.script, byte(n))
	case n <= 0xff:
		b.script = append(b.script, OP_PUSHDATA1, byte(n))
	case n <= 0xffff:
		b.script = append(b.script, OP_PUSHDATA2)
		b.script = binary.LittleEndian.AppendUint16(b.script, uint16(n))
	default:
		b.script = append(b.script, OP_PUSHDATA4)
		b.script = binary.LittleEndian.AppendUint32(b.script, uint32(n))
	}
	b.script = append(b.script, data...)
	return b
}

// AddNumber appends a number as a data push in script number encoding.
func (b *ScriptBuilder) AddNumber(n int64) *ScriptBuilder {
	return b.AddData(EncodeScriptNum(n))
}

// Script returns the built script.
func (b *ScriptBuilder) Script() []byte {
	return append([]byte(nil), b.script...)
}

// ScriptOp is a parsed script element.
type ScriptOp struct {
	Opcode byte
	Data   []byte // pushed data, nil for non-push opcodes
}

// IsPush returns whether the op pushes data or a small number onto the stack.
func (op *ScriptOp) IsPush() bool {
	return op.Opcode <= OP_16 && op.Opcode != 0x50
}

// Uint decodes the op as an unsigned number.
func (op *ScriptOp) Uint() (uint64, error) {
	switch {
	case op.Opcode == OP_0:
		return 0, nil
	case op.Opcode >= OP_1 && op.Opcode <= OP_16:
		return uint64(op.Opcode-OP_1) + 1, nil
	case op.Opcode <= OP_PUSHDATA4:
		return DecodeScriptUint(op.Data)
	}
	return 0, errMalformedScript
}

// ParseScript splits script into ops.
func ParseScript(script []byte) ([]ScriptOp, error) {
	var ops []ScriptOp
	for i := 0; i < len(script); {
		op := script[i]
		i++

		var n int
		switch {
		case op < OP_PUSHDATA1:
			n = int(op)
		case op == OP_PUSHDATA1:
			if i+1 > len(script) {
				return nil, errMalformedScript
			}
			n = int(script[i])
			i++
		case op == OP_PUSHDATA2:
			if i+2 > len(script) {
				return nil, errMalformedScript
			}
			n = int(binary.LittleEndian.Uint16(script[i:]))
			i += 2
		case op == OP_PUSHDATA4:
			if i+4 > len(script) {
				return nil, errMalformedScript
			}
			n = int(binary.LittleEndian.Uint32(script[i:]))
			i += 4
		default:
			ops = append(ops, ScriptOp{Opcode: op})
			continue
		}
		if n < 0 || i+n > len(script) {
			return nil, errMalformedScript
		}
		ops = append(ops, ScriptOp{Opcode: op, Data: script[i : i+n : i+n]})
		i += n
	}
	return ops, nil
}

// EncodeScriptNum encodes n as a minimal little-endian sign-magnitude number.
func EncodeScriptNum(n int64) []byte {
	if n == 0 {
		return nil
	}
	neg := n < 0
	abs := uint64(n)
	if neg {
		abs = uint64(-n)
	}
	var out []byte
	for abs > 0 {
		out = append(out, byte(abs&0xff))
		abs >>= 8
	}
	// the sign bit lives in the msb of the last byte
	if out[len(out)-1]&0x80 != 0 {
		if neg {
			out = append(out, 0x80)
		} else {
			out = append(out, 0x00)
		}
	} else if neg {
		out[len(out)-1] |= 0x80
	}
	return out
}

// DecodeScriptUint decodes data of at most 8 bytes as a little-endian unsigned number.
func DecodeScriptUint(data []byte) (uint64, error) {
	if len(data) > maxScriptNumSize {
		return 0, errNumberTooLong
	}
	var n uint64
	for i := len(data) - 1; i >= 0; i-- {
		n = n<<8 | uint64(data[i])
	}
	return n, nil
}

// P2PKHScript returns the pay-to-pubkey-hash script locking to addr.
func P2PKHScript(addr yody.Address) []byte {
	return new(ScriptBuilder).
		AddOp(OP_DUP).
		AddOp(OP_HASH160).
		AddData(addr[:]).
		AddOp(OP_EQUALVERIFY).
		AddOp(OP_CHECKSIG).
		Script()
}

// ExtractP2PKH returns the address locked by a pay-to-pubkey-hash script.
func ExtractP2PKH(script []byte) (yody.Address, bool) {
	ops, err := ParseScript(script)
	if err != nil || len(ops) != 5 {
		return yody.Address{}, false
	}
	if ops[0].Opcode != OP_DUP ||
		ops[1].Opcode != OP_HASH160 ||
		len(ops[2].Data) != yody.AddressLength ||
		ops[3].Opcode != OP_EQUALVERIFY ||
		ops[4].Opcode != OP_CHECKSIG {
		return yody.Address{}, false
	}
	return yody.BytesToAddress(ops[2].Data), true
}

// SpendScript returns the input script spending outputs owned by contracts.
func SpendScript() []byte {
	return []byte{OP_SPEND}
}

// NoExecCallScript returns an OP_CALL script that credits the contract
// without execution: zero version, gas limit, gas price and data.
func NoExecCallScript(addr yody.Address) []byte {
	zero := []byte{0}
	return new(ScriptBuilder).
		AddData(zero).
		AddData(zero).
		AddData(zero).
		AddData(zero).
		AddData(addr[:]).
		AddOp(OP_CALL).
		Script()
}
