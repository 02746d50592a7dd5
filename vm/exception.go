// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vm

// Exception is the code of a failed contract execution, recorded in receipts.
type Exception uint32

// Exception codes. The values are persisted, append only.
const (
	ExceptionNone Exception = iota
	ExceptionUnknown
	ExceptionBadRLP
	ExceptionInvalidFormat
	ExceptionOutOfGasIntrinsic
	ExceptionInvalidSignature
	ExceptionInvalidNonce
	ExceptionNotEnoughCash
	ExceptionOutOfGasBase
	ExceptionBlockGasLimitReached
	ExceptionBadInstruction
	ExceptionBadJumpDestination
	ExceptionOutOfGas
	ExceptionOutOfStack
	ExceptionStackUnderflow
	ExceptionRevertInstruction
	ExceptionInvalidZeroSignatureFormat
	ExceptionAddressAlreadyUsed
	ExceptionCreateWithValue
	ExceptionNoInformation
	// ExceptionInvalidTransfer marks value movements that fail conservation
	// when synthesizing outputs.
	ExceptionInvalidTransfer
)

var exceptionNames = [...]string{
	ExceptionNone:                       "None",
	ExceptionUnknown:                    "Unknown",
	ExceptionBadRLP:                     "BadRLP",
	ExceptionInvalidFormat:              "InvalidFormat",
	ExceptionOutOfGasIntrinsic:          "OutOfGasIntrinsic",
	ExceptionInvalidSignature:           "InvalidSignature",
	ExceptionInvalidNonce:               "InvalidNonce",
	ExceptionNotEnoughCash:              "NotEnoughCash",
	ExceptionOutOfGasBase:               "OutOfGasBase",
	ExceptionBlockGasLimitReached:       "BlockGasLimitReached",
	ExceptionBadInstruction:             "BadInstruction",
	ExceptionBadJumpDestination:         "BadJumpDestination",
	ExceptionOutOfGas:                   "OutOfGas",
	ExceptionOutOfStack:                 "OutOfStack",
	ExceptionStackUnderflow:             "StackUnderflow",
	ExceptionRevertInstruction:          "RevertInstruction",
	ExceptionInvalidZeroSignatureFormat: "InvalidZeroSignatureFormat",
	ExceptionAddressAlreadyUsed:         "AddressAlreadyUsed",
	ExceptionCreateWithValue:            "CreateWithValue",
	ExceptionNoInformation:              "NoInformation",
	ExceptionInvalidTransfer:            "InvalidTransfer",
}

func (e Exception) String() string {
	if int(e) < len(exceptionNames) {
		return exceptionNames[e]
	}
	return "Unknown"
}

// Excepted returns whether e is a failure.
func (e Exception) Excepted() bool {
	return e != ExceptionNone
}
