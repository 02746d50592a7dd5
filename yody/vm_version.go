// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package yody

import (
	"encoding/binary"
	"fmt"
)

// Root VM identifiers.
const (
	RootVMNull uint8 = 0
	RootVMEVM  uint8 = 1
)

// VMVersion is the execution version tag carried by contract outputs.
// Raw layout, least significant bits first: format:2 rootVM:6 vmVersion:8 flagOptions:16.
type VMVersion struct {
	Format      uint8
	RootVM      uint8
	VMVersion   uint8
	FlagOptions uint16
}

// DefaultVMVersion is the only execution version accepted by the state transition.
var DefaultVMVersion = VMVersion{RootVM: RootVMEVM}

// ParseVMVersion decodes the raw version tag.
func ParseVMVersion(raw uint32) VMVersion {
	return VMVersion{
		Format:      uint8(raw & 0x03),
		RootVM:      uint8((raw >> 2) & 0x3f),
		VMVersion:   uint8(raw >> 8),
		FlagOptions: uint16(raw >> 16),
	}
}

// Raw encodes the version into its raw form.
func (v VMVersion) Raw() uint32 {
	return uint32(v.Format&0x03) |
		uint32(v.RootVM&0x3f)<<2 |
		uint32(v.VMVersion)<<8 |
		uint32(v.FlagOptions)<<16
}

// Bytes returns the little endian raw form, as pushed in scripts.
func (v VMVersion) Bytes() []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v.Raw())
	return b[:]
}

func (v VMVersion) String() string {
	return fmt.Sprintf("vm(format=%d root=%d ver=%d flags=%d)", v.Format, v.RootVM, v.VMVersion, v.FlagOptions)
}
