// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package yody

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVMVersion(t *testing.T) {
	assert.Equal(t, uint32(4), DefaultVMVersion.Raw())
	assert.Equal(t, []byte{4, 0, 0, 0}, DefaultVMVersion.Bytes())
	assert.Equal(t, DefaultVMVersion, ParseVMVersion(4))

	v := VMVersion{Format: 1, RootVM: 2, VMVersion: 3, FlagOptions: 0x1234}
	assert.Equal(t, v, ParseVMVersion(v.Raw()))
}
