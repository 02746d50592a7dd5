// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestException(t *testing.T) {
	assert.Equal(t, "None", ExceptionNone.String())
	assert.Equal(t, "OutOfGas", ExceptionOutOfGas.String())
	assert.Equal(t, "NoInformation", ExceptionNoInformation.String())
	assert.Equal(t, "InvalidTransfer", ExceptionInvalidTransfer.String())
	assert.Equal(t, "Unknown", Exception(200).String())

	// persisted codes
	assert.Equal(t, Exception(12), ExceptionOutOfGas)
	assert.Equal(t, Exception(18), ExceptionCreateWithValue)
	assert.Equal(t, Exception(19), ExceptionNoInformation)

	assert.False(t, ExceptionNone.Excepted())
	assert.True(t, ExceptionRevertInstruction.Excepted())
	assert.Equal(t, "aborted", Aborted.String())
}
