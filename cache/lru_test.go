// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUGetOrLoad(t *testing.T) {
	c, err := NewLRU(2)
	require.NoError(t, err)

	loads := 0
	loader := func(key any) (any, error) {
		loads++
		if key == "absent" {
			return nil, nil
		}
		if key == "broken" {
			return nil, errors.New("broken")
		}
		return key.(string) + "-value", nil
	}

	v, err := c.GetOrLoad("a", loader)
	assert.NoError(t, err)
	assert.Equal(t, "a-value", v)

	v, err = c.GetOrLoad("a", loader)
	assert.NoError(t, err)
	assert.Equal(t, "a-value", v)
	assert.Equal(t, 1, loads)

	v, err = c.GetOrLoad("absent", loader)
	assert.NoError(t, err)
	assert.Nil(t, v)
	assert.False(t, c.Contains("absent"))

	_, err = c.GetOrLoad("broken", loader)
	assert.Error(t, err)

	_, hit, miss := c.Stats().Stats()
	assert.Equal(t, int64(1), hit)
	assert.Equal(t, int64(3), miss)

	_, err = NewLRU(0)
	assert.Error(t, err)
}
