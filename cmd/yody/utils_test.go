// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yodynetwork/yody/yody"
)

func writeFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "forks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadForkConfig(t *testing.T) {
	fc, err := loadForkConfig("")
	require.NoError(t, err)
	assert.Equal(t, yody.NoFork, fc)

	fc, err = loadForkConfig(writeFile(t, "transferValidation: 100\nfixUTXOCache: 200\n"))
	require.NoError(t, err)
	assert.Equal(t, uint32(100), fc.TransferValidation)
	assert.Equal(t, uint32(200), fc.FixUTXOCache)
	assert.Equal(t, uint32(math.MaxUint32), fc.EmptyAccountRemoval)

	_, err = loadForkConfig(writeFile(t, "transferValidation: [1"))
	assert.Error(t, err)

	_, err = loadForkConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNormalizeCacheSize(t *testing.T) {
	assert.LessOrEqual(t, normalizeCacheSize(0), 128)
	assert.LessOrEqual(t, normalizeCacheSize(512), 512)
}

func TestNewApp(t *testing.T) {
	app := newApp()
	var names []string
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{"serve", "inspect", "wipe", "dump"}, names)
}
