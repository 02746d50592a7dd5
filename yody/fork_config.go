// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package yody

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
)

// ForkConfig holds the activation heights of consensus rule changes that gate
// the state transition. A value of math.MaxUint32 means never activated.
type ForkConfig struct {
	// TransferValidation enables filtering of VM transfers against the change log.
	TransferValidation uint32 `yaml:"transferValidation"`
	// FixUTXOCache discards the overlay on execution exceptions instead of committing it.
	FixUTXOCache uint32 `yaml:"fixUTXOCache"`
	// EmptyAccountRemoval removes touched empty accounts at commit.
	EmptyAccountRemoval uint32 `yaml:"emptyAccountRemoval"`
}

func (fc ForkConfig) String() string {
	var strs []string
	push := func(name string, blockNum uint32) {
		if blockNum != math.MaxUint32 {
			strs = append(strs, fmt.Sprintf("%v: #%v", name, blockNum))
		}
	}

	push("TRANSFER_VALIDATION", fc.TransferValidation)
	push("FIX_UTXO_CACHE", fc.FixUTXOCache)
	push("EMPTY_ACCOUNT_REMOVAL", fc.EmptyAccountRemoval)

	return strings.Join(strs, ", ")
}

// NoFork a special config without any forks.
var NoFork = ForkConfig{
	TransferValidation:  math.MaxUint32,
	FixUTXOCache:        math.MaxUint32,
	EmptyAccountRemoval: math.MaxUint32,
}

// AllForks a special config with every fork active from genesis.
var AllForks = ForkConfig{}

// registered networks, keyed by genesis ID
var forkConfigs = map[Bytes32]ForkConfig{}

// GetForkConfig get fork config for given genesis ID.
func GetForkConfig(genesisID Bytes32) ForkConfig {
	return forkConfigs[genesisID]
}

// SetCustomNetForkConfig set the fork config for the given genesis ID.
func SetCustomNetForkConfig(genesisID Bytes32, f ForkConfig) error {
	if _, ok := forkConfigs[genesisID]; ok {
		return errors.New("can not overwrite fork config")
	}
	forkConfigs[genesisID] = f
	return nil
}
