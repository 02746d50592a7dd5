// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import "github.com/yodynetwork/yody/metrics"

var metricAccountCounter = metrics.LazyLoadCounterVec("state_account_count", []string{"type", "target"})
