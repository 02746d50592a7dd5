// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"github.com/yodynetwork/yody/yody"
)

// MaxTopics is the max number of topics of an event.
const MaxTopics = 4

// Event is a contract log stored in db.
type Event struct {
	BlockHash   yody.Bytes32
	BlockNumber uint32
	Index       uint32 // index in block
	TxID        yody.Bytes32
	OutputIndex uint32
	Sender      yody.Address
	Address     yody.Address // always a contract address
	Topics      [MaxTopics]*yody.Bytes32
	Data        []byte
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range of block numbers, both ends included.
type Range struct {
	From uint32
	To   uint32
}

type Options struct {
	Offset uint64
	Limit  uint64
}

type EventCriteria struct {
	Address *yody.Address
	Topics  [MaxTopics]*yody.Bytes32
}

// EventFilter matches events satisfying any of the criteria.
type EventFilter struct {
	CriteriaSet []*EventCriteria
	Range       *Range
	Options     *Options
	Order       Order // default asc
}
