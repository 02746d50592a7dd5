// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"

	"github.com/yodynetwork/yody/logdb"
	"github.com/yodynetwork/yody/yody"
)

type EventCriteria struct {
	Address *yody.Address `json:"address"`
	Topic0  *yody.Bytes32 `json:"topic0"`
	Topic1  *yody.Bytes32 `json:"topic1"`
	Topic2  *yody.Bytes32 `json:"topic2"`
	Topic3  *yody.Bytes32 `json:"topic3"`
}

type Range struct {
	From *uint32 `json:"from,omitempty"`
	To   *uint32 `json:"to,omitempty"`
}

type Options struct {
	Offset uint64  `json:"offset"`
	Limit  *uint64 `json:"limit,omitempty"`
}

type EventFilter struct {
	CriteriaSet []*EventCriteria `json:"criteriaSet"`
	Range       *Range           `json:"range"`
	Options     *Options         `json:"options"`
	Order       logdb.Order      `json:"order"`
}

// Meta of an event.
type Meta struct {
	BlockHash   yody.Bytes32 `json:"blockHash"`
	BlockNumber uint32       `json:"blockNumber"`
	TxID        yody.Bytes32 `json:"txID"`
	OutputIndex uint32       `json:"outputIndex"`
	Sender      yody.Address `json:"sender"`
}

type FilteredEvent struct {
	Address yody.Address   `json:"address"`
	Topics  []yody.Bytes32 `json:"topics"`
	Data    hexutil.Bytes  `json:"data"`
	Meta    Meta           `json:"meta"`
}

func convertEvent(e *logdb.Event) *FilteredEvent {
	fe := &FilteredEvent{
		Address: e.Address,
		Topics:  make([]yody.Bytes32, 0, logdb.MaxTopics),
		Data:    e.Data,
		Meta: Meta{
			BlockHash:   e.BlockHash,
			BlockNumber: e.BlockNumber,
			TxID:        e.TxID,
			OutputIndex: e.OutputIndex,
			Sender:      e.Sender,
		},
	}
	for _, topic := range e.Topics {
		if topic != nil {
			fe.Topics = append(fe.Topics, *topic)
		}
	}
	return fe
}

func convertFilter(filter *EventFilter, limit uint64) (*logdb.EventFilter, error) {
	f := &logdb.EventFilter{
		Order: logdb.ASC,
		Options: &logdb.Options{
			Limit: limit,
		},
	}
	switch filter.Order {
	case "", logdb.ASC:
	case logdb.DESC:
		f.Order = logdb.DESC
	default:
		return nil, errors.Errorf("invalid order %q", filter.Order)
	}

	if filter.Options != nil {
		f.Options.Offset = filter.Options.Offset
		if filter.Options.Limit != nil {
			if *filter.Options.Limit > limit {
				return nil, errors.Errorf("options.limit exceeds the maximum allowed value of %d", limit)
			}
			f.Options.Limit = *filter.Options.Limit
		}
	}

	if filter.Range != nil {
		r := &logdb.Range{To: ^uint32(0)}
		if filter.Range.From != nil {
			r.From = *filter.Range.From
		}
		if filter.Range.To != nil {
			r.To = *filter.Range.To
		}
		if r.From > r.To {
			return nil, errors.New("range.from > range.to")
		}
		f.Range = r
	}

	for _, c := range filter.CriteriaSet {
		f.CriteriaSet = append(f.CriteriaSet, &logdb.EventCriteria{
			Address: c.Address,
			Topics:  [logdb.MaxTopics]*yody.Bytes32{c.Topic0, c.Topic1, c.Topic2, c.Topic3},
		})
	}
	return f, nil
}
