// Copyright (c) 2025 The Yody developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"strings"

	"github.com/yodynetwork/yody/metrics"
)

var (
	metricCriteriaLength = metrics.LazyLoadHistogram("logdb_criteria_length", []int64{0, 2, 5, 10, 25, 100, 1000})
	metricQueryParams    = metrics.LazyLoadCounterVec("logdb_query_parameters", []string{"parameters"})
	metricQueryOrder     = metrics.LazyLoadCounterVec("logdb_query_order", []string{"order"})
	metricLimit          = metrics.LazyLoadHistogram("logdb_query_limit", []int64{0, 5, 10, 25, 50, 100, 250, 500, 1000})
)

func metricsHandleEventsFilter(filter *EventFilter) {
	metricCriteriaLength().Observe(int64(len(filter.CriteriaSet)))

	order := string(ASC)
	if filter.Order == DESC {
		order = string(DESC)
	}
	metricQueryOrder().AddWithLabel(1, map[string]string{"order": order})

	if filter.Options != nil {
		metricLimit().Observe(int64(min(filter.Options.Limit, 1001)))
	}

	for _, c := range filter.CriteriaSet {
		var params []string
		if c.Address != nil {
			params = append(params, "address")
		}
		for i, topic := range c.Topics {
			if topic != nil {
				params = append(params, "topic"+string(rune('0'+i)))
			}
		}
		metricQueryParams().AddWithLabel(1, map[string]string{"parameters": strings.Join(params, ",")})
	}
}
