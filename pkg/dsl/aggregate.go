// Copyright 2026 Dolex Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package dsl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dolex-labs/dolex/internal/stats"
)

// toFloat coerces a cell value to a float64 where possible.
func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func numericSubset(values []interface{}) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := toFloat(v); ok {
			out = append(out, f)
		}
	}
	return out
}

// Aggregate computes one aggregate over a group's raw values. Min, max, and
// the counts operate on raw values; the numeric aggregates use the numeric
// subset and return nil when it is empty. Stddev uses the population
// formula; percentile interpolates linearly.
func Aggregate(fn string, values []interface{}, percentile float64) interface{} {
	switch fn {
	case "count":
		n := 0
		for _, v := range values {
			if v != nil {
				n++
			}
		}
		return float64(n)
	case "count_distinct":
		seen := make(map[string]bool)
		for _, v := range values {
			if v != nil {
				seen[fmt.Sprint(v)] = true
			}
		}
		return float64(len(seen))
	case "min", "max":
		var best interface{}
		for _, v := range values {
			if v == nil {
				continue
			}
			if best == nil {
				best = v
				continue
			}
			c := compareValues(v, best)
			if (fn == "min" && c < 0) || (fn == "max" && c > 0) {
				best = v
			}
		}
		return best
	}

	xs := numericSubset(values)
	if len(xs) == 0 {
		return nil
	}
	switch fn {
	case "sum":
		return stats.Sum(xs)
	case "avg":
		return stats.Mean(xs)
	case "median":
		return stats.Median(xs)
	case "stddev":
		return stats.StdDevPop(xs)
	case "p25":
		return stats.Percentile(xs, 25)
	case "p75":
		return stats.Percentile(xs, 75)
	case "percentile":
		return stats.Percentile(xs, percentile)
	}
	return nil
}

// rowGroup is one group of raw rows sharing group-by key values.
type rowGroup struct {
	key  map[string]interface{}
	rows []map[string]interface{}
}

// groupRows partitions rows by the group-by keys, applying time bucketing
// to bucketed keys. Groups come back in first-appearance order. With no
// group-by items every row lands in a single grand-total group.
func groupRows(rows []map[string]interface{}, items []GroupItem) []*rowGroup {
	if len(items) == 0 {
		return []*rowGroup{{key: map[string]interface{}{}, rows: rows}}
	}

	index := make(map[string]*rowGroup)
	var groups []*rowGroup
	for _, row := range rows {
		var sig strings.Builder
		key := make(map[string]interface{}, len(items))
		for _, item := range items {
			v := row[item.Field]
			if item.Bucket != "" {
				v = BucketValue(v, item.Bucket)
			}
			key[item.Field] = v
			fmt.Fprintf(&sig, "%v\x00", v)
		}
		g, ok := index[sig.String()]
		if !ok {
			g = &rowGroup{key: key}
			index[sig.String()] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, row)
	}
	return groups
}

// compareValues orders two non-nil values: numerically when both coerce to
// numbers, by string otherwise.
func compareValues(a, b interface{}) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
