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
	"sort"
)

// applyWindow computes one window function over rows, writing the result
// into each row under the item's output name. Rows keep their slice order;
// only the per-partition processing order follows the item's orderBy.
func applyWindow(rows []map[string]interface{}, item *SelectItem) {
	out := item.OutputName()

	var partitions [][]map[string]interface{}
	if item.PartitionBy == "" {
		partitions = [][]map[string]interface{}{rows}
	} else {
		index := make(map[string]int)
		for _, row := range rows {
			sig := fmt.Sprint(row[item.PartitionBy])
			i, ok := index[sig]
			if !ok {
				i = len(partitions)
				index[sig] = i
				partitions = append(partitions, nil)
			}
			partitions[i] = append(partitions[i], row)
		}
	}

	for _, part := range partitions {
		ordered := part
		if len(item.OrderBy) > 0 {
			ordered = make([]map[string]interface{}, len(part))
			copy(ordered, part)
			sortRows(ordered, item.OrderBy)
		}
		computeWindow(ordered, item, out)
	}
}

func computeWindow(part []map[string]interface{}, item *SelectItem, out string) {
	switch item.Window {
	case "lag", "lead":
		offset := item.Offset
		if offset <= 0 {
			offset = 1
		}
		if item.Window == "lead" {
			offset = -offset
		}
		for i, row := range part {
			j := i - offset
			if j >= 0 && j < len(part) {
				row[out] = part[j][item.Field]
			} else {
				row[out] = item.Default
			}
		}
	case "row_number":
		for i, row := range part {
			row[out] = float64(i + 1)
		}
	case "rank", "dense_rank":
		rank, dense := 0, 0
		for i, row := range part {
			if i == 0 || !sameSortKey(part[i-1], row, item.OrderBy) {
				rank = i + 1
				dense++
			}
			if item.Window == "rank" {
				row[out] = float64(rank)
			} else {
				row[out] = float64(dense)
			}
		}
	case "running_sum", "running_avg":
		var sum float64
		n := 0
		for _, row := range part {
			if f, ok := toFloat(row[item.Field]); ok {
				sum += f
				n++
			}
			if n == 0 {
				row[out] = nil
			} else if item.Window == "running_sum" {
				row[out] = sum
			} else {
				row[out] = sum / float64(n)
			}
		}
	case "pct_of_total":
		var total float64
		for _, row := range part {
			if f, ok := toFloat(row[item.Field]); ok {
				total += f
			}
		}
		for _, row := range part {
			f, ok := toFloat(row[item.Field])
			if !ok || total == 0 {
				row[out] = nil
				continue
			}
			row[out] = f / total
		}
	}
}

// sameSortKey reports whether two rows tie under the window's ordering.
// Without an ordering no two rows tie, so rank degenerates to row_number.
func sameSortKey(a, b map[string]interface{}, orderBy []OrderClause) bool {
	if len(orderBy) == 0 {
		return false
	}
	for _, o := range orderBy {
		av, bv := a[o.Field], b[o.Field]
		if av == nil || bv == nil {
			if av != bv {
				return false
			}
			continue
		}
		if compareValues(av, bv) != 0 {
			return false
		}
	}
	return true
}

// sortRows orders rows in place: numeric when both sides parse as numbers,
// string otherwise; nulls sort last ascending and first descending.
func sortRows(rows []map[string]interface{}, orderBy []OrderClause) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		for _, o := range orderBy {
			av, bv := a[o.Field], b[o.Field]
			desc := o.Direction == "desc"
			if av == nil || bv == nil {
				if av == nil && bv == nil {
					continue
				}
				if av == nil {
					return desc
				}
				return !desc
			}
			c := compareValues(av, bv)
			if c == 0 {
				continue
			}
			if desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}
