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
	"strings"
)

// Dialect classifies which DSL features a backend can run natively. A
// feature missing from a map is completed in-process by the executor.
type Dialect struct {
	Name       string
	aggregates map[string]bool
	windows    map[string]bool
	buckets    map[string]bool
}

// SQLite targets SQLite 3.25+: basic aggregates and window functions are
// native, the percentile family is not, and quarter has no strftime format.
var SQLite = &Dialect{
	Name: "sqlite",
	aggregates: map[string]bool{
		"sum": true, "avg": true, "min": true, "max": true,
		"count": true, "count_distinct": true,
	},
	windows: map[string]bool{
		"lag": true, "lead": true,
		"rank": true, "dense_rank": true, "row_number": true,
		"running_sum": true, "running_avg": true, "pct_of_total": true,
	},
	buckets: map[string]bool{
		"day": true, "week": true, "month": true, "year": true,
	},
}

// ANSI models a backend with percentile_cont, stddev_samp, and date_trunc.
var ANSI = &Dialect{
	Name: "ansi",
	aggregates: map[string]bool{
		"sum": true, "avg": true, "min": true, "max": true,
		"count": true, "count_distinct": true,
		"median": true, "stddev": true,
		"p25": true, "p75": true, "percentile": true,
	},
	windows: map[string]bool{
		"lag": true, "lead": true,
		"rank": true, "dense_rank": true, "row_number": true,
		"running_sum": true, "running_avg": true, "pct_of_total": true,
	},
	buckets: map[string]bool{
		"day": true, "week": true, "month": true, "quarter": true, "year": true,
	},
}

// SupportsAggregate reports whether the aggregate pushes down natively.
func (d *Dialect) SupportsAggregate(name string) bool { return d.aggregates[name] }

// SupportsWindow reports whether the window function pushes down natively.
func (d *Dialect) SupportsWindow(name string) bool { return d.windows[name] }

// SupportsBucket reports whether the time bucket pushes down natively.
func (d *Dialect) SupportsBucket(unit string) bool { return d.buckets[unit] }

// SupportsQuery reports whether every feature the query uses is native, in
// which case the executor compiles it once and runs it directly.
func (d *Dialect) SupportsQuery(q *Query) bool {
	for i := range q.Select {
		s := &q.Select[i]
		if s.IsAggregate() && !d.SupportsAggregate(s.Aggregate) {
			return false
		}
		if s.IsWindow() && !d.SupportsWindow(s.Window) {
			return false
		}
	}
	for _, g := range q.GroupBy {
		if g.Bucket != "" && !d.SupportsBucket(g.Bucket) {
			return false
		}
	}
	return true
}

// aggregateSQL renders a native aggregate over an already-resolved column
// expression. The second return is false when the dialect has no native
// form.
func (d *Dialect) aggregateSQL(item *SelectItem, ref string) (string, bool) {
	switch item.Aggregate {
	case "sum", "avg", "min", "max":
		return fmt.Sprintf("%s(%s)", strings.ToUpper(item.Aggregate), ref), true
	case "count":
		if item.Field == "" || item.Field == "*" {
			return "COUNT(*)", true
		}
		return fmt.Sprintf("COUNT(%s)", ref), true
	case "count_distinct":
		return fmt.Sprintf("COUNT(DISTINCT %s)", ref), true
	}
	if !d.SupportsAggregate(item.Aggregate) {
		return "", false
	}
	switch item.Aggregate {
	case "median":
		return fmt.Sprintf("PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY %s)", ref), true
	case "p25":
		return fmt.Sprintf("PERCENTILE_CONT(0.25) WITHIN GROUP (ORDER BY %s)", ref), true
	case "p75":
		return fmt.Sprintf("PERCENTILE_CONT(0.75) WITHIN GROUP (ORDER BY %s)", ref), true
	case "percentile":
		return fmt.Sprintf("PERCENTILE_CONT(%g) WITHIN GROUP (ORDER BY %s)", item.Percentile/100, ref), true
	case "stddev":
		return fmt.Sprintf("STDDEV_SAMP(%s)", ref), true
	}
	return "", false
}

// bucketSQL renders a native time-bucket expression over a resolved column.
func (d *Dialect) bucketSQL(ref, unit string) (string, bool) {
	if !d.SupportsBucket(unit) {
		return "", false
	}
	if d.Name == "sqlite" {
		switch unit {
		case "day":
			return fmt.Sprintf("strftime('%%Y-%%m-%%d', %s)", ref), true
		case "week":
			return fmt.Sprintf("strftime('%%Y-W%%W', %s)", ref), true
		case "month":
			return fmt.Sprintf("strftime('%%Y-%%m', %s)", ref), true
		case "year":
			return fmt.Sprintf("strftime('%%Y', %s)", ref), true
		}
		return "", false
	}
	return fmt.Sprintf("DATE_TRUNC('%s', %s)", unit, ref), true
}
