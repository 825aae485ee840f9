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

// Package dsl implements the declarative query language: structured query
// types, a dialect-aware SQL compiler, and a hybrid executor that pushes
// down what the backend supports and finishes the rest in-process.
package dsl

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Query is the top-level structured query. Select is required; everything
// else is optional. Filter applies before aggregation, Having after.
type Query struct {
	Join    []Join        `json:"join,omitempty"`
	Select  []SelectItem  `json:"select"`
	GroupBy []GroupItem   `json:"groupBy,omitempty"`
	Filter  []Clause      `json:"filter,omitempty"`
	Having  []Clause      `json:"having,omitempty"`
	OrderBy []OrderClause `json:"orderBy,omitempty"`
	Limit   int           `json:"limit,omitempty"`
}

// Join links another table into the query. Type defaults to "inner".
type Join struct {
	Table string `json:"table"`
	On    JoinOn `json:"on"`
	Type  string `json:"type,omitempty"`
}

// JoinOn names the join columns. Either side may be dotted to disambiguate.
type JoinOn struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// SelectItem is one entry in the select list. In JSON it is either a bare
// field name, an aggregate object, or a window object.
type SelectItem struct {
	Field       string        `json:"field,omitempty"`
	Aggregate   string        `json:"aggregate,omitempty"`
	As          string        `json:"as,omitempty"`
	Percentile  float64       `json:"percentile,omitempty"`
	Window      string        `json:"window,omitempty"`
	PartitionBy string        `json:"partitionBy,omitempty"`
	OrderBy     []OrderClause `json:"orderBy,omitempty"`
	Offset      int           `json:"offset,omitempty"`
	Default     interface{}   `json:"default,omitempty"`
}

// UnmarshalJSON accepts the string-or-object union form.
func (s *SelectItem) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*s = SelectItem{Field: name}
		return nil
	}
	type plain SelectItem
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("select item must be a field name or an object: %w", err)
	}
	*s = SelectItem(p)
	return nil
}

// IsAggregate reports whether the item computes an aggregate.
func (s *SelectItem) IsAggregate() bool { return s.Aggregate != "" }

// IsWindow reports whether the item computes a window function.
func (s *SelectItem) IsWindow() bool { return s.Window != "" }

// OutputName is the column name the item produces in the result set.
func (s *SelectItem) OutputName() string {
	if s.As != "" {
		return s.As
	}
	switch {
	case s.IsWindow():
		return s.Window
	case s.IsAggregate():
		if s.Field == "" || s.Field == "*" {
			return s.Aggregate
		}
		return s.Aggregate + "_" + baseName(s.Field)
	default:
		return s.Field
	}
}

// GroupItem is one group-by key: a bare field or a time-bucketed field.
type GroupItem struct {
	Field  string `json:"field"`
	Bucket string `json:"bucket,omitempty"`
}

// UnmarshalJSON accepts the string-or-object union form.
func (g *GroupItem) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*g = GroupItem{Field: name}
		return nil
	}
	type plain GroupItem
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("group-by item must be a field name or an object: %w", err)
	}
	*g = GroupItem(p)
	return nil
}

// Clause is a single comparison used in filter and having lists. Clauses in
// the same list are conjoined.
type Clause struct {
	Field string      `json:"field"`
	Op    string      `json:"op"`
	Value interface{} `json:"value,omitempty"`
}

// OrderClause orders by one field. Direction defaults to "asc".
type OrderClause struct {
	Field     string `json:"field"`
	Direction string `json:"direction,omitempty"`
}

// Recognized function and operator sets.
var (
	Aggregates = map[string]bool{
		"sum": true, "avg": true, "min": true, "max": true,
		"count": true, "count_distinct": true,
		"median": true, "stddev": true,
		"p25": true, "p75": true, "percentile": true,
	}
	Windows = map[string]bool{
		"lag": true, "lead": true,
		"rank": true, "dense_rank": true, "row_number": true,
		"running_sum": true, "running_avg": true, "pct_of_total": true,
	}
	Buckets = map[string]bool{
		"day": true, "week": true, "month": true, "quarter": true, "year": true,
	}
	Operators = map[string]bool{
		"=": true, "!=": true, ">": true, ">=": true, "<": true, "<=": true,
		"in": true, "not_in": true, "between": true, "like": true,
		"is_null": true, "is_not_null": true,
	}
)

// Validate checks the query against the recognized function and operator
// sets before any compilation happens.
func (q *Query) Validate() error {
	if len(q.Select) == 0 {
		return fmt.Errorf("query requires a non-empty select list")
	}
	for i := range q.Select {
		s := &q.Select[i]
		if s.IsAggregate() && s.IsWindow() {
			return fmt.Errorf("select item %q cannot be both an aggregate and a window", s.OutputName())
		}
		if s.IsAggregate() && !Aggregates[s.Aggregate] {
			return fmt.Errorf("unknown aggregate %q; recognized: %s", s.Aggregate, sortedKeys(Aggregates))
		}
		if s.Aggregate == "percentile" && (s.Percentile <= 0 || s.Percentile >= 100) {
			return fmt.Errorf("percentile aggregate requires a percentile between 0 and 100, got %v", s.Percentile)
		}
		if s.IsWindow() && !Windows[s.Window] {
			return fmt.Errorf("unknown window function %q; recognized: %s", s.Window, sortedKeys(Windows))
		}
		if !s.IsAggregate() && !s.IsWindow() && s.Field == "" {
			return fmt.Errorf("select item %d has no field", i)
		}
	}
	for _, g := range q.GroupBy {
		if g.Field == "" {
			return fmt.Errorf("group-by item has no field")
		}
		if g.Bucket != "" && !Buckets[g.Bucket] {
			return fmt.Errorf("unknown time bucket %q; recognized: %s", g.Bucket, sortedKeys(Buckets))
		}
	}
	for _, c := range append(append([]Clause{}, q.Filter...), q.Having...) {
		if c.Field == "" {
			return fmt.Errorf("filter clause has no field")
		}
		if !Operators[c.Op] {
			return fmt.Errorf("unknown operator %q; recognized: %s", c.Op, sortedKeys(Operators))
		}
	}
	for _, o := range q.OrderBy {
		if o.Direction != "" && o.Direction != "asc" && o.Direction != "desc" {
			return fmt.Errorf("order direction must be asc or desc, got %q", o.Direction)
		}
	}
	for _, j := range q.Join {
		if j.Table == "" {
			return fmt.Errorf("join requires a table")
		}
		if j.On.Left == "" || j.On.Right == "" {
			return fmt.Errorf("join on %q requires both left and right columns", j.Table)
		}
		if j.Type != "" && j.Type != "inner" && j.Type != "left" {
			return fmt.Errorf("join type must be inner or left, got %q", j.Type)
		}
	}
	if q.Limit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}
	return nil
}

// baseName strips a table qualifier from a dotted reference.
func baseName(ref string) string {
	if i := strings.LastIndex(ref, "."); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

func sortedKeys(m map[string]bool) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
