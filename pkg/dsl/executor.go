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
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/dolex-labs/dolex/internal/log"
	"github.com/dolex-labs/dolex/pkg/source"
)

// MaxRows is the hard cap on rows any execution may return.
const MaxRows = 10000

// Runner executes SQL against a connected source.
type Runner interface {
	Query(ctx context.Context, query string) (*source.QueryResult, error)
}

// Result is the outcome of executing a query.
type Result struct {
	Columns   []string                 `json:"columns"`
	Rows      []map[string]interface{} `json:"rows"`
	SQL       string                   `json:"sql,omitempty"`
	Pushdown  bool                     `json:"pushdown"`
	Truncated bool                     `json:"truncated"`
}

// Executor runs queries against a dialect, pushing down what it can and
// finishing the rest in-process.
type Executor struct {
	Dialect *Dialect
}

// NewExecutor creates an executor for the given dialect.
func NewExecutor(d *Dialect) *Executor {
	return &Executor{Dialect: d}
}

// Execute validates, compiles, and runs the query. When every feature the
// query uses is native to the dialect the compiled SQL runs as-is;
// otherwise a reduced query fetches raw rows and grouping, aggregation,
// having, windows, ordering, and the limit run in-process.
func (e *Executor) Execute(ctx context.Context, runner Runner, table string, q *Query, schema Schema) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	c := &Compiler{Dialect: e.Dialect}

	if e.canPushDown(q) {
		return e.executePushdown(ctx, runner, c, table, q, schema)
	}
	return e.executeHybrid(ctx, runner, c, table, q, schema)
}

// canPushDown requires every feature to be dialect-native. Windows layered
// over an aggregation always run in-process: the single-statement form
// would need the window to reference aggregate outputs.
func (e *Executor) canPushDown(q *Query) bool {
	if !e.Dialect.SupportsQuery(q) {
		return false
	}
	hasWindow, hasAggregate := false, false
	for i := range q.Select {
		if q.Select[i].IsWindow() {
			hasWindow = true
		}
		if q.Select[i].IsAggregate() {
			hasAggregate = true
		}
	}
	return !(hasWindow && (hasAggregate || len(q.GroupBy) > 0))
}

func (e *Executor) executePushdown(ctx context.Context, runner Runner, c *Compiler, table string, q *Query, schema Schema) (*Result, error) {
	sqlText, err := c.Compile(table, q, schema)
	if err != nil {
		return nil, err
	}
	log.Debug("executing pushdown query", zap.String("sql", sqlText))

	res, err := runner.Query(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	limit := q.Limit
	if limit <= 0 || limit > MaxRows {
		limit = MaxRows
	}
	return &Result{
		Columns:   outputColumns(q),
		Rows:      res.Rows,
		SQL:       sqlText,
		Pushdown:  true,
		Truncated: len(res.Rows) == limit,
	}, nil
}

func (e *Executor) executeHybrid(ctx context.Context, runner Runner, c *Compiler, table string, q *Query, schema Schema) (*Result, error) {
	sqlText, _, err := c.CompileReduced(table, q, schema)
	if err != nil {
		return nil, err
	}
	log.Debug("executing reduced query", zap.String("sql", sqlText))

	res, err := runner.Query(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	rows := res.Rows

	var aggregates, windows []*SelectItem
	for i := range q.Select {
		s := &q.Select[i]
		if s.IsAggregate() {
			aggregates = append(aggregates, s)
		}
		if s.IsWindow() {
			windows = append(windows, s)
		}
	}

	if len(aggregates) > 0 || len(q.GroupBy) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows = aggregateRows(rows, q, aggregates)
	}

	if len(q.Having) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		kept := rows[:0]
		for _, row := range rows {
			if matchClauses(row, q.Having) {
				kept = append(kept, row)
			}
		}
		rows = kept
	}

	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		applyWindow(rows, w)
	}

	if len(q.OrderBy) > 0 {
		sortRows(rows, q.OrderBy)
	}

	limit := q.Limit
	if limit <= 0 || limit > MaxRows {
		limit = MaxRows
	}
	truncated := len(rows) > limit
	if truncated {
		rows = rows[:limit]
	}

	columns := outputColumns(q)
	projected := make([]map[string]interface{}, len(rows))
	for i, row := range rows {
		out := make(map[string]interface{}, len(columns))
		for _, name := range columns {
			out[name] = row[name]
		}
		projected[i] = out
	}

	return &Result{
		Columns:   columns,
		Rows:      projected,
		SQL:       sqlText,
		Truncated: truncated,
	}, nil
}

// aggregateRows collapses raw rows into one row per group. Group keys keep
// the reference text the query used; bare select fields outside the
// group-by carry the group's first raw value.
func aggregateRows(rows []map[string]interface{}, q *Query, aggregates []*SelectItem) []map[string]interface{} {
	groups := groupRows(rows, q.GroupBy)
	out := make([]map[string]interface{}, 0, len(groups))
	for _, g := range groups {
		row := make(map[string]interface{})
		for k, v := range g.key {
			row[k] = v
		}
		for i := range q.Select {
			s := &q.Select[i]
			if s.IsAggregate() || s.IsWindow() {
				continue
			}
			if _, ok := row[s.Field]; !ok && len(g.rows) > 0 {
				row[s.Field] = g.rows[0][s.Field]
			}
		}
		for _, a := range aggregates {
			values := make([]interface{}, len(g.rows))
			for i, r := range g.rows {
				values[i] = r[a.Field]
			}
			row[a.OutputName()] = Aggregate(a.Aggregate, values, a.Percentile)
		}
		out = append(out, row)
	}
	return out
}

// outputColumns lists result column names in select order.
func outputColumns(q *Query) []string {
	out := make([]string, len(q.Select))
	for i := range q.Select {
		out[i] = q.Select[i].OutputName()
	}
	return out
}

// matchClauses evaluates conjoined comparison clauses against a row.
func matchClauses(row map[string]interface{}, clauses []Clause) bool {
	for i := range clauses {
		if !evalClause(row[clauses[i].Field], &clauses[i]) {
			return false
		}
	}
	return true
}

func evalClause(got interface{}, clause *Clause) bool {
	switch clause.Op {
	case "is_null":
		return got == nil
	case "is_not_null":
		return got != nil
	}
	if got == nil {
		return false
	}
	switch clause.Op {
	case "=":
		return compareValues(got, clause.Value) == 0
	case "!=":
		return compareValues(got, clause.Value) != 0
	case ">":
		return compareValues(got, clause.Value) > 0
	case ">=":
		return compareValues(got, clause.Value) >= 0
	case "<":
		return compareValues(got, clause.Value) < 0
	case "<=":
		return compareValues(got, clause.Value) <= 0
	case "in", "not_in":
		items, ok := clause.Value.([]interface{})
		if !ok {
			return false
		}
		found := false
		for _, item := range items {
			if compareValues(got, item) == 0 {
				found = true
				break
			}
		}
		if clause.Op == "in" {
			return found
		}
		return !found
	case "between":
		bounds, ok := clause.Value.([]interface{})
		if !ok || len(bounds) != 2 {
			return false
		}
		return compareValues(got, bounds[0]) >= 0 && compareValues(got, bounds[1]) <= 0
	case "like":
		pattern, ok := clause.Value.(string)
		if !ok {
			return false
		}
		return matchLike(fmt.Sprint(got), pattern)
	}
	return false
}

// matchLike evaluates a SQL LIKE pattern case-insensitively, the way
// SQLite treats ASCII.
func matchLike(s, pattern string) bool {
	var re strings.Builder
	re.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '%':
			re.WriteString(".*")
		case '_':
			re.WriteString(".")
		default:
			re.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	re.WriteString("$")
	matched, err := regexp.MatchString(re.String(), s)
	return err == nil && matched
}
