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
	"strconv"
	"strings"
)

// Compiler turns a Query into dialect-specific SQL. A Schema (table name →
// column names) drives field resolution; with a nil schema references pass
// through unvalidated.
type Compiler struct {
	Dialect *Dialect
}

// Schema maps each table in scope to its column names.
type Schema map[string][]string

// scope is the set of tables a query may reference: the base table followed
// by the join chain.
type scope struct {
	tables []string
	schema Schema
}

func newScope(base string, joins []Join, schema Schema) (*scope, error) {
	sc := &scope{tables: []string{base}, schema: schema}
	for _, j := range joins {
		sc.tables = append(sc.tables, j.Table)
	}
	if schema == nil {
		return sc, nil
	}
	for _, t := range sc.tables {
		if _, ok := schema[t]; !ok {
			known := make([]string, 0, len(schema))
			for name := range schema {
				known = append(known, name)
			}
			sort.Strings(known)
			return nil, fmt.Errorf("unknown table %q; available tables: %s", t, strings.Join(known, ", "))
		}
	}
	return sc, nil
}

// resolve turns a field reference into a quoted, table-qualified SQL
// expression. Bare references must be unambiguous across the scope.
func (sc *scope) resolve(ref string) (string, error) {
	if sc.schema == nil {
		return quoteIdent(ref), nil
	}
	if table, column, ok := strings.Cut(ref, "."); ok {
		cols, found := sc.schema[table]
		if !found || !sc.inScope(table) {
			return "", fmt.Errorf("unknown table in reference %q; tables in scope: %s", ref, strings.Join(sc.tables, ", "))
		}
		for _, c := range cols {
			if c == column {
				return quoteIdent(table) + "." + quoteIdent(column), nil
			}
		}
		return "", fmt.Errorf("unknown column %q in table %q; available columns: %s", column, table, strings.Join(cols, ", "))
	}

	var owners []string
	for _, t := range sc.tables {
		for _, c := range sc.schema[t] {
			if c == ref {
				owners = append(owners, t)
				break
			}
		}
	}
	switch len(owners) {
	case 0:
		return "", fmt.Errorf("unknown field %q; available columns: %s", ref, strings.Join(sc.allColumns(), ", "))
	case 1:
		return quoteIdent(owners[0]) + "." + quoteIdent(ref), nil
	default:
		candidates := make([]string, len(owners))
		for i, t := range owners {
			candidates[i] = t + "." + ref
		}
		return "", fmt.Errorf("ambiguous field %q; qualify as one of: %s", ref, strings.Join(candidates, ", "))
	}
}

func (sc *scope) inScope(table string) bool {
	for _, t := range sc.tables {
		if t == table {
			return true
		}
	}
	return false
}

func (sc *scope) allColumns() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range sc.tables {
		for _, c := range sc.schema[t] {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Compile renders the full query as one SQL statement. The caller is
// responsible for checking the dialect supports every feature first.
func (c *Compiler) Compile(table string, q *Query, schema Schema) (string, error) {
	sc, err := newScope(table, q.Join, schema)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	for i := range q.Select {
		if i > 0 {
			b.WriteString(", ")
		}
		expr, err := c.selectSQL(&q.Select[i], q, sc)
		if err != nil {
			return "", err
		}
		b.WriteString(expr)
		b.WriteString(" AS ")
		b.WriteString(quoteIdent(q.Select[i].OutputName()))
	}

	if err := c.fromSQL(&b, table, q, sc); err != nil {
		return "", err
	}
	if err := c.whereSQL(&b, q.Filter, sc); err != nil {
		return "", err
	}

	if len(q.GroupBy) > 0 {
		b.WriteString(" GROUP BY ")
		for i, g := range q.GroupBy {
			if i > 0 {
				b.WriteString(", ")
			}
			expr, err := c.groupKeySQL(&g, sc)
			if err != nil {
				return "", err
			}
			b.WriteString(expr)
		}
	}

	if len(q.Having) > 0 {
		b.WriteString(" HAVING ")
		for i, clause := range q.Having {
			if i > 0 {
				b.WriteString(" AND ")
			}
			ref, err := c.havingRef(&clause, q, sc)
			if err != nil {
				return "", err
			}
			cond, err := clauseSQL(ref, &clause)
			if err != nil {
				return "", err
			}
			b.WriteString(cond)
		}
	}

	if len(q.OrderBy) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range q.OrderBy {
			if i > 0 {
				b.WriteString(", ")
			}
			ref := quoteIdent(o.Field)
			if !q.outputs(o.Field) {
				if ref, err = sc.resolve(o.Field); err != nil {
					return "", err
				}
			}
			b.WriteString(ref)
			if o.Direction == "desc" {
				b.WriteString(" DESC")
			}
		}
	}

	limit := q.Limit
	if limit <= 0 || limit > MaxRows {
		limit = MaxRows
	}
	fmt.Fprintf(&b, " LIMIT %d", limit)
	return b.String(), nil
}

// CompileReduced renders the pushdown half of a split execution: it fetches
// every raw column the in-process phases need, applies the pre-aggregate
// filter, and nothing else. Each column is aliased to its reference text so
// the executor can look values up by the names the query used.
func (c *Compiler) CompileReduced(table string, q *Query, schema Schema) (string, []string, error) {
	sc, err := newScope(table, q.Join, schema)
	if err != nil {
		return "", nil, err
	}

	refs := rawRefs(q)
	var b strings.Builder
	b.WriteString("SELECT ")
	for i, ref := range refs {
		if i > 0 {
			b.WriteString(", ")
		}
		expr, err := sc.resolve(ref)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(expr)
		b.WriteString(" AS ")
		b.WriteString(quoteIdent(ref))
	}

	if err := c.fromSQL(&b, table, q, sc); err != nil {
		return "", nil, err
	}
	if err := c.whereSQL(&b, q.Filter, sc); err != nil {
		return "", nil, err
	}
	return b.String(), refs, nil
}

// rawRefs collects, in first-use order, every raw column reference the
// in-process phases will read.
func rawRefs(q *Query) []string {
	seen := make(map[string]bool)
	var refs []string
	add := func(ref string) {
		if ref == "" || ref == "*" || seen[ref] {
			return
		}
		seen[ref] = true
		refs = append(refs, ref)
	}
	for i := range q.Select {
		s := &q.Select[i]
		add(s.Field)
		add(s.PartitionBy)
		for _, o := range s.OrderBy {
			add(o.Field)
		}
	}
	for _, g := range q.GroupBy {
		add(g.Field)
	}
	for _, f := range q.Filter {
		add(f.Field)
	}
	return refs
}

func (c *Compiler) fromSQL(b *strings.Builder, table string, q *Query, sc *scope) error {
	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(table))
	for i, j := range q.Join {
		kind := "INNER"
		if j.Type == "left" {
			kind = "LEFT"
		}
		// The left side resolves against the tables joined so far, the
		// right side against the table being joined. A column shared by
		// both sides is not ambiguous here.
		prior := &scope{tables: sc.tables[:i+1], schema: sc.schema}
		left, err := prior.resolve(j.On.Left)
		if err != nil {
			return fmt.Errorf("join on %q: %w", j.Table, err)
		}
		joined := &scope{tables: []string{j.Table}, schema: sc.schema}
		right := j.On.Right
		if !strings.Contains(right, ".") {
			right = j.Table + "." + right
		}
		rightSQL, err := joined.resolve(right)
		if err != nil {
			return fmt.Errorf("join on %q: %w", j.Table, err)
		}
		fmt.Fprintf(b, " %s JOIN %s ON %s = %s", kind, quoteIdent(j.Table), left, rightSQL)
	}
	return nil
}

func (c *Compiler) whereSQL(b *strings.Builder, filter []Clause, sc *scope) error {
	if len(filter) == 0 {
		return nil
	}
	b.WriteString(" WHERE ")
	for i, clause := range filter {
		if i > 0 {
			b.WriteString(" AND ")
		}
		ref, err := sc.resolve(clause.Field)
		if err != nil {
			return err
		}
		cond, err := clauseSQL(ref, &clause)
		if err != nil {
			return err
		}
		b.WriteString(cond)
	}
	return nil
}

// selectSQL renders one select item. Bare fields that are bucketed in the
// group-by emit the bucket expression so the selected value matches the
// grouping key.
func (c *Compiler) selectSQL(s *SelectItem, q *Query, sc *scope) (string, error) {
	switch {
	case s.IsAggregate():
		ref := ""
		if s.Field != "" && s.Field != "*" {
			var err error
			if ref, err = sc.resolve(s.Field); err != nil {
				return "", err
			}
		}
		expr, ok := c.Dialect.aggregateSQL(s, ref)
		if !ok {
			return "", fmt.Errorf("aggregate %q is not supported by dialect %s", s.Aggregate, c.Dialect.Name)
		}
		return expr, nil
	case s.IsWindow():
		return c.windowSQL(s, sc)
	default:
		for _, g := range q.GroupBy {
			if g.Bucket != "" && g.Field == s.Field {
				return c.groupKeySQL(&g, sc)
			}
		}
		return sc.resolve(s.Field)
	}
}

func (c *Compiler) groupKeySQL(g *GroupItem, sc *scope) (string, error) {
	ref, err := sc.resolve(g.Field)
	if err != nil {
		return "", err
	}
	if g.Bucket == "" {
		return ref, nil
	}
	expr, ok := c.Dialect.bucketSQL(ref, g.Bucket)
	if !ok {
		return "", fmt.Errorf("time bucket %q is not supported by dialect %s", g.Bucket, c.Dialect.Name)
	}
	return expr, nil
}

func (c *Compiler) windowSQL(s *SelectItem, sc *scope) (string, error) {
	ref := ""
	if s.Field != "" {
		var err error
		if ref, err = sc.resolve(s.Field); err != nil {
			return "", err
		}
	}

	var over strings.Builder
	if s.PartitionBy != "" {
		part, err := sc.resolve(s.PartitionBy)
		if err != nil {
			return "", err
		}
		over.WriteString("PARTITION BY ")
		over.WriteString(part)
	}
	if len(s.OrderBy) > 0 {
		if over.Len() > 0 {
			over.WriteString(" ")
		}
		over.WriteString("ORDER BY ")
		for i, o := range s.OrderBy {
			if i > 0 {
				over.WriteString(", ")
			}
			expr, err := sc.resolve(o.Field)
			if err != nil {
				return "", err
			}
			over.WriteString(expr)
			if o.Direction == "desc" {
				over.WriteString(" DESC")
			}
		}
	}

	switch s.Window {
	case "lag", "lead":
		offset := s.Offset
		if offset <= 0 {
			offset = 1
		}
		fn := strings.ToUpper(s.Window)
		if s.Default != nil {
			return fmt.Sprintf("%s(%s, %d, %s) OVER (%s)", fn, ref, offset, sqlLiteral(s.Default), over.String()), nil
		}
		return fmt.Sprintf("%s(%s, %d) OVER (%s)", fn, ref, offset, over.String()), nil
	case "rank", "dense_rank", "row_number":
		return fmt.Sprintf("%s() OVER (%s)", strings.ToUpper(s.Window), over.String()), nil
	case "running_sum", "running_avg":
		fn := "SUM"
		if s.Window == "running_avg" {
			fn = "AVG"
		}
		clause := over.String()
		if clause != "" {
			clause += " "
		}
		return fmt.Sprintf("%s(%s) OVER (%sROWS UNBOUNDED PRECEDING)", fn, ref, clause), nil
	case "pct_of_total":
		part := ""
		if s.PartitionBy != "" {
			resolved, err := sc.resolve(s.PartitionBy)
			if err != nil {
				return "", err
			}
			part = "PARTITION BY " + resolved
		}
		return fmt.Sprintf("1.0 * %s / SUM(%s) OVER (%s)", ref, ref, part), nil
	}
	return "", fmt.Errorf("window function %q is not supported by dialect %s", s.Window, c.Dialect.Name)
}

// havingRef resolves a having field: aggregate aliases re-emit the
// aggregate expression so the clause works on every dialect.
func (c *Compiler) havingRef(clause *Clause, q *Query, sc *scope) (string, error) {
	for i := range q.Select {
		s := &q.Select[i]
		if s.OutputName() != clause.Field {
			continue
		}
		if s.IsAggregate() {
			ref := ""
			if s.Field != "" && s.Field != "*" {
				var err error
				if ref, err = sc.resolve(s.Field); err != nil {
					return "", err
				}
			}
			expr, ok := c.Dialect.aggregateSQL(s, ref)
			if !ok {
				return "", fmt.Errorf("aggregate %q is not supported by dialect %s", s.Aggregate, c.Dialect.Name)
			}
			return expr, nil
		}
		break
	}
	return sc.resolve(clause.Field)
}

// clauseSQL renders one comparison against an already-resolved reference.
func clauseSQL(ref string, clause *Clause) (string, error) {
	switch clause.Op {
	case "=", "!=", ">", ">=", "<", "<=":
		return fmt.Sprintf("%s %s %s", ref, clause.Op, sqlLiteral(clause.Value)), nil
	case "like":
		return fmt.Sprintf("%s LIKE %s", ref, sqlLiteral(clause.Value)), nil
	case "is_null":
		return ref + " IS NULL", nil
	case "is_not_null":
		return ref + " IS NOT NULL", nil
	case "in", "not_in":
		items, ok := clause.Value.([]interface{})
		if !ok || len(items) == 0 {
			return "", fmt.Errorf("operator %q requires a non-empty list value", clause.Op)
		}
		lits := make([]string, len(items))
		for i, v := range items {
			lits[i] = sqlLiteral(v)
		}
		op := "IN"
		if clause.Op == "not_in" {
			op = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", ref, op, strings.Join(lits, ", ")), nil
	case "between":
		bounds, ok := clause.Value.([]interface{})
		if !ok || len(bounds) != 2 {
			return "", fmt.Errorf("operator between requires a two-element [low, high] value")
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", ref, sqlLiteral(bounds[0]), sqlLiteral(bounds[1])), nil
	}
	return "", fmt.Errorf("unknown operator %q", clause.Op)
}

// outputs reports whether name is one of the query's output column names.
func (q *Query) outputs(name string) bool {
	for i := range q.Select {
		if q.Select[i].OutputName() == name {
			return true
		}
	}
	return false
}

// sqlLiteral renders a JSON value as a SQL literal. Strings are
// single-quoted with embedded quotes doubled.
func sqlLiteral(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if x {
			return "1"
		}
		return "0"
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(x), "'", "''") + "'"
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
