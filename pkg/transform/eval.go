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
package transform

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/dolex-labs/dolex/internal/stats"
)

// cancelCheckInterval is how many rows the evaluator processes between
// context checks.
const cancelCheckInterval = 1024

// EvalOptions configure one evaluation run.
type EvalOptions struct {
	// PartitionBy names a column; column-wise functions then compute per
	// group instead of over the whole table.
	PartitionBy string
	// Filter restricts evaluation to matching rows. Non-matching rows get
	// null and are excluded from statistics and precomputation.
	Filter *Filter
	// ColumnTypes maps source column names to semantic types, used when the
	// result type must be inherited from an input column.
	ColumnTypes map[string]string
}

// EvalStats summarizes an evaluation's outputs.
type EvalStats struct {
	Count int      `json:"count"` // non-null outputs
	Nulls int      `json:"nulls"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Mean  *float64 `json:"mean,omitempty"`
}

// EvalResult is the outcome of evaluating an expression over a table.
type EvalResult struct {
	Values   []interface{} `json:"values"`
	Type     string        `json:"type"` // numeric | boolean | categorical | date | id | text
	Stats    EvalStats     `json:"stats"`
	Warnings []string      `json:"warnings,omitempty"`
}

type evaluator struct {
	rows    []map[string]interface{}
	columns []string
	refKey  map[string]string // referenced name -> canonical column key
	partKey string            // canonical partition column key, "" if none
	filter  *Filter           // resolved copy, field already canonical
	mask    []bool            // nil means every row participates
	pre     map[string][]interface{}
}

// Evaluate runs an expression over all rows using two phases: column-wise
// functions are precomputed first, then each row is evaluated recursively.
// The context is checked between precompute steps and every
// cancelCheckInterval rows.
func Evaluate(ctx context.Context, expr Node, rows []map[string]interface{}, columns []string, opts EvalOptions) (*EvalResult, error) {
	ev := &evaluator{
		rows:    rows,
		columns: columns,
		refKey:  make(map[string]string),
		pre:     make(map[string][]interface{}),
	}

	if err := validateCalls(expr); err != nil {
		return nil, err
	}
	if err := ev.resolveRefs(expr, opts); err != nil {
		return nil, err
	}
	ev.buildMask(ev.filter)
	if err := ev.precompute(ctx, expr); err != nil {
		return nil, err
	}

	values := make([]interface{}, len(rows))
	for i := range rows {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if ev.mask != nil && !ev.mask[i] {
			continue // stays null
		}
		values[i] = ev.evalNode(i, expr)
	}

	result := &EvalResult{Values: values}
	result.Type = inferResultType(expr, values, opts.ColumnTypes)
	ev.summarize(result)
	return result, nil
}

// validateCalls walks the tree checking arity and the argument shapes that
// must hold statically: column-wise functions take a column reference, and
// ntile's bucket count is a positive integer literal.
func validateCalls(node Node) error {
	switch n := node.(type) {
	case *UnaryExpr:
		return validateCalls(n.Operand)
	case *BinaryExpr:
		if err := validateCalls(n.Left); err != nil {
			return err
		}
		return validateCalls(n.Right)
	case *ArrayLit:
		for _, e := range n.Elements {
			if err := validateCalls(e); err != nil {
				return err
			}
		}
	case *CallExpr:
		if err := checkArity(n.Name, len(n.Args)); err != nil {
			return err
		}
		if _, isCol := colFuncArity[n.Name]; isCol {
			if _, ok := n.Args[0].(*ColumnRef); !ok {
				return &EvalError{Message: fmt.Sprintf("%s expects a column reference as its first argument", n.Name)}
			}
			if n.Name == "ntile" {
				num, ok := n.Args[1].(*NumberLit)
				if !ok || num.Value < 1 || num.Value != math.Trunc(num.Value) {
					return &EvalError{Message: "ntile expects a positive integer bucket count"}
				}
			}
		}
		for _, a := range n.Args {
			if err := validateCalls(a); err != nil {
				return err
			}
		}
	}
	return nil
}

// resolveRefs maps every referenced column name (expression, partition,
// filter) to a canonical column key, matching case-insensitively.
func (ev *evaluator) resolveRefs(expr Node, opts EvalOptions) error {
	canonical := make(map[string]string, len(ev.columns))
	for _, c := range ev.columns {
		lower := strings.ToLower(c)
		if _, dup := canonical[lower]; !dup {
			canonical[lower] = c
		}
	}

	lookup := func(name string) (string, error) {
		if key, ok := canonical[strings.ToLower(name)]; ok {
			return key, nil
		}
		return "", &UnknownColumnError{
			Column:     name,
			Suggestion: suggestColumn(name, ev.columns),
			Available:  ev.columns,
		}
	}

	for _, name := range ColumnRefs(expr) {
		key, err := lookup(name)
		if err != nil {
			return err
		}
		ev.refKey[name] = key
	}
	if opts.PartitionBy != "" {
		key, err := lookup(opts.PartitionBy)
		if err != nil {
			return err
		}
		ev.partKey = key
	}
	if opts.Filter != nil {
		if err := opts.Filter.Validate(); err != nil {
			return err
		}
		key, err := lookup(opts.Filter.Field)
		if err != nil {
			return err
		}
		resolved := *opts.Filter
		resolved.Field = key
		ev.filter = &resolved
	}
	return nil
}

// suggestColumn returns the closest matching column name, or "".
func suggestColumn(name string, available []string) string {
	matches := fuzzy.Find(name, available)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}

func (ev *evaluator) buildMask(f *Filter) {
	if f == nil {
		return
	}
	ev.mask = make([]bool, len(ev.rows))
	for i, row := range ev.rows {
		ev.mask[i] = f.matches(row[f.Field])
	}
}

func (ev *evaluator) included(i int) bool {
	return ev.mask == nil || ev.mask[i]
}

// colCallKey identifies one column-wise computation: name|column|extra.
func colCallKey(c *CallExpr) string {
	col := c.Args[0].(*ColumnRef).Name
	key := c.Name + "|" + col
	if c.Name == "ntile" {
		n := c.Args[1].(*NumberLit).Value
		key += "|" + fmt.Sprintf("%d", int(n))
	}
	return key
}

func collectColCalls(node Node, out *[]*CallExpr) {
	switch n := node.(type) {
	case *UnaryExpr:
		collectColCalls(n.Operand, out)
	case *BinaryExpr:
		collectColCalls(n.Left, out)
		collectColCalls(n.Right, out)
	case *ArrayLit:
		for _, e := range n.Elements {
			collectColCalls(e, out)
		}
	case *CallExpr:
		if _, ok := colFuncArity[n.Name]; ok {
			*out = append(*out, n)
		}
		for _, a := range n.Args {
			collectColCalls(a, out)
		}
	}
}

// precompute resolves every column-wise call to a per-row slice, computed
// per partition group when a partition column is set.
func (ev *evaluator) precompute(ctx context.Context, expr Node) error {
	var calls []*CallExpr
	collectColCalls(expr, &calls)

	for _, c := range calls {
		key := colCallKey(c)
		if _, done := ev.pre[key]; done {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		ev.pre[key] = ev.computeColCall(c)
	}
	return nil
}

// groupRows buckets included row indexes by the partition cell's text form.
// Without a partition every included row lands in one group.
func (ev *evaluator) groupRows() [][]int {
	if ev.partKey == "" {
		all := make([]int, 0, len(ev.rows))
		for i := range ev.rows {
			if ev.included(i) {
				all = append(all, i)
			}
		}
		return [][]int{all}
	}
	groups := make(map[string][]int)
	var order []string
	for i, row := range ev.rows {
		if !ev.included(i) {
			continue
		}
		key := "\x00null"
		if cell := row[ev.partKey]; !isNullCell(cell) {
			key, _ = toText(cell)
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}
	out := make([][]int, 0, len(order))
	for _, k := range order {
		out = append(out, groups[k])
	}
	return out
}

func (ev *evaluator) computeColCall(c *CallExpr) []interface{} {
	colName := c.Args[0].(*ColumnRef).Name
	key := ev.refKey[colName]
	out := make([]interface{}, len(ev.rows))

	for _, group := range ev.groupRows() {
		// Numeric cells in this group, keeping their row indexes.
		idxs := make([]int, 0, len(group))
		vals := make([]float64, 0, len(group))
		for _, i := range group {
			if x, ok := toNumber(ev.rows[i][key]); ok {
				idxs = append(idxs, i)
				vals = append(vals, x)
			}
		}

		switch c.Name {
		case "col_mean", "col_sd", "col_min", "col_max", "col_median":
			var scalar interface{}
			if len(vals) > 0 {
				switch c.Name {
				case "col_mean":
					scalar = stats.Mean(vals)
				case "col_sd":
					if len(vals) >= 2 {
						scalar = stats.StdDev(vals)
					}
				case "col_min":
					scalar = stats.Min(vals)
				case "col_max":
					scalar = stats.Max(vals)
				case "col_median":
					scalar = stats.Median(vals)
				}
			}
			// A column constant: every included row in the group gets it,
			// null cells too.
			for _, i := range group {
				out[i] = scalar
			}

		case "zscore":
			if len(vals) < 2 {
				continue
			}
			mean := stats.Mean(vals)
			sd := stats.StdDev(vals)
			if sd == 0 {
				continue
			}
			for j, i := range idxs {
				out[i] = numResult((vals[j] - mean) / sd)
			}

		case "center":
			if len(vals) == 0 {
				continue
			}
			mean := stats.Mean(vals)
			for j, i := range idxs {
				out[i] = numResult(vals[j] - mean)
			}

		case "rank":
			// Dense, 1-based, ascending.
			distinct := append([]float64(nil), vals...)
			sort.Float64s(distinct)
			rankOf := make(map[float64]float64, len(distinct))
			next := 1.0
			for _, v := range distinct {
				if _, seen := rankOf[v]; !seen {
					rankOf[v] = next
					next++
				}
			}
			for j, i := range idxs {
				out[i] = rankOf[vals[j]]
			}

		case "percentile_rank":
			n := len(vals)
			if n == 0 {
				continue
			}
			sorted := append([]float64(nil), vals...)
			sort.Float64s(sorted)
			for j, i := range idxs {
				if n == 1 {
					out[i] = 0.0
					continue
				}
				below := sort.SearchFloat64s(sorted, vals[j])
				out[i] = float64(below) / float64(n-1)
			}

		case "ntile":
			n := int(c.Args[1].(*NumberLit).Value)
			if len(vals) == 0 {
				continue
			}
			order := make([]int, len(vals))
			for j := range order {
				order[j] = j
			}
			sort.SliceStable(order, func(a, b int) bool { return vals[order[a]] < vals[order[b]] })
			for pos, j := range order {
				out[idxs[j]] = float64(pos*n/len(vals)) + 1
			}
		}
	}
	return out
}

// evalNode evaluates one AST node against one row. It never fails; any
// out-of-domain operation produces null.
func (ev *evaluator) evalNode(row int, node Node) interface{} {
	switch n := node.(type) {
	case *NumberLit:
		return n.Value
	case *StringLit:
		return n.Value
	case *BoolLit:
		return n.Value
	case *NullLit:
		return nil
	case *ColumnRef:
		return ev.rows[row][ev.refKey[n.Name]]
	case *ArrayLit:
		items := make([]interface{}, len(n.Elements))
		for i, e := range n.Elements {
			items[i] = ev.evalNode(row, e)
		}
		return items
	case *UnaryExpr:
		return ev.evalUnary(row, n)
	case *BinaryExpr:
		return ev.evalBinary(row, n)
	case *CallExpr:
		if _, isCol := colFuncArity[n.Name]; isCol {
			return ev.pre[colCallKey(n)][row]
		}
		args := make([]interface{}, len(n.Args))
		for i, a := range n.Args {
			args[i] = ev.evalNode(row, a)
		}
		return applyRowFunc(n.Name, args)
	default:
		return nil
	}
}

func (ev *evaluator) evalUnary(row int, n *UnaryExpr) interface{} {
	v := ev.evalNode(row, n.Operand)
	switch n.Op {
	case "-":
		x, ok := toNumber(v)
		if !ok {
			return nil
		}
		return numResult(-x)
	case "not":
		b, ok := toBool(v)
		if !ok {
			return nil
		}
		return !b
	default:
		return nil
	}
}

func (ev *evaluator) evalBinary(row int, n *BinaryExpr) interface{} {
	switch n.Op {
	case "and", "or":
		return evalLogical(n.Op, ev.evalNode(row, n.Left), ev.evalNode(row, n.Right))
	}

	left := ev.evalNode(row, n.Left)
	right := ev.evalNode(row, n.Right)

	switch n.Op {
	case "+", "-", "*", "/", "%", "**":
		a, aok := toNumber(left)
		b, bok := toNumber(right)
		if !aok || !bok {
			return nil
		}
		switch n.Op {
		case "+":
			return numResult(a + b)
		case "-":
			return numResult(a - b)
		case "*":
			return numResult(a * b)
		case "/":
			if b == 0 {
				return nil
			}
			return numResult(a / b)
		case "%":
			if b == 0 {
				return nil
			}
			return numResult(math.Mod(a, b))
		default:
			return numResult(math.Pow(a, b))
		}
	case "=":
		eq, ok := looseEquals(left, right)
		if !ok {
			return nil
		}
		return eq
	case "!=":
		eq, ok := looseEquals(left, right)
		if !ok {
			return nil
		}
		return !eq
	case "<", "<=", ">", ">=":
		cmp, ok := compareOrder(left, right)
		if !ok {
			return nil
		}
		switch n.Op {
		case "<":
			return cmp < 0
		case "<=":
			return cmp <= 0
		case ">":
			return cmp > 0
		default:
			return cmp >= 0
		}
	default:
		return nil
	}
}

// evalLogical applies three-valued and/or: a definite outcome on either side
// decides the result, otherwise null propagates.
func evalLogical(op string, left, right interface{}) interface{} {
	l, lok := toBool(left)
	r, rok := toBool(right)
	if op == "and" {
		if (lok && !l) || (rok && !r) {
			return false
		}
		if lok && rok {
			return true
		}
		return nil
	}
	// or
	if (lok && l) || (rok && r) {
		return true
	}
	if lok && rok {
		return false
	}
	return nil
}

// inferResultType derives the semantic type of the output column from the
// expression's root, falling back to inspecting the produced values.
func inferResultType(node Node, values []interface{}, columnTypes map[string]string) string {
	switch n := node.(type) {
	case *NumberLit:
		return "numeric"
	case *StringLit:
		return "categorical"
	case *BoolLit:
		return "boolean"
	case *UnaryExpr:
		if n.Op == "-" {
			return "numeric"
		}
		return "boolean"
	case *BinaryExpr:
		switch n.Op {
		case "+", "-", "*", "/", "%", "**":
			return "numeric"
		default:
			return "boolean"
		}
	case *ColumnRef:
		for name, typ := range columnTypes {
			if strings.EqualFold(name, n.Name) {
				return typ
			}
		}
		return inferTypeFromValues(values)
	case *CallExpr:
		switch n.Name {
		case "log", "log10", "log2", "sqrt", "abs", "exp", "round", "ceil", "floor",
			"len", "date_part",
			"row_mean", "row_sum", "row_min", "row_max",
			"col_mean", "col_sd", "col_min", "col_max", "col_median",
			"zscore", "center", "rank", "percentile_rank", "ntile":
			return "numeric"
		case "upper", "lower", "trim", "concat", "substr", "cut":
			return "categorical"
		default: // if_else, recode: depends on branch values
			return inferTypeFromValues(values)
		}
	default:
		return inferTypeFromValues(values)
	}
}

func inferTypeFromValues(values []interface{}) string {
	sawValue := false
	allNumeric := true
	allBool := true
	for _, v := range values {
		if v == nil {
			continue
		}
		sawValue = true
		if _, ok := v.(bool); !ok {
			allBool = false
		}
		if _, ok := toNumber(v); !ok {
			allNumeric = false
		}
		if !allBool && !allNumeric {
			break
		}
	}
	switch {
	case !sawValue:
		return "categorical"
	case allBool:
		return "boolean"
	case allNumeric:
		return "numeric"
	default:
		return "categorical"
	}
}

// summarize fills Stats and Warnings. Rows excluded by the filter do not
// count toward totals.
func (ev *evaluator) summarize(result *EvalResult) {
	total := 0
	nulls := 0
	var nums []float64
	var firstValue interface{}
	constant := true

	for i, v := range result.Values {
		if !ev.included(i) {
			continue
		}
		total++
		if v == nil {
			nulls++
			continue
		}
		if result.Stats.Count == 0 {
			firstValue = v
		} else if constant {
			if eq, ok := looseEquals(firstValue, v); !ok || !eq {
				constant = false
			}
		}
		result.Stats.Count++
		if x, ok := toNumber(v); ok {
			nums = append(nums, x)
		}
	}
	result.Stats.Nulls = nulls

	if result.Type == "numeric" && len(nums) > 0 {
		min := stats.Min(nums)
		max := stats.Max(nums)
		mean := stats.Mean(nums)
		result.Stats.Min = &min
		result.Stats.Max = &max
		result.Stats.Mean = &mean
	}

	switch {
	case total == 0:
		result.Warnings = append(result.Warnings, "filter matched no rows")
	case nulls == total:
		result.Warnings = append(result.Warnings, "all computed values are null")
	case nulls*5 >= total:
		pct := float64(nulls) / float64(total) * 100
		result.Warnings = append(result.Warnings, fmt.Sprintf("%.0f%% of computed values are null", pct))
	}
	if result.Stats.Count > 1 && constant {
		v, _ := toText(firstValue)
		result.Warnings = append(result.Warnings, fmt.Sprintf("computed values are constant (%s)", v))
	}
}
