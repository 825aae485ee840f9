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
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Runtime values are nil (null), float64, string, bool, or []interface{}
// for array literals. Every function returns null on out-of-domain input
// instead of failing; a single bad cell never aborts a transform.

// toNumber coerces a value to float64. Strings parse leniently after
// trimming; empty strings and unparseable text are not numbers.
func toNumber(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// toText coerces a value to a string. Nulls become "" so concat degrades
// gracefully; ok reports whether the value was non-null.
func toText(v interface{}) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		if x {
			return "true", true
		}
		return "false", true
	default:
		return fmt.Sprintf("%v", x), true
	}
}

// toBool coerces a value to a truth value. Numbers are true when nonzero;
// strings "true"/"false" (any case) convert; anything else is null.
func toBool(v interface{}) (bool, bool) {
	switch x := v.(type) {
	case nil:
		return false, false
	case bool:
		return x, true
	case float64:
		return x != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
		return false, false
	default:
		return false, false
	}
}

// numeric result guard: NaN and infinities collapse to null so they never
// reach storage or JSON encoding.
func numResult(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

var dateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"2006-01",
}

// parseDate tries the supported layouts in order.
func parseDate(v interface{}) (time.Time, bool) {
	s, ok := toText(v)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// Bare year, common in survey data.
	if y, err := strconv.Atoi(s); err == nil && y >= 1000 && y <= 9999 {
		return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// arity describes a function's accepted argument count. max of -1 means
// variadic.
type arity struct {
	min, max int
}

var rowFuncArity = map[string]arity{
	"log":       {1, 1},
	"log10":     {1, 1},
	"log2":      {1, 1},
	"sqrt":      {1, 1},
	"abs":       {1, 1},
	"exp":       {1, 1},
	"round":     {1, 2},
	"ceil":      {1, 1},
	"floor":     {1, 1},
	"upper":     {1, 1},
	"lower":     {1, 1},
	"trim":      {1, 1},
	"concat":    {1, -1},
	"substr":    {2, 3},
	"len":       {1, 1},
	"date_part": {2, 2},
	"row_mean":  {1, -1},
	"row_sum":   {1, -1},
	"row_min":   {1, -1},
	"row_max":   {1, -1},
	"if_else":   {3, 3},
	"recode":    {3, -1},
	"cut":       {3, 3},
}

// Column-wise functions are resolved in the precompute phase, not per row.
// scalar entries produce one value per (partition) group; the rest produce a
// value per row.
var colFuncArity = map[string]arity{
	"col_mean":        {1, 1},
	"col_sd":          {1, 1},
	"col_min":         {1, 1},
	"col_max":         {1, 1},
	"col_median":      {1, 1},
	"zscore":          {1, 1},
	"center":          {1, 1},
	"rank":            {1, 1},
	"percentile_rank": {1, 1},
	"ntile":           {2, 2},
}

var scalarColFuncs = map[string]bool{
	"col_mean":   true,
	"col_sd":     true,
	"col_min":    true,
	"col_max":    true,
	"col_median": true,
}

// checkArity validates an argument count against a function's declared
// arity.
func checkArity(name string, n int) error {
	ar, ok := rowFuncArity[name]
	if !ok {
		ar, ok = colFuncArity[name]
	}
	if !ok {
		return &EvalError{Message: fmt.Sprintf("unknown function %q", name)}
	}
	if n < ar.min || (ar.max >= 0 && n > ar.max) {
		if ar.max == ar.min {
			return &EvalError{Message: fmt.Sprintf("%s expects %d argument(s), got %d", name, ar.min, n)}
		}
		if ar.max < 0 {
			return &EvalError{Message: fmt.Sprintf("%s expects at least %d argument(s), got %d", name, ar.min, n)}
		}
		return &EvalError{Message: fmt.Sprintf("%s expects %d to %d arguments, got %d", name, ar.min, ar.max, n)}
	}
	return nil
}

// applyRowFunc evaluates a pure per-row function over already-evaluated
// arguments. Arity has been validated beforehand.
func applyRowFunc(name string, args []interface{}) interface{} {
	switch name {
	case "log":
		return mathFunc(args[0], func(x float64) (float64, bool) {
			if x <= 0 {
				return 0, false
			}
			return math.Log(x), true
		})
	case "log10":
		return mathFunc(args[0], func(x float64) (float64, bool) {
			if x <= 0 {
				return 0, false
			}
			return math.Log10(x), true
		})
	case "log2":
		return mathFunc(args[0], func(x float64) (float64, bool) {
			if x <= 0 {
				return 0, false
			}
			return math.Log2(x), true
		})
	case "sqrt":
		return mathFunc(args[0], func(x float64) (float64, bool) {
			if x < 0 {
				return 0, false
			}
			return math.Sqrt(x), true
		})
	case "abs":
		return mathFunc(args[0], func(x float64) (float64, bool) { return math.Abs(x), true })
	case "exp":
		return mathFunc(args[0], func(x float64) (float64, bool) { return math.Exp(x), true })
	case "ceil":
		return mathFunc(args[0], func(x float64) (float64, bool) { return math.Ceil(x), true })
	case "floor":
		return mathFunc(args[0], func(x float64) (float64, bool) { return math.Floor(x), true })
	case "round":
		return applyRound(args)
	case "upper":
		return stringFunc(args[0], strings.ToUpper)
	case "lower":
		return stringFunc(args[0], strings.ToLower)
	case "trim":
		return stringFunc(args[0], strings.TrimSpace)
	case "concat":
		return applyConcat(args)
	case "substr":
		return applySubstr(args)
	case "len":
		s, ok := toText(args[0])
		if !ok {
			return nil
		}
		return float64(utf8.RuneCountInString(s))
	case "date_part":
		return applyDatePart(args)
	case "row_mean", "row_sum", "row_min", "row_max":
		return applyRowAgg(name, args)
	case "if_else":
		cond, ok := toBool(args[0])
		if !ok {
			return nil
		}
		if cond {
			return args[1]
		}
		return args[2]
	case "recode":
		return applyRecode(args)
	case "cut":
		return applyCut(args)
	default:
		return nil
	}
}

func mathFunc(v interface{}, fn func(float64) (float64, bool)) interface{} {
	x, ok := toNumber(v)
	if !ok {
		return nil
	}
	out, ok := fn(x)
	if !ok {
		return nil
	}
	return numResult(out)
}

func stringFunc(v interface{}, fn func(string) string) interface{} {
	s, ok := toText(v)
	if !ok {
		return nil
	}
	return fn(s)
}

func applyRound(args []interface{}) interface{} {
	x, ok := toNumber(args[0])
	if !ok {
		return nil
	}
	digits := 0.0
	if len(args) == 2 {
		d, ok := toNumber(args[1])
		if !ok {
			return nil
		}
		digits = math.Trunc(d)
	}
	scale := math.Pow(10, digits)
	return numResult(math.Round(x*scale) / scale)
}

func applyConcat(args []interface{}) interface{} {
	var sb strings.Builder
	for _, a := range args {
		s, _ := toText(a) // nulls contribute ""
		sb.WriteString(s)
	}
	return sb.String()
}

// applySubstr extracts a substring. start is 1-based; a start past the end
// or a non-positive length yields "".
func applySubstr(args []interface{}) interface{} {
	s, ok := toText(args[0])
	if !ok {
		return nil
	}
	startF, ok := toNumber(args[1])
	if !ok {
		return nil
	}
	runes := []rune(s)
	start := int(math.Trunc(startF)) - 1
	if start < 0 {
		start = 0
	}
	if start >= len(runes) {
		return ""
	}
	end := len(runes)
	if len(args) == 3 {
		lengthF, ok := toNumber(args[2])
		if !ok {
			return nil
		}
		length := int(math.Trunc(lengthF))
		if length <= 0 {
			return ""
		}
		if start+length < end {
			end = start + length
		}
	}
	return string(runes[start:end])
}

// applyDatePart extracts one part of a date value. Weekday is 0-based with
// Sunday as 0.
func applyDatePart(args []interface{}) interface{} {
	t, ok := parseDate(args[0])
	if !ok {
		return nil
	}
	unit, ok := toText(args[1])
	if !ok {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "year":
		return float64(t.Year())
	case "month":
		return float64(int(t.Month()))
	case "day":
		return float64(t.Day())
	case "hour":
		return float64(t.Hour())
	case "minute":
		return float64(t.Minute())
	case "second":
		return float64(t.Second())
	case "weekday":
		return float64(int(t.Weekday()))
	default:
		return nil
	}
}

// applyRowAgg aggregates across the argument list for one row, skipping
// nulls and non-numeric values. All-null input yields null.
func applyRowAgg(name string, args []interface{}) interface{} {
	var xs []float64
	for _, a := range args {
		if x, ok := toNumber(a); ok {
			xs = append(xs, x)
		}
	}
	if len(xs) == 0 {
		return nil
	}
	switch name {
	case "row_sum":
		total := 0.0
		for _, x := range xs {
			total += x
		}
		return numResult(total)
	case "row_mean":
		total := 0.0
		for _, x := range xs {
			total += x
		}
		return numResult(total / float64(len(xs)))
	case "row_min":
		m := xs[0]
		for _, x := range xs[1:] {
			if x < m {
				m = x
			}
		}
		return m
	case "row_max":
		m := xs[0]
		for _, x := range xs[1:] {
			if x > m {
				m = x
			}
		}
		return m
	default:
		return nil
	}
}

// applyRecode maps a value through key/value pairs with an optional trailing
// default. Keys compare with the same loose equality as the = operator.
func applyRecode(args []interface{}) interface{} {
	x := args[0]
	rest := args[1:]
	pairs := len(rest) / 2
	for i := 0; i < pairs; i++ {
		if eq, ok := looseEquals(x, rest[2*i]); ok && eq {
			return rest[2*i+1]
		}
	}
	if len(rest)%2 == 1 {
		return rest[len(rest)-1] // default
	}
	return nil
}

// applyCut bins a numeric value into half-open intervals [b_i, b_i+1) and
// returns the matching label. Values outside all bins yield null.
func applyCut(args []interface{}) interface{} {
	x, ok := toNumber(args[0])
	if !ok {
		return nil
	}
	breaksArr, ok := args[1].([]interface{})
	if !ok {
		return nil
	}
	labelsArr, ok := args[2].([]interface{})
	if !ok {
		return nil
	}
	breaks := make([]float64, 0, len(breaksArr))
	for _, b := range breaksArr {
		f, ok := toNumber(b)
		if !ok {
			return nil
		}
		breaks = append(breaks, f)
	}
	if len(breaks) < 2 || len(labelsArr) != len(breaks)-1 {
		return nil
	}
	for i := 0; i < len(breaks)-1; i++ {
		if x >= breaks[i] && x < breaks[i+1] {
			s, _ := toText(labelsArr[i])
			return s
		}
	}
	return nil
}

// looseEquals implements the = operator: null equals null, numbers compare
// numerically when both sides parse, everything else compares as text. The
// second return is false only when the comparison itself is undefined.
func looseEquals(a, b interface{}) (bool, bool) {
	if a == nil && b == nil {
		return true, true
	}
	if a == nil || b == nil {
		return false, true
	}
	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if aok && bok {
		return an == bn, true
	}
	as, _ := toText(a)
	bs, _ := toText(b)
	return as == bs, true
}
