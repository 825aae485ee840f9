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
	"strings"
)

// Filter restricts a transform to matching rows. Rows that do not match
// receive null and are excluded from statistics and from column-wise
// precomputation.
type Filter struct {
	Field string      `json:"field"`
	Op    string      `json:"op"`
	Value interface{} `json:"value,omitempty"`
}

var filterOps = map[string]bool{
	"=":           true,
	"!=":          true,
	">":           true,
	">=":          true,
	"<":           true,
	"<=":          true,
	"in":          true,
	"not_in":      true,
	"between":     true,
	"is_null":     true,
	"is_not_null": true,
}

// Validate checks the operator and value shape before any row is touched.
func (f *Filter) Validate() error {
	if f.Field == "" {
		return &EvalError{Message: "filter requires a field"}
	}
	if !filterOps[f.Op] {
		return &EvalError{Message: fmt.Sprintf("unsupported filter operator %q", f.Op)}
	}
	switch f.Op {
	case "in", "not_in":
		if _, ok := f.Value.([]interface{}); !ok {
			return &EvalError{Message: fmt.Sprintf("filter operator %q requires a list value", f.Op)}
		}
	case "between":
		list, ok := f.Value.([]interface{})
		if !ok || len(list) != 2 {
			return &EvalError{Message: `filter operator "between" requires a two-element list`}
		}
	case "is_null", "is_not_null":
		// no value
	default:
		if f.Value == nil {
			return &EvalError{Message: fmt.Sprintf("filter operator %q requires a value", f.Op)}
		}
	}
	return nil
}

// matches evaluates the filter against one cell value. It never fails; an
// undefined comparison simply does not match.
func (f *Filter) matches(v interface{}) bool {
	switch f.Op {
	case "is_null":
		return isNullCell(v)
	case "is_not_null":
		return !isNullCell(v)
	case "=":
		eq, ok := looseEquals(v, f.Value)
		return ok && eq
	case "!=":
		eq, ok := looseEquals(v, f.Value)
		return ok && !eq
	case ">", ">=", "<", "<=":
		cmp, ok := compareOrder(v, f.Value)
		if !ok {
			return false
		}
		switch f.Op {
		case ">":
			return cmp > 0
		case ">=":
			return cmp >= 0
		case "<":
			return cmp < 0
		default:
			return cmp <= 0
		}
	case "in", "not_in":
		list, _ := f.Value.([]interface{})
		found := false
		for _, item := range list {
			if eq, ok := looseEquals(v, item); ok && eq {
				found = true
				break
			}
		}
		if f.Op == "in" {
			return found
		}
		return !found
	case "between":
		list, _ := f.Value.([]interface{})
		if len(list) != 2 {
			return false
		}
		lo, okLo := compareOrder(v, list[0])
		hi, okHi := compareOrder(v, list[1])
		return okLo && okHi && lo >= 0 && hi <= 0
	default:
		return false
	}
}

// isNullCell treats nil and empty text as null, matching how the CSV loader
// stores missing values.
func isNullCell(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// compareOrder orders two values: numerically when both sides parse as
// numbers, otherwise as text. ok is false when either side is null, which
// makes every ordering comparison involving null undefined.
func compareOrder(a, b interface{}) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if aok && bok {
		switch {
		case an < bn:
			return -1, true
		case an > bn:
			return 1, true
		}
		return 0, true
	}
	as, _ := toText(a)
	bs, _ := toText(b)
	return strings.Compare(as, bs), true
}
