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
package viz

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dolex-labs/dolex/pkg/source"
)

var timeNameRe = regexp.MustCompile(`(?i)date|time|year|month|day|created_at|timestamp`)

// MatchContext summarizes the data shape for pattern rules.
type MatchContext struct {
	RowCount        int
	NumericCols     []string
	CategoricalCols []string
	DateCols        []string
	IDCols          []string
	TextCols        []string
	CategoryCount   int     // unique values of the first categorical column
	SeriesCount     int     // smallest categorical cardinality >= 2
	SeriesCol       string  // column providing SeriesCount
	ValueMin        float64 // across all numeric columns
	ValueMax        float64
	HasNegative     bool
	HasTimeSeries   bool
	HasHierarchy    bool
	HasSourceTarget bool
	Intent          string
	Columns         []source.DataColumn
}

// BuildContext derives the match context from data rows, inferred columns,
// and the parsed intent.
func BuildContext(data []map[string]interface{}, columns []source.DataColumn, intent string) *MatchContext {
	mc := &MatchContext{
		RowCount: len(data),
		Intent:   intent,
		Columns:  columns,
	}

	for _, col := range columns {
		switch col.Type {
		case source.TypeNumeric:
			mc.NumericCols = append(mc.NumericCols, col.Name)
		case source.TypeCategorical:
			mc.CategoricalCols = append(mc.CategoricalCols, col.Name)
		case source.TypeDate:
			mc.DateCols = append(mc.DateCols, col.Name)
		case source.TypeID:
			mc.IDCols = append(mc.IDCols, col.Name)
		case source.TypeText:
			mc.TextCols = append(mc.TextCols, col.Name)
		}
		if col.Type == source.TypeDate || timeNameRe.MatchString(col.Name) {
			mc.HasTimeSeries = true
		}
	}

	if len(mc.CategoricalCols) > 0 {
		mc.CategoryCount = cardinality(data, mc.CategoricalCols[0])
	}
	mc.SeriesCount, mc.SeriesCol = smallestSeries(data, mc.CategoricalCols)

	first := true
	for _, name := range mc.NumericCols {
		for _, row := range data {
			v, ok := numeric(row[name])
			if !ok {
				continue
			}
			if first {
				mc.ValueMin, mc.ValueMax = v, v
				first = false
				continue
			}
			if v < mc.ValueMin {
				mc.ValueMin = v
			}
			if v > mc.ValueMax {
				mc.ValueMax = v
			}
		}
	}
	mc.HasNegative = mc.ValueMin < 0

	mc.HasHierarchy = hasHierarchy(data, mc.CategoricalCols)
	mc.HasSourceTarget = hasColumn(columns, "source") && hasColumn(columns, "target")
	return mc
}

// FirstNumeric returns the first numeric column name, "" when absent.
func (mc *MatchContext) FirstNumeric() string {
	if len(mc.NumericCols) == 0 {
		return ""
	}
	return mc.NumericCols[0]
}

// FirstCategorical returns the first categorical column name, "" when
// absent.
func (mc *MatchContext) FirstCategorical() string {
	if len(mc.CategoricalCols) == 0 {
		return ""
	}
	return mc.CategoricalCols[0]
}

// FirstDate returns the first date column name, falling back to the first
// time-named column.
func (mc *MatchContext) FirstDate() string {
	if len(mc.DateCols) > 0 {
		return mc.DateCols[0]
	}
	for _, col := range mc.Columns {
		if timeNameRe.MatchString(col.Name) {
			return col.Name
		}
	}
	return ""
}

func cardinality(data []map[string]interface{}, column string) int {
	seen := make(map[string]bool)
	for _, row := range data {
		if v := row[column]; v != nil {
			seen[fmt.Sprint(v)] = true
		}
	}
	return len(seen)
}

// smallestSeries finds the categorical column with the smallest cardinality
// that is still at least 2, which is the natural series/grouping column.
func smallestSeries(data []map[string]interface{}, categoricals []string) (int, string) {
	best, bestCol := 0, ""
	for _, name := range categoricals {
		c := cardinality(data, name)
		if c < 2 {
			continue
		}
		if best == 0 || c < best {
			best, bestCol = c, name
		}
	}
	return best, bestCol
}

// hasHierarchy detects nested structure: explicit parent/children keys or
// two categorical levels to nest.
func hasHierarchy(data []map[string]interface{}, categoricals []string) bool {
	if len(categoricals) >= 2 {
		return true
	}
	if len(data) == 0 {
		return false
	}
	for key := range data[0] {
		lower := strings.ToLower(key)
		if lower == "parent" || lower == "children" || lower == "path" {
			return true
		}
	}
	return false
}

func hasColumn(columns []source.DataColumn, name string) bool {
	for _, col := range columns {
		if strings.EqualFold(col.Name, name) {
			return true
		}
	}
	return false
}

func numeric(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
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
