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
package source

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Semantic column types.
const (
	TypeNumeric     = "numeric"
	TypeCategorical = "categorical"
	TypeDate        = "date"
	TypeID          = "id"
	TypeText        = "text"
)

var (
	// ISO-ish date forms: 2024-03-15, 2024-03, 2024-Q1, 2024-W07.
	datePattern      = regexp.MustCompile(`^\d{4}([-/]\d{1,2}([-/]\d{1,2})?([ T].*)?)?$`)
	quarterPattern   = regexp.MustCompile(`^\d{4}-?[Qq][1-4]$`)
	weekPattern      = regexp.MustCompile(`^\d{4}-?[Ww]\d{1,2}$`)
	dateNamePattern  = regexp.MustCompile(`(?i)(date|time|year|timestamp)`)
	yearNamePattern  = regexp.MustCompile(`(?i)(year|cohort|fiscal|yr)`)
	timeSeriesNameRe = regexp.MustCompile(`(?i)(date|time|year|month|day|created_at|timestamp)`)
)

// IsTimeSeriesName reports whether a column name looks like a time axis.
func IsTimeSeriesName(name string) bool {
	return timeSeriesNameRe.MatchString(name)
}

// InferType classifies a column from its name, non-null sample values,
// distinct count, and total row count.
func InferType(name string, samples []string, uniqueCount, totalCount int) string {
	lower := strings.ToLower(name)

	// ID detection leans on the name; a bare "id" additionally needs high
	// cardinality so a 3-value status code named "id" stays categorical.
	uniqueRatio := 0.0
	if totalCount > 0 {
		uniqueRatio = float64(uniqueCount) / float64(totalCount)
	}
	switch {
	case lower == "id" && uniqueRatio > 0.9:
		return TypeID
	case strings.HasSuffix(lower, "_id"):
		return TypeID
	case strings.HasSuffix(lower, "id") && lower != "id" && uniqueRatio > 0.5:
		return TypeID
	}

	if dateNamePattern.MatchString(name) {
		return TypeDate
	}
	if len(samples) > 0 && allDateLike(samples) {
		return TypeDate
	}

	if numericShare(samples) > 0.7 {
		return TypeNumeric
	}

	if isFreeText(samples, uniqueRatio) {
		return TypeText
	}
	return TypeCategorical
}

// LooksLikeYear reports whether a numeric column is really a year axis:
// integer values in [1900, 2100], a year-family name, and enough distinct
// values in a plausible span. Ambiguity between this and date detection
// resolves to date.
func LooksLikeYear(name string, samples []string, uniqueCount int) bool {
	if !yearNamePattern.MatchString(name) {
		return false
	}
	if len(samples) == 0 || uniqueCount < 2 {
		return false
	}
	min, max := 0, 0
	for i, s := range samples {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || v < 1900 || v > 2100 {
			return false
		}
		if i == 0 || v < min {
			min = v
		}
		if i == 0 || v > max {
			max = v
		}
	}
	return max-min <= 150
}

func allDateLike(samples []string) bool {
	for _, s := range samples {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if !datePattern.MatchString(s) && !quarterPattern.MatchString(s) && !weekPattern.MatchString(s) {
			return false
		}
	}
	return true
}

func numericShare(samples []string) float64 {
	if len(samples) == 0 {
		return 0
	}
	numeric := 0
	for _, s := range samples {
		if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			numeric++
		}
	}
	return float64(numeric) / float64(len(samples))
}

// isFreeText distinguishes prose from categories: long average values, or
// nearly-unique values that are not short codes.
func isFreeText(samples []string, uniqueRatio float64) bool {
	if len(samples) == 0 {
		return false
	}
	total := 0
	for _, s := range samples {
		total += len(s)
	}
	avg := float64(total) / float64(len(samples))
	if avg > 100 {
		return true
	}
	return uniqueRatio > 0.95 && avg > 20
}

// InferColumns profiles inline data rows the same way the CSV loader
// profiles loaded tables, including the year-like refinement for numeric
// columns whose name and range say "year".
func InferColumns(rows []map[string]interface{}, columns []string) []DataColumn {
	if len(columns) == 0 {
		columns = collectKeys(rows)
	}

	out := make([]DataColumn, 0, len(columns))
	for _, name := range columns {
		var samples []string
		seen := make(map[string]bool)
		nulls := 0
		for _, row := range rows {
			v, ok := row[name]
			if !ok || v == nil {
				nulls++
				continue
			}
			s := cellText(v)
			if strings.TrimSpace(s) == "" {
				nulls++
				continue
			}
			if !seen[s] {
				seen[s] = true
				if len(samples) < maxSamples {
					samples = append(samples, s)
				}
			}
		}

		typ := InferType(name, samples, len(seen), len(rows))
		if typ == TypeNumeric && LooksLikeYear(name, samples, len(seen)) {
			typ = TypeDate
		}

		col := DataColumn{
			Name:        name,
			Type:        typ,
			Samples:     truncateSamples(samples),
			UniqueCount: len(seen),
			NullCount:   nulls,
			TotalCount:  len(rows),
		}
		out = append(out, col)
	}
	return out
}

// maxSamples is how many distinct sample values profiling collects while
// scanning; at most 20 are reported per column.
const maxSamples = 30

func truncateSamples(samples []string) []string {
	if len(samples) > 20 {
		return samples[:20]
	}
	return samples
}

func collectKeys(rows []map[string]interface{}) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	// Map iteration order is random; pin it.
	sort.Strings(keys)
	return keys
}

func cellText(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}
