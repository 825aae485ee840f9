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

	"github.com/dolex-labs/dolex/pkg/source"
)

// Shared generator builders. Every generator derives its encoding
// deterministically from the context: first categorical drives x/color,
// first numeric drives y, with pattern-specific exceptions noted inline.

func genCategoricalValue(pattern string) Generator {
	return func(mc *MatchContext, data []map[string]interface{}, _ []source.DataColumn, _ Options) (*Spec, error) {
		x, y := mc.FirstCategorical(), mc.FirstNumeric()
		if x == "" || y == "" {
			return nil, fmt.Errorf("%s requires a categorical and a numeric column", pattern)
		}
		enc := Encoding{
			"x": {Field: x, Type: "nominal"},
			"y": {Field: y, Type: "quantitative"},
		}
		if mc.SeriesCol != "" && mc.SeriesCol != x {
			enc["color"] = Field{Field: mc.SeriesCol, Type: "nominal"}
		}
		return &Spec{Pattern: pattern, Title: byTitle(y, x), Data: data, Encoding: enc}, nil
	}
}

// genFlippedValue puts the category on y, for patterns built around long
// labels.
func genFlippedValue(pattern string) Generator {
	return func(mc *MatchContext, data []map[string]interface{}, _ []source.DataColumn, _ Options) (*Spec, error) {
		cat, num := mc.FirstCategorical(), mc.FirstNumeric()
		if cat == "" || num == "" {
			return nil, fmt.Errorf("%s requires a categorical and a numeric column", pattern)
		}
		return &Spec{
			Pattern: pattern,
			Title:   byTitle(num, cat),
			Data:    data,
			Encoding: Encoding{
				"x": {Field: num, Type: "quantitative"},
				"y": {Field: cat, Type: "nominal"},
			},
		}, nil
	}
}

// genPartToWhole binds category to color and value to theta.
func genPartToWhole(pattern string) Generator {
	return func(mc *MatchContext, data []map[string]interface{}, _ []source.DataColumn, _ Options) (*Spec, error) {
		cat, num := mc.FirstCategorical(), mc.FirstNumeric()
		if cat == "" || num == "" {
			return nil, fmt.Errorf("%s requires a categorical and a numeric column", pattern)
		}
		return &Spec{
			Pattern: pattern,
			Title:   byTitle(num, cat),
			Data:    data,
			Encoding: Encoding{
				"color": {Field: cat, Type: "nominal"},
				"theta": {Field: num, Type: "quantitative"},
			},
		}, nil
	}
}

// genTimeValue binds the date column to x. Series, when present, colors
// the lines.
func genTimeValue(pattern string) Generator {
	return func(mc *MatchContext, data []map[string]interface{}, _ []source.DataColumn, _ Options) (*Spec, error) {
		x, y := mc.FirstDate(), mc.FirstNumeric()
		if x == "" || y == "" {
			return nil, fmt.Errorf("%s requires a time column and a numeric column", pattern)
		}
		enc := Encoding{
			"x": {Field: x, Type: "temporal"},
			"y": {Field: y, Type: "quantitative"},
		}
		if mc.SeriesCol != "" {
			enc["color"] = Field{Field: mc.SeriesCol, Type: "nominal"}
		}
		return &Spec{Pattern: pattern, Title: byTitle(y, x), Data: data, Encoding: enc}, nil
	}
}

// genNumericPair binds the first two numeric columns to x and y.
func genNumericPair(pattern string) Generator {
	return func(mc *MatchContext, data []map[string]interface{}, _ []source.DataColumn, _ Options) (*Spec, error) {
		if len(mc.NumericCols) < 2 {
			return nil, fmt.Errorf("%s requires two numeric columns", pattern)
		}
		x, y := mc.NumericCols[0], mc.NumericCols[1]
		enc := Encoding{
			"x": {Field: x, Type: "quantitative"},
			"y": {Field: y, Type: "quantitative"},
		}
		if cat := mc.FirstCategorical(); cat != "" {
			enc["color"] = Field{Field: cat, Type: "nominal"}
		}
		return &Spec{Pattern: pattern, Title: byTitle(y, x), Data: data, Encoding: enc}, nil
	}
}

// genDistribution bins the first numeric column; a categorical column, if
// any, splits the distribution.
func genDistribution(pattern string) Generator {
	return func(mc *MatchContext, data []map[string]interface{}, _ []source.DataColumn, _ Options) (*Spec, error) {
		num := mc.FirstNumeric()
		if num == "" {
			return nil, fmt.Errorf("%s requires a numeric column", pattern)
		}
		enc := Encoding{"x": {Field: num, Type: "quantitative"}}
		if cat := mc.FirstCategorical(); cat != "" {
			enc["color"] = Field{Field: cat, Type: "nominal"}
		}
		return &Spec{Pattern: pattern, Title: titleCase(num) + " Distribution", Data: data, Encoding: enc}, nil
	}
}
