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
	"strings"

	"github.com/dolex-labs/dolex/pkg/source"
)

func comparisonPatterns() []*Pattern {
	return []*Pattern{
		{
			ID:          "bar",
			Name:        "Bar Chart",
			Category:    "comparison",
			Description: "Vertical bars comparing a value across categories.",
			BestFor:     []string{"comparing magnitudes across a handful of categories"},
			NotFor:      []string{"more than ~30 categories", "continuous time series"},
			Requirements: Requirements{
				MinRows: 1, MaxRows: 50,
				MinNumeric: 1, MinCategorical: 1,
				MinCategories: 2, MaxCategories: 30,
			},
			SelectionRules: []Rule{
				{Condition: "2-30 categories", Weight: 3, Matches: func(mc *MatchContext) bool {
					return mc.CategoryCount >= 2 && mc.CategoryCount <= 30
				}},
				{Condition: "single numeric measure", Weight: 1, Matches: func(mc *MatchContext) bool {
					return len(mc.NumericCols) == 1
				}},
			},
			Generate: genCategoricalValue("bar"),
		},
		{
			ID:          "grouped_bar",
			Name:        "Grouped Bar Chart",
			Category:    "comparison",
			Description: "Bars clustered by a second categorical series.",
			BestFor:     []string{"comparing a measure across two categorical dimensions"},
			Requirements: Requirements{
				MinRows: 2, MaxRows: 100,
				MinNumeric: 1, MinCategorical: 2,
				MaxCategories: 20,
			},
			SelectionRules: []Rule{
				{Condition: "2-6 series", Weight: 3, Matches: func(mc *MatchContext) bool {
					return mc.SeriesCount >= 2 && mc.SeriesCount <= 6
				}},
			},
			Generate: genCategoricalValue("grouped_bar"),
		},
		{
			ID:          "horizontal_bar",
			Name:        "Horizontal Bar Chart",
			Category:    "comparison",
			Description: "Bars running horizontally, leaving room for long labels.",
			BestFor:     []string{"ranked lists", "long category names"},
			Requirements: Requirements{
				MinRows: 1, MaxRows: 50,
				MinNumeric: 1, MinCategorical: 1,
				MinCategories: 2, MaxCategories: 40,
			},
			SelectionRules: []Rule{
				{Condition: "more than 8 categories", Weight: 3, Matches: func(mc *MatchContext) bool {
					return mc.CategoryCount > 8
				}},
				{Condition: "long category labels", Weight: 2, Matches: hasLongLabels},
			},
			Generate: genFlippedValue("horizontal_bar"),
		},
		{
			ID:          "lollipop",
			Name:        "Lollipop Chart",
			Category:    "comparison",
			Description: "Thin stems with dots, a lighter-weight bar chart.",
			BestFor:     []string{"many similar values where bar ink overwhelms"},
			Requirements: Requirements{
				MinRows: 3, MaxRows: 30,
				MinNumeric: 1, MinCategorical: 1,
				MinCategories: 3, MaxCategories: 30,
			},
			SelectionRules: []Rule{
				{Condition: "5-30 categories", Weight: 2, Matches: func(mc *MatchContext) bool {
					return mc.CategoryCount >= 5 && mc.CategoryCount <= 30
				}},
			},
			Generate: genCategoricalValue("lollipop"),
		},
		{
			ID:          "dot_plot",
			Name:        "Dot Plot",
			Category:    "comparison",
			Description: "Points on a common scale, one per category.",
			BestFor:     []string{"precise value comparison without bar baselines"},
			Requirements: Requirements{
				MinRows: 2, MaxRows: 50,
				MinNumeric: 1, MinCategorical: 1,
			},
			SelectionRules: []Rule{
				{Condition: "values far from zero", Weight: 2, Matches: func(mc *MatchContext) bool {
					return mc.ValueMin > 0 && mc.ValueMax > 0 && mc.ValueMin > mc.ValueMax/2
				}},
			},
			Generate: genFlippedValue("dot_plot"),
		},
		{
			ID:          "bullet",
			Name:        "Bullet Chart",
			Category:    "comparison",
			Description: "Measure against a target band.",
			BestFor:     []string{"actual vs target comparisons"},
			Requirements: Requirements{
				MinRows: 1, MaxRows: 20,
				MinNumeric: 2, MinCategorical: 1,
			},
			SelectionRules: []Rule{
				{Condition: "target-like column present", Weight: 4, Matches: func(mc *MatchContext) bool {
					for _, name := range mc.NumericCols {
						lower := strings.ToLower(name)
						if strings.Contains(lower, "target") || strings.Contains(lower, "goal") || strings.Contains(lower, "budget") {
							return true
						}
					}
					return false
				}},
			},
			Generate: func(mc *MatchContext, data []map[string]interface{}, _ []source.DataColumn, _ Options) (*Spec, error) {
				cat := mc.FirstCategorical()
				if cat == "" || len(mc.NumericCols) < 2 {
					return nil, fmt.Errorf("bullet requires a categorical column and two numeric columns")
				}
				// First numeric is the measure, the target-like column (or
				// second numeric) the target.
				measure, target := mc.NumericCols[0], mc.NumericCols[1]
				for _, name := range mc.NumericCols {
					lower := strings.ToLower(name)
					if strings.Contains(lower, "target") || strings.Contains(lower, "goal") || strings.Contains(lower, "budget") {
						target = name
						break
					}
				}
				return &Spec{
					Pattern: "bullet",
					Title:   byTitle(measure, cat),
					Data:    data,
					Encoding: Encoding{
						"y":      {Field: cat, Type: "nominal"},
						"x":      {Field: measure, Type: "quantitative"},
						"target": {Field: target, Type: "quantitative"},
					},
				}, nil
			},
		},
		{
			ID:          "radar",
			Name:        "Radar Chart",
			Category:    "comparison",
			Description: "Multiple measures on radial axes.",
			BestFor:     []string{"profiles across 3-8 measures"},
			NotFor:      []string{"precise reading", "many series"},
			Requirements: Requirements{
				MinRows: 1, MaxRows: 10,
				MinNumeric: 3, MinCategorical: 1,
				MaxCategories: 10,
			},
			SelectionRules: []Rule{
				{Condition: "3-8 numeric measures", Weight: 3, Matches: func(mc *MatchContext) bool {
					return len(mc.NumericCols) >= 3 && len(mc.NumericCols) <= 8
				}},
			},
			Generate: func(mc *MatchContext, data []map[string]interface{}, _ []source.DataColumn, _ Options) (*Spec, error) {
				cat := mc.FirstCategorical()
				if cat == "" || len(mc.NumericCols) < 3 {
					return nil, fmt.Errorf("radar requires a categorical column and at least three numeric columns")
				}
				return &Spec{
					Pattern:  "radar",
					Title:    titleCase(cat) + " Profile",
					Data:     data,
					Encoding: Encoding{"color": {Field: cat, Type: "nominal"}},
					Options:  map[string]interface{}{"axes": mc.NumericCols},
				}, nil
			},
		},
		{
			ID:          "small_multiples",
			Name:        "Small Multiples",
			Category:    "comparison",
			Description: "The same chart repeated per series.",
			BestFor:     []string{"comparing shapes across many series"},
			Requirements: Requirements{
				MinRows: 8, MaxRows: 1000,
				MinNumeric: 1, MinCategorical: 1,
			},
			SelectionRules: []Rule{
				{Condition: "4 or more series", Weight: 2, Matches: func(mc *MatchContext) bool {
					return mc.SeriesCount >= 4
				}},
			},
			Generate: func(mc *MatchContext, data []map[string]interface{}, columns []source.DataColumn, opts Options) (*Spec, error) {
				spec, err := genCategoricalValue("small_multiples")(mc, data, columns, opts)
				if err != nil {
					return nil, err
				}
				if mc.SeriesCol == "" {
					return nil, fmt.Errorf("small_multiples requires a series column")
				}
				spec.Encoding["facet"] = Field{Field: mc.SeriesCol, Type: "nominal"}
				return spec, nil
			},
		},
		{
			ID:          "table",
			Name:        "Data Table",
			Category:    "comparison",
			Description: "Raw rows, always applicable.",
			BestFor:     []string{"exact values", "mixed types nothing else fits"},
			Requirements: Requirements{
				MinRows: 0,
			},
			SelectionRules: []Rule{
				{Condition: "always applicable", Weight: 1, Matches: func(*MatchContext) bool { return true }},
			},
			Generate: func(mc *MatchContext, data []map[string]interface{}, columns []source.DataColumn, _ Options) (*Spec, error) {
				names := make([]interface{}, len(columns))
				for i, c := range columns {
					names[i] = c.Name
				}
				return &Spec{
					Pattern:  "table",
					Title:    "Data Table",
					Data:     data,
					Encoding: Encoding{},
					Options:  map[string]interface{}{"columns": names},
				}, nil
			},
		},
	}
}

// hasLongLabels reports whether the first categorical column carries labels
// long enough to crowd a vertical axis.
func hasLongLabels(mc *MatchContext) bool {
	for _, col := range mc.Columns {
		if col.Name != mc.FirstCategorical() {
			continue
		}
		for _, s := range col.Samples {
			if len(s) > 15 {
				return true
			}
		}
	}
	return false
}
