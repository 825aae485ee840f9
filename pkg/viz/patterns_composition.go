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

func compositionPatterns() []*Pattern {
	return []*Pattern{
		{
			ID:          "pie",
			Name:        "Pie Chart",
			Category:    "composition",
			Description: "Slices of a whole.",
			BestFor:     []string{"2-6 parts of a single total"},
			NotFor:      []string{"more than 6 slices", "negative values"},
			Requirements: Requirements{
				MinRows: 2, MaxRows: 10,
				MinNumeric: 1, MinCategorical: 1,
				MinCategories: 2, MaxCategories: 6,
			},
			SelectionRules: []Rule{
				{Condition: "2-6 non-negative parts", Weight: 3, Matches: func(mc *MatchContext) bool {
					return mc.CategoryCount >= 2 && mc.CategoryCount <= 6 && !mc.HasNegative
				}},
			},
			Generate: genPartToWhole("pie"),
		},
		{
			ID:          "donut",
			Name:        "Donut Chart",
			Category:    "composition",
			Description: "Pie with a hole for a headline figure.",
			Requirements: Requirements{
				MinRows: 2, MaxRows: 12,
				MinNumeric: 1, MinCategorical: 1,
				MinCategories: 2, MaxCategories: 8,
			},
			SelectionRules: []Rule{
				{Condition: "2-8 non-negative parts", Weight: 2, Matches: func(mc *MatchContext) bool {
					return mc.CategoryCount >= 2 && mc.CategoryCount <= 8 && !mc.HasNegative
				}},
			},
			Generate: genPartToWhole("donut"),
		},
		{
			ID:          "stacked_bar",
			Name:        "Stacked Bar Chart",
			Category:    "composition",
			Description: "Bars split into stacked segments.",
			BestFor:     []string{"part-to-whole across categories"},
			Requirements: Requirements{
				MinRows: 2, MaxRows: 100,
				MinNumeric: 1, MinCategorical: 2,
			},
			SelectionRules: []Rule{
				{Condition: "2-6 segments per bar", Weight: 3, Matches: func(mc *MatchContext) bool {
					return mc.SeriesCount >= 2 && mc.SeriesCount <= 6
				}},
			},
			Generate: func(mc *MatchContext, data []map[string]interface{}, columns []source.DataColumn, opts Options) (*Spec, error) {
				spec, err := genCategoricalValue("stacked_bar")(mc, data, columns, opts)
				if err != nil {
					return nil, err
				}
				if spec.Options == nil {
					spec.Options = map[string]interface{}{}
				}
				spec.Options["stack"] = true
				return spec, nil
			},
		},
		{
			ID:          "treemap",
			Name:        "Treemap",
			Category:    "composition",
			Description: "Nested rectangles sized by value.",
			BestFor:     []string{"many parts", "two-level hierarchies"},
			Requirements: Requirements{
				MinRows: 4, MaxRows: 500,
				MinNumeric: 1, MinCategorical: 1,
				MinCategories: 4,
			},
			SelectionRules: []Rule{
				{Condition: "more than 8 parts", Weight: 2, Matches: func(mc *MatchContext) bool {
					return mc.CategoryCount > 8
				}},
				{Condition: "hierarchy present", Weight: 2, Matches: func(mc *MatchContext) bool {
					return mc.HasHierarchy
				}},
			},
			Generate: genHierarchyValue("treemap"),
		},
		{
			ID:          "sunburst",
			Name:        "Sunburst Chart",
			Category:    "composition",
			Description: "Hierarchy as concentric rings.",
			Requirements: Requirements{
				MinRows: 4, MaxRows: 500,
				MinNumeric: 1, MinCategorical: 2,
				RequiresHierarchy: true,
			},
			SelectionRules: []Rule{
				{Condition: "two categorical levels", Weight: 3, Matches: func(mc *MatchContext) bool {
					return len(mc.CategoricalCols) >= 2
				}},
			},
			Generate: genHierarchyValue("sunburst"),
		},
		{
			ID:          "waffle",
			Name:        "Waffle Chart",
			Category:    "composition",
			Description: "A grid of unit squares per part.",
			BestFor:     []string{"simple percentage stories"},
			Requirements: Requirements{
				MinRows: 2, MaxRows: 8,
				MinNumeric: 1, MinCategorical: 1,
				MinCategories: 2, MaxCategories: 5,
			},
			SelectionRules: []Rule{
				{Condition: "2-5 parts", Weight: 2, Matches: func(mc *MatchContext) bool {
					return mc.CategoryCount >= 2 && mc.CategoryCount <= 5 && !mc.HasNegative
				}},
			},
			Generate: genPartToWhole("waffle"),
		},
		{
			ID:          "marimekko",
			Name:        "Marimekko Chart",
			Category:    "composition",
			Description: "Stacked bars with variable widths, both axes part-to-whole.",
			Requirements: Requirements{
				MinRows: 4, MaxRows: 100,
				MinNumeric: 1, MinCategorical: 2,
			},
			SelectionRules: []Rule{
				{Condition: "two categorical dimensions with few levels", Weight: 2, Matches: func(mc *MatchContext) bool {
					return len(mc.CategoricalCols) >= 2 && mc.CategoryCount <= 8 && mc.SeriesCount <= 8
				}},
			},
			Generate: genHierarchyValue("marimekko"),
		},
	}
}

// genHierarchyValue nests the first two categorical levels and sizes by the
// first numeric column. With one level the second ring is omitted.
func genHierarchyValue(pattern string) Generator {
	return func(mc *MatchContext, data []map[string]interface{}, _ []source.DataColumn, _ Options) (*Spec, error) {
		num := mc.FirstNumeric()
		if num == "" || len(mc.CategoricalCols) == 0 {
			return nil, fmt.Errorf("%s requires a categorical and a numeric column", pattern)
		}
		enc := Encoding{
			"color": {Field: mc.CategoricalCols[0], Type: "nominal"},
			"size":  {Field: num, Type: "quantitative"},
		}
		if len(mc.CategoricalCols) > 1 {
			enc["detail"] = Field{Field: mc.CategoricalCols[1], Type: "nominal"}
		}
		return &Spec{
			Pattern:  pattern,
			Title:    byTitle(num, mc.CategoricalCols[0]),
			Data:     data,
			Encoding: enc,
		}, nil
	}
}
