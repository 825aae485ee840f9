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

func flowPatterns() []*Pattern {
	return []*Pattern{
		{
			ID:          "sankey",
			Name:        "Sankey Diagram",
			Category:    "flow",
			Description: "Weighted flows between stages.",
			BestFor:     []string{"source-to-target volumes"},
			Requirements: Requirements{
				MinRows: 2, MaxRows: 200,
				MinNumeric: 1, MinCategorical: 2,
			},
			SelectionRules: []Rule{
				{Condition: "source and target columns", Weight: 4, Matches: func(mc *MatchContext) bool {
					return mc.HasSourceTarget
				}},
			},
			Generate: func(mc *MatchContext, data []map[string]interface{}, _ []source.DataColumn, _ Options) (*Spec, error) {
				return flowPairSpec("sankey", mc, data)
			},
		},
		{
			ID:          "chord",
			Name:        "Chord Diagram",
			Category:    "flow",
			Description: "Flows between entities around a circle.",
			NotFor:      []string{"more than ~12 entities"},
			Requirements: Requirements{
				MinRows: 3, MaxRows: 150,
				MinNumeric: 1, MinCategorical: 2,
				MaxCategories: 12,
			},
			SelectionRules: []Rule{
				{Condition: "mutual flows among few entities", Weight: 2, Matches: func(mc *MatchContext) bool {
					return mc.HasSourceTarget && mc.CategoryCount <= 12
				}},
			},
			Generate: func(mc *MatchContext, data []map[string]interface{}, _ []source.DataColumn, _ Options) (*Spec, error) {
				return flowPairSpec("chord", mc, data)
			},
		},
		{
			ID:          "waterfall",
			Name:        "Waterfall Chart",
			Category:    "flow",
			Description: "Running total built from positive and negative steps.",
			BestFor:     []string{"how deltas add up to a total"},
			Requirements: Requirements{
				MinRows: 2, MaxRows: 30,
				MinNumeric: 1, MinCategorical: 1,
			},
			SelectionRules: []Rule{
				{Condition: "mixed-sign values", Weight: 3, Matches: func(mc *MatchContext) bool {
					return mc.HasNegative && mc.ValueMax > 0
				}},
			},
			Generate: genCategoricalValue("waterfall"),
		},
		{
			ID:          "funnel",
			Name:        "Funnel Chart",
			Category:    "flow",
			Description: "Shrinking stages of a pipeline.",
			BestFor:     []string{"conversion through ordered stages"},
			Requirements: Requirements{
				MinRows: 3, MaxRows: 12,
				MinNumeric: 1, MinCategorical: 1,
				MinCategories: 3, MaxCategories: 8,
			},
			SelectionRules: []Rule{
				{Condition: "stage-like categories", Weight: 2, Matches: func(mc *MatchContext) bool {
					return mc.CategoryCount >= 3 && mc.CategoryCount <= 8 && !mc.HasNegative
				}},
			},
			Generate: genCategoricalValue("funnel"),
		},
	}
}

func flowPairSpec(pattern string, mc *MatchContext, data []map[string]interface{}) (*Spec, error) {
	num := mc.FirstNumeric()
	if num == "" || len(mc.CategoricalCols) < 2 {
		return nil, fmt.Errorf("%s requires two categorical columns and a numeric weight", pattern)
	}
	src, dst := mc.CategoricalCols[0], mc.CategoricalCols[1]
	if mc.HasSourceTarget {
		src, dst = "source", "target"
	}
	return &Spec{
		Pattern: pattern,
		Title:   "Flow of " + titleCase(num),
		Data:    data,
		Encoding: Encoding{
			"source": {Field: src, Type: "nominal"},
			"target": {Field: dst, Type: "nominal"},
			"size":   {Field: num, Type: "quantitative"},
		},
	}, nil
}
