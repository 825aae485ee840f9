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

func distributionPatterns() []*Pattern {
	return []*Pattern{
		{
			ID:          "histogram",
			Name:        "Histogram",
			Category:    "distribution",
			Description: "Binned counts of a numeric column.",
			BestFor:     []string{"seeing the shape of one variable"},
			Requirements: Requirements{
				MinRows:    20,
				MinNumeric: 1,
			},
			SelectionRules: []Rule{
				{Condition: "50+ rows", Weight: 3, Matches: func(mc *MatchContext) bool {
					return mc.RowCount >= 50
				}},
				{Condition: "single numeric column", Weight: 1, Matches: func(mc *MatchContext) bool {
					return len(mc.NumericCols) == 1
				}},
			},
			Generate: genDistribution("histogram"),
		},
		{
			ID:          "density",
			Name:        "Density Plot",
			Category:    "distribution",
			Description: "Smoothed distribution curve.",
			BestFor:     []string{"comparing overlapping distributions"},
			Requirements: Requirements{
				MinRows:    50,
				MinNumeric: 1,
			},
			SelectionRules: []Rule{
				{Condition: "multiple series to overlay", Weight: 2, Matches: func(mc *MatchContext) bool {
					return mc.SeriesCount >= 2 && mc.SeriesCount <= 5
				}},
			},
			Generate: genDistribution("density"),
		},
		{
			ID:          "box_plot",
			Name:        "Box Plot",
			Category:    "distribution",
			Description: "Quartiles and outliers, optionally per category.",
			BestFor:     []string{"comparing spread across groups"},
			Requirements: Requirements{
				MinRows:    10,
				MinNumeric: 1,
			},
			SelectionRules: []Rule{
				{Condition: "groups to compare", Weight: 2, Matches: func(mc *MatchContext) bool {
					return mc.SeriesCount >= 2
				}},
				{Condition: "outlier-oriented intent", Weight: 1, Matches: func(mc *MatchContext) bool {
					return mc.Intent == "distribution"
				}},
			},
			Generate: genDistribution("box_plot"),
		},
		{
			ID:          "violin",
			Name:        "Violin Plot",
			Category:    "distribution",
			Description: "Box plot with a density silhouette.",
			BestFor:     []string{"distribution shape per group"},
			Requirements: Requirements{
				MinRows:        30,
				MinNumeric:     1,
				MinCategorical: 1,
			},
			SelectionRules: []Rule{
				{Condition: "2-8 groups with many rows", Weight: 2, Matches: func(mc *MatchContext) bool {
					return mc.SeriesCount >= 2 && mc.SeriesCount <= 8 && mc.RowCount >= 60
				}},
			},
			Generate: genDistribution("violin"),
		},
		{
			ID:          "ridgeline",
			Name:        "Ridgeline Plot",
			Category:    "distribution",
			Description: "Stacked density curves, one ridge per group.",
			BestFor:     []string{"many distributions at once"},
			Requirements: Requirements{
				MinRows:        50,
				MinNumeric:     1,
				MinCategorical: 1,
			},
			SelectionRules: []Rule{
				{Condition: "3+ groups", Weight: 2, Matches: func(mc *MatchContext) bool {
					return mc.SeriesCount >= 3
				}},
			},
			Generate: genDistribution("ridgeline"),
		},
		{
			ID:          "strip_plot",
			Name:        "Strip Plot",
			Category:    "distribution",
			Description: "Every point shown on a single axis.",
			BestFor:     []string{"small samples where each point matters"},
			Requirements: Requirements{
				MinRows: 5, MaxRows: 200,
				MinNumeric: 1,
			},
			SelectionRules: []Rule{
				{Condition: "small sample", Weight: 2, Matches: func(mc *MatchContext) bool {
					return mc.RowCount <= 100
				}},
			},
			Generate: genDistribution("strip_plot"),
		},
		{
			ID:          "beeswarm",
			Name:        "Beeswarm Plot",
			Category:    "distribution",
			Description: "Points packed without overlap along an axis.",
			BestFor:     []string{"point-level detail with visible density"},
			Requirements: Requirements{
				MinRows: 10, MaxRows: 300,
				MinNumeric: 1,
			},
			SelectionRules: []Rule{
				{Condition: "medium sample with groups", Weight: 2, Matches: func(mc *MatchContext) bool {
					return mc.RowCount >= 20 && mc.RowCount <= 300 && mc.SeriesCount >= 2
				}},
			},
			Generate: genDistribution("beeswarm"),
		},
	}
}
