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

func relationshipPatterns() []*Pattern {
	return []*Pattern{
		{
			ID:          "scatter",
			Name:        "Scatter Plot",
			Category:    "relationship",
			Description: "Two numeric variables as points.",
			BestFor:     []string{"correlation between two measures"},
			Requirements: Requirements{
				MinRows:    5,
				MinNumeric: 2,
			},
			SelectionRules: []Rule{
				{Condition: "two numeric columns", Weight: 3, Matches: func(mc *MatchContext) bool {
					return len(mc.NumericCols) >= 2
				}},
				{Condition: "relationship intent", Weight: 1, Matches: func(mc *MatchContext) bool {
					return mc.Intent == "relationship"
				}},
			},
			Generate: genNumericPair("scatter"),
		},
		{
			ID:          "bubble",
			Name:        "Bubble Chart",
			Category:    "relationship",
			Description: "Scatter with a third measure as size.",
			Requirements: Requirements{
				MinRows:    5,
				MinNumeric: 3,
			},
			SelectionRules: []Rule{
				{Condition: "three numeric columns", Weight: 3, Matches: func(mc *MatchContext) bool {
					return len(mc.NumericCols) >= 3
				}},
			},
			Generate: func(mc *MatchContext, data []map[string]interface{}, columns []source.DataColumn, opts Options) (*Spec, error) {
				if len(mc.NumericCols) < 3 {
					return nil, fmt.Errorf("bubble requires three numeric columns")
				}
				spec, err := genNumericPair("bubble")(mc, data, columns, opts)
				if err != nil {
					return nil, err
				}
				spec.Encoding["size"] = Field{Field: mc.NumericCols[2], Type: "quantitative"}
				return spec, nil
			},
		},
		{
			ID:          "connected_scatter",
			Name:        "Connected Scatter Plot",
			Category:    "relationship",
			Description: "Scatter points joined in time order.",
			BestFor:     []string{"how a relationship drifts over time"},
			Requirements: Requirements{
				MinRows:            5,
				MinNumeric:         2,
				RequiresTimeSeries: true,
			},
			SelectionRules: []Rule{
				{Condition: "two measures plus time", Weight: 2, Matches: func(mc *MatchContext) bool {
					return len(mc.NumericCols) >= 2 && mc.HasTimeSeries
				}},
			},
			Generate: func(mc *MatchContext, data []map[string]interface{}, columns []source.DataColumn, opts Options) (*Spec, error) {
				spec, err := genNumericPair("connected_scatter")(mc, data, columns, opts)
				if err != nil {
					return nil, err
				}
				if t := mc.FirstDate(); t != "" {
					spec.Encoding["order"] = Field{Field: t, Type: "temporal"}
				}
				return spec, nil
			},
		},
		{
			ID:          "hexbin",
			Name:        "Hexbin Plot",
			Category:    "relationship",
			Description: "Density of points in hexagonal bins.",
			BestFor:     []string{"large scatters where points overplot"},
			Requirements: Requirements{
				MinRows:    200,
				MinNumeric: 2,
			},
			SelectionRules: []Rule{
				{Condition: "500+ points", Weight: 3, Matches: func(mc *MatchContext) bool {
					return mc.RowCount >= 500
				}},
			},
			Generate: genNumericPair("hexbin"),
		},
		{
			ID:          "correlation_heatmap",
			Name:        "Correlation Heatmap",
			Category:    "relationship",
			Description: "Pairwise correlations of numeric columns.",
			Requirements: Requirements{
				MinRows:    10,
				MinNumeric: 3,
			},
			SelectionRules: []Rule{
				{Condition: "4+ numeric columns", Weight: 2, Matches: func(mc *MatchContext) bool {
					return len(mc.NumericCols) >= 4
				}},
			},
			Generate: func(mc *MatchContext, data []map[string]interface{}, _ []source.DataColumn, _ Options) (*Spec, error) {
				if len(mc.NumericCols) < 3 {
					return nil, fmt.Errorf("correlation_heatmap requires at least three numeric columns")
				}
				return &Spec{
					Pattern:  "correlation_heatmap",
					Title:    "Correlation Matrix",
					Data:     data,
					Encoding: Encoding{},
					Options:  map[string]interface{}{"measures": mc.NumericCols},
				}, nil
			},
		},
		{
			ID:          "parallel_coordinates",
			Name:        "Parallel Coordinates",
			Category:    "relationship",
			Description: "Each row as a polyline across parallel axes.",
			BestFor:     []string{"multivariate profiles"},
			Requirements: Requirements{
				MinRows: 5, MaxRows: 500,
				MinNumeric: 4,
			},
			SelectionRules: []Rule{
				{Condition: "4-10 numeric dimensions", Weight: 2, Matches: func(mc *MatchContext) bool {
					return len(mc.NumericCols) >= 4 && len(mc.NumericCols) <= 10
				}},
			},
			Generate: func(mc *MatchContext, data []map[string]interface{}, _ []source.DataColumn, _ Options) (*Spec, error) {
				if len(mc.NumericCols) < 4 {
					return nil, fmt.Errorf("parallel_coordinates requires at least four numeric columns")
				}
				enc := Encoding{}
				if cat := mc.FirstCategorical(); cat != "" {
					enc["color"] = Field{Field: cat, Type: "nominal"}
				}
				return &Spec{
					Pattern:  "parallel_coordinates",
					Title:    "Parallel Coordinates",
					Data:     data,
					Encoding: enc,
					Options:  map[string]interface{}{"axes": mc.NumericCols},
				}, nil
			},
		},
	}
}
