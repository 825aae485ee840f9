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

func timePatterns() []*Pattern {
	return []*Pattern{
		{
			ID:          "line",
			Name:        "Line Chart",
			Category:    "time",
			Description: "Values connected over time.",
			BestFor:     []string{"trends and change over time"},
			Requirements: Requirements{
				MinRows:            3,
				MinNumeric:         1,
				RequiresTimeSeries: true,
			},
			SelectionRules: []Rule{
				{Condition: "time column with enough points", Weight: 3, Matches: func(mc *MatchContext) bool {
					return mc.HasTimeSeries && mc.RowCount >= 3
				}},
				{Condition: "time-oriented intent", Weight: 1, Matches: func(mc *MatchContext) bool {
					return mc.Intent == "time"
				}},
			},
			Generate: genTimeValue("line"),
		},
		{
			ID:          "area",
			Name:        "Area Chart",
			Category:    "time",
			Description: "Line with the area below filled.",
			BestFor:     []string{"cumulative magnitude over time"},
			Requirements: Requirements{
				MinRows:            3,
				MinNumeric:         1,
				RequiresTimeSeries: true,
			},
			SelectionRules: []Rule{
				{Condition: "non-negative single series", Weight: 2, Matches: func(mc *MatchContext) bool {
					return !mc.HasNegative && mc.SeriesCount == 0
				}},
			},
			Generate: genTimeValue("area"),
		},
		{
			ID:          "stacked_area",
			Name:        "Stacked Area Chart",
			Category:    "time",
			Description: "Series stacked to show the total and its parts.",
			Requirements: Requirements{
				MinRows:            6,
				MinNumeric:         1,
				MinCategorical:     1,
				RequiresTimeSeries: true,
			},
			SelectionRules: []Rule{
				{Condition: "2-6 series", Weight: 3, Matches: func(mc *MatchContext) bool {
					return mc.SeriesCount >= 2 && mc.SeriesCount <= 6 && !mc.HasNegative
				}},
			},
			Generate: genTimeValue("stacked_area"),
		},
		{
			ID:          "stream",
			Name:        "Streamgraph",
			Category:    "time",
			Description: "Stacked areas around a shifting baseline.",
			BestFor:     []string{"organic series ebbing over long ranges"},
			Requirements: Requirements{
				MinRows:            50,
				MinNumeric:         1,
				MinCategorical:     1,
				RequiresTimeSeries: true,
			},
			SelectionRules: []Rule{
				{Condition: "many series over many points", Weight: 2, Matches: func(mc *MatchContext) bool {
					return mc.SeriesCount >= 3 && mc.RowCount >= 100
				}},
			},
			Generate: genTimeValue("stream"),
		},
		{
			ID:          "slope",
			Name:        "Slope Chart",
			Category:    "time",
			Description: "Two time points joined by sloped lines.",
			BestFor:     []string{"before/after comparisons"},
			Requirements: Requirements{
				MinRows: 2, MaxRows: 60,
				MinNumeric:         1,
				MinCategorical:     1,
				RequiresTimeSeries: true,
			},
			SelectionRules: []Rule{
				{Condition: "exactly two periods", Weight: 4, Matches: func(mc *MatchContext) bool {
					return len(mc.DateCols) > 0 && periodCount(mc) == 2
				}},
			},
			Generate: genTimeValue("slope"),
		},
		{
			ID:          "sparkline",
			Name:        "Sparkline",
			Category:    "time",
			Description: "Tiny inline trend line without axes.",
			Requirements: Requirements{
				MinRows:            5,
				MinNumeric:         1,
				RequiresTimeSeries: true,
			},
			SelectionRules: []Rule{
				{Condition: "compact trend context", Weight: 1, Matches: func(mc *MatchContext) bool {
					return mc.RowCount >= 10
				}},
			},
			Generate: genTimeValue("sparkline"),
		},
		{
			ID:          "calendar_heatmap",
			Name:        "Calendar Heatmap",
			Category:    "time",
			Description: "Daily values on a calendar grid.",
			BestFor:     []string{"daily activity over months"},
			Requirements: Requirements{
				MinRows:            60,
				MinNumeric:         1,
				MinDate:            1,
				RequiresTimeSeries: true,
			},
			SelectionRules: []Rule{
				{Condition: "roughly daily granularity", Weight: 3, Matches: func(mc *MatchContext) bool {
					return mc.RowCount >= 90
				}},
			},
			Generate: func(mc *MatchContext, data []map[string]interface{}, _ []source.DataColumn, _ Options) (*Spec, error) {
				x, y := mc.FirstDate(), mc.FirstNumeric()
				if x == "" || y == "" {
					return nil, fmt.Errorf("calendar_heatmap requires a date column and a numeric column")
				}
				return &Spec{
					Pattern: "calendar_heatmap",
					Title:   byTitle(y, x),
					Data:    data,
					Encoding: Encoding{
						"x":     {Field: x, Type: "temporal"},
						"color": {Field: y, Type: "quantitative"},
					},
				}, nil
			},
		},
		{
			ID:          "range_area",
			Name:        "Range Area Chart",
			Category:    "time",
			Description: "A band between low and high bounds over time.",
			BestFor:     []string{"min/max or confidence bands"},
			Requirements: Requirements{
				MinRows:            5,
				MinNumeric:         2,
				RequiresTimeSeries: true,
			},
			SelectionRules: []Rule{
				{Condition: "paired bound columns", Weight: 2, Matches: func(mc *MatchContext) bool {
					return len(mc.NumericCols) >= 2
				}},
			},
			Generate: func(mc *MatchContext, data []map[string]interface{}, _ []source.DataColumn, _ Options) (*Spec, error) {
				x := mc.FirstDate()
				if x == "" || len(mc.NumericCols) < 2 {
					return nil, fmt.Errorf("range_area requires a date column and two numeric columns")
				}
				return &Spec{
					Pattern: "range_area",
					Title:   byTitle(mc.NumericCols[0], x),
					Data:    data,
					Encoding: Encoding{
						"x":  {Field: x, Type: "temporal"},
						"y":  {Field: mc.NumericCols[0], Type: "quantitative"},
						"y2": {Field: mc.NumericCols[1], Type: "quantitative"},
					},
				}, nil
			},
		},
	}
}

// periodCount counts distinct values of the first date column.
func periodCount(mc *MatchContext) int {
	for _, col := range mc.Columns {
		if col.Name == mc.DateCols[0] {
			return col.UniqueCount
		}
	}
	return 0
}
