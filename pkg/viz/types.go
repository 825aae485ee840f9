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

// Package viz selects visualization patterns for tabular data. A registry
// of pattern definitions is scored against a match context built from the
// data; the winner's generator produces a renderable spec.
package viz

import (
	"github.com/dolex-labs/dolex/pkg/source"
)

// Field is one encoding channel binding.
type Field struct {
	Field string `json:"field"`
	Type  string `json:"type"` // nominal, quantitative, temporal
}

// Encoding maps channel names (x, y, color, size, theta, source, target,
// lat, lon) to fields.
type Encoding map[string]Field

// Spec is a complete visualization specification: the chosen pattern, a
// title, the data to plot, and the encoding derived from the columns.
type Spec struct {
	Pattern  string                   `json:"pattern"`
	Title    string                   `json:"title"`
	Data     []map[string]interface{} `json:"data"`
	Encoding Encoding                 `json:"encoding"`
	Options  map[string]interface{}   `json:"options,omitempty"`
}

// Requirements gates a pattern on the shape of the data. Zero values mean
// "no constraint"; RowCount must fall within [MinRows, 2*MaxRows].
type Requirements struct {
	MinRows            int  `json:"minRows,omitempty"`
	MaxRows            int  `json:"maxRows,omitempty"`
	MinNumeric         int  `json:"minNumeric,omitempty"`
	MinCategorical     int  `json:"minCategorical,omitempty"`
	MinDate            int  `json:"minDate,omitempty"`
	RequiresTimeSeries bool `json:"requiresTimeSeries,omitempty"`
	RequiresHierarchy  bool `json:"requiresHierarchy,omitempty"`
	MinCategories      int  `json:"minCategories,omitempty"`
	MaxCategories      int  `json:"maxCategories,omitempty"`
}

// Rule is a pure predicate over the match context; its weight adds to the
// pattern's score when it matches.
type Rule struct {
	Condition string
	Weight    int
	Matches   func(*MatchContext) bool
}

// Generator produces a spec for a pattern. Generators never mutate the data
// they receive; normalization happens on copies.
type Generator func(mc *MatchContext, data []map[string]interface{}, columns []source.DataColumn, opts Options) (*Spec, error)

// Pattern is one registered visualization pattern.
type Pattern struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Category       string       `json:"category"`
	Description    string       `json:"description"`
	BestFor        []string     `json:"bestFor,omitempty"`
	NotFor         []string     `json:"notFor,omitempty"`
	Requirements   Requirements `json:"dataRequirements"`
	SelectionRules []Rule       `json:"-"`
	Generate       Generator    `json:"-"`
}

// Options tunes one selection call.
type Options struct {
	ForcePattern     string
	FilterCategories []string
	ExcludePatterns  []string
	MaxAlternatives  int
}

// Recommendation is a scored pattern candidate.
type Recommendation struct {
	PatternID string `json:"pattern"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Selection is the outcome of selecting a pattern for data.
type Selection struct {
	Recommended  Recommendation   `json:"recommended"`
	Alternatives []Recommendation `json:"alternatives"`
	Spec         *Spec            `json:"-"`
	Intent       string           `json:"intent"`
	Scores       map[string]int   `json:"intentScores,omitempty"`
}
