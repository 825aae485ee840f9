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

import "strings"

// CategoryOrder is the deterministic pattern category order used for
// tie-breaking and listing.
var CategoryOrder = []string{
	"comparison", "distribution", "composition",
	"time", "relationship", "flow", "geo",
}

func categoryIndex(category string) int {
	for i, c := range CategoryOrder {
		if c == category {
			return i
		}
	}
	return len(CategoryOrder)
}

type weightedKeyword struct {
	word   string
	weight int
}

// The six primary intents and their keyword families. Weights favor words
// that unambiguously name the intent.
var intentKeywords = map[string][]weightedKeyword{
	"comparison": {
		{"compare", 3}, {"comparison", 3}, {"versus", 2}, {" vs ", 2},
		{"rank", 2}, {"top ", 2}, {"best", 1}, {"worst", 1},
		{"difference", 2}, {"against", 1}, {"highest", 1}, {"lowest", 1},
	},
	"time": {
		{"trend", 3}, {"over time", 3}, {"timeline", 3}, {"growth", 2},
		{"change", 1}, {"history", 2}, {"evolution", 2}, {"forecast", 2},
		{"monthly", 2}, {"yearly", 2}, {"daily", 2}, {"weekly", 2},
	},
	"distribution": {
		{"distribution", 3}, {"spread", 2}, {"histogram", 3},
		{"frequency", 2}, {"outlier", 2}, {"variance", 2}, {"range", 1},
	},
	"composition": {
		{"share", 2}, {"proportion", 3}, {"percentage", 2}, {"breakdown", 3},
		{"composition", 3}, {"makeup", 2}, {"part of", 2}, {"of total", 2},
	},
	"relationship": {
		{"correlation", 3}, {"relationship", 3}, {"scatter", 3},
		{"association", 2}, {"depend", 2}, {"impact", 1}, {"affect", 1},
	},
	"flow": {
		{"flow", 3}, {"funnel", 3}, {"conversion", 2}, {"stage", 2},
		{"pipeline", 2}, {"transfer", 2}, {"waterfall", 3}, {"sankey", 3},
	},
}

// ParseIntent lowercases the intent text and scores the six primary
// intents by keyword matches. The highest-scoring intent wins; ties break
// on category order. With no positive score the intent is "unknown".
func ParseIntent(text string) (string, map[string]int) {
	lower := strings.ToLower(text)
	scores := make(map[string]int, len(intentKeywords))
	for intent, keywords := range intentKeywords {
		score := 0
		for _, kw := range keywords {
			score += strings.Count(lower, kw.word) * kw.weight
		}
		scores[intent] = score
	}

	best, bestScore := "unknown", 0
	for _, intent := range CategoryOrder {
		if score, ok := scores[intent]; ok && score > bestScore {
			best, bestScore = intent, score
		}
	}
	return best, scores
}
