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
	"sort"
	"strings"
)

// Registry holds every pattern keyed by ID, iterable in deterministic
// category-then-ID order.
type Registry struct {
	byID    map[string]*Pattern
	ordered []*Pattern
}

// NewRegistry builds the full pattern registry.
func NewRegistry() *Registry {
	r := &Registry{byID: make(map[string]*Pattern)}
	for _, group := range [][]*Pattern{
		comparisonPatterns(),
		distributionPatterns(),
		compositionPatterns(),
		timePatterns(),
		relationshipPatterns(),
		flowPatterns(),
		geoPatterns(),
	} {
		for _, p := range group {
			r.register(p)
		}
	}
	sort.SliceStable(r.ordered, func(i, j int) bool {
		a, b := r.ordered[i], r.ordered[j]
		if ca, cb := categoryIndex(a.Category), categoryIndex(b.Category); ca != cb {
			return ca < cb
		}
		return a.ID < b.ID
	})
	return r
}

func (r *Registry) register(p *Pattern) {
	if _, exists := r.byID[p.ID]; exists {
		panic(fmt.Sprintf("duplicate pattern %q", p.ID))
	}
	r.byID[p.ID] = p
	r.ordered = append(r.ordered, p)
}

// Get looks a pattern up by ID.
func (r *Registry) Get(id string) (*Pattern, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// All returns every pattern in category-then-ID order.
func (r *Registry) All() []*Pattern {
	out := make([]*Pattern, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Len reports the number of registered patterns.
func (r *Registry) Len() int { return len(r.ordered) }

// Compatible checks a pattern's requirements against the context. Row
// count must fall within [MinRows, 2*MaxRows]; column-type minimums, the
// time-series/hierarchy flags, and category bounds must hold.
func (p *Pattern) Compatible(mc *MatchContext) bool {
	req := p.Requirements
	if mc.RowCount < req.MinRows {
		return false
	}
	if req.MaxRows > 0 && mc.RowCount > 2*req.MaxRows {
		return false
	}
	if len(mc.NumericCols) < req.MinNumeric {
		return false
	}
	if len(mc.CategoricalCols) < req.MinCategorical {
		return false
	}
	if len(mc.DateCols) < req.MinDate {
		return false
	}
	if req.RequiresTimeSeries && !mc.HasTimeSeries {
		return false
	}
	if req.RequiresHierarchy && !mc.HasHierarchy {
		return false
	}
	if req.MinCategories > 0 && mc.CategoryCount < req.MinCategories {
		return false
	}
	if req.MaxCategories > 0 && mc.CategoryCount > req.MaxCategories {
		return false
	}
	return true
}

// Score sums the weights of matching rules plus a bias when the pattern's
// category agrees with the detected intent.
func (p *Pattern) Score(mc *MatchContext) int {
	score := 0
	for _, rule := range p.SelectionRules {
		if rule.Matches(mc) {
			score += rule.Weight
		}
	}
	if p.Category == mc.Intent {
		score += 2
	}
	return score
}

// titleCase capitalizes words in a column name for chart titles.
func titleCase(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// byTitle builds the standard "<Y> by <X>" chart title.
func byTitle(y, x string) string {
	if y == "" || x == "" {
		return titleCase(y + x)
	}
	return titleCase(y) + " by " + titleCase(x)
}
