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

	"go.uber.org/zap"

	"github.com/dolex-labs/dolex/internal/log"
	"github.com/dolex-labs/dolex/pkg/source"
)

// DefaultAlternatives is how many runner-up patterns a selection reports
// when the caller does not ask for a specific count.
const DefaultAlternatives = 3

// Selector scores registry patterns against data and produces a
// recommendation with a generated spec.
type Selector struct {
	registry *Registry
}

// NewSelector creates a selector over the given registry.
func NewSelector(registry *Registry) *Selector {
	return &Selector{registry: registry}
}

type scoredPattern struct {
	pattern *Pattern
	score   int
}

// Select picks the best pattern for the data. Identical inputs always
// produce identical selections.
func (s *Selector) Select(data []map[string]interface{}, columns []source.DataColumn, intent string, opts Options) (*Selection, error) {
	if columns == nil {
		columns = inferFromRows(data)
	}
	parsed, scores := ParseIntent(intent)
	mc := BuildContext(data, columns, parsed)

	ranked := s.rank(mc, opts)

	sel := &Selection{Intent: parsed, Scores: scores}
	if opts.ForcePattern != "" {
		if done := s.force(sel, mc, data, columns, opts); done {
			sel.Alternatives = s.alternatives(ranked, sel.Recommended.PatternID, opts)
			return sel, nil
		}
	}

	if err := s.recommend(sel, ranked, mc, data, columns, opts); err != nil {
		return nil, err
	}
	sel.Alternatives = s.alternatives(ranked, sel.Recommended.PatternID, opts)
	return sel, nil
}

// rank filters candidates for compatibility and sorts them
// deterministically: score, then category-intent agreement, then category
// order, then ID.
func (s *Selector) rank(mc *MatchContext, opts Options) []scoredPattern {
	var ranked []scoredPattern
	for _, p := range s.registry.All() {
		if excluded(p, opts) || !p.Compatible(mc) {
			continue
		}
		ranked = append(ranked, scoredPattern{pattern: p, score: p.Score(mc)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.score != b.score {
			return a.score > b.score
		}
		am, bm := a.pattern.Category == mc.Intent, b.pattern.Category == mc.Intent
		if am != bm {
			return am
		}
		if ca, cb := categoryIndex(a.pattern.Category), categoryIndex(b.pattern.Category); ca != cb {
			return ca < cb
		}
		return a.pattern.ID < b.pattern.ID
	})
	return ranked
}

func excluded(p *Pattern, opts Options) bool {
	for _, id := range opts.ExcludePatterns {
		if id == p.ID {
			return true
		}
	}
	if len(opts.FilterCategories) == 0 {
		return false
	}
	for _, c := range opts.FilterCategories {
		if c == p.Category {
			return false
		}
	}
	return true
}

// force tries to promote the requested pattern. It returns true when the
// promotion succeeded; on failure the caller falls back to normal
// selection and the failure is noted in the recommendation reasoning.
func (s *Selector) force(sel *Selection, mc *MatchContext, data []map[string]interface{}, columns []source.DataColumn, opts Options) bool {
	p, ok := s.registry.Get(opts.ForcePattern)
	if !ok {
		sel.Recommended.Reasoning = fmt.Sprintf("requested pattern %q is not registered; ", opts.ForcePattern)
		return false
	}
	spec, err := p.Generate(mc, data, columns, opts)
	if err != nil {
		sel.Recommended.Reasoning = fmt.Sprintf("requested pattern %q does not fit this data (%v); ", opts.ForcePattern, err)
		return false
	}
	sel.Recommended = Recommendation{
		PatternID: p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Score:     p.Score(mc),
		Reasoning: fmt.Sprintf("pattern %q was explicitly requested", p.ID),
	}
	sel.Spec = spec
	return true
}

// recommend walks the ranked candidates until one generates successfully,
// falling back to the data table when nothing else fits.
func (s *Selector) recommend(sel *Selection, ranked []scoredPattern, mc *MatchContext, data []map[string]interface{}, columns []source.DataColumn, opts Options) error {
	fallbackNote := sel.Recommended.Reasoning
	for _, cand := range ranked {
		spec, err := cand.pattern.Generate(mc, data, columns, opts)
		if err != nil {
			log.Debug("pattern generation failed, trying next",
				zap.String("pattern", cand.pattern.ID), zap.Error(err))
			continue
		}
		sel.Recommended = Recommendation{
			PatternID: cand.pattern.ID,
			Name:      cand.pattern.Name,
			Category:  cand.pattern.Category,
			Score:     cand.score,
			Reasoning: fallbackNote + reasonFor(cand.pattern, mc),
		}
		sel.Spec = spec
		return nil
	}

	// Nothing fit; the table pattern accepts any data.
	table, ok := s.registry.Get("table")
	if !ok {
		return fmt.Errorf("no compatible pattern for this data")
	}
	spec, err := table.Generate(mc, data, columns, opts)
	if err != nil {
		return fmt.Errorf("no compatible pattern for this data: %w", err)
	}
	sel.Recommended = Recommendation{
		PatternID: table.ID,
		Name:      table.Name,
		Category:  table.Category,
		Reasoning: fallbackNote + "no chart pattern fit the data shape, showing a table",
	}
	sel.Spec = spec
	return nil
}

func (s *Selector) alternatives(ranked []scoredPattern, winner string, opts Options) []Recommendation {
	max := opts.MaxAlternatives
	if max <= 0 {
		max = DefaultAlternatives
	}
	var alts []Recommendation
	for _, cand := range ranked {
		if cand.pattern.ID == winner || cand.score <= 0 {
			continue
		}
		alts = append(alts, Recommendation{
			PatternID: cand.pattern.ID,
			Name:      cand.pattern.Name,
			Category:  cand.pattern.Category,
			Score:     cand.score,
		})
		if len(alts) == max {
			break
		}
	}
	return alts
}

// reasonFor names the rules that matched, for the reasoning string.
func reasonFor(p *Pattern, mc *MatchContext) string {
	var matched []string
	for _, rule := range p.SelectionRules {
		if rule.Matches(mc) {
			matched = append(matched, rule.Condition)
		}
	}
	if len(matched) == 0 {
		if p.Category == mc.Intent {
			return fmt.Sprintf("%s matches the %s intent", p.Name, mc.Intent)
		}
		return p.Name + " is compatible with the data shape"
	}
	return p.Name + ": " + strings.Join(matched, "; ")
}

// QuickRecommend returns a pattern ID for the data without generating a
// spec. It never fails: empty or odd data falls back to the table pattern.
func (s *Selector) QuickRecommend(data []map[string]interface{}, columns []source.DataColumn) string {
	if columns == nil {
		columns = inferFromRows(data)
	}
	mc := BuildContext(data, columns, "unknown")
	ranked := s.rank(mc, Options{})
	if len(ranked) == 0 {
		return "table"
	}
	return ranked[0].pattern.ID
}

// inferFromRows types columns for inline data, visiting keys in sorted
// order so inference is deterministic.
func inferFromRows(data []map[string]interface{}) []source.DataColumn {
	if len(data) == 0 {
		return nil
	}
	keys := make([]string, 0, len(data[0]))
	for k := range data[0] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return source.InferColumns(data, keys)
}
