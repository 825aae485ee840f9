package viz

import (
	"reflect"
	"strings"
	"testing"

	"github.com/dolex-labs/dolex/pkg/source"
)

func regionRows() []map[string]interface{} {
	return []map[string]interface{}{
		{"region": "north", "sales": 420.0},
		{"region": "south", "sales": 380.0},
		{"region": "east", "sales": 150.0},
		{"region": "west", "sales": 290.0},
	}
}

func regionColumns(rows []map[string]interface{}) []source.DataColumn {
	return source.InferColumns(rows, []string{"region", "sales"})
}

func stateRows() []map[string]interface{} {
	return []map[string]interface{}{
		{"state": "CA", "population": 39.0},
		{"state": "TX", "population": 30.0},
		{"state": "NY", "population": 19.0},
	}
}

func TestSelectComparisonIntent(t *testing.T) {
	rows := regionRows()
	sel, err := NewSelector(NewRegistry()).Select(rows, regionColumns(rows), "compare sales across regions", Options{})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.Intent != "comparison" {
		t.Errorf("intent = %q, want comparison", sel.Intent)
	}
	if sel.Recommended.PatternID != "bar" {
		t.Errorf("recommended = %q, want bar", sel.Recommended.PatternID)
	}
	if sel.Recommended.Category != "comparison" {
		t.Errorf("category = %q, want comparison", sel.Recommended.Category)
	}
	if sel.Spec == nil {
		t.Fatal("expected a generated spec")
	}
	if got := sel.Spec.Encoding["x"].Field; got != "region" {
		t.Errorf("x field = %q, want region", got)
	}
	if got := sel.Spec.Encoding["y"].Field; got != "sales" {
		t.Errorf("y field = %q, want sales", got)
	}
	if sel.Recommended.Reasoning == "" {
		t.Error("expected a reasoning string")
	}
}

func TestSelectIsDeterministic(t *testing.T) {
	rows := regionRows()
	cols := regionColumns(rows)
	s := NewSelector(NewRegistry())

	first, err := s.Select(rows, cols, "compare sales", Options{})
	if err != nil {
		t.Fatalf("first Select: %v", err)
	}
	second, err := s.Select(rows, cols, "compare sales", Options{})
	if err != nil {
		t.Fatalf("second Select: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("selections differ:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestSelectNeverMutatesData(t *testing.T) {
	rows := stateRows()
	cols := source.InferColumns(rows, []string{"state", "population"})

	sel, err := NewSelector(NewRegistry()).Select(rows, cols, "", Options{ForcePattern: "choropleth"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.Recommended.PatternID != "choropleth" {
		t.Fatalf("recommended = %q, want choropleth", sel.Recommended.PatternID)
	}
	// The spec normalizes abbreviations on a copy.
	if got := sel.Spec.Data[0]["state"]; got != "California" {
		t.Errorf("spec state = %v, want California", got)
	}
	if got := rows[0]["state"]; got != "CA" {
		t.Errorf("input row mutated: state = %v, want CA", got)
	}
}

func TestForcePatternFallsBack(t *testing.T) {
	rows := regionRows()
	sel, err := NewSelector(NewRegistry()).Select(rows, regionColumns(rows), "compare sales", Options{ForcePattern: "choropleth"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.Recommended.PatternID == "choropleth" {
		t.Fatal("choropleth should not generate for non-geographic data")
	}
	if sel.Recommended.PatternID != "bar" {
		t.Errorf("fallback recommended = %q, want bar", sel.Recommended.PatternID)
	}
	if !strings.Contains(sel.Recommended.Reasoning, `"choropleth"`) {
		t.Errorf("reasoning should note the failed request, got %q", sel.Recommended.Reasoning)
	}
}

func TestForceUnknownPatternFallsBack(t *testing.T) {
	rows := regionRows()
	sel, err := NewSelector(NewRegistry()).Select(rows, regionColumns(rows), "", Options{ForcePattern: "nonexistent"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if !strings.Contains(sel.Recommended.Reasoning, "not registered") {
		t.Errorf("reasoning = %q, want a not-registered note", sel.Recommended.Reasoning)
	}
}

func TestFilterCategories(t *testing.T) {
	rows := regionRows()
	sel, err := NewSelector(NewRegistry()).Select(rows, regionColumns(rows), "", Options{FilterCategories: []string{"composition"}})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.Recommended.Category != "composition" {
		t.Errorf("category = %q, want composition", sel.Recommended.Category)
	}
	for _, alt := range sel.Alternatives {
		if alt.Category != "composition" {
			t.Errorf("alternative %q has category %q", alt.PatternID, alt.Category)
		}
	}
}

func TestExcludePatterns(t *testing.T) {
	rows := regionRows()
	sel, err := NewSelector(NewRegistry()).Select(rows, regionColumns(rows), "compare sales", Options{ExcludePatterns: []string{"bar"}})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.Recommended.PatternID == "bar" {
		t.Error("excluded pattern was recommended")
	}
	for _, alt := range sel.Alternatives {
		if alt.PatternID == "bar" {
			t.Error("excluded pattern appears in alternatives")
		}
	}
}

func TestAlternatives(t *testing.T) {
	rows := regionRows()
	sel, err := NewSelector(NewRegistry()).Select(rows, regionColumns(rows), "compare sales", Options{MaxAlternatives: 2})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(sel.Alternatives) > 2 {
		t.Fatalf("got %d alternatives, want at most 2", len(sel.Alternatives))
	}
	for _, alt := range sel.Alternatives {
		if alt.PatternID == sel.Recommended.PatternID {
			t.Error("recommended pattern repeated in alternatives")
		}
		if alt.Score <= 0 {
			t.Errorf("alternative %q has non-positive score %d", alt.PatternID, alt.Score)
		}
	}
}

func TestQuickRecommendEmptyData(t *testing.T) {
	s := NewSelector(NewRegistry())
	if got := s.QuickRecommend(nil, nil); got != "table" {
		t.Errorf("QuickRecommend(nil) = %q, want table", got)
	}
	if got := s.QuickRecommend([]map[string]interface{}{}, nil); got != "table" {
		t.Errorf("QuickRecommend(empty) = %q, want table", got)
	}
}

func TestQuickRecommendInfersColumns(t *testing.T) {
	rows := regionRows()
	got := NewSelector(NewRegistry()).QuickRecommend(rows, nil)
	if got != "bar" {
		t.Errorf("QuickRecommend = %q, want bar", got)
	}
}
