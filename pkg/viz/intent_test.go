package viz

import "testing"

func TestParseIntent(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"compare sales across regions", "comparison"},
		{"top 10 products by revenue", "comparison"},
		{"show the trend over time", "time"},
		{"monthly revenue growth", "time"},
		{"distribution of order values", "distribution"},
		{"histogram of ages", "distribution"},
		{"revenue breakdown by category", "composition"},
		{"share of total spend", "composition"},
		{"correlation between price and rating", "relationship"},
		{"scatter of height vs weight", "relationship"},
		{"conversion funnel by stage", "flow"},
		{"customer flow between plans", "flow"},
		{"", "unknown"},
		{"show me the data", "unknown"},
		// Equal scores break on category order: comparison before time.
		{"compare trend", "comparison"},
	}
	for _, tt := range tests {
		got, scores := ParseIntent(tt.text)
		if got != tt.want {
			t.Errorf("ParseIntent(%q) = %q, want %q (scores %v)", tt.text, got, tt.want, scores)
		}
	}
}

func TestParseIntentScores(t *testing.T) {
	_, scores := ParseIntent("compare the conversion funnel")
	if scores["comparison"] == 0 {
		t.Error("expected a comparison score")
	}
	if scores["flow"] <= scores["comparison"] {
		t.Errorf("flow (%d) should outscore comparison (%d)", scores["flow"], scores["comparison"])
	}
}
