package source

import "testing"

func TestInferType(t *testing.T) {
	tests := []struct {
		name        string
		colName     string
		samples     []string
		uniqueCount int
		totalCount  int
		want        string
	}{
		{"id exact high cardinality", "id", []string{"1", "2", "3"}, 98, 100, TypeID},
		{"id exact low cardinality", "id", []string{"1", "2"}, 2, 100, TypeNumeric},
		{"underscore id suffix", "customer_id", []string{"c1", "c2"}, 50, 100, TypeID},
		{"plain id suffix unique", "orderid", []string{"a", "b"}, 80, 100, TypeID},
		{"plain id suffix repetitive", "grid", []string{"a", "b"}, 3, 100, TypeCategorical},
		{"date by name", "created_date", []string{"x"}, 5, 10, TypeDate},
		{"timestamp by name", "event_timestamp", []string{"x"}, 5, 10, TypeDate},
		{"date by samples", "col", []string{"2024-01-15", "2024-02-20"}, 2, 10, TypeDate},
		{"quarter samples", "col", []string{"2024-Q1", "2024-Q2"}, 2, 10, TypeDate},
		{"week samples", "col", []string{"2024-W01", "2024-W02"}, 2, 10, TypeDate},
		{"numeric majority", "value", []string{"1", "2.5", "3", "x"}, 4, 10, TypeNumeric},
		{"categorical", "region", []string{"north", "south"}, 2, 100, TypeCategorical},
		{"long text", "description", []string{longSample(150)}, 1, 10, TypeText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferType(tt.colName, tt.samples, tt.uniqueCount, tt.totalCount)
			if got != tt.want {
				t.Errorf("InferType(%q) = %q, want %q", tt.colName, got, tt.want)
			}
		})
	}
}

func longSample(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = 'a'
	}
	return string(b)
}

func TestLooksLikeYear(t *testing.T) {
	if !LooksLikeYear("cohort_year", []string{"2019", "2020", "2021"}, 3) {
		t.Error("year-named integer column in range should look like a year")
	}
	if LooksLikeYear("amount", []string{"2019", "2020"}, 2) {
		t.Error("non-year name should not look like a year")
	}
	if LooksLikeYear("year", []string{"19", "20"}, 2) {
		t.Error("values outside [1900,2100] should not look like a year")
	}
	if LooksLikeYear("year", []string{"2020"}, 1) {
		t.Error("a single distinct value should not look like a year")
	}
}

func TestInferColumnsYearBecomesDate(t *testing.T) {
	rows := []map[string]interface{}{
		{"year": "2019", "sales": "10"},
		{"year": "2020", "sales": "20"},
		{"year": "2021", "sales": "30"},
	}
	cols := InferColumns(rows, []string{"year", "sales"})
	if cols[0].Type != TypeDate {
		t.Errorf("year column inferred as %q, want date", cols[0].Type)
	}
	if cols[1].Type != TypeNumeric {
		t.Errorf("sales column inferred as %q, want numeric", cols[1].Type)
	}
}

func TestInferColumnsCountsNulls(t *testing.T) {
	rows := []map[string]interface{}{
		{"v": "a"},
		{"v": nil},
		{"v": ""},
	}
	cols := InferColumns(rows, []string{"v"})
	if cols[0].NullCount != 2 {
		t.Errorf("NullCount = %d, want 2", cols[0].NullCount)
	}
	if cols[0].TotalCount != 3 {
		t.Errorf("TotalCount = %d, want 3", cols[0].TotalCount)
	}
}
