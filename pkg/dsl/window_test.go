package dsl

import (
	"reflect"
	"testing"
)

func numRows(field string, values ...interface{}) []map[string]interface{} {
	rows := make([]map[string]interface{}, len(values))
	for i, v := range values {
		rows[i] = map[string]interface{}{field: v}
	}
	return rows
}

func collect(rows []map[string]interface{}, field string) []interface{} {
	out := make([]interface{}, len(rows))
	for i, r := range rows {
		out[i] = r[field]
	}
	return out
}

func TestLagLead(t *testing.T) {
	rows := numRows("x", 1.0, 2.0, 3.0)
	applyWindow(rows, &SelectItem{Window: "lag", Field: "x", As: "prev", Default: 0.0})
	if got := collect(rows, "prev"); !reflect.DeepEqual(got, []interface{}{0.0, 1.0, 2.0}) {
		t.Errorf("lag = %v", got)
	}
	applyWindow(rows, &SelectItem{Window: "lead", Field: "x", As: "next", Offset: 2})
	if got := collect(rows, "next"); !reflect.DeepEqual(got, []interface{}{3.0, nil, nil}) {
		t.Errorf("lead = %v", got)
	}
}

func TestRankTies(t *testing.T) {
	rows := numRows("x", 10.0, 20.0, 20.0, 30.0)
	order := []OrderClause{{Field: "x"}}
	applyWindow(rows, &SelectItem{Window: "rank", As: "r", OrderBy: order})
	applyWindow(rows, &SelectItem{Window: "dense_rank", As: "d", OrderBy: order})
	applyWindow(rows, &SelectItem{Window: "row_number", As: "n", OrderBy: order})

	if got := collect(rows, "r"); !reflect.DeepEqual(got, []interface{}{1.0, 2.0, 2.0, 4.0}) {
		t.Errorf("rank = %v, want ties sharing with gaps", got)
	}
	if got := collect(rows, "d"); !reflect.DeepEqual(got, []interface{}{1.0, 2.0, 2.0, 3.0}) {
		t.Errorf("dense_rank = %v, want no gaps", got)
	}
	if got := collect(rows, "n"); !reflect.DeepEqual(got, []interface{}{1.0, 2.0, 3.0, 4.0}) {
		t.Errorf("row_number = %v", got)
	}
}

func TestRunningAndPctOfTotal(t *testing.T) {
	rows := numRows("x", 10.0, nil, 30.0)
	applyWindow(rows, &SelectItem{Window: "running_sum", Field: "x", As: "rs"})
	applyWindow(rows, &SelectItem{Window: "running_avg", Field: "x", As: "ra"})
	applyWindow(rows, &SelectItem{Window: "pct_of_total", Field: "x", As: "pct"})

	if got := collect(rows, "rs"); !reflect.DeepEqual(got, []interface{}{10.0, 10.0, 40.0}) {
		t.Errorf("running_sum = %v", got)
	}
	if got := collect(rows, "ra"); !reflect.DeepEqual(got, []interface{}{10.0, 10.0, 20.0}) {
		t.Errorf("running_avg = %v", got)
	}
	if got := collect(rows, "pct"); !reflect.DeepEqual(got, []interface{}{0.25, nil, 0.75}) {
		t.Errorf("pct_of_total = %v", got)
	}
}

func TestWindowPartitions(t *testing.T) {
	rows := []map[string]interface{}{
		{"g": "a", "x": 1.0},
		{"g": "b", "x": 10.0},
		{"g": "a", "x": 2.0},
		{"g": "b", "x": 30.0},
	}
	applyWindow(rows, &SelectItem{Window: "running_sum", Field: "x", As: "rs", PartitionBy: "g"})
	if got := collect(rows, "rs"); !reflect.DeepEqual(got, []interface{}{1.0, 10.0, 3.0, 40.0}) {
		t.Errorf("partitioned running_sum = %v", got)
	}
}

func TestSortRows(t *testing.T) {
	rows := numRows("x", "9", "100", nil, "20")
	sortRows(rows, []OrderClause{{Field: "x"}})
	if got := collect(rows, "x"); !reflect.DeepEqual(got, []interface{}{"9", "20", "100", nil}) {
		t.Errorf("asc = %v, want numeric order with nulls last", got)
	}
	sortRows(rows, []OrderClause{{Field: "x", Direction: "desc"}})
	if got := collect(rows, "x"); !reflect.DeepEqual(got, []interface{}{nil, "100", "20", "9"}) {
		t.Errorf("desc = %v, want nulls first", got)
	}

	rows = numRows("x", "banana", "apple", "10")
	sortRows(rows, []OrderClause{{Field: "x"}})
	if got := collect(rows, "x"); !reflect.DeepEqual(got, []interface{}{"10", "apple", "banana"}) {
		t.Errorf("mixed = %v, want string order when not all numeric", got)
	}
}

func TestBucketValue(t *testing.T) {
	tests := []struct {
		in   string
		unit string
		want string
	}{
		{"2024-01-01", "week", "2024-W01"},
		{"2024-05-10", "quarter", "2024-Q2"},
		{"2024-05-10", "month", "2024-05"},
		{"2024-05-10 14:30:00", "day", "2024-05-10"},
		{"2024-05-10", "year", "2024"},
	}
	for _, tt := range tests {
		if got := BucketValue(tt.in, tt.unit); got != tt.want {
			t.Errorf("BucketValue(%q, %q) = %v, want %q", tt.in, tt.unit, got, tt.want)
		}
	}
	if got := BucketValue("not a date", "month"); got != "not a date" {
		t.Errorf("non-date should pass through, got %v", got)
	}
}

func TestEvalClause(t *testing.T) {
	tests := []struct {
		got    interface{}
		clause Clause
		want   bool
	}{
		{"5", Clause{Op: "=", Value: float64(5)}, true},
		{"5", Clause{Op: "!=", Value: float64(5)}, false},
		{nil, Clause{Op: "="}, false},
		{nil, Clause{Op: "is_null"}, true},
		{"x", Clause{Op: "is_not_null"}, true},
		{float64(7), Clause{Op: "between", Value: []interface{}{float64(5), float64(10)}}, true},
		{float64(11), Clause{Op: "between", Value: []interface{}{float64(5), float64(10)}}, false},
		{"north", Clause{Op: "in", Value: []interface{}{"north", "south"}}, true},
		{"east", Clause{Op: "not_in", Value: []interface{}{"north", "south"}}, true},
		{"North Region", Clause{Op: "like", Value: "north%"}, true},
		{"North Region", Clause{Op: "like", Value: "%region"}, true},
		{"North Region", Clause{Op: "like", Value: "reg%"}, false},
	}
	for _, tt := range tests {
		if got := evalClause(tt.got, &tt.clause); got != tt.want {
			t.Errorf("evalClause(%v, %s %v) = %v, want %v", tt.got, tt.clause.Op, tt.clause.Value, got, tt.want)
		}
	}
}
