package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evalExpr(t *testing.T, expr string, rows []map[string]interface{}, columns []string, opts EvalOptions) *EvalResult {
	t.Helper()
	node, err := Parse(expr)
	require.NoError(t, err)
	result, err := Evaluate(context.Background(), node, rows, columns, opts)
	require.NoError(t, err)
	return result
}

func numericRows(values ...float64) ([]map[string]interface{}, []string) {
	rows := make([]map[string]interface{}, len(values))
	for i, v := range values {
		rows[i] = map[string]interface{}{"x": v}
	}
	return rows, []string{"x"}
}

func TestEvaluateArithmetic(t *testing.T) {
	rows, cols := numericRows(1, 2, 3)
	result := evalExpr(t, "x * 2 + 1", rows, cols, EvalOptions{})

	assert.Equal(t, []interface{}{3.0, 5.0, 7.0}, result.Values)
	assert.Equal(t, "numeric", result.Type)
	assert.Equal(t, 3, result.Stats.Count)
	require.NotNil(t, result.Stats.Min)
	assert.Equal(t, 3.0, *result.Stats.Min)
	assert.Equal(t, 7.0, *result.Stats.Max)
}

func TestEvaluateNullPropagation(t *testing.T) {
	rows := []map[string]interface{}{
		{"x": 4.0},
		{"x": nil},
		{"x": -1.0},
		{"x": 0.0},
	}
	cols := []string{"x"}

	tests := []struct {
		expr string
		want []interface{}
	}{
		{"sqrt(x)", []interface{}{2.0, nil, nil, 0.0}},
		{"log(x)", []interface{}{1.3862943611198906, nil, nil, nil}},
		{"x / 0", []interface{}{nil, nil, nil, nil}},
		{"x + 1", []interface{}{5.0, nil, 0.0, 1.0}},
	}
	for _, tt := range tests {
		result := evalExpr(t, tt.expr, rows, cols, EvalOptions{})
		assert.Equal(t, tt.want, result.Values, "expr %q", tt.expr)
	}
}

func TestEvaluateStringFunctions(t *testing.T) {
	rows := []map[string]interface{}{
		{"name": "  Alice  "},
		{"name": "bob"},
		{"name": nil},
	}
	cols := []string{"name"}

	result := evalExpr(t, "upper(trim(name))", rows, cols, EvalOptions{})
	assert.Equal(t, []interface{}{"ALICE", "BOB", nil}, result.Values)
	assert.Equal(t, "categorical", result.Type)

	result = evalExpr(t, "concat(name, '!')", rows, cols, EvalOptions{})
	assert.Equal(t, "  Alice  !", result.Values[0])
	assert.Equal(t, "!", result.Values[2]) // null contributes ""
}

func TestEvaluateDatePart(t *testing.T) {
	rows := []map[string]interface{}{
		{"d": "2024-03-15"},
		{"d": "2024-03-15T10:30:00"},
		{"d": "not a date"},
	}
	cols := []string{"d"}

	result := evalExpr(t, "date_part(d, 'year')", rows, cols, EvalOptions{})
	assert.Equal(t, []interface{}{2024.0, 2024.0, nil}, result.Values)

	result = evalExpr(t, "date_part(d, 'weekday')", rows, cols, EvalOptions{})
	assert.Equal(t, 5.0, result.Values[0]) // 2024-03-15 is a Friday
}

func TestEvaluateConditionals(t *testing.T) {
	rows, cols := numericRows(10, 50, 90)

	result := evalExpr(t, "if_else(x >= 50, 'high', 'low')", rows, cols, EvalOptions{})
	assert.Equal(t, []interface{}{"low", "high", "high"}, result.Values)
	assert.Equal(t, "categorical", result.Type)

	result = evalExpr(t, "recode(x, 10, 'ten', 50, 'fifty', 'other')", rows, cols, EvalOptions{})
	assert.Equal(t, []interface{}{"ten", "fifty", "other"}, result.Values)

	result = evalExpr(t, "cut(x, [0, 50, 100], ['lower', 'upper'])", rows, cols, EvalOptions{})
	assert.Equal(t, []interface{}{"lower", "upper", "upper"}, result.Values)
}

func TestEvaluateCutHalfOpenBins(t *testing.T) {
	rows, cols := numericRows(0, 50, 100)
	result := evalExpr(t, "cut(x, [0, 50, 100], ['a', 'b'])", rows, cols, EvalOptions{})
	// [0,50) and [50,100): the upper edge falls outside every bin.
	assert.Equal(t, []interface{}{"a", "b", nil}, result.Values)
}

func TestEvaluateColumnWise(t *testing.T) {
	rows, cols := numericRows(1, 2, 3, 4)

	result := evalExpr(t, "zscore(x)", rows, cols, EvalOptions{})
	require.Len(t, result.Values, 4)
	lo := result.Values[0].(float64)
	hi := result.Values[3].(float64)
	assert.InDelta(t, -hi, lo, 1e-9, "zscore should be symmetric")

	result = evalExpr(t, "x - col_mean(x)", rows, cols, EvalOptions{})
	assert.Equal(t, []interface{}{-1.5, -0.5, 0.5, 1.5}, result.Values)

	result = evalExpr(t, "center(x)", rows, cols, EvalOptions{})
	assert.Equal(t, []interface{}{-1.5, -0.5, 0.5, 1.5}, result.Values)
}

func TestEvaluateRankSemantics(t *testing.T) {
	rows, cols := numericRows(30, 10, 30, 20)

	// Dense, 1-based.
	result := evalExpr(t, "rank(x)", rows, cols, EvalOptions{})
	assert.Equal(t, []interface{}{3.0, 1.0, 3.0, 2.0}, result.Values)

	// count-below / (n-1)
	result = evalExpr(t, "percentile_rank(x)", rows, cols, EvalOptions{})
	assert.Equal(t, []interface{}{2.0 / 3.0, 0.0, 2.0 / 3.0, 1.0 / 3.0}, result.Values)
}

func TestEvaluateNtile(t *testing.T) {
	rows, cols := numericRows(5, 1, 3, 2, 4)
	result := evalExpr(t, "ntile(x, 2)", rows, cols, EvalOptions{})
	// Bucket is floor(pos*n/len)+1 over sort order 1,2,3,4,5; the last
	// bucket absorbs the remainder.
	assert.Equal(t, []interface{}{2.0, 1.0, 1.0, 1.0, 2.0}, result.Values)
}

func TestEvaluatePartitioned(t *testing.T) {
	rows := []map[string]interface{}{
		{"g": "a", "x": 1.0},
		{"g": "a", "x": 3.0},
		{"g": "b", "x": 10.0},
		{"g": "b", "x": 30.0},
	}
	cols := []string{"g", "x"}

	result := evalExpr(t, "x - col_mean(x)", rows, cols, EvalOptions{PartitionBy: "g"})
	assert.Equal(t, []interface{}{-1.0, 1.0, -10.0, 10.0}, result.Values)
}

func TestEvaluateRowAggregations(t *testing.T) {
	rows := []map[string]interface{}{
		{"a": 1.0, "b": 2.0, "c": nil},
		{"a": nil, "b": nil, "c": nil},
	}
	cols := []string{"a", "b", "c"}

	result := evalExpr(t, "row_mean(a, b, c)", rows, cols, EvalOptions{})
	assert.Equal(t, []interface{}{1.5, nil}, result.Values)

	result = evalExpr(t, "row_sum(a, b, c)", rows, cols, EvalOptions{})
	assert.Equal(t, []interface{}{3.0, nil}, result.Values)
}

func TestEvaluateFilter(t *testing.T) {
	rows := []map[string]interface{}{
		{"region": "N", "x": 1.0},
		{"region": "S", "x": 2.0},
		{"region": "N", "x": 3.0},
	}
	cols := []string{"region", "x"}

	result := evalExpr(t, "x * 10", rows, cols, EvalOptions{
		Filter: &Filter{Field: "region", Op: "=", Value: "N"},
	})
	assert.Equal(t, []interface{}{10.0, nil, 30.0}, result.Values)
	// The filtered-out row is not a null for statistics purposes.
	assert.Equal(t, 2, result.Stats.Count)
	assert.Equal(t, 0, result.Stats.Nulls)
}

func TestEvaluateWarnings(t *testing.T) {
	rows := []map[string]interface{}{
		{"x": "a"}, {"x": "b"}, {"x": "c"},
	}
	cols := []string{"x"}

	result := evalExpr(t, "x + 1", rows, cols, EvalOptions{})
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "all computed values are null")

	result = evalExpr(t, "1 + 1", rows, cols, EvalOptions{})
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "constant")
}

func TestEvaluateUnknownColumn(t *testing.T) {
	rows, cols := numericRows(1)
	node, err := Parse("scor + 1")
	require.NoError(t, err)
	rows[0]["score"] = 5.0
	_, err = Evaluate(context.Background(), node, rows, append(cols, "score"), EvalOptions{})
	require.Error(t, err)
	var uce *UnknownColumnError
	require.ErrorAs(t, err, &uce)
	assert.Equal(t, "scor", uce.Column)
	assert.Equal(t, "score", uce.Suggestion)
}

func TestEvaluateCancellation(t *testing.T) {
	rows, cols := numericRows(1, 2, 3)
	node, err := Parse("x + 1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Evaluate(ctx, node, rows, cols, EvalOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
