package dsl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dolex-labs/dolex/pkg/source"
)

// loadFixture builds a CSV-backed source from the given files.
func loadFixture(t *testing.T, files map[string]string) source.ConnectedSource {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0600))
	}
	conn, err := source.CSVConnector{}.Connect(context.Background(), map[string]interface{}{"path": dir})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func fixtureSchema(t *testing.T, conn source.ConnectedSource) Schema {
	t.Helper()
	ds, err := conn.Schema(context.Background())
	require.NoError(t, err)
	schema := Schema{}
	for _, table := range ds.Tables {
		schema[table.Name] = table.ColumnNames()
	}
	return schema
}

const salesCSV = "region,amount,day\n" +
	"north,100,2024-01-05\n" +
	"north,200,2024-01-20\n" +
	"south,50,2024-02-02\n" +
	"south,150,2024-02-14\n" +
	"east,300,2024-03-01\n"

func TestExecutePushdown(t *testing.T) {
	conn := loadFixture(t, map[string]string{"sales.csv": salesCSV})
	schema := fixtureSchema(t, conn)
	e := NewExecutor(SQLite)

	q := &Query{
		Select: []SelectItem{
			{Field: "region"},
			{Field: "amount", Aggregate: "sum", As: "total"},
		},
		GroupBy: []GroupItem{{Field: "region"}},
		OrderBy: []OrderClause{{Field: "total", Direction: "desc"}, {Field: "region"}},
	}
	res, err := e.Execute(context.Background(), conn, "sales", q, schema)
	require.NoError(t, err)
	assert.True(t, res.Pushdown)
	assert.Equal(t, []string{"region", "total"}, res.Columns)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "east", res.Rows[0]["region"])
	assert.Equal(t, 300.0, res.Rows[0]["total"])
	assert.Equal(t, "north", res.Rows[1]["region"])
	assert.Equal(t, 300.0, res.Rows[1]["total"])
	assert.Equal(t, "south", res.Rows[2]["region"])
	assert.Equal(t, 200.0, res.Rows[2]["total"])
}

// Scenario: aggregate over a join, ordered and limited.
func TestExecuteJoinAggregate(t *testing.T) {
	conn := loadFixture(t, map[string]string{
		"orders.csv": "order_id,product_id,price\n" +
			"1,10,5\n2,10,7\n3,11,20\n4,12,1\n5,11,30\n6,13,2\n",
		"products.csv": "product_id,product_category_name\n" +
			"10,toys\n11,garden\n12,office\n13,office\n",
	})
	schema := fixtureSchema(t, conn)
	e := NewExecutor(SQLite)

	q := &Query{
		Join: []Join{{Table: "products", On: JoinOn{Left: "product_id", Right: "product_id"}}},
		Select: []SelectItem{
			{Field: "products.product_category_name"},
			{Field: "price", Aggregate: "sum", As: "revenue"},
		},
		GroupBy: []GroupItem{{Field: "products.product_category_name"}},
		OrderBy: []OrderClause{{Field: "revenue", Direction: "desc"}},
		Limit:   3,
	}
	res, err := e.Execute(context.Background(), conn, "orders", q, schema)
	require.NoError(t, err)
	assert.Equal(t, []string{"products.product_category_name", "revenue"}, res.Columns)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "garden", res.Rows[0]["products.product_category_name"])
	assert.Equal(t, 50.0, res.Rows[0]["revenue"])
	assert.Equal(t, "toys", res.Rows[1]["products.product_category_name"])
	assert.Equal(t, 12.0, res.Rows[1]["revenue"])
	assert.Equal(t, "office", res.Rows[2]["products.product_category_name"])
	assert.Equal(t, 3.0, res.Rows[2]["revenue"])
}

func TestExecuteHybridMedian(t *testing.T) {
	conn := loadFixture(t, map[string]string{"sales.csv": salesCSV})
	schema := fixtureSchema(t, conn)
	e := NewExecutor(SQLite)

	q := &Query{
		Select: []SelectItem{
			{Field: "region"},
			{Field: "amount", Aggregate: "median", As: "mid"},
		},
		GroupBy: []GroupItem{{Field: "region"}},
		OrderBy: []OrderClause{{Field: "region"}},
	}
	res, err := e.Execute(context.Background(), conn, "sales", q, schema)
	require.NoError(t, err)
	assert.False(t, res.Pushdown, "median must force the in-process path")
	require.Len(t, res.Rows, 3)
	assert.Equal(t, 300.0, res.Rows[0]["mid"]) // east
	assert.Equal(t, 150.0, res.Rows[1]["mid"]) // north
	assert.Equal(t, 100.0, res.Rows[2]["mid"]) // south
}

func TestExecuteHybridBucketAndHaving(t *testing.T) {
	conn := loadFixture(t, map[string]string{"sales.csv": salesCSV})
	schema := fixtureSchema(t, conn)
	e := NewExecutor(SQLite)

	// quarter has no strftime form, so bucketing runs in-process.
	q := &Query{
		Select: []SelectItem{
			{Field: "day"},
			{Field: "amount", Aggregate: "sum", As: "total"},
		},
		GroupBy: []GroupItem{{Field: "day", Bucket: "quarter"}},
	}
	res, err := e.Execute(context.Background(), conn, "sales", q, schema)
	require.NoError(t, err)
	assert.False(t, res.Pushdown)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "2024-Q1", res.Rows[0]["day"])
	assert.Equal(t, 800.0, res.Rows[0]["total"])

	q.GroupBy = []GroupItem{{Field: "day", Bucket: "month"}}
	q.Having = []Clause{{Field: "total", Op: ">", Value: float64(250)}}
	q.Select[1].Aggregate = "median" // force the split so having runs in-process
	q.Select[1].As = "total"
	res, err = e.Execute(context.Background(), conn, "sales", q, schema)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1, "only March's median of 300 exceeds 250")
	assert.Equal(t, "2024-03", res.Rows[0]["day"])
	assert.Equal(t, 300.0, res.Rows[0]["total"])
}

func TestExecuteWindowAfterAggregation(t *testing.T) {
	conn := loadFixture(t, map[string]string{"sales.csv": salesCSV})
	schema := fixtureSchema(t, conn)
	e := NewExecutor(SQLite)

	q := &Query{
		Select: []SelectItem{
			{Field: "region"},
			{Field: "amount", Aggregate: "sum", As: "total"},
			{Window: "rank", As: "r", OrderBy: []OrderClause{{Field: "total", Direction: "desc"}}},
		},
		GroupBy: []GroupItem{{Field: "region"}},
		OrderBy: []OrderClause{{Field: "r"}},
	}
	res, err := e.Execute(context.Background(), conn, "sales", q, schema)
	require.NoError(t, err)
	assert.False(t, res.Pushdown, "windows over aggregates run in-process")
	require.Len(t, res.Rows, 3)
	// east and north tie at 300 and share rank 1; south gets rank 3.
	assert.Equal(t, 1.0, res.Rows[0]["r"])
	assert.Equal(t, 1.0, res.Rows[1]["r"])
	assert.Equal(t, 3.0, res.Rows[2]["r"])
}

// For a pushdown-safe query, forcing the split must produce the same rows
// and columns as the compiled SQL.
func TestHybridMatchesPushdown(t *testing.T) {
	conn := loadFixture(t, map[string]string{"sales.csv": salesCSV})
	schema := fixtureSchema(t, conn)

	q := &Query{
		Select: []SelectItem{
			{Field: "region"},
			{Field: "amount", Aggregate: "sum", As: "total"},
			{Field: "amount", Aggregate: "count", As: "n"},
		},
		Filter:  []Clause{{Field: "amount", Op: ">=", Value: float64(100)}},
		GroupBy: []GroupItem{{Field: "region"}},
		OrderBy: []OrderClause{{Field: "total", Direction: "desc"}, {Field: "region"}},
		Limit:   10,
	}

	pushed, err := NewExecutor(SQLite).Execute(context.Background(), conn, "sales", q, schema)
	require.NoError(t, err)
	require.True(t, pushed.Pushdown)

	// A dialect with no native aggregates forces the full in-process path.
	bare := &Dialect{Name: "sqlite", aggregates: map[string]bool{}, windows: map[string]bool{}, buckets: map[string]bool{}}
	hybrid, err := NewExecutor(bare).Execute(context.Background(), conn, "sales", q, schema)
	require.NoError(t, err)
	require.False(t, hybrid.Pushdown)

	assert.Equal(t, pushed.Columns, hybrid.Columns)
	require.Equal(t, len(pushed.Rows), len(hybrid.Rows))
	for i := range pushed.Rows {
		assert.Equal(t, pushed.Rows[i]["region"], hybrid.Rows[i]["region"], "row %d", i)
		assert.InDelta(t, pushed.Rows[i]["total"].(float64), hybrid.Rows[i]["total"].(float64), 1e-9, "row %d", i)
		assert.InDelta(t, pushed.Rows[i]["n"].(float64), hybrid.Rows[i]["n"].(float64), 1e-9, "row %d", i)
	}
}

func TestExecuteLimitAndTruncation(t *testing.T) {
	conn := loadFixture(t, map[string]string{"sales.csv": salesCSV})
	schema := fixtureSchema(t, conn)
	e := NewExecutor(SQLite)

	q := &Query{
		Select: []SelectItem{
			{Field: "region"},
			{Field: "amount", Aggregate: "median", As: "mid"},
		},
		GroupBy: []GroupItem{{Field: "region"}},
		Limit:   2,
	}
	res, err := e.Execute(context.Background(), conn, "sales", q, schema)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)
	assert.True(t, res.Truncated)
}

type stubRunner struct {
	result *source.QueryResult
}

func (s *stubRunner) Query(_ context.Context, _ string) (*source.QueryResult, error) {
	return s.result, nil
}

func TestExecuteCancellation(t *testing.T) {
	runner := &stubRunner{result: &source.QueryResult{
		Columns: []string{"region", "amount"},
		Rows: []map[string]interface{}{
			{"region": "north", "amount": 1.0},
		},
	}}
	q := &Query{
		Select: []SelectItem{
			{Field: "region"},
			{Field: "amount", Aggregate: "median", As: "mid"},
		},
		GroupBy: []GroupItem{{Field: "region"}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewExecutor(SQLite).Execute(ctx, runner, "sales", q, nil)
	require.ErrorIs(t, err, context.Canceled)
}
