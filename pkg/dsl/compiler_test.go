package dsl

import (
	"encoding/json"
	"strings"
	"testing"
)

func salesSchema() Schema {
	return Schema{
		"sales": {"region", "amount", "month"},
	}
}

func shopSchema() Schema {
	return Schema{
		"orders":   {"order_id", "product_id", "price"},
		"products": {"product_id", "product_category_name"},
	}
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name   string
		table  string
		schema Schema
		query  Query
		want   string
	}{
		{
			name:   "group and filter",
			table:  "sales",
			schema: salesSchema(),
			query: Query{
				Select: []SelectItem{
					{Field: "region"},
					{Field: "amount", Aggregate: "sum", As: "revenue"},
				},
				Filter:  []Clause{{Field: "amount", Op: ">", Value: float64(100)}},
				GroupBy: []GroupItem{{Field: "region"}},
			},
			want: `SELECT "sales"."region" AS "region", SUM("sales"."amount") AS "revenue" FROM "sales" WHERE "sales"."amount" > 100 GROUP BY "sales"."region" LIMIT 10000`,
		},
		{
			name:   "join with aggregate and order",
			table:  "orders",
			schema: shopSchema(),
			query: Query{
				Join: []Join{{Table: "products", On: JoinOn{Left: "product_id", Right: "product_id"}}},
				Select: []SelectItem{
					{Field: "products.product_category_name"},
					{Field: "price", Aggregate: "sum", As: "revenue"},
				},
				GroupBy: []GroupItem{{Field: "products.product_category_name"}},
				OrderBy: []OrderClause{{Field: "revenue", Direction: "desc"}},
				Limit:   3,
			},
			want: `SELECT "products"."product_category_name" AS "products.product_category_name", SUM("orders"."price") AS "revenue" FROM "orders" INNER JOIN "products" ON "orders"."product_id" = "products"."product_id" GROUP BY "products"."product_category_name" ORDER BY "revenue" DESC LIMIT 3`,
		},
		{
			name:   "having re-emits the aggregate",
			table:  "sales",
			schema: salesSchema(),
			query: Query{
				Select: []SelectItem{
					{Field: "region"},
					{Field: "amount", Aggregate: "sum", As: "revenue"},
				},
				GroupBy: []GroupItem{{Field: "region"}},
				Having:  []Clause{{Field: "revenue", Op: ">", Value: float64(500)}},
			},
			want: `SELECT "sales"."region" AS "region", SUM("sales"."amount") AS "revenue" FROM "sales" GROUP BY "sales"."region" HAVING SUM("sales"."amount") > 500 LIMIT 10000`,
		},
		{
			name:   "window function",
			table:  "sales",
			schema: salesSchema(),
			query: Query{
				Select: []SelectItem{
					{Field: "amount"},
					{Window: "lag", Field: "amount", As: "prev", PartitionBy: "region", OrderBy: []OrderClause{{Field: "month"}}},
				},
			},
			want: `SELECT "sales"."amount" AS "amount", LAG("sales"."amount", 1) OVER (PARTITION BY "sales"."region" ORDER BY "sales"."month") AS "prev" FROM "sales" LIMIT 10000`,
		},
		{
			name:   "sqlite month bucket via strftime",
			table:  "sales",
			schema: salesSchema(),
			query: Query{
				Select: []SelectItem{
					{Field: "month"},
					{Field: "amount", Aggregate: "sum", As: "total"},
				},
				GroupBy: []GroupItem{{Field: "month", Bucket: "month"}},
			},
			want: `SELECT strftime('%Y-%m', "sales"."month") AS "month", SUM("sales"."amount") AS "total" FROM "sales" GROUP BY strftime('%Y-%m', "sales"."month") LIMIT 10000`,
		},
		{
			name:   "operator rendering",
			table:  "sales",
			schema: salesSchema(),
			query: Query{
				Select: []SelectItem{{Field: "region"}},
				Filter: []Clause{
					{Field: "region", Op: "in", Value: []interface{}{"north", "south"}},
					{Field: "amount", Op: "between", Value: []interface{}{float64(10), float64(20)}},
					{Field: "region", Op: "like", Value: "n%"},
					{Field: "month", Op: "is_not_null"},
				},
			},
			want: `SELECT "sales"."region" AS "region" FROM "sales" WHERE "sales"."region" IN ('north', 'south') AND "sales"."amount" BETWEEN 10 AND 20 AND "sales"."region" LIKE 'n%' AND "sales"."month" IS NOT NULL LIMIT 10000`,
		},
	}

	c := &Compiler{Dialect: SQLite}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Compile(tt.table, &tt.query, tt.schema)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			if got != tt.want {
				t.Errorf("Compile =\n  %s\nwant\n  %s", got, tt.want)
			}
		})
	}
}

func TestCompileANSIBuckets(t *testing.T) {
	c := &Compiler{Dialect: ANSI}
	q := Query{
		Select:  []SelectItem{{Field: "month"}, {Field: "amount", Aggregate: "median", As: "mid"}},
		GroupBy: []GroupItem{{Field: "month", Bucket: "quarter"}},
	}
	got, err := c.Compile("sales", &q, salesSchema())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, frag := range []string{`DATE_TRUNC('quarter', "sales"."month")`, `PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY "sales"."amount")`} {
		if !strings.Contains(got, frag) {
			t.Errorf("Compile = %s, missing %s", got, frag)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	c := &Compiler{Dialect: SQLite}
	tests := []struct {
		name    string
		table   string
		schema  Schema
		query   Query
		wantSub []string
	}{
		{
			name:    "unknown field lists columns",
			table:   "sales",
			schema:  salesSchema(),
			query:   Query{Select: []SelectItem{{Field: "regjon"}}},
			wantSub: []string{`unknown field "regjon"`, "amount", "month", "region"},
		},
		{
			name:   "ambiguous field lists candidates",
			table:  "orders",
			schema: shopSchema(),
			query: Query{
				Join:   []Join{{Table: "products", On: JoinOn{Left: "product_id", Right: "product_id"}}},
				Select: []SelectItem{{Field: "product_id"}},
			},
			wantSub: []string{"ambiguous", "orders.product_id", "products.product_id"},
		},
		{
			name:    "unknown table",
			table:   "salez",
			schema:  salesSchema(),
			query:   Query{Select: []SelectItem{{Field: "region"}}},
			wantSub: []string{`unknown table "salez"`},
		},
		{
			name:   "unknown column in qualified ref",
			table:  "orders",
			schema: shopSchema(),
			query: Query{
				Join:   []Join{{Table: "products", On: JoinOn{Left: "product_id", Right: "product_id"}}},
				Select: []SelectItem{{Field: "products.color"}},
			},
			wantSub: []string{`unknown column "color"`, "product_category_name"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compile(tt.table, &tt.query, tt.schema)
			if err == nil {
				t.Fatal("expected an error")
			}
			for _, sub := range tt.wantSub {
				if !strings.Contains(err.Error(), sub) {
					t.Errorf("error %q missing %q", err, sub)
				}
			}
		})
	}
}

func TestCompileReduced(t *testing.T) {
	c := &Compiler{Dialect: SQLite}
	q := Query{
		Select: []SelectItem{
			{Field: "region"},
			{Field: "amount", Aggregate: "median", As: "mid"},
		},
		Filter:  []Clause{{Field: "month", Op: "is_not_null"}},
		GroupBy: []GroupItem{{Field: "region"}},
		OrderBy: []OrderClause{{Field: "mid", Direction: "desc"}},
		Limit:   5,
	}
	got, refs, err := c.CompileReduced("sales", &q, salesSchema())
	if err != nil {
		t.Fatalf("CompileReduced: %v", err)
	}
	want := `SELECT "sales"."region" AS "region", "sales"."amount" AS "amount", "sales"."month" AS "month" FROM "sales" WHERE "sales"."month" IS NOT NULL`
	if got != want {
		t.Errorf("CompileReduced =\n  %s\nwant\n  %s", got, want)
	}
	if len(refs) != 3 || refs[0] != "region" || refs[1] != "amount" || refs[2] != "month" {
		t.Errorf("refs = %v", refs)
	}
	if strings.Contains(got, "LIMIT") || strings.Contains(got, "GROUP") {
		t.Errorf("reduced query must not carry limit or grouping: %s", got)
	}
}

func TestQueryUnmarshalUnions(t *testing.T) {
	raw := `{
		"select": ["region", {"field": "amount", "aggregate": "sum", "as": "total"},
		           {"window": "rank", "as": "r", "orderBy": [{"field": "total", "direction": "desc"}]}],
		"groupBy": ["region", {"field": "day", "bucket": "month"}],
		"filter": [{"field": "amount", "op": ">", "value": 5}],
		"limit": 10
	}`
	var q Query
	if err := json.Unmarshal([]byte(raw), &q); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if q.Select[0].Field != "region" || q.Select[1].Aggregate != "sum" || q.Select[2].Window != "rank" {
		t.Errorf("select parsed wrong: %+v", q.Select)
	}
	if q.GroupBy[0].Field != "region" || q.GroupBy[1].Bucket != "month" {
		t.Errorf("groupBy parsed wrong: %+v", q.GroupBy)
	}
	if err := q.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"empty select", Query{}, "non-empty select"},
		{"unknown aggregate", Query{Select: []SelectItem{{Field: "x", Aggregate: "mode"}}}, "unknown aggregate"},
		{"unknown window", Query{Select: []SelectItem{{Window: "cume_dist"}}}, "unknown window"},
		{"unknown bucket", Query{Select: []SelectItem{{Field: "x"}}, GroupBy: []GroupItem{{Field: "d", Bucket: "decade"}}}, "unknown time bucket"},
		{"unknown operator", Query{Select: []SelectItem{{Field: "x"}}, Filter: []Clause{{Field: "x", Op: "~"}}}, "unknown operator"},
		{"bad direction", Query{Select: []SelectItem{{Field: "x"}}, OrderBy: []OrderClause{{Field: "x", Direction: "down"}}}, "asc or desc"},
		{"bad join type", Query{Select: []SelectItem{{Field: "x"}}, Join: []Join{{Table: "t", On: JoinOn{Left: "a", Right: "b"}, Type: "cross"}}}, "inner or left"},
		{"percentile out of range", Query{Select: []SelectItem{{Field: "x", Aggregate: "percentile", Percentile: 150}}}, "between 0 and 100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q missing %q", err, tt.want)
			}
		})
	}
}
