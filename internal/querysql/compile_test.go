package querysql

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/queryir"
	qm "github.com/andrewjk/Watsonia.Data-sub000/internal/querymodel"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/testutil"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/translate"
)

// render formats compiled SQL and its parameters for golden comparison.
func render(sql string, params []any) []byte {
	var b strings.Builder
	b.WriteString(sql)
	b.WriteString("\n")
	for i, p := range params {
		fmt.Fprintf(&b, "$%d = %#v\n", i+1, p)
	}
	return []byte(b.String())
}

func compileModel(t *testing.T, m *qm.QueryModel) []byte {
	t.Helper()
	sel, err := translate.Translate(m, testutil.LibraryRegistry())
	require.NoError(t, err)
	sql, params, err := NewSQLCompiler().Compile(sel)
	require.NoError(t, err)
	return render(sql, params)
}

func TestCompile_Golden(t *testing.T) {
	str := func(s string) *qm.Constant { return qm.Const(s, ir.String()) }
	num := func(n int) *qm.Constant { return qm.Const(n, ir.Int()) }

	tests := []struct {
		name  string
		model func() *qm.QueryModel
	}{
		{"where_order", func() *qm.QueryModel {
			q := qm.Query("b", "Book")
			b := q.Item()
			return q.Where(qm.Gt(qm.Prop(b, "Price", ir.Float()), num(10))).
				OrderBy(qm.Prop(b, "Title", ir.String()), qm.Ascending).
				Model()
		}},
		{"implicit_join", func() *qm.QueryModel {
			q := qm.Query("b", "Book")
			b := q.Item()
			name := qm.Prop(qm.Prop(b, "Author", ir.Entity("Author")), "Name", ir.String())
			startsWithA := qm.Call(name, qm.DeclString, "StartsWith", ir.Bool(), str("A"))
			cheapOrInPrint := qm.OrElse(qm.Lt(qm.Prop(b, "Price", ir.Float()), num(5)), qm.Prop(b, "InPrint", ir.Bool()))
			return q.Where(qm.AndAlso(startsWithA, cheapOrInPrint)).
				Select(qm.Prop(b, "Title", ir.String())).
				With(&qm.Skip{Count: num(5)}, &qm.Take{Count: num(10)}).
				Model()
		}},
		{"correlated_count", func() *qm.QueryModel {
			q := qm.Query("a", "Author")
			book := ir.Entity("Book")
			from := &qm.FromClause{ItemName: "x", ItemType: book, Source: qm.Prop(q.Item(), "Books", ir.CollectionOf(book))}
			count := &qm.SubQuery{Model: &qm.QueryModel{MainFrom: from, ResultOperators: []qm.ResultOperator{&qm.Count{}}}, Type: ir.Int()}
			return q.Where(qm.Gt(count, num(1))).Model()
		}},
		{"all", func() *qm.QueryModel {
			q := qm.Query("b", "Book")
			return q.With(&qm.All{Predicate: qm.Gt(qm.Prop(q.Item(), "Price", ir.Float()), num(1))}).Model()
		}},
		{"contains_subquery", func() *qm.QueryModel {
			inner := qm.Query("x", "Author")
			inner.Where(qm.Call(qm.Prop(inner.Item(), "Name", ir.String()), qm.DeclString, "StartsWith", ir.Bool(), str("A")))
			q := qm.Query("b", "Book")
			sub := inner.With(&qm.Contains{Item: qm.Prop(q.Item(), "Author", ir.Entity("Author"))}).Sub(ir.Bool())
			return q.Where(sub).Model()
		}},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.Assert(t, tt.name, compileModel(t, tt.model()))
		})
	}
}

func title() *queryir.Column { return queryir.NewColumn("Book", "Title") }

func bookSelect(fields ...queryir.Node) *queryir.Select {
	sel := queryir.NewSelect(queryir.NewTable("Book"))
	if len(fields) == 0 {
		fields = []queryir.Node{queryir.NewColumn("Book", "ID")}
	}
	sel.SourceFields = fields
	return sel
}

func TestCompile_Statements(t *testing.T) {
	tests := []struct {
		name   string
		sel    func() *queryir.Select
		sql    string
		params []any
	}{
		{
			name: "null equality",
			sel: func() *queryir.Select {
				s := bookSelect()
				s.AddCondition(queryir.NewCondition(title(), queryir.Equals, queryir.Const(nil)), queryir.And)
				s.AddCondition(queryir.NewCondition(title(), queryir.NotEquals, queryir.Const(nil)), queryir.Or)
				return s
			},
			sql: `SELECT "Book"."ID" FROM "Book" WHERE "Book"."Title" IS NULL OR "Book"."Title" IS NOT NULL`,
		},
		{
			name: "in list",
			sel: func() *queryir.Select {
				s := bookSelect()
				s.AddCondition(queryir.NewCondition(queryir.NewColumn("Book", "ID"), queryir.IsIn, queryir.Const([]any{1, 2, 3})), queryir.And)
				return s
			},
			sql:    `SELECT "Book"."ID" FROM "Book" WHERE "Book"."ID" IN (?, ?, ?)`,
			params: []any{1, 2, 3},
		},
		{
			name: "negated group",
			sel: func() *queryir.Select {
				s := bookSelect()
				group := queryir.NewConditionCollection(
					queryir.NewCondition(title(), queryir.EndsWith, queryir.Const("x")),
					queryir.NewCondition(title(), queryir.Contains, queryir.Const("y")).WithRelationship(queryir.Or),
				)
				s.AddCondition(group.Negate(), queryir.And)
				return s
			},
			sql:    `SELECT "Book"."ID" FROM "Book" WHERE NOT ("Book"."Title" LIKE '%' || ? OR "Book"."Title" LIKE '%' || ? || '%')`,
			params: []any{"x", "y"},
		},
		{
			name: "offset without limit",
			sel: func() *queryir.Select {
				s := bookSelect()
				s.StartIndex = 3
				s.IsDistinct = true
				return s
			},
			sql: `SELECT DISTINCT "Book"."ID" FROM "Book" LIMIT -1 OFFSET 3`,
		},
		{
			name: "zero limit",
			sel: func() *queryir.Select {
				s := bookSelect()
				s.SetLimit(0)
				return s
			},
			sql: `SELECT "Book"."ID" FROM "Book" LIMIT 0`,
		},
		{
			name: "zero limit with offset",
			sel: func() *queryir.Select {
				s := bookSelect()
				s.SetLimit(0)
				s.StartIndex = 3
				return s
			},
			sql: `SELECT "Book"."ID" FROM "Book" LIMIT 0 OFFSET 3`,
		},
		{
			name: "sub-select source",
			sel: func() *queryir.Select {
				inner := bookSelect()
				inner.Alias = "Book"
				inner.SetLimit(5)
				s := queryir.NewSelect(inner)
				s.SourceFields = []queryir.Node{queryir.NewColumn("Book", "ID")}
				return s
			},
			sql: `SELECT "Book"."ID" FROM (SELECT "Book"."ID" FROM "Book" LIMIT 5) AS "Book"`,
		},
		{
			name: "count star with join",
			sel: func() *queryir.Select {
				s := bookSelect(&queryir.Aggregate{Kind: queryir.AggregateCount, Field: queryir.NewColumn("", "*")})
				s.AddJoin(&queryir.Join{
					Right:       queryir.NewTable("Author"),
					LeftColumn:  queryir.NewColumn("Book", "AuthorID"),
					RightColumn: queryir.NewColumn("Author", "ID"),
					Kind:        queryir.InnerJoin,
				})
				return s
			},
			sql: `SELECT COUNT(*) FROM "Book" INNER JOIN "Author" ON "Book"."AuthorID" = "Author"."ID"`,
		},
		{
			name: "exists",
			sel: func() *queryir.Select {
				s := bookSelect()
				s.IsAny = true
				s.AddCondition(queryir.NewCondition(queryir.NewColumn("Book", "InPrint"), queryir.Equals, queryir.Const(true)), queryir.And)
				return s
			},
			sql:    `SELECT EXISTS (SELECT "Book"."ID" FROM "Book" WHERE "Book"."InPrint" = ?)`,
			params: []any{true},
		},
		{
			name: "nested exists condition",
			sel: func() *queryir.Select {
				sub := queryir.NewSelect(queryir.NewTable("Book"))
				sub.IsAny = true
				sub.AddCondition(queryir.NewCondition(queryir.NewColumn("Book", "AuthorID"), queryir.Equals, queryir.NewColumn("Author", "ID")), queryir.And)
				s := queryir.NewSelect(queryir.NewTable("Author"))
				s.SourceFields = []queryir.Node{queryir.NewColumn("Author", "ID")}
				s.AddCondition(queryir.NewCondition(sub, queryir.Equals, queryir.Const(true)), queryir.And)
				return s
			},
			sql:    `SELECT "Author"."ID" FROM "Author" WHERE EXISTS (SELECT * FROM "Book" WHERE "Book"."AuthorID" = "Author"."ID") = ?`,
			params: []any{true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, params, err := NewSQLCompiler().Compile(tt.sel())
			require.NoError(t, err)
			assert.Equal(t, tt.sql, sql)
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestCompile_Functions(t *testing.T) {
	price := queryir.NewColumn("Book", "Price")
	published := queryir.NewColumn("Book", "Published")

	tests := []struct {
		name string
		node queryir.Node
		sql  string
	}{
		{"length", &queryir.StringLength{Argument: title()}, `LENGTH("Book"."Title")`},
		{"substring", &queryir.Substring{Argument: title(), StartIndex: queryir.Const(1), Length: queryir.Const(2)}, `SUBSTR("Book"."Title", ? + 1, ?)`},
		{"remove", &queryir.StringRemove{Argument: title(), StartIndex: queryir.Const(1), Length: queryir.Const(2)}, `(SUBSTR("Book"."Title", 1, ?) || SUBSTR("Book"."Title", ? + ? + 1))`},
		{"index of", &queryir.StringIndex{Argument: title(), StringToFind: queryir.Const("o")}, `(INSTR("Book"."Title", ?) - 1)`},
		{"concatenate", &queryir.StringConcatenate{Arguments: []queryir.Node{title(), queryir.Const("!")}}, `("Book"."Title" || ?)`},
		{"compare", &queryir.StringCompare{Argument: title(), Other: queryir.Const("m")}, `CASE WHEN "Book"."Title" = ? THEN 0 WHEN "Book"."Title" < ? THEN -1 ELSE 1 END`},
		{"trim start", &queryir.StringTrimStart{Argument: title()}, `LTRIM("Book"."Title")`},
		{"year", &queryir.DatePart{Part: queryir.PartYear, Argument: published}, `CAST(STRFTIME('%Y', "Book"."Published") AS INTEGER)`},
		{"date", &queryir.DatePart{Part: queryir.PartDate, Argument: published}, `DATE("Book"."Published")`},
		{"add days", &queryir.DateAdd{Part: queryir.PartDay, Argument: published, Number: queryir.Const(3)}, `DATETIME("Book"."Published", ? || ' days')`},
		{"difference", &queryir.DateDifference{Date1: published, Date2: &queryir.CurrentDate{UTC: true}}, `(JULIANDAY("Book"."Published") - JULIANDAY(DATETIME('now')))`},
		{"today", &queryir.CurrentDate{DateOnly: true}, `DATE('now', 'localtime')`},
		{"new date", &queryir.DateNew{Year: queryir.Const(2020), Month: queryir.Const(1), Day: queryir.Const(2)}, `DATE(PRINTF('%04d-%02d-%02d', ?, ?, ?))`},
		{"sqrt", &queryir.NumberRoot{Argument: price, Root: queryir.Const(2)}, `SQRT("Book"."Price")`},
		{"cube root", &queryir.NumberRoot{Argument: price, Root: queryir.Const(3)}, `POWER("Book"."Price", 1.0 / ?)`},
		{"round", &queryir.NumberRound{Argument: price, Precision: queryir.Const(0)}, `ROUND("Book"."Price", ?)`},
		{"atan2", &queryir.NumberTrig{Function: queryir.Atan2, Argument: price, Argument2: price}, `ATAN2("Book"."Price", "Book"."Price")`},
		{"arithmetic", &queryir.BinaryOperation{Left: price, Operator: queryir.Modulo, Right: queryir.Const(2)}, `("Book"."Price" % ?)`},
		{"negate", &queryir.UnaryOperation{Operator: queryir.UnaryNegate, Operand: price}, `-("Book"."Price")`},
		{"convert", &queryir.Convert{Expression: price, Type: ir.String()}, `CAST("Book"."Price" AS TEXT)`},
		{"coalesce", &queryir.Coalesce{First: title(), Second: queryir.Const("?")}, `COALESCE("Book"."Title", ?)`},
		{"case", &queryir.ConditionalCase{
			Test:    queryir.NewCondition(price, queryir.IsGreaterThan, queryir.Const(1)),
			IfTrue:  queryir.Const("dear"),
			IfFalse: queryir.Const("cheap"),
		}, `CASE WHEN "Book"."Price" > ? THEN ? ELSE ? END`},
		{"average", &queryir.Aggregate{Kind: queryir.AggregateAverage, Field: price}, `AVG("Book"."Price")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, _, err := NewSQLCompiler().Compile(bookSelect(tt.node))
			require.NoError(t, err)
			assert.Equal(t, "SELECT "+tt.sql+` FROM "Book"`, sql)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	_, _, err := NewSQLCompiler().Compile(nil)
	assert.Error(t, err)

	_, _, err = NewSQLCompiler().Compile(&queryir.Select{})
	assert.ErrorContains(t, err, "no source")

	_, _, err = NewSQLCompiler().Compile(bookSelect(&queryir.Aggregate{Kind: queryir.AggregateSum}))
	assert.ErrorContains(t, err, "SUM aggregate has no field")

	s := bookSelect()
	s.AddCondition(queryir.NewCondition(title(), queryir.IsIn, title()), queryir.And)
	_, _, err = NewSQLCompiler().Compile(s)
	assert.ErrorContains(t, err, "unsupported IN operand")
}

func TestCompile_TimeParameters(t *testing.T) {
	assert.Equal(t, "2001-02-03 04:05:06", toParam(mustTime(t, "2001-02-03T04:05:06Z")))
	assert.Equal(t, 7, toParam(7))
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return v
}
