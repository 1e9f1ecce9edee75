package eager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/mapping"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/queryir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/querysql"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/testutil"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/translate"
)

func TestNormalizePaths(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{"nil", nil, []string{}},
		{"single", []string{"Books"}, []string{"Books"}},
		{"duplicates", []string{"Books", "Books"}, []string{"Books"}},
		{"prefix dropped", []string{"Books", "Books.Subject"}, []string{"Books.Subject"}},
		{"prefix after", []string{"Books.Subject", "Books"}, []string{"Books.Subject"}},
		{"not a segment prefix", []string{"Book", "Books.Subject"}, []string{"Book", "Books.Subject"}},
		{"siblings kept in order", []string{"Books.Subject", "Books.Author", "Books"}, []string{"Books.Subject", "Books.Author"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizePaths(tt.paths)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePaths_EmptySegment(t *testing.T) {
	for _, p := range []string{"", ".Books", "Books.", "Books..Subject"} {
		_, err := normalizePaths([]string{p})
		assert.True(t, ir.IsMappingResolution(err), "path %q: %v", p, err)
	}
}

func TestPlan_SharesHops(t *testing.T) {
	reg := testutil.LibraryRegistry()
	hops, err := plan("Author", []string{"Books.Subject", "Books.Author"}, reg)
	require.NoError(t, err)

	require.Len(t, hops, 1)
	books := hops[0]
	assert.Equal(t, "Books", books.path)
	assert.Equal(t, "Book", books.related)
	assert.True(t, books.collection)
	assert.Equal(t, "AuthorID", books.fk)
	assert.Equal(t, "ID", books.ownerPK)

	require.Len(t, books.children, 2)
	assert.Equal(t, "Books.Subject", books.children[0].path)
	assert.False(t, books.children[0].collection)
	assert.Equal(t, "SubjectID", books.children[0].fk)
	assert.Equal(t, "Books.Author", books.children[1].path)
	assert.Equal(t, "Author", books.children[1].relatedTable)
}

func TestPlan_UnknownEntity(t *testing.T) {
	_, err := plan("Publisher", []string{"Books"}, testutil.LibraryRegistry())
	assert.True(t, ir.IsMappingResolution(err), "got %v", err)
}

func TestPlan_CollectionForeignKeyMustBeMapped(t *testing.T) {
	reg := mapping.NewRegistry()
	require.NoError(t, reg.Define(mapping.EntitySpec{
		Name: "Shelf",
		Properties: []mapping.Property{
			{Name: "ID", Type: ir.Int()},
			{Name: "Items", Kind: mapping.RelatedCollection, Related: "Item"},
		},
	}))
	require.NoError(t, reg.Define(mapping.EntitySpec{
		Name:       "Item",
		Properties: []mapping.Property{{Name: "ID", Type: ir.Int()}},
	}))

	_, err := plan("Shelf", []string{"Items"}, reg)
	require.Error(t, err)
	assert.True(t, ir.IsMappingResolution(err))
	assert.Contains(t, err.Error(), "ShelfID")
}

func compileHop(t *testing.T, q hopQuery) string {
	t.Helper()
	sql, _, err := querysql.NewSQLCompiler().Compile(q.sel)
	require.NoError(t, err)
	return sql
}

func TestHopQueries_SQL(t *testing.T) {
	reg := testutil.LibraryRegistry()
	base := queryir.NewSelect(queryir.NewTable("Author"))
	require.NoError(t, translate.ExpandFields(base, "Author", reg))

	hops, err := plan("Author", []string{"Books.Author.Books"}, reg)
	require.NoError(t, err)

	const bookCols = `"Book"."ID", "Book"."Title", "Book"."Price", "Book"."InPrint", "Book"."Published", "Book"."AuthorID", "Book"."SubjectID"`
	const filter = ` WHERE "Book"."AuthorID" IN (SELECT "Author"."ID" FROM "Author")`

	books := hops[0]
	q1, err := firstQuery(base, books, reg)
	require.NoError(t, err)
	assert.Equal(t, `SELECT `+bookCols+` FROM "Book"`+filter, compileHop(t, q1))

	author := books.children[0]
	q2, err := extendQuery(q1, author, reg)
	require.NoError(t, err)
	assert.Equal(t, `SELECT DISTINCT "Author"."ID", "Author"."Name" FROM "Book"`+
		` INNER JOIN "Author" ON "Book"."AuthorID" = "Author"."ID"`+filter, compileHop(t, q2))

	again := author.children[0]
	q3, err := extendQuery(q2, again, reg)
	require.NoError(t, err)
	assert.Equal(t, "Book_1", q3.ref)
	assert.Equal(t, `SELECT DISTINCT "Book_1"."ID", "Book_1"."Title", "Book_1"."Price", "Book_1"."InPrint",`+
		` "Book_1"."Published", "Book_1"."AuthorID", "Book_1"."SubjectID" FROM "Book"`+
		` INNER JOIN "Author" ON "Book"."AuthorID" = "Author"."ID"`+
		` INNER JOIN "Book" AS "Book_1" ON "Author"."ID" = "Book_1"."AuthorID"`+filter, compileHop(t, q3))

	// Extending never touches the parent statement.
	assert.Empty(t, q1.sel.SourceJoins)
	assert.False(t, q1.sel.IsDistinct)
}

func TestFirstQuery_RelatedItemProjectsForeignKey(t *testing.T) {
	reg := testutil.LibraryRegistry()
	base := queryir.NewSelect(queryir.NewTable("Book"))
	base.AddCondition(queryir.NewCondition(queryir.NewColumn("Book", "Price"), queryir.IsGreaterThan, queryir.Const(10)), queryir.And)
	require.NoError(t, translate.ExpandFields(base, "Book", reg))

	hops, err := plan("Book", []string{"Subject"}, reg)
	require.NoError(t, err)
	q, err := firstQuery(base, hops[0], reg)
	require.NoError(t, err)

	sql, params, err := querysql.NewSQLCompiler().Compile(q.sel)
	require.NoError(t, err)
	assert.Equal(t, `SELECT "Subject"."ID", "Subject"."Name" FROM "Subject"`+
		` WHERE "Subject"."ID" IN (SELECT "Book"."SubjectID" FROM "Book" WHERE "Book"."Price" > ?)`, sql)
	assert.Equal(t, []any{10}, params)
}

func TestFirstQuery_SubSelectSourceUsesAlias(t *testing.T) {
	reg := testutil.LibraryRegistry()
	inner := queryir.NewSelect(queryir.NewTable("Author"))
	inner.Alias = "Author"
	base := queryir.NewSelect(inner)
	require.NoError(t, translate.ExpandFields(base, "Author", reg))

	hops, err := plan("Author", []string{"Books"}, reg)
	require.NoError(t, err)
	q, err := firstQuery(base, hops[0], reg)
	require.NoError(t, err)

	in := q.sel.Conditions[0].(*queryir.Condition).Value.(*queryir.Select)
	assert.Equal(t, []queryir.Node{queryir.NewColumn("Author", "ID")}, in.SourceFields)
	assert.Same(t, inner, in.Source)
}

func TestFirstQuery_SubSelectWithoutAlias(t *testing.T) {
	reg := testutil.LibraryRegistry()
	base := queryir.NewSelect(queryir.NewSelect(queryir.NewTable("Author")))

	hops, err := plan("Author", []string{"Books"}, reg)
	require.NoError(t, err)
	_, err = firstQuery(base, hops[0], reg)
	assert.True(t, ir.IsInvalidArgument(err), "got %v", err)
}
