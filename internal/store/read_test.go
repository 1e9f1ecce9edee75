package store

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/mapping"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/queryir"
	qm "github.com/andrewjk/Watsonia.Data-sub000/internal/querymodel"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/testutil"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/translate"
)

func translateModel(t *testing.T, m *qm.QueryModel) *queryir.Select {
	t.Helper()
	sel, err := translate.Translate(m, testutil.LibraryRegistry())
	require.NoError(t, err)
	return sel
}

func TestLoad_Authors(t *testing.T) {
	s := createLibraryStore(t)

	q := qm.Query("a", "Author")
	sel := translateModel(t, q.OrderBy(qm.Prop(q.Item(), "ID", ir.Int()), qm.Ascending).Model())

	items, err := s.Load(context.Background(), sel, "Author")
	require.NoError(t, err)
	require.Len(t, items, testutil.AuthorCount)

	first, ok := items[0].(*testutil.Author)
	require.True(t, ok, "got %T", items[0])
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, "Author 01", first.Name)
	assert.Nil(t, first.Books, "collections are not loaded")
}

func TestLoad_BooksWithForeignKeyStubs(t *testing.T) {
	s := createLibraryStore(t)

	q := qm.Query("b", "Book")
	id := qm.Prop(q.Item(), "ID", ir.Int())
	ids := qm.Static(qm.DeclSequence, "Contains", ir.Bool(), qm.Const([]int{5, 1001}, ir.ArrayOf(ir.Int())), id)
	sel := translateModel(t, q.Where(ids).OrderBy(id, qm.Ascending).Model())

	items, err := s.Load(context.Background(), sel, "Book")
	require.NoError(t, err)
	require.Len(t, items, 2)

	five := items[0].(*testutil.Book)
	assert.Equal(t, 5, five.ID)
	assert.Equal(t, "Book 5", five.Title)
	assert.Equal(t, 5.5, five.Price)
	assert.True(t, five.InPrint)
	assert.True(t, time.Date(2001, 2, 3, 4, 5, 6, 0, time.UTC).Equal(five.Published))
	require.NotNil(t, five.Author)
	assert.Equal(t, 5, five.Author.ID)
	assert.Empty(t, five.Author.Name, "stub holds only the key")
	assert.Nil(t, five.Subject)

	later := items[1].(*testutil.Book)
	assert.Equal(t, 1001, later.ID)
	assert.True(t, later.InPrint, "odd ids are in print")
	assert.Equal(t, 1.5, later.Price)
	assert.Equal(t, 1, later.Author.ID)
	require.NotNil(t, later.Subject)
	assert.Equal(t, testutil.SubjectOf(1001), later.Subject.ID)
}

func TestLoad_Empty(t *testing.T) {
	s := createLibraryStore(t)

	q := qm.Query("a", "Author")
	sel := translateModel(t, q.Where(qm.Eq(qm.Prop(q.Item(), "Name", ir.String()), qm.Const("nobody", ir.String()))).Model())

	items, err := s.Load(context.Background(), sel, "Author")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestLoad_Records(t *testing.T) {
	r := mapping.NewRegistry()
	require.NoError(t, r.Define(mapping.EntitySpec{
		Name: "Subject",
		Properties: []mapping.Property{
			{Name: "ID", Type: ir.Int()},
			{Name: "Name", Type: ir.String()},
		},
	}))

	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithMapping(r))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Exec(context.Background(), testutil.LibrarySchema+testutil.LibrarySeed()))

	sel, err := translate.Translate(qm.Query("s", "Subject").Model(), r)
	require.NoError(t, err)

	items, err := s.Load(context.Background(), sel, "Subject")
	require.NoError(t, err)
	require.Len(t, items, testutil.SubjectCount)

	rec, ok := items[0].(*mapping.Record)
	require.True(t, ok)
	assert.Equal(t, "Subject", rec.Entity)
	assert.Contains(t, []any{"Subject 1", "Subject 2", "Subject 3"}, rec.Values["Name"])
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("no mapping", func(t *testing.T) {
		s, err := Open(filepath.Join(t.TempDir(), "test.db"))
		require.NoError(t, err)
		defer s.Close()
		_, err = s.Load(ctx, queryir.NewSelect(queryir.NewTable("Author")), "Author")
		assert.ErrorContains(t, err, "no mapping")
	})

	t.Run("compile error", func(t *testing.T) {
		s := createLibraryStore(t)
		_, err := s.Load(ctx, &queryir.Select{}, "Author")
		assert.ErrorContains(t, err, "compile select")
	})

	t.Run("unmapped column", func(t *testing.T) {
		s := createLibraryStore(t)
		sel := translateModel(t, qm.Query("a", "Author").With(&qm.Count{}).Model())
		_, err := s.Load(ctx, sel, "Author")
		require.Error(t, err)
		assert.True(t, ir.IsMappingResolution(err))
	})

	t.Run("cancelled", func(t *testing.T) {
		s := createLibraryStore(t)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Load(cancelled, translateModel(t, qm.Query("a", "Author").Model()), "Author")
		assert.Error(t, err)
	})
}

func TestQuery_Aggregates(t *testing.T) {
	s := createLibraryStore(t)
	ctx := context.Background()

	rows, err := s.Query(ctx, translateModel(t, qm.Query("b", "Book").With(&qm.Count{}).Model()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []any{int64(testutil.AuthorCount)}, rows[0].Values, "odd authors have two books each")

	q := qm.Query("b", "Book")
	rows, err = s.Query(ctx, translateModel(t, q.With(&qm.All{Predicate: qm.Gt(qm.Prop(q.Item(), "Price", ir.Float()), qm.Const(0, ir.Int()))}).Model()))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0].Values[0])

	q = qm.Query("b", "Book")
	rows, err = s.Query(ctx, translateModel(t, q.Select(qm.Prop(q.Item(), "Title", ir.String())).
		OrderBy(qm.Prop(q.Item(), "ID", ir.Int()), qm.Descending).
		With(&qm.Take{Count: qm.Const(2, ir.Int())}).Model()))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	title, ok := rows[0].Get("Title")
	require.True(t, ok)
	assert.Equal(t, "Book 1049", title)
}

func TestQuery_ImplicitJoin(t *testing.T) {
	s := createLibraryStore(t)

	q := qm.Query("b", "Book")
	authorName := qm.Prop(qm.Prop(q.Item(), "Author", ir.Entity("Author")), "Name", ir.String())
	sel := translateModel(t, q.
		Where(qm.Eq(authorName, qm.Const("Author 03", ir.String()))).
		Select(qm.Prop(q.Item(), "ID", ir.Int())).
		OrderBy(qm.Prop(q.Item(), "ID", ir.Int()), qm.Ascending).
		Model())

	rows, err := s.Query(context.Background(), sel)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(3), rows[0].Values[0])
	assert.Equal(t, int64(1003), rows[1].Values[0])
}

func TestLoad_LogsStatements(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s, err := Open(filepath.Join(t.TempDir(), "test.db"), WithMapping(testutil.LibraryRegistry()), WithLogger(logger))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Exec(context.Background(), testutil.LibrarySchema))

	_, err = s.Load(context.Background(), translateModel(t, qm.Query("a", "Author").Model()), "Author")
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "executing select")
	assert.Contains(t, logs.String(), "entity=Author")
}
