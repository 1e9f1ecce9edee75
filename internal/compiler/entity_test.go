package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/mapping"
)

const librarySchema = `
entity: Author: properties: {
	ID:    int
	Name:  string
	Books: {collection: "Book"}
}

entity: Book: {
	table: "Book"
	key:   "ID"
	properties: {
		ID:        int
		Title:     string
		Price:     float
		InPrint:   bool
		Published: "time"
		Author:    {item: "Author"}
		Subject:   {item: "Subject", fk: "SubjectID"}
	}
}

entity: Subject: properties: {
	ID:   int
	Name: string | null
}
`

func compileString(t *testing.T, src string) cue.Value {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return v
}

func TestCompileSchema(t *testing.T) {
	specs, err := CompileSchema(compileString(t, librarySchema))
	require.NoError(t, err)
	require.Len(t, specs, 3)

	names := []string{specs[0].Name, specs[1].Name, specs[2].Name}
	assert.Equal(t, []string{"Author", "Book", "Subject"}, names)

	book := specs[1]
	assert.Equal(t, "Book", book.Table)
	assert.Equal(t, "ID", book.PrimaryKey)
	require.Len(t, book.Properties, 7)
	assert.Equal(t, mapping.Property{Name: "Published", Type: ir.Time()}, book.Properties[4])
	assert.Equal(t, ir.Float(), book.Properties[2].Type)
	assert.Equal(t, ir.Bool(), book.Properties[3].Type)
	assert.Equal(t, mapping.Property{Name: "Author", Kind: mapping.RelatedItem, Related: "Author"}, book.Properties[5])
	assert.Equal(t, "SubjectID", book.Properties[6].ForeignKey)

	author := specs[0]
	assert.Empty(t, author.Table)
	assert.Equal(t, mapping.RelatedCollection, author.Properties[2].Kind)
	assert.Equal(t, "Book", author.Properties[2].Related)

	name := specs[2].Properties[1]
	assert.Equal(t, ir.KindString, name.Type.Kind)
	assert.True(t, name.Type.Nullable)
}

func TestCompileEntity_StructuredScalar(t *testing.T) {
	v := compileString(t, `
		entity: Note: properties: {
			ID:   int
			Body: {type: "string", column: "body_text", nullable: true}
			Data: bytes
		}
	`)
	spec, err := CompileEntity(v.LookupPath(cue.ParsePath("entity.Note")))
	require.NoError(t, err)

	assert.Equal(t, "Note", spec.Name)
	body := spec.Properties[1]
	assert.Equal(t, "body_text", body.Column)
	assert.Equal(t, ir.String().AsNullable(), body.Type)
	assert.Equal(t, ir.Bytes(), spec.Properties[2].Type)
}

func TestCompileEntity_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "missing properties",
			src:  `entity: Bad: table: "Bad"`,
			want: "properties are required",
		},
		{
			name: "empty properties",
			src:  `entity: Bad: properties: {}`,
			want: "at least one property",
		},
		{
			name: "unknown type name",
			src:  `entity: Bad: properties: {ID: int, When: "moment"}`,
			want: `unsupported property type "moment"`,
		},
		{
			name: "value instead of type",
			src:  `entity: Bad: properties: {ID: 5}`,
			want: "must be a type",
		},
		{
			name: "top type",
			src:  `entity: Bad: properties: {ID: int, Any: _}`,
			want: "unsupported type kind",
		},
		{
			name: "list type",
			src:  `entity: Bad: properties: {ID: int, Tags: [...string]}`,
			want: "list properties are not supported",
		},
		{
			name: "item and collection",
			src:  `entity: Bad: properties: {ID: int, X: {item: "A", collection: "B"}}`,
			want: "exactly one of item, collection or type",
		},
		{
			name: "fk on scalar",
			src:  `entity: Bad: properties: {ID: int, X: {type: "int", fk: "XID"}}`,
			want: "fk is only valid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := compileString(t, tt.src)
			_, err := CompileEntity(v.LookupPath(cue.ParsePath("entity.Bad")))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)

			var ce *CompileError
			assert.ErrorAs(t, err, &ce)
		})
	}
}

func TestCompileSchema_NoEntities(t *testing.T) {
	_, err := CompileSchema(compileString(t, `other: 1`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entities defined")
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "Book.ID", Message: "bad"}
	assert.Equal(t, "Book.ID: bad", err.Error())
}
