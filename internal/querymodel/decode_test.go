package querymodel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
)

type fakeTypes map[string]map[string]ir.Type

func (f fakeTypes) PropertyType(entity, property string) (ir.Type, bool) {
	t, ok := f[entity][property]
	return t, ok
}

var library = fakeTypes{
	"Book": {
		"ID":        ir.Int(),
		"Title":     ir.String(),
		"Price":     ir.Decimal(),
		"Published": ir.Time(),
		"AuthorID":  ir.Int(),
		"Author":    ir.Entity("Author"),
		"Subjects":  ir.CollectionOf(ir.Entity("Subject")),
	},
	"Author": {
		"ID":    ir.Int(),
		"Name":  ir.String(),
		"Books": ir.CollectionOf(ir.Entity("Book")),
	},
}

func TestDecode_FullQuery(t *testing.T) {
	src := `
from: {name: b, entity: Book}
where:
  - op: andAlso
    left: {op: greaterThan, left: {member: b.Price}, right: {const: 10}}
    right: {call: StartsWith, on: {member: b.Author.Name}, args: [{const: Le}]}
orderBy:
  - {expr: {member: b.Title}, desc: true}
select: {member: b.Title}
operators: [distinct, {skip: 5}, {take: 10}]
`
	m, err := Decode([]byte(src), library)
	require.NoError(t, err)

	assert.Equal(t, "b", m.MainFrom.ItemName)
	assert.Equal(t, ir.Entity("Book"), m.MainFrom.ItemType)

	wheres := m.Wheres()
	require.Len(t, wheres, 1)
	and, ok := wheres[0].Predicate.(*Binary)
	require.True(t, ok)
	assert.Equal(t, OpAndAlso, and.Op)

	call, ok := and.Right.(*MethodCall)
	require.True(t, ok)
	assert.Equal(t, DeclString, call.Declaring)
	assert.Equal(t, ir.Bool(), call.Type)
	assert.Equal(t, "b.Author.Name", Describe(call.Object))

	name := call.Object.(*Member)
	assert.Equal(t, ir.Entity("Author"), name.Owner)

	orderings := m.Orderings()
	require.Len(t, orderings, 1)
	assert.Equal(t, Descending, orderings[0].Direction)

	assert.Equal(t, ir.String(), m.ResultType())
	require.Len(t, m.ResultOperators, 3)
	assert.IsType(t, &Distinct{}, m.ResultOperators[0])
	skip := m.ResultOperators[1].(*Skip)
	assert.Equal(t, 5, skip.Count.(*Constant).Value)
}

func TestDecode_JoinAndSubquery(t *testing.T) {
	src := `
from: {name: a, entity: Author}
joins:
  - {name: b, entity: Book, outer: {member: a.ID}, inner: {member: b.AuthorID}}
where:
  - query:
      from: {name: x, source: {member: a.Books}}
      where:
        - {op: equal, left: {member: x.Title}, right: {member: b.Title}}
      operators: [any]
    type: bool
operators: [{include: Books.Subjects}]
`
	m, err := Decode([]byte(src), library)
	require.NoError(t, err)

	joins := m.Joins()
	require.Len(t, joins, 1)
	assert.Equal(t, "a.ID", Describe(joins[0].OuterKey))
	assert.Equal(t, "b.AuthorID", Describe(joins[0].InnerKey))

	sub, ok := m.Wheres()[0].Predicate.(*SubQuery)
	require.True(t, ok)
	assert.Equal(t, ir.Bool(), sub.Type)
	assert.Equal(t, ir.Entity("Book"), sub.Model.MainFrom.ItemType)

	// The nested query sees the outer join variable.
	eq := sub.Model.Wheres()[0].Predicate.(*Binary)
	assert.Equal(t, "b.Title", Describe(eq.Right))

	assert.Equal(t, &Include{Path: "Books.Subjects"}, m.ResultOperators[0])
}

func TestDecode_Constants(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		value any
		typ   ir.Type
	}{
		{"int", `{const: 3}`, 3, ir.Int()},
		{"float", `{const: 2.5}`, 2.5, ir.Float()},
		{"string", `{const: hi}`, "hi", ir.String()},
		{"bool", `{const: true}`, true, ir.Bool()},
		{"null", `{const: null}`, nil, ir.Unknown().AsNullable()},
		{"decimal", `{const: 4, type: decimal}`, 4, ir.Decimal()},
		{"time", `{const: "2020-01-02", type: time}`, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), ir.Time()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "from: {name: b, entity: Book}\nselect: " + tt.yaml + "\n"
			m, err := Decode([]byte(src), library)
			require.NoError(t, err)

			c, ok := m.Select.Selector.(*Constant)
			require.True(t, ok)
			assert.Equal(t, tt.value, c.Value)
			assert.Equal(t, tt.typ, c.Type)
		})
	}
}

func TestDecode_List(t *testing.T) {
	src := `
from: {name: b, entity: Book}
where:
  - call: Contains
    decl: sequence
    args: [{const: [1, 2, 3]}, {member: b.ID}]
`
	m, err := Decode([]byte(src), library)
	require.NoError(t, err)

	call := m.Wheres()[0].Predicate.(*MethodCall)
	assert.Nil(t, call.Object)
	assert.Equal(t, DeclSequence, call.Declaring)
	assert.Equal(t, ir.Bool(), call.Type)
	assert.Equal(t, ir.ArrayOf(ir.Int()), call.Args[0].ResultType())
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"missing from", `where: []`, "query requires a from clause"},
		{"unknown variable", "from: {name: b, entity: Book}\nselect: {member: z.Title}", `unknown range variable "z"`},
		{"unknown property", "from: {name: b, entity: Book}\nselect: {member: b.Colour}", "entity Book has no property Colour"},
		{"unknown operator", "from: {name: b, entity: Book}\noperators: [reverse]", `unknown result operator "reverse"`},
		{"bad binary", "from: {name: b, entity: Book}\nselect: {op: equal, left: {member: b.ID}}", "equal requires left and right"},
		{"bad type", "from: {name: b, entity: Book}\nselect: {const: 1, type: money}", `unknown type "money"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.src), library)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)

			var de *DecodeError
			assert.ErrorAs(t, err, &de)
		})
	}
}

func TestParseType(t *testing.T) {
	for _, want := range []ir.Type{
		ir.Int(),
		ir.String().AsNullable(),
		ir.Entity("Book"),
		ir.CollectionOf(ir.Entity("Subject")),
		ir.ArrayOf(ir.Int()),
	} {
		got, err := ParseType(want.String())
		require.NoError(t, err, want.String())
		assert.Equal(t, want, got)
	}
}
