package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeString(t *testing.T) {
	testCases := []struct {
		name string
		typ  Type
		want string
	}{
		{"scalar", Int(), "int"},
		{"nullable", String().AsNullable(), "string?"},
		{"entity", Entity("Book"), "entity(Book)"},
		{"collection", CollectionOf(Entity("Book")), "collection(entity(Book))"},
		{"queryable", QueryableOf(Entity("Author")), "queryable(entity(Author))"},
		{"interface", Interface("Named"), "interface(Named)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.typ.String())
		})
	}
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, Bool().IsBoolean())
	assert.True(t, String().IsText())
	assert.True(t, Time().IsTime())
	assert.True(t, Decimal().IsNumeric())
	assert.True(t, Float().IsNumeric())
	assert.False(t, String().IsNumeric())
	assert.True(t, Entity("Book").IsEntity())
	assert.True(t, ArrayOf(Int()).IsSequence())
	assert.False(t, Entity("Book").IsSequence())
}

func TestElemType(t *testing.T) {
	assert.Equal(t, Entity("Book"), CollectionOf(Entity("Book")).ElemType())
	assert.Equal(t, KindUnknown, Int().ElemType().Kind)
}

func TestParseKind(t *testing.T) {
	for k := KindUnknown; k <= KindStruct; k++ {
		parsed, ok := ParseKind(k.String())
		assert.True(t, ok, "kind %d", k)
		assert.Equal(t, k, parsed)
	}

	_, ok := ParseKind("float64")
	assert.False(t, ok)
}
