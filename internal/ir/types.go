package ir

import "fmt"

// Kind classifies a host value type as the translator sees it.
type Kind int

const (
	KindUnknown Kind = iota
	KindBool
	KindInt
	KindFloat
	KindDecimal
	KindString
	KindTime
	KindDuration
	KindBytes

	// KindEntity is a mapped entity type. Type.Name holds the entity name.
	KindEntity

	// KindInterface is an interface implemented by mapped entities. Members
	// declared on an interface resolve to the query's root entity.
	KindInterface

	// KindCollection is a navigation collection of entities (Elem holds the
	// element type).
	KindCollection

	// KindQueryable is a queryable sequence of entities, such as the main
	// source of a query.
	KindQueryable

	// KindArray is an in-memory list of values, such as the argument of
	// Contains or an array literal.
	KindArray

	// KindStruct is an anonymous or named projection type.
	KindStruct
)

var kindNames = map[Kind]string{
	KindUnknown:    "unknown",
	KindBool:       "bool",
	KindInt:        "int",
	KindFloat:      "float",
	KindDecimal:    "decimal",
	KindString:     "string",
	KindTime:       "time",
	KindDuration:   "duration",
	KindBytes:      "bytes",
	KindEntity:     "entity",
	KindInterface:  "interface",
	KindCollection: "collection",
	KindQueryable:  "queryable",
	KindArray:      "array",
	KindStruct:     "struct",
}

// String returns the lower-case kind name.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind returns the Kind for a name produced by Kind.String.
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return k, true
		}
	}
	return KindUnknown, false
}

// Type describes the static type of a query-model expression or a mapped
// property.
type Type struct {
	Kind Kind

	// Name is the entity, interface or struct name for KindEntity,
	// KindInterface and KindStruct.
	Name string

	// Elem is the element type for KindCollection, KindQueryable and
	// KindArray.
	Elem *Type

	// Nullable marks pointer or optional scalars.
	Nullable bool
}

func Unknown() Type  { return Type{Kind: KindUnknown} }
func Bool() Type     { return Type{Kind: KindBool} }
func Int() Type      { return Type{Kind: KindInt} }
func Float() Type    { return Type{Kind: KindFloat} }
func Decimal() Type  { return Type{Kind: KindDecimal} }
func String() Type   { return Type{Kind: KindString} }
func Time() Type     { return Type{Kind: KindTime} }
func Duration() Type { return Type{Kind: KindDuration} }
func Bytes() Type    { return Type{Kind: KindBytes} }

// Entity returns the type of the named mapped entity.
func Entity(name string) Type { return Type{Kind: KindEntity, Name: name} }

// Interface returns the type of the named interface.
func Interface(name string) Type { return Type{Kind: KindInterface, Name: name} }

// Struct returns a projection type.
func Struct(name string) Type { return Type{Kind: KindStruct, Name: name} }

// CollectionOf returns a navigation collection of elem.
func CollectionOf(elem Type) Type { return Type{Kind: KindCollection, Elem: &elem} }

// QueryableOf returns a queryable sequence of elem.
func QueryableOf(elem Type) Type { return Type{Kind: KindQueryable, Elem: &elem} }

// ArrayOf returns an in-memory list of elem.
func ArrayOf(elem Type) Type { return Type{Kind: KindArray, Elem: &elem} }

// AsNullable returns a copy of t marked nullable.
func (t Type) AsNullable() Type {
	t.Nullable = true
	return t
}

// IsBoolean reports whether t is a boolean type.
func (t Type) IsBoolean() bool { return t.Kind == KindBool }

// IsText reports whether t is a string type.
func (t Type) IsText() bool { return t.Kind == KindString }

// IsTime reports whether t is a date/time type.
func (t Type) IsTime() bool { return t.Kind == KindTime }

// IsNumeric reports whether t is an integer, float or decimal type.
func (t Type) IsNumeric() bool {
	return t.Kind == KindInt || t.Kind == KindFloat || t.Kind == KindDecimal
}

// IsEntity reports whether t is a mapped entity type.
func (t Type) IsEntity() bool { return t.Kind == KindEntity }

// IsSequence reports whether t holds elements (collection, queryable, array).
func (t Type) IsSequence() bool {
	return t.Kind == KindCollection || t.Kind == KindQueryable || t.Kind == KindArray
}

// ElemType returns the element type, or Unknown when t has none.
func (t Type) ElemType() Type {
	if t.Elem == nil {
		return Unknown()
	}
	return *t.Elem
}

// String renders t for diagnostics, e.g. "entity(Book)" or "collection(entity(Book))".
func (t Type) String() string {
	var s string
	switch t.Kind {
	case KindEntity, KindInterface, KindStruct:
		s = fmt.Sprintf("%s(%s)", t.Kind, t.Name)
	case KindCollection, KindQueryable, KindArray:
		s = fmt.Sprintf("%s(%s)", t.Kind, t.ElemType())
	default:
		s = t.Kind.String()
	}
	if t.Nullable {
		s += "?"
	}
	return s
}
