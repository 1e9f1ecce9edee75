package mapping

import "github.com/andrewjk/Watsonia.Data-sub000/internal/ir"

// PropertyKind classifies a mapped property.
type PropertyKind int

const (
	// Scalar is a plain column.
	Scalar PropertyKind = iota
	// RelatedItem is a navigation to one related entity, stored as a foreign
	// key column on the owner's table.
	RelatedItem
	// RelatedCollection is a navigation to many related entities whose
	// foreign key column lives on the element's table.
	RelatedCollection
)

func (k PropertyKind) String() string {
	switch k {
	case RelatedItem:
		return "item"
	case RelatedCollection:
		return "collection"
	default:
		return "scalar"
	}
}

// Property is one mapped member of an entity.
type Property struct {
	Name string
	Kind PropertyKind
	Type ir.Type

	// Column is the column name of a Scalar property. For a RelatedItem it is
	// the foreign key column on the owner's table. Empty for collections.
	Column string

	// Related names the target entity of a RelatedItem or RelatedCollection.
	Related string

	// ForeignKey is the foreign key column: on the owner's table for a
	// RelatedItem, on the element's table for a RelatedCollection.
	ForeignKey string

	PrimaryKey bool
}

// EntitySpec declares an entity without a Go type. Define registers it.
type EntitySpec struct {
	Name       string
	Table      string
	PrimaryKey string
	Properties []Property
}

// Provider answers mapping questions by entity and property name. Every
// method that can fail returns an ir MAPPING_RESOLUTION error.
type Provider interface {
	TableName(entity string) (string, error)
	ColumnName(entity, property string) (string, error)
	PrimaryKeyColumnName(entity string) (string, error)

	// ForeignKeyColumnName returns the foreign key column behind a related
	// item or related collection property.
	ForeignKeyColumnName(entity, property string) (string, error)

	// ForeignKeyColumnNameFor returns the column on related's table that
	// references owner.
	ForeignKeyColumnNameFor(owner, related string) (string, error)

	IsRelatedItem(entity, property string) bool
	IsRelatedCollection(entity, property string) (bool, string)
	ShouldMapType(entity string) bool

	// Properties returns the entity's mapped properties in mapping order.
	Properties(entity string) ([]Property, error)

	// PrimaryKeyValue returns the primary key of an entity instance.
	PrimaryKeyValue(entity string, value any) (any, error)
}

// Accessor reads and writes entity instances.
type Accessor interface {
	Get(item any, property string) (any, error)
	Set(item any, property string, value any) error

	// ColumnValue returns the value an item holds for a mapped column. A
	// foreign key column with no scalar property reads the related item's
	// primary key.
	ColumnValue(item any, column string) (any, error)

	PrimaryKey(item any) (any, error)
	NewItem(entity string) (any, error)

	// NewCollection returns a typed collection holding items, suitable for
	// assigning to a RelatedCollection property of the owning entity.
	NewCollection(entity string, items []any) (any, error)

	// SetColumn assigns a database value to the property mapped to column.
	SetColumn(item any, column string, value any) error
}
