package mapping

import (
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
)

// Registry is a Provider and Accessor over registered Go types and defined
// schema entities. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]*entityInfo
	byType   map[reflect.Type]*entityInfo
}

type entityInfo struct {
	name  string
	table string
	pk    string
	props []Property

	// goType is the struct type for registered types, nil for records.
	goType reflect.Type
	fields map[string][]int
}

var (
	_ Provider = (*Registry)(nil)
	_ Accessor = (*Registry)(nil)
)

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[string]*entityInfo),
		byType:   make(map[reflect.Type]*entityInfo),
	}
}

// Register maps the struct types of values. Each value is a struct or a
// pointer to a struct; the entity name is the struct's type name.
func (r *Registry) Register(values ...any) error {
	for _, v := range values {
		if v == nil {
			return ir.NewMappingResolutionError("", "cannot register nil value")
		}
		t := reflect.TypeOf(v)
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}

		r.mu.RLock()
		_, found := r.byType[t]
		r.mu.RUnlock()
		if found {
			continue
		}

		info, err := reflectEntity(t)
		if err != nil {
			return err
		}

		r.mu.Lock()
		r.entities[info.name] = info
		r.byType[t] = info
		r.mu.Unlock()
	}
	return nil
}

// Define maps a schema entity whose instances are Records. Missing columns,
// foreign keys and types are filled in by convention.
func (r *Registry) Define(spec EntitySpec) error {
	if spec.Name == "" {
		return ir.NewMappingResolutionError("", "entity name is required")
	}
	info := &entityInfo{
		name:  spec.Name,
		table: spec.Table,
		pk:    spec.PrimaryKey,
	}
	if info.table == "" {
		info.table = spec.Name
	}
	if info.pk == "" {
		info.pk = "ID"
	}

	for _, p := range spec.Properties {
		switch p.Kind {
		case Scalar:
			if p.Column == "" {
				p.Column = p.Name
			}
		case RelatedItem:
			if p.ForeignKey == "" {
				p.ForeignKey = p.Name + "ID"
			}
			p.Column = p.ForeignKey
			p.Type = ir.Entity(p.Related)
		case RelatedCollection:
			if p.ForeignKey == "" {
				p.ForeignKey = spec.Name + "ID"
			}
			p.Column = ""
			p.Type = ir.CollectionOf(ir.Entity(p.Related))
		}
		p.PrimaryKey = p.Name == info.pk
		info.props = append(info.props, p)
	}
	if _, ok := info.property(info.pk); !ok {
		return ir.NewMappingResolutionError(spec.Name, "primary key %s is not a property", info.pk)
	}

	r.mu.Lock()
	r.entities[info.name] = info
	r.mu.Unlock()
	return nil
}

// Entities returns the mapped entity names in sorted order.
func (r *Registry) Entities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// PropertyType returns the declared type of a property.
func (r *Registry) PropertyType(entity, property string) (ir.Type, bool) {
	info, err := r.lookup(entity)
	if err != nil {
		return ir.Type{}, false
	}
	p, ok := info.property(property)
	if !ok {
		return ir.Type{}, false
	}
	return p.Type, true
}

func (r *Registry) lookup(entity string) (*entityInfo, error) {
	r.mu.RLock()
	info, ok := r.entities[entity]
	r.mu.RUnlock()
	if !ok {
		return nil, ir.NewMappingResolutionError(entity, "entity is not mapped")
	}
	return info, nil
}

func (r *Registry) lookupProperty(entity, property string) (*entityInfo, Property, error) {
	info, err := r.lookup(entity)
	if err != nil {
		return nil, Property{}, err
	}
	p, ok := info.property(property)
	if !ok {
		return nil, Property{}, ir.NewMappingResolutionError(entity+"."+property, "property is not mapped")
	}
	return info, p, nil
}

func (e *entityInfo) property(name string) (Property, bool) {
	for _, p := range e.props {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// columnProperty finds the property stored in column: a scalar mapped to it
// first, then a related item whose foreign key it is.
func (e *entityInfo) columnProperty(column string) (Property, bool) {
	for _, p := range e.props {
		if p.Kind == Scalar && strings.EqualFold(p.Column, column) {
			return p, true
		}
	}
	for _, p := range e.props {
		if p.Kind == RelatedItem && strings.EqualFold(p.ForeignKey, column) {
			return p, true
		}
	}
	return Property{}, false
}

func (r *Registry) TableName(entity string) (string, error) {
	info, err := r.lookup(entity)
	if err != nil {
		return "", err
	}
	return info.table, nil
}

func (r *Registry) ColumnName(entity, property string) (string, error) {
	_, p, err := r.lookupProperty(entity, property)
	if err != nil {
		return "", err
	}
	if p.Kind == RelatedCollection {
		return "", ir.NewMappingResolutionError(entity+"."+property, "collection property has no column")
	}
	return p.Column, nil
}

func (r *Registry) PrimaryKeyColumnName(entity string) (string, error) {
	info, err := r.lookup(entity)
	if err != nil {
		return "", err
	}
	p, _ := info.property(info.pk)
	return p.Column, nil
}

func (r *Registry) ForeignKeyColumnName(entity, property string) (string, error) {
	_, p, err := r.lookupProperty(entity, property)
	if err != nil {
		return "", err
	}
	if p.Kind == Scalar {
		return "", ir.NewMappingResolutionError(entity+"."+property, "scalar property has no foreign key")
	}
	return p.ForeignKey, nil
}

func (r *Registry) ForeignKeyColumnNameFor(owner, related string) (string, error) {
	if _, err := r.lookup(owner); err != nil {
		return "", err
	}
	rel, err := r.lookup(related)
	if err != nil {
		return "", err
	}
	for _, p := range rel.props {
		if p.Kind == RelatedItem && p.Related == owner {
			return p.ForeignKey, nil
		}
	}
	info, _ := r.lookup(owner)
	for _, p := range info.props {
		if p.Kind == RelatedCollection && p.Related == related {
			return p.ForeignKey, nil
		}
	}
	return owner + "ID", nil
}

func (r *Registry) IsRelatedItem(entity, property string) bool {
	_, p, err := r.lookupProperty(entity, property)
	return err == nil && p.Kind == RelatedItem
}

func (r *Registry) IsRelatedCollection(entity, property string) (bool, string) {
	_, p, err := r.lookupProperty(entity, property)
	if err != nil || p.Kind != RelatedCollection {
		return false, ""
	}
	return true, p.Related
}

func (r *Registry) ShouldMapType(entity string) bool {
	_, err := r.lookup(entity)
	return err == nil
}

func (r *Registry) Properties(entity string) ([]Property, error) {
	info, err := r.lookup(entity)
	if err != nil {
		return nil, err
	}
	return slices.Clone(info.props), nil
}

func (r *Registry) PrimaryKeyValue(entity string, value any) (any, error) {
	name, err := r.EntityOf(value)
	if err != nil {
		return nil, err
	}
	if name != entity {
		return nil, ir.NewMappingResolutionError(entity, "value is a %s", name)
	}
	return r.PrimaryKey(value)
}
