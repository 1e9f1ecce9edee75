package mapping

import (
	"fmt"
	"reflect"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
)

// EntityOf returns the entity name of an instance.
func (r *Registry) EntityOf(item any) (string, error) {
	info, _, _, err := r.instance(item)
	if err != nil {
		return "", err
	}
	return info.name, nil
}

// instance resolves an item to its mapping and either its struct value or
// its record.
func (r *Registry) instance(item any) (*entityInfo, reflect.Value, *Record, error) {
	if rec, ok := item.(*Record); ok {
		if rec == nil {
			return nil, reflect.Value{}, nil, ir.NewMappingResolutionError("", "nil record")
		}
		info, err := r.lookup(rec.Entity)
		return info, reflect.Value{}, rec, err
	}
	if item == nil {
		return nil, reflect.Value{}, nil, ir.NewMappingResolutionError("", "nil item")
	}

	v := reflect.ValueOf(item)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, reflect.Value{}, nil, ir.NewMappingResolutionError(v.Type().String(), "nil item")
		}
		v = v.Elem()
	}

	r.mu.RLock()
	info, ok := r.byType[v.Type()]
	r.mu.RUnlock()
	if !ok {
		return nil, reflect.Value{}, nil, ir.NewMappingResolutionError(v.Type().String(), "type is not mapped")
	}
	return info, v, nil, nil
}

func (r *Registry) Get(item any, property string) (any, error) {
	info, v, rec, err := r.instance(item)
	if err != nil {
		return nil, err
	}
	if _, ok := info.property(property); !ok {
		return nil, ir.NewMappingResolutionError(info.name+"."+property, "property is not mapped")
	}
	if rec != nil {
		return rec.Values[property], nil
	}
	return v.FieldByIndex(info.fields[property]).Interface(), nil
}

func (r *Registry) Set(item any, property string, value any) error {
	info, v, rec, err := r.instance(item)
	if err != nil {
		return err
	}
	if _, ok := info.property(property); !ok {
		return ir.NewMappingResolutionError(info.name+"."+property, "property is not mapped")
	}
	if rec != nil {
		rec.Values[property] = value
		return nil
	}
	if !v.CanAddr() {
		return fmt.Errorf("set %s.%s: item must be a pointer", info.name, property)
	}
	if err := assign(v.FieldByIndex(info.fields[property]), value); err != nil {
		return fmt.Errorf("set %s.%s: %w", info.name, property, err)
	}
	return nil
}

func (r *Registry) ColumnValue(item any, column string) (any, error) {
	info, _, _, err := r.instance(item)
	if err != nil {
		return nil, err
	}
	p, ok := info.columnProperty(column)
	if !ok {
		return nil, ir.NewMappingResolutionError(info.name+"."+column, "column is not mapped")
	}
	value, err := r.Get(item, p.Name)
	if err != nil || p.Kind == Scalar {
		return value, err
	}
	if isNil(value) {
		return nil, nil
	}
	return r.PrimaryKey(value)
}

func (r *Registry) PrimaryKey(item any) (any, error) {
	info, _, _, err := r.instance(item)
	if err != nil {
		return nil, err
	}
	return r.Get(item, info.pk)
}

func (r *Registry) NewItem(entity string) (any, error) {
	info, err := r.lookup(entity)
	if err != nil {
		return nil, err
	}
	if info.goType == nil {
		return NewRecord(entity), nil
	}
	return reflect.New(info.goType).Interface(), nil
}

func (r *Registry) NewCollection(entity string, items []any) (any, error) {
	info, err := r.lookup(entity)
	if err != nil {
		return nil, err
	}
	if info.goType == nil {
		out := make([]*Record, 0, len(items))
		for _, it := range items {
			rec, ok := it.(*Record)
			if !ok {
				return nil, fmt.Errorf("collection of %s: got %T", entity, it)
			}
			out = append(out, rec)
		}
		return out, nil
	}

	elem := reflect.PointerTo(info.goType)
	out := reflect.MakeSlice(reflect.SliceOf(elem), 0, len(items))
	for _, it := range items {
		v := reflect.ValueOf(it)
		if v.Type() != elem {
			return nil, fmt.Errorf("collection of %s: got %T", entity, it)
		}
		out = reflect.Append(out, v)
	}
	return out.Interface(), nil
}

// SetColumn assigns a column value. A foreign key column with no scalar
// property sets the related item to a stub holding only its primary key.
func (r *Registry) SetColumn(item any, column string, value any) error {
	info, _, rec, err := r.instance(item)
	if err != nil {
		return err
	}
	p, ok := info.columnProperty(column)
	if !ok {
		return ir.NewMappingResolutionError(info.name+"."+column, "column is not mapped")
	}

	switch p.Kind {
	case RelatedItem:
		if value == nil {
			return r.Set(item, p.Name, nil)
		}
		stub, err := r.NewItem(p.Related)
		if err != nil {
			return err
		}
		related, _ := r.lookup(p.Related)
		if err := r.Set(stub, related.pk, value); err != nil {
			return err
		}
		return r.Set(item, p.Name, stub)
	default:
		if rec != nil {
			if b, ok := value.([]byte); ok && p.Type.IsText() {
				value = string(b)
			}
		}
		return r.Set(item, p.Name, value)
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
