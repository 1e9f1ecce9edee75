package mapping

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
)

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	scannerType  = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
)

type tableNamer interface {
	TableName() string
}

// reflectEntity builds the mapping of struct type t.
func reflectEntity(t reflect.Type) (*entityInfo, error) {
	if t.Kind() != reflect.Struct {
		return nil, ir.NewMappingResolutionError(t.String(), "can only map struct types")
	}

	info := &entityInfo{
		name:   t.Name(),
		table:  t.Name(),
		goType: t,
		fields: make(map[string][]int),
	}
	if tn, ok := reflect.New(t).Interface().(tableNamer); ok {
		info.table = tn.TableName()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() || field.Anonymous {
			continue
		}
		opts, err := parseORMTag(field.Tag.Get("orm"))
		if err != nil {
			return nil, ir.NewMappingResolutionError(info.name+"."+field.Name, "%v", err)
		}
		if opts.skip {
			continue
		}

		p := Property{Name: field.Name}
		if related, kind, ok := navigation(field.Type); ok {
			p.Kind = kind
			p.Related = related
			if kind == RelatedItem {
				p.ForeignKey = opts.fk
				if p.ForeignKey == "" {
					p.ForeignKey = field.Name + "ID"
				}
				p.Column = p.ForeignKey
				p.Type = ir.Entity(related)
			} else {
				p.ForeignKey = opts.fk
				if p.ForeignKey == "" {
					p.ForeignKey = info.name + "ID"
				}
				p.Type = ir.CollectionOf(ir.Entity(related))
			}
		} else {
			p.Column = field.Name
			if col := field.Tag.Get("db"); col != "" {
				p.Column = col
			}
			p.Type = typeOf(field.Type)
		}

		if opts.pk {
			if info.pk != "" && info.pk != field.Name {
				return nil, ir.NewMappingResolutionError(info.name, "more than one primary key")
			}
			info.pk = field.Name
		}
		info.props = append(info.props, p)
		info.fields[p.Name] = field.Index
	}

	if info.pk == "" {
		if _, ok := info.fields["ID"]; ok {
			info.pk = "ID"
		}
	}
	if info.pk == "" {
		return nil, ir.NewMappingResolutionError(info.name, "no primary key: tag a field `orm:\"pk\"` or name it ID")
	}
	for i := range info.props {
		info.props[i].PrimaryKey = info.props[i].Name == info.pk
	}
	return info, nil
}

type ormTag struct {
	skip bool
	pk   bool
	fk   string
}

func parseORMTag(tag string) (ormTag, error) {
	var opts ormTag
	if tag == "" {
		return opts, nil
	}
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "-":
			opts.skip = true
		case part == "pk":
			opts.pk = true
		case strings.HasPrefix(part, "fk="):
			opts.fk = strings.TrimPrefix(part, "fk=")
			if opts.fk == "" {
				return opts, fmt.Errorf("empty foreign key in orm tag")
			}
		default:
			return opts, fmt.Errorf("unexpected orm tag option %q", part)
		}
	}
	return opts, nil
}

// navigation reports whether t is a pointer to an entity struct (a related
// item) or a slice of entity structs (a related collection).
func navigation(t reflect.Type) (string, PropertyKind, bool) {
	switch t.Kind() {
	case reflect.Pointer:
		if isEntityStruct(t.Elem()) {
			return t.Elem().Name(), RelatedItem, true
		}
	case reflect.Slice:
		elem := t.Elem()
		if elem.Kind() == reflect.Pointer {
			elem = elem.Elem()
		}
		if isEntityStruct(elem) {
			return elem.Name(), RelatedCollection, true
		}
	}
	return "", Scalar, false
}

func isEntityStruct(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t != timeType && !reflect.PointerTo(t).Implements(scannerType)
}

// typeOf describes a scalar Go type.
func typeOf(t reflect.Type) ir.Type {
	if t.Kind() == reflect.Pointer {
		return typeOf(t.Elem()).AsNullable()
	}
	switch {
	case t == timeType:
		return ir.Time()
	case t == durationType:
		return ir.Duration()
	}
	switch t.Kind() {
	case reflect.Bool:
		return ir.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return ir.Int()
	case reflect.Float32, reflect.Float64:
		return ir.Float()
	case reflect.String:
		return ir.String()
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return ir.Bytes()
		}
	case reflect.Array:
		// Fixed-size identifiers such as UUIDs are stored as text.
		return ir.String()
	}
	return ir.Unknown()
}

// assign stores a database or caller value into dst, converting between the
// representations the SQLite driver produces and the field's type.
func assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	src := reflect.ValueOf(v)
	if src.Type().AssignableTo(dst.Type()) {
		dst.Set(src)
		return nil
	}
	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), v); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}
	if src.Kind() == reflect.Pointer {
		if src.IsNil() {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		return assign(dst, src.Elem().Interface())
	}
	if dst.CanAddr() {
		if s, ok := dst.Addr().Interface().(sql.Scanner); ok {
			return s.Scan(v)
		}
	}

	switch dst.Kind() {
	case reflect.Slice:
		if src.Kind() == reflect.Slice && dst.Type().Elem().Kind() != reflect.Uint8 {
			out := reflect.MakeSlice(dst.Type(), src.Len(), src.Len())
			for i := 0; i < src.Len(); i++ {
				if err := assign(out.Index(i), src.Index(i).Interface()); err != nil {
					return err
				}
			}
			dst.Set(out)
			return nil
		}
	case reflect.Bool:
		if src.CanInt() {
			dst.SetBool(src.Int() != 0)
			return nil
		}
	case reflect.String:
		if b, ok := v.([]byte); ok {
			dst.SetString(string(b))
			return nil
		}
	}

	if dst.Type() == timeType {
		if s, ok := v.(string); ok {
			t, err := parseTime(s)
			if err != nil {
				return err
			}
			dst.Set(reflect.ValueOf(t))
			return nil
		}
	}
	if numeric(src.Kind()) && numeric(dst.Kind()) {
		dst.Set(src.Convert(dst.Type()))
		return nil
	}
	if src.Kind() == reflect.String && dst.Kind() == reflect.String {
		dst.SetString(src.String())
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", v, dst.Type())
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}
