package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/mapping"
)

// CompileSchema compiles every entity under the top-level "entity" field
// of v, in declaration order.
//
//	entity: Book: {
//		table: "Book"          // optional, defaults to the entity name
//		key:   "ID"            // optional, defaults to ID
//		properties: {
//			ID:        int
//			Title:     string
//			Price:     float | null
//			Published: "time"
//			Author:    {item: "Author"}
//			Notes:     {type: "string", column: "notes_text"}
//		}
//	}
//	entity: Author: properties: {
//		ID:    int
//		Books: {collection: "Book", fk: "AuthorID"}
//	}
func CompileSchema(v cue.Value) ([]mapping.EntitySpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	entities := v.LookupPath(cue.ParsePath("entity"))
	if !entities.Exists() {
		return nil, &CompileError{
			Field:   "entity",
			Message: "no entities defined",
			Pos:     v.Pos(),
		}
	}

	iter, err := entities.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []mapping.EntitySpec
	for iter.Next() {
		spec, err := CompileEntity(iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, *spec)
	}
	return specs, nil
}

// CompileEntity parses one entity struct into an EntitySpec.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the entity struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`entity: Author: properties: {...}`)
//	spec, err := CompileEntity(v.LookupPath(cue.ParsePath("entity.Author")))
func CompileEntity(v cue.Value) (*mapping.EntitySpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &mapping.EntitySpec{}

	// Entity name comes from the struct label
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	var err error
	if spec.Table, err = optionalString(v, "table"); err != nil {
		return nil, err
	}
	if spec.PrimaryKey, err = optionalString(v, "key"); err != nil {
		return nil, err
	}

	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if !propsVal.Exists() {
		return nil, &CompileError{
			Field:   "properties",
			Message: "properties are required",
			Pos:     v.Pos(),
		}
	}

	iter, err := propsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		prop, err := compileProperty(spec.Name, iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		spec.Properties = append(spec.Properties, prop)
	}
	if len(spec.Properties) == 0 {
		return nil, &CompileError{
			Field:   "properties",
			Message: "at least one property is required",
			Pos:     propsVal.Pos(),
		}
	}

	return spec, nil
}

// compileProperty parses a property given either as a type (int, string,
// "time") or as a struct with one of item, collection or type.
func compileProperty(entity, name string, v cue.Value) (mapping.Property, error) {
	prop := mapping.Property{Name: name}
	field := fmt.Sprintf("%s.%s", entity, name)

	if v.IncompleteKind() != cue.StructKind {
		t, err := scalarType(field, v)
		if err != nil {
			return prop, err
		}
		prop.Type = t
		return prop, nil
	}

	item, err := optionalString(v, "item")
	if err != nil {
		return prop, err
	}
	collection, err := optionalString(v, "collection")
	if err != nil {
		return prop, err
	}
	typeName, err := optionalString(v, "type")
	if err != nil {
		return prop, err
	}
	if prop.ForeignKey, err = optionalString(v, "fk"); err != nil {
		return prop, err
	}

	set := 0
	for _, s := range []string{item, collection, typeName} {
		if s != "" {
			set++
		}
	}
	if set != 1 {
		return prop, &CompileError{
			Field:   field,
			Message: "exactly one of item, collection or type is required",
			Pos:     v.Pos(),
		}
	}

	switch {
	case item != "":
		prop.Kind = mapping.RelatedItem
		prop.Related = item
	case collection != "":
		prop.Kind = mapping.RelatedCollection
		prop.Related = collection
	default:
		kind, ok := ir.ParseKind(typeName)
		if !ok || !scalarKind(kind) {
			return prop, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("unsupported property type %q", typeName),
				Pos:     v.Pos(),
			}
		}
		prop.Type = ir.Type{Kind: kind}
		if prop.Column, err = optionalString(v, "column"); err != nil {
			return prop, err
		}
		nullable := v.LookupPath(cue.ParsePath("nullable"))
		if nullable.Exists() {
			b, err := nullable.Bool()
			if err != nil {
				return prop, formatCUEError(err)
			}
			prop.Type.Nullable = b
		}
		if prop.ForeignKey != "" {
			return prop, &CompileError{
				Field:   field,
				Message: "fk is only valid on item and collection properties",
				Pos:     v.Pos(),
			}
		}
	}
	return prop, nil
}

// scalarType converts a CUE type to an ir.Type. A concrete string names
// the type ("time", "decimal"); anything else is read from the value's
// kind. A disjunction with null marks the type nullable.
func scalarType(field string, v cue.Value) (ir.Type, error) {
	kind := v.IncompleteKind()
	nullable := kind != cue.NullKind && kind&cue.NullKind != 0
	kind &^= cue.NullKind

	if kind == cue.ListKind {
		return ir.Type{}, &CompileError{
			Field:   field,
			Message: "list properties are not supported",
			Pos:     v.Pos(),
		}
	}
	if v.IsConcrete() {
		name, err := v.String()
		if err != nil {
			return ir.Type{}, &CompileError{
				Field:   field,
				Message: "property must be a type, not a value",
				Pos:     v.Pos(),
			}
		}
		k, ok := ir.ParseKind(name)
		if !ok || !scalarKind(k) {
			return ir.Type{}, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("unsupported property type %q", name),
				Pos:     v.Pos(),
			}
		}
		return ir.Type{Kind: k}, nil
	}

	var t ir.Type
	switch kind {
	case cue.StringKind:
		t = ir.String()
	case cue.IntKind:
		t = ir.Int()
	case cue.FloatKind, cue.NumberKind:
		t = ir.Float()
	case cue.BoolKind:
		t = ir.Bool()
	case cue.BytesKind:
		t = ir.Bytes()
	default:
		return ir.Type{}, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("unsupported type kind: %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
	if nullable {
		t = t.AsNullable()
	}
	return t, nil
}

func scalarKind(k ir.Kind) bool {
	switch k {
	case ir.KindBool, ir.KindInt, ir.KindFloat, ir.KindDecimal, ir.KindString,
		ir.KindTime, ir.KindDuration, ir.KindBytes:
		return true
	}
	return false
}

// optionalString returns the string at path, or "" when it is absent.
func optionalString(v cue.Value, path string) (string, error) {
	f := v.LookupPath(cue.ParsePath(path))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
