package translate

import (
	"golang.org/x/text/cases"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/mapping"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/queryir"
)

// ExpandFields replaces an empty field list with one column per mapped
// scalar or foreign key property of entity, primary key first, in mapping
// order. Column names are de-duplicated case-insensitively. A sub-select
// source is expanded first.
func ExpandFields(sel *queryir.Select, entity string, provider mapping.Provider) error {
	if inner, ok := sel.Source.(*queryir.Select); ok {
		if err := ExpandFields(inner, entity, provider); err != nil {
			return err
		}
	}
	if len(sel.SourceFields) > 0 {
		return nil
	}

	table, err := provider.TableName(entity)
	if err != nil {
		return err
	}
	if inner, ok := sel.Source.(*queryir.Select); ok && inner.Alias != "" {
		table = inner.Alias
	}
	pk, err := provider.PrimaryKeyColumnName(entity)
	if err != nil {
		return err
	}
	props, err := provider.Properties(entity)
	if err != nil {
		return err
	}

	fold := cases.Fold()
	seen := map[string]bool{fold.String(pk): true}
	fields := []queryir.Node{&queryir.Column{Table: table, Name: pk, Type: ir.Unknown()}}
	for _, p := range props {
		if p.Kind == mapping.RelatedCollection {
			continue
		}
		name, typ := p.Column, p.Type
		if p.Kind == mapping.RelatedItem {
			name, typ = p.ForeignKey, ir.Unknown()
		}
		key := fold.String(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		fields = append(fields, &queryir.Column{Table: table, Name: name, Type: typ})
	}
	for _, p := range props {
		if p.PrimaryKey {
			fields[0].(*queryir.Column).Type = p.Type
		}
	}

	sel.SourceFields = fields
	return nil
}
