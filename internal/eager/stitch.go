package eager

import (
	"fmt"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/mapping"
)

// stitch assigns the rows loaded for h to h's navigation on every parent.
func stitch(h *hop, parents, rows []any, accessor mapping.Accessor) error {
	if h.collection {
		return stitchCollection(h, parents, rows, accessor)
	}
	return stitchItem(h, parents, rows, accessor)
}

// stitchCollection gives every parent a collection of the rows whose
// foreign key equals the parent's primary key. Parents without matches get
// an empty collection, never nil.
func stitchCollection(h *hop, parents, rows []any, accessor mapping.Accessor) error {
	groups := make(map[any][]any)
	for _, row := range rows {
		fk, err := accessor.ColumnValue(row, h.fk)
		if err != nil {
			return fmt.Errorf("include %s: %w", h.path, err)
		}
		if k, ok := ir.Key(fk); ok {
			groups[k] = append(groups[k], row)
		}
	}

	for _, parent := range parents {
		pk, err := accessor.PrimaryKey(parent)
		if err != nil {
			return fmt.Errorf("include %s: %w", h.path, err)
		}
		var children []any
		if k, ok := ir.Key(pk); ok {
			children = groups[k]
		}
		coll, err := accessor.NewCollection(h.related, children)
		if err != nil {
			return fmt.Errorf("include %s: %w", h.path, err)
		}
		if err := accessor.Set(parent, h.property, coll); err != nil {
			return fmt.Errorf("include %s: %w", h.path, err)
		}
	}
	return nil
}

// stitchItem gives every parent the first row whose primary key equals the
// parent's foreign key, or nil.
func stitchItem(h *hop, parents, rows []any, accessor mapping.Accessor) error {
	byKey := make(map[any]any, len(rows))
	for _, row := range rows {
		pk, err := accessor.PrimaryKey(row)
		if err != nil {
			return fmt.Errorf("include %s: %w", h.path, err)
		}
		if k, ok := ir.Key(pk); ok {
			if _, dup := byKey[k]; !dup {
				byKey[k] = row
			}
		}
	}

	for _, parent := range parents {
		fk, err := accessor.ColumnValue(parent, h.fk)
		if err != nil {
			return fmt.Errorf("include %s: %w", h.path, err)
		}
		var related any
		if k, ok := ir.Key(fk); ok {
			related = byKey[k]
		}
		if err := accessor.Set(parent, h.property, related); err != nil {
			return fmt.Errorf("include %s: %w", h.path, err)
		}
	}
	return nil
}
