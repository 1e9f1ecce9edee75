package eager

import (
	"slices"
	"strings"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/mapping"
)

// hop is one navigation step of the include plan. Hops shared by several
// paths appear once; their children are the next steps of those paths.
type hop struct {
	path       string
	property   string
	owner      string
	related    string
	collection bool

	// fk is the foreign key column: on the related table for a
	// collection, on the owner table for an item.
	fk string

	ownerTable   string
	ownerPK      string
	relatedTable string
	relatedPK    string

	children []*hop
}

// normalizePaths removes duplicates and every path that is a strict
// segment prefix of another path, keeping first-occurrence order.
func normalizePaths(paths []string) ([]string, error) {
	var unique []string
	for _, p := range paths {
		if p == "" || slices.Contains(strings.Split(p, "."), "") {
			return nil, ir.NewMappingResolutionError(p, "include path has an empty segment")
		}
		if !slices.Contains(unique, p) {
			unique = append(unique, p)
		}
	}

	out := make([]string, 0, len(unique))
	for _, p := range unique {
		covered := slices.ContainsFunc(unique, func(q string) bool {
			return strings.HasPrefix(q, p+".")
		})
		if !covered {
			out = append(out, p)
		}
	}
	return out, nil
}

// plan resolves every segment of paths, starting at root, into a tree of
// hops.
func plan(root string, paths []string, provider mapping.Provider) ([]*hop, error) {
	var roots []*hop
	for _, p := range paths {
		owner := root
		level := &roots
		segments := strings.Split(p, ".")
		for i, seg := range segments {
			path := strings.Join(segments[:i+1], ".")
			h := findHop(*level, seg)
			if h == nil {
				var err error
				h, err = resolveHop(owner, seg, path, provider)
				if err != nil {
					return nil, err
				}
				*level = append(*level, h)
			}
			owner = h.related
			level = &h.children
		}
	}
	return roots, nil
}

func findHop(hops []*hop, property string) *hop {
	for _, h := range hops {
		if h.property == property {
			return h
		}
	}
	return nil
}

// resolveHop looks up one navigation segment on owner.
func resolveHop(owner, property, path string, provider mapping.Provider) (*hop, error) {
	props, err := provider.Properties(owner)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(props, func(p mapping.Property) bool { return p.Name == property })
	if i < 0 {
		return nil, ir.NewMappingResolutionError(path, "%s has no property %s", owner, property)
	}
	prop := props[i]
	if prop.Kind == mapping.Scalar {
		return nil, ir.NewMappingResolutionError(path, "%s.%s is not a navigation property", owner, property)
	}

	h := &hop{
		path:       path,
		property:   property,
		owner:      owner,
		related:    prop.Related,
		collection: prop.Kind == mapping.RelatedCollection,
	}
	if h.fk, err = provider.ForeignKeyColumnName(owner, property); err != nil {
		return nil, err
	}
	if h.ownerTable, err = provider.TableName(owner); err != nil {
		return nil, err
	}
	if h.ownerPK, err = provider.PrimaryKeyColumnName(owner); err != nil {
		return nil, err
	}
	if h.relatedTable, err = provider.TableName(h.related); err != nil {
		return nil, err
	}
	if h.relatedPK, err = provider.PrimaryKeyColumnName(h.related); err != nil {
		return nil, err
	}

	// Stitching a collection reads the foreign key back off each loaded
	// element, so the element entity must map that column.
	if h.collection {
		related, err := provider.Properties(h.related)
		if err != nil {
			return nil, err
		}
		mapped := slices.ContainsFunc(related, func(p mapping.Property) bool {
			return (p.Kind == mapping.Scalar && p.Column == h.fk) ||
				(p.Kind == mapping.RelatedItem && p.ForeignKey == h.fk)
		})
		if !mapped {
			return nil, ir.NewMappingResolutionError(path, "%s does not map foreign key column %s", h.related, h.fk)
		}
	}
	return h, nil
}
