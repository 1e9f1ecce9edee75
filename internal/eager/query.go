package eager

import (
	"fmt"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/mapping"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/queryir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/translate"
)

// hopQuery is the statement that loads one hop, and the name its rows'
// table goes by inside that statement.
type hopQuery struct {
	sel *queryir.Select
	ref string
}

// sourceRef returns the name columns of sel's main source are qualified
// with.
func sourceRef(sel *queryir.Select) (string, error) {
	switch s := sel.Source.(type) {
	case *queryir.Table:
		if s.Alias != "" {
			return s.Alias, nil
		}
		return s.Name, nil
	case *queryir.Select:
		if s.Alias == "" {
			return "", ir.NewInvalidArgumentError("base", "sub-select source has no alias")
		}
		return s.Alias, nil
	}
	return "", ir.NewInvalidArgumentError("base", "unsupported source %T", sel.Source)
}

// firstQuery builds the statement for a hop off the root entity. The base
// statement becomes an IN subquery that projects the key linking root rows
// to the hop's table, so the loaded rows belong to exactly the base result.
func firstQuery(base *queryir.Select, h *hop, provider mapping.Provider) (hopQuery, error) {
	ref, err := sourceRef(base)
	if err != nil {
		return hopQuery{}, err
	}

	inner := base.Clone()
	inner.IsAny, inner.IsAll = false, false
	inner.IncludePaths = nil
	inner.Alias = ""

	outer := queryir.NewSelect(queryir.NewTable(h.relatedTable))
	if h.collection {
		inner.SourceFields = []queryir.Node{queryir.NewColumn(ref, h.ownerPK)}
		outer.AddCondition(queryir.NewCondition(queryir.NewColumn(h.relatedTable, h.fk), queryir.IsIn, inner), queryir.And)
	} else {
		inner.SourceFields = []queryir.Node{queryir.NewColumn(ref, h.fk)}
		outer.AddCondition(queryir.NewCondition(queryir.NewColumn(h.relatedTable, h.relatedPK), queryir.IsIn, inner), queryir.And)
	}

	if err := translate.ExpandFields(outer, h.related, provider); err != nil {
		return hopQuery{}, err
	}
	return hopQuery{sel: outer, ref: h.relatedTable}, nil
}

// extendQuery builds the statement for a hop below another hop by joining
// the hop's table onto the parent hop's statement.
func extendQuery(parent hopQuery, h *hop, provider mapping.Provider) (hopQuery, error) {
	sel := parent.sel.Clone()
	sel.SourceFields = nil

	ref := h.relatedTable
	if tableInUse(sel, ref) {
		for n := 1; ; n++ {
			ref = fmt.Sprintf("%s_%d", h.relatedTable, n)
			if !tableInUse(sel, ref) {
				break
			}
		}
	}
	right := queryir.NewTable(h.relatedTable)
	if ref != h.relatedTable {
		right.Alias = ref
	}

	join := &queryir.Join{Left: sel.Source, Right: right, Kind: queryir.InnerJoin}
	if h.collection {
		join.LeftColumn = queryir.NewColumn(parent.ref, h.ownerPK)
		join.RightColumn = queryir.NewColumn(ref, h.fk)
	} else {
		join.LeftColumn = queryir.NewColumn(parent.ref, h.fk)
		join.RightColumn = queryir.NewColumn(ref, h.relatedPK)
	}
	sel.AddJoin(join)
	// Parents can share a related row, and rows reached through a shared
	// parent repeat once per path to it.
	sel.IsDistinct = true

	fields, err := columnsOf(h.related, ref, provider)
	if err != nil {
		return hopQuery{}, err
	}
	sel.SourceFields = fields
	return hopQuery{sel: sel, ref: ref}, nil
}

// tableInUse reports whether name already refers to a table in the FROM
// clause of sel.
func tableInUse(sel *queryir.Select, name string) bool {
	if ref, err := sourceRef(sel); err == nil && ref == name {
		return true
	}
	for _, j := range sel.SourceJoins {
		if j.Right == nil {
			continue
		}
		if j.Right.Alias == name || (j.Right.Alias == "" && j.Right.Name == name) {
			return true
		}
	}
	return false
}

// columnsOf returns entity's expanded field list qualified with ref.
func columnsOf(entity, ref string, provider mapping.Provider) ([]queryir.Node, error) {
	table, err := provider.TableName(entity)
	if err != nil {
		return nil, err
	}
	tmp := queryir.NewSelect(queryir.NewTable(table))
	if err := translate.ExpandFields(tmp, entity, provider); err != nil {
		return nil, err
	}
	for _, f := range tmp.SourceFields {
		if c, ok := f.(*queryir.Column); ok {
			c.Table = ref
		}
	}
	return tmp.SourceFields, nil
}
