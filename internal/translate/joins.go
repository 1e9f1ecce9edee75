package translate

import (
	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/mapping"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/queryir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/querymodel"
)

// AddImplicitJoins adds a LEFT OUTER JOIN for every related item reached
// through a member chain such as b.Author.Name in the model's where
// clauses, orderings, selector and All predicates. A table that is already
// the source or joined is not joined again.
func AddImplicitJoins(sel *queryir.Select, model *querymodel.QueryModel, provider mapping.Provider) error {
	root, err := entityName(model.MainFrom.ItemType, "")
	if err != nil {
		return err
	}

	var exprs []querymodel.Expr
	for _, w := range model.Wheres() {
		exprs = append(exprs, w.Predicate)
	}
	for _, o := range model.Orderings() {
		exprs = append(exprs, o.Expr)
	}
	if model.Select != nil && model.Select.Selector != nil {
		exprs = append(exprs, model.Select.Selector)
	}
	for _, op := range model.ResultOperators {
		if all, ok := op.(*querymodel.All); ok {
			exprs = append(exprs, all.Predicate)
		}
	}

	for _, e := range exprs {
		var err error
		querymodel.Walk(e, func(x querymodel.Expr) bool {
			if m, ok := x.(*querymodel.Member); ok {
				err = joinChain(sel, m.Expr, root, provider)
			}
			return err == nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// joinChain joins every related item along a member chain, innermost first,
// so that b.Author.Publisher.Name joins Author before Publisher.
func joinChain(sel *queryir.Select, e querymodel.Expr, root string, provider mapping.Provider) error {
	nav, ok := e.(*querymodel.Member)
	if !ok || nav.Expr == nil || !nav.Type.IsEntity() {
		return nil
	}
	if err := joinChain(sel, nav.Expr, root, provider); err != nil {
		return err
	}
	return addRelatedJoin(sel, nav, root, provider)
}

// addRelatedJoin joins the table of the related item nav to its owner's
// table.
func addRelatedJoin(sel *queryir.Select, nav *querymodel.Member, root string, provider mapping.Provider) error {
	owner, err := entityName(nav.Expr.ResultType(), root)
	if err != nil {
		return err
	}
	if !provider.IsRelatedItem(owner, nav.Name) {
		return nil
	}
	related := nav.Type.Name

	table, err := provider.TableName(related)
	if err != nil {
		return err
	}
	if sel.HasJoin(table) {
		return nil
	}
	ownerTable, err := provider.TableName(owner)
	if err != nil {
		return err
	}
	fk, err := provider.ForeignKeyColumnName(owner, nav.Name)
	if err != nil {
		return err
	}
	pk, err := provider.PrimaryKeyColumnName(related)
	if err != nil {
		return err
	}

	sel.AddJoin(&queryir.Join{
		Left:        sel.Source,
		Right:       queryir.NewTable(table),
		LeftColumn:  &queryir.Column{Table: ownerTable, Name: fk, Type: ir.Unknown()},
		RightColumn: &queryir.Column{Table: table, Name: pk, Type: ir.Unknown()},
		Kind:        queryir.LeftOuterJoin,
	})
	return nil
}
