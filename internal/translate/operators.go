package translate

import (
	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/queryir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/querymodel"
)

func (t *translator) resultOperator(sel *queryir.Select, model *querymodel.QueryModel, op querymodel.ResultOperator) error {
	switch op := op.(type) {
	case *querymodel.Any:
		sel.IsAny = true

	case *querymodel.All:
		item, err := t.condition(op.Predicate)
		if err != nil {
			return err
		}
		sel.IsAll = true
		sel.AddCondition(item.Negate(), queryir.And)

	case *querymodel.First:
		sel.SetLimit(1)

	case *querymodel.Last:
		if len(sel.OrderByFields) == 0 {
			return ir.NewAmbiguousOrderingError("Last")
		}
		for i := range sel.OrderByFields {
			sel.OrderByFields[i].Direction = sel.OrderByFields[i].Direction.Reverse()
		}
		sel.SetLimit(1)

	case *querymodel.Count, *querymodel.LongCount:
		name := "Count"
		if _, ok := op.(*querymodel.LongCount); ok {
			name = "LongCount"
		}
		switch len(sel.SourceFields) {
		case 0:
			sel.SourceFields = []queryir.Node{&queryir.Aggregate{
				Kind:  queryir.AggregateCount,
				Field: &queryir.Column{Name: "*", Type: ir.Unknown()},
			}}
		case 1:
			sel.SourceFields = []queryir.Node{&queryir.Aggregate{Kind: queryir.AggregateCount, Field: sel.SourceFields[0]}}
		default:
			return ir.NewArityError(name, "at most one", len(sel.SourceFields))
		}

	case *querymodel.Sum:
		return aggregate(sel, "Sum", queryir.AggregateSum)
	case *querymodel.Min:
		return aggregate(sel, "Min", queryir.AggregateMin)
	case *querymodel.Max:
		return aggregate(sel, "Max", queryir.AggregateMax)
	case *querymodel.Average:
		return aggregate(sel, "Average", queryir.AggregateAverage)

	case *querymodel.Distinct:
		sel.IsDistinct = true

	case *querymodel.Take:
		n, err := constantCount("Take", op.Count)
		if err != nil {
			return err
		}
		sel.SetLimit(n)

	case *querymodel.Skip:
		n, err := constantCount("Skip", op.Count)
		if err != nil {
			return err
		}
		sel.StartIndex = n

	case *querymodel.Contains:
		// item in (query) as a whole-query existence test
		item, err := t.translate(op.Item)
		if err != nil {
			return err
		}
		field, err := t.projectedKey(sel, model)
		if err != nil {
			return err
		}
		sel.IsAny = true
		sel.AddCondition(queryir.NewCondition(field, queryir.Equals, item), queryir.And)

	case *querymodel.Include:
		sel.AddInclude(op.Path)

	default:
		return ir.NewUnsupportedExpressionError("result operator", "unsupported result operator %T", op)
	}
	return nil
}

func aggregate(sel *queryir.Select, name string, kind queryir.AggregateKind) error {
	if len(sel.SourceFields) != 1 {
		return ir.NewArityError(name, "exactly one", len(sel.SourceFields))
	}
	sel.SourceFields = []queryir.Node{&queryir.Aggregate{Kind: kind, Field: sel.SourceFields[0]}}
	return nil
}

// constantCount reads the count of Take or Skip, which must be a
// non-negative integer constant.
func constantCount(operator string, e querymodel.Expr) (int, error) {
	c, ok := e.(*querymodel.Constant)
	if !ok {
		return 0, ir.NewInvalidArgumentError(operator, "count must be a constant, got %s", querymodel.Describe(e))
	}
	key, ok := ir.Key(c.Value)
	n, isInt := key.(int64)
	if !ok || !isInt || n < 0 {
		return 0, ir.NewInvalidArgumentError(operator, "count must be a non-negative integer, got %v", c.Value)
	}
	return int(n), nil
}

// projectedKey is the single field the query yields: its explicit
// projection, or the primary key of the main source.
func (t *translator) projectedKey(sel *queryir.Select, model *querymodel.QueryModel) (queryir.Node, error) {
	switch len(sel.SourceFields) {
	case 0:
		return t.translate(querymodel.Ref(model.MainFrom))
	case 1:
		return sel.SourceFields[0], nil
	}
	return nil, ir.NewArityError("Contains", "exactly one", len(sel.SourceFields))
}
