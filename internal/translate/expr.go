package translate

import (
	"reflect"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/queryir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/querymodel"
)

// translate converts one expression into one node.
func (t *translator) translate(e querymodel.Expr) (queryir.Node, error) {
	switch x := e.(type) {
	case *querymodel.Constant:
		return t.constant(x)
	case *querymodel.SourceRef:
		return t.sourceRef(x)
	case *querymodel.Member:
		return t.member(x)
	case *querymodel.MethodCall:
		return t.methodCall(x)
	case *querymodel.Binary:
		return t.binary(x)
	case *querymodel.Unary:
		return t.unary(x)
	case *querymodel.Conditional:
		return t.conditional(x)
	case *querymodel.New:
		return t.newExpr(x)
	case *querymodel.NewArray:
		return t.newArray(x)
	case *querymodel.SubQuery:
		return t.subQuery(x)
	case nil:
		return nil, ir.NewUnsupportedExpressionError("<nil>", "missing expression")
	}
	return nil, ir.NewUnsupportedExpressionError(querymodel.Describe(e), "unsupported expression %T", e)
}

// condition translates a predicate and normalizes it to a condition item:
// bare boolean columns and constants become "= true", negated ones "= false".
func (t *translator) condition(e querymodel.Expr) (queryir.ConditionItem, error) {
	n, err := t.translate(e)
	if err != nil {
		return nil, err
	}
	return asCondition(n), nil
}

func asCondition(n queryir.Node) queryir.ConditionItem {
	switch x := n.(type) {
	case queryir.ConditionItem:
		return x
	case *queryir.UnaryOperation:
		if x.Operator == queryir.UnaryNot {
			return queryir.NewCondition(x.Operand, queryir.Equals, queryir.Const(false))
		}
	}
	return queryir.NewCondition(n, queryir.Equals, queryir.Const(true))
}

func (t *translator) constant(c *querymodel.Constant) (queryir.Node, error) {
	switch {
	case c.Type.Kind == ir.KindQueryable:
		entity, err := entityName(c.Type, t.root)
		if err != nil {
			return nil, err
		}
		table, err := t.provider.TableName(entity)
		if err != nil {
			return nil, err
		}
		return queryir.NewTable(table), nil
	case c.Value == nil:
		return queryir.Const(nil), nil
	case c.Type.IsEntity() && t.provider.ShouldMapType(c.Type.Name):
		pk, err := t.provider.PrimaryKeyValue(c.Type.Name, c.Value)
		if err != nil {
			return nil, err
		}
		return queryir.Const(pk), nil
	}
	return queryir.Const(c.Value), nil
}

var binaryOperators = map[querymodel.BinaryOp]queryir.BinaryOperator{
	querymodel.OpAdd:         queryir.Add,
	querymodel.OpSubtract:    queryir.Subtract,
	querymodel.OpMultiply:    queryir.Multiply,
	querymodel.OpDivide:      queryir.Divide,
	querymodel.OpModulo:      queryir.Modulo,
	querymodel.OpLeftShift:   queryir.LeftShift,
	querymodel.OpRightShift:  queryir.RightShift,
	querymodel.OpAnd:         queryir.BitwiseAnd,
	querymodel.OpAndAlso:     queryir.BitwiseAnd,
	querymodel.OpOr:          queryir.BitwiseOr,
	querymodel.OpOrElse:      queryir.BitwiseOr,
	querymodel.OpExclusiveOr: queryir.BitwiseExclusiveOr,
}

var comparisonOperators = map[querymodel.BinaryOp]queryir.Operator{
	querymodel.OpEqual:              queryir.Equals,
	querymodel.OpNotEqual:           queryir.NotEquals,
	querymodel.OpLessThan:           queryir.IsLessThan,
	querymodel.OpLessThanOrEqual:    queryir.IsLessThanOrEqualTo,
	querymodel.OpGreaterThan:        queryir.IsGreaterThan,
	querymodel.OpGreaterThanOrEqual: queryir.IsGreaterThanOrEqualTo,
}

func (t *translator) binary(b *querymodel.Binary) (queryir.Node, error) {
	if b.Op.IsLogical() && b.Left.ResultType().IsBoolean() && b.Right.ResultType().IsBoolean() {
		return t.logical(b)
	}

	left, err := t.translate(b.Left)
	if err != nil {
		return nil, err
	}
	right, err := t.translate(b.Right)
	if err != nil {
		return nil, err
	}

	if op, ok := comparisonOperators[b.Op]; ok {
		return queryir.NewCondition(left, op, right), nil
	}

	switch {
	case b.Op == querymodel.OpCoalesce:
		return &queryir.Coalesce{First: left, Second: right}, nil
	case b.Op == querymodel.OpAdd && (b.Left.ResultType().IsText() || b.Right.ResultType().IsText()):
		return concatenate(left, right), nil
	case b.Op == querymodel.OpSubtract && b.Left.ResultType().IsTime() && b.Right.ResultType().IsTime():
		return &queryir.DateDifference{Date1: left, Date2: right}, nil
	}

	if op, ok := binaryOperators[b.Op]; ok {
		return &queryir.BinaryOperation{Left: left, Operator: op, Right: right}, nil
	}
	return nil, ir.NewUnsupportedExpressionError(querymodel.Describe(b), "unsupported binary operator %s", b.Op)
}

// concatenate joins string parts, flattening nested concatenations.
func concatenate(parts ...queryir.Node) *queryir.StringConcatenate {
	out := &queryir.StringConcatenate{}
	for _, p := range parts {
		if c, ok := p.(*queryir.StringConcatenate); ok {
			out.Arguments = append(out.Arguments, c.Arguments...)
			continue
		}
		out.Arguments = append(out.Arguments, p)
	}
	return out
}

// logical combines two boolean operands into a condition collection. A left
// operand already grouped by the same operator is flattened.
func (t *translator) logical(b *querymodel.Binary) (queryir.Node, error) {
	left, err := t.condition(b.Left)
	if err != nil {
		return nil, err
	}
	right, err := t.condition(b.Right)
	if err != nil {
		return nil, err
	}

	if b.Op == querymodel.OpExclusiveOr {
		// (a AND NOT b) OR (NOT a AND b)
		first := queryir.NewConditionCollection(left, right.Negate().WithRelationship(queryir.And))
		second := queryir.NewConditionCollection(left.Negate(), right.WithRelationship(queryir.And))
		return queryir.NewConditionCollection(first, second.WithRelationship(queryir.Or)), nil
	}

	rel := queryir.And
	if b.Op == querymodel.OpOr || b.Op == querymodel.OpOrElse {
		rel = queryir.Or
	}

	var items []queryir.ConditionItem
	if group, ok := left.(*queryir.ConditionCollection); ok && !group.Not && joinedBy(group, rel) {
		items = append(items, group.Items...)
	} else {
		items = append(items, left.WithRelationship(queryir.And))
	}
	items = append(items, right.WithRelationship(rel))

	if len(items) == 1 {
		return items[0], nil
	}
	return queryir.NewConditionCollection(items...), nil
}

// joinedBy reports whether every item after the first is tagged rel.
func joinedBy(group *queryir.ConditionCollection, rel queryir.Relationship) bool {
	if len(group.Items) < 2 {
		return false
	}
	for _, item := range group.Items[1:] {
		if item.Rel() != rel {
			return false
		}
	}
	return true
}

func (t *translator) unary(u *querymodel.Unary) (queryir.Node, error) {
	operand, err := t.translate(u.Operand)
	if err != nil {
		return nil, err
	}
	switch u.Op {
	case querymodel.OpNot:
		if item, ok := operand.(queryir.ConditionItem); ok {
			return item.Negate(), nil
		}
		return &queryir.UnaryOperation{Operator: queryir.UnaryNot, Operand: operand}, nil
	case querymodel.OpNegate:
		return &queryir.UnaryOperation{Operator: queryir.UnaryNegate, Operand: operand}, nil
	case querymodel.OpPlus, querymodel.OpConvert:
		return operand, nil
	}
	return nil, ir.NewUnsupportedExpressionError(querymodel.Describe(u), "unsupported unary operator %s", u.Op)
}

func (t *translator) conditional(c *querymodel.Conditional) (queryir.Node, error) {
	test, err := t.condition(c.Test)
	if err != nil {
		return nil, err
	}
	ifTrue, err := t.translate(c.IfTrue)
	if err != nil {
		return nil, err
	}
	ifFalse, err := t.translate(c.IfFalse)
	if err != nil {
		return nil, err
	}
	return &queryir.ConditionalCase{Test: test, IfTrue: ifTrue, IfFalse: ifFalse}, nil
}

func (t *translator) newExpr(n *querymodel.New) (queryir.Node, error) {
	args, err := t.translateAll(n.Args)
	if err != nil {
		return nil, err
	}
	if n.Type.IsTime() {
		switch len(args) {
		case 3:
			return &queryir.DateNew{Year: args[0], Month: args[1], Day: args[2]}, nil
		case 6:
			return &queryir.DateNew{
				Year: args[0], Month: args[1], Day: args[2],
				Hour: args[3], Minute: args[4], Second: args[5],
			}, nil
		}
		return nil, ir.NewUnsupportedExpressionError(querymodel.Describe(n), "date constructor takes 3 or 6 arguments, got %d", len(args))
	}
	if len(args) == 0 {
		return nil, ir.NewUnsupportedExpressionError(querymodel.Describe(n), "constructor without arguments")
	}
	return &queryir.FieldCollection{Fields: args}, nil
}

// newArray translates an array literal of constants into a list constant.
func (t *translator) newArray(a *querymodel.NewArray) (queryir.Node, error) {
	values := make([]any, 0, len(a.Elements))
	for _, e := range a.Elements {
		c, ok := e.(*querymodel.Constant)
		if !ok {
			return nil, ir.NewUnsupportedExpressionError(querymodel.Describe(e), "array literal elements must be constants")
		}
		values = append(values, c.Value)
	}
	return queryir.Const(values), nil
}

func (t *translator) translateAll(exprs []querymodel.Expr) ([]queryir.Node, error) {
	out := make([]queryir.Node, 0, len(exprs))
	for _, e := range exprs {
		n, err := t.translate(e)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// inMemoryList returns the values of an in-memory collection expression.
func inMemoryList(e querymodel.Expr) ([]any, bool) {
	switch x := e.(type) {
	case *querymodel.NewArray:
		values := make([]any, 0, len(x.Elements))
		for _, el := range x.Elements {
			c, ok := el.(*querymodel.Constant)
			if !ok {
				return nil, false
			}
			values = append(values, c.Value)
		}
		return values, true
	case *querymodel.Constant:
		if x.Type.Kind != ir.KindArray || x.Value == nil {
			return nil, false
		}
		rv := reflect.ValueOf(x.Value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil, false
		}
		values := make([]any, rv.Len())
		for i := range values {
			values[i] = rv.Index(i).Interface()
		}
		return values, true
	}
	return nil, false
}

// subQuery translates a nested query. A subquery whose only result operator
// is Contains becomes "item IN (...)"; anything else becomes a sub-select.
func (t *translator) subQuery(s *querymodel.SubQuery) (queryir.Node, error) {
	m := s.Model
	if len(m.ResultOperators) == 1 {
		if contains, ok := m.ResultOperators[0].(*querymodel.Contains); ok {
			return t.containsSubQuery(m, contains)
		}
	}
	return t.assemble(m)
}

func (t *translator) containsSubQuery(m *querymodel.QueryModel, contains *querymodel.Contains) (queryir.Node, error) {
	item, err := t.translate(contains.Item)
	if err != nil {
		return nil, err
	}
	if values, ok := inMemoryList(m.MainFrom.Source); ok {
		return queryir.NewCondition(item, queryir.IsIn, queryir.Const(values)), nil
	}

	inner := *m
	inner.ResultOperators = nil
	sub, err := t.assemble(&inner)
	if err != nil {
		return nil, err
	}
	if m.SelectsSource() {
		key, err := t.translate(querymodel.Ref(m.MainFrom))
		if err != nil {
			return nil, err
		}
		sub.SourceFields = []queryir.Node{key}
	}
	return queryir.NewCondition(item, queryir.IsIn, sub), nil
}
