package querymodel

import "github.com/andrewjk/Watsonia.Data-sub000/internal/ir"

// Table returns a constant denoting the table of the named entity.
func Table(entity string) *Constant {
	return &Constant{Type: ir.QueryableOf(ir.Entity(entity))}
}

// Const returns a constant of type t.
func Const(v any, t ir.Type) *Constant {
	return &Constant{Value: v, Type: t}
}

// Null returns a nil constant of type t.
func Null(t ir.Type) *Constant {
	return &Constant{Type: t.AsNullable()}
}

// From returns a main from clause over the named entity's table.
func From(itemName, entity string) *FromClause {
	return &FromClause{
		ItemName: itemName,
		ItemType: ir.Entity(entity),
		Source:   Table(entity),
	}
}

// Ref references a range variable.
func Ref(src QuerySource) *SourceRef {
	return &SourceRef{Source: src}
}

// Prop accesses a member of e declared on e's own type.
func Prop(e Expr, name string, t ir.Type) *Member {
	return &Member{Expr: e, Name: name, Owner: e.ResultType(), Type: t}
}

// PropOn accesses a member of e declared on owner (an interface, for example).
func PropOn(e Expr, owner ir.Type, name string, t ir.Type) *Member {
	return &Member{Expr: e, Name: name, Owner: owner, Type: t}
}

// StaticProp accesses a static member of owner.
func StaticProp(owner ir.Type, name string, t ir.Type) *Member {
	return &Member{Name: name, Owner: owner, Type: t}
}

// Call calls an instance method.
func Call(obj Expr, decl DeclaringType, name string, t ir.Type, args ...Expr) *MethodCall {
	return &MethodCall{Object: obj, Declaring: decl, Name: name, Args: args, Type: t}
}

// Static calls a static method.
func Static(decl DeclaringType, name string, t ir.Type, args ...Expr) *MethodCall {
	return &MethodCall{Declaring: decl, Name: name, Args: args, Type: t}
}

// BinaryOf applies op, deriving the result type: comparisons and logical
// operators on booleans are boolean; everything else takes the left type.
func BinaryOf(op BinaryOp, left, right Expr) *Binary {
	t := left.ResultType()
	switch {
	case op.IsComparison():
		t = ir.Bool()
	case op.IsLogical() && left.ResultType().IsBoolean():
		t = ir.Bool()
	case op == OpSubtract && left.ResultType().IsTime() && right.ResultType().IsTime():
		t = ir.Duration()
	}
	return &Binary{Op: op, Left: left, Right: right, Type: t}
}

func Eq(l, r Expr) *Binary      { return BinaryOf(OpEqual, l, r) }
func Ne(l, r Expr) *Binary      { return BinaryOf(OpNotEqual, l, r) }
func Lt(l, r Expr) *Binary      { return BinaryOf(OpLessThan, l, r) }
func Le(l, r Expr) *Binary      { return BinaryOf(OpLessThanOrEqual, l, r) }
func Gt(l, r Expr) *Binary      { return BinaryOf(OpGreaterThan, l, r) }
func Ge(l, r Expr) *Binary      { return BinaryOf(OpGreaterThanOrEqual, l, r) }
func AndAlso(l, r Expr) *Binary { return BinaryOf(OpAndAlso, l, r) }
func OrElse(l, r Expr) *Binary  { return BinaryOf(OpOrElse, l, r) }

// Not negates e.
func Not(e Expr) *Unary {
	return &Unary{Op: OpNot, Operand: e, Type: e.ResultType()}
}

// Negate arithmetically negates e.
func Negate(e Expr) *Unary {
	return &Unary{Op: OpNegate, Operand: e, Type: e.ResultType()}
}

// Convert coerces e to t.
func Convert(e Expr, t ir.Type) *Unary {
	return &Unary{Op: OpConvert, Operand: e, Type: t}
}

// Cond builds test ? ifTrue : ifFalse.
func Cond(test, ifTrue, ifFalse Expr) *Conditional {
	return &Conditional{Test: test, IfTrue: ifTrue, IfFalse: ifFalse, Type: ifTrue.ResultType()}
}

// Query starts a query model over the named entity.
func Query(itemName, entity string) *Builder {
	return &Builder{model: &QueryModel{MainFrom: From(itemName, entity)}}
}

// Builder assembles a QueryModel clause by clause.
type Builder struct {
	model *QueryModel
}

// Source returns the main from clause, for building expressions over the
// range variable.
func (b *Builder) Source() *FromClause {
	return b.model.MainFrom
}

// Item returns a reference to the main range variable.
func (b *Builder) Item() *SourceRef {
	return Ref(b.model.MainFrom)
}

// Join adds an inner join clause and returns it. keys receives the clause so
// the inner key can reference the joined range variable.
func (b *Builder) Join(itemName, entity string, keys func(*JoinClause) (Expr, Expr)) *JoinClause {
	j := &JoinClause{
		ItemName: itemName,
		ItemType: ir.Entity(entity),
		Inner:    Table(entity),
	}
	j.OuterKey, j.InnerKey = keys(j)
	b.model.BodyClauses = append(b.model.BodyClauses, j)
	return j
}

// Where adds a where clause.
func (b *Builder) Where(predicate Expr) *Builder {
	b.model.BodyClauses = append(b.model.BodyClauses, &WhereClause{Predicate: predicate})
	return b
}

// OrderBy adds an order-by clause with one ordering.
func (b *Builder) OrderBy(e Expr, dir Direction) *Builder {
	b.model.BodyClauses = append(b.model.BodyClauses, &OrderByClause{
		Orderings: []Ordering{{Expr: e, Direction: dir}},
	})
	return b
}

// Select sets the projector.
func (b *Builder) Select(selector Expr) *Builder {
	b.model.Select = &SelectClause{Selector: selector}
	return b
}

// With appends result operators.
func (b *Builder) With(ops ...ResultOperator) *Builder {
	b.model.ResultOperators = append(b.model.ResultOperators, ops...)
	return b
}

// Model returns the built query model. A missing select clause selects the
// row itself.
func (b *Builder) Model() *QueryModel {
	if b.model.Select == nil {
		b.model.Select = &SelectClause{Selector: Ref(b.model.MainFrom)}
	}
	return b.model
}

// Sub wraps the built model as a subquery expression of type t.
func (b *Builder) Sub(t ir.Type) *SubQuery {
	return &SubQuery{Model: b.Model(), Type: t}
}
