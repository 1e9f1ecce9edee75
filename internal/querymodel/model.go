package querymodel

import "github.com/andrewjk/Watsonia.Data-sub000/internal/ir"

// QueryModel is a parsed declarative query.
type QueryModel struct {
	MainFrom        *FromClause
	BodyClauses     []BodyClause
	Select          *SelectClause
	ResultOperators []ResultOperator
}

// FromClause introduces a range variable over a source sequence.
//
// Source is usually a *Constant of queryable type (a table), a *Member of
// collection type (a navigation collection of an outer range variable) or a
// *SubQuery.
type FromClause struct {
	ItemName string
	ItemType ir.Type
	Source   Expr
}

// BodyClause is a join, where or order-by clause. Sealed.
type BodyClause interface {
	bodyClause()
}

// JoinClause is an explicit inner join on key equality.
//
// Semantics:
//
//	join <ItemName> in <Inner> on <OuterKey> equals <InnerKey>
type JoinClause struct {
	ItemName string
	ItemType ir.Type
	Inner    Expr
	OuterKey Expr
	InnerKey Expr
}

func (*JoinClause) bodyClause() {}

// WhereClause filters rows by a boolean predicate. Several where clauses are
// conjunctive.
type WhereClause struct {
	Predicate Expr
}

func (*WhereClause) bodyClause() {}

// OrderByClause orders rows. Later orderings break ties of earlier ones.
type OrderByClause struct {
	Orderings []Ordering
}

func (*OrderByClause) bodyClause() {}

// Direction is a sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// String returns "asc" or "desc".
func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// Ordering is one sort key.
type Ordering struct {
	Expr      Expr
	Direction Direction
}

// SelectClause projects each row. A Selector that is a *SourceRef to the main
// from clause selects the row itself.
type SelectClause struct {
	Selector Expr
}

// ResultOperator transforms the whole result sequence. Sealed.
type ResultOperator interface {
	resultOperator()
}

type (
	// Any tests whether the sequence has rows.
	Any struct{}

	// All tests whether every row satisfies Predicate.
	All struct {
		Predicate Expr
	}

	// First takes the first row.
	First struct{}

	// Last takes the last row under the current ordering.
	Last struct{}

	// Count counts rows.
	Count struct{}

	// LongCount counts rows as a 64-bit value.
	LongCount struct{}

	// Sum adds up the single projected field.
	Sum struct{}

	// Min takes the smallest value of the single projected field.
	Min struct{}

	// Max takes the largest value of the single projected field.
	Max struct{}

	// Average averages the single projected field.
	Average struct{}

	// Distinct removes duplicate rows.
	Distinct struct{}

	// Take limits the number of rows. Count must be a *Constant.
	Take struct {
		Count Expr
	}

	// Skip skips rows. Count must be a *Constant.
	Skip struct {
		Count Expr
	}

	// Contains tests membership of Item in the sequence.
	Contains struct {
		Item Expr
	}

	// Include requests eager loading of a dotted navigation path.
	Include struct {
		Path string
	}
)

func (*Any) resultOperator()       {}
func (*All) resultOperator()       {}
func (*First) resultOperator()     {}
func (*Last) resultOperator()      {}
func (*Count) resultOperator()     {}
func (*LongCount) resultOperator() {}
func (*Sum) resultOperator()       {}
func (*Min) resultOperator()       {}
func (*Max) resultOperator()       {}
func (*Average) resultOperator()   {}
func (*Distinct) resultOperator()  {}
func (*Take) resultOperator()      {}
func (*Skip) resultOperator()      {}
func (*Contains) resultOperator()  {}
func (*Include) resultOperator()   {}

// Wheres returns the where clauses in order.
func (m *QueryModel) Wheres() []*WhereClause {
	var out []*WhereClause
	for _, c := range m.BodyClauses {
		if w, ok := c.(*WhereClause); ok {
			out = append(out, w)
		}
	}
	return out
}

// Joins returns the join clauses in order.
func (m *QueryModel) Joins() []*JoinClause {
	var out []*JoinClause
	for _, c := range m.BodyClauses {
		if j, ok := c.(*JoinClause); ok {
			out = append(out, j)
		}
	}
	return out
}

// Orderings returns every ordering of every order-by clause in order.
func (m *QueryModel) Orderings() []Ordering {
	var out []Ordering
	for _, c := range m.BodyClauses {
		if o, ok := c.(*OrderByClause); ok {
			out = append(out, o.Orderings...)
		}
	}
	return out
}

// SelectsSource reports whether the select clause returns the main from
// clause's rows untransformed.
func (m *QueryModel) SelectsSource() bool {
	if m.Select == nil || m.Select.Selector == nil {
		return true
	}
	ref, ok := m.Select.Selector.(*SourceRef)
	return ok && ref.Source == m.MainFrom
}

// ResultType returns the type of one projected row.
func (m *QueryModel) ResultType() ir.Type {
	if m.SelectsSource() {
		if m.MainFrom == nil {
			return ir.Unknown()
		}
		return m.MainFrom.ItemType
	}
	return m.Select.Selector.ResultType()
}
