package queryir

import "slices"

// Relationship joins a condition item to its predecessor.
type Relationship int

const (
	And Relationship = iota
	Or
)

func (r Relationship) String() string {
	if r == Or {
		return "OR"
	}
	return "AND"
}

// Operator is a condition's comparison operator.
type Operator int

const (
	Equals Operator = iota
	NotEquals
	IsLessThan
	IsLessThanOrEqualTo
	IsGreaterThan
	IsGreaterThanOrEqualTo
	IsIn
	StartsWith
	EndsWith
	Contains
)

var operatorNames = []string{
	Equals:                 "=",
	NotEquals:              "<>",
	IsLessThan:             "<",
	IsLessThanOrEqualTo:    "<=",
	IsGreaterThan:          ">",
	IsGreaterThanOrEqualTo: ">=",
	IsIn:                   "IN",
	StartsWith:             "STARTS WITH",
	EndsWith:               "ENDS WITH",
	Contains:               "CONTAINS",
}

func (op Operator) String() string {
	if int(op) >= 0 && int(op) < len(operatorNames) {
		return operatorNames[op]
	}
	return "?"
}

// ConditionItem is an element of a condition list: a *Condition or a
// *ConditionCollection.
//
// This is a sealed interface - only types in this package implement it.
type ConditionItem interface {
	Node

	// Rel returns the relationship to the preceding item.
	Rel() Relationship

	// WithRelationship returns a copy tagged with rel.
	WithRelationship(rel Relationship) ConditionItem

	// Negate returns a copy with Not flipped.
	Negate() ConditionItem

	conditionItem()
}

// Condition compares Field to Value.
//
// Semantics:
//
//	[NOT] <Field> <Operator> <Value>
type Condition struct {
	Field        Node
	Operator     Operator
	Value        Node
	Not          bool
	Relationship Relationship
}

// NewCondition returns an un-negated condition.
func NewCondition(field Node, op Operator, value Node) *Condition {
	return &Condition{Field: field, Operator: op, Value: value}
}

func (c *Condition) Rel() Relationship { return c.Relationship }

func (c *Condition) WithRelationship(rel Relationship) ConditionItem {
	cp := *c
	cp.Relationship = rel
	return &cp
}

func (c *Condition) Negate() ConditionItem {
	cp := *c
	cp.Not = !cp.Not
	return &cp
}

// ConditionCollection is a parenthesized group of condition items.
type ConditionCollection struct {
	Items        []ConditionItem
	Not          bool
	Relationship Relationship
}

// NewConditionCollection groups items as given; each item keeps its own
// relationship tag.
func NewConditionCollection(items ...ConditionItem) *ConditionCollection {
	return &ConditionCollection{Items: items}
}

func (c *ConditionCollection) Rel() Relationship { return c.Relationship }

func (c *ConditionCollection) WithRelationship(rel Relationship) ConditionItem {
	cp := *c
	cp.Items = slices.Clone(c.Items)
	cp.Relationship = rel
	return &cp
}

func (c *ConditionCollection) Negate() ConditionItem {
	cp := *c
	cp.Items = slices.Clone(c.Items)
	cp.Not = !cp.Not
	return &cp
}

func (*Condition) node()           {}
func (*ConditionCollection) node() {}

func (*Condition) conditionItem()           {}
func (*ConditionCollection) conditionItem() {}
