package queryir

import (
	"slices"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
)

// Node is any element of a Select statement tree.
//
// This is a sealed interface - only types in this package implement it.
type Node interface {
	node() // Marker method - seals interface to this package
}

// Source is a row source: a *Table or a sub-select (*Select).
type Source interface {
	Node
	source()
}

// Select is a SELECT statement, also usable as a sub-select source or as a
// value (IN lists, scalar subqueries).
//
// Semantics:
//
//	SELECT [DISTINCT] <SourceFields> FROM <Source> <SourceJoins>
//	WHERE <Conditions> ORDER BY <OrderByFields>
//	LIMIT <Limit> OFFSET <StartIndex>
//
// IsAny and IsAll turn the statement into an existence test: the renderer
// wraps it as EXISTS (IsAny) or NOT EXISTS (IsAll, whose conditions already
// contain the negated predicate).
type Select struct {
	Source        Source
	SourceJoins   []*Join
	Conditions    []ConditionItem
	SourceFields  []Node
	OrderByFields []OrderByExpression

	Limit      *int // nil = unset; LIMIT 0 is a valid, empty result
	StartIndex int  // 0 = unset

	IsDistinct bool
	IsAny      bool
	IsAll      bool

	// IncludePaths are dotted navigation paths to eager-load after the
	// statement runs. Set semantics, insertion order.
	IncludePaths []string

	// Alias names the statement when it is used as a sub-select source.
	Alias string
}

// NewSelect returns a Select over source.
func NewSelect(source Source) *Select {
	return &Select{Source: source}
}

// AddCondition appends a copy of item tagged with rel.
func (s *Select) AddCondition(item ConditionItem, rel Relationship) {
	s.Conditions = append(s.Conditions, item.WithRelationship(rel))
}

// SetLimit sets the row limit.
func (s *Select) SetLimit(n int) {
	s.Limit = &n
}

// LimitValue returns the row limit and whether one is set.
func (s *Select) LimitValue() (int, bool) {
	if s.Limit == nil {
		return 0, false
	}
	return *s.Limit, true
}

// AddField appends a projected field.
func (s *Select) AddField(field Node) {
	s.SourceFields = append(s.SourceFields, field)
}

// AddOrderBy appends an ordering.
func (s *Select) AddOrderBy(expr Node, dir Direction) {
	s.OrderByFields = append(s.OrderByFields, OrderByExpression{Expression: expr, Direction: dir})
}

// AddJoin appends a join.
func (s *Select) AddJoin(j *Join) {
	s.SourceJoins = append(s.SourceJoins, j)
}

// AddInclude records an eager-load path. Duplicates are ignored.
func (s *Select) AddInclude(path string) {
	if !slices.Contains(s.IncludePaths, path) {
		s.IncludePaths = append(s.IncludePaths, path)
	}
}

// Clone returns a copy of s whose slices can be appended to without
// affecting s. Nodes are shared.
func (s *Select) Clone() *Select {
	c := *s
	c.SourceJoins = slices.Clone(s.SourceJoins)
	c.Conditions = slices.Clone(s.Conditions)
	c.SourceFields = slices.Clone(s.SourceFields)
	c.OrderByFields = slices.Clone(s.OrderByFields)
	c.IncludePaths = slices.Clone(s.IncludePaths)
	return &c
}

// HasJoin reports whether the source or a join already covers table.
func (s *Select) HasJoin(table string) bool {
	if t, ok := s.Source.(*Table); ok && t.Name == table {
		return true
	}
	for _, j := range s.SourceJoins {
		if j.Right != nil && j.Right.Name == table {
			return true
		}
	}
	return false
}

// Table is a database table.
type Table struct {
	Name  string
	Alias string
}

// Column references a column. An empty Table leaves it unqualified; Name "*"
// denotes every column (COUNT(*)).
type Column struct {
	Table string
	Name  string
	Type  ir.Type
}

// JoinKind is the kind of a join.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftOuterJoin
)

func (k JoinKind) String() string {
	if k == LeftOuterJoin {
		return "LEFT OUTER JOIN"
	}
	return "INNER JOIN"
}

// Join joins Right to the statement on LeftColumn = RightColumn.
type Join struct {
	Left        Source
	Right       *Table
	LeftColumn  Node
	RightColumn Node
	Kind        JoinKind
}

// ConstantPart is a literal value: a scalar, nil, or a list (for IN).
type ConstantPart struct {
	Value any
}

// Direction is a sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "DESC"
	}
	return "ASC"
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// OrderByExpression is one sort key.
type OrderByExpression struct {
	Expression Node
	Direction  Direction
}

// NewTable returns a table node.
func NewTable(name string) *Table {
	return &Table{Name: name}
}

// NewColumn returns a column node of unknown type.
func NewColumn(table, name string) *Column {
	return &Column{Table: table, Name: name, Type: ir.Unknown()}
}

// Const returns a literal node.
func Const(v any) *ConstantPart {
	return &ConstantPart{Value: v}
}

func (*Select) node()       {}
func (*Table) node()        {}
func (*Column) node()       {}
func (*Join) node()         {}
func (*ConstantPart) node() {}

func (*Select) source() {}
func (*Table) source()  {}
