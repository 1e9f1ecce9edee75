package querymodel

import (
	"fmt"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
)

// Expr is a query-model expression. Sealed.
type Expr interface {
	// ResultType returns the static type of the expression.
	ResultType() ir.Type
	expr()
}

// QuerySource is a clause that introduces a range variable: the main from
// clause or a join clause.
type QuerySource interface {
	SourceName() string
	SourceType() ir.Type
}

func (f *FromClause) SourceName() string  { return f.ItemName }
func (f *FromClause) SourceType() ir.Type { return f.ItemType }
func (j *JoinClause) SourceName() string  { return j.ItemName }
func (j *JoinClause) SourceType() ir.Type { return j.ItemType }

// Constant is a literal or a value captured by the query. A Constant of
// queryable type denotes a table.
type Constant struct {
	Value any
	Type  ir.Type
}

// SourceRef references a range variable.
type SourceRef struct {
	Source QuerySource
}

// Member accesses a field or property. Expr is nil for static members.
// Owner is the declared type of the member's owner, which may differ from
// Expr's type when the member is declared on an interface.
type Member struct {
	Expr  Expr
	Name  string
	Owner ir.Type
	Type  ir.Type
}

// DeclaringType groups methods by the type family that declares them.
type DeclaringType string

const (
	DeclString   DeclaringType = "string"
	DeclTime     DeclaringType = "time"
	DeclMath     DeclaringType = "math"
	DeclDecimal  DeclaringType = "decimal"
	DeclObject   DeclaringType = "object"
	DeclSequence DeclaringType = "sequence"
)

// MethodCall calls a method. Object is nil for static methods.
type MethodCall struct {
	Object    Expr
	Declaring DeclaringType
	Name      string
	Args      []Expr
	Type      ir.Type
}

// BinaryOp is a binary operator.
type BinaryOp int

const (
	OpAnd BinaryOp = iota
	OpAndAlso
	OpOr
	OpOrElse
	OpExclusiveOr
	OpEqual
	OpNotEqual
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpLeftShift
	OpRightShift
	OpCoalesce
)

var binaryOpNames = []string{
	OpAnd:                "and",
	OpAndAlso:            "andAlso",
	OpOr:                 "or",
	OpOrElse:             "orElse",
	OpExclusiveOr:        "xor",
	OpEqual:              "equal",
	OpNotEqual:           "notEqual",
	OpLessThan:           "lessThan",
	OpLessThanOrEqual:    "lessThanOrEqual",
	OpGreaterThan:        "greaterThan",
	OpGreaterThanOrEqual: "greaterThanOrEqual",
	OpAdd:                "add",
	OpSubtract:           "subtract",
	OpMultiply:           "multiply",
	OpDivide:             "divide",
	OpModulo:             "modulo",
	OpLeftShift:          "leftShift",
	OpRightShift:         "rightShift",
	OpCoalesce:           "coalesce",
}

func (op BinaryOp) String() string {
	if int(op) >= 0 && int(op) < len(binaryOpNames) {
		return binaryOpNames[op]
	}
	return fmt.Sprintf("binary(%d)", int(op))
}

// ParseBinaryOp returns the operator named by BinaryOp.String.
func ParseBinaryOp(name string) (BinaryOp, bool) {
	for i, n := range binaryOpNames {
		if n == name {
			return BinaryOp(i), true
		}
	}
	return 0, false
}

// IsLogical reports whether op is and/or/xor (short-circuit or not).
func (op BinaryOp) IsLogical() bool {
	switch op {
	case OpAnd, OpAndAlso, OpOr, OpOrElse, OpExclusiveOr:
		return true
	}
	return false
}

// IsComparison reports whether op compares its operands.
func (op BinaryOp) IsComparison() bool {
	return op >= OpEqual && op <= OpGreaterThanOrEqual
}

// Binary applies a binary operator.
type Binary struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
	Type  ir.Type
}

// UnaryOp is a unary operator.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNegate
	OpPlus
	OpConvert
)

var unaryOpNames = []string{
	OpNot:     "not",
	OpNegate:  "negate",
	OpPlus:    "plus",
	OpConvert: "convert",
}

func (op UnaryOp) String() string {
	if int(op) >= 0 && int(op) < len(unaryOpNames) {
		return unaryOpNames[op]
	}
	return fmt.Sprintf("unary(%d)", int(op))
}

// ParseUnaryOp returns the operator named by UnaryOp.String.
func ParseUnaryOp(name string) (UnaryOp, bool) {
	for i, n := range unaryOpNames {
		if n == name {
			return UnaryOp(i), true
		}
	}
	return 0, false
}

// Unary applies a unary operator. OpConvert carries the target type in Type.
type Unary struct {
	Op      UnaryOp
	Operand Expr
	Type    ir.Type
}

// Conditional is a ternary test ? ifTrue : ifFalse.
type Conditional struct {
	Test    Expr
	IfTrue  Expr
	IfFalse Expr
	Type    ir.Type
}

// New constructs a value. Members names the projected members of anonymous
// projections and may be empty.
type New struct {
	Args    []Expr
	Members []string
	Type    ir.Type
}

// NewArray is an array literal.
type NewArray struct {
	Elements []Expr
	Type     ir.Type
}

// SubQuery is a nested query model used as an expression.
type SubQuery struct {
	Model *QueryModel
	Type  ir.Type
}

func (e *Constant) ResultType() ir.Type    { return e.Type }
func (e *SourceRef) ResultType() ir.Type   { return e.Source.SourceType() }
func (e *Member) ResultType() ir.Type      { return e.Type }
func (e *MethodCall) ResultType() ir.Type  { return e.Type }
func (e *Binary) ResultType() ir.Type      { return e.Type }
func (e *Unary) ResultType() ir.Type       { return e.Type }
func (e *Conditional) ResultType() ir.Type { return e.Type }
func (e *New) ResultType() ir.Type         { return e.Type }
func (e *NewArray) ResultType() ir.Type    { return e.Type }
func (e *SubQuery) ResultType() ir.Type    { return e.Type }

func (*Constant) expr()    {}
func (*SourceRef) expr()   {}
func (*Member) expr()      {}
func (*MethodCall) expr()  {}
func (*Binary) expr()      {}
func (*Unary) expr()       {}
func (*Conditional) expr() {}
func (*New) expr()         {}
func (*NewArray) expr()    {}
func (*SubQuery) expr()    {}

// Describe renders e compactly for error messages, e.g. "b.Author.Name" or
// "b.Title.StartsWith(...)".
func Describe(e Expr) string {
	switch x := e.(type) {
	case nil:
		return "<nil>"
	case *Constant:
		if x.Type.Kind == ir.KindQueryable {
			return fmt.Sprintf("table(%s)", x.Type.ElemType().Name)
		}
		return fmt.Sprintf("%v", x.Value)
	case *SourceRef:
		return x.Source.SourceName()
	case *Member:
		if x.Expr == nil {
			return fmt.Sprintf("%s.%s", x.Owner, x.Name)
		}
		return Describe(x.Expr) + "." + x.Name
	case *MethodCall:
		if x.Object == nil {
			return fmt.Sprintf("%s.%s(...)", x.Declaring, x.Name)
		}
		return fmt.Sprintf("%s.%s(...)", Describe(x.Object), x.Name)
	case *Binary:
		return fmt.Sprintf("(%s %s %s)", Describe(x.Left), x.Op, Describe(x.Right))
	case *Unary:
		return fmt.Sprintf("%s(%s)", x.Op, Describe(x.Operand))
	case *Conditional:
		return fmt.Sprintf("(%s ? %s : %s)", Describe(x.Test), Describe(x.IfTrue), Describe(x.IfFalse))
	case *New:
		return fmt.Sprintf("new %s(...)", x.Type)
	case *NewArray:
		return fmt.Sprintf("[%d elements]", len(x.Elements))
	case *SubQuery:
		return "subquery"
	default:
		return fmt.Sprintf("%T", e)
	}
}
