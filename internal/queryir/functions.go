package queryir

import "github.com/andrewjk/Watsonia.Data-sub000/internal/ir"

// BinaryOperator is an arithmetic or bitwise operator.
type BinaryOperator int

const (
	Add BinaryOperator = iota
	Subtract
	Multiply
	Divide
	Modulo
	LeftShift
	RightShift
	BitwiseAnd
	BitwiseOr
	BitwiseExclusiveOr
)

var binaryOperatorNames = []string{
	Add:                "+",
	Subtract:           "-",
	Multiply:           "*",
	Divide:             "/",
	Modulo:             "%",
	LeftShift:          "<<",
	RightShift:         ">>",
	BitwiseAnd:         "&",
	BitwiseOr:          "|",
	BitwiseExclusiveOr: "^",
}

func (op BinaryOperator) String() string {
	if int(op) >= 0 && int(op) < len(binaryOperatorNames) {
		return binaryOperatorNames[op]
	}
	return "?"
}

// BinaryOperation applies an arithmetic or bitwise operator.
type BinaryOperation struct {
	Left     Node
	Operator BinaryOperator
	Right    Node
}

// UnaryOperator is a prefix operator.
type UnaryOperator int

const (
	UnaryNot UnaryOperator = iota
	UnaryNegate
)

func (op UnaryOperator) String() string {
	if op == UnaryNegate {
		return "-"
	}
	return "NOT"
}

// UnaryOperation applies a prefix operator. A UnaryNot over a boolean column
// or constant is normalized to "= false" when it becomes a condition.
type UnaryOperation struct {
	Operator UnaryOperator
	Operand  Node
}

// AggregateKind is an aggregate function.
type AggregateKind int

const (
	AggregateCount AggregateKind = iota
	AggregateSum
	AggregateMin
	AggregateMax
	AggregateAverage
)

func (k AggregateKind) String() string {
	switch k {
	case AggregateSum:
		return "SUM"
	case AggregateMin:
		return "MIN"
	case AggregateMax:
		return "MAX"
	case AggregateAverage:
		return "AVG"
	default:
		return "COUNT"
	}
}

// Aggregate applies an aggregate function to Field.
type Aggregate struct {
	Kind  AggregateKind
	Field Node
}

// FieldCollection is a list of projected values, e.g. a constructor whose
// arguments are columns.
type FieldCollection struct {
	Fields []Node
}

// ConditionalCase is CASE WHEN Test THEN IfTrue ELSE IfFalse END. Test is a
// ConditionItem.
type ConditionalCase struct {
	Test    Node
	IfTrue  Node
	IfFalse Node
}

// Convert casts Expression to Type.
type Convert struct {
	Expression Node
	Type       ir.Type
}

// Coalesce returns First unless it is null, else Second.
type Coalesce struct {
	First  Node
	Second Node
}

// String functions.
type (
	StringLength    struct{ Argument Node }
	StringToUpper   struct{ Argument Node }
	StringToLower   struct{ Argument Node }
	StringTrim      struct{ Argument Node }
	StringTrimStart struct{ Argument Node }
	StringTrimEnd   struct{ Argument Node }

	StringReplace struct {
		Argument Node
		OldValue Node
		NewValue Node
	}

	// Substring takes Length characters from the zero-based StartIndex.
	Substring struct {
		Argument   Node
		StartIndex Node
		Length     Node
	}

	// StringRemove removes Length characters from the zero-based StartIndex.
	StringRemove struct {
		Argument   Node
		StartIndex Node
		Length     Node
	}

	// StringIndex finds StringToFind in Argument, returning a zero-based
	// index or -1. StartIndex may be nil.
	StringIndex struct {
		Argument     Node
		StringToFind Node
		StartIndex   Node
	}

	StringConcatenate struct{ Arguments []Node }

	// StringCompare orders Argument against Other as text: -1, 0 or 1.
	StringCompare struct {
		Argument Node
		Other    Node
	}
)

// DatePartKind selects a component of a date/time.
type DatePartKind int

const (
	PartMillisecond DatePartKind = iota
	PartSecond
	PartMinute
	PartHour
	PartDay
	PartMonth
	PartYear
	PartDayOfWeek
	PartDayOfYear
	PartDate
)

var datePartNames = []string{
	PartMillisecond: "Millisecond",
	PartSecond:      "Second",
	PartMinute:      "Minute",
	PartHour:        "Hour",
	PartDay:         "Day",
	PartMonth:       "Month",
	PartYear:        "Year",
	PartDayOfWeek:   "DayOfWeek",
	PartDayOfYear:   "DayOfYear",
	PartDate:        "Date",
}

func (p DatePartKind) String() string {
	if int(p) >= 0 && int(p) < len(datePartNames) {
		return datePartNames[p]
	}
	return "?"
}

// ParseDatePart returns the part named by DatePartKind.String.
func ParseDatePart(name string) (DatePartKind, bool) {
	for i, n := range datePartNames {
		if n == name {
			return DatePartKind(i), true
		}
	}
	return 0, false
}

// Date functions.
type (
	DatePart struct {
		Part     DatePartKind
		Argument Node
	}

	// DateAdd adds Number units of Part to Argument.
	DateAdd struct {
		Part     DatePartKind
		Argument Node
		Number   Node
	}

	// DateDifference is Date1 - Date2.
	DateDifference struct {
		Date1 Node
		Date2 Node
	}

	// DateNew builds a date. Hour, Minute and Second are nil for a date
	// without a time.
	DateNew struct {
		Year   Node
		Month  Node
		Day    Node
		Hour   Node
		Minute Node
		Second Node
	}

	// CurrentDate is the current date/time.
	CurrentDate struct {
		UTC      bool
		DateOnly bool
	}
)

// TrigFunction is a trigonometric function.
type TrigFunction int

const (
	Sin TrigFunction = iota
	Cos
	Tan
	Asin
	Acos
	Atan
	Atan2
)

var trigNames = []string{
	Sin: "SIN", Cos: "COS", Tan: "TAN", Asin: "ASIN", Acos: "ACOS", Atan: "ATAN", Atan2: "ATN2",
}

func (f TrigFunction) String() string {
	if int(f) >= 0 && int(f) < len(trigNames) {
		return trigNames[f]
	}
	return "?"
}

// Number functions.
type (
	NumberNegate   struct{ Argument Node }
	NumberCeiling  struct{ Argument Node }
	NumberFloor    struct{ Argument Node }
	NumberTruncate struct{ Argument Node }
	NumberAbsolute struct{ Argument Node }
	NumberSign     struct{ Argument Node }
	NumberExp      struct{ Argument Node }
	NumberLog      struct{ Argument Node }
	NumberLog10    struct{ Argument Node }

	NumberRound struct {
		Argument  Node
		Precision Node
	}

	// NumberRoot is the Root-th root of Argument (2 for a square root).
	NumberRoot struct {
		Argument Node
		Root     Node
	}

	NumberPower struct {
		Argument Node
		Power    Node
	}

	// NumberTrig applies Function; Argument2 is only set for Atan2.
	NumberTrig struct {
		Function  TrigFunction
		Argument  Node
		Argument2 Node
	}
)

func (*BinaryOperation) node()   {}
func (*UnaryOperation) node()    {}
func (*Aggregate) node()         {}
func (*FieldCollection) node()   {}
func (*ConditionalCase) node()   {}
func (*Convert) node()           {}
func (*Coalesce) node()          {}
func (*StringLength) node()      {}
func (*StringToUpper) node()     {}
func (*StringToLower) node()     {}
func (*StringTrim) node()        {}
func (*StringTrimStart) node()   {}
func (*StringTrimEnd) node()     {}
func (*StringReplace) node()     {}
func (*Substring) node()         {}
func (*StringRemove) node()      {}
func (*StringIndex) node()       {}
func (*StringConcatenate) node() {}
func (*StringCompare) node()     {}
func (*DatePart) node()          {}
func (*DateAdd) node()           {}
func (*DateDifference) node()    {}
func (*DateNew) node()           {}
func (*CurrentDate) node()       {}
func (*NumberNegate) node()      {}
func (*NumberCeiling) node()     {}
func (*NumberFloor) node()       {}
func (*NumberTruncate) node()    {}
func (*NumberAbsolute) node()    {}
func (*NumberSign) node()        {}
func (*NumberExp) node()         {}
func (*NumberLog) node()         {}
func (*NumberLog10) node()       {}
func (*NumberRound) node()       {}
func (*NumberRoot) node()        {}
func (*NumberPower) node()       {}
func (*NumberTrig) node()        {}
