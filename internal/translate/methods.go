package translate

import (
	"math"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/queryir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/querymodel"
)

func (t *translator) methodCall(c *querymodel.MethodCall) (queryir.Node, error) {
	// Declaring-type independent methods first.
	switch c.Name {
	case "Equals":
		return t.equals(c)
	case "CompareTo", "Compare":
		if c.Declaring != querymodel.DeclMath && c.Declaring != querymodel.DeclDecimal {
			return t.compare(c)
		}
	case "ToString":
		return t.toString(c)
	}

	switch c.Declaring {
	case querymodel.DeclString:
		return t.stringMethod(c)
	case querymodel.DeclTime:
		return t.timeMethod(c)
	case querymodel.DeclMath, querymodel.DeclDecimal:
		return t.numberMethod(c)
	case querymodel.DeclSequence:
		return t.sequenceMethod(c)
	}
	return nil, unsupportedMethod(c)
}

func unsupportedMethod(c *querymodel.MethodCall) error {
	return ir.NewUnsupportedExpressionError(querymodel.Describe(c), "unsupported method %s.%s", c.Declaring, c.Name)
}

// operands returns the receiver followed by the arguments, so that static
// and instance forms of a method look the same.
func operands(c *querymodel.MethodCall) []querymodel.Expr {
	if c.Object == nil {
		return c.Args
	}
	return append([]querymodel.Expr{c.Object}, c.Args...)
}

// translateOperands translates the receiver and arguments, requiring
// between min and max of them.
func (t *translator) translateOperands(c *querymodel.MethodCall, minN, maxN int) ([]queryir.Node, error) {
	ops := operands(c)
	if len(ops) < minN || len(ops) > maxN {
		return nil, ir.NewUnsupportedExpressionError(querymodel.Describe(c),
			"%s takes %d to %d operands, got %d", c.Name, minN, maxN, len(ops))
	}
	return t.translateAll(ops)
}

func (t *translator) equals(c *querymodel.MethodCall) (queryir.Node, error) {
	args, err := t.translateOperands(c, 2, 2)
	if err != nil {
		return nil, err
	}
	return queryir.NewCondition(args[0], queryir.Equals, args[1]), nil
}

// compare orders two values as text, whatever their type.
func (t *translator) compare(c *querymodel.MethodCall) (queryir.Node, error) {
	args, err := t.translateOperands(c, 2, 2)
	if err != nil {
		return nil, err
	}
	return &queryir.StringCompare{Argument: args[0], Other: args[1]}, nil
}

func (t *translator) toString(c *querymodel.MethodCall) (queryir.Node, error) {
	args, err := t.translateOperands(c, 1, 1)
	if err != nil {
		return nil, err
	}
	if operands(c)[0].ResultType().IsText() {
		return args[0], nil
	}
	return &queryir.Convert{Expression: args[0], Type: ir.String()}, nil
}

var patternOperators = map[string]queryir.Operator{
	"StartsWith": queryir.StartsWith,
	"EndsWith":   queryir.EndsWith,
	"Contains":   queryir.Contains,
}

func (t *translator) stringMethod(c *querymodel.MethodCall) (queryir.Node, error) {
	if op, ok := patternOperators[c.Name]; ok {
		args, err := t.translateOperands(c, 2, 2)
		if err != nil {
			return nil, err
		}
		return queryir.NewCondition(args[0], op, args[1]), nil
	}

	switch c.Name {
	case "Concat":
		parts := operands(c)
		if len(parts) == 1 {
			if arr, ok := parts[0].(*querymodel.NewArray); ok {
				parts = arr.Elements
			}
		}
		args, err := t.translateAll(parts)
		if err != nil {
			return nil, err
		}
		return concatenate(args...), nil

	case "IsNullOrEmpty":
		args, err := t.translateOperands(c, 1, 1)
		if err != nil {
			return nil, err
		}
		return queryir.NewConditionCollection(
			queryir.NewCondition(args[0], queryir.Equals, queryir.Const(nil)),
			queryir.NewCondition(args[0], queryir.Equals, queryir.Const("")).WithRelationship(queryir.Or),
		), nil

	case "ToUpper", "ToLower", "Trim", "TrimStart", "TrimEnd":
		args, err := t.translateOperands(c, 1, 1)
		if err != nil {
			return nil, err
		}
		switch c.Name {
		case "ToUpper":
			return &queryir.StringToUpper{Argument: args[0]}, nil
		case "ToLower":
			return &queryir.StringToLower{Argument: args[0]}, nil
		case "Trim":
			return &queryir.StringTrim{Argument: args[0]}, nil
		case "TrimStart":
			return &queryir.StringTrimStart{Argument: args[0]}, nil
		default:
			return &queryir.StringTrimEnd{Argument: args[0]}, nil
		}

	case "Replace":
		args, err := t.translateOperands(c, 3, 3)
		if err != nil {
			return nil, err
		}
		return &queryir.StringReplace{Argument: args[0], OldValue: args[1], NewValue: args[2]}, nil

	case "Substring", "Remove":
		args, err := t.translateOperands(c, 2, 3)
		if err != nil {
			return nil, err
		}
		length := queryir.Node(queryir.Const(math.MaxInt32))
		if len(args) == 3 {
			length = args[2]
		}
		if c.Name == "Substring" {
			return &queryir.Substring{Argument: args[0], StartIndex: args[1], Length: length}, nil
		}
		return &queryir.StringRemove{Argument: args[0], StartIndex: args[1], Length: length}, nil

	case "IndexOf":
		args, err := t.translateOperands(c, 2, 3)
		if err != nil {
			return nil, err
		}
		idx := &queryir.StringIndex{Argument: args[0], StringToFind: args[1]}
		if len(args) == 3 {
			idx.StartIndex = args[2]
		}
		return idx, nil
	}
	return nil, unsupportedMethod(c)
}

var dateAddParts = map[string]queryir.DatePartKind{
	"AddYears":        queryir.PartYear,
	"AddMonths":       queryir.PartMonth,
	"AddDays":         queryir.PartDay,
	"AddHours":        queryir.PartHour,
	"AddMinutes":      queryir.PartMinute,
	"AddSeconds":      queryir.PartSecond,
	"AddMilliseconds": queryir.PartMillisecond,
}

func (t *translator) timeMethod(c *querymodel.MethodCall) (queryir.Node, error) {
	if part, ok := dateAddParts[c.Name]; ok {
		args, err := t.translateOperands(c, 2, 2)
		if err != nil {
			return nil, err
		}
		return &queryir.DateAdd{Part: part, Argument: args[0], Number: args[1]}, nil
	}
	if c.Name == "Subtract" {
		ops := operands(c)
		if len(ops) == 2 && ops[1].ResultType().IsTime() {
			args, err := t.translateAll(ops)
			if err != nil {
				return nil, err
			}
			return &queryir.DateDifference{Date1: args[0], Date2: args[1]}, nil
		}
	}
	return nil, unsupportedMethod(c)
}

var trigFunctions = map[string]queryir.TrigFunction{
	"Sin":   queryir.Sin,
	"Cos":   queryir.Cos,
	"Tan":   queryir.Tan,
	"Asin":  queryir.Asin,
	"Acos":  queryir.Acos,
	"Atan":  queryir.Atan,
	"Atan2": queryir.Atan2,
}

func (t *translator) numberMethod(c *querymodel.MethodCall) (queryir.Node, error) {
	if c.Name == "Compare" {
		return t.numericCompare(c)
	}

	if fn, ok := trigFunctions[c.Name]; ok {
		if fn == queryir.Atan2 {
			args, err := t.translateOperands(c, 2, 2)
			if err != nil {
				return nil, err
			}
			return &queryir.NumberTrig{Function: fn, Argument: args[0], Argument2: args[1]}, nil
		}
		args, err := t.translateOperands(c, 1, 1)
		if err != nil {
			return nil, err
		}
		return &queryir.NumberTrig{Function: fn, Argument: args[0]}, nil
	}

	switch c.Name {
	case "Round":
		args, err := t.translateOperands(c, 1, 2)
		if err != nil {
			return nil, err
		}
		precision := queryir.Node(queryir.Const(0))
		if len(args) == 2 {
			precision = args[1]
		}
		return &queryir.NumberRound{Argument: args[0], Precision: precision}, nil
	case "Pow":
		args, err := t.translateOperands(c, 2, 2)
		if err != nil {
			return nil, err
		}
		return &queryir.NumberPower{Argument: args[0], Power: args[1]}, nil
	case "Log":
		args, err := t.translateOperands(c, 1, 1)
		if err != nil {
			return nil, err
		}
		return &queryir.NumberLog{Argument: args[0]}, nil
	}

	args, err := t.translateOperands(c, 1, 1)
	if err != nil {
		return nil, err
	}
	arg := args[0]
	switch c.Name {
	case "Negate":
		return &queryir.NumberNegate{Argument: arg}, nil
	case "Ceiling":
		return &queryir.NumberCeiling{Argument: arg}, nil
	case "Floor":
		return &queryir.NumberFloor{Argument: arg}, nil
	case "Truncate":
		return &queryir.NumberTruncate{Argument: arg}, nil
	case "Abs":
		return &queryir.NumberAbsolute{Argument: arg}, nil
	case "Sign":
		return &queryir.NumberSign{Argument: arg}, nil
	case "Exp":
		return &queryir.NumberExp{Argument: arg}, nil
	case "Log10":
		return &queryir.NumberLog10{Argument: arg}, nil
	case "Sqrt":
		return &queryir.NumberRoot{Argument: arg, Root: queryir.Const(2)}, nil
	}
	return nil, unsupportedMethod(c)
}

// numericCompare rewrites Compare(a, b) as a == b ? 0 : (a < b ? -1 : 1).
func (t *translator) numericCompare(c *querymodel.MethodCall) (queryir.Node, error) {
	ops := operands(c)
	if len(ops) != 2 {
		return nil, ir.NewUnsupportedExpressionError(querymodel.Describe(c), "Compare takes 2 operands, got %d", len(ops))
	}
	a, b := ops[0], ops[1]
	rewritten := querymodel.Cond(
		querymodel.Eq(a, b),
		querymodel.Const(0, ir.Int()),
		querymodel.Cond(querymodel.Lt(a, b), querymodel.Const(-1, ir.Int()), querymodel.Const(1, ir.Int())),
	)
	return t.translate(rewritten)
}

func (t *translator) sequenceMethod(c *querymodel.MethodCall) (queryir.Node, error) {
	if c.Name != "Contains" {
		return nil, unsupportedMethod(c)
	}
	ops := operands(c)
	if len(ops) != 2 {
		return nil, ir.NewUnsupportedExpressionError(querymodel.Describe(c), "Contains takes 2 operands, got %d", len(ops))
	}
	values, ok := inMemoryList(ops[0])
	if !ok {
		return nil, ir.NewUnsupportedExpressionError(querymodel.Describe(c), "Contains requires an in-memory collection")
	}
	item, err := t.translate(ops[1])
	if err != nil {
		return nil, err
	}
	return queryir.NewCondition(item, queryir.IsIn, queryir.Const(values)), nil
}
