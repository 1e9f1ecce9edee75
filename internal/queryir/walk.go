package queryir

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the node's children. Nil children are not visited.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// Children returns the direct non-nil children of n in rendering order.
// A join's Left source is not a child: it is the enclosing statement's
// source or an earlier join.
func Children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, c := range nodes {
			if c != nil {
				out = append(out, c)
			}
		}
	}

	switch x := n.(type) {
	case *Select:
		add(x.Source)
		for _, j := range x.SourceJoins {
			add(j)
		}
		for _, c := range x.Conditions {
			add(c)
		}
		add(x.SourceFields...)
		for _, o := range x.OrderByFields {
			add(o.Expression)
		}
	case *Join:
		if x.Right != nil {
			add(x.Right)
		}
		add(x.LeftColumn, x.RightColumn)
	case *Condition:
		add(x.Field, x.Value)
	case *ConditionCollection:
		for _, c := range x.Items {
			add(c)
		}
	case *BinaryOperation:
		add(x.Left, x.Right)
	case *UnaryOperation:
		add(x.Operand)
	case *Aggregate:
		add(x.Field)
	case *FieldCollection:
		add(x.Fields...)
	case *ConditionalCase:
		add(x.Test, x.IfTrue, x.IfFalse)
	case *Convert:
		add(x.Expression)
	case *Coalesce:
		add(x.First, x.Second)
	case *StringLength:
		add(x.Argument)
	case *StringToUpper:
		add(x.Argument)
	case *StringToLower:
		add(x.Argument)
	case *StringTrim:
		add(x.Argument)
	case *StringTrimStart:
		add(x.Argument)
	case *StringTrimEnd:
		add(x.Argument)
	case *StringReplace:
		add(x.Argument, x.OldValue, x.NewValue)
	case *Substring:
		add(x.Argument, x.StartIndex, x.Length)
	case *StringRemove:
		add(x.Argument, x.StartIndex, x.Length)
	case *StringIndex:
		add(x.Argument, x.StringToFind, x.StartIndex)
	case *StringConcatenate:
		add(x.Arguments...)
	case *StringCompare:
		add(x.Argument, x.Other)
	case *DatePart:
		add(x.Argument)
	case *DateAdd:
		add(x.Argument, x.Number)
	case *DateDifference:
		add(x.Date1, x.Date2)
	case *DateNew:
		add(x.Year, x.Month, x.Day, x.Hour, x.Minute, x.Second)
	case *NumberNegate:
		add(x.Argument)
	case *NumberCeiling:
		add(x.Argument)
	case *NumberFloor:
		add(x.Argument)
	case *NumberTruncate:
		add(x.Argument)
	case *NumberAbsolute:
		add(x.Argument)
	case *NumberSign:
		add(x.Argument)
	case *NumberExp:
		add(x.Argument)
	case *NumberLog:
		add(x.Argument)
	case *NumberLog10:
		add(x.Argument)
	case *NumberRound:
		add(x.Argument, x.Precision)
	case *NumberRoot:
		add(x.Argument, x.Root)
	case *NumberPower:
		add(x.Argument, x.Power)
	case *NumberTrig:
		add(x.Argument, x.Argument2)
	}
	return out
}
