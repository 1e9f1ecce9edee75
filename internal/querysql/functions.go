package querysql

import (
	"fmt"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/queryir"
)

// strftime formats per date part. Millisecond and Date are special-cased.
var strftimeFormats = map[queryir.DatePartKind]string{
	queryir.PartSecond:    "%S",
	queryir.PartMinute:    "%M",
	queryir.PartHour:      "%H",
	queryir.PartDay:       "%d",
	queryir.PartMonth:     "%m",
	queryir.PartYear:      "%Y",
	queryir.PartDayOfWeek: "%w",
	queryir.PartDayOfYear: "%j",
}

// date modifier units per date part.
var modifierUnits = map[queryir.DatePartKind]string{
	queryir.PartSecond: "seconds",
	queryir.PartMinute: "minutes",
	queryir.PartHour:   "hours",
	queryir.PartDay:    "days",
	queryir.PartMonth:  "months",
	queryir.PartYear:   "years",
}

var trigNames = map[queryir.TrigFunction]string{
	queryir.Sin:   "SIN",
	queryir.Cos:   "COS",
	queryir.Tan:   "TAN",
	queryir.Asin:  "ASIN",
	queryir.Acos:  "ACOS",
	queryir.Atan:  "ATAN",
	queryir.Atan2: "ATAN2",
}

// function writes operators and scalar functions.
func (w *writer) function(n queryir.Node) error {
	switch x := n.(type) {
	case *queryir.BinaryOperation:
		return w.seq("(", x.Left, " "+x.Operator.String()+" ", x.Right, ")")
	case *queryir.UnaryOperation:
		if x.Operator == queryir.UnaryNegate {
			return w.seq("-(", x.Operand, ")")
		}
		return w.seq("NOT (", x.Operand, ")")
	case *queryir.Aggregate:
		if x.Field == nil {
			return fmt.Errorf("%s aggregate has no field", x.Kind)
		}
		return w.call(x.Kind.String(), x.Field)
	case *queryir.FieldCollection:
		for i, f := range x.Fields {
			if i > 0 {
				w.write(", ")
			}
			if err := w.node(f); err != nil {
				return err
			}
		}
		return nil
	case *queryir.ConditionalCase:
		return w.seq("CASE WHEN ", x.Test, " THEN ", x.IfTrue, " ELSE ", x.IfFalse, " END")
	case *queryir.Convert:
		return w.seq("CAST(", x.Expression, " AS "+sqliteType(x.Type)+")")
	case *queryir.Coalesce:
		return w.call("COALESCE", x.First, x.Second)

	case *queryir.StringLength:
		return w.call("LENGTH", x.Argument)
	case *queryir.StringToUpper:
		return w.call("UPPER", x.Argument)
	case *queryir.StringToLower:
		return w.call("LOWER", x.Argument)
	case *queryir.StringTrim:
		return w.call("TRIM", x.Argument)
	case *queryir.StringTrimStart:
		return w.call("LTRIM", x.Argument)
	case *queryir.StringTrimEnd:
		return w.call("RTRIM", x.Argument)
	case *queryir.StringReplace:
		return w.call("REPLACE", x.Argument, x.OldValue, x.NewValue)
	case *queryir.Substring:
		// zero-based start index
		return w.seq("SUBSTR(", x.Argument, ", ", x.StartIndex, " + 1, ", x.Length, ")")
	case *queryir.StringRemove:
		return w.seq("(SUBSTR(", x.Argument, ", 1, ", x.StartIndex, ") || SUBSTR(",
			x.Argument, ", ", x.StartIndex, " + ", x.Length, " + 1))")
	case *queryir.StringIndex:
		if x.StartIndex == nil {
			return w.seq("(INSTR(", x.Argument, ", ", x.StringToFind, ") - 1)")
		}
		return w.seq("CASE WHEN INSTR(SUBSTR(", x.Argument, ", ", x.StartIndex, " + 1), ", x.StringToFind,
			") = 0 THEN -1 ELSE INSTR(SUBSTR(", x.Argument, ", ", x.StartIndex, " + 1), ", x.StringToFind,
			") + ", x.StartIndex, " - 1 END")
	case *queryir.StringConcatenate:
		w.write("(")
		for i, a := range x.Arguments {
			if i > 0 {
				w.write(" || ")
			}
			if err := w.node(a); err != nil {
				return err
			}
		}
		w.write(")")
		return nil
	case *queryir.StringCompare:
		return w.seq("CASE WHEN ", x.Argument, " = ", x.Other, " THEN 0 WHEN ",
			x.Argument, " < ", x.Other, " THEN -1 ELSE 1 END")

	case *queryir.DatePart:
		switch x.Part {
		case queryir.PartDate:
			return w.call("DATE", x.Argument)
		case queryir.PartMillisecond:
			return w.seq("(CAST(STRFTIME('%f', ", x.Argument, ") * 1000 AS INTEGER) % 1000)")
		}
		format, ok := strftimeFormats[x.Part]
		if !ok {
			return fmt.Errorf("unsupported date part: %s", x.Part)
		}
		return w.seq("CAST(STRFTIME('"+format+"', ", x.Argument, ") AS INTEGER)")
	case *queryir.DateAdd:
		if x.Part == queryir.PartMillisecond {
			return w.seq("DATETIME(", x.Argument, ", (", x.Number, " / 1000.0) || ' seconds')")
		}
		unit, ok := modifierUnits[x.Part]
		if !ok {
			return fmt.Errorf("unsupported date part for add: %s", x.Part)
		}
		return w.seq("DATETIME(", x.Argument, ", ", x.Number, " || ' "+unit+"')")
	case *queryir.DateDifference:
		return w.seq("(JULIANDAY(", x.Date1, ") - JULIANDAY(", x.Date2, "))")
	case *queryir.DateNew:
		if x.Hour == nil {
			return w.seq("DATE(PRINTF('%04d-%02d-%02d', ", x.Year, ", ", x.Month, ", ", x.Day, "))")
		}
		return w.seq("DATETIME(PRINTF('%04d-%02d-%02d %02d:%02d:%02d', ",
			x.Year, ", ", x.Month, ", ", x.Day, ", ", x.Hour, ", ", x.Minute, ", ", x.Second, "))")
	case *queryir.CurrentDate:
		fn := "DATETIME"
		if x.DateOnly {
			fn = "DATE"
		}
		if x.UTC {
			w.write(fn, "('now')")
		} else {
			w.write(fn, "('now', 'localtime')")
		}
		return nil

	case *queryir.NumberNegate:
		return w.seq("-(", x.Argument, ")")
	case *queryir.NumberCeiling:
		return w.call("CEIL", x.Argument)
	case *queryir.NumberFloor:
		return w.call("FLOOR", x.Argument)
	case *queryir.NumberTruncate:
		return w.call("TRUNC", x.Argument)
	case *queryir.NumberAbsolute:
		return w.call("ABS", x.Argument)
	case *queryir.NumberSign:
		return w.call("SIGN", x.Argument)
	case *queryir.NumberExp:
		return w.call("EXP", x.Argument)
	case *queryir.NumberLog:
		return w.call("LN", x.Argument)
	case *queryir.NumberLog10:
		return w.call("LOG10", x.Argument)
	case *queryir.NumberRound:
		return w.call("ROUND", x.Argument, x.Precision)
	case *queryir.NumberRoot:
		if c, ok := x.Root.(*queryir.ConstantPart); ok {
			if k, ok := ir.Key(c.Value); ok && k == int64(2) {
				return w.call("SQRT", x.Argument)
			}
		}
		return w.seq("POWER(", x.Argument, ", 1.0 / ", x.Root, ")")
	case *queryir.NumberPower:
		return w.call("POWER", x.Argument, x.Power)
	case *queryir.NumberTrig:
		name := trigNames[x.Function]
		if x.Function == queryir.Atan2 {
			return w.call(name, x.Argument, x.Argument2)
		}
		return w.call(name, x.Argument)
	}
	return fmt.Errorf("unsupported node type: %T", n)
}

// sqliteType names the storage class a value is cast to.
func sqliteType(t ir.Type) string {
	switch t.Kind {
	case ir.KindBool, ir.KindInt:
		return "INTEGER"
	case ir.KindFloat, ir.KindDecimal:
		return "REAL"
	case ir.KindBytes:
		return "BLOB"
	default:
		return "TEXT"
	}
}
