package queryir

import "fmt"

// ValidationResult reports structural problems that would stop a renderer
// from producing a faithful statement.
type ValidationResult struct {
	// IsRenderable is true when no warnings were found.
	IsRenderable bool

	// Warnings lists each problem found. Empty when IsRenderable is true.
	Warnings []string
}

// Validate checks a Select tree, including nested sub-selects, for:
//  1. Missing sources, join tables or join columns
//  2. Unexpanded field sentinels (empty SourceFields)
//  3. Condition lists whose first item is tagged OR, and empty groups
//  4. Conflicting flags (IsAny with IsAll) and negative limits
//  5. Conditions or aggregates with missing operands
//
// Validate is a pure function with no side effects.
func Validate(sel *Select) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	if sel == nil {
		v.addWarning("nil select")
	} else {
		Walk(sel, v.visit)
	}

	return ValidationResult{
		IsRenderable: len(v.warnings) == 0,
		Warnings:     v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) visit(n Node) bool {
	switch x := n.(type) {
	case *Select:
		v.validateSelect(x)
	case *Join:
		v.validateJoin(x)
	case *Condition:
		if x.Field == nil {
			v.addWarning("condition with %s has no field", x.Operator)
		}
		if x.Value == nil {
			v.addWarning("condition with %s has no value - use a nil ConstantPart for NULL", x.Operator)
		}
	case *ConditionCollection:
		if len(x.Items) == 0 {
			v.addWarning("empty condition group")
		}
		v.validateItems("condition group", x.Items)
	case *Aggregate:
		if x.Field == nil {
			v.addWarning("%s aggregate has no field", x.Kind)
		}
	case *Table, *Column, *ConstantPart:
	case *BinaryOperation, *UnaryOperation, *FieldCollection, *ConditionalCase, *Convert, *Coalesce:
	case *StringLength, *StringToUpper, *StringToLower, *StringTrim, *StringTrimStart, *StringTrimEnd,
		*StringReplace, *Substring, *StringRemove, *StringIndex, *StringConcatenate, *StringCompare:
	case *DatePart, *DateAdd, *DateDifference, *DateNew, *CurrentDate:
	case *NumberNegate, *NumberCeiling, *NumberFloor, *NumberTruncate, *NumberAbsolute, *NumberSign,
		*NumberExp, *NumberLog, *NumberLog10, *NumberRound, *NumberRoot, *NumberPower, *NumberTrig:
	default:
		v.addWarning("unknown node type: %T", n)
		return false
	}
	return true
}

func (v *validator) validateSelect(sel *Select) {
	if sel.Source == nil {
		v.addWarning("select has no source")
	}
	if len(sel.SourceFields) == 0 {
		v.addWarning("select has no fields - field expansion has not run")
	}
	if sel.IsAny && sel.IsAll {
		v.addWarning("select is marked both any and all")
	}
	if n, ok := sel.LimitValue(); ok && n < 0 {
		v.addWarning("negative limit %d", n)
	}
	if sel.StartIndex < 0 {
		v.addWarning("negative start index %d", sel.StartIndex)
	}
	v.validateItems("select conditions", sel.Conditions)
}

func (v *validator) validateJoin(j *Join) {
	if j.Right == nil {
		v.addWarning("%s has no table", j.Kind)
		return
	}
	if j.LeftColumn == nil || j.RightColumn == nil {
		v.addWarning("%s %s has no join columns", j.Kind, j.Right.Name)
	}
}

func (v *validator) validateItems(where string, items []ConditionItem) {
	if len(items) > 0 && items[0].Rel() == Or {
		v.addWarning("%s: first item is tagged OR but has no predecessor", where)
	}
}
