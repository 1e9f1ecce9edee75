package querysql

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/queryir"
)

// SQLCompiler compiles a Select statement to parameterized SQL for SQLite.
//
// All constant values are parameterized (never interpolated); only LIMIT and
// OFFSET counts, which are integers owned by the statement, are written
// inline. Identifiers are double-quoted.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a Select statement to parameterized SQL.
// Returns (sql, params, error) tuple.
//
// A top-level IsAny statement compiles to SELECT EXISTS (...) and an IsAll
// statement to SELECT NOT EXISTS (...), each yielding one 0/1 row.
func (c *SQLCompiler) Compile(sel *queryir.Select) (string, []any, error) {
	if sel == nil {
		return "", nil, fmt.Errorf("cannot compile nil select")
	}
	w := &writer{}
	if err := w.statement(sel); err != nil {
		return "", nil, err
	}
	if sel.IsAny || sel.IsAll {
		inner := w.sb.String()
		prefix := "SELECT EXISTS ("
		if sel.IsAll {
			prefix = "SELECT NOT EXISTS ("
		}
		return prefix + inner + ")", w.params, nil
	}
	return w.sb.String(), w.params, nil
}

// writer accumulates SQL text and parameters in render order.
type writer struct {
	sb     strings.Builder
	params []any
}

func (w *writer) write(parts ...string) {
	for _, p := range parts {
		w.sb.WriteString(p)
	}
}

func (w *writer) param(v any) {
	w.sb.WriteString("?")
	w.params = append(w.params, toParam(v))
}

// quote double-quotes an identifier.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// statement writes a SELECT without existence wrapping.
func (w *writer) statement(sel *queryir.Select) error {
	w.write("SELECT ")
	if sel.IsDistinct {
		w.write("DISTINCT ")
	}

	if len(sel.SourceFields) == 0 {
		w.write("*")
	}
	for i, f := range sel.SourceFields {
		if i > 0 {
			w.write(", ")
		}
		if err := w.node(f); err != nil {
			return fmt.Errorf("compile field %d: %w", i, err)
		}
	}

	w.write(" FROM ")
	if err := w.source(sel.Source); err != nil {
		return err
	}

	for _, j := range sel.SourceJoins {
		if err := w.join(j); err != nil {
			return err
		}
	}

	if len(sel.Conditions) > 0 {
		w.write(" WHERE ")
		if err := w.conditions(sel.Conditions); err != nil {
			return fmt.Errorf("compile conditions: %w", err)
		}
	}

	if len(sel.OrderByFields) > 0 {
		w.write(" ORDER BY ")
		for i, o := range sel.OrderByFields {
			if i > 0 {
				w.write(", ")
			}
			if err := w.node(o.Expression); err != nil {
				return fmt.Errorf("compile ordering %d: %w", i, err)
			}
			w.write(" ", o.Direction.String())
		}
	}

	limit, hasLimit := sel.LimitValue()
	switch {
	case hasLimit:
		w.write(" LIMIT ", strconv.Itoa(limit))
	case sel.StartIndex > 0:
		// SQLite has no OFFSET without LIMIT.
		w.write(" LIMIT -1")
	}
	if sel.StartIndex > 0 {
		w.write(" OFFSET ", strconv.Itoa(sel.StartIndex))
	}
	return nil
}

func (w *writer) source(src queryir.Source) error {
	switch s := src.(type) {
	case *queryir.Table:
		w.write(quote(s.Name))
		if s.Alias != "" {
			w.write(" AS ", quote(s.Alias))
		}
		return nil
	case *queryir.Select:
		w.write("(")
		if err := w.statement(s); err != nil {
			return fmt.Errorf("compile sub-select source: %w", err)
		}
		w.write(")")
		if s.Alias != "" {
			w.write(" AS ", quote(s.Alias))
		}
		return nil
	case nil:
		return fmt.Errorf("select has no source")
	default:
		return fmt.Errorf("unsupported source type: %T", src)
	}
}

func (w *writer) join(j *queryir.Join) error {
	if j.Right == nil {
		return fmt.Errorf("join has no right table")
	}
	w.write(" ", j.Kind.String(), " ", quote(j.Right.Name))
	if j.Right.Alias != "" {
		w.write(" AS ", quote(j.Right.Alias))
	}
	w.write(" ON ")
	if err := w.node(j.LeftColumn); err != nil {
		return fmt.Errorf("compile join: %w", err)
	}
	w.write(" = ")
	if err := w.node(j.RightColumn); err != nil {
		return fmt.Errorf("compile join: %w", err)
	}
	return nil
}

// conditions writes a condition list, joining each item to its predecessor
// with the item's relationship.
func (w *writer) conditions(items []queryir.ConditionItem) error {
	for i, item := range items {
		if i > 0 {
			w.write(" ", item.Rel().String(), " ")
		}
		if err := w.conditionItem(item); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) conditionItem(item queryir.ConditionItem) error {
	switch c := item.(type) {
	case *queryir.Condition:
		if c.Not {
			w.write("NOT (")
			defer w.write(")")
		}
		return w.condition(c)
	case *queryir.ConditionCollection:
		if c.Not {
			w.write("NOT ")
		}
		if len(c.Items) == 0 {
			w.write("(1 = 1)")
			return nil
		}
		w.write("(")
		if err := w.conditions(c.Items); err != nil {
			return err
		}
		w.write(")")
		return nil
	default:
		return fmt.Errorf("unsupported condition type: %T", item)
	}
}

func (w *writer) condition(c *queryir.Condition) error {
	if err := w.node(c.Field); err != nil {
		return err
	}

	if isNull(c.Value) {
		switch c.Operator {
		case queryir.Equals:
			w.write(" IS NULL")
			return nil
		case queryir.NotEquals:
			w.write(" IS NOT NULL")
			return nil
		}
	}

	switch c.Operator {
	case queryir.IsIn:
		w.write(" IN ")
		return w.inList(c.Value)
	case queryir.StartsWith:
		w.write(" LIKE ")
		if err := w.node(c.Value); err != nil {
			return err
		}
		w.write(" || '%'")
		return nil
	case queryir.EndsWith:
		w.write(" LIKE '%' || ")
		return w.node(c.Value)
	case queryir.Contains:
		w.write(" LIKE '%' || ")
		if err := w.node(c.Value); err != nil {
			return err
		}
		w.write(" || '%'")
		return nil
	}

	w.write(" ", c.Operator.String(), " ")
	return w.node(c.Value)
}

// inList writes the right-hand side of IN: a parenthesized sub-select or a
// parameter per list element.
func (w *writer) inList(v queryir.Node) error {
	switch x := v.(type) {
	case *queryir.Select:
		w.write("(")
		if err := w.statement(x); err != nil {
			return fmt.Errorf("compile IN sub-select: %w", err)
		}
		w.write(")")
		return nil
	case *queryir.ConstantPart:
		w.write("(")
		for i, el := range listValues(x.Value) {
			if i > 0 {
				w.write(", ")
			}
			w.param(el)
		}
		w.write(")")
		return nil
	}
	return fmt.Errorf("unsupported IN operand: %T", v)
}

func isNull(n queryir.Node) bool {
	c, ok := n.(*queryir.ConstantPart)
	return ok && c.Value == nil
}

// node writes a value expression.
func (w *writer) node(n queryir.Node) error {
	switch x := n.(type) {
	case *queryir.Column:
		switch {
		case x.Name == "*" && x.Table == "":
			w.write("*")
		case x.Name == "*":
			w.write(quote(x.Table), ".*")
		case x.Table == "":
			w.write(quote(x.Name))
		default:
			w.write(quote(x.Table), ".", quote(x.Name))
		}
		return nil

	case *queryir.ConstantPart:
		if x.Value == nil {
			w.write("NULL")
			return nil
		}
		if list := listValues(x.Value); list != nil {
			return w.inList(x)
		}
		w.param(x.Value)
		return nil

	case *queryir.Select:
		switch {
		case x.IsAny:
			w.write("EXISTS (")
		case x.IsAll:
			w.write("NOT EXISTS (")
		default:
			w.write("(")
		}
		if err := w.statement(x); err != nil {
			return fmt.Errorf("compile sub-select: %w", err)
		}
		w.write(")")
		return nil

	case *queryir.Condition, *queryir.ConditionCollection:
		return w.conditionItem(x.(queryir.ConditionItem))

	case *queryir.Table:
		w.write(quote(x.Name))
		return nil
	}

	if n == nil {
		return fmt.Errorf("cannot compile nil node")
	}
	return w.function(n)
}

// call writes NAME(arg, arg, ...).
func (w *writer) call(name string, args ...queryir.Node) error {
	w.write(name, "(")
	for i, a := range args {
		if i > 0 {
			w.write(", ")
		}
		if err := w.node(a); err != nil {
			return err
		}
	}
	w.write(")")
	return nil
}

// seq writes literal SQL fragments and nodes in order.
func (w *writer) seq(parts ...any) error {
	for _, p := range parts {
		switch v := p.(type) {
		case string:
			w.write(v)
		case queryir.Node:
			if err := w.node(v); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unexpected fragment %T", p)
		}
	}
	return nil
}

// listValues returns the elements of a list constant, or nil when v is not
// a list. Byte slices are scalar blobs.
func listValues(v any) []any {
	switch x := v.(type) {
	case []any:
		if x == nil {
			return []any{}
		}
		return x
	case []byte:
		return nil
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case []int:
		out := make([]any, len(x))
		for i, n := range x {
			out[i] = n
		}
		return out
	case []int64:
		out := make([]any, len(x))
		for i, n := range x {
			out[i] = n
		}
		return out
	}
	return nil
}

// toParam converts a constant to a driver value. Times are written in the
// layout SQLite's date functions read.
func toParam(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format("2006-01-02 15:04:05")
	case ir.Type:
		return x.String()
	}
	return v
}
