package querymodel

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
)

// TypeLookup answers property types while decoding member paths. The mapping
// registry implements it.
type TypeLookup interface {
	PropertyType(entity, property string) (ir.Type, bool)
}

// DecodeError reports a malformed query file.
type DecodeError struct {
	Line    int
	Column  int
	Message string
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
	}
	return e.Message
}

// Decode parses a YAML query file.
//
// Example:
//
//	from: {name: b, entity: Book}
//	where:
//	  - {op: equal, left: {member: b.Title}, right: {const: Dune}}
//	orderBy:
//	  - {expr: {member: b.Price}, desc: true}
//	operators: [first, {include: Author}]
//
// Expressions are mappings discriminated by their first key: ref, member,
// static, const, op, call, if, new, array or query.
func Decode(data []byte, types TypeLookup) (*QueryModel, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &DecodeError{Message: fmt.Sprintf("parse yaml: %v", err)}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, &DecodeError{Message: "empty query file"}
	}

	d := &decoder{types: types, sources: map[string]QuerySource{}}
	return d.query(root.Content[0])
}

type decoder struct {
	types   TypeLookup
	sources map[string]QuerySource
}

func nodeErr(n *yaml.Node, format string, args ...any) *DecodeError {
	return &DecodeError{Line: n.Line, Column: n.Column, Message: fmt.Sprintf(format, args...)}
}

// fields returns the key/value pairs of a mapping node in document order.
func fields(n *yaml.Node) ([][2]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, nodeErr(n, "expected mapping")
	}
	pairs := make([][2]*yaml.Node, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		pairs = append(pairs, [2]*yaml.Node{n.Content[i], n.Content[i+1]})
	}
	return pairs, nil
}

func lookup(n *yaml.Node, key string) *yaml.Node {
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

// child returns a decoder for a nested query that can see the outer range
// variables.
func (d *decoder) child() *decoder {
	sources := make(map[string]QuerySource, len(d.sources))
	for k, v := range d.sources {
		sources[k] = v
	}
	return &decoder{types: d.types, sources: sources}
}

func (d *decoder) query(n *yaml.Node) (*QueryModel, error) {
	fromNode := lookup(n, "from")
	if fromNode == nil {
		return nil, nodeErr(n, "query requires a from clause")
	}
	from, err := d.from(fromNode)
	if err != nil {
		return nil, err
	}
	model := &QueryModel{MainFrom: from}
	d.sources[from.ItemName] = from

	if joins := lookup(n, "joins"); joins != nil {
		for _, jn := range joins.Content {
			j, err := d.join(jn)
			if err != nil {
				return nil, err
			}
			model.BodyClauses = append(model.BodyClauses, j)
		}
	}

	if wheres := lookup(n, "where"); wheres != nil {
		for _, wn := range wheres.Content {
			pred, err := d.expr(wn)
			if err != nil {
				return nil, err
			}
			model.BodyClauses = append(model.BodyClauses, &WhereClause{Predicate: pred})
		}
	}

	if orders := lookup(n, "orderBy"); orders != nil {
		clause := &OrderByClause{}
		for _, on := range orders.Content {
			exprNode := lookup(on, "expr")
			if exprNode == nil {
				return nil, nodeErr(on, "ordering requires expr")
			}
			e, err := d.expr(exprNode)
			if err != nil {
				return nil, err
			}
			dir := Ascending
			if desc := lookup(on, "desc"); desc != nil && desc.Value == "true" {
				dir = Descending
			}
			clause.Orderings = append(clause.Orderings, Ordering{Expr: e, Direction: dir})
		}
		model.BodyClauses = append(model.BodyClauses, clause)
	}

	model.Select = &SelectClause{Selector: Ref(from)}
	if sel := lookup(n, "select"); sel != nil {
		e, err := d.expr(sel)
		if err != nil {
			return nil, err
		}
		model.Select.Selector = e
	}

	if ops := lookup(n, "operators"); ops != nil {
		for _, on := range ops.Content {
			op, err := d.operator(on)
			if err != nil {
				return nil, err
			}
			model.ResultOperators = append(model.ResultOperators, op)
		}
	}

	return model, nil
}

func (d *decoder) from(n *yaml.Node) (*FromClause, error) {
	name := lookup(n, "name")
	if name == nil {
		return nil, nodeErr(n, "from requires name")
	}
	if src := lookup(n, "source"); src != nil {
		e, err := d.expr(src)
		if err != nil {
			return nil, err
		}
		return &FromClause{ItemName: name.Value, ItemType: e.ResultType().ElemType(), Source: e}, nil
	}
	entity := lookup(n, "entity")
	if entity == nil {
		return nil, nodeErr(n, "from requires entity or source")
	}
	return From(name.Value, entity.Value), nil
}

func (d *decoder) join(n *yaml.Node) (*JoinClause, error) {
	name, entity := lookup(n, "name"), lookup(n, "entity")
	if name == nil || entity == nil {
		return nil, nodeErr(n, "join requires name and entity")
	}
	j := &JoinClause{ItemName: name.Value, ItemType: ir.Entity(entity.Value), Inner: Table(entity.Value)}
	d.sources[j.ItemName] = j

	outer, inner := lookup(n, "outer"), lookup(n, "inner")
	if outer == nil || inner == nil {
		return nil, nodeErr(n, "join requires outer and inner keys")
	}
	var err error
	if j.OuterKey, err = d.expr(outer); err != nil {
		return nil, err
	}
	if j.InnerKey, err = d.expr(inner); err != nil {
		return nil, err
	}
	return j, nil
}

func (d *decoder) operator(n *yaml.Node) (ResultOperator, error) {
	if n.Kind == yaml.ScalarNode {
		switch n.Value {
		case "any":
			return &Any{}, nil
		case "first":
			return &First{}, nil
		case "last":
			return &Last{}, nil
		case "count":
			return &Count{}, nil
		case "longCount":
			return &LongCount{}, nil
		case "sum":
			return &Sum{}, nil
		case "min":
			return &Min{}, nil
		case "max":
			return &Max{}, nil
		case "average":
			return &Average{}, nil
		case "distinct":
			return &Distinct{}, nil
		}
		return nil, nodeErr(n, "unknown result operator %q", n.Value)
	}

	pairs, err := fields(n)
	if err != nil || len(pairs) != 1 {
		return nil, nodeErr(n, "result operator must be a name or a single-key mapping")
	}
	key, val := pairs[0][0].Value, pairs[0][1]
	switch key {
	case "take", "skip":
		var count Expr
		if val.Kind == yaml.ScalarNode {
			var v int
			if err := val.Decode(&v); err != nil {
				return nil, nodeErr(val, "%s count: %v", key, err)
			}
			count = Const(v, ir.Int())
		} else if count, err = d.expr(val); err != nil {
			return nil, err
		}
		if key == "take" {
			return &Take{Count: count}, nil
		}
		return &Skip{Count: count}, nil
	case "include":
		return &Include{Path: val.Value}, nil
	case "all":
		pred, err := d.expr(val)
		if err != nil {
			return nil, err
		}
		return &All{Predicate: pred}, nil
	case "contains":
		item, err := d.expr(val)
		if err != nil {
			return nil, err
		}
		return &Contains{Item: item}, nil
	}
	return nil, nodeErr(n, "unknown result operator %q", key)
}

func (d *decoder) exprs(n *yaml.Node) ([]Expr, error) {
	if n == nil {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, nodeErr(n, "expected a list of expressions")
	}
	out := make([]Expr, 0, len(n.Content))
	for _, c := range n.Content {
		e, err := d.expr(c)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (d *decoder) expr(n *yaml.Node) (Expr, error) {
	pairs, err := fields(n)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, nodeErr(n, "empty expression")
	}

	switch pairs[0][0].Value {
	case "ref":
		src, ok := d.sources[pairs[0][1].Value]
		if !ok {
			return nil, nodeErr(n, "unknown range variable %q", pairs[0][1].Value)
		}
		return Ref(src), nil
	case "member":
		return d.member(n, pairs[0][1].Value)
	case "static":
		return d.static(n)
	case "const":
		return d.constant(n)
	case "op":
		return d.operation(n, pairs[0][1].Value)
	case "call":
		return d.call(n)
	case "if":
		test, err := d.expr(pairs[0][1])
		if err != nil {
			return nil, err
		}
		thenNode, elseNode := lookup(n, "then"), lookup(n, "else")
		if thenNode == nil || elseNode == nil {
			return nil, nodeErr(n, "conditional requires then and else")
		}
		ifTrue, err := d.expr(thenNode)
		if err != nil {
			return nil, err
		}
		ifFalse, err := d.expr(elseNode)
		if err != nil {
			return nil, err
		}
		return Cond(test, ifTrue, ifFalse), nil
	case "new":
		args, err := d.exprs(pairs[0][1])
		if err != nil {
			return nil, err
		}
		t := ir.Struct("")
		if tn := lookup(n, "type"); tn != nil {
			if t, err = ParseType(tn.Value); err != nil {
				return nil, nodeErr(tn, "%v", err)
			}
		}
		var members []string
		if mn := lookup(n, "members"); mn != nil {
			if err := mn.Decode(&members); err != nil {
				return nil, nodeErr(mn, "members: %v", err)
			}
		}
		return &New{Args: args, Members: members, Type: t}, nil
	case "array":
		elems, err := d.exprs(pairs[0][1])
		if err != nil {
			return nil, err
		}
		elem := ir.Unknown()
		if len(elems) > 0 {
			elem = elems[0].ResultType()
		}
		return &NewArray{Elements: elems, Type: ir.ArrayOf(elem)}, nil
	case "query":
		model, err := d.child().query(pairs[0][1])
		if err != nil {
			return nil, err
		}
		t := ir.QueryableOf(model.ResultType())
		if tn := lookup(n, "type"); tn != nil {
			if t, err = ParseType(tn.Value); err != nil {
				return nil, nodeErr(tn, "%v", err)
			}
		}
		return &SubQuery{Model: model, Type: t}, nil
	}
	return nil, nodeErr(n, "unknown expression form %q", pairs[0][0].Value)
}

var intMembers = map[string]bool{
	"Day": true, "Month": true, "Year": true, "Hour": true, "Minute": true,
	"Second": true, "Millisecond": true, "DayOfWeek": true, "DayOfYear": true,
}

// member resolves a dotted path rooted at a range variable.
func (d *decoder) member(n *yaml.Node, path string) (Expr, error) {
	segments := strings.Split(path, ".")
	src, ok := d.sources[segments[0]]
	if !ok {
		return nil, nodeErr(n, "unknown range variable %q", segments[0])
	}
	var cur Expr = Ref(src)
	for _, seg := range segments[1:] {
		owner := cur.ResultType()
		t, err := d.memberType(owner, seg)
		if err != nil {
			return nil, nodeErr(n, "%s: %v", path, err)
		}
		cur = &Member{Expr: cur, Name: seg, Owner: owner, Type: t}
	}
	return cur, nil
}

func (d *decoder) memberType(owner ir.Type, name string) (ir.Type, error) {
	switch {
	case owner.IsText() && name == "Length":
		return ir.Int(), nil
	case owner.IsTime() && name == "Date":
		return ir.Time(), nil
	case owner.IsTime() && intMembers[name]:
		return ir.Int(), nil
	case owner.IsEntity():
		if d.types == nil {
			return ir.Unknown(), nil
		}
		t, ok := d.types.PropertyType(owner.Name, name)
		if !ok {
			return ir.Type{}, fmt.Errorf("entity %s has no property %s", owner.Name, name)
		}
		return t, nil
	}
	return ir.Type{}, fmt.Errorf("cannot access %s on %s", name, owner)
}

func (d *decoder) static(n *yaml.Node) (Expr, error) {
	name, of := lookup(n, "static"), lookup(n, "of")
	if of == nil {
		return nil, nodeErr(n, "static member requires of")
	}
	owner, err := ParseType(of.Value)
	if err != nil {
		return nil, nodeErr(of, "%v", err)
	}
	return StaticProp(owner, name.Value, owner), nil
}

func (d *decoder) constant(n *yaml.Node) (Expr, error) {
	valNode := lookup(n, "const")
	var t ir.Type
	explicit := false
	if tn := lookup(n, "type"); tn != nil {
		var err error
		if t, err = ParseType(tn.Value); err != nil {
			return nil, nodeErr(tn, "%v", err)
		}
		explicit = true
	}

	if explicit && t.Kind == ir.KindQueryable {
		return &Constant{Type: t}, nil
	}

	var v any
	if err := valNode.Decode(&v); err != nil {
		return nil, nodeErr(valNode, "const: %v", err)
	}
	if !explicit {
		t = inferType(v)
	}
	if t.IsTime() {
		if s, ok := v.(string); ok {
			parsed, err := parseTime(s)
			if err != nil {
				return nil, nodeErr(valNode, "%v", err)
			}
			v = parsed
		}
	}
	return Const(v, t), nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}

func inferType(v any) ir.Type {
	switch val := v.(type) {
	case nil:
		return ir.Unknown().AsNullable()
	case bool:
		return ir.Bool()
	case int, int64:
		return ir.Int()
	case float64:
		return ir.Float()
	case string:
		return ir.String()
	case time.Time:
		return ir.Time()
	case []any:
		elem := ir.Unknown()
		if len(val) > 0 {
			elem = inferType(val[0])
		}
		return ir.ArrayOf(elem)
	}
	return ir.Unknown()
}

func (d *decoder) operation(n *yaml.Node, name string) (Expr, error) {
	if op, ok := ParseBinaryOp(name); ok {
		ln, rn := lookup(n, "left"), lookup(n, "right")
		if ln == nil || rn == nil {
			return nil, nodeErr(n, "%s requires left and right", name)
		}
		left, err := d.expr(ln)
		if err != nil {
			return nil, err
		}
		right, err := d.expr(rn)
		if err != nil {
			return nil, err
		}
		return BinaryOf(op, left, right), nil
	}
	if op, ok := ParseUnaryOp(name); ok {
		on := lookup(n, "operand")
		if on == nil {
			return nil, nodeErr(n, "%s requires operand", name)
		}
		operand, err := d.expr(on)
		if err != nil {
			return nil, err
		}
		t := operand.ResultType()
		if tn := lookup(n, "type"); tn != nil {
			if t, err = ParseType(tn.Value); err != nil {
				return nil, nodeErr(tn, "%v", err)
			}
		}
		return &Unary{Op: op, Operand: operand, Type: t}, nil
	}
	return nil, nodeErr(n, "unknown operator %q", name)
}

var predicateMethods = map[string]bool{
	"StartsWith": true, "EndsWith": true, "Contains": true, "IsNullOrEmpty": true, "Equals": true,
}

func (d *decoder) call(n *yaml.Node) (Expr, error) {
	name := lookup(n, "call").Value
	call := &MethodCall{Name: name}

	if on := lookup(n, "on"); on != nil {
		obj, err := d.expr(on)
		if err != nil {
			return nil, err
		}
		call.Object = obj
	}
	args, err := d.exprs(lookup(n, "args"))
	if err != nil {
		return nil, err
	}
	call.Args = args

	if dn := lookup(n, "decl"); dn != nil {
		call.Declaring = DeclaringType(dn.Value)
	} else if call.Object != nil {
		call.Declaring = declaringFor(call.Object.ResultType())
	} else {
		return nil, nodeErr(n, "static call %s requires decl", name)
	}

	switch {
	case lookup(n, "type") != nil:
		if call.Type, err = ParseType(lookup(n, "type").Value); err != nil {
			return nil, nodeErr(n, "%v", err)
		}
	case predicateMethods[name]:
		call.Type = ir.Bool()
	case call.Object != nil:
		call.Type = call.Object.ResultType()
	case len(call.Args) > 0:
		call.Type = call.Args[0].ResultType()
	}
	return call, nil
}

func declaringFor(t ir.Type) DeclaringType {
	switch {
	case t.IsText():
		return DeclString
	case t.IsTime():
		return DeclTime
	case t.Kind == ir.KindDecimal:
		return DeclDecimal
	case t.IsNumeric():
		return DeclMath
	case t.IsSequence():
		return DeclSequence
	}
	return DeclObject
}

// ParseType parses the form produced by ir.Type.String, e.g. "int",
// "string?", "entity(Book)" or "array(int)".
func ParseType(s string) (ir.Type, error) {
	s = strings.TrimSpace(s)
	nullable := strings.HasSuffix(s, "?")
	s = strings.TrimSuffix(s, "?")

	var t ir.Type
	if open := strings.IndexByte(s, '('); open > 0 && strings.HasSuffix(s, ")") {
		kind, ok := ir.ParseKind(s[:open])
		if !ok {
			return ir.Type{}, fmt.Errorf("unknown type %q", s)
		}
		inner := s[open+1 : len(s)-1]
		switch kind {
		case ir.KindEntity, ir.KindInterface, ir.KindStruct:
			t = ir.Type{Kind: kind, Name: inner}
		case ir.KindCollection, ir.KindQueryable, ir.KindArray:
			elem, err := ParseType(inner)
			if err != nil {
				return ir.Type{}, err
			}
			t = ir.Type{Kind: kind, Elem: &elem}
		default:
			return ir.Type{}, fmt.Errorf("type %q takes no argument", s[:open])
		}
	} else {
		kind, ok := ir.ParseKind(s)
		if !ok {
			return ir.Type{}, fmt.Errorf("unknown type %q", s)
		}
		t = ir.Type{Kind: kind}
	}
	t.Nullable = nullable
	return t, nil
}
