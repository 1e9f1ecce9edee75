package translate

import (
	"log/slog"

	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/mapping"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/queryir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/querymodel"
)

// Mode selects how a member's owning table is resolved.
type Mode int

const (
	// ModeDirect resolves the table from the member's declared owner type;
	// members declared on an interface resolve to the query's root entity.
	ModeDirect Mode = iota

	// ModeAliased resolves the table from the range variable's declared
	// item type. Used when the query has explicit joins.
	ModeAliased
)

func (m Mode) String() string {
	if m == ModeAliased {
		return "aliased"
	}
	return "direct"
}

type options struct {
	mode    Mode
	modeSet bool
	logger  *slog.Logger
}

// Option configures Translate.
type Option func(*options)

// WithMode forces a translation mode instead of choosing by join clauses.
func WithMode(m Mode) Option {
	return func(o *options) {
		o.mode = m
		o.modeSet = true
	}
}

// WithLogger sets the logger for translation diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Translate converts model into a Select statement.
func Translate(model *querymodel.QueryModel, provider mapping.Provider, opts ...Option) (*queryir.Select, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if model == nil || model.MainFrom == nil {
		return nil, ir.NewInvalidArgumentError("model", "query model has no main from clause")
	}
	if provider == nil {
		return nil, ir.NewInvalidArgumentError("provider", "mapping provider is nil")
	}
	if !o.modeSet {
		o.mode = ModeDirect
		if len(model.Joins()) > 0 {
			o.mode = ModeAliased
		}
	}

	root, err := entityName(model.MainFrom.ItemType, "")
	if err != nil {
		return nil, err
	}
	t := &translator{provider: provider, mode: o.mode, root: root}

	sel, err := t.assemble(model)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("translated query",
		"entity", root,
		"mode", o.mode.String(),
		"joins", len(sel.SourceJoins),
		"conditions", len(sel.Conditions),
		"fields", len(sel.SourceFields),
		"includes", len(sel.IncludePaths))
	return sel, nil
}

type translator struct {
	provider mapping.Provider
	mode     Mode
	root     string
}

// entityName returns the entity behind t: the named entity, the element
// entity of a sequence, or root for interfaces.
func entityName(t ir.Type, root string) (string, error) {
	switch t.Kind {
	case ir.KindEntity:
		return t.Name, nil
	case ir.KindInterface:
		if root != "" {
			return root, nil
		}
	case ir.KindCollection, ir.KindQueryable, ir.KindArray:
		return entityName(t.ElemType(), root)
	}
	return "", ir.NewMappingResolutionError(t.String(), "type is not a mapped entity")
}

// assemble builds the Select for one query model, nested or not.
func (t *translator) assemble(model *querymodel.QueryModel) (*queryir.Select, error) {
	entity, err := entityName(model.MainFrom.ItemType, t.root)
	if err != nil {
		return nil, err
	}

	src, correlation, err := t.source(model.MainFrom)
	if err != nil {
		return nil, err
	}
	sel := queryir.NewSelect(src)
	if correlation != nil {
		sel.AddCondition(correlation, queryir.And)
	}

	for _, j := range model.Joins() {
		join, err := t.join(src, j)
		if err != nil {
			return nil, err
		}
		sel.AddJoin(join)
	}

	if err := AddImplicitJoins(sel, model, t.provider); err != nil {
		return nil, err
	}

	for _, w := range model.Wheres() {
		item, err := t.condition(w.Predicate)
		if err != nil {
			return nil, err
		}
		sel.AddCondition(item, queryir.And)
	}

	for _, o := range model.Orderings() {
		node, err := t.translate(o.Expr)
		if err != nil {
			return nil, err
		}
		dir := queryir.Ascending
		if o.Direction == querymodel.Descending {
			dir = queryir.Descending
		}
		sel.AddOrderBy(node, dir)
	}

	if !model.SelectsSource() {
		node, err := t.translate(model.Select.Selector)
		if err != nil {
			return nil, err
		}
		if fc, ok := node.(*queryir.FieldCollection); ok {
			for _, f := range fc.Fields {
				sel.AddField(f)
			}
		} else {
			sel.AddField(node)
		}
	}

	for _, op := range model.ResultOperators {
		if err := t.resultOperator(sel, model, op); err != nil {
			return nil, err
		}
	}

	if err := ExpandFields(sel, entity, t.provider); err != nil {
		return nil, err
	}
	return sel, nil
}

// source translates the main from clause. A source over a related
// collection of an outer range variable also yields the correlation
// condition child.FK = parent.PK.
func (t *translator) source(from *querymodel.FromClause) (queryir.Source, queryir.ConditionItem, error) {
	switch src := from.Source.(type) {
	case *querymodel.Constant:
		if src.Type.Kind != ir.KindQueryable {
			return nil, nil, ir.NewUnsupportedExpressionError(querymodel.Describe(src), "main source must be a table")
		}
		entity, err := entityName(src.Type, t.root)
		if err != nil {
			return nil, nil, err
		}
		table, err := t.provider.TableName(entity)
		if err != nil {
			return nil, nil, err
		}
		return queryir.NewTable(table), nil, nil

	case *querymodel.SubQuery:
		inner, err := t.assemble(src.Model)
		if err != nil {
			return nil, nil, err
		}
		if inner.Alias == "" {
			if tbl, ok := inner.Source.(*queryir.Table); ok {
				inner.Alias = tbl.Name
			}
		}
		return inner, nil, nil

	case *querymodel.Member:
		return t.collectionSource(src)
	}
	return nil, nil, ir.NewUnsupportedExpressionError(querymodel.Describe(from.Source), "unsupported main source")
}

func (t *translator) collectionSource(m *querymodel.Member) (queryir.Source, queryir.ConditionItem, error) {
	if m.Expr == nil {
		return nil, nil, ir.NewUnsupportedExpressionError(querymodel.Describe(m), "static collection source")
	}
	owner, err := entityName(m.Expr.ResultType(), t.root)
	if err != nil {
		return nil, nil, err
	}
	ok, elem := t.provider.IsRelatedCollection(owner, m.Name)
	if !ok {
		return nil, nil, ir.NewMappingResolutionError(owner+"."+m.Name, "not a related collection")
	}

	childTable, err := t.provider.TableName(elem)
	if err != nil {
		return nil, nil, err
	}
	fk, err := t.provider.ForeignKeyColumnName(owner, m.Name)
	if err != nil {
		return nil, nil, err
	}
	parentKey, err := t.translate(m.Expr)
	if err != nil {
		return nil, nil, err
	}

	correlation := queryir.NewCondition(
		&queryir.Column{Table: childTable, Name: fk, Type: ir.Unknown()},
		queryir.Equals,
		parentKey,
	)
	return queryir.NewTable(childTable), correlation, nil
}

func (t *translator) join(left queryir.Source, j *querymodel.JoinClause) (*queryir.Join, error) {
	entity, err := entityName(j.ItemType, t.root)
	if err != nil {
		return nil, err
	}
	table, err := t.provider.TableName(entity)
	if err != nil {
		return nil, err
	}
	outer, err := t.translate(j.OuterKey)
	if err != nil {
		return nil, err
	}
	inner, err := t.translate(j.InnerKey)
	if err != nil {
		return nil, err
	}
	return &queryir.Join{
		Left:        left,
		Right:       queryir.NewTable(table),
		LeftColumn:  outer,
		RightColumn: inner,
		Kind:        queryir.InnerJoin,
	}, nil
}
