package translate

import (
	"github.com/andrewjk/Watsonia.Data-sub000/internal/ir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/queryir"
	"github.com/andrewjk/Watsonia.Data-sub000/internal/querymodel"
)

var dateParts = map[string]queryir.DatePartKind{
	"Date":        queryir.PartDate,
	"Day":         queryir.PartDay,
	"Month":       queryir.PartMonth,
	"Year":        queryir.PartYear,
	"Hour":        queryir.PartHour,
	"Minute":      queryir.PartMinute,
	"Second":      queryir.PartSecond,
	"Millisecond": queryir.PartMillisecond,
	"DayOfWeek":   queryir.PartDayOfWeek,
	"DayOfYear":   queryir.PartDayOfYear,
}

func (t *translator) member(m *querymodel.Member) (queryir.Node, error) {
	if m.Expr == nil {
		return t.staticMember(m)
	}

	objType := m.Expr.ResultType()
	switch {
	case objType.IsText() && m.Name == "Length":
		arg, err := t.translate(m.Expr)
		if err != nil {
			return nil, err
		}
		return &queryir.StringLength{Argument: arg}, nil

	case objType.IsTime():
		part, ok := dateParts[m.Name]
		if !ok {
			return nil, ir.NewUnsupportedExpressionError(querymodel.Describe(m), "unsupported time member %s", m.Name)
		}
		arg, err := t.translate(m.Expr)
		if err != nil {
			return nil, err
		}
		return &queryir.DatePart{Part: part, Argument: arg}, nil
	}

	entity, err := t.ownerEntity(m)
	if err != nil {
		return nil, err
	}
	table, err := t.provider.TableName(entity)
	if err != nil {
		return nil, err
	}

	if ok, _ := t.provider.IsRelatedCollection(entity, m.Name); ok {
		return nil, ir.NewUnsupportedExpressionError(querymodel.Describe(m), "collection member outside a subquery")
	}
	if t.provider.IsRelatedItem(entity, m.Name) {
		fk, err := t.provider.ForeignKeyColumnName(entity, m.Name)
		if err != nil {
			return nil, err
		}
		return &queryir.Column{Table: table, Name: fk, Type: ir.Unknown()}, nil
	}

	col, err := t.provider.ColumnName(entity, m.Name)
	if err != nil {
		return nil, err
	}
	return &queryir.Column{Table: table, Name: col, Type: m.Type}, nil
}

// ownerEntity resolves the entity whose table holds the member's column.
func (t *translator) ownerEntity(m *querymodel.Member) (string, error) {
	owner := m.Expr.ResultType()
	if t.mode == ModeDirect && (m.Owner.IsEntity() || m.Owner.Kind == ir.KindInterface) {
		owner = m.Owner
	}
	name, err := entityName(owner, t.root)
	if err != nil || owner.IsSequence() {
		return "", ir.NewUnsupportedExpressionError(querymodel.Describe(m), "member %s of %s is not a mapped property", m.Name, owner)
	}
	return name, nil
}

func (t *translator) staticMember(m *querymodel.Member) (queryir.Node, error) {
	if m.Owner.IsTime() {
		switch m.Name {
		case "Now":
			return &queryir.CurrentDate{}, nil
		case "UtcNow":
			return &queryir.CurrentDate{UTC: true}, nil
		case "Today":
			return &queryir.CurrentDate{DateOnly: true}, nil
		}
	}
	return nil, ir.NewUnsupportedExpressionError(querymodel.Describe(m), "unsupported static member")
}

// sourceRef translates a bare range variable to its primary key column.
func (t *translator) sourceRef(r *querymodel.SourceRef) (queryir.Node, error) {
	entity, err := entityName(r.Source.SourceType(), t.root)
	if err != nil {
		return nil, err
	}
	table, err := t.provider.TableName(entity)
	if err != nil {
		return nil, err
	}
	pk, err := t.provider.PrimaryKeyColumnName(entity)
	if err != nil {
		return nil, err
	}
	return &queryir.Column{Table: table, Name: pk, Type: ir.Unknown()}, nil
}
