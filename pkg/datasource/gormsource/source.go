package gormsource

import (
	"context"
	"fmt"
	"strings"

	"assembly-dashboard-be/pkg/dashboard/records"
	"assembly-dashboard-be/pkg/datasource"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Source reads the assembly tables directly from PostgreSQL.
type Source struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Source {
	return &Source{db: db}
}

// Select translates params into a gorm query over table.
func (s *Source) Select(ctx context.Context, table string, params datasource.Params) ([]records.Record, error) {
	exprs := make([]clause.Expression, 0, len(params.Filters))
	for _, f := range params.Filters {
		expr, err := condition(f)
		if err != nil {
			return nil, &datasource.FetchError{Table: table, Status: 400, Body: err.Error()}
		}
		exprs = append(exprs, expr)
	}
	q := s.db.WithContext(ctx).Table(table).Scopes(
		columns(params.Columns()),
		where(exprs),
		orderBy(params.Order),
		paginate(params.Limit, params.Offset),
	)

	var rows []map[string]interface{}
	if err := q.Find(&rows).Error; err != nil {
		return nil, &datasource.FetchError{Table: table, Status: 500, Body: err.Error()}
	}

	out := make([]records.Record, len(rows))
	for i, r := range rows {
		out[i] = records.Record(r)
	}
	return out, nil
}

func condition(f datasource.Filter) (clause.Expression, error) {
	col := clause.Column{Name: f.Column}
	switch f.Op {
	case datasource.OpEq:
		return clause.Eq{Column: col, Value: f.Value}, nil
	case datasource.OpGte:
		return clause.Gte{Column: col, Value: f.Value}, nil
	case datasource.OpLte:
		return clause.Lte{Column: col, Value: f.Value}, nil
	case datasource.OpIn:
		values := make([]interface{}, len(f.Values))
		for i, v := range f.Values {
			values[i] = v
		}
		return clause.IN{Column: col, Values: values}, nil
	case datasource.OpIlike:
		return clause.Expr{SQL: "? ILIKE ?", Vars: []interface{}{col, strings.ReplaceAll(f.Value, "*", "%")}}, nil
	case datasource.OpNotNull:
		return clause.Expr{SQL: "? IS NOT NULL", Vars: []interface{}{col}}, nil
	}
	return nil, fmt.Errorf("unsupported operator %q on %s", f.Op, f.Column)
}
