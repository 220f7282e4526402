package specification

import (
	"fmt"
	"strconv"
	"strings"

	"assembly-dashboard-be/pkg/datasource"
)

// Columns restricts the selected columns.
type Columns struct {
	Names []string
}

func (s Columns) Apply(p datasource.Params) datasource.Params {
	p.Select = strings.Join(s.Names, ",")
	return p
}

// ByValue is column = value. Empty values restrict nothing.
type ByValue struct {
	Column string
	Value  string
}

func (s ByValue) Apply(p datasource.Params) datasource.Params {
	if s.Value == "" {
		return p
	}
	p.Filters = append(p.Filters, datasource.Eq(s.Column, s.Value))
	return p
}

// BySessionLabel matches the "{n}회" scope labels of the recap tables.
type BySessionLabel struct {
	Column  string
	Session int
}

func (s BySessionLabel) Apply(p datasource.Params) datasource.Params {
	if s.Session <= 0 {
		return p
	}
	p.Filters = append(p.Filters, datasource.Eq(s.Column, fmt.Sprintf("%d회", s.Session)))
	return p
}

// ByNumber is column = n for numeric columns.
type ByNumber struct {
	Column string
	Value  int
}

func (s ByNumber) Apply(p datasource.Params) datasource.Params {
	p.Filters = append(p.Filters, datasource.Eq(s.Column, strconv.Itoa(s.Value)))
	return p
}

// Between keeps From <= column <= To; empty bounds are open.
type Between struct {
	Column string
	From   string
	To     string
}

func (s Between) Apply(p datasource.Params) datasource.Params {
	if s.From != "" {
		p.Filters = append(p.Filters, datasource.Gte(s.Column, s.From))
	}
	if s.To != "" {
		p.Filters = append(p.Filters, datasource.Lte(s.Column, s.To))
	}
	return p
}

// Contains is a case-insensitive substring match.
type Contains struct {
	Column string
	Text   string
}

func (s Contains) Apply(p datasource.Params) datasource.Params {
	if strings.TrimSpace(s.Text) == "" {
		return p
	}
	p.Filters = append(p.Filters, datasource.Ilike(s.Column, "*"+strings.TrimSpace(s.Text)+"*"))
	return p
}

// OneOf is column IN values. An empty list restricts nothing.
type OneOf struct {
	Column string
	Values []string
}

func (s OneOf) Apply(p datasource.Params) datasource.Params {
	if len(s.Values) == 0 {
		return p
	}
	p.Filters = append(p.Filters, datasource.In(s.Column, s.Values...))
	return p
}

// Present drops rows where column is null.
type Present struct {
	Column string
}

func (s Present) Apply(p datasource.Params) datasource.Params {
	p.Filters = append(p.Filters, datasource.NotNull(s.Column))
	return p
}

// OrderBy applies ordering
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(p datasource.Params) datasource.Params {
	p.Order = append(p.Order, datasource.Order{Column: s.Field, Desc: s.Desc})
	return p
}

// Pagination
type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(p datasource.Params) datasource.Params {
	p.Limit = s.Limit
	p.Offset = s.Offset
	return p
}
