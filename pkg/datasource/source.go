package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"assembly-dashboard-be/pkg/dashboard/records"
)

var ErrNotConfigured = errors.New("data source is not configured")

// Source reads record batches from one table.
type Source interface {
	Select(ctx context.Context, table string, params Params) ([]records.Record, error)
}

// FetchError is a failed select, scoped to the table it was issued against.
type FetchError struct {
	Table  string
	Status int
	Body   string
}

func (e *FetchError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("select %s: %s", e.Table, e.Body)
	}
	return fmt.Sprintf("select %s: status %d: %s", e.Table, e.Status, e.Body)
}

// Op is a filter operator of the PostgREST vocabulary.
type Op string

const (
	OpEq      Op = "eq"
	OpGte     Op = "gte"
	OpLte     Op = "lte"
	OpIlike   Op = "ilike"
	OpIn      Op = "in"
	OpNotNull Op = "not.is.null"
)

// Filter restricts one column.
type Filter struct {
	Column string
	Op     Op
	Value  string
	Values []string
}

// Eq is column = value.
func Eq(column, value string) Filter { return Filter{Column: column, Op: OpEq, Value: value} }

// Gte is column >= value.
func Gte(column, value string) Filter { return Filter{Column: column, Op: OpGte, Value: value} }

// Lte is column <= value.
func Lte(column, value string) Filter { return Filter{Column: column, Op: OpLte, Value: value} }

// Ilike is a case-insensitive pattern match; '*' is the wildcard.
func Ilike(column, pattern string) Filter {
	return Filter{Column: column, Op: OpIlike, Value: pattern}
}

// In is column IN (values).
func In(column string, values ...string) Filter {
	return Filter{Column: column, Op: OpIn, Values: values}
}

// NotNull keeps rows whose column is set.
func NotNull(column string) Filter { return Filter{Column: column, Op: OpNotNull} }

// Encode renders the PostgREST value of the filter ("eq.415회", "in.(a,b)").
func (f Filter) Encode() string {
	switch f.Op {
	case OpIn:
		return "in.(" + strings.Join(f.Values, ",") + ")"
	case OpNotNull:
		return string(OpNotNull)
	default:
		return string(f.Op) + "." + f.Value
	}
}

// Order sorts by one column.
type Order struct {
	Column string
	Desc   bool
}

// Params describe one select.
type Params struct {
	// Select is the column list ("*" when empty).
	Select  string
	Filters []Filter
	Order   []Order
	Limit   int
	Offset  int
}

// Columns returns the selected column names, or nil for "*".
func (p Params) Columns() []string {
	if p.Select == "" || p.Select == "*" {
		return nil
	}
	var cols []string
	for _, c := range strings.Split(p.Select, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// Values encodes the params as a PostgREST query.
func (p Params) Values() url.Values {
	v := url.Values{}
	sel := p.Select
	if sel == "" {
		sel = "*"
	}
	v.Set("select", sel)
	for _, f := range p.Filters {
		v.Add(f.Column, f.Encode())
	}
	if len(p.Order) > 0 {
		parts := make([]string, len(p.Order))
		for i, o := range p.Order {
			dir := "asc"
			if o.Desc {
				dir = "desc"
			}
			parts[i] = o.Column + "." + dir
		}
		v.Set("order", strings.Join(parts, ","))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		v.Set("offset", strconv.Itoa(p.Offset))
	}
	return v
}

// Key renders the params canonically, for cache keys.
func (p Params) Key() string {
	v := p.Values()
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		vals := append([]string(nil), v[k]...)
		sort.Strings(vals)
		for _, val := range vals {
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(val)
			b.WriteByte('&')
		}
	}
	return b.String()
}

// Page is the page size of SelectAll.
const Page = 1000

// SelectAll pages through a table until a short page or maxRows is reached.
// maxRows <= 0 means no cap.
func SelectAll(ctx context.Context, src Source, table string, params Params, maxRows int) ([]records.Record, error) {
	out := []records.Record{}
	offset := params.Offset
	for {
		page := params
		page.Limit = Page
		page.Offset = offset
		if maxRows > 0 && maxRows-len(out) < Page {
			page.Limit = maxRows - len(out)
		}

		rows, err := src.Select(ctx, table, page)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
		if len(rows) < page.Limit {
			return out, nil
		}
		if maxRows > 0 && len(out) >= maxRows {
			return out, nil
		}
		offset += len(rows)
	}
}
