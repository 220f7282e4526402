package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"

	"assembly-dashboard-be/pkg/dashboard/records"
)

// MemorySource serves tables held in memory with the same filter vocabulary as PostgREST.
// It backs offline runs of the CLI and tests.
type MemorySource struct {
	mu     sync.RWMutex
	tables map[string][]records.Record
	fail   map[string]error
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		tables: make(map[string][]records.Record),
		fail:   make(map[string]error),
	}
}

// Put replaces the rows of table.
func (m *MemorySource) Put(table string, rows []records.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table] = rows
}

// Fail makes every select on table return err (nil clears it).
func (m *MemorySource) Fail(table string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, table)
		return
	}
	m.fail[table] = err
}

// Load reads a JSON object of table name -> row list.
func (m *MemorySource) Load(r io.Reader) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var tables map[string][]records.Record
	if err := dec.Decode(&tables); err != nil {
		return fmt.Errorf("decode fixture: %w", err)
	}
	for name, rows := range tables {
		m.Put(name, rows)
	}
	return nil
}

func (m *MemorySource) Select(ctx context.Context, table string, params Params) ([]records.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	rows, ok := m.tables[table]
	failure := m.fail[table]
	m.mu.RUnlock()

	if failure != nil {
		return nil, failure
	}
	if !ok {
		return nil, &FetchError{Table: table, Status: 404, Body: fmt.Sprintf("relation %q does not exist", table)}
	}

	out := make([]records.Record, 0, len(rows))
	for _, r := range rows {
		if matchAll(r, params.Filters) {
			out = append(out, r)
		}
	}

	if len(params.Order) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, o := range params.Order {
				c := compareValues(out[i][o.Column], out[j][o.Column])
				if c == 0 {
					continue
				}
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	if params.Offset > 0 {
		if params.Offset >= len(out) {
			return []records.Record{}, nil
		}
		out = out[params.Offset:]
	}
	if params.Limit > 0 && len(out) > params.Limit {
		out = out[:params.Limit]
	}

	cols := params.Columns()
	if cols == nil {
		return out, nil
	}
	projected := make([]records.Record, len(out))
	for i, r := range out {
		p := make(records.Record, len(cols))
		for _, c := range cols {
			if v, ok := r[c]; ok {
				p[c] = v
			}
		}
		projected[i] = p
	}
	return projected, nil
}

func matchAll(r records.Record, filters []Filter) bool {
	for _, f := range filters {
		if !matchFilter(r, f) {
			return false
		}
	}
	return true
}

func matchFilter(r records.Record, f Filter) bool {
	v, present := r[f.Column]
	switch f.Op {
	case OpNotNull:
		return present && v != nil
	case OpEq:
		return present && r.Text(f.Column) == f.Value
	case OpIn:
		return present && slices.Contains(f.Values, r.Text(f.Column))
	case OpGte:
		return present && v != nil && compareValues(v, f.Value) >= 0
	case OpLte:
		return present && v != nil && compareValues(v, f.Value) <= 0
	case OpIlike:
		return present && likePattern(f.Value).MatchString(r.Text(f.Column))
	}
	return false
}

func likePattern(p string) *regexp.Regexp {
	parts := strings.Split(p, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.MustCompile("(?is)^" + strings.Join(parts, ".*") + "$")
}

// compareValues orders numerically when both sides are numbers, else lexically.
func compareValues(a, b interface{}) int {
	fa, okA := records.SafeFloat(a)
	fb, okB := records.SafeFloat(b)
	if okA && okB {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
