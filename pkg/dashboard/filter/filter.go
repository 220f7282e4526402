package filter

import (
	"strings"

	"assembly-dashboard-be/pkg/dashboard/records"

	"golang.org/x/text/cases"
)

// All is the categorical value meaning "no restriction".
const All = "all"

// Categorical restricts a view to records whose Field equals Value exactly.
type Categorical struct {
	Field records.Field `json:"field,omitempty"`
	Value string        `json:"value,omitempty"`
}

// Active reports whether the filter restricts anything.
func (c Categorical) Active() bool {
	return c.Field != "" && c.Value != "" && c.Value != All && c.Value != "전체"
}

// Predicate selects records.
type Predicate func(records.Record) bool

// MatchCategory builds the exact-match predicate of c.
func MatchCategory(c Categorical, fields records.FieldTable) Predicate {
	if !c.Active() {
		return nil
	}
	return func(r records.Record) bool {
		return fields.String(r, c.Field) == c.Value
	}
}

// MatchText builds the case-insensitive substring predicate over the serialized record.
func MatchText(query string) Predicate {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil
	}
	folder := cases.Fold()
	needle := folder.String(q)
	return func(r records.Record) bool {
		return strings.Contains(folder.String(r.Serialize()), needle)
	}
}

// Apply keeps the records accepted by every predicate, preserving their order.
// Nil predicates are ignored.
func Apply(rs []records.Record, preds ...Predicate) []records.Record {
	active := preds[:0:0]
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}
	out := make([]records.Record, 0, len(rs))
next:
	for _, r := range rs {
		for _, p := range active {
			if !p(r) {
				continue next
			}
		}
		out = append(out, r)
	}
	return out
}

// Spec is the filter state of one view.
type Spec struct {
	Category Categorical `json:"category"`
	Text     string      `json:"text,omitempty"`
}

// Empty reports whether the spec restricts nothing.
func (s Spec) Empty() bool {
	return !s.Category.Active() && strings.TrimSpace(s.Text) == ""
}

// Composer narrows record lists by a Spec.
type Composer struct {
	fields records.FieldTable
}

// NewComposer creates a composer reading fields through the given table.
func NewComposer(fields records.FieldTable) *Composer {
	return &Composer{fields: fields}
}

// Apply runs the categorical and text filters of s over rs.
func (c *Composer) Apply(rs []records.Record, s Spec) []records.Record {
	return Apply(rs, MatchCategory(s.Category, c.fields), MatchText(s.Text))
}

// Values lists the distinct values of field in first-seen order, for filter dropdowns.
func (c *Composer) Values(rs []records.Record, field records.Field) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rs {
		v := c.fields.String(r, field)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
