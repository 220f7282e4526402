package aggregate

import (
	"sort"
	"strings"

	"assembly-dashboard-be/pkg/dashboard/records"
)

// Law reform scopes, in display order.
var LawScopes = []string{"법개정", "제도개선", "규정변경"}

// StackRow is one input row: a group label and some named metric values.
type StackRow struct {
	Group   string
	Metrics map[string]float64
}

// StackGroup is one output bar. Totals is aligned with StackedAggregate.Metrics.
type StackGroup struct {
	Label  string    `json:"label"`
	Totals []float64 `json:"totals"`
	Sum    float64   `json:"sum"`
}

// StackedAggregate is the ordered list of groups with per-metric totals.
type StackedAggregate struct {
	Metrics []string     `json:"metrics"`
	Groups  []StackGroup `json:"groups"`
}

// Stack sums metrics per group and orders groups by descending sum.
// Ties keep first-seen order. Metric names outside metrics are ignored; rows without a group are dropped.
func Stack(rows []StackRow, metrics []string) StackedAggregate {
	index := make(map[string]int, len(metrics))
	for i, m := range metrics {
		index[m] = i
	}

	var groups []StackGroup
	pos := make(map[string]int)
	for _, r := range rows {
		label := strings.TrimSpace(r.Group)
		if label == "" {
			continue
		}
		gi, ok := pos[label]
		if !ok {
			gi = len(groups)
			pos[label] = gi
			groups = append(groups, StackGroup{Label: label, Totals: make([]float64, len(metrics))})
		}
		for name, v := range r.Metrics {
			mi, known := index[name]
			if !known {
				continue
			}
			groups[gi].Totals[mi] += v
			groups[gi].Sum += v
		}
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Sum > groups[j].Sum })
	if groups == nil {
		groups = []StackGroup{}
	}
	return StackedAggregate{Metrics: append([]string(nil), metrics...), Groups: groups}
}

// Total returns the metric total of a group (0 when absent).
func (s StackedAggregate) Total(group, metric string) float64 {
	for _, g := range s.Groups {
		if g.Label != group {
			continue
		}
		for i, m := range s.Metrics {
			if m == metric {
				return g.Totals[i]
			}
		}
	}
	return 0
}

// ScopeKey normalises a scope label ("법 개정" -> "법개정").
func ScopeKey(s string) string {
	return strings.Join(strings.Fields(s), "")
}

// LawStackRows converts law2 rows into stack rows grouped by groupField.
// The metric name is the row's scope, its value the row's count. Malformed counts contribute 0.
func LawStackRows(rs []records.Record, fields records.FieldTable, groupField records.Field) []StackRow {
	out := make([]StackRow, 0, len(rs))
	for _, r := range rs {
		group := fields.String(r, groupField)
		if group == "" {
			continue
		}
		count, ok := fields.Float(r, records.FieldCount)
		if !ok {
			count = 0
		}
		out = append(out, StackRow{
			Group:   group,
			Metrics: map[string]float64{ScopeKey(fields.String(r, records.FieldScope)): count},
		})
	}
	return out
}
