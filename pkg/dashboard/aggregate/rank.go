package aggregate

import (
	"sort"

	"assembly-dashboard-be/pkg/dashboard/records"
)

// RankOptions scopes and truncates a ranking.
type RankOptions struct {
	// Scope restricts rows to one session (or term) when positive.
	Scope int
	// ScopeField is the logical field holding each row's scope identifier.
	ScopeField records.Field
	// Limit keeps the top-N entries when positive.
	Limit int
}

// RankedEntity is one (entity, subgroup) aggregate.
type RankedEntity struct {
	Entity   string  `json:"entity"`
	Subgroup string  `json:"subgroup"`
	Total    float64 `json:"total"`
}

type rankKey struct {
	entity   string
	subgroup string
}

// Rank groups rows by the exact (entity, subgroup) pair, sums the metric and sorts by
// descending total with input order as tie-break.
// Rows without an entity or with a malformed metric are skipped. With a target scope, rows whose
// scope cannot be read are excluded.
func Rank(rs []records.Record, fields records.FieldTable, opts RankOptions) []RankedEntity {
	scopeField := opts.ScopeField
	if scopeField == "" {
		scopeField = records.FieldSession
	}

	out := []RankedEntity{}
	pos := make(map[rankKey]int)
	for _, r := range rs {
		if opts.Scope > 0 {
			id, ok := fields.ScopeID(r, scopeField)
			if !ok || id != opts.Scope {
				continue
			}
		}
		entity := fields.String(r, records.FieldSpeaker)
		if entity == "" {
			continue
		}
		metric, ok := fields.Float(r, records.FieldCount)
		if !ok {
			continue
		}
		key := rankKey{entity: entity, subgroup: fields.String(r, records.FieldParty)}
		i, seen := pos[key]
		if !seen {
			i = len(out)
			pos[key] = i
			out = append(out, RankedEntity{Entity: key.entity, Subgroup: key.subgroup})
		}
		out[i].Total += metric
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}
